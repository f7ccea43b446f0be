package services

import (
	"context"
	"database/sql"

	"github.com/ShafHaider007/expo-portal/models"
	"github.com/sirupsen/logrus"
)

// AuditService appends portal actions to the audit table. With no database
// configured it degrades to structured logging; an audit failure never fails
// the action it describes.
type AuditService struct {
	DB *sql.DB
}

// NewAuditService creates a new audit service
func NewAuditService(db *sql.DB) *AuditService {
	return &AuditService{DB: db}
}

// Record writes one audit row for the given session and action
func (s *AuditService) Record(ctx context.Context, session *models.Session, action, detail, outcome string) {
	logger := logrus.WithFields(logrus.Fields{
		"component":  "AuditService",
		"session_id": session.ID,
		"user_id":    session.User.ID,
		"action":     action,
		"outcome":    outcome,
	})

	if s.DB == nil {
		logger.Info("Audit (log only)")
		return
	}

	query := `
		INSERT INTO portal_audit_log (session_id, user_id, action, detail, outcome, timestamp)
		VALUES ($1, $2, $3, $4, $5, NOW())
	`

	if _, err := s.DB.ExecContext(ctx, query, session.ID, session.User.ID, action, detail, outcome); err != nil {
		logger.WithError(err).Warn("Failed to write audit row")
		return
	}

	logger.Debug("Audit recorded")
}
