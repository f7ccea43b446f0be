package services

import (
	"context"
	"sync"
	"time"

	"github.com/ShafHaider007/expo-portal/models"
	"github.com/ShafHaider007/expo-portal/shared"
	"github.com/ShafHaider007/expo-portal/upstream"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// SessionService owns the session lifecycle: minted at login or OTP
// verification, destroyed at logout or by the idle sweep. Everything that
// used to live in ambient browser storage is held here and injected
// explicitly into the components that need it.
type SessionService struct {
	upstream *upstream.Client
	audit    *AuditService

	sessions map[uuid.UUID]*models.Session
	mutex    sync.RWMutex

	serviceMetrics *shared.ServiceMetrics
}

// NewSessionService creates a new session service
func NewSessionService(client *upstream.Client, audit *AuditService) *SessionService {
	return &SessionService{
		upstream:       client,
		audit:          audit,
		sessions:       make(map[uuid.UUID]*models.Session),
		serviceMetrics: shared.NewServiceMetrics("Session_Service"),
	}
}

// LoginResult is what a successful auth call hands back to the portal: the
// portal session token, the user, or a pending OTP challenge.
type LoginResult struct {
	SessionToken   string       `json:"session_token,omitempty"`
	User           *models.User `json:"user,omitempty"`
	OTPRequired    bool         `json:"otp_required"`
	ResendAfterSec int          `json:"resend_after_seconds,omitempty"`
}

// Login authenticates against the expo backend and mints a portal session
func (s *SessionService) Login(ctx context.Context, identifier, password string) (*LoginResult, error) {
	startTime := time.Now()

	result, err := s.upstream.Login(ctx, identifier, password)
	if err != nil {
		s.serviceMetrics.RecordRequest(false, time.Since(startTime))
		return nil, err
	}
	s.serviceMetrics.RecordRequest(true, time.Since(startTime))

	if result.OTPRequired {
		return &LoginResult{
			OTPRequired:    true,
			ResendAfterSec: result.ResendAfterSeconds,
		}, nil
	}

	session := s.mint(result)
	s.audit.Record(ctx, session, models.AuditActionLogin, identifier, "success")

	return &LoginResult{
		SessionToken: session.ID.String(),
		User:         &session.User,
	}, nil
}

// Register creates an account upstream; the backend answers with an OTP
// challenge rather than a token
func (s *SessionService) Register(ctx context.Context, input upstream.RegisterInput) (*LoginResult, error) {
	result, err := s.upstream.Register(ctx, input)
	if err != nil {
		return nil, err
	}

	return &LoginResult{
		OTPRequired:    true,
		ResendAfterSec: result.ResendAfterSeconds,
	}, nil
}

// VerifyOTP exchanges a code for an upstream token and mints the session
func (s *SessionService) VerifyOTP(ctx context.Context, identifier, code string) (*LoginResult, error) {
	result, err := s.upstream.VerifyOTP(ctx, identifier, code)
	if err != nil {
		return nil, err
	}

	if result.Token == "" {
		return nil, shared.NewServiceError(
			shared.ErrorCategoryShape, "MISSING_TOKEN",
			"upstream verified the code but returned no token",
			"Session_Service", "VerifyOTP", false, nil)
	}

	session := s.mint(result)
	s.audit.Record(ctx, session, models.AuditActionLogin, identifier, "otp_verified")

	return &LoginResult{
		SessionToken: session.ID.String(),
		User:         &session.User,
	}, nil
}

// ResendOTP asks upstream for a fresh code and reports the new resend deadline
func (s *SessionService) ResendOTP(ctx context.Context, identifier string) (*LoginResult, error) {
	result, err := s.upstream.ResendOTP(ctx, identifier)
	if err != nil {
		return nil, err
	}

	return &LoginResult{
		OTPRequired:    true,
		ResendAfterSec: result.ResendAfterSeconds,
	}, nil
}

func (s *SessionService) mint(result *upstream.AuthResult) *models.Session {
	session := &models.Session{
		ID:            uuid.New(),
		UpstreamToken: result.Token,
		User:          result.User,
		CreatedAt:     time.Now(),
		LastSeenAt:    time.Now(),
	}

	s.mutex.Lock()
	s.sessions[session.ID] = session
	s.mutex.Unlock()

	logrus.WithFields(logrus.Fields{
		"component":  "SessionService",
		"session_id": session.ID,
		"user_id":    session.User.ID,
		"role":       session.User.Role,
	}).Info("Session created")

	return session
}

// Lookup resolves a portal bearer token to a session, touching it on hit
func (s *SessionService) Lookup(token string) (*models.Session, bool) {
	id, err := uuid.Parse(token)
	if err != nil {
		return nil, false
	}

	// Touch under the write lock: LastSeenAt is read by the idle sweep and
	// by concurrent lookups of the same token.
	s.mutex.Lock()
	defer s.mutex.Unlock()

	session, exists := s.sessions[id]
	if !exists {
		return nil, false
	}

	session.Touch()
	return session, true
}

// Logout destroys the session. Subsequent protected actions fail with an
// authentication error until a fresh login.
func (s *SessionService) Logout(ctx context.Context, token string) bool {
	session, exists := s.Lookup(token)
	if !exists {
		return false
	}

	s.mutex.Lock()
	delete(s.sessions, session.ID)
	s.mutex.Unlock()

	s.audit.Record(ctx, session, models.AuditActionLogout, "", "success")

	logrus.WithFields(logrus.Fields{
		"component":  "SessionService",
		"session_id": session.ID,
		"user_id":    session.User.ID,
	}).Info("Session destroyed")

	return true
}

// ActiveSessions returns a snapshot of current sessions, used by the rank
// refresh job
func (s *SessionService) ActiveSessions() []*models.Session {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	sessions := make([]*models.Session, 0, len(s.sessions))
	for _, session := range s.sessions {
		sessions = append(sessions, session)
	}
	return sessions
}

// Count returns the number of live sessions
func (s *SessionService) Count() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.sessions)
}

// SweepIdle removes sessions idle longer than maxIdle and returns their ids
// so per-session view state can be dropped alongside
func (s *SessionService) SweepIdle(maxIdle time.Duration) []uuid.UUID {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	var removed []uuid.UUID
	for id, session := range s.sessions {
		if session.IdleSince() > maxIdle {
			delete(s.sessions, id)
			removed = append(removed, id)
		}
	}

	if len(removed) > 0 {
		logrus.WithFields(logrus.Fields{
			"component": "SessionService",
			"removed":   len(removed),
		}).Info("Swept idle sessions")
	}

	return removed
}

// Metrics exposes the service metrics for the health endpoint
func (s *SessionService) Metrics() *shared.ServiceMetrics {
	return s.serviceMetrics
}
