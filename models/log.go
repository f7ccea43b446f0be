package models

import (
	"time"

	"github.com/google/uuid"
)

// PortalAuditLog records user-visible portal actions (login, hold, payment
// attempt, bid update) for operational review. It is append-only bookkeeping,
// not business state.
type PortalAuditLog struct {
	ID        uuid.UUID `json:"id"`
	SessionID uuid.UUID `json:"session_id"`
	UserID    int       `json:"user_id"`
	Action    string    `json:"action"`
	Detail    string    `json:"detail"`
	Outcome   string    `json:"outcome"`
	Timestamp time.Time `json:"timestamp"`
}

// Audit actions written by the portal
const (
	AuditActionLogin     = "login"
	AuditActionLogout    = "logout"
	AuditActionHoldPlot  = "hold_plot"
	AuditActionPayToken  = "pay_token"
	AuditActionUpdateBid = "update_bid"
)
