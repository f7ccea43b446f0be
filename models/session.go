package models

import (
	"time"

	"github.com/google/uuid"
)

// User roles as issued by the expo backend at login/OTP verification
const (
	RoleCustomer  = "customer"
	RoleAdmin     = "admin"
	RoleMarketing = "marketing"
)

type User struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Phone  string `json:"phone"`
	CNIC   string `json:"cnic"`
	Role   string `json:"role"`
	Status string `json:"status,omitempty"`
}

// CanViewDashboard reports whether the role grants access to admin views
func (u *User) CanViewDashboard() bool {
	return u.Role == RoleAdmin || u.Role == RoleMarketing
}

// Session binds an upstream bearer token to a user and the per-session UI
// state the portal coordinates (active filters and plot selection). Created
// at login or OTP verification, destroyed at logout or by the idle sweep.
type Session struct {
	ID            uuid.UUID `json:"id"`
	UpstreamToken string    `json:"-"`
	User          User      `json:"user"`
	CreatedAt     time.Time `json:"created_at"`

	// LastSeenAt is guarded by the owning SessionService's mutex; Touch and
	// IdleSince must not be called outside it once the session is registered.
	LastSeenAt time.Time `json:"last_seen_at"`

	// OTP resend is throttled upstream; the deadline is tracked here so the
	// portal can surface the remaining wait without another round trip.
	OTPResendAfter *time.Time `json:"otp_resend_after,omitempty"`
}

// Touch records activity so the idle sweep keeps the session alive
func (s *Session) Touch() {
	s.LastSeenAt = time.Now()
}

// IdleSince reports how long the session has been inactive
func (s *Session) IdleSince() time.Duration {
	return time.Since(s.LastSeenAt)
}
