package models

import "time"

// Booking statuses as reported by the expo backend
const (
	BookingStatusPending    = "Pending"
	BookingStatusInprogress = "Inprogress"
	BookingStatusCompleted  = "Completed"
)

// Payment methods accepted by the reserve-plot endpoint
const (
	PaymentMethodCard     = "card"
	PaymentMethodKuickPay = "kuickpay"
)

// BidIncrement is the fixed step commercial bids must be a multiple of
const BidIncrement = 100000

// Booking is a reservation held against a plot. The expo backend owns the
// hold lock and its 15-minute expiry; ExpiresAt is display-only here.
type Booking struct {
	ID          int     `json:"id"`
	PlotID      int     `json:"plot_id"`
	PlotNo      string  `json:"plot_no"`
	Phase       string  `json:"phase"`
	Category    string  `json:"category"`
	TokenAmount float64 `json:"token_amount"`

	PaymentMethod string  `json:"payment_method"`
	PSID          *string `json:"psid,omitempty"`
	ChallanNo     *string `json:"challan_no,omitempty"`
	Status        string  `json:"status"`
	PlanType      *string `json:"plan_type,omitempty"`

	// Bid fields, commercial plots only. Rank is only ever trusted from a
	// fresh upstream fetch, never computed locally.
	BidAmount *float64 `json:"bid_amount,omitempty"`
	Rank      *int     `json:"rank,omitempty"`

	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

// IsBidding reports whether the booking participates in commercial bidding
func (b *Booking) IsBidding() bool {
	return b.BidAmount != nil
}

// HoldResult is the outcome of a hold-plot call
type HoldResult struct {
	BookingID int        `json:"booking_id"`
	PlotID    int        `json:"plot_id"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// PaymentResult is the outcome of a reserve-plot (pay-token) call. Exactly one
// of RedirectURL (card) or PSID (reference-number flow) is populated.
type PaymentResult struct {
	BookingID   int     `json:"booking_id"`
	RedirectURL *string `json:"redirect_url,omitempty"`
	PSID        *string `json:"psid,omitempty"`
	Message     string  `json:"message,omitempty"`
}

// FeeQuote is the kuick-pay fee for a given token amount
type FeeQuote struct {
	TokenAmount float64 `json:"token_amount"`
	Fee         float64 `json:"fee"`
	Total       float64 `json:"total"`
}
