package models

import "time"

// DashboardStats is the aggregate block rendered at the top of the admin view
type DashboardStats struct {
	TotalPlots     int     `json:"total_plots"`
	PlotsSold      int     `json:"plots_sold"`
	PlotsReserved  int     `json:"plots_reserved"`
	TotalRevenue   float64 `json:"total_revenue"`
	TokensReceived float64 `json:"tokens_received"`
	ActiveBidders  int     `json:"active_bidders"`

	// Optional transaction rows embedded in the stats payload; merged with
	// the raw payment list and de-duplicated by plot id.
	Transactions []PaymentRecord `json:"transactions,omitempty"`
}

// PaymentRecord is one row of the paginated payment list
type PaymentRecord struct {
	ID            int        `json:"id"`
	PlotID        int        `json:"plot_id"`
	PlotNo        string     `json:"plot_no"`
	Phase         string     `json:"phase"`
	CustomerName  string     `json:"customer_name"`
	CustomerCNIC  string     `json:"customer_cnic"`
	TokenAmount   float64    `json:"token_amount"`
	BidAmount     *float64   `json:"bid_amount,omitempty"`
	PaymentMethod string     `json:"payment_method"`
	PSID          *string    `json:"psid,omitempty"`
	Status        string     `json:"status"`
	PaidAt        *time.Time `json:"paid_at,omitempty"`
}

// PaymentPage is one page of payment records with upstream paging metadata
type PaymentPage struct {
	Records     []PaymentRecord `json:"records"`
	CurrentPage int             `json:"current_page"`
	LastPage    int             `json:"last_page"`
	Total       int             `json:"total"`
}

// TopBidder is one leaderboard row for a commercial plot
type TopBidder struct {
	PlotID       int     `json:"plot_id"`
	PlotNo       string  `json:"plot_no"`
	CustomerName string  `json:"customer_name"`
	BidAmount    float64 `json:"bid_amount"`
	Rank         int     `json:"rank"`
}

// RegisteredUser is one row of the registered-users listing
type RegisteredUser struct {
	ID           int        `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	Phone        string     `json:"phone"`
	CNIC         string     `json:"cnic"`
	RegisteredAt *time.Time `json:"registered_at,omitempty"`
}
