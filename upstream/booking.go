package upstream

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/ShafHaider007/expo-portal/models"
)

// HoldPlot asks the backend to place a hold on a plot. Idempotency and
// locking are entirely upstream; the gateway only reacts to the outcome.
func (c *Client) HoldPlot(ctx context.Context, token string, plotID int) (*models.HoldResult, error) {
	query := url.Values{}
	query.Set("plot_id", strconv.Itoa(plotID))

	env, err := c.postMultipart(ctx, token, "/hold-plot", query, nil, "HoldPlot")
	if err != nil {
		return nil, err
	}

	var result models.HoldResult
	if err := decodeData(env, &result, "HoldPlot"); err != nil {
		return nil, err
	}
	return &result, nil
}

// ReserveInput is the multipart body for /reserve-plot
type ReserveInput struct {
	PlotID        int
	TokenAmount   float64
	BidAmount     *float64
	PaymentMethod string
	PlanType      string
}

// ReservePlot submits the token payment for a held plot. Card payments come
// back as a redirect URL; the reference-number flow returns a PSID the user
// completes out-of-band.
func (c *Client) ReservePlot(ctx context.Context, token string, input ReserveInput) (*models.PaymentResult, error) {
	fields := map[string]string{
		"plot_id":        strconv.Itoa(input.PlotID),
		"token_amount":   fmt.Sprintf("%.2f", input.TokenAmount),
		"payment_method": input.PaymentMethod,
	}
	if input.BidAmount != nil {
		fields["bid_amount"] = fmt.Sprintf("%.2f", *input.BidAmount)
	}
	if input.PlanType != "" {
		fields["plan_type"] = input.PlanType
	}

	env, err := c.postMultipart(ctx, token, "/reserve-plot", nil, fields, "ReservePlot")
	if err != nil {
		return nil, err
	}

	var result models.PaymentResult
	if err := decodeData(env, &result, "ReservePlot"); err != nil {
		return nil, err
	}
	return &result, nil
}

// UpdateBidAmount submits a new bid for a held commercial booking
func (c *Client) UpdateBidAmount(ctx context.Context, token string, bookingID int, bidAmount float64) error {
	query := url.Values{}
	query.Set("reserve_booking_id", strconv.Itoa(bookingID))
	query.Set("bid_amount", fmt.Sprintf("%.0f", bidAmount))

	_, err := c.put(ctx, token, "/update-bid-amount", query, "UpdateBidAmount")
	return err
}

// KuickPayFee fetches the processing fee for a token amount
func (c *Client) KuickPayFee(ctx context.Context, token string, tokenAmount float64) (*models.FeeQuote, error) {
	query := url.Values{}
	query.Set("token_amount", fmt.Sprintf("%.2f", tokenAmount))

	env, err := c.getJSON(ctx, token, "/kuick-pay-fee", query, "KuickPayFee")
	if err != nil {
		return nil, err
	}

	var result models.FeeQuote
	if err := decodeData(env, &result, "KuickPayFee"); err != nil {
		return nil, err
	}
	return &result, nil
}

// MyBookings fetches the caller's bookings with current bid ranks. The rank
// shown anywhere in the portal always comes from this fetch, never from a
// local computation.
func (c *Client) MyBookings(ctx context.Context, token string) ([]models.Booking, error) {
	env, err := c.getJSON(ctx, token, "/my-bookings", nil, "MyBookings")
	if err != nil {
		return nil, err
	}

	var result []models.Booking
	if err := decodeData(env, &result, "MyBookings"); err != nil {
		return nil, err
	}
	return result, nil
}
