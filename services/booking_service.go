package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ShafHaider007/expo-portal/models"
	"github.com/ShafHaider007/expo-portal/shared"
	"github.com/ShafHaider007/expo-portal/upstream"
)

const bookingServiceName = "BookingService"

// PaymentInput is the boundary-validated form for a token payment
type PaymentInput struct {
	PlotID        int     `json:"plot_id"`
	PaymentMethod string  `json:"payment_method"`
	PlanType      string  `json:"plan_type,omitempty"`
	BidAmount     float64 `json:"bid_amount,omitempty"`
}

// BookingService drives the reservation flow: hold, token payment and the
// booking list. All money movement and hold locking is upstream; this layer
// validates input presence, routes the two payment flows and records audit
// entries.
type BookingService struct {
	upstream  *upstream.Client
	plots     *PlotService
	selection *SelectionService
	audit     *AuditService
	cache     *CacheService

	serviceMetrics *shared.ServiceMetrics
}

// NewBookingService creates a booking service over the given collaborators
func NewBookingService(client *upstream.Client, plots *PlotService, selection *SelectionService, audit *AuditService, cache *CacheService) *BookingService {
	return &BookingService{
		upstream:       client,
		plots:          plots,
		selection:      selection,
		audit:          audit,
		cache:          cache,
		serviceMetrics: shared.NewServiceMetrics(bookingServiceName),
	}
}

// BookingsCacheKey is the cache slot holding a session's last fetched
// bookings. Written by every successful booking-list fetch and by the rank
// refresh job; read back when the backend is unreachable.
func BookingsCacheKey(sessionID uuid.UUID) string {
	return fmt.Sprintf("bookings|%s", sessionID)
}

// Hold places a hold on the session's currently visible plot. The plot must
// be in the session's filtered view and still selectable.
func (s *BookingService) Hold(ctx context.Context, session *models.Session, plotID int) (*models.HoldResult, error) {
	start := time.Now()

	plot, err := s.plots.VisiblePlot(session.ID, plotID)
	if err != nil {
		s.serviceMetrics.RecordRequest(false, time.Since(start))
		return nil, err
	}
	if !plot.IsSelectable() {
		err := shared.NewValidationError(bookingServiceName, "Hold", map[string][]string{
			"plot_id": {fmt.Sprintf("Plot %s is no longer available.", plot.PlotNo)},
		})
		s.serviceMetrics.RecordRequest(false, time.Since(start))
		return nil, err
	}

	result, err := s.upstream.HoldPlot(ctx, session.UpstreamToken, plotID)
	if err != nil {
		s.audit.Record(ctx, session, models.AuditActionHoldPlot, fmt.Sprintf("plot_id=%d", plotID), "failure")
		s.serviceMetrics.RecordRequest(false, time.Since(start))
		return nil, err
	}

	s.audit.Record(ctx, session, models.AuditActionHoldPlot, fmt.Sprintf("plot_id=%d booking_id=%d", plotID, result.BookingID), "success")
	logrus.WithFields(logrus.Fields{
		"component":  bookingServiceName,
		"operation":  "Hold",
		"session_id": session.ID,
		"plot_id":    plotID,
		"booking_id": result.BookingID,
	}).Info("Plot held")

	s.serviceMetrics.RecordRequest(true, time.Since(start))
	return result, nil
}

// PayToken submits the token payment for a held plot. Validation here is
// presence and routing only; amounts, fees and hold expiry are enforced
// upstream. Card payments return a redirect URL, the reference-number flow
// returns a PSID.
func (s *BookingService) PayToken(ctx context.Context, session *models.Session, input PaymentInput) (*models.PaymentResult, error) {
	start := time.Now()

	fieldErrors := make(map[string][]string)
	if input.PlotID <= 0 {
		fieldErrors["plot_id"] = []string{"A plot is required."}
	}
	switch input.PaymentMethod {
	case models.PaymentMethodCard, models.PaymentMethodKuickPay:
	case "":
		fieldErrors["payment_method"] = []string{"A payment method is required."}
	default:
		fieldErrors["payment_method"] = []string{"Payment method must be card or kuickpay."}
	}
	if input.BidAmount < 0 {
		fieldErrors["bid_amount"] = []string{"Bid amount cannot be negative."}
	}
	if len(fieldErrors) > 0 {
		s.serviceMetrics.RecordRequest(false, time.Since(start))
		return nil, shared.NewValidationError(bookingServiceName, "PayToken", fieldErrors)
	}

	plot, err := s.plots.VisiblePlot(session.ID, input.PlotID)
	if err != nil {
		s.serviceMetrics.RecordRequest(false, time.Since(start))
		return nil, err
	}

	reserve := upstream.ReserveInput{
		PlotID:        input.PlotID,
		TokenAmount:   plot.TokenAmount,
		PaymentMethod: input.PaymentMethod,
		PlanType:      input.PlanType,
	}
	if input.BidAmount > 0 {
		if !plot.IsCommercial() {
			s.serviceMetrics.RecordRequest(false, time.Since(start))
			return nil, shared.NewValidationError(bookingServiceName, "PayToken", map[string][]string{
				"bid_amount": {"Only commercial plots accept bids."},
			})
		}
		bid := input.BidAmount
		reserve.BidAmount = &bid
	}

	result, err := s.upstream.ReservePlot(ctx, session.UpstreamToken, reserve)
	if err != nil {
		s.audit.Record(ctx, session, models.AuditActionPayToken, fmt.Sprintf("plot_id=%d method=%s", input.PlotID, input.PaymentMethod), "failure")
		s.serviceMetrics.RecordRequest(false, time.Since(start))
		return nil, err
	}

	s.audit.Record(ctx, session, models.AuditActionPayToken,
		fmt.Sprintf("plot_id=%d booking_id=%d method=%s", input.PlotID, result.BookingID, input.PaymentMethod), "success")
	logrus.WithFields(logrus.Fields{
		"component":      bookingServiceName,
		"operation":      "PayToken",
		"session_id":     session.ID,
		"plot_id":        input.PlotID,
		"booking_id":     result.BookingID,
		"payment_method": input.PaymentMethod,
	}).Info("Token payment submitted")

	// Payment takes the plot out of play for this session
	s.selection.Clear(session.ID)

	s.serviceMetrics.RecordRequest(true, time.Since(start))
	return result, nil
}

// Fee fetches the kuick-pay processing fee for the plot's token amount
func (s *BookingService) Fee(ctx context.Context, session *models.Session, plotID int) (*models.FeeQuote, error) {
	plot, err := s.plots.VisiblePlot(session.ID, plotID)
	if err != nil {
		return nil, err
	}
	return s.upstream.KuickPayFee(ctx, session.UpstreamToken, plot.TokenAmount)
}

// Bookings fetches the caller's bookings with fresh bid ranks. When the
// backend is unreachable the last refreshed snapshot is served instead, so
// the list stays readable; its ranks are as fresh as the last successful
// fetch or rank refresh.
func (s *BookingService) Bookings(ctx context.Context, session *models.Session) ([]models.Booking, error) {
	start := time.Now()
	bookings, err := s.upstream.MyBookings(ctx, session.UpstreamToken)
	s.serviceMetrics.RecordRequest(err == nil, time.Since(start))
	if err != nil {
		if shared.IsRetryableError(err) {
			if cached, ok := s.cache.Get(BookingsCacheKey(session.ID)); ok {
				if snapshot, ok := cached.([]models.Booking); ok {
					logrus.WithFields(logrus.Fields{
						"component":  bookingServiceName,
						"operation":  "Bookings",
						"session_id": session.ID,
					}).Warn("Serving bookings from the last refreshed snapshot")
					return snapshot, nil
				}
			}
		}
		return nil, err
	}
	if bookings == nil {
		bookings = []models.Booking{}
	}
	s.cache.Set(BookingsCacheKey(session.ID), bookings)
	return bookings, nil
}

// Metrics exposes the service metrics snapshot
func (s *BookingService) Metrics() shared.MetricsSnapshot {
	return s.serviceMetrics.Snapshot()
}
