package services

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ShafHaider007/expo-portal/models"
	"github.com/ShafHaider007/expo-portal/shared"
	"github.com/ShafHaider007/expo-portal/upstream"
)

const bidServiceName = "BidService"

// BidUpdateResult carries the refreshed booking after a successful bid
// update. Rank always comes from the post-update fetch, never from the
// update response itself.
type BidUpdateResult struct {
	Booking  models.Booking   `json:"booking"`
	Bookings []models.Booking `json:"bookings"`
}

// BidService handles commercial bid updates. The increment and minimum rules
// are validated locally before the upstream call so the user gets an
// immediate, specific message; the backend remains the authority and its
// rejections are surfaced too.
type BidService struct {
	upstream *upstream.Client
	audit    *AuditService

	serviceMetrics *shared.ServiceMetrics
}

// NewBidService creates a bid service over the given upstream client
func NewBidService(client *upstream.Client, audit *AuditService) *BidService {
	return &BidService{
		upstream:       client,
		audit:          audit,
		serviceMetrics: shared.NewServiceMetrics(bidServiceName),
	}
}

// ValidateBid applies the local bid rules: the new bid must exceed the
// current bid and be a multiple of the fixed increment
func ValidateBid(currentBid, newBid float64) *shared.ServiceError {
	fieldErrors := make(map[string][]string)
	if newBid <= currentBid {
		fieldErrors["bid_amount"] = append(fieldErrors["bid_amount"],
			fmt.Sprintf("Bid must be higher than the current bid of %.0f.", currentBid))
	}
	if int64(newBid)%models.BidIncrement != 0 || newBid != float64(int64(newBid)) {
		fieldErrors["bid_amount"] = append(fieldErrors["bid_amount"],
			fmt.Sprintf("Bid must be a multiple of %d.", models.BidIncrement))
	}
	if len(fieldErrors) > 0 {
		return shared.NewValidationError(bidServiceName, "ValidateBid", fieldErrors)
	}
	return nil
}

// UpdateBid raises the bid on a commercial booking. On success the caller's
// bookings are re-fetched so the returned rank reflects the new standing;
// the rank is never adjusted optimistically.
func (s *BidService) UpdateBid(ctx context.Context, session *models.Session, bookingID int, newBid float64) (*BidUpdateResult, error) {
	start := time.Now()

	bookings, err := s.upstream.MyBookings(ctx, session.UpstreamToken)
	if err != nil {
		s.serviceMetrics.RecordRequest(false, time.Since(start))
		return nil, err
	}

	var booking *models.Booking
	for i := range bookings {
		if bookings[i].ID == bookingID {
			booking = &bookings[i]
			break
		}
	}
	if booking == nil {
		s.serviceMetrics.RecordRequest(false, time.Since(start))
		return nil, shared.NewServiceError(shared.ErrorCategoryValidation, "BOOKING_NOT_FOUND",
			"Booking not found", bidServiceName, "UpdateBid", false, nil)
	}
	if !booking.IsBidding() {
		s.serviceMetrics.RecordRequest(false, time.Since(start))
		return nil, shared.NewValidationError(bidServiceName, "UpdateBid", map[string][]string{
			"bid_amount": {"This booking does not participate in bidding."},
		})
	}

	if err := ValidateBid(*booking.BidAmount, newBid); err != nil {
		s.serviceMetrics.RecordRequest(false, time.Since(start))
		return nil, err
	}

	if err := s.upstream.UpdateBidAmount(ctx, session.UpstreamToken, bookingID, newBid); err != nil {
		s.audit.Record(ctx, session, models.AuditActionUpdateBid,
			fmt.Sprintf("booking_id=%d bid=%.0f", bookingID, newBid), "failure")
		s.serviceMetrics.RecordRequest(false, time.Since(start))
		return nil, err
	}

	s.audit.Record(ctx, session, models.AuditActionUpdateBid,
		fmt.Sprintf("booking_id=%d bid=%.0f", bookingID, newBid), "success")

	refreshed, err := s.upstream.MyBookings(ctx, session.UpstreamToken)
	if err != nil {
		// The bid went through; report the update but flag the stale rank
		logrus.WithFields(logrus.Fields{
			"component":  bidServiceName,
			"operation":  "UpdateBid",
			"session_id": session.ID,
			"booking_id": bookingID,
			"error":      err.Error(),
		}).Warn("Bid updated but rank refresh failed")
		s.serviceMetrics.RecordRequest(false, time.Since(start))
		return nil, shared.WrapError(err, shared.ErrorCategoryNetwork, "RANK_REFRESH_FAILED",
			bidServiceName, "UpdateBid", true)
	}

	result := &BidUpdateResult{Bookings: refreshed}
	for i := range refreshed {
		if refreshed[i].ID == bookingID {
			result.Booking = refreshed[i]
			break
		}
	}

	logrus.WithFields(logrus.Fields{
		"component":  bidServiceName,
		"operation":  "UpdateBid",
		"session_id": session.ID,
		"booking_id": bookingID,
		"bid_amount": newBid,
	}).Info("Bid updated")

	s.serviceMetrics.RecordRequest(true, time.Since(start))
	return result, nil
}

// BidErrorMessages extracts the display messages for a failed bid update:
// upstream bid-field messages verbatim when present, then any flattened
// validation text, then the generic fallback.
func BidErrorMessages(err error) []string {
	if serviceErr, ok := err.(*shared.ServiceError); ok {
		if messages := serviceErr.FieldMessages("bid_amount"); len(messages) > 0 {
			return messages
		}
		if serviceErr.Category == shared.ErrorCategoryValidation {
			if flattened := shared.FlattenValidationErrors(serviceErr.FieldErrors); len(flattened) > 0 {
				return flattened
			}
		}
	}
	return []string{shared.DisplayMessage(err)}
}

// Metrics exposes the service metrics snapshot
func (s *BidService) Metrics() shared.MetricsSnapshot {
	return s.serviceMetrics.Snapshot()
}
