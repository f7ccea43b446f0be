package services

import (
	"context"
	"sort"
	"time"

	"github.com/ShafHaider007/expo-portal/models"
	"github.com/ShafHaider007/expo-portal/shared"
	"github.com/ShafHaider007/expo-portal/upstream"
)

const adminServiceName = "AdminService"

// AdminService serves the management dashboard: aggregate stats, the merged
// payment list, the bid leaderboard and the registered-user listing. All
// figures come from the expo backend; this layer merges and formats only.
type AdminService struct {
	upstream *upstream.Client
	utility  *UtilityService

	serviceMetrics *shared.ServiceMetrics
}

// NewAdminService creates an admin service over the given upstream client
func NewAdminService(client *upstream.Client, utility *UtilityService) *AdminService {
	return &AdminService{
		upstream:       client,
		utility:        utility,
		serviceMetrics: shared.NewServiceMetrics(adminServiceName),
	}
}

// Stats fetches the dashboard aggregate block
func (s *AdminService) Stats(ctx context.Context, session *models.Session) (*models.DashboardStats, error) {
	start := time.Now()
	stats, err := s.upstream.DashboardStats(ctx, session.UpstreamToken)
	s.serviceMetrics.RecordRequest(err == nil, time.Since(start))
	return stats, err
}

// MergedPayments combines the transactions embedded in the dashboard stats
// with one page of the raw payment list, de-duplicated by plot id. When both
// sources carry a plot, the stats row wins since that payload reflects the
// settled view.
func (s *AdminService) MergedPayments(ctx context.Context, session *models.Session, page int) (*models.PaymentPage, error) {
	start := time.Now()
	if page < 1 {
		page = 1
	}

	stats, err := s.upstream.DashboardStats(ctx, session.UpstreamToken)
	if err != nil {
		s.serviceMetrics.RecordRequest(false, time.Since(start))
		return nil, err
	}

	listPage, err := s.upstream.PaymentList(ctx, session.UpstreamToken, page)
	if err != nil {
		s.serviceMetrics.RecordRequest(false, time.Since(start))
		return nil, err
	}

	seen := make(map[int]bool)
	merged := s.appendMerged(seen, nil, stats.Transactions)
	merged = s.appendMerged(seen, merged, listPage.Records)

	result := &models.PaymentPage{
		Records:     merged,
		CurrentPage: listPage.CurrentPage,
		LastPage:    listPage.LastPage,
		Total:       listPage.Total,
	}
	s.serviceMetrics.RecordRequest(true, time.Since(start))
	return result, nil
}

// appendMerged adds records whose plot id has not been seen yet, formatting
// CNICs on the way in. The seen set must span every source feeding one merged
// view so a plot appears exactly once no matter how the sources overlap.
func (s *AdminService) appendMerged(seen map[int]bool, merged, records []models.PaymentRecord) []models.PaymentRecord {
	for _, record := range records {
		if seen[record.PlotID] {
			continue
		}
		seen[record.PlotID] = true
		record.CustomerCNIC = s.utility.FormatCNIC(record.CustomerCNIC)
		merged = append(merged, record)
	}
	return merged
}

// AllPayments merges the dashboard transactions with every page of the raw
// payment list, de-duplicated by plot id across the whole set. The stats
// block is fetched once up front so its rows contribute exactly once
// regardless of how many pages the list spans.
func (s *AdminService) AllPayments(ctx context.Context, session *models.Session) ([]models.PaymentRecord, error) {
	start := time.Now()

	stats, err := s.upstream.DashboardStats(ctx, session.UpstreamToken)
	if err != nil {
		s.serviceMetrics.RecordRequest(false, time.Since(start))
		return nil, err
	}

	seen := make(map[int]bool)
	merged := s.appendMerged(seen, nil, stats.Transactions)

	page := 1
	for {
		listPage, err := s.upstream.PaymentList(ctx, session.UpstreamToken, page)
		if err != nil {
			s.serviceMetrics.RecordRequest(false, time.Since(start))
			return nil, err
		}
		merged = s.appendMerged(seen, merged, listPage.Records)
		if listPage.LastPage <= 0 || page >= listPage.LastPage {
			break
		}
		page++
	}

	s.serviceMetrics.RecordRequest(true, time.Since(start))
	return merged, nil
}

// TopBidders builds the commercial bid leaderboard from the dashboard
// transactions, highest bid first
func (s *AdminService) TopBidders(ctx context.Context, session *models.Session, limit int) ([]models.TopBidder, error) {
	start := time.Now()

	stats, err := s.upstream.DashboardStats(ctx, session.UpstreamToken)
	if err != nil {
		s.serviceMetrics.RecordRequest(false, time.Since(start))
		return nil, err
	}

	bidders := make([]models.TopBidder, 0)
	for _, record := range stats.Transactions {
		if record.BidAmount == nil || *record.BidAmount <= 0 {
			continue
		}
		bidders = append(bidders, models.TopBidder{
			PlotID:       record.PlotID,
			PlotNo:       record.PlotNo,
			CustomerName: record.CustomerName,
			BidAmount:    *record.BidAmount,
		})
	}

	sort.SliceStable(bidders, func(i, j int) bool {
		return bidders[i].BidAmount > bidders[j].BidAmount
	})
	for i := range bidders {
		bidders[i].Rank = i + 1
	}

	if limit > 0 && len(bidders) > limit {
		bidders = bidders[:limit]
	}

	s.serviceMetrics.RecordRequest(true, time.Since(start))
	return bidders, nil
}

// RegisteredUsers fetches the registered-user listing with formatted CNICs
func (s *AdminService) RegisteredUsers(ctx context.Context, session *models.Session) ([]models.RegisteredUser, error) {
	start := time.Now()

	users, err := s.upstream.RegisteredUsers(ctx, session.UpstreamToken)
	if err != nil {
		s.serviceMetrics.RecordRequest(false, time.Since(start))
		return nil, err
	}

	for i := range users {
		users[i].CNIC = s.utility.FormatCNIC(users[i].CNIC)
	}

	s.serviceMetrics.RecordRequest(true, time.Since(start))
	return users, nil
}

// Metrics exposes the service metrics snapshot
func (s *AdminService) Metrics() shared.MetricsSnapshot {
	return s.serviceMetrics.Snapshot()
}
