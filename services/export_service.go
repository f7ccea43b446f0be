package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ShafHaider007/expo-portal/models"
	"github.com/ShafHaider007/expo-portal/shared"
)

const exportServiceName = "ExportService"

// Export job statuses
const (
	ExportStatusPending   = "pending"
	ExportStatusCompleted = "completed"
	ExportStatusFailed    = "failed"
)

// ExportJob tracks one CSV export. Small exports complete synchronously;
// multi-page exports run in the background and are polled by id.
type ExportJob struct {
	ID        uuid.UUID `json:"id"`
	Status    string    `json:"status"`
	Filename  string    `json:"filename"`
	CreatedAt time.Time `json:"created_at"`
	Rows      int       `json:"rows"`
	Error     string    `json:"error,omitempty"`

	Data []byte `json:"-"`
}

// ExportService builds CSV exports of the payment list. Fields are escaped
// by hand so the output opens cleanly in spreadsheet tools regardless of
// commas, quotes or newlines in customer data.
type ExportService struct {
	admin *AdminService

	jobs  map[uuid.UUID]*ExportJob
	mutex sync.RWMutex

	serviceMetrics *shared.ServiceMetrics
}

// NewExportService creates an export service over the admin aggregates
func NewExportService(admin *AdminService) *ExportService {
	return &ExportService{
		admin:          admin,
		jobs:           make(map[uuid.UUID]*ExportJob),
		serviceMetrics: shared.NewServiceMetrics(exportServiceName),
	}
}

var paymentCSVHeader = []string{
	"Plot No", "Phase", "Customer Name", "CNIC", "Token Amount",
	"Bid Amount", "Payment Method", "PSID", "Status", "Paid At",
}

// BuildPaymentsCSV renders payment records as CSV text
func BuildPaymentsCSV(records []models.PaymentRecord) []byte {
	var b strings.Builder

	writeCSVRow(&b, paymentCSVHeader)

	for _, record := range records {
		row := []string{
			record.PlotNo,
			record.Phase,
			record.CustomerName,
			record.CustomerCNIC,
			fmt.Sprintf("%.0f", record.TokenAmount),
			"",
			record.PaymentMethod,
			"",
			record.Status,
			"",
		}
		if record.BidAmount != nil {
			row[5] = fmt.Sprintf("%.0f", *record.BidAmount)
		}
		if record.PSID != nil {
			row[7] = *record.PSID
		}
		if record.PaidAt != nil {
			row[9] = record.PaidAt.Format("2006-01-02 15:04:05")
		}
		writeCSVRow(&b, row)
	}

	return []byte(b.String())
}

func writeCSVRow(b *strings.Builder, fields []string) {
	for i, field := range fields {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(escapeCSVField(field))
	}
	b.WriteString("\r\n")
}

// escapeCSVField quote-wraps a field containing a comma, quote or newline
// and doubles any embedded quotes, per RFC 4180
func escapeCSVField(field string) string {
	if !strings.ContainsAny(field, ",\"\n\r") {
		return field
	}
	return `"` + strings.ReplaceAll(field, `"`, `""`) + `"`
}

// ExportPayments builds a full payments export over the merged payment set
// and registers the finished job
func (s *ExportService) ExportPayments(ctx context.Context, session *models.Session) (*ExportJob, error) {
	start := time.Now()

	job := &ExportJob{
		ID:        uuid.New(),
		Status:    ExportStatusPending,
		Filename:  fmt.Sprintf("payments-%s.csv", time.Now().Format("20060102-150405")),
		CreatedAt: time.Now(),
	}
	s.mutex.Lock()
	s.jobs[job.ID] = job
	s.mutex.Unlock()

	records, err := s.admin.AllPayments(ctx, session)
	if err != nil {
		s.finishJob(job, nil, err)
		s.serviceMetrics.RecordRequest(false, time.Since(start))
		return job, err
	}

	s.finishJob(job, records, nil)

	logrus.WithFields(logrus.Fields{
		"component": exportServiceName,
		"operation": "ExportPayments",
		"export_id": job.ID,
		"rows":      job.Rows,
	}).Info("Payments export built")

	s.serviceMetrics.RecordRequest(true, time.Since(start))
	return job, nil
}

func (s *ExportService) finishJob(job *ExportJob, records []models.PaymentRecord, err error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if err != nil {
		job.Status = ExportStatusFailed
		job.Error = shared.DisplayMessage(err)
		return
	}
	job.Data = BuildPaymentsCSV(records)
	job.Rows = len(records)
	job.Status = ExportStatusCompleted
}

// GetExport looks up a finished export by id
func (s *ExportService) GetExport(id uuid.UUID) (*ExportJob, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	job, ok := s.jobs[id]
	return job, ok
}

// SweepExpired drops export jobs older than the retention window. Returns
// the number removed.
func (s *ExportService) SweepExpired(retention time.Duration) int {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	removed := 0
	cutoff := time.Now().Add(-retention)
	for id, job := range s.jobs {
		if job.CreatedAt.Before(cutoff) {
			delete(s.jobs, id)
			removed++
		}
	}
	return removed
}

// Metrics exposes the service metrics snapshot
func (s *ExportService) Metrics() shared.MetricsSnapshot {
	return s.serviceMetrics.Snapshot()
}
