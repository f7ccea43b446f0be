package services

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ShafHaider007/expo-portal/models"
)

func TestEscapeCSVField(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"plain text untouched", "Ali Khan", "Ali Khan"},
		{"comma triggers quoting", "O'Brien, Inc.", `"O'Brien, Inc."`},
		{"embedded quotes doubled", `Say "hello"`, `"Say ""hello"""`},
		{"newline triggers quoting", "line1\nline2", "\"line1\nline2\""},
		{"empty stays empty", "", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, escapeCSVField(tc.input))
		})
	}
}

func TestBuildPaymentsCSV(t *testing.T) {
	bid := 1500000.0
	psid := "PS-001122"
	paidAt := time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC)

	records := []models.PaymentRecord{
		{
			ID: 1, PlotID: 10, PlotNo: "B-14", Phase: "4",
			CustomerName: "O'Brien, Inc.", CustomerCNIC: "12345-1234567-1",
			TokenAmount: 500000, BidAmount: &bid,
			PaymentMethod: "kuickpay", PSID: &psid,
			Status: "Completed", PaidAt: &paidAt,
		},
		{
			ID: 2, PlotID: 11, PlotNo: "B-15", Phase: "4",
			CustomerName: "Ali Khan", CustomerCNIC: "54321-7654321-9",
			TokenAmount: 250000, PaymentMethod: "card", Status: "Pending",
		},
	}

	csv := string(BuildPaymentsCSV(records))
	lines := strings.Split(strings.TrimRight(csv, "\r\n"), "\r\n")
	require.Len(t, lines, 3)

	assert.Equal(t, "Plot No,Phase,Customer Name,CNIC,Token Amount,Bid Amount,Payment Method,PSID,Status,Paid At", lines[0])
	assert.Contains(t, lines[1], `"O'Brien, Inc."`)
	assert.Contains(t, lines[1], "1500000")
	assert.Contains(t, lines[1], "PS-001122")
	assert.Contains(t, lines[1], "2026-03-14 10:30:00")

	// Optional fields stay empty, not "0" or "<nil>"
	assert.Contains(t, lines[2], "Ali Khan")
	assert.Contains(t, lines[2], ",,card,,Pending,")
}

func TestBuildPaymentsCSVEmpty(t *testing.T) {
	csv := string(BuildPaymentsCSV(nil))
	assert.Equal(t, "Plot No,Phase,Customer Name,CNIC,Token Amount,Bid Amount,Payment Method,PSID,Status,Paid At\r\n", csv)
}

func TestExportMergesStatsOnceAcrossPages(t *testing.T) {
	bid := 1500000.0

	mux := http.NewServeMux()
	mux.HandleFunc("/dashboard-stats", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, models.DashboardStats{
			Transactions: []models.PaymentRecord{
				{ID: 1, PlotID: 100, PlotNo: "C-100", CustomerName: "Stats Customer", CustomerCNIC: "1234512345671", TokenAmount: 500000, BidAmount: &bid, Status: "Completed"},
			},
		})
	})
	mux.HandleFunc("/payment-list", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("page") {
		case "2":
			writeEnvelope(w, models.PaymentPage{
				Records: []models.PaymentRecord{
					{ID: 92, PlotID: 102, PlotNo: "R-102", CustomerName: "Page Two", CustomerCNIC: "9876598765432", TokenAmount: 250000, Status: "Completed"},
				},
				CurrentPage: 2, LastPage: 2, Total: 2,
			})
		default:
			writeEnvelope(w, models.PaymentPage{
				Records: []models.PaymentRecord{
					{ID: 91, PlotID: 101, PlotNo: "R-101", CustomerName: "Page One", CustomerCNIC: "5432154321098", TokenAmount: 250000, Status: "Pending"},
				},
				CurrentPage: 1, LastPage: 2, Total: 2,
			})
		}
	})

	client := newStubUpstream(t, mux)
	admin := NewAdminService(client, NewUtilityService())
	exports := NewExportService(admin)

	job, err := exports.ExportPayments(context.Background(), testSession())
	require.NoError(t, err)
	assert.Equal(t, ExportStatusCompleted, job.Status)
	assert.Equal(t, 3, job.Rows)

	// The stats block contributes once to the whole export, not once per page
	csv := string(job.Data)
	assert.Equal(t, 1, strings.Count(csv, "C-100"))
	assert.Equal(t, 1, strings.Count(csv, "R-101"))
	assert.Equal(t, 1, strings.Count(csv, "R-102"))
}

func TestExportJobSweep(t *testing.T) {
	s := NewExportService(nil)

	old := &ExportJob{ID: newTestUUID(t), Status: ExportStatusCompleted, CreatedAt: time.Now().Add(-2 * time.Hour)}
	fresh := &ExportJob{ID: newTestUUID(t), Status: ExportStatusCompleted, CreatedAt: time.Now()}
	s.jobs[old.ID] = old
	s.jobs[fresh.ID] = fresh

	removed := s.SweepExpired(time.Hour)
	assert.Equal(t, 1, removed)

	_, ok := s.GetExport(old.ID)
	assert.False(t, ok)
	_, ok = s.GetExport(fresh.ID)
	assert.True(t, ok)
}
