package exporter

import (
	"io"
	"log/slog"
	"time"

	"github.com/tafa1618/Copilot-Process/pkg/contracts/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func f(v float64) *float64 { return &v }

func sampleResult() *domain.AnalysisResult {
	consumed := 6.0
	return &domain.AnalysisResult{
		RunID:       "run-1",
		GeneratedAt: time.Date(2024, 3, 31, 18, 0, 0, 0, time.UTC),
		Productivity: &domain.ProductivityReport{
			Overall: domain.KeyedRatio{Billable: 21, Worked: 34, Ratio: 21.0 / 34.0, Days: 5},
			ByTechnician: []domain.KeyedRatio{
				{Key: "Diallo", Billable: 16, Worked: 24, Ratio: 16.0 / 24.0, Days: 4},
				{Key: "Sow", Billable: 5, Worked: 10, Ratio: 0.5, Days: 1},
			},
			ByTeam:  []domain.KeyedRatio{{Key: "Atelier", Billable: 16, Worked: 24, Ratio: 16.0 / 24.0, Days: 4}},
			ByMonth: []domain.KeyedRatio{{Key: "2024-03", Billable: 11, Worked: 18, Ratio: 11.0 / 18.0, Days: 3}},
			ByTeamMonth: map[string][]domain.KeyedRatio{
				"Mines":   {{Key: "2024-03", Billable: 5, Worked: 10, Ratio: 0.5, Days: 1}},
				"Atelier": {{Key: "2024-01", Billable: 4, Worked: 8, Ratio: 0.5, Days: 1}},
			},
		},
		Conformity: &domain.ConformityGrid{Months: []domain.MonthGrid{{
			Month: "2024-03",
			Statuses: map[string]map[int]domain.ConformityStatus{
				"Sow":    {5: domain.StatusSurpointage, 9: domain.StatusWeekendOK},
				"Diallo": {5: domain.StatusConforme},
			},
			Hours: map[string]map[int]float64{
				"Sow":    {5: 10, 9: 0},
				"Diallo": {5: 8},
			},
			Teams: map[string]string{"Sow": "Mines", "Diallo": "Atelier"},
			Counts: map[domain.ConformityStatus]int{
				domain.StatusSurpointage: 1, domain.StatusWeekendOK: 1, domain.StatusConforme: 1,
			},
		}}},
		Efficiency: &domain.EfficiencyReport{
			Mean:        f(0.85),
			Exploitable: 2,
			Total:       3,
			InProgress:  1.0 / 3.0,
			ByTeam:      []domain.KeyedMean{{Key: "Atelier", Mean: 0.85, Count: 2}},
			InProgressOrders: []domain.WorkOrder{
				{ID: "100", Team: "Atelier", Technician: "Diallo", ReferenceTime: 10, ConsumedTime: &consumed, Efficiency: f(10.0 / 6.0)},
			},
		},
		LeadTime: &domain.LeadTimeReport{
			Quarter:      "2024-Q1",
			Mean:         f(9),
			Median:       f(9),
			InvoiceCount: 1,
			Distribution: []domain.LeadTimeBucket{{Days: 9, Count: 1}},
			Invoices: []domain.Invoice{{
				Number: "F1", OrderID: "100", Team: "Atelier",
				InvoiceDate:    time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
				LastAttendance: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
				LeadTimeDays:   9, Lines: 2,
			}},
		},
		Correlation: &domain.CorrelationReport{
			Teams:  []domain.TeamCorrelation{{Team: "Atelier", R: f(0.91), Months: 3}, {Team: "Mines", Months: 1}},
			Leader: "Atelier",
		},
		Audit: map[domain.SourceKind]*domain.DatasetAudit{
			domain.SourceAttendance: {Source: domain.SourceAttendance, Rows: 7, Dropped: 1},
			domain.SourceInvoices:   {Source: domain.SourceInvoices, Rows: 4, Duplicates: 1, OutOfScope: 1},
		},
		Failures: []domain.DatasetFailure{{Source: domain.SourceOrderStatus, Message: "missing status"}},
	}
}
