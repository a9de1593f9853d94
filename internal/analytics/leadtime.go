package analytics

import (
	"sort"

	"github.com/tafa1618/Copilot-Process/pkg/contracts/domain"
)

// ComputeLeadTime summarises invoice lead times. Invoices are expected to be
// deduplicated and scoped to the reporting quarter already; negative lead
// times are skipped so they can never reach the mean or the median. The
// team filter only applies to invoices that carry a team.
func ComputeLeadTime(invoices []domain.Invoice, params domain.AnalysisParams) domain.LeadTimeReport {
	teams := keySet(params.Teams)

	report := domain.LeadTimeReport{Quarter: params.Quarter.String()}
	var values []float64
	buckets := make(map[int]int)
	byTeam := make(map[string][]float64)

	for _, inv := range invoices {
		if inv.LeadTimeDays < 0 {
			continue
		}
		if inv.Team != "" && !selected(teams, inv.Team) {
			continue
		}
		v := float64(inv.LeadTimeDays)
		values = append(values, v)
		buckets[inv.LeadTimeDays]++
		byTeam[groupKey(inv.Team)] = append(byTeam[groupKey(inv.Team)], v)
		report.Invoices = append(report.Invoices, inv)
	}

	report.InvoiceCount = len(report.Invoices)
	if m, ok := Mean(values); ok {
		report.Mean = ptr(m)
	}
	if m, ok := Median(values); ok {
		report.Median = ptr(m)
	}

	report.Distribution = make([]domain.LeadTimeBucket, 0, len(buckets))
	for d, n := range buckets {
		report.Distribution = append(report.Distribution, domain.LeadTimeBucket{Days: d, Count: n})
	}
	sort.Slice(report.Distribution, func(i, j int) bool {
		return report.Distribution[i].Days < report.Distribution[j].Days
	})

	report.ByTeam = keyedMeans(byTeam)

	sort.SliceStable(report.Invoices, func(i, j int) bool {
		a, b := report.Invoices[i], report.Invoices[j]
		if a.LeadTimeDays != b.LeadTimeDays {
			return a.LeadTimeDays > b.LeadTimeDays
		}
		return a.Number < b.Number
	})

	return report
}
