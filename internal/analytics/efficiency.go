package analytics

import (
	"sort"

	"github.com/tafa1618/Copilot-Process/pkg/contracts/domain"
)

// UnassignedKey groups records whose team or technician is blank.
const UnassignedKey = "unassigned"

func groupKey(s string) string {
	if s == "" {
		return UnassignedKey
	}
	return s
}

// ComputeEfficiency rolls per-order efficiencies up as a mean of ratios, so
// every order weighs the same whatever its size. Orders are first restricted
// to the selected teams, statuses and order types; a nil status matches the
// "unknown" selection.
func ComputeEfficiency(orders []domain.WorkOrder, params domain.AnalysisParams) domain.EfficiencyReport {
	teams := keySet(params.Teams)
	statuses := keySet(params.Statuses)
	types := keySet(params.OrderTypes)

	var (
		report     domain.EfficiencyReport
		all        []float64
		inProgress int
	)
	byTeam := make(map[string][]float64)
	byTech := make(map[string][]float64)

	for _, o := range orders {
		if !selected(teams, o.Team) || !selected(statuses, o.StatusOrUnknown()) || !selected(types, o.Type) {
			continue
		}
		report.Total++

		if o.Status == nil {
			report.UnknownStatus++
		} else if *o.Status == domain.StatusInProgress {
			inProgress++
			report.InProgressOrders = append(report.InProgressOrders, o)
		}

		if o.Efficiency == nil {
			continue
		}
		report.Exploitable++
		all = append(all, *o.Efficiency)
		byTeam[groupKey(o.Team)] = append(byTeam[groupKey(o.Team)], *o.Efficiency)
		byTech[groupKey(o.Technician)] = append(byTech[groupKey(o.Technician)], *o.Efficiency)
	}

	if m, ok := Mean(all); ok {
		report.Mean = ptr(m)
	}
	report.InProgress = SafeDiv(float64(inProgress), float64(report.Total))
	report.ByTeam = keyedMeans(byTeam)
	report.ByTechnician = keyedMeans(byTech)

	// Least efficient open orders first; orders without consumed time last.
	sort.SliceStable(report.InProgressOrders, func(i, j int) bool {
		a, b := report.InProgressOrders[i].Efficiency, report.InProgressOrders[j].Efficiency
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		}
		return *a < *b
	})

	return report
}

func keyedMeans(groups map[string][]float64) []domain.KeyedMean {
	out := make([]domain.KeyedMean, 0, len(groups))
	for _, k := range sortedKeys(groups) {
		m, _ := Mean(groups[k])
		out = append(out, domain.KeyedMean{Key: k, Mean: m, Count: len(groups[k])})
	}
	return out
}
