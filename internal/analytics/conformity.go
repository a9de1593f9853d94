package analytics

import (
	"math"
	"sort"

	"github.com/tafa1618/Copilot-Process/pkg/contracts/domain"
)

// hoursEpsilon absorbs float noise from summing fractional hours.
const hoursEpsilon = 1e-9

// Classify returns the conformity status of one technician-day from its
// summed logged hours, its theoretical hours and whether it is a weekend.
// Equal hours are always Conforme, including a weekday with nothing expected
// and nothing logged.
func Classify(worked, theoretical float64, weekend bool) domain.ConformityStatus {
	zero := math.Abs(worked) < hoursEpsilon
	if weekend {
		if zero {
			return domain.StatusWeekendOK
		}
		return domain.StatusTravailWeekend
	}
	switch {
	case theoretical > 0 && zero:
		return domain.StatusNonConforme
	case math.Abs(worked-theoretical) < hoursEpsilon:
		return domain.StatusConforme
	case worked < theoretical:
		return domain.StatusIncomplet
	default:
		return domain.StatusSurpointage
	}
}

// ClassifyDays returns a copy of days with Status set.
func ClassifyDays(days []domain.AttendanceDay) []domain.AttendanceDay {
	out := make([]domain.AttendanceDay, len(days))
	for i, d := range days {
		d.Status = Classify(d.LoggedHours, d.TheoreticalHours, d.Weekend)
		out[i] = d
	}
	return out
}

// BuildConformityGrid pivots classified days into one technician by
// day-of-month grid per month. Params restrict the teams and, when Month is
// set, the single month shown.
func BuildConformityGrid(days []domain.AttendanceDay, params domain.AnalysisParams) domain.ConformityGrid {
	teams := keySet(params.Teams)

	ordered := append([]domain.AttendanceDay(nil), days...)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Date.Before(ordered[j].Date) })

	byMonth := make(map[string]*domain.MonthGrid)
	for _, d := range ordered {
		if !selected(teams, d.Team) {
			continue
		}
		if params.Month != "" && d.Month != params.Month {
			continue
		}

		g, ok := byMonth[d.Month]
		if !ok {
			g = &domain.MonthGrid{
				Month:    d.Month,
				Statuses: make(map[string]map[int]domain.ConformityStatus),
				Hours:    make(map[string]map[int]float64),
				Teams:    make(map[string]string),
				Counts:   make(map[domain.ConformityStatus]int),
			}
			byMonth[d.Month] = g
		}

		status := d.Status
		if status == "" {
			status = Classify(d.LoggedHours, d.TheoreticalHours, d.Weekend)
		}

		if g.Statuses[d.Technician] == nil {
			g.Statuses[d.Technician] = make(map[int]domain.ConformityStatus)
			g.Hours[d.Technician] = make(map[int]float64)
		}
		g.Statuses[d.Technician][d.Date.Day()] = status
		g.Hours[d.Technician][d.Date.Day()] = d.LoggedHours
		if g.Teams[d.Technician] == "" {
			g.Teams[d.Technician] = d.Team
		}
		g.Counts[status]++
	}

	grid := domain.ConformityGrid{Months: make([]domain.MonthGrid, 0, len(byMonth))}
	for _, m := range sortedKeys(byMonth) {
		grid.Months = append(grid.Months, *byMonth[m])
	}
	return grid
}
