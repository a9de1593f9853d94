package analytics

import (
	"sort"

	"github.com/tafa1618/Copilot-Process/pkg/contracts/domain"
)

type hoursAcc struct {
	billable float64
	worked   float64
	days     int
}

func (a *hoursAcc) add(d domain.AttendanceDay) {
	a.billable += d.BillableHours
	a.worked += d.WorkedHours
	a.days++
}

func (a *hoursAcc) ratio(key string) domain.KeyedRatio {
	return domain.KeyedRatio{
		Key:      key,
		Billable: a.billable,
		Worked:   a.worked,
		Ratio:    SafeDiv(a.billable, a.worked),
		Days:     a.days,
	}
}

func ratios(groups map[string]*hoursAcc) []domain.KeyedRatio {
	out := make([]domain.KeyedRatio, 0, len(groups))
	for _, k := range sortedKeys(groups) {
		out = append(out, groups[k].ratio(k))
	}
	return out
}

func accumulate(groups map[string]*hoursAcc, key string, d domain.AttendanceDay) {
	acc, ok := groups[key]
	if !ok {
		acc = &hoursAcc{}
		groups[key] = acc
	}
	acc.add(d)
}

// ComputeProductivity sums billable and worked hours over attendance days and
// returns their ratio for the population, each technician, each team, each
// month and each team-month. The team filter applies everywhere; the month
// filter restricts the overall, technician and team figures while the
// monthly series stay complete.
func ComputeProductivity(days []domain.AttendanceDay, params domain.AnalysisParams) domain.ProductivityReport {
	teams := keySet(params.Teams)

	var overall hoursAcc
	byTech := make(map[string]*hoursAcc)
	byTeam := make(map[string]*hoursAcc)
	byMonth := make(map[string]*hoursAcc)
	byTeamMonth := make(map[string]map[string]*hoursAcc)

	for _, d := range days {
		if !selected(teams, d.Team) {
			continue
		}

		accumulate(byMonth, d.Month, d)
		if byTeamMonth[d.Team] == nil {
			byTeamMonth[d.Team] = make(map[string]*hoursAcc)
		}
		accumulate(byTeamMonth[d.Team], d.Month, d)

		if params.Month != "" && d.Month != params.Month {
			continue
		}
		overall.add(d)
		accumulate(byTech, d.Technician, d)
		accumulate(byTeam, d.Team, d)
	}

	report := domain.ProductivityReport{
		Overall:      overall.ratio("overall"),
		ByTechnician: ratios(byTech),
		ByTeam:       ratios(byTeam),
		ByMonth:      ratios(byMonth),
		ByTeamMonth:  make(map[string][]domain.KeyedRatio, len(byTeamMonth)),
	}
	for team, months := range byTeamMonth {
		report.ByTeamMonth[team] = ratios(months)
	}

	sort.SliceStable(report.ByTechnician, func(i, j int) bool {
		return report.ByTechnician[i].Ratio > report.ByTechnician[j].Ratio
	})

	return report
}
