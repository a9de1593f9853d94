package analytics

import (
	"github.com/tafa1618/Copilot-Process/pkg/contracts/domain"
)

// ComputeCorrelation correlates each team's monthly productivity with the
// monthly productivity of the whole population, over the months both series
// share. Teams with fewer than two shared months, or a flat series, get a nil
// coefficient and are left out of the ranking. The leader is the team with
// the highest defined coefficient; ties go to the first team by name.
//
// Days are never filtered here: the reference series is the population.
func ComputeCorrelation(days []domain.AttendanceDay) domain.CorrelationReport {
	population := make(map[string]*hoursAcc)
	teams := make(map[string]map[string]*hoursAcc)

	for _, d := range days {
		accumulate(population, d.Month, d)
		if teams[d.Team] == nil {
			teams[d.Team] = make(map[string]*hoursAcc)
		}
		accumulate(teams[d.Team], d.Month, d)
	}

	var (
		report domain.CorrelationReport
		best   float64
	)
	for _, team := range sortedKeys(teams) {
		var x, y []float64
		for _, month := range sortedKeys(teams[team]) {
			pop, ok := population[month]
			if !ok {
				continue
			}
			x = append(x, teams[team][month].ratio(month).Ratio)
			y = append(y, pop.ratio(month).Ratio)
		}

		tc := domain.TeamCorrelation{Team: team, Months: len(x)}
		if r, ok := Pearson(x, y); ok {
			tc.R = ptr(r)
			if report.Leader == "" || r > best {
				report.Leader = team
				best = r
			}
		}
		report.Teams = append(report.Teams, tc)
	}

	return report
}
