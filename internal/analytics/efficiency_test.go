package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tafa1618/Copilot-Process/pkg/contracts/domain"
)

func efficiencyOrders() []domain.WorkOrder {
	return []domain.WorkOrder{
		order("1", "Atelier", "Diallo", "EC", 10, f(12)),
		order("2", "Atelier", "Diallo", "Facturé", 100, f(50)),
		order("3", "Mines", "Sow", "EC", 4, f(2)),
		order("4", "Mines", "Sow", "", 5, nil),
		order("5", "Mines", "", "EC", 5, nil),
	}
}

func TestComputeEfficiencyMeanOfRatios(t *testing.T) {
	report := ComputeEfficiency(efficiencyOrders(), domain.AnalysisParams{})

	require.NotNil(t, report.Mean)
	assert.InDelta(t, (1.2+0.5+0.5)/3, *report.Mean, 1e-12)
	assert.Equal(t, 5, report.Total)
	assert.Equal(t, 3, report.Exploitable)
	assert.Equal(t, 1, report.UnknownStatus)
	assert.InDelta(t, 3.0/5.0, report.InProgress, 1e-12)

	byTeam := map[string]domain.KeyedMean{}
	for _, m := range report.ByTeam {
		byTeam[m.Key] = m
	}
	// Mean of 1.2 and 0.5, not (12+50)/(10+100).
	assert.InDelta(t, 0.85, byTeam["Atelier"].Mean, 1e-12)
	assert.NotEqual(t, 62.0/110.0, byTeam["Atelier"].Mean)
	assert.Equal(t, 2, byTeam["Atelier"].Count)
	assert.Equal(t, 0.5, byTeam["Mines"].Mean)
	assert.Equal(t, 1, byTeam["Mines"].Count)
}

func TestComputeEfficiencyTeamMeanLaw(t *testing.T) {
	orders := efficiencyOrders()
	report := ComputeEfficiency(orders, domain.AnalysisParams{})

	for _, team := range report.ByTeam {
		var effs []float64
		for _, o := range orders {
			if groupKey(o.Team) == team.Key && o.Efficiency != nil {
				effs = append(effs, *o.Efficiency)
			}
		}
		want, _ := Mean(effs)
		assert.InDelta(t, want, team.Mean, 1e-12, team.Key)
	}
}

func TestComputeEfficiencyInProgressList(t *testing.T) {
	report := ComputeEfficiency(efficiencyOrders(), domain.AnalysisParams{})

	ids := make([]string, 0, len(report.InProgressOrders))
	for _, o := range report.InProgressOrders {
		ids = append(ids, o.ID)
	}
	assert.Equal(t, []string{"3", "1", "5"}, ids)
}

func TestComputeEfficiencyFilters(t *testing.T) {
	tests := []struct {
		name        string
		params      domain.AnalysisParams
		total       int
		exploitable int
	}{
		{"team", domain.AnalysisParams{Teams: []string{"Mines"}}, 3, 1},
		{"status", domain.AnalysisParams{Statuses: []string{"EC"}}, 3, 2},
		{"unknown status", domain.AnalysisParams{Statuses: []string{"unknown"}}, 1, 0},
		{"order type", domain.AnalysisParams{OrderTypes: []string{"Terrain"}}, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := ComputeEfficiency(efficiencyOrders(), tt.params)
			assert.Equal(t, tt.total, report.Total)
			assert.Equal(t, tt.exploitable, report.Exploitable)
		})
	}
}

func TestComputeEfficiencyEmpty(t *testing.T) {
	report := ComputeEfficiency(nil, domain.AnalysisParams{})
	assert.Nil(t, report.Mean)
	assert.Equal(t, 0.0, report.InProgress)
	assert.Empty(t, report.ByTeam)
}

func TestComputeEfficiencyUnassignedTechnician(t *testing.T) {
	report := ComputeEfficiency([]domain.WorkOrder{order("9", "", "", "", 2, f(1))}, domain.AnalysisParams{})
	require.Len(t, report.ByTechnician, 1)
	assert.Equal(t, UnassignedKey, report.ByTechnician[0].Key)
}
