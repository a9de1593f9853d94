package exporter

import (
	"sort"
	"strconv"

	"github.com/tafa1618/Copilot-Process/pkg/contracts/domain"
)

// Table is one flat report table. Name doubles as the CSV file stem.
type Table struct {
	Name    string
	Title   string
	Headers []string
	Rows    [][]string
}

// Tables flattens a result into report tables. Sections absent from the
// result produce no table.
func Tables(result *domain.AnalysisResult) []Table {
	if result == nil {
		return nil
	}

	var out []Table
	if p := result.Productivity; p != nil {
		out = append(out,
			ratioTable("productivite", "Productivité globale", "Périmètre", []domain.KeyedRatio{p.Overall}),
			ratioTable("productivite_techniciens", "Productivité par technicien", "Technicien", p.ByTechnician),
			ratioTable("productivite_equipes", "Productivité par équipe", "Equipe", p.ByTeam),
			ratioTable("productivite_mois", "Productivité par mois", "Mois", p.ByMonth),
			teamMonthTable(p.ByTeamMonth),
		)
	}
	if c := result.Conformity; c != nil {
		out = append(out, conformityTable(c))
	}
	if e := result.Efficiency; e != nil {
		out = append(out, efficiencyTable(e), inProgressTable(e))
	}
	if l := result.LeadTime; l != nil {
		out = append(out, leadTimeTable(l), distributionTable(l))
	}
	if c := result.Correlation; c != nil {
		out = append(out, correlationTable(c))
	}
	out = append(out, auditTable(result))
	return out
}

var ratioHeaders = []string{"Heures facturables", "Heures travaillées", "Productivité", "Jours"}

func ratioRow(key string, r domain.KeyedRatio) []string {
	return []string{key, formatFloat(r.Billable), formatFloat(r.Worked), formatRatio(r.Ratio), formatInt(r.Days)}
}

func ratioTable(name, title, keyHeader string, ratios []domain.KeyedRatio) Table {
	t := Table{Name: name, Title: title, Headers: append([]string{keyHeader}, ratioHeaders...)}
	for _, r := range ratios {
		key := r.Key
		if key == "" {
			key = "Total"
		}
		t.Rows = append(t.Rows, ratioRow(key, r))
	}
	return t
}

func teamMonthTable(byTeamMonth map[string][]domain.KeyedRatio) Table {
	t := Table{
		Name:    "productivite_equipes_mois",
		Title:   "Productivité par équipe et par mois",
		Headers: append([]string{"Equipe", "Mois"}, ratioHeaders...),
	}
	teams := make([]string, 0, len(byTeamMonth))
	for team := range byTeamMonth {
		teams = append(teams, team)
	}
	sort.Strings(teams)
	for _, team := range teams {
		for _, r := range byTeamMonth[team] {
			t.Rows = append(t.Rows, append([]string{team}, ratioRow(r.Key, r)...))
		}
	}
	return t
}

// conformityTable lists every classified technician-day in long form.
func conformityTable(grid *domain.ConformityGrid) Table {
	t := Table{
		Name:    "conformite",
		Title:   "Conformité du pointage",
		Headers: []string{"Mois", "Technicien", "Equipe", "Jour", "Heures pointées", "Statut"},
	}
	for _, m := range grid.Months {
		for _, tech := range sortedTechnicians(m) {
			days := make([]int, 0, len(m.Statuses[tech]))
			for d := range m.Statuses[tech] {
				days = append(days, d)
			}
			sort.Ints(days)
			for _, d := range days {
				t.Rows = append(t.Rows, []string{
					m.Month,
					tech,
					m.Teams[tech],
					strconv.Itoa(d),
					formatFloat(m.Hours[tech][d]),
					m.Statuses[tech][d].Label(),
				})
			}
		}
	}
	return t
}

func sortedTechnicians(m domain.MonthGrid) []string {
	techs := make([]string, 0, len(m.Statuses))
	for tech := range m.Statuses {
		techs = append(techs, tech)
	}
	sort.Strings(techs)
	return techs
}

func efficiencyTable(e *domain.EfficiencyReport) Table {
	t := Table{
		Name:    "efficience",
		Title:   "Efficience",
		Headers: []string{"Niveau", "Clé", "Efficience moyenne", "OR exploitables"},
	}
	t.Rows = append(t.Rows, []string{"Global", "Total", formatOptional(e.Mean), formatInt(e.Exploitable)})
	for _, m := range e.ByTeam {
		t.Rows = append(t.Rows, []string{"Equipe", m.Key, formatRatio(m.Mean), formatInt(m.Count)})
	}
	for _, m := range e.ByTechnician {
		t.Rows = append(t.Rows, []string{"Technicien", m.Key, formatRatio(m.Mean), formatInt(m.Count)})
	}
	return t
}

func inProgressTable(e *domain.EfficiencyReport) Table {
	t := Table{
		Name:    "efficience_en_cours",
		Title:   "OR en cours",
		Headers: []string{"OR", "Equipe", "Technicien", "Type", "Client", "Temps de référence", "Temps consommé", "Efficience"},
	}
	for _, o := range e.InProgressOrders {
		consumed := ""
		if o.ConsumedTime != nil {
			consumed = formatFloat(*o.ConsumedTime)
		}
		t.Rows = append(t.Rows, []string{
			o.ID, o.Team, o.Technician, o.Type, o.Customer,
			formatFloat(o.ReferenceTime), consumed, formatOptional(o.Efficiency),
		})
	}
	return t
}

func leadTimeTable(l *domain.LeadTimeReport) Table {
	t := Table{
		Name:    "llti",
		Title:   "LLTI",
		Headers: []string{"Facture", "OR", "Equipe", "Client", "Dernier pointage", "Date facture", "LLTI (jours)"},
	}
	for _, inv := range l.Invoices {
		t.Rows = append(t.Rows, []string{
			inv.Number, inv.OrderID, inv.Team, inv.Customer,
			formatDate(inv.LastAttendance), formatDate(inv.InvoiceDate), formatInt(inv.LeadTimeDays),
		})
	}
	return t
}

func distributionTable(l *domain.LeadTimeReport) Table {
	t := Table{
		Name:    "llti_distribution",
		Title:   "Distribution LLTI",
		Headers: []string{"LLTI (jours)", "Factures"},
	}
	for _, b := range l.Distribution {
		t.Rows = append(t.Rows, []string{formatInt(b.Days), formatInt(b.Count)})
	}
	return t
}

func correlationTable(c *domain.CorrelationReport) Table {
	t := Table{
		Name:    "correlation",
		Title:   "Corrélation des équipes",
		Headers: []string{"Equipe", "Pearson r", "Mois", "Leader"},
	}
	for _, tc := range c.Teams {
		t.Rows = append(t.Rows, []string{tc.Team, formatOptional(tc.R), formatInt(tc.Months), formatBool(tc.Team == c.Leader)})
	}
	return t
}

func auditTable(result *domain.AnalysisResult) Table {
	t := Table{
		Name:  "audit",
		Title: "Audit",
		Headers: []string{"Source", "Lignes", "Ignorées", "Nombres invalides", "Dates invalides",
			"Doublons", "Sans correspondance", "Exclues", "Hors périmètre", "Rejet"},
	}
	failures := make(map[domain.SourceKind]string, len(result.Failures))
	for _, f := range result.Failures {
		failures[f.Source] = f.Message
	}
	for _, kind := range domain.SourceKinds() {
		a, ok := result.Audit[kind]
		if !ok {
			if msg, failed := failures[kind]; failed {
				t.Rows = append(t.Rows, []string{string(kind), "", "", "", "", "", "", "", "", msg})
			}
			continue
		}
		t.Rows = append(t.Rows, []string{
			string(kind),
			formatInt(a.Rows), formatInt(a.Dropped), formatInt(a.InvalidNumbers), formatInt(a.InvalidDates),
			formatInt(a.Duplicates), formatInt(a.Unmatched), formatInt(a.Excluded), formatInt(a.OutOfScope),
			failures[kind],
		})
	}
	return t
}
