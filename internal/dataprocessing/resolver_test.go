package dataprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tafa1618/Copilot-Process/internal/config"
	apperrors "github.com/tafa1618/Copilot-Process/internal/errors"
	"github.com/tafa1618/Copilot-Process/pkg/contracts/domain"
)

func TestResolveAttendance(t *testing.T) {
	table := rawTable(domain.SourceAttendance, []string{
		"Saisie heures - Date", "Salarié - Nom", "Salarié-Equipe(Nom)",
		"Facturable", "Hr_travaillée", "Hr_Totale", "Hr_Théorique", "Jour_semaine",
	})

	res, err := NewResolver(defaultCatalog(t), testLogger()).Resolve(table)
	require.NoError(t, err)

	renames := res.Renames()
	assert.Equal(t, domain.FieldDate, renames["Saisie heures - Date"])
	assert.Equal(t, domain.FieldTeam, renames["Salarié-Equipe(Nom)"])
	assert.Equal(t, domain.FieldTotalHours, renames["Hr_Totale"])
	assert.NotContains(t, renames, "Jour_semaine")
}

func TestResolvePriorityOrder(t *testing.T) {
	// Both candidates present: the first listed candidate wins even when it
	// appears later in the sheet.
	table := rawTable(domain.SourceOrderStatus, []string{"OR (Numéro)", "Position", "N° OR (Segment)"})

	res, err := NewResolver(defaultCatalog(t), testLogger()).Resolve(table)
	require.NoError(t, err)

	for _, f := range res.Fields {
		if f.Spec.Name == domain.FieldOrderID {
			assert.Equal(t, 2, f.Column)
			assert.Equal(t, "N° OR (Segment)", f.Header)
		}
	}
}

func TestResolveFoldedMatch(t *testing.T) {
	table := rawTable(domain.SourceInvoices, []string{
		"n° facture (lignes)", "DATE  FACTURE (LIGNES)", "Pointage derniere date (Segment)",
		"Constructeur de l’équipement",
	})

	res, err := NewResolver(defaultCatalog(t), testLogger()).Resolve(table)
	require.NoError(t, err)

	renames := res.Renames()
	assert.Equal(t, domain.FieldInvoiceNumber, renames["n° facture (lignes)"])
	assert.Equal(t, domain.FieldInvoiceDate, renames["DATE  FACTURE (LIGNES)"])
	assert.Equal(t, domain.FieldLastAttendance, renames["Pointage derniere date (Segment)"])
	assert.Equal(t, domain.FieldManufacturer, renames["Constructeur de l’équipement"])
}

func TestResolveMissingRequired(t *testing.T) {
	table := rawTable(domain.SourceAttendance, []string{"Salarié - Nom", "Facturable", "", "Commentaire"})

	_, err := NewResolver(defaultCatalog(t), testLogger()).Resolve(table)

	var schemaErr *apperrors.SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, "attendance", schemaErr.Source)
	assert.Equal(t, []string{"date", "team", "theoretical_hours", "worked_hours"}, schemaErr.Missing)
	assert.Equal(t, []string{"Salarié - Nom", "Facturable", "Commentaire"}, schemaErr.Seen)
}

func TestResolveRequireAny(t *testing.T) {
	resolver := NewResolver(defaultCatalog(t), testLogger())

	_, err := resolver.Resolve(rawTable(domain.SourceWorkOrders, []string{"OR", "Temps_consomé_BO"}))
	var schemaErr *apperrors.SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, []string{"sold_time|quoted_time"}, schemaErr.Missing)

	_, err = resolver.Resolve(rawTable(domain.SourceWorkOrders, []string{"OR", "Temps prévu"}))
	assert.NoError(t, err)
}

func TestResolveColumnClaimedOnce(t *testing.T) {
	cat, err := config.ParseCatalog([]byte(`
sources:
  - kind: order_status
    fields:
      - name: order_id
        kind: key
        required: true
        identity: true
        candidates: ["OR"]
      - name: status
        kind: text
        candidates: ["OR", "Statut"]
`))
	require.NoError(t, err)

	res, err := NewResolver(cat, testLogger()).Resolve(rawTable(domain.SourceOrderStatus, []string{"OR", "Statut"}))
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"OR": "order_id", "Statut": "status"}, res.Renames())
}

func TestResolveUnknownSource(t *testing.T) {
	cat, err := config.ParseCatalog([]byte("sources:\n  - kind: attendance\n"))
	require.NoError(t, err)

	_, err = NewResolver(cat, testLogger()).Resolve(rawTable(domain.SourceInvoices, []string{"x"}))
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrTypeConfig, appErr.Type)
}

func TestFoldHeader(t *testing.T) {
	tests := map[string]string{
		"  Hr_Théorique ":              "hr_theorique",
		"Salarié -  Nom":               "salarie - nom",
		"Constructeur de l’équipement": "constructeur de l'equipement",
		"":                             "",
	}
	for in, want := range tests {
		assert.Equal(t, want, FoldHeader(in), in)
	}
}
