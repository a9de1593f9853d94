package dataprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tafa1618/Copilot-Process/pkg/contracts/domain"
)

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"8", 8, true},
		{"7.5", 7.5, true},
		{"7,5", 7.5, true},
		{"1 234,50", 1234.5, true},
		{"1 234,50", 1234.5, true},
		{"1.234,50", 1234.5, true},
		{"1,234.50", 1234.5, true},
		{"1,234,567", 1234567, true},
		{"-2", -2, true},
		{"", 0, false},
		{"abc", 0, false},
		{"NaN", 0, false},
		{"Inf", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseNumber(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"2024-03-10", "2024-03-10", true},
		{"2024-03-10 17:45:00", "2024-03-10", true},
		{"2024-03-10T08:00:00Z", "2024-03-10", true},
		{"10/03/2024", "2024-03-10", true},
		{"1/3/2024", "2024-03-01", true},
		{"10.03.2024", "2024-03-10", true},
		{"45361", "2024-03-10", true},
		{"45361.75", "2024-03-10", true},
		{"31/02/2024", "", false},
		{"demain", "", false},
		{"0", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseDate(tt.in)
			require.Equal(t, tt.ok, ok)
			if ok {
				assert.Equal(t, day(tt.want), got)
			}
		})
	}
}

func TestNormalizeKey(t *testing.T) {
	tests := map[string]string{
		" or-123 ":   "OR-123",
		"12345.0":    "12345",
		"12345.00":   "12345",
		"12345.5":    "12345.5",
		"F 2024 001": "F2024001",
		"A.0":        "A.0",
		"":           "",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeKey(in), in)
	}
}

func TestNormalize(t *testing.T) {
	table := rawTable(domain.SourceWorkOrders,
		[]string{"OR", "Equipe", "Temps vendu", "Temps prévu", "Temps_consomé_BO", "Date OR"},
		[]string{"100.0", " Atelier ", "", "10", "12", "2024-03-01"},
		[]string{"101", "", "abc", "8,5", "", "pas une date"},
		[]string{"102"},
	)

	res, err := NewResolver(defaultCatalog(t), testLogger()).Resolve(table)
	require.NoError(t, err)

	out, stats := NewNormalizer(testLogger()).Normalize(table, res)
	require.Len(t, out.Records, 3)
	assert.Equal(t, 1, stats.InvalidNumbers)
	assert.Equal(t, 1, stats.InvalidDates)
	assert.True(t, out.HasField(domain.FieldSoldTime))

	first := out.Records[0]
	assert.Equal(t, "100", first.Str(domain.FieldOrderID))
	assert.Equal(t, "Atelier", first.Str(domain.FieldTeam))
	_, soldSet := first.Num(domain.FieldSoldTime)
	assert.False(t, soldSet, "blank durations stay null")
	quoted, _ := first.Num(domain.FieldQuotedTime)
	assert.Equal(t, 10.0, quoted)
	d, ok := first.Date(domain.FieldOrderDate)
	require.True(t, ok)
	assert.Equal(t, day("2024-03-01"), d)

	second := out.Records[1]
	_, soldSet = second.Num(domain.FieldSoldTime)
	assert.False(t, soldSet, "unparseable durations become null")
	_, dateSet := second.Date(domain.FieldOrderDate)
	assert.False(t, dateSet)

	short := out.Records[2]
	assert.Equal(t, "102", short.Str(domain.FieldOrderID))
	assert.Empty(t, short.Numbers)
}

func TestNormalizeHoursDefaultToZero(t *testing.T) {
	table := rawTable(domain.SourceAttendance,
		[]string{"Saisie heures - Date", "Salarié - Nom", "Equipe", "Facturable", "Hr_travaillée", "Hr_Théorique"},
		[]string{"2024-03-05", "Diallo", "A", "", "n/a", "8"},
	)

	res, err := NewResolver(defaultCatalog(t), testLogger()).Resolve(table)
	require.NoError(t, err)

	out, stats := NewNormalizer(testLogger()).Normalize(table, res)
	require.Len(t, out.Records, 1)
	assert.Equal(t, 1, stats.InvalidNumbers)

	worked, ok := out.Records[0].Num(domain.FieldWorkedHours)
	assert.True(t, ok)
	assert.Equal(t, 0.0, worked)
	billable, ok := out.Records[0].Num(domain.FieldBillableHours)
	assert.True(t, ok)
	assert.Equal(t, 0.0, billable)
}
