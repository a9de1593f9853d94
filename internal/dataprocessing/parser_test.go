package dataprocessing

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	apperrors "github.com/tafa1618/Copilot-Process/internal/errors"
	"github.com/tafa1618/Copilot-Process/pkg/contracts/domain"
)

func TestParseFile(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)

	// Row 1 blank, header on row 2, blank row 4.
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{" Saisie heures - Date ", "Salarié - Nom", "Hr_travaillée"}))
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]interface{}{time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), "Diallo", 7.5}))
	require.NoError(t, f.SetSheetRow(sheet, "A5", &[]interface{}{"2024-03-06", "Ndiaye", "8"}))

	path := filepath.Join(t.TempDir(), "pointage.xlsx")
	require.NoError(t, f.SaveAs(path))

	table, err := NewParser(testLogger()).ParseFile(path, domain.SourceAttendance)
	require.NoError(t, err)

	assert.Equal(t, domain.SourceAttendance, table.Source)
	assert.Equal(t, "pointage.xlsx", table.FileName)
	assert.Equal(t, sheet, table.Sheet)
	assert.Equal(t, []string{"Saisie heures - Date", "Salarié - Nom", "Hr_travaillée"}, table.Headers)
	require.Len(t, table.Records, 2)
	assert.Equal(t, 3, table.Records[0].Line)
	assert.Equal(t, 5, table.Records[1].Line)
	assert.Equal(t, "Diallo", table.Records[0].Cell(1))
	assert.Equal(t, "7.5", table.Records[0].Cell(2))

	// Dates arrive as Excel serials and still parse.
	d, ok := ParseDate(table.Records[0].Cell(0))
	require.True(t, ok)
	assert.Equal(t, day("2024-03-05"), d)
}

func TestParseSkipsEmptySheets(t *testing.T) {
	f := excelize.NewFile()
	_, err := f.NewSheet("Data")
	require.NoError(t, err)
	require.NoError(t, f.SetSheetRow("Data", "A1", &[]interface{}{"N° Facture"}))
	require.NoError(t, f.SetSheetRow("Data", "A2", &[]interface{}{"F-1"}))

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	table, err := NewParser(testLogger()).Parse(&buf, "factures.xlsx", domain.SourceInvoices)
	require.NoError(t, err)
	assert.Equal(t, "Data", table.Sheet)
	assert.Len(t, table.Records, 1)
}

func TestParseErrors(t *testing.T) {
	p := NewParser(testLogger())

	_, err := p.Parse(strings.NewReader("not a workbook"), "x.xlsx", domain.SourceInvoices)
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrTypeParsing, appErr.Type)

	var buf bytes.Buffer
	require.NoError(t, excelize.NewFile().Write(&buf))
	_, err = p.Parse(&buf, "empty.xlsx", domain.SourceInvoices)
	assert.Error(t, err)

	_, err = p.ParseFile(filepath.Join(t.TempDir(), "missing.xlsx"), domain.SourceInvoices)
	assert.Error(t, err)
}
