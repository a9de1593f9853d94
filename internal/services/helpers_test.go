package services

import (
	"bytes"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/tafa1618/Copilot-Process/internal/config"
	"github.com/tafa1618/Copilot-Process/internal/dataprocessing"
	"github.com/tafa1618/Copilot-Process/internal/operations"
	"github.com/tafa1618/Copilot-Process/pkg/contracts/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

var attendanceRows = [][]interface{}{
	{"Saisie heures - Date", "Salarié - Nom", "Salarié - Equipe(Nom)", "Facturable", "Hr_travaillée", "Hr_Théorique"},
	{"2024-03-04", "Diallo", "Atelier", "6", "8", "8"},
	{"2024-03-05", "Diallo", "Atelier", "2", "8", "8"},
	{"2024-03-05", "Sow", "Mines", "4", "4", "8"},
}

var invoiceRows = [][]interface{}{
	{"N° Facture (Lignes)", "Date Facture (Lignes)", "Pointage dernière date (Segment)", "N° OR (Segment)"},
	{"F1", "2024-03-10", "2024-03-01", "100"},
}

func workbook(t *testing.T, rows [][]interface{}) []byte {
	t.Helper()
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		r := row
		require.NoError(t, f.SetSheetRow(sheet, cell, &r))
	}
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return buf.Bytes()
}

func workbookFile(t *testing.T, name string, rows [][]interface{}) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		r := row
		require.NoError(t, f.SetSheetRow(sheet, cell, &r))
	}
	require.NoError(t, f.SaveAs(path))
	return path
}

func bytesUpload(name string, data []byte) Upload {
	return Upload{Name: name, Open: func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(data)), nil
	}}
}

func newTestService(t *testing.T) *AnalysisService {
	t.Helper()
	cat, err := config.DefaultCatalog()
	require.NoError(t, err)
	registry, err := operations.DefaultRegistry(cat, testLogger())
	require.NoError(t, err)
	manager := operations.NewManager(registry, nil, nil, testLogger())
	return NewAnalysisService(manager, dataprocessing.NewParser(testLogger()), NewParamsValidator(), testLogger())
}

func uploads(t *testing.T) map[domain.SourceKind]Upload {
	return map[domain.SourceKind]Upload{
		domain.SourceAttendance: bytesUpload("pointage.xlsx", workbook(t, attendanceRows)),
		domain.SourceInvoices:   bytesUpload("factures.xlsx", workbook(t, invoiceRows)),
	}
}
