package exporter

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/tafa1618/Copilot-Process/pkg/contracts/domain"
)

func TestWriteWorkbook(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteWorkbook(&buf, sampleResult()))

	wb, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer wb.Close()

	assert.Equal(t, []string{
		SheetProductivity, SheetConformity, SheetEfficiency, SheetLeadTime, SheetCorrelation, SheetAudit,
	}, wb.GetSheetList())

	title, err := wb.GetCellValue(SheetProductivity, "A1")
	require.NoError(t, err)
	assert.Equal(t, "Productivité globale", title)

	ratio, err := wb.GetCellValue(SheetProductivity, "D3", excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	assert.Equal(t, "0.6176", ratio, "numeric cells are stored as numbers")

	rows, err := wb.GetRows(SheetConformity)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(rows), 4)
	assert.Equal(t, "2024-03", rows[0][0])
	assert.Equal(t, []string{"Technicien", "Equipe", "5", "9"}, rows[1])
	assert.Equal(t, []string{"Diallo", "Atelier", "Conforme"}, rows[2])
	assert.Equal(t, []string{"Sow", "Mines", "Surpointage", "Weekend OK"}, rows[3])

	mean, err := wb.GetCellValue(SheetLeadTime, "K3")
	require.NoError(t, err)
	assert.Equal(t, "9", mean)
}

func TestWriteWorkbookSkipsMissingSections(t *testing.T) {
	result := &domain.AnalysisResult{
		LeadTime: &domain.LeadTimeReport{Quarter: "2024-Q1"},
		Audit:    map[domain.SourceKind]*domain.DatasetAudit{},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteWorkbook(&buf, result))

	wb, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer wb.Close()
	assert.Equal(t, []string{SheetLeadTime, SheetAudit}, wb.GetSheetList())

	assert.Error(t, WriteWorkbook(&bytes.Buffer{}, nil))
}
