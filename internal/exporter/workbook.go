package exporter

import (
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/tafa1618/Copilot-Process/pkg/contracts/domain"
)

// Sheet names of the report workbook.
const (
	SheetProductivity = "Productivité"
	SheetConformity   = "Conformité"
	SheetEfficiency   = "Efficience"
	SheetLeadTime     = "LLTI"
	SheetCorrelation  = "Corrélation"
	SheetAudit        = "Audit"
)

// statusFills colours conformity cells, one fill per status.
var statusFills = map[domain.ConformityStatus]string{
	domain.StatusNonConforme:    "#F8CBAD",
	domain.StatusIncomplet:      "#FFE699",
	domain.StatusConforme:       "#C6EFCE",
	domain.StatusSurpointage:    "#BDD7EE",
	domain.StatusWeekendOK:      "#EDEDED",
	domain.StatusTravailWeekend: "#D9D2E9",
}

type workbookStyles struct {
	title  int
	header int
	status map[domain.ConformityStatus]int
}

// WriteWorkbook renders the result as a multi-sheet XLSX workbook.
// Productivity, efficiency and lead time sheets stack their tables
// vertically; the conformity sheet pivots technician by day of month.
func WriteWorkbook(w io.Writer, result *domain.AnalysisResult) error {
	if result == nil {
		return fmt.Errorf("no result to export")
	}

	f := excelize.NewFile()
	defer f.Close()

	styles, err := newWorkbookStyles(f)
	if err != nil {
		return err
	}

	tables := Tables(result)
	byName := make(map[string]Table, len(tables))
	for _, t := range tables {
		byName[t.Name] = t
	}

	layout := []struct {
		sheet  string
		tables []string
	}{
		{SheetProductivity, []string{"productivite", "productivite_techniciens", "productivite_equipes", "productivite_mois", "productivite_equipes_mois"}},
		{SheetConformity, nil},
		{SheetEfficiency, []string{"efficience", "efficience_en_cours"}},
		{SheetLeadTime, []string{"llti", "llti_distribution"}},
		{SheetCorrelation, []string{"correlation"}},
		{SheetAudit, []string{"audit"}},
	}

	for _, l := range layout {
		if l.sheet == SheetConformity {
			if result.Conformity == nil {
				continue
			}
			if _, err := f.NewSheet(SheetConformity); err != nil {
				return fmt.Errorf("failed to create sheet %s: %w", SheetConformity, err)
			}
			if err := writeConformity(f, result.Conformity, styles); err != nil {
				return err
			}
			continue
		}

		var present []Table
		for _, name := range l.tables {
			if t, ok := byName[name]; ok {
				present = append(present, t)
			}
		}
		if len(present) == 0 {
			continue
		}
		if _, err := f.NewSheet(l.sheet); err != nil {
			return fmt.Errorf("failed to create sheet %s: %w", l.sheet, err)
		}
		if err := writeStacked(f, l.sheet, present, styles); err != nil {
			return err
		}
		if l.sheet == SheetLeadTime && result.LeadTime != nil {
			if err := writeLeadTimeSummary(f, result.LeadTime, styles); err != nil {
				return err
			}
		}
	}

	// Audit always exists, so Sheet1 can go.
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("failed to drop default sheet: %w", err)
	}
	if idx, err := f.GetSheetIndex(f.GetSheetList()[0]); err == nil {
		f.SetActiveSheet(idx)
	}

	return f.Write(w)
}

func newWorkbookStyles(f *excelize.File) (*workbookStyles, error) {
	title, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 13},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create title style: %w", err)
	}
	header, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	s := &workbookStyles{title: title, header: header, status: map[domain.ConformityStatus]int{}}
	for status, color := range statusFills {
		id, err := f.NewStyle(&excelize.Style{
			Fill:      excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1},
			Alignment: &excelize.Alignment{Horizontal: "center"},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create %s style: %w", status, err)
		}
		s.status[status] = id
	}
	return s, nil
}

// writeStacked writes tables one under the other with a blank row between.
func writeStacked(f *excelize.File, sheet string, tables []Table, styles *workbookStyles) error {
	row := 1
	width := 0
	for _, t := range tables {
		if err := f.SetCellValue(sheet, cell(1, row), t.Title); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, cell(1, row), cell(1, row), styles.title); err != nil {
			return err
		}
		row++

		if err := setRow(f, sheet, row, t.Headers); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, cell(1, row), cell(len(t.Headers), row), styles.header); err != nil {
			return err
		}
		row++

		for _, r := range t.Rows {
			if err := setRow(f, sheet, row, r); err != nil {
				return err
			}
			row++
		}
		row++
		if len(t.Headers) > width {
			width = len(t.Headers)
		}
	}

	if width > 0 {
		last, _ := excelize.ColumnNumberToName(width)
		return f.SetColWidth(sheet, "A", last, 18)
	}
	return nil
}

// writeLeadTimeSummary adds the scalar KPIs to the right of the detail.
func writeLeadTimeSummary(f *excelize.File, l *domain.LeadTimeReport, styles *workbookStyles) error {
	const col = 10
	rows := [][]string{
		{"Trimestre", l.Quarter},
		{"LLTI moyen", formatOptional(l.Mean)},
		{"LLTI médian", formatOptional(l.Median)},
		{"Factures", formatInt(l.InvoiceCount)},
	}
	if err := f.SetCellValue(SheetLeadTime, cell(col, 1), "Indicateurs"); err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetLeadTime, cell(col, 1), cell(col, 1), styles.title); err != nil {
		return err
	}
	for i, r := range rows {
		for j, v := range r {
			if err := setCell(f, SheetLeadTime, cell(col+j, i+2), v); err != nil {
				return err
			}
		}
	}
	return nil
}

// writeConformity writes one block per month: technicians down, days of the
// month across, the status label in each cell and a status count summary.
func writeConformity(f *excelize.File, grid *domain.ConformityGrid, styles *workbookStyles) error {
	sheet := SheetConformity
	row := 1
	for _, m := range grid.Months {
		if err := f.SetCellValue(sheet, cell(1, row), m.Month); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, cell(1, row), cell(1, row), styles.title); err != nil {
			return err
		}
		row++

		days := monthDays(m)
		headers := []string{"Technicien", "Equipe"}
		for _, d := range days {
			headers = append(headers, strconv.Itoa(d))
		}
		if err := setRow(f, sheet, row, headers); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, cell(1, row), cell(len(headers), row), styles.header); err != nil {
			return err
		}
		row++

		for _, tech := range sortedTechnicians(m) {
			if err := setRow(f, sheet, row, []string{tech, m.Teams[tech]}); err != nil {
				return err
			}
			for i, d := range days {
				status, ok := m.Statuses[tech][d]
				if !ok {
					continue
				}
				ref := cell(3+i, row)
				if err := f.SetCellValue(sheet, ref, status.Label()); err != nil {
					return err
				}
				if style, ok := styles.status[status]; ok {
					if err := f.SetCellStyle(sheet, ref, ref, style); err != nil {
						return err
					}
				}
			}
			row++
		}

		for _, status := range domain.ConformityStatuses() {
			if err := setRow(f, sheet, row, []string{status.Label(), formatInt(m.Counts[status])}); err != nil {
				return err
			}
			row++
		}
		row++
	}

	if err := f.SetColWidth(sheet, "A", "B", 18); err != nil {
		return err
	}
	return f.SetColWidth(sheet, "C", "AG", 14)
}

func monthDays(m domain.MonthGrid) []int {
	seen := map[int]bool{}
	for _, days := range m.Statuses {
		for d := range days {
			seen[d] = true
		}
	}
	out := make([]int, 0, len(seen))
	for d := range seen {
		out = append(out, d)
	}
	sort.Ints(out)
	return out
}

func setRow(f *excelize.File, sheet string, row int, values []string) error {
	for i, v := range values {
		if err := setCell(f, sheet, cell(i+1, row), v); err != nil {
			return err
		}
	}
	return nil
}

// setCell stores numeric strings as numbers so spreadsheet formulas work.
func setCell(f *excelize.File, sheet, ref, v string) error {
	if n, err := strconv.ParseFloat(v, 64); err == nil {
		return f.SetCellFloat(sheet, ref, n, -1, 64)
	}
	return f.SetCellStr(sheet, ref, v)
}

func cell(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}
