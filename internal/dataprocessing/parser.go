package dataprocessing

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	apperrors "github.com/tafa1618/Copilot-Process/internal/errors"
	"github.com/tafa1618/Copilot-Process/pkg/contracts/domain"
)

// Parser decodes export workbooks into raw tables.
type Parser struct {
	logger *slog.Logger
}

// NewParser creates a workbook parser.
func NewParser(logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{logger: logger.With(slog.String("component", "parser"))}
}

// ParseFile opens an .xlsx export from disk.
func (p *Parser) ParseFile(path string, source domain.SourceKind) (*domain.RawTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.NewParsingError("failed to open export", err).WithContext("file", path)
	}
	defer f.Close()
	return p.Parse(f, filepath.Base(path), source)
}

// Parse reads the first non-empty sheet of a workbook. The first row holding
// at least one non-blank cell is the header; blank rows below it are skipped.
// Cells are read raw so dates arrive as Excel serials and numbers unformatted.
func (p *Parser) Parse(r io.Reader, name string, source domain.SourceKind) (*domain.RawTable, error) {
	wb, err := excelize.OpenReader(r)
	if err != nil {
		return nil, apperrors.NewParsingError("failed to read workbook", err).WithContext("file", name)
	}
	defer wb.Close()

	for _, sheet := range wb.GetSheetList() {
		rows, err := wb.GetRows(sheet, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, apperrors.NewParsingError(fmt.Sprintf("failed to read sheet %q", sheet), err).
				WithContext("file", name)
		}

		table, ok := buildRawTable(rows)
		if !ok {
			continue
		}
		table.Source = source
		table.FileName = name
		table.Sheet = sheet

		p.logger.Info("export decoded",
			slog.String("source", string(source)),
			slog.String("file", name),
			slog.String("sheet", sheet),
			slog.Int("columns", len(table.Headers)),
			slog.Int("rows", len(table.Records)))
		return table, nil
	}

	return nil, apperrors.NewParsingError("workbook has no header row", nil).WithContext("file", name)
}

func buildRawTable(rows [][]string) (*domain.RawTable, bool) {
	headerRow := -1
	for i, row := range rows {
		if !blankRow(row) {
			headerRow = i
			break
		}
	}
	if headerRow < 0 {
		return nil, false
	}

	headers := make([]string, len(rows[headerRow]))
	for i, h := range rows[headerRow] {
		headers[i] = strings.TrimSpace(h)
	}

	table := &domain.RawTable{Headers: headers}
	for i := headerRow + 1; i < len(rows); i++ {
		if blankRow(rows[i]) {
			continue
		}
		cells := make([]string, len(rows[i]))
		copy(cells, rows[i])
		// Line is the 1-based spreadsheet row number.
		table.Records = append(table.Records, domain.RawRecord{Line: i + 1, Cells: cells})
	}
	return table, true
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
