package exporter

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	apperrors "github.com/tafa1618/Copilot-Process/internal/errors"
	"github.com/tafa1618/Copilot-Process/pkg/contracts/domain"
)

// Format selects the report output.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ParseFormat accepts csv or xlsx, case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCSV, FormatXLSX:
		return f, nil
	}
	return "", fmt.Errorf("unknown report format %q (want csv or xlsx)", s)
}

// ReportExporter writes analysis results to a report directory.
type ReportExporter struct {
	outputDir string
	csv       *CSVWriter
	logger    *slog.Logger
}

// NewReportExporter creates an exporter writing below outputDir.
func NewReportExporter(outputDir string, logger *slog.Logger) *ReportExporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReportExporter{
		outputDir: outputDir,
		csv:       NewCSVWriter(outputDir, logger),
		logger:    logger.With(slog.String("component", "report_exporter")),
	}
}

// Export writes the result in the given format and returns the files
// written. CSV output is one file per table, prefixed by the run date.
func (e *ReportExporter) Export(result *domain.AnalysisResult, format Format) ([]string, error) {
	if result == nil {
		return nil, fmt.Errorf("no result to export")
	}
	prefix := "kpi_" + result.GeneratedAt.Format("2006_01_02")

	var files []string
	switch format {
	case FormatCSV:
		for _, t := range Tables(result) {
			path, err := e.csv.WriteCSV(prefix+"_"+t.Name+".csv", WriteOptions{
				Headers:   t.Headers,
				Records:   t.Rows,
				BOMPrefix: true,
			})
			if err != nil {
				return files, apperrors.NewStorageError("failed to export "+t.Name, err)
			}
			files = append(files, path)
		}
	case FormatXLSX:
		path, err := e.writeWorkbook(prefix+".xlsx", result)
		if err != nil {
			return nil, apperrors.NewStorageError("failed to export workbook", err)
		}
		files = append(files, path)
	default:
		return nil, fmt.Errorf("unknown report format %q", format)
	}

	e.logger.Info("report exported",
		slog.String("run_id", result.RunID),
		slog.String("format", string(format)),
		slog.Int("files", len(files)))
	return files, nil
}

func (e *ReportExporter) writeWorkbook(name string, result *domain.AnalysisResult) (string, error) {
	if err := os.MkdirAll(e.outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}
	path := filepath.Join(e.outputDir, name)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create workbook: %w", err)
	}
	defer f.Close()

	if err := WriteWorkbook(f, result); err != nil {
		return "", fmt.Errorf("failed to write workbook: %w", err)
	}
	return path, f.Close()
}
