// Package exporter renders analysis results as report files.
//
// Tables flattens a result into named tables shared by both outputs:
// CSVWriter writes one UTF-8 CSV per table (with a BOM so Excel detects
// the encoding) and WriteWorkbook lays the same tables out as an XLSX
// workbook with one sheet per KPI family and a colour-coded conformity grid.
//
// Example usage:
//
//	exp := exporter.NewReportExporter("reports", logger)
//	files, err := exp.Export(result, exporter.FormatXLSX)
package exporter
