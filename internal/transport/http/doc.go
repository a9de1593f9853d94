// Package http implements the HTTP handlers of the KPI web host. Handlers
// stay thin: they parse the request, call the analysis service and render
// the result or an RFC 7807 problem through the shared error handler.
//
// Routes, relative to /api:
//
//	POST /analysis                         run the pipeline on uploaded exports
//	GET  /analysis/latest                  last computed result
//	GET  /analysis/latest/export.xlsx      last result as a workbook
//	GET  /analysis/latest/tables/{t}.csv   one report table as CSV
//	GET  /kpi/productivity                 session productivity scalar
//	GET  /health, /health/ready, /health/live
package http
