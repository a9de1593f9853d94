package http

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	apperrors "github.com/tafa1618/Copilot-Process/internal/errors"
	"github.com/tafa1618/Copilot-Process/internal/exporter"
	"github.com/tafa1618/Copilot-Process/internal/services"
	"github.com/tafa1618/Copilot-Process/pkg/contracts/domain"
)

const (
	// multipartMemory is the in-memory share of a parsed upload; the rest
	// spills to temporary files.
	multipartMemory = 32 << 20

	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// AnalysisHandler exposes the KPI pipeline over HTTP.
type AnalysisHandler struct {
	service      AnalysisServiceInterface
	errorHandler *apperrors.ErrorHandler
	logger       *slog.Logger
	now          func() time.Time

	// defaultManufacturer applies when the form carries no manufacturer.
	defaultManufacturer string
}

// NewAnalysisHandler creates a new analysis handler
func NewAnalysisHandler(service AnalysisServiceInterface, errorHandler *apperrors.ErrorHandler, logger *slog.Logger) *AnalysisHandler {
	if service == nil {
		panic("service cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if errorHandler == nil {
		errorHandler = apperrors.NewErrorHandler(logger, false)
	}
	return &AnalysisHandler{
		service:      service,
		errorHandler: errorHandler,
		logger:       logger.With(slog.String("handler", "analysis")),
		now:          time.Now,
	}
}

// SetDefaultManufacturer sets the invoice manufacturer filter used when a
// request does not name one.
func (h *AnalysisHandler) SetDefaultManufacturer(manufacturer string) {
	h.defaultManufacturer = strings.TrimSpace(manufacturer)
}

// RegisterRoutes adds the read routes to r, which is mounted at /api. The
// upload route is registered by the host so it can carry body guards.
func (h *AnalysisHandler) RegisterRoutes(r chi.Router) {
	r.Get("/analysis/latest", h.GetLatest)
	r.Get("/analysis/latest/export.xlsx", h.ExportWorkbook)
	r.Get("/analysis/latest/tables/{table}.csv", h.ExportTable)
	r.Get("/kpi/productivity", h.GetProductivity)
}

// Analyze handles POST /api/analysis. The body is multipart/form-data with
// one file field per dataset kind and the run parameters as plain fields.
func (h *AnalysisHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)

	ctx, span := otel.Tracer("analysis-handler").Start(ctx, "analysis_handler.analyze",
		trace.WithAttributes(
			attribute.String("request_id", reqID),
			attribute.String("component", "analysis_handler"),
		),
	)
	defer span.End()
	r = r.WithContext(ctx)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		span.RecordError(err)
		var tooLarge *http.MaxBytesError
		if !errors.As(err, &tooLarge) {
			err = apperrors.InvalidRequestWithError(err)
		}
		h.errorHandler.HandleError(w, r, err)
		return
	}
	defer r.MultipartForm.RemoveAll()

	uploads, err := uploadsFromForm(r.MultipartForm)
	if err != nil {
		span.RecordError(err)
		h.errorHandler.HandleError(w, r, err)
		return
	}

	params, err := h.paramsFromForm(r.MultipartForm.Value)
	if err != nil {
		span.RecordError(err)
		h.errorHandler.HandleError(w, r, err)
		return
	}

	span.SetAttributes(
		attribute.Int("datasets", len(uploads)),
		attribute.String("quarter", params.Quarter.String()),
		attribute.String("month", params.Month),
	)
	h.logger.InfoContext(ctx, "analysis request",
		slog.String("request_id", reqID),
		slog.Int("datasets", len(uploads)),
		slog.String("quarter", params.Quarter.String()),
		slog.String("month", params.Month),
	)

	result, err := h.service.Analyze(ctx, uploads, params)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "analysis failed")
		h.errorHandler.HandleError(w, r, mapServiceError(err))
		return
	}

	span.SetAttributes(attribute.String("run_id", result.RunID))
	render.JSON(w, r, result)
}

// GetLatest handles GET /api/analysis/latest
func (h *AnalysisHandler) GetLatest(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.Latest()
	if err != nil {
		h.errorHandler.HandleError(w, r, mapServiceError(err))
		return
	}
	render.JSON(w, r, result)
}

// ProductivityResponse is the session productivity scalar.
type ProductivityResponse struct {
	Productivity  float64 `json:"productivity"`
	BillableHours float64 `json:"billable_hours"`
	WorkedHours   float64 `json:"worked_hours"`
	Days          int     `json:"days"`
}

// GetProductivity handles GET /api/kpi/productivity
func (h *AnalysisHandler) GetProductivity(w http.ResponseWriter, r *http.Request) {
	ratio, err := h.service.LatestProductivity()
	if err != nil {
		h.errorHandler.HandleError(w, r, mapServiceError(err))
		return
	}
	render.JSON(w, r, ProductivityResponse{
		Productivity:  ratio.Ratio,
		BillableHours: ratio.Billable,
		WorkedHours:   ratio.Worked,
		Days:          ratio.Days,
	})
}

// ExportWorkbook handles GET /api/analysis/latest/export.xlsx
func (h *AnalysisHandler) ExportWorkbook(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.Latest()
	if err != nil {
		h.errorHandler.HandleError(w, r, mapServiceError(err))
		return
	}

	// Rendered to memory first so a failure can still produce a problem.
	var buf bytes.Buffer
	if err := exporter.WriteWorkbook(&buf, result); err != nil {
		h.errorHandler.HandleError(w, r, fmt.Errorf("failed to render workbook: %w", err))
		return
	}

	writeAttachment(w, xlsxContentType, exportName(result, "xlsx"), buf.Bytes())
}

// ExportTable handles GET /api/analysis/latest/tables/{table}.csv
func (h *AnalysisHandler) ExportTable(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.Latest()
	if err != nil {
		h.errorHandler.HandleError(w, r, mapServiceError(err))
		return
	}

	name := chi.URLParam(r, "table")
	for _, t := range exporter.Tables(result) {
		if t.Name != name {
			continue
		}
		var buf bytes.Buffer
		err := exporter.WriteTable(&buf, exporter.WriteOptions{Headers: t.Headers, Records: t.Rows, BOMPrefix: true})
		if err != nil {
			h.errorHandler.HandleError(w, r, fmt.Errorf("failed to render table %s: %w", name, err))
			return
		}
		writeAttachment(w, "text/csv; charset=utf-8", name+".csv", buf.Bytes())
		return
	}

	h.errorHandler.HandleError(w, r, apperrors.TableNotFound(name))
}

func writeAttachment(w http.ResponseWriter, contentType, filename string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func exportName(result *domain.AnalysisResult, ext string) string {
	return fmt.Sprintf("kpi_%s.%s", result.GeneratedAt.Format("2006_01_02"), ext)
}

// uploadsFromForm picks one file per known dataset kind. Unknown file
// fields are refused so a misnamed field is not silently ignored.
func uploadsFromForm(form *multipart.Form) (map[domain.SourceKind]services.Upload, error) {
	uploads := make(map[domain.SourceKind]services.Upload, len(form.File))
	for field, headers := range form.File {
		kind := domain.SourceKind(field)
		if !kind.Valid() {
			return nil, apperrors.NewValidationErrors([]apperrors.ValidationError{{
				Field:   field,
				Message: fmt.Sprintf("unknown dataset %q", field),
			}})
		}
		if len(headers) != 1 {
			return nil, apperrors.NewValidationErrors([]apperrors.ValidationError{{
				Field:   field,
				Message: "exactly one file per dataset is accepted",
			}})
		}
		fh := headers[0]
		uploads[kind] = services.Upload{
			Name: fh.Filename,
			Open: func() (io.ReadCloser, error) { return fh.Open() },
		}
	}
	if len(uploads) == 0 {
		return nil, apperrors.InvalidRequestWithError(services.ErrNoDataset)
	}
	return uploads, nil
}

// paramsFromForm reads the run parameters. List fields accept repeated
// values, comma separated values, or both. An absent quarter means the
// current one; "all" disables the quarter filter.
func (h *AnalysisHandler) paramsFromForm(values map[string][]string) (domain.AnalysisParams, error) {
	params := domain.AnalysisParams{
		Teams:        listValue(values["teams"]),
		Month:        firstValue(values["month"]),
		Manufacturer: firstValue(values["manufacturer"]),
		Statuses:     listValue(values["statuses"]),
		OrderTypes:   listValue(values["order_types"]),
	}
	if params.Manufacturer == "" {
		params.Manufacturer = h.defaultManufacturer
	}

	switch q := firstValue(values["quarter"]); strings.ToLower(q) {
	case "":
		params.Quarter = domain.QuarterOf(h.now())
	case "all":
	default:
		quarter, err := domain.ParseQuarter(q)
		if err != nil {
			return params, apperrors.NewValidationErrors([]apperrors.ValidationError{{
				Field:   "quarter",
				Message: err.Error(),
			}})
		}
		params.Quarter = quarter
	}
	return params, nil
}

func firstValue(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return strings.TrimSpace(values[0])
}

func listValue(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// mapServiceError turns service sentinels into API errors. Anything else
// (schema rejections, validation, deadlines) is already understood by the
// error handler.
func mapServiceError(err error) error {
	switch {
	case errors.Is(err, services.ErrNoResult):
		return apperrors.ErrNoResult
	case errors.Is(err, services.ErrNoProductivity):
		return apperrors.ErrNoProductivity
	case errors.Is(err, services.ErrNoDataset), errors.Is(err, services.ErrUnknownSource):
		return apperrors.InvalidRequestWithError(err)
	default:
		return err
	}
}
