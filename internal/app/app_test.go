package app

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/tafa1618/Copilot-Process/internal/config"
	"github.com/tafa1618/Copilot-Process/internal/infrastructure"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Server.RateLimit.Enabled = false
	cfg.Server.ShutdownTimeout = 2 * time.Second
	return cfg
}

func newTestApp(t *testing.T, cfg *config.Config) *Application {
	t.Helper()
	app, err := New(cfg, nil, testLogger())
	require.NoError(t, err)
	return app
}

func workbook(t *testing.T, rows [][]interface{}) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
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

var attendanceRows = [][]interface{}{
	{"Saisie heures - Date", "Salarié - Nom", "Salarié - Equipe(Nom)", "Facturable", "Hr_travaillée", "Hr_Théorique"},
	{"2024-03-04", "Diallo", "Atelier", "6", "8", "8"},
	{"2024-03-05", "Diallo", "Atelier", "2", "8", "8"},
	{"2024-03-05", "Sow", "Mines", "4", "4", "8"},
}

func analysisRequest(t *testing.T) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("attendance", "pointage.xlsx")
	require.NoError(t, err)
	_, err = part.Write(workbook(t, attendanceRows))
	require.NoError(t, err)
	require.NoError(t, mw.WriteField("quarter", "all"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/analysis", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func serve(app *Application, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func TestAnalysisFlow(t *testing.T) {
	app := newTestApp(t, testConfig())

	rec := serve(app, httptest.NewRequest(http.MethodGet, "/api/kpi/productivity", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "RESULT_NOT_FOUND", decode(t, rec)["error_code"])

	rec = serve(app, analysisRequest(t))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec = serve(app, httptest.NewRequest(http.MethodGet, "/api/kpi/productivity", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.InDelta(t, 0.6, decode(t, rec)["productivity"], 1e-9)

	rec = serve(app, httptest.NewRequest(http.MethodGet, "/api/analysis/latest/export.xlsx", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	assert.Contains(t, f.GetSheetList(), "Productivité")

	rec = serve(app, httptest.NewRequest(http.MethodGet, "/api/health/ready", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ready", decode(t, rec)["status"])
}

func TestRouterErrors(t *testing.T) {
	cfg := testConfig()
	cfg.Analysis.MaxUploadBytes = 256

	app := newTestApp(t, cfg)

	tests := []struct {
		name       string
		req        func() *http.Request
		wantStatus int
	}{
		{
			name:       "unknown route",
			req:        func() *http.Request { return httptest.NewRequest(http.MethodGet, "/api/nowhere", nil) },
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "wrong method",
			req:        func() *http.Request { return httptest.NewRequest(http.MethodDelete, "/api/kpi/productivity", nil) },
			wantStatus: http.StatusMethodNotAllowed,
		},
		{
			name: "json body refused",
			req: func() *http.Request {
				req := httptest.NewRequest(http.MethodPost, "/api/analysis", strings.NewReader("{}"))
				req.Header.Set("Content-Type", "application/json")
				return req
			},
			wantStatus: http.StatusUnsupportedMediaType,
		},
		{
			name:       "upload over limit",
			req:        func() *http.Request { return analysisRequest(t) },
			wantStatus: http.StatusRequestEntityTooLarge,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(app, tt.req())
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			assert.Contains(t, decode(t, rec), "trace_id")
		})
	}
}

func TestRateLimitedAPI(t *testing.T) {
	cfg := testConfig()
	cfg.Server.RateLimit = config.RateLimitConfig{Enabled: true, RPS: 0.001, Burst: 1}
	app := newTestApp(t, cfg)

	assert.Equal(t, http.StatusNotFound, serve(app, httptest.NewRequest(http.MethodGet, "/api/analysis/latest", nil)).Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(app, httptest.NewRequest(http.MethodGet, "/api/analysis/latest", nil)).Code)

	// Health checks stay outside the limiter.
	assert.Equal(t, http.StatusOK, serve(app, httptest.NewRequest(http.MethodGet, "/api/health", nil)).Code)
}

func TestMetricsEndpoint(t *testing.T) {
	cfg := testConfig()
	providers, err := infrastructure.InitializeOTel(&infrastructure.OTelConfig{
		ServiceName:    "copilot-process-test",
		ServiceVersion: "test",
		Environment:    "test",
		TraceExporter:  "none",
		MetricExporter: "prometheus",
	}, testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = providers.Shutdown(context.Background()) })

	app, err := New(cfg, providers, testLogger())
	require.NoError(t, err)

	serve(app, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	rec := serve(app, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_requests")
}

func TestNewRejectsBadCatalog(t *testing.T) {
	cfg := testConfig()
	cfg.Analysis.ColumnCatalog = "/does/not/exist.yaml"

	_, err := New(cfg, nil, testLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "column catalog")
}

func TestStartStop(t *testing.T) {
	app := newTestApp(t, testConfig())

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, app.serve(ctx, cancel, listener))

	resp, err := http.Get("http://" + listener.Addr().String() + "/api/health/live")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, app.Stop(context.Background()))
	assert.NoError(t, ctx.Err())
}
