package server

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"ctrdash/internal/dataset"
	"ctrdash/internal/pipeline"
	"ctrdash/internal/runtime"
)

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	controller := runtime.NewController(runtime.NewLimits(4, 2))
	runner := pipeline.NewRunner(zerolog.Nop())
	handler := NewDashboardHandler(
		runner,
		controller,
		zerolog.Nop(),
		time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC),
	)

	app := fiber.New()
	app.Use(RequestGuard(controller))
	handler.Register(app)
	return app
}

func decodeDashboard(t *testing.T, res *http.Response) DashboardResponse {
	t.Helper()
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	var out DashboardResponse
	require.NoError(t, json.Unmarshal(body, &out))
	return out
}

func TestHealthEndpoint(t *testing.T) {
	app := newTestApp(t)

	res, err := app.Test(httptest.NewRequest(http.MethodGet, "/healthz", nil), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, res.StatusCode)

	var health HealthResponse
	require.NoError(t, json.NewDecoder(res.Body).Decode(&health))
	require.Equal(t, "ok", health.Status)
	require.NotEmpty(t, health.Version)
}

func TestSampleEndpoint(t *testing.T) {
	app := newTestApp(t)

	res, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/dashboard/sample?start=2024-04&end=2024-06", nil), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, res.StatusCode)

	out := decodeDashboard(t, res)
	require.Equal(t, "sample", out.Source)
	require.NotEmpty(t, out.IngestionID)
	require.Len(t, out.Summary, 8)
	require.Len(t, out.Milestones, 3)
	require.Len(t, out.Tables.Intent, 6)     // 3 months x 2 intent flags
	require.Len(t, out.Tables.WordLength, 30) // 3 months x 10 buckets
	require.Len(t, out.Pivot, 3)
	require.Empty(t, out.SlotReports)
	require.NotNil(t, out.Charts.Intent)
}

func TestSampleEndpointInvalidMonth(t *testing.T) {
	app := newTestApp(t)

	res, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/dashboard/sample?start=April", nil), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, res.StatusCode)

	var out ErrorResponse
	require.NoError(t, json.NewDecoder(res.Body).Decode(&out))
	require.Equal(t, "VALIDATION", out.Error)
}

func TestSampleEndpointInvertedRange(t *testing.T) {
	app := newTestApp(t)

	res, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/dashboard/sample?start=2024-06&end=2024-04", nil), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestUploadMissingFile(t *testing.T) {
	app := newTestApp(t)

	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/dashboard", body)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	res, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestUploadRejectsUnsupportedExtension(t *testing.T) {
	app := newTestApp(t)

	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	part, err := mw.CreateFormFile("workbook", "data.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte("date,ctr\n"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/dashboard", body)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	res, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, res.StatusCode)

	var out ErrorResponse
	require.NoError(t, json.NewDecoder(res.Body).Decode(&out))
	require.Equal(t, "UNSUPPORTED_FORMAT", out.Error)
}

func TestUploadWorkbook(t *testing.T) {
	app := newTestApp(t)

	f := excelize.NewFile()
	f.SetSheetName("Sheet1", dataset.SheetWordLength)
	rows := [][]string{
		{"Year Month", "n_bucket", "calculated ctr"},
		{"2024-04-01", "1", "0.050"},
		{"2024-05-01", "1", "0.020"},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		rowCopy := row
		require.NoError(t, f.SetSheetRow(dataset.SheetWordLength, cell, &rowCopy))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	require.NoError(t, f.Close())

	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	part, err := mw.CreateFormFile("workbook", "ctr.xlsx")
	require.NoError(t, err)
	_, err = part.Write(buf.Bytes())
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/dashboard", body)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	res, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, res.StatusCode)

	out := decodeDashboard(t, res)
	require.Equal(t, "workbook", out.Source)
	require.Len(t, out.Tables.WordLength, 2)
	require.Len(t, out.SlotReports, 2) // intent and brand sheets absent
	require.NotNil(t, out.Charts.WordLength)
	require.Nil(t, out.Charts.Intent)
	// Brand/intent metrics are omitted outright; the slot reports explain why.
	require.Empty(t, out.Summary)
}
