package server

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"ctrdash/internal/pipeline"
	"ctrdash/internal/runtime"
	"ctrdash/pkg/dataerr"
	"ctrdash/pkg/validation"
	"ctrdash/pkg/version"
)

// DashboardHandler serves the dashboard pipeline over HTTP. It holds no
// per-request state: every call runs an isolated pipeline pass.
type DashboardHandler struct {
	runner      *pipeline.Runner
	guard       *runtime.Controller
	limits      runtime.Limits
	log         zerolog.Logger
	sampleStart time.Time
	sampleEnd   time.Time
}

// NewDashboardHandler wires the pipeline runner behind the HTTP surface.
// The sample range is the default for requests that omit start/end.
func NewDashboardHandler(runner *pipeline.Runner, guard *runtime.Controller, log zerolog.Logger, sampleStart, sampleEnd time.Time) *DashboardHandler {
	return &DashboardHandler{
		runner:      runner,
		guard:       guard,
		limits:      guard.LimitsSnapshot(),
		log:         log,
		sampleStart: sampleStart,
		sampleEnd:   sampleEnd,
	}
}

// Register mounts the dashboard routes on the app.
func (h *DashboardHandler) Register(app *fiber.App) {
	app.Get("/healthz", h.Health)
	app.Get("/api/dashboard/sample", h.Sample)
	app.Post("/api/dashboard", h.Upload)
}

func (h *DashboardHandler) Health(c *fiber.Ctx) error {
	return c.Status(http.StatusOK).JSON(HealthResponse{Status: "ok", Version: version.Version()})
}

type sampleParams struct {
	Start string `validate:"omitempty,yearmonth"`
	End   string `validate:"omitempty,yearmonth"`
}

// Sample runs the pipeline over synthesized data. The sample range is an
// explicit request parameter, never process-wide state.
func (h *DashboardHandler) Sample(c *fiber.Ctx) error {
	params := sampleParams{
		Start: c.Query("start", ""),
		End:   c.Query("end", ""),
	}
	if msg := validation.ValidateStruct(params); msg != "" {
		return writeError(c, dataerr.New(dataerr.Validation, msg))
	}

	start, end := h.sampleStart, h.sampleEnd
	if params.Start != "" {
		start, _ = time.Parse("2006-01", params.Start)
	}
	if params.End != "" {
		end, _ = time.Parse("2006-01", params.End)
	}
	if end.Before(start) {
		return writeError(c, dataerr.New(dataerr.Validation, "end precedes start"))
	}

	res, err := h.runner.Run(c.UserContext(), pipeline.Request{
		Mode:        pipeline.ModeSample,
		SampleStart: start,
		SampleEnd:   end,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(http.StatusOK).JSON(toDashboardResponse(res))
}

type uploadParams struct {
	Filename string `validate:"required,filepath_ext"`
}

// Upload ingests a workbook from a multipart form. The file lands in a
// request-scoped temp directory and is removed once the pass completes;
// the one-shot read is the pipeline's only blocking IO.
func (h *DashboardHandler) Upload(c *fiber.Ctx) error {
	file, err := c.FormFile("workbook")
	if err != nil {
		return writeError(c, dataerr.New(dataerr.Validation, "multipart field 'workbook' is required"))
	}
	if msg := validation.ValidateStruct(uploadParams{Filename: file.Filename}); msg != "" {
		return writeError(c, dataerr.New(dataerr.UnsupportedFormat, msg))
	}
	if h.limits.MaxUploadBytes > 0 && file.Size > h.limits.MaxUploadBytes {
		return writeError(c, dataerr.Wrapf(dataerr.PayloadTooLarge, "workbook is %d bytes (max %d)", file.Size, h.limits.MaxUploadBytes))
	}

	dir, err := os.MkdirTemp("", "ctrdash-upload-")
	if err != nil {
		return writeError(c, dataerr.Wrapf(dataerr.OpenFailed, "stage upload: %v", err))
	}
	defer func() { _ = os.RemoveAll(dir) }()

	path := filepath.Join(dir, filepath.Base(file.Filename))
	if err := c.SaveFile(file, path); err != nil {
		return writeError(c, dataerr.Wrapf(dataerr.OpenFailed, "stage upload: %v", err))
	}

	// Workbook reads are the expensive pass; they hold an ingestion slot on
	// top of the request slot taken by the guard middleware.
	if err := h.guard.AcquireIngestion(c.UserContext()); err != nil {
		return writeError(c, dataerr.New(dataerr.BusyResource, "ingestion capacity exhausted"))
	}
	defer h.guard.ReleaseIngestion()

	res, err := h.runner.Run(c.UserContext(), pipeline.Request{
		Mode:         pipeline.ModeWorkbook,
		WorkbookPath: path,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(http.StatusOK).JSON(toDashboardResponse(res))
}

// writeError maps coded pipeline errors onto HTTP statuses with catalog
// guidance; anything uncoded is a 500.
func writeError(c *fiber.Ctx, err error) error {
	var de *dataerr.Error
	if errors.As(err, &de) {
		return c.Status(dataerr.HTTPStatus(de.Code)).JSON(ErrorResponse{
			Error:    string(de.Code),
			Message:  de.Error(),
			Guidance: dataerr.Guidance(de.Code),
		})
	}
	return c.Status(http.StatusInternalServerError).JSON(ErrorResponse{
		Error:   "INTERNAL",
		Message: "unexpected error",
	})
}
