package dataerr

import (
	"fmt"
	"net/http"
	"strings"
)

// Code defines a canonical error code used across the ingestion pipeline.
type Code string

const (
	// Validation & Input
	Validation        Code = "VALIDATION"
	UnsupportedFormat Code = "UNSUPPORTED_FORMAT"

	// Ingestion
	OpenFailed     Code = "OPEN_FAILED"
	SheetMissing   Code = "SHEET_MISSING"
	SchemaInvalid  Code = "SCHEMA_INVALID"
	CoercionFailed Code = "COERCION_FAILED"

	// Metrics
	InsufficientData Code = "INSUFFICIENT_DATA"
	DegenerateRatio  Code = "DEGENERATE_RATIO"

	// Resource & Limits
	BusyResource    Code = "BUSY_RESOURCE"
	Timeout         Code = "TIMEOUT"
	PayloadTooLarge Code = "PAYLOAD_TOO_LARGE"
)

// Entry documents a code's standard message, retry semantics, and next steps.
type Entry struct {
	Code      Code
	Message   string
	Retryable bool
	NextSteps []string
}

// catalog maps canonical codes to guidance. Messages can be overridden per error.
var catalog = map[Code]Entry{
	Validation:        {Code: Validation, Message: "invalid inputs", Retryable: true, NextSteps: []string{"Correct the request parameters and retry"}},
	UnsupportedFormat: {Code: UnsupportedFormat, Message: "unsupported workbook format", Retryable: false, NextSteps: []string{"Convert to .xlsx and retry"}},

	OpenFailed:     {Code: OpenFailed, Message: "failed to open workbook", Retryable: true, NextSteps: []string{"Verify the file is a readable Excel workbook"}},
	SheetMissing:   {Code: SheetMissing, Message: "expected sheet not present in workbook", Retryable: false, NextSteps: []string{"Check sheet names against the expected format", "The dashboard shows a no-data state for this view"}},
	SchemaInvalid:  {Code: SchemaInvalid, Message: "required columns absent or sheet empty", Retryable: false, NextSteps: []string{"Compare the sheet header row against the expected columns"}},
	CoercionFailed: {Code: CoercionFailed, Message: "a date or numeric field could not be parsed", Retryable: false, NextSteps: []string{"Fix the offending cell and re-upload"}},

	InsufficientData: {Code: InsufficientData, Message: "not enough observations for this metric", Retryable: false, NextSteps: []string{"Provide at least one row for the segment"}},
	DegenerateRatio:  {Code: DegenerateRatio, Message: "zero or near-zero denominator in change/ratio computation", Retryable: false, NextSteps: []string{"Inspect the first/last observations of the segment"}},

	BusyResource:    {Code: BusyResource, Message: "concurrent request limit reached", Retryable: true, NextSteps: []string{"Retry after a short delay"}},
	Timeout:         {Code: Timeout, Message: "operation exceeded configured time limit", Retryable: true, NextSteps: []string{"Retry with a smaller workbook"}},
	PayloadTooLarge: {Code: PayloadTooLarge, Message: "uploaded workbook exceeds configured size", Retryable: false, NextSteps: []string{"Trim the workbook or raise the upload limit"}},
}

// Error is a coded pipeline error. Errors with the same code compare equal
// under errors.Is regardless of detail, so callers can branch on sentinels.
type Error struct {
	Code   Code
	Detail string
}

// Error renders "CODE: message" using the catalog message when no detail
// was supplied.
func (e *Error) Error() string {
	msg := strings.TrimSpace(e.Detail)
	if msg == "" {
		if entry, ok := catalog[e.Code]; ok {
			msg = entry.Message
		}
	}
	if msg == "" {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Code, msg)
}

// Is matches any *Error carrying the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// New returns a coded error with an optional detail override.
func New(code Code, detail string) *Error {
	return &Error{Code: code, Detail: detail}
}

// Wrapf formats details and returns a coded error.
func Wrapf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Detail: fmt.Sprintf(format, args...)}
}

// Sentinels for errors.Is comparisons.
var (
	ErrInsufficientData = New(InsufficientData, "")
	ErrDegenerateRatio  = New(DegenerateRatio, "")
	ErrSheetMissing     = New(SheetMissing, "")
	ErrSchemaInvalid    = New(SchemaInvalid, "")
	ErrCoercionFailed   = New(CoercionFailed, "")
)

// Lookup returns the catalog entry for a code when present.
func Lookup(code Code) (Entry, bool) {
	e, ok := catalog[code]
	return e, ok
}

// Guidance joins a code's next steps for inclusion in API error payloads.
func Guidance(code Code) string {
	e, ok := catalog[code]
	if !ok || len(e.NextSteps) == 0 {
		return ""
	}
	return strings.Join(e.NextSteps, "; ")
}

// HTTPStatus maps a code to the status the HTTP adapter should return.
func HTTPStatus(code Code) int {
	switch code {
	case Validation, UnsupportedFormat, SchemaInvalid, CoercionFailed:
		return http.StatusBadRequest
	case PayloadTooLarge:
		return http.StatusRequestEntityTooLarge
	case BusyResource:
		return http.StatusTooManyRequests
	case Timeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
