package dataset

import (
	"math"
	"strconv"
	"strings"
	"time"

	"ctrdash/pkg/dataerr"
)

// Column names required per sheet. Matching is case-insensitive on trimmed
// header text; extra columns are tolerated.
var (
	intentColumns     = []string{"Year Month", "informational", "desktop ctr", "mobile ctr"}
	wordLengthColumns = []string{"Year Month", "n_bucket", "calculated ctr"}
	brandColumns      = []string{"date (Date)", "is_brand", "calculated ctr"}
)

// headerIndex maps each required column to its position in the header row.
// Returns a SCHEMA_INVALID error naming the first missing column.
func headerIndex(headers, required []string) (map[string]int, error) {
	idx := make(map[string]int, len(required))
	for _, want := range required {
		found := -1
		for i, h := range headers {
			if strings.EqualFold(strings.TrimSpace(h), want) {
				found = i
				break
			}
		}
		if found < 0 {
			return nil, dataerr.Wrapf(dataerr.SchemaInvalid, "missing required column %q", want)
		}
		idx[want] = found
	}
	return idx, nil
}

// cellAt returns the trimmed cell for a column index, tolerating short rows.
func cellAt(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// dateLayouts accepted for date-like columns.
var dateLayouts = []string{
	time.RFC3339, "2006-01-02", "01/02/2006", "2006/01/02", "1/2/2006", "1/2/06",
	"2006-01-02 15:04:05", "2006-01", "Jan-06", "01-02-06",
}

// parseDate coerces a cell to a calendar date. Excel stores dates as serial
// day counts, so bare numerics are interpreted against the 1900 epoch.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, dataerr.Wrapf(dataerr.CoercionFailed, "empty date cell")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	if serial, err := strconv.ParseFloat(s, 64); err == nil && serial > 0 {
		if t, err := excelSerialToTime(serial); err == nil {
			return t, nil
		}
	}
	return time.Time{}, dataerr.Wrapf(dataerr.CoercionFailed, "cannot parse date %q", s)
}

// excelSerialToTime converts an Excel 1900-epoch serial to UTC time. Serial 1
// is 1900-01-01; the epoch below accounts for Excel's phantom 1900 leap day.
func excelSerialToTime(serial float64) (time.Time, error) {
	if serial < 1 {
		return time.Time{}, dataerr.Wrapf(dataerr.CoercionFailed, "excel serial %v out of range", serial)
	}
	epoch := time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)
	days := math.Floor(serial)
	frac := serial - days
	return epoch.AddDate(0, 0, int(days)).Add(time.Duration(frac * 24 * float64(time.Hour))), nil
}

// parseFloat coerces a metric cell, tolerating thousands separators and a
// trailing percent sign (scaled back to a ratio).
func parseFloat(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, dataerr.Wrapf(dataerr.CoercionFailed, "empty numeric cell")
	}
	pct := strings.HasSuffix(s, "%")
	s = strings.TrimSuffix(s, "%")
	s = strings.ReplaceAll(s, ",", "")
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, dataerr.Wrapf(dataerr.CoercionFailed, "cannot parse number %q", s)
	}
	if pct {
		f /= 100
	}
	return f, nil
}

// parseBool coerces a flag cell. Excel exports booleans in several spellings.
func parseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes", "1":
		return true, nil
	case "false", "no", "0":
		return false, nil
	}
	return false, dataerr.Wrapf(dataerr.CoercionFailed, "cannot parse flag %q", s)
}

// parseBucket coerces a word-count bucket, accepting "10+" style labels for
// the open-ended top bucket.
func parseBucket(s string) (int, error) {
	s = strings.TrimSuffix(strings.TrimSpace(s), "+")
	n, err := strconv.Atoi(s)
	if err != nil {
		// Excel sometimes renders integers as floats
		if f, ferr := strconv.ParseFloat(s, 64); ferr == nil && f == math.Trunc(f) {
			n = int(f)
		} else {
			return 0, dataerr.Wrapf(dataerr.CoercionFailed, "cannot parse bucket %q", s)
		}
	}
	if n < 1 {
		return 0, dataerr.Wrapf(dataerr.CoercionFailed, "bucket %d out of range", n)
	}
	return n, nil
}
