package dataset

import (
	"sort"
	"time"

	"ctrdash/pkg/dataerr"
)

// Sheet names expected in an uploaded workbook. The first carries a typo
// inherited from the upstream export; it must match exactly.
const (
	SheetIntent     = "NB Informatiponal CTR"
	SheetWordLength = "Word Length Non Brand"
	SheetBrand      = "CTR - Brand vs Non Brand - All"
)

// Slot identifies one of the three logical tables in a dataset.
type Slot string

const (
	SlotIntent     Slot = "intent"
	SlotWordLength Slot = "word_length"
	SlotBrand      Slot = "brand"
)

// IntentObservation is one month of non-brand CTR split by query intent,
// with one CTR value per device.
type IntentObservation struct {
	Month         time.Time `json:"month"`
	Informational bool      `json:"informational"`
	DesktopCTR    float64   `json:"desktop_ctr"`
	MobileCTR     float64   `json:"mobile_ctr"`
}

// WordLengthObservation is one month of non-brand CTR for a single
// word-count bucket (1..10).
type WordLengthObservation struct {
	Month  time.Time `json:"month"`
	Bucket int       `json:"bucket"`
	CTR    float64   `json:"ctr"`
}

// BrandObservation is one date of CTR for either brand or non-brand queries.
type BrandObservation struct {
	Date    time.Time `json:"date"`
	IsBrand bool      `json:"is_brand"`
	CTR     float64   `json:"ctr"`
}

// IntentTable holds intent observations ordered by date. A zero-row table is
// the explicit "no data" sentinel; slots are never nil.
type IntentTable struct {
	Rows []IntentObservation
}

func (t IntentTable) Populated() bool { return len(t.Rows) > 0 }
func (t IntentTable) Len() int        { return len(t.Rows) }

// Segment returns the CTR values for one intent flag on one device, in date
// order.
func (t IntentTable) Segment(informational bool, device Device) []float64 {
	var vals []float64
	for _, r := range t.Rows {
		if r.Informational != informational {
			continue
		}
		switch device {
		case DeviceDesktop:
			vals = append(vals, r.DesktopCTR)
		case DeviceMobile:
			vals = append(vals, r.MobileCTR)
		}
	}
	return vals
}

// SegmentDates returns the observation dates for one intent flag, in order.
func (t IntentTable) SegmentDates(informational bool) []time.Time {
	var dates []time.Time
	for _, r := range t.Rows {
		if r.Informational == informational {
			dates = append(dates, r.Month)
		}
	}
	return dates
}

// WordLengthTable holds word-length observations ordered by date.
type WordLengthTable struct {
	Rows []WordLengthObservation
}

func (t WordLengthTable) Populated() bool { return len(t.Rows) > 0 }
func (t WordLengthTable) Len() int        { return len(t.Rows) }

// BrandTable holds brand/non-brand observations ordered by date.
type BrandTable struct {
	Rows []BrandObservation
}

func (t BrandTable) Populated() bool { return len(t.Rows) > 0 }
func (t BrandTable) Len() int        { return len(t.Rows) }

// Side returns the observations for one brand flag, in date order.
func (t BrandTable) Side(isBrand bool) []BrandObservation {
	var rows []BrandObservation
	for _, r := range t.Rows {
		if r.IsBrand == isBrand {
			rows = append(rows, r)
		}
	}
	return rows
}

// Device distinguishes the two CTR columns of the intent sheet.
type Device string

const (
	DeviceDesktop Device = "desktop"
	DeviceMobile  Device = "mobile"
)

// Source records which entry path produced a dataset.
type Source string

const (
	SourceWorkbook Source = "workbook"
	SourceSample   Source = "sample"
)

// SlotReport captures a per-slot ingestion failure. The slot's table is left
// empty and sibling slots continue to load.
type SlotReport struct {
	Slot   Slot         `json:"slot"`
	Code   dataerr.Code `json:"code"`
	Detail string       `json:"detail,omitempty"`
}

// Dataset is the result of one ingestion event. Tables are constructed once
// and not mutated afterwards.
type Dataset struct {
	ID         string
	Source     Source
	Intent     IntentTable
	WordLength WordLengthTable
	Brand      BrandTable
	Reports    []SlotReport
}

// Report appends a slot-level failure record.
func (d *Dataset) Report(slot Slot, code dataerr.Code, detail string) {
	d.Reports = append(d.Reports, SlotReport{Slot: slot, Code: code, Detail: detail})
}

// sortByDate normalizes load order so dates are monotonically non-decreasing,
// keeping the original order for equal dates (dimension values within one
// date stay grouped as loaded).
func (d *Dataset) sortByDate() {
	sort.SliceStable(d.Intent.Rows, func(i, j int) bool {
		return d.Intent.Rows[i].Month.Before(d.Intent.Rows[j].Month)
	})
	sort.SliceStable(d.WordLength.Rows, func(i, j int) bool {
		return d.WordLength.Rows[i].Month.Before(d.WordLength.Rows[j].Month)
	})
	sort.SliceStable(d.Brand.Rows, func(i, j int) bool {
		return d.Brand.Rows[i].Date.Before(d.Brand.Rows[j].Date)
	})
}
