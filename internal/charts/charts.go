// Package charts assembles the chart-ready structures the rendering layer
// consumes. It only selects and labels data; every numeric transformation
// lives in internal/metrics.
package charts

import (
	"time"

	"ctrdash/internal/dataset"
	"ctrdash/internal/metrics"
)

// Series colors matching the dashboard theme.
const (
	colorInformational = "#6325f4"
	colorNonInfo       = "#10b981"
	colorBrand         = "#2b0573"
	colorNonBrand      = "#ef4444"
	colorGapRatio      = "#64748b"
)

// severityColors maps decline severity to its bar color.
var severityColors = map[metrics.Severity]string{
	metrics.SeveritySevere:   "#dc2626",
	metrics.SeverityModerate: "#f59e0b",
	metrics.SeverityMild:     "#10b981",
}

// trendBuckets are the word-count buckets shown on the trend chart.
var trendBuckets = []int{1, 3, 5, 7}

// trendColors indexes colors for the bucket trend lines.
var trendColors = []string{"#2b0573", "#10b981", "#6325f4", "#ef4444"}

// Point is one (x, y) pair on a dated series.
type Point struct {
	X time.Time `json:"x"`
	Y float64   `json:"y"`
}

// Series is an ordered line of points with a display name and color.
type Series struct {
	Name   string  `json:"name"`
	Color  string  `json:"color"`
	Points []Point `json:"points"`
}

// CategoryBar is one labeled bar on a categorical chart.
type CategoryBar struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
	Color string  `json:"color"`
}

// Annotation marks a rollout milestone on the time axis.
type Annotation struct {
	Date  time.Time `json:"date"`
	Label string    `json:"label"`
}

// IntentView carries the per-device intent comparison charts.
type IntentView struct {
	Desktop     []Series     `json:"desktop"`
	Mobile      []Series     `json:"mobile"`
	Annotations []Annotation `json:"annotations"`
}

// WordLengthView carries the decline bars and bucket trend lines.
type WordLengthView struct {
	Decline     []CategoryBar `json:"decline"`
	Trends      []Series      `json:"trends"`
	Annotations []Annotation  `json:"annotations"`
}

// BrandView carries the brand comparison, gap-ratio, and divergence charts.
type BrandView struct {
	Trends      []Series      `json:"trends"`
	GapRatio    Series        `json:"gap_ratio"`
	Divergence  []CategoryBar `json:"divergence"`
	Annotations []Annotation  `json:"annotations"`
}

// Bundle groups the per-view chart structures. A nil view means the slot
// had no data; the rendering layer shows its neutral empty state.
type Bundle struct {
	Intent     *IntentView     `json:"intent,omitempty"`
	WordLength *WordLengthView `json:"word_length,omitempty"`
	Brand      *BrandView      `json:"brand,omitempty"`
}

func milestoneAnnotations(milestones []dataset.RolloutMilestone) []Annotation {
	out := make([]Annotation, 0, len(milestones))
	for _, m := range milestones {
		out = append(out, Annotation{Date: m.Date, Label: m.Label})
	}
	return out
}
