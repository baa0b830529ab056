package server

import (
	"strconv"
	"time"

	"ctrdash/internal/charts"
	"ctrdash/internal/dataset"
	"ctrdash/internal/metrics"
	"ctrdash/internal/pipeline"
	"ctrdash/pkg/dataerr"
)

type SlotReportResponse struct {
	Slot     string `json:"slot"`
	Code     string `json:"code"`
	Detail   string `json:"detail,omitempty"`
	Guidance string `json:"guidance,omitempty"`
}

// OmittedMetricResponse explains why a summary key is absent, so the
// renderer can show a flagged state instead of a blank figure.
type OmittedMetricResponse struct {
	Key      string `json:"key"`
	Code     string `json:"code"`
	Detail   string `json:"detail,omitempty"`
	Guidance string `json:"guidance,omitempty"`
}

type PivotRowResponse struct {
	Date    time.Time          `json:"date"`
	Buckets map[string]float64 `json:"buckets"`
}

type TablesResponse struct {
	Intent     []dataset.IntentObservation     `json:"intent"`
	WordLength []dataset.WordLengthObservation `json:"word_length"`
	Brand      []dataset.BrandObservation      `json:"brand"`
}

type DashboardResponse struct {
	IngestionID string                      `json:"ingestion_id"`
	Source      string                      `json:"source"`
	Tables      TablesResponse              `json:"tables"`
	Pivot       []PivotRowResponse          `json:"word_length_pivot"`
	Summary     map[string]float64          `json:"summary"`
	Omitted     []OmittedMetricResponse     `json:"omitted_metrics,omitempty"`
	SlotReports []SlotReportResponse        `json:"slot_reports,omitempty"`
	Charts      charts.Bundle               `json:"charts"`
	Milestones  []dataset.RolloutMilestone  `json:"milestones"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

type ErrorResponse struct {
	Error    string `json:"error"`
	Message  string `json:"message,omitempty"`
	Guidance string `json:"guidance,omitempty"`
}

func toDashboardResponse(res *pipeline.Result) DashboardResponse {
	out := DashboardResponse{
		IngestionID: res.Dataset.ID,
		Source:      string(res.Dataset.Source),
		Tables: TablesResponse{
			Intent:     res.Dataset.Intent.Rows,
			WordLength: res.Dataset.WordLength.Rows,
			Brand:      res.Dataset.Brand.Rows,
		},
		Summary:    res.Summary.Values,
		Charts:     res.Charts,
		Milestones: res.Milestones,
	}

	for _, d := range res.WordLengthPivot.Dates() {
		row := PivotRowResponse{Date: d, Buckets: make(map[string]float64)}
		for _, b := range res.WordLengthPivot.Buckets() {
			if v, ok := res.WordLengthPivot.Value(d, b); ok {
				row.Buckets[strconv.Itoa(b)] = v
			}
		}
		out.Pivot = append(out.Pivot, row)
	}

	for _, key := range metricKeys {
		ferr, ok := res.Summary.Failures[key]
		if !ok {
			continue
		}
		code := dataerr.InsufficientData
		if de, isCoded := ferr.(*dataerr.Error); isCoded {
			code = de.Code
		}
		out.Omitted = append(out.Omitted, OmittedMetricResponse{
			Key:      key,
			Code:     string(code),
			Detail:   ferr.Error(),
			Guidance: dataerr.Guidance(code),
		})
	}

	for _, rep := range res.Dataset.Reports {
		out.SlotReports = append(out.SlotReports, SlotReportResponse{
			Slot:     string(rep.Slot),
			Code:     string(rep.Code),
			Detail:   rep.Detail,
			Guidance: dataerr.Guidance(rep.Code),
		})
	}

	return out
}

// metricKeys fixes the omitted-metric ordering in responses.
var metricKeys = []string{
	metrics.KeyInfoDesktopChange,
	metrics.KeyInfoMobileChange,
	metrics.KeyNonInfoDesktopChange,
	metrics.KeyNonInfoMobileChange,
	metrics.KeyBrandChange,
	metrics.KeyNonBrandChange,
	metrics.KeyCurrentGap,
	metrics.KeyGapExpansion,
}
