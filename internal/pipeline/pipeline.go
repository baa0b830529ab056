// Package pipeline runs one full ingestion pass: load (workbook or sample),
// pivot, compute metrics, and build chart series. Each pass is synchronous
// and owns all of its outputs; nothing is cached across passes.
package pipeline

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"ctrdash/internal/charts"
	"ctrdash/internal/dataset"
	"ctrdash/internal/metrics"
	"ctrdash/internal/pivot"
	"ctrdash/pkg/dataerr"
)

// Mode selects the dataset entry path. It is an explicit request parameter;
// there is no ambient "use sample data" state.
type Mode string

const (
	ModeWorkbook Mode = "workbook"
	ModeSample   Mode = "sample"
)

// Request describes one ingestion event.
type Request struct {
	Mode         Mode
	WorkbookPath string
	SampleStart  time.Time
	SampleEnd    time.Time
}

// Result is the contract boundary handed to the rendering layer: validated
// tables, the pivoted word-length series, the metrics summary, chart
// bundles, and the literal milestone list.
type Result struct {
	Dataset         *dataset.Dataset
	WordLengthPivot pivot.Series
	BucketDeclines  []metrics.BucketDecline
	Summary         metrics.Summary
	Charts          charts.Bundle
	Milestones      []dataset.RolloutMilestone
}

// Runner executes pipeline passes.
type Runner struct {
	log zerolog.Logger
}

// NewRunner constructs a Runner with the given base logger.
func NewRunner(log zerolog.Logger) *Runner {
	return &Runner{log: log}
}

// Run executes one pass. Slot-level failures degrade to empty tables inside
// the dataset; only request-level problems (bad mode, unreadable workbook)
// return an error.
func (r *Runner) Run(ctx context.Context, req Request) (*Result, error) {
	var (
		ds  *dataset.Dataset
		err error
	)
	switch req.Mode {
	case ModeWorkbook:
		ctx = r.log.WithContext(ctx)
		ds, err = dataset.LoadWorkbook(ctx, req.WorkbookPath)
		if err != nil {
			return nil, err
		}
	case ModeSample:
		ds = dataset.GenerateSample(req.SampleStart, req.SampleEnd)
	default:
		return nil, dataerr.Wrapf(dataerr.Validation, "unknown mode %q", req.Mode)
	}

	wl := pivot.FromWordLength(ds.WordLength)
	declines, declineFailures := metrics.DeclineByBucket(wl)
	summary := metrics.Compute(ds)
	bundle := charts.Build(ds, wl, declines, summary)

	log := r.log.With().Str("ingestion_id", ds.ID).Str("source", string(ds.Source)).Logger()
	log.Info().
		Int("metrics", len(summary.Values)).
		Int("metric_failures", len(summary.Failures)).
		Int("decline_failures", len(declineFailures)).
		Msg("pipeline pass complete")
	for key, ferr := range summary.Failures {
		log.Warn().Str("metric", key).Err(ferr).Msg("metric omitted")
	}
	for bucket, ferr := range declineFailures {
		log.Warn().Int("bucket", bucket).Err(ferr).Msg("bucket decline omitted")
	}

	return &Result{
		Dataset:         ds,
		WordLengthPivot: wl,
		BucketDeclines:  declines,
		Summary:         summary,
		Charts:          bundle,
		Milestones:      dataset.RolloutMilestones(),
	}, nil
}
