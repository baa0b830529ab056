package charts

import (
	"fmt"
	"math"

	"ctrdash/config"
	"ctrdash/internal/dataset"
	"ctrdash/internal/metrics"
	"ctrdash/internal/pivot"
)

// Build assembles the full chart bundle for one dataset. Unpopulated tables
// produce nil views rather than errors.
func Build(ds *dataset.Dataset, wl pivot.Series, declines []metrics.BucketDecline, sum metrics.Summary) Bundle {
	milestones := dataset.RolloutMilestones()
	return Bundle{
		Intent:     BuildIntentView(ds.Intent, milestones),
		WordLength: BuildWordLengthView(wl, declines, milestones),
		Brand:      BuildBrandView(ds.Brand, sum, milestones),
	}
}

// BuildIntentView shapes the informational vs non-informational comparison
// for each device. CTR values stay as ratios; scaling for display belongs
// to the renderer.
func BuildIntentView(t dataset.IntentTable, milestones []dataset.RolloutMilestone) *IntentView {
	if !t.Populated() {
		return nil
	}

	desktop := []Series{
		intentSeries(t, true, dataset.DeviceDesktop, "Informational Queries", colorInformational),
		intentSeries(t, false, dataset.DeviceDesktop, "Non-Informational Queries", colorNonInfo),
	}
	mobile := []Series{
		intentSeries(t, true, dataset.DeviceMobile, "Informational Queries", colorInformational),
		intentSeries(t, false, dataset.DeviceMobile, "Non-Informational Queries", colorNonInfo),
	}

	return &IntentView{
		Desktop:     desktop,
		Mobile:      mobile,
		Annotations: milestoneAnnotations(milestones),
	}
}

func intentSeries(t dataset.IntentTable, informational bool, device dataset.Device, name, color string) Series {
	dates := t.SegmentDates(informational)
	vals := t.Segment(informational, device)
	points := make([]Point, 0, len(vals))
	for i := range vals {
		points = append(points, Point{X: dates[i], Y: vals[i]})
	}
	return Series{Name: name, Color: color, Points: points}
}

// BuildWordLengthView shapes the decline bars and the trend lines for the
// selected buckets (1, 3, 5, 7). Buckets absent from the pivoted series are
// skipped on the trend chart.
func BuildWordLengthView(s pivot.Series, declines []metrics.BucketDecline, milestones []dataset.RolloutMilestone) *WordLengthView {
	if s.Empty() {
		return nil
	}

	bars := make([]CategoryBar, 0, len(declines))
	for _, d := range declines {
		bars = append(bars, CategoryBar{
			Label: bucketLabel(d.Bucket),
			Value: d.Change,
			Color: severityColors[d.Severity],
		})
	}

	var trends []Series
	for i, bucket := range trendBuckets {
		dates, vals := s.Column(bucket)
		if len(vals) == 0 {
			continue
		}
		points := make([]Point, 0, len(vals))
		for j := range vals {
			points = append(points, Point{X: dates[j], Y: vals[j]})
		}
		trends = append(trends, Series{
			Name:   fmt.Sprintf("%d Word Queries", bucket),
			Color:  trendColors[i%len(trendColors)],
			Points: points,
		})
	}

	return &WordLengthView{
		Decline:     bars,
		Trends:      trends,
		Annotations: milestoneAnnotations(milestones),
	}
}

// BuildBrandView shapes the brand vs non-brand trend pair, the gap-ratio
// evolution, and the divergence bars. Gap-ratio points with a degenerate
// non-brand denominator are skipped rather than plotted as infinities.
func BuildBrandView(t dataset.BrandTable, sum metrics.Summary, milestones []dataset.RolloutMilestone) *BrandView {
	if !t.Populated() {
		return nil
	}

	brand := t.Side(true)
	nonBrand := t.Side(false)

	trends := []Series{
		brandSeries(brand, "Brand CTR", colorBrand),
		brandSeries(nonBrand, "Non-Brand CTR", colorNonBrand),
	}

	gap := Series{Name: "Brand/Non-Brand Ratio", Color: colorGapRatio}
	nonBrandByDate := make(map[int64]float64, len(nonBrand))
	for _, r := range nonBrand {
		nonBrandByDate[r.Date.Unix()] = r.CTR
	}
	for _, r := range brand {
		den, ok := nonBrandByDate[r.Date.Unix()]
		if !ok || math.Abs(den) < config.DenominatorEpsilon {
			continue
		}
		gap.Points = append(gap.Points, Point{X: r.Date, Y: r.CTR / den})
	}

	var divergence []CategoryBar
	if sum.Has(metrics.KeyBrandChange) && sum.Has(metrics.KeyNonBrandChange) {
		divergence = []CategoryBar{
			{Label: "Brand Performance", Value: sum.Values[metrics.KeyBrandChange], Color: colorBrand},
			{Label: "Non-Brand Performance", Value: sum.Values[metrics.KeyNonBrandChange], Color: colorNonBrand},
		}
	}

	return &BrandView{
		Trends:      trends,
		GapRatio:    gap,
		Divergence:  divergence,
		Annotations: milestoneAnnotations(milestones),
	}
}

// bucketLabel renders a word-count bucket for the categorical axis.
func bucketLabel(bucket int) string {
	if bucket == 1 {
		return "1 word"
	}
	return fmt.Sprintf("%d words", bucket)
}

func brandSeries(rows []dataset.BrandObservation, name, color string) Series {
	points := make([]Point, 0, len(rows))
	for _, r := range rows {
		points = append(points, Point{X: r.Date, Y: r.CTR})
	}
	return Series{Name: name, Color: color, Points: points}
}
