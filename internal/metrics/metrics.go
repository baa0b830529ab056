// Package metrics computes the derived trend figures for one loaded
// dataset: start-to-end percentage changes per segment, the brand/non-brand
// gap, and decline severity per word-count bucket.
package metrics

import (
	"math"

	"ctrdash/config"
	"ctrdash/internal/dataset"
	"ctrdash/internal/pivot"
	"ctrdash/pkg/dataerr"
)

// Summary keys. These are the contract with the rendering layer.
const (
	KeyInfoDesktopChange    = "info_desktop_change"
	KeyInfoMobileChange     = "info_mobile_change"
	KeyNonInfoDesktopChange = "non_info_desktop_change"
	KeyNonInfoMobileChange  = "non_info_mobile_change"
	KeyBrandChange          = "brand_change"
	KeyNonBrandChange       = "non_brand_change"
	KeyCurrentGap           = "current_gap"
	KeyGapExpansion         = "gap_expansion"
)

// SingleObservationChange is the defined change for a one-row series: first
// and last observation coincide, so the change is zero by convention rather
// than an error.
const SingleObservationChange = 0.0

// Summary maps metric keys to computed values. A metric that could not be
// computed is absent from Values and carries its error in Failures; sibling
// metrics are unaffected. Summaries are computed once per ingestion and not
// mutated afterwards.
type Summary struct {
	Values   map[string]float64
	Failures map[string]error
}

// Has reports whether a metric was computed.
func (s Summary) Has(key string) bool {
	_, ok := s.Values[key]
	return ok
}

// PercentChange returns (last-first)/first*100. A first value at or below
// the denominator epsilon signals DEGENERATE_RATIO instead of producing an
// unbounded or NaN result.
func PercentChange(first, last float64) (float64, error) {
	if math.Abs(first) < config.DenominatorEpsilon {
		return 0, dataerr.Wrapf(dataerr.DegenerateRatio, "first observation %v too close to zero", first)
	}
	return (last - first) / first * 100, nil
}

// seriesChange applies the start-to-end change policy to an ordered series:
// no observations is insufficient data, one observation yields the
// documented zero convention, otherwise first vs last.
func seriesChange(vals []float64) (float64, error) {
	switch len(vals) {
	case 0:
		return 0, dataerr.Wrapf(dataerr.InsufficientData, "no observations for segment")
	case 1:
		return SingleObservationChange, nil
	}
	return PercentChange(vals[0], vals[len(vals)-1])
}

// Compute derives the summary for one dataset. Unpopulated tables simply
// omit their metrics; the slot reports on the dataset already explain why.
func Compute(ds *dataset.Dataset) Summary {
	s := Summary{
		Values:   make(map[string]float64),
		Failures: make(map[string]error),
	}

	if ds.Intent.Populated() {
		s.set(KeyInfoDesktopChange, seriesChangeOf(ds.Intent.Segment(true, dataset.DeviceDesktop)))
		s.set(KeyInfoMobileChange, seriesChangeOf(ds.Intent.Segment(true, dataset.DeviceMobile)))
		s.set(KeyNonInfoDesktopChange, seriesChangeOf(ds.Intent.Segment(false, dataset.DeviceDesktop)))
		s.set(KeyNonInfoMobileChange, seriesChangeOf(ds.Intent.Segment(false, dataset.DeviceMobile)))
	}

	if ds.Brand.Populated() {
		brand := ctrValues(ds.Brand.Side(true))
		nonBrand := ctrValues(ds.Brand.Side(false))

		s.set(KeyBrandChange, seriesChangeOf(brand))
		s.set(KeyNonBrandChange, seriesChangeOf(nonBrand))

		// Gap uses the last observed value of each side, not an average.
		if len(brand) > 0 && len(nonBrand) > 0 {
			gap, err := ratio(brand[len(brand)-1], nonBrand[len(nonBrand)-1])
			s.set(KeyCurrentGap, result{gap, err})
		} else {
			s.Failures[KeyCurrentGap] = dataerr.Wrapf(dataerr.InsufficientData, "both brand sides required for gap")
		}

		// Gap expansion is a difference of percentage-point changes,
		// never a ratio of ratios.
		if s.Has(KeyBrandChange) && s.Has(KeyNonBrandChange) {
			s.Values[KeyGapExpansion] = s.Values[KeyBrandChange] - s.Values[KeyNonBrandChange]
		} else {
			s.Failures[KeyGapExpansion] = dataerr.Wrapf(dataerr.InsufficientData, "brand and non-brand changes required")
		}
	}

	return s
}

type result struct {
	v   float64
	err error
}

func seriesChangeOf(vals []float64) result {
	v, err := seriesChange(vals)
	return result{v, err}
}

func (s Summary) set(key string, r result) {
	if r.err != nil {
		s.Failures[key] = r.err
		return
	}
	s.Values[key] = r.v
}

// ratio divides last observed values, signaling DEGENERATE_RATIO for a zero
// or near-zero denominator instead of returning infinity.
func ratio(num, den float64) (float64, error) {
	if math.Abs(den) < config.DenominatorEpsilon {
		return 0, dataerr.Wrapf(dataerr.DegenerateRatio, "denominator %v too close to zero", den)
	}
	return num / den, nil
}

func ctrValues(rows []dataset.BrandObservation) []float64 {
	vals := make([]float64, 0, len(rows))
	for _, r := range rows {
		vals = append(vals, r.CTR)
	}
	return vals
}

// Severity buckets a percentage change for coloring on the decline chart.
type Severity string

const (
	SeveritySevere   Severity = "severe"
	SeverityModerate Severity = "moderate"
	SeverityMild     Severity = "mild"
)

// ClassifyDecline applies the fixed thresholds: change < -40 is severe,
// -40 <= change < -20 is moderate, anything else is mild. The boundaries
// themselves fall in the milder class.
func ClassifyDecline(change float64) Severity {
	switch {
	case change < -40:
		return SeveritySevere
	case change < -20:
		return SeverityModerate
	default:
		return SeverityMild
	}
}

// BucketDecline is the start-to-end change for one word-count bucket.
type BucketDecline struct {
	Bucket   int
	Change   float64
	Severity Severity
}

// DeclineByBucket computes per-bucket changes from the pivoted word-length
// series. Buckets whose change cannot be computed are returned in the
// failure map and skipped; the rest still classify.
func DeclineByBucket(s pivot.Series) ([]BucketDecline, map[int]error) {
	failures := make(map[int]error)
	var out []BucketDecline
	for _, bucket := range s.Buckets() {
		_, vals := s.Column(bucket)
		change, err := seriesChange(vals)
		if err != nil {
			failures[bucket] = err
			continue
		}
		out = append(out, BucketDecline{
			Bucket:   bucket,
			Change:   change,
			Severity: ClassifyDecline(change),
		})
	}
	return out, failures
}
