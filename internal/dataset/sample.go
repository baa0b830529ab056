package dataset

import (
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
)

// ValueRange bounds the uniform draw for one sample segment.
type ValueRange struct {
	Lo float64
	Hi float64
}

// Sample segment ranges. These are part of the sample-data contract: every
// generated value for a segment falls inside its range. Individual draws are
// randomized; tests assert membership, not exact values.
var (
	SampleInfoDesktop    = ValueRange{0.006, 0.024}
	SampleInfoMobile     = ValueRange{0.014, 0.025}
	SampleNonInfoDesktop = ValueRange{0.011, 0.028}
	SampleNonInfoMobile  = ValueRange{0.022, 0.033}
	SampleWordLength     = ValueRange{0.01, 0.05}
	SampleBrand          = ValueRange{0.26, 0.32}
	SampleNonBrand       = ValueRange{0.018, 0.031}
)

// SampleBucketCount is the number of word-count buckets generated per month.
const SampleBucketCount = 10

func (r ValueRange) draw(rng *rand.Rand) float64 {
	return r.Lo + rng.Float64()*(r.Hi-r.Lo)
}

// Contains reports whether v lies inside the range.
func (r ValueRange) Contains(v float64) bool {
	return v >= r.Lo && v <= r.Hi
}

// GenerateSample synthesizes the three tables over [start, end] at monthly
// cadence, inclusive on both ends. Dimension cardinalities are fixed:
// intent {true,false} x device {desktop,mobile}, buckets 1..10, brand
// {true,false}.
func GenerateSample(start, end time.Time) *Dataset {
	rng := rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	ds := &Dataset{ID: uuid.NewString(), Source: SourceSample}

	for month := monthStart(start); !month.After(monthStart(end)); month = month.AddDate(0, 1, 0) {
		ds.Intent.Rows = append(ds.Intent.Rows,
			IntentObservation{
				Month:         month,
				Informational: true,
				DesktopCTR:    SampleInfoDesktop.draw(rng),
				MobileCTR:     SampleInfoMobile.draw(rng),
			},
			IntentObservation{
				Month:         month,
				Informational: false,
				DesktopCTR:    SampleNonInfoDesktop.draw(rng),
				MobileCTR:     SampleNonInfoMobile.draw(rng),
			},
		)

		for bucket := 1; bucket <= SampleBucketCount; bucket++ {
			ds.WordLength.Rows = append(ds.WordLength.Rows, WordLengthObservation{
				Month:  month,
				Bucket: bucket,
				CTR:    SampleWordLength.draw(rng),
			})
		}

		ds.Brand.Rows = append(ds.Brand.Rows,
			BrandObservation{Date: month, IsBrand: true, CTR: SampleBrand.draw(rng)},
			BrandObservation{Date: month, IsBrand: false, CTR: SampleNonBrand.draw(rng)},
		)
	}
	return ds
}

func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
