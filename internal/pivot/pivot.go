// Package pivot reshapes the long-form word-length table into a wide,
// date-indexed series with one column per word-count bucket.
package pivot

import (
	"sort"
	"time"

	"ctrdash/internal/dataset"
)

type cellKey struct {
	date   int64
	bucket int
}

// Series is a date-indexed mapping from bucket to CTR. A (date, bucket)
// cell with no observation is absent, never zero.
type Series struct {
	dates   []time.Time
	buckets []int
	cells   map[cellKey]float64
}

// FromWordLength pivots a long-form table. Duplicate (date, bucket) pairs
// resolve last-write-wins in load order. An empty table pivots to an empty
// Series.
func FromWordLength(t dataset.WordLengthTable) Series {
	s := Series{cells: make(map[cellKey]float64, t.Len())}
	seenDates := make(map[int64]bool)
	seenBuckets := make(map[int]bool)

	for _, r := range t.Rows {
		d := r.Month.UTC().Truncate(24 * time.Hour)
		key := cellKey{date: d.Unix(), bucket: r.Bucket}
		s.cells[key] = r.CTR
		if !seenDates[key.date] {
			seenDates[key.date] = true
			s.dates = append(s.dates, d)
		}
		if !seenBuckets[r.Bucket] {
			seenBuckets[r.Bucket] = true
			s.buckets = append(s.buckets, r.Bucket)
		}
	}

	sort.Slice(s.dates, func(i, j int) bool { return s.dates[i].Before(s.dates[j]) })
	sort.Ints(s.buckets)
	return s
}

// Empty reports whether the series holds no cells.
func (s Series) Empty() bool { return len(s.cells) == 0 }

// Dates returns the sorted date index.
func (s Series) Dates() []time.Time { return s.dates }

// Buckets returns the sorted bucket columns present in the series.
func (s Series) Buckets() []int { return s.buckets }

// Value looks up one cell; ok is false when the pair was never observed.
func (s Series) Value(date time.Time, bucket int) (float64, bool) {
	d := date.UTC().Truncate(24 * time.Hour)
	v, ok := s.cells[cellKey{date: d.Unix(), bucket: bucket}]
	return v, ok
}

// Column returns the present (date, value) pairs for one bucket in date
// order. Absent cells are skipped.
func (s Series) Column(bucket int) ([]time.Time, []float64) {
	var dates []time.Time
	var vals []float64
	for _, d := range s.dates {
		if v, ok := s.cells[cellKey{date: d.Unix(), bucket: bucket}]; ok {
			dates = append(dates, d)
			vals = append(vals, v)
		}
	}
	return dates, vals
}
