package dataset

import "time"

// RolloutMilestone marks a known product-rollout event. Milestones are
// read-only reference annotations for the charts; they never feed the
// metric computations.
type RolloutMilestone struct {
	Date  time.Time `json:"date"`
	Label string    `json:"label"`
}

// RolloutMilestones returns the fixed AI Overviews rollout timeline.
func RolloutMilestones() []RolloutMilestone {
	return []RolloutMilestone{
		{Date: time.Date(2024, time.May, 14, 0, 0, 0, 0, time.UTC), Label: "AIO Launch"},
		{Date: time.Date(2024, time.October, 13, 0, 0, 0, 0, time.UTC), Label: "US Expansion"},
		{Date: time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC), Label: "EU Rollout"},
	}
}
