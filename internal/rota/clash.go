package rota

import (
	"time"

	"github.com/greenbelt-recorded-talks/talks-processing/internal/models"
)

// Clashes reports whether candidate conflicts with any committed talk.
//
// A candidate clashes when its start or its end lies inside
// [existing.start, existing.end + minimum_time_between_talks], bounds
// included. In ClashBoundary mode a candidate that starts before and ends
// after that window is not caught.
func (p Policy) Clashes(committed []*models.Talk, candidate *models.Talk) bool {
	gap := p.Settings.MinimumTimeBetweenTalks
	for _, existing := range committed {
		if existing.ID == candidate.ID {
			continue
		}
		windowEnd := existing.EndTime.Add(gap)
		if within(candidate.StartTime, existing.StartTime, windowEnd) ||
			within(candidate.EndTime, existing.StartTime, windowEnd) {
			return true
		}
		if p.ClashMode == ClashOverlap &&
			candidate.StartTime.Before(existing.StartTime) && candidate.EndTime.After(windowEnd) {
			return true
		}
	}
	return false
}

// within reports lo <= t <= hi.
func within(t, lo, hi time.Time) bool {
	return !t.Before(lo) && !t.After(hi)
}
