package rota

import (
	"sort"
	"time"

	"github.com/greenbelt-recorded-talks/talks-processing/internal/models"
)

// MaxShifts is the number of shifts the recorder may work in one day.
func (p Policy) MaxShifts(r *models.Recorder) int {
	if r.MaxShiftsPerDay < p.Settings.MaxShiftsPerDayLimit {
		return r.MaxShiftsPerDay
	}
	return p.Settings.MaxShiftsPerDayLimit
}

// DayTalks returns the committed talks starting on the same calendar day as
// candidate, with candidate added, sorted by start time.
func (p Policy) DayTalks(committed []*models.Talk, candidate *models.Talk) []*models.Talk {
	day := make([]*models.Talk, 0, len(committed)+1)
	for _, t := range committed {
		if t.ID == candidate.ID {
			continue
		}
		if p.Settings.SameDay(t.StartTime, candidate.StartTime) {
			day = append(day, t)
		}
	}
	day = append(day, candidate)
	sort.SliceStable(day, func(i, j int) bool {
		return day[i].StartTime.Before(day[j].StartTime)
	})
	return day
}

// Shifts partitions the day greedily. It returns the shifts it managed to
// build and whether the partition respects the break rule and covers every
// talk. There is no backtracking: a valid partition the greedy walk misses
// counts as a violation.
func (p Policy) Shifts(r *models.Recorder, dayTalks []*models.Talk) ([][]*models.Talk, bool) {
	if len(dayTalks) == 0 {
		return nil, true
	}
	s := p.Settings

	// Shift 1: longest prefix ending within shift_length of the first start.
	limit := dayTalks[0].StartTime.Add(s.ShiftLength)
	n := 0
	for n < len(dayTalks) && !dayTalks[n].EndTime.After(limit) {
		n++
	}
	shifts := [][]*models.Talk{dayTalks[:n]}
	remaining := append([]*models.Talk(nil), dayTalks[n:]...)

	for shift := 2; shift <= p.MaxShifts(r) && len(remaining) > 0; shift++ {
		start := remaining[0].StartTime

		if prev := shifts[len(shifts)-1]; len(prev) > 0 {
			if start.Before(prev[len(prev)-1].EndTime.Add(s.BreakBetweenShifts)) {
				return shifts, false
			}
		}

		last := start.Add(s.ShiftLength - time.Hour)
		var current, rest []*models.Talk
		for _, t := range remaining {
			if within(t.StartTime, start, last) {
				current = append(current, t)
			} else {
				rest = append(rest, t)
			}
		}
		if len(current) == 0 {
			break
		}
		shifts = append(shifts, current)
		remaining = rest
	}

	return shifts, len(remaining) == 0
}

// BreaksShiftPattern reports whether committing candidate would leave the
// recorder's day impossible to split into allowed shifts.
func (p Policy) BreaksShiftPattern(r *models.Recorder, committed []*models.Talk, candidate *models.Talk) bool {
	_, ok := p.Shifts(r, p.DayTalks(committed, candidate))
	return !ok
}
