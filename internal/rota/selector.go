package rota

import (
	"sort"

	"github.com/greenbelt-recorded-talks/talks-processing/internal/models"
)

// Verdict is the selector's decision for one recorder/talk pair.
type Verdict int

const (
	Accepted Verdict = iota
	RejectedClash
	RejectedBreak
	RejectedDailyQuota
	RejectedShiftPattern
)

func (v Verdict) String() string {
	switch v {
	case Accepted:
		return "accepted"
	case RejectedClash:
		return "clash"
	case RejectedBreak:
		return "break_too_short"
	case RejectedDailyQuota:
		return "daily_quota"
	case RejectedShiftPattern:
		return "shift_pattern"
	default:
		return "unknown"
	}
}

// Evaluate runs the selector's checks for a single recorder, in order.
// A recorder with nothing committed is always accepted.
func (p Policy) Evaluate(b *Board, r *models.Recorder, talk *models.Talk) Verdict {
	committed := b.TalksFor(r.Name)
	if len(committed) == 0 {
		return Accepted
	}

	if p.Clashes(committed, talk) {
		return RejectedClash
	}

	last := committed[len(committed)-1]
	if talk.StartTime.Before(last.EndTime.Add(p.Settings.BreakBetweenShifts)) {
		return RejectedBreak
	}

	if p.maxedOutForDay(r, committed, talk) {
		return RejectedDailyQuota
	}

	if p.BreaksShiftPattern(r, committed, talk) {
		return RejectedShiftPattern
	}
	return Accepted
}

// maxedOutForDay reports whether the recorder already has
// max_shifts_per_day * max_talks_per_shift talks on the talk's day.
func (p Policy) maxedOutForDay(r *models.Recorder, committed []*models.Talk, talk *models.Talk) bool {
	quota := r.MaxShiftsPerDay * p.Settings.MaxTalksPerShift
	today := 0
	for _, t := range committed {
		if p.Settings.SameDay(t.StartTime, talk.StartTime) {
			today++
		}
	}
	return today >= quota
}

// Rejection records why a recorder was passed over.
type Rejection struct {
	Recorder string
	Verdict  Verdict
}

// FindRecorder picks the least-loaded recorder that accepts the talk.
// Candidates are re-sorted by current load before every pop, ties broken by
// name. It returns the chosen recorder and the rejections collected on the
// way; a nil recorder means the pool was exhausted.
func (p Policy) FindRecorder(b *Board, talk *models.Talk) (*models.Recorder, []Rejection) {
	pool := b.Recorders()
	var rejected []Rejection

	for len(pool) > 0 {
		sort.SliceStable(pool, func(i, j int) bool {
			li, lj := b.Load(pool[i].Name), b.Load(pool[j].Name)
			if li != lj {
				return li < lj
			}
			return pool[i].Name < pool[j].Name
		})
		candidate := pool[0]
		pool = pool[1:]

		v := p.Evaluate(b, candidate, talk)
		if v == Accepted {
			return candidate, rejected
		}
		rejected = append(rejected, Rejection{Recorder: candidate.Name, Verdict: v})
	}
	return nil, rejected
}
