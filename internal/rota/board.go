package rota

import (
	"sort"
	"time"

	"github.com/greenbelt-recorded-talks/talks-processing/internal/models"
)

// Board is the in-memory arena a run works against: every talk keyed by id,
// each carrying only its recorder name, plus a per-recorder index ordered by
// start time. It is loaded inside the run transaction and kept in step with
// every commit.
type Board struct {
	talks      []models.Talk
	index      map[uint]int
	recorders  []models.Recorder
	byName     map[string]int
	byRecorder map[string][]int
}

// NewBoard copies the given talks and recorders into a fresh arena.
func NewBoard(talks []models.Talk, recorders []models.Recorder) *Board {
	b := &Board{
		talks:      make([]models.Talk, len(talks)),
		index:      make(map[uint]int, len(talks)),
		recorders:  make([]models.Recorder, len(recorders)),
		byName:     make(map[string]int, len(recorders)),
		byRecorder: make(map[string][]int),
	}
	copy(b.talks, talks)
	copy(b.recorders, recorders)

	sort.SliceStable(b.talks, func(i, j int) bool {
		if !b.talks[i].StartTime.Equal(b.talks[j].StartTime) {
			return b.talks[i].StartTime.Before(b.talks[j].StartTime)
		}
		return b.talks[i].ID < b.talks[j].ID
	})
	sort.SliceStable(b.recorders, func(i, j int) bool {
		return b.recorders[i].Name < b.recorders[j].Name
	})

	for i := range b.recorders {
		b.recorders[i].Talks = nil
		b.byName[b.recorders[i].Name] = i
	}
	for i := range b.talks {
		t := &b.talks[i]
		b.index[t.ID] = i
		if t.IsAssigned() {
			b.byRecorder[t.Recorder()] = append(b.byRecorder[t.Recorder()], i)
		}
	}
	return b
}

// Talk returns the arena record for id.
func (b *Board) Talk(id uint) (*models.Talk, bool) {
	i, ok := b.index[id]
	if !ok {
		return nil, false
	}
	return &b.talks[i], true
}

// Talks returns every talk ordered by start time.
func (b *Board) Talks() []*models.Talk {
	out := make([]*models.Talk, len(b.talks))
	for i := range b.talks {
		out[i] = &b.talks[i]
	}
	return out
}

// Recorder returns the recorder with the given name.
func (b *Board) Recorder(name string) (*models.Recorder, bool) {
	i, ok := b.byName[name]
	if !ok {
		return nil, false
	}
	return &b.recorders[i], true
}

// Recorders returns all recorders ordered by name.
func (b *Board) Recorders() []*models.Recorder {
	out := make([]*models.Recorder, len(b.recorders))
	for i := range b.recorders {
		out[i] = &b.recorders[i]
	}
	return out
}

// TalksFor returns the recorder's committed talks ordered by start time.
func (b *Board) TalksFor(name string) []*models.Talk {
	idx := b.byRecorder[name]
	out := make([]*models.Talk, len(idx))
	for i, j := range idx {
		out[i] = &b.talks[j]
	}
	return out
}

// Load is the number of talks committed to the recorder.
func (b *Board) Load(name string) int {
	return len(b.byRecorder[name])
}

// Assign binds the talk to the recorder and keeps the recorder's index
// ordered by start time. Any previous binding is dropped first.
func (b *Board) Assign(talkID uint, name string) bool {
	i, ok := b.index[talkID]
	if !ok {
		return false
	}
	b.unlink(i)

	recorder := name
	b.talks[i].RecorderName = &recorder

	idx := append(b.byRecorder[name], i)
	sort.SliceStable(idx, func(x, y int) bool {
		return b.talks[idx[x]].StartTime.Before(b.talks[idx[y]].StartTime)
	})
	b.byRecorder[name] = idx
	return true
}

// Unassign clears the talk's recorder binding.
func (b *Board) Unassign(talkID uint) bool {
	i, ok := b.index[talkID]
	if !ok {
		return false
	}
	b.unlink(i)
	b.talks[i].RecorderName = nil
	return true
}

// ClearAll removes every binding and returns how many were cleared.
func (b *Board) ClearAll() int {
	cleared := 0
	for i := range b.talks {
		if b.talks[i].RecorderName != nil {
			cleared++
		}
		b.talks[i].RecorderName = nil
	}
	b.byRecorder = make(map[string][]int)
	return cleared
}

func (b *Board) unlink(i int) {
	t := &b.talks[i]
	if !t.IsAssigned() {
		return
	}
	name := t.Recorder()
	idx := b.byRecorder[name]
	for k, j := range idx {
		if j == i {
			b.byRecorder[name] = append(idx[:k:k], idx[k+1:]...)
			break
		}
	}
}

// Schedulable reports whether the automatic passes may touch the talk.
func Schedulable(t *models.Talk) bool {
	return t.IsRotaed && !t.IsCancelled && !t.IsAssigned()
}

// PriorityQueue lists priority, rota-eligible, unassigned talks by start time.
func (b *Board) PriorityQueue() []uint {
	return b.queue(true)
}

// AdditionalQueue lists non-priority, rota-eligible, unassigned talks by start time.
func (b *Board) AdditionalQueue() []uint {
	return b.queue(false)
}

func (b *Board) queue(priority bool) []uint {
	var ids []uint
	for i := range b.talks {
		t := &b.talks[i]
		if t.IsPriority == priority && Schedulable(t) {
			ids = append(ids, t.ID)
		}
	}
	return ids
}

// VenueTalksBetween returns talks in venue starting after `after` and no later
// than `until`, ordered by start time.
func (b *Board) VenueTalksBetween(venue string, after, until time.Time) []*models.Talk {
	var out []*models.Talk
	for i := range b.talks {
		t := &b.talks[i]
		if t.Venue != venue {
			continue
		}
		if t.StartTime.After(after) && !t.StartTime.After(until) {
			out = append(out, t)
		}
	}
	return out
}

// UnassignedBetween returns talks with no recorder starting after `after` and
// no later than `until`, ordered by start time.
func (b *Board) UnassignedBetween(after, until time.Time) []*models.Talk {
	var out []*models.Talk
	for i := range b.talks {
		t := &b.talks[i]
		if t.IsAssigned() {
			continue
		}
		if t.StartTime.After(after) && !t.StartTime.After(until) {
			out = append(out, t)
		}
	}
	return out
}

// Coverage counts assigned vs. total talks per kind.
type Coverage struct {
	PriorityTotal      int `json:"priority_total" yaml:"priority_total"`
	PriorityAssigned   int `json:"priority_assigned" yaml:"priority_assigned"`
	AdditionalTotal    int `json:"additional_total" yaml:"additional_total"`
	AdditionalAssigned int `json:"additional_assigned" yaml:"additional_assigned"`
}

// Coverage tallies every talk on the board, rota-eligible or not.
func (b *Board) Coverage() Coverage {
	var c Coverage
	for i := range b.talks {
		t := &b.talks[i]
		if t.IsPriority {
			c.PriorityTotal++
			if t.IsAssigned() {
				c.PriorityAssigned++
			}
			continue
		}
		c.AdditionalTotal++
		if t.IsAssigned() {
			c.AdditionalAssigned++
		}
	}
	return c
}
