package rota

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/greenbelt-recorded-talks/talks-processing/internal/models"
)

var friday = time.Date(2023, time.August, 25, 0, 0, 0, 0, time.UTC)

// at returns hh:mm on the given festival day (0 = Friday).
func at(day, hour, minute int) time.Time {
	return friday.AddDate(0, 0, day).Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

func talk(id uint, venue string, start time.Time, priority bool) models.Talk {
	return models.Talk{
		ID:         id,
		Title:      "Talk",
		Venue:      venue,
		StartTime:  start,
		EndTime:    start.Add(time.Hour),
		IsPriority: priority,
		IsRotaed:   true,
	}
}

func recorder(name string, maxShifts int) models.Recorder {
	return models.Recorder{Name: name, MaxShiftsPerDay: maxShifts}
}

func assignedTo(t models.Talk, name string) models.Talk {
	n := name
	t.RecorderName = &n
	return t
}

var errInjected = errors.New("injected write failure")

// memStore is a transactional in-memory Store. A Tx works on a private copy
// that replaces the committed state only when fn succeeds.
type memStore struct {
	mu        sync.Mutex
	settings  map[string]int
	talks     []models.Talk
	recorders []models.Recorder
	runs      []models.RotaRun

	failAfter int // SetRecorder calls allowed per tx before failing; 0 disables
}

func newMemStore(talks []models.Talk, recorders []models.Recorder) *memStore {
	return &memStore{
		settings:  map[string]int{},
		talks:     cloneTalks(talks),
		recorders: append([]models.Recorder(nil), recorders...),
	}
}

func cloneTalks(in []models.Talk) []models.Talk {
	out := make([]models.Talk, len(in))
	copy(out, in)
	for i := range out {
		if in[i].RecorderName != nil {
			n := *in[i].RecorderName
			out[i].RecorderName = &n
		}
	}
	return out
}

func (s *memStore) WithinTx(ctx context.Context, fn func(tx Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memTx{store: s, talks: cloneTalks(s.talks)}
	if err := fn(tx); err != nil {
		return err
	}
	s.talks = tx.talks
	return nil
}

func (s *memStore) RecordRun(_ context.Context, run *models.RotaRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs = append(s.runs, *run)
	return nil
}

// bindings returns talk id -> recorder name for every assigned talk.
func (s *memStore) bindings() map[uint]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := map[uint]string{}
	for _, t := range s.talks {
		if t.IsAssigned() {
			out[t.ID] = t.Recorder()
		}
	}
	return out
}

type memTx struct {
	store  *memStore
	talks  []models.Talk
	writes int
}

func (tx *memTx) SettingValues(context.Context) (map[string]int, error) {
	out := make(map[string]int, len(tx.store.settings))
	for k, v := range tx.store.settings {
		out[k] = v
	}
	return out, nil
}

func (tx *memTx) Talks(context.Context) ([]models.Talk, error) {
	return cloneTalks(tx.talks), nil
}

func (tx *memTx) Recorders(context.Context) ([]models.Recorder, error) {
	return append([]models.Recorder(nil), tx.store.recorders...), nil
}

func (tx *memTx) ClearAssignments(context.Context) (int64, error) {
	var n int64
	for i := range tx.talks {
		if tx.talks[i].RecorderName != nil {
			n++
		}
		tx.talks[i].RecorderName = nil
	}
	return n, nil
}

func (tx *memTx) SetRecorder(_ context.Context, talkID uint, name *string) error {
	tx.writes++
	if tx.store.failAfter > 0 && tx.writes > tx.store.failAfter {
		return errInjected
	}
	for i := range tx.talks {
		if tx.talks[i].ID == talkID {
			if name == nil {
				tx.talks[i].RecorderName = nil
			} else {
				n := *name
				tx.talks[i].RecorderName = &n
			}
			return nil
		}
	}
	return ErrTalkNotFound
}

func minutes(n int) time.Duration {
	return time.Duration(n) * time.Minute
}
