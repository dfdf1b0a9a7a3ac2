package rota

import (
	"context"
	"errors"

	"github.com/greenbelt-recorded-talks/talks-processing/internal/models"
)

var (
	ErrTalkNotFound     = errors.New("talk not found")
	ErrRecorderNotFound = errors.New("recorder not found")
	ErrClash            = errors.New("recorder is already busy at that time")
)

// Store gives the engine transactional access to talks, recorders and
// settings. Everything done through the Tx passed to fn is committed when fn
// returns nil and rolled back otherwise.
type Store interface {
	WithinTx(ctx context.Context, fn func(tx Tx) error) error
	RecordRun(ctx context.Context, run *models.RotaRun) error
}

// Tx is the view of the store inside one transaction. Writes must be visible
// to later reads in the same Tx.
type Tx interface {
	SettingValues(ctx context.Context) (map[string]int, error)
	Talks(ctx context.Context) ([]models.Talk, error)
	Recorders(ctx context.Context) ([]models.Recorder, error)

	// ClearAssignments unbinds every talk from its recorder.
	ClearAssignments(ctx context.Context) (int64, error)
	// SetRecorder binds talkID to recorder, or clears the binding when recorder is nil.
	SetRecorder(ctx context.Context, talkID uint, recorder *string) error
}
