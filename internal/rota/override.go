package rota

import (
	"context"
	"errors"
	"fmt"

	"github.com/greenbelt-recorded-talks/talks-processing/internal/metrics"
	"github.com/greenbelt-recorded-talks/talks-processing/internal/models"
)

// AssignRecorder binds a talk to a named recorder by hand. Only the clash
// check applies; shift and quota rules are the team leader's call.
func (e *Engine) AssignRecorder(ctx context.Context, talkID uint, name string) (models.Talk, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var out models.Talk
	err := e.store.WithinTx(ctx, func(tx Tx) error {
		policy, board, err := e.load(ctx, tx)
		if err != nil {
			return err
		}
		talk, ok := board.Talk(talkID)
		if !ok {
			return fmt.Errorf("%w: %d", ErrTalkNotFound, talkID)
		}
		if _, ok := board.Recorder(name); !ok {
			return fmt.Errorf("%w: %s", ErrRecorderNotFound, name)
		}
		if policy.Clashes(board.TalksFor(name), talk) {
			return fmt.Errorf("%w: %s cannot take talk %d", ErrClash, name, talkID)
		}

		recorder := name
		if err := tx.SetRecorder(ctx, talkID, &recorder); err != nil {
			return fmt.Errorf("assign talk %d to %s: %w", talkID, name, err)
		}
		board.Assign(talkID, name)
		out = *talk
		return nil
	})

	metrics.RecordOverride("assign", overrideOutcome(err))
	if err != nil {
		e.log.Warn().Err(err).Uint("talk_id", talkID).Str("recorder", name).Msg("manual assignment refused")
		return models.Talk{}, err
	}
	e.log.Info().Uint("talk_id", talkID).Str("recorder", name).Msg("talk assigned manually")
	return out, nil
}

// UnassignRecorder clears a talk's recorder. Unassigning an unassigned talk is
// a no-op.
func (e *Engine) UnassignRecorder(ctx context.Context, talkID uint) (models.Talk, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var out models.Talk
	err := e.store.WithinTx(ctx, func(tx Tx) error {
		talks, err := tx.Talks(ctx)
		if err != nil {
			return fmt.Errorf("load talks: %w", err)
		}
		board := NewBoard(talks, nil)
		talk, ok := board.Talk(talkID)
		if !ok {
			return fmt.Errorf("%w: %d", ErrTalkNotFound, talkID)
		}
		if talk.IsAssigned() {
			if err := tx.SetRecorder(ctx, talkID, nil); err != nil {
				return fmt.Errorf("unassign talk %d: %w", talkID, err)
			}
			board.Unassign(talkID)
		}
		out = *talk
		return nil
	})

	metrics.RecordOverride("unassign", overrideOutcome(err))
	if err != nil {
		return models.Talk{}, err
	}
	e.log.Info().Uint("talk_id", talkID).Msg("talk unassigned manually")
	return out, nil
}

func overrideOutcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrClash):
		return "clash"
	case errors.Is(err, ErrTalkNotFound), errors.Is(err, ErrRecorderNotFound):
		return "not_found"
	default:
		return "error"
	}
}
