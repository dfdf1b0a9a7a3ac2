package rota

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/greenbelt-recorded-talks/talks-processing/internal/log"
	"github.com/greenbelt-recorded-talks/talks-processing/internal/metrics"
	"github.com/greenbelt-recorded-talks/talks-processing/internal/models"
)

// Mode selects what a run does with existing bindings.
type Mode string

const (
	// ModeGenerate clears every binding and rebuilds the rota.
	ModeGenerate Mode = "generate"
	// ModeContinue keeps existing bindings and only fills gaps.
	ModeContinue Mode = "continue"
)

// Phase is a step of the orchestrator's state machine.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseClearingPreviousRun
	PhaseSchedulingPriority
	PhaseBundlingSameVenue
	PhaseSchedulingAdditional
	PhaseBundlingAdjacent
	PhaseDone
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseClearingPreviousRun:
		return "clearing_previous_run"
	case PhaseSchedulingPriority:
		return "scheduling_priority"
	case PhaseBundlingSameVenue:
		return "bundling_same_venue"
	case PhaseSchedulingAdditional:
		return "scheduling_additional"
	case PhaseBundlingAdjacent:
		return "bundling_adjacent"
	case PhaseDone:
		return "done"
	default:
		return "unknown"
	}
}

// RunOptions configures a single rota run.
type RunOptions struct {
	Mode    Mode
	DryRun  bool   // run everything, then roll back
	Trigger string // "api" | "cli"
}

// Summary is the outcome of a run.
type Summary struct {
	RunID  string `json:"run_id"`
	Mode   Mode   `json:"mode"`
	DryRun bool   `json:"dry_run"`
	Coverage
	Cleared    int       `json:"cleared"`
	Commits    int       `json:"commits"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Message is the human-readable completion notice.
func (s Summary) Message() string {
	return fmt.Sprintf("Rota generation completed! Assigned %d/%d priority talks and %d/%d additional talks.",
		s.PriorityAssigned, s.PriorityTotal, s.AdditionalAssigned, s.AdditionalTotal)
}

var errDryRun = errors.New("dry run: rolling back")

// Engine runs the rota passes against a Store. Runs and manual overrides are
// serialised; concurrent triggers for the same mode share one run.
type Engine struct {
	store     Store
	clashMode ClashMode
	location  *time.Location
	clock     Clock
	log       zerolog.Logger
	newID     func() string

	mu    sync.Mutex
	group singleflight.Group
}

// Option customises an Engine.
type Option func(*Engine)

func WithClock(c Clock) Option               { return func(e *Engine) { e.clock = c } }
func WithLogger(l zerolog.Logger) Option     { return func(e *Engine) { e.log = l } }
func WithClashMode(m ClashMode) Option       { return func(e *Engine) { e.clashMode = m } }
func WithLocation(loc *time.Location) Option { return func(e *Engine) { e.location = loc } }
func WithIDGenerator(f func() string) Option { return func(e *Engine) { e.newID = f } }

// NewEngine creates an engine over store.
func NewEngine(store Store, opts ...Option) *Engine {
	e := &Engine{
		store:     store,
		clashMode: ClashBoundary,
		location:  time.UTC,
		clock:     RealClock{},
		log:       log.WithComponent("rota"),
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Generate clears the rota and rebuilds it.
func (e *Engine) Generate(ctx context.Context, trigger string, dryRun bool) (Summary, error) {
	return e.Run(ctx, RunOptions{Mode: ModeGenerate, DryRun: dryRun, Trigger: trigger})
}

// Continue fills in unassigned talks, leaving existing bindings alone.
func (e *Engine) Continue(ctx context.Context, trigger string, dryRun bool) (Summary, error) {
	return e.Run(ctx, RunOptions{Mode: ModeContinue, DryRun: dryRun, Trigger: trigger})
}

// Run executes one rota pass. The whole pass happens in a single store
// transaction: either every binding it made is committed or none is.
func (e *Engine) Run(ctx context.Context, opts RunOptions) (Summary, error) {
	if opts.Mode != ModeGenerate && opts.Mode != ModeContinue {
		return Summary{}, fmt.Errorf("unknown rota mode %q", opts.Mode)
	}

	key := string(opts.Mode)
	if opts.DryRun {
		key += ":dry"
	}
	res, err, shared := e.group.Do(key, func() (interface{}, error) {
		return e.run(ctx, opts)
	})
	if shared {
		e.log.Debug().Str("mode", string(opts.Mode)).Msg("joined an in-flight rota run")
	}
	sum, _ := res.(Summary)
	return sum, err
}

func (e *Engine) run(ctx context.Context, opts RunOptions) (Summary, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	sum := Summary{
		RunID:     e.newID(),
		Mode:      opts.Mode,
		DryRun:    opts.DryRun,
		StartedAt: e.clock.Now(),
	}
	logger := e.log.With().
		Str("run_id", sum.RunID).
		Str("mode", string(opts.Mode)).
		Bool("dry_run", opts.DryRun).
		Logger()
	logger.Info().Str("trigger", opts.Trigger).Msg("rota run started")
	began := time.Now()

	err := e.store.WithinTx(ctx, func(tx Tx) error {
		r := &runner{tx: tx, log: logger}
		if err := r.execute(ctx, e, opts.Mode); err != nil {
			return err
		}
		sum.Coverage = r.board.Coverage()
		sum.Commits = r.commits
		sum.Cleared = r.cleared
		if opts.DryRun {
			return errDryRun
		}
		return nil
	})
	if errors.Is(err, errDryRun) {
		err = nil
	}
	sum.FinishedAt = e.clock.Now()

	status := "success"
	if err != nil {
		status = "failed"
	}
	metrics.ObserveRun(string(opts.Mode), status, time.Since(began))
	e.recordRun(ctx, logger, sum, opts, status, err)

	if err != nil {
		logger.Error().Err(err).Msg("rota run failed, all assignments rolled back")
		return sum, fmt.Errorf("rota %s run: %w", opts.Mode, err)
	}
	if !opts.DryRun {
		metrics.SetUnassigned(sum.PriorityTotal-sum.PriorityAssigned, sum.AdditionalTotal-sum.AdditionalAssigned)
	}

	logger.Info().
		Int("commits", sum.Commits).
		Int("priority_assigned", sum.PriorityAssigned).
		Int("priority_total", sum.PriorityTotal).
		Int("additional_assigned", sum.AdditionalAssigned).
		Int("additional_total", sum.AdditionalTotal).
		Msg(sum.Message())
	return sum, nil
}

func (e *Engine) recordRun(ctx context.Context, logger zerolog.Logger, sum Summary, opts RunOptions, status string, runErr error) {
	run := &models.RotaRun{
		ID:                 sum.RunID,
		Mode:               string(opts.Mode),
		Trigger:            opts.Trigger,
		Status:             status,
		DryRun:             opts.DryRun,
		StartedAt:          sum.StartedAt,
		FinishedAt:         sum.FinishedAt,
		PriorityTotal:      sum.PriorityTotal,
		PriorityAssigned:   sum.PriorityAssigned,
		AdditionalTotal:    sum.AdditionalTotal,
		AdditionalAssigned: sum.AdditionalAssigned,
		Commits:            sum.Commits,
	}
	if runErr != nil {
		run.Error = runErr.Error()
	}
	if err := e.store.RecordRun(ctx, run); err != nil {
		logger.Warn().Err(err).Msg("could not record rota run")
	}
}

// load reads settings, talks and recorders inside tx.
func (e *Engine) load(ctx context.Context, tx Tx) (Policy, *Board, error) {
	values, err := tx.SettingValues(ctx)
	if err != nil {
		return Policy{}, nil, fmt.Errorf("load settings: %w", err)
	}
	settings := SettingsFromValues(values)
	settings.Location = e.location

	talks, err := tx.Talks(ctx)
	if err != nil {
		return Policy{}, nil, fmt.Errorf("load talks: %w", err)
	}
	recorders, err := tx.Recorders(ctx)
	if err != nil {
		return Policy{}, nil, fmt.Errorf("load recorders: %w", err)
	}

	return Policy{Settings: settings, ClashMode: e.clashMode}, NewBoard(talks, recorders), nil
}

// runner holds the state of one pass.
type runner struct {
	tx      Tx
	log     zerolog.Logger
	policy  Policy
	board   *Board
	phase   Phase
	commits int
	cleared int
}

func (r *runner) enter(p Phase) {
	if r.phase == p {
		return
	}
	r.phase = p
	r.log.Debug().Str("phase", p.String()).Msg("rota phase")
}

func (r *runner) execute(ctx context.Context, e *Engine, mode Mode) error {
	if mode == ModeGenerate {
		r.enter(PhaseClearingPreviousRun)
		n, err := r.tx.ClearAssignments(ctx)
		if err != nil {
			return fmt.Errorf("clear previous rota: %w", err)
		}
		r.cleared = int(n)
	}

	policy, board, err := e.load(ctx, r.tx)
	if err != nil {
		return err
	}
	r.policy, r.board = policy, board

	r.enter(PhaseSchedulingPriority)
	for _, id := range r.board.PriorityQueue() {
		if err := ctx.Err(); err != nil {
			return err
		}
		talk, _ := r.board.Talk(id)
		if !Schedulable(talk) {
			continue // bundled earlier in this run
		}
		rec, err := r.schedule(ctx, talk)
		if err != nil {
			return err
		}
		if rec == nil {
			continue
		}
		r.enter(PhaseBundlingSameVenue)
		if err := r.bundleSameVenue(ctx, talk, rec); err != nil {
			return err
		}
		r.enter(PhaseSchedulingPriority)
	}

	r.enter(PhaseSchedulingAdditional)
	for _, id := range r.board.AdditionalQueue() {
		if err := ctx.Err(); err != nil {
			return err
		}
		talk, _ := r.board.Talk(id)
		if !Schedulable(talk) {
			continue
		}
		rec, err := r.schedule(ctx, talk)
		if err != nil {
			return err
		}
		if rec == nil {
			continue
		}
		r.enter(PhaseBundlingAdjacent)
		if err := r.bundleAdjacent(ctx, talk, rec); err != nil {
			return err
		}
		r.enter(PhaseSchedulingAdditional)
	}

	r.enter(PhaseDone)
	return nil
}

// schedule runs the selector for talk and commits the result. A nil recorder
// with a nil error means nobody could take the talk.
func (r *runner) schedule(ctx context.Context, talk *models.Talk) (*models.Recorder, error) {
	rec, rejections := r.policy.FindRecorder(r.board, talk)
	for _, rj := range rejections {
		metrics.RecordRejection(rj.Verdict.String())
	}
	if rec == nil {
		r.log.Info().
			Uint("talk_id", talk.ID).
			Str("title", talk.Title).
			Time("start", talk.StartTime).
			Int("rejected", len(rejections)).
			Msg("no recorder available for talk")
		return nil, nil
	}
	if err := r.commit(ctx, talk, rec.Name); err != nil {
		return nil, err
	}
	return rec, nil
}

func (r *runner) commit(ctx context.Context, talk *models.Talk, name string) error {
	recorder := name
	if err := r.tx.SetRecorder(ctx, talk.ID, &recorder); err != nil {
		return fmt.Errorf("assign talk %d to %s: %w", talk.ID, name, err)
	}
	r.board.Assign(talk.ID, name)
	r.commits++
	metrics.RecordAssignment(r.phase.String())

	r.log.Debug().
		Str("phase", r.phase.String()).
		Uint("talk_id", talk.ID).
		Str("recorder", name).
		Msg("talk assigned")
	return nil
}

// fits reports whether rec can take t without clashing or breaking its shifts.
func (r *runner) fits(rec *models.Recorder, t *models.Talk) bool {
	committed := r.board.TalksFor(rec.Name)
	return !r.policy.Clashes(committed, t) && !r.policy.BreaksShiftPattern(rec, committed, t)
}

// bundleSameVenue hands later priority talks in the same venue to the
// recorder that just took anchor.
func (r *runner) bundleSameVenue(ctx context.Context, anchor *models.Talk, rec *models.Recorder) error {
	until := anchor.StartTime.Add(r.policy.Settings.SameVenueAssignmentWindow)
	for _, t := range r.board.VenueTalksBetween(anchor.Venue, anchor.EndTime, until) {
		if !t.IsPriority || !Schedulable(t) {
			continue
		}
		if !r.fits(rec, t) {
			continue
		}
		if err := r.commit(ctx, t, rec.Name); err != nil {
			return err
		}
	}
	return nil
}

// bundleAdjacent gives the recorder of an additional talk any unassigned talk
// starting shortly after it.
func (r *runner) bundleAdjacent(ctx context.Context, anchor *models.Talk, rec *models.Recorder) error {
	s := r.policy.Settings
	earliest := anchor.EndTime.Add(s.AdditionalTalkMinimumGap)
	until := anchor.EndTime.Add(s.AdditionalTalkSearchWindow)

	for _, t := range r.board.UnassignedBetween(anchor.EndTime, until) {
		if !Schedulable(t) || t.StartTime.Before(earliest) {
			continue
		}
		if !r.fits(rec, t) {
			continue
		}
		if err := r.commit(ctx, t, rec.Name); err != nil {
			return err
		}
	}
	return nil
}
