package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/dusk-indust/memogen/internal/store"
)

// Controller drives a run: route, execute, merge, checkpoint, repeat until
// the routing function reports done. The full state snapshot is persisted
// before every routing decision, so a process exit between stages loses
// nothing and Resume re-enters at the correct stage.
type Controller struct {
	run      *store.Run
	stages   map[StageID]Stage
	log      *zap.Logger
	progress *Reporter

	parallelEnrichments bool
}

// Option configures a Controller.
type Option func(*Controller)

// WithParallelEnrichments dispatches the independent optional enrichment
// stages concurrently instead of one at a time.
func WithParallelEnrichments(on bool) Option {
	return func(c *Controller) {
		c.parallelEnrichments = on
	}
}

// NewController creates a Controller over a run with the given stage set.
func NewController(run *store.Run, stages []Stage, log *zap.Logger, opts ...Option) *Controller {
	byID := make(map[StageID]Stage, len(stages))
	for _, st := range stages {
		byID[st.ID()] = st
	}
	c := &Controller{
		run:      run,
		stages:   byID,
		log:      log,
		progress: NewReporter(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Progress returns a channel that emits progress events.
func (c *Controller) Progress() <-chan ProgressEvent {
	return c.progress.Subscribe()
}

// Close shuts down the progress reporter. Callers should invoke this when
// the controller is no longer needed.
func (c *Controller) Close() {
	c.progress.Close()
}

// Run executes the pipeline to completion. It returns an error only for
// critical-stage failures; escalation to human review is a terminal,
// non-error outcome recorded in the state.
func (c *Controller) Run(ctx context.Context, s *State) error {
	c.reportSkips(s)
	for {
		if err := c.checkpoint(s); err != nil {
			return err
		}

		next := NextStage(s)
		switch {
		case next == StageDone:
			c.log.Info("run complete",
				zap.String("company", s.Company),
				zap.String("version", s.Version),
				zap.Bool("escalated", s.Escalated))
			return c.checkpoint(s)

		case next == StageEscalate:
			s.Escalated = true
			s.Logf("revision budget exhausted after %d attempts; escalating to human review", s.RevisionCount)
			c.log.Warn("escalating to human review",
				zap.String("company", s.Company),
				zap.Int("revisions", s.RevisionCount))
			continue

		case isEnrichment(next) && c.parallelEnrichments:
			c.runEnrichmentGroup(ctx, s)
			continue
		}

		if err := c.runStage(ctx, s, next); err != nil {
			return err
		}
	}
}

// Resume reconstructs the state from the run's checkpoint and re-enters the
// routing loop. The returned state reflects the run's final condition even
// when an error is returned.
func (c *Controller) Resume(ctx context.Context) (*State, error) {
	s, err := LoadState(c.run)
	if err != nil {
		return nil, err
	}
	c.log.Info("resuming run",
		zap.String("company", s.Company),
		zap.String("version", s.Version),
		zap.String("next_stage", NextStage(s).String()))
	return s, c.Run(ctx, s)
}

// reportSkips emits a skip event for every optional stage whose precondition
// is absent. The router will never route to these, so without the events the
// progress stream would be silent about them.
func (c *Controller) reportSkips(s *State) {
	if s.DeckPath == "" && !s.Completed[StageDeckAnalysis] {
		c.progress.Emit(ProgressEvent{Stage: StageDeckAnalysis, Status: ProgressSkipped, Message: "no deck attached"})
	}
	for _, id := range enrichmentStages {
		if !enrichmentEnabled(s, id) && !s.Completed[id] {
			c.progress.Emit(ProgressEvent{Stage: id, Status: ProgressSkipped, Message: "not enabled"})
		}
	}
	if !s.Enrichments.FactCheck && !s.Completed[StageFactCheck] {
		c.progress.Emit(ProgressEvent{Stage: StageFactCheck, Status: ProgressSkipped, Message: "not enabled"})
	}
}

// runStage executes one stage and merges its update. Non-critical failures
// are recorded and treated as no-ops; critical failures checkpoint the last
// good state and halt.
func (c *Controller) runStage(ctx context.Context, s *State, id StageID) error {
	st, ok := c.stages[id]
	if !ok {
		return fmt.Errorf("pipeline: no stage registered for %s", id)
	}

	c.progress.Emit(ProgressEvent{Stage: id, Status: ProgressWorking})
	c.log.Debug("stage starting", zap.String("stage", id.String()))

	update, err := st.Run(ctx, s)
	if err != nil {
		c.progress.Emit(ProgressEvent{Stage: id, Status: ProgressFailed, Message: err.Error()})
		if st.Critical() {
			s.Logf("stage %s failed: %v", id, err)
			if cerr := c.checkpoint(s); cerr != nil {
				c.log.Error("checkpoint after failure", zap.Error(cerr))
			}
			return fmt.Errorf("pipeline: critical stage %s: %w", id, err)
		}
		s.Logf("stage %s failed (non-critical), continuing: %v", id, err)
		c.log.Warn("non-critical stage failed", zap.String("stage", id.String()), zap.Error(err))
		c.bookkeep(s, id)
		return nil
	}

	s.Apply(update)
	c.bookkeep(s, id)
	c.progress.Emit(ProgressEvent{Stage: id, Status: ProgressComplete})
	return nil
}

// bookkeep records stage completion. The revise stage re-arms validation and
// consumes one unit of the revision budget; finalize marks the run done.
func (c *Controller) bookkeep(s *State, id StageID) {
	switch id {
	case StageRevise:
		s.RevisionCount++
		delete(s.Completed, StageValidate)
	case StageFinalize:
		s.Completed[id] = true
		s.Finalized = true
	default:
		s.Completed[id] = true
	}
}

// checkpoint persists the full state snapshot to the artifact store.
func (c *Controller) checkpoint(s *State) error {
	data, err := s.Marshal()
	if err != nil {
		return err
	}
	if err := c.run.WriteState(data); err != nil {
		return fmt.Errorf("pipeline: checkpoint: %w", err)
	}
	return nil
}
