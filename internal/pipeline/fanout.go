package pipeline

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// enrichResult is the outcome of one parallel enrichment stage.
type enrichResult struct {
	id     StageID
	update Update
	err    error
}

// runEnrichmentGroup dispatches every eligible, not-yet-complete enrichment
// stage concurrently and merges their updates in fixed stage order, so the
// resulting state is identical to a sequential run regardless of completion
// timing. Failures are isolated per stage: a failed enrichment is recorded
// as a no-op and never aborts its siblings or the run.
//
// Stages in the group treat the state as read-only; all writes flow through
// the collected updates, merged on this goroutine.
func (c *Controller) runEnrichmentGroup(ctx context.Context, s *State) {
	var ids []StageID
	for _, id := range enrichmentStages {
		if !enrichmentEnabled(s, id) || s.Completed[id] {
			continue
		}
		if _, ok := c.stages[id]; !ok {
			continue
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return
	}

	results := make([]enrichResult, len(ids))
	g, gctx := errgroup.WithContext(ctx)

	for i, id := range ids {
		st := c.stages[id]
		c.progress.Emit(ProgressEvent{Stage: id, Status: ProgressWorking})

		g.Go(func() error {
			update, err := st.Run(gctx, s)
			results[i] = enrichResult{id: id, update: update, err: err}
			// Errors stay in the result slice; returning nil keeps the
			// group from cancelling sibling enrichments.
			return nil
		})
	}
	_ = g.Wait()

	for _, r := range results {
		if r.err != nil {
			s.Logf("stage %s failed (non-critical), continuing: %v", r.id, r.err)
			c.log.Warn("enrichment failed", zap.String("stage", r.id.String()), zap.Error(r.err))
			c.progress.Emit(ProgressEvent{Stage: r.id, Status: ProgressFailed, Message: r.err.Error()})
		} else {
			s.Apply(r.update)
			c.progress.Emit(ProgressEvent{Stage: r.id, Status: ProgressComplete})
		}
		s.Completed[r.id] = true
	}
}
