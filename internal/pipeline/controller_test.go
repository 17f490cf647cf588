package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dusk-indust/memogen/internal/store"
)

// fakeStage is a scriptable pipeline.Stage.
type fakeStage struct {
	id       StageID
	critical bool
	run      func(*State) (Update, error)
	calls    int
}

func (f *fakeStage) ID() StageID    { return f.id }
func (f *fakeStage) Critical() bool { return f.critical }
func (f *fakeStage) Run(_ context.Context, s *State) (Update, error) {
	f.calls++
	if f.run == nil {
		return Update{}, nil
	}
	return f.run(s)
}

func newRun(t *testing.T) *store.Run {
	t.Helper()
	run, err := store.New(t.TempDir()).CreateRun("Acme")
	require.NoError(t, err)
	return run
}

// happyStages covers the minimal no-deck path through the router.
func happyStages(validate func(*State) (Update, error)) []Stage {
	if validate == nil {
		validate = func(*State) (Update, error) {
			return Update{NeedsRevision: BoolPtr(false)}, nil
		}
	}
	return []Stage{
		&fakeStage{id: StageResearch, critical: true},
		&fakeStage{id: StageWrite, critical: true},
		&fakeStage{id: StageCitationEnrichment},
		&fakeStage{id: StageValidate, critical: true, run: validate},
		&fakeStage{id: StageRevise, critical: true},
		&fakeStage{id: StageFinalize, critical: true},
	}
}

func TestControllerRunsToFinalize(t *testing.T) {
	run := newRun(t)
	ctrl := NewController(run, happyStages(nil), zap.NewNop())
	defer ctrl.Close()

	s := NewState(run, TypeDirect, ModeConsider)
	require.NoError(t, ctrl.Run(context.Background(), s))

	assert.True(t, s.Finalized)
	assert.False(t, s.Escalated)
	assert.True(t, run.HasArtifact(store.StateFile))
}

func TestControllerReportsSkippedOptionalStages(t *testing.T) {
	run := newRun(t)
	stages := append(happyStages(nil), &fakeStage{id: StageTables})
	ctrl := NewController(run, stages, zap.NewNop())
	events := ctrl.Progress()

	s := NewState(run, TypeDirect, ModeConsider)
	s.Enrichments.Tables = true
	require.NoError(t, ctrl.Run(context.Background(), s))
	ctrl.Close()

	skipped := make(map[StageID]string)
	for ev := range events {
		if ev.Status == ProgressSkipped {
			skipped[ev.Stage] = ev.Message
		}
	}
	assert.Equal(t, "no deck attached", skipped[StageDeckAnalysis])
	assert.Contains(t, skipped, StageTrademark)
	assert.Contains(t, skipped, StageFactCheck)
	assert.NotContains(t, skipped, StageTables, "an enabled stage is never reported skipped")
	assert.NotContains(t, skipped, StageValidate, "required stages are never reported skipped")
}

func TestControllerRevisionLoopEscalates(t *testing.T) {
	run := newRun(t)
	stages := happyStages(func(*State) (Update, error) {
		return Update{NeedsRevision: BoolPtr(true)}, nil
	})
	revise := stages[4].(*fakeStage)
	validate := stages[3].(*fakeStage)

	ctrl := NewController(run, stages, zap.NewNop())
	defer ctrl.Close()

	s := NewState(run, TypeDirect, ModeConsider)
	s.MaxRevisions = 2
	require.NoError(t, ctrl.Run(context.Background(), s))

	// Exactly MaxRevisions revise passes, then escalation, never finalize.
	assert.Equal(t, 2, revise.calls)
	assert.Equal(t, 3, validate.calls)
	assert.True(t, s.Escalated)
	assert.False(t, s.Finalized)
	assert.Equal(t, 2, s.RevisionCount)
}

func TestControllerCriticalFailureHaltsAndCheckpoints(t *testing.T) {
	run := newRun(t)
	stages := happyStages(nil)
	stages[1] = &fakeStage{id: StageWrite, critical: true, run: func(*State) (Update, error) {
		return Update{}, errors.New("model unavailable")
	}}

	ctrl := NewController(run, stages, zap.NewNop())
	defer ctrl.Close()

	s := NewState(run, TypeDirect, ModeConsider)
	err := ctrl.Run(context.Background(), s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "write")
	assert.False(t, s.Finalized)

	// The checkpoint records research as the last completed stage.
	restored, lerr := LoadState(run)
	require.NoError(t, lerr)
	assert.True(t, restored.Completed[StageResearch])
	assert.False(t, restored.Completed[StageWrite])
}

func TestControllerNonCriticalFailureContinues(t *testing.T) {
	run := newRun(t)
	stages := happyStages(nil)
	stages[2] = &fakeStage{id: StageCitationEnrichment, run: func(*State) (Update, error) {
		return Update{}, errors.New("normalize blew up")
	}}

	ctrl := NewController(run, stages, zap.NewNop())
	defer ctrl.Close()

	s := NewState(run, TypeDirect, ModeConsider)
	require.NoError(t, ctrl.Run(context.Background(), s))
	assert.True(t, s.Finalized)

	found := false
	for _, m := range s.Messages {
		if strings.Contains(m, "citation_enrichment") && strings.Contains(m, "non-critical") {
			found = true
		}
	}
	assert.True(t, found, "audit trail should record the tolerated failure")
}

func TestControllerResumeReentersRouting(t *testing.T) {
	run := newRun(t)

	// First attempt dies at write.
	broken := happyStages(nil)
	broken[1] = &fakeStage{id: StageWrite, critical: true, run: func(*State) (Update, error) {
		return Update{}, errors.New("transient")
	}}
	ctrl := NewController(run, broken, zap.NewNop())
	s := NewState(run, TypeDirect, ModeConsider)
	require.Error(t, ctrl.Run(context.Background(), s))
	ctrl.Close()

	// Resume picks up from the snapshot and does not rerun research.
	fixed := happyStages(nil)
	research := fixed[0].(*fakeStage)
	ctrl2 := NewController(run, fixed, zap.NewNop())
	defer ctrl2.Close()

	restored, err := ctrl2.Resume(context.Background())
	require.NoError(t, err)
	assert.True(t, restored.Finalized)
	assert.Equal(t, 0, research.calls)
	assert.Equal(t, s.RunID, restored.RunID)
}

func TestControllerParallelEnrichmentsIsolateFailures(t *testing.T) {
	run := newRun(t)
	trademark := &fakeStage{id: StageTrademark, run: func(*State) (Update, error) {
		return Update{}, errors.New("lookup failed")
	}}
	tables := &fakeStage{id: StageTables, run: func(s *State) (Update, error) {
		return Update{Messages: []string{"tables: tabulated 1 figures"}}, nil
	}}
	stages := append(happyStages(nil), trademark, tables)

	ctrl := NewController(run, stages, zap.NewNop(), WithParallelEnrichments(true))
	defer ctrl.Close()

	s := NewState(run, TypeDirect, ModeConsider)
	s.Enrichments = EnrichmentFlags{Trademark: true, Tables: true}
	require.NoError(t, ctrl.Run(context.Background(), s))

	assert.True(t, s.Finalized)
	assert.Equal(t, 1, trademark.calls)
	assert.Equal(t, 1, tables.calls)
	assert.True(t, s.Completed[StageTrademark], "failed enrichment still completes as a no-op")
	assert.Contains(t, s.Messages, "tables: tabulated 1 figures")
}

func TestApplyMergesPartialUpdates(t *testing.T) {
	s := baseState()
	s.Sections[1] = SectionState{Number: 1, Slug: "executive-summary", Body: "old"}
	s.Messages = []string{"first"}

	s.Apply(Update{
		Sections: map[int]SectionState{
			2: {Number: 2, Slug: "market", Body: "new"},
		},
		Research: &ResearchData{Summary: "sum"},
		Messages: []string{"second"},
	})

	assert.Equal(t, "old", s.Sections[1].Body)
	assert.Equal(t, "new", s.Sections[2].Body)
	require.NotNil(t, s.Research)
	assert.Equal(t, "sum", s.Research.Summary)
	assert.Equal(t, []string{"first", "second"}, s.Messages)

	// A nil pointer leaves existing data alone; a nil NeedsRevision leaves
	// the flag alone.
	s.NeedsRevision = true
	s.Apply(Update{})
	assert.True(t, s.NeedsRevision)
	assert.NotNil(t, s.Research)
}
