//go:build e2e

// Package e2e runs the full pipeline end to end through the real controller,
// stage set, and artifact store, with the LLM mocked. Build-tagged so the
// unit suite stays fast.
package e2e

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dusk-indust/memogen/internal/agents"
	"github.com/dusk-indust/memogen/internal/citations"
	"github.com/dusk-indust/memogen/internal/llm"
	"github.com/dusk-indust/memogen/internal/outline"
	"github.com/dusk-indust/memogen/internal/pipeline"
	"github.com/dusk-indust/memogen/internal/store"
)

func e2eRegistry() *outline.Registry {
	return &outline.Registry{
		InvestmentType: "direct",
		Sections: []outline.Section{
			{Number: 1, Name: "Executive Summary", Slug: "executive-summary"},
			{Number: 2, Name: "Market", Slug: "market"},
		},
	}
}

func newRun(t *testing.T) *store.Run {
	t.Helper()
	run, err := store.New(t.TempDir()).CreateRun("Acme Robotics")
	require.NoError(t, err)
	return run
}

// sectionBody builds a memo section long enough to pass validation, with a
// locally numbered citation block.
func sectionBody(number int, name string, markers int) string {
	var b strings.Builder
	b.WriteString("## " + name + "\n\n")
	for i := 0; i < 15; i++ {
		b.WriteString("Acme Robotics automates mid-market warehouses with modular picking systems. ")
	}
	for m := 1; m <= markers; m++ {
		b.WriteString("Sourced claim[^" + string(rune('0'+m)) + "]. ")
	}
	b.WriteString("\n\n### Citations\n\n")
	for m := 1; m <= markers; m++ {
		b.WriteString("[^" + string(rune('0'+m)) + "]: 2026-01-10. [Source " + string(rune('0'+m)) +
			"](https://example.com/" + string(rune('0'+m)) + "). TechCrunch. Published: 2026-01-10 | Updated: N/A\n")
	}
	return b.String()
}

func TestOfflineRunFinalizesWithTemplateSections(t *testing.T) {
	run := newRun(t)
	deps := agents.Deps{Run: run, Registry: e2eRegistry(), Log: zap.NewNop()}
	ctrl := pipeline.NewController(run, agents.Stages(deps), zap.NewNop())
	defer ctrl.Close()

	s := pipeline.NewState(run, pipeline.TypeDirect, pipeline.ModeConsider)
	require.NoError(t, ctrl.Run(context.Background(), s))

	assert.True(t, s.Finalized)
	assert.False(t, s.Escalated)
	assert.Zero(t, s.RevisionCount, "template sections must not enter the revision loop")

	raw, err := run.ReadArtifact(store.FinalDraft)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "<!-- TODO: Complete this section -->")

	// The checkpoint on disk agrees the run is over.
	loaded, err := pipeline.LoadState(run)
	require.NoError(t, err)
	assert.Equal(t, pipeline.StageDone, pipeline.NextStage(loaded))
}

func TestMockedRunConsolidatesCitationsInFinalDraft(t *testing.T) {
	run := newRun(t)
	mock := &llm.Mock{Responses: map[string]string{
		"Write section 1": sectionBody(1, "1. Executive Summary", 2),
		"Write section 2": sectionBody(2, "2. Market", 1),
	}}
	deps := agents.Deps{Run: run, Registry: e2eRegistry(), LLM: mock, Log: zap.NewNop()}
	ctrl := pipeline.NewController(run, agents.Stages(deps), zap.NewNop())
	defer ctrl.Close()

	s := pipeline.NewState(run, pipeline.TypeDirect, pipeline.ModeConsider)
	require.NoError(t, ctrl.Run(context.Background(), s))

	require.True(t, s.Finalized)
	assert.False(t, s.Escalated)

	raw, err := run.ReadArtifact(store.FinalDraft)
	require.NoError(t, err)
	doc := string(raw)

	// Section 2's local [^1] was renumbered past section 1's two citations.
	assert.Contains(t, doc, "[^3]")
	assert.Equal(t, 1, strings.Count(doc, "### Citations"), "final draft carries one consolidated block")
	require.NoError(t, citations.Validate(doc))
}

func TestRevisionLoopRecoversThenFinalizes(t *testing.T) {
	run := newRun(t)
	mock := &llm.Mock{Responses: map[string]string{
		"Write section 1":  sectionBody(1, "1. Executive Summary", 1),
		"Write section 2":  "A market section far too thin to stand.",
		"Revise section 2": sectionBody(2, "2. Market", 1),
	}}
	deps := agents.Deps{Run: run, Registry: e2eRegistry(), LLM: mock, Log: zap.NewNop()}
	ctrl := pipeline.NewController(run, agents.Stages(deps), zap.NewNop())
	defer ctrl.Close()

	s := pipeline.NewState(run, pipeline.TypeDirect, pipeline.ModeConsider)
	require.NoError(t, ctrl.Run(context.Background(), s))

	assert.True(t, s.Finalized)
	assert.False(t, s.Escalated)
	assert.Equal(t, 1, s.RevisionCount)
	assert.Equal(t, "revision", s.Sections[2].Source)

	raw, err := run.ReadArtifact(store.FinalDraft)
	require.NoError(t, err)
	require.NoError(t, citations.Validate(string(raw)))
}

func TestExhaustedRevisionsEscalate(t *testing.T) {
	run := newRun(t)
	// The reviser keeps producing the same thin section, so every validation
	// pass flags it again until the budget runs out.
	mock := &llm.Mock{Responses: map[string]string{
		"Write section 1":  sectionBody(1, "1. Executive Summary", 1),
		"Write section 2":  "Still too thin.",
		"Revise section 2": "Still too thin.",
	}}
	deps := agents.Deps{Run: run, Registry: e2eRegistry(), LLM: mock, Log: zap.NewNop()}
	ctrl := pipeline.NewController(run, agents.Stages(deps), zap.NewNop())
	defer ctrl.Close()

	s := pipeline.NewState(run, pipeline.TypeDirect, pipeline.ModeConsider)
	s.MaxRevisions = 2
	require.NoError(t, ctrl.Run(context.Background(), s))

	assert.True(t, s.Escalated)
	assert.False(t, s.Finalized, "escalation hands off without assembling a draft")
	assert.Equal(t, 2, s.RevisionCount)
	assert.False(t, run.HasArtifact(store.FinalDraft))

	joined := strings.Join(s.Messages, "\n")
	assert.Contains(t, joined, "escalating to human review")
}
