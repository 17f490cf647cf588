package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func baseState() *State {
	return &State{
		Company:      "Acme",
		MaxRevisions: DefaultMaxRevisions,
		Completed:    make(map[StageID]bool),
		Sections:     make(map[int]SectionState),
	}
}

// advance marks the current next stage completed, mimicking the controller's
// default bookkeeping.
func advance(s *State) StageID {
	id := NextStage(s)
	s.Completed[id] = true
	return id
}

func TestNextStageHappyPathWithoutDeck(t *testing.T) {
	s := baseState()

	assert.Equal(t, StageResearch, advance(s))
	assert.Equal(t, StageWrite, advance(s))
	assert.Equal(t, StageCitationEnrichment, advance(s))
	assert.Equal(t, StageValidate, advance(s))
	assert.Equal(t, StageFinalize, NextStage(s))

	s.Finalized = true
	assert.Equal(t, StageDone, NextStage(s))
}

func TestNextStageDeckFirstWhenAttached(t *testing.T) {
	s := baseState()
	s.DeckPath = "deck.pdf"
	assert.Equal(t, StageDeckAnalysis, advance(s))
	assert.Equal(t, StageResearch, NextStage(s))
}

func TestNextStageEnrichmentsGatedByFlags(t *testing.T) {
	s := baseState()
	s.Enrichments = EnrichmentFlags{Trademark: true, Tables: true}
	s.ScorecardTemplate = "criteria.yml"
	s.Completed[StageResearch] = true
	s.Completed[StageWrite] = true

	assert.Equal(t, StageTrademark, advance(s))
	assert.Equal(t, StageTables, advance(s))
	assert.Equal(t, StageScorecard, advance(s))
	assert.Equal(t, StageCitationEnrichment, NextStage(s))
}

func TestNextStageRevisionLoopAndEscalation(t *testing.T) {
	s := baseState()
	s.MaxRevisions = 2
	s.Completed[StageResearch] = true
	s.Completed[StageWrite] = true
	s.Completed[StageCitationEnrichment] = true
	s.Completed[StageValidate] = true
	s.NeedsRevision = true

	// Two funded passes, then escalation.
	for i := 0; i < 2; i++ {
		assert.Equal(t, StageRevise, NextStage(s))
		s.RevisionCount++
		delete(s.Completed, StageValidate)
		assert.Equal(t, StageValidate, advance(s))
	}
	assert.Equal(t, StageEscalate, NextStage(s))

	s.Escalated = true
	assert.Equal(t, StageDone, NextStage(s))
}

func TestNextStageFactCheckBeforeFinalize(t *testing.T) {
	s := baseState()
	s.Enrichments.FactCheck = true
	s.Completed[StageResearch] = true
	s.Completed[StageWrite] = true
	s.Completed[StageCitationEnrichment] = true
	s.Completed[StageValidate] = true

	assert.Equal(t, StageFactCheck, advance(s))
	assert.Equal(t, StageFinalize, NextStage(s))
}

func TestNextStageIsPure(t *testing.T) {
	s := baseState()
	s.DeckPath = "deck.pdf"
	for i := 0; i < 5; i++ {
		assert.Equal(t, StageDeckAnalysis, NextStage(s))
	}
}
