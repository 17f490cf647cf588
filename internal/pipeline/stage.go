// Package pipeline implements the memo-generation pipeline controller: a
// typed state record threaded through a fixed directed graph of stages, with
// checkpoint/resume via the artifact store and a bounded revision loop.
package pipeline

import "context"

// StageID identifies a pipeline stage.
type StageID string

const (
	StageDeckAnalysis       StageID = "deck_analysis"
	StageResearch           StageID = "research"
	StageWrite              StageID = "write"
	StageTrademark          StageID = "trademark"
	StageSocials            StageID = "socials"
	StageLinks              StageID = "links"
	StageTables             StageID = "tables"
	StageScorecard          StageID = "scorecard"
	StageCitationEnrichment StageID = "citation_enrichment"
	StageValidate           StageID = "validate"
	StageRevise             StageID = "revise"
	StageFactCheck          StageID = "fact_check"
	StageFinalize           StageID = "finalize"

	// StageEscalate is the terminal, non-error outcome of exhausting the
	// revision budget. The controller handles it without a Stage
	// implementation.
	StageEscalate StageID = "escalate_to_human"

	// StageDone is the routing sentinel for a finished run.
	StageDone StageID = "done"
)

func (s StageID) String() string {
	return string(s)
}

// Stage is one pipeline step: a state-transforming function plus the
// metadata the controller needs for failure semantics. Stages read the
// state and return a partial update; they never mutate the state directly.
type Stage interface {
	ID() StageID

	// Critical reports whether a failure of this stage halts the run.
	// Non-critical stages are logged and treated as no-ops.
	Critical() bool

	Run(ctx context.Context, s *State) (Update, error)
}

// enrichmentStages are the optional, mutually independent stages that may be
// dispatched in parallel. They share no mutable section: each one either
// touches its own artifact or distinct state fields.
var enrichmentStages = []StageID{
	StageTrademark,
	StageSocials,
	StageLinks,
	StageTables,
	StageScorecard,
}

// isEnrichment reports whether id belongs to the parallelizable optional
// group.
func isEnrichment(id StageID) bool {
	for _, e := range enrichmentStages {
		if e == id {
			return true
		}
	}
	return false
}
