package pipeline

// NextStage is the routing function: a pure, total function of the state
// with no side effects. Resumability falls out of this purity — re-entering
// the loop with a restored snapshot lands on the correct next stage with no
// special-cased resume logic.
//
// Routing order:
//
//	deck_analysis (only when a deck is attached)
//	research
//	write
//	trademark | socials | links | tables | scorecard (each only when enabled)
//	citation_enrichment
//	validate
//	  needs_revision && budget left  -> revise -> validate ...
//	  needs_revision && budget spent -> escalate_to_human (terminal)
//	fact_check (only when enabled)
//	finalize
func NextStage(s *State) StageID {
	if s.Finalized || s.Escalated {
		return StageDone
	}

	if s.DeckPath != "" && !s.Completed[StageDeckAnalysis] {
		return StageDeckAnalysis
	}
	if !s.Completed[StageResearch] {
		return StageResearch
	}
	if !s.Completed[StageWrite] {
		return StageWrite
	}

	// Optional enrichments: skipped entirely when their precondition is
	// absent, never run-and-discarded.
	for _, id := range enrichmentStages {
		if enrichmentEnabled(s, id) && !s.Completed[id] {
			return id
		}
	}

	if !s.Completed[StageCitationEnrichment] {
		return StageCitationEnrichment
	}
	if !s.Completed[StageValidate] {
		return StageValidate
	}

	if s.NeedsRevision {
		if s.RevisionCount >= s.MaxRevisions {
			return StageEscalate
		}
		return StageRevise
	}

	if s.Enrichments.FactCheck && !s.Completed[StageFactCheck] {
		return StageFactCheck
	}

	return StageFinalize
}

// enrichmentEnabled is the precondition for each optional stage.
func enrichmentEnabled(s *State, id StageID) bool {
	switch id {
	case StageTrademark:
		return s.Enrichments.Trademark
	case StageSocials:
		return s.Enrichments.Socials
	case StageLinks:
		return s.Enrichments.Links
	case StageTables:
		return s.Enrichments.Tables
	case StageScorecard:
		return s.ScorecardTemplate != ""
	default:
		return false
	}
}
