// Package agents implements the pipeline stages. Every agent is a
// pipeline.Stage: it reads the state, calls its external collaborators
// (LLM, research provider, deck extractor), writes its own artifacts, and
// returns a partial update. Non-determinism lives entirely behind the
// collaborator interfaces so the controller stays testable with mocks.
package agents

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/dusk-indust/memogen/internal/llm"
	"github.com/dusk-indust/memogen/internal/outline"
	"github.com/dusk-indust/memogen/internal/pipeline"
	"github.com/dusk-indust/memogen/internal/research"
	"github.com/dusk-indust/memogen/internal/store"
)

// Deps carries the shared collaborators injected into every agent. LLM and
// Search may be nil: agents degrade to their offline behavior rather than
// fail.
type Deps struct {
	Run      *store.Run
	Registry *outline.Registry
	LLM      llm.Client
	Search   research.Client
	Extract  Extractor
	HTTP     *http.Client
	Log      *zap.Logger
}

// Stages builds the full stage set for a run in pipeline order.
func Stages(d Deps) []pipeline.Stage {
	if d.HTTP == nil {
		d.HTTP = http.DefaultClient
	}
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	return []pipeline.Stage{
		NewDeckAnalyst(d),
		NewResearcher(d),
		NewWriter(d),
		NewTrademarkEnricher(d),
		NewSocialsEnricher(d),
		NewLinkChecker(d),
		NewTableEnricher(d),
		NewScorecard(d),
		NewCitationEnricher(d),
		NewValidator(d),
		NewReviser(d),
		NewFactChecker(d),
		NewFinalizer(d),
	}
}
