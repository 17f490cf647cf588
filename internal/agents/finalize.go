package agents

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/dusk-indust/memogen/internal/citations"
	"github.com/dusk-indust/memogen/internal/pipeline"
	"github.com/dusk-indust/memogen/internal/store"
)

// Finalizer assembles the final draft: sections in outline order, citations
// renumbered into one global sequence. Assembly refuses to produce a draft
// with dangling citation markers.
type Finalizer struct {
	deps Deps
}

func NewFinalizer(d Deps) *Finalizer {
	return &Finalizer{deps: d}
}

func (a *Finalizer) ID() pipeline.StageID { return pipeline.StageFinalize }
func (a *Finalizer) Critical() bool       { return true }

func (a *Finalizer) Run(_ context.Context, s *pipeline.State) (pipeline.Update, error) {
	result, err := citations.AssembleRun(a.deps.Run)
	if err != nil {
		return pipeline.Update{}, fmt.Errorf("finalize: %w", err)
	}

	msgs := []string{fmt.Sprintf("finalize: wrote %s with %d consolidated citations",
		store.FinalDraft, len(result.Citations))}
	for _, issue := range result.Issues {
		msgs = append(msgs, "finalize: "+issue.Message)
	}
	a.deps.Log.Info("final draft assembled",
		zap.String("company", s.Company),
		zap.String("version", s.Version),
		zap.Int("citations", len(result.Citations)),
		zap.Int("issues", len(result.Issues)))
	return pipeline.Update{Messages: msgs}, nil
}
