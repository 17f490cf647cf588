// Package status inspects the memo store without running anything: which
// artifacts a run has produced, and what the controller would do next. The
// artifact scan is a fallback view; when state.json exists the routing
// function is the authority.
package status

import (
	"fmt"

	"github.com/dusk-indust/memogen/internal/pipeline"
	"github.com/dusk-indust/memogen/internal/store"
)

// ArtifactInfo describes one expected run artifact.
type ArtifactInfo struct {
	Name    string // human-readable label
	File    string // path relative to the run directory
	Present bool
}

// RunStatus holds the inspection result for one run.
type RunStatus struct {
	Company   string
	Version   string
	Artifacts []ArtifactInfo
	NextStage pipeline.StageID // "" when no state snapshot exists
	Escalated bool
	Finalized bool
	Revisions int
	Messages  []string
}

// artifactLabels lists the staged artifacts in pipeline order.
var artifactLabels = []struct {
	name string
	file string
}{
	{"Deck analysis", store.DeckAnalysisJSON},
	{"Research", store.ResearchJSON},
	{"Validation", store.ValidationJSON},
	{"Final draft", store.FinalDraft},
	{"State snapshot", store.StateFile},
}

// GetRunStatus inspects one run. Version may be empty or "latest".
func GetRunStatus(st *store.Store, company, version string) (*RunStatus, error) {
	run, err := st.OpenRun(company, version)
	if err != nil {
		return nil, err
	}

	rs := &RunStatus{
		Company: run.Company,
		Version: run.Version.String(),
	}
	for _, a := range artifactLabels {
		rs.Artifacts = append(rs.Artifacts, ArtifactInfo{
			Name:    a.name,
			File:    a.file,
			Present: run.HasArtifact(a.file),
		})
	}

	sections, err := run.ReadSections()
	if err != nil {
		return nil, err
	}
	rs.Artifacts = append(rs.Artifacts, ArtifactInfo{
		Name:    fmt.Sprintf("Sections (%d)", len(sections)),
		File:    store.SectionsDir,
		Present: len(sections) > 0,
	})

	if run.HasArtifact(store.StateFile) {
		state, err := pipeline.LoadState(run)
		if err != nil {
			return nil, err
		}
		rs.NextStage = pipeline.NextStage(state)
		rs.Escalated = state.Escalated
		rs.Finalized = state.Finalized
		rs.Revisions = state.RevisionCount
		rs.Messages = state.Messages
	}
	return rs, nil
}

// ListRuns returns the status of every company's latest run.
func ListRuns(st *store.Store) ([]*RunStatus, error) {
	companies, err := st.Companies()
	if err != nil {
		return nil, err
	}
	var out []*RunStatus
	for _, company := range companies {
		rs, err := GetRunStatus(st, company, "latest")
		if err != nil {
			return nil, fmt.Errorf("status: %s: %w", company, err)
		}
		out = append(out, rs)
	}
	return out, nil
}
