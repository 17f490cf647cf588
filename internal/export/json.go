// Package export renders a finished run for consumption outside the
// pipeline: a structured JSON digest for tooling and a standalone HTML
// page for humans.
package export

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/dusk-indust/memogen/internal/citations"
	"github.com/dusk-indust/memogen/internal/pipeline"
	"github.com/dusk-indust/memogen/internal/store"
)

// MemoExport is the top-level JSON export structure.
type MemoExport struct {
	Company    string          `json:"company"`
	Version    string          `json:"version"`
	ExportedAt string          `json:"exportedAt"`
	Finalized  bool            `json:"finalized"`
	Escalated  bool            `json:"escalated"`
	Score      int             `json:"score,omitempty"`
	Sections   []SectionExport `json:"sections"`
	Citations  []SourceExport  `json:"citations,omitempty"`
	FinalDraft string          `json:"finalDraft,omitempty"`
}

// SectionExport describes one drafted section.
type SectionExport struct {
	Number    int    `json:"number"`
	Slug      string `json:"slug"`
	Words     int    `json:"words"`
	Citations int    `json:"citations"`
}

// SourceExport is one consolidated citation from the final draft.
type SourceExport struct {
	Number    int    `json:"number"`
	Title     string `json:"title,omitempty"`
	URL       string `json:"url,omitempty"`
	Publisher string `json:"publisher,omitempty"`
	Raw       string `json:"raw"`
}

// ExportRun builds a MemoExport from a run's artifacts. Missing artifacts
// leave their fields zero; exporting an unfinished run is allowed.
func ExportRun(st *store.Store, company, version string) (*MemoExport, error) {
	run, err := st.OpenRun(company, version)
	if err != nil {
		return nil, err
	}

	export := &MemoExport{
		Company:    run.Company,
		Version:    run.Version.String(),
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
	}

	sections, err := run.ReadSections()
	if err != nil {
		return nil, err
	}
	for _, sec := range sections {
		prose, _ := citations.Split(sec.Body)
		export.Sections = append(export.Sections, SectionExport{
			Number:    sec.Number,
			Slug:      sec.Slug,
			Words:     wordCount(prose),
			Citations: len(citations.FirstOccurrence(prose)),
		})
	}

	if run.HasArtifact(store.StateFile) {
		state, err := pipeline.LoadState(run)
		if err != nil {
			return nil, err
		}
		export.Finalized = state.Finalized
		export.Escalated = state.Escalated
		if state.Validation != nil {
			export.Score = state.Validation.Score
		}
	}

	if run.HasArtifact(store.FinalDraft) {
		raw, err := run.ReadArtifact(store.FinalDraft)
		if err != nil {
			return nil, err
		}
		export.FinalDraft = string(raw)
		export.Citations = parseFinalCitations(string(raw))
	}

	return export, nil
}

// WriteJSON exports a run and writes the digest into the run directory as
// export.json, returning the export for display.
func WriteJSON(st *store.Store, company, version string) (*MemoExport, error) {
	export, err := ExportRun(st, company, version)
	if err != nil {
		return nil, err
	}
	run, err := st.OpenRun(company, version)
	if err != nil {
		return nil, err
	}
	raw, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("export: marshal: %w", err)
	}
	if err := run.WriteArtifact("export.json", raw); err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	return export, nil
}

// parseFinalCitations reads the consolidated block out of a final draft.
// Definitions that do not parse as structured sources still export raw.
func parseFinalCitations(document string) []SourceExport {
	_, block := citations.Split(document)
	defs, err := citations.ParseDefinitions(block)
	if err != nil {
		return nil
	}
	out := make([]SourceExport, 0, len(defs))
	for _, d := range defs {
		se := SourceExport{Number: d.Marker, Raw: d.Raw}
		if src, err := citations.ParseSource(d.Raw); err == nil {
			se.Title = src.Title
			se.URL = src.URL
			se.Publisher = src.Publisher
		}
		out = append(out, se)
	}
	return out
}

func wordCount(s string) int {
	return len(strings.Fields(s))
}
