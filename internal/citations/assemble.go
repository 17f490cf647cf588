package citations

import (
	"fmt"

	"github.com/dusk-indust/memogen/internal/store"
)

// AssembleRun reads every section artifact from the run, consolidates
// citations, and writes the final draft. The final draft is exactly the
// consolidated document; sections carry their own headings.
//
// Integrity violations fail the assembly rather than emit a malformed
// document; the partial Result is still returned for reporting.
func AssembleRun(run *store.Run) (*Result, error) {
	files, err := run.ReadSections()
	if err != nil {
		return nil, fmt.Errorf("assemble: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("assemble: run %s/%s has no section artifacts", store.Slugify(run.Company), run.Version)
	}

	inputs := make([]SectionInput, 0, len(files))
	for _, f := range files {
		inputs = append(inputs, SectionInput{Number: f.Number, Slug: f.Slug, Body: f.Body})
	}

	result, err := Consolidate(inputs)
	if err != nil {
		return result, fmt.Errorf("assemble: %w", err)
	}

	if err := run.WriteArtifact(store.FinalDraft, []byte(result.Document)); err != nil {
		return result, fmt.Errorf("assemble: %w", err)
	}
	return result, nil
}
