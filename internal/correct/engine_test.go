package correct

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/memogen/internal/store"
)

const fundTermsBody = `## Fund Terms

The fund targets $50M in commitments[^1], with a first close of $50M expected in Q3.

### Citations

[^1]: 2025-04-01. [Fund announcement mentions $50M](https://example.com/fund). Example Wire. Published: 2025-04-01 | Updated: N/A
`

const overviewBody = `## Company Overview

The firm was founded in 2019 and is headquartered in Austin.
`

const trackRecordBody = `## Track Record

Fund I returned 2.1x net on $50 million deployed.
`

// seedRun creates a store with one run holding the three fixture sections.
func seedRun(t *testing.T) (*store.Store, *store.Run) {
	t.Helper()
	st := store.New(t.TempDir())
	run, err := st.CreateRun("Lattice Capital")
	require.NoError(t, err)
	require.NoError(t, run.WriteSection(2, "company-overview", overviewBody))
	require.NoError(t, run.WriteSection(5, "fund-terms", fundTermsBody))
	require.NoError(t, run.WriteSection(6, "track-record", trackRecordBody))
	return st, run
}

func fundSizeInstruction(mode OutputMode) *Instruction {
	return &Instruction{
		CompanyName:   "Lattice Capital",
		SourceVersion: "latest",
		OutputMode:    mode,
		Corrections: []Correction{
			{Type: "fund_size", Field: "target fund size", Incorrect: "$50M", Correct: "$10M"},
		},
	}
}

func TestApplyScopesToMatchingSections(t *testing.T) {
	st, src := seedRun(t)
	engine := NewEngine(st, NumericMatcher{}, nil)

	result, err := engine.Apply(context.Background(), fundSizeInstruction(ModeNewVersion))
	require.NoError(t, err)

	// Two prose instances in fund-terms plus the variant in track-record.
	assert.Equal(t, 2, result.SectionsModified)
	assert.Equal(t, 3, result.Instances)
	assert.ElementsMatch(t, []string{"05-fund-terms.md", "06-track-record.md"}, result.ModifiedFiles)
	assert.NotEqual(t, src.Version, result.Run.Version, "new_version mode allocates a fresh run")

	sections, err := result.Run.ReadSections()
	require.NoError(t, err)
	bySlug := map[string]string{}
	for _, sec := range sections {
		bySlug[sec.Slug] = sec.Body
	}

	assert.Contains(t, bySlug["fund-terms"], "$10M in commitments[^1]")
	assert.Contains(t, bySlug["fund-terms"], "first close of $10M")
	assert.Contains(t, bySlug["track-record"], "2.1x net on $10M deployed")
	assert.Equal(t, overviewBody, bySlug["company-overview"], "unmatched section stays byte-identical")

	// Citation definitions keep the source's original claim.
	assert.Contains(t, bySlug["fund-terms"], "Fund announcement mentions $50M")
	assert.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "citation definition")

	// The source run is untouched.
	srcSections, err := src.ReadSections()
	require.NoError(t, err)
	for _, sec := range srcSections {
		assert.NotContains(t, sec.Body, "$10M")
	}
}

func TestApplyIsIdempotent(t *testing.T) {
	st, _ := seedRun(t)
	engine := NewEngine(st, NumericMatcher{}, nil)

	first, err := engine.Apply(context.Background(), fundSizeInstruction(ModeInPlace))
	require.NoError(t, err)
	require.Equal(t, 3, first.Instances)

	second, err := engine.Apply(context.Background(), fundSizeInstruction(ModeInPlace))
	require.NoError(t, err)
	assert.Zero(t, second.Instances)
	assert.Zero(t, second.SectionsModified)

	found := false
	for _, w := range second.Warnings {
		if strings.Contains(w, "zero instances") {
			found = true
		}
	}
	assert.True(t, found, "zero matches must surface as a warning")
}

func TestApplyZeroMatchesIsWarningNotError(t *testing.T) {
	st, _ := seedRun(t)
	engine := NewEngine(st, NumericMatcher{}, nil)

	inst := fundSizeInstruction(ModeInPlace)
	inst.Corrections[0].Incorrect = "$999M"

	result, err := engine.Apply(context.Background(), inst)
	require.NoError(t, err)
	assert.Zero(t, result.SectionsModified)
	require.NotEmpty(t, result.Warnings)
	assert.Contains(t, result.Warnings[len(result.Warnings)-1], "zero instances")
}

func TestApplySectionHintsLimitScope(t *testing.T) {
	st, _ := seedRun(t)
	engine := NewEngine(st, NumericMatcher{}, nil)

	inst := fundSizeInstruction(ModeInPlace)
	inst.Corrections[0].Sections = []string{"fund-terms"}

	result, err := engine.Apply(context.Background(), inst)
	require.NoError(t, err)
	assert.Equal(t, 1, result.SectionsModified)
	assert.Equal(t, []string{"05-fund-terms.md"}, result.ModifiedFiles)

	run, err := st.OpenRun("Lattice Capital", "latest")
	require.NoError(t, err)
	sections, err := run.ReadSections()
	require.NoError(t, err)
	for _, sec := range sections {
		if sec.Slug == "track-record" {
			assert.Contains(t, sec.Body, "$50 million", "hinted-out section is untouched")
		}
	}
}

func TestApplyReassemblesFinalDraft(t *testing.T) {
	st, _ := seedRun(t)
	engine := NewEngine(st, NumericMatcher{}, nil)

	result, err := engine.Apply(context.Background(), fundSizeInstruction(ModeInPlace))
	require.NoError(t, err)

	raw, err := result.Run.ReadArtifact(store.FinalDraft)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "$10M in commitments[^1]")
	assert.Contains(t, string(raw), "### Citations")
}

func TestApplyWritesAuditLog(t *testing.T) {
	st, _ := seedRun(t)
	engine := NewEngine(st, NumericMatcher{}, nil)

	result, err := engine.Apply(context.Background(), fundSizeInstruction(ModeInPlace))
	require.NoError(t, err)

	entries, err := ReadAudit(result.Run)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.NotEmpty(t, entries[0].ID)
	assert.Equal(t, "Lattice Capital", entries[0].Company)
	assert.Equal(t, 3, entries[0].Instances)

	// A second correction appends rather than overwrites.
	inst := fundSizeInstruction(ModeInPlace)
	inst.Corrections[0].Incorrect = "Austin"
	inst.Corrections[0].Correct = "Dallas"
	second, err := engine.Apply(context.Background(), inst)
	require.NoError(t, err)

	entries, err = ReadAudit(second.Run)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestPreviewDoesNotMutate(t *testing.T) {
	st, src := seedRun(t)
	engine := NewEngine(st, NumericMatcher{}, nil)

	preview, err := engine.Preview(context.Background(), fundSizeInstruction(ModeNewVersion))
	require.NoError(t, err)

	require.Len(t, preview.Matches, 2)
	total := 0
	for _, m := range preview.Matches {
		total += m.Count
		assert.NotEmpty(t, m.Sample)
	}
	assert.Equal(t, 3, total)
	require.Len(t, preview.Analyses, 1)
	assert.Contains(t, preview.Analyses[0].Variants, "$50 million")

	// No new version, no changed bytes.
	versions, err := st.Versions("Lattice Capital")
	require.NoError(t, err)
	assert.Len(t, versions, 1)
	sections, err := src.ReadSections()
	require.NoError(t, err)
	for _, sec := range sections {
		assert.NotContains(t, sec.Body, "$10M")
	}
}

func TestLoadInstructionValidates(t *testing.T) {
	inst := &Instruction{CompanyName: "X", Corrections: []Correction{{Incorrect: "a", Correct: "b"}}}
	require.NoError(t, inst.Validate())
	assert.Equal(t, ModeNewVersion, inst.OutputMode)

	bad := &Instruction{Corrections: []Correction{{Incorrect: "a", Correct: "b"}}}
	assert.Error(t, bad.Validate())

	bad = &Instruction{CompanyName: "X"}
	assert.Error(t, bad.Validate())

	bad = &Instruction{CompanyName: "X", OutputMode: "overwrite", Corrections: []Correction{{Incorrect: "a", Correct: "b"}}}
	assert.Error(t, bad.Validate())

	bad = &Instruction{CompanyName: "X", Corrections: []Correction{{Incorrect: "a", Correct: "a"}}}
	assert.Error(t, bad.Validate())
}
