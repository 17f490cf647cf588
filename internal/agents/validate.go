package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/dusk-indust/memogen/internal/citations"
	"github.com/dusk-indust/memogen/internal/pipeline"
	"github.com/dusk-indust/memogen/internal/store"
)

// minSectionWords is the threshold below which a drafted section is flagged
// as too thin to stand.
const minSectionWords = 50

// Validator scores the drafted memo and decides whether another revision
// pass is worth running. The checks are structural: section coverage,
// length, per-section citation integrity. Judgment calls about prose quality
// stay with the humans reading the memo.
type Validator struct {
	deps Deps
}

func NewValidator(d Deps) *Validator {
	return &Validator{deps: d}
}

func (a *Validator) ID() pipeline.StageID { return pipeline.StageValidate }
func (a *Validator) Critical() bool       { return true }

func (a *Validator) Run(_ context.Context, s *pipeline.State) (pipeline.Update, error) {
	result := &pipeline.ValidationResult{Score: 100}
	templates := 0

	for _, def := range a.deps.Registry.Sections {
		sec, ok := s.Sections[def.Number]
		if !ok || strings.TrimSpace(sec.Body) == "" {
			result.Issues = append(result.Issues, pipeline.ValidationIssue{
				Section: def.Number,
				Problem: fmt.Sprintf("section %q is missing", def.Name),
			})
			result.Score -= 15
			continue
		}
		if sec.Source == "template" {
			templates++
			continue
		}
		if n := len(strings.Fields(sec.Body)); n < minSectionWords {
			result.Issues = append(result.Issues, pipeline.ValidationIssue{
				Section: def.Number,
				Problem: fmt.Sprintf("section %q is too short (%d words)", def.Name, n),
			})
			result.Score -= 10
		}
		result.Issues = append(result.Issues, citationIssues(def.Number, def.Name, sec.Body)...)
	}
	for _, issue := range result.Issues {
		if strings.Contains(issue.Problem, "no definition") {
			result.Score -= 10
		}
	}
	if result.Score < 0 {
		result.Score = 0
	}

	// Template sections are the offline fallback doing its job; revising
	// them without an LLM would loop forever.
	needsRevision := len(result.Issues) > 0 && templates < a.deps.Registry.Len() && a.deps.LLM != nil

	if err := a.writeValidation(result); err != nil {
		return pipeline.Update{}, err
	}
	a.deps.Log.Info("validation complete",
		zap.Int("score", result.Score),
		zap.Int("issues", len(result.Issues)),
		zap.Bool("needs_revision", needsRevision))

	return pipeline.Update{
		Validation:    result,
		NeedsRevision: pipeline.BoolPtr(needsRevision),
		Messages: []string{fmt.Sprintf("validate: score %d, %d issues, revision=%t",
			result.Score, len(result.Issues), needsRevision)},
	}, nil
}

// citationIssues runs the per-section half of citation integrity: every
// inline marker must resolve to a definition in the section's own block.
// Unreferenced definitions are flagged too, though assembly only warns on
// those.
func citationIssues(number int, name, body string) []pipeline.ValidationIssue {
	prose, block := citations.Split(body)
	defs, err := citations.ParseDefinitions(block)
	if err != nil {
		return []pipeline.ValidationIssue{{Section: number, Problem: fmt.Sprintf("section %q: %v", name, err)}}
	}
	defined := make(map[int]bool, len(defs))
	for _, d := range defs {
		defined[d.Marker] = true
	}

	var issues []pipeline.ValidationIssue
	referenced := make(map[int]bool)
	for _, m := range citations.FirstOccurrence(prose) {
		referenced[m] = true
		if !defined[m] {
			issues = append(issues, pipeline.ValidationIssue{
				Section: number,
				Problem: fmt.Sprintf("section %q: marker [^%d] has no definition", name, m),
			})
		}
	}
	for _, d := range defs {
		if !referenced[d.Marker] {
			issues = append(issues, pipeline.ValidationIssue{
				Section: number,
				Problem: fmt.Sprintf("section %q: definition [^%d] is never referenced", name, d.Marker),
			})
		}
	}
	return issues
}

func (a *Validator) writeValidation(result *pipeline.ValidationResult) error {
	raw, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("validate: marshal: %w", err)
	}
	if err := a.deps.Run.WriteArtifact(store.ValidationJSON, raw); err != nil {
		return fmt.Errorf("validate: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Validation\n\nScore: %d/100\n\n", result.Score)
	if len(result.Issues) == 0 {
		b.WriteString("No issues found.\n")
	}
	for _, issue := range result.Issues {
		b.WriteString("- " + issue.Problem + "\n")
	}
	if err := a.deps.Run.WriteArtifact(store.ValidationMD, []byte(b.String())); err != nil {
		return fmt.Errorf("validate: %w", err)
	}
	return nil
}

// Reviser rewrites only the sections the last validation flagged, feeding
// the validator's problems back into the prompt. The controller bounds how
// many times this stage can run.
type Reviser struct {
	deps Deps
}

func NewReviser(d Deps) *Reviser {
	return &Reviser{deps: d}
}

func (a *Reviser) ID() pipeline.StageID { return pipeline.StageRevise }
func (a *Reviser) Critical() bool       { return true }

func (a *Reviser) Run(ctx context.Context, s *pipeline.State) (pipeline.Update, error) {
	if s.Validation == nil {
		return pipeline.Update{}, fmt.Errorf("revise: no validation result in state")
	}
	if a.deps.LLM == nil {
		return pipeline.Update{}, fmt.Errorf("revise: no LLM configured")
	}

	problems := make(map[int][]string)
	for _, issue := range s.Validation.Issues {
		if issue.Section > 0 {
			problems[issue.Section] = append(problems[issue.Section], issue.Problem)
		}
	}

	update := pipeline.Update{Sections: map[int]pipeline.SectionState{}}
	for _, def := range a.deps.Registry.Sections {
		probs, flagged := problems[def.Number]
		if !flagged {
			continue
		}
		sec, ok := s.Sections[def.Number]
		if !ok {
			sec = pipeline.SectionState{Number: def.Number, Slug: def.Slug, Name: def.Name}
		}
		out, err := a.deps.LLM.Complete(ctx, revisePrompt(s, def, sec.Body, probs))
		if err != nil {
			return pipeline.Update{}, fmt.Errorf("revise section %d: %w", def.Number, err)
		}
		sec.Body = ensureHeading(strings.TrimSpace(out), def)
		sec.Source = "revision"
		if err := a.deps.Run.WriteSection(sec.Number, sec.Slug, sec.Body); err != nil {
			return pipeline.Update{}, fmt.Errorf("revise: %w", err)
		}
		update.Sections[def.Number] = sec
	}

	update.Messages = []string{fmt.Sprintf("revise: rewrote %d flagged sections (pass %d)",
		len(update.Sections), s.RevisionCount+1)}
	return update, nil
}
