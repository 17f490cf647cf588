package correct

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/dusk-indust/memogen/internal/citations"
	"github.com/dusk-indust/memogen/internal/store"
)

// Engine orchestrates a correction: analyze variants, locate affected
// sections, apply scoped rewrites, reassemble the final draft. The matcher
// is injected so the variant strategy can change without touching this
// orchestration.
type Engine struct {
	store   *store.Store
	matcher Matcher
	log     *zap.Logger
}

func NewEngine(st *store.Store, m Matcher, log *zap.Logger) *Engine {
	if m == nil {
		m = NumericMatcher{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{store: st, matcher: m, log: log}
}

// Analysis is the inspectable output of the analyze step: everything the
// locate and apply steps will search for, before any mutation happens.
type Analysis struct {
	Correction Correction
	Variants   []string // derived spellings, excluding the literal value
}

// needles returns every string the correction matches on, longest first so
// replacement of "$50MM" wins over its "$50M" substring.
func (a Analysis) needles() []string {
	out := append([]string{a.Correction.Incorrect}, a.Variants...)
	sort.Slice(out, func(i, j int) bool { return len(out[i]) > len(out[j]) })
	return out
}

// SectionMatch reports the stale fact's presence in one section.
type SectionMatch struct {
	Number int
	Slug   string
	File   string
	Count  int
	Sample string // surrounding context of the first instance
}

// Preview is the dry-run output: what a correction would touch, with no
// section mutated.
type Preview struct {
	Analyses []Analysis
	Matches  []SectionMatch
	Warnings []string
}

// Result summarizes an applied correction run.
type Result struct {
	Run              *store.Run
	SectionsModified int
	Instances        int
	ModifiedFiles    []string
	Warnings         []string
}

// Analyze derives the searchable variants for one correction.
func (e *Engine) Analyze(ctx context.Context, c Correction) (Analysis, error) {
	variants, err := e.matcher.Variants(ctx, c.Incorrect)
	if err != nil {
		return Analysis{}, err
	}
	return Analysis{Correction: c, Variants: variants}, nil
}

// Locate scans section prose for the analysis needles. Matches inside a
// citation block are never counted; they surface as warnings instead, since
// a definition records the source's original claim.
func (e *Engine) Locate(sections []store.SectionFile, a Analysis) (matches []SectionMatch, warnings []string) {
	for _, sec := range sections {
		if !a.Correction.targetsSection(sec.Slug) {
			continue
		}
		prose, block := citations.Split(sec.Body)

		count := 0
		sample := ""
		for _, needle := range a.needles() {
			n := strings.Count(prose, needle)
			if n == 0 {
				continue
			}
			count += n
			if sample == "" {
				sample = contextAround(prose, needle)
			}
		}
		if count > 0 {
			matches = append(matches, SectionMatch{
				Number: sec.Number,
				Slug:   sec.Slug,
				File:   store.SectionFilename(sec.Number, sec.Slug),
				Count:  count,
				Sample: sample,
			})
		}

		for _, needle := range a.needles() {
			if strings.Contains(block, needle) {
				warnings = append(warnings, fmt.Sprintf(
					"section %d (%s): citation definition mentions %q; left for manual review",
					sec.Number, sec.Slug, needle))
				break
			}
		}
	}
	return matches, warnings
}

// targetsSection reports whether a correction's section hints include the
// slug. No hints means every section is in scope.
func (c Correction) targetsSection(slug string) bool {
	if len(c.Sections) == 0 {
		return true
	}
	for _, hint := range c.Sections {
		if hint == slug {
			return true
		}
	}
	return false
}

// Preview runs analyze and locate against the source run without mutating
// anything.
func (e *Engine) Preview(ctx context.Context, inst *Instruction) (*Preview, error) {
	run, err := e.store.OpenRun(inst.CompanyName, inst.SourceVersion)
	if err != nil {
		return nil, err
	}
	sections, err := run.ReadSections()
	if err != nil {
		return nil, err
	}

	p := &Preview{}
	for _, c := range inst.Corrections {
		a, err := e.Analyze(ctx, c)
		if err != nil {
			return nil, err
		}
		p.Analyses = append(p.Analyses, a)
		matches, warnings := e.Locate(sections, a)
		p.Matches = append(p.Matches, matches...)
		p.Warnings = append(p.Warnings, warnings...)
		if len(matches) == 0 {
			p.Warnings = append(p.Warnings, fmt.Sprintf(
				"correction %q -> %q: zero instances found", c.Incorrect, c.Correct))
		}
	}
	return p, nil
}

// Apply executes the full correction: resolve the target run per the output
// mode, rewrite affected sections, reassemble the final draft, and append an
// audit entry. A correction matching nothing is a warning, never an error,
// and leaves every section byte-identical.
func (e *Engine) Apply(ctx context.Context, inst *Instruction) (*Result, error) {
	var run *store.Run
	var err error
	switch inst.OutputMode {
	case ModeInPlace:
		run, err = e.store.OpenRun(inst.CompanyName, inst.SourceVersion)
	default:
		run, err = e.store.CloneRun(inst.CompanyName, inst.SourceVersion)
	}
	if err != nil {
		return nil, err
	}

	sections, err := run.ReadSections()
	if err != nil {
		return nil, err
	}
	bodies := make(map[int]store.SectionFile, len(sections))
	for _, sec := range sections {
		bodies[sec.Number] = sec
	}

	result := &Result{Run: run}
	modified := make(map[int]bool)

	for _, c := range inst.Corrections {
		a, err := e.Analyze(ctx, c)
		if err != nil {
			return nil, err
		}

		current := make([]store.SectionFile, 0, len(bodies))
		for _, sec := range bodies {
			current = append(current, sec)
		}
		sort.Slice(current, func(i, j int) bool { return current[i].Number < current[j].Number })

		matches, warnings := e.Locate(current, a)
		result.Warnings = append(result.Warnings, warnings...)
		if len(matches) == 0 {
			result.Warnings = append(result.Warnings, fmt.Sprintf(
				"correction %q -> %q: zero instances found, nothing changed", c.Incorrect, c.Correct))
			continue
		}

		for _, m := range matches {
			sec := bodies[m.Number]
			prose, block := citations.Split(sec.Body)
			for _, needle := range a.needles() {
				prose = strings.ReplaceAll(prose, needle, c.Correct)
			}
			sec.Body = prose + block
			bodies[m.Number] = sec
			modified[m.Number] = true
			result.Instances += m.Count

			e.log.Info("section corrected",
				zap.Int("section", m.Number),
				zap.String("slug", m.Slug),
				zap.Int("instances", m.Count),
				zap.String("field", c.Field))
		}
	}

	nums := make([]int, 0, len(modified))
	for n := range modified {
		nums = append(nums, n)
	}
	sort.Ints(nums)
	for _, n := range nums {
		sec := bodies[n]
		if err := run.WriteSection(sec.Number, sec.Slug, sec.Body); err != nil {
			return nil, fmt.Errorf("correct: %w", err)
		}
		result.ModifiedFiles = append(result.ModifiedFiles, store.SectionFilename(sec.Number, sec.Slug))
	}
	result.SectionsModified = len(nums)

	if result.SectionsModified > 0 {
		if _, err := citations.AssembleRun(run); err != nil {
			return nil, fmt.Errorf("correct: reassemble: %w", err)
		}
	}

	if err := appendAudit(run, inst, result); err != nil {
		return nil, err
	}
	return result, nil
}

// contextAround returns up to 40 characters either side of the needle's
// first occurrence, for preview display.
func contextAround(prose, needle string) string {
	i := strings.Index(prose, needle)
	if i < 0 {
		return ""
	}
	start := i - 40
	if start < 0 {
		start = 0
	}
	end := i + len(needle) + 40
	if end > len(prose) {
		end = len(prose)
	}
	return strings.Join(strings.Fields(prose[start:end]), " ")
}
