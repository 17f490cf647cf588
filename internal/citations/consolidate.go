package citations

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrIntegrity is wrapped by every citation-integrity failure so callers can
// distinguish data-loss conditions from I/O errors.
var ErrIntegrity = errors.New("citation integrity violation")

// SectionInput is one finalized section handed to the consolidation engine.
type SectionInput struct {
	Number int
	Slug   string
	Body   string
}

// IssueKind classifies a citation integrity issue.
type IssueKind string

const (
	// IssueOrphanMarker is an inline marker with no definition in its
	// section. Indicates upstream data loss; blocks assembly.
	IssueOrphanMarker IssueKind = "orphan-marker"

	// IssueUnreferencedDefinition is a definition no inline marker points
	// at. Reported and excluded from the consolidated block.
	IssueUnreferencedDefinition IssueKind = "unreferenced-definition"
)

// Issue is one citation integrity problem found during consolidation.
type Issue struct {
	Kind    IssueKind
	Section int
	Marker  int
	Message string
}

// GlobalCitation is one entry in the consolidated block.
type GlobalCitation struct {
	Number  int    // global marker, 1-based
	Raw     string // definition text, unchanged from the section-local block
	Section int    // owning section number
	Local   int    // section-local marker it replaced
}

// Result is the outcome of a consolidation pass.
type Result struct {
	Document  string
	Citations []GlobalCitation
	Issues    []Issue
}

// Consolidate merges independently authored sections into one document with
// globally sequential citations. Sections are walked in canonical number
// order, inline markers in first-occurrence order; each distinct
// (section, local marker) pair gets the next global number. Identical source
// text in two sections deliberately does NOT collapse to one number:
// conflating them could silently merge distinct claims.
//
// An orphan inline marker (no matching definition in its section) fails the
// pass with an error wrapping ErrIntegrity; the returned Result still carries
// the full issue list for reporting. Unreferenced definitions are reported as
// issues and dropped from the consolidated block.
func Consolidate(sections []SectionInput) (*Result, error) {
	ordered := make([]SectionInput, len(sections))
	copy(ordered, sections)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Number < ordered[j].Number })

	result := &Result{}
	next := 1
	var proseParts []string

	for _, sec := range ordered {
		prose, block := Split(sec.Body)

		defs, err := ParseDefinitions(block)
		if err != nil {
			return nil, fmt.Errorf("%w: section %d: %v", ErrIntegrity, sec.Number, err)
		}
		defByLocal := make(map[int]string, len(defs))
		for _, d := range defs {
			defByLocal[d.Marker] = d.Raw
		}

		// Assign global numbers in first-occurrence order.
		localToGlobal := make(map[int]int)
		referenced := make(map[int]bool)
		for _, local := range FirstOccurrence(prose) {
			referenced[local] = true
			raw, ok := defByLocal[local]
			if !ok {
				result.Issues = append(result.Issues, Issue{
					Kind:    IssueOrphanMarker,
					Section: sec.Number,
					Marker:  local,
					Message: fmt.Sprintf("section %d: inline marker [^%d] has no definition", sec.Number, local),
				})
				continue
			}
			localToGlobal[local] = next
			result.Citations = append(result.Citations, GlobalCitation{
				Number:  next,
				Raw:     raw,
				Section: sec.Number,
				Local:   local,
			})
			next++
		}

		// Definitions nothing points at.
		for _, d := range defs {
			if !referenced[d.Marker] {
				result.Issues = append(result.Issues, Issue{
					Kind:    IssueUnreferencedDefinition,
					Section: sec.Number,
					Marker:  d.Marker,
					Message: fmt.Sprintf("section %d: definition [^%d] is never referenced inline", sec.Number, d.Marker),
				})
			}
		}

		proseParts = append(proseParts, strings.TrimRight(renumber(prose, localToGlobal), " \n"))
	}

	var b strings.Builder
	b.WriteString(strings.Join(proseParts, "\n\n"))
	if len(result.Citations) > 0 {
		b.WriteString("\n\n### Citations\n\n")
		for _, c := range result.Citations {
			b.WriteString(FormatDefinition(c.Number, c.Raw))
			b.WriteString("\n")
		}
	} else {
		b.WriteString("\n")
	}
	result.Document = b.String()

	for _, issue := range result.Issues {
		if issue.Kind == IssueOrphanMarker {
			return result, fmt.Errorf("%w: %s", ErrIntegrity, issue.Message)
		}
	}

	if err := Validate(result.Document); err != nil {
		return result, err
	}
	return result, nil
}

// Validate checks the post-assembly invariants on a consolidated document:
// global markers form exactly {1..M} ordered by first inline appearance, and
// inline markers and definitions are in bijection.
func Validate(document string) error {
	prose, block := Split(document)

	defs, err := ParseDefinitions(block)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIntegrity, err)
	}
	defSet := make(map[int]bool, len(defs))
	for _, d := range defs {
		defSet[d.Marker] = true
	}

	inline := FirstOccurrence(prose)

	// Sequential, gap-free, ordered by first appearance.
	for i, m := range inline {
		if m != i+1 {
			return fmt.Errorf("%w: inline markers are not sequential by first appearance: position %d has [^%d]",
				ErrIntegrity, i+1, m)
		}
	}

	// Bijection both directions.
	for _, m := range inline {
		if !defSet[m] {
			return fmt.Errorf("%w: inline marker [^%d] has no definition in the consolidated block", ErrIntegrity, m)
		}
	}
	inlineSet := make(map[int]bool, len(inline))
	for _, m := range inline {
		inlineSet[m] = true
	}
	for _, d := range defs {
		if !inlineSet[d.Marker] {
			return fmt.Errorf("%w: definition [^%d] has no inline reference", ErrIntegrity, d.Marker)
		}
	}
	if len(defs) != len(inline) {
		return fmt.Errorf("%w: %d inline markers but %d definitions", ErrIntegrity, len(inline), len(defs))
	}
	return nil
}

// renumber rewrites every inline marker occurrence according to the local to
// global mapping, in a single pass so swapped numbers cannot collide. Markers
// absent from the mapping (orphans) are left as-is.
func renumber(prose string, localToGlobal map[int]int) string {
	return markerRe.ReplaceAllStringFunc(prose, func(match string) string {
		sub := markerRe.FindStringSubmatch(match)
		local := atoi(sub[1])
		global, ok := localToGlobal[local]
		if !ok {
			return match
		}
		return fmt.Sprintf("[^%d]", global)
	})
}
