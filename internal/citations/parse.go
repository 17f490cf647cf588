// Package citations implements the citation interchange format used by every
// pipeline stage and the consolidation engine that merges per-section
// citations into one globally numbered block at assembly time.
//
// The interchange format is a markdown body with inline caret markers
// ("[^3]") and a trailing "### Citations" block whose lines have the shape:
//
//	[^3]: <date>. [<title>](<url>). <publisher>. Published: <date> | Updated: <date-or-N/A>
//
// Field order and the literal "Published:"/"Updated:" labels are load-bearing
// for exporters and validators and must be preserved.
package citations

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	// markerRe matches an inline citation marker. It must only be applied to
	// the prose part of a section; definition lines also begin with "[^N]".
	markerRe = regexp.MustCompile(`\[\^(\d+)\]`)

	// headingRe matches the citation block heading on its own line.
	headingRe = regexp.MustCompile(`(?m)^#{2,4}\s+Citations\s*$`)

	// defLineRe matches one definition line.
	defLineRe = regexp.MustCompile(`^\[\^(\d+)\]:\s*(.+)$`)

	// sourceRe decomposes a definition's raw text into its fields. The
	// Updated capture accepts empty: upstream stages emit a bare "Updated:"
	// when no update date is known, and the normalizer turns that into N/A.
	sourceRe = regexp.MustCompile(`^(.+?)\.\s*\[(.*?)\]\((.*?)\)\.\s*(.+?)\.\s*Published:\s*(.+?)\s*\|\s*Updated:\s*(.*?)\s*$`)
)

// Definition is one local citation definition within a section.
type Definition struct {
	Marker int
	Raw    string // everything after "[^N]: ", unmodified
}

// Source holds the structured fields of a definition line. Parsed lazily;
// the consolidation engine itself only moves Raw text around.
type Source struct {
	Date      string
	Title     string
	URL       string
	Publisher string
	Published string
	Updated   string
}

// Split separates a section body into its prose and its trailing citation
// block. The block starts at the last "### Citations" heading; a body with no
// heading is all prose.
func Split(body string) (prose, block string) {
	locs := headingRe.FindAllStringIndex(body, -1)
	if len(locs) == 0 {
		return body, ""
	}
	last := locs[len(locs)-1]
	return body[:last[0]], body[last[0]:]
}

// ParseDefinitions extracts the ordered definition list from a citation
// block. Duplicate markers within one block are an error: a local marker must
// denote exactly one source.
func ParseDefinitions(block string) ([]Definition, error) {
	var defs []Definition
	seen := make(map[int]bool)

	for _, line := range strings.Split(block, "\n") {
		m := defLineRe.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		marker := atoi(m[1])
		if seen[marker] {
			return nil, fmt.Errorf("citations: duplicate definition for marker [^%d]", marker)
		}
		seen[marker] = true
		defs = append(defs, Definition{Marker: marker, Raw: m[2]})
	}
	return defs, nil
}

// Markers returns every inline marker occurrence in prose, in document order.
// Callers that need first-occurrence order deduplicate.
func Markers(prose string) []int {
	matches := markerRe.FindAllStringSubmatch(prose, -1)
	out := make([]int, 0, len(matches))
	for _, m := range matches {
		out = append(out, atoi(m[1]))
	}
	return out
}

// FirstOccurrence returns the distinct inline markers in prose, ordered by
// their first appearance.
func FirstOccurrence(prose string) []int {
	seen := make(map[int]bool)
	var out []int
	for _, m := range Markers(prose) {
		if !seen[m] {
			seen[m] = true
			out = append(out, m)
		}
	}
	return out
}

// FormatDefinition renders one consolidated definition line.
func FormatDefinition(marker int, raw string) string {
	return fmt.Sprintf("[^%d]: %s", marker, raw)
}

// ParseSource decomposes a definition's raw text into structured fields.
// Returns an error when the text does not follow the interchange line shape.
func ParseSource(raw string) (*Source, error) {
	m := sourceRe.FindStringSubmatch(raw)
	if m == nil {
		return nil, fmt.Errorf("citations: definition does not match interchange format: %q", raw)
	}
	return &Source{
		Date:      m[1],
		Title:     m[2],
		URL:       m[3],
		Publisher: m[4],
		Published: m[5],
		Updated:   m[6],
	}, nil
}

// FormatSource renders structured fields back into the interchange line shape.
func FormatSource(s Source) string {
	return fmt.Sprintf("%s. [%s](%s). %s. Published: %s | Updated: %s",
		s.Date, s.Title, s.URL, s.Publisher, s.Published, s.Updated)
}

func atoi(s string) int {
	n := 0
	for _, c := range s {
		n = n*10 + int(c-'0')
	}
	return n
}
