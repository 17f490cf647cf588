package agents

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/dusk-indust/memogen/internal/citations"
	"github.com/dusk-indust/memogen/internal/pipeline"
)

// CitationEnricher normalizes the citation blocks of every drafted section
// so the consolidation pass downstream sees uniform definition lines. It
// never renumbers; that happens once, at assembly.
type CitationEnricher struct {
	deps Deps
}

func NewCitationEnricher(d Deps) *CitationEnricher {
	return &CitationEnricher{deps: d}
}

func (a *CitationEnricher) ID() pipeline.StageID { return pipeline.StageCitationEnrichment }
func (a *CitationEnricher) Critical() bool       { return false }

func (a *CitationEnricher) Run(_ context.Context, s *pipeline.State) (pipeline.Update, error) {
	update := pipeline.Update{Sections: map[int]pipeline.SectionState{}}
	normalized, malformed := 0, 0

	for _, n := range sortedSectionNumbers(s) {
		sec := s.Sections[n]
		body, changed, bad := normalizeCitations(sec.Body)
		malformed += bad
		if !changed {
			continue
		}
		if err := a.deps.Run.WriteSection(sec.Number, sec.Slug, body); err != nil {
			return pipeline.Update{}, fmt.Errorf("citation enrichment: %w", err)
		}
		sec.Body = body
		update.Sections[n] = sec
		normalized++
	}

	update.Messages = []string{
		fmt.Sprintf("citation_enrichment: normalized %d sections (%d malformed definitions left as-is)",
			normalized, malformed),
	}
	return update, nil
}

// normalizeCitations rewrites a section's citation block through the
// structured parser: whitespace and field separators come out canonical,
// definitions appear in marker order, and blank Updated fields become "N/A".
// Definitions that do not parse are kept verbatim and counted.
func normalizeCitations(body string) (out string, changed bool, malformed int) {
	prose, block := citations.Split(body)
	if block == "" {
		return body, false, 0
	}
	defs, err := citations.ParseDefinitions(block)
	if err != nil || len(defs) == 0 {
		return body, false, 0
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Marker < defs[j].Marker })

	var b strings.Builder
	b.WriteString("### Citations\n\n")
	for _, d := range defs {
		src, err := citations.ParseSource(d.Raw)
		if err != nil {
			malformed++
			b.WriteString(citations.FormatDefinition(d.Marker, d.Raw) + "\n")
			continue
		}
		if strings.TrimSpace(src.Updated) == "" {
			src.Updated = "N/A"
		}
		b.WriteString(citations.FormatDefinition(d.Marker, citations.FormatSource(*src)) + "\n")
	}

	out = strings.TrimRight(prose, "\n") + "\n\n" + b.String()
	return out, out != body, malformed
}
