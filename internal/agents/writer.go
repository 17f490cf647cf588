package agents

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/dusk-indust/memogen/internal/outline"
	"github.com/dusk-indust/memogen/internal/pipeline"
)

// Writer drafts every registry section from deck and research context, with
// locally numbered citations, and persists each section to 2-sections/.
// Without an LLM it falls back to template sections with TODO markers so an
// offline run still produces a complete, assemblable memo.
type Writer struct {
	deps Deps
}

func NewWriter(d Deps) *Writer {
	return &Writer{deps: d}
}

func (a *Writer) ID() pipeline.StageID { return pipeline.StageWrite }

func (a *Writer) Critical() bool { return true }

func (a *Writer) Run(ctx context.Context, s *pipeline.State) (pipeline.Update, error) {
	update := pipeline.Update{Sections: make(map[int]pipeline.SectionState)}

	for _, def := range a.deps.Registry.Sections {
		var body string
		var source string

		if a.deps.LLM == nil {
			body = templateSection(def)
			source = "template"
		} else {
			draft := ""
			if prior, ok := s.Sections[def.Number]; ok {
				draft = prior.Body
			}
			out, err := a.deps.LLM.Complete(ctx, sectionPrompt(s, def, draft))
			if err != nil {
				return pipeline.Update{}, fmt.Errorf("write: section %d (%s): %w", def.Number, def.Slug, err)
			}
			body = ensureHeading(out, def)
			source = "research"
			if draft != "" {
				source = "deck"
			}
		}

		if err := a.deps.Run.WriteSection(def.Number, def.Slug, body); err != nil {
			return pipeline.Update{}, fmt.Errorf("write: %w", err)
		}
		update.Sections[def.Number] = pipeline.SectionState{
			Number: def.Number,
			Slug:   def.Slug,
			Name:   def.Name,
			Body:   body,
			Source: source,
		}
		a.deps.Log.Debug("section written", zap.Int("number", def.Number), zap.String("slug", def.Slug))
	}

	update.Messages = []string{fmt.Sprintf("write: drafted %d sections", len(update.Sections))}
	return update, nil
}

// templateSection is the offline fallback body: headings and guiding
// questions with TODO markers for manual completion.
func templateSection(def outline.Section) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## %d. %s\n\n", def.Number, def.Name)
	b.WriteString("<!-- TODO: Complete this section -->\n\n")
	for _, q := range def.GuidingQuestions {
		fmt.Fprintf(&b, "- %s\n", q)
	}
	return b.String()
}

// ensureHeading guarantees the section starts with its canonical heading;
// models occasionally omit it.
func ensureHeading(body string, def outline.Section) string {
	heading := fmt.Sprintf("## %d. %s", def.Number, def.Name)
	trimmed := strings.TrimSpace(body)
	if strings.HasPrefix(trimmed, heading) {
		return trimmed + "\n"
	}
	return heading + "\n\n" + trimmed + "\n"
}
