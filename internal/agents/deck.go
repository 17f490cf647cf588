package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/dusk-indust/memogen/internal/pipeline"
	"github.com/dusk-indust/memogen/internal/store"
)

// Extractor turns a deck file into per-page text. PDF/PPTX parsing and
// vision-mode extraction are external collaborators hidden behind this
// contract.
type Extractor interface {
	// Pages returns the deck's page count without extracting content.
	Pages(ctx context.Context, path string) (int, error)

	// ExtractPage extracts a single page; pages are 1-based. Extraction is
	// isolated per page so one bad page cannot corrupt completed ones.
	ExtractPage(ctx context.Context, path string, page int) (string, error)
}

// PlainTextExtractor reads a text file whose pages are separated by form
// feeds. It exists for local runs and tests; real decks go through a
// PDF/vision extractor satisfying the same interface.
type PlainTextExtractor struct{}

func (PlainTextExtractor) split(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return strings.Split(string(data), "\f"), nil
}

func (e PlainTextExtractor) Pages(_ context.Context, path string) (int, error) {
	pages, err := e.split(path)
	if err != nil {
		return 0, err
	}
	return len(pages), nil
}

func (e PlainTextExtractor) ExtractPage(_ context.Context, path string, page int) (string, error) {
	pages, err := e.split(path)
	if err != nil {
		return "", err
	}
	if page < 1 || page > len(pages) {
		return "", fmt.Errorf("deck: page %d out of range (deck has %d)", page, len(pages))
	}
	return strings.TrimSpace(pages[page-1]), nil
}

// DeckAnalyst extracts the attached deck page by page, checkpoints partial
// progress after every page, and seeds initial section drafts from deck
// content.
type DeckAnalyst struct {
	deps Deps
}

func NewDeckAnalyst(d Deps) *DeckAnalyst {
	return &DeckAnalyst{deps: d}
}

func (a *DeckAnalyst) ID() pipeline.StageID { return pipeline.StageDeckAnalysis }

// Critical: a required deck that cannot be parsed halts the run.
func (a *DeckAnalyst) Critical() bool { return true }

func (a *DeckAnalyst) Run(ctx context.Context, s *pipeline.State) (pipeline.Update, error) {
	total, err := a.deps.Extract.Pages(ctx, s.DeckPath)
	if err != nil {
		return pipeline.Update{}, fmt.Errorf("deck: open %s: %w", s.DeckPath, err)
	}

	deck := &pipeline.DeckData{Path: s.DeckPath}
	var failed []int
	for page := 1; page <= total; page++ {
		text, err := a.deps.Extract.ExtractPage(ctx, s.DeckPath, page)
		if err != nil {
			// One bad page must not corrupt completed ones.
			failed = append(failed, page)
			a.deps.Log.Warn("deck page extraction failed", zap.Int("page", page), zap.Error(err))
			continue
		}
		deck.Pages = append(deck.Pages, pipeline.DeckPage{Number: page, Text: text})

		// Sub-stage checkpoint: partial extraction survives interruption.
		if err := a.writeAnalysis(deck); err != nil {
			return pipeline.Update{}, err
		}
	}
	if len(deck.Pages) == 0 {
		return pipeline.Update{}, fmt.Errorf("deck: no pages extracted from %s", s.DeckPath)
	}

	if a.deps.LLM != nil {
		summary, err := a.deps.LLM.Complete(ctx, deckSummaryPrompt(s.Company, deck))
		if err != nil {
			a.deps.Log.Warn("deck summary failed", zap.Error(err))
		} else {
			deck.Summary = summary
		}
	}
	if err := a.writeAnalysis(deck); err != nil {
		return pipeline.Update{}, err
	}

	update := pipeline.Update{
		Deck:     deck,
		Sections: a.draftSections(deck),
	}
	update.Messages = append(update.Messages,
		fmt.Sprintf("deck analysis: extracted %d/%d pages from %s", len(deck.Pages), total, filepath.Base(s.DeckPath)))
	for _, p := range failed {
		update.Messages = append(update.Messages, fmt.Sprintf("deck analysis: page %d failed extraction", p))
	}
	return update, nil
}

// writeAnalysis persists both the JSON artifact and its markdown rendering.
func (a *DeckAnalyst) writeAnalysis(deck *pipeline.DeckData) error {
	data, err := json.MarshalIndent(deck, "", "  ")
	if err != nil {
		return fmt.Errorf("deck: marshal analysis: %w", err)
	}
	if err := a.deps.Run.WriteArtifact(store.DeckAnalysisJSON, data); err != nil {
		return err
	}

	var md strings.Builder
	md.WriteString("# Deck Analysis\n\n")
	if deck.Summary != "" {
		md.WriteString(deck.Summary + "\n\n")
	}
	for _, p := range deck.Pages {
		fmt.Fprintf(&md, "## Page %d\n\n%s\n\n", p.Number, p.Text)
	}
	return a.deps.Run.WriteArtifact(store.DeckAnalysisMD, []byte(md.String()))
}

// draftSections seeds an initial draft for every outline section whose
// vocabulary or name appears in the deck, and writes each draft under
// 0-deck-sections/.
func (a *DeckAnalyst) draftSections(deck *pipeline.DeckData) map[int]pipeline.SectionState {
	drafts := make(map[int]pipeline.SectionState)
	for _, def := range a.deps.Registry.Sections {
		var matched []string
		for _, p := range deck.Pages {
			if pageMentionsSection(p.Text, def.Name, def.Vocabulary) {
				matched = append(matched, p.Text)
			}
		}
		if len(matched) == 0 {
			continue
		}

		body := fmt.Sprintf("## %d. %s\n\n%s\n", def.Number, def.Name, strings.Join(matched, "\n\n"))
		rel := filepath.Join(store.DeckSectionsDir, store.SectionFilename(def.Number, def.Slug))
		if err := a.deps.Run.WriteArtifact(rel, []byte(body)); err != nil {
			a.deps.Log.Warn("write deck draft", zap.String("section", def.Slug), zap.Error(err))
			continue
		}
		drafts[def.Number] = pipeline.SectionState{
			Number: def.Number,
			Slug:   def.Slug,
			Name:   def.Name,
			Body:   body,
			Source: "deck",
		}
	}
	return drafts
}

// pageMentionsSection is the heuristic mapping deck pages to outline
// sections: the section name or any vocabulary term appears in the page.
func pageMentionsSection(text, name string, vocabulary []string) bool {
	lower := strings.ToLower(text)
	if strings.Contains(lower, strings.ToLower(name)) {
		return true
	}
	for _, term := range vocabulary {
		if strings.Contains(lower, strings.ToLower(term)) {
			return true
		}
	}
	return false
}
