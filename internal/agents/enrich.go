package agents

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dusk-indust/memogen/internal/citations"
	"github.com/dusk-indust/memogen/internal/pipeline"
	"github.com/dusk-indust/memogen/internal/store"
)

// The enrichment agents each touch a distinct section (or none), which is
// what makes the controller's parallel dispatch safe.

// findSection returns the first state section matching one of the preferred
// slugs, or nil.
func findSection(s *pipeline.State, slugs ...string) *pipeline.SectionState {
	for _, slug := range slugs {
		for n := range s.Sections {
			if s.Sections[n].Slug == slug {
				sec := s.Sections[n]
				return &sec
			}
		}
	}
	return nil
}

// appendToProse inserts text at the end of a section's prose, before any
// trailing citation block, and returns the rebuilt body.
func appendToProse(body, text string) string {
	prose, block := citations.Split(body)
	prose = strings.TrimRight(prose, "\n") + "\n\n" + text + "\n"
	if block == "" {
		return prose
	}
	return prose + "\n" + block
}

// writeSectionUpdate persists a mutated section and returns the update entry.
func writeSectionUpdate(d Deps, sec pipeline.SectionState, body string) (pipeline.Update, error) {
	sec.Body = body
	if err := d.Run.WriteSection(sec.Number, sec.Slug, body); err != nil {
		return pipeline.Update{}, err
	}
	return pipeline.Update{Sections: map[int]pipeline.SectionState{sec.Number: sec}}, nil
}

// ---------------------------------------------------------------------------
// Trademark
// ---------------------------------------------------------------------------

// TrademarkEnricher asks the LLM for brand/trademark names present in the
// product section and annotates the section with them.
type TrademarkEnricher struct {
	deps Deps
}

func NewTrademarkEnricher(d Deps) *TrademarkEnricher {
	return &TrademarkEnricher{deps: d}
}

func (a *TrademarkEnricher) ID() pipeline.StageID { return pipeline.StageTrademark }
func (a *TrademarkEnricher) Critical() bool       { return false }

func (a *TrademarkEnricher) Run(ctx context.Context, s *pipeline.State) (pipeline.Update, error) {
	if a.deps.LLM == nil {
		return pipeline.Update{Messages: []string{"trademark: no LLM configured, skipped"}}, nil
	}
	sec := findSection(s, "product-technology", "strategy-thesis", "company-overview")
	if sec == nil {
		return pipeline.Update{Messages: []string{"trademark: no target section present, skipped"}}, nil
	}

	out, err := a.deps.LLM.Complete(ctx, trademarkPrompt(s.Company, sec.Body))
	if err != nil {
		return pipeline.Update{}, fmt.Errorf("trademark: %w", err)
	}
	out = strings.TrimSpace(out)
	if out == "" || strings.EqualFold(out, "none") {
		return pipeline.Update{Messages: []string{"trademark: no marks identified"}}, nil
	}

	var marks []string
	for _, line := range strings.Split(out, "\n") {
		if line = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "-")); line != "" {
			marks = append(marks, line)
		}
	}
	update, err := writeSectionUpdate(a.deps, *sec,
		appendToProse(sec.Body, "**Trademarks & brands:** "+strings.Join(marks, ", ")))
	if err != nil {
		return pipeline.Update{}, fmt.Errorf("trademark: %w", err)
	}
	update.Messages = []string{fmt.Sprintf("trademark: annotated %d marks", len(marks))}
	return update, nil
}

// ---------------------------------------------------------------------------
// Socials
// ---------------------------------------------------------------------------

// SocialsEnricher probes well-known social profile URLs for the company and
// appends the live ones to the overview section.
type SocialsEnricher struct {
	deps Deps
}

func NewSocialsEnricher(d Deps) *SocialsEnricher {
	return &SocialsEnricher{deps: d}
}

func (a *SocialsEnricher) ID() pipeline.StageID { return pipeline.StageSocials }
func (a *SocialsEnricher) Critical() bool       { return false }

func (a *SocialsEnricher) Run(ctx context.Context, s *pipeline.State) (pipeline.Update, error) {
	sec := findSection(s, "company-overview", "firm-team", "executive-summary")
	if sec == nil {
		return pipeline.Update{Messages: []string{"socials: no target section present, skipped"}}, nil
	}

	slug := store.Slugify(s.Company)
	candidates := []string{
		"https://www.linkedin.com/company/" + slug,
		"https://x.com/" + strings.ReplaceAll(slug, "-", ""),
		"https://www.crunchbase.com/organization/" + slug,
	}

	var live []string
	for _, u := range candidates {
		if urlAlive(ctx, a.deps.HTTP, u) {
			live = append(live, u)
		}
	}
	if len(live) == 0 {
		return pipeline.Update{Messages: []string{"socials: no live profiles found"}}, nil
	}

	var b strings.Builder
	b.WriteString("**Profiles:**\n")
	for _, u := range live {
		b.WriteString("- " + u + "\n")
	}
	update, err := writeSectionUpdate(a.deps, *sec, appendToProse(sec.Body, strings.TrimRight(b.String(), "\n")))
	if err != nil {
		return pipeline.Update{}, fmt.Errorf("socials: %w", err)
	}
	update.Messages = []string{fmt.Sprintf("socials: added %d profiles", len(live))}
	return update, nil
}

// ---------------------------------------------------------------------------
// Links
// ---------------------------------------------------------------------------

// LinkChecker verifies every research source URL is still reachable. It
// mutates no section; dead links surface as audit messages.
type LinkChecker struct {
	deps Deps
}

func NewLinkChecker(d Deps) *LinkChecker {
	return &LinkChecker{deps: d}
}

func (a *LinkChecker) ID() pipeline.StageID { return pipeline.StageLinks }
func (a *LinkChecker) Critical() bool       { return false }

func (a *LinkChecker) Run(ctx context.Context, s *pipeline.State) (pipeline.Update, error) {
	if s.Research == nil {
		return pipeline.Update{Messages: []string{"links: no research data, skipped"}}, nil
	}

	seen := make(map[string]bool)
	var dead []string
	total := 0
	for _, f := range s.Research.Findings {
		for _, src := range f.Sources {
			if src.URL == "" || seen[src.URL] {
				continue
			}
			seen[src.URL] = true
			total++
			if !urlAlive(ctx, a.deps.HTTP, src.URL) {
				dead = append(dead, src.URL)
			}
		}
	}

	msgs := []string{fmt.Sprintf("links: checked %d source URLs, %d unreachable", total, len(dead))}
	for _, u := range dead {
		msgs = append(msgs, "links: unreachable source "+u)
	}
	return pipeline.Update{Messages: msgs}, nil
}

// urlAlive sends a HEAD request and treats any response below 400 as alive.
func urlAlive(ctx context.Context, client *http.Client, url string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return false
	}
	resp, err := client.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode < 400
}

// ---------------------------------------------------------------------------
// Tables
// ---------------------------------------------------------------------------

// moneyRe finds dollar figures worth tabulating.
var moneyRe = regexp.MustCompile(`\$\d+(?:\.\d+)?\s?(?:[MBK]\b|million|billion)`)

// TableEnricher collects the dollar figures mentioned across research
// findings into a reference table appended to the financials section.
type TableEnricher struct {
	deps Deps
}

func NewTableEnricher(d Deps) *TableEnricher {
	return &TableEnricher{deps: d}
}

func (a *TableEnricher) ID() pipeline.StageID { return pipeline.StageTables }
func (a *TableEnricher) Critical() bool       { return false }

func (a *TableEnricher) Run(_ context.Context, s *pipeline.State) (pipeline.Update, error) {
	sec := findSection(s, "financials-deal-terms", "fund-terms", "track-record")
	if sec == nil || s.Research == nil {
		return pipeline.Update{Messages: []string{"tables: no target section or research, skipped"}}, nil
	}

	var rows []string
	for _, f := range s.Research.Findings {
		for _, figure := range moneyRe.FindAllString(f.Content, -1) {
			rows = append(rows, fmt.Sprintf("| %s | %s |", f.Topic, figure))
		}
	}
	if len(rows) == 0 {
		return pipeline.Update{Messages: []string{"tables: no figures found in research"}}, nil
	}

	table := "**Reported figures**\n\n| Topic | Figure |\n| --- | --- |\n" + strings.Join(rows, "\n")
	update, err := writeSectionUpdate(a.deps, *sec, appendToProse(sec.Body, table))
	if err != nil {
		return pipeline.Update{}, fmt.Errorf("tables: %w", err)
	}
	update.Messages = []string{fmt.Sprintf("tables: tabulated %d figures", len(rows))}
	return update, nil
}

// ---------------------------------------------------------------------------
// Scorecard
// ---------------------------------------------------------------------------

// scorecardTemplate is the YAML shape of a scorecard criteria file.
type scorecardTemplate struct {
	Criteria []struct {
		Name     string `yaml:"name"`
		Weight   int    `yaml:"weight"`
		Question string `yaml:"question"`
	} `yaml:"criteria"`
}

// Scorecard scores the memo against a criteria template and writes a
// standalone scorecard artifact. Runs only when a template is configured.
type Scorecard struct {
	deps Deps
}

func NewScorecard(d Deps) *Scorecard {
	return &Scorecard{deps: d}
}

func (a *Scorecard) ID() pipeline.StageID { return pipeline.StageScorecard }
func (a *Scorecard) Critical() bool       { return false }

func (a *Scorecard) Run(ctx context.Context, s *pipeline.State) (pipeline.Update, error) {
	raw, err := os.ReadFile(s.ScorecardTemplate)
	if err != nil {
		return pipeline.Update{}, fmt.Errorf("scorecard: read template: %w", err)
	}
	var tpl scorecardTemplate
	if err := yaml.Unmarshal(raw, &tpl); err != nil {
		return pipeline.Update{}, fmt.Errorf("scorecard: parse template: %w", err)
	}
	if len(tpl.Criteria) == 0 {
		return pipeline.Update{Messages: []string{"scorecard: template has no criteria, skipped"}}, nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Scorecard: %s\n\n| Criterion | Weight | Assessment |\n| --- | --- | --- |\n", s.Company)
	for _, c := range tpl.Criteria {
		assessment := "pending manual review"
		if a.deps.LLM != nil {
			out, err := a.deps.LLM.Complete(ctx, scorecardPrompt(s, c.Name, c.Question))
			if err == nil {
				assessment = strings.ReplaceAll(strings.TrimSpace(out), "\n", " ")
			}
		}
		fmt.Fprintf(&b, "| %s | %d | %s |\n", c.Name, c.Weight, assessment)
	}

	if err := a.deps.Run.WriteArtifact("scorecard.md", []byte(b.String())); err != nil {
		return pipeline.Update{}, fmt.Errorf("scorecard: %w", err)
	}
	return pipeline.Update{
		Messages: []string{fmt.Sprintf("scorecard: scored %d criteria", len(tpl.Criteria))},
	}, nil
}
