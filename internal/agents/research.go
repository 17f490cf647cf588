package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/dusk-indust/memogen/internal/pipeline"
	"github.com/dusk-indust/memogen/internal/store"
)

// Researcher queries the web-research provider once per outline section and
// collects findings with their sources. Each query is isolated: one failed
// query degrades the research, only total failure halts the run.
type Researcher struct {
	deps Deps
}

func NewResearcher(d Deps) *Researcher {
	return &Researcher{deps: d}
}

func (a *Researcher) ID() pipeline.StageID { return pipeline.StageResearch }

func (a *Researcher) Critical() bool { return true }

func (a *Researcher) Run(ctx context.Context, s *pipeline.State) (pipeline.Update, error) {
	if a.deps.Search == nil {
		// Degraded mode is deliberate: downstream stages handle empty
		// research, and the validator knows what a template run looks like.
		data := &pipeline.ResearchData{}
		if err := a.writeResearch(data); err != nil {
			return pipeline.Update{}, err
		}
		return pipeline.Update{
			Research: data,
			Messages: []string{"research: no provider configured, proceeding with empty research"},
		}, nil
	}

	data := &pipeline.ResearchData{}
	var failures int
	for _, def := range a.deps.Registry.Sections {
		query := fmt.Sprintf("%s %s", s.Company, strings.ToLower(def.Name))
		resp, err := a.deps.Search.Search(ctx, query)
		if err != nil {
			failures++
			a.deps.Log.Warn("research query failed", zap.String("query", query), zap.Error(err))
			continue
		}

		finding := pipeline.Finding{Topic: def.Name, Content: resp.Answer}
		var snippets []string
		for _, r := range resp.Results {
			finding.Sources = append(finding.Sources, pipeline.SourceRef{
				Title:         r.Title,
				URL:           r.URL,
				Publisher:     publisherFromURL(r.URL),
				PublishedDate: r.PublishedDate,
			})
			if r.Content != "" {
				snippets = append(snippets, r.Content)
			}
		}
		if finding.Content == "" {
			finding.Content = strings.Join(snippets, "\n\n")
		}
		data.Findings = append(data.Findings, finding)

		// Partial progress survives interruption of a long research pass.
		if err := a.writeResearch(data); err != nil {
			return pipeline.Update{}, err
		}
	}

	if len(data.Findings) == 0 {
		return pipeline.Update{}, fmt.Errorf("research: all %d queries failed", failures)
	}

	if a.deps.LLM != nil {
		summary, err := a.deps.LLM.Complete(ctx, researchSummaryPrompt(s.Company, data))
		if err != nil {
			a.deps.Log.Warn("research summary failed", zap.Error(err))
		} else {
			data.Summary = summary
		}
	}
	if err := a.writeResearch(data); err != nil {
		return pipeline.Update{}, err
	}

	msg := fmt.Sprintf("research: %d findings collected", len(data.Findings))
	if failures > 0 {
		msg += fmt.Sprintf(" (%d queries failed)", failures)
	}
	return pipeline.Update{Research: data, Messages: []string{msg}}, nil
}

func (a *Researcher) writeResearch(data *pipeline.ResearchData) error {
	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("research: marshal: %w", err)
	}
	if err := a.deps.Run.WriteArtifact(store.ResearchJSON, raw); err != nil {
		return err
	}

	var md strings.Builder
	md.WriteString("# Research\n\n")
	if data.Summary != "" {
		md.WriteString(data.Summary + "\n\n")
	}
	for _, f := range data.Findings {
		fmt.Fprintf(&md, "## %s\n\n%s\n\n", f.Topic, f.Content)
		for _, src := range f.Sources {
			fmt.Fprintf(&md, "- [%s](%s) — %s %s\n", src.Title, src.URL, src.Publisher, src.PublishedDate)
		}
		md.WriteString("\n")
	}
	return a.deps.Run.WriteArtifact(store.ResearchMD, []byte(md.String()))
}

// publisherFromURL derives a displayable publisher name from a source URL's
// host.
func publisherFromURL(url string) string {
	host := url
	if i := strings.Index(host, "://"); i >= 0 {
		host = host[i+3:]
	}
	if i := strings.IndexAny(host, "/?"); i >= 0 {
		host = host[:i]
	}
	return strings.TrimPrefix(host, "www.")
}
