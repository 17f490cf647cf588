package agents

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dusk-indust/memogen/internal/llm"
	"github.com/dusk-indust/memogen/internal/outline"
	"github.com/dusk-indust/memogen/internal/pipeline"
)

// Prompt builders for the LLM-backed agents. The wording here is a working
// baseline, not a tuned artifact; agents only depend on the structural
// contract (section headings, [^N] markers, the "### Citations" block).

const memoSystem = "You are an investment analyst drafting sections of an internal investment memo. " +
	"Write precise, sourced markdown. Cite sources inline with [^N] markers, numbering from 1 within " +
	"the section, and end the section with a '### Citations' block where each line has the form " +
	"'[^N]: <date>. [<title>](<url>). <publisher>. Published: <date> | Updated: <date-or-N/A>'."

func deckSummaryPrompt(company string, deck *pipeline.DeckData) llm.Prompt {
	var b strings.Builder
	fmt.Fprintf(&b, "Summarize the key claims of this pitch deck for %s in one paragraph.\n\n", company)
	for _, p := range deck.Pages {
		fmt.Fprintf(&b, "--- page %d ---\n%s\n", p.Number, p.Text)
	}
	return llm.Prompt{System: memoSystem, User: b.String()}
}

func researchSummaryPrompt(company string, data *pipeline.ResearchData) llm.Prompt {
	var b strings.Builder
	fmt.Fprintf(&b, "Summarize the research below about %s in one paragraph for an investment memo.\n\n", company)
	for _, f := range data.Findings {
		fmt.Fprintf(&b, "### %s\n%s\n\n", f.Topic, f.Content)
	}
	return llm.Prompt{System: memoSystem, User: b.String()}
}

func sectionPrompt(s *pipeline.State, def outline.Section, draft string) llm.Prompt {
	var b strings.Builder
	fmt.Fprintf(&b, "Write section %d (%s) of the %s investment memo for %s, in %s mode.\n",
		def.Number, def.Name, s.InvestmentType, s.Company, s.Mode)
	if def.TargetWords > 0 {
		fmt.Fprintf(&b, "Target length: about %d words.\n", def.TargetWords)
	}
	if len(def.GuidingQuestions) > 0 {
		b.WriteString("Answer these questions:\n")
		for _, q := range def.GuidingQuestions {
			b.WriteString("- " + q + "\n")
		}
	}
	if draft != "" {
		b.WriteString("\nInitial draft from the pitch deck:\n\n" + draft + "\n")
	}
	if s.Research != nil {
		b.WriteString("\nResearch findings:\n\n")
		for _, f := range s.Research.Findings {
			fmt.Fprintf(&b, "### %s\n%s\n", f.Topic, f.Content)
			for _, src := range f.Sources {
				fmt.Fprintf(&b, "- source: %s (%s) %s %s\n", src.Title, src.URL, src.Publisher, src.PublishedDate)
			}
		}
	}
	fmt.Fprintf(&b, "\nStart the section with the heading '## %d. %s'.\n", def.Number, def.Name)
	return llm.Prompt{System: memoSystem, User: b.String()}
}

func revisePrompt(s *pipeline.State, def outline.Section, body string, problems []string) llm.Prompt {
	var b strings.Builder
	fmt.Fprintf(&b, "Revise section %d (%s) of the investment memo for %s.\n", def.Number, def.Name, s.Company)
	b.WriteString("Problems found by validation:\n")
	for _, p := range problems {
		b.WriteString("- " + p + "\n")
	}
	b.WriteString("\nPreserve all citation markers and the citation block unless a problem names them.\n")
	b.WriteString("\nCurrent section:\n\n" + body + "\n")
	return llm.Prompt{System: memoSystem, User: b.String()}
}

func trademarkPrompt(company, body string) llm.Prompt {
	return llm.Prompt{
		System: memoSystem,
		User: fmt.Sprintf("List registered trademarks and brand names belonging to %s that appear in the "+
			"following text, one per line, or reply 'none'.\n\n%s", company, body),
	}
}

func scorecardPrompt(s *pipeline.State, criterion, question string) llm.Prompt {
	var b strings.Builder
	fmt.Fprintf(&b, "Assess %s against the scorecard criterion %q.\n", s.Company, criterion)
	if question != "" {
		b.WriteString("Guiding question: " + question + "\n")
	}
	b.WriteString("Answer in one sentence using the memo sections below. Do not add citation markers.\n\n")
	for _, n := range sortedSectionNumbers(s) {
		b.WriteString(s.Sections[n].Body + "\n\n")
	}
	return llm.Prompt{System: memoSystem, User: b.String()}
}

func sortedSectionNumbers(s *pipeline.State) []int {
	nums := make([]int, 0, len(s.Sections))
	for n := range s.Sections {
		nums = append(nums, n)
	}
	sort.Ints(nums)
	return nums
}
