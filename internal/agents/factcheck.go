package agents

import (
	"context"
	"fmt"
	"regexp"

	"github.com/dusk-indust/memogen/internal/citations"
	"github.com/dusk-indust/memogen/internal/pipeline"
)

// numericClaimRe matches the quantitative claims a memo lives or dies on:
// dollar amounts, percentages, and multiples.
var numericClaimRe = regexp.MustCompile(`\$\d[\d,.]*\s?(?:[MBK]\b|million|billion)?|\d[\d,.]*\s?%|\d+(?:\.\d+)?x\b`)

// FactChecker flags numeric claims that carry no citation marker in their
// sentence. It never edits prose; an uncited figure is a reviewer's call,
// not a machine's.
type FactChecker struct {
	deps Deps
}

func NewFactChecker(d Deps) *FactChecker {
	return &FactChecker{deps: d}
}

func (a *FactChecker) ID() pipeline.StageID { return pipeline.StageFactCheck }
func (a *FactChecker) Critical() bool       { return false }

func (a *FactChecker) Run(_ context.Context, s *pipeline.State) (pipeline.Update, error) {
	var msgs []string
	uncited := 0

	for _, n := range sortedSectionNumbers(s) {
		sec := s.Sections[n]
		prose, _ := citations.Split(sec.Body)
		for _, sentence := range splitSentences(prose) {
			claims := numericClaimRe.FindAllString(sentence, -1)
			if len(claims) == 0 || len(citations.Markers(sentence)) > 0 {
				continue
			}
			uncited += len(claims)
			msgs = append(msgs, fmt.Sprintf("fact_check: section %d (%s): uncited figure %q",
				sec.Number, sec.Slug, claims[0]))
		}
	}

	msgs = append(msgs, fmt.Sprintf("fact_check: %d uncited numeric claims", uncited))
	return pipeline.Update{Messages: msgs}, nil
}

// sentenceEndRe splits on terminal punctuation followed by whitespace. Good
// enough for flagging; precision matters less than not missing claims.
var sentenceEndRe = regexp.MustCompile(`(?m)[.!?](?:\s+|$)`)

func splitSentences(prose string) []string {
	return sentenceEndRe.Split(prose, -1)
}
