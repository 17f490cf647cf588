package correct

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/dusk-indust/memogen/internal/llm"
)

// Matcher derives the semantic variants of a stale value: the other ways
// prose might spell the same fact. The contract is loose on purpose — a
// matcher returns candidate strings, the engine decides what to do with
// them. Variants never include the value itself.
type Matcher interface {
	Variants(ctx context.Context, incorrect string) ([]string, error)
}

// ExactMatcher matches the literal value only.
type ExactMatcher struct{}

func (ExactMatcher) Variants(context.Context, string) ([]string, error) {
	return nil, nil
}

// moneyValueRe decomposes a shorthand dollar amount like "$50M" or "$1.2B".
var moneyValueRe = regexp.MustCompile(`^\$(\d+(?:\.\d+)?)\s?([MBK])$`)

// unitWords maps shorthand unit letters to their spelled-out forms.
var unitWords = map[string]string{
	"K": "thousand",
	"M": "million",
	"B": "billion",
}

// NumericMatcher expands dollar shorthand into its common prose spellings,
// so "$50M" also matches "$50 million" and "50 million dollars". Values it
// does not recognize get no variants.
type NumericMatcher struct{}

func (NumericMatcher) Variants(_ context.Context, incorrect string) ([]string, error) {
	m := moneyValueRe.FindStringSubmatch(strings.TrimSpace(incorrect))
	if m == nil {
		return nil, nil
	}
	amount, unit := m[1], unitWords[m[2]]
	return []string{
		fmt.Sprintf("$%s %s", amount, unit),
		fmt.Sprintf("%s %s dollars", amount, unit),
		fmt.Sprintf("$%sMM", amount),
	}, nil
}

// LLMMatcher asks the model for additional spellings, one per line, on top
// of whatever the inner matcher derives. Lines equal to the original value
// are discarded.
type LLMMatcher struct {
	Client llm.Client
	Inner  Matcher
}

func (m LLMMatcher) Variants(ctx context.Context, incorrect string) ([]string, error) {
	var variants []string
	if m.Inner != nil {
		inner, err := m.Inner.Variants(ctx, incorrect)
		if err != nil {
			return nil, err
		}
		variants = inner
	}

	out, err := m.Client.Complete(ctx, llm.Prompt{
		System: "You rewrite facts for a document correction tool.",
		User: fmt.Sprintf("List alternative spellings of the value %q as it might appear in prose "+
			"(unit variants, spelled-out numbers). One per line, no commentary. Reply 'none' if there are none.",
			incorrect),
	})
	if err != nil {
		return nil, fmt.Errorf("correct: variant matcher: %w", err)
	}

	seen := map[string]bool{incorrect: true}
	for _, v := range variants {
		seen[v] = true
	}
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "-"))
		if line == "" || strings.EqualFold(line, "none") || seen[line] {
			continue
		}
		seen[line] = true
		variants = append(variants, line)
	}
	return variants, nil
}
