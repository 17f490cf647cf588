package citations

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sectionMarket = `## Market

Funding grew 40% year over year[^1], and the company raised $12M[^2].

### Citations

[^1]: 2025-03-14. [Startup funding rebounds](https://techcrunch.com/funding). TechCrunch. Published: 2025-03-14 | Updated: N/A
[^2]: 2025-02-01. [Acme raises Series A](https://www.crunchbase.com/acme). Crunchbase. Published: 2025-02-01 | Updated: 2025-02-03
`

const sectionRisks = `## Risks

A pending SEC inquiry was disclosed in the latest filing[^1].

### Citations

[^1]: 2025-05-20. [Form D filing](https://www.sec.gov/acme). SEC. Published: 2025-05-20 | Updated: N/A
`

func TestConsolidateRenumbersAcrossSections(t *testing.T) {
	result, err := Consolidate([]SectionInput{
		{Number: 7, Slug: "risks", Body: sectionRisks},
		{Number: 2, Slug: "market", Body: sectionMarket},
	})
	require.NoError(t, err)
	assert.Empty(t, result.Issues)

	// Section 2's locals keep 1 and 2; section 7's local 1 becomes global 3.
	require.Len(t, result.Citations, 3)
	assert.Equal(t, 2, result.Citations[0].Section)
	assert.Equal(t, 1, result.Citations[0].Local)
	assert.Equal(t, 2, result.Citations[1].Local)
	assert.Equal(t, 7, result.Citations[2].Section)
	assert.Equal(t, 1, result.Citations[2].Local)
	assert.Equal(t, 3, result.Citations[2].Number)

	assert.Contains(t, result.Document, "filing[^3]")
	assert.Contains(t, result.Document, "[^3]: 2025-05-20.")
	assert.NotContains(t, result.Document, "[^3]: 2025-03-14.")

	// Exactly one citation block, at the end.
	assert.Equal(t, 1, strings.Count(result.Document, "### Citations"))
	require.NoError(t, Validate(result.Document))
}

func TestConsolidateIsIdempotent(t *testing.T) {
	first, err := Consolidate([]SectionInput{
		{Number: 2, Slug: "market", Body: sectionMarket},
		{Number: 7, Slug: "risks", Body: sectionRisks},
	})
	require.NoError(t, err)

	second, err := Consolidate([]SectionInput{
		{Number: 1, Slug: "document", Body: first.Document},
	})
	require.NoError(t, err)
	assert.Equal(t, first.Document, second.Document)
}

func TestConsolidateDeterministicOrder(t *testing.T) {
	inputs := []SectionInput{
		{Number: 7, Slug: "risks", Body: sectionRisks},
		{Number: 2, Slug: "market", Body: sectionMarket},
	}
	a, err := Consolidate(inputs)
	require.NoError(t, err)
	b, err := Consolidate([]SectionInput{inputs[1], inputs[0]})
	require.NoError(t, err)
	assert.Equal(t, a.Document, b.Document)
}

func TestConsolidateIdenticalSourcesStayDistinct(t *testing.T) {
	shared := "2025-01-01. [Same source](https://example.com/report). Example. Published: 2025-01-01 | Updated: N/A"
	result, err := Consolidate([]SectionInput{
		{Number: 1, Body: "Claim one[^1].\n\n### Citations\n\n[^1]: " + shared + "\n"},
		{Number: 2, Body: "Claim two[^1].\n\n### Citations\n\n[^1]: " + shared + "\n"},
	})
	require.NoError(t, err)
	require.Len(t, result.Citations, 2)
	assert.Equal(t, 2, strings.Count(result.Document, shared))
}

func TestConsolidateOrphanMarkerFails(t *testing.T) {
	body := "A claim with no definition[^4].\n"
	result, err := Consolidate([]SectionInput{{Number: 3, Slug: "team", Body: body}})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrIntegrity)

	// The partial result still reports the issue for display.
	require.NotNil(t, result)
	require.Len(t, result.Issues, 1)
	assert.Equal(t, IssueOrphanMarker, result.Issues[0].Kind)
	assert.Equal(t, 3, result.Issues[0].Section)
	assert.Equal(t, 4, result.Issues[0].Marker)
}

func TestConsolidateUnreferencedDefinitionWarnsAndDrops(t *testing.T) {
	body := "One cited claim[^1].\n\n### Citations\n\n" +
		"[^1]: 2025-01-01. [Used](https://a.example). A. Published: 2025-01-01 | Updated: N/A\n" +
		"[^2]: 2025-01-02. [Unused](https://b.example). B. Published: 2025-01-02 | Updated: N/A\n"

	result, err := Consolidate([]SectionInput{{Number: 1, Body: body}})
	require.NoError(t, err)
	require.Len(t, result.Issues, 1)
	assert.Equal(t, IssueUnreferencedDefinition, result.Issues[0].Kind)
	assert.NotContains(t, result.Document, "Unused")
	require.NoError(t, Validate(result.Document))
}

func TestConsolidateSwappedMarkersSinglePass(t *testing.T) {
	// First occurrence order is 2 then 1, so locals swap globals; a naive
	// sequential replace would collide.
	body := "Later source first[^2], earlier source second[^1].\n\n### Citations\n\n" +
		"[^1]: 2025-01-01. [One](https://one.example). One. Published: 2025-01-01 | Updated: N/A\n" +
		"[^2]: 2025-01-02. [Two](https://two.example). Two. Published: 2025-01-02 | Updated: N/A\n"

	result, err := Consolidate([]SectionInput{{Number: 1, Body: body}})
	require.NoError(t, err)
	assert.Contains(t, result.Document, "first[^1], earlier source second[^2]")
	assert.Contains(t, result.Document, "[^1]: 2025-01-02.")
	assert.Contains(t, result.Document, "[^2]: 2025-01-01.")
}

func TestValidateRejectsBrokenDocuments(t *testing.T) {
	assert.Error(t, Validate("Claim[^2].\n\n### Citations\n\n[^2]: x. [t](u). p. Published: x | Updated: N/A\n"))
	assert.Error(t, Validate("Claim[^1].\n"))
	assert.Error(t, Validate("No inline markers.\n\n### Citations\n\n[^1]: x. [t](u). p. Published: x | Updated: N/A\n"))
}
