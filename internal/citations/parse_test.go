package citations

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitTakesLastHeading(t *testing.T) {
	body := "Prose mentions a ### Citations block in passing.\n\n" +
		"### Citations\n\nnot really the block\n\n" +
		"### Citations\n\n[^1]: raw\n"
	prose, block := Split(body)
	assert.Contains(t, prose, "not really the block")
	assert.Equal(t, "### Citations\n\n[^1]: raw\n", block)

	prose, block = Split("no block here\n")
	assert.Equal(t, "no block here\n", prose)
	assert.Empty(t, block)
}

func TestParseDefinitionsRejectsDuplicates(t *testing.T) {
	defs, err := ParseDefinitions("### Citations\n\n[^1]: first\n[^2]: second\n")
	require.NoError(t, err)
	require.Len(t, defs, 2)
	assert.Equal(t, 1, defs[0].Marker)
	assert.Equal(t, "first", defs[0].Raw)

	_, err = ParseDefinitions("[^1]: first\n[^1]: again\n")
	assert.Error(t, err)
}

func TestFirstOccurrenceDeduplicates(t *testing.T) {
	assert.Equal(t, []int{3, 1, 2}, FirstOccurrence("a[^3] b[^1] c[^3] d[^2] e[^1]"))
	assert.Empty(t, FirstOccurrence("no markers"))
}

func TestSourceRoundTrip(t *testing.T) {
	raw := "2025-03-14. [Startup funding rebounds](https://techcrunch.com/funding). TechCrunch. Published: 2025-03-14 | Updated: N/A"
	src, err := ParseSource(raw)
	require.NoError(t, err)
	assert.Equal(t, "Startup funding rebounds", src.Title)
	assert.Equal(t, "https://techcrunch.com/funding", src.URL)
	assert.Equal(t, "TechCrunch", src.Publisher)
	assert.Equal(t, "N/A", src.Updated)
	assert.Equal(t, raw, FormatSource(*src))

	_, err = ParseSource("just some text")
	assert.Error(t, err)
}

func TestParseSourceAcceptsBlankUpdatedField(t *testing.T) {
	// Drafting stages emit a bare "Updated:" when no update date is known;
	// the line must still parse so normalization can substitute N/A.
	src, err := ParseSource("2025-03-14. [Funding](https://example.com/f). Axios. Published: 2025-03-14 | Updated: ")
	require.NoError(t, err)
	assert.Empty(t, src.Updated)

	src, err = ParseSource("2025-03-14. [Funding](https://example.com/f). Axios. Published: 2025-03-14 | Updated:")
	require.NoError(t, err)
	assert.Empty(t, src.Updated)
}
