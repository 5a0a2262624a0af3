package services

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neetimanthan/comment-engine/pkg/models"
)

func refsOf(clauses []*models.Clause) []string {
	refs := make([]string, 0, len(clauses))
	for _, c := range clauses {
		refs = append(refs, c.Ref)
	}
	return refs
}

func methodsOf(clauses []*models.Clause) map[string]bool {
	methods := make(map[string]bool)
	for _, c := range clauses {
		methods[c.ExtractionMethod] = true
	}
	return methods
}

func TestExtractClausesNumbered(t *testing.T) {
	content := `1. Every manufacturer shall register with the authority before placing products on the market.
2. Registration applications shall be decided within sixty days of submission.
3. The authority may suspend a registration after giving the manufacturer an opportunity to be heard.`

	clauses := ExtractClauses(content)
	require.GreaterOrEqual(t, len(clauses), 3)

	refs := refsOf(clauses)
	assert.Contains(t, refs, "1")
	assert.Contains(t, refs, "2")
	assert.Contains(t, refs, "3")
	assert.True(t, methodsOf(clauses)[models.ClauseExtractionRegex])

	for _, clause := range clauses {
		assert.Greater(t, len(clause.Text), minClauseLength)
	}
}

func TestExtractClausesSectionHeadings(t *testing.T) {
	content := `Section 8(2): The filing deadline shall be thirty days from the date of publication of the notice.
Section 9: Any person aggrieved by an order may appeal to the tribunal within ninety days.
Section 10(1)(a): The tribunal shall dispose of appeals within one hundred and eighty days.`

	clauses := ExtractClauses(content)

	refs := refsOf(clauses)
	assert.Contains(t, refs, "Section 8(2)")
	assert.Contains(t, refs, "Section 9")
	assert.Contains(t, refs, "Section 10(1)(a)")
}

func TestExtractClausesParagraphFallback(t *testing.T) {
	// No headings at all, but substantial paragraphs.
	content := "The purpose of this regulation is to protect consumers from unfair market practices.\n\n" +
		"All complaints received by the authority shall be acknowledged within seven working days of receipt.\n\n" +
		"Nothing in this regulation limits remedies available under any other law for the time being in force."

	clauses := ExtractClauses(content)
	require.GreaterOrEqual(t, len(clauses), 3)

	methods := methodsOf(clauses)
	assert.True(t, methods[models.ClauseExtractionParagraph])

	refs := refsOf(clauses)
	assert.Contains(t, refs, "Para-1")
	assert.Contains(t, refs, "Para-2")
	assert.Contains(t, refs, "Para-3")
}

func TestExtractClausesFullDocumentFallback(t *testing.T) {
	// Too short for paragraphs, no headings: the whole text becomes one clause.
	content := "Short notice with no structure."

	clauses := ExtractClauses(content)
	require.Len(t, clauses, 1)
	assert.Equal(t, "Full-Document", clauses[0].Ref)
	assert.Equal(t, models.ClauseExtractionFullDocument, clauses[0].ExtractionMethod)
	assert.Equal(t, content, clauses[0].Text)
}

func TestExtractClausesEmptyContent(t *testing.T) {
	assert.Nil(t, ExtractClauses(""))
	assert.Nil(t, ExtractClauses("   \n\t  "))
}

func TestExtractClausesTextCapped(t *testing.T) {
	long := "1. " + strings.Repeat("All provisions apply without exception. ", 200)

	clauses := ExtractClauses(long)
	require.NotEmpty(t, clauses)
	for _, clause := range clauses {
		assert.LessOrEqual(t, len([]rune(clause.Text)), maxClauseLength)
	}
}

func TestExtractClausesParagraphKeepsLeadingRef(t *testing.T) {
	para := func(ref, body string) string {
		return fmt.Sprintf("%s %s", ref, body)
	}
	content := strings.Join([]string{
		para("Section 4", "Producers shall maintain records of all transactions for a period of five years."),
		"A general statement without any locator that still carries enough substance to pass the length filter.",
	}, "\n\n")

	clauses := ExtractClauses(content)

	var paragraphRefs []string
	for _, c := range clauses {
		if c.ExtractionMethod == models.ClauseExtractionParagraph {
			paragraphRefs = append(paragraphRefs, c.Ref)
		}
	}
	assert.Contains(t, paragraphRefs, "Section 4")
	assert.Contains(t, paragraphRefs, "Para-2")
}
