package services

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/neetimanthan/comment-engine/pkg/clauselink"
	"github.com/neetimanthan/comment-engine/pkg/models"
)

// Clause extraction limits. Very short fragments are headings or noise, and
// clause text is capped so embeddings stay bounded.
const (
	minClauseLength    = 20
	minParagraphLength = 50
	maxClauseLength    = 2000

	// minRegexClauses is the point below which regex extraction is considered
	// to have failed and paragraph splitting kicks in.
	minRegexClauses = 3
)

// clauseHeadingPatterns locate clause boundaries in regulatory text. Each
// pattern is applied independently; a clause's text runs from its heading to
// the next heading of the same pattern.
var clauseHeadingPatterns = []*regexp.Regexp{
	// Numbered clauses at line start: "1. ", "2. "
	regexp.MustCompile(`(?m)^[ \t]*(\d+)\.[ \t]+`),
	// Lettered or roman sub-clauses at line start: "(a) ", "(iv) "
	regexp.MustCompile(`(?m)^[ \t]*\(([a-z]+)\)[ \t]+`),
	// Section headings: "Section 8(2)(b):"
	regexp.MustCompile(`(?i)(Section\s+\d+(?:\(\d+\))*(?:\([a-z]+\))*)\s*[:\-]?`),
	// Rule headings: "Rule 8(2)"
	regexp.MustCompile(`(?i)(Rule\s+\d+(?:\(\d+\))*(?:\([a-z]+\))*)\s*[:\-]?`),
	// Chapter and Part headings with roman numerals.
	regexp.MustCompile(`(?i)(Chapter\s+[IVX]+|Part\s+[IVX]+)\s*[:\-]?`),
}

// paragraphRefPattern pulls a locator off the front of a paragraph when the
// paragraph fallback runs.
var paragraphRefPattern = regexp.MustCompile(`^(\d+\.|\([a-z]+\)|Section\s+\d+|Rule\s+\d+)`)

// ExtractClauses splits draft content into locatable clauses. Three
// strategies in order: heading patterns, paragraph splitting when patterns
// find too little, and a single whole-document clause as the last resort.
// The returned clauses carry no embeddings; callers attach them.
func ExtractClauses(content string) []*models.Clause {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil
	}

	clauses := extractByHeadings(content)

	if len(clauses) < minRegexClauses {
		clauses = append(clauses, extractByParagraphs(content)...)
	}

	if len(clauses) == 0 {
		clauses = append(clauses, &models.Clause{
			Ref:              "Full-Document",
			Text:             truncateRunes(content, maxClauseLength),
			ExtractionMethod: models.ClauseExtractionFullDocument,
		})
	}

	return clauses
}

func extractByHeadings(content string) []*models.Clause {
	var clauses []*models.Clause
	for _, pattern := range clauseHeadingPatterns {
		matches := pattern.FindAllStringSubmatchIndex(content, -1)
		for i, match := range matches {
			// match[2:4] is the ref capture, match[1] the heading end.
			ref := strings.TrimSpace(content[match[2]:match[3]])

			end := len(content)
			if i+1 < len(matches) {
				end = matches[i+1][0]
			}
			text := strings.TrimSpace(content[match[1]:end])
			if len(text) <= minClauseLength {
				continue
			}

			clauses = append(clauses, &models.Clause{
				Ref:              clauselink.NormalizeReference(ref),
				Text:             truncateRunes(text, maxClauseLength),
				ExtractionMethod: models.ClauseExtractionRegex,
			})
		}
	}
	return clauses
}

func extractByParagraphs(content string) []*models.Clause {
	var clauses []*models.Clause
	for i, paragraph := range strings.Split(content, "\n\n") {
		paragraph = strings.TrimSpace(paragraph)
		if len(paragraph) <= minParagraphLength {
			continue
		}

		ref := fmt.Sprintf("Para-%d", i+1)
		if m := paragraphRefPattern.FindString(paragraph); m != "" {
			ref = clauselink.NormalizeReference(m)
		}

		clauses = append(clauses, &models.Clause{
			Ref:              ref,
			Text:             truncateRunes(paragraph, maxClauseLength),
			ExtractionMethod: models.ClauseExtractionParagraph,
		})
	}
	return clauses
}

func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
