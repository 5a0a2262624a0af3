package clauselink

import (
	"regexp"
	"strings"
)

// referencePattern is one way a comment can cite a clause. Two-group
// patterns are reassembled as "group1(group2)".
type referencePattern struct {
	re     *regexp.Regexp
	groups int
}

var referencePatterns = []referencePattern{
	// Section 8, Rule 8(2), Chapter 4(a), Part 2(1)(b)
	{regexp.MustCompile(`(?i)(?:section|rule|chapter|part)\s+(\d+(?:\(\d+\))*(?:\([a-z]+\))*)`), 1},
	// Clause 3, Para 4.1, Paragraph 2.3.1
	{regexp.MustCompile(`(?i)(?:clause|para|paragraph)\s+(\d+(?:\.\d+)*)`), 1},
	// Bare dotted numbers like 8.2.1
	{regexp.MustCompile(`\b(\d+\.\d+(?:\.\d+)*)\b`), 1},
	// (2)(b)
	{regexp.MustCompile(`\((\d+)\)\(([a-z]+)\)`), 2},
	// 8(b)
	{regexp.MustCompile(`\b(\d+\([a-z]+\))`), 1},
}

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	sectionPrefix = regexp.MustCompile(`(?i)section\s+`)
	rulePrefix    = regexp.MustCompile(`(?i)rule\s+`)
	chapterPrefix = regexp.MustCompile(`(?i)chapter\s+`)
	partPrefix    = regexp.MustCompile(`(?i)part\s+`)
)

// ExtractReferences pulls explicit clause citations out of free text,
// normalized and deduplicated in order of first occurrence.
func ExtractReferences(text string) []string {
	var refs []string
	seen := make(map[string]struct{})

	for _, p := range referencePatterns {
		for _, match := range p.re.FindAllStringSubmatch(text, -1) {
			var ref string
			switch p.groups {
			case 1:
				ref = match[1]
			case 2:
				ref = match[1] + "(" + match[2] + ")"
			default:
				ref = match[0]
			}

			ref = NormalizeReference(ref)
			if ref == "" {
				continue
			}
			if _, dup := seen[ref]; dup {
				continue
			}
			seen[ref] = struct{}{}
			refs = append(refs, ref)
		}
	}

	return refs
}

// NormalizeReference collapses whitespace and gives keyword prefixes
// canonical casing ("section 8" becomes "Section 8").
func NormalizeReference(ref string) string {
	ref = whitespaceRun.ReplaceAllString(strings.TrimSpace(ref), " ")
	if ref == "" {
		return ""
	}

	ref = sectionPrefix.ReplaceAllString(ref, "Section ")
	ref = rulePrefix.ReplaceAllString(ref, "Rule ")
	ref = chapterPrefix.ReplaceAllString(ref, "Chapter ")
	ref = partPrefix.ReplaceAllString(ref, "Part ")

	return ref
}
