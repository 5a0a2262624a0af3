package textutil

import (
	"regexp"
	"sort"
	"strings"
)

var wordPattern = regexp.MustCompile(`[a-zA-Z]{3,}`)

var stopwords = map[string]struct{}{
	"the": {}, "and": {}, "but": {}, "for": {}, "with": {},
	"from": {}, "about": {}, "into": {}, "through": {}, "during": {},
	"before": {}, "after": {}, "above": {}, "below": {}, "between": {},
	"among": {}, "this": {}, "that": {}, "these": {}, "those": {},
	"myself": {}, "our": {}, "ours": {}, "ourselves": {},
	"you": {}, "your": {}, "yours": {}, "yourself": {}, "yourselves": {},
	"him": {}, "his": {}, "himself": {}, "she": {}, "her": {}, "hers": {},
	"herself": {}, "its": {}, "itself": {}, "they": {}, "them": {},
	"their": {}, "theirs": {}, "themselves": {}, "what": {}, "which": {},
	"who": {}, "whom": {}, "whose": {}, "are": {}, "was": {}, "were": {},
	"been": {}, "being": {}, "have": {}, "has": {}, "had": {}, "having": {},
	"does": {}, "did": {}, "doing": {}, "will": {}, "would": {},
	"should": {}, "could": {}, "can": {}, "may": {}, "might": {},
	"must": {}, "shall": {}, "ought": {}, "not": {},
}

// WeightedKeyword is a term with its occurrence count.
type WeightedKeyword struct {
	Term  string
	Count int
}

// ExtractKeywords returns the most frequent non-stopword terms of at least
// three letters, highest count first. Ties break alphabetically so output
// is deterministic.
func ExtractKeywords(text string, maxKeywords int) []WeightedKeyword {
	if text == "" || maxKeywords <= 0 {
		return nil
	}

	counts := make(map[string]int)
	for _, word := range wordPattern.FindAllString(strings.ToLower(text), -1) {
		if _, skip := stopwords[word]; skip {
			continue
		}
		counts[word]++
	}

	keywords := make([]WeightedKeyword, 0, len(counts))
	for term, count := range counts {
		keywords = append(keywords, WeightedKeyword{Term: term, Count: count})
	}

	sort.Slice(keywords, func(i, j int) bool {
		if keywords[i].Count != keywords[j].Count {
			return keywords[i].Count > keywords[j].Count
		}
		return keywords[i].Term < keywords[j].Term
	})

	if len(keywords) > maxKeywords {
		keywords = keywords[:maxKeywords]
	}

	return keywords
}
