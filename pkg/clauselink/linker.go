// Package clauselink matches free-text comments to the draft clauses they
// talk about. Matching is a three-tier cascade: explicit citations beat
// embedding similarity, which beats lexical overlap.
package clauselink

import (
	"sort"
	"strings"

	"github.com/neetimanthan/comment-engine/pkg/models"
)

// Match types, in cascade order.
const (
	MatchExact    = "exact"
	MatchSemantic = "semantic"
	MatchFuzzy    = "fuzzy"
)

// clauseTextPreview bounds how much clause text a match carries.
const clauseTextPreview = 200

// weakScoreCutoff triggers the fuzzy tier even when earlier tiers matched.
const weakScoreCutoff = 0.5

// Candidate is one clause the linker considers a match.
type Candidate struct {
	ClauseRef  string  `json:"clause_ref"`
	ClauseText string  `json:"clause_text"`
	Score      float64 `json:"score"`
	MatchType  string  `json:"match_type"`
}

// Result is the linker's verdict for one comment.
type Result struct {
	CandidateRefs []string    `json:"candidate_refs"`
	Matches       []Candidate `json:"matches"`
	Confidence    float64     `json:"confidence"`
}

// Linker runs the matching cascade. It is stateless and safe for
// concurrent use.
type Linker struct {
	semanticThreshold float64
	fuzzyThreshold    float64
	maxCandidates     int
}

// NewLinker creates a Linker with the given tier thresholds and candidate cap.
func NewLinker(semanticThreshold, fuzzyThreshold float64, maxCandidates int) *Linker {
	return &Linker{
		semanticThreshold: semanticThreshold,
		fuzzyThreshold:    fuzzyThreshold,
		maxCandidates:     maxCandidates,
	}
}

// Link matches a comment against a draft's clause set. The embedding is the
// comment's, used only by the semantic tier; pass nil to skip that tier.
// An empty clause set yields an empty result with confidence 0.
func (l *Linker) Link(text string, embedding []float32, clauses []*models.Clause) *Result {
	if len(clauses) == 0 {
		return &Result{CandidateRefs: []string{}, Matches: []Candidate{}, Confidence: 0}
	}

	var matches []Candidate
	var refs []string
	seenRefs := make(map[string]struct{})

	addRef := func(ref string) {
		if _, dup := seenRefs[ref]; dup {
			return
		}
		seenRefs[ref] = struct{}{}
		refs = append(refs, ref)
	}

	// Tier 1: explicit citations. A mention matches a clause when either is
	// a case-insensitive substring of the other. Short refs can over-match
	// ("8" inside "Section 8(2)(b)"); that imprecision is accepted.
	for _, mention := range ExtractReferences(text) {
		mentionLower := strings.ToLower(mention)
		for _, clause := range clauses {
			refLower := strings.ToLower(clause.Ref)
			if strings.Contains(refLower, mentionLower) || strings.Contains(mentionLower, refLower) {
				matches = append(matches, Candidate{
					ClauseRef:  clause.Ref,
					ClauseText: previewText(clause.Text),
					Score:      1.0,
					MatchType:  MatchExact,
				})
				addRef(clause.Ref)
			}
		}
	}

	// Tier 2: embedding similarity, only when no citation matched.
	if len(matches) == 0 {
		semantic := l.semanticCandidates(embedding, clauses)
		matches = append(matches, semantic...)
		for _, c := range semantic {
			addRef(c.ClauseRef)
		}
	}

	// Tier 3: lexical overlap, when nothing matched or the best match is weak.
	if len(matches) == 0 || bestScore(matches) < weakScoreCutoff {
		fuzzy := l.fuzzyCandidates(text, clauses)
		matches = append(matches, fuzzy...)
		for _, c := range fuzzy {
			addRef(c.ClauseRef)
		}
	}

	confidence := bestScore(matches)
	if confidence > 1.0 {
		confidence = 1.0
	}

	if len(matches) > l.maxCandidates {
		matches = matches[:l.maxCandidates]
	}
	if len(refs) > l.maxCandidates {
		refs = refs[:l.maxCandidates]
	}
	if refs == nil {
		refs = []string{}
	}
	if matches == nil {
		matches = []Candidate{}
	}

	return &Result{
		CandidateRefs: refs,
		Matches:       matches,
		Confidence:    confidence,
	}
}

func (l *Linker) semanticCandidates(embedding []float32, clauses []*models.Clause) []Candidate {
	if len(embedding) == 0 {
		return nil
	}

	var candidates []Candidate
	for _, clause := range clauses {
		if len(clause.Embedding) == 0 {
			continue
		}
		similarity := CosineSimilarity(embedding, clause.Embedding)
		if similarity > l.semanticThreshold {
			candidates = append(candidates, Candidate{
				ClauseRef:  clause.Ref,
				ClauseText: previewText(clause.Text),
				Score:      similarity,
				MatchType:  MatchSemantic,
			})
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
	if len(candidates) > l.maxCandidates {
		candidates = candidates[:l.maxCandidates]
	}

	return candidates
}

func (l *Linker) fuzzyCandidates(text string, clauses []*models.Clause) []Candidate {
	var candidates []Candidate
	for _, clause := range clauses {
		similarity := jaccardSimilarity(text, clause.Text)
		if similarity > l.fuzzyThreshold {
			candidates = append(candidates, Candidate{
				ClauseRef:  clause.Ref,
				ClauseText: previewText(clause.Text),
				Score:      similarity,
				MatchType:  MatchFuzzy,
			})
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
	if len(candidates) > l.maxCandidates {
		candidates = candidates[:l.maxCandidates]
	}

	return candidates
}

func bestScore(candidates []Candidate) float64 {
	best := 0.0
	for _, c := range candidates {
		if c.Score > best {
			best = c.Score
		}
	}
	return best
}

func previewText(text string) string {
	if len(text) > clauseTextPreview {
		return text[:clauseTextPreview] + "..."
	}
	return text
}
