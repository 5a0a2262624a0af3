// Package textutil provides text normalization, keyword extraction and
// lightweight language detection shared by the linker and the keyword job.
package textutil

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	multiSpacePattern   = regexp.MustCompile(`\s+`)
	sentenceGapPattern  = regexp.MustCompile(`([.!?])\s*([A-Z])`)
	punctuationPattern  = regexp.MustCompile(`([,;:])\s*`)
	nonSpacePattern     = regexp.MustCompile(`\S`)
	latinCharPattern    = regexp.MustCompile(`[a-zA-Z]`)
	devanagariPattern   = regexp.MustCompile("[ऀ-ॿ]")
	arabicScriptPattern = regexp.MustCompile("[؀-ۿ]")
)

// Normalize prepares free text for matching and storage: NFKC folding,
// whitespace collapse and punctuation spacing fixes.
func Normalize(text string) string {
	if text == "" {
		return ""
	}

	text = norm.NFKC.String(text)
	text = multiSpacePattern.ReplaceAllString(text, " ")
	text = sentenceGapPattern.ReplaceAllString(text, "$1 $2")
	text = punctuationPattern.ReplaceAllString(text, "$1 ")

	return strings.TrimSpace(text)
}

// CleanForDisplay normalizes and truncates text for UI contexts.
func CleanForDisplay(text string, maxLength int) string {
	if text == "" {
		return ""
	}

	text = Normalize(text)
	if maxLength > 3 && len(text) > maxLength {
		text = text[:maxLength-3] + "..."
	}

	return text
}

// DetectLanguage guesses the language of text from its script makeup.
// Returns a two-letter code or "unknown".
func DetectLanguage(text string) string {
	if text == "" {
		return "unknown"
	}

	total := len(nonSpacePattern.FindAllString(text, -1))
	if total == 0 {
		return "unknown"
	}

	latin := len(latinCharPattern.FindAllString(text, -1))
	devanagari := len(devanagariPattern.FindAllString(text, -1))
	arabic := len(arabicScriptPattern.FindAllString(text, -1))

	switch {
	case float64(devanagari)/float64(total) > 0.3:
		return "hi"
	case float64(arabic)/float64(total) > 0.3:
		return "ur"
	case float64(latin)/float64(total) > 0.7:
		return "en"
	default:
		return "unknown"
	}
}
