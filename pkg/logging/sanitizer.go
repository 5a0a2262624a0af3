package logging

import (
	"regexp"
)

const (
	// MaxTextLogLength is the maximum length of comment text to log.
	MaxTextLogLength = 120
	// RedactedText is the replacement text for sensitive data.
	RedactedText = "[REDACTED]"
)

var (
	// Pattern to match potential passwords in connection strings
	// Matches: password=xxx, pwd=xxx, pass=xxx (until next delimiter)
	passwordPattern = regexp.MustCompile(`(?i)(password|pwd|pass)=[^;&\s]+`)

	// Pattern to match connection string credentials (user:pass@host format)
	connStringPattern = regexp.MustCompile(`://[^:]+:[^@]+@[^/\s]+`)

	// Comment text can carry PII that the ingest service has not masked yet.
	// These mirror the masking patterns of the ingest tool so that raw text
	// never reaches the logs even before ingest runs.
	emailPattern = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
	phonePattern = regexp.MustCompile(`(?:\+91|91)?[-.\s]?[6-9]\d{9}`)
)

// SanitizeConnectionString removes credentials from connection strings.
// Use this before logging any connection string.
func SanitizeConnectionString(connStr string) string {
	if connStr == "" {
		return ""
	}

	sanitized := passwordPattern.ReplaceAllString(connStr, "${1}="+RedactedText)
	sanitized = connStringPattern.ReplaceAllString(sanitized, "://"+RedactedText+"@"+RedactedText)

	return sanitized
}

// SanitizeError sanitizes error messages that might contain sensitive data.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}

	errStr := err.Error()
	sanitized := passwordPattern.ReplaceAllString(errStr, "${1}="+RedactedText)
	sanitized = connStringPattern.ReplaceAllString(sanitized, "://"+RedactedText+"@"+RedactedText)

	return sanitized
}

// SanitizeCommentText masks PII patterns and truncates comment text for logging.
// The pipeline logs lengths rather than bodies in the hot path; this is for the
// few places (intake validation, debug) where a snippet is genuinely useful.
func SanitizeCommentText(text string) string {
	if text == "" {
		return ""
	}

	sanitized := emailPattern.ReplaceAllString(text, "[EMAIL]")
	sanitized = phonePattern.ReplaceAllString(sanitized, "[PHONE]")

	if len(sanitized) > MaxTextLogLength {
		sanitized = sanitized[:MaxTextLogLength] + "..."
	}

	return sanitized
}
