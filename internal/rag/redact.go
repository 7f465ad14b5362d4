package rag

import "regexp"

const redacted = "[REDACTED]"

var redactPatterns = []*regexp.Regexp{
	regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`),
	regexp.MustCompile(`(?:\+\d{1,3}[\s.\-]?)?\(?\d{3}\)?[\s.\-]?\d{3}[\s.\-]\d{4}\b`),
	regexp.MustCompile(`\b\d{6,}\b`),
}

// redact masks email addresses, phone numbers and long digit runs.
func redact(s string) string {
	for _, re := range redactPatterns {
		s = re.ReplaceAllString(s, redacted)
	}
	return s
}
