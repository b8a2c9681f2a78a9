package utils

import "regexp"

var (
	emailRegex = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	ssnRegex   = regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`)
	phoneRegex = regexp.MustCompile(`\b(?:\+?1[\s\-.]?)?\(?\d{3}\)?[\s\-.]?\d{3}[\s\-.]?\d{4}\b`)
)

// RedactPII substitutes email, SSN and phone patterns before the question
// enters the pipeline. SSN runs before phone so the broader phone pattern
// cannot eat part of an SSN.
func RedactPII(text string) string {
	text = emailRegex.ReplaceAllString(text, "[EMAIL]")
	text = ssnRegex.ReplaceAllString(text, "[SSN]")
	text = phoneRegex.ReplaceAllString(text, "[PHONE]")
	return text
}
