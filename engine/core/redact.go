package core

import (
	"regexp"
	"strings"
)

var (
	bearerRe     = regexp.MustCompile(`(?i)(bearer\s+)[A-Za-z0-9\-\._~\+\/]+=*`)
	secretKVRe   = regexp.MustCompile(`(?i)(api[_-]?key|apikey|token|secret|password|authorization)\s*[:=]\s*["']?[^"'\s,}]+["']?`)
	connectionRe = regexp.MustCompile(`(?i)((postgres|postgresql|redis|rediss|https?)://)[^@\s/]+@`)
	jwtRe        = regexp.MustCompile(`\beyJ[A-Za-z0-9_\-]+\.eyJ[A-Za-z0-9_\-]+\.[A-Za-z0-9_\-]+\b`)
	emailRe      = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
	phoneRe      = regexp.MustCompile(`\+?\d[\d\s\-()]{7,}\d`)
)

const maxRedactedLen = 256

// RedactString scrubs credentials and contact details from log strings and
// truncates the result.
func RedactString(s string) string {
	s = strings.TrimSpace(s)
	s = jwtRe.ReplaceAllString(s, "[JWT_REDACTED]")
	s = connectionRe.ReplaceAllString(s, "$1[REDACTED]@")
	s = bearerRe.ReplaceAllString(s, "$1[REDACTED]")
	s = secretKVRe.ReplaceAllString(s, "$1=[REDACTED]")
	s = emailRe.ReplaceAllString(s, "[EMAIL_REDACTED]")
	s = phoneRe.ReplaceAllString(s, "[PHONE_REDACTED]")
	if len(s) > maxRedactedLen {
		s = s[:maxRedactedLen] + "…"
	}
	return s
}

// RedactError applies RedactString to err.
func RedactError(err error) string {
	if err == nil {
		return ""
	}
	return RedactString(err.Error())
}
