package redact

import (
	"regexp"
	"strings"
	"sync/atomic"
)

var enabled atomic.Bool

var (
	emailRe = regexp.MustCompile(`(?i)[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}`)
	phoneRe = regexp.MustCompile(`\b\+?\d[\d\s\-]{7,}\d\b`)
)

// SetEnabled toggles PII redaction for log output.
func SetEnabled(v bool) {
	enabled.Store(v)
}

// Enabled returns true when redaction is active.
func Enabled() bool {
	return enabled.Load()
}

// Text redacts emails and phone numbers when enabled. Caller transcripts and
// lead fields pass through here before they reach a log line.
func Text(in string) string {
	if !enabled.Load() || strings.TrimSpace(in) == "" {
		return in
	}
	out := emailRe.ReplaceAllString(in, "[REDACTED_EMAIL]")
	out = phoneRe.ReplaceAllString(out, "[REDACTED_PHONE]")
	return out
}

// Phone masks a normalized phone number down to its trailing digits, keeping
// enough to correlate a lead with intake-side records.
func Phone(in string) string {
	if !enabled.Load() {
		return in
	}
	digits := 0
	for _, r := range in {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	if digits <= 3 {
		return in
	}
	keep := 3
	var b strings.Builder
	seen := 0
	for _, r := range in {
		if r >= '0' && r <= '9' {
			seen++
			if seen <= digits-keep {
				b.WriteRune('*')
				continue
			}
		}
		b.WriteRune(r)
	}
	return b.String()
}
