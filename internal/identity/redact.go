// File: internal/identity/redact.go
package identity

import (
	"strings"
	"unicode/utf8"
)

const (
	redactedMarker  = "[REDACTED]"
	maxDetailsBytes = 512
)

// Redactor scrubs configured secret values out of text that is about to leave the process.
type Redactor struct {
	replacer *strings.Replacer
}

// NewRedactor ignores empty secrets.
func NewRedactor(secrets ...string) *Redactor {
	var pairs []string
	for _, s := range secrets {
		if s = strings.TrimSpace(s); s != "" {
			pairs = append(pairs, s, redactedMarker)
		}
	}
	if len(pairs) == 0 {
		return &Redactor{}
	}
	return &Redactor{replacer: strings.NewReplacer(pairs...)}
}

// Redact replaces every secret occurrence and truncates the result to a bounded size.
func (r *Redactor) Redact(text string) string {
	if r != nil && r.replacer != nil {
		text = r.replacer.Replace(text)
	}
	if len(text) <= maxDetailsBytes {
		return text
	}
	cut := maxDetailsBytes
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut] + "..."
}
