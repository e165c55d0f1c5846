// Package filter decides which lines are eligible for annotation.
package filter

import (
	"strings"
	"unicode/utf8"

	"go.ntppool.org/roast/config"
)

// Eligible reports whether raw may be annotated in contextID. A line is
// eligible when the context isn't ignored, the trimmed line has at least
// cfg.MinLineLength characters and it doesn't look like a comment.
func Eligible(raw, contextID string, cfg config.Config) bool {
	return EligibleTrimmed(strings.TrimSpace(raw), contextID, cfg)
}

// EligibleTrimmed is Eligible for a line that is already trimmed.
func EligibleTrimmed(trimmed, contextID string, cfg config.Config) bool {
	if cfg.Ignores(contextID) {
		return false
	}
	if utf8.RuneCountInString(trimmed) < cfg.MinLineLength {
		return false
	}
	return !IsComment(trimmed, contextID)
}
