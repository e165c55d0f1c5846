// Package session runs one annotation pass over a text snapshot.
package session

import (
	"strings"
	"unicode"

	"go.ntppool.org/roast/config"
	"go.ntppool.org/roast/filter"
	"go.ntppool.org/roast/selector"
)

// Placement is an annotation anchored at a line. Line is 1-based and
// Column is the byte offset of the first non-whitespace character of
// the untrimmed line.
type Placement struct {
	Line    int    `json:"line"`
	Column  int    `json:"column"`
	Message string `json:"message"`
	Style   string `json:"style"`
}

// Record is the per-line state computed during a run.
type Record struct {
	Raw      string
	Trimmed  string
	Eligible bool
	Hash     selector.Hash
	Selected bool
	Message  string
}

// Run computes the placements for lines. It returns nil when enabled is
// false, which callers treat as "clear everything".
//
// Placements come out in ascending line order. When identical trimmed
// lines repeat only the first one can produce a placement.
func Run(lines []string, contextID string, cfg config.Config, enabled bool) []Placement {
	if !enabled {
		return nil
	}

	var placements []Placement
	seen := make(map[string]struct{})

	for i, raw := range lines {
		rec := Evaluate(raw, contextID, cfg)
		if !rec.Eligible {
			continue
		}
		if _, dup := seen[rec.Trimmed]; dup {
			continue
		}
		if !rec.Selected {
			continue
		}
		seen[rec.Trimmed] = struct{}{}

		placements = append(placements, Placement{
			Line:    i + 1,
			Column:  Indent(raw),
			Message: rec.Message,
			Style:   cfg.Highlight,
		})
	}

	return placements
}

// Evaluate filters and selects a single line.
func Evaluate(raw, contextID string, cfg config.Config) Record {
	rec := Record{
		Raw:     raw,
		Trimmed: strings.TrimSpace(raw),
	}
	rec.Eligible = filter.EligibleTrimmed(rec.Trimmed, contextID, cfg)
	if !rec.Eligible {
		return rec
	}

	rec.Hash = selector.HashLine(rec.Trimmed)
	rec.Message, rec.Selected = selector.SelectHash(rec.Hash, cfg)
	return rec
}

// Indent returns the byte offset of the first non-whitespace character
// of line, or len(line) when it is blank.
func Indent(line string) int {
	return len(line) - len(strings.TrimLeftFunc(line, unicode.IsSpace))
}
