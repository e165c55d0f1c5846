package filter

import "strings"

// commonCommentPrefixes apply to every context.
var commonCommentPrefixes = []string{"//", "#", "/*", "*", "<!--"}

// contextCommentPrefixes are the extra single-line comment markers for
// contexts whose syntax isn't covered by the common prefixes. Keys are
// editor filetype names.
var contextCommentPrefixes = map[string][]string{
	"lua":     {"--"},
	"sql":     {"--"},
	"haskell": {"--"},
	"ada":     {"--"},
	"elm":     {"--"},
	"vim":     {`"`},
	"lisp":    {";"},
	"scheme":  {";"},
	"clojure": {";"},
	"asm":     {";"},
	"ini":     {";"},
	"erlang":  {"%"},
	"tex":     {"%"},
	"matlab":  {"%"},
	"fortran": {"!"},
	"bat":     {"REM ", "::"},
}

// IsComment reports whether the trimmed line starts with a comment
// marker for contextID. Only line prefixes are checked; the body of a
// block comment without a marker is not recognized.
func IsComment(trimmed, contextID string) bool {
	for _, p := range commonCommentPrefixes {
		if strings.HasPrefix(trimmed, p) {
			return true
		}
	}
	for _, p := range contextCommentPrefixes[contextID] {
		if strings.HasPrefix(trimmed, p) {
			return true
		}
	}
	return false
}
