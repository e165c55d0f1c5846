package config

import "time"

// DefaultHighlight is the style name forwarded to renderers; hosts that
// don't know it link it to FallbackHighlight.
const (
	DefaultHighlight  = "RoastComment"
	FallbackHighlight = "Comment"
)

var defaultMessages = []string{
	"Have you considered a career in management?",
	"This line is why we can't have nice things.",
	"Bold of you to ship this.",
	"I've seen cleaner code in a minified bundle.",
	"Did you write this with your eyes closed?",
	"Works on my machine, I assume.",
	"The compiler accepted this. The compiler has no standards.",
	"Somewhere a senior engineer just felt a chill.",
	"Copy-pasted from a 2009 forum post?",
	"This is technically code.",
	"Future you is going to hate present you.",
	"Simplify? Never heard of her.",
	"A comment would not save this.",
	"Nice variable name. Said no one.",
	"Ah yes, the classic off-by-vibes error.",
	"Have you tried turning it off and never on again?",
}

var defaultIgnoredContexts = []string{
	"help",
	"qf",
	"netrw",
	"gitcommit",
	"TelescopePrompt",
	"NvimTree",
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		SelectionChance:  10,
		MinLineLength:    10,
		Messages:         append([]string(nil), defaultMessages...),
		IgnoredContexts:  append([]string(nil), defaultIgnoredContexts...),
		DebounceInterval: 500 * time.Millisecond,
		MergeMessages:    false,
		Highlight:        DefaultHighlight,
	}
}
