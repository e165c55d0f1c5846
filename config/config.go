package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	jsonpatch "github.com/evanphx/json-patch"
)

// ErrInvalidConfig is wrapped by every error Resolve returns for a
// configuration that is out of range.
var ErrInvalidConfig = errors.New("invalid configuration")

// ValidationError names the field that failed validation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidConfig
}

const (
	MinSelectionChance = 1
	MaxSelectionChance = 100
)

// Config is the resolved engine configuration. Values are treated as
// immutable; use Clone before modifying a copy.
type Config struct {
	SelectionChance  int
	MinLineLength    int
	Messages         []string
	IgnoredContexts  []string
	DebounceInterval time.Duration
	MergeMessages    bool
	Highlight        string
}

// Overrides is a sparse set of user settings. Nil fields leave the base
// value in place; non-nil slices replace the base slice wholesale
// (Messages excepted, see Resolve).
type Overrides struct {
	SelectionChance *int      `yaml:"selection_chance,omitempty" json:"selection_chance,omitempty"`
	MinLineLength   *int      `yaml:"min_line_length,omitempty" json:"min_line_length,omitempty"`
	Messages        *[]string `yaml:"messages,omitempty" json:"-"`
	MergeMessages   *bool     `yaml:"merge_messages,omitempty" json:"merge_messages,omitempty"`
	IgnoredContexts *[]string `yaml:"ignored_contexts,omitempty" json:"ignored_contexts,omitempty"`

	// DebounceInterval is in milliseconds.
	DebounceInterval *int64  `yaml:"debounce_interval,omitempty" json:"debounce_interval,omitempty"`
	Highlight        *string `yaml:"highlight,omitempty" json:"highlight,omitempty"`
}

// document is the merge-patch view of Config. Messages are kept out of
// it because they don't follow merge-patch rules.
type document struct {
	SelectionChance  int      `json:"selection_chance"`
	MinLineLength    int      `json:"min_line_length"`
	IgnoredContexts  []string `json:"ignored_contexts"`
	DebounceInterval int64    `json:"debounce_interval"`
	MergeMessages    bool     `json:"merge_messages"`
	Highlight        string   `json:"highlight"`
}

// Resolve applies the overrides on top of base and validates the result.
//
// Every field set in the overrides replaces the base value. Messages are
// appended to the base pool when MergeMessages is true and the override
// pool is non-empty, otherwise a set Messages replaces the base pool.
//
// Resolve never modifies base; on error the returned Config is the zero
// value.
func Resolve(base Config, o Overrides) (Config, error) {
	doc, err := json.Marshal(document{
		SelectionChance:  base.SelectionChance,
		MinLineLength:    base.MinLineLength,
		IgnoredContexts:  base.IgnoredContexts,
		DebounceInterval: base.DebounceInterval.Milliseconds(),
		MergeMessages:    base.MergeMessages,
		Highlight:        base.Highlight,
	})
	if err != nil {
		return Config{}, err
	}

	patch, err := json.Marshal(o)
	if err != nil {
		return Config{}, err
	}

	merged, err := jsonpatch.MergePatch(doc, patch)
	if err != nil {
		return Config{}, fmt.Errorf("merging overrides: %w", err)
	}

	var d document
	if err := json.Unmarshal(merged, &d); err != nil {
		return Config{}, fmt.Errorf("merging overrides: %w", err)
	}

	cfg := Config{
		SelectionChance:  d.SelectionChance,
		MinLineLength:    d.MinLineLength,
		IgnoredContexts:  slices.Clone(d.IgnoredContexts),
		DebounceInterval: time.Duration(d.DebounceInterval) * time.Millisecond,
		MergeMessages:    d.MergeMessages,
		Highlight:        d.Highlight,
		Messages:         resolveMessages(base.Messages, o),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func resolveMessages(base []string, o Overrides) []string {
	if o.Messages == nil {
		return slices.Clone(base)
	}
	user := *o.Messages
	if o.MergeMessages != nil && *o.MergeMessages && len(user) > 0 {
		return append(slices.Clone(base), user...)
	}
	return slices.Clone(user)
}

// Validate checks the value ranges of a resolved Config.
func (c Config) Validate() error {
	if c.SelectionChance < MinSelectionChance || c.SelectionChance > MaxSelectionChance {
		return &ValidationError{
			Field:  "selection_chance",
			Reason: fmt.Sprintf("must be between %d and %d, got %d", MinSelectionChance, MaxSelectionChance, c.SelectionChance),
		}
	}
	if len(c.Messages) == 0 {
		return &ValidationError{Field: "messages", Reason: "must not be empty"}
	}
	if c.MinLineLength < 0 {
		return &ValidationError{Field: "min_line_length", Reason: "must not be negative"}
	}
	if c.DebounceInterval < 0 {
		return &ValidationError{Field: "debounce_interval", Reason: "must not be negative"}
	}
	return nil
}

// Clone returns a deep copy of c.
func (c Config) Clone() Config {
	c.Messages = slices.Clone(c.Messages)
	c.IgnoredContexts = slices.Clone(c.IgnoredContexts)
	return c
}

// Ignores reports whether contextID is in the ignore list.
func (c Config) Ignores(contextID string) bool {
	return slices.Contains(c.IgnoredContexts, contextID)
}

// Layer returns o with every field set in top replacing the one in o.
func (o Overrides) Layer(top Overrides) Overrides {
	if top.SelectionChance != nil {
		o.SelectionChance = top.SelectionChance
	}
	if top.MinLineLength != nil {
		o.MinLineLength = top.MinLineLength
	}
	if top.Messages != nil {
		o.Messages = top.Messages
	}
	if top.MergeMessages != nil {
		o.MergeMessages = top.MergeMessages
	}
	if top.IgnoredContexts != nil {
		o.IgnoredContexts = top.IgnoredContexts
	}
	if top.DebounceInterval != nil {
		o.DebounceInterval = top.DebounceInterval
	}
	if top.Highlight != nil {
		o.Highlight = top.Highlight
	}
	return o
}
