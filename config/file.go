package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadFile reads YAML overrides from path. A missing file is reported
// with an error wrapping os.ErrNotExist.
func LoadFile(path string) (Overrides, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Overrides{}, err
	}
	o, err := ParseOverrides(data)
	if err != nil {
		return Overrides{}, fmt.Errorf("%s: %w", path, err)
	}
	return o, nil
}

// ParseOverrides decodes YAML overrides. Unknown keys are rejected so
// typos don't silently fall back to defaults.
func ParseOverrides(data []byte) (Overrides, error) {
	var o Overrides

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	err := dec.Decode(&o)
	if err != nil && !errors.Is(err, io.EOF) {
		return Overrides{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return o, nil
}

// MarshalYAML renders a resolved Config in the same shape LoadFile
// accepts.
func (c Config) MarshalYAML() (any, error) {
	debounce := c.DebounceInterval.Milliseconds()
	return Overrides{
		SelectionChance:  &c.SelectionChance,
		MinLineLength:    &c.MinLineLength,
		Messages:         &c.Messages,
		MergeMessages:    &c.MergeMessages,
		IgnoredContexts:  &c.IgnoredContexts,
		DebounceInterval: &debounce,
		Highlight:        &c.Highlight,
	}, nil
}
