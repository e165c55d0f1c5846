package config

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T {
	return &v
}

func testDefaults() Config {
	return Config{
		SelectionChance:  10,
		MinLineLength:    5,
		Messages:         []string{"a", "b"},
		IgnoredContexts:  []string{"help", "qf"},
		DebounceInterval: 200 * time.Millisecond,
		Highlight:        DefaultHighlight,
	}
}

func TestResolveOverrides(t *testing.T) {
	tests := []struct {
		name string
		o    Overrides
		want func(c *Config)
	}{
		{
			name: "empty overrides keep defaults",
			o:    Overrides{},
			want: func(c *Config) {},
		},
		{
			name: "scalar fields replace defaults",
			o: Overrides{
				SelectionChance:  ptr(42),
				MinLineLength:    ptr(0),
				DebounceInterval: ptr(int64(0)),
				Highlight:        ptr("Error"),
			},
			want: func(c *Config) {
				c.SelectionChance = 42
				c.MinLineLength = 0
				c.DebounceInterval = 0
				c.Highlight = "Error"
			},
		},
		{
			name: "ignored contexts are replaced wholesale",
			o:    Overrides{IgnoredContexts: ptr([]string{"markdown"})},
			want: func(c *Config) {
				c.IgnoredContexts = []string{"markdown"}
			},
		},
		{
			name: "empty ignored contexts clear the list",
			o:    Overrides{IgnoredContexts: ptr([]string{})},
			want: func(c *Config) {
				c.IgnoredContexts = []string{}
			},
		},
		{
			name: "messages replace without merge",
			o:    Overrides{Messages: ptr([]string{"x"})},
			want: func(c *Config) {
				c.Messages = []string{"x"}
			},
		},
		{
			name: "messages are appended with merge",
			o:    Overrides{Messages: ptr([]string{"x", "a"}), MergeMessages: ptr(true)},
			want: func(c *Config) {
				c.Messages = []string{"a", "b", "x", "a"}
				c.MergeMessages = true
			},
		},
		{
			name: "merge without messages keeps defaults",
			o:    Overrides{MergeMessages: ptr(true)},
			want: func(c *Config) {
				c.MergeMessages = true
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			want := testDefaults()
			tt.want(&want)

			got, err := Resolve(testDefaults(), tt.o)
			require.NoError(t, err)
			assert.Equal(t, want.SelectionChance, got.SelectionChance)
			assert.Equal(t, want.MinLineLength, got.MinLineLength)
			assert.Equal(t, want.Messages, got.Messages)
			assert.ElementsMatch(t, want.IgnoredContexts, got.IgnoredContexts)
			assert.Equal(t, want.DebounceInterval, got.DebounceInterval)
			assert.Equal(t, want.MergeMessages, got.MergeMessages)
			assert.Equal(t, want.Highlight, got.Highlight)
		})
	}
}

func TestResolveMessageMergeLaw(t *testing.T) {
	defaults := Defaults()

	merged, err := Resolve(defaults, Overrides{MergeMessages: ptr(true), Messages: ptr([]string{"m"})})
	require.NoError(t, err)
	assert.Equal(t, append(Defaults().Messages, "m"), merged.Messages)

	replaced, err := Resolve(defaults, Overrides{MergeMessages: ptr(false), Messages: ptr([]string{"m"})})
	require.NoError(t, err)
	assert.Equal(t, []string{"m"}, replaced.Messages)

	// base is never modified
	assert.Equal(t, Defaults().Messages, defaults.Messages)
}

func TestResolveIdempotent(t *testing.T) {
	overrides := []Overrides{
		{},
		{SelectionChance: ptr(100), Messages: ptr([]string{"only"})},
		{MergeMessages: ptr(true), Messages: ptr([]string{"extra"}), IgnoredContexts: ptr([]string{})},
		{DebounceInterval: ptr(int64(1250)), MinLineLength: ptr(3)},
	}

	for _, o := range overrides {
		once, err := Resolve(Defaults(), o)
		require.NoError(t, err)

		twice, err := Resolve(once, Overrides{})
		require.NoError(t, err)

		assert.Equal(t, once, twice)
	}
}

func TestResolveInvalid(t *testing.T) {
	tests := []struct {
		name  string
		o     Overrides
		field string
	}{
		{"chance zero", Overrides{SelectionChance: ptr(0)}, "selection_chance"},
		{"chance above range", Overrides{SelectionChance: ptr(101)}, "selection_chance"},
		{"negative chance", Overrides{SelectionChance: ptr(-5)}, "selection_chance"},
		{"empty messages", Overrides{Messages: ptr([]string{})}, "messages"},
		{"empty messages with merge", Overrides{Messages: ptr([]string{}), MergeMessages: ptr(true)}, "messages"},
		{"negative length", Overrides{MinLineLength: ptr(-1)}, "min_line_length"},
		{"negative debounce", Overrides{DebounceInterval: ptr(int64(-10))}, "debounce_interval"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Resolve(Defaults(), tt.o)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidConfig))

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
			assert.Equal(t, Config{}, cfg)
		})
	}
}

func TestResolveChanceBounds(t *testing.T) {
	for _, chance := range []int{MinSelectionChance, MaxSelectionChance} {
		cfg, err := Resolve(Defaults(), Overrides{SelectionChance: ptr(chance)})
		require.NoError(t, err)
		assert.Equal(t, chance, cfg.SelectionChance)
	}
}

func TestResolveEmptyDefaults(t *testing.T) {
	_, err := Resolve(Config{SelectionChance: 50}, Overrides{})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestConfigCloneAndIgnores(t *testing.T) {
	cfg := Defaults()
	clone := cfg.Clone()
	clone.Messages[0] = "changed"
	clone.IgnoredContexts[0] = "changed"

	assert.NotEqual(t, "changed", cfg.Messages[0])
	assert.True(t, cfg.Ignores("help"))
	assert.False(t, cfg.Ignores("go"))
	assert.False(t, cfg.Ignores(""))
}

func TestOverridesLayer(t *testing.T) {
	base := Overrides{SelectionChance: ptr(20), MinLineLength: ptr(3), Highlight: ptr("A")}
	top := Overrides{SelectionChance: ptr(90), Messages: ptr([]string{"m"})}

	got := base.Layer(top)
	assert.Equal(t, 90, *got.SelectionChance)
	assert.Equal(t, 3, *got.MinLineLength)
	assert.Equal(t, "A", *got.Highlight)
	assert.Equal(t, []string{"m"}, *got.Messages)
	assert.Nil(t, got.DebounceInterval)

	// base is unchanged
	assert.Equal(t, 20, *base.SelectionChance)
	assert.Equal(t, base, base.Layer(Overrides{}))
}
