package engine

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.ntppool.org/roast/config"
)

// ErrInvalidCommandInput is wrapped by errors for rejected user input.
// The engine state is unchanged when it is returned.
var ErrInvalidCommandInput = errors.New("invalid input")

// Toggle flips the enabled state, then clears the document or runs a
// full refresh right away. It returns the new state.
func (e *Engine) Toggle(ctx context.Context) (bool, error) {
	e.mu.Lock()
	e.enabled = !e.enabled
	enabled := e.enabled
	e.mu.Unlock()

	return enabled, e.applyToggle(ctx, enabled)
}

// SetEnabled sets the enabled state explicitly.
func (e *Engine) SetEnabled(ctx context.Context, enabled bool) error {
	e.mu.Lock()
	changed := e.enabled != enabled
	e.enabled = enabled
	e.mu.Unlock()

	if !changed {
		return nil
	}
	return e.applyToggle(ctx, enabled)
}

func (e *Engine) applyToggle(ctx context.Context, enabled bool) error {
	e.metrics.setEnabled(enabled)
	e.log.InfoContext(ctx, "annotations toggled", "enabled", enabled)

	if !enabled {
		e.scheduler.Stop()
	}
	if e.source == nil {
		return nil
	}
	_, err := e.Refresh(ctx)
	return err
}

// SetSelectionChance validates n and updates the live selection chance.
func (e *Engine) SetSelectionChance(n int) error {
	if err := e.store.SetSelectionChance(n); err != nil {
		if errors.Is(err, config.ErrInvalidConfig) {
			return fmt.Errorf("%w: selection chance must be between %d and %d, got %d",
				ErrInvalidCommandInput, config.MinSelectionChance, config.MaxSelectionChance, n)
		}
		return err
	}
	e.log.InfoContext(e.ctx, "selection chance updated", "chance", n)
	e.Notify()
	return nil
}

// SetSelectionChanceArg parses a user supplied chance and applies it.
func (e *Engine) SetSelectionChanceArg(arg string) error {
	n, err := ParseSelectionChance(arg)
	if err != nil {
		return err
	}
	return e.SetSelectionChance(n)
}

// ParseSelectionChance parses and range checks a selection chance.
func ParseSelectionChance(arg string) (int, error) {
	arg = strings.TrimSpace(arg)
	n, err := strconv.Atoi(strings.TrimSuffix(arg, "%"))
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", ErrInvalidCommandInput, arg)
	}
	if n < config.MinSelectionChance || n > config.MaxSelectionChance {
		return 0, fmt.Errorf("%w: selection chance must be between %d and %d, got %d",
			ErrInvalidCommandInput, config.MinSelectionChance, config.MaxSelectionChance, n)
	}
	return n, nil
}

// Messages returns the live message pool.
func (e *Engine) Messages() []string {
	return e.store.Config().Messages
}
