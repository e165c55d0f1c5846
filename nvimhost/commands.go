package nvimhost

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/neovim/go-client/nvim/plugin"
	"go.ntppool.org/common/logger"

	"go.ntppool.org/roast/engine"
	"go.ntppool.org/roast/metrics"
)

// Events are the autocmd events that schedule a refresh.
const Events = "BufEnter,TextChanged,TextChangedI"

// Commands implements the user commands of the plugin.
type Commands struct {
	ctx  context.Context
	eng  *engine.Engine
	host *Host
}

func NewCommands(ctx context.Context, eng *engine.Engine, host *Host) *Commands {
	return &Commands{ctx: ctx, eng: eng, host: host}
}

// Register adds the commands and autocmds to p.
func (c *Commands) Register(p *plugin.Plugin) {
	p.HandleCommand(&plugin.CommandOptions{Name: "RoastToggle"}, c.Toggle)
	p.HandleCommand(&plugin.CommandOptions{Name: "RoastChance", NArgs: "?"}, c.Chance)
	p.HandleCommand(&plugin.CommandOptions{Name: "RoastMessages"}, c.Messages)
	p.HandleCommand(&plugin.CommandOptions{Name: "RoastRefresh"}, c.Refresh)
	p.HandleAutocmd(&plugin.AutocmdOptions{Event: Events, Pattern: "*"}, c.Changed)
}

// Changed handles a document entered or changed event.
func (c *Commands) Changed() error {
	metrics.Add(c.ctx, metrics.HostEvents, 1)
	c.eng.Notify()
	return nil
}

func (c *Commands) Toggle() error {
	enabled, err := c.eng.Toggle(c.ctx)
	if err != nil {
		return err
	}
	state := "disabled"
	if enabled {
		state = "enabled"
	}
	return c.host.api.WriteOut(fmt.Sprintf("roast: %s\n", state))
}

// Chance shows the selection chance, or sets it when given an argument.
// Invalid input is reported to the user and doesn't fail the command.
func (c *Commands) Chance(args []string) error {
	if len(args) == 0 || strings.TrimSpace(args[0]) == "" {
		return c.host.api.WriteOut(fmt.Sprintf("roast: selection chance %d%%\n", c.eng.Config().SelectionChance))
	}

	err := c.eng.SetSelectionChanceArg(args[0])
	switch {
	case errors.Is(err, engine.ErrInvalidCommandInput):
		metrics.Add(c.ctx, metrics.CommandErrors, 1)
		logger.FromContext(c.ctx).DebugContext(c.ctx, "rejected selection chance", "arg", args[0], "err", err)
		return c.host.api.WriteErr(fmt.Sprintf("roast: %s\n", err))
	case err != nil:
		return err
	}
	return c.host.api.WriteOut(fmt.Sprintf("roast: selection chance %d%%\n", c.eng.Config().SelectionChance))
}

func (c *Commands) Messages() error {
	msgs := c.eng.Messages()
	var b strings.Builder
	fmt.Fprintf(&b, "roast: %d messages\n", len(msgs))
	for i, m := range msgs {
		fmt.Fprintf(&b, "%3d  %s\n", i+1, m)
	}
	return c.host.api.WriteOut(b.String())
}

func (c *Commands) Refresh() error {
	_, err := c.eng.Refresh(c.ctx)
	return err
}
