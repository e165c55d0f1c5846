// Package roastcmd is the command line interface of roast.
package roastcmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"
	"go.ntppool.org/common/logger"

	"go.ntppool.org/roast/config"
)

type CLI struct {
	Config    string `name:"config" short:"c" env:"ROAST_CONFIG" help:"Config file (YAML); defaults to roast/config.yaml in the user config directory"`
	Chance    *int   `name:"chance" help:"Selection chance in percent (1-100)"`
	MinLength *int   `name:"min-length" help:"Minimum trimmed line length to annotate"`
	Debug     bool   `name:"debug" env:"ROAST_DEBUG" help:"Enable debug logging"`

	Environment string `name:"environment" env:"DEPLOYMENT_MODE" default:"devel" help:"Deployment environment reported with traces"`

	Annotate annotateCmd `cmd:"" help:"Annotate a file once"`
	Watch    watchCmd    `cmd:"" help:"Annotate a file and redraw when it changes"`
	Serve    serveCmd    `cmd:"" help:"Run the HTTP API"`
	Nvim     nvimCmd     `cmd:"" help:"Run as a Neovim remote plugin"`
	Explain  explainCmd  `cmd:"" help:"Show how a single line is evaluated"`
	Messages messagesCmd `cmd:"" help:"List the message pool"`
	Show     configCmd   `cmd:"config" help:"Print the resolved configuration"`
	Version  versionCmd  `cmd:"" help:"Print the version"`

	store *config.Store
	out   io.Writer

	// configExplicit is set when the config path was given; only then
	// is a missing file an error.
	configExplicit bool
}

// configPath fills in the default config path when none was given.
func (cli *CLI) configPath() error {
	if cli.Config != "" {
		cli.configExplicit = true
		return nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return err
	}
	cli.Config = filepath.Join(dir, "roast", "config.yaml")
	return nil
}

// AfterApply loads the configuration file and builds the store.
func (cli *CLI) AfterApply(kctx *kong.Context, ctx context.Context) error {
	if cli.Debug {
		log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
		ctx = logger.NewContext(ctx, log)
		kctx.BindTo(ctx, (*context.Context)(nil))
	}

	if err := cli.configPath(); err != nil {
		return err
	}

	o, err := config.LoadFile(cli.Config)
	if errors.Is(err, os.ErrNotExist) && !cli.configExplicit {
		o, err = config.Overrides{}, nil
	}
	if err != nil {
		return fmt.Errorf("could not load config: %w", err)
	}

	store, err := config.NewStore(config.Defaults(), o.Layer(cli.flagOverrides()))
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	cli.store = store

	logger.FromContext(ctx).DebugContext(ctx, "configuration loaded", "path", cli.Config)

	return nil
}

func (cli *CLI) flagOverrides() config.Overrides {
	return config.Overrides{
		SelectionChance: cli.Chance,
		MinLineLength:   cli.MinLength,
	}
}

func (cli *CLI) manager(onReload func(config.Config)) *config.Manager {
	return config.NewManager(cli.store, cli.Config, onReload).WithOverlay(cli.flagOverrides())
}

func (cli *CLI) stdout() io.Writer {
	if cli.out != nil {
		return cli.out
	}
	return os.Stdout
}
