package roastcmd

import (
	"context"

	"golang.org/x/sync/errgroup"

	"go.ntppool.org/roast/engine"
	"go.ntppool.org/roast/termhost"
)

type annotateCmd struct {
	File    string `arg:"" help:"File to annotate"`
	Context string `name:"context" help:"Context identifier (filetype); guessed from the file name by default"`
	Listing bool   `name:"listing" short:"l" help:"Print the whole file with annotations"`
	Plain   bool   `name:"plain" env:"NO_COLOR" help:"Disable colors"`
}

type watchCmd struct {
	File    string `arg:"" help:"File to watch"`
	Context string `name:"context" help:"Context identifier (filetype); guessed from the file name by default"`
	Lint    bool   `name:"lint" help:"Print lint style rows instead of the file listing"`
	Plain   bool   `name:"plain" env:"NO_COLOR" help:"Disable colors"`
}

func (cmd *annotateCmd) Run(ctx context.Context, cli *CLI) error {
	f := termhost.NewFile(cmd.File, cmd.Context)

	mode := termhost.ModeLint
	if cmd.Listing {
		mode = termhost.ModeListing
	}
	r := termhost.NewRenderer(cli.stdout(), f, mode, termhost.WithPlain(cmd.Plain))

	eng := engine.New(ctx, cli.store, engine.WithSource(f), engine.WithRenderer(r))
	defer eng.Close()

	_, err := eng.Refresh(ctx)
	return err
}

func (cmd *watchCmd) Run(ctx context.Context, cli *CLI) error {
	shutdown, err := cli.setupTelemetry(ctx)
	if err != nil {
		return err
	}
	defer shutdown()

	f := termhost.NewFile(cmd.File, cmd.Context)

	mode := termhost.ModeListing
	if cmd.Lint {
		mode = termhost.ModeLint
	}
	r := termhost.NewRenderer(cli.stdout(), f, mode,
		termhost.WithPlain(cmd.Plain),
		termhost.WithRedraw(true),
	)

	eng := engine.New(ctx, cli.store, engine.WithSource(f), engine.WithRenderer(r))
	defer eng.Close()

	if _, err := eng.Refresh(ctx); err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return cli.manager(eng.ConfigChanged).Run(ctx, nil)
	})

	g.Go(func() error {
		return f.Watch(ctx, eng.Notify)
	})

	return g.Wait()
}
