package roastcmd

import (
	"context"
	"os"

	"go.ntppool.org/common/logger"

	"go.ntppool.org/roast/engine"
	"go.ntppool.org/roast/nvimhost"
)

type nvimCmd struct {
	Manifest string `name:"manifest" placeholder:"HOST" help:"Print the remote plugin manifest for HOST and exit"`
}

func (cmd *nvimCmd) Run(ctx context.Context, cli *CLI) error {
	if cmd.Manifest != "" {
		_, err := cli.stdout().Write(nvimhost.Manifest(cmd.Manifest))
		return err
	}

	log := logger.FromContext(ctx)

	shutdown, err := cli.setupTelemetry(ctx)
	if err != nil {
		return err
	}
	defer shutdown()

	ready := func(eng *engine.Engine) {
		go func() {
			if err := cli.manager(eng.ConfigChanged).Run(ctx, nil); err != nil {
				log.WarnContext(ctx, "config manager stopped", "err", err)
			}
		}()
	}

	// stdout carries the RPC stream
	return nvimhost.Serve(ctx, cli.store, os.Stdin, os.Stdout, ready)
}
