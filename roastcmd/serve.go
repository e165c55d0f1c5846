package roastcmd

import (
	"context"

	"go.ntppool.org/common/logger"
	"go.ntppool.org/common/metricsserver"
	"go.ntppool.org/common/version"
	"golang.org/x/sync/errgroup"

	"go.ntppool.org/roast/engine"
	"go.ntppool.org/roast/server"
)

type serveCmd struct {
	Listen      string `default:":8080" help:"HTTP API listen address" flag:"listen"`
	MetricsPort int    `default:"9000" help:"Metrics server port" flag:"metrics-port"`
}

func (cmd *serveCmd) Run(ctx context.Context, cli *CLI) error {
	log := logger.FromContext(ctx)
	log.InfoContext(ctx, "roast server starting", "version", version.Version())

	shutdown, err := cli.setupTelemetry(ctx)
	if err != nil {
		return err
	}
	defer shutdown()

	metricssrv := metricsserver.New()
	version.RegisterMetric("roast", metricssrv.Registry())

	eng := engine.New(ctx, cli.store, engine.WithMetrics(engine.NewMetrics(metricssrv.Registry())))
	defer eng.Close()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return metricssrv.ListenAndServe(ctx, cmd.MetricsPort)
	})

	g.Go(func() error {
		return cli.manager(eng.ConfigChanged).Run(ctx, metricssrv.Registry())
	})

	g.Go(func() error {
		return server.New(ctx, eng).Run(ctx, cmd.Listen)
	})

	return g.Wait()
}
