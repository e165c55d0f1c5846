package roastcmd

import (
	"context"
	"os"
	"time"

	"go.ntppool.org/common/logger"
	"go.ntppool.org/common/tracing"

	"go.ntppool.org/roast/metrics"
)

// InitTracing sets up the OTel trace and metric providers when an OTLP
// endpoint is configured with OTEL_EXPORTER_OTLP_ENDPOINT. Without one
// the global no-op providers stay in place. The returned function
// flushes and shuts the providers down.
func InitTracing(ctx context.Context, environment string) (tracing.TpShutdownFunc, error) {
	log := logger.FromContext(ctx)

	if os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT") == "" {
		log.DebugContext(ctx, "tracing not configured")
		return func(context.Context) error { return nil }, nil
	}

	tpShutdownFn, err := tracing.InitTracer(ctx,
		&tracing.TracerConfig{
			ServiceName: "roast",
			Environment: environment,
		},
	)
	if err != nil {
		return nil, err
	}

	return func(ctx context.Context) error {
		log.DebugContext(ctx, "shutting down trace provider")
		shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return tpShutdownFn(shutdownCtx)
	}, nil
}

// setupTelemetry initializes tracing and the host instruments for a
// long running command. The returned function must be called on exit.
func (cli *CLI) setupTelemetry(ctx context.Context) (func(), error) {
	log := logger.FromContext(ctx)

	shutdown, err := InitTracing(ctx, cli.Environment)
	if err != nil {
		return nil, err
	}

	if err := metrics.InitInstruments(); err != nil {
		log.WarnContext(ctx, "could not initialize host metrics", "err", err)
	}

	return func() {
		// ctx is usually cancelled by now
		if err := shutdown(context.Background()); err != nil {
			log.WarnContext(ctx, "trace provider shutdown", "err", err)
		}
	}, nil
}
