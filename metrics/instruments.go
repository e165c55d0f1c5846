// Package metrics holds the OTel instruments shared by the host adapters.
package metrics

import (
	"context"
	"log/slog"
	"sync"

	"go.ntppool.org/common/metrics"
	"go.opentelemetry.io/otel/metric"
)

var (
	HostEvents    metric.Int64Counter
	Draws         metric.Int64Counter
	Clears        metric.Int64Counter
	CommandErrors metric.Int64Counter

	setupOnce sync.Once
	setupErr  error
)

// InitInstruments initializes all metric instruments for the hosts.
// This function is safe to call multiple times - it will only initialize once.
func InitInstruments() error {
	setupOnce.Do(func() {
		setupErr = initializeInstruments()
	})
	return setupErr
}

func initializeInstruments() error {
	log := slog.Default()
	meter := metrics.GetMeter("roast.host")

	var err error

	HostEvents, err = meter.Int64Counter("roast.host_events_total",
		metric.WithDescription("Total number of document entered/changed events from the host"))
	if err != nil {
		log.ErrorContext(context.Background(), "failed to create HostEvents counter", "err", err)
		return err
	}

	Draws, err = meter.Int64Counter("roast.draws_total",
		metric.WithDescription("Total number of placement sets drawn"))
	if err != nil {
		log.ErrorContext(context.Background(), "failed to create Draws counter", "err", err)
		return err
	}

	Clears, err = meter.Int64Counter("roast.clears_total",
		metric.WithDescription("Total number of documents cleared"))
	if err != nil {
		log.ErrorContext(context.Background(), "failed to create Clears counter", "err", err)
		return err
	}

	CommandErrors, err = meter.Int64Counter("roast.command_errors_total",
		metric.WithDescription("Total number of rejected user commands"))
	if err != nil {
		log.ErrorContext(context.Background(), "failed to create CommandErrors counter", "err", err)
		return err
	}

	log.Debug("host metrics instruments initialized successfully")
	return nil
}

// Add increments c when it has been initialized.
func Add(ctx context.Context, c metric.Int64Counter, n int64, opts ...metric.AddOption) {
	if c == nil {
		return
	}
	c.Add(ctx, n, opts...)
}
