// Package engine owns the state of one annotation engine instance: the
// enabled toggle, the live configuration and the debounce timer. Hosts
// provide a Source for text snapshots and a Renderer for placements.
//
// One engine serves one active document context at a time. Hosts with
// several documents that need isolated state keep one engine per
// document.
package engine

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"go.ntppool.org/common/logger"
	"go.ntppool.org/common/tracing"
	"go.opentelemetry.io/otel/attribute"

	"go.ntppool.org/roast/config"
	"go.ntppool.org/roast/debounce"
	"go.ntppool.org/roast/session"
)

// ErrNoSource is returned by Refresh when the engine has no Source.
var ErrNoSource = errors.New("engine has no source")

// Snapshot is the current text of a document.
type Snapshot struct {
	// Document identifies the document to the Renderer; the engine only
	// forwards it.
	Document string
	Context  string
	Lines    []string
}

// Source supplies the text of the active document.
type Source interface {
	Snapshot(ctx context.Context) (Snapshot, error)
}

// Renderer draws placements. Draw replaces whatever was drawn for the
// document before.
type Renderer interface {
	ClearAll(ctx context.Context, document string) error
	Draw(ctx context.Context, document string, placements []session.Placement) error
}

// Result is the outcome of one annotation run.
type Result struct {
	RunID      ulid.ULID           `json:"run_id"`
	Document   string              `json:"document,omitempty"`
	Context    string              `json:"context"`
	Enabled    bool                `json:"enabled"`
	Placements []session.Placement `json:"placements"`
}

type Engine struct {
	store     *config.Store
	source    Source
	renderer  Renderer
	metrics   *Metrics
	scheduler *debounce.Scheduler

	// ctx is used for refreshes started by the debounce timer
	ctx context.Context
	log *slog.Logger

	mu      sync.Mutex
	enabled bool

	// refreshMu serializes refresh passes so a clear can't land in the
	// middle of a draw
	refreshMu sync.Mutex
}

type Option func(*Engine)

// WithSource sets the Source used by Refresh.
func WithSource(src Source) Option {
	return func(e *Engine) { e.source = src }
}

// WithRenderer sets the Renderer used by Refresh and Toggle.
func WithRenderer(r Renderer) Option {
	return func(e *Engine) { e.renderer = r }
}

// WithMetrics records engine metrics.
func WithMetrics(m *Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithEnabled sets the initial toggle state; engines start enabled.
func WithEnabled(enabled bool) Option {
	return func(e *Engine) { e.enabled = enabled }
}

// New returns an engine reading its configuration from store. ctx
// carries the logger and bounds refreshes started by Notify.
func New(ctx context.Context, store *config.Store, opts ...Option) *Engine {
	e := &Engine{
		store:   store,
		ctx:     ctx,
		log:     logger.FromContext(ctx).WithGroup("engine"),
		enabled: true,
	}
	for _, opt := range opts {
		opt(e)
	}

	e.scheduler = debounce.New(store.Config().DebounceInterval, e.debouncedRefresh)
	e.metrics.setEnabled(e.enabled)

	return e
}

// Enabled reports the toggle state.
func (e *Engine) Enabled() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.enabled
}

// Config returns the live configuration.
func (e *Engine) Config() config.Config {
	return e.store.Config()
}

// Notify tells the engine the document changed or was entered. The
// refresh runs once the debounce interval passes without another
// Notify. Engines without a Source only count the event.
func (e *Engine) Notify() {
	e.metrics.trigger()
	if e.source == nil || !e.Enabled() {
		return
	}
	e.scheduler.Trigger()
}

// Pending reports whether a debounced refresh is scheduled.
func (e *Engine) Pending() bool {
	return e.scheduler.Pending()
}

func (e *Engine) debouncedRefresh() {
	if e.ctx.Err() != nil {
		return
	}
	if _, err := e.Refresh(e.ctx); err != nil {
		e.log.WarnContext(e.ctx, "refresh failed", "err", err)
	}
}

// Refresh annotates the current snapshot from the Source and draws the
// result, or clears the document when the engine is disabled.
func (e *Engine) Refresh(ctx context.Context) (Result, error) {
	ctx, span := tracing.Start(ctx, "roast.Refresh")
	defer span.End()

	if e.source == nil {
		return Result{}, ErrNoSource
	}

	e.refreshMu.Lock()
	defer e.refreshMu.Unlock()

	snap, err := e.source.Snapshot(ctx)
	if err != nil {
		span.RecordError(err)
		return Result{}, err
	}

	res := e.Annotate(ctx, snap)
	span.SetAttributes(
		attribute.String("context", res.Context),
		attribute.Int("lines", len(snap.Lines)),
		attribute.Int("placements", len(res.Placements)),
		attribute.Bool("enabled", res.Enabled),
	)

	if e.renderer == nil {
		return res, nil
	}

	// a toggle may have landed while annotating
	if !res.Enabled || !e.Enabled() {
		err = e.renderer.ClearAll(ctx, snap.Document)
	} else {
		err = e.renderer.Draw(ctx, snap.Document, res.Placements)
	}
	if err != nil {
		span.RecordError(err)
		return res, err
	}

	return res, nil
}

// Annotate runs one annotation pass over snap with the live
// configuration and toggle state. It doesn't render.
func (e *Engine) Annotate(ctx context.Context, snap Snapshot) Result {
	cfg := e.store.Config()
	enabled := e.Enabled()

	start := time.Now()
	placements := session.Run(snap.Lines, snap.Context, cfg, enabled)
	e.metrics.observeRun(enabled, len(snap.Lines), len(placements), time.Since(start))

	res := Result{
		RunID:      ulid.Make(),
		Document:   snap.Document,
		Context:    snap.Context,
		Enabled:    enabled,
		Placements: placements,
	}
	if res.Placements == nil {
		res.Placements = []session.Placement{}
	}

	e.log.DebugContext(ctx, "annotation run",
		"runID", res.RunID.String(),
		"document", snap.Document,
		"context", snap.Context,
		"lines", len(snap.Lines),
		"placements", len(placements),
		"enabled", enabled,
	)

	return res
}

// ConfigChanged applies a new live configuration, typically after a
// config file reload, and schedules a refresh.
func (e *Engine) ConfigChanged(cfg config.Config) {
	e.scheduler.SetInterval(cfg.DebounceInterval)
	e.Notify()
}

// Reconfigure replaces the configuration with the defaults resolved
// against o. On error the previous configuration stays in effect.
func (e *Engine) Reconfigure(o config.Overrides) error {
	cfg, err := e.store.Reconfigure(o)
	if err != nil {
		return err
	}
	e.ConfigChanged(cfg)
	return nil
}

// Close cancels any pending refresh.
func (e *Engine) Close() {
	e.scheduler.Stop()
}
