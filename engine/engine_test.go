package engine

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.ntppool.org/common/logger"

	"go.ntppool.org/roast/config"
	"go.ntppool.org/roast/session"
)

func ptr[T any](v T) *T {
	return &v
}

type fakeSource struct {
	mu   sync.Mutex
	snap Snapshot
	err  error
}

func (s *fakeSource) Snapshot(context.Context) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap, s.err
}

func (s *fakeSource) set(lines ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.Lines = lines
}

type fakeRenderer struct {
	mu     sync.Mutex
	clears int
	draws  [][]session.Placement
	docs   []string
}

func (r *fakeRenderer) ClearAll(_ context.Context, doc string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clears++
	r.docs = append(r.docs, doc)
	return nil
}

func (r *fakeRenderer) Draw(_ context.Context, doc string, placements []session.Placement) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.draws = append(r.draws, placements)
	r.docs = append(r.docs, doc)
	return nil
}

func (r *fakeRenderer) counts() (clears, draws int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.clears, len(r.draws)
}

func (r *fakeRenderer) last() []session.Placement {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.draws) == 0 {
		return nil
	}
	return r.draws[len(r.draws)-1]
}

func newTestEngine(t *testing.T, o config.Overrides, opts ...Option) (*Engine, *fakeSource, *fakeRenderer) {
	t.Helper()

	store, err := config.NewStore(config.Defaults(), o)
	require.NoError(t, err)

	src := &fakeSource{snap: Snapshot{Document: "buf-1", Context: "go"}}
	r := &fakeRenderer{}

	opts = append([]Option{WithSource(src), WithRenderer(r)}, opts...)
	e := New(context.Background(), store, opts...)
	t.Cleanup(e.Close)

	return e, src, r
}

func alwaysX() config.Overrides {
	return config.Overrides{
		SelectionChance:  ptr(100),
		MinLineLength:    ptr(0),
		Messages:         ptr([]string{"X"}),
		DebounceInterval: ptr(int64(20)),
	}
}

func TestRefreshDraws(t *testing.T) {
	e, src, r := newTestEngine(t, alwaysX())
	src.set("abc")

	res, err := e.Refresh(context.Background())
	require.NoError(t, err)

	assert.True(t, res.Enabled)
	assert.Equal(t, "buf-1", res.Document)
	assert.Equal(t, "go", res.Context)
	assert.NotZero(t, res.RunID)
	require.Len(t, res.Placements, 1)
	assert.Equal(t, session.Placement{Line: 1, Column: 0, Message: "X", Style: config.DefaultHighlight}, res.Placements[0])

	clears, draws := r.counts()
	assert.Equal(t, 0, clears)
	assert.Equal(t, 1, draws)
	assert.Equal(t, res.Placements, r.last())
}

func TestRefreshEmptyDocument(t *testing.T) {
	e, _, r := newTestEngine(t, alwaysX())

	res, err := e.Refresh(context.Background())
	require.NoError(t, err)
	assert.Empty(t, res.Placements)
	assert.NotNil(t, res.Placements)

	_, draws := r.counts()
	assert.Equal(t, 1, draws)
}

func TestToggle(t *testing.T) {
	e, src, r := newTestEngine(t, alwaysX())
	src.set("abc", "def")
	ctx := context.Background()

	enabled, err := e.Toggle(ctx)
	require.NoError(t, err)
	assert.False(t, enabled)
	assert.False(t, e.Enabled())

	clears, draws := r.counts()
	assert.Equal(t, 1, clears)
	assert.Equal(t, 0, draws)

	// disabled runs produce nothing
	res, err := e.Refresh(ctx)
	require.NoError(t, err)
	assert.False(t, res.Enabled)
	assert.Empty(t, res.Placements)

	enabled, err = e.Toggle(ctx)
	require.NoError(t, err)
	assert.True(t, enabled)

	_, draws = r.counts()
	assert.Equal(t, 1, draws)
	assert.Len(t, r.last(), 2)
}

func TestSetEnabled(t *testing.T) {
	e, _, r := newTestEngine(t, alwaysX(), WithEnabled(false))
	ctx := context.Background()
	assert.False(t, e.Enabled())

	require.NoError(t, e.SetEnabled(ctx, false))
	clears, draws := r.counts()
	assert.Equal(t, 0, clears+draws, "no-op when unchanged")

	require.NoError(t, e.SetEnabled(ctx, true))
	_, draws = r.counts()
	assert.Equal(t, 1, draws)
}

func TestNotifyDebounces(t *testing.T) {
	e, src, r := newTestEngine(t, alwaysX())
	src.set("abc")

	for range 5 {
		e.Notify()
		time.Sleep(2 * time.Millisecond)
	}
	assert.True(t, e.Pending())

	require.Eventually(t, func() bool {
		_, draws := r.counts()
		return draws == 1
	}, time.Second, 5*time.Millisecond)

	time.Sleep(60 * time.Millisecond)
	_, draws := r.counts()
	assert.Equal(t, 1, draws)
	assert.False(t, e.Pending())
}

func TestNotifyReadsLatestSnapshot(t *testing.T) {
	e, src, r := newTestEngine(t, alwaysX())

	src.set("old line")
	e.Notify()
	src.set("new line", "another line")
	e.Notify()

	require.Eventually(t, func() bool {
		_, draws := r.counts()
		return draws == 1
	}, time.Second, 5*time.Millisecond)
	assert.Len(t, r.last(), 2)
}

func TestNotifyWhileDisabled(t *testing.T) {
	e, _, r := newTestEngine(t, alwaysX(), WithEnabled(false))

	e.Notify()
	assert.False(t, e.Pending())

	time.Sleep(50 * time.Millisecond)
	clears, draws := r.counts()
	assert.Equal(t, 0, clears+draws)
}

func TestCloseCancelsPending(t *testing.T) {
	e, _, r := newTestEngine(t, alwaysX())

	e.Notify()
	e.Close()

	time.Sleep(60 * time.Millisecond)
	_, draws := r.counts()
	assert.Equal(t, 0, draws)
}

func TestSetSelectionChance(t *testing.T) {
	e, _, _ := newTestEngine(t, config.Overrides{SelectionChance: ptr(25)})

	tests := []struct {
		arg  string
		want int
		err  bool
	}{
		{"50", 50, false},
		{" 75 ", 75, false},
		{"100%", 100, false},
		{"1", 1, false},
		{"0", 1, true},
		{"101", 1, true},
		{"-3", 1, true},
		{"lots", 1, true},
		{"", 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.arg, func(t *testing.T) {
			err := e.SetSelectionChanceArg(tt.arg)
			if tt.err {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidCommandInput)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.want, e.Config().SelectionChance)
		})
	}

	err := e.SetSelectionChance(500)
	assert.ErrorIs(t, err, ErrInvalidCommandInput)
	assert.Equal(t, 1, e.Config().SelectionChance)
}

func TestMessages(t *testing.T) {
	e, _, _ := newTestEngine(t, config.Overrides{
		MergeMessages: ptr(true),
		Messages:      ptr([]string{"custom"}),
	})

	msgs := e.Messages()
	assert.Equal(t, append(config.Defaults().Messages, "custom"), msgs)

	// read-only copy
	msgs[0] = "changed"
	assert.NotEqual(t, "changed", e.Messages()[0])
}

func TestReconfigure(t *testing.T) {
	e, src, r := newTestEngine(t, alwaysX())
	src.set("abc")

	err := e.Reconfigure(config.Overrides{SelectionChance: ptr(0)})
	require.ErrorIs(t, err, config.ErrInvalidConfig)
	assert.Equal(t, 100, e.Config().SelectionChance)
	assert.False(t, e.Pending())

	o := alwaysX()
	o.Messages = ptr([]string{"Y"})
	o.DebounceInterval = ptr(int64(10))
	require.NoError(t, e.Reconfigure(o))
	assert.Equal(t, 10*time.Millisecond, e.scheduler.Interval())

	require.Eventually(t, func() bool {
		last := r.last()
		return len(last) == 1 && last[0].Message == "Y"
	}, time.Second, 5*time.Millisecond)
}

func TestRefreshErrors(t *testing.T) {
	e, src, r := newTestEngine(t, alwaysX())
	src.err = errors.New("buffer gone")

	_, err := e.Refresh(context.Background())
	require.Error(t, err)
	clears, draws := r.counts()
	assert.Equal(t, 0, clears+draws)
	assert.True(t, e.Enabled())

	store, err := config.NewStore(config.Defaults(), config.Overrides{})
	require.NoError(t, err)
	bare := New(context.Background(), store)
	defer bare.Close()

	_, err = bare.Refresh(context.Background())
	assert.ErrorIs(t, err, ErrNoSource)

	enabled, err := bare.Toggle(context.Background())
	require.NoError(t, err)
	assert.False(t, enabled)
}

func TestAnnotateWithoutHost(t *testing.T) {
	store, err := config.NewStore(config.Defaults(), alwaysX())
	require.NoError(t, err)
	e := New(context.Background(), store)
	defer e.Close()

	res := e.Annotate(context.Background(), Snapshot{Context: "go", Lines: []string{"a", "b", "a"}})
	assert.Len(t, res.Placements, 2)
}

func TestEngineMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	e, src, _ := newTestEngine(t, alwaysX(), WithMetrics(m))
	src.set("abc", "def", "abc")

	_, err := e.Refresh(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Runs.WithLabelValues("true")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.Lines))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Placements))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Enabled))

	_, err = e.Toggle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.Enabled))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Runs.WithLabelValues("false")))

	// counted even though nothing is scheduled while disabled
	e.Notify()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Triggers))

	mfs, err := reg.Gather()
	require.NoError(t, err)
	names := map[string]bool{}
	for _, mf := range mfs {
		names[mf.GetName()] = true
	}
	for _, name := range []string{"roast_runs_total", "roast_lines_total", "roast_placements_total", "roast_triggers_total", "roast_run_duration_seconds", "roast_enabled"} {
		assert.True(t, names[name], name)
	}
}

// blockingRenderer records renderer calls in order; the first Draw
// waits for release.
type blockingRenderer struct {
	mu      sync.Mutex
	ops     []string
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func newBlockingRenderer() *blockingRenderer {
	return &blockingRenderer{
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (r *blockingRenderer) ClearAll(context.Context, string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops = append(r.ops, "clear")
	return nil
}

func (r *blockingRenderer) Draw(context.Context, string, []session.Placement) error {
	first := false
	r.once.Do(func() { first = true })
	if first {
		close(r.entered)
		<-r.release
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops = append(r.ops, "draw")
	return nil
}

func (r *blockingRenderer) lastOp() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.ops) == 0 {
		return ""
	}
	return r.ops[len(r.ops)-1]
}

func TestToggleDuringDraw(t *testing.T) {
	r := newBlockingRenderer()
	e, src, _ := newTestEngine(t, alwaysX(), WithRenderer(r))
	src.set("abc", "def")
	ctx := context.Background()

	refreshDone := make(chan error, 1)
	go func() {
		_, err := e.Refresh(ctx)
		refreshDone <- err
	}()

	select {
	case <-r.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("draw never started")
	}

	toggleDone := make(chan error, 1)
	go func() {
		_, err := e.Toggle(ctx)
		toggleDone <- err
	}()

	require.Eventually(t, func() bool { return !e.Enabled() }, time.Second, time.Millisecond)
	// the toggle's clear must wait for the draw in progress
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, "", r.lastOp())

	close(r.release)

	for _, done := range []chan error{refreshDone, toggleDone} {
		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Fatal("refresh or toggle didn't finish")
		}
	}

	assert.Equal(t, "clear", r.lastOp())
	assert.Equal(t, []string{"draw", "clear"}, r.ops)
}

func TestNotifyWithoutSource(t *testing.T) {
	store, err := config.NewStore(config.Defaults(), alwaysX())
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	e := New(context.Background(), store, WithMetrics(m))
	defer e.Close()

	e.Notify()
	assert.False(t, e.Pending())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Triggers))

	require.NoError(t, e.SetSelectionChance(40))
	require.NoError(t, e.Reconfigure(alwaysX()))
	assert.False(t, e.Pending())
}

func TestSetSelectionChanceLogs(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))
	ctx := logger.NewContext(context.Background(), log)

	store, err := config.NewStore(config.Defaults(), config.Overrides{})
	require.NoError(t, err)
	e := New(ctx, store)
	defer e.Close()

	require.NoError(t, e.SetSelectionChance(42))
	assert.Contains(t, buf.String(), "selection chance updated")
	assert.Contains(t, buf.String(), "engine.chance=42")
}
