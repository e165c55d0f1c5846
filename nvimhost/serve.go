package nvimhost

import (
	"context"
	"fmt"
	"io"

	"github.com/neovim/go-client/nvim"
	"github.com/neovim/go-client/nvim/plugin"
	"go.ntppool.org/common/logger"

	"go.ntppool.org/roast/config"
	"go.ntppool.org/roast/engine"
	"go.ntppool.org/roast/metrics"
)

// Manifest returns the registration script for the remote plugin
// named host.
func Manifest(host string) []byte {
	p := plugin.New(nil)
	NewCommands(context.Background(), nil, nil).Register(p)
	return p.Manifest(host)
}

// Serve runs the plugin over the RPC stream on r and w until Neovim
// closes it or ctx is done. The engine is built from store with opts
// plus the host as source and renderer, and passed to ready (if not nil)
// before serving starts.
func Serve(ctx context.Context, store *config.Store, r io.Reader, w io.WriteCloser, ready func(*engine.Engine), opts ...engine.Option) error {
	log := logger.FromContext(ctx).WithGroup("nvim")

	if err := metrics.InitInstruments(); err != nil {
		log.WarnContext(ctx, "could not initialize host metrics", "err", err)
	}

	v, err := nvim.New(r, w, w, func(format string, args ...interface{}) {
		log.DebugContext(ctx, fmt.Sprintf(format, args...))
	})
	if err != nil {
		return err
	}
	defer v.Close()

	host, err := New(v)
	if err != nil {
		return err
	}

	if err := host.LinkHighlight(store.Config().Highlight, config.FallbackHighlight); err != nil {
		log.WarnContext(ctx, "could not link highlight group", "err", err)
	}

	opts = append(opts, engine.WithSource(host), engine.WithRenderer(host))
	eng := engine.New(ctx, store, opts...)
	defer eng.Close()
	if ready != nil {
		ready(eng)
	}

	p := plugin.New(v)
	NewCommands(ctx, eng, host).Register(p)

	errc := make(chan error, 1)
	go func() { errc <- v.Serve() }()

	log.InfoContext(ctx, "serving neovim plugin")

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		v.Close()
		<-errc
		return nil
	}
}
