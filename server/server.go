// Package server exposes an engine over HTTP for hosts that can't embed
// the library, such as editor plugins written in other languages.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	slogecho "github.com/samber/slog-echo"
	"go.ntppool.org/common/logger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	"go.ntppool.org/roast/engine"
)

type Server struct {
	eng  *engine.Engine
	log  *slog.Logger
	echo *echo.Echo
}

func New(ctx context.Context, eng *engine.Engine) *Server {
	srv := &Server{
		eng: eng,
		log: logger.FromContext(ctx).WithGroup("http"),
	}
	srv.echo = srv.setupEcho()
	return srv
}

func (srv *Server) setupEcho() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(otelecho.Middleware("roast"))
	e.Use(slogecho.New(srv.log))

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	e.POST("/annotate", srv.annotate)
	e.POST("/toggle", srv.toggle)
	e.PUT("/chance", srv.setChance)
	e.GET("/messages", srv.messages)
	e.GET("/config", srv.getConfig)

	return e
}

// Handler returns the HTTP handler for the API.
func (srv *Server) Handler() http.Handler {
	return srv.echo
}

// Run serves on listen until ctx is done, then shuts down gracefully.
func (srv *Server) Run(ctx context.Context, listen string) error {
	hs := &http.Server{
		Addr:    listen,
		Handler: srv.echo,

		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       20 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       240 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		srv.log.InfoContext(ctx, "starting http server", "listen", listen)
		errc <- hs.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	srv.log.InfoContext(ctx, "shutting down http server")
	if err := hs.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
