package server

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"go.ntppool.org/roast/config"
	"go.ntppool.org/roast/engine"
)

type annotateRequest struct {
	Document string   `json:"document"`
	Context  string   `json:"context"`
	Lines    []string `json:"lines"`
}

type chanceRequest struct {
	Chance int `json:"chance"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type configJSON struct {
	SelectionChance  int      `json:"selection_chance"`
	MinLineLength    int      `json:"min_line_length"`
	Messages         []string `json:"messages"`
	IgnoredContexts  []string `json:"ignored_contexts"`
	DebounceInterval int64    `json:"debounce_interval"`
	Highlight        string   `json:"highlight"`
}

func newConfigJSON(cfg config.Config) configJSON {
	return configJSON{
		SelectionChance:  cfg.SelectionChance,
		MinLineLength:    cfg.MinLineLength,
		Messages:         cfg.Messages,
		IgnoredContexts:  cfg.IgnoredContexts,
		DebounceInterval: cfg.DebounceInterval.Milliseconds(),
		Highlight:        cfg.Highlight,
	}
}

func (srv *Server) annotate(c echo.Context) error {
	req := annotateRequest{}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
	}

	ctx := c.Request().Context()
	res := srv.eng.Annotate(ctx, engine.Snapshot{
		Document: req.Document,
		Context:  req.Context,
		Lines:    req.Lines,
	})

	trace.SpanFromContext(ctx).SetAttributes(
		attribute.String("run_id", res.RunID.String()),
		attribute.Int("placements", len(res.Placements)),
	)

	return c.JSON(http.StatusOK, res)
}

func (srv *Server) toggle(c echo.Context) error {
	enabled, err := srv.eng.Toggle(c.Request().Context())
	if err != nil {
		srv.log.WarnContext(c.Request().Context(), "toggle", "err", err)
	}
	return c.JSON(http.StatusOK, map[string]bool{"enabled": enabled})
}

func (srv *Server) setChance(c echo.Context) error {
	req := chanceRequest{}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
	}

	if err := srv.eng.SetSelectionChance(req.Chance); err != nil {
		if errors.Is(err, engine.ErrInvalidCommandInput) {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		}
		return err
	}

	return c.JSON(http.StatusOK, chanceRequest{Chance: srv.eng.Config().SelectionChance})
}

func (srv *Server) messages(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string][]string{"messages": srv.eng.Messages()})
}

func (srv *Server) getConfig(c echo.Context) error {
	return c.JSON(http.StatusOK, newConfigJSON(srv.eng.Config()))
}
