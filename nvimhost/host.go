// Package nvimhost connects the engine to a running Neovim over msgpack
// RPC. Documents are buffers, identified by buffer number, and
// placements are drawn as end-of-line virtual text in a namespace owned
// by the host.
package nvimhost

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/neovim/go-client/nvim"

	"go.ntppool.org/roast/engine"
	"go.ntppool.org/roast/metrics"
	"go.ntppool.org/roast/session"
)

// Namespace is the extmark namespace the host draws in.
const Namespace = "roast"

// API is the part of the Neovim client the host uses; *nvim.Nvim
// implements it.
type API interface {
	CurrentBuffer() (nvim.Buffer, error)
	BufferLines(buffer nvim.Buffer, start, end int, strict bool) ([][]byte, error)
	BufferOption(buffer nvim.Buffer, name string, result interface{}) error
	CreateNamespace(name string) (int, error)
	ClearBufferNamespace(buffer nvim.Buffer, nsID int, lineStart, lineEnd int) error
	SetBufferExtmark(buffer nvim.Buffer, nsID int, line, col int, opts map[string]interface{}) (int, error)
	Command(cmd string) error
	WriteOut(str string) error
	WriteErr(str string) error
}

var _ API = (*nvim.Nvim)(nil)

// Host is an engine.Source and engine.Renderer for the current buffer.
type Host struct {
	api API
	ns  int
}

var (
	_ engine.Source   = (*Host)(nil)
	_ engine.Renderer = (*Host)(nil)
)

// New creates the drawing namespace and returns the host.
func New(api API) (*Host, error) {
	ns, err := api.CreateNamespace(Namespace)
	if err != nil {
		return nil, fmt.Errorf("create namespace: %w", err)
	}
	return &Host{api: api, ns: ns}, nil
}

// LinkHighlight links group to fallback unless the user already defined
// group.
func (h *Host) LinkHighlight(group, fallback string) error {
	if group == "" || fallback == "" || group == fallback {
		return nil
	}
	return h.api.Command(fmt.Sprintf("highlight default link %s %s", group, fallback))
}

func (h *Host) Snapshot(ctx context.Context) (engine.Snapshot, error) {
	buf, err := h.api.CurrentBuffer()
	if err != nil {
		return engine.Snapshot{}, err
	}

	raw, err := h.api.BufferLines(buf, 0, -1, true)
	if err != nil {
		return engine.Snapshot{}, err
	}

	var ft string
	if err := h.api.BufferOption(buf, "filetype", &ft); err != nil {
		return engine.Snapshot{}, err
	}

	lines := make([]string, len(raw))
	for i, l := range raw {
		lines[i] = string(l)
	}

	return engine.Snapshot{
		Document: DocumentID(buf),
		Context:  ft,
		Lines:    lines,
	}, nil
}

func (h *Host) ClearAll(ctx context.Context, document string) error {
	buf, err := ParseDocumentID(document)
	if err != nil {
		return err
	}
	metrics.Add(ctx, metrics.Clears, 1)
	return h.api.ClearBufferNamespace(buf, h.ns, 0, -1)
}

func (h *Host) Draw(ctx context.Context, document string, placements []session.Placement) error {
	buf, err := ParseDocumentID(document)
	if err != nil {
		return err
	}
	metrics.Add(ctx, metrics.Draws, 1)

	if err := h.api.ClearBufferNamespace(buf, h.ns, 0, -1); err != nil {
		return err
	}
	// the buffer may have changed since the snapshot; keep drawing the
	// placements that still fit
	var errs []error
	for _, p := range placements {
		if _, err := h.api.SetBufferExtmark(buf, h.ns, p.Line-1, p.Column, ExtmarkOptions(p)); err != nil {
			errs = append(errs, fmt.Errorf("line %d: %w", p.Line, err))
		}
	}
	return errors.Join(errs...)
}

// ExtmarkOptions returns the nvim_buf_set_extmark options drawing p.
// Marks are not strict so a column past the end of a shortened line is
// clamped instead of rejected.
func ExtmarkOptions(p session.Placement) map[string]interface{} {
	return map[string]interface{}{
		"strict":        false,
		"virt_text":     [][]string{{p.Message, p.Style}},
		"virt_text_pos": "eol",
		"hl_mode":       "combine",
	}
}

func DocumentID(buf nvim.Buffer) string {
	return strconv.Itoa(int(buf))
}

func ParseDocumentID(document string) (nvim.Buffer, error) {
	n, err := strconv.Atoi(document)
	if err != nil {
		return 0, fmt.Errorf("invalid buffer %q: %w", document, err)
	}
	return nvim.Buffer(n), nil
}
