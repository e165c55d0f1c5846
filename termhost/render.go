package termhost

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss/v2"

	"go.ntppool.org/roast/metrics"
	"go.ntppool.org/roast/session"
)

// Mode selects how the Renderer lays out placements.
type Mode int

const (
	// ModeLint prints one "path:line:col: message" row per placement.
	ModeLint Mode = iota
	// ModeListing prints the whole document with messages appended to
	// the annotated lines.
	ModeListing
)

// clearScreen moves the cursor home and erases the display.
const clearScreen = "\x1b[H\x1b[2J"

type styles struct {
	location lipgloss.Style
	lineNo   lipgloss.Style
	message  lipgloss.Style
}

func newStyles() styles {
	return styles{
		location: lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		lineNo:   lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		message:  lipgloss.NewStyle().Foreground(lipgloss.Color("213")).Italic(true),
	}
}

// Renderer is an engine.Renderer writing to a terminal. Placement styles
// are editor highlight group names and are ignored here.
type Renderer struct {
	w    io.Writer
	file *File
	mode Mode

	plain  bool
	redraw bool
	styles styles

	mu sync.Mutex
}

type RendererOption func(*Renderer)

// WithPlain disables colors.
func WithPlain(plain bool) RendererOption {
	return func(r *Renderer) { r.plain = plain }
}

// WithRedraw clears the screen before every draw, for watch mode.
func WithRedraw(redraw bool) RendererOption {
	return func(r *Renderer) { r.redraw = redraw }
}

// NewRenderer returns a renderer writing to w. ModeListing reads the
// document text from file.
func NewRenderer(w io.Writer, file *File, mode Mode, opts ...RendererOption) *Renderer {
	r := &Renderer{
		w:      w,
		file:   file,
		mode:   mode,
		styles: newStyles(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Renderer) ClearAll(ctx context.Context, document string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	metrics.Add(ctx, metrics.Clears, 1)

	if r.redraw {
		_, err := io.WriteString(r.w, clearScreen)
		return err
	}
	return nil
}

func (r *Renderer) Draw(ctx context.Context, document string, placements []session.Placement) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	metrics.Add(ctx, metrics.Draws, 1)

	var b strings.Builder
	if r.redraw {
		b.WriteString(clearScreen)
	}

	switch r.mode {
	case ModeListing:
		var lines []string
		if r.file != nil {
			lines = r.file.Lines()
		}
		r.listing(&b, lines, placements)
	default:
		r.lint(&b, document, placements)
	}

	_, err := io.WriteString(r.w, b.String())
	return err
}

func (r *Renderer) lint(b *strings.Builder, document string, placements []session.Placement) {
	for _, p := range placements {
		loc := fmt.Sprintf("%s:%d:%d:", document, p.Line, p.Column+1)
		b.WriteString(r.render(r.styles.location, loc))
		b.WriteByte(' ')
		b.WriteString(r.render(r.styles.message, p.Message))
		b.WriteByte('\n')
	}
}

func (r *Renderer) listing(b *strings.Builder, lines []string, placements []session.Placement) {
	byLine := make(map[int]string, len(placements))
	for _, p := range placements {
		byLine[p.Line] = p.Message
	}

	width := len(fmt.Sprint(len(lines)))
	for i, line := range lines {
		n := i + 1
		b.WriteString(r.render(r.styles.lineNo, fmt.Sprintf("%*d ", width, n)))
		b.WriteString(line)
		if msg, ok := byLine[n]; ok {
			b.WriteString("  ")
			b.WriteString(r.render(r.styles.message, msg))
		}
		b.WriteByte('\n')
	}
}

func (r *Renderer) render(s lipgloss.Style, text string) string {
	if r.plain {
		return text
	}
	return s.Render(text)
}
