package tui

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/agentstream/wren/internal/agentstream"
	"github.com/agentstream/wren/internal/event"
	"github.com/agentstream/wren/internal/render"
	"github.com/agentstream/wren/internal/render/ansi"
	"github.com/agentstream/wren/internal/providers"
)

// Model is the bubbletea model backing `wren watch`: a scrolling viewport of
// rendered events plus a status bar of running totals (message count,
// cumulative cost, elapsed time). It renders every event through the same
// internal/render/ansi.Renderer the non-interactive --format ansi path
// uses, so there is exactly one ANSI rendering implementation in the
// module (SPEC_FULL.md §4.9).
type Model struct {
	stream   *agentstream.Stream
	renderer *ansi.Renderer
	theme    Theme

	viewport viewport.Model
	content  strings.Builder
	ready    bool

	messageCount int
	totalCostUSD float64
	startedAt    time.Time

	width, height int
	done          bool
	err           error
}

// New constructs the watch model over src. reg resolves the vendor parser
// (or auto-detects, per opts.Vendor); renderOpts carries the usual
// hide/collapse/timestamp filters.
func New(ctx context.Context, src io.Reader, reg *vendor.Registry, streamOpts agentstream.Options, renderOpts render.Options) (Model, error) {
	s, err := agentstream.New(ctx, src, reg, streamOpts)
	if err != nil {
		return Model{}, err
	}
	return Model{
		stream:    s,
		renderer:  ansi.New(renderOpts, ansi.DefaultStyles()),
		theme:     DefaultTheme(),
		startedAt: time.Now(),
	}, nil
}

// Init starts draining the event stream and the status bar's tick timer.
func (m Model) Init() tea.Cmd {
	return tea.Batch(waitForEvent(m.stream), tickEvery())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		vpHeight := msg.Height - 4 // title bar + status bar + borders
		if vpHeight < 1 {
			vpHeight = 1
		}
		if !m.ready {
			m.viewport = viewport.New(msg.Width, vpHeight)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = vpHeight
		}
		m.viewport.SetContent(m.content.String())
		return m, nil

	case eventMsg:
		if msg.event.Kind == event.KindMsg {
			m.messageCount++
		}
		if msg.event.Kind == event.KindCost && msg.event.Cost != nil {
			m.totalCostUSD += msg.event.Cost.DeltaUSD
		}
		if out := m.renderer.Render(msg.event); out != "" {
			m.content.WriteString(out)
			m.viewport.SetContent(m.content.String())
			m.viewport.GotoBottom()
		}
		return m, waitForEvent(m.stream)

	case streamDoneMsg:
		m.done = true
		m.err = msg.err
		if out := m.renderer.Flush(); out != "" {
			m.content.WriteString(out)
			m.viewport.SetContent(m.content.String())
			m.viewport.GotoBottom()
		}
		return m, nil

	case tickMsg:
		if m.done {
			return m, nil
		}
		return m, tickEvery()

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.stream.Cancel()
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if !m.ready {
		return "initializing…\n"
	}

	title := m.theme.TitleBar.Width(m.width).Render("wren watch")
	body := m.theme.Viewport.Width(m.width - 2).Render(m.viewport.View())
	status := m.theme.StatusBar.Width(m.width).Render(m.statusLine())

	return fmt.Sprintf("%s\n%s\n%s", title, body, status)
}

func (m Model) statusLine() string {
	elapsed := time.Since(m.startedAt).Round(time.Second)
	state := "streaming"
	if m.done {
		state = "done"
		if m.err != nil {
			state = "error: " + m.err.Error()
		}
	}
	return fmt.Sprintf("%s %s  %s %d  %s $%.4f  %s %s  %s",
		m.theme.StatusKey.Render("state"), m.theme.StatusValue.Render(state),
		m.theme.StatusKey.Render("messages"), m.messageCount,
		m.theme.StatusKey.Render("cost"), m.totalCostUSD,
		m.theme.StatusKey.Render("elapsed"), elapsed,
		m.theme.HelpText.Render("(q to quit)"),
	)
}
