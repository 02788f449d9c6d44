package tui

import (
	"context"
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/agentstream/wren/internal/agentstream"
	"github.com/agentstream/wren/internal/render"
	"github.com/agentstream/wren/internal/providers"
)

// Run builds the watch model over src and drives it to completion with a
// real terminal program. It is the entire surface internal/cli needs to
// implement `wren watch`.
func Run(ctx context.Context, src io.Reader, reg *vendor.Registry, streamOpts agentstream.Options, renderOpts render.Options) error {
	m, err := New(ctx, src, reg, streamOpts, renderOpts)
	if err != nil {
		return err
	}
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err = p.Run()
	return err
}
