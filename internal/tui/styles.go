// Package tui implements wren watch: a live single-stream event viewer built
// on charmbracelet/bubbletea, grounded on the teacher's internal/tui package
// (styles.go's adaptive palette, event_log.go's viewport-backed scrolling
// log) but reduced from a multi-agent pipeline dashboard to the one thing
// SPEC_FULL.md §4.9 asks for: a scrolling viewport of already-rendered ANSI
// event text plus a status bar of running totals.
package tui

import "github.com/charmbracelet/lipgloss"

// ColorPrimary is the accent color for the title bar and borders, the same
// value the teacher's palette uses.
var ColorPrimary = lipgloss.AdaptiveColor{Light: "#5A56E0", Dark: "#7B78FF"}

// ColorMuted is a subdued foreground for secondary text.
var ColorMuted = lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#9CA3AF"}

// ColorBorder is the standard panel border color.
var ColorBorder = lipgloss.AdaptiveColor{Light: "#E5E7EB", Dark: "#374151"}

// ColorHighlight is the status bar background.
var ColorHighlight = lipgloss.AdaptiveColor{Light: "#F3F4F6", Dark: "#1F2937"}

// Theme holds the lipgloss styles wren watch uses.
type Theme struct {
	TitleBar    lipgloss.Style
	Viewport    lipgloss.Style
	StatusBar   lipgloss.Style
	StatusKey   lipgloss.Style
	StatusValue lipgloss.Style
	HelpText    lipgloss.Style
}

// DefaultTheme returns wren watch's default adaptive-color theme.
func DefaultTheme() Theme {
	return Theme{
		TitleBar: lipgloss.NewStyle().
			Bold(true).
			Background(ColorPrimary).
			Foreground(lipgloss.Color("#FFFFFF")).
			Padding(0, 1),

		Viewport: lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(ColorBorder),

		StatusBar: lipgloss.NewStyle().
			Background(ColorHighlight).
			Foreground(ColorMuted).
			Padding(0, 1),

		StatusKey: lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary),

		StatusValue: lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#374151", Dark: "#D1D5DB"}),

		HelpText: lipgloss.NewStyle().
			Foreground(ColorMuted),
	}
}
