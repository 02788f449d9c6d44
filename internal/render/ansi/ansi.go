// Package ansi renders AgentEvents as colored terminal text (§4.5).
//
// Styling is built on charmbracelet/lipgloss, the same library the
// teacher's TUI (internal/tui/styles.go) uses for its panel palette;
// ColorProfile is switched to termenv.Ascii when color is disabled
// (NO_COLOR or --no-color), matching lipgloss's documented escape hatch for
// non-interactive output.
package ansi

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/agentstream/wren/internal/event"
	"github.com/agentstream/wren/internal/render"
	"github.com/cespare/xxhash/v2"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

func timeNow() time.Time { return time.Now() }

var _ render.Renderer = (*Renderer)(nil)

// Styles holds the lipgloss styles the ANSI renderer uses, mirroring the
// teacher's Theme struct (internal/tui/styles.go) scaled down to this
// renderer's five event kinds plus inline formatting.
type Styles struct {
	RoleUser      lipgloss.Style
	RoleAssistant lipgloss.Style
	RoleSystem    lipgloss.Style
	ToolLabel     lipgloss.Style
	ToolSuccess   lipgloss.Style
	ToolFailure   lipgloss.Style
	Cost          lipgloss.Style
	Error         lipgloss.Style
	Debug         lipgloss.Style
	Bold          lipgloss.Style
	Italic        lipgloss.Style
	Code          lipgloss.Style
	CodeBlock     lipgloss.Style
}

// DefaultStyles returns the palette §4.5 specifies: user=cyan,
// assistant=green, system=dim.
func DefaultStyles() Styles {
	return Styles{
		RoleUser:      lipgloss.NewStyle().Foreground(lipgloss.Color("6")),
		RoleAssistant: lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		RoleSystem:    lipgloss.NewStyle().Faint(true),
		ToolLabel:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("5")),
		ToolSuccess:   lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		ToolFailure:   lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
		Cost:          lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
		Error:         lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("1")),
		Debug:         lipgloss.NewStyle().Faint(true),
		Bold:          lipgloss.NewStyle().Bold(true),
		Italic:        lipgloss.NewStyle().Italic(true),
		Code:          lipgloss.NewStyle().Foreground(lipgloss.Color("5")),
		CodeBlock:     lipgloss.NewStyle().Faint(true),
	}
}

// Renderer renders events as ANSI terminal text.
type Renderer struct {
	opts            render.Options
	ctx             *render.Context
	styles          Styles
	pendingErrFP    uint64 // xxhash fingerprint of pendingErrMsg
	pendingErrMsg   string // message of the error run currently being counted
	pendingErrCount int    // length of that run so far; 0 means no run pending
}

// New constructs an ANSI renderer. Pass DefaultStyles() unless the
// caller customizes the palette; disabling color is done by the caller via
// lipgloss.SetColorProfile(termenv.Ascii) before constructing styles, not by
// this package.
func New(opts render.Options, styles Styles) *Renderer {
	return &Renderer{
		opts:   opts,
		ctx:    render.NewContext(timeNow()),
		styles: styles,
	}
}

// Render converts one event into a line (or block) of ANSI text.
func (r *Renderer) Render(e event.Event) string {
	var prefix string
	if e.Kind != event.KindError {
		prefix = r.flushPendingErr()
	}

	if r.filtered(e) {
		return prefix
	}
	r.ctx.Observe(e)

	var out string
	switch e.Kind {
	case event.KindMsg:
		out = r.renderMsg(*e.Msg)
	case event.KindTool:
		out = r.renderTool(*e.Tool)
	case event.KindCost:
		out = r.renderCost(*e.Cost)
	case event.KindError:
		out = r.renderError(*e.Error)
	case event.KindDebug:
		out = r.renderDebug(*e.Debug)
	default:
		out = r.styles.Error.Render(fmt.Sprintf("[unknown event kind %q]", e.Kind)) + "\n"
	}
	return prefix + out
}

// RenderBatch renders a batch of events; equal to the concatenation of
// individual Render calls (§4.4).
func (r *Renderer) RenderBatch(events []event.Event) string {
	var buf bytes.Buffer
	for _, e := range events {
		buf.WriteString(r.Render(e))
	}
	return buf.String()
}

// Flush emits any still-buffered error run, then one warning per tool still
// in the start state, then clears the tool map (§4.5, S6).
func (r *Renderer) Flush() string {
	var buf bytes.Buffer
	buf.WriteString(r.flushPendingErr())

	pending := r.ctx.Tools.Pending()
	for _, name := range pending {
		buf.WriteString(r.styles.Error.Render(fmt.Sprintf("warning: tool %q never completed", name)))
		buf.WriteString("\n")
	}
	r.ctx.Tools.Clear()
	return buf.String()
}

func (r *Renderer) filtered(e event.Event) bool {
	switch e.Kind {
	case event.KindTool:
		return r.opts.HideTools
	case event.KindCost:
		return r.opts.HideCost
	case event.KindDebug:
		return r.opts.HideDebug
	default:
		return false
	}
}

func (r *Renderer) renderMsg(m event.Msg) string {
	var style lipgloss.Style
	switch m.Role {
	case event.RoleUser:
		style = r.styles.RoleUser
	case event.RoleAssistant:
		style = r.styles.RoleAssistant
	default:
		style = r.styles.RoleSystem
	}
	prefix := ""
	if r.opts.ShowTimestamps && m.Timestamp != nil {
		prefix = fmt.Sprintf("[%d] ", *m.Timestamp)
	}
	label := style.Render(string(m.Role) + ":")
	text := inlineFormat(m.Text, r.styles)
	if r.opts.Width > 0 {
		text = lipgloss.NewStyle().Width(r.opts.Width).Render(text)
	}
	return prefix + label + " " + text + "\n"
}

func (r *Renderer) renderTool(tl event.Tool) string {
	switch tl.Phase {
	case event.PhaseStart:
		if warning, _ := r.ctx.Tools.Start(tl.Name, timeNow()); warning != "" {
			return r.styles.Error.Render(warning) + "\n" +
				r.styles.ToolLabel.Render("▶ "+tl.Name) + "\n"
		}
		return r.styles.ToolLabel.Render("▶ " + tl.Name) + "\n"

	case event.PhaseStdout, event.PhaseStderr:
		state := r.ctx.Tools.Get(tl.Name)
		if r.opts.CollapseTools && state != nil {
			state.Buffer = append(state.Buffer, tl.Text)
			return ""
		}
		return "  " + tl.Text + "\n"

	case event.PhaseEnd:
		state := r.ctx.Tools.End(tl.Name)
		var buf bytes.Buffer
		if r.opts.CollapseTools && state != nil && len(state.Buffer) > 0 {
			buf.WriteString(r.styles.ToolLabel.Render(fmt.Sprintf("  (%s)", humanize.Bytes(uint64(collapsedSize(state.Buffer))))))
			buf.WriteString("\n")
			for _, line := range state.Buffer {
				buf.WriteString("  " + line + "\n")
			}
		}
		glyph, style := "✓", r.styles.ToolSuccess
		exitCode := 0
		if tl.ExitCode != nil {
			exitCode = *tl.ExitCode
		}
		if exitCode != 0 {
			glyph, style = "✗", r.styles.ToolFailure
		}
		buf.WriteString(style.Render(fmt.Sprintf("%s %s (exit %d)", glyph, tl.Name, exitCode)))
		buf.WriteString("\n")
		return buf.String()

	default:
		return r.styles.Error.Render(fmt.Sprintf("[unknown tool phase %q for %s]", tl.Phase, tl.Name)) + "\n"
	}
}

func collapsedSize(lines []string) int {
	n := 0
	for _, l := range lines {
		n += len(l)
	}
	return n
}

func (r *Renderer) renderCost(c event.Cost) string {
	return r.styles.Cost.Render(fmt.Sprintf("$%.4f", c.DeltaUSD)) + "\n"
}

// renderError extends the in-progress error run if e continues it, or
// flushes that run and starts a new one. It never itself returns the run's
// text -- only flushPendingErr does, once the run is known to have ended --
// so that a run of 3+ consecutive events with the same message collapses
// into a single "(x N)" line instead of one line per event (§4.5). Runs are
// keyed by xxhash.Sum64String(message) rather than the raw string so long
// messages coalesce cheaply.
func (r *Renderer) renderError(e event.Error) string {
	fp := xxhash.Sum64String(e.Message)
	if r.pendingErrCount > 0 && fp == r.pendingErrFP {
		r.pendingErrCount++
		return ""
	}
	prefix := r.flushPendingErr()
	r.pendingErrFP = fp
	r.pendingErrMsg = e.Message
	r.pendingErrCount = 1
	return prefix
}

// flushPendingErr emits the buffered error run, if any, and resets it. A run
// shorter than 3 is emitted as one line per event (no coalescing); a run of
// 3 or more collapses into a single "error: <message> (x N)" line.
func (r *Renderer) flushPendingErr() string {
	if r.pendingErrCount == 0 {
		return ""
	}
	var buf bytes.Buffer
	if r.pendingErrCount >= 3 {
		buf.WriteString(r.styles.Error.Render(fmt.Sprintf("error: %s (x%d)", r.pendingErrMsg, r.pendingErrCount)))
		buf.WriteString("\n")
	} else {
		for i := 0; i < r.pendingErrCount; i++ {
			buf.WriteString(r.styles.Error.Render("error: " + r.pendingErrMsg))
			buf.WriteString("\n")
		}
	}
	r.pendingErrMsg = ""
	r.pendingErrCount = 0
	return buf.String()
}

func (r *Renderer) renderDebug(d event.Debug) string {
	return r.styles.Debug.Render(string(bytes.TrimSpace(d.Raw))) + "\n"
}

// inlineFormat applies the minimal Markdown-like transform §4.5 specifies:
// **bold**, *italic*, `code`, and fenced ``` code blocks rendered verbatim
// with no inner transform. The transform is line-safe: an unclosed fence is
// closed at message end rather than leaking into subsequent output.
func inlineFormat(text string, styles Styles) string {
	lines := strings.Split(text, "\n")
	var out strings.Builder
	inFence := false
	for i, line := range lines {
		if i > 0 {
			out.WriteString("\n")
		}
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "```") && !inFence:
			inFence = true
			continue
		case strings.HasPrefix(trimmed, "```") && inFence:
			inFence = false
			continue
		case inFence:
			out.WriteString(styles.CodeBlock.Render(line))
		default:
			out.WriteString(formatInlineSpans(line, styles))
		}
	}
	return out.String()
}

func formatInlineSpans(line string, styles Styles) string {
	line = replaceDelimited(line, "**", styles.Bold)
	line = replaceDelimited(line, "`", styles.Code)
	line = replaceDelimited(line, "*", styles.Italic)
	return line
}

// replaceDelimited wraps text between paired occurrences of delim with
// style.Render, leaving unpaired delimiters untouched.
func replaceDelimited(line, delim string, style lipgloss.Style) string {
	var out strings.Builder
	rest := line
	for {
		start := strings.Index(rest, delim)
		if start < 0 {
			out.WriteString(rest)
			break
		}
		end := strings.Index(rest[start+len(delim):], delim)
		if end < 0 {
			out.WriteString(rest)
			break
		}
		out.WriteString(rest[:start])
		inner := rest[start+len(delim) : start+len(delim)+end]
		out.WriteString(style.Render(inner))
		rest = rest[start+len(delim)+end+len(delim):]
	}
	return out.String()
}
