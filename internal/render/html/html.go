// Package html renders AgentEvents as semantic HTML fragments (§4.6). No
// surrounding <html>/<body> document is produced; fragments are meant to be
// embedded.
//
// Escaping uses stdlib html.EscapeString: see DESIGN.md for why no pack
// library is a better fit than the one function the contract actually
// needs.
package html

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/agentstream/wren/internal/event"
	"github.com/agentstream/wren/internal/render"
	"github.com/cespare/xxhash/v2"
)

func timeNow() time.Time { return time.Now() }

var _ render.Renderer = (*Renderer)(nil)

// Renderer renders events as HTML fragments.
type Renderer struct {
	opts            render.Options
	ctx             *render.Context
	pendingErrFP    uint64 // xxhash fingerprint of pendingErrMsg
	pendingErrMsg   string // message of the error run currently being counted
	pendingErrCount int    // length of that run so far; 0 means no run pending
}

// New constructs an HTML renderer.
func New(opts render.Options) *Renderer {
	return &Renderer{opts: opts, ctx: render.NewContext(timeNow())}
}

// Render converts one event into an HTML fragment, or "" if filtered.
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
		out = fmt.Sprintf(`<div class="error">unknown event kind %s</div>`, html.EscapeString(string(e.Kind)))
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

// Flush emits any still-buffered error run, then one warning <div> per tool
// still in the start state, matching ANSI's flush semantics (§4.6: "flush
// semantics match ANSI").
func (r *Renderer) Flush() string {
	var buf bytes.Buffer
	buf.WriteString(r.flushPendingErr())

	pending := r.ctx.Tools.Pending()
	for _, name := range pending {
		buf.WriteString(fmt.Sprintf(`<div class="warning">tool %s never completed</div>`, html.EscapeString(name)))
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
	attr := ""
	if r.opts.ShowTimestamps && m.Timestamp != nil {
		attr = fmt.Sprintf(` data-ts="%d"`, *m.Timestamp)
	}
	return fmt.Sprintf(`<div class="msg msg-%s"%s>%s</div>`, html.EscapeString(string(m.Role)), attr, inlineFormat(m.Text))
}

func (r *Renderer) renderTool(tl event.Tool) string {
	class := fmt.Sprintf("tool tool-%s", html.EscapeString(tl.Name))
	switch tl.Phase {
	case event.PhaseStart:
		warning, _ := r.ctx.Tools.Start(tl.Name, timeNow())
		start := fmt.Sprintf(`<div class="%s tool-start"><span class="tool-name">%s</span></div>`, class, html.EscapeString(tl.Name))
		if warning != "" {
			return fmt.Sprintf(`<div class="warning">%s</div>`, html.EscapeString(warning)) + start
		}
		return start
	case event.PhaseStdout, event.PhaseStderr:
		state := r.ctx.Tools.Get(tl.Name)
		if r.opts.CollapseTools && state != nil {
			state.Buffer = append(state.Buffer, tl.Text)
			return ""
		}
		return fmt.Sprintf(`<div class="%s tool-%s">%s</div>`, class, tl.Phase, html.EscapeString(tl.Text))
	case event.PhaseEnd:
		state := r.ctx.Tools.End(tl.Name)
		var buf bytes.Buffer
		if r.opts.CollapseTools && state != nil && len(state.Buffer) > 0 {
			buf.WriteString(fmt.Sprintf(`<div class="%s tool-output">`, class))
			for _, line := range state.Buffer {
				buf.WriteString(fmt.Sprintf(`<div class="tool-line">%s</div>`, html.EscapeString(line)))
			}
			buf.WriteString(`</div>`)
		}
		exitCode := 0
		if tl.ExitCode != nil {
			exitCode = *tl.ExitCode
		}
		status := "success"
		if exitCode != 0 {
			status = "failure"
		}
		buf.WriteString(fmt.Sprintf(`<div class="%s tool-end tool-%s">exit %d</div>`, class, status, exitCode))
		return buf.String()
	default:
		return fmt.Sprintf(`<div class="%s tool-error">unknown phase %s</div>`, class, html.EscapeString(string(tl.Phase)))
	}
}

func (r *Renderer) renderCost(c event.Cost) string {
	return fmt.Sprintf(`<div class="cost">$%.4f</div>`, c.DeltaUSD)
}

// renderError extends the in-progress error run if e continues it, or
// flushes that run and starts a new one. Like the ANSI renderer, it never
// itself returns the run's markup -- only flushPendingErr does, once the run
// is known to have ended -- so a run of 3+ consecutive events with the same
// message collapses into a single div with a data-count attribute instead of
// one div per event (§4.6). Runs are keyed by xxhash.Sum64String(message),
// matching the ANSI renderer's fingerprinting.
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
// shorter than 3 is emitted as one <div> per event (no coalescing); a run of
// 3 or more collapses into a single <div> carrying a data-count attribute.
func (r *Renderer) flushPendingErr() string {
	if r.pendingErrCount == 0 {
		return ""
	}
	var buf bytes.Buffer
	if r.pendingErrCount >= 3 {
		buf.WriteString(fmt.Sprintf(`<div class="error" data-count="%d">%s</div>`, r.pendingErrCount, html.EscapeString(r.pendingErrMsg)))
	} else {
		for i := 0; i < r.pendingErrCount; i++ {
			buf.WriteString(fmt.Sprintf(`<div class="error">%s</div>`, html.EscapeString(r.pendingErrMsg)))
		}
	}
	r.pendingErrMsg = ""
	r.pendingErrCount = 0
	return buf.String()
}

func (r *Renderer) renderDebug(d event.Debug) string {
	raw := bytes.TrimSpace(d.Raw)
	var pretty bytes.Buffer
	if err := json.Compact(&pretty, raw); err != nil {
		pretty.Write(raw)
	}
	return fmt.Sprintf(`<div class="debug"><code>%s</code></div>`, html.EscapeString(pretty.String()))
}

// inlineFormat applies the same minimal Markdown-like transform the ANSI
// renderer does, mapped to HTML tags instead of terminal styles, and
// escapes text content first so a literal "<" or "&" in the message can
// never be interpreted as markup (§4.6's idempotent-escape property, §8).
func inlineFormat(text string) string {
	lines := strings.Split(text, "\n")
	var out strings.Builder
	inFence := false
	for i, line := range lines {
		if i > 0 {
			out.WriteString("<br>")
		}
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "```") && !inFence:
			inFence = true
			out.WriteString("<pre><code>")
			continue
		case strings.HasPrefix(trimmed, "```") && inFence:
			inFence = false
			out.WriteString("</code></pre>")
			continue
		case inFence:
			out.WriteString(html.EscapeString(line))
		default:
			out.WriteString(formatInlineSpans(line))
		}
	}
	if inFence {
		out.WriteString("</code></pre>")
	}
	return out.String()
}

func formatInlineSpans(line string) string {
	line = html.EscapeString(line)
	line = replaceDelimited(line, "**", "strong")
	line = replaceDelimited(line, "`", "code")
	line = replaceDelimited(line, "*", "em")
	return line
}

// replaceDelimited wraps the text between paired occurrences of delim in an
// HTML tag, leaving unpaired delimiters as literal text. line is already
// escaped by formatInlineSpans, so nothing is escaped again here.
func replaceDelimited(line, delim, tag string) string {
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
		out.WriteString(fmt.Sprintf("<%s>%s</%s>", tag, inner, tag))
		rest = rest[start+len(delim)+end+len(delim):]
	}
	return out.String()
}
