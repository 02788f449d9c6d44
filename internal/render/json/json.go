// Package json renders AgentEvents as line-delimited or pretty-printed JSON
// (§4.7). Filtering is applied per event; Flush is always empty because the
// JSON renderer has no trailing material to emit.
package json

import (
	"bytes"
	stdjson "encoding/json"
	"time"

	"github.com/agentstream/wren/internal/event"
	"github.com/agentstream/wren/internal/render"
)

var _ render.Renderer = (*Renderer)(nil)

// timestamped is the wire shape emitted when ShowTimestamps is set: the
// event's own flat JSON fields plus a top-level "ts" field. Event's
// MarshalJSON already produces a flat object, so timestamped re-decodes it
// into a generic map rather than duplicating field layout here.
type timestamped map[string]interface{}

// Renderer renders events as JSON, compact (JSONL) or pretty.
type Renderer struct {
	opts render.Options
	ctx  *render.Context
	now  func() time.Time
}

// New constructs a JSON renderer. now is injectable for deterministic tests;
// nil defaults to time.Now.
func New(opts render.Options, now func() time.Time) *Renderer {
	if now == nil {
		now = time.Now
	}
	return &Renderer{opts: opts, ctx: render.NewContext(now()), now: now}
}

// Render converts one event to a JSON line (compact) or indented JSON
// document (pretty), or "" if filtered out.
func (r *Renderer) Render(e event.Event) string {
	if r.filtered(e) {
		return ""
	}
	r.ctx.Observe(e)
	out := r.encode(e)
	if out == "" {
		return ""
	}
	if r.opts.CompactMode {
		return out + "\n"
	}
	return out + "\n"
}

// RenderBatch renders a batch of events. In compact mode it equals
// concatenating Render on each event (§4.4's default contract). In pretty
// mode it is the one documented exception to that contract (§4.7):
// "renderBatch in pretty mode emits a single JSON array of events," so kept
// events are collected and marshaled together rather than one document per
// event.
func (r *Renderer) RenderBatch(events []event.Event) string {
	if r.opts.CompactMode {
		var buf bytes.Buffer
		for _, e := range events {
			buf.WriteString(r.Render(e))
		}
		return buf.String()
	}

	kept := make([]event.Event, 0, len(events))
	for _, e := range events {
		if r.filtered(e) {
			continue
		}
		r.ctx.Observe(e)
		kept = append(kept, e)
	}
	raw, err := stdjson.MarshalIndent(kept, "", "  ")
	if err != nil {
		// RendererError isolation (§7): substitute a single error event
		// rather than propagate, matching encode's per-event fallback.
		raw, _ = stdjson.MarshalIndent([]event.Event{event.NewError("render: failed to encode batch: " + err.Error())}, "", "  ")
	}
	return string(raw) + "\n"
}

// Flush returns the empty string: the JSON renderer has no trailing state.
func (r *Renderer) Flush() string { return "" }

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

func (r *Renderer) encode(e event.Event) string {
	var raw []byte
	var err error
	if r.opts.CompactMode {
		raw, err = stdjson.Marshal(e)
	} else {
		raw, err = stdjson.MarshalIndent(e, "", "  ")
	}
	if err != nil {
		// RendererError isolation (§7): substitute an error event rather
		// than propagate.
		raw, _ = stdjson.Marshal(event.NewError("render: failed to encode event: " + err.Error()))
	}

	if !r.opts.ShowTimestamps {
		return string(raw)
	}

	var fields timestamped
	if err := stdjson.Unmarshal(raw, &fields); err != nil {
		return string(raw)
	}
	fields["ts"] = r.now().UTC().Format(time.RFC3339Nano)
	stamped, err := stdjson.Marshal(fields)
	if err != nil {
		return string(raw)
	}
	if !r.opts.CompactMode {
		var pretty bytes.Buffer
		if err := stdjson.Indent(&pretty, stamped, "", "  "); err == nil {
			return pretty.String()
		}
	}
	return string(stamped)
}
