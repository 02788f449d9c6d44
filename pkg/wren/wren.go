// Package wren is the thin public API re-exporting the programmatic contract
// of §6.1: StreamEvents and StreamFormat, each a lazy pull-driven sequence
// built from the internal pipeline (internal/agentstream, internal/render,
// internal/format). Everything here is a direct wrapper; the implementation
// lives in internal/ so it stays reusable by internal/cli and internal/tui
// without duplicating the registry/renderer wiring in two places.
package wren

import (
	"context"
	"fmt"
	"io"

	"github.com/agentstream/wren/internal/agentstream"
	"github.com/agentstream/wren/internal/event"
	fmtdriver "github.com/agentstream/wren/internal/format"
	"github.com/agentstream/wren/internal/pricing"
	"github.com/agentstream/wren/internal/render"
	"github.com/agentstream/wren/internal/render/ansi"
	"github.com/agentstream/wren/internal/render/html"
	renderjson "github.com/agentstream/wren/internal/render/json"
	"github.com/agentstream/wren/internal/providers"
	"github.com/agentstream/wren/internal/providers/amp"
	"github.com/agentstream/wren/internal/providers/claude"
	"github.com/agentstream/wren/internal/providers/gemini"
)

// Event is the normalized AgentEvent algebra (§3.1), re-exported so callers
// never need to import internal/event directly.
type Event = event.Event

// PriceTable is the externally supplied Claude usage -> cost price table
// (§4.2, §9). A nil table makes the Claude parser emit debug events instead
// of cost events for usage lines.
type PriceTable = pricing.Table

// Vendor identifies the upstream CLI whose output is being normalized (§3.2).
type Vendor string

// The four Vendor identifiers §3.2 defines. VendorAuto is the sentinel for
// detection.
const (
	VendorAuto   Vendor = Vendor(vendor.Auto)
	VendorClaude Vendor = Vendor(vendor.Claude)
	VendorGemini Vendor = Vendor(vendor.Gemini)
	VendorAmp    Vendor = Vendor(vendor.Amp)
)

// Format selects the rendered text representation StreamFormat produces.
type Format string

// The three renderer formats §6.1 recognizes.
const (
	FormatANSI Format = "ansi"
	FormatHTML Format = "html"
	FormatJSON Format = "json"
)

// Options is the flat configuration struct every field of §6.1's options
// table maps onto. There is no builder and no key/value bag: constructing an
// Options with an unknown field is a compile error, which is what §9's
// "reject unknown options at construction" means for a statically typed
// language.
type Options struct {
	Vendor         Vendor
	Format         Format
	HideTools      bool
	HideCost       bool
	HideDebug      bool
	CollapseTools  bool
	CompactMode    bool
	ShowTimestamps bool
	MaxLineLength  int
	Debug          bool

	// Width is the advisory terminal width hint (§6.2's COLUMNS, §9); zero
	// means unset. Threaded straight through to render.Options.Width.
	Width int

	// Pricing is consulted by the Claude parser for usage -> cost
	// conversion; nil means "not configured" (§9).
	Pricing *PriceTable
}

func (o Options) streamOptions() agentstream.Options {
	return agentstream.Options{
		Vendor:        vendor.Name(o.Vendor),
		MaxLineLength: o.MaxLineLength,
		Debug:         o.Debug,
	}
}

func (o Options) renderOptions() render.Options {
	return render.Options{
		HideTools:      o.HideTools,
		HideCost:       o.HideCost,
		HideDebug:      o.HideDebug,
		CollapseTools:  o.CollapseTools,
		CompactMode:    o.CompactMode,
		ShowTimestamps: o.ShowTimestamps,
		Width:          o.Width,
	}
}

// NewRegistry builds the bundled Claude/Gemini/Amp parser registry, priced
// with prices (may be nil). Exported so internal/cli and internal/tui can
// share the exact wiring StreamEvents/StreamFormat use, rather than
// re-registering the three vendors themselves.
func NewRegistry(prices *PriceTable) *vendor.Registry {
	reg := vendor.NewRegistry()
	_ = reg.Register(claude.New(prices), vendor.PriorityClaude)
	_ = reg.Register(amp.New(), vendor.PriorityAmp)
	_ = reg.Register(gemini.New(), vendor.PriorityGemini)
	return reg
}

// EventStream is the handle StreamEvents returns: a channel of Events closed
// at end-of-stream or terminal error, per the pull-driven-sequence contract
// of §5.
type EventStream struct {
	s *agentstream.Stream
}

// Events returns the channel of produced events.
func (e *EventStream) Events() <-chan Event { return e.s.Events() }

// Wait blocks until the pipeline finishes, returning its terminal error (nil
// on clean end-of-stream or caller cancellation).
func (e *EventStream) Wait() error { return e.s.Wait() }

// Cancel stops the stream cooperatively (§5); Events closes at the next
// suspension point.
func (e *EventStream) Cancel() { e.s.Cancel() }

// StreamEvents parses source with the vendor parser opts.Vendor selects (or
// auto-detects) and returns the resulting AgentEvent sequence, unrendered.
func StreamEvents(ctx context.Context, source io.Reader, opts Options) (*EventStream, error) {
	reg := NewRegistry(opts.Pricing)
	s, err := agentstream.New(ctx, source, reg, opts.streamOptions())
	if err != nil {
		return nil, err
	}
	return &EventStream{s: s}, nil
}

// TextStream is the handle StreamFormat returns: a sequence of rendered text
// chunks.
type TextStream struct {
	d *fmtdriver.Driver
}

// Next returns the next non-empty rendered chunk; ok is false once the
// stream and the trailing Flush are both exhausted.
func (t *TextStream) Next() (chunk string, ok bool, err error) { return t.d.Next() }

// Cancel stops the underlying stream cooperatively; Flush output is not
// emitted after Cancel (§5).
func (t *TextStream) Cancel() { t.d.Cancel() }

// WriteTo drains the stream to completion, writing every chunk to w.
func (t *TextStream) WriteTo(w io.Writer) error { return fmtdriver.Drain(w, t.d) }

func newRenderer(format Format, opts render.Options) (render.Renderer, error) {
	switch format {
	case FormatANSI, "":
		return ansi.New(opts, ansi.DefaultStyles()), nil
	case FormatHTML:
		return html.New(opts), nil
	case FormatJSON:
		return renderjson.New(opts, nil), nil
	default:
		return nil, fmt.Errorf("wren: unknown format %q", format)
	}
}

// StreamFormat parses source per opts.Vendor and renders the result with
// opts.Format (or, when opts.Format is unset, ANSI), returning the rendered
// text as a lazy sequence of chunks.
func StreamFormat(ctx context.Context, source io.Reader, opts Options) (*TextStream, error) {
	reg := NewRegistry(opts.Pricing)
	renderer, err := newRenderer(opts.Format, opts.renderOptions())
	if err != nil {
		return nil, err
	}
	d, err := fmtdriver.New(ctx, source, reg, opts.streamOptions(), renderer)
	if err != nil {
		return nil, err
	}
	return &TextStream{d: d}, nil
}

// FormatBatch parses source to completion and renders the whole event
// sequence with a single RenderBatch call, rather than StreamFormat's
// Next-driven per-event path. For opts.Format == FormatJSON with
// CompactMode unset this is what produces the single JSON array §4.7
// documents; every other format/mode combination yields the same text
// StreamFormat would, just collected eagerly instead of streamed.
func FormatBatch(ctx context.Context, source io.Reader, opts Options) (string, error) {
	reg := NewRegistry(opts.Pricing)
	s, err := agentstream.New(ctx, source, reg, opts.streamOptions())
	if err != nil {
		return "", err
	}

	var events []Event
	for e := range s.Events() {
		events = append(events, e)
	}
	if err := s.Wait(); err != nil {
		return "", err
	}

	renderer, err := newRenderer(opts.Format, opts.renderOptions())
	if err != nil {
		return "", err
	}
	return renderer.RenderBatch(events) + renderer.Flush(), nil
}
