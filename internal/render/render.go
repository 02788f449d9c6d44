// Package render defines the renderer contract every output format
// (ansi, html, json) implements, plus the shared per-stream state
// (RenderContext, ToolState) that tracks tool lifecycle and message counts
// across a rendering pass (§3.3, §3.4, §4.4).
package render

import (
	"fmt"
	"sort"
	"time"

	"github.com/agentstream/wren/internal/event"
)

// Options are the filtering and formatting options every renderer
// recognizes, per §4.4/§6.1. Options is a flat struct: there is no
// arbitrary key/value bag, per §9's "reject unknown options at
// construction."
type Options struct {
	HideTools      bool
	HideCost       bool
	HideDebug      bool
	CollapseTools  bool
	CompactMode    bool // JSON only
	ShowTimestamps bool

	// Width is the advisory terminal width hint sourced from --columns or
	// the COLUMNS environment variable (§6.2, §9). Zero means unset: no
	// wrapping is applied. It is consulted by the ANSI renderer's message
	// text only; HTML leaves wrapping to the browser and JSON's output is
	// not a display surface, so both ignore it.
	Width int
}

// Renderer converts AgentEvents into output text chunks for one format.
//
// Render never returns an error: a RendererError (§7) is isolated internally
// -- the offending event is skipped and an error event substituted in its
// output position -- so the public sequence interface never throws.
type Renderer interface {
	// Render converts one event into a (possibly empty) chunk of output.
	Render(e event.Event) string

	// RenderBatch renders a batch of events. Its result must equal the
	// concatenation of calling Render on each event individually, with one
	// documented exception: the JSON renderer's pretty mode instead emits
	// the batch as a single JSON array (§4.7).
	RenderBatch(events []event.Event) string

	// Flush is called once at end-of-stream. It emits trailing material
	// (e.g. a warning for tools that started but never ended) and releases
	// any retained state. Flush is never called after cancellation (§5).
	Flush() string
}

// ToolState tracks one named tool's lifecycle across start/stdout/stderr/end
// (§3.3). The buffer is only populated in collapse mode; otherwise output is
// streamed immediately and Buffer stays empty.
type ToolState struct {
	Name      string
	StartedAt time.Time
	Buffer    []string
	Collapsed bool
}

// ToolMap tracks all in-flight tools for one RenderContext, keyed by name.
// It must never grow without bound: entries are removed on tool/end, and
// Flush drains whatever remains.
type ToolMap struct {
	tools map[string]*ToolState
}

// NewToolMap returns an empty ToolMap.
func NewToolMap() *ToolMap { return &ToolMap{tools: make(map[string]*ToolState)} }

// Start registers name as newly started, returning a synthetic warning if a
// tool with the same name was already in-flight (§3.3: "the second replaces
// the first and emits a synthetic error event").
func (m *ToolMap) Start(name string, now time.Time) (warning string, hadPrevious bool) {
	if _, exists := m.tools[name]; exists {
		warning = fmt.Sprintf("tool %q restarted before its previous invocation ended", name)
		hadPrevious = true
	}
	m.tools[name] = &ToolState{Name: name, StartedAt: now}
	return warning, hadPrevious
}

// Get returns the in-flight state for name, or nil if none.
func (m *ToolMap) Get(name string) *ToolState { return m.tools[name] }

// End removes name from the map, returning its final state (or nil if it was
// never started).
func (m *ToolMap) End(name string) *ToolState {
	st := m.tools[name]
	delete(m.tools, name)
	return st
}

// Pending returns the names of all tools still in-flight, sorted, for Flush
// to report deterministically.
func (m *ToolMap) Pending() []string {
	names := make([]string, 0, len(m.tools))
	for name := range m.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clear empties the map (called after Flush reports pending tools).
func (m *ToolMap) Clear() { m.tools = make(map[string]*ToolState) }

// Len reports the number of in-flight tools.
func (m *ToolMap) Len() int { return len(m.tools) }

// Context is the ephemeral per-stream state a renderer owns for the
// duration of one rendering pass (§3.4). It is not safe for concurrent use;
// each stream constructs its own.
type Context struct {
	PreviousEvent   *event.Event
	MessageCount    int
	RenderStartTime time.Time
	Tools           *ToolMap
}

// NewContext returns a fresh Context with the clock started at now.
func NewContext(now time.Time) *Context {
	return &Context{RenderStartTime: now, Tools: NewToolMap()}
}

// Observe records e as having been rendered, updating MessageCount and
// PreviousEvent. Renderers call this once per event they render.
func (c *Context) Observe(e event.Event) {
	if e.Kind == event.KindMsg {
		c.MessageCount++
	}
	prev := e
	c.PreviousEvent = &prev
}
