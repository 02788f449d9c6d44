package claude

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/agentstream/wren/internal/event"
	"github.com/agentstream/wren/internal/pricing"
	"github.com/agentstream/wren/internal/providers"
)

// Compile-time check that Parser implements vendor.Parser.
var _ vendor.Parser = (*Parser)(nil)

// detectSubstr is checked by Detect before attempting a full JSON parse, the
// same cheap-prefilter idea as the teacher's ParseRateLimit regexes: a
// substring test is far cheaper than json.Unmarshal on every candidate line.
const detectSubstr = `"type"`

var recognizedTypes = map[wireType]bool{
	wireMessage:    true,
	wireToolUse:    true,
	wireToolResult: true,
	wireUsage:      true,
	wireError:      true,
}

// Parser normalizes Claude Code's stream-json-shaped lines.
//
// Parser is stateful across the lifetime of one stream: it maintains a
// tool_use.id -> name map so that a later tool_result line (which carries
// only tool_use_id) can still emit tool/stdout|stderr and tool/end events
// carrying the original tool name, matching S3's lifecycle scenario. See
// DESIGN.md for why this resolves §4.2's two seemingly conflicting
// sentences about id->name correlation in favor of the tool_result bullet.
type Parser struct {
	mu      sync.Mutex
	idName  map[string]string
	prices  *pricing.Table
	meta    vendor.Metadata
	hasMeta bool
}

// New constructs a Claude parser. prices may be nil: when nil, or when a
// usage event names an unpriced model, usage maps to a debug event rather
// than a cost event (§4.2, §9).
func New(prices *pricing.Table) *Parser {
	return &Parser{idName: make(map[string]string), prices: prices}
}

// WithMetadata attaches optional provenance metadata and returns the parser
// for chaining.
func (p *Parser) WithMetadata(m vendor.Metadata) *Parser {
	p.meta = m
	p.hasMeta = true
	return p
}

// Vendor returns vendor.Claude.
func (p *Parser) Vendor() vendor.Name { return vendor.Claude }

// Metadata returns the parser's optional provenance info.
func (p *Parser) Metadata() (vendor.Metadata, bool) { return p.meta, p.hasMeta }

// Detect reports whether line looks like a Claude JSON event: a cheap
// substring check followed by confirming the `type` value is one this
// parser recognizes. Detect never panics and never returns true on error.
func (p *Parser) Detect(line string) bool {
	if !strings.Contains(line, detectSubstr) {
		return false
	}
	var w wireEvent
	if err := json.Unmarshal([]byte(line), &w); err != nil {
		return false
	}
	return recognizedTypes[w.Type]
}

// Parse converts one Claude JSON line into zero or more events.
func (p *Parser) Parse(line string) ([]event.Event, error) {
	var w wireEvent
	if err := json.Unmarshal([]byte(line), &w); err != nil {
		return nil, &vendor.ParseError{VendorName: vendor.Claude, Line: line, Cause: err, Context: "invalid JSON"}
	}

	switch w.Type {
	case wireMessage:
		return p.parseMessage(w)
	case wireToolUse:
		return p.parseToolUse(w)
	case wireToolResult:
		return p.parseToolResult(line, w)
	case wireUsage:
		return p.parseUsage(w)
	case wireError:
		return []event.Event{event.NewError(w.Message)}, nil
	default:
		raw, err := json.Marshal(w)
		if err != nil {
			raw = []byte(line)
		}
		return []event.Event{event.NewDebug(raw)}, nil
	}
}

func (p *Parser) parseMessage(w wireEvent) ([]event.Event, error) {
	role := event.Role(w.Role)
	switch role {
	case event.RoleUser, event.RoleAssistant, event.RoleSystem:
	default:
		return nil, &vendor.ParseError{
			VendorName: vendor.Claude,
			Cause:      fmt.Errorf("unrecognized role %q", w.Role),
			Context:    "message event",
		}
	}
	text := textFromContent(w.Content)
	return []event.Event{event.NewMsg(role, text, w.Timestamp)}, nil
}

func (p *Parser) parseToolUse(w wireEvent) ([]event.Event, error) {
	if w.Name == "" {
		return nil, &vendor.ParseError{
			VendorName: vendor.Claude,
			Cause:      fmt.Errorf("tool_use missing name"),
			Context:    "tool_use event",
		}
	}
	if w.ID != "" {
		p.mu.Lock()
		p.idName[w.ID] = w.Name
		p.mu.Unlock()
	}
	return []event.Event{event.NewToolStart(w.Name)}, nil
}

func (p *Parser) parseToolResult(line string, w wireEvent) ([]event.Event, error) {
	name := p.resolveToolName(w.ToolUseID)
	if name == "" {
		return nil, &vendor.ParseError{
			VendorName: vendor.Claude,
			Line:       line,
			Cause:      fmt.Errorf("tool_result references unknown tool_use_id %q", w.ToolUseID),
			Context:    "tool_result event",
		}
	}

	phase := event.PhaseStdout
	if isStderr(w.Content) {
		phase = event.PhaseStderr
	}

	exitCode := 0
	switch {
	case w.ExitCode != nil:
		exitCode = *w.ExitCode
	case w.IsError != nil && *w.IsError:
		exitCode = 1
	}

	return []event.Event{
		event.NewToolOutput(name, phase, w.Output),
		event.NewToolEnd(name, exitCode),
	}, nil
}

func (p *Parser) resolveToolName(id string) string {
	if id == "" {
		return ""
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	name := p.idName[id]
	delete(p.idName, id)
	return name
}

func (p *Parser) parseUsage(w wireEvent) ([]event.Event, error) {
	if p.prices != nil {
		if usd, ok := p.prices.Cost(w.Model, w.InputTokens, w.OutputTokens); ok {
			return []event.Event{event.NewCost(usd)}, nil
		}
	}
	raw, err := json.Marshal(w)
	if err != nil {
		raw = []byte(`{"type":"usage"}`)
	}
	return []event.Event{event.NewDebug(raw)}, nil
}
