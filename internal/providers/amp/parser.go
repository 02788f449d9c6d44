// Package amp normalizes Amp's build-log JSONL into the AgentEvent algebra.
//
// Amp emits tool-lifecycle build logs rather than a chat transcript: lines
// are either explicitly tagged `"vendor":"amp"` or carry the bare
// {phase, tool, ...} shape characteristic of its build output (§4.2). Amp
// has no documented message/cost event types, so this parser maps
// exclusively to tool/* events.
//
// NOTE (open question, §9): the exact tool_result-equivalent wire shape for
// Amp was inferred from the spec's prose description, not from a captured
// transcript. Validate the stdout/stderr/exit-code field names below against
// a real `amp --jsonl` capture before treating this as authoritative.
package amp

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/agentstream/wren/internal/event"
	"github.com/agentstream/wren/internal/providers"
)

var _ vendor.Parser = (*Parser)(nil)

const wireVendor = "amp"

type wireEvent struct {
	Vendor string `json:"vendor,omitempty"`
	Phase  string `json:"phase"`
	Tool   string `json:"tool"`

	// stdout / stderr
	Text string `json:"text,omitempty"`

	// end
	ExitCode *int `json:"exitCode,omitempty"`
}

// Parser normalizes Amp build-log lines.
type Parser struct {
	meta    vendor.Metadata
	hasMeta bool
}

// New constructs an Amp parser.
func New() *Parser { return &Parser{} }

// WithMetadata attaches optional provenance metadata.
func (p *Parser) WithMetadata(m vendor.Metadata) *Parser {
	p.meta = m
	p.hasMeta = true
	return p
}

// Vendor returns vendor.Amp.
func (p *Parser) Vendor() vendor.Name { return vendor.Amp }

// Metadata returns the parser's optional provenance info.
func (p *Parser) Metadata() (vendor.Metadata, bool) { return p.meta, p.hasMeta }

// Detect claims explicitly vendor-tagged lines, and otherwise the bare
// {phase, tool} shape, so long as phase is one this parser recognizes --
// avoiding a false claim on an unrelated object that happens to have a
// "phase" key.
func (p *Parser) Detect(line string) bool {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "{") {
		return false
	}
	var w wireEvent
	if err := json.Unmarshal([]byte(line), &w); err != nil {
		return false
	}
	if w.Vendor == wireVendor {
		return true
	}
	if w.Tool == "" {
		return false
	}
	switch event.Phase(w.Phase) {
	case event.PhaseStart, event.PhaseStdout, event.PhaseStderr, event.PhaseEnd:
		return true
	default:
		return false
	}
}

// Parse converts one Amp build-log line into zero or more tool/* events.
func (p *Parser) Parse(line string) ([]event.Event, error) {
	var w wireEvent
	if err := json.Unmarshal([]byte(line), &w); err != nil {
		return nil, &vendor.ParseError{VendorName: vendor.Amp, Line: line, Cause: err, Context: "invalid JSON"}
	}

	if w.Tool == "" {
		return nil, &vendor.ParseError{
			VendorName: vendor.Amp,
			Line:       line,
			Cause:      fmt.Errorf("missing tool name"),
			Context:    "build log event",
		}
	}

	switch event.Phase(w.Phase) {
	case event.PhaseStart:
		return []event.Event{event.NewToolStart(w.Tool)}, nil
	case event.PhaseStdout, event.PhaseStderr:
		return []event.Event{event.NewToolOutput(w.Tool, event.Phase(w.Phase), w.Text)}, nil
	case event.PhaseEnd:
		exitCode := 0
		if w.ExitCode != nil {
			exitCode = *w.ExitCode
		}
		return []event.Event{event.NewToolEnd(w.Tool, exitCode)}, nil
	default:
		raw, merr := json.Marshal(w)
		if merr != nil {
			raw = []byte(line)
		}
		return []event.Event{event.NewDebug(raw)}, nil
	}
}
