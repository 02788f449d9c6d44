// Package gemini normalizes Gemini CLI's output into the AgentEvent algebra.
//
// Gemini CLI's --stream-json mode emits structured JSONL tagged with
// `"source":"gemini"`, but (per §4.2) can also fall back to free-form text
// output that is not JSON at all. The parser handles both: a structured line
// maps through the same type vocabulary the Claude parser uses (message,
// tool, cost, error) adapted to Gemini's flatter event shape; a line that
// fails to parse as JSON is treated as first-class plain-text chat output,
// not a parse failure, and becomes one `msg` event with role assistant.
package gemini

import (
	"encoding/json"
	"strings"

	"github.com/agentstream/wren/internal/event"
	"github.com/agentstream/wren/internal/providers"
)

var _ vendor.Parser = (*Parser)(nil)

const wireSource = "gemini"

type wireType string

const (
	wireMessage wireType = "message"
	wireTool    wireType = "tool"
	wireCost    wireType = "cost"
	wireError   wireType = "error"
)

type wireEvent struct {
	Source string   `json:"source"`
	Type   wireType `json:"type"`

	// message
	Role event.Role `json:"role,omitempty"`
	Text string     `json:"text,omitempty"`

	// tool
	Name     string `json:"name,omitempty"`
	Phase    string `json:"phase,omitempty"`
	ExitCode *int   `json:"exitCode,omitempty"`

	// cost
	DeltaUSD *float64 `json:"deltaUsd,omitempty"`

	// error
	Message string `json:"message,omitempty"`
}

// Parser normalizes Gemini CLI lines.
type Parser struct {
	meta    vendor.Metadata
	hasMeta bool
}

// New constructs a Gemini parser.
func New() *Parser { return &Parser{} }

// WithMetadata attaches optional provenance metadata.
func (p *Parser) WithMetadata(m vendor.Metadata) *Parser {
	p.meta = m
	p.hasMeta = true
	return p
}

// Vendor returns vendor.Gemini.
func (p *Parser) Vendor() vendor.Name { return vendor.Gemini }

// Metadata returns the parser's optional provenance info.
func (p *Parser) Metadata() (vendor.Metadata, bool) { return p.meta, p.hasMeta }

// Detect claims a line either when it is Gemini-tagged JSON, or -- the
// free-form text fallback -- when it plainly is not JSON-object shaped at
// all, so Detect does not collide with Claude or Amp's object-shaped lines
// during auto-detect sampling (§4.2: "must return false for lines it cannot
// confidently claim").
func (p *Parser) Detect(line string) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return false
	}
	if strings.HasPrefix(trimmed, "{") {
		var w wireEvent
		if err := json.Unmarshal([]byte(line), &w); err == nil && w.Source == wireSource {
			return true
		}
		return false
	}
	return true
}

// Parse converts one Gemini line into zero or more events.
func (p *Parser) Parse(line string) ([]event.Event, error) {
	trimmed := strings.TrimSpace(line)

	var w wireEvent
	if err := json.Unmarshal([]byte(line), &w); err != nil {
		// Not JSON at all: free-form text output, per §4.2.
		return []event.Event{event.NewMsg(event.RoleAssistant, trimmed, nil)}, nil
	}

	if w.Source != wireSource {
		// Valid JSON but not ours; preserve it rather than discard it.
		raw, merr := json.Marshal(w)
		if merr != nil {
			raw = []byte(line)
		}
		return []event.Event{event.NewDebug(raw)}, nil
	}

	switch w.Type {
	case wireMessage:
		role := w.Role
		if role == "" {
			role = event.RoleAssistant
		}
		return []event.Event{event.NewMsg(role, w.Text, nil)}, nil
	case wireTool:
		return parseTool(w)
	case wireCost:
		delta := 0.0
		if w.DeltaUSD != nil {
			delta = *w.DeltaUSD
		}
		return []event.Event{event.NewCost(delta)}, nil
	case wireError:
		return []event.Event{event.NewError(w.Message)}, nil
	default:
		raw, merr := json.Marshal(w)
		if merr != nil {
			raw = []byte(line)
		}
		return []event.Event{event.NewDebug(raw)}, nil
	}
}

func parseTool(w wireEvent) ([]event.Event, error) {
	switch event.Phase(w.Phase) {
	case event.PhaseStart:
		return []event.Event{event.NewToolStart(w.Name)}, nil
	case event.PhaseStdout, event.PhaseStderr:
		return []event.Event{event.NewToolOutput(w.Name, event.Phase(w.Phase), w.Text)}, nil
	case event.PhaseEnd:
		exitCode := 0
		if w.ExitCode != nil {
			exitCode = *w.ExitCode
		}
		return []event.Event{event.NewToolEnd(w.Name, exitCode)}, nil
	default:
		return nil, &vendor.ParseError{
			VendorName: vendor.Gemini,
			Cause:      errUnknownPhase(w.Phase),
			Context:    "tool event",
		}
	}
}

type errUnknownPhase string

func (e errUnknownPhase) Error() string { return "unrecognized tool phase " + string(e) }
