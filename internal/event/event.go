// Package event defines the normalized AgentEvent algebra that every vendor
// parser produces and every renderer consumes.
//
// An Event is a closed tagged union of five variants (Kind). Only the
// payload field matching Kind is populated; the others are nil. This mirrors
// the teacher's StreamEvent/ContentBlock convention of a discriminator field
// plus optional typed sub-structures, rather than a Go interface hierarchy --
// a closed algebra is easier to marshal exhaustively and to switch over
// without a default case silently swallowing a new variant.
package event

import (
	"encoding/json"
	"fmt"
)

// Kind identifies which variant of Event is populated.
type Kind string

// The five closed variants of the AgentEvent algebra.
const (
	KindMsg   Kind = "msg"
	KindTool  Kind = "tool"
	KindCost  Kind = "cost"
	KindError Kind = "error"
	KindDebug Kind = "debug"
)

// Role identifies who produced a Msg event.
type Role string

// The three roles a chat message may carry.
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Phase identifies one lifecycle point of a tool invocation. Phases obey the
// grammar start (stdout|stderr)* end for a given tool name.
type Phase string

// The four phases of a tool's lifecycle.
const (
	PhaseStart  Phase = "start"
	PhaseStdout Phase = "stdout"
	PhaseStderr Phase = "stderr"
	PhaseEnd    Phase = "end"
)

// Msg is a chat message emitted by a role.
type Msg struct {
	Role      Role   `json:"role"`
	Text      string `json:"text"`
	Timestamp *int64 `json:"timestamp,omitempty"`
}

// Tool is one lifecycle point of a named tool invocation.
type Tool struct {
	Name     string `json:"name"`
	Phase    Phase  `json:"phase"`
	Text     string `json:"text,omitempty"`
	ExitCode *int   `json:"exitCode,omitempty"`
}

// Cost is an incremental cost delta in USD since the last Cost event.
type Cost struct {
	DeltaUSD float64 `json:"deltaUsd"`
}

// Error is a non-fatal error encountered while processing a line.
type Error struct {
	Message string `json:"message"`
}

// Debug wraps an unrecognized payload or diagnostic data. Raw is preserved
// exactly (structural equality) for downstream diagnostics.
type Debug struct {
	Raw json.RawMessage `json:"raw"`
}

// Event is one instance of the AgentEvent algebra. Exactly one of Msg, Tool,
// Cost, Error, Debug is non-nil, matching Kind.
type Event struct {
	Kind  Kind
	Msg   *Msg
	Tool  *Tool
	Cost  *Cost
	Error *Error
	Debug *Debug
}

// NewMsg builds a msg event.
func NewMsg(role Role, text string, timestampMillis *int64) Event {
	return Event{Kind: KindMsg, Msg: &Msg{Role: role, Text: text, Timestamp: timestampMillis}}
}

// NewToolStart builds a tool/start event.
func NewToolStart(name string) Event {
	return Event{Kind: KindTool, Tool: &Tool{Name: name, Phase: PhaseStart}}
}

// NewToolOutput builds a tool/stdout or tool/stderr event. phase must be
// PhaseStdout or PhaseStderr.
func NewToolOutput(name string, phase Phase, text string) Event {
	return Event{Kind: KindTool, Tool: &Tool{Name: name, Phase: phase, Text: text}}
}

// NewToolEnd builds a tool/end event with the given exit code.
func NewToolEnd(name string, exitCode int) Event {
	return Event{Kind: KindTool, Tool: &Tool{Name: name, Phase: PhaseEnd, ExitCode: &exitCode}}
}

// NewCost builds a cost event.
func NewCost(deltaUSD float64) Event {
	return Event{Kind: KindCost, Cost: &Cost{DeltaUSD: deltaUSD}}
}

// NewError builds an error event.
func NewError(message string) Event {
	return Event{Kind: KindError, Error: &Error{Message: message}}
}

// NewDebug builds a debug event wrapping raw.
func NewDebug(raw json.RawMessage) Event {
	return Event{Kind: KindDebug, Debug: &Debug{Raw: raw}}
}

// NewDebugValue marshals v and wraps it as a debug event. Marshal failures
// fall back to a string-quoted representation of the error so NewDebugValue
// never itself fails.
func NewDebugValue(v interface{}) Event {
	raw, err := json.Marshal(v)
	if err != nil {
		raw, _ = json.Marshal(fmt.Sprintf("debug marshal error: %v", err))
	}
	return NewDebug(raw)
}

// wireEvent is the flat JSON shape Event marshals to/from: a discriminator
// "t" plus every variant's fields hoisted to the top level, matching §3.1's
// wire table exactly.
type wireEvent struct {
	T string `json:"t"`

	// msg fields
	Role      Role   `json:"role,omitempty"`
	Text      string `json:"text,omitempty"`
	Timestamp *int64 `json:"timestamp,omitempty"`

	// tool fields
	Name     string `json:"name,omitempty"`
	Phase    Phase  `json:"phase,omitempty"`
	ExitCode *int   `json:"exitCode,omitempty"`

	// cost fields
	DeltaUSD *float64 `json:"deltaUsd,omitempty"`

	// error fields
	Message string `json:"message,omitempty"`

	// debug fields
	Raw json.RawMessage `json:"raw,omitempty"`
}

// MarshalJSON renders Event in the flat wire shape documented in §3.1.
func (e Event) MarshalJSON() ([]byte, error) {
	w := wireEvent{T: string(e.Kind)}
	switch e.Kind {
	case KindMsg:
		if e.Msg == nil {
			return nil, fmt.Errorf("event: msg kind with nil payload")
		}
		w.Role = e.Msg.Role
		w.Text = e.Msg.Text
		w.Timestamp = e.Msg.Timestamp
	case KindTool:
		if e.Tool == nil {
			return nil, fmt.Errorf("event: tool kind with nil payload")
		}
		w.Name = e.Tool.Name
		w.Phase = e.Tool.Phase
		w.Text = e.Tool.Text
		w.ExitCode = e.Tool.ExitCode
	case KindCost:
		if e.Cost == nil {
			return nil, fmt.Errorf("event: cost kind with nil payload")
		}
		w.DeltaUSD = &e.Cost.DeltaUSD
	case KindError:
		if e.Error == nil {
			return nil, fmt.Errorf("event: error kind with nil payload")
		}
		w.Message = e.Error.Message
	case KindDebug:
		if e.Debug == nil {
			return nil, fmt.Errorf("event: debug kind with nil payload")
		}
		w.Raw = e.Debug.Raw
	default:
		return nil, fmt.Errorf("event: unknown kind %q", e.Kind)
	}
	return json.Marshal(w)
}

// UnmarshalJSON parses the flat wire shape back into an Event, the inverse of
// MarshalJSON. This is what makes the JSON renderer's round-trip property
// (§8.4) checkable: Marshal -> Unmarshal must reproduce the original event's
// meaning.
func (e *Event) UnmarshalJSON(data []byte) error {
	var w wireEvent
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	switch Kind(w.T) {
	case KindMsg:
		*e = Event{Kind: KindMsg, Msg: &Msg{Role: w.Role, Text: w.Text, Timestamp: w.Timestamp}}
	case KindTool:
		*e = Event{Kind: KindTool, Tool: &Tool{Name: w.Name, Phase: w.Phase, Text: w.Text, ExitCode: w.ExitCode}}
	case KindCost:
		delta := 0.0
		if w.DeltaUSD != nil {
			delta = *w.DeltaUSD
		}
		*e = Event{Kind: KindCost, Cost: &Cost{DeltaUSD: delta}}
	case KindError:
		*e = Event{Kind: KindError, Error: &Error{Message: w.Message}}
	case KindDebug:
		*e = Event{Kind: KindDebug, Debug: &Debug{Raw: w.Raw}}
	default:
		return fmt.Errorf("event: unknown kind %q", w.T)
	}
	return nil
}
