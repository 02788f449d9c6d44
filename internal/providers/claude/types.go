// Package claude normalizes Claude Code's line-delimited JSON event stream
// into the common AgentEvent algebra (§4.2).
//
// The wire shapes below are grounded on the teacher's StreamEvent /
// MessageContent / ContentBlock convention (internal/agent/stream.go) and on
// elockard-bmaduum's internal/claude/{types,parser}.go -- a discriminator
// field plus one optional sub-structure per event type, decoded with
// encoding/json and exposed through small predicate/accessor methods rather
// than a type switch scattered through the parser.
package claude

import "encoding/json"

// wireType is the "type" discriminator Claude's JSON lines carry.
type wireType string

const (
	wireMessage    wireType = "message"
	wireToolUse    wireType = "tool_use"
	wireToolResult wireType = "tool_result"
	wireUsage      wireType = "usage"
	wireError      wireType = "error"
)

// wireEvent is the raw shape of one Claude JSON line.
type wireEvent struct {
	Type wireType `json:"type"`

	// message
	Role    string          `json:"role,omitempty"`
	Content json.RawMessage `json:"content,omitempty"`

	// tool_use
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`

	// tool_result
	ToolUseID string `json:"tool_use_id,omitempty"`
	Output    string `json:"output,omitempty"`
	IsError   *bool  `json:"is_error,omitempty"`
	ExitCode  *int   `json:"exit_code,omitempty"`

	// usage
	Model        string `json:"model,omitempty"`
	InputTokens  int    `json:"input_tokens,omitempty"`
	OutputTokens int    `json:"output_tokens,omitempty"`

	// error
	Message string `json:"message,omitempty"`

	// timestamp, shared by message events
	Timestamp *int64 `json:"timestamp,omitempty"`
}

// contentBlock is one element of a structured `content` array. Claude may
// send `content` as a bare string or as an array of typed blocks; textFromContent
// coerces either shape into one concatenated string.
type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// textFromContent coerces a message's `content` field -- a JSON string or an
// array of {"type":"text","text":...} blocks -- into a single string, per
// §4.2's "coerce nested structures to a concatenated string if necessary".
func textFromContent(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var blocks []contentBlock
	if err := json.Unmarshal(raw, &blocks); err == nil {
		out := ""
		for _, b := range blocks {
			if b.Type == "" || b.Type == "text" {
				out += b.Text
			}
		}
		return out
	}

	// Unrecognized shape: fall back to the raw JSON text so no information
	// is silently dropped.
	return string(raw)
}

// isStderr reports whether a tool_result's content stream marker selects
// stderr. Claude marks the stream with a top-level string field in the
// shape {"type":"tool_result",...,"content":"stderr"}; textFromContent
// cannot be reused here because Content on tool_result lines is a plain
// stream marker, not message content.
func isStderr(raw json.RawMessage) bool {
	var marker string
	if err := json.Unmarshal(raw, &marker); err != nil {
		return false
	}
	return marker == "stderr"
}
