package tui

import (
	"time"

	"github.com/agentstream/wren/internal/event"
)

// eventMsg wraps one AgentEvent pulled off the stream, grounded on the
// teacher's convert-then-dispatch bridge pattern (internal/tui/bridge.go)
// but carrying this system's own event type instead of workflow/loop
// events.
type eventMsg struct {
	event event.Event
}

// streamDoneMsg signals the underlying agentstream.Stream closed its event
// channel; err is the terminal error from Stream.Wait, or nil on a clean
// end-of-stream.
type streamDoneMsg struct {
	err error
}

// tickMsg drives the status bar's elapsed-time display.
type tickMsg time.Time
