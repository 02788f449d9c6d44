package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/agentstream/wren/internal/agentstream"
)

// waitForEvent returns a tea.Cmd that reads a single AgentEvent off the
// stream's channel, converting it to an eventMsg. It sends streamDoneMsg
// once the channel closes, carrying whatever terminal error Stream.Wait
// reports. Callers re-issue waitForEvent after every eventMsg to keep
// draining the channel -- the same "call repeatedly inside Update" shape the
// teacher's EventBridge documents in internal/tui/bridge.go, reduced to one
// channel instead of separate workflow/loop/agent-output channels since this
// system has exactly one event source per stream.
func waitForEvent(s *agentstream.Stream) tea.Cmd {
	return func() tea.Msg {
		e, ok := <-s.Events()
		if !ok {
			return streamDoneMsg{err: s.Wait()}
		}
		return eventMsg{event: e}
	}
}

// tickEvery schedules the next tickMsg used to refresh the status bar's
// elapsed-time field while the stream is still open.
func tickEvery() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}
