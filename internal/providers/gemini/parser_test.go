package gemini

import (
	"testing"

	"github.com/agentstream/wren/internal/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParser_Detect(t *testing.T) {
	t.Parallel()

	p := New()
	assert.True(t, p.Detect(`{"source":"gemini","type":"message","role":"assistant","text":"hi"}`))
	assert.True(t, p.Detect(`plain text from the model`))
	assert.False(t, p.Detect(`{"type":"message","role":"assistant"}`))
	assert.False(t, p.Detect(``))
	assert.False(t, p.Detect(`   `))
}

func TestParser_Message(t *testing.T) {
	t.Parallel()

	p := New()
	events, err := p.Parse(`{"source":"gemini","type":"message","role":"assistant","text":"Hello"}`)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, event.KindMsg, events[0].Kind)
	assert.Equal(t, "Hello", events[0].Msg.Text)
}

func TestParser_Message_DefaultsToAssistant(t *testing.T) {
	t.Parallel()

	p := New()
	events, err := p.Parse(`{"source":"gemini","type":"message","text":"Hello"}`)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, event.RoleAssistant, events[0].Msg.Role)
}

func TestParser_FreeFormText(t *testing.T) {
	t.Parallel()

	p := New()
	events, err := p.Parse(`Thinking about the next step...`)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, event.KindMsg, events[0].Kind)
	assert.Equal(t, event.RoleAssistant, events[0].Msg.Role)
	assert.Equal(t, "Thinking about the next step...", events[0].Msg.Text)
}

func TestParser_ToolLifecycle(t *testing.T) {
	t.Parallel()

	p := New()

	started, err := p.Parse(`{"source":"gemini","type":"tool","phase":"start","name":"search"}`)
	require.NoError(t, err)
	require.Len(t, started, 1)
	assert.Equal(t, event.PhaseStart, started[0].Tool.Phase)

	out, err := p.Parse(`{"source":"gemini","type":"tool","phase":"stdout","name":"search","text":"result"}`)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "result", out[0].Tool.Text)

	ended, err := p.Parse(`{"source":"gemini","type":"tool","phase":"end","name":"search","exitCode":0}`)
	require.NoError(t, err)
	require.Len(t, ended, 1)
	assert.Equal(t, event.PhaseEnd, ended[0].Tool.Phase)
	assert.Equal(t, 0, *ended[0].Tool.ExitCode)
}

func TestParser_ToolUnknownPhase(t *testing.T) {
	t.Parallel()

	p := New()
	_, err := p.Parse(`{"source":"gemini","type":"tool","phase":"sideways","name":"search"}`)
	require.Error(t, err)
}

func TestParser_Cost(t *testing.T) {
	t.Parallel()

	p := New()
	events, err := p.Parse(`{"source":"gemini","type":"cost","deltaUsd":0.02}`)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.InDelta(t, 0.02, events[0].Cost.DeltaUSD, 1e-9)
}

func TestParser_Error(t *testing.T) {
	t.Parallel()

	p := New()
	events, err := p.Parse(`{"source":"gemini","type":"error","message":"rate limited"}`)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "rate limited", events[0].Error.Message)
}

func TestParser_UnrecognizedType_EmitsDebug(t *testing.T) {
	t.Parallel()

	p := New()
	events, err := p.Parse(`{"source":"gemini","type":"ping"}`)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, event.KindDebug, events[0].Kind)
}

func TestParser_OtherJSON_PreservedAsDebug(t *testing.T) {
	t.Parallel()

	p := New()
	events, err := p.Parse(`{"foo":"bar"}`)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, event.KindDebug, events[0].Kind)
}
