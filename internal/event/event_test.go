package event

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvent_MarshalJSON(t *testing.T) {
	t.Parallel()

	ts := int64(1700000000000)

	tests := []struct {
		name string
		ev   Event
		want string
	}{
		{
			name: "msg",
			ev:   NewMsg(RoleAssistant, "Hello", nil),
			want: `{"t":"msg","role":"assistant","text":"Hello"}`,
		},
		{
			name: "msg with timestamp",
			ev:   NewMsg(RoleUser, "hi", &ts),
			want: `{"t":"msg","role":"user","text":"hi","timestamp":1700000000000}`,
		},
		{
			name: "tool start",
			ev:   NewToolStart("bash"),
			want: `{"t":"tool","name":"bash","phase":"start"}`,
		},
		{
			name: "tool stdout",
			ev:   NewToolOutput("bash", PhaseStdout, "ok"),
			want: `{"t":"tool","name":"bash","phase":"stdout","text":"ok"}`,
		},
		{
			name: "tool end",
			ev:   NewToolEnd("bash", 0),
			want: `{"t":"tool","name":"bash","phase":"end","exitCode":0}`,
		},
		{
			name: "cost",
			ev:   NewCost(0.0042),
			want: `{"t":"cost","deltaUsd":0.0042}`,
		},
		{
			name: "error",
			ev:   NewError("boom"),
			want: `{"t":"error","message":"boom"}`,
		},
		{
			name: "debug",
			ev:   NewDebug(json.RawMessage(`{"foo":1}`)),
			want: `{"t":"debug","raw":{"foo":1}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := json.Marshal(tt.ev)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(got))
		})
	}
}

func TestEvent_RoundTrip(t *testing.T) {
	t.Parallel()

	events := []Event{
		NewMsg(RoleSystem, "", nil),
		NewToolStart("grep"),
		NewToolOutput("grep", PhaseStderr, "no matches"),
		NewToolEnd("grep", 1),
		NewCost(-0.5),
		NewError("parse failure"),
		NewDebug(json.RawMessage(`[1,2,3]`)),
	}

	for _, want := range events {
		data, err := json.Marshal(want)
		require.NoError(t, err)

		var got Event
		require.NoError(t, json.Unmarshal(data, &got))
		assert.Equal(t, want.Kind, got.Kind)

		data2, err := json.Marshal(got)
		require.NoError(t, err)
		assert.JSONEq(t, string(data), string(data2))
	}
}

func TestEvent_UnmarshalJSON_UnknownKind(t *testing.T) {
	t.Parallel()

	var got Event
	err := json.Unmarshal([]byte(`{"t":"frobnicate"}`), &got)
	require.Error(t, err)
}

func TestEvent_MarshalJSON_NilPayload(t *testing.T) {
	t.Parallel()

	_, err := json.Marshal(Event{Kind: KindMsg})
	require.Error(t, err)
}
