package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvelope_Persistable(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want bool
	}{
		{"add", `{"type":"add","id":"1","user":"a","role":"user","content":"hi"}`, true},
		{"update", `{"type":"update","id":"1","content":"edited"}`, true},
		{"add without id", `{"type":"add","content":"hi"}`, false},
		{"other type", `{"type":"typing","id":"1"}`, false},
		{"no type", `{"id":"1","content":"hi"}`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var env Envelope
			require.NoError(t, json.Unmarshal([]byte(tt.raw), &env))
			assert.Equal(t, tt.want, env.Persistable())
		})
	}
}

func TestNewAllMessage_EmptyEncodesAsArray(t *testing.T) {
	b, err := json.Marshal(NewAllMessage(nil))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"all","messages":[]}`, string(b))
}

func TestMessageToModel(t *testing.T) {
	m := MessageToModel("room", ChatMessage{ID: "42", User: "u", Role: "r", Content: "c"}, "01H")
	assert.Equal(t, "room:42", m.Key)
	assert.Equal(t, ChatMessage{ID: "42", User: "u", Role: "r", Content: "c"}, m.ToDomain())
}
