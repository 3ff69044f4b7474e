package handler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecide(t *testing.T) {
	const key = "0123456789abcdef0123456789abcdef"
	const other = "fedcba9876543210fedcba9876543210"

	tests := []struct {
		name    string
		found   bool
		pathKey string
		want    Action
	}{
		{"anonymous at root", false, "", ActionServeForm},
		{"anonymous at room", false, key, ActionProceed},
		{"known at root", true, "", ActionRedirect},
		{"known at wrong room", true, other, ActionRedirect},
		{"known at own room", true, key, ActionProceed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Decide(tt.found, key, tt.pathKey))
		})
	}
}

func TestAction_String(t *testing.T) {
	assert.Equal(t, "redirect", ActionRedirect.String())
	assert.Equal(t, "unknown", Action(42).String())
}
