package requestdata

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoutePreserves(t *testing.T) {
	from := Route{Name: "FormOverview", Params: map[string]string{"projectId": "1", "xmlFormId": "a"}}
	to := Route{
		Name:   "FormVersions",
		Params: map[string]string{"projectId": "1", "xmlFormId": "a"},
		Preserve: map[Key][]string{
			"project":     {"projectId"},
			"form":        {"projectId", "xmlFormId"},
			"currentUser": nil,
		},
	}

	assert.True(t, to.Preserves(from, "project"))
	assert.True(t, to.Preserves(from, "form"))
	assert.True(t, to.Preserves(from, "currentUser"))
	assert.False(t, to.Preserves(from, "attachments"))

	from.Params["xmlFormId"] = "b"
	assert.True(t, to.Preserves(from, "project"))
	assert.False(t, to.Preserves(from, "form"))
	assert.True(t, to.Preserves(Route{}, "currentUser"))
}

func TestStateText(t *testing.T) {
	for state, want := range map[State]string{
		Idle: "idle", Loading: "loading", Success: "success", Error: "error", Canceled: "canceled", State(42): "unknown",
	} {
		text, err := state.MarshalText()
		assert.NoError(t, err)
		assert.Equal(t, want, string(text))
	}
}
