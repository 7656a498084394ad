package notify

import (
	"bytes"
	"testing"

	"github.com/pterm/pterm"
	"github.com/stretchr/testify/assert"
)

func TestTerminal_WritesMessage(t *testing.T) {
	pterm.DisableColor()
	defer pterm.EnableColor()

	var buf bytes.Buffer
	n := NewTerminal(&buf)
	n.Notify(Success, "Logged in")
	n.Notify(Info, "Logged out")
	n.Notify(Error, "Failed to load donations")

	out := buf.String()
	assert.Contains(t, out, "Logged in")
	assert.Contains(t, out, "Logged out")
	assert.Contains(t, out, "Failed to load donations")
}

func TestRecorder(t *testing.T) {
	var r Recorder
	r.Notify(Success, "Registered")
	r.Notify(Info, "Logged out")

	assert.Equal(t, []Entry{
		{Level: Success, Message: "Registered"},
		{Level: Info, Message: "Logged out"},
	}, r.Entries())
}
