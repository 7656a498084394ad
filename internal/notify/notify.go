// Package notify delivers short, human-readable notifications to the user.
// It is the terminal counterpart of transient "toast" messages: the session
// layer emits success and info notices, commands emit error notices.
package notify

import (
	"fmt"
	"io"
	"sync"

	"github.com/pterm/pterm"
)

// Level is the severity of a notification.
type Level string

const (
	Success Level = "success"
	Info    Level = "info"
	Error   Level = "error"
)

// Notifier shows a notification to the user.
type Notifier interface {
	Notify(level Level, msg string)
}

// Terminal prints notifications with pterm prefix printers.
type Terminal struct {
	w io.Writer
}

// NewTerminal returns a Notifier writing to w.
func NewTerminal(w io.Writer) *Terminal {
	return &Terminal{w: w}
}

func (t *Terminal) Notify(level Level, msg string) {
	var p pterm.PrefixPrinter
	switch level {
	case Success:
		p = pterm.Success
	case Error:
		p = pterm.Error
	default:
		p = pterm.Info
	}
	fmt.Fprintln(t.w, p.Sprint(msg))
}

// Entry is one recorded notification.
type Entry struct {
	Level   Level
	Message string
}

// Recorder keeps notifications in memory. Useful in tests and for quiet runs.
type Recorder struct {
	mu      sync.Mutex
	entries []Entry
}

func (r *Recorder) Notify(level Level, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, Entry{Level: level, Message: msg})
}

// Entries returns a copy of everything recorded so far.
func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Entry(nil), r.entries...)
}
