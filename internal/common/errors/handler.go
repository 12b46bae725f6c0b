// internal/common/errors/handler.go
package errors

import (
	"strings"
	"sync"
)

// NoteCollector accumulates note-level diagnostics from pipeline stages.
// Safe for concurrent use by the fetch orchestrator's workers.
type NoteCollector struct {
	mu    sync.Mutex
	notes []string
}

// Add appends one diagnostic note.
func (c *NoteCollector) Add(note string) {
	if note == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notes = append(c.notes, note)
}

// AddError formats and appends a note for a stage-local error.
func (c *NoteCollector) AddError(scope string, err error) {
	c.Add(NoteText(scope, err))
}

// Notes returns the accumulated notes.
func (c *NoteCollector) Notes() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.notes))
	copy(out, c.notes)
	return out
}

// Summary joins the notes into the single stats note string.
func (c *NoteCollector) Summary() string {
	return strings.Join(c.Notes(), "; ")
}
