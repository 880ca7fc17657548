// ABOUTME: Conversation transcript kept newest first
// ABOUTME: Merges streaming transcription deltas into one entry per speaker turn
package assistant

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/zimcore/argon/internal/live"
)

// maxEntries bounds transcript memory
const maxEntries = 200

// Entry is one line of the transcript
type Entry struct {
	ID        string
	Speaker   live.Speaker
	Text      string
	Time      time.Time
	Final     bool
	Citations []live.Citation
}

// Transcript holds entries with the newest at index 0. Only the newest
// entry may still be open for streaming deltas.
type Transcript struct {
	mu      sync.Mutex
	entries []Entry
}

// NewTranscript creates an empty transcript
func NewTranscript() *Transcript {
	return &Transcript{}
}

// Apply merges a transcription delta
func (t *Transcript) Apply(ev live.TranscriptEvent) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.entries) > 0 {
		head := &t.entries[0]
		if !head.Final && head.Speaker == ev.Speaker {
			head.Text += ev.Text
			head.Final = ev.Final
			return
		}
		head.Final = true
	}

	if ev.Text == "" {
		return
	}
	t.prependLocked(Entry{
		ID:      uuid.New().String(),
		Speaker: ev.Speaker,
		Text:    ev.Text,
		Time:    time.Now(),
		Final:   ev.Final,
	})
}

// CloseTurn finalizes the open entry, if any
func (t *Transcript) CloseTurn() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.entries) > 0 {
		t.entries[0].Final = true
	}
}

// Prepend adds finished entries in front, keeping their order
func (t *Transcript) Prepend(entries ...Entry) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.entries) > 0 {
		t.entries[0].Final = true
	}
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		if e.ID == "" {
			e.ID = uuid.New().String()
		}
		if e.Time.IsZero() {
			e.Time = time.Now()
		}
		e.Final = true
		t.prependLocked(e)
	}
}

func (t *Transcript) prependLocked(e Entry) {
	t.entries = append([]Entry{e}, t.entries...)
	if len(t.entries) > maxEntries {
		t.entries = t.entries[:maxEntries]
	}
}

// Entries returns a copy, newest first
func (t *Transcript) Entries() []Entry {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}
