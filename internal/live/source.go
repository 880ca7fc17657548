// ABOUTME: Live-session source interface
// ABOUTME: Common contract for the Gemini session and the websocket relay
package live

import (
	"errors"

	"github.com/zimcore/argon/pkg/audio"
)

// ErrNoAudio is returned when a response carries no audio payload
var ErrNoAudio = errors.New("response contained no audio")

// ErrClosed is returned when sending on a closed source
var ErrClosed = errors.New("live source closed")

// Source is a bidirectional live audio session
type Source interface {
	// Events returns the ordered event stream. It is closed after a ClosedEvent.
	Events() <-chan Event

	// Format describes the encoding of AudioEvent chunks
	Format() audio.Format

	// SendAudio forwards one chunk of microphone PCM
	SendAudio(pcm []byte) error

	// Close ends the session
	Close() error
}

const eventBuffer = 256
