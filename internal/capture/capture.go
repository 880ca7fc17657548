// ABOUTME: Microphone capture interface and backend selection
// ABOUTME: Capturers deliver 16-bit little-endian PCM chunks on a channel
package capture

import (
	"context"
	"fmt"

	"github.com/zimcore/argon/pkg/audio"
)

// Capturer records from the default input device
type Capturer interface {
	// Start records until ctx is cancelled, sending PCM chunks to out.
	// Chunks are dropped when out is full.
	Start(ctx context.Context, out chan<- []byte) error

	// Close releases device resources
	Close() error
}

// New returns the capture backend with the given name. "none" yields nil.
func New(name string, format audio.Format) (Capturer, error) {
	if format.BitDepth != 16 {
		return nil, fmt.Errorf("unsupported capture bit depth: %d", format.BitDepth)
	}

	switch name {
	case "none":
		return nil, nil
	case "", "malgo":
		return NewMalgo(format), nil
	case "portaudio":
		return NewPortAudio(format), nil
	default:
		return nil, fmt.Errorf("unknown capture backend: %s (supported: malgo, portaudio, none)", name)
	}
}

// offer sends a chunk without blocking the audio thread
func offer(out chan<- []byte, chunk []byte) bool {
	select {
	case out <- chunk:
		return true
	default:
		return false
	}
}
