// ABOUTME: Output sink contract used by the playback scheduler
// ABOUTME: A sink owns a monotonic clock and plays buffers at absolute times
package player

import (
	"errors"
	"time"

	"github.com/zimcore/argon/pkg/audio"
)

var (
	// ErrDecode is returned when a chunk cannot be decoded. The chunk is dropped.
	ErrDecode = errors.New("decode failure")

	// ErrSinkUnavailable is returned when the output is not ready to schedule.
	ErrSinkUnavailable = errors.New("output sink unavailable")

	// ErrFormatMismatch is returned when a buffer's layout differs from the sink's.
	ErrFormatMismatch = errors.New("buffer format does not match sink")
)

// Sink is an output timeline. Now never goes backwards.
type Sink interface {
	// Now returns the current position of the output clock
	Now() time.Duration

	// Schedule arranges for buf to start playing at the given clock time.
	// Times already in the past play immediately.
	Schedule(buf audio.Buffer, at time.Duration) (Voice, error)
}

// Voice is one scheduled buffer on a sink.
type Voice interface {
	// Duration returns the playback length
	Duration() time.Duration

	// Done is closed once the voice finishes or is stopped
	Done() <-chan struct{}

	// Stop silences the voice immediately. Safe to call more than once.
	Stop()
}
