// ABOUTME: Encoder interface definition
// ABOUTME: Common interface for relay chunk encoders plus a codec factory
package encode

import (
	"fmt"

	"github.com/zimcore/argon/pkg/audio"
)

// Encoder encodes PCM int32 samples into one wire chunk
type Encoder interface {
	// Encode converts exactly one chunk worth of samples to encoded bytes
	Encode(samples []int32) ([]byte, error)

	// ChunkFrames returns how many frames Encode expects per call, or 0 when
	// any whole number of frames is accepted
	ChunkFrames() int

	// Close releases encoder resources
	Close() error
}

// New creates an encoder for the format's codec
func New(format audio.Format) (Encoder, error) {
	switch format.Codec {
	case "pcm":
		return NewPCM(format)
	case "opus":
		return NewOpus(format)
	default:
		return nil, fmt.Errorf("unsupported codec: %s", format.Codec)
	}
}
