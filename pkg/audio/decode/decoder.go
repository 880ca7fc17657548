// ABOUTME: Decoder interface definition
// ABOUTME: Common interface for all audio decoders plus a codec factory
package decode

import (
	"errors"
	"fmt"

	"github.com/zimcore/argon/pkg/audio"
)

// ErrMalformed marks a chunk that cannot be decoded at the stream's format.
var ErrMalformed = errors.New("malformed audio chunk")

// Decoder decodes audio in various formats to PCM int32 samples
type Decoder interface {
	// Decode converts encoded audio data to PCM samples
	Decode(data []byte) ([]int32, error)

	// Format returns the PCM layout of decoded samples
	Format() audio.Format

	// Close releases decoder resources
	Close() error
}

// New creates a decoder for the format's codec
func New(format audio.Format) (Decoder, error) {
	switch format.Codec {
	case "pcm":
		return NewPCM(format)
	case "opus":
		return NewOpus(format)
	default:
		return nil, fmt.Errorf("unsupported codec: %s", format.Codec)
	}
}
