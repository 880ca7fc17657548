// ABOUTME: Opus audio decoder
// ABOUTME: Decodes one Opus packet per chunk to int32 samples
package decode

import (
	"fmt"

	"github.com/zimcore/argon/pkg/audio"
	"gopkg.in/hraban/opus.v2"
)

// maxOpusFrame is the largest Opus frame (120ms at 48kHz) per channel.
const maxOpusFrame = 5760

// OpusDecoder decodes Opus audio
type OpusDecoder struct {
	decoder *opus.Decoder
	format  audio.Format
}

// NewOpus creates a new Opus decoder
func NewOpus(format audio.Format) (Decoder, error) {
	if format.Codec != "opus" {
		return nil, fmt.Errorf("invalid codec for Opus decoder: %s", format.Codec)
	}

	dec, err := opus.NewDecoder(format.SampleRate, format.Channels)
	if err != nil {
		return nil, fmt.Errorf("failed to create opus decoder: %w", err)
	}

	return &OpusDecoder{
		decoder: dec,
		format:  format,
	}, nil
}

// Decode converts one Opus packet to int32 samples
func (d *OpusDecoder) Decode(data []byte) ([]int32, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty opus packet", ErrMalformed)
	}

	pcm16 := make([]int16, maxOpusFrame*d.format.Channels)

	n, err := d.decoder.Decode(data, pcm16)
	if err != nil {
		return nil, fmt.Errorf("%w: opus decode failed: %v", ErrMalformed, err)
	}

	// Opus is always 16-bit
	actualSamples := n * d.format.Channels
	pcm32 := make([]int32, actualSamples)
	for i := 0; i < actualSamples; i++ {
		pcm32[i] = audio.SampleFromInt16(pcm16[i])
	}
	return pcm32, nil
}

// Format returns the decoded layout. Opus always yields 16-bit PCM.
func (d *OpusDecoder) Format() audio.Format {
	return audio.Format{
		Codec:      "pcm",
		SampleRate: d.format.SampleRate,
		Channels:   d.format.Channels,
		BitDepth:   16,
	}
}

// Close releases decoder resources
func (d *OpusDecoder) Close() error {
	return nil
}
