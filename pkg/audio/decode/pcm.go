// ABOUTME: PCM audio decoder
// ABOUTME: Decodes 16-bit and 24-bit little-endian PCM audio to int32 samples
package decode

import (
	"encoding/binary"
	"fmt"

	"github.com/zimcore/argon/pkg/audio"
)

// PCMDecoder decodes PCM audio
type PCMDecoder struct {
	format audio.Format
}

// NewPCM creates a new PCM decoder
func NewPCM(format audio.Format) (Decoder, error) {
	if format.Codec != "pcm" {
		return nil, fmt.Errorf("invalid codec for PCM decoder: %s", format.Codec)
	}

	if format.BitDepth != 16 && format.BitDepth != 24 {
		return nil, fmt.Errorf("unsupported bit depth: %d (supported: 16, 24)", format.BitDepth)
	}

	if format.Channels <= 0 || format.SampleRate <= 0 {
		return nil, fmt.Errorf("invalid layout: %dHz %dch", format.SampleRate, format.Channels)
	}

	return &PCMDecoder{
		format: format,
	}, nil
}

// Decode converts PCM bytes to int32 samples. A chunk must hold at least one
// whole frame and no partial frames.
func (d *PCMDecoder) Decode(data []byte) ([]int32, error) {
	frameBytes := d.format.FrameBytes()
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrMalformed)
	}
	if len(data)%frameBytes != 0 {
		return nil, fmt.Errorf("%w: %d bytes is not a multiple of the %d-byte frame",
			ErrMalformed, len(data), frameBytes)
	}

	if d.format.BitDepth == 24 {
		numSamples := len(data) / 3
		samples := make([]int32, numSamples)
		for i := 0; i < numSamples; i++ {
			b := [3]byte{data[i*3], data[i*3+1], data[i*3+2]}
			samples[i] = audio.SampleFrom24Bit(b)
		}
		return samples, nil
	}

	numSamples := len(data) / 2
	samples := make([]int32, numSamples)
	for i := 0; i < numSamples; i++ {
		sample16 := int16(binary.LittleEndian.Uint16(data[i*2:]))
		samples[i] = audio.SampleFromInt16(sample16)
	}
	return samples, nil
}

// Format returns the decoded layout
func (d *PCMDecoder) Format() audio.Format {
	return d.format
}

// Close releases resources
func (d *PCMDecoder) Close() error {
	return nil
}
