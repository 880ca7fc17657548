// ABOUTME: Opus audio encoder
// ABOUTME: Encodes 20ms frames of int32 samples to single Opus packets
package encode

import (
	"fmt"

	"github.com/zimcore/argon/pkg/audio"
	"gopkg.in/hraban/opus.v2"
)

// maxPacket is the largest Opus packet we ever emit.
const maxPacket = 4000

// OpusEncoder encodes Opus audio
type OpusEncoder struct {
	encoder   *opus.Encoder
	channels  int
	frameSize int
}

// NewOpus creates a new Opus encoder tuned for speech
func NewOpus(format audio.Format) (Encoder, error) {
	if format.Codec != "opus" {
		return nil, fmt.Errorf("invalid codec for Opus encoder: %s", format.Codec)
	}

	encoder, err := opus.NewEncoder(format.SampleRate, format.Channels, opus.AppVoIP)
	if err != nil {
		return nil, fmt.Errorf("failed to create opus encoder: %w", err)
	}

	return &OpusEncoder{
		encoder:   encoder,
		channels:  format.Channels,
		frameSize: format.SampleRate / 50, // 20ms
	}, nil
}

// Encode converts one 20ms frame of samples to an Opus packet. Short input
// is padded with silence.
func (e *OpusEncoder) Encode(samples []int32) ([]byte, error) {
	want := e.frameSize * e.channels
	if len(samples) > want {
		return nil, fmt.Errorf("opus frame too long: %d samples, want %d", len(samples), want)
	}

	pcm := make([]int16, want)
	for i, sample := range samples {
		pcm[i] = audio.SampleToInt16(sample)
	}

	data := make([]byte, maxPacket)
	n, err := e.encoder.Encode(pcm, data)
	if err != nil {
		return nil, fmt.Errorf("opus encode error: %w", err)
	}

	return data[:n], nil
}

// ChunkFrames returns the 20ms frame size
func (e *OpusEncoder) ChunkFrames() int {
	return e.frameSize
}

// Close releases resources
func (e *OpusEncoder) Close() error {
	return nil
}
