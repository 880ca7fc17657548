//go:build portaudio

// ABOUTME: PortAudio microphone capture
// ABOUTME: Blocking-read capture loop using PortAudio's default input stream
package capture

import (
	"context"
	"encoding/binary"
	"fmt"
	"log"

	"github.com/gordonklaus/portaudio"
	"github.com/zimcore/argon/pkg/audio"
)

// framesPerBuffer is 20ms at 16kHz
const framesPerBuffer = 320

// PortAudio captures through PortAudio
type PortAudio struct {
	format audio.Format
	stream *portaudio.Stream
	buffer []int16
}

// NewPortAudio creates a PortAudio capturer
func NewPortAudio(format audio.Format) Capturer {
	return &PortAudio{format: format}
}

// Start records until ctx is cancelled
func (p *PortAudio) Start(ctx context.Context, out chan<- []byte) error {
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize portaudio: %w", err)
	}

	p.buffer = make([]int16, framesPerBuffer*p.format.Channels)
	stream, err := portaudio.OpenDefaultStream(p.format.Channels, 0, float64(p.format.SampleRate), framesPerBuffer, p.buffer)
	if err != nil {
		portaudio.Terminate()
		return fmt.Errorf("failed to open stream: %w", err)
	}
	p.stream = stream

	if err := stream.Start(); err != nil {
		return fmt.Errorf("failed to start stream: %w", err)
	}
	defer stream.Stop()

	log.Printf("Microphone capture started: %dHz, %d channels (portaudio)",
		p.format.SampleRate, p.format.Channels)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := stream.Read(); err != nil {
			log.Printf("Error reading audio: %v", err)
			continue
		}

		chunk := make([]byte, len(p.buffer)*2)
		for i, sample := range p.buffer {
			binary.LittleEndian.PutUint16(chunk[i*2:], uint16(sample))
		}
		offer(out, chunk)
	}
}

// Close releases resources
func (p *PortAudio) Close() error {
	if p.stream != nil {
		if err := p.stream.Close(); err != nil {
			return err
		}
		p.stream = nil
		return portaudio.Terminate()
	}
	return nil
}
