// ABOUTME: Malgo-based microphone capture
// ABOUTME: Records mono 16-bit PCM through miniaudio's capture callback
package capture

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/gen2brain/malgo"
	"github.com/zimcore/argon/pkg/audio"
)

// Malgo captures through miniaudio
type Malgo struct {
	format audio.Format

	mu       sync.Mutex
	malgoCtx *malgo.AllocatedContext
	dropped  int64
}

// NewMalgo creates a malgo capturer
func NewMalgo(format audio.Format) *Malgo {
	return &Malgo{format: format}
}

// Start records until ctx is cancelled
func (m *Malgo) Start(ctx context.Context, out chan<- []byte) error {
	m.mu.Lock()
	if m.malgoCtx == nil {
		mctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
		if err != nil {
			m.mu.Unlock()
			return fmt.Errorf("failed to initialize malgo context: %w", err)
		}
		m.malgoCtx = mctx
	}
	mctx := m.malgoCtx
	m.mu.Unlock()

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatS16
	deviceConfig.Capture.Channels = uint32(m.format.Channels)
	deviceConfig.SampleRate = uint32(m.format.SampleRate)
	deviceConfig.Alsa.NoMMap = 1

	callbacks := malgo.DeviceCallbacks{
		Data: func(pOutput, pInput []byte, frameCount uint32) {
			chunk := make([]byte, len(pInput))
			copy(chunk, pInput)
			if !offer(out, chunk) {
				m.mu.Lock()
				m.dropped++
				m.mu.Unlock()
			}
		},
	}

	device, err := malgo.InitDevice(mctx.Context, deviceConfig, callbacks)
	if err != nil {
		return fmt.Errorf("failed to initialize capture device: %w", err)
	}
	defer device.Uninit()

	if err := device.Start(); err != nil {
		return fmt.Errorf("failed to start capture device: %w", err)
	}

	log.Printf("Microphone capture started: %dHz, %d channels (malgo)",
		m.format.SampleRate, m.format.Channels)

	<-ctx.Done()

	if err := device.Stop(); err != nil {
		log.Printf("Warning: capture stop error: %v", err)
	}

	m.mu.Lock()
	if m.dropped > 0 {
		log.Printf("Microphone capture dropped %d chunks", m.dropped)
	}
	m.mu.Unlock()

	return ctx.Err()
}

// Close releases the malgo context
func (m *Malgo) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.malgoCtx != nil {
		if err := m.malgoCtx.Uninit(); err != nil {
			log.Printf("Warning: malgo context uninit error: %v", err)
		}
		m.malgoCtx.Free()
		m.malgoCtx = nil
	}
	return nil
}
