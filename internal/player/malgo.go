// ABOUTME: Malgo-based audio output implementation
// ABOUTME: Pulls mixer frames from miniaudio's data callback
package player

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gen2brain/malgo"
	"github.com/zimcore/argon/pkg/audio"
)

// MalgoOutput plays through miniaudio
type MalgoOutput struct {
	// BufferSize sets the device period
	BufferSize time.Duration

	mu       sync.Mutex
	malgoCtx *malgo.AllocatedContext
	device   *malgo.Device
	mixer    *Mixer
	format   audio.Format
	samples  []int32
}

// NewMalgoOutput creates a malgo audio output
func NewMalgoOutput() *MalgoOutput {
	return &MalgoOutput{BufferSize: 60 * time.Millisecond}
}

// Open initializes the playback device with the mixer's format
func (m *MalgoOutput) Open(mixer *Mixer) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.device != nil {
		return fmt.Errorf("output already open")
	}

	format := mixer.Format()
	var sampleFormat malgo.FormatType
	switch format.BitDepth {
	case 16:
		sampleFormat = malgo.FormatS16
	case 24:
		sampleFormat = malgo.FormatS24
	default:
		return fmt.Errorf("unsupported bit depth: %d (supported: 16, 24)", format.BitDepth)
	}

	if m.malgoCtx == nil {
		ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
		if err != nil {
			return fmt.Errorf("failed to initialize malgo context: %w", err)
		}
		m.malgoCtx = ctx
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Playback)
	deviceConfig.Playback.Format = sampleFormat
	deviceConfig.Playback.Channels = uint32(format.Channels)
	deviceConfig.SampleRate = uint32(format.SampleRate)
	deviceConfig.Alsa.NoMMap = 1
	if m.BufferSize > 0 {
		deviceConfig.PeriodSizeInMilliseconds = uint32(m.BufferSize / time.Millisecond)
	}

	m.mixer = mixer
	m.format = format

	callbacks := malgo.DeviceCallbacks{
		Data: func(pOutput, pInput []byte, frameCount uint32) {
			m.dataCallback(pOutput, frameCount)
		},
	}

	device, err := malgo.InitDevice(m.malgoCtx.Context, deviceConfig, callbacks)
	if err != nil {
		return fmt.Errorf("failed to initialize playback device: %w", err)
	}

	mixer.Attach()
	if err := device.Start(); err != nil {
		mixer.Detach()
		device.Uninit()
		return fmt.Errorf("failed to start device: %w", err)
	}
	m.device = device

	log.Printf("Audio output initialized: %dHz, %d channels, %d-bit (malgo)",
		format.SampleRate, format.Channels, format.BitDepth)

	return nil
}

// dataCallback renders the next device period from the mixer
func (m *MalgoOutput) dataCallback(pOutput []byte, frameCount uint32) {
	total := int(frameCount) * m.format.Channels
	if cap(m.samples) < total {
		m.samples = make([]int32, total)
	}
	samples := m.samples[:total]
	m.mixer.Render(samples)

	switch m.format.BitDepth {
	case 16:
		for i, sample := range samples {
			s := audio.SampleToInt16(sample)
			pOutput[i*2] = byte(s)
			pOutput[i*2+1] = byte(s >> 8)
		}
	case 24:
		for i, sample := range samples {
			b := audio.SampleTo24Bit(sample)
			copy(pOutput[i*3:], b[:])
		}
	}
}

// Close releases output resources
func (m *MalgoOutput) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.device != nil {
		if err := m.device.Stop(); err != nil {
			log.Printf("Warning: device stop error: %v", err)
		}
		m.device.Uninit()
		m.device = nil
		m.mixer.Detach()
	}

	if m.malgoCtx != nil {
		if err := m.malgoCtx.Uninit(); err != nil {
			log.Printf("Warning: malgo context uninit error: %v", err)
		}
		m.malgoCtx.Free()
		m.malgoCtx = nil
	}

	return nil
}
