// ABOUTME: Audio output using oto library
// ABOUTME: Streams the mixer's rendered timeline to the default device
package player

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

// Device plays a mixer's timeline on real hardware
type Device interface {
	// Open starts pulling audio from the mixer
	Open(mixer *Mixer) error

	// Close stops the device and detaches the mixer
	Close() error
}

// otoContext is process-wide: oto refuses a second context.
var (
	otoOnce sync.Once
	otoCtx  *oto.Context
	otoErr  error
)

// Output plays through oto
type Output struct {
	// BufferSize is the device-side buffer; shorter means lower latency
	BufferSize time.Duration

	mu     sync.Mutex
	player *oto.Player
	mixer  *Mixer
}

// NewOutput creates an oto audio output
func NewOutput() *Output {
	return &Output{BufferSize: 60 * time.Millisecond}
}

// Open initializes oto with the mixer's format and starts playback
func (o *Output) Open(mixer *Mixer) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.player != nil {
		return fmt.Errorf("output already open")
	}

	format := mixer.Format()
	otoOnce.Do(func() {
		op := &oto.NewContextOptions{
			SampleRate:   format.SampleRate,
			ChannelCount: format.Channels,
			Format:       oto.FormatSignedInt16LE,
			BufferSize:   o.BufferSize,
		}

		ctx, readyChan, err := oto.NewContext(op)
		if err != nil {
			otoErr = fmt.Errorf("failed to create oto context: %w", err)
			return
		}
		<-readyChan
		otoCtx = ctx
	})
	if otoErr != nil {
		return otoErr
	}

	player := otoCtx.NewPlayer(mixer)
	player.SetBufferSize(format.FrameBytes() * format.SampleRate * int(o.BufferSize/time.Millisecond) / 1000)
	mixer.Attach()
	player.Play()

	o.player = player
	o.mixer = mixer

	log.Printf("Audio output initialized: %dHz, %d channels (oto)",
		format.SampleRate, format.Channels)

	return nil
}

// Close stops playback
func (o *Output) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.player == nil {
		return nil
	}

	o.mixer.Detach()
	err := o.player.Close()
	o.player = nil
	o.mixer = nil
	if err != nil {
		return fmt.Errorf("failed to close oto player: %w", err)
	}
	return nil
}
