// ABOUTME: Sample-accurate timeline mixer implementing the output sink
// ABOUTME: Sums scheduled voices into device buffers and keeps the output clock
package player

import (
	"encoding/binary"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/zimcore/argon/pkg/audio"
)

// Mixer renders scheduled buffers onto one timeline. Its clock is the
// number of frames rendered so far, so it only advances while a device
// pulls audio.
type Mixer struct {
	format audio.Format

	mu       sync.Mutex
	rendered int64
	voices   []*mixVoice
	attached bool
	volume   int
	muted    bool
}

type mixVoice struct {
	mixer   *Mixer
	samples []int32
	start   int64 // first frame on the timeline
	frames  int64
	length  time.Duration
	done    chan struct{}
	once    sync.Once
}

// NewMixer creates a mixer producing the given format
func NewMixer(format audio.Format) *Mixer {
	return &Mixer{
		format: format,
		volume: 100,
	}
}

// Format returns the rendered format
func (m *Mixer) Format() audio.Format {
	return m.format
}

// Attach marks the mixer as connected to a running device
func (m *Mixer) Attach() {
	m.mu.Lock()
	m.attached = true
	m.mu.Unlock()
}

// Detach disconnects the mixer. Pending voices are stopped.
func (m *Mixer) Detach() {
	m.mu.Lock()
	m.attached = false
	voices := m.voices
	m.voices = nil
	m.mu.Unlock()

	for _, v := range voices {
		v.finish()
	}
}

// Now returns the output clock
func (m *Mixer) Now() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.format.FramesToDuration(m.rendered)
}

// Schedule places buf on the timeline at the given clock time
func (m *Mixer) Schedule(buf audio.Buffer, at time.Duration) (Voice, error) {
	if !buf.Format.SameLayout(m.format) {
		return nil, fmt.Errorf("%w: %dHz/%dch, want %dHz/%dch", ErrFormatMismatch,
			buf.Format.SampleRate, buf.Format.Channels, m.format.SampleRate, m.format.Channels)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.attached {
		return nil, ErrSinkUnavailable
	}

	start := m.format.DurationToFrames(at)
	if start < m.rendered {
		start = m.rendered
	}

	v := &mixVoice{
		mixer:   m,
		samples: buf.Samples,
		start:   start,
		frames:  buf.Frames(),
		length:  buf.Duration(),
		done:    make(chan struct{}),
	}
	m.voices = append(m.voices, v)
	return v, nil
}

// Render mixes the next len(out)/channels frames into out and advances the clock
func (m *Mixer) Render(out []int32) {
	channels := m.format.Channels
	frames := int64(len(out) / channels)

	m.mu.Lock()
	from := m.rendered
	to := from + frames
	mix := make([]int64, len(out))

	var finished []*mixVoice
	kept := m.voices[:0]
	for _, v := range m.voices {
		end := v.start + v.frames
		lo := max(v.start, from)
		hi := min(end, to)
		for f := lo; f < hi; f++ {
			src := (f - v.start) * int64(channels)
			dst := (f - from) * int64(channels)
			for ch := int64(0); ch < int64(channels); ch++ {
				mix[dst+ch] += int64(v.samples[src+ch])
			}
		}
		if end <= to {
			finished = append(finished, v)
		} else {
			kept = append(kept, v)
		}
	}
	for i := len(kept); i < len(m.voices); i++ {
		m.voices[i] = nil
	}
	m.voices = kept
	m.rendered = to

	multiplier := getVolumeMultiplier(m.volume, m.muted)
	m.mu.Unlock()

	for i, s := range mix {
		out[i] = audio.Clamp24(s)
	}
	if multiplier != 1.0 {
		applyVolume(out, multiplier)
	}
	for i := int(frames) * channels; i < len(out); i++ {
		out[i] = 0
	}

	for _, v := range finished {
		v.finish()
	}
}

// Read renders 16-bit little-endian frames. It never runs dry: an idle
// timeline produces silence.
func (m *Mixer) Read(p []byte) (int, error) {
	samples := make([]int32, len(p)/2)
	m.Render(samples)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(p[i*2:], uint16(audio.SampleToInt16(s)))
	}
	for i := len(samples) * 2; i < len(p); i++ {
		p[i] = 0
	}
	return len(p), nil
}

// Pending returns the number of voices not yet finished
func (m *Mixer) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.voices)
}

// SetVolume sets the volume (0-100)
func (m *Mixer) SetVolume(volume int) {
	if volume < 0 {
		volume = 0
	}
	if volume > 100 {
		volume = 100
	}
	m.mu.Lock()
	m.volume = volume
	m.mu.Unlock()
	log.Printf("Volume set to %d", volume)
}

// SetMuted sets mute state
func (m *Mixer) SetMuted(muted bool) {
	m.mu.Lock()
	m.muted = muted
	m.mu.Unlock()
	log.Printf("Muted: %v", muted)
}

// Volume returns current volume
func (m *Mixer) Volume() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.volume
}

// IsMuted returns mute state
func (m *Mixer) IsMuted() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.muted
}

func (v *mixVoice) Duration() time.Duration {
	return v.length
}

func (v *mixVoice) Done() <-chan struct{} {
	return v.done
}

func (v *mixVoice) Stop() {
	m := v.mixer
	m.mu.Lock()
	for i, other := range m.voices {
		if other == v {
			m.voices = append(m.voices[:i], m.voices[i+1:]...)
			break
		}
	}
	m.mu.Unlock()
	v.finish()
}

func (v *mixVoice) finish() {
	v.once.Do(func() { close(v.done) })
}

// applyVolume scales samples in place
func applyVolume(samples []int32, multiplier float64) {
	for i, sample := range samples {
		samples[i] = int32(float64(sample) * multiplier)
	}
}

// getVolumeMultiplier calculates volume multiplier
func getVolumeMultiplier(volume int, muted bool) float64 {
	if muted {
		return 0.0
	}
	return float64(volume) / 100.0
}
