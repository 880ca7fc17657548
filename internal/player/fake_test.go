// ABOUTME: Test doubles for the scheduler
// ABOUTME: Manual-clock sink and decoder that records and fails on demand
package player

import (
	"errors"
	"sync"
	"time"

	"github.com/zimcore/argon/pkg/audio"
)

// fakeSink is a sink with a hand-driven clock
type fakeSink struct {
	mu          sync.Mutex
	now         time.Duration
	voices      []*fakeVoice
	unavailable bool
}

type fakeVoice struct {
	sink     *fakeSink
	at       time.Duration
	length   time.Duration
	done     chan struct{}
	once     sync.Once
	stopped  bool
	finished bool
}

func (s *fakeSink) Now() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

func (s *fakeSink) Schedule(buf audio.Buffer, at time.Duration) (Voice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.unavailable {
		return nil, ErrSinkUnavailable
	}
	v := &fakeVoice{sink: s, at: at, length: buf.Duration(), done: make(chan struct{})}
	s.voices = append(s.voices, v)
	return v, nil
}

// advance moves the clock and completes every voice that has ended
func (s *fakeSink) advance(d time.Duration) {
	s.mu.Lock()
	s.now += d
	var ended []*fakeVoice
	for _, v := range s.voices {
		if !v.stopped && !v.finished && v.at+v.length <= s.now {
			v.finished = true
			ended = append(ended, v)
		}
	}
	s.mu.Unlock()

	for _, v := range ended {
		v.once.Do(func() { close(v.done) })
	}
}

func (v *fakeVoice) wasStopped() bool {
	v.sink.mu.Lock()
	defer v.sink.mu.Unlock()
	return v.stopped
}

func (s *fakeSink) scheduled() []*fakeVoice {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*fakeVoice, len(s.voices))
	copy(out, s.voices)
	return out
}

func (v *fakeVoice) Duration() time.Duration { return v.length }
func (v *fakeVoice) Done() <-chan struct{}   { return v.done }

func (v *fakeVoice) Stop() {
	v.sink.mu.Lock()
	v.stopped = true
	v.sink.mu.Unlock()
	v.once.Do(func() { close(v.done) })
}

var errBadChunk = errors.New("bad chunk")

// fakeDecoder turns each byte into one mono sample; chunks starting with 0xFF fail.
// A non-nil gate blocks Decode until it is closed.
type fakeDecoder struct {
	gate    chan struct{}
	entered chan struct{}
}

func (d *fakeDecoder) Decode(data []byte) ([]int32, error) {
	if d.entered != nil {
		d.entered <- struct{}{}
	}
	if d.gate != nil {
		<-d.gate
	}
	if len(data) > 0 && data[0] == 0xFF {
		return nil, errBadChunk
	}
	out := make([]int32, len(data))
	for i, b := range data {
		out[i] = int32(b)
	}
	return out, nil
}

func (d *fakeDecoder) Format() audio.Format {
	return audio.Format{Codec: "pcm", SampleRate: 1000, Channels: 1, BitDepth: 16}
}

func (d *fakeDecoder) Close() error { return nil }

// chunk returns a chunk that decodes to the given length at 1kHz
func chunk(d time.Duration) []byte {
	return make([]byte, int(d/time.Millisecond))
}
