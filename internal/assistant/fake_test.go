// ABOUTME: Test doubles for the assistant
// ABOUTME: Scripted live source, recording playback, canned speech and telemetry
package assistant

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/zimcore/argon/internal/live"
	"github.com/zimcore/argon/pkg/audio"
)

type fakeSource struct {
	events chan live.Event
	once   sync.Once

	mu   sync.Mutex
	sent [][]byte
}

func newFakeSource() *fakeSource {
	return &fakeSource{events: make(chan live.Event, 64)}
}

func (s *fakeSource) Events() <-chan live.Event { return s.events }
func (s *fakeSource) Format() audio.Format      { return audio.SessionOutput }

func (s *fakeSource) SendAudio(pcm []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, pcm)
	return nil
}

func (s *fakeSource) sentCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

func (s *fakeSource) Close() error {
	s.once.Do(func() {
		s.events <- live.ClosedEvent{}
		close(s.events)
	})
	return nil
}

type fakePlayback struct {
	mu         sync.Mutex
	chunks     [][]byte
	interrupts int
}

func (p *fakePlayback) Enqueue(chunk []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.chunks = append(p.chunks, chunk)
	return nil
}

func (p *fakePlayback) Interrupt() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.interrupts++
}

func (p *fakePlayback) counts() (int, int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.chunks), p.interrupts
}

type fakeSpeech struct {
	mu       sync.Mutex
	spoken   []string
	answer   live.Answer
	err      error
	grounded []bool
	release  chan struct{}
}

func (s *fakeSpeech) Synthesize(ctx context.Context, text string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.spoken = append(s.spoken, text)
	return []byte{1, 0, 2, 0}, nil
}

func (s *fakeSpeech) Reason(ctx context.Context, query string, grounded bool) (live.Answer, error) {
	if s.release != nil {
		<-s.release
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.grounded = append(s.grounded, grounded)
	return s.answer, s.err
}

func (s *fakeSpeech) lines() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.spoken...)
}

type fakeTelemetry struct {
	mu         sync.Mutex
	thinking   []bool
	authorized bool
}

func (f *fakeTelemetry) SetThinking(thinking bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.thinking = append(f.thinking, thinking)
}

func (f *fakeTelemetry) SetAuthorized(authorized bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.authorized = authorized
}

type fakeCapturer struct{}

func (fakeCapturer) Start(ctx context.Context, out chan<- []byte) error {
	for {
		select {
		case out <- []byte{0, 0}:
		case <-ctx.Done():
			return nil
		}
		time.Sleep(time.Millisecond)
	}
}

func (fakeCapturer) Close() error { return nil }

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}
