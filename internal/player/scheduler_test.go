// ABOUTME: Tests for the playback scheduler
// ABOUTME: Covers gapless sequencing, interrupts, drain signalling and failures
package player

import (
	"errors"
	"sync"
	"testing"
	"time"
)

func newTestScheduler(sink *fakeSink, dec *fakeDecoder) (*Scheduler, chan struct{}) {
	drained := make(chan struct{}, 16)
	s := NewScheduler(SchedulerConfig{
		Decoder:   dec,
		Sink:      sink,
		OnDrained: func() { drained <- struct{}{} },
	})
	return s, drained
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestEnqueue_NoOverlap(t *testing.T) {
	sink := &fakeSink{}
	s, _ := newTestScheduler(sink, &fakeDecoder{})
	defer s.Close()

	lengths := []time.Duration{20 * time.Millisecond, 35 * time.Millisecond, 5 * time.Millisecond, 40 * time.Millisecond}
	for i, d := range lengths {
		if err := s.Enqueue(chunk(d)); err != nil {
			t.Fatalf("Enqueue(%d) failed: %v", i, err)
		}
		// The clock moves a little between arrivals, but less than the backlog.
		sink.advance(time.Millisecond)
	}

	voices := sink.scheduled()
	for i := 1; i < len(voices); i++ {
		prev := voices[i-1]
		if voices[i].at < prev.at+prev.length {
			t.Errorf("chunk %d starts at %v, before chunk %d ends at %v",
				i, voices[i].at, i-1, prev.at+prev.length)
		}
	}
}

func TestEnqueue_BacklogIsContiguous(t *testing.T) {
	sink := &fakeSink{now: 500 * time.Millisecond}
	s, _ := newTestScheduler(sink, &fakeDecoder{})
	defer s.Close()

	for i := 0; i < 5; i++ {
		if err := s.Enqueue(chunk(100 * time.Millisecond)); err != nil {
			t.Fatalf("Enqueue failed: %v", err)
		}
	}

	voices := sink.scheduled()
	if voices[0].at != 500*time.Millisecond {
		t.Errorf("expected first chunk at clock time, got %v", voices[0].at)
	}
	for i := 1; i < len(voices); i++ {
		want := voices[i-1].at + voices[i-1].length
		if voices[i].at != want {
			t.Errorf("chunk %d: expected start %v, got %v", i, want, voices[i].at)
		}
	}
	if got := s.NextStart(); got != time.Second {
		t.Errorf("expected cursor at 1s, got %v", got)
	}
}

func TestEnqueue_ColdStartAfterGap(t *testing.T) {
	sink := &fakeSink{}
	s, drained := newTestScheduler(sink, &fakeDecoder{})
	defer s.Close()

	if err := s.Enqueue(chunk(50 * time.Millisecond)); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	sink.advance(300 * time.Millisecond)
	<-drained

	if err := s.Enqueue(chunk(50 * time.Millisecond)); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}

	voices := sink.scheduled()
	if voices[1].at != 300*time.Millisecond {
		t.Errorf("expected chunk after silence to start now (300ms), got %v", voices[1].at)
	}
}

func TestInterrupt_ClearsBacklog(t *testing.T) {
	sink := &fakeSink{}
	s, drained := newTestScheduler(sink, &fakeDecoder{})
	defer s.Close()

	for i := 0; i < 3; i++ {
		if err := s.Enqueue(chunk(200 * time.Millisecond)); err != nil {
			t.Fatalf("Enqueue failed: %v", err)
		}
	}
	sink.advance(100 * time.Millisecond)

	s.Interrupt()

	if got := s.Active(); got != 0 {
		t.Errorf("expected no active playbacks after interrupt, got %d", got)
	}
	if got := s.NextStart(); got != 0 {
		t.Errorf("expected cursor reset, got %v", got)
	}
	for i, v := range sink.scheduled() {
		if !v.wasStopped() {
			t.Errorf("chunk %d was not stopped", i)
		}
	}

	if err := s.Enqueue(chunk(200 * time.Millisecond)); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	voices := sink.scheduled()
	if last := voices[len(voices)-1]; last.at != 100*time.Millisecond {
		t.Errorf("expected new chunk at current clock 100ms, got %v", last.at)
	}

	select {
	case <-drained:
		t.Error("interrupt must not signal drained")
	case <-time.After(20 * time.Millisecond):
	}

	if st := s.Stats(); st.Interrupts != 1 {
		t.Errorf("expected 1 interrupt in stats, got %d", st.Interrupts)
	}
}

func TestInterrupt_Idempotent(t *testing.T) {
	sink := &fakeSink{}
	s, _ := newTestScheduler(sink, &fakeDecoder{})
	defer s.Close()

	s.Interrupt()
	s.Interrupt()

	if s.Active() != 0 || s.NextStart() != 0 {
		t.Error("interrupt on an idle scheduler should leave it idle")
	}
}

func TestDrained_FiresOnceAtCompletion(t *testing.T) {
	sink := &fakeSink{}
	s, drained := newTestScheduler(sink, &fakeDecoder{})
	defer s.Close()

	if err := s.Enqueue(chunk(100 * time.Millisecond)); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}

	sink.advance(50 * time.Millisecond)
	select {
	case <-drained:
		t.Fatal("drained fired before the chunk finished")
	case <-time.After(20 * time.Millisecond):
	}

	sink.advance(50 * time.Millisecond)
	select {
	case <-drained:
	case <-time.After(2 * time.Second):
		t.Fatal("drained did not fire at completion")
	}

	select {
	case <-drained:
		t.Error("drained fired more than once")
	case <-time.After(20 * time.Millisecond):
	}

	waitFor(t, "played count", func() bool { return s.Stats().Played == 1 })
}

func TestDrained_WaitsForLastChunk(t *testing.T) {
	sink := &fakeSink{}
	s, drained := newTestScheduler(sink, &fakeDecoder{})
	defer s.Close()

	s.Enqueue(chunk(100 * time.Millisecond))
	s.Enqueue(chunk(100 * time.Millisecond))

	sink.advance(100 * time.Millisecond)
	waitFor(t, "first chunk removal", func() bool { return s.Active() == 1 })
	select {
	case <-drained:
		t.Fatal("drained fired while a chunk was still playing")
	case <-time.After(20 * time.Millisecond):
	}

	sink.advance(100 * time.Millisecond)
	select {
	case <-drained:
	case <-time.After(2 * time.Second):
		t.Fatal("drained did not fire after the last chunk")
	}
}

func TestEnqueue_DecodeFailureIsolated(t *testing.T) {
	sink := &fakeSink{}
	var reported []error
	var mu sync.Mutex
	s := NewScheduler(SchedulerConfig{
		Decoder: &fakeDecoder{},
		Sink:    sink,
		OnError: func(err error) {
			mu.Lock()
			reported = append(reported, err)
			mu.Unlock()
		},
	})
	defer s.Close()

	if err := s.Enqueue(chunk(30 * time.Millisecond)); err != nil {
		t.Fatalf("chunk A failed: %v", err)
	}

	bad := chunk(30 * time.Millisecond)
	bad[0] = 0xFF
	err := s.Enqueue(bad)
	if !errors.Is(err, ErrDecode) {
		t.Fatalf("expected ErrDecode, got %v", err)
	}
	if !errors.Is(err, errBadChunk) {
		t.Errorf("expected decoder error to be wrapped, got %v", err)
	}

	if err := s.Enqueue(chunk(30 * time.Millisecond)); err != nil {
		t.Fatalf("chunk C failed: %v", err)
	}

	voices := sink.scheduled()
	if len(voices) != 2 {
		t.Fatalf("expected 2 scheduled chunks, got %d", len(voices))
	}
	if voices[1].at != voices[0].at+voices[0].length {
		t.Errorf("expected C directly after A, got %v and %v", voices[0].at, voices[1].at)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(reported) != 1 {
		t.Errorf("expected exactly one reported failure, got %d", len(reported))
	}
	if st := s.Stats(); st.Dropped != 1 || st.Scheduled != 2 {
		t.Errorf("unexpected stats %+v", st)
	}
}

func TestEnqueue_EmptyChunk(t *testing.T) {
	s, _ := newTestScheduler(&fakeSink{}, &fakeDecoder{})
	defer s.Close()

	if err := s.Enqueue(nil); !errors.Is(err, ErrDecode) {
		t.Errorf("expected ErrDecode for empty chunk, got %v", err)
	}
}

func TestEnqueue_SinkUnavailable(t *testing.T) {
	sink := &fakeSink{unavailable: true}
	s, _ := newTestScheduler(sink, &fakeDecoder{})
	defer s.Close()

	err := s.Enqueue(chunk(10 * time.Millisecond))
	if !errors.Is(err, ErrSinkUnavailable) {
		t.Fatalf("expected ErrSinkUnavailable, got %v", err)
	}
	if s.NextStart() != 0 || s.Active() != 0 {
		t.Error("failed schedule must leave timeline state unchanged")
	}

	sink.mu.Lock()
	sink.unavailable = false
	sink.mu.Unlock()

	if err := s.Enqueue(chunk(10 * time.Millisecond)); err != nil {
		t.Errorf("expected later enqueue to succeed, got %v", err)
	}
}

func TestEnqueue_DiscardedWhenInterruptedDuringDecode(t *testing.T) {
	sink := &fakeSink{}
	dec := &fakeDecoder{}
	s, _ := newTestScheduler(sink, dec)

	// Prime the timeline so there is a cursor to reset.
	if err := s.Enqueue(chunk(500 * time.Millisecond)); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	dec.gate = make(chan struct{})
	dec.entered = make(chan struct{}, 1)

	result := make(chan error, 1)
	go func() { result <- s.Enqueue(chunk(100 * time.Millisecond)) }()
	<-dec.entered

	s.Interrupt()
	close(dec.gate)

	if err := <-result; err != nil {
		t.Fatalf("expected silent discard, got %v", err)
	}
	if len(sink.scheduled()) != 1 {
		t.Errorf("late chunk must not be scheduled after interrupt")
	}
	if s.NextStart() != 0 {
		t.Errorf("late chunk resurrected the cursor: %v", s.NextStart())
	}
	if st := s.Stats(); st.Dropped != 1 {
		t.Errorf("expected late chunk counted as dropped, got %+v", st)
	}
	s.Close()
}

func TestClose_RejectsEnqueue(t *testing.T) {
	s, _ := newTestScheduler(&fakeSink{}, &fakeDecoder{})
	s.Enqueue(chunk(100 * time.Millisecond))
	s.Close()

	if err := s.Enqueue(chunk(10 * time.Millisecond)); !errors.Is(err, ErrSinkUnavailable) {
		t.Errorf("expected ErrSinkUnavailable after close, got %v", err)
	}
}
