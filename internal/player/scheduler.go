// ABOUTME: Gapless playback scheduler for streamed audio chunks
// ABOUTME: Decodes chunks and lays them back to back on a sink's timeline
package player

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/zimcore/argon/pkg/audio"
	"github.com/zimcore/argon/pkg/audio/decode"
)

// SchedulerConfig holds scheduler dependencies and callbacks
type SchedulerConfig struct {
	Decoder decode.Decoder
	Sink    Sink

	// OnDrained fires when the last active playback finishes on its own
	OnDrained func()

	// OnError receives every error Enqueue returns
	OnError func(error)
}

// Playback is one chunk's scheduled unit on the timeline
type Playback struct {
	Start    time.Duration
	Duration time.Duration
	voice    Voice
}

// End returns the clock time at which the playback finishes
func (p *Playback) End() time.Duration {
	return p.Start + p.Duration
}

// SchedulerStats tracks scheduler metrics
type SchedulerStats struct {
	Received   int64
	Scheduled  int64
	Played     int64
	Dropped    int64
	Interrupts int64
}

// Scheduler keeps incoming chunks in sequence on one output timeline
type Scheduler struct {
	config SchedulerConfig

	// order serializes Enqueue across decode and scheduling
	order sync.Mutex

	mu         sync.Mutex
	nextStart  time.Duration
	active     map[*Playback]struct{}
	generation uint64
	stats      SchedulerStats

	closed    chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewScheduler creates a playback scheduler
func NewScheduler(config SchedulerConfig) *Scheduler {
	return &Scheduler{
		config: config,
		active: make(map[*Playback]struct{}),
		closed: make(chan struct{}),
	}
}

// Enqueue decodes a chunk and schedules it right after everything already
// scheduled, or now if the timeline has run dry.
func (s *Scheduler) Enqueue(chunk []byte) error {
	s.order.Lock()
	defer s.order.Unlock()

	s.mu.Lock()
	s.stats.Received++
	gen := s.generation
	s.mu.Unlock()

	samples, err := s.config.Decoder.Decode(chunk)
	if err != nil {
		return s.fail(fmt.Errorf("%w: %w", ErrDecode, err))
	}

	buf := audio.Buffer{Samples: samples, Format: s.config.Decoder.Format()}
	if buf.Frames() == 0 {
		return s.fail(fmt.Errorf("%w: chunk decoded to no audio", ErrDecode))
	}

	s.mu.Lock()
	select {
	case <-s.closed:
		s.stats.Dropped++
		s.mu.Unlock()
		return fmt.Errorf("%w: scheduler closed", ErrSinkUnavailable)
	default:
	}

	if gen != s.generation {
		// Interrupted while decoding: the chunk belongs to a cancelled turn.
		s.stats.Dropped++
		s.mu.Unlock()
		return nil
	}

	start := s.nextStart
	if now := s.config.Sink.Now(); now > start {
		start = now
	}

	voice, err := s.config.Sink.Schedule(buf, start)
	if err != nil {
		s.stats.Dropped++
		s.mu.Unlock()
		return s.report(fmt.Errorf("schedule chunk: %w", err))
	}

	p := &Playback{Start: start, Duration: buf.Duration(), voice: voice}
	s.active[p] = struct{}{}
	s.nextStart = p.End()
	s.stats.Scheduled++
	if s.stats.Scheduled <= 3 {
		log.Printf("Scheduled chunk #%d: start=%v duration=%v", s.stats.Scheduled, p.Start, p.Duration)
	}
	s.wg.Add(1)
	s.mu.Unlock()

	go s.await(p)
	return nil
}

// await removes a playback once it completes and signals drain
func (s *Scheduler) await(p *Playback) {
	defer s.wg.Done()

	select {
	case <-p.voice.Done():
	case <-s.closed:
		return
	}

	s.mu.Lock()
	if _, ok := s.active[p]; !ok {
		// Already removed by an interrupt
		s.mu.Unlock()
		return
	}
	delete(s.active, p)
	s.stats.Played++
	drained := len(s.active) == 0
	s.mu.Unlock()

	if drained && s.config.OnDrained != nil {
		s.config.OnDrained()
	}
}

// Interrupt stops all pending and playing audio and resets the timeline.
func (s *Scheduler) Interrupt() {
	s.mu.Lock()
	s.generation++
	s.stats.Interrupts++
	stopping := s.active
	s.active = make(map[*Playback]struct{})
	s.nextStart = 0
	s.mu.Unlock()

	for p := range stopping {
		p.voice.Stop()
	}

	if len(stopping) > 0 {
		log.Printf("Interrupted playback: stopped %d chunks", len(stopping))
	}
}

// Active returns the number of scheduled playbacks that have not finished
func (s *Scheduler) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.active)
}

// NextStart returns the timeline cursor
func (s *Scheduler) NextStart() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextStart
}

// Stats returns scheduler statistics
func (s *Scheduler) Stats() SchedulerStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// Close stops playback and waits for completion watchers to exit
func (s *Scheduler) Close() {
	s.Interrupt()
	s.closeOnce.Do(func() {
		s.mu.Lock()
		close(s.closed)
		s.mu.Unlock()
	})
	s.wg.Wait()
}

func (s *Scheduler) fail(err error) error {
	s.mu.Lock()
	s.stats.Dropped++
	s.mu.Unlock()
	return s.report(err)
}

func (s *Scheduler) report(err error) error {
	if s.config.OnError != nil {
		s.config.OnError(err)
	}
	return err
}
