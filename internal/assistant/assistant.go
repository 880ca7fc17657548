// ABOUTME: Assistant orchestration
// ABOUTME: Routes live-session events into the scheduler and drives state, speech and transcript
package assistant

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/zimcore/argon/internal/capture"
	"github.com/zimcore/argon/internal/live"
)

var (
	// ErrNotAuthorized is returned for actions that need an unlocked interface
	ErrNotAuthorized = errors.New("interface not authorized")

	// ErrNoReasoning is returned when no reasoning model is configured
	ErrNoReasoning = errors.New("reasoning unavailable without an API key")

	// ErrEmptyQuery is returned for blank reasoning queries
	ErrEmptyQuery = errors.New("empty query")
)

// Fixed system lines
const (
	lineAccessDenied  = "Access denied."
	lineAuthError     = "Unauthorized access attempt. Security protocols active."
	lineNoData        = "Data retrieval failure."
	lineDiagnosticsOK = "Resident AI initialized. System integration successful."
)

// Persona returns the system instruction for the live session
func Persona(admin string) string {
	return fmt.Sprintf("You are ARGON, a high-level JARVIS-style AI built by ZIM core. Master %s is your handler. Always provide deep system insights and be helpful. Use a sophisticated, professional tone.", admin)
}

func welcomeLine(admin string) string {
	return fmt.Sprintf("Interface authorized. Welcome back, Master %s. Quantum core is online.", admin)
}

// Playback accepts encoded chunks for gapless playback
type Playback interface {
	Enqueue(chunk []byte) error
	Interrupt()
}

// Speech synthesizes system lines and answers reasoning queries
type Speech interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
	Reason(ctx context.Context, query string, grounded bool) (live.Answer, error)
}

// Telemetry is told about load and authorization changes
type Telemetry interface {
	SetThinking(thinking bool)
	SetAuthorized(authorized bool)
}

// Config holds assistant dependencies and callbacks
type Config struct {
	AdminName string
	Gate      *Gate

	// Connect opens the live session after unlock
	Connect func(ctx context.Context) (live.Source, error)

	// Playback plays live-session speech; Announcer plays system lines
	Playback  Playback
	Announcer Playback

	// Optional collaborators
	Speech    Speech
	Telemetry Telemetry
	Capturer  capture.Capturer

	DiagnosticDelay time.Duration

	OnStateChange func(State)
	OnTranscript  func([]Entry)
	OnError       func(error)
}

// Status is a snapshot for display
type Status struct {
	State         State
	AuthError     string
	Live          bool
	WorldwideLink bool
	Transcript    []Entry
}

// Assistant is the HUD's controller
type Assistant struct {
	config     Config
	transcript *Transcript

	mu        sync.Mutex
	state     State
	authError string
	source    live.Source
	grounded  bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates an assistant in the OFFLINE state
func New(config Config) *Assistant {
	if config.DiagnosticDelay == 0 {
		config.DiagnosticDelay = 2 * time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Assistant{
		config:     config,
		transcript: NewTranscript(),
		state:      StateOffline,
		grounded:   true,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// State returns the current state
func (a *Assistant) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Status returns a display snapshot
func (a *Assistant) Status() Status {
	a.mu.Lock()
	defer a.mu.Unlock()
	return Status{
		State:         a.state,
		AuthError:     a.authError,
		Live:          a.source != nil,
		WorldwideLink: a.grounded,
		Transcript:    a.transcript.Entries(),
	}
}

// setState changes state and notifies outside the lock
func (a *Assistant) setState(state State) {
	a.mu.Lock()
	changed := a.state != state
	a.state = state
	a.mu.Unlock()

	if changed {
		a.notify(state)
	}
}

// transition changes state only when the current state is one of from
func (a *Assistant) transition(to State, from ...State) bool {
	a.mu.Lock()
	ok := false
	for _, f := range from {
		if a.state == f {
			ok = true
			break
		}
	}
	if ok {
		a.state = to
	}
	a.mu.Unlock()

	if ok {
		a.notify(to)
	}
	return ok
}

func (a *Assistant) notify(state State) {
	log.Printf("State: %s", state)
	if a.config.OnStateChange != nil {
		a.config.OnStateChange(state)
	}
}

// PromptPassword shows the password screen
func (a *Assistant) PromptPassword() {
	if a.config.Gate.Locked() {
		a.transition(StateLocked, StateOffline, StatePasswordEntry)
		return
	}
	a.transition(StatePasswordEntry, StateOffline, StateLocked)
}

// Unlock checks the password. On success the live session is opened and a
// welcome line is spoken.
func (a *Assistant) Unlock(password string) error {
	if a.State().Authorized() {
		return nil
	}
	a.setState(StateVerifying)

	if err := a.config.Gate.Check(password); err != nil {
		a.mu.Lock()
		a.authError = lineAuthError
		a.mu.Unlock()

		if errors.Is(err, ErrLocked) {
			a.setState(StateLocked)
		} else {
			a.setState(StatePasswordEntry)
		}
		log.Printf("Unlock refused: %v", err)
		a.say(lineAccessDenied)
		return err
	}

	a.mu.Lock()
	a.authError = ""
	a.mu.Unlock()

	if a.config.Telemetry != nil {
		a.config.Telemetry.SetAuthorized(true)
	}
	a.setState(StateIdle)
	log.Printf("Interface authorized for %s", a.config.AdminName)

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.connect()
	}()
	a.say(welcomeLine(a.config.AdminName))
	return nil
}

// connect opens the live session and runs its event loop
func (a *Assistant) connect() {
	if a.config.Connect == nil {
		return
	}

	source, err := a.config.Connect(a.ctx)
	if err != nil {
		a.report(fmt.Errorf("live session failed: %w", err))
		return
	}

	a.mu.Lock()
	if a.ctx.Err() != nil {
		a.mu.Unlock()
		source.Close()
		return
	}
	a.source = source
	a.mu.Unlock()

	micCtx, stopMic := context.WithCancel(a.ctx)
	defer stopMic()

	for ev := range source.Events() {
		switch ev := ev.(type) {
		case live.OpenEvent:
			a.setState(StateListening)
			a.startMic(micCtx, source)

		case live.AudioEvent:
			a.setState(StateSpeaking)
			if err := a.config.Playback.Enqueue(ev.Chunk); err != nil {
				log.Printf("Dropped chunk: %v", err)
			}

		case live.InterruptedEvent:
			a.config.Playback.Interrupt()
			a.transition(StateListening, StateSpeaking)

		case live.TurnCompleteEvent:
			a.transcript.CloseTurn()
			a.publishTranscript()

		case live.TranscriptEvent:
			a.transcript.Apply(ev)
			a.publishTranscript()

		case live.ClosedEvent:
			if ev.Err != nil {
				a.report(fmt.Errorf("live session closed: %w", ev.Err))
			}
		}
	}

	a.mu.Lock()
	a.source = nil
	a.mu.Unlock()
	log.Printf("Live session ended")
}

// Drained is called by the scheduler once queued speech finishes
func (a *Assistant) Drained() {
	a.transition(StateListening, StateSpeaking)
}

// startMic pumps microphone chunks into the session until ctx ends
func (a *Assistant) startMic(ctx context.Context, source live.Source) {
	if a.config.Capturer == nil {
		return
	}

	chunks := make(chan []byte, 32)
	a.wg.Add(2)
	go func() {
		defer a.wg.Done()
		if err := a.config.Capturer.Start(ctx, chunks); err != nil {
			a.report(fmt.Errorf("microphone capture failed: %w", err))
		}
	}()
	go func() {
		defer a.wg.Done()
		for {
			select {
			case chunk := <-chunks:
				if err := source.SendAudio(chunk); err != nil {
					if !errors.Is(err, live.ErrClosed) {
						a.report(fmt.Errorf("send microphone audio: %w", err))
					}
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	log.Printf("Microphone streaming started")
}

// Ask runs a reasoning query and records both sides in the transcript
func (a *Assistant) Ask(ctx context.Context, query string) error {
	query = strings.TrimSpace(query)
	if query == "" {
		return ErrEmptyQuery
	}
	if !a.State().Authorized() {
		return ErrNotAuthorized
	}
	if a.config.Speech == nil {
		return ErrNoReasoning
	}

	a.mu.Lock()
	grounded := a.grounded
	a.mu.Unlock()

	a.setState(StateThinking)
	if a.config.Telemetry != nil {
		a.config.Telemetry.SetThinking(true)
	}
	defer func() {
		if a.config.Telemetry != nil {
			a.config.Telemetry.SetThinking(false)
		}
		a.setState(StateIdle)
	}()

	answer, err := a.config.Speech.Reason(ctx, query, grounded)
	if err != nil {
		return a.report(err)
	}

	text := answer.Text
	if strings.TrimSpace(text) == "" {
		text = lineNoData
	}
	a.transcript.Prepend(
		Entry{Speaker: live.SpeakerUser, Text: query},
		Entry{Speaker: live.SpeakerArgon, Text: text, Citations: answer.Citations},
	)
	a.publishTranscript()
	return nil
}

// SetWorldwideLink toggles search grounding for reasoning queries
func (a *Assistant) SetWorldwideLink(on bool) {
	a.mu.Lock()
	a.grounded = on
	a.mu.Unlock()
	log.Printf("Worldwide link: %v", on)
}

// Diagnostic runs the system scan and announces the result
func (a *Assistant) Diagnostic(ctx context.Context) error {
	if !a.State().Authorized() {
		return ErrNotAuthorized
	}
	a.setState(StateScanning)

	timer := time.NewTimer(a.config.DiagnosticDelay)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
		a.setState(StateIdle)
		return ctx.Err()
	}

	a.setState(StateIdle)
	a.say(lineDiagnosticsOK)
	return nil
}

// say speaks a system line in the background
func (a *Assistant) say(text string) {
	speech, announcer := a.config.Speech, a.config.Announcer
	if speech == nil || announcer == nil {
		log.Printf("Speech unavailable, not speaking %q", text)
		return
	}

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		pcm, err := speech.Synthesize(a.ctx, text)
		if err != nil {
			a.report(err)
			return
		}
		if err := announcer.Enqueue(pcm); err != nil {
			log.Printf("System line dropped: %v", err)
		}
	}()
}

func (a *Assistant) publishTranscript() {
	if a.config.OnTranscript != nil {
		a.config.OnTranscript(a.transcript.Entries())
	}
}

func (a *Assistant) report(err error) error {
	log.Printf("Assistant error: %v", err)
	if a.config.OnError != nil {
		a.config.OnError(err)
	}
	return err
}

// Close ends the live session and waits for background work
func (a *Assistant) Close() {
	a.cancel()

	a.mu.Lock()
	source := a.source
	a.mu.Unlock()
	if source != nil {
		if err := source.Close(); err != nil {
			log.Printf("Error closing live session: %v", err)
		}
	}

	a.wg.Wait()
}
