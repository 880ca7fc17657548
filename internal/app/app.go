// ABOUTME: Assistant application orchestration
// ABOUTME: Wires config, audio output, schedulers, live source, speech and telemetry together
package app

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/zimcore/argon/internal/assistant"
	"github.com/zimcore/argon/internal/capture"
	"github.com/zimcore/argon/internal/config"
	"github.com/zimcore/argon/internal/discovery"
	"github.com/zimcore/argon/internal/live"
	"github.com/zimcore/argon/internal/player"
	"github.com/zimcore/argon/internal/telemetry"
	"github.com/zimcore/argon/pkg/audio"
	"github.com/zimcore/argon/pkg/audio/decode"
	"google.golang.org/genai"
)

// statsInterval is how often playback statistics are published
const statsInterval = 500 * time.Millisecond

// Hooks receive display updates. Any may be nil.
type Hooks struct {
	OnStatus    func(assistant.Status)
	OnTelemetry func(telemetry.Snapshot)
	OnPlayback  func(player.SchedulerStats)
	OnError     func(error)
}

// App is the running assistant
type App struct {
	config *config.Config
	hooks  Hooks

	mixer     *player.Mixer
	device    player.Device
	announcer *player.Scheduler
	speech    *livePlayback
	client    *genai.Client

	telemetry *telemetry.Simulator
	assistant *assistant.Assistant

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New builds the application from a validated config. Audio output is not
// opened until Start.
func New(cfg *config.Config, hooks Hooks) (*App, error) {
	ctx, cancel := context.WithCancel(context.Background())
	a := &App{
		config: cfg,
		hooks:  hooks,
		mixer:  player.NewMixer(audio.SessionOutput),
		speech: &livePlayback{},
		ctx:    ctx,
		cancel: cancel,
	}
	a.mixer.SetVolume(cfg.Audio.Volume)

	device, err := player.NewDevice(cfg.Audio.Output, time.Duration(cfg.Audio.BufferMs)*time.Millisecond)
	if err != nil {
		cancel()
		return nil, err
	}
	a.device = device

	pcm, err := decode.NewPCM(audio.SessionOutput)
	if err != nil {
		cancel()
		return nil, err
	}
	a.announcer = player.NewScheduler(player.SchedulerConfig{
		Decoder: pcm,
		Sink:    a.mixer,
		OnError: a.reportError,
	})

	devices, err := telemetry.DevicesFromConfig(cfg.Devices)
	if err != nil {
		cancel()
		return nil, err
	}
	a.telemetry = telemetry.NewSimulator(telemetry.Config{
		Interval:    time.Duration(cfg.Telemetry.IntervalMs) * time.Millisecond,
		AlertChance: cfg.Telemetry.AlertChance,
		MaxAlerts:   cfg.Telemetry.MaxAlerts,
		Devices:     devices,
		OnUpdate:    hooks.OnTelemetry,
	})

	capturer, err := capture.New(cfg.Audio.Capture, audio.SessionInput)
	if err != nil {
		cancel()
		return nil, err
	}

	var speech assistant.Speech
	if cfg.APIKey != "" {
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  cfg.APIKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			cancel()
			return nil, fmt.Errorf("genai client: %w", err)
		}
		a.client = client
		speech = live.NewSpeech(client, live.SpeechConfig{
			TTSModel:       cfg.Models.TTS,
			Voice:          cfg.Models.Voice,
			ReasonModel:    cfg.Models.Reason,
			ThinkingBudget: cfg.Models.ThinkingBudget,
		})
	}

	asstConfig := assistant.Config{
		AdminName: cfg.Security.AdminName,
		Gate: assistant.NewGate(cfg.Security.Password, cfg.Security.MaxAttempts,
			time.Duration(cfg.Security.LockoutMs)*time.Millisecond),
		Connect:       a.connect,
		Playback:      a.speech,
		Announcer:     a.announcer,
		Speech:        speech,
		Telemetry:     a.telemetry,
		OnStateChange: func(assistant.State) { a.publishStatus() },
		OnTranscript:  func([]assistant.Entry) { a.publishStatus() },
		Capturer:      capturer,
		OnError:       a.reportError,
	}
	a.assistant = assistant.New(asstConfig)

	return a, nil
}

// Start opens audio output and starts background loops
func (a *App) Start() error {
	if err := a.device.Open(a.mixer); err != nil {
		return fmt.Errorf("audio output: %w", err)
	}

	a.wg.Add(2)
	go func() {
		defer a.wg.Done()
		a.telemetry.Run(a.ctx)
	}()
	go func() {
		defer a.wg.Done()
		a.statsLoop()
	}()

	a.publishStatus()
	return nil
}

// Assistant returns the assistant controller
func (a *App) Assistant() *assistant.Assistant {
	return a.assistant
}

// Telemetry returns the telemetry simulator
func (a *App) Telemetry() *telemetry.Simulator {
	return a.telemetry
}

// SetVolume adjusts software volume
func (a *App) SetVolume(volume int, muted bool) {
	a.mixer.SetVolume(volume)
	a.mixer.SetMuted(muted)
}

// DismissAlert removes an alert and republishes telemetry
func (a *App) DismissAlert(id string) {
	if a.telemetry.DismissAlert(id) && a.hooks.OnTelemetry != nil {
		a.hooks.OnTelemetry(a.telemetry.Snapshot())
	}
}

// TogglePower flips a device and republishes telemetry
func (a *App) TogglePower(name string) error {
	if _, err := a.telemetry.TogglePower(name); err != nil {
		return err
	}
	if a.hooks.OnTelemetry != nil {
		a.hooks.OnTelemetry(a.telemetry.Snapshot())
	}
	return nil
}

// connect opens the configured live source and builds its scheduler
func (a *App) connect(ctx context.Context) (live.Source, error) {
	source, err := a.dial(ctx)
	if err != nil {
		return nil, err
	}

	format := source.Format()
	if !format.SameLayout(a.mixer.Format()) {
		source.Close()
		return nil, fmt.Errorf("source format %dHz/%dch does not match output %dHz/%dch",
			format.SampleRate, format.Channels, a.mixer.Format().SampleRate, a.mixer.Format().Channels)
	}

	dec, err := decode.New(format)
	if err != nil {
		source.Close()
		return nil, err
	}

	a.speech.set(player.NewScheduler(player.SchedulerConfig{
		Decoder:   dec,
		Sink:      a.mixer,
		OnDrained: a.assistant.Drained,
		OnError:   a.reportError,
	}))
	log.Printf("Live source ready: %s %dHz", format.Codec, format.SampleRate)
	return source, nil
}

// dial picks the relay or Gemini
func (a *App) dial(ctx context.Context) (live.Source, error) {
	relayCfg := a.config.Relay
	addr := relayCfg.Addr
	if addr == "" && relayCfg.Discover {
		info, err := discovery.Discover(ctx, time.Duration(relayCfg.DiscoverTimeoutMs)*time.Millisecond)
		if err != nil {
			return nil, err
		}
		addr = info.Addr()
	}
	if addr != "" {
		return live.DialRelay(ctx, addr)
	}

	if a.client == nil {
		return nil, config.ErrMissingAPIKey
	}
	return live.DialGemini(ctx, a.client, live.GeminiConfig{
		Model:        a.config.Models.Live,
		Voice:        a.config.Models.Voice,
		SystemPrompt: assistant.Persona(a.config.Security.AdminName),
		Input:        audio.SessionInput,
	})
}

func (a *App) statsLoop() {
	ticker := time.NewTicker(statsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if a.hooks.OnPlayback != nil {
				a.hooks.OnPlayback(a.speech.stats())
			}
		case <-a.ctx.Done():
			return
		}
	}
}

func (a *App) publishStatus() {
	if a.hooks.OnStatus != nil {
		a.hooks.OnStatus(a.assistant.Status())
	}
}

func (a *App) reportError(err error) {
	if a.hooks.OnError != nil {
		a.hooks.OnError(err)
	}
}

// Close stops everything in dependency order
func (a *App) Close() {
	a.assistant.Close()
	a.cancel()
	a.wg.Wait()

	a.speech.close()
	a.announcer.Close()

	if err := a.device.Close(); err != nil {
		log.Printf("Error closing audio output: %v", err)
	}
}

// livePlayback forwards to the scheduler of the current live session
type livePlayback struct {
	mu        sync.Mutex
	scheduler *player.Scheduler
}

func (p *livePlayback) set(s *player.Scheduler) {
	p.mu.Lock()
	old := p.scheduler
	p.scheduler = s
	p.mu.Unlock()

	if old != nil {
		old.Close()
	}
}

func (p *livePlayback) current() *player.Scheduler {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.scheduler
}

func (p *livePlayback) Enqueue(chunk []byte) error {
	s := p.current()
	if s == nil {
		return fmt.Errorf("%w: no live session", player.ErrSinkUnavailable)
	}
	return s.Enqueue(chunk)
}

func (p *livePlayback) Interrupt() {
	if s := p.current(); s != nil {
		s.Interrupt()
	}
}

func (p *livePlayback) stats() player.SchedulerStats {
	if s := p.current(); s != nil {
		return s.Stats()
	}
	return player.SchedulerStats{}
}

func (p *livePlayback) close() {
	p.set(nil)
}

var _ assistant.Playback = (*livePlayback)(nil)

