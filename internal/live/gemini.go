// ABOUTME: Gemini Live API session as a live Source
// ABOUTME: Maps genai server messages onto the event stream and forwards mic audio
package live

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/zimcore/argon/pkg/audio"
	"google.golang.org/genai"
)

// liveConn is the part of *genai.Session the session needs
type liveConn interface {
	Receive() (*genai.LiveServerMessage, error)
	SendRealtimeInput(input genai.LiveRealtimeInput) error
	Close() error
}

// GeminiConfig holds live session settings
type GeminiConfig struct {
	Model        string
	Voice        string
	SystemPrompt string
	Input        audio.Format
}

// GeminiSession is a native-audio conversation with Gemini
type GeminiSession struct {
	conn   liveConn
	input  audio.Format
	events chan Event

	ctx    context.Context
	cancel context.CancelFunc

	sendMu    sync.Mutex
	closeOnce sync.Once
}

// DialGemini opens a live session
func DialGemini(ctx context.Context, client *genai.Client, config GeminiConfig) (*GeminiSession, error) {
	log.Printf("Connecting live session (model=%s, voice=%s)", config.Model, config.Voice)

	session, err := client.Live.Connect(ctx, config.Model, liveConnectConfig(config))
	if err != nil {
		return nil, fmt.Errorf("live connect failed: %w", err)
	}

	return newGeminiSession(session, config.Input), nil
}

func liveConnectConfig(config GeminiConfig) *genai.LiveConnectConfig {
	lc := &genai.LiveConnectConfig{
		ResponseModalities:       []genai.Modality{genai.ModalityAudio},
		SpeechConfig:             speechConfig(config.Voice),
		InputAudioTranscription:  &genai.AudioTranscriptionConfig{},
		OutputAudioTranscription: &genai.AudioTranscriptionConfig{},
	}
	if config.SystemPrompt != "" {
		lc.SystemInstruction = genai.NewContentFromText(config.SystemPrompt, genai.RoleUser)
	}
	return lc
}

func speechConfig(voice string) *genai.SpeechConfig {
	if voice == "" {
		return nil
	}
	return &genai.SpeechConfig{
		VoiceConfig: &genai.VoiceConfig{
			PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: voice},
		},
	}
}

func newGeminiSession(conn liveConn, input audio.Format) *GeminiSession {
	ctx, cancel := context.WithCancel(context.Background())
	s := &GeminiSession{
		conn:   conn,
		input:  input,
		events: make(chan Event, eventBuffer),
		ctx:    ctx,
		cancel: cancel,
	}
	go s.readLoop()
	return s
}

// Events returns the session's event stream
func (s *GeminiSession) Events() <-chan Event {
	return s.events
}

// Format reports the model's speech encoding
func (s *GeminiSession) Format() audio.Format {
	return audio.SessionOutput
}

// SendAudio streams microphone PCM to the model
func (s *GeminiSession) SendAudio(pcm []byte) error {
	if s.ctx.Err() != nil {
		return ErrClosed
	}

	s.sendMu.Lock()
	defer s.sendMu.Unlock()

	err := s.conn.SendRealtimeInput(genai.LiveRealtimeInput{
		Audio: &genai.Blob{Data: pcm, MIMEType: s.input.MIMEType()},
	})
	if err != nil {
		return fmt.Errorf("failed to send audio: %w", err)
	}
	return nil
}

// Close ends the session
func (s *GeminiSession) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.cancel()
		err = s.conn.Close()
	})
	return err
}

func (s *GeminiSession) readLoop() {
	defer close(s.events)

	if !s.emit(OpenEvent{}) {
		return
	}

	for {
		msg, err := s.conn.Receive()
		if err != nil {
			if s.ctx.Err() != nil {
				err = nil
			} else {
				log.Printf("Live session receive error: %v", err)
			}
			s.emit(ClosedEvent{Err: err})
			return
		}

		if msg.GoAway != nil {
			log.Printf("Live session go-away received")
		}

		for _, ev := range translate(msg) {
			if !s.emit(ev) {
				return
			}
		}
	}
}

// emit delivers an event in order unless the session is closing
func (s *GeminiSession) emit(ev Event) bool {
	select {
	case s.events <- ev:
		return true
	case <-s.ctx.Done():
		select {
		case s.events <- ev:
		default:
		}
		return false
	}
}

// translate maps one server message to events
func translate(msg *genai.LiveServerMessage) []Event {
	if msg == nil || msg.ServerContent == nil {
		return nil
	}
	sc := msg.ServerContent

	var events []Event
	if t := sc.InputTranscription; t != nil && (t.Text != "" || t.Finished) {
		events = append(events, TranscriptEvent{Speaker: SpeakerUser, Text: t.Text, Final: t.Finished})
	}
	if sc.ModelTurn != nil {
		for _, part := range sc.ModelTurn.Parts {
			if part != nil && part.InlineData != nil && len(part.InlineData.Data) > 0 {
				events = append(events, AudioEvent{Chunk: part.InlineData.Data})
			}
		}
	}
	if t := sc.OutputTranscription; t != nil && (t.Text != "" || t.Finished) {
		events = append(events, TranscriptEvent{Speaker: SpeakerArgon, Text: t.Text, Final: t.Finished})
	}
	if sc.Interrupted {
		events = append(events, InterruptedEvent{})
	}
	if sc.TurnComplete {
		events = append(events, TurnCompleteEvent{})
	}
	return events
}
