// ABOUTME: WebSocket relay client as a live Source
// ABOUTME: Connects to argon-relay, reads audio frames and control messages
package live

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/zimcore/argon/internal/relay"
	"github.com/zimcore/argon/pkg/audio"
)

// RelaySource streams speech from an argon-relay server
type RelaySource struct {
	conn   *websocket.Conn
	name   string
	format audio.Format
	events chan Event

	ctx    context.Context
	cancel context.CancelFunc

	writeMu   sync.Mutex
	closeOnce sync.Once
}

// DialRelay connects to a relay at host:port and waits for its hello
func DialRelay(ctx context.Context, addr string) (*RelaySource, error) {
	u := url.URL{Scheme: "ws", Host: addr, Path: relay.Path}
	log.Printf("Connecting to relay %s", u.String())

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("dial failed: %w", err)
	}

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	msgType, data, err := conn.ReadMessage()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to read hello: %w", err)
	}
	conn.SetReadDeadline(time.Time{})

	if msgType != websocket.TextMessage {
		conn.Close()
		return nil, fmt.Errorf("expected hello, got binary frame")
	}
	hello, err := relay.ParseMessage(data)
	if err != nil {
		conn.Close()
		return nil, err
	}
	if hello.Type != relay.TypeHello {
		conn.Close()
		return nil, fmt.Errorf("expected hello, got %s", hello.Type)
	}

	format := audio.Format{
		Codec:      hello.Codec,
		SampleRate: hello.SampleRate,
		Channels:   hello.Channels,
		BitDepth:   16,
	}
	log.Printf("Relay %q streaming %s %dHz %dch", hello.Name, format.Codec, format.SampleRate, format.Channels)

	cctx, cancel := context.WithCancel(context.Background())
	r := &RelaySource{
		conn:   conn,
		name:   hello.Name,
		format: format,
		events: make(chan Event, eventBuffer),
		ctx:    cctx,
		cancel: cancel,
	}
	go r.readLoop()
	return r, nil
}

// Name returns the relay's advertised name
func (r *RelaySource) Name() string {
	return r.name
}

// Events returns the relay's event stream
func (r *RelaySource) Events() <-chan Event {
	return r.events
}

// Format reports the chunk encoding announced in the hello
func (r *RelaySource) Format() audio.Format {
	return r.format
}

// SendAudio forwards microphone PCM to the relay
func (r *RelaySource) SendAudio(pcm []byte) error {
	if r.ctx.Err() != nil {
		return ErrClosed
	}

	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	if err := r.conn.WriteMessage(websocket.BinaryMessage, pcm); err != nil {
		return fmt.Errorf("failed to send audio: %w", err)
	}
	return nil
}

// Close ends the connection
func (r *RelaySource) Close() error {
	var err error
	r.closeOnce.Do(func() {
		r.cancel()
		r.writeMu.Lock()
		r.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		r.writeMu.Unlock()
		err = r.conn.Close()
	})
	return err
}

func (r *RelaySource) readLoop() {
	defer close(r.events)

	if !r.emit(OpenEvent{}) {
		return
	}

	for {
		msgType, data, err := r.conn.ReadMessage()
		if err != nil {
			if r.ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				err = nil
			} else {
				log.Printf("Relay read error: %v", err)
			}
			r.emit(ClosedEvent{Err: err})
			return
		}

		var ev Event
		switch msgType {
		case websocket.BinaryMessage:
			ev = AudioEvent{Chunk: data}
		case websocket.TextMessage:
			ev = relayEvent(data)
		}
		if ev == nil {
			continue
		}
		if !r.emit(ev) {
			return
		}
	}
}

func (r *RelaySource) emit(ev Event) bool {
	select {
	case r.events <- ev:
		return true
	case <-r.ctx.Done():
		return false
	}
}

// relayEvent maps a control message to an event, or nil to skip it
func relayEvent(data []byte) Event {
	msg, err := relay.ParseMessage(data)
	if err != nil {
		log.Printf("Ignoring relay message: %v", err)
		return nil
	}

	switch msg.Type {
	case relay.TypeInterrupted:
		return InterruptedEvent{}
	case relay.TypeTurnComplete:
		return TurnCompleteEvent{}
	case relay.TypeTranscript:
		speaker := SpeakerArgon
		if msg.Speaker == string(SpeakerUser) {
			speaker = SpeakerUser
		}
		return TranscriptEvent{Speaker: speaker, Text: msg.Text, Final: msg.Final}
	default:
		log.Printf("Unknown relay message type: %s", msg.Type)
		return nil
	}
}
