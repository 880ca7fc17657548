// ABOUTME: Tests for the relay websocket client
// ABOUTME: Runs a scripted relay with httptest and checks the event stream
package live

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/zimcore/argon/internal/relay"
)

func scriptedRelay(t *testing.T, script func(conn *websocket.Conn)) string {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != relay.Path {
			http.NotFound(w, r)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		script(conn)
	}))
	t.Cleanup(srv.Close)
	return strings.TrimPrefix(srv.URL, "http://")
}

func writeJSON(conn *websocket.Conn, msg relay.Message) {
	data, _ := json.Marshal(msg)
	conn.WriteMessage(websocket.TextMessage, data)
}

func hello() relay.Message {
	return relay.Message{Type: relay.TypeHello, Name: "test", Codec: "pcm", SampleRate: 24000, Channels: 1}
}

func TestDialRelay_Stream(t *testing.T) {
	done := make(chan struct{})
	addr := scriptedRelay(t, func(conn *websocket.Conn) {
		writeJSON(conn, hello())
		conn.WriteMessage(websocket.BinaryMessage, []byte{1, 0, 2, 0})
		writeJSON(conn, relay.Message{Type: relay.TypeTranscript, Speaker: "argon", Text: "Core", Final: true})
		writeJSON(conn, relay.Message{Type: relay.TypeInterrupted})
		writeJSON(conn, relay.Message{Type: relay.TypeTurnComplete})
		<-done
	})
	defer close(done)

	src, err := DialRelay(context.Background(), addr)
	if err != nil {
		t.Fatalf("DialRelay failed: %v", err)
	}
	defer src.Close()

	if src.Name() != "test" || src.Format().SampleRate != 24000 || src.Format().Codec != "pcm" {
		t.Errorf("unexpected hello: %s %+v", src.Name(), src.Format())
	}

	if _, ok := next(t, src.Events()).(OpenEvent); !ok {
		t.Fatal("expected OpenEvent")
	}
	if ev, ok := next(t, src.Events()).(AudioEvent); !ok || len(ev.Chunk) != 4 {
		t.Errorf("expected 4-byte audio chunk, got %#v", ev)
	}
	if ev, ok := next(t, src.Events()).(TranscriptEvent); !ok || ev.Speaker != SpeakerArgon || ev.Text != "Core" || !ev.Final {
		t.Errorf("unexpected transcript %#v", ev)
	}
	if _, ok := next(t, src.Events()).(InterruptedEvent); !ok {
		t.Error("expected InterruptedEvent")
	}
	if _, ok := next(t, src.Events()).(TurnCompleteEvent); !ok {
		t.Error("expected TurnCompleteEvent")
	}
}

func TestDialRelay_RequiresHello(t *testing.T) {
	addr := scriptedRelay(t, func(conn *websocket.Conn) {
		writeJSON(conn, relay.Message{Type: relay.TypeTurnComplete})
	})

	if _, err := DialRelay(context.Background(), addr); err == nil {
		t.Error("expected error when relay skips hello")
	}
}

func TestRelaySource_SendAudio(t *testing.T) {
	got := make(chan []byte, 1)
	addr := scriptedRelay(t, func(conn *websocket.Conn) {
		writeJSON(conn, hello())
		_, data, err := conn.ReadMessage()
		if err == nil {
			got <- data
		}
	})

	src, err := DialRelay(context.Background(), addr)
	if err != nil {
		t.Fatalf("DialRelay failed: %v", err)
	}
	defer src.Close()

	if err := src.SendAudio([]byte{7, 7}); err != nil {
		t.Fatalf("SendAudio failed: %v", err)
	}
	if data := <-got; len(data) != 2 {
		t.Errorf("relay received %v", data)
	}
}

func TestRelaySource_ServerClose(t *testing.T) {
	addr := scriptedRelay(t, func(conn *websocket.Conn) {
		writeJSON(conn, hello())
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"))
	})

	src, err := DialRelay(context.Background(), addr)
	if err != nil {
		t.Fatalf("DialRelay failed: %v", err)
	}
	defer src.Close()

	next(t, src.Events())
	ev := next(t, src.Events())
	if c, ok := ev.(ClosedEvent); !ok || c.Err != nil {
		t.Errorf("expected clean ClosedEvent, got %#v", ev)
	}
}

func TestRelayEvent(t *testing.T) {
	tests := []struct {
		name string
		data string
		want Event
	}{
		{"interrupted", `{"type":"interrupted"}`, InterruptedEvent{}},
		{"turn complete", `{"type":"turn_complete"}`, TurnCompleteEvent{}},
		{"user transcript", `{"type":"transcript","speaker":"user","text":"hi"}`, TranscriptEvent{Speaker: SpeakerUser, Text: "hi"}},
		{"unknown", `{"type":"metadata"}`, nil},
		{"garbage", `not json`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := relayEvent([]byte(tt.data)); got != tt.want {
				t.Errorf("expected %#v, got %#v", tt.want, got)
			}
		})
	}
}
