// ABOUTME: Relay wire format shared by server and client
// ABOUTME: Binary frames carry audio chunks, text frames carry JSON control messages
package relay

import (
	"encoding/json"
	"fmt"
)

// Path is the websocket endpoint served by the relay
const Path = "/argon"

// Control message types
const (
	TypeHello        = "hello"
	TypeInterrupted  = "interrupted"
	TypeTurnComplete = "turn_complete"
	TypeTranscript   = "transcript"
)

// Message is a text frame on the relay socket
type Message struct {
	Type string `json:"type"`

	// hello
	Name       string `json:"name,omitempty"`
	Codec      string `json:"codec,omitempty"`
	SampleRate int    `json:"sample_rate,omitempty"`
	Channels   int    `json:"channels,omitempty"`

	// transcript
	Speaker string `json:"speaker,omitempty"`
	Text    string `json:"text,omitempty"`
	Final   bool   `json:"final,omitempty"`
}

// ParseMessage decodes a text frame
func ParseMessage(data []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return msg, fmt.Errorf("failed to parse relay message: %w", err)
	}
	if msg.Type == "" {
		return msg, fmt.Errorf("relay message missing type")
	}
	return msg, nil
}
