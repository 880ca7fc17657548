// ABOUTME: Assistant state definitions
// ABOUTME: The HUD renders one of these at a time
package assistant

// State is the assistant's current activity
type State string

const (
	StateIdle          State = "IDLE"
	StateListening     State = "LISTENING"
	StateThinking      State = "THINKING"
	StateSpeaking      State = "SPEAKING"
	StateOffline       State = "OFFLINE"
	StateScanning      State = "SCANNING"
	StateVerifying     State = "VERIFYING"
	StateLocked        State = "LOCKED"
	StatePasswordEntry State = "PASSWORD_ENTRY"
)

// Authorized reports whether the state belongs to an unlocked session
func (s State) Authorized() bool {
	switch s {
	case StateIdle, StateListening, StateThinking, StateSpeaking, StateScanning:
		return true
	}
	return false
}
