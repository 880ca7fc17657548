// ABOUTME: Events produced by live-session sources
// ABOUTME: One ordered stream of audio, interrupts, transcripts and lifecycle changes
package live

// Speaker identifies who a transcript line belongs to
type Speaker string

const (
	SpeakerUser  Speaker = "user"
	SpeakerArgon Speaker = "argon"
)

// Event is anything a Source delivers
type Event interface {
	event()
}

// OpenEvent is sent once the session is ready
type OpenEvent struct{}

// AudioEvent carries one encoded chunk of assistant speech
type AudioEvent struct {
	Chunk []byte
}

// InterruptedEvent means the user talked over the assistant
type InterruptedEvent struct{}

// TurnCompleteEvent marks the end of an assistant turn
type TurnCompleteEvent struct{}

// TranscriptEvent carries a partial or final transcription
type TranscriptEvent struct {
	Speaker Speaker
	Text    string
	Final   bool
}

// ClosedEvent is the last event of a stream; Err is nil on a clean close
type ClosedEvent struct {
	Err error
}

func (OpenEvent) event()         {}
func (AudioEvent) event()        {}
func (InterruptedEvent) event()  {}
func (TurnCompleteEvent) event() {}
func (TranscriptEvent) event()   {}
func (ClosedEvent) event()       {}
