// ABOUTME: Scripted assistant turns for relay sessions
// ABOUTME: Streams audio faster than real time with transcripts, interrupts and turn ends
package relay

import (
	"log"
	"strings"
	"time"
)

// lines are spoken in rotation, one per turn
var lines = []string{
	"Quantum core is online.",
	"All subsystems report nominal stability.",
	"Satellite uplink is holding at orbital distance.",
	"Thermal envelope within tolerance, Master.",
}

// prompts are what the simulated user says before each turn
var prompts = []string{
	"Status report.",
	"Run a diagnostic.",
	"Check the uplink.",
	"How are temperatures?",
}

// stream plays scripted turns until the session ends
func (c *session) stream() {
	pause := time.Duration(c.config.PauseMs) * time.Millisecond

	for turn := 0; ; turn++ {
		if !c.send(Message{Type: TypeTranscript, Speaker: "user", Text: prompts[turn%len(prompts)], Final: true}) {
			return
		}

		interrupt := c.config.InterruptEvery > 0 && (turn+1)%c.config.InterruptEvery == 0
		if !c.playTurn(lines[turn%len(lines)], interrupt) {
			return
		}

		select {
		case <-time.After(pause):
		case <-c.ctx.Done():
			return
		}
	}
}

// playTurn sends one turn of audio. An interrupted turn stops halfway.
func (c *session) playTurn(line string, interrupt bool) bool {
	chunkDuration := time.Duration(c.frames) * time.Second / time.Duration(c.format.SampleRate)
	total := time.Duration(c.config.TurnMs) * time.Millisecond
	chunks := int(total / chunkDuration)
	if chunks < 1 {
		chunks = 1
	}
	stopAt := chunks
	if interrupt {
		stopAt = chunks / 2
	}

	words := strings.Fields(line)
	wordEvery := chunks / max(len(words), 1)
	if wordEvery < 1 {
		wordEvery = 1
	}

	ticker := time.NewTicker(time.Duration(float64(chunkDuration) / c.config.Speedup))
	defer ticker.Stop()

	samples := make([]int32, c.frames*c.format.Channels)
	spoken := 0
	for i := 0; i < stopAt; i++ {
		select {
		case <-ticker.C:
		case <-c.ctx.Done():
			return false
		}

		if _, err := c.source.Read(samples); err != nil {
			log.Printf("Session %s source error: %v", c.id, err)
			c.cancel()
			return false
		}
		chunk, err := c.encoder.Encode(samples)
		if err != nil {
			log.Printf("Session %s encode error: %v", c.id, err)
			c.cancel()
			return false
		}
		if !c.send(chunk) {
			return false
		}

		if i%wordEvery == 0 && spoken < len(words) {
			text := words[spoken]
			if spoken > 0 {
				text = " " + text
			}
			spoken++
			if !c.send(Message{Type: TypeTranscript, Speaker: "argon", Text: text}) {
				return false
			}
		}
	}

	if interrupt {
		log.Printf("Session %s: interrupting turn after %d of %d chunks", c.id, stopAt, chunks)
		return c.send(Message{Type: TypeInterrupted})
	}

	if spoken < len(words) {
		rest := strings.Join(words[spoken:], " ")
		if spoken > 0 {
			rest = " " + rest
		}
		if !c.send(Message{Type: TypeTranscript, Speaker: "argon", Text: rest}) {
			return false
		}
	}
	return c.send(Message{Type: TypeTurnComplete})
}
