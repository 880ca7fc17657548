// ABOUTME: TUI program wrapper and the messages it exchanges
// ABOUTME: Status flows in as tea messages, user intent flows out as Actions
package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/zimcore/argon/internal/assistant"
	"github.com/zimcore/argon/internal/player"
	"github.com/zimcore/argon/internal/telemetry"
)

// ActionKind identifies a user request
type ActionKind int

const (
	ActionPromptPassword ActionKind = iota
	ActionUnlock
	ActionAsk
	ActionWorldwideLink
	ActionDiagnostic
	ActionDismissAlert
	ActionTogglePower
	ActionVolume
)

// Action is a user request raised by the HUD
type Action struct {
	Kind   ActionKind
	Text   string
	On     bool
	Volume int
}

// AssistantMsg carries assistant status
type AssistantMsg assistant.Status

// TelemetryMsg carries a telemetry snapshot
type TelemetryMsg telemetry.Snapshot

// PlaybackMsg carries scheduler statistics
type PlaybackMsg player.SchedulerStats

// ErrorMsg surfaces a non-fatal error
type ErrorMsg struct {
	Err error
}

// TUI runs the HUD program
type TUI struct {
	program *tea.Program
	actions chan Action
	updates chan tea.Msg
	done    chan struct{}
}

// New creates a HUD for the given operator
func New(admin string) *TUI {
	actions := make(chan Action, 16)
	return &TUI{
		program: tea.NewProgram(NewModel(admin, actions), tea.WithAltScreen()),
		actions: actions,
		updates: make(chan tea.Msg, 64),
		done:    make(chan struct{}),
	}
}

// Actions returns user requests
func (t *TUI) Actions() <-chan Action {
	return t.actions
}

// Run blocks until the user quits
func (t *TUI) Run() error {
	go func() {
		for {
			select {
			case msg := <-t.updates:
				t.program.Send(msg)
			case <-t.done:
				return
			}
		}
	}()

	_, err := t.program.Run()
	close(t.done)
	return err
}

// Send queues a status message for the HUD. It never blocks; updates are
// dropped while the queue is full.
func (t *TUI) Send(msg tea.Msg) {
	select {
	case t.updates <- msg:
	default:
	}
}

// Quit stops the program
func (t *TUI) Quit() {
	t.program.Quit()
}
