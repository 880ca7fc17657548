// ABOUTME: Bubbletea model for the assistant HUD
// ABOUTME: Holds display state and turns key presses into assistant actions
package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/zimcore/argon/internal/assistant"
	"github.com/zimcore/argon/internal/live"
	"github.com/zimcore/argon/internal/player"
	"github.com/zimcore/argon/internal/telemetry"
)

// Tab is a HUD page
type Tab int

const (
	TabCognition Tab = iota
	TabNetwork
	TabDeployment
)

var tabNames = []string{"COGNITION", "NETWORK", "DEPLOYMENT"}

func (t Tab) String() string {
	return tabNames[t]
}

// transcriptLines is how many transcript entries the HUD shows
const transcriptLines = 8

// Model represents the HUD state
type Model struct {
	admin string

	// Assistant
	state         assistant.State
	authError     string
	live          bool
	worldwideLink bool
	transcript    []assistant.Entry
	lastError     string

	// Telemetry
	stats   telemetry.Stats
	alerts  []telemetry.Alert
	devices []telemetry.Device

	// Playback
	playback player.SchedulerStats
	volume   int
	muted    bool

	// Input
	tab    Tab
	input  string
	device int

	actions chan<- Action

	// Dimensions
	width    int
	height   int
	quitting bool
}

// NewModel creates a HUD model. actions may be nil in tests.
func NewModel(admin string, actions chan<- Action) Model {
	return Model{
		admin:         admin,
		state:         assistant.StateOffline,
		worldwideLink: true,
		stats:         telemetry.InitialStats,
		volume:        100,
		actions:       actions,
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case AssistantMsg:
		m.applyAssistant(assistant.Status(msg))
	case TelemetryMsg:
		m.stats = msg.Stats
		m.alerts = msg.Alerts
		m.devices = msg.Devices
		if m.device >= len(m.devices) {
			m.device = 0
		}
	case PlaybackMsg:
		m.playback = player.SchedulerStats(msg)
	case ErrorMsg:
		if msg.Err != nil {
			m.lastError = msg.Err.Error()
		}
	}

	return m, nil
}

func (m *Model) applyAssistant(st assistant.Status) {
	m.state = st.State
	m.authError = st.AuthError
	m.live = st.Live
	m.worldwideLink = st.WorldwideLink
	m.transcript = st.Transcript
}

// handleKey handles keyboard input
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		m.quitting = true
		return m, tea.Quit
	}

	if !m.state.Authorized() {
		return m.handleLockedKey(msg)
	}

	switch msg.String() {
	case "tab":
		m.tab = (m.tab + 1) % Tab(len(tabNames))
		m.input = ""
		return m, nil
	case "shift+tab":
		m.tab = (m.tab + Tab(len(tabNames)) - 1) % Tab(len(tabNames))
		m.input = ""
		return m, nil
	case "pgup":
		m.setVolume(m.volume+5, m.muted)
		return m, nil
	case "pgdown":
		m.setVolume(m.volume-5, m.muted)
		return m, nil
	case "ctrl+o":
		m.setVolume(m.volume, !m.muted)
		return m, nil
	case "ctrl+x":
		if len(m.alerts) > 0 {
			m.emit(Action{Kind: ActionDismissAlert, Text: m.alerts[0].ID})
			m.alerts = m.alerts[1:]
		}
		return m, nil
	}

	switch m.tab {
	case TabCognition:
		return m.handleCognitionKey(msg)
	case TabNetwork:
		return m.handleNetworkKey(msg)
	default:
		return m.handleDeploymentKey(msg)
	}
}

func (m Model) handleLockedKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyEsc {
		m.quitting = true
		return m, tea.Quit
	}

	switch m.state {
	case assistant.StateOffline:
		m.emit(Action{Kind: ActionPromptPassword})
		m.state = assistant.StatePasswordEntry
	case assistant.StateLocked:
		if msg.Type == tea.KeyEnter {
			m.emit(Action{Kind: ActionPromptPassword})
		}
		return m, nil
	}

	switch msg.Type {
	case tea.KeyEnter:
		if m.input != "" && m.state != assistant.StateVerifying {
			m.emit(Action{Kind: ActionUnlock, Text: m.input})
			m.input = ""
		}
	default:
		m.input = editInput(m.input, msg)
	}
	return m, nil
}

func (m Model) handleCognitionKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		if strings.TrimSpace(m.input) != "" && m.state != assistant.StateThinking {
			m.emit(Action{Kind: ActionAsk, Text: m.input})
			m.input = ""
		}
	case tea.KeyCtrlW:
		m.worldwideLink = !m.worldwideLink
		m.emit(Action{Kind: ActionWorldwideLink, On: m.worldwideLink})
	default:
		m.input = editInput(m.input, msg)
	}
	return m, nil
}

func (m Model) handleNetworkKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		m.quitting = true
		return m, tea.Quit
	case "up", "k":
		if m.device > 0 {
			m.device--
		}
	case "down", "j":
		if m.device < len(m.devices)-1 {
			m.device++
		}
	case "enter", " ":
		if m.device < len(m.devices) {
			m.emit(Action{Kind: ActionTogglePower, Text: m.devices[m.device].Name})
		}
	}
	return m, nil
}

func (m Model) handleDeploymentKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		m.quitting = true
		return m, tea.Quit
	case "d", "enter":
		if m.state != assistant.StateScanning {
			m.emit(Action{Kind: ActionDiagnostic})
		}
	}
	return m, nil
}

func (m *Model) setVolume(volume int, muted bool) {
	if volume > 100 {
		volume = 100
	}
	if volume < 0 {
		volume = 0
	}
	m.volume = volume
	m.muted = muted
	m.emit(Action{Kind: ActionVolume, Volume: volume, On: muted})
}

// emit forwards an action without blocking the UI
func (m Model) emit(a Action) {
	if m.actions == nil {
		return
	}
	select {
	case m.actions <- a:
	default:
	}
}

func editInput(input string, msg tea.KeyMsg) string {
	switch msg.Type {
	case tea.KeyBackspace:
		r := []rune(input)
		if len(r) > 0 {
			return string(r[:len(r)-1])
		}
		return input
	case tea.KeySpace:
		return input + " "
	case tea.KeyRunes:
		return input + string(msg.Runes)
	}
	return input
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("45"))
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
	alertStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
	errorStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	userStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
	argonStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("45"))
	activeTab   = lipgloss.NewStyle().Bold(true).Reverse(true).Padding(0, 1)
	idleTab     = lipgloss.NewStyle().Faint(true).Padding(0, 1)
	faintStyle  = lipgloss.NewStyle().Faint(true)
	panelStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("24")).Padding(0, 1)
)

// View renders the HUD
func (m Model) View() string {
	if m.quitting {
		return "Powering down...\n"
	}
	if !m.state.Authorized() {
		return m.renderGate()
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		panelStyle.Render(m.renderTelemetry()),
		panelStyle.Render(m.renderAlerts()),
	))
	b.WriteString("\n")
	b.WriteString(m.renderTabs())
	b.WriteString("\n")
	b.WriteString(panelStyle.Render(m.renderTab()))
	b.WriteString("\n")
	b.WriteString(panelStyle.Render(m.renderTranscript()))
	b.WriteString("\n")
	if m.lastError != "" {
		b.WriteString(errorStyle.Render("FAULT: " + truncate(m.lastError, 70)))
		b.WriteString("\n")
	}
	b.WriteString(m.renderHelp())
	return b.String()
}

// renderGate renders the password screen
func (m Model) renderGate() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("ARGON // ZIM CORE"))
	b.WriteString("\n\n")

	switch m.state {
	case assistant.StateOffline:
		b.WriteString(valueStyle.Render("System offline. Press any key to begin authorization."))
	case assistant.StateLocked:
		b.WriteString(errorStyle.Render("INTERFACE LOCKED"))
		b.WriteString("\n")
		b.WriteString(valueStyle.Render("Too many failed attempts. Wait, then press enter."))
	default:
		b.WriteString(headerStyle.Render(fmt.Sprintf("Identity: Master %s", m.admin)))
		b.WriteString("\n")
		b.WriteString(headerStyle.Render("Access key: "))
		b.WriteString(valueStyle.Render(strings.Repeat("•", len([]rune(m.input)))))
		if m.state == assistant.StateVerifying {
			b.WriteString(faintStyle.Render("  verifying..."))
		}
	}

	if m.authError != "" {
		b.WriteString("\n\n")
		b.WriteString(errorStyle.Render(m.authError))
	}

	b.WriteString("\n\n")
	b.WriteString(faintStyle.Render("enter:Submit  esc:Quit"))
	return panelStyle.Render(b.String()) + "\n"
}

// renderHeader renders the title, state and session status
func (m Model) renderHeader() string {
	link := "SESSION DOWN"
	if m.live {
		link = "SESSION LIVE"
	}
	return titleStyle.Render("ARGON // ZIM CORE") + "  " +
		headerStyle.Render(string(m.state)) + "  " +
		valueStyle.Render(fmt.Sprintf("%s  Master %s", link, m.admin))
}

// renderTelemetry renders system stats
func (m Model) renderTelemetry() string {
	s := m.stats
	lines := []string{
		headerStyle.Render("TELEMETRY"),
		fmt.Sprintf("CPU      [%s] %5.1f%%", renderBar(int(s.CPU), 100, 12), s.CPU),
		fmt.Sprintf("MEMORY   [%s] %5.1f%%", renderBar(int(s.Memory), 100, 12), s.Memory),
		fmt.Sprintf("LATENCY  %6.1fms", s.Latency),
		fmt.Sprintf("CORE     %6.1f°C", s.Temperature),
		fmt.Sprintf("STABLE   %7.3f%%", s.Stability),
	}
	return strings.Join(lines, "\n")
}

// renderAlerts renders active alerts
func (m Model) renderAlerts() string {
	lines := []string{headerStyle.Render("ALERTS")}
	if len(m.alerts) == 0 {
		lines = append(lines, faintStyle.Render("No anomalies"))
	}
	for _, a := range m.alerts {
		lines = append(lines, alertStyle.Render(fmt.Sprintf("%s/%s", a.Type, a.Category)))
		lines = append(lines, valueStyle.Render(truncate(a.Message, 34)))
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderTabs() string {
	tabs := make([]string, len(tabNames))
	for i, name := range tabNames {
		if Tab(i) == m.tab {
			tabs[i] = activeTab.Render(name)
		} else {
			tabs[i] = idleTab.Render(name)
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m Model) renderTab() string {
	switch m.tab {
	case TabCognition:
		link := "OFF"
		if m.worldwideLink {
			link = "ON"
		}
		cursor := "_"
		if m.state == assistant.StateThinking {
			cursor = faintStyle.Render(" thinking...")
		}
		return headerStyle.Render("QUERY ") + valueStyle.Render(m.input) + cursor + "\n" +
			faintStyle.Render("Worldwide link: "+link+"  (ctrl+w)")

	case TabNetwork:
		lines := []string{headerStyle.Render("LINKED DEVICES")}
		for i, d := range m.devices {
			marker := "  "
			if i == m.device {
				marker = "> "
			}
			power := "OFF"
			if d.Powered {
				power = "ON "
			}
			lines = append(lines, fmt.Sprintf("%s%-22s %-9s %-8s %-12s %s",
				marker, truncate(d.Name, 22), d.Type, d.Distance, d.Status, power))
		}
		return strings.Join(lines, "\n")

	default:
		return headerStyle.Render("DEPLOYMENT") + "\n" +
			valueStyle.Render(fmt.Sprintf("Chunks rx:%d scheduled:%d played:%d dropped:%d interrupts:%d",
				m.playback.Received, m.playback.Scheduled, m.playback.Played, m.playback.Dropped, m.playback.Interrupts)) + "\n" +
			valueStyle.Render(fmt.Sprintf("Volume: [%s] %d%%%s", renderBar(m.volume, 100, 10), m.volume, muteLabel(m.muted))) + "\n" +
			faintStyle.Render("d: run system diagnostic")
	}
}

// renderTranscript renders the newest transcript entries first
func (m Model) renderTranscript() string {
	lines := []string{headerStyle.Render("TRANSCRIPT")}
	if len(m.transcript) == 0 {
		lines = append(lines, faintStyle.Render("Awaiting input"))
	}
	for i, e := range m.transcript {
		if i == transcriptLines {
			break
		}
		if e.Speaker == live.SpeakerArgon {
			lines = append(lines, argonStyle.Render("ARGON  "+truncate(e.Text, 90)))
		} else {
			lines = append(lines, userStyle.Render("MASTER "+truncate(e.Text, 90)))
		}
		for _, c := range e.Citations {
			lines = append(lines, faintStyle.Render("       ↳ "+truncate(c.Title, 40)+" "+c.URI))
		}
	}
	return strings.Join(lines, "\n")
}

// renderHelp renders keyboard shortcuts
func (m Model) renderHelp() string {
	return faintStyle.Render("tab:Page  pgup/pgdn:Volume  ctrl+o:Mute  ctrl+x:Dismiss alert  ctrl+c:Quit")
}

// Utility functions
func renderBar(value, max, width int) string {
	filled := (value * width) / max
	if filled > width {
		filled = width
	}
	bar := ""
	for i := 0; i < width; i++ {
		if i < filled {
			bar += "█"
		} else {
			bar += "░"
		}
	}
	return bar
}

func truncate(s string, length int) string {
	r := []rune(s)
	if len(r) <= length {
		return s
	}
	return string(r[:length-3]) + "..."
}

func muteLabel(muted bool) string {
	if muted {
		return " MUTED"
	}
	return ""
}
