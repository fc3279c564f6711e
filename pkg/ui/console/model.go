package console

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"ircbot/pkg/bus"
)

const maxTranscriptLines = 500

type eventMsg struct {
	event bus.Event
}

type eventsClosedMsg struct{}

type sendResultMsg struct {
	err error
}

type model struct {
	ctx    context.Context
	events <-chan bus.Event
	send   SendFunc
	info   Info

	theme     theme
	spinner   spinner.Model
	input     textinput.Model
	viewport  viewport.Model
	lines     []string
	width     int
	height    int
	isReady   bool
	isSending bool
	followLog bool
	closed    bool
	lastErr   string
	state     string
	sent      int
	received  int
}

func newModel(ctx context.Context, events <-chan bus.Event, send SendFunc, info Info) *model {
	spin := spinner.New()
	spin.Spinner = spinner.Points
	spin.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))

	in := textinput.New()
	in.Prompt = ""
	in.Placeholder = "Say something to " + info.Channel + "..."
	in.Focus()
	in.CharLimit = 400

	return &model{
		ctx:       ctx,
		events:    events,
		send:      send,
		info:      info,
		theme:     defaultTheme(),
		spinner:   spin,
		input:     in,
		viewport:  viewport.New(80, 12),
		width:     100,
		height:    28,
		followLog: true,
		state:     "disconnected",
	}
}

func (m *model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick, waitForEvent(m.events))
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = typed.Width
		m.height = typed.Height
		m.resizeComponents()
		m.refreshViewport()
		m.isReady = true
		return m, nil
	case eventMsg:
		m.apply(typed.event)
		return m, waitForEvent(m.events)
	case eventsClosedMsg:
		m.closed = true
		m.state = "terminated"
		m.appendLine(m.theme.system.Render("-- session ended"))
		return m, nil
	case sendResultMsg:
		m.isSending = false
		m.lastErr = ""
		if typed.err != nil {
			m.lastErr = typed.err.Error()
			m.appendLine(m.theme.failure.Render("!! send failed: " + typed.err.Error()))
		}
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(typed)
		return m, cmd
	case tea.MouseMsg:
		m.handleViewportMouse(typed)
		return m, nil
	case tea.KeyMsg:
		switch typed.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		}
		if m.handleViewportKey(typed) {
			return m, nil
		}
		if typed.String() == "enter" {
			return m, m.submit()
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *model) submit() tea.Cmd {
	text := strings.TrimSpace(m.input.Value())
	if text == "" || m.isSending {
		return nil
	}
	if isExitCommand(text) {
		return tea.Quit
	}

	m.input.SetValue("")
	m.isSending = true
	m.followLog = true
	return sendCmd(m.ctx, m.send, text)
}

func (m *model) apply(event bus.Event) {
	at := event.At
	if at.IsZero() {
		at = time.Now()
	}
	stamp := m.theme.timestamp.Render(at.Local().Format(time.TimeOnly))

	var line string
	switch event.Type {
	case bus.EventStateChanged:
		m.state = event.State
		line = m.theme.system.Render("-- session " + event.State)
	case bus.EventMessageReceived:
		m.received++
		line = fmt.Sprintf("%s %s", m.theme.nick.Render("<"+event.User+">"), event.Text)
		if event.Target != m.info.Channel {
			line = m.theme.hint.Render("(pm) ") + line
		}
	case bus.EventMessageSent:
		m.sent++
		line = fmt.Sprintf("%s %s", m.theme.self.Render("<"+event.User+">"), event.Text)
		if event.Target != m.info.Channel {
			line = m.theme.hint.Render("(to "+event.Target+") ") + line
		}
	case bus.EventMembership:
		line = m.theme.membership.Render(fmt.Sprintf("* %s %s %s", event.User, event.Text, event.Target))
	case bus.EventCommandExecuted:
		line = m.theme.command.Render(fmt.Sprintf("> %s ran %s", event.User, event.Command))
	case bus.EventCommandFailed:
		line = m.theme.failure.Render(fmt.Sprintf("!! %s failed for %s: %s", event.Command, event.User, event.Error))
	default:
		return
	}

	m.appendLine(stamp + " " + line)
}

func (m *model) appendLine(line string) {
	m.lines = append(m.lines, line)
	if overflow := len(m.lines) - maxTranscriptLines; overflow > 0 {
		m.lines = m.lines[overflow:]
	}
	m.refreshViewport()
}

func (m *model) View() string {
	if !m.isReady {
		m.resizeComponents()
		m.refreshViewport()
	}

	header := m.theme.header.Width(m.width - 2).Render("IRC Console")
	meta := m.theme.headerMeta.Render(fmt.Sprintf(
		"server:%s · channel:%s · nick:%s · state:%s · in/out:%d/%d",
		displayOrNA(m.info.Server),
		displayOrNA(m.info.Channel),
		displayOrNA(m.info.Nickname),
		m.state,
		m.received,
		m.sent,
	))
	line := m.theme.divider.Width(m.width - 2).Render(strings.Repeat("═", max(8, m.width-2)))

	status := m.theme.status.Render("Enter send  ·  PgUp/PgDn scroll  ·  End jump latest  ·  Ctrl+C/Esc quit")
	switch {
	case m.lastErr != "":
		status = m.theme.statusErr.Render("last message was not delivered")
	case m.closed:
		status = m.theme.statusErr.Render("session ended, press Esc to leave")
	case m.isSending:
		status = m.theme.statusBusy.Render(fmt.Sprintf("%s sending...", m.spinner.View()))
	case m.state != "joined":
		status = m.theme.statusBusy.Render(fmt.Sprintf("%s waiting for the channel...", m.spinner.View()))
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		meta,
		line,
		m.theme.viewport.Width(m.width-2).Render(m.viewport.View()),
		status,
		m.theme.inputLabel.Render(m.info.Nickname)+" "+m.theme.hint.Render("(type /exit, quit, or :q)"),
		m.theme.input.Width(m.width-2).Render(m.input.View()),
	)
}

func (m *model) resizeComponents() {
	w := max(50, m.width-6)
	h := max(8, m.height-10)

	m.viewport.Width = w
	m.viewport.Height = h
	m.input.Width = w - 2
}

func (m *model) refreshViewport() {
	previousOffset := m.viewport.YOffset
	m.viewport.SetContent(strings.Join(m.lines, "\n"))
	if m.followLog {
		m.viewport.GotoBottom()
		return
	}

	maxOffset := max(0, m.viewport.TotalLineCount()-m.viewport.Height)
	m.viewport.SetYOffset(min(previousOffset, maxOffset))
}

func (m *model) handleViewportKey(msg tea.KeyMsg) bool {
	switch msg.String() {
	case "pgup", "ctrl+b", "alt+up", "ctrl+up":
		m.viewport.PageUp()
		m.followLog = false
		return true
	case "pgdown", "ctrl+f", "alt+down", "ctrl+down":
		m.viewport.PageDown()
		m.followLog = m.viewport.AtBottom()
		return true
	case "home":
		m.viewport.GotoTop()
		m.followLog = false
		return true
	case "end":
		m.viewport.GotoBottom()
		m.followLog = true
		return true
	default:
		return false
	}
}

func (m *model) handleViewportMouse(msg tea.MouseMsg) bool {
	if msg.Action != tea.MouseActionPress {
		return false
	}

	switch msg.Button {
	case tea.MouseButtonWheelUp:
		m.viewport.LineUp(3)
		m.followLog = false
		return true
	case tea.MouseButtonWheelDown:
		m.viewport.LineDown(3)
		m.followLog = m.viewport.AtBottom()
		return true
	default:
		return false
	}
}

func waitForEvent(events <-chan bus.Event) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-events
		if !ok {
			return eventsClosedMsg{}
		}
		return eventMsg{event: event}
	}
}

func sendCmd(ctx context.Context, send SendFunc, text string) tea.Cmd {
	return func() tea.Msg {
		return sendResultMsg{err: send(ctx, text)}
	}
}

func displayOrNA(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "n/a"
	}

	return trimmed
}

func isExitCommand(input string) bool {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "exit", "/exit", "quit", ":q":
		return true
	default:
		return false
	}
}
