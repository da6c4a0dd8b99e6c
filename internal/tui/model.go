package tui

import (
	"context"
	"strings"
	"time"

	"pricing-agent/internal/service"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
)

// Authenticator checks login credentials.
type Authenticator interface {
	Authenticate(username, password string) error
}

// Chatter runs one conversation turn.
type Chatter interface {
	Turn(ctx context.Context, sessionID, text string) (*service.TurnResult, error)
}

const (
	userLabel   = "Você: "
	agentLabel  = "Agente: "
	cursorGlyph = "|"
	revealDelay = 15 * time.Millisecond
)

type screen int

const (
	screenLogin screen = iota
	screenChat
)

type entry struct {
	label string
	text  string
}

type replyMsg struct {
	reply string
	err   error
}

type revealMsg struct{}

// Model is the Bubble Tea model: a login form followed by the chat.
type Model struct {
	auth    Authenticator
	chat    Chatter
	ctx     context.Context
	screen  screen
	width   int
	ready   bool
	status  string
	session string

	username textinput.Model
	password textinput.Model
	input    textinput.Model
	viewport viewport.Model

	entries  []entry
	waiting  bool
	pending  []rune
	revealed int
}

// New creates the model. ctx bounds every agent call.
func New(ctx context.Context, auth Authenticator, chat Chatter) Model {
	username := textinput.New()
	username.Prompt = "Usuário: "
	username.Focus()

	password := textinput.New()
	password.Prompt = "Senha:   "
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'

	input := textinput.New()
	input.Prompt = "> "
	input.Placeholder = "Pergunte sobre preços, clientes ou concorrentes"
	input.CharLimit = 0

	return Model{
		auth:     auth,
		chat:     chat,
		ctx:      ctx,
		screen:   screenLogin,
		status:   "Informe usuário e senha.",
		username: username,
		password: password,
		input:    input,
		viewport: viewport.New(0, 0),
	}
}

func (m Model) Init() tea.Cmd { return textinput.Blink }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		m.width = msg.Width
		_, bh := historyBoxStyle.GetFrameSize()
		_, ih := inputBoxStyle.GetFrameSize()
		reserved := 1 + 1 + ih + 1 + bh // header, status, input box, spacer
		m.viewport.Width = max(20, msg.Width-2)
		m.viewport.Height = max(3, msg.Height-reserved)
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		if m.screen == screenLogin {
			return m.updateLogin(msg)
		}
		return m.updateChat(msg)

	case replyMsg:
		m.waiting = false
		reply := msg.reply
		if msg.err != nil {
			reply = service.AgentFailurePrefix + msg.err.Error()
		}
		m.pending = []rune(reply)
		m.revealed = 0
		m.status = ""
		m.refresh()
		return m, reveal()

	case revealMsg:
		if m.pending == nil {
			return m, nil
		}
		m.revealed++
		if m.revealed >= len(m.pending) {
			m.entries = append(m.entries, entry{label: agentLabel, text: string(m.pending)})
			m.pending = nil
			m.revealed = 0
			m.refresh()
			return m, nil
		}
		m.refresh()
		return m, reveal()
	}

	var cmd tea.Cmd
	if m.screen == screenChat {
		m.input, cmd = m.input.Update(msg)
	}
	return m, cmd
}

func (m Model) updateLogin(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyTab, tea.KeyShiftTab, tea.KeyUp, tea.KeyDown:
		m.toggleLoginFocus()
		return m, nil
	case tea.KeyEnter:
		if m.username.Focused() {
			m.toggleLoginFocus()
			return m, nil
		}
		user := strings.TrimSpace(m.username.Value())
		if err := m.auth.Authenticate(user, m.password.Value()); err != nil {
			m.status = "Usuário ou senha inválidos."
			m.password.SetValue("")
			return m, nil
		}
		m.screen = screenChat
		m.session = user + "/" + uuid.NewString()
		m.status = "Conectado como " + user + ". Ctrl+C para sair."
		m.password.SetValue("")
		m.password.Blur()
		m.input.Focus()
		m.refresh()
		return m, textinput.Blink
	}

	var cmd tea.Cmd
	if m.username.Focused() {
		m.username, cmd = m.username.Update(msg)
	} else {
		m.password, cmd = m.password.Update(msg)
	}
	return m, cmd
}

func (m *Model) toggleLoginFocus() {
	if m.username.Focused() {
		m.username.Blur()
		m.password.Focus()
		return
	}
	m.password.Blur()
	m.username.Focus()
}

func (m Model) updateChat(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		text := strings.TrimSpace(m.input.Value())
		if text == "" || m.busy() {
			return m, nil
		}
		m.input.SetValue("")
		m.entries = append(m.entries, entry{label: userLabel, text: text})
		m.waiting = true
		m.status = "Analisando..."
		m.refresh()
		return m, m.send(text)
	case tea.KeyPgUp, tea.KeyPgDown:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) busy() bool {
	return m.waiting || m.pending != nil
}

func (m Model) send(text string) tea.Cmd {
	ctx, chat, session := m.ctx, m.chat, m.session
	return func() tea.Msg {
		result, err := chat.Turn(ctx, session, text)
		if err != nil {
			return replyMsg{err: err}
		}
		return replyMsg{reply: result.Reply}
	}
}

func reveal() tea.Cmd {
	return tea.Tick(revealDelay, func(time.Time) tea.Msg { return revealMsg{} })
}

func (m *Model) refresh() {
	m.viewport.SetContent(m.transcript())
	m.viewport.GotoBottom()
}

// transcript renders the finished entries and the reply being revealed.
func (m Model) transcript() string {
	wrap := lipgloss.NewStyle().Width(max(20, m.viewport.Width))

	var b strings.Builder
	for _, e := range m.entries {
		b.WriteString(wrap.Render(labelStyle(e.label).Render(e.label) + e.text))
		b.WriteString("\n\n")
	}
	if m.pending != nil {
		partial := string(m.pending[:m.revealed])
		b.WriteString(wrap.Render(labelStyle(agentLabel).Render(agentLabel) + partial + cursorGlyph))
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m Model) View() string {
	if !m.ready {
		return "Carregando..."
	}
	header := headerStyle.Render("Agente de Pricing")
	status := statusStyle.Render(m.status)

	if m.screen == screenLogin {
		form := inputBoxStyle.Render(m.username.View() + "\n" + m.password.View())
		return header + "\n" + form + "\n" + status
	}

	history := historyBoxStyle.Render(m.viewport.View())
	input := inputBoxStyle.Render(m.input.View())
	return header + "\n" + history + "\n" + input + "\n" + status
}

func labelStyle(label string) lipgloss.Style {
	if label == userLabel {
		return userLabelStyle
	}
	return agentLabelStyle
}

var (
	headerStyle     = lipgloss.NewStyle().Bold(true)
	statusStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	userLabelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	agentLabelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	historyBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	inputBoxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)
