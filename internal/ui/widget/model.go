// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package widget

import (
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/jeranaias/trxchat/internal/config"
	"github.com/jeranaias/trxchat/internal/ui/styles"
	"github.com/jeranaias/trxchat/internal/util"
	"github.com/jeranaias/trxchat/internal/view"
)

// Options configure the widget chrome.
type Options struct {
	Name        string
	Icon        string
	Avatar      string
	WelcomeText string

	// TypingPeriod is one full cycle of the typing dots.
	TypingPeriod time.Duration

	// StartOpen opens the window as soon as the program starts.
	StartOpen bool

	Labels Labels
	Logger *zap.Logger
}

// OptionsFromConfig builds Options from the loaded configuration.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Name:         cfg.Widget.ChatbotName,
		Icon:         cfg.Widget.IconURL,
		Avatar:       cfg.Widget.BotAvatar,
		WelcomeText:  cfg.Widget.WelcomeBubble,
		TypingPeriod: cfg.Widget.TypingDotDuration(),
		StartOpen:    cfg.UI.StartOpen,
		Labels:       LabelsFor(cfg.Locale),
	}
}

// bubble is one message in the conversation.
type bubble struct {
	handle   view.Handle
	fromUser bool
	text     string
	markdown bool
}

// Layout rows outside the viewport: header, typing line, input border and
// input line.
const chromeRows = 4

// chatModel is the Bubble Tea model. It is only touched by the event loop,
// or by Widget before Run.
type chatModel struct {
	theme    *styles.Theme
	opts     Options
	log      *zap.Logger
	keys     KeyMap
	handlers view.Handlers

	width  int
	height int

	open         bool
	welcome      bool
	unread       int
	inputEnabled bool
	streaming    bool
	typing       bool

	bubbles []bubble
	index   map[view.Handle]int

	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model
	md       *markdownRenderer
}

func newChatModel(theme *styles.Theme, opts Options) *chatModel {
	if opts.Labels == (Labels{}) {
		opts.Labels = LabelsFor("")
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = opts.Labels.Placeholder
	ti.CharLimit = 4096

	vp := viewport.New(80, 20)
	vp.SetContent("")

	sp := spinner.New(
		spinner.WithSpinner(styles.TypingDots(opts.TypingPeriod).Spinner()),
		spinner.WithStyle(theme.TypingDots),
	)

	return &chatModel{
		theme:    theme,
		opts:     opts,
		log:      log,
		keys:     DefaultKeyMap(),
		open:     opts.StartOpen,
		index:    make(map[view.Handle]int),
		viewport: vp,
		input:    ti,
		spinner:  sp,
		md:       newMarkdownRenderer(theme),
	}
}

// =============================================================================
// BUBBLE TEA INTERFACE
// =============================================================================

func (m *chatModel) Init() tea.Cmd {
	var cmds []tea.Cmd
	cmds = append(cmds, textinput.Blink)
	if m.typing {
		cmds = append(cmds, m.spinner.Tick)
	}
	if m.open {
		cmds = append(cmds, m.invoke("open", m.handlers.OnOpen))
	}
	return tea.Batch(cmds...)
}

func (m *chatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		if !m.typing {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	if cmd, ok := m.apply(msg); ok {
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// apply handles the view command messages. It reports false for anything
// else.
func (m *chatModel) apply(msg tea.Msg) (tea.Cmd, bool) {
	switch msg := msg.(type) {
	case handlersMsg:
		m.handlers = msg.handlers

	case welcomeMsg:
		if !m.open {
			m.welcome = true
		}

	case inputMsg:
		m.inputEnabled = msg.enabled
		if msg.enabled {
			m.streaming = false
			return m.input.Focus(), true
		}
		m.input.Blur()

	case appendMsg:
		if i, ok := m.index[msg.handle]; ok && msg.handle != "" {
			m.bubbles[i].text = msg.text
			m.bubbles[i].markdown = msg.markdown
		} else {
			m.addBubble(bubble{handle: msg.handle, text: msg.text, markdown: msg.markdown})
		}
		m.refresh()

	case createStreamMsg:
		m.streaming = true
		m.addBubble(bubble{handle: msg.handle})
		m.refresh()

	case updateStreamMsg:
		i, ok := m.index[msg.handle]
		if !ok {
			m.log.Warn("update for unknown message", zap.String("handle", string(msg.handle)))
			return nil, true
		}
		m.bubbles[i].text = msg.text
		m.bubbles[i].markdown = msg.markdown
		m.refresh()

	case typingMsg:
		wasTyping := m.typing
		m.typing = msg.show
		if msg.show && !wasTyping {
			return m.spinner.Tick, true
		}

	case openMsg:
		if !m.open {
			return m.openWindow(), true
		}

	case themeMsg:
		m.theme.Apply(msg.vars)
		m.spinner.Style = m.theme.TypingDots
		m.refresh()

	default:
		return nil, false
	}
	return nil, true
}

func (m *chatModel) addBubble(b bubble) {
	if b.handle != "" {
		m.index[b.handle] = len(m.bubbles)
	}
	m.bubbles = append(m.bubbles, b)
	if !m.open && !b.fromUser {
		m.unread++
	}
}

// =============================================================================
// KEYS
// =============================================================================

func (m *chatModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		return m, tea.Quit
	}

	if !m.open {
		switch {
		case key.Matches(msg, m.keys.Open):
			return m, m.openWindow()
		case key.Matches(msg, m.keys.QuitClosed):
			return m, tea.Quit
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Close):
		if m.stopAvailable() {
			return m, m.invoke("stop", m.handlers.OnStop)
		}
		m.open = false
		m.input.Blur()
		return m, nil

	case key.Matches(msg, m.keys.Submit):
		return m, m.submit()

	case key.Matches(msg, m.keys.PageUp, m.keys.PageDown, m.keys.Up, m.keys.Down):
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	if !m.inputEnabled {
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// stopAvailable reports whether esc stops a reply: input is handed to the
// reply while it streams.
func (m *chatModel) stopAvailable() bool {
	return !m.inputEnabled && m.streaming
}

func (m *chatModel) openWindow() tea.Cmd {
	m.open = true
	m.welcome = false
	m.unread = 0
	m.refresh()

	cmds := []tea.Cmd{m.invoke("open", m.handlers.OnOpen)}
	if m.inputEnabled {
		cmds = append(cmds, m.input.Focus())
	}
	return tea.Batch(cmds...)
}

func (m *chatModel) submit() tea.Cmd {
	if !m.inputEnabled {
		return nil
	}
	text := util.NormalizeInput(m.input.Value())
	if text == "" {
		return nil
	}
	m.input.Reset()
	m.addBubble(bubble{fromUser: true, text: text})
	m.refresh()

	onSend := m.handlers.OnSend
	if onSend == nil {
		return nil
	}
	return m.invoke("send", func() { onSend(text) })
}

// invoke runs a handler off the event loop so it may call back into the
// widget.
func (m *chatModel) invoke(event string, fn func()) tea.Cmd {
	if fn == nil {
		return nil
	}
	log := m.log
	return func() tea.Msg {
		log.Debug("view event", zap.String("event", event))
		fn()
		return nil
	}
}

// =============================================================================
// LAYOUT
// =============================================================================

func (m *chatModel) resize(width, height int) {
	m.width = width
	m.height = height
	m.theme.SetSize(width, height)

	m.viewport.Width = width
	m.viewport.Height = max(height-chromeRows, 1)
	// prompt and container padding
	m.input.Width = max(width-len(m.input.Prompt)-3, 1)
	m.refresh()
}

// refresh re-renders the conversation into the viewport and scrolls to the
// newest message.
func (m *chatModel) refresh() {
	m.viewport.SetContent(m.renderBubbles())
	m.viewport.GotoBottom()
}
