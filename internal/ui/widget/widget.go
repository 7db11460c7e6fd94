// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package widget

import (
	"context"
	"errors"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/trxchat/internal/ui/styles"
	"github.com/jeranaias/trxchat/internal/view"
)

// ErrAlreadyRunning is returned by a second Run call.
var ErrAlreadyRunning = errors.New("widget already running")

// Widget is the full-screen chat window. It implements view.View and is safe
// for concurrent use.
type Widget struct {
	mu      sync.Mutex
	model   *chatModel
	program *tea.Program
	done    bool
}

var _ view.View = (*Widget)(nil)

// New creates a widget drawing with theme.
func New(theme *styles.Theme, opts Options) *Widget {
	return &Widget{model: newChatModel(theme, opts)}
}

// Run starts the event loop and blocks until the user quits or ctx is done.
// Cancellation is not reported as an error.
func (w *Widget) Run(ctx context.Context, opts ...tea.ProgramOption) error {
	w.mu.Lock()
	if w.program != nil {
		w.mu.Unlock()
		return ErrAlreadyRunning
	}
	opts = append([]tea.ProgramOption{tea.WithContext(ctx), tea.WithAltScreen()}, opts...)
	p := tea.NewProgram(w.model, opts...)
	w.program = p
	w.mu.Unlock()

	_, err := p.Run()

	w.mu.Lock()
	w.done = true
	w.mu.Unlock()

	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

// dispatch delivers msg to the model: directly before Run, through the
// event loop while it runs, and not at all after it has exited.
func (w *Widget) dispatch(msg tea.Msg) {
	w.mu.Lock()
	if w.done {
		w.mu.Unlock()
		return
	}
	if w.program == nil {
		w.model.apply(msg)
		w.mu.Unlock()
		return
	}
	p := w.program
	w.mu.Unlock()
	p.Send(msg)
}

// =============================================================================
// VIEW IMPLEMENTATION
// =============================================================================

func (w *Widget) SetHandlers(h view.Handlers) { w.dispatch(handlersMsg{handlers: h}) }

func (w *Widget) RenderWelcomeBubble() { w.dispatch(welcomeMsg{}) }

func (w *Widget) SetInputEnabled(enabled bool) { w.dispatch(inputMsg{enabled: enabled}) }

func (w *Widget) AppendBotMessage(text string, h view.Handle, renderMarkdown bool) {
	w.dispatch(appendMsg{handle: h, text: text, markdown: renderMarkdown})
}

// CreateStreamingBotMessage allocates the handle here so the caller does not
// wait for the event loop.
func (w *Widget) CreateStreamingBotMessage() view.Handle {
	h := view.NewHandle()
	w.dispatch(createStreamMsg{handle: h})
	return h
}

func (w *Widget) UpdateStreamingBotMessage(h view.Handle, text string, renderMarkdown bool) {
	w.dispatch(updateStreamMsg{handle: h, text: text, markdown: renderMarkdown})
}

func (w *Widget) ShowTypingIndicator() { w.dispatch(typingMsg{show: true}) }

func (w *Widget) HideTypingIndicator() { w.dispatch(typingMsg{show: false}) }

// =============================================================================
// EXTRAS
// =============================================================================

// ApplyTheme replaces the theme variables.
func (w *Widget) ApplyTheme(vars map[string]string) { w.dispatch(themeMsg{vars: vars}) }

// Open opens the chat window.
func (w *Widget) Open() { w.dispatch(openMsg{}) }
