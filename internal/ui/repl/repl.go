// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package repl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/peterh/liner"
	"go.uber.org/zap"

	"github.com/jeranaias/trxchat/internal/ui/styles"
	"github.com/jeranaias/trxchat/internal/util"
	"github.com/jeranaias/trxchat/internal/view"
)

// typingHint is printed while waiting for the first fragment and erased with
// backspaces when it ends.
const typingHint = "..."

// quitCommands end the session.
var quitCommands = map[string]bool{"/sair": true, "/exit": true, "/quit": true}

// Options configure the REPL.
type Options struct {
	Name        string
	WelcomeText string
	Prompt      string

	// Width wraps rendered markdown (default 80).
	Width int

	// Interrupts delivers Ctrl+C while no prompt is active. Defaults to
	// os.Interrupt notifications.
	Interrupts <-chan os.Signal

	Logger *zap.Logger
}

// REPL is the line-mode view. It implements view.View and is safe for
// concurrent use.
type REPL struct {
	in    LineReader
	theme *styles.Theme
	opts  Options
	log   *zap.Logger
	md    *glamour.TermRenderer

	mu           sync.Mutex
	out          io.Writer
	handlers     view.Handlers
	inputEnabled bool
	enabled      chan struct{} // closed while input is enabled
	stream       view.Handle
	printed      string
	typing       bool
}

var _ view.View = (*REPL)(nil)

// New creates a REPL reading from in and writing to out.
func New(in LineReader, out io.Writer, theme *styles.Theme, opts Options) *REPL {
	if opts.Prompt == "" {
		opts.Prompt = "> "
	}
	if opts.Width <= 0 {
		opts.Width = 80
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	r := &REPL{
		in:      in,
		out:     out,
		theme:   theme,
		opts:    opts,
		log:     log,
		enabled: make(chan struct{}),
	}
	md, err := glamour.NewTermRenderer(glamour.WithStandardStyle(theme.MarkdownStyle()), glamour.WithWordWrap(opts.Width))
	if err != nil {
		log.Warn("markdown disabled", zap.Error(err))
	} else {
		r.md = md
	}
	return r
}

// Run opens the chat and reads lines until the user quits, input ends, or ctx
// is done.
func (r *REPL) Run(ctx context.Context) error {
	interrupts := r.opts.Interrupts
	if interrupts == nil {
		ch := make(chan os.Signal, 1)
		notifyInterrupt(ch)
		defer stopNotify(ch)
		interrupts = ch
	}

	if h := r.currentHandlers(); h.OnOpen != nil {
		h.OnOpen()
	}

	for {
		if !r.waitInput(ctx, interrupts) {
			return nil
		}

		line, err := r.in.Prompt(r.opts.Prompt)
		switch {
		case errors.Is(err, liner.ErrPromptAborted), errors.Is(err, io.EOF):
			r.println("")
			return nil
		case err != nil:
			return fmt.Errorf("read input: %w", err)
		}

		text := util.NormalizeInput(line)
		if text == "" {
			continue
		}
		if quitCommands[strings.ToLower(text)] {
			return nil
		}
		r.in.AppendHistory(text)

		h := r.currentHandlers()
		if h.OnSend == nil {
			continue
		}
		// the reply re-enables input when it ends
		r.SetInputEnabled(false)
		h.OnSend(text)
	}
}

// waitInput blocks until input is enabled. Ctrl+C stops a streaming reply,
// or ends the session when nothing is streaming. It reports false when the
// session should end.
func (r *REPL) waitInput(ctx context.Context, interrupts <-chan os.Signal) bool {
	for {
		r.mu.Lock()
		enabled := r.enabled
		r.mu.Unlock()

		select {
		case <-enabled:
			return true
		case <-ctx.Done():
			return false
		case <-interrupts:
			r.mu.Lock()
			streaming := r.stream != ""
			h := r.handlers
			r.mu.Unlock()
			if !streaming || h.OnStop == nil {
				r.println("")
				return false
			}
			r.log.Debug("stop requested")
			h.OnStop()
		}
	}
}

func (r *REPL) currentHandlers() view.Handlers {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.handlers
}

func (r *REPL) println(s string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintln(r.out, s)
}

func (r *REPL) name() string {
	return r.theme.TypingDots.Render(r.opts.Name + ":")
}

// =============================================================================
// VIEW IMPLEMENTATION
// =============================================================================

func (r *REPL) SetHandlers(h view.Handlers) {
	r.mu.Lock()
	r.handlers = h
	r.mu.Unlock()
}

func (r *REPL) RenderWelcomeBubble() {
	if r.opts.WelcomeText == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintln(r.out, r.theme.Hint.Render(r.opts.WelcomeText))
}

func (r *REPL) SetInputEnabled(enabled bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if enabled == r.inputEnabled {
		return
	}
	r.inputEnabled = enabled
	if enabled {
		if r.stream != "" {
			// finish the streamed line
			fmt.Fprintln(r.out)
			r.stream = ""
			r.printed = ""
		}
		close(r.enabled)
		return
	}
	r.enabled = make(chan struct{})
}

func (r *REPL) AppendBotMessage(text string, h view.Handle, renderMarkdown bool) {
	if renderMarkdown && r.md != nil {
		if out, err := r.md.Render(text); err == nil {
			text = strings.Trim(out, "\n")
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if h != "" && h == r.stream {
		// the streamed text is already on screen
		return
	}
	fmt.Fprintf(r.out, "%s %s\n", r.name(), text)
}

func (r *REPL) CreateStreamingBotMessage() view.Handle {
	h := view.NewHandle()
	r.mu.Lock()
	defer r.mu.Unlock()
	// the hint moves after the name until the first text arrives
	typing := r.typing
	r.eraseTypingLocked()
	r.stream = h
	r.printed = ""
	fmt.Fprintf(r.out, "%s ", r.name())
	if typing {
		r.typing = true
		io.WriteString(r.out, typingHint)
	}
	return h
}

// UpdateStreamingBotMessage prints the part of text not yet on screen. When
// the text no longer extends what was printed, it is reprinted on a new line.
func (r *REPL) UpdateStreamingBotMessage(h view.Handle, text string, renderMarkdown bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if h != r.stream {
		r.log.Debug("update for inactive message", zap.String("handle", string(h)))
		return
	}
	r.eraseTypingLocked()
	if strings.HasPrefix(text, r.printed) {
		io.WriteString(r.out, text[len(r.printed):])
	} else {
		fmt.Fprintf(r.out, "\n%s %s", r.name(), text)
	}
	r.printed = text
}

func (r *REPL) ShowTypingIndicator() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.typing || r.printed != "" {
		return
	}
	r.typing = true
	io.WriteString(r.out, typingHint)
}

func (r *REPL) HideTypingIndicator() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.eraseTypingLocked()
}

func (r *REPL) eraseTypingLocked() {
	if !r.typing {
		return
	}
	r.typing = false
	n := len(typingHint)
	io.WriteString(r.out, strings.Repeat("\b", n)+strings.Repeat(" ", n)+strings.Repeat("\b", n))
}
