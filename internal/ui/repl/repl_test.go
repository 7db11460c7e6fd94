// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package repl

import (
	"bytes"
	"context"
	"io"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/muesli/termenv"
	"github.com/peterh/liner"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/trxchat/internal/ui/styles"
	"github.com/jeranaias/trxchat/internal/view"
)

// =============================================================================
// HELPERS
// =============================================================================

type scriptReader struct {
	lines chan string
	err   error

	mu      sync.Mutex
	history []string
}

func newScript(lines ...string) *scriptReader {
	ch := make(chan string, len(lines)+4)
	for _, l := range lines {
		ch <- l
	}
	return &scriptReader{lines: ch}
}

func (s *scriptReader) Prompt(string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	line, ok := <-s.lines
	if !ok {
		return "", io.EOF
	}
	return line, nil
}

func (s *scriptReader) AppendHistory(line string) {
	s.mu.Lock()
	s.history = append(s.history, line)
	s.mu.Unlock()
}

type safeBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *safeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *safeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// erase is what the typing hint's removal writes.
const erase = "\b\b\b   \b\b\b"

func newTestREPL(in LineReader, interrupts chan os.Signal) (*REPL, *safeBuffer) {
	out := &safeBuffer{}
	theme := styles.NewTheme(&bytes.Buffer{}, nil, styles.WithColorProfile(termenv.Ascii))
	r := New(in, out, theme, Options{
		Name:        "Tricia",
		WelcomeText: "Olá! Precisa de ajuda?",
		Interrupts:  interrupts,
	})
	return r, out
}

// =============================================================================
// RUN TESTS
// =============================================================================

func TestRun_SendAndStreamReply(t *testing.T) {
	script := newScript("  oi  ")
	r, out := newTestREPL(script, make(chan os.Signal))

	replied := make(chan struct{})
	var sends []string
	r.SetHandlers(view.Handlers{
		OnOpen: func() { r.SetInputEnabled(true) },
		OnSend: func(text string) {
			sends = append(sends, text)
			go func() {
				defer close(replied)
				r.ShowTypingIndicator()
				h := r.CreateStreamingBotMessage()
				r.UpdateStreamingBotMessage(h, "Olá", true)
				r.UpdateStreamingBotMessage(h, "Olá, tudo bem", true)
				r.HideTypingIndicator()
				r.SetInputEnabled(true)
			}()
		},
	})

	errc := make(chan error, 1)
	go func() { errc <- r.Run(context.Background()) }()

	<-replied
	close(script.lines)
	require.NoError(t, <-errc)

	require.Equal(t, []string{"oi"}, sends)
	require.Equal(t, []string{"oi"}, script.history)
	require.Contains(t, out.String(), "Tricia: ..."+erase+"Olá, tudo bem\n")
}

func TestRun_QuitCommand(t *testing.T) {
	script := newScript("", "/SAIR", "never")
	r, _ := newTestREPL(script, make(chan os.Signal))
	var sends []string
	r.SetHandlers(view.Handlers{
		OnOpen: func() { r.SetInputEnabled(true) },
		OnSend: func(text string) { sends = append(sends, text) },
	})

	require.NoError(t, r.Run(context.Background()))
	require.Empty(t, sends)
}

func TestRun_PromptAborted(t *testing.T) {
	script := newScript()
	script.err = liner.ErrPromptAborted
	r, _ := newTestREPL(script, make(chan os.Signal))
	r.SetInputEnabled(true)
	require.NoError(t, r.Run(context.Background()))
}

func TestRun_InterruptStopsThenExits(t *testing.T) {
	interrupts := make(chan os.Signal, 1)
	script := newScript("oi")
	r, _ := newTestREPL(script, interrupts)

	var mu sync.Mutex
	stops := 0
	streaming := make(chan struct{})
	r.SetHandlers(view.Handlers{
		OnOpen: func() { r.SetInputEnabled(true) },
		OnSend: func(string) {
			r.CreateStreamingBotMessage()
			close(streaming)
		},
		OnStop: func() {
			mu.Lock()
			stops++
			mu.Unlock()
			// a stopped reply hands input back
			r.SetInputEnabled(true)
		},
	})

	errc := make(chan error, 1)
	go func() { errc <- r.Run(context.Background()) }()

	<-streaming
	interrupts <- os.Interrupt
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return stops == 1
	}, time.Second, 5*time.Millisecond)

	// next prompt reads nothing; disable input so the loop waits again
	r.SetInputEnabled(false)
	close(script.lines)
	require.NoError(t, <-errc)
}

func TestRun_InterruptWhileDisabledExits(t *testing.T) {
	interrupts := make(chan os.Signal, 1)
	r, _ := newTestREPL(newScript(), interrupts)

	errc := make(chan error, 1)
	go func() { errc <- r.Run(context.Background()) }()
	interrupts <- os.Interrupt
	require.NoError(t, <-errc)
}

func TestRun_ContextCancel(t *testing.T) {
	r, _ := newTestREPL(newScript(), make(chan os.Signal))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, r.Run(ctx))
}

// =============================================================================
// VIEW TESTS
// =============================================================================

func TestStreaming_PrintsOnlyNewText(t *testing.T) {
	r, out := newTestREPL(newScript(), nil)
	h := r.CreateStreamingBotMessage()
	r.UpdateStreamingBotMessage(h, "ab", false)
	r.UpdateStreamingBotMessage(h, "abc", false)
	r.UpdateStreamingBotMessage(h, "abc", false)
	require.Equal(t, "Tricia: abc", out.String())

	r.SetInputEnabled(true)
	require.Equal(t, "Tricia: abc\n", out.String())
}

func TestStreaming_RewriteReprints(t *testing.T) {
	r, out := newTestREPL(newScript(), nil)
	h := r.CreateStreamingBotMessage()
	r.UpdateStreamingBotMessage(h, "abc", false)
	r.UpdateStreamingBotMessage(h, "xyz", false)
	require.Equal(t, "Tricia: abc\nTricia: xyz", out.String())
}

func TestStreaming_IgnoresStaleHandle(t *testing.T) {
	r, out := newTestREPL(newScript(), nil)
	r.CreateStreamingBotMessage()
	r.UpdateStreamingBotMessage("other", "x", false)
	require.Equal(t, "Tricia: ", out.String())
}

func TestTypingIndicatorErased(t *testing.T) {
	r, out := newTestREPL(newScript(), nil)
	r.ShowTypingIndicator()
	r.ShowTypingIndicator()
	r.HideTypingIndicator()
	r.HideTypingIndicator()
	require.Equal(t, "...\b\b\b   \b\b\b", out.String())
}

func TestTypingIndicatorFollowsName(t *testing.T) {
	r, out := newTestREPL(newScript(), nil)
	r.ShowTypingIndicator()
	h := r.CreateStreamingBotMessage()
	r.UpdateStreamingBotMessage(h, "oi", false)
	require.Equal(t, "..."+erase+"Tricia: ..."+erase+"oi", out.String())
}

func TestAppendBotMessage(t *testing.T) {
	r, out := newTestREPL(newScript(), nil)
	r.RenderWelcomeBubble()
	r.AppendBotMessage("Olá! Sou a Tricia.", "", false)
	r.AppendBotMessage("Requisito **ausente**", "", true)

	s := out.String()
	require.Contains(t, s, "Olá! Precisa de ajuda?\n")
	require.Contains(t, s, "Tricia: Olá! Sou a Tricia.\n")
	require.Contains(t, s, "ausente")
}

func TestAppendBotMessage_StreamedHandleNotRepeated(t *testing.T) {
	r, out := newTestREPL(newScript(), nil)
	h := r.CreateStreamingBotMessage()
	r.UpdateStreamingBotMessage(h, "abc", false)
	r.AppendBotMessage("abc", h, false)
	require.Equal(t, "Tricia: abc", out.String())
}
