// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/muesli/termenv"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/jeranaias/trxchat/internal/detect"
	"github.com/jeranaias/trxchat/internal/llm"
	"github.com/jeranaias/trxchat/internal/model"
	"github.com/jeranaias/trxchat/internal/stream"
	"github.com/jeranaias/trxchat/internal/ui/repl"
	"github.com/jeranaias/trxchat/internal/ui/styles"
	"github.com/jeranaias/trxchat/internal/view/viewtest"
)

// =============================================================================
// TEST DOUBLES
// =============================================================================

type fakeSession struct {
	mu    sync.Mutex
	texts []string
	err   error
	gate  chan struct{} // when set, Initialize blocks until it is closed
}

func (f *fakeSession) Initialize(ctx context.Context, systemText string) (llm.Session, error) {
	if f.gate != nil {
		<-f.gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts = append(f.texts, systemText)
	return nil, f.err
}

type fakeReplier struct {
	mu      sync.Mutex
	texts   []string
	stops   int
	started chan string
	release chan error
}

func newFakeReplier() *fakeReplier {
	return &fakeReplier{started: make(chan string, 4), release: make(chan error)}
}

func (f *fakeReplier) RunStreamingReply(ctx context.Context, text string, opts ...stream.RunOption) error {
	f.mu.Lock()
	f.texts = append(f.texts, text)
	f.mu.Unlock()
	f.started <- text
	return <-f.release
}

func (f *fakeReplier) Stop() {
	f.mu.Lock()
	f.stops++
	f.mu.Unlock()
}

type fixture struct {
	rec      *viewtest.Recorder
	session  *fakeSession
	replier  *fakeReplier
	env      detect.Static
	envMu    sync.Mutex
	logs     *observer.ObservedLogs
	ctrl     *Controller
	messages detect.Messages
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	f := &fixture{
		rec:      viewtest.New(),
		session:  &fakeSession{},
		replier:  newFakeReplier(),
		env:      detect.Static{Host: true, Model: true},
		logs:     logs,
		messages: detect.MessagesFor("pt", "llama3.2"),
	}
	f.ctrl = New(context.Background(), Deps{
		View:        f.rec,
		Session:     f.session,
		Replier:     f.replier,
		Environment: f.environment,
		Messages:    f.messages,
		Logger:      zap.New(core),
	})
	return f
}

func (f *fixture) environment(ctx context.Context) detect.Environment {
	f.envMu.Lock()
	defer f.envMu.Unlock()
	return f.env
}

func (f *fixture) setEnv(env detect.Static) {
	f.envMu.Lock()
	f.env = env
	f.envMu.Unlock()
}

func (f *fixture) init(t *testing.T) {
	t.Helper()
	require.NoError(t, f.ctrl.Init(context.Background(), InitOptions{
		FirstBotMessage: "Olá!",
		SystemText:      "sys\nllms",
	}))
}

func (f *fixture) open()            { f.rec.Handlers().OnOpen() }
func (f *fixture) send(text string) { f.rec.Handlers().OnSend(text) }

func waitState(t *testing.T, c *Controller, want State) {
	t.Helper()
	require.Eventually(t, func() bool { return c.State() == want }, 2*time.Second, 5*time.Millisecond)
}

// =============================================================================
// INIT TESTS
// =============================================================================

func TestInit_Order(t *testing.T) {
	f := newFixture(t)
	f.init(t)

	require.Equal(t, []viewtest.Op{
		viewtest.OpSetHandlers,
		viewtest.OpWelcome,
		viewtest.OpInput,
		viewtest.OpAppend,
	}, f.rec.Ops())

	calls := f.rec.Calls()
	require.True(t, calls[2].Enabled)
	require.Equal(t, "Olá!", calls[3].Text)
	require.Empty(t, calls[3].Handle)
	require.False(t, calls[3].Markdown)

	f.ctrl.Wait()
	require.Equal(t, []string{"sys\nllms"}, f.session.texts)
	require.Equal(t, StateUnopened, f.ctrl.State())
}

func TestInit_Twice(t *testing.T) {
	f := newFixture(t)
	f.init(t)
	require.ErrorIs(t, f.ctrl.Init(context.Background(), InitOptions{}), ErrAlreadyInitialized)
	f.ctrl.Wait()
	require.Len(t, f.session.texts, 1)
}

func TestInit_ReturnsBeforeSessionIsCreated(t *testing.T) {
	f := newFixture(t)
	f.session.gate = make(chan struct{})
	f.init(t)

	// the view is fully wired while the session is still being created
	require.Len(t, f.rec.Ops(), 4)
	require.NotNil(t, f.rec.Handlers().OnOpen)

	opened := make(chan struct{})
	go func() {
		f.open()
		close(opened)
	}()

	select {
	case <-opened:
		t.Fatal("open must wait for the model session")
	case <-time.After(20 * time.Millisecond):
	}
	require.Equal(t, StateUnopened, f.ctrl.State())

	close(f.session.gate)
	<-opened
	require.Equal(t, StateReady, f.ctrl.State())
	require.True(t, f.rec.InputEnabled())
}

func TestInit_SessionErrorDegradesOnOpen(t *testing.T) {
	f := newFixture(t)
	f.session.err = errors.New("boom")
	require.NoError(t, f.ctrl.Init(context.Background(), InitOptions{FirstBotMessage: "x"}))
	f.ctrl.Wait()
	require.Equal(t, 1, f.logs.FilterMessage("model session not created").Len())
	f.rec.Reset()

	f.open()

	appends := f.rec.Filter(viewtest.OpAppend)
	require.Len(t, appends, 1)
	require.Equal(t, f.messages.SessionFailed, appends[0].Text)
	require.True(t, appends[0].Markdown)
	require.False(t, f.rec.InputEnabled())
	require.Equal(t, StateDegraded, f.ctrl.State())

	f.send("oi")
	require.Empty(t, f.replier.texts)
}

func TestInit_SessionErrorKeepsEnvironmentReport(t *testing.T) {
	f := newFixture(t)
	f.session.err = errors.New("boom")
	f.setEnv(detect.Static{Host: true, Model: false})
	f.init(t)

	f.open()

	appends := f.rec.Filter(viewtest.OpAppend)
	require.Equal(t, detect.CheckRequirements(detect.Static{Host: true}, f.messages).String(), appends[len(appends)-1].Text)
	require.Equal(t, StateDegraded, f.ctrl.State())
}

// =============================================================================
// OPEN TESTS
// =============================================================================

func TestOpen_RequirementsMet(t *testing.T) {
	f := newFixture(t)
	f.init(t)
	f.rec.Reset()

	f.open()
	require.Equal(t, []viewtest.Op{viewtest.OpInput}, f.rec.Ops())
	require.True(t, f.rec.InputEnabled())
	require.Equal(t, StateReady, f.ctrl.State())
}

func TestOpen_RequirementsUnmet(t *testing.T) {
	f := newFixture(t)
	f.setEnv(detect.Static{Host: false, Model: false})
	f.init(t)
	f.rec.Reset()

	f.open()

	appends := f.rec.Filter(viewtest.OpAppend)
	require.Len(t, appends, 1)
	require.True(t, appends[0].Markdown)
	want := detect.CheckRequirements(detect.Static{}, f.messages)
	require.Len(t, want, 5)
	require.Equal(t, want.String(), appends[0].Text)
	require.Contains(t, appends[0].Text, "\n\n")
	require.False(t, f.rec.InputEnabled())
	require.Equal(t, StateDegraded, f.ctrl.State())
}

func TestOpen_ReevaluatesEachTime(t *testing.T) {
	f := newFixture(t)
	f.setEnv(detect.Static{Host: true, Model: false})
	f.init(t)

	f.open()
	require.Equal(t, StateDegraded, f.ctrl.State())

	f.setEnv(detect.Static{Host: true, Model: true})
	f.open()
	require.Equal(t, StateReady, f.ctrl.State())
	require.True(t, f.rec.InputEnabled())
}

// =============================================================================
// SEND / STOP TESTS
// =============================================================================

func TestSend_RunsReplyAndReturnsToReady(t *testing.T) {
	f := newFixture(t)
	f.init(t)
	f.open()

	f.send("oi")
	require.Equal(t, "oi", <-f.replier.started)
	require.Equal(t, StateGenerating, f.ctrl.State())

	f.replier.release <- nil
	f.ctrl.Wait()
	require.Equal(t, StateReady, f.ctrl.State())
}

func TestSend_RejectedWhileGenerating(t *testing.T) {
	f := newFixture(t)
	f.init(t)
	f.open()

	f.send("first")
	<-f.replier.started
	f.send("second")

	f.replier.release <- nil
	f.ctrl.Wait()

	require.Equal(t, []string{"first"}, f.replier.texts)
	require.Equal(t, 1, f.logs.FilterMessage("send rejected").Len())
}

func TestSend_RejectedBeforeOpenAndWhenDegraded(t *testing.T) {
	f := newFixture(t)
	f.init(t)

	// the view disables input before handing over a line
	f.rec.SetInputEnabled(false)
	f.send("too early")
	require.True(t, f.rec.InputEnabled(), "a line rejected before open must give input back")

	f.setEnv(detect.Static{})
	f.open()
	f.send("degraded")
	require.False(t, f.rec.InputEnabled(), "degraded input stays off")

	f.ctrl.Wait()
	require.Empty(t, f.replier.texts)
	require.Equal(t, 2, f.logs.FilterMessage("send rejected").Len())
}

func TestFinishReply_IgnoresStaleReply(t *testing.T) {
	f := newFixture(t)
	f.init(t)
	f.open()

	f.send("first")
	<-f.replier.started
	f.ctrl.finishReply(f.ctrl.replySeq + 1)
	require.Equal(t, StateGenerating, f.ctrl.State())

	f.replier.release <- nil
	f.ctrl.Wait()
	require.Equal(t, StateReady, f.ctrl.State())
}

func TestOpen_WhileGeneratingKeepsState(t *testing.T) {
	f := newFixture(t)
	f.init(t)
	f.open()
	f.send("oi")
	<-f.replier.started

	f.rec.Reset()
	f.open()
	require.Empty(t, f.rec.Ops())
	require.Equal(t, StateGenerating, f.ctrl.State())

	f.replier.release <- nil
	f.ctrl.Wait()
}

func TestStop_Delegates(t *testing.T) {
	f := newFixture(t)
	f.init(t)
	f.rec.Handlers().OnStop()
	f.rec.Handlers().OnStop()
	require.Equal(t, 2, f.replier.stops)
}

func TestReplyErrors_AreLogged(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		level zapcore.Level
		msg   string
	}{
		{"session missing", llm.ErrSessionNotInitialized, zapcore.DPanicLevel, "reply without a model session"},
		{"busy", stream.ErrBusy, zapcore.WarnLevel, "reply already streaming"},
		{"failure", errors.New("boom"), zapcore.ErrorLevel, "reply failed"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			f.init(t)
			f.open()
			f.send("oi")
			<-f.replier.started
			f.replier.release <- tc.err
			f.ctrl.Wait()

			entries := f.logs.FilterMessage(tc.msg).All()
			require.Len(t, entries, 1)
			require.Equal(t, tc.level, entries[0].Level)
			require.Equal(t, StateReady, f.ctrl.State())
		})
	}
}

// =============================================================================
// END TO END
// =============================================================================

type scriptedModel struct {
	fragments []string
}

func (m *scriptedModel) Create(ctx context.Context, opts llm.CreateOptions) (llm.Session, error) {
	return m, nil
}

func (m *scriptedModel) PromptStreaming(ctx context.Context, conversation []model.Message) (<-chan llm.Fragment, error) {
	ch := make(chan llm.Fragment, len(m.fragments))
	for _, f := range m.fragments {
		ch <- llm.Fragment{Text: f}
	}
	close(ch)
	return ch, nil
}

func TestEndToEnd_ReplyIsStreamedAndRecorded(t *testing.T) {
	rec := viewtest.New()
	adapter := llm.NewAdapter(&scriptedModel{fragments: []string{"Olá", ", ", "tudo bem?"}})
	coord := stream.NewCoordinator(rec, adapter, stream.WithInterval(time.Millisecond))
	ctrl := New(context.Background(), Deps{
		View:        rec,
		Session:     adapter,
		Replier:     coord,
		Environment: func(context.Context) detect.Environment { return detect.Static{Host: true, Model: true} },
		Messages:    detect.MessagesFor("pt", "m"),
	})

	require.NoError(t, ctrl.Init(context.Background(), InitOptions{FirstBotMessage: "Oi", SystemText: "sys"}))
	rec.Handlers().OnOpen()
	rec.Handlers().OnSend("oi")
	ctrl.Wait()

	updates := rec.Updates()
	require.NotEmpty(t, updates)
	require.Equal(t, "Olá, tudo bem?", updates[len(updates)-1])
	require.True(t, rec.InputEnabled())
	require.Equal(t, StateReady, ctrl.State())

	require.Equal(t, []model.Message{
		model.NewSystemMessage("sys"),
		model.NewUserMessage("oi"),
		model.NewAssistantMessage("Olá, tudo bem?"),
	}, adapter.History())
}

func TestEndToEnd_NoModelReportsProgrammerError(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	rec := viewtest.New()
	adapter := llm.NewAdapter(nil)
	coord := stream.NewCoordinator(rec, adapter)
	ctrl := New(context.Background(), Deps{
		View:    rec,
		Session: adapter,
		Replier: coord,
		// environment claims readiness the adapter cannot honour
		Environment: func(context.Context) detect.Environment { return detect.Static{Host: true, Model: true} },
		Messages:    detect.MessagesFor("pt", "m"),
		Logger:      zap.New(core),
	})

	require.NoError(t, ctrl.Init(context.Background(), InitOptions{FirstBotMessage: "Oi", SystemText: "sys"}))
	rec.Handlers().OnOpen()
	rec.Handlers().OnSend("oi")
	ctrl.Wait()

	require.Equal(t, 1, logs.FilterLevelExact(zapcore.DPanicLevel).Len())
	require.True(t, rec.InputEnabled())
	require.Empty(t, rec.Updates())
	waitState(t, ctrl, StateReady)
}

func TestEndToEnd_SendAcceptedAsSoonAsInputReturns(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	rec := viewtest.New()
	adapter := llm.NewAdapter(&scriptedModel{fragments: []string{"ok"}})
	coord := stream.NewCoordinator(rec, adapter, stream.WithInterval(time.Millisecond))
	ctrl := New(context.Background(), Deps{
		View:        rec,
		Session:     adapter,
		Replier:     coord,
		Environment: func(context.Context) detect.Environment { return detect.Static{Host: true, Model: true} },
		Messages:    detect.MessagesFor("pt", "m"),
		Logger:      zap.New(core),
	})
	require.NoError(t, ctrl.Init(context.Background(), InitOptions{FirstBotMessage: "Oi", SystemText: "sys"}))
	rec.Handlers().OnOpen()

	// submit the next line from inside the call that hands input back
	var (
		sent         atomic.Bool
		stateAtInput State
	)
	rec.OnCall(func(c viewtest.Call) {
		if c.Op == viewtest.OpInput && c.Enabled && sent.CompareAndSwap(false, true) {
			stateAtInput = ctrl.State()
			rec.Handlers().OnSend("second")
		}
	})

	rec.Handlers().OnSend("first")
	ctrl.Wait()

	require.Equal(t, StateReady, stateAtInput)
	require.Zero(t, logs.FilterMessage("send rejected").Len())
	require.Equal(t, []model.Message{
		model.NewSystemMessage("sys"),
		model.NewUserMessage("first"),
		model.NewAssistantMessage("ok"),
		model.NewUserMessage("second"),
		model.NewAssistantMessage("ok"),
	}, adapter.History())
	require.True(t, rec.InputEnabled())
}

type lineScript struct {
	lines chan string
}

func (l *lineScript) Prompt(string) (string, error) {
	line, ok := <-l.lines
	if !ok {
		return "", io.EOF
	}
	return line, nil
}

func (l *lineScript) AppendHistory(string) {}

func TestEndToEnd_REPLSessionWithSeveralLines(t *testing.T) {
	lines := make(chan string, 3)
	lines <- "um"
	lines <- "dois"
	lines <- "três"
	close(lines)

	theme := styles.NewTheme(io.Discard, nil, styles.WithColorProfile(termenv.Ascii))
	r := repl.New(&lineScript{lines: lines}, io.Discard, theme, repl.Options{
		Name:       "Tricia",
		Interrupts: make(chan os.Signal),
	})

	core, logs := observer.New(zapcore.DebugLevel)
	adapter := llm.NewAdapter(&scriptedModel{fragments: []string{"Olá", "!"}})
	coord := stream.NewCoordinator(r, adapter, stream.WithInterval(time.Millisecond))
	ctrl := New(context.Background(), Deps{
		View:        r,
		Session:     adapter,
		Replier:     coord,
		Environment: func(context.Context) detect.Environment { return detect.Static{Host: true, Model: true} },
		Messages:    detect.MessagesFor("pt", "m"),
		Logger:      zap.New(core),
	})
	require.NoError(t, ctrl.Init(context.Background(), InitOptions{FirstBotMessage: "Oi", SystemText: "sys"}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("the session stopped accepting lines")
	}
	ctrl.Wait()

	require.Zero(t, logs.FilterMessage("send rejected").Len())
	var users []string
	for _, m := range adapter.History() {
		if m.Role == model.RoleUser {
			users = append(users, m.Content)
		}
	}
	require.Equal(t, []string{"um", "dois", "três"}, users)
	require.Len(t, adapter.History(), 7)
}
