// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/jeranaias/trxchat/internal/detect"
	"github.com/jeranaias/trxchat/internal/llm"
	"github.com/jeranaias/trxchat/internal/stream"
	"github.com/jeranaias/trxchat/internal/view"
)

// ErrAlreadyInitialized is returned by a second Init call.
var ErrAlreadyInitialized = errors.New("chat controller already initialized")

// =============================================================================
// STATE
// =============================================================================

// State is the controller's lifecycle state.
type State int

const (
	StateUnopened State = iota
	StateReady
	StateGenerating
	StateDegraded
)

func (s State) String() string {
	switch s {
	case StateUnopened:
		return "unopened"
	case StateReady:
		return "ready"
	case StateGenerating:
		return "generating"
	case StateDegraded:
		return "degraded"
	default:
		return "unknown"
	}
}

// =============================================================================
// DEPENDENCIES
// =============================================================================

// SessionInitializer creates the model session. *llm.Adapter implements it.
type SessionInitializer interface {
	Initialize(ctx context.Context, systemText string) (llm.Session, error)
}

// Replier streams replies. *stream.Coordinator implements it.
type Replier interface {
	RunStreamingReply(ctx context.Context, userText string, opts ...stream.RunOption) error
	Stop()
}

// EnvironmentFunc gathers the facts for the capability check. It is called on
// every open.
type EnvironmentFunc func(ctx context.Context) detect.Environment

// Deps are the controller's collaborators.
type Deps struct {
	View        view.View
	Session     SessionInitializer
	Replier     Replier
	Environment EnvironmentFunc
	Messages    detect.Messages
	Logger      *zap.Logger
}

// InitOptions carries the bootstrap texts.
type InitOptions struct {
	// FirstBotMessage is shown as plain text right after the welcome bubble.
	FirstBotMessage string

	// SystemText seeds the model session.
	SystemText string
}

// =============================================================================
// CONTROLLER
// =============================================================================

// Controller reacts to view events. Handlers may be invoked from any
// goroutine.
type Controller struct {
	deps Deps
	log  *zap.Logger
	ctx  context.Context

	mu          sync.Mutex
	state       State
	initialized bool
	replySeq    uint64 // identifies the reply that owns StateGenerating

	sessionDone chan struct{} // closed once Initialize has returned
	sessionErr  error

	replies sync.WaitGroup // session creation and replies
}

// New creates a controller. ctx bounds capability probes and replies.
func New(ctx context.Context, deps Deps) *Controller {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Controller{
		deps:        deps,
		log:         log,
		ctx:         ctx,
		sessionDone: make(chan struct{}),
	}
}

// Init wires the view and starts creating the model session in the
// background, so the caller can start the view loop right away. The first
// open waits for the session. Init may be called once.
func (c *Controller) Init(ctx context.Context, opts InitOptions) error {
	c.mu.Lock()
	if c.initialized {
		c.mu.Unlock()
		return ErrAlreadyInitialized
	}
	c.initialized = true
	c.mu.Unlock()

	v := c.deps.View
	v.SetHandlers(view.Handlers{
		OnOpen: c.onOpen,
		OnSend: c.onSend,
		OnStop: c.onStop,
	})
	v.RenderWelcomeBubble()
	v.SetInputEnabled(true)
	v.AppendBotMessage(opts.FirstBotMessage, "", false)

	c.replies.Add(1)
	go func() {
		defer c.replies.Done()
		defer close(c.sessionDone)
		if _, err := c.deps.Session.Initialize(ctx, opts.SystemText); err != nil {
			c.sessionErr = fmt.Errorf("initialize model session: %w", err)
			c.log.Error("model session not created", zap.Error(err))
			return
		}
		c.log.Info("chat initialized")
	}()
	return nil
}

// waitSession blocks until the session has been created and returns the
// creation error, if any.
func (c *Controller) waitSession() error {
	select {
	case <-c.sessionDone:
		return c.sessionErr
	case <-c.ctx.Done():
		return c.ctx.Err()
	}
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Wait blocks until session creation and every in-flight reply have
// finished.
func (c *Controller) Wait() {
	c.replies.Wait()
}

// Shutdown stops any in-flight reply and waits for it to finish.
func (c *Controller) Shutdown() {
	c.deps.Replier.Stop()
	c.Wait()
}

// =============================================================================
// EVENT HANDLERS
// =============================================================================

func (c *Controller) onOpen() {
	env := c.deps.Environment(c.ctx)
	report := detect.CheckRequirements(env, c.deps.Messages)
	if err := c.waitSession(); err != nil && report.OK() {
		report = detect.Report{c.deps.Messages.SessionFailed}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateGenerating {
		// input belongs to the streaming reply until it ends
		c.log.Debug("window reopened while generating", zap.Int("problems", len(report)))
		return
	}

	if !report.OK() {
		c.deps.View.AppendBotMessage(report.String(), "", true)
		c.deps.View.SetInputEnabled(false)
		c.state = StateDegraded
		c.log.Warn("requirements not met", zap.Strings("report", report))
		return
	}

	c.deps.View.SetInputEnabled(true)
	c.state = StateReady
	c.log.Debug("requirements met")
}

func (c *Controller) onSend(text string) {
	c.mu.Lock()
	if c.state != StateReady {
		state := c.state
		c.mu.Unlock()
		c.log.Warn("send rejected", zap.Stringer("state", state))
		if state == StateUnopened {
			// Init enabled input and the view turned it off to submit
			c.deps.View.SetInputEnabled(true)
		}
		return
	}
	c.state = StateGenerating
	c.replySeq++
	seq := c.replySeq
	c.replies.Add(1)
	c.mu.Unlock()

	go func() {
		defer c.replies.Done()

		// Ready must be set before the replier re-enables input, or a
		// line typed at once would be rejected
		err := c.deps.Replier.RunStreamingReply(c.ctx, text,
			stream.BeforeRelease(func() { c.finishReply(seq) }))
		c.reportReplyError(err)
		c.finishReply(seq)
	}()
}

// finishReply leaves StateGenerating if reply seq still owns it.
func (c *Controller) finishReply(seq uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateGenerating && c.replySeq == seq {
		c.state = StateReady
	}
}

func (c *Controller) onStop() {
	c.deps.Replier.Stop()
}

func (c *Controller) reportReplyError(err error) {
	switch {
	case err == nil:
	case errors.Is(err, llm.ErrSessionNotInitialized):
		// a send reached a controller whose session was never created
		c.log.DPanic("reply without a model session", zap.Error(err))
	case errors.Is(err, stream.ErrBusy):
		c.log.Warn("reply already streaming", zap.Error(err))
	case errors.Is(err, context.Canceled):
		c.log.Info("reply cancelled", zap.Error(err))
	default:
		c.log.Error("reply failed", zap.Error(err))
	}
}
