// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stream

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/jeranaias/trxchat/internal/llm"
	"github.com/jeranaias/trxchat/internal/model"
	"github.com/jeranaias/trxchat/internal/view"
)

var (
	// ErrBusy is returned when a reply is requested while one is streaming.
	ErrBusy = errors.New("a reply is already streaming")

	// errStopped is the cancellation cause used by Stop.
	errStopped = errors.New("reply stopped by user")
)

// Prompter starts streamed replies and records finished ones.
// *llm.Adapter implements it.
type Prompter interface {
	PromptStreaming(ctx context.Context, userText string) (<-chan llm.Fragment, error)
	RecordReply(text string)
}

// Outcome describes how a reply ended.
type Outcome int

const (
	OutcomeCompleted Outcome = iota
	OutcomeStopped
	OutcomeEmptyFragment
	OutcomeFailed
	OutcomeCancelled
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCompleted:
		return "completed"
	case OutcomeStopped:
		return "stopped"
	case OutcomeEmptyFragment:
		return "empty_fragment"
	case OutcomeFailed:
		return "failed"
	case OutcomeCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// =============================================================================
// COORDINATOR
// =============================================================================

// Coordinator drives one streamed reply at a time into a View.
type Coordinator struct {
	view      view.View
	prompter  Prompter
	logger    *zap.Logger
	interval  time.Duration
	newTicker TickerFactory
	markdown  bool

	cancelMgr *cancelManager
	active    atomic.Bool
	tickLog   rate.Sometimes
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithInterval sets the repaint period. Non-positive values are ignored.
func WithInterval(d time.Duration) Option {
	return func(c *Coordinator) {
		if d > 0 {
			c.interval = d
		}
	}
}

// WithTickerFactory replaces the wall-clock ticker.
func WithTickerFactory(f TickerFactory) Option {
	return func(c *Coordinator) {
		if f != nil {
			c.newTicker = f
		}
	}
}

// WithMarkdown controls whether repaints ask the view to render markdown.
func WithMarkdown(enabled bool) Option {
	return func(c *Coordinator) {
		c.markdown = enabled
	}
}

// WithLogger sets the coordinator's logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Coordinator) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewCoordinator creates a Coordinator.
func NewCoordinator(v view.View, p Prompter, opts ...Option) *Coordinator {
	c := &Coordinator{
		view:      v,
		prompter:  p,
		logger:    zap.NewNop(),
		interval:  DefaultInterval,
		newTicker: NewWallTicker,
		markdown:  true,
		cancelMgr: newCancelManager(),
		tickLog:   rate.Sometimes{First: 1, Every: 25},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Active reports whether a reply is streaming.
func (c *Coordinator) Active() bool {
	return c.active.Load()
}

// Stop asks the in-flight reply to end. The reply notices at its next loop
// step and tears down normally, keeping the text received so far. Calling
// Stop with no reply streaming, or more than once, does nothing.
func (c *Coordinator) Stop() {
	if c.cancelMgr.cancel(errStopped) {
		c.logger.Debug("stop requested")
	}
}

// RunOption configures one RunStreamingReply call.
type RunOption func(*runOptions)

type runOptions struct {
	beforeRelease func()
}

// BeforeRelease registers fn to run once the reply has ended and the
// coordinator accepts a new one, right before input is re-enabled. Callers
// use it to leave their busy state before the user can type again.
func BeforeRelease(fn func()) RunOption {
	return func(o *runOptions) {
		o.beforeRelease = fn
	}
}

// RunStreamingReply streams the reply to userText into a new bot message and
// blocks until it ends. A user Stop is not an error. Failures to start the
// prompt and mid-stream fragment errors are returned wrapped.
//
// The bot message is created only once the prompt has started, so a failed
// start leaves no empty message behind. Input is re-enabled last, after the
// coordinator is free and the BeforeRelease hook has run.
func (c *Coordinator) RunStreamingReply(ctx context.Context, userText string, opts ...RunOption) error {
	var ro runOptions
	for _, opt := range opts {
		opt(&ro)
	}

	if !c.active.CompareAndSwap(false, true) {
		return ErrBusy
	}

	ctx, cancel := context.WithCancelCause(ctx)
	c.cancelMgr.set(cancel)

	c.view.ShowTypingIndicator()
	c.view.SetInputEnabled(false)

	fragments, err := c.prompter.PromptStreaming(ctx, userText)
	if err != nil {
		c.view.HideTypingIndicator()
		c.release(ro)
		return fmt.Errorf("start reply: %w", err)
	}

	handle := c.view.CreateStreamingBotMessage()
	r := &reply{
		view:     c.view,
		handle:   handle,
		markdown: c.markdown,
		stats:    model.NewStatistics(),
	}
	log := c.logger.With(zap.String("handle", string(handle)))

	ticker := c.newTicker(c.interval)
	outcome := OutcomeCancelled
	defer func() {
		ticker.Stop()
		r.render()
		c.view.HideTypingIndicator()

		r.stats.Finalize()
		log.Info("reply finished",
			zap.Stringer("outcome", outcome),
			zap.String("stats", r.stats.Format()),
			zap.Int("fragments", r.stats.Fragments),
			zap.Int("renders", r.stats.Renders),
			zap.Int("chars", r.buf.Len()),
			zap.Duration("ttft", r.stats.TTFT),
			zap.Duration("total", r.stats.TotalDuration))

		c.release(ro)
	}()

	outcome, err = c.consume(ctx, r, fragments, ticker, log)

	switch outcome {
	case OutcomeCompleted, OutcomeStopped, OutcomeEmptyFragment:
		if text := r.accumulated(); text != "" {
			c.prompter.RecordReply(text)
		}
		return nil
	case OutcomeFailed:
		return fmt.Errorf("stream reply: %w", err)
	default:
		return err
	}
}

// release frees the coordinator for the next reply and hands input back.
func (c *Coordinator) release(ro runOptions) {
	c.cancelMgr.clear()
	c.active.Store(false)
	if ro.beforeRelease != nil {
		ro.beforeRelease()
	}
	c.view.SetInputEnabled(true)
}

// consume is the single-writer loop: it owns r for the life of the reply.
func (c *Coordinator) consume(ctx context.Context, r *reply, fragments <-chan llm.Fragment, ticker Ticker, log *zap.Logger) (Outcome, error) {
	for {
		if err := ctx.Err(); err != nil {
			return cancelOutcome(ctx)
		}

		select {
		case <-ctx.Done():
			return cancelOutcome(ctx)

		case <-ticker.C():
			rendered := r.render()
			c.tickLog.Do(func() {
				log.Debug("tick",
					zap.Bool("rendered", rendered),
					zap.Int("chars", r.buf.Len()))
			})

		case f, ok := <-fragments:
			if !ok {
				return OutcomeCompleted, nil
			}
			// select picks randomly among ready cases; a fragment taken
			// after a stop is dropped
			if ctx.Err() != nil {
				return cancelOutcome(ctx)
			}
			if f.Err != nil {
				log.Warn("reply stream failed", zap.Error(f.Err))
				return OutcomeFailed, f.Err
			}
			if f.Text == "" {
				log.Warn("empty fragment received, ending reply",
					zap.Int("fragments", r.stats.Fragments))
				return OutcomeEmptyFragment, nil
			}
			r.append(f.Text)
		}
	}
}

func cancelOutcome(ctx context.Context) (Outcome, error) {
	if errors.Is(context.Cause(ctx), errStopped) {
		return OutcomeStopped, nil
	}
	return OutcomeCancelled, ctx.Err()
}

// =============================================================================
// REPLY STATE
// =============================================================================

// reply is the accumulated text of one streaming message and its render
// bookkeeping. Only the consume loop and the teardown touch it.
type reply struct {
	view     view.View
	handle   view.Handle
	markdown bool
	stats    *model.Statistics

	buf          strings.Builder
	lastRendered string
	rendered     bool // false until the first repaint; "" is a valid lastRendered
}

func (r *reply) append(text string) {
	r.stats.RecordFragment()
	r.buf.WriteString(text)
}

func (r *reply) accumulated() string {
	return r.buf.String()
}

// render repaints when there is new, non-empty text. Reports whether a
// repaint was issued.
func (r *reply) render() bool {
	text := r.buf.String()
	if text == "" {
		return false
	}
	if r.rendered && text == r.lastRendered {
		return false
	}
	r.lastRendered = text
	r.rendered = true
	r.stats.RecordRender()
	r.view.HideTypingIndicator()
	r.view.UpdateStreamingBotMessage(r.handle, text, r.markdown)
	return true
}
