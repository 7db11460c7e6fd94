// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package viewtest provides a recording view.View for tests.
package viewtest

import (
	"fmt"
	"sync"

	"github.com/jeranaias/trxchat/internal/view"
)

// Op names a recorded view command.
type Op string

const (
	OpSetHandlers  Op = "SetHandlers"
	OpWelcome      Op = "RenderWelcomeBubble"
	OpInput        Op = "SetInputEnabled"
	OpAppend       Op = "AppendBotMessage"
	OpCreateStream Op = "CreateStreamingBotMessage"
	OpUpdateStream Op = "UpdateStreamingBotMessage"
	OpShowTyping   Op = "ShowTypingIndicator"
	OpHideTyping   Op = "HideTypingIndicator"
)

// Call is one recorded command.
type Call struct {
	Op       Op
	Handle   view.Handle
	Text     string
	Markdown bool
	Enabled  bool
}

func (c Call) String() string {
	switch c.Op {
	case OpInput:
		return fmt.Sprintf("%s(%t)", c.Op, c.Enabled)
	case OpAppend, OpUpdateStream:
		return fmt.Sprintf("%s(%q, md=%t)", c.Op, c.Text, c.Markdown)
	default:
		return string(c.Op)
	}
}

// Recorder records every command. It is safe for concurrent use.
type Recorder struct {
	mu       sync.Mutex
	calls    []Call
	handlers view.Handlers
	next     int
	onCall   func(Call)
}

var _ view.View = (*Recorder)(nil)

// New returns an empty recorder.
func New() *Recorder {
	return &Recorder{}
}

// OnCall registers fn to run after each recorded command, outside the lock.
func (r *Recorder) OnCall(fn func(Call)) {
	r.mu.Lock()
	r.onCall = fn
	r.mu.Unlock()
}

func (r *Recorder) record(c Call) {
	r.mu.Lock()
	r.calls = append(r.calls, c)
	fn := r.onCall
	r.mu.Unlock()
	if fn != nil {
		fn(c)
	}
}

// SetHandlers implements view.View.
func (r *Recorder) SetHandlers(h view.Handlers) {
	r.mu.Lock()
	r.handlers = h
	r.mu.Unlock()
	r.record(Call{Op: OpSetHandlers})
}

// RenderWelcomeBubble implements view.View.
func (r *Recorder) RenderWelcomeBubble() { r.record(Call{Op: OpWelcome}) }

// SetInputEnabled implements view.View.
func (r *Recorder) SetInputEnabled(enabled bool) {
	r.record(Call{Op: OpInput, Enabled: enabled})
}

// AppendBotMessage implements view.View.
func (r *Recorder) AppendBotMessage(text string, h view.Handle, md bool) {
	r.record(Call{Op: OpAppend, Handle: h, Text: text, Markdown: md})
}

// CreateStreamingBotMessage implements view.View. Handles are sequential so
// tests can predict them.
func (r *Recorder) CreateStreamingBotMessage() view.Handle {
	r.mu.Lock()
	r.next++
	h := view.Handle(fmt.Sprintf("h%d", r.next))
	r.mu.Unlock()
	r.record(Call{Op: OpCreateStream, Handle: h})
	return h
}

// UpdateStreamingBotMessage implements view.View.
func (r *Recorder) UpdateStreamingBotMessage(h view.Handle, text string, md bool) {
	r.record(Call{Op: OpUpdateStream, Handle: h, Text: text, Markdown: md})
}

// ShowTypingIndicator implements view.View.
func (r *Recorder) ShowTypingIndicator() { r.record(Call{Op: OpShowTyping}) }

// HideTypingIndicator implements view.View.
func (r *Recorder) HideTypingIndicator() { r.record(Call{Op: OpHideTyping}) }

// =============================================================================
// INSPECTION
// =============================================================================

// Calls returns a copy of every recorded command.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Call, len(r.calls))
	copy(out, r.calls)
	return out
}

// Ops returns the recorded command names in order.
func (r *Recorder) Ops() []Op {
	calls := r.Calls()
	out := make([]Op, len(calls))
	for i, c := range calls {
		out[i] = c.Op
	}
	return out
}

// Filter returns the recorded commands of one kind.
func (r *Recorder) Filter(op Op) []Call {
	var out []Call
	for _, c := range r.Calls() {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

// Updates returns the text of every streaming update, in order.
func (r *Recorder) Updates() []string {
	var out []string
	for _, c := range r.Filter(OpUpdateStream) {
		out = append(out, c.Text)
	}
	return out
}

// InputEnabled returns the last SetInputEnabled value, or false if never set.
func (r *Recorder) InputEnabled() bool {
	calls := r.Filter(OpInput)
	if len(calls) == 0 {
		return false
	}
	return calls[len(calls)-1].Enabled
}

// Handlers returns the registered handlers.
func (r *Recorder) Handlers() view.Handlers {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.handlers
}

// Reset forgets recorded commands but keeps handlers.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.calls = nil
	r.mu.Unlock()
}
