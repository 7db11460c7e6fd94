// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"errors"
	"sync"
)

// ErrSystemAlreadySet is returned when a system message is added to a history
// that is not empty.
var ErrSystemAlreadySet = errors.New("system message must be the first message")

// =============================================================================
// HISTORY TYPE
// =============================================================================

// History is the ordered, append-only record of a conversation. It is safe
// for concurrent use.
type History struct {
	mu       sync.RWMutex
	messages []Message
}

// NewHistory creates an empty history.
func NewHistory() *History {
	return &History{messages: make([]Message, 0, 8)}
}

// SetSystem appends the system message. It may only be called while the
// history is empty.
func (h *History) SetSystem(content string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.messages) > 0 {
		return ErrSystemAlreadySet
	}
	h.messages = append(h.messages, NewSystemMessage(content))
	return nil
}

// AppendUser appends a user message.
func (h *History) AppendUser(content string) {
	h.append(NewUserMessage(content))
}

// AppendAssistant appends an assistant message.
func (h *History) AppendAssistant(content string) {
	h.append(NewAssistantMessage(content))
}

func (h *History) append(msg Message) {
	h.mu.Lock()
	h.messages = append(h.messages, msg)
	h.mu.Unlock()
}

// Messages returns a copy of the history in order.
func (h *History) Messages() []Message {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]Message, len(h.messages))
	copy(out, h.messages)
	return out
}

// Len returns the number of messages.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.messages)
}

