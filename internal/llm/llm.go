// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package llm

import (
	"context"
	"errors"

	"github.com/jeranaias/trxchat/internal/model"
)

// Errors returned by the adapter.
var (
	// ErrSessionNotInitialized means a prompt was issued before a session
	// existed. It indicates a caller bug, not a runtime condition.
	ErrSessionNotInitialized = errors.New("language model session not initialized")

	// ErrAlreadyInitialized is returned by a second Initialize call.
	ErrAlreadyInitialized = errors.New("language model session already initialized")
)

// DefaultInputLanguages is the expected input language set for new sessions.
var DefaultInputLanguages = []string{"pt"}

// Fragment is one piece of streamed reply text. A fragment with Err set is
// terminal; the producer closes the channel after sending it.
type Fragment struct {
	Text string
	Err  error
}

// CreateOptions configures a new session.
type CreateOptions struct {
	// InitialPrompts seeds the session, normally with the system message.
	InitialPrompts []model.Message

	// ExpectedInputLanguages lists the languages user input will be in.
	ExpectedInputLanguages []string
}

// LanguageModel is the host capability able to create sessions.
type LanguageModel interface {
	Create(ctx context.Context, opts CreateOptions) (Session, error)
}

// Session streams replies for one conversation.
//
// PromptStreaming receives the full conversation so far, ending with the
// user message to answer. The returned channel yields fragments in order and
// is closed by the producer when the reply is complete, has failed, or ctx is
// done.
type Session interface {
	PromptStreaming(ctx context.Context, conversation []model.Message) (<-chan Fragment, error)
}

// sendFragment delivers f unless ctx ends first.
func sendFragment(ctx context.Context, out chan<- Fragment, f Fragment) bool {
	select {
	case out <- f:
		return true
	case <-ctx.Done():
		return false
	}
}
