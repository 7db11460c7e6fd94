// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package llm

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/jeranaias/trxchat/internal/model"
)

// =============================================================================
// ADAPTER
// =============================================================================

// Adapter owns the conversation history and the single model session.
// It is safe for concurrent use.
type Adapter struct {
	lm        LanguageModel
	languages []string
	logger    *zap.Logger

	mu          sync.Mutex
	history     *model.History
	session     Session
	initialized bool
}

// AdapterOption configures an Adapter.
type AdapterOption func(*Adapter)

// WithInputLanguages overrides DefaultInputLanguages.
func WithInputLanguages(langs ...string) AdapterOption {
	return func(a *Adapter) {
		if len(langs) > 0 {
			a.languages = append([]string(nil), langs...)
		}
	}
}

// WithLogger sets the adapter's logger.
func WithLogger(l *zap.Logger) AdapterOption {
	return func(a *Adapter) {
		if l != nil {
			a.logger = l
		}
	}
}

// NewAdapter creates an adapter. A nil lm means the host does not expose a
// language model.
func NewAdapter(lm LanguageModel, opts ...AdapterOption) *Adapter {
	a := &Adapter{
		lm:        lm,
		languages: append([]string(nil), DefaultInputLanguages...),
		logger:    zap.NewNop(),
		history:   model.NewHistory(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Available reports whether the host exposes a language model.
func (a *Adapter) Available() bool {
	return a.lm != nil
}

// Initialize records the system message and creates the session. With no
// language model it does nothing and returns (nil, nil).
func (a *Adapter) Initialize(ctx context.Context, systemText string) (Session, error) {
	if a.lm == nil {
		a.logger.Debug("language model unavailable, skipping session creation")
		return nil, nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.initialized {
		return nil, ErrAlreadyInitialized
	}
	a.initialized = true

	if err := a.history.SetSystem(systemText); err != nil {
		return nil, fmt.Errorf("record system message: %w", err)
	}

	sess, err := a.lm.Create(ctx, CreateOptions{
		InitialPrompts:         a.history.Messages(),
		ExpectedInputLanguages: append([]string(nil), a.languages...),
	})
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	a.session = sess

	a.logger.Info("language model session created",
		zap.Strings("languages", a.languages),
		zap.Int("system_chars", len(systemText)))
	return sess, nil
}

// PromptStreaming appends the user message to the history and starts a
// streamed reply.
func (a *Adapter) PromptStreaming(ctx context.Context, userText string) (<-chan Fragment, error) {
	a.mu.Lock()
	sess := a.session
	if sess == nil {
		a.mu.Unlock()
		return nil, ErrSessionNotInitialized
	}
	a.history.AppendUser(userText)
	conversation := a.history.Messages()
	a.mu.Unlock()

	a.logger.Debug("prompt",
		zap.Int("messages", len(conversation)),
		zap.String("preview", conversation[len(conversation)-1].Preview(48)))

	ch, err := sess.PromptStreaming(ctx, conversation)
	if err != nil {
		return nil, fmt.Errorf("prompt streaming: %w", err)
	}
	return ch, nil
}

// RecordReply appends a finished assistant reply to the history. Empty
// replies are ignored.
func (a *Adapter) RecordReply(text string) {
	if text == "" {
		return
	}
	a.history.AppendAssistant(text)
}

// History returns a snapshot of the conversation.
func (a *Adapter) History() []model.Message {
	return a.history.Messages()
}
