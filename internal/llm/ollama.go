// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package llm

import (
	"context"

	"github.com/jeranaias/trxchat/internal/model"
	"github.com/jeranaias/trxchat/internal/ollama"
)

// =============================================================================
// OLLAMA BACKEND
// =============================================================================

// OllamaModel creates sessions that stream from a local Ollama server.
type OllamaModel struct {
	client *ollama.Client
	name   string
}

// NewOllamaModel returns a LanguageModel backed by client. An empty name
// uses the client's default model.
func NewOllamaModel(client *ollama.Client, name string) *OllamaModel {
	if name == "" {
		name = client.DefaultModel()
	}
	return &OllamaModel{client: client, name: name}
}

// Name returns the model name sessions will use.
func (m *OllamaModel) Name() string {
	return m.name
}

// Create returns a session. No request is made until the first prompt.
func (m *OllamaModel) Create(ctx context.Context, opts CreateOptions) (Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &ollamaSession{client: m.client, name: m.name}, nil
}

type ollamaSession struct {
	client *ollama.Client
	name   string
}

func (s *ollamaSession) PromptStreaming(ctx context.Context, conversation []model.Message) (<-chan Fragment, error) {
	msgs := make([]ollama.Message, len(conversation))
	for i, m := range conversation {
		msgs[i] = ollama.Message{Role: m.Role.String(), Content: m.Content}
	}

	chunks := s.client.ChatStreamChan(ctx, s.name, msgs)
	out := make(chan Fragment)

	go func() {
		defer close(out)
		for chunk := range chunks {
			if chunk.Error != nil {
				sendFragment(ctx, out, Fragment{Err: chunk.Error})
				return
			}
			// Ollama terminates every stream with an empty done chunk.
			if chunk.Content == "" {
				continue
			}
			if !sendFragment(ctx, out, Fragment{Text: chunk.Content}) {
				return
			}
		}
	}()

	return out, nil
}
