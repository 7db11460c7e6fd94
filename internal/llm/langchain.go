// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package llm

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"

	"github.com/jeranaias/trxchat/internal/model"
)

// =============================================================================
// LANGCHAIN BACKEND
// =============================================================================

// LangChainModel creates sessions on top of a langchaingo llms.Model, which
// lets the widget talk to any OpenAI-compatible server running on-device
// (Ollama's /v1, llama.cpp server, LM Studio).
type LangChainModel struct {
	llm llms.Model
}

// NewLangChainModel connects to an OpenAI-compatible endpoint.
func NewLangChainModel(baseURL, token, modelName string) (*LangChainModel, error) {
	if token == "" {
		// local servers ignore the key but the client insists on one
		token = "local"
	}
	llm, err := openai.New(
		openai.WithToken(token),
		openai.WithBaseURL(baseURL),
		openai.WithModel(modelName),
	)
	if err != nil {
		return nil, fmt.Errorf("create openai client: %w", err)
	}
	return &LangChainModel{llm: llm}, nil
}

// NewLangChainModelFrom wraps an existing llms.Model.
func NewLangChainModelFrom(m llms.Model) *LangChainModel {
	return &LangChainModel{llm: m}
}

// Create returns a session bound to the underlying model.
func (m *LangChainModel) Create(ctx context.Context, opts CreateOptions) (Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &langChainSession{llm: m.llm}, nil
}

type langChainSession struct {
	llm llms.Model
}

func (s *langChainSession) PromptStreaming(ctx context.Context, conversation []model.Message) (<-chan Fragment, error) {
	content := make([]llms.MessageContent, 0, len(conversation))
	for _, m := range conversation {
		content = append(content, llms.TextParts(chatMessageType(m.Role), m.Content))
	}

	out := make(chan Fragment)
	go func() {
		defer close(out)
		_, err := s.llm.GenerateContent(ctx, content,
			llms.WithStreamingFunc(func(ctx context.Context, chunk []byte) error {
				if len(chunk) == 0 {
					return nil
				}
				if !sendFragment(ctx, out, Fragment{Text: string(chunk)}) {
					return ctx.Err()
				}
				return nil
			}),
		)
		if err != nil && ctx.Err() == nil {
			sendFragment(ctx, out, Fragment{Err: fmt.Errorf("generate content: %w", err)})
		}
	}()

	return out, nil
}

func chatMessageType(r model.Role) schema.ChatMessageType {
	switch r {
	case model.RoleSystem:
		return schema.ChatMessageTypeSystem
	case model.RoleAssistant:
		return schema.ChatMessageTypeAI
	default:
		return schema.ChatMessageTypeHuman
	}
}
