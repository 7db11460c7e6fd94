// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package view defines the rendering surface the chat core drives.
//
// Implementations live in internal/ui (a full-screen widget and a line-mode
// REPL). The core never touches terminal state directly; it only issues the
// commands below and receives user events through Handlers.
package view

import "github.com/google/uuid"

// Handle identifies one bot message container.
type Handle string

// NewHandle returns a fresh, unique handle.
func NewHandle() Handle {
	return Handle(uuid.NewString())
}

// Handlers receives user events from the view.
type Handlers struct {
	// OnOpen fires each time the chat window is opened.
	OnOpen func()

	// OnSend fires with trimmed, non-empty user text.
	OnSend func(text string)

	// OnStop fires when the user asks to stop the current reply.
	OnStop func()
}

// View is the set of commands the chat core issues.
//
// Implementations must be safe to call from any goroutine.
type View interface {
	SetHandlers(h Handlers)
	RenderWelcomeBubble()
	SetInputEnabled(enabled bool)

	// AppendBotMessage adds a complete bot message. An empty handle means a
	// new container.
	AppendBotMessage(text string, h Handle, renderMarkdown bool)

	CreateStreamingBotMessage() Handle
	UpdateStreamingBotMessage(h Handle, text string, renderMarkdown bool)

	ShowTypingIndicator()
	HideTypingIndicator()
}
