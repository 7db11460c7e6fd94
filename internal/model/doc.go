// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
//
// # Key Types
//
//   - History: Append-only ordered record of the conversation
//   - Message: Single immutable message with role and content
//   - Role: Message role enumeration (system, user, assistant)
//   - Statistics: Timing and fragment counts for one streamed reply
//
// # Usage
//
//	h := model.NewHistory()
//	_ = h.SetSystem("You are a helpful assistant.")
//	h.AppendUser("Olá!")
//	h.AppendAssistant("Olá! Como posso ajudar?")
//	msgs := h.Messages() // copy, safe to hand to a model
package model
