// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package llm wraps an on-device language model behind a session adapter.
//
// The host may or may not expose a language model. Adapter hides that
// difference: with no model, Initialize is a silent no-op and any later
// prompt fails with ErrSessionNotInitialized.
//
// # Key Types
//
//   - LanguageModel: The host capability that creates sessions
//   - Session: A conversation-bound handle that streams replies
//   - Fragment: One piece of streamed reply text, or a terminal error
//   - Adapter: Owns the history and the single session
//
// # Backends
//
//   - OllamaModel: Streams from a local Ollama server (/api/chat)
//   - LangChainModel: Streams from any OpenAI-compatible endpoint via langchaingo
package llm
