// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ollama provides the HTTP client for a local Ollama server.
//
// Only the surface the chat widget needs is implemented: a health check,
// model lookup for the capability report, and streaming chat.
//
// # Key Types
//
//   - Client: HTTP client for the Ollama API
//   - Message: Chat message with role and content
//   - StreamReader: NDJSON reader for /api/chat streaming responses
//   - StreamChunk: One decoded piece of a streaming response
//
// # Usage
//
//	client := ollama.NewClientWithConfig(&ollama.ClientConfig{BaseURL: url})
//	if err := client.CheckRunning(ctx); err != nil {
//	    // the local model is unavailable
//	}
//	for chunk := range client.ChatStreamChan(ctx, "llama3.2", msgs) {
//	    if chunk.Error != nil {
//	        break
//	    }
//	    fmt.Print(chunk.Content)
//	}
package ollama
