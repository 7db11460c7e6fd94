// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package repl is the line-mode chat view, used when the terminal cannot host
// the full-screen widget or when it is requested explicitly.
//
// Replies are printed as they stream: each update writes only the text added
// since the previous one. Ctrl+C stops a streaming reply and exits otherwise.
package repl
