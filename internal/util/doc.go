// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util holds small helpers shared by the chat packages.
//
// # Key Functions
//
// Text:
//   - NormalizeInput: NFC-normalizes and trims what the user typed
//   - TruncateWidth: cuts a string to a display width, with ellipsis
//   - StringWidth: display width in terminal cells
//   - TruncateRunes: cuts a string to a rune count, for log previews
//
// Files:
//   - AtomicWriteFile: crash-safe file writing with fsync
//
// # Usage
//
//	title := util.TruncateWidth(cfg.Widget.ChatbotName, headerWidth)
//	err := util.AtomicWriteFile(path, data, 0600)
package util
