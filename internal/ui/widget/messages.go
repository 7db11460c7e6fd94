// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package widget

import "github.com/jeranaias/trxchat/internal/view"

// =============================================================================
// VIEW COMMAND MESSAGES
// =============================================================================

// Each view.View call becomes one of these and is applied by Update.

type handlersMsg struct{ handlers view.Handlers }

type welcomeMsg struct{}

type inputMsg struct{ enabled bool }

type appendMsg struct {
	handle   view.Handle
	text     string
	markdown bool
}

type createStreamMsg struct{ handle view.Handle }

type updateStreamMsg struct {
	handle   view.Handle
	text     string
	markdown bool
}

type typingMsg struct{ show bool }

// themeMsg replaces the theme variables, e.g. after a config reload.
type themeMsg struct{ vars map[string]string }

// openMsg opens the window as if the user had pressed enter on the launcher.
type openMsg struct{}
