// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling system for the chat widget.

# Colors (colors.go)

The built-in palette uses Lip Gloss AdaptiveColor so the widget reads well on
light and dark terminals. Configured theme variables override it key by key:

	primaryColor - launcher, header, window border
	buttonColor  - stop button
	botBubble    - bot bubble background
	userBubble   - user bubble background
	headerText   - header and launcher text
	botText      - bot bubble text
	userText     - user bubble text

Values may be #RGB, #RRGGBB or an ANSI index.

# Theme (theme.go)

Theme binds every style to one lipgloss.Renderer built from the output writer,
so color detection follows the terminal the widget draws on. Theme.Apply
rebuilds the styles when the configuration file changes.

# Animations (animations.go)

TypingDots sizes a bubbles spinner so that one cycle of the three dots takes
the configured typing-dot duration.
*/
package styles
