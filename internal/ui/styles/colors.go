// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import "github.com/charmbracelet/lipgloss"

// =============================================================================
// THEME VARIABLE KEYS
// =============================================================================

// Keys understood by the widget theme. Unknown keys that pass
// config.IsThemeKey are accepted and ignored.
const (
	KeyPrimary    = "primaryColor"
	KeyButton     = "buttonColor"
	KeyBotBubble  = "botBubble"
	KeyUserBubble = "userBubble"
	KeyHeaderText = "headerText"
	KeyBotText    = "botText"
	KeyUserText   = "userText"
)

// =============================================================================
// PALETTE
// =============================================================================

// Purple - primary accent, launcher and header
var Purple = lipgloss.AdaptiveColor{Light: "#7C3AED", Dark: "#A78BFA"}

// PurpleDeep - user bubbles
var PurpleDeep = lipgloss.AdaptiveColor{Light: "#5B21B6", Dark: "#4C1D95"}

// Rose - stop button, errors
var Rose = lipgloss.AdaptiveColor{Light: "#E11D48", Dark: "#FB7185"}

// Amber - capability report
var Amber = lipgloss.AdaptiveColor{Light: "#D97706", Dark: "#FBBF24"}

// Surface - bot bubbles
var Surface = lipgloss.AdaptiveColor{Light: "#F5F3FF", Dark: "#2A2A3A"}

// Overlay - borders, separators
var Overlay = lipgloss.AdaptiveColor{Light: "#E5E5E5", Dark: "#313244"}

var TextPrimary = lipgloss.AdaptiveColor{Light: "#1F2937", Dark: "#CDD6F4"}
var TextMuted = lipgloss.AdaptiveColor{Light: "#9CA3AF", Dark: "#6C7086"}
var TextInverse = lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#FFFFFF"}

// defaults maps theme keys to the built-in palette.
var defaults = map[string]lipgloss.TerminalColor{
	KeyPrimary:    Purple,
	KeyButton:     Rose,
	KeyBotBubble:  Surface,
	KeyUserBubble: PurpleDeep,
	KeyHeaderText: TextInverse,
	KeyBotText:    TextPrimary,
	KeyUserText:   TextInverse,
}

// Palette resolves theme keys against configured variables.
type Palette struct {
	vars map[string]string
}

// NewPalette wraps the configured theme variables. vars may be nil.
func NewPalette(vars map[string]string) Palette {
	cp := make(map[string]string, len(vars))
	for k, v := range vars {
		cp[k] = v
	}
	return Palette{vars: cp}
}

// Color returns the configured color for key, or the built-in default.
// #RRGGBB and ANSI indexes are both valid lipgloss.Color values.
func (p Palette) Color(key string) lipgloss.TerminalColor {
	if v, ok := p.vars[key]; ok && v != "" {
		return lipgloss.Color(v)
	}
	if c, ok := defaults[key]; ok {
		return c
	}
	return lipgloss.NoColor{}
}
