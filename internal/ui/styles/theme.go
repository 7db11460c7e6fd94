// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"io"

	gstyles "github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme holds the styled components of the widget.
// It detects the terminal's color capability and adjusts accordingly.
type Theme struct {
	// Terminal capabilities
	IsDark       bool
	HasTrueColor bool
	ColorProfile termenv.Profile

	// Layout dimensions
	Width  int
	Height int

	renderer *lipgloss.Renderer
	palette  Palette

	// ==========================================================================
	// LAUNCHER STYLES
	// ==========================================================================

	Launcher      lipgloss.Style
	Badge         lipgloss.Style
	WelcomeBubble lipgloss.Style

	// ==========================================================================
	// WINDOW STYLES
	// ==========================================================================

	Window      lipgloss.Style
	Header      lipgloss.Style
	HeaderTitle lipgloss.Style
	HeaderClose lipgloss.Style

	// ==========================================================================
	// MESSAGE BUBBLE STYLES
	// ==========================================================================

	BotBubble  lipgloss.Style
	UserBubble lipgloss.Style
	BotAvatar  lipgloss.Style
	TypingDots lipgloss.Style

	// ==========================================================================
	// INPUT AREA STYLES
	// ==========================================================================

	InputContainer lipgloss.Style
	InputDisabled  lipgloss.Style
	StopButton     lipgloss.Style
	Hint           lipgloss.Style
}

// ThemeOption configures NewTheme.
type ThemeOption func(*themeOptions)

type themeOptions struct {
	profile *termenv.Profile
	dark    *bool
}

// WithColorProfile forces a color profile instead of detecting it.
func WithColorProfile(p termenv.Profile) ThemeOption {
	return func(o *themeOptions) { o.profile = &p }
}

// WithDarkBackground skips the background query.
func WithDarkBackground(dark bool) ThemeOption {
	return func(o *themeOptions) { o.dark = &dark }
}

// NewTheme creates a theme rendering to out. vars are the configured theme
// variables (config.WidgetConfig.ThemeVars).
func NewTheme(out io.Writer, vars map[string]string, opts ...ThemeOption) *Theme {
	var o themeOptions
	for _, opt := range opts {
		opt(&o)
	}

	// Detect terminal capabilities
	output := termenv.NewOutput(out)
	profile := output.EnvColorProfile()
	if o.profile != nil {
		profile = *o.profile
	}
	isDark := true
	if o.dark != nil {
		isDark = *o.dark
	} else if profile != termenv.Ascii {
		isDark = output.HasDarkBackground()
	}

	r := lipgloss.NewRenderer(out)
	r.SetColorProfile(profile)
	r.SetHasDarkBackground(isDark)

	t := &Theme{
		IsDark:       isDark,
		HasTrueColor: profile == termenv.TrueColor,
		ColorProfile: profile,
		renderer:     r,
		palette:      NewPalette(vars),
	}
	t.initStyles()
	return t
}

// Apply replaces the theme variables and rebuilds every style.
func (t *Theme) Apply(vars map[string]string) {
	t.palette = NewPalette(vars)
	t.initStyles()
}

// Palette returns the active palette.
func (t *Theme) Palette() Palette {
	return t.palette
}

// MarkdownStyle names the glamour standard style matching the terminal.
func (t *Theme) MarkdownStyle() string {
	switch {
	case t.ColorProfile == termenv.Ascii:
		return gstyles.NoTTYStyle
	case t.IsDark:
		return gstyles.DarkStyle
	default:
		return gstyles.LightStyle
	}
}

// Renderer returns the renderer the styles are bound to.
func (t *Theme) Renderer() *lipgloss.Renderer {
	return t.renderer
}

func (t *Theme) initStyles() {
	r := t.renderer
	p := t.palette
	primary := p.Color(KeyPrimary)

	// Launcher
	t.Launcher = r.NewStyle().
		Bold(true).
		Foreground(p.Color(KeyHeaderText)).
		Background(primary).
		Padding(0, 2)

	t.Badge = r.NewStyle().
		Bold(true).
		Foreground(TextInverse).
		Background(Rose).
		Padding(0, 1)

	t.WelcomeBubble = r.NewStyle().
		Foreground(p.Color(KeyBotText)).
		Background(p.Color(KeyBotBubble)).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(primary).
		Padding(0, 1)

	// Window
	t.Window = r.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(primary)

	t.Header = r.NewStyle().
		Bold(true).
		Foreground(p.Color(KeyHeaderText)).
		Background(primary).
		Padding(0, 1)

	t.HeaderTitle = r.NewStyle().
		Bold(true).
		Foreground(p.Color(KeyHeaderText)).
		Background(primary)

	t.HeaderClose = r.NewStyle().
		Foreground(p.Color(KeyHeaderText)).
		Background(primary)

	// Message bubbles
	t.BotBubble = r.NewStyle().
		Foreground(p.Color(KeyBotText)).
		Background(p.Color(KeyBotBubble)).
		Padding(0, 1).
		MarginBottom(1)

	t.UserBubble = r.NewStyle().
		Foreground(p.Color(KeyUserText)).
		Background(p.Color(KeyUserBubble)).
		Padding(0, 1).
		MarginBottom(1)

	t.BotAvatar = r.NewStyle().
		MarginRight(1)

	t.TypingDots = r.NewStyle().
		Foreground(primary).
		Bold(true)

	// Input
	t.InputContainer = r.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderTop(true).
		BorderForeground(Overlay).
		Padding(0, 1)

	t.InputDisabled = t.InputContainer.
		Foreground(Amber)

	t.StopButton = r.NewStyle().
		Bold(true).
		Foreground(TextInverse).
		Background(p.Color(KeyButton)).
		Padding(0, 1)

	t.Hint = r.NewStyle().
		Foreground(TextMuted).
		Italic(true)
}

// SetSize updates the theme dimensions for responsive layouts.
func (t *Theme) SetSize(width, height int) {
	t.Width = width
	t.Height = height
}

// GetLayoutMode returns the current layout mode based on width.
func (t *Theme) GetLayoutMode() LayoutMode {
	if t.Width < 60 {
		return LayoutNarrow
	}
	if t.Width < 100 {
		return LayoutMedium
	}
	return LayoutWide
}

// BubbleWidth returns the maximum width of a message bubble.
func (t *Theme) BubbleWidth() int {
	switch t.GetLayoutMode() {
	case LayoutNarrow:
		return max(t.Width-4, 10)
	case LayoutMedium:
		return t.Width * 3 / 4
	default:
		return t.Width * 2 / 3
	}
}

// LayoutMode represents the current responsive layout mode.
type LayoutMode int

const (
	LayoutNarrow LayoutMode = iota // < 60 columns
	LayoutMedium                   // 60-100 columns
	LayoutWide                     // > 100 columns
)
