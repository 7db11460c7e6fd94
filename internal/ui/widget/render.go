// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package widget

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/trxchat/internal/ui/styles"
	"github.com/jeranaias/trxchat/internal/util"
)

// =============================================================================
// VIEW
// =============================================================================

func (m *chatModel) View() string {
	if !m.open {
		return m.renderLauncher()
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		m.viewport.View(),
		m.renderTyping(),
		m.renderInput(),
	)
}

func (m *chatModel) renderLauncher() string {
	t := m.theme
	label := t.Launcher.Render(strings.TrimSpace(m.opts.Icon + " " + m.opts.Name))
	if m.unread > 0 {
		label = lipgloss.JoinHorizontal(lipgloss.Top, label, t.Badge.Render(strconv.Itoa(m.unread)))
	}

	content := label
	if m.welcome && m.opts.WelcomeText != "" {
		w := max(min(util.StringWidth(m.opts.WelcomeText)+4, m.width-2), 10)
		welcome := t.WelcomeBubble.Width(w).Render(m.opts.WelcomeText)
		content = lipgloss.JoinVertical(lipgloss.Right, welcome, label)
	}

	if m.width <= 0 || m.height <= 0 {
		return content
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Right, lipgloss.Bottom, content)
}

func (m *chatModel) renderHeader() string {
	t := m.theme
	closeLabel := m.opts.Labels.Close
	// padding, separator and close label
	room := m.width - util.StringWidth(closeLabel) - 4
	title := util.TruncateWidth(strings.TrimSpace(m.opts.Icon+" "+m.opts.Name), max(room, 1))

	gap := max(m.width-util.StringWidth(title)-util.StringWidth(closeLabel)-2, 1)
	line := t.HeaderTitle.Render(title) +
		t.HeaderTitle.Render(strings.Repeat(" ", gap)) +
		t.HeaderClose.Render(closeLabel)
	if m.width > 0 {
		return t.Header.Width(m.width).Render(line)
	}
	return t.Header.Render(line)
}

func (m *chatModel) renderTyping() string {
	if !m.typing {
		return ""
	}
	avatar := m.theme.BotAvatar.Render(m.opts.Avatar)
	return avatar + m.spinner.View()
}

func (m *chatModel) renderInput() string {
	t := m.theme
	width := max(m.width, 1)
	switch {
	case m.inputEnabled:
		return t.InputContainer.Width(width).Render(m.input.View())
	case m.streaming:
		return t.InputContainer.Width(width).Render(
			t.StopButton.Render(m.opts.Labels.Stop) + " " + t.Hint.Render(m.opts.Labels.Generating))
	default:
		return t.InputDisabled.Width(width).Render(m.opts.Labels.Disabled)
	}
}

// renderBubbles renders the whole conversation. Empty bubbles (a streaming
// reply with no text yet) take no space.
func (m *chatModel) renderBubbles() string {
	t := m.theme
	width := m.viewport.Width
	maxBubble := t.BubbleWidth()
	avatar := t.BotAvatar.Render(m.opts.Avatar)
	avatarWidth := lipgloss.Width(avatar)

	var rows []string
	for _, b := range m.bubbles {
		if b.text == "" {
			continue
		}
		if b.fromUser {
			w := min(lipgloss.Width(b.text)+2, maxBubble)
			rendered := t.UserBubble.Width(w).Render(b.text)
			rows = append(rows, lipgloss.PlaceHorizontal(width, lipgloss.Right, rendered))
			continue
		}

		room := max(maxBubble-avatarWidth, 4)
		content := b.text
		if b.markdown {
			content = m.md.render(b.text, room-2)
		}
		w := min(lipgloss.Width(content)+2, room)
		rendered := t.BotBubble.Width(w).Render(content)
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, avatar, rendered))
	}
	return strings.Join(rows, "\n")
}

// =============================================================================
// MARKDOWN
// =============================================================================

// markdownRenderer caches a glamour renderer per wrap width; building one is
// too slow to repeat on every streaming update.
type markdownRenderer struct {
	style    string
	width    int
	renderer *glamour.TermRenderer
}

func newMarkdownRenderer(theme *styles.Theme) *markdownRenderer {
	return &markdownRenderer{style: theme.MarkdownStyle()}
}

// render returns text as styled terminal output, or text unchanged when
// glamour fails.
func (r *markdownRenderer) render(text string, width int) string {
	width = max(width, 10)
	if r.renderer == nil || r.width != width {
		tr, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle(r.style),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return text
		}
		r.renderer = tr
		r.width = width
	}
	out, err := r.renderer.Render(text)
	if err != nil {
		return text
	}
	return strings.Trim(out, "\n")
}
