// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/require"
)

func TestPalette_Defaults(t *testing.T) {
	p := NewPalette(nil)
	require.Equal(t, Purple, p.Color(KeyPrimary))
	require.Equal(t, Rose, p.Color(KeyButton))
	require.Equal(t, lipgloss.NoColor{}, p.Color("unknownColor"))
}

func TestPalette_Overrides(t *testing.T) {
	vars := map[string]string{
		KeyPrimary:   "#112233",
		KeyBotBubble: "236",
		KeyUserText:  "",
	}
	p := NewPalette(vars)
	require.Equal(t, lipgloss.Color("#112233"), p.Color(KeyPrimary))
	require.Equal(t, lipgloss.Color("236"), p.Color(KeyBotBubble))
	require.Equal(t, TextInverse, p.Color(KeyUserText))

	// the palette owns its copy
	vars[KeyPrimary] = "#000000"
	require.Equal(t, lipgloss.Color("#112233"), p.Color(KeyPrimary))
}

func TestDefaultsCoverAllKeys(t *testing.T) {
	for _, k := range []string{KeyPrimary, KeyButton, KeyBotBubble, KeyUserBubble, KeyHeaderText, KeyBotText, KeyUserText} {
		_, ok := defaults[k]
		require.True(t, ok, k)
	}
}
