// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTypingDots(t *testing.T) {
	tests := []struct {
		period time.Duration
		frame  time.Duration
	}{
		{600 * time.Millisecond, 100 * time.Millisecond},
		{792 * time.Millisecond, 132 * time.Millisecond},
		{0, 100 * time.Millisecond},
	}
	for _, tc := range tests {
		cfg := TypingDots(tc.period)
		require.Equal(t, tc.frame, cfg.FPS, "period %s", tc.period)
		require.Len(t, cfg.Frames, len(TypingFrames))
	}
}

func TestTypingDots_Spinner(t *testing.T) {
	cfg := TypingDots(600 * time.Millisecond)
	s := cfg.Spinner()
	require.Equal(t, TypingFrames, s.Frames)
	require.Equal(t, 100*time.Millisecond, s.FPS)
	require.Equal(t, 600*time.Millisecond, cfg.Period())
}

func TestTypingFramesSameWidth(t *testing.T) {
	for _, f := range TypingFrames {
		require.Len(t, f, 3)
	}
}
