// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
)

// =============================================================================
// TYPING INDICATOR
// =============================================================================

// TypingFrames is one cycle of the three typing dots.
var TypingFrames = []string{"   ", ".  ", ".. ", "...", " ..", "  ."}

// SpinnerConfig holds the configuration for a spinner animation.
type SpinnerConfig struct {
	Frames []string
	FPS    time.Duration
}

// TypingDots returns a spinner that runs one full dot cycle per period.
// period comes from config.WidgetConfig.TypingDotDuration.
func TypingDots(period time.Duration) SpinnerConfig {
	frames := TypingFrames
	fps := period / time.Duration(len(frames))
	if fps <= 0 {
		fps = 100 * time.Millisecond
	}
	return SpinnerConfig{Frames: frames, FPS: fps}
}

// Spinner converts the config to a bubbles spinner.Spinner.
func (s SpinnerConfig) Spinner() spinner.Spinner {
	return spinner.Spinner{Frames: s.Frames, FPS: s.FPS}
}

// Period returns the length of one full cycle.
func (s SpinnerConfig) Period() time.Duration {
	return s.FPS * time.Duration(len(s.Frames))
}
