// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"fmt"
	"time"

	"github.com/jeranaias/trxchat/internal/util"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message is a single entry of a conversation. Messages are values; once
// appended to a History they are never modified.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// NewSystemMessage creates a system message.
func NewSystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// NewUserMessage creates a user message.
func NewUserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// NewAssistantMessage creates an assistant message.
func NewAssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// Preview returns the content truncated to maxLen runes. maxLen <= 0 means
// no limit.
func (m Message) Preview(maxLen int) string {
	if maxLen <= 0 {
		return m.Content
	}
	return util.TruncateRunes(m.Content, maxLen)
}

// =============================================================================
// STATISTICS TYPE
// =============================================================================

// Statistics holds timing and fragment count information for one reply.
type Statistics struct {
	StartTime      time.Time
	FirstTokenTime time.Time
	EndTime        time.Time

	Fragments int
	Renders   int

	// Derived metrics (computed on Finalize)
	TTFT          time.Duration
	TotalDuration time.Duration
}

// NewStatistics creates a new Statistics with the start time set.
func NewStatistics() *Statistics {
	return &Statistics{
		StartTime: time.Now(),
	}
}

// RecordFragment counts a received fragment, stamping the first one.
func (s *Statistics) RecordFragment() {
	if s.FirstTokenTime.IsZero() {
		s.FirstTokenTime = time.Now()
		s.TTFT = s.FirstTokenTime.Sub(s.StartTime)
	}
	s.Fragments++
}

// RecordRender counts a repaint pushed to the view.
func (s *Statistics) RecordRender() {
	s.Renders++
}

// Finalize computes the final statistics.
func (s *Statistics) Finalize() {
	s.EndTime = time.Now()
	s.TotalDuration = s.EndTime.Sub(s.StartTime)
}

// Format returns a one-line summary of the statistics.
func (s *Statistics) Format() string {
	return fmt.Sprintf("%.1fs | %d fragments | %d renders | TTFT %dms",
		s.TotalDuration.Seconds(), s.Fragments, s.Renders, s.TTFT.Milliseconds())
}
