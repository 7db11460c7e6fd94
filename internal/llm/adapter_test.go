// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package llm

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jeranaias/trxchat/internal/model"
)

// =============================================================================
// FAKES
// =============================================================================

type fakeModel struct {
	mu        sync.Mutex
	created   []CreateOptions
	createErr error
	session   *fakeSession
}

func (f *fakeModel) Create(ctx context.Context, opts CreateOptions) (Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, opts)
	if f.createErr != nil {
		return nil, f.createErr
	}
	if f.session == nil {
		f.session = &fakeSession{}
	}
	return f.session, nil
}

type fakeSession struct {
	mu      sync.Mutex
	prompts [][]model.Message
	reply   []string
	err     error
}

func (s *fakeSession) PromptStreaming(ctx context.Context, conversation []model.Message) (<-chan Fragment, error) {
	s.mu.Lock()
	s.prompts = append(s.prompts, conversation)
	reply, err := s.reply, s.err
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	ch := make(chan Fragment, len(reply))
	for _, r := range reply {
		ch <- Fragment{Text: r}
	}
	close(ch)
	return ch, nil
}

func collect(t *testing.T, ch <-chan Fragment) string {
	t.Helper()
	var out string
	for f := range ch {
		require.NoError(t, f.Err)
		out += f.Text
	}
	return out
}

// =============================================================================
// INITIALIZE TESTS
// =============================================================================

func TestAdapter_InitializeWithoutModelIsNoop(t *testing.T) {
	a := NewAdapter(nil)
	require.False(t, a.Available())

	sess, err := a.Initialize(context.Background(), "sys")
	require.NoError(t, err)
	require.Nil(t, sess)
	require.Empty(t, a.History())
}

func TestAdapter_InitializeRecordsSystemAndCreatesSession(t *testing.T) {
	fm := &fakeModel{}
	a := NewAdapter(fm)

	sess, err := a.Initialize(context.Background(), "sys")
	require.NoError(t, err)
	require.NotNil(t, sess)

	require.Equal(t, []model.Message{model.NewSystemMessage("sys")}, a.History())
	require.Len(t, fm.created, 1)
	require.Equal(t, []model.Message{model.NewSystemMessage("sys")}, fm.created[0].InitialPrompts)
	require.Equal(t, []string{"pt"}, fm.created[0].ExpectedInputLanguages)
}

func TestAdapter_InitializeTwice(t *testing.T) {
	a := NewAdapter(&fakeModel{})
	_, err := a.Initialize(context.Background(), "sys")
	require.NoError(t, err)

	_, err = a.Initialize(context.Background(), "other")
	require.ErrorIs(t, err, ErrAlreadyInitialized)
	require.Len(t, a.History(), 1)
}

func TestAdapter_InputLanguagesOption(t *testing.T) {
	fm := &fakeModel{}
	a := NewAdapter(fm, WithInputLanguages("en", "pt"))
	_, err := a.Initialize(context.Background(), "sys")
	require.NoError(t, err)
	require.Equal(t, []string{"en", "pt"}, fm.created[0].ExpectedInputLanguages)
}

func TestAdapter_CreateFailure(t *testing.T) {
	boom := errors.New("boom")
	a := NewAdapter(&fakeModel{createErr: boom})
	_, err := a.Initialize(context.Background(), "sys")
	require.ErrorIs(t, err, boom)

	_, err = a.PromptStreaming(context.Background(), "hi")
	require.ErrorIs(t, err, ErrSessionNotInitialized)
}

// =============================================================================
// PROMPT TESTS
// =============================================================================

func TestAdapter_PromptWithoutSession(t *testing.T) {
	a := NewAdapter(&fakeModel{})
	_, err := a.PromptStreaming(context.Background(), "hi")
	require.ErrorIs(t, err, ErrSessionNotInitialized)
	require.Empty(t, a.History(), "a rejected prompt must not touch the history")
}

func TestAdapter_PromptAppendsUserBeforeDelegating(t *testing.T) {
	fm := &fakeModel{session: &fakeSession{reply: []string{"Olá", "!"}}}
	a := NewAdapter(fm)
	_, err := a.Initialize(context.Background(), "sys")
	require.NoError(t, err)

	ch, err := a.PromptStreaming(context.Background(), "oi")
	require.NoError(t, err)
	require.Equal(t, "Olá!", collect(t, ch))

	require.Len(t, fm.session.prompts, 1)
	require.Equal(t, []model.Message{
		model.NewSystemMessage("sys"),
		model.NewUserMessage("oi"),
	}, fm.session.prompts[0])
}

func TestAdapter_RecordReplyFeedsNextTurn(t *testing.T) {
	fm := &fakeModel{session: &fakeSession{reply: []string{"a"}}}
	a := NewAdapter(fm)
	_, err := a.Initialize(context.Background(), "sys")
	require.NoError(t, err)

	ch, err := a.PromptStreaming(context.Background(), "q1")
	require.NoError(t, err)
	a.RecordReply(collect(t, ch))
	a.RecordReply("")

	_, err = a.PromptStreaming(context.Background(), "q2")
	require.NoError(t, err)

	require.Equal(t, []model.Message{
		model.NewSystemMessage("sys"),
		model.NewUserMessage("q1"),
		model.NewAssistantMessage("a"),
		model.NewUserMessage("q2"),
	}, fm.session.prompts[1])
}

func TestAdapter_SessionPromptError(t *testing.T) {
	boom := errors.New("model busy")
	fm := &fakeModel{session: &fakeSession{err: boom}}
	a := NewAdapter(fm)
	_, err := a.Initialize(context.Background(), "sys")
	require.NoError(t, err)

	_, err = a.PromptStreaming(context.Background(), "q")
	require.ErrorIs(t, err, boom)
}
