// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package detect

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jeranaias/trxchat/internal/ollama"
)

// =============================================================================
// REPORT TESTS
// =============================================================================

func TestCheckRequirements(t *testing.T) {
	msgs := MessagesFor("pt", "llama3.2")

	tests := []struct {
		name string
		env  Environment
		want int
	}{
		{"ready", Static{Host: true, Model: true}, 0},
		{"host missing", Static{Host: false, Model: true}, 1},
		{"model missing", Static{Host: true, Model: false}, 4},
		{"both missing", Static{}, 5},
		{"remote endpoint", Static{Host: true, Model: true, Remote: true}, 1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			report := CheckRequirements(tc.env, msgs)
			require.Len(t, report, tc.want)
			require.Equal(t, tc.want == 0, report.OK())
		})
	}
}

func TestCheckRequirements_Order(t *testing.T) {
	msgs := MessagesFor("pt", "llama3.2")
	report := CheckRequirements(Static{}, msgs)

	require.Equal(t, msgs.HostUnsupported, report[0])
	require.Equal(t, msgs.ModelUnavailable, []string(report[1:]))
	require.Contains(t, report[3], "ollama pull llama3.2")
}

func TestCheckRequirements_ModelCause(t *testing.T) {
	msgs := MessagesFor("en", "llama3.2")

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"not running", ollama.ErrNotRunning, msgs.ServerNotRunning},
		{"not installed", ollama.ErrModelNotFound, msgs.ModelNotInstalled},
		{"timeout", ollama.ErrTimeout, msgs.ModelTimeout},
		{"deadline", fmt.Errorf("probe: %w", context.DeadlineExceeded), msgs.ModelTimeout},
		{"unknown", errors.New("model server answered 500"), msgs.ModelUnavailable[0]},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			report := CheckRequirements(&Snapshot{Host: true, Local: true, ModelErr: tc.err}, msgs)
			require.Len(t, report, len(msgs.ModelUnavailable))
			require.Equal(t, tc.want, report[0])
			require.Equal(t, msgs.ModelUnavailable[1:], []string(report[1:]))
		})
	}

	require.Contains(t, msgs.ModelNotInstalled, "llama3.2")
	// the catalog itself is never rewritten
	require.Equal(t, catalog["en"].ModelUnavailable[0], MessagesFor("en", "m").ModelUnavailable[0])
}

func TestReport_String(t *testing.T) {
	require.Equal(t, "a\n\nb", Report{"a", "b"}.String())
	require.Equal(t, "", Report(nil).String())
}

func TestMessagesFor(t *testing.T) {
	require.Equal(t, catalog["en"].HostUnsupported, MessagesFor("en-US", "m").HostUnsupported)
	require.Equal(t, catalog["pt"].HostUnsupported, MessagesFor("pt_BR", "m").HostUnsupported)
	require.Equal(t, catalog["pt"].HostUnsupported, MessagesFor("xx", "m").HostUnsupported)
	require.Len(t, MessagesFor("en", "m").ModelUnavailable, 4)
}

// =============================================================================
// LOCALITY TESTS
// =============================================================================

func TestIsLocalEndpoint(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"", true},
		{"http://127.0.0.1:11434", true},
		{"http://localhost:11434/v1", true},
		{"http://[::1]:8080", true},
		{"http://127.8.9.10", true},
		{"http://192.168.1.20:11434", false},
		{"https://api.example.com/v1", false},
		{"not a url", false},
	}
	for _, tc := range tests {
		t.Run(tc.url, func(t *testing.T) {
			require.Equal(t, tc.want, IsLocalEndpoint(tc.url))
		})
	}
}

// =============================================================================
// PROBE TESTS
// =============================================================================

func TestProbe_ModelAvailable(t *testing.T) {
	snap := Probe(context.Background(), ProbeOptions{
		Endpoint: "http://127.0.0.1:11434",
		Check:    func(ctx context.Context) error { return nil },
	})
	require.True(t, snap.HostSupported(), "host check is skipped without RequireTTY")
	require.True(t, snap.LanguageModelAvailable())
	require.True(t, snap.LocalEndpoint())
	require.NoError(t, snap.ModelErr)
}

func TestProbe_ModelUnavailable(t *testing.T) {
	boom := errors.New("connection refused")
	snap := Probe(context.Background(), ProbeOptions{
		Check: func(ctx context.Context) error { return boom },
	})
	require.False(t, snap.LanguageModelAvailable())
	require.ErrorIs(t, snap.ModelErr, boom)

	snap = Probe(context.Background(), ProbeOptions{})
	require.False(t, snap.LanguageModelAvailable())
}

func TestProbe_RequireTTYOnPipe(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()
	defer w.Close()

	snap := Probe(context.Background(), ProbeOptions{
		Output:     w,
		RequireTTY: true,
		Check:      func(ctx context.Context) error { return nil },
	})
	require.False(t, snap.HostSupported())
}

func TestOllamaCheck(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/show" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := ollama.NewClientWithConfig(&ollama.ClientConfig{BaseURL: srv.URL})
	err := OllamaCheck(client, "missing")(context.Background())
	require.True(t, ollama.IsModelNotFound(err))
}

func TestOpenAICheck(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/models" || r.Header.Get("Authorization") != "Bearer k" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))
	defer srv.Close()

	require.NoError(t, OpenAICheck(srv.URL+"/v1/", "k")(context.Background()))
	require.Error(t, OpenAICheck(srv.URL+"/v1", "wrong")(context.Background()))
}

func TestLanguage(t *testing.T) {
	require.Equal(t, "pt", Language("pt-BR"))
	require.Equal(t, "en", Language("EN_us"))
	require.Equal(t, "pt", Language("pt"))
	require.Equal(t, "", Language(""))
}
