// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package detect

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/muesli/termenv"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"github.com/jeranaias/trxchat/internal/ollama"
)

// probeTimeout bounds the whole probe.
const probeTimeout = 3 * time.Second

// =============================================================================
// ENVIRONMENT
// =============================================================================

// Environment exposes the facts the capability report is computed from.
type Environment interface {
	// HostSupported reports whether the host can display the widget.
	HostSupported() bool

	// LanguageModelAvailable reports whether the local model answers.
	LanguageModelAvailable() bool

	// LocalEndpoint reports whether the model endpoint is on this machine.
	LocalEndpoint() bool
}

// Static is a fixed Environment.
type Static struct {
	Host   bool
	Model  bool
	Remote bool
}

func (s Static) HostSupported() bool          { return s.Host }
func (s Static) LanguageModelAvailable() bool { return s.Model }
func (s Static) LocalEndpoint() bool          { return !s.Remote }

// Snapshot is an Environment gathered by Probe.
type Snapshot struct {
	Host     bool
	Model    bool
	Local    bool
	Profile  termenv.Profile
	ModelErr error
	Took     time.Duration
}

func (s *Snapshot) HostSupported() bool          { return s.Host }
func (s *Snapshot) LanguageModelAvailable() bool { return s.Model }
func (s *Snapshot) LocalEndpoint() bool          { return s.Local }
func (s *Snapshot) ModelError() error            { return s.ModelErr }

// modelErrorer is implemented by environments that know why the model check
// failed.
type modelErrorer interface {
	ModelError() error
}

// =============================================================================
// REPORT
// =============================================================================

// Report is the ordered list of problems found. Empty means ready.
type Report []string

// OK reports whether no problems were found.
func (r Report) OK() bool {
	return len(r) == 0
}

// String joins the problems with blank lines between them.
func (r Report) String() string {
	return strings.Join(r, "\n\n")
}

// CheckRequirements computes the report for env.
func CheckRequirements(env Environment, msgs Messages) Report {
	var report Report
	if !env.HostSupported() {
		report = append(report, msgs.HostUnsupported)
	}
	if !env.LanguageModelAvailable() {
		report = append(report, modelLines(env, msgs)...)
	}
	if !env.LocalEndpoint() {
		report = append(report, msgs.RemoteEndpoint)
	}
	return report
}

// modelLines returns the model remediation lines, with the headline narrowed
// to the failure cause when env carries one.
func modelLines(env Environment, msgs Messages) []string {
	lines := append([]string(nil), msgs.ModelUnavailable...)
	me, ok := env.(modelErrorer)
	if !ok || len(lines) == 0 {
		return lines
	}
	if headline := causeHeadline(me.ModelError(), msgs); headline != "" {
		lines[0] = headline
	}
	return lines
}

func causeHeadline(err error, msgs Messages) string {
	switch {
	case err == nil:
		return ""
	case ollama.IsModelNotFound(err):
		return msgs.ModelNotInstalled
	case ollama.IsTimeout(err), errors.Is(err, context.DeadlineExceeded):
		return msgs.ModelTimeout
	case ollama.IsNotRunning(err):
		return msgs.ServerNotRunning
	default:
		return ""
	}
}

// =============================================================================
// PROBE
// =============================================================================

// CheckFunc verifies that the model endpoint answers and serves the model.
type CheckFunc func(ctx context.Context) error

// ProbeOptions configures Probe.
type ProbeOptions struct {
	// Endpoint is the model server base URL.
	Endpoint string

	// Check verifies model availability. Nil means unavailable.
	Check CheckFunc

	// RequireTTY makes the host check demand an interactive, colour-capable
	// terminal. Line mode leaves it false.
	RequireTTY bool

	// Output is the terminal the widget renders to (default os.Stdout).
	Output *os.File

	// Timeout bounds the probe (default 3s).
	Timeout time.Duration
}

// Probe gathers the environment. The host and model checks run concurrently.
func Probe(ctx context.Context, opts ProbeOptions) *Snapshot {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Timeout <= 0 {
		opts.Timeout = probeTimeout
	}

	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	snap := &Snapshot{Local: IsLocalEndpoint(opts.Endpoint)}

	// errors are recorded on the snapshot, never returned
	var g errgroup.Group
	g.Go(func() error {
		snap.Host, snap.Profile = hostSupported(opts.Output, opts.RequireTTY)
		return nil
	})
	g.Go(func() error {
		if opts.Check == nil {
			snap.ModelErr = fmt.Errorf("no model check configured")
			return nil
		}
		snap.ModelErr = opts.Check(ctx)
		snap.Model = snap.ModelErr == nil
		return nil
	})
	_ = g.Wait()

	snap.Took = time.Since(start)
	return snap
}

func hostSupported(out *os.File, requireTTY bool) (bool, termenv.Profile) {
	profile := termenv.NewOutput(out).EnvColorProfile()
	if !requireTTY {
		return true, profile
	}
	if !term.IsTerminal(int(out.Fd())) {
		return false, profile
	}
	if os.Getenv("TERM") == "dumb" {
		return false, profile
	}
	return profile != termenv.Ascii, profile
}

// OllamaCheck verifies that Ollama is running and has model installed.
func OllamaCheck(client *ollama.Client, model string) CheckFunc {
	return func(ctx context.Context) error {
		if err := client.CheckRunning(ctx); err != nil {
			return err
		}
		if !client.ModelExists(ctx, model) {
			return ollama.ErrModelNotFound
		}
		return nil
	}
}

// OpenAICheck verifies that an OpenAI-compatible server answers /models.
func OpenAICheck(baseURL, token string) CheckFunc {
	return func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(baseURL, "/")+"/models", nil)
		if err != nil {
			return err
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return err
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("model server answered %s", resp.Status)
		}
		return nil
	}
}

// =============================================================================
// LOCALITY
// =============================================================================

// IsLocalEndpoint reports whether rawURL points at this machine.
func IsLocalEndpoint(rawURL string) bool {
	if rawURL == "" {
		return true
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return false
	}
	return IsLocalhost(u.Host)
}

// IsLocalhost reports whether host (optionally with a port) is a loopback
// name or address.
func IsLocalhost(host string) bool {
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.ToLower(strings.Trim(host, "[]"))

	if host == "localhost" {
		return true
	}
	// IsLoopback covers all of 127.0.0.0/8 and every spelling of ::1
	if ip := net.ParseIP(host); ip != nil {
		return ip.IsLoopback()
	}
	return false
}
