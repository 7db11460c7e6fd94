// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package assets loads the bot's system prompt and its llms.txt companion.
package assets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

// maxAssetSize bounds a single prompt asset.
const maxAssetSize = 4 << 20

// ErrNotFound is returned when an asset does not exist.
var ErrNotFound = errors.New("asset not found")

// Sources locates the prompt assets. Each is a file path or an http(s) URL.
type Sources struct {
	SystemPrompt string
	LLMsTxt      string

	// Inline, when set, is used instead of SystemPrompt.
	Inline string
}

// Bundle is the loaded prompt material.
type Bundle struct {
	SystemPrompt string
	LLMsTxt      string
}

// SystemText is the text the model session is seeded with.
func (b Bundle) SystemText() string {
	return b.SystemPrompt + "\n" + b.LLMsTxt
}

// Loader fetches assets.
type Loader struct {
	client *http.Client
}

// NewLoader returns a Loader. A nil client uses one with a 10s timeout.
func NewLoader(client *http.Client) *Loader {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Loader{client: client}
}

// Load fetches both assets concurrently. The system prompt is required; a
// missing llms.txt yields an empty string.
func (l *Loader) Load(ctx context.Context, src Sources) (Bundle, error) {
	var b Bundle
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if src.Inline != "" {
			b.SystemPrompt = src.Inline
			return nil
		}
		text, err := l.Fetch(ctx, src.SystemPrompt)
		if err != nil {
			return fmt.Errorf("system prompt: %w", err)
		}
		b.SystemPrompt = text
		return nil
	})

	g.Go(func() error {
		if src.LLMsTxt == "" {
			return nil
		}
		text, err := l.Fetch(ctx, src.LLMsTxt)
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("llms.txt: %w", err)
		}
		b.LLMsTxt = text
		return nil
	})

	if err := g.Wait(); err != nil {
		return Bundle{}, err
	}
	return b, nil
}

// Fetch reads one asset from a file or an http(s) URL.
func (l *Loader) Fetch(ctx context.Context, location string) (string, error) {
	if location == "" {
		return "", ErrNotFound
	}
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		return l.fetchURL(ctx, location)
	}
	return readFile(location)
}

func (l *Loader) fetchURL(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return "", fmt.Errorf("%s: %w", url, ErrNotFound)
	case resp.StatusCode != http.StatusOK:
		return "", fmt.Errorf("%s: unexpected status %s", url, resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxAssetSize))
	if err != nil {
		return "", fmt.Errorf("%s: %w", url, err)
	}
	return string(data), nil
}

func readFile(path string) (string, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("%s: %w", path, ErrNotFound)
	}
	if err != nil {
		return "", err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxAssetSize))
	if err != nil {
		return "", fmt.Errorf("%s: %w", path, err)
	}
	return string(data), nil
}
