// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/jeranaias/trxchat/internal/config"
)

// Options are the parsed command-line flags.
type Options struct {
	ConfigPath string
	Model      string
	Backend    string
	Mode       string
	Locale     string
	LogLevel   string

	Plain      bool
	Open       bool
	InitConfig bool
	Version    bool
	Help       bool
}

var boolFlagNames = []string{"plain", "open", "init-config", "version", "v", "help", "h"}

var stringFlagNames = map[string]bool{
	"config":    true,
	"model":     true,
	"backend":   true,
	"mode":      true,
	"locale":    true,
	"log-level": true,
}

// Parse parses args (without the program name). Unknown flags and
// positional arguments are errors.
func Parse(args []string) (Options, error) {
	p := NewArgParser(args, boolFlagNames...)

	if p.PositionalCount() > 0 {
		return Options{}, fmt.Errorf("unexpected argument %q", p.Positional(0))
	}
	for _, name := range p.FlagNames() {
		known := stringFlagNames[name]
		for _, b := range boolFlagNames {
			known = known || b == name
		}
		if !known {
			return Options{}, fmt.Errorf("unknown flag --%s", name)
		}
		if stringFlagNames[name] && p.Flag(name) == "" {
			return Options{}, fmt.Errorf("flag --%s needs a value", name)
		}
		if !stringFlagNames[name] && p.Flag(name) != "" {
			return Options{}, fmt.Errorf("flag --%s: invalid boolean %q", name, p.Flag(name))
		}
	}

	opts := Options{
		ConfigPath: p.Flag("config"),
		Model:      p.Flag("model"),
		Backend:    strings.ToLower(p.Flag("backend")),
		Mode:       strings.ToLower(p.Flag("mode")),
		Locale:     p.Flag("locale"),
		LogLevel:   p.Flag("log-level"),
		Plain:      p.BoolFlag("plain"),
		Open:       p.BoolFlag("open"),
		InitConfig: p.BoolFlag("init-config"),
		Version:    p.BoolFlag("version") || p.BoolFlag("v"),
		Help:       p.BoolFlag("help") || p.BoolFlag("h"),
	}
	return opts, nil
}

// Apply overlays the flags on cfg. Flags win over the file and the
// environment.
func (o Options) Apply(cfg *config.Config) {
	if o.Model != "" {
		cfg.Model.Name = o.Model
	}
	if o.Backend != "" {
		cfg.Model.Backend = o.Backend
	}
	if o.Mode != "" {
		cfg.UI.Mode = o.Mode
	}
	if o.Locale != "" {
		cfg.Locale = o.Locale
	}
	if o.LogLevel != "" {
		cfg.Log.Level = o.LogLevel
	}
	if o.Plain {
		cfg.Stream.PlainText = true
	}
	if o.Open {
		cfg.UI.StartOpen = true
	}
}

// Usage prints the help text.
func Usage(w io.Writer) {
	fmt.Fprint(w, `trxchat - terminal chat with a local language model

Usage:
  trxchat [flags]

Flags:
  --config PATH       configuration file (TOML or JSON)
  --model NAME        model name, e.g. llama3.2
  --backend NAME      ollama, openai or none
  --mode MODE         auto, widget or repl
  --locale LOCALE     language of built-in messages (pt, en)
  --log-level LEVEL   debug, info, warn or error
  --plain             render replies as plain text
  --open              open the chat window at startup
  --init-config       write the default configuration and exit
  --version, -v       print the version and exit
  --help, -h          show this help

Environment:
  TRXCHAT_MODEL, TRXCHAT_MODEL_URL, TRXCHAT_BACKEND, TRXCHAT_API_KEY,
  TRXCHAT_LOG_LEVEL, TRXCHAT_LOCALE, TRXCHAT_UI
`)
}

// ResolveMode turns the configured UI mode into "widget" or "repl". Auto
// picks the widget only when both stdin and stdout are terminals.
func ResolveMode(mode string, stdinTTY, stdoutTTY bool) string {
	switch mode {
	case config.ModeWidget, config.ModeREPL:
		return mode
	}
	if stdinTTY && stdoutTTY {
		return config.ModeWidget
	}
	return config.ModeREPL
}
