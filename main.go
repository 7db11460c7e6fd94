// trxchat - terminal chat with a local language model.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"github.com/jeranaias/trxchat/internal/assets"
	"github.com/jeranaias/trxchat/internal/chat"
	"github.com/jeranaias/trxchat/internal/cli"
	"github.com/jeranaias/trxchat/internal/config"
	"github.com/jeranaias/trxchat/internal/detect"
	"github.com/jeranaias/trxchat/internal/llm"
	"github.com/jeranaias/trxchat/internal/logging"
	"github.com/jeranaias/trxchat/internal/ollama"
	"github.com/jeranaias/trxchat/internal/stream"
	"github.com/jeranaias/trxchat/internal/ui/repl"
	"github.com/jeranaias/trxchat/internal/ui/styles"
	"github.com/jeranaias/trxchat/internal/ui/widget"
	"github.com/jeranaias/trxchat/internal/view"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func main() {
	// Ctrl+C belongs to the views: the widget reads it as a key, the REPL
	// uses it to stop a reply.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// frontEnd is a view plus the event loop that drives it.
type frontEnd struct {
	view.View
	run     func(ctx context.Context) error
	cleanup func()
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	opts, err := cli.Parse(args)
	if err != nil {
		cli.Usage(os.Stderr)
		return err
	}
	switch {
	case opts.Help:
		cli.Usage(stdout)
		return nil
	case opts.Version:
		fmt.Fprintf(stdout, "trxchat %s (%s, %s)\n", Version, GitCommit, BuildDate)
		return nil
	case opts.InitConfig:
		return initConfig(opts.ConfigPath, stdout)
	}

	cfg, cfgPath, err := loadConfig(opts)
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck
	logger.Info("starting",
		zap.String("version", Version),
		zap.String("backend", cfg.Model.Backend),
		zap.String("model", cfg.Model.Name),
		zap.String("url", cfg.Model.URL),
	)

	lm, check, err := newBackend(cfg)
	if err != nil {
		return err
	}

	bundle, err := assets.NewLoader(nil).Load(ctx, assets.Sources{
		SystemPrompt: cfg.Prompt.SystemPrompt,
		LLMsTxt:      cfg.Prompt.LLMsTxt,
		Inline:       cfg.Prompt.Inline,
	})
	if err != nil {
		return fmt.Errorf("load prompt: %w", err)
	}

	adapter := llm.NewAdapter(lm,
		llm.WithInputLanguages(cfg.Model.ExpectedInputLanguages...),
		llm.WithLogger(logger.Named("llm")),
	)
	if !adapter.Available() {
		logger.Warn("no language model configured, replies are disabled")
	}

	mode := cli.ResolveMode(cfg.UI.Mode, cli.IsTTY(), cli.IsStdoutTTY())
	theme := newTheme(cfg, stdout)

	v := newView(cfg, mode, theme, stdout, logger)
	defer v.cleanup()

	coord := stream.NewCoordinator(v.View, adapter,
		stream.WithInterval(cfg.StreamInterval()),
		stream.WithMarkdown(!cfg.Stream.PlainText),
		stream.WithLogger(logger.Named("stream")),
	)

	ctrl := chat.New(ctx, chat.Deps{
		View:        v.View,
		Session:     adapter,
		Replier:     coord,
		Environment: environment(cfg, mode, check),
		Messages:    detect.MessagesFor(cfg.Locale, cfg.Model.Name),
		Logger:      logger.Named("chat"),
	})
	defer ctrl.Shutdown()

	if err := ctrl.Init(ctx, chat.InitOptions{
		FirstBotMessage: cfg.Widget.FirstBotMessage,
		SystemText:      bundle.SystemText(),
	}); err != nil {
		return err
	}

	if w, ok := v.View.(*widget.Widget); ok && cfgPath != "" {
		err := config.Watch(ctx, cfgPath, logger.Named("config"), func(c *config.Config) {
			w.ApplyTheme(c.Widget.ThemeVars())
		})
		if err != nil {
			logger.Warn("config watch disabled", zap.Error(err))
		}
	}

	logger.Info("ready", zap.String("mode", mode))
	if err := v.run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// =============================================================================
// SETUP
// =============================================================================

func initConfig(path string, stdout io.Writer) error {
	if path == "" {
		p, err := config.ConfigPathTOML()
		if err != nil {
			return err
		}
		path = p
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}
	if err := config.SaveTOML(config.Default(), path); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Wrote %s\n", path)
	return nil
}

// loadConfig loads the file, then overlays the flags. The returned path is
// the file to watch, empty when running on defaults.
func loadConfig(opts cli.Options) (*config.Config, string, error) {
	var (
		cfg  *config.Config
		path string
		err  error
	)
	if opts.ConfigPath != "" {
		path = opts.ConfigPath
		cfg, err = config.LoadFromPath(path)
	} else {
		path, _ = config.ExistingPath()
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, "", err
	}

	opts.Apply(cfg)
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, "", fmt.Errorf("invalid flags: %w", err)
	}
	return cfg, path, nil
}

// newBackend builds the language model and the check that proves it is
// reachable. The "none" backend has neither.
func newBackend(cfg *config.Config) (llm.LanguageModel, detect.CheckFunc, error) {
	switch strings.ToLower(cfg.Model.Backend) {
	case config.BackendNone:
		return nil, nil, nil

	case config.BackendOpenAI:
		lm, err := llm.NewLangChainModel(cfg.Model.URL, cfg.Model.APIKey, cfg.Model.Name)
		if err != nil {
			return nil, nil, fmt.Errorf("create openai backend: %w", err)
		}
		return lm, detect.OpenAICheck(cfg.Model.URL, cfg.Model.APIKey), nil

	default:
		client := ollama.NewClientWithConfig(&ollama.ClientConfig{
			BaseURL:      cfg.Model.URL,
			DefaultModel: cfg.Model.Name,
		})
		return llm.NewOllamaModel(client, cfg.Model.Name), detect.OllamaCheck(client, cfg.Model.Name), nil
	}
}

func newTheme(cfg *config.Config, out io.Writer) *styles.Theme {
	// NO_COLOR and FORCE_COLOR decide the profile
	opts := []styles.ThemeOption{styles.WithColorProfile(cli.GetColorProfile())}
	switch cfg.UI.Theme {
	case "dark":
		opts = append(opts, styles.WithDarkBackground(true))
	case "light":
		opts = append(opts, styles.WithDarkBackground(false))
	}
	return styles.NewTheme(out, cfg.Widget.ThemeVars(), opts...)
}

// newView creates the front end for mode.
func newView(cfg *config.Config, mode string, theme *styles.Theme, out io.Writer, logger *zap.Logger) frontEnd {
	if mode == config.ModeWidget {
		opts := widget.OptionsFromConfig(cfg)
		opts.Logger = logger.Named("widget")
		w := widget.New(theme, opts)
		return frontEnd{
			View:    w,
			run:     func(ctx context.Context) error { return w.Run(ctx) },
			cleanup: func() {},
		}
	}

	var history string
	if dir, err := config.ConfigDir(); err == nil {
		history = filepath.Join(dir, "repl_history")
	}
	width, _ := cli.GetTerminalSize()
	line := repl.NewLiner(history)
	r := repl.New(line, out, theme, repl.Options{
		Name:        cfg.Widget.ChatbotName,
		WelcomeText: cfg.Widget.WelcomeBubble,
		Width:       width,
		Logger:      logger.Named("repl"),
	})
	return frontEnd{
		View: r,
		run:  r.Run,
		cleanup: func() {
			if err := line.Close(); err != nil {
				logger.Warn("close line reader", zap.Error(err))
			}
		},
	}
}

// environment probes the host and the model on every open. The terminal
// requirement only applies to the widget.
func environment(cfg *config.Config, mode string, check detect.CheckFunc) chat.EnvironmentFunc {
	return func(ctx context.Context) detect.Environment {
		snap := detect.Probe(ctx, detect.ProbeOptions{
			Endpoint:   cfg.Model.URL,
			Check:      check,
			RequireTTY: mode == config.ModeWidget,
			Timeout:    cfg.ProbeTimeout(),
		})
		if cfg.Model.AllowRemote {
			snap.Local = true
		}
		return snap
	}
}
