// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/trxchat/internal/util"
)

// Supported backends.
const (
	BackendOllama = "ollama"
	BackendOpenAI = "openai"

	// BackendNone runs without a model: the session is never created and
	// every open reports the model as unavailable.
	BackendNone = "none"
)

// UI modes.
const (
	ModeAuto   = "auto"
	ModeWidget = "widget"
	ModeREPL   = "repl"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete trxchat configuration.
type Config struct {
	Version string `toml:"version" json:"version"`

	// Locale selects the language of built-in messages ("pt", "en")
	Locale string `toml:"locale" json:"locale"`

	Widget WidgetConfig `toml:"widget" json:"widget"`
	Model  ModelConfig  `toml:"model" json:"model"`
	Stream StreamConfig `toml:"stream" json:"stream"`
	Prompt PromptConfig `toml:"prompt" json:"prompt"`
	UI     UIConfig     `toml:"ui" json:"ui"`
	Log    LogConfig    `toml:"log" json:"log"`
}

// WidgetConfig holds the chatbot's identity and look.
type WidgetConfig struct {
	ChatbotName     string `toml:"chatbot_name" json:"chatbotName"`
	WelcomeBubble   string `toml:"welcome_bubble" json:"welcomeBubble"`
	FirstBotMessage string `toml:"first_bot_message" json:"firstBotMessage"`
	BotAvatar       string `toml:"bot_avatar" json:"botAvatar"`
	IconURL         string `toml:"icon_url" json:"iconUrl"`

	// TypingDelayMs controls the typing indicator animation speed
	TypingDelayMs int `toml:"typing_delay_ms" json:"typingDelay"`

	// Colors maps theme keys to colours, e.g. primaryColor = "#7c3aed".
	// Only keys accepted by IsThemeKey are applied.
	Colors map[string]string `toml:"colors" json:"colors"`
}

// ModelConfig selects the local language model.
type ModelConfig struct {
	// Backend is "ollama" (native API), "openai" (any OpenAI-compatible
	// server) or "none" (no model)
	Backend string `toml:"backend" json:"backend"`
	URL     string `toml:"url" json:"url"`
	Name    string `toml:"name" json:"name"`
	APIKey  string `toml:"api_key" json:"api_key,omitempty"`

	ExpectedInputLanguages []string `toml:"expected_input_languages" json:"expected_input_languages"`

	ProbeTimeoutMs int `toml:"probe_timeout_ms" json:"probe_timeout_ms"`

	// AllowRemote permits a non-loopback endpoint
	AllowRemote bool `toml:"allow_remote" json:"allow_remote"`
}

// StreamConfig tunes reply streaming.
type StreamConfig struct {
	IntervalMs int  `toml:"interval_ms" json:"interval_ms"`
	PlainText  bool `toml:"plain_text" json:"plain_text"`
}

// PromptConfig locates the system prompt and its llms.txt companion. Each
// value is a file path or an http(s) URL.
type PromptConfig struct {
	SystemPrompt string `toml:"system_prompt" json:"system_prompt"`
	LLMsTxt      string `toml:"llms_txt" json:"llms_txt"`
	Inline       string `toml:"inline" json:"inline,omitempty"`
}

// UIConfig selects the front end.
type UIConfig struct {
	// Mode is "auto", "widget" or "repl"
	Mode string `toml:"mode" json:"mode"`
	// Theme is "dark", "light" or "auto"
	Theme string `toml:"theme" json:"theme"`
	// StartOpen opens the chat window immediately
	StartOpen bool `toml:"start_open" json:"start_open"`
}

// LogConfig configures the structured log.
type LogConfig struct {
	Level string `toml:"level" json:"level"`
	// Path of the log file; empty means <config dir>/trxchat.log
	Path        string `toml:"path" json:"path"`
	Development bool   `toml:"development" json:"development"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Version: "1.0.0",
		Locale:  "pt",

		Widget: WidgetConfig{
			ChatbotName:     "Tricia",
			WelcomeBubble:   "Olá! Precisa de ajuda? 👋",
			FirstBotMessage: "Olá! Sou a Tricia. Como posso ajudar você hoje?",
			BotAvatar:       "🤖",
			IconURL:         "💬",
			TypingDelayMs:   1200,
			Colors: map[string]string{
				"primaryColor": "#7C3AED",
				"botBubble":    "#2A2A3A",
				"userBubble":   "#4C1D95",
				"headerText":   "#FFFFFF",
			},
		},

		Model: ModelConfig{
			Backend:                BackendOllama,
			URL:                    "http://127.0.0.1:11434",
			Name:                   "llama3.2",
			ExpectedInputLanguages: []string{"pt"},
			ProbeTimeoutMs:         3000,
		},

		Stream: StreamConfig{
			IntervalMs: 200,
		},

		Prompt: PromptConfig{
			SystemPrompt: "botData/systemPrompt.txt",
			LLMsTxt:      "llms.txt",
		},

		UI: UIConfig{
			Mode:  ModeAuto,
			Theme: "auto",
		},

		Log: LogConfig{
			Level: "info",
		},
	}
}

// =============================================================================
// PATHS
// =============================================================================

// ConfigDir returns the trxchat configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".trxchat"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ConfigPathJSON returns the path to the JSON config file.
func ConfigPathJSON() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// ExistingPath returns the config file Load would read: the TOML file if it
// exists, else the JSON one. ok is false when neither exists.
func ExistingPath() (path string, ok bool) {
	for _, pathFn := range []func() (string, error){ConfigPathTOML, ConfigPathJSON} {
		p, err := pathFn()
		if err != nil {
			continue
		}
		if _, err := os.Stat(p); err == nil {
			return p, true
		}
	}
	return "", false
}

// Load loads configuration from the config file(s).
// Tries TOML first, then JSON, and falls back to defaults.
// Environment overrides are applied last.
func Load() (*Config, error) {
	if path, ok := ExistingPath(); ok {
		return LoadFromPath(path)
	}

	cfg := Default()
	if err := cfg.finish(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromPath loads configuration from a specific file path with full
// validation. Files ending in .json are JSON, anything else is TOML.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()
	// maps merge on decode; a file that sets colours replaces the defaults
	cfg.Widget.Colors = nil

	var err error
	if strings.HasSuffix(strings.ToLower(path), ".json") {
		err = LoadJSON(cfg, path)
	} else {
		err = LoadTOML(cfg, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
	}

	if err := cfg.finish(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) finish() error {
	c.ApplyEnvOverrides()
	c.SetDefaults()
	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// LoadTOML decodes a TOML file over cfg.
func LoadTOML(cfg *Config, path string) error {
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	return nil
}

// LoadJSON decodes a JSON file over cfg.
func LoadJSON(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	return nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// SaveTOML writes cfg to path atomically. The file may hold an API key, so
// it is created owner-readable only.
func SaveTOML(cfg *Config, path string) error {
	var buf bytes.Buffer
	buf.WriteString("# trxchat configuration\n\n")
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode TOML: %w", err)
	}
	if err := util.AtomicWriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// DEFAULTS AND OVERRIDES
// =============================================================================

// SetDefaults fills zero values from Default.
func (c *Config) SetDefaults() {
	d := Default()

	if c.Version == "" {
		c.Version = d.Version
	}
	if c.Locale == "" {
		c.Locale = d.Locale
	}

	if c.Widget.ChatbotName == "" {
		c.Widget.ChatbotName = d.Widget.ChatbotName
	}
	if c.Widget.FirstBotMessage == "" {
		c.Widget.FirstBotMessage = d.Widget.FirstBotMessage
	}
	if c.Widget.BotAvatar == "" {
		c.Widget.BotAvatar = d.Widget.BotAvatar
	}
	if c.Widget.IconURL == "" {
		c.Widget.IconURL = d.Widget.IconURL
	}
	if c.Widget.TypingDelayMs == 0 {
		c.Widget.TypingDelayMs = d.Widget.TypingDelayMs
	}
	if c.Widget.Colors == nil {
		c.Widget.Colors = d.Widget.Colors
	}

	if c.Model.Backend == "" {
		c.Model.Backend = d.Model.Backend
	}
	if c.Model.URL == "" {
		if c.Model.Backend == BackendOpenAI {
			c.Model.URL = "http://127.0.0.1:11434/v1"
		} else {
			c.Model.URL = d.Model.URL
		}
	}
	if c.Model.Name == "" {
		c.Model.Name = d.Model.Name
	}
	if len(c.Model.ExpectedInputLanguages) == 0 {
		c.Model.ExpectedInputLanguages = d.Model.ExpectedInputLanguages
	}
	if c.Model.ProbeTimeoutMs == 0 {
		c.Model.ProbeTimeoutMs = d.Model.ProbeTimeoutMs
	}

	if c.Stream.IntervalMs == 0 {
		c.Stream.IntervalMs = d.Stream.IntervalMs
	}

	if c.UI.Mode == "" {
		c.UI.Mode = d.UI.Mode
	}
	if c.UI.Theme == "" {
		c.UI.Theme = d.UI.Theme
	}

	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
}

// ApplyEnvOverrides applies environment variable overrides.
//
// Supported environment variables:
//   - TRXCHAT_MODEL: overrides model.name
//   - TRXCHAT_MODEL_URL: overrides model.url
//   - TRXCHAT_BACKEND: overrides model.backend
//   - TRXCHAT_API_KEY: overrides model.api_key
//   - TRXCHAT_LOG_LEVEL: overrides log.level
//   - TRXCHAT_LOCALE: overrides locale
//   - TRXCHAT_UI: overrides ui.mode
func (c *Config) ApplyEnvOverrides() {
	overrides := []struct {
		env string
		dst *string
	}{
		{"TRXCHAT_MODEL", &c.Model.Name},
		{"TRXCHAT_MODEL_URL", &c.Model.URL},
		{"TRXCHAT_BACKEND", &c.Model.Backend},
		{"TRXCHAT_API_KEY", &c.Model.APIKey},
		{"TRXCHAT_LOG_LEVEL", &c.Log.Level},
		{"TRXCHAT_LOCALE", &c.Locale},
		{"TRXCHAT_UI", &c.UI.Mode},
	}
	for _, o := range overrides {
		if v := strings.TrimSpace(os.Getenv(o.env)); v != "" {
			*o.dst = v
		}
	}
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors
	add := func(field, format string, args ...any) {
		errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	switch strings.ToLower(c.Model.Backend) {
	case BackendOllama, BackendOpenAI, BackendNone:
	default:
		add("model.backend", "invalid backend '%s', must be one of: ollama, openai, none", c.Model.Backend)
	}

	if u, err := url.Parse(c.Model.URL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		add("model.url", "invalid URL '%s', must be http(s)://host[:port]", c.Model.URL)
	}

	if strings.TrimSpace(c.Model.Name) == "" {
		add("model.name", "must not be empty")
	}

	if c.Model.ProbeTimeoutMs < 0 {
		add("model.probe_timeout_ms", "must not be negative")
	}

	if c.Stream.IntervalMs < 10 || c.Stream.IntervalMs > 5000 {
		add("stream.interval_ms", "%d out of range [10, 5000]", c.Stream.IntervalMs)
	}

	if c.Widget.TypingDelayMs < 0 {
		add("widget.typing_delay_ms", "must not be negative")
	}

	for k, v := range c.Widget.Colors {
		if !IsThemeKey(k) {
			add("widget.colors."+k, "unknown theme key (must end in Color, Bubble or Text)")
		} else if !isColor(v) {
			add("widget.colors."+k, "invalid colour '%s'", v)
		}
	}

	switch c.UI.Mode {
	case ModeAuto, ModeWidget, ModeREPL:
	default:
		add("ui.mode", "invalid mode '%s', must be one of: auto, widget, repl", c.UI.Mode)
	}

	switch c.UI.Theme {
	case "auto", "dark", "light":
	default:
		add("ui.theme", "invalid theme '%s', must be one of: auto, dark, light", c.UI.Theme)
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error", "dpanic", "panic", "fatal":
	default:
		add("log.level", "invalid level '%s'", c.Log.Level)
	}

	if len(errs) > 0 {
		sort.SliceStable(errs, func(i, j int) bool { return errs[i].Field < errs[j].Field })
		return errs
	}
	return nil
}

// =============================================================================
// DERIVED VALUES
// =============================================================================

// StreamInterval returns the repaint period.
func (c *Config) StreamInterval() time.Duration {
	return time.Duration(c.Stream.IntervalMs) * time.Millisecond
}

// ProbeTimeout returns the capability probe timeout.
func (c *Config) ProbeTimeout() time.Duration {
	return time.Duration(c.Model.ProbeTimeoutMs) * time.Millisecond
}

// TypingDotDuration returns the period of one typing-dot animation cycle:
// two thirds of the typing delay, never faster than 600ms.
func (w WidgetConfig) TypingDotDuration() time.Duration {
	delay := w.TypingDelayMs
	if delay <= 0 {
		delay = 1200
	}
	d := time.Duration(delay*66/100) * time.Millisecond
	if d < 600*time.Millisecond {
		d = 600 * time.Millisecond
	}
	return d
}

// IsThemeKey reports whether a colour key is applied to the widget theme.
func IsThemeKey(k string) bool {
	return strings.HasSuffix(k, "Color") ||
		strings.HasSuffix(k, "Bubble") ||
		strings.HasSuffix(k, "Text") ||
		k == "buttonColor"
}

// ThemeVars returns the colour entries accepted by IsThemeKey.
func (w WidgetConfig) ThemeVars() map[string]string {
	out := make(map[string]string, len(w.Colors))
	for k, v := range w.Colors {
		if IsThemeKey(k) && v != "" {
			out[k] = v
		}
	}
	return out
}

// isColor accepts #RGB, #RRGGBB and ANSI 0-255 indexes.
func isColor(v string) bool {
	if strings.HasPrefix(v, "#") {
		hex := v[1:]
		if len(hex) != 3 && len(hex) != 6 {
			return false
		}
		for _, r := range hex {
			if !strings.ContainsRune("0123456789abcdefABCDEF", r) {
				return false
			}
		}
		return true
	}
	var n int
	if _, err := fmt.Sscanf(v, "%d", &n); err != nil || fmt.Sprint(n) != v {
		return false
	}
	return n >= 0 && n <= 255
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	cp := *c
	cp.Model.ExpectedInputLanguages = append([]string(nil), c.Model.ExpectedInputLanguages...)
	if c.Widget.Colors != nil {
		cp.Widget.Colors = make(map[string]string, len(c.Widget.Colors))
		for k, v := range c.Widget.Colors {
			cp.Widget.Colors[k] = v
		}
	}
	return &cp
}

// String returns the configuration as JSON with secrets masked.
func (c *Config) String() string {
	safe := c.Clone()
	if safe.Model.APIKey != "" {
		safe.Model.APIKey = "****"
	}
	data, _ := json.MarshalIndent(safe, "", "  ")
	return string(data)
}
