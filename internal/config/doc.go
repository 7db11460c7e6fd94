// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for trxchat.
//
// Supports both TOML and JSON configuration formats, with sensible defaults,
// environment variable overrides, validation and live reload.
//
// # Key Types
//
//   - Config: Main configuration structure with all settings
//   - WidgetConfig: Chatbot identity, greeting texts and theme colours
//   - ModelConfig: Local model backend, endpoint and name
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (TRXCHAT_*)
//   - ~/.trxchat/config.toml
//   - ~/.trxchat/config.json
//   - Built-in defaults
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	stop, err := config.Watch(ctx, path, func(c *config.Config) {
//	    // re-apply the theme
//	})
package config
