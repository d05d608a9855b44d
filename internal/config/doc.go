// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for evo.
//
// Configuration is TOML with built-in defaults, .env support and
// environment variable overrides.
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (EVO_*), including those set by .env files
//   - ~/.evo/config.toml (EVO_HOME moves the directory)
//   - Built-in defaults
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	client := api.NewClient(cfg.API.BaseURL, sess).WithTimeout(cfg.API.Timeout.Duration)
//
// Keys can be read and written with dot notation, as `evo config get/set`
// does:
//
//	cfg.Set("chat.reveal_delay", "50ms")
//	v, _ := cfg.Get("api.base_url")
package config
