// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading for draftsmith.
//
// Configuration is TOML with sensible defaults, environment variable
// overrides for credentials, and validation.
//
// # Key Types
//
//   - Config: main configuration structure
//   - RepoConfig: content repository connection settings
//   - StorageConfig: conversation persistence settings
//   - CacheConfig: document metadata cache settings
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (DRAFTSMITH_TOKEN, DRAFTSMITH_BASE_URL,
//     DRAFTSMITH_DATASET)
//   - ~/.draftsmith/config.toml
//   - Built-in defaults
//
// # Usage
//
// Load configuration:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Access settings:
//
//	client := repo.NewHTTPClient(cfg.ClientConfig(), logger)
//	ttl := cfg.CacheTTL()
package config
