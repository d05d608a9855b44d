// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points the config directory at a temp dir and clears EVO_*
// overrides for the duration of the test.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("EVO_HOME", dir)
	for _, k := range []string{"EVO_API_URL", "EVO_TIMEOUT", "EVO_REVEAL_DELAY", "EVO_MARKDOWN", "EVO_LOG_LEVEL", "EVO_LOG_FILE", "EVO_DRAFTS_DB"} {
		t.Setenv(k, "")
	}
	return dir
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, DefaultRevealDelay, cfg.Chat.RevealDelay.Duration)
	assert.Equal(t, 10*time.Second, cfg.Chat.RecencyWindow.Duration)
	assert.True(t, cfg.Chat.Markdown)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	isolate(t)
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultBaseURL, cfg.API.BaseURL)
}

func TestLoadFromPath_TOML(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[api]
base_url = "http://localhost:8787/"
timeout = "5s"

[chat]
reveal_delay = "0s"
markdown = false

[ui]
sidebar_width = 32
`), 0600))

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8787", cfg.API.BaseURL, "trailing slash trimmed")
	assert.Equal(t, 5*time.Second, cfg.API.Timeout.Duration)
	assert.Equal(t, time.Duration(0), cfg.Chat.RevealDelay.Duration)
	assert.False(t, cfg.Chat.Markdown)
	assert.Equal(t, 32, cfg.UI.SidebarWidth)
	assert.Equal(t, DefaultUsageRefresh, cfg.Chat.UsageRefresh.Duration, "unset keys keep defaults")
}

func TestLoadFromPath_Invalid(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[api]\nbase_url = \"ftp://x\"\n[log]\nlevel = \"loud\"\n"), 0600))

	_, err := LoadFromPath(path)
	require.Error(t, err)
	var verrs ValidateErrors
	require.True(t, errors.As(err, &verrs))
	assert.Len(t, verrs, 2)
}

func TestApplyEnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("EVO_API_URL", "http://127.0.0.1:9000")
	t.Setenv("EVO_REVEAL_DELAY", "10ms")
	t.Setenv("EVO_MARKDOWN", "false")
	t.Setenv("EVO_LOG_LEVEL", "debug")

	cfg := Default()
	cfg.ApplyEnvOverrides()
	assert.Equal(t, "http://127.0.0.1:9000", cfg.API.BaseURL)
	assert.Equal(t, 10*time.Millisecond, cfg.Chat.RevealDelay.Duration)
	assert.False(t, cfg.Chat.Markdown)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := isolate(t)
	os.Unsetenv("EVO_LOG_LEVEL")
	t.Cleanup(func() { os.Unsetenv("EVO_LOG_LEVEL") })
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("EVO_LOG_LEVEL=warn\n"), 0600))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestSaveTOML_RoundTrip(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "nested", "config.toml")

	cfg := Default()
	cfg.API.BaseURL = "http://localhost:8787"
	cfg.Chat.RevealDelay = D(45 * time.Millisecond)
	require.NoError(t, SaveTOML(cfg, path))

	if runtime.GOOS != "windows" {
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
	}

	loaded, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.API.BaseURL, loaded.API.BaseURL)
	assert.Equal(t, 45*time.Millisecond, loaded.Chat.RevealDelay.Duration)
}

// =============================================================================
// GET/SET TESTS
// =============================================================================

func TestGetSet(t *testing.T) {
	cfg := Default()

	v, err := cfg.Get("api.base_url")
	require.NoError(t, err)
	assert.Equal(t, DefaultBaseURL, v)

	v, err = cfg.Get("chat.reveal_delay")
	require.NoError(t, err)
	assert.Equal(t, "30ms", v)

	require.NoError(t, cfg.Set("chat.reveal_delay", "50ms"))
	assert.Equal(t, 50*time.Millisecond, cfg.Chat.RevealDelay.Duration)

	require.NoError(t, cfg.Set("ui.sidebar_width", "40"))
	assert.Equal(t, 40, cfg.UI.SidebarWidth)

	require.NoError(t, cfg.Set("chat.markdown", "no"))
	assert.False(t, cfg.Chat.Markdown)

	require.NoError(t, cfg.Set("api.requests_per_second", "2.5"))
	assert.Equal(t, 2.5, cfg.API.RequestsPerSecond)

	assert.Error(t, cfg.Set("chat.reveal_delay", "soon"))
	assert.Error(t, cfg.Set("chat", "x"))
	_, err = cfg.Get("nope.key")
	assert.Error(t, err)
	_, err = cfg.Get("")
	assert.Error(t, err)
}

func TestGetAllKeys(t *testing.T) {
	keys := GetAllKeys()
	assert.Contains(t, keys, "api.base_url")
	assert.Contains(t, keys, "chat.reveal_delay")
	assert.Contains(t, keys, "storage.drafts_db")
	assert.Contains(t, keys, "export.format")

	cfg := Default()
	for _, k := range keys {
		_, err := cfg.Get(k)
		assert.NoError(t, err, k)
	}
}

func TestPaths(t *testing.T) {
	dir := isolate(t)
	cfg := Default()

	p, err := cfg.LogPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "evo.log"), p)

	cfg.Storage.DraftsDB = "/tmp/x.db"
	p, err = cfg.DraftsPath()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/x.db", p)

	p, err = cfg.ExportDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "exports"), p)
}

func TestValidate_ExportFormat(t *testing.T) {
	cfg := Default()
	cfg.Export.Format = "pdf"
	err := cfg.Validate()
	require.Error(t, err)
	var verrs ValidateErrors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, "export.format", verrs[0].Field)

	cfg.Export.Format = "md"
	assert.NoError(t, cfg.Validate())
}
