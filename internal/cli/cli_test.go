// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/evo-tui/internal/api"
	"github.com/jeranaias/evo-tui/internal/config"
	"github.com/jeranaias/evo-tui/internal/conversation"
	"github.com/jeranaias/evo-tui/internal/server"
	"github.com/jeranaias/evo-tui/internal/session"
	"github.com/jeranaias/evo-tui/internal/storage"
)

// =============================================================================
// HARNESS
// =============================================================================

type testEnv struct {
	srv  *server.Server
	url  string
	home string
}

// newTestEnv starts a sandbox backend and points the config directory at a
// temp dir.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	srv := server.NewServer(0).WithDemoData()
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	home := t.TempDir()
	t.Setenv("EVO_HOME", home)
	t.Setenv("EVO_BASE_URL", "")
	t.Setenv("NO_COLOR", "1")
	return &testEnv{srv: srv, url: ts.URL, home: home}
}

// run executes one evo command line and returns what it printed.
func (e *testEnv) run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{"--base-url", e.url, "--log-level", "warn"}, args...))
	err := root.Execute()
	return out.String(), err
}

func (e *testEnv) login(t *testing.T, email string) {
	t.Helper()
	out, err := e.run(t, "password\n", "login", "--email", email, "--password-stdin")
	require.NoError(t, err)
	require.Contains(t, out, "Logged in as "+email)
}

// =============================================================================
// AUTH
// =============================================================================

func TestLogin_StoresSession(t *testing.T) {
	env := newTestEnv(t)
	env.login(t, "ana@acme.test")

	data, err := os.ReadFile(filepath.Join(env.home, session.TokenFileName))
	require.NoError(t, err)
	assert.NotEmpty(t, strings.TrimSpace(string(data)))

	out, err := env.run(t, "", "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "ana@acme.test")
}

func TestLogin_WrongPassword(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.run(t, "nope\n", "login", "--email", "ana@acme.test", "--password-stdin")
	require.Error(t, err)
	assert.Equal(t, ExitAuthError, GetExitCode(err))

	_, statErr := os.Stat(filepath.Join(env.home, session.TokenFileName))
	assert.True(t, os.IsNotExist(statErr))
}

func TestLogin_PasswordStdinNeedsEmail(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.run(t, "password\n", "login", "--password-stdin")
	require.Error(t, err)
	assert.Equal(t, ExitUsageError, GetExitCode(err))
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t)
	env.login(t, "ana@acme.test")

	out, err := env.run(t, "", "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged out")

	out, err = env.run(t, "", "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "Not logged in.")

	_, err = env.run(t, "", "whoami")
	require.ErrorIs(t, err, ErrNotLoggedIn)
	assert.Equal(t, ExitAuthError, GetExitCode(err))
}

func TestWhoami_JSON(t *testing.T) {
	env := newTestEnv(t)
	env.login(t, "admin@acme.test")

	out, err := env.run(t, "", "--json", "whoami")
	require.NoError(t, err)

	var resp struct {
		Success bool   `json:"success"`
		Data    api.Me `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, api.RoleTenantAdmin, resp.Data.Role)
}

// =============================================================================
// CHAT
// =============================================================================

func TestAsk_PrintsReply(t *testing.T) {
	env := newTestEnv(t)
	env.login(t, "ana@acme.test")

	out, err := env.run(t, "", "ask", "What", "is", "our", "leave", "policy?")
	require.NoError(t, err)
	assert.Contains(t, out, server.EchoResponder("What is our leave policy?"))
	assert.Equal(t, 1, env.srv.Requests(http.MethodPost, "/chat/conversations"))
}

func TestAsk_ReadsStdin(t *testing.T) {
	env := newTestEnv(t)
	env.login(t, "ana@acme.test")

	out, err := env.run(t, "piped question\n", "ask", "-")
	require.NoError(t, err)
	assert.Contains(t, out, server.EchoResponder("piped question"))
}

func TestAsk_ContinuesConversation(t *testing.T) {
	env := newTestEnv(t)
	env.login(t, "ana@acme.test")
	id := env.srv.AddConversation("ana@acme.test", "Leave", time.Now().Add(-time.Hour), "How many days?", "Twenty.")

	out, err := env.run(t, "", "ask", "--conversation", id, "And sick days?")
	require.NoError(t, err)
	assert.Contains(t, out, server.EchoResponder("And sick days?"))
	assert.Equal(t, 0, env.srv.Requests(http.MethodPost, "/chat/conversations"))
}

func TestAsk_UnknownConversation(t *testing.T) {
	env := newTestEnv(t)
	env.login(t, "ana@acme.test")

	_, err := env.run(t, "", "ask", "--conversation", "999", "hello")
	require.ErrorIs(t, err, conversation.ErrUnknownConversation)
	assert.Equal(t, ExitNotFoundError, GetExitCode(err))
}

func TestAsk_LimitReached(t *testing.T) {
	env := newTestEnv(t)
	env.login(t, "ana@acme.test")
	env.srv.SetUsed("ana@acme.test", server.DefaultMessageLimit)

	out, err := env.run(t, "", "ask", "one more")
	require.Error(t, err)
	assert.Equal(t, ExitLimitError, GetExitCode(err))
	assert.Contains(t, out, "monthly message limit")
	assert.Zero(t, env.srv.Requests(http.MethodPost, "/chat/conversations"), "no empty conversation left behind")
	assert.Zero(t, env.srv.Requests(http.MethodPost, "/chat/ask"))
}

func TestAsk_RequiresLogin(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.run(t, "", "ask", "hello")
	require.ErrorIs(t, err, ErrNotLoggedIn)
}

func TestUsage(t *testing.T) {
	env := newTestEnv(t)
	env.login(t, "ana@acme.test")
	env.srv.SetUsed("ana@acme.test", 80)

	out, err := env.run(t, "", "usage")
	require.NoError(t, err)
	assert.Contains(t, out, "80 of 100")
	assert.Contains(t, out, "Remaining")
}

// =============================================================================
// CONVERSATIONS
// =============================================================================

func TestConversations_ListShowDelete(t *testing.T) {
	env := newTestEnv(t)
	env.login(t, "ana@acme.test")
	id := env.srv.AddConversation("ana@acme.test", "Expense rules", time.Now().Add(-time.Hour),
		"Can I expense a taxi?", "Yes, with a receipt.")

	out, err := env.run(t, "", "conversations", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Expense rules")
	assert.Contains(t, out, id)

	out, err = env.run(t, "", "conversations", "show", id)
	require.NoError(t, err)
	assert.Contains(t, out, "Can I expense a taxi?")
	assert.Contains(t, out, "Yes, with a receipt.")

	out, err = env.run(t, "", "conversations", "delete", id, "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, "Conversation deleted")

	out, err = env.run(t, "", "conversations", "list")
	require.NoError(t, err)
	assert.NotContains(t, out, "Expense rules")
}

func TestConversations_ShowMissing(t *testing.T) {
	env := newTestEnv(t)
	env.login(t, "ana@acme.test")

	_, err := env.run(t, "", "conversations", "show", "424242")
	require.Error(t, err)
	assert.Equal(t, ExitNotFoundError, GetExitCode(err))
}

func TestConversations_Export(t *testing.T) {
	env := newTestEnv(t)
	env.login(t, "ana@acme.test")
	id := env.srv.AddConversation("ana@acme.test", "Onboarding", time.Now().Add(-time.Hour),
		"Where is the handbook?", "On the intranet.")

	out, err := env.run(t, "", "conversations", "export", id, "--format", "json", "--stdout")
	require.NoError(t, err)
	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, "Onboarding", doc["title"])

	dir := t.TempDir()
	out, err = env.run(t, "", "conversations", "export", id, "--format", "markdown", "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Exported to")

	files, err := filepath.Glob(filepath.Join(dir, "*.md"))
	require.NoError(t, err)
	require.Len(t, files, 1)
	data, err := os.ReadFile(files[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), "On the intranet.")
}

// =============================================================================
// DRAFTS
// =============================================================================

func TestDrafts_ListSearchDelete(t *testing.T) {
	env := newTestEnv(t)
	store, err := storage.OpenDraftStore(filepath.Join(env.home, "drafts.db"))
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, "42", "What is our refund policy?"))
	require.NoError(t, store.Save(ctx, storage.NewChatKey, "Draft a welcome email"))
	require.NoError(t, store.Close())

	out, err := env.run(t, "", "drafts", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "CONVERSATION")
	assert.Contains(t, out, "refund policy")
	assert.Contains(t, out, "welcome email")

	out, err = env.run(t, "", "drafts", "search", "REFUND")
	require.NoError(t, err)
	assert.Contains(t, out, "42")
	assert.NotContains(t, out, "welcome email")

	out, err = env.run(t, "", "--json", "drafts", "search", "welcome")
	require.NoError(t, err)
	var resp struct {
		Data []storage.Draft `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, storage.NewChatKey, resp.Data[0].Key)

	_, err = env.run(t, "", "drafts", "delete", "42")
	require.NoError(t, err)
	out, err = env.run(t, "", "drafts", "search", "refund")
	require.NoError(t, err)
	assert.Contains(t, out, "No drafts.")
}

func TestConversations_ExportBadFormat(t *testing.T) {
	env := newTestEnv(t)
	env.login(t, "ana@acme.test")

	_, err := env.run(t, "", "conversations", "export", "1", "--format", "pdf", "--stdout")
	require.Error(t, err)
	assert.Equal(t, ExitUsageError, GetExitCode(err))
}

// =============================================================================
// ADMIN
// =============================================================================

func TestAdmin_ForbiddenForEmployee(t *testing.T) {
	env := newTestEnv(t)
	env.login(t, "ana@acme.test")

	_, err := env.run(t, "", "admin", "users")
	require.ErrorIs(t, err, api.ErrForbidden)
	assert.Equal(t, ExitForbiddenError, GetExitCode(err))
	assert.Equal(t, 0, env.srv.Requests(http.MethodGet, "/api/admin/tenant/users"))

	_, err = env.run(t, "", "super", "tenants")
	require.ErrorIs(t, err, api.ErrForbidden)
}

func TestAdmin_UsersInviteMetrics(t *testing.T) {
	env := newTestEnv(t)
	env.login(t, "admin@acme.test")

	out, err := env.run(t, "", "admin", "invite", "--email", "sam@acme.test", "--name", "Sam Lee")
	require.NoError(t, err)
	assert.Contains(t, out, "Invitation sent to sam@acme.test")

	out, err = env.run(t, "", "admin", "users")
	require.NoError(t, err)
	assert.Contains(t, out, "sam@acme.test")
	assert.Contains(t, out, "ana@acme.test")

	out, err = env.run(t, "", "admin", "metrics")
	require.NoError(t, err)
	assert.Contains(t, out, "Messages this month")
}

func TestSuper_TenantsAndCreate(t *testing.T) {
	env := newTestEnv(t)
	env.login(t, "root@evo.test")

	out, err := env.run(t, "", "super", "create-tenant", "--name", "Globex", "--domain", "globex.test")
	require.NoError(t, err)
	assert.Contains(t, out, "Created tenant Globex")

	out, err = env.run(t, "", "super", "tenants")
	require.NoError(t, err)
	assert.Contains(t, out, "globex.test")
	assert.Contains(t, out, "Acme")

	_, err = env.run(t, "", "super", "create-tenant", "--name", "NoDomain")
	require.Error(t, err)
	assert.Equal(t, ExitUsageError, GetExitCode(err))
}

// =============================================================================
// CONFIG & VERSION
// =============================================================================

func TestConfig_SetGetPath(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "", "config", "set", "chat.reveal_delay", "0s")
	require.NoError(t, err)
	assert.Contains(t, out, "chat.reveal_delay = 0s")

	out, err = env.run(t, "", "config", "get", "chat.reveal_delay")
	require.NoError(t, err)
	assert.Equal(t, "0s", strings.TrimSpace(out))

	out, err = env.run(t, "", "config", "path")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(env.home, "config.toml"), strings.TrimSpace(out))

	cfg, err := config.LoadFromPath(filepath.Join(env.home, "config.toml"))
	require.NoError(t, err)
	assert.Equal(t, time.Duration(0), cfg.Chat.RevealDelay.Duration)
}

func TestConfig_SetRejectsBadValues(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.run(t, "", "config", "set", "no.such.key", "1")
	require.Error(t, err)
	assert.Equal(t, ExitUsageError, GetExitCode(err))

	_, err = env.run(t, "", "config", "set", "log.level", "loud")
	require.Error(t, err)
	assert.Equal(t, ExitConfigError, GetExitCode(err))
}

func TestConfig_Show(t *testing.T) {
	env := newTestEnv(t)
	out, err := env.run(t, "", "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "[api]")
	assert.Contains(t, out, "base_url")
	assert.Contains(t, out, env.url)
}

func TestVersion_Output(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "", "version", "-o", "json")
	require.NoError(t, err)
	var v VersionInfo
	require.NoError(t, json.Unmarshal([]byte(out), &v))
	assert.Equal(t, Version, v.Version)

	out, err = env.run(t, "", "version", "-o", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "version: "+Version)

	out, err = env.run(t, "", "version", "-o", "short")
	require.NoError(t, err)
	assert.Equal(t, Version, strings.TrimSpace(out))

	_, err = env.run(t, "", "version", "-o", "xml")
	require.Error(t, err)
	assert.Equal(t, ExitUsageError, GetExitCode(err))
}

// =============================================================================
// HELPERS
// =============================================================================

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"validation", NewValidationError("--format", "pdf", "unknown"), ExitUsageError},
		{"config", config.ValidateErrors{{Field: "log.level"}}, ExitConfigError},
		{"not logged in", ErrNotLoggedIn, ExitAuthError},
		{"unauthorized", fmt.Errorf("list: %w", api.ErrUnauthorized), ExitAuthError},
		{"forbidden", api.ErrForbidden, ExitForbiddenError},
		{"not found", api.ErrNotFound, ExitNotFoundError},
		{"limit", api.ErrUsageLimit, ExitLimitError},
		{"local limit", conversation.ErrLimitReached, ExitLimitError},
		{"timeout", context.DeadlineExceeded, ExitTimeoutError},
		{"server error", &api.APIError{Status: 500, Message: "boom"}, ExitGeneralError},
		{"unknown flag", errors.New("unknown flag: --nope"), ExitUsageError},
		{"refused", errors.New("dial tcp 127.0.0.1:1: connect: connection refused"), ExitNetworkError},
		{"other", errors.New("something else"), ExitGeneralError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetExitCode(tt.err))
		})
	}
}

func TestDisplayError_UserMessages(t *testing.T) {
	var buf bytes.Buffer
	DisplayError(&buf, fmt.Errorf("users: %w", api.ErrForbidden))
	assert.Contains(t, buf.String(), "Access denied")

	buf.Reset()
	DisplayError(&buf, &api.APIError{Status: 500, Message: "Database unavailable"})
	assert.Contains(t, buf.String(), "Database unavailable")
}

func TestWrapText(t *testing.T) {
	wrapped := WrapText("the quick brown fox jumps over the lazy dog", 14)
	for _, line := range strings.Split(wrapped, "\n") {
		assert.LessOrEqual(t, len(line), 12, "line %q too wide", line)
	}
	assert.Equal(t, "keep\nnewlines", WrapText("keep\nnewlines", 40))
}

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "0", formatNumber(0))
	assert.Equal(t, "999", formatNumber(999))
	assert.Equal(t, "1,000", formatNumber(1000))
	assert.Equal(t, "12,345,678", formatNumber(12345678))
	assert.Equal(t, "-5", formatNumber(-5))
}

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "short", truncateString("short", 10))
	assert.Equal(t, "a long ...", truncateString("a long conversation title", 10))
	assert.Equal(t, "日本...", truncateString("日本語のタイトル", 7))
}
