// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	srv := NewServer(0).WithDemoData()
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return srv, ts
}

func call(t *testing.T, ts *httptest.Server, token, method, path string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, ts.URL+path, &buf)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp, out
}

// =============================================================================
// AUTH TESTS
// =============================================================================

func TestLogin(t *testing.T) {
	_, ts := newTestServer(t)

	resp, body := call(t, ts, "", http.MethodPost, "/api/auth/login", map[string]string{"email": "ana@acme.test", "password": "password"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, body["token"])

	resp, body = call(t, ts, "", http.MethodPost, "/api/auth/login", map[string]string{"email": "ana@acme.test", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Invalid credentials", body["message"])
}

func TestAuthMiddleware(t *testing.T) {
	srv, ts := newTestServer(t)

	resp, _ := call(t, ts, "", http.MethodGet, "/api/auth/me", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = call(t, ts, "garbage", http.MethodGet, "/api/auth/me", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	token, err := srv.IssueToken("ana@acme.test")
	require.NoError(t, err)
	resp, body := call(t, ts, token, http.MethodGet, "/api/auth/me", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "EMPLOYEE", body["role"])
	assert.Equal(t, "Acme", body["tenantName"])
}

func TestRequireRole(t *testing.T) {
	srv, ts := newTestServer(t)
	employee, _ := srv.IssueToken("ana@acme.test")
	admin, _ := srv.IssueToken("admin@acme.test")
	root, _ := srv.IssueToken("root@evo.test")

	resp, _ := call(t, ts, employee, http.MethodGet, "/api/admin/tenant/users", nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = call(t, ts, admin, http.MethodGet, "/api/admin/tenant/users", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = call(t, ts, admin, http.MethodGet, "/api/admin/super/metrics", nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, body := call(t, ts, root, http.MethodGet, "/api/admin/super/metrics", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 3, body["totalUsers"])
}

// =============================================================================
// CHAT TESTS
// =============================================================================

func TestAsk_CreatesConversationAndCountsUsage(t *testing.T) {
	srv, ts := newTestServer(t)
	token, _ := srv.IssueToken("ana@acme.test")

	resp, body := call(t, ts, token, http.MethodPost, "/chat/ask", map[string]any{"message": "hello there", "conversationId": nil})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "You said: hello there", body["reply"])
	assert.NotNil(t, body["conversationId"])

	_, usage := call(t, ts, token, http.MethodGet, "/chat/usage", nil)
	assert.EqualValues(t, 1, usage["messagesUsed"])
	assert.EqualValues(t, DefaultMessageLimit, usage["messagesLimit"])
}

func TestAsk_LimitReached(t *testing.T) {
	srv, ts := newTestServer(t)
	token, _ := srv.IssueToken("ana@acme.test")
	srv.SetUsed("ana@acme.test", DefaultMessageLimit)

	resp, body := call(t, ts, token, http.MethodPost, "/chat/ask", map[string]any{"message": "hi"})
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "Monthly message limit reached", body["message"])
}

func TestConversationOwnership(t *testing.T) {
	srv, ts := newTestServer(t)
	id := srv.AddConversation("admin@acme.test", "Private", srv.now(), "hi", "hello")
	token, _ := srv.IssueToken("ana@acme.test")

	resp, _ := call(t, ts, token, http.MethodGet, "/chat/conversations/"+id, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = call(t, ts, token, http.MethodDelete, "/chat/conversations/"+id, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestFailNext(t *testing.T) {
	srv, ts := newTestServer(t)
	token, _ := srv.IssueToken("ana@acme.test")
	srv.FailNext(http.MethodGet, "/chat/usage", http.StatusServiceUnavailable, "down for maintenance")

	resp, body := call(t, ts, token, http.MethodGet, "/chat/usage", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "down for maintenance", body["message"])

	resp, _ = call(t, ts, token, http.MethodGet, "/chat/usage", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 2, srv.Requests(http.MethodGet, "/chat/usage"))
}

func TestTitleFrom(t *testing.T) {
	assert.Equal(t, "short question", titleFrom("  short   question "))
	long := "this message is definitely longer than fifty characters in total"
	assert.Equal(t, []rune(long)[:50], []rune(titleFrom(long))[:50])
	assert.Contains(t, titleFrom(long), "...")
}
