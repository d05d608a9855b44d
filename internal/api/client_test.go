// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/evo-tui/internal/server"
	"github.com/jeranaias/evo-tui/internal/session"
)

// newSandbox starts a sandbox backend and a client logged in as email.
func newSandbox(t *testing.T, email string) (*server.Server, *Client) {
	t.Helper()
	srv := server.NewServer(0).WithDemoData()
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	sess := session.New(nil)
	if email != "" {
		token, err := srv.IssueToken(email)
		require.NoError(t, err)
		require.NoError(t, sess.Begin(token))
	}
	client := NewClient(ts.URL, sess).WithRateLimit(0, 0).WithTimeout(5 * time.Second)
	return srv, client
}

// =============================================================================
// AUTH TESTS
// =============================================================================

func TestClient_Login(t *testing.T) {
	_, client := newSandbox(t, "")
	ctx := context.Background()

	err := client.Login(ctx, "ana@acme.test", "nope")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.False(t, client.Session().Active())

	require.NoError(t, client.Login(ctx, " ana@acme.test ", "password"))
	assert.True(t, client.Session().Active())
	assert.Equal(t, "ana@acme.test", client.Session().Claims().Email)

	me, err := client.Me(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Ana Lima", me.DisplayName())
	assert.False(t, me.IsTenantAdmin())
}

func TestClient_NoSession(t *testing.T) {
	_, client := newSandbox(t, "")
	_, err := client.Usage(context.Background())
	assert.ErrorIs(t, err, session.ErrNoSession)
}

func TestClient_UnauthorizedEndsSession(t *testing.T) {
	srv, client := newSandbox(t, "ana@acme.test")
	ended := make(chan session.Reason, 1)
	client.Session().OnEnd(func(r session.Reason) { ended <- r })

	srv.FailNext(http.MethodGet, "/chat/conversations", http.StatusUnauthorized, "Token expired")
	_, err := client.ListConversations(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, "Token expired", UserMessage(err, "fallback"))
	assert.False(t, client.Session().Active())
	assert.Equal(t, session.ReasonUnauthorized, <-ended)
}

// =============================================================================
// CHAT TESTS
// =============================================================================

func TestClient_ConversationLifecycle(t *testing.T) {
	_, client := newSandbox(t, "ana@acme.test")
	ctx := context.Background()

	created, err := client.CreateConversation(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero(), "zone-less timestamps must parse")

	reply, err := client.Ask(ctx, "What is the vacation policy?", created.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "You said: What is the vacation policy?", reply.Reply)
	assert.Equal(t, created.ID, reply.ConversationID)

	detail, err := client.GetConversation(ctx, created.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "What is the vacation policy?", detail.Title)
	require.Len(t, detail.Messages, 2)
	assert.Equal(t, "USER", detail.Messages[0].Role)
	assert.Equal(t, "ASSISTANT", detail.Messages[1].Role)

	list, err := client.ListConversations(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, client.DeleteConversation(ctx, created.ID.String()))
	_, err = client.GetConversation(ctx, created.ID.String())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestClient_AskWithoutConversation(t *testing.T) {
	_, client := newSandbox(t, "ana@acme.test")
	reply, err := client.Ask(context.Background(), "hi", "")
	require.NoError(t, err)
	assert.NotEmpty(t, reply.ConversationID)
}

func TestClient_UsageLimit(t *testing.T) {
	srv, client := newSandbox(t, "ana@acme.test")
	ctx := context.Background()
	srv.SetUsed("ana@acme.test", 80)

	usage, err := client.Usage(ctx)
	require.NoError(t, err)
	assert.Equal(t, UsageApproaching, usage.Level())
	assert.Equal(t, 20, usage.Remaining())

	srv.SetUsed("ana@acme.test", server.DefaultMessageLimit)
	_, err = client.Ask(ctx, "one more", "")
	assert.ErrorIs(t, err, ErrUsageLimit)
	assert.True(t, client.Session().Active(), "429 must not end the session")
}

func TestClient_TransportError(t *testing.T) {
	srv, client := newSandbox(t, "ana@acme.test")
	srv.FailNext(http.MethodGet, "/chat/usage", 0, "")

	_, err := client.Usage(context.Background())
	require.Error(t, err)
	var apiErr *APIError
	assert.False(t, errors.As(err, &apiErr))
}

func TestClient_AskSendsNumericConversationID(t *testing.T) {
	var got map[string]any
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"reply":"ok","conversationId":7}`))
	}))
	defer ts.Close()

	sess := session.New(nil)
	require.NoError(t, sess.Begin("tok"))
	client := NewClient(ts.URL, sess)

	resp, err := client.Ask(context.Background(), "hi", "7")
	require.NoError(t, err)
	assert.Equal(t, FlexID("7"), resp.ConversationID)
	assert.Equal(t, float64(7), got["conversationId"])

	_, err = client.Ask(context.Background(), "hi", "")
	require.NoError(t, err)
	v, present := got["conversationId"]
	assert.True(t, present)
	assert.Nil(t, v)
}

// =============================================================================
// ADMIN TESTS
// =============================================================================

func TestClient_TenantAdmin(t *testing.T) {
	_, client := newSandbox(t, "admin@acme.test")
	ctx := context.Background()

	require.NoError(t, client.InviteUser(ctx, InviteRequest{Email: "bo@acme.test", FullName: "Bo"}))
	assert.Error(t, client.InviteUser(ctx, InviteRequest{Email: "not-an-email"}))
	assert.Error(t, client.InviteUser(ctx, InviteRequest{Email: "x@acme.test", Role: "SUPER_ADMIN"}))

	users, err := client.TenantUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 3)

	metrics, err := client.TenantMetrics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, metrics.CurrentUsers)

	_, err = client.Tenants(ctx)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestClient_SuperAdmin(t *testing.T) {
	_, client := newSandbox(t, "root@evo.test")
	ctx := context.Background()

	tenant, err := client.CreateTenant(ctx, CreateTenantRequest{Name: "Globex", Domain: "Globex.test"})
	require.NoError(t, err)
	assert.Equal(t, "globex.test", tenant.Domain)
	assert.Equal(t, "trial", tenant.Status())

	tenants, err := client.Tenants(ctx)
	require.NoError(t, err)
	assert.Len(t, tenants, 2)

	metrics, err := client.PlatformMetrics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, metrics.TotalTenants)
}

// =============================================================================
// DECODING TESTS
// =============================================================================

func TestFlexID(t *testing.T) {
	var v struct {
		A FlexID `json:"a"`
		B FlexID `json:"b"`
		C FlexID `json:"c"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":12,"b":"abc","c":null}`), &v))
	assert.Equal(t, FlexID("12"), v.A)
	assert.Equal(t, FlexID("abc"), v.B)
	assert.Equal(t, FlexID(""), v.C)
}

func TestTime(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{`"2025-03-01T10:20:30Z"`, time.Date(2025, 3, 1, 10, 20, 30, 0, time.UTC)},
		{`"2025-03-01T10:20:30.123456"`, time.Date(2025, 3, 1, 10, 20, 30, 123456000, time.UTC)},
		{`"2025-03-01T10:20:30"`, time.Date(2025, 3, 1, 10, 20, 30, 0, time.UTC)},
		{`1740824430000`, time.Date(2025, 3, 1, 10, 20, 30, 0, time.UTC)},
		{`null`, time.Time{}},
	}
	for _, tt := range tests {
		var got Time
		require.NoError(t, json.Unmarshal([]byte(tt.in), &got), tt.in)
		assert.True(t, tt.want.Equal(got.Time), "%s: got %v", tt.in, got.Time)
	}

	var bad Time
	assert.Error(t, json.Unmarshal([]byte(`"yesterday"`), &bad))
}

func TestUsageLevel(t *testing.T) {
	assert.Equal(t, UsageNormal, Usage{PercentUsed: 10}.Level())
	assert.Equal(t, UsageApproaching, Usage{PercentUsed: 75}.Level())
	assert.Equal(t, UsageCritical, Usage{PercentUsed: 95}.Level())
	assert.Equal(t, UsageReached, Usage{PercentUsed: 100}.Level())
	assert.True(t, Usage{MessagesUsed: 5, MessagesLimit: 5}.LimitReached())
	assert.Equal(t, -1, Usage{}.Remaining())
}

func TestErrorMessage(t *testing.T) {
	assert.Equal(t, "bad thing", errorMessage([]byte(`{"message":"bad thing"}`)))
	assert.Equal(t, "nested", errorMessage([]byte(`{"error":{"message":"nested"}}`)))
	assert.Equal(t, "flat", errorMessage([]byte(`{"error":"flat"}`)))
	assert.Equal(t, "", errorMessage([]byte(`<html><body>502</body></html>`)))
	assert.Equal(t, "plain text", errorMessage([]byte("plain text\n")))

	long := strings.Repeat("é", maxErrorMessage+10)
	got := errorMessage([]byte(long))
	assert.True(t, strings.HasSuffix(got, "..."))
	assert.Equal(t, maxErrorMessage+3, len([]rune(got)))

	err := newStatusError(http.StatusTooManyRequests, nil)
	assert.ErrorIs(t, err, ErrUsageLimit)
	assert.Equal(t, "fallback", UserMessage(err, "fallback"))
}
