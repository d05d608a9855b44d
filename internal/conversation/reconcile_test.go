// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package conversation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/evo-tui/internal/api"
	"github.com/jeranaias/evo-tui/internal/model"
)

var reconcileNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func summary(id, title string, updated time.Time) api.ConversationSummary {
	return api.ConversationSummary{
		ID:        api.FlexID(id),
		Title:     title,
		CreatedAt: api.Time{Time: updated},
		UpdatedAt: api.Time{Time: updated},
	}
}

func localConversation(created time.Time) *model.Conversation {
	conv := model.NewLocalConversation()
	conv.CreatedAt = created
	conv.UpdatedAt = created
	return conv
}

func titles(convs []*model.Conversation) []string {
	out := make([]string, 0, len(convs))
	for _, c := range convs {
		out = append(out, c.Title)
	}
	return out
}

func TestReconcile(t *testing.T) {
	hour := reconcileNow.Add(-time.Hour)
	opts := ReconcileOptions{Now: reconcileNow, Window: 10 * time.Second}

	tests := []struct {
		name   string
		server []api.ConversationSummary
		local  func() ([]*model.Conversation, *model.Conversation)
		want   []string
	}{
		{
			name:   "server order wins",
			server: []api.ConversationSummary{summary("2", "B", hour), summary("1", "A", hour)},
			local: func() ([]*model.Conversation, *model.Conversation) {
				return []*model.Conversation{
					model.NewPersistedConversation("1", "A", hour, hour),
					model.NewPersistedConversation("2", "B", hour, hour),
				}, nil
			},
			want: []string{"B", "A"},
		},
		{
			name:   "recent local conversation survives",
			server: []api.ConversationSummary{summary("1", "A", hour)},
			local: func() ([]*model.Conversation, *model.Conversation) {
				fresh := localConversation(reconcileNow.Add(-2 * time.Second))
				fresh.Title = "Fresh"
				return []*model.Conversation{fresh, model.NewPersistedConversation("1", "A", hour, hour)}, nil
			},
			want: []string{"Fresh", "A"},
		},
		{
			name:   "old local conversation dropped",
			server: []api.ConversationSummary{summary("1", "A", hour)},
			local: func() ([]*model.Conversation, *model.Conversation) {
				old := localConversation(reconcileNow.Add(-time.Minute))
				old.Title = "Old"
				return []*model.Conversation{old}, nil
			},
			want: []string{"A"},
		},
		{
			name:   "active conversation survives outside the window",
			server: nil,
			local: func() ([]*model.Conversation, *model.Conversation) {
				active := model.NewPersistedConversation("9", "Active", hour, hour)
				gone := model.NewPersistedConversation("8", "Gone", hour, hour)
				return []*model.Conversation{gone, active}, active
			},
			want: []string{"Active"},
		},
		{
			name:   "kept locals keep relative order",
			server: []api.ConversationSummary{summary("1", "A", hour)},
			local: func() ([]*model.Conversation, *model.Conversation) {
				x := localConversation(reconcileNow.Add(-time.Second))
				x.Title = "X"
				y := localConversation(reconcileNow.Add(-3 * time.Second))
				y.Title = "Y"
				return []*model.Conversation{x, y}, nil
			},
			want: []string{"X", "Y", "A"},
		},
		{
			name:   "persisted but unlisted recent conversation survives",
			server: []api.ConversationSummary{summary("1", "A", hour)},
			local: func() ([]*model.Conversation, *model.Conversation) {
				c := localConversation(reconcileNow.Add(-time.Second))
				c.Persist("2", time.Time{})
				c.Title = "Just created"
				return []*model.Conversation{c}, nil
			},
			want: []string{"Just created", "A"},
		},
		{
			name:   "empty ids ignored",
			server: []api.ConversationSummary{summary("", "Broken", hour), summary("1", "A", hour)},
			local: func() ([]*model.Conversation, *model.Conversation) {
				return nil, nil
			},
			want: []string{"A"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			local, active := tt.local()
			got := Reconcile(tt.server, local, active, opts)
			assert.Equal(t, tt.want, titles(got))
		})
	}
}

func TestReconcile_KeepsIdentityAndMessages(t *testing.T) {
	hour := reconcileNow.Add(-time.Hour)
	conv := model.NewPersistedConversation("1", "Old title", hour, hour)
	conv.AddUserMessage("hi")
	conv.UpdatedAt = hour
	conv.Loaded = true

	got := Reconcile([]api.ConversationSummary{summary("1", "New title", hour)}, []*model.Conversation{conv}, nil,
		ReconcileOptions{Now: reconcileNow, Window: 10 * time.Second})

	require.Len(t, got, 1)
	assert.Same(t, conv, got[0])
	assert.Equal(t, "New title", conv.Title)
	assert.Len(t, conv.Messages, 1)
	assert.True(t, conv.Loaded, "same update time keeps the history")
}

func TestReconcile_NewerServerCopyMarksStale(t *testing.T) {
	hour := reconcileNow.Add(-time.Hour)
	newer := reconcileNow.Add(-time.Minute)

	mk := func() *model.Conversation {
		c := model.NewPersistedConversation("1", "A", hour, hour)
		c.Loaded = true
		return c
	}

	t.Run("inactive", func(t *testing.T) {
		conv := mk()
		Reconcile([]api.ConversationSummary{summary("1", "A", newer)}, []*model.Conversation{conv}, nil,
			ReconcileOptions{Now: reconcileNow, Window: 10 * time.Second})
		assert.False(t, conv.Loaded)
	})

	t.Run("active without preserve", func(t *testing.T) {
		conv := mk()
		Reconcile([]api.ConversationSummary{summary("1", "A", newer)}, []*model.Conversation{conv}, conv,
			ReconcileOptions{Now: reconcileNow, Window: 10 * time.Second})
		assert.False(t, conv.Loaded)
	})

	t.Run("active with preserve", func(t *testing.T) {
		conv := mk()
		Reconcile([]api.ConversationSummary{summary("1", "A", newer)}, []*model.Conversation{conv}, conv,
			ReconcileOptions{Now: reconcileNow, Window: 10 * time.Second, PreserveActive: true})
		assert.True(t, conv.Loaded)
		assert.Equal(t, newer, conv.UpdatedAt)
	})
}

func TestRefresh_RecentConversationSurvivesStaleList(t *testing.T) {
	fb := newFakeBackend()
	c := newTestController(t, fb)

	cmd, err := c.Send("Hello")
	require.NoError(t, err)
	Drive(c, cmd, nil)
	conv := c.Active()

	// The list endpoint has not caught up with the new conversation yet.
	fb.convs = nil
	c.Deselect()
	Drive(c, c.Refresh(), nil)

	require.Len(t, c.Conversations(), 1)
	assert.Same(t, conv, c.Conversations()[0])
}
