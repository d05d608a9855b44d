// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package conversation

import (
	"time"

	"github.com/jeranaias/evo-tui/internal/api"
	"github.com/jeranaias/evo-tui/internal/model"
)

// ReconcileOptions parameterises Reconcile.
type ReconcileOptions struct {
	Now    time.Time
	Window time.Duration
	// PreserveActive keeps the active conversation's local history as the
	// source of truth even when the server reports a newer update.
	PreserveActive bool
}

// Reconcile merges a server conversation list with the locally held
// conversations.
//
// The server list decides order and metadata. Local conversations that the
// server also lists keep their identity and messages. A server update newer
// than the local copy marks the history stale so it is fetched again on
// selection, except for the active conversation under PreserveActive.
// Local conversations the server does not list are put back at the front,
// in their previous relative order, when they were created within the
// window or are active; the rest are dropped.
func Reconcile(server []api.ConversationSummary, local []*model.Conversation, active *model.Conversation, opts ReconcileOptions) []*model.Conversation {
	byServerID := make(map[string]*model.Conversation, len(local))
	for _, conv := range local {
		if id := conv.ID.ServerID(); id != "" {
			byServerID[id] = conv
		}
	}

	merged := make([]*model.Conversation, 0, len(server)+1)
	seen := make(map[*model.Conversation]bool, len(server))
	for _, s := range server {
		id := s.ID.String()
		if id == "" {
			continue
		}
		conv, ok := byServerID[id]
		if !ok {
			conv = model.NewPersistedConversation(id, s.Title, s.CreatedAt.Time, s.UpdatedAt.Time)
			merged = append(merged, conv)
			continue
		}
		if seen[conv] {
			continue
		}
		seen[conv] = true

		if s.Title != "" {
			conv.Title = s.Title
		}
		if !s.CreatedAt.IsZero() {
			conv.CreatedAt = s.CreatedAt.Time
		}
		if !s.UpdatedAt.IsZero() {
			protected := opts.PreserveActive && conv == active
			if !protected && conv.Loaded && s.UpdatedAt.After(conv.UpdatedAt) {
				conv.Loaded = false
			}
			conv.UpdatedAt = s.UpdatedAt.Time
		}
		merged = append(merged, conv)
	}

	var keep []*model.Conversation
	for _, conv := range local {
		if seen[conv] {
			continue
		}
		recent := opts.Now.Sub(conv.CreatedAt) < opts.Window
		if recent || conv == active {
			keep = append(keep, conv)
		}
	}
	return append(keep, merged...)
}
