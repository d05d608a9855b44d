// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"errors"

	tea "github.com/charmbracelet/bubbletea"
	log "github.com/sirupsen/logrus"

	"github.com/jeranaias/evo-tui/internal/model"
	"github.com/jeranaias/evo-tui/internal/storage"
)

// draftLoadedMsg carries a stored draft for the conversation keyed Key.
type draftLoadedMsg struct {
	Key     string
	Content string
}

// draftKeyFor returns the storage key of the input belonging to conv.
// Conversations without a server id share the new-chat draft.
func draftKeyFor(conv *model.Conversation) string {
	if conv == nil || !conv.ID.IsPersisted() {
		return storage.NewChatKey
	}
	return conv.ID.ServerID()
}

// syncDraft follows the active conversation. Switching stores the text of
// the one being left and loads the draft of the new one; a conversation
// that just received its server id takes the new-chat draft with it.
func (m *Model) syncDraft() tea.Cmd {
	active := m.ctrl.Active()
	key := draftKeyFor(active)
	if key == m.draftKey {
		m.draftConv = active
		return nil
	}

	old := m.draftKey
	promoted := active != nil && active == m.draftConv && old == storage.NewChatKey
	m.draftKey, m.draftConv = key, active

	if promoted {
		return m.rekeyDraft(old, key)
	}

	save := m.saveDraft(old, m.input.Value())
	m.input.Reset()
	return tea.Batch(save, m.loadDraft(key))
}

func (m Model) saveDraft(key, content string) tea.Cmd {
	store := m.deps.Drafts
	if store == nil {
		return nil
	}
	ctx := m.ctx
	return func() tea.Msg {
		c, cancel := ctx()
		defer cancel()
		if err := store.Save(c, key, content); err != nil {
			log.WithError(err).WithField("conversation", key).Warn("saving draft failed")
		}
		return nil
	}
}

func (m Model) deleteDraft(key string) tea.Cmd {
	store := m.deps.Drafts
	if store == nil {
		return nil
	}
	ctx := m.ctx
	return func() tea.Msg {
		c, cancel := ctx()
		defer cancel()
		if err := store.Delete(c, key); err != nil {
			log.WithError(err).WithField("conversation", key).Warn("deleting draft failed")
		}
		return nil
	}
}

func (m Model) rekeyDraft(from, to string) tea.Cmd {
	store := m.deps.Drafts
	if store == nil {
		return nil
	}
	ctx := m.ctx
	return func() tea.Msg {
		c, cancel := ctx()
		defer cancel()
		if err := store.Rekey(c, from, to); err != nil {
			log.WithError(err).Warn("moving draft failed")
		}
		return nil
	}
}

func (m Model) loadDraft(key string) tea.Cmd {
	store := m.deps.Drafts
	if store == nil {
		return nil
	}
	ctx := m.ctx
	return func() tea.Msg {
		c, cancel := ctx()
		defer cancel()
		d, err := store.Load(c, key)
		if err != nil {
			if !errors.Is(err, storage.ErrDraftNotFound) {
				log.WithError(err).WithField("conversation", key).Warn("loading draft failed")
			}
			return nil
		}
		return draftLoadedMsg{Key: key, Content: d.Content}
	}
}

// applyDraft fills the input with a loaded draft unless the user already
// typed something or moved on.
func (m *Model) applyDraft(msg draftLoadedMsg) {
	if msg.Key != m.draftKey || m.input.Value() != "" {
		return
	}
	m.input.SetValue(msg.Content)
	m.input.CursorEnd()
}
