// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package conversation

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	log "github.com/sirupsen/logrus"

	"github.com/jeranaias/evo-tui/internal/api"
	"github.com/jeranaias/evo-tui/internal/model"
)

// =============================================================================
// LOADING
// =============================================================================

func (c *Controller) loadConversations(preserveActive bool) tea.Cmd {
	backend, ctxFn, owner := c.backend, c.ctx, c.id
	return func() tea.Msg {
		ctx, cancel := ctxFn()
		defer cancel()
		list, err := backend.ListConversations(ctx)
		return ConversationsLoadedMsg{Owner: owner, List: list, PreserveActive: preserveActive, Err: err}
	}
}

func (c *Controller) handleListLoaded(msg ConversationsLoadedMsg) tea.Cmd {
	c.loading = false
	if msg.Err != nil {
		if !c.failed(msg.Err) {
			log.WithError(msg.Err).Warn("loading conversations failed")
			c.notify(NoticeError, loadListFailed)
		}
		return nil
	}
	c.conversations = Reconcile(msg.List, c.conversations, c.active, ReconcileOptions{
		Now:            c.opts.Now(),
		Window:         c.opts.RecencyWindow,
		PreserveActive: msg.PreserveActive,
	})
	if c.active != nil && !c.contains(c.active) {
		c.active = nil
	}
	log.WithField("count", len(c.conversations)).Debug("conversation list reconciled")
	return nil
}

func (c *Controller) loadConversation(conv *model.Conversation) tea.Cmd {
	backend, ctxFn, owner := c.backend, c.ctx, c.id
	key, id, known := conv.ID.Key(), conv.ID.ServerID(), len(conv.Messages)
	return func() tea.Msg {
		ctx, cancel := ctxFn()
		defer cancel()
		detail, err := backend.GetConversation(ctx, id)
		return ConversationLoadedMsg{Owner: owner, Key: key, Known: known, Detail: detail, Err: err}
	}
}

func (c *Controller) handleConversationLoaded(msg ConversationLoadedMsg) tea.Cmd {
	if msg.Err != nil {
		if !c.failed(msg.Err) {
			log.WithError(msg.Err).WithField("conversation", msg.Key).Warn("loading conversation failed")
			c.notify(NoticeError, loadConvFailed)
		}
		return nil
	}
	conv := c.Find(msg.Key)
	if conv == nil {
		return nil
	}

	history := convertMessages(msg.Detail.Messages)
	// Messages added locally since the fetch was issued stay after the
	// fetched history. A fetch that raced a send may already hold some of
	// them.
	local := c.localTail(conv, msg.Known)
	history = append(history[:len(history)-c.echoed(history, local)], local...)
	conv.Messages = history
	if msg.Detail.Title != "" {
		conv.Title = msg.Detail.Title
	}
	if !msg.Detail.UpdatedAt.IsZero() {
		conv.UpdatedAt = msg.Detail.UpdatedAt.Time
	}
	conv.Loaded = true
	return nil
}

// localTail returns, in order, the messages of conv from index known on
// together with those belonging to the pending send or to the send whose
// reply is being revealed.
func (c *Controller) localTail(conv *model.Conversation, known int) []*model.Message {
	var out []*model.Message
	for i, m := range conv.Messages {
		if i >= known {
			out = append(out, m)
			continue
		}
		if s := c.send; s != nil && (m == s.user || m == s.placeholder) {
			out = append(out, m)
			continue
		}
		if r := c.reveal; r != nil && (m == r.user || m == r.msg) {
			out = append(out, m)
		}
	}
	return out
}

// echoed returns how many messages at the end of history are the server's
// copies of the leading local messages.
func (c *Controller) echoed(history, local []*model.Message) int {
	for k := min(len(history), len(local)); k > 0; k-- {
		tail := history[len(history)-k:]
		match := true
		for i, m := range tail {
			if !c.sameMessage(m, local[i]) {
				match = false
				break
			}
		}
		if match {
			return k
		}
	}
	return 0
}

// sameMessage compares a fetched message with a local one. A reply being
// revealed is compared by its full text.
func (c *Controller) sameMessage(fetched, local *model.Message) bool {
	if fetched.Role != local.Role {
		return false
	}
	if r := c.reveal; r != nil && local == r.msg {
		return fetched.Content == r.task.Text()
	}
	return !local.IsPlaceholder() && fetched.Content == local.Content
}

// FromDetail builds a loaded conversation from a fetched detail.
func FromDetail(d *api.ConversationDetail) *model.Conversation {
	conv := model.NewPersistedConversation(d.ID.String(), d.Title, d.CreatedAt.Time, d.UpdatedAt.Time)
	conv.Messages = convertMessages(d.Messages)
	conv.Loaded = true
	return conv
}

func convertMessages(in []api.Message) []*model.Message {
	out := make([]*model.Message, 0, len(in))
	for _, m := range in {
		out = append(out, &model.Message{
			ID:        model.Persisted(m.ID.String()),
			Role:      model.ParseRole(m.Role),
			Content:   m.Content,
			Timestamp: m.CreatedAt.Time,
		})
	}
	return out
}

// =============================================================================
// SELECTION
// =============================================================================

// Select activates the conversation matching key and fetches its history
// when none was loaded. Switching away from a conversation whose reply is
// still being revealed completes that reply at once.
func (c *Controller) Select(key string) (tea.Cmd, error) {
	if c.closed {
		return nil, ErrClosed
	}
	conv := c.Find(key)
	if conv == nil {
		return nil, ErrUnknownConversation
	}
	if conv != c.active {
		c.finishReveal()
	}
	c.active = conv
	if !conv.Loaded && conv.ID.IsPersisted() {
		return c.loadConversation(conv), nil
	}
	return nil, nil
}

// Deselect clears the active conversation so the next send starts a new
// one.
func (c *Controller) Deselect() {
	c.finishReveal()
	c.active = nil
}

// =============================================================================
// NEW CHAT
// =============================================================================

// NewChat creates a conversation on the backend and activates it once the
// backend answers.
func (c *Controller) NewChat() tea.Cmd {
	if c.closed {
		return nil
	}
	return c.createConversation(0)
}

func (c *Controller) createConversation(sendID uint64) tea.Cmd {
	backend, ctxFn, owner := c.backend, c.ctx, c.id
	return func() tea.Msg {
		ctx, cancel := ctxFn()
		defer cancel()
		created, err := backend.CreateConversation(ctx)
		return ConversationCreatedMsg{Owner: owner, SendID: sendID, Created: created, Err: err}
	}
}

func (c *Controller) handleCreated(msg ConversationCreatedMsg) tea.Cmd {
	if msg.SendID != 0 {
		return c.handleCreatedForSend(msg)
	}
	if msg.Err != nil {
		if !c.failed(msg.Err) {
			log.WithError(msg.Err).Warn("creating conversation failed")
			c.notify(NoticeError, newChatFailed)
		}
		return nil
	}
	created := msg.Created
	title := created.Title
	if title == "" {
		title = model.DefaultTitle
	}
	conv := model.NewPersistedConversation(created.ID.String(), title, created.CreatedAt.Time, created.CreatedAt.Time)
	if conv.CreatedAt.IsZero() {
		conv.CreatedAt = c.opts.Now()
		conv.UpdatedAt = conv.CreatedAt
	}
	conv.Loaded = true
	c.prepend(conv)
	c.finishReveal()
	c.active = conv
	return nil
}

// =============================================================================
// RENAME AND DELETE
// =============================================================================

// Rename changes a conversation's title locally. The backend has no rename
// endpoint, so the title lasts until the next list refresh replaces it.
func (c *Controller) Rename(key, title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return ErrEmptyTitle
	}
	conv := c.Find(key)
	if conv == nil {
		return ErrUnknownConversation
	}
	conv.SetTitle(title)
	return nil
}

// Delete removes a conversation on the backend and then locally. A
// conversation the backend never acknowledged is removed locally only.
func (c *Controller) Delete(key string) (tea.Cmd, error) {
	if c.closed {
		return nil, ErrClosed
	}
	conv := c.Find(key)
	if conv == nil {
		return nil, ErrUnknownConversation
	}
	if c.send != nil && c.send.conv == conv {
		return nil, ErrBusy
	}
	if !conv.ID.IsPersisted() {
		c.dropConversation(conv)
		return nil, nil
	}

	backend, ctxFn, owner := c.backend, c.ctx, c.id
	id := conv.ID.ServerID()
	return func() tea.Msg {
		ctx, cancel := ctxFn()
		defer cancel()
		return ConversationDeletedMsg{Owner: owner, Key: key, Err: backend.DeleteConversation(ctx, id)}
	}, nil
}

func (c *Controller) handleDeleted(msg ConversationDeletedMsg) tea.Cmd {
	if msg.Err != nil {
		if !c.failed(msg.Err) {
			log.WithError(msg.Err).WithField("conversation", msg.Key).Warn("deleting conversation failed")
			c.notify(NoticeError, api.UserMessage(msg.Err, deleteFailedText))
		}
		return nil
	}
	if conv := c.Find(msg.Key); conv != nil {
		c.dropConversation(conv)
	}
	c.notify(NoticeSuccess, deletedText)
	return nil
}

// dropConversation removes conv, stopping a reveal writing into it.
func (c *Controller) dropConversation(conv *model.Conversation) {
	if c.reveal != nil && c.reveal.conv == conv {
		c.reveal.task.Cancel()
		c.reveal = nil
	}
	c.remove(conv)
}

// =============================================================================
// TITLE REFRESH
// =============================================================================

func (c *Controller) refreshTitle(conv *model.Conversation) tea.Cmd {
	id := conv.ID.ServerID()
	if id == "" {
		return nil
	}
	backend, ctxFn, owner := c.backend, c.ctx, c.id
	key := conv.ID.Key()
	return func() tea.Msg {
		ctx, cancel := ctxFn()
		defer cancel()
		detail, err := backend.GetConversation(ctx, id)
		return TitleRefreshedMsg{Owner: owner, Key: key, Detail: detail, Err: err}
	}
}

func (c *Controller) handleTitleRefreshed(msg TitleRefreshedMsg) tea.Cmd {
	if msg.Err != nil {
		log.WithError(msg.Err).WithField("conversation", msg.Key).Debug("title refresh failed")
		return nil
	}
	conv := c.Find(msg.Key)
	if conv == nil {
		return nil
	}
	if msg.Detail.Title != "" {
		conv.Title = msg.Detail.Title
	}
	if !msg.Detail.UpdatedAt.IsZero() {
		conv.UpdatedAt = msg.Detail.UpdatedAt.Time
	}
	return nil
}
