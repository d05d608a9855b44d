// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package conversation

import (
	"errors"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	log "github.com/sirupsen/logrus"

	"github.com/jeranaias/evo-tui/internal/api"
	"github.com/jeranaias/evo-tui/internal/model"
	"github.com/jeranaias/evo-tui/internal/reveal"
)

// =============================================================================
// SEND
// =============================================================================

// Send posts content into the active conversation, creating one when none
// is active. The user message and the reply placeholder are shown before
// the backend answers and are removed again if it fails.
func (c *Controller) Send(content string) (tea.Cmd, error) {
	if c.closed {
		return nil, ErrClosed
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyMessage
	}
	if c.usage != nil && c.usage.LimitReached() {
		c.notify(NoticeLimit, limitText)
		return nil, ErrLimitReached
	}
	if c.send != nil {
		c.notify(NoticeWarning, busyText)
		return nil, ErrBusy
	}
	c.finishReveal()

	c.sendSeq++
	ps := &pendingSend{id: c.sendSeq, content: content}

	conv := c.active
	if conv == nil {
		conv = model.NewLocalConversation()
		conv.CreatedAt = c.opts.Now()
		conv.UpdatedAt = conv.CreatedAt
		conv.Title = model.TitleFrom(content)
		c.prepend(conv)
		c.active = conv
		ps.created = true
	}
	ps.conv = conv
	ps.user = conv.AddUserMessage(content)
	ps.placeholder = conv.AddPlaceholder()
	c.send = ps

	log.WithFields(log.Fields{
		"send":         ps.id,
		"conversation": conv.ID.String(),
		"new":          ps.created,
	}).Debug("sending message")

	if ps.created || !conv.ID.IsPersisted() {
		return c.createConversation(ps.id), nil
	}
	return c.ask(ps), nil
}

func (c *Controller) handleCreatedForSend(msg ConversationCreatedMsg) tea.Cmd {
	ps := c.send
	if ps == nil || ps.id != msg.SendID {
		return nil
	}
	if msg.Err != nil {
		return c.rollback(ps, msg.Err, createFailedText)
	}
	ps.conv.Persist(msg.Created.ID.String(), msg.Created.CreatedAt.Time)
	return c.ask(ps)
}

func (c *Controller) ask(ps *pendingSend) tea.Cmd {
	backend, ctxFn, owner := c.backend, c.ctx, c.id
	id, content, convID := ps.id, ps.content, ps.conv.ID.ServerID()
	return func() tea.Msg {
		ctx, cancel := ctxFn()
		defer cancel()
		reply, err := backend.Ask(ctx, content, convID)
		return AskDoneMsg{Owner: owner, SendID: id, Reply: reply, Err: err}
	}
}

func (c *Controller) handleAskDone(msg AskDoneMsg) tea.Cmd {
	ps := c.send
	if ps == nil || ps.id != msg.SendID {
		return nil
	}
	if msg.Err != nil {
		return c.rollback(ps, msg.Err, sendFailedText)
	}
	c.send = nil

	if !c.contains(ps.conv) {
		// Deleted while the reply was pending.
		return nil
	}

	text := msg.Reply.Reply
	if strings.TrimSpace(text) == "" {
		text = NoResponseText
	}
	if newID := msg.Reply.ConversationID.String(); newID != "" && newID != ps.conv.ID.ServerID() {
		log.WithFields(log.Fields{"from": ps.conv.ID.ServerID(), "to": newID}).Info("backend moved conversation")
		ps.conv.ID = ps.conv.ID.Promote(newID)
	}
	ps.conv.UpdatedAt = c.opts.Now()

	return tea.Batch(
		c.startReveal(ps, text),
		c.refreshTitle(ps.conv),
		c.loadUsage(),
	)
}

// rollback undoes the optimistic part of a failed send.
func (c *Controller) rollback(ps *pendingSend, err error, fallback string) tea.Cmd {
	c.send = nil
	ps.conv.RemoveMessage(ps.placeholder.ID)
	ps.conv.RemoveMessage(ps.user.ID)
	if ps.created {
		if ps.conv.ID.IsPersisted() {
			ps.conv.Title = model.DefaultTitle
		} else {
			c.remove(ps.conv)
		}
	}
	c.draft = ps.content

	log.WithError(err).WithField("send", ps.id).Warn("send failed, rolled back")

	switch {
	case c.failed(err):
		return nil
	case errors.Is(err, api.ErrUsageLimit):
		c.notify(NoticeLimit, limitText)
		return c.loadUsage()
	default:
		c.notify(NoticeError, api.UserMessage(err, fallback))
		return nil
	}
}

// =============================================================================
// REVEAL
// =============================================================================

// startReveal begins revealing text into the placeholder of ps. The first chunk is written
// immediately.
func (c *Controller) startReveal(ps *pendingSend, text string) tea.Cmd {
	if c.opts.RevealDelay <= 0 {
		ps.placeholder.Content = text
		ps.placeholder.Pending = false
		return nil
	}
	c.reveal = &activeReveal{task: reveal.NewTask(text), conv: ps.conv, user: ps.user, msg: ps.placeholder}
	return c.stepReveal()
}

func (c *Controller) stepReveal() tea.Cmd {
	r := c.reveal
	content, done, ok := r.task.Step()
	if !ok {
		c.reveal = nil
		return nil
	}
	r.msg.Content = content
	if done {
		r.msg.Pending = false
		c.reveal = nil
		return nil
	}
	id, delay := r.task.ID(), c.opts.RevealDelay
	return tea.Tick(delay, func(time.Time) tea.Msg {
		return RevealTickMsg{TaskID: id}
	})
}

func (c *Controller) handleRevealTick(msg RevealTickMsg) tea.Cmd {
	if c.reveal == nil || c.reveal.task.ID() != msg.TaskID {
		return nil
	}
	return c.stepReveal()
}

// finishReveal cancels a running reveal and commits the full reply.
func (c *Controller) finishReveal() {
	r := c.reveal
	if r == nil {
		return
	}
	r.task.Cancel()
	r.msg.Content = r.task.Text()
	r.msg.Pending = false
	c.reveal = nil
}
