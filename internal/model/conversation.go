// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"strings"
	"time"
)

// DefaultTitle is shown for conversations that have no title yet.
const DefaultTitle = "New Chat"

// titleWords is the number of words kept when deriving a title from a message.
const titleWords = 6

// =============================================================================
// CONVERSATION TYPE
// =============================================================================

// Conversation holds the in-memory view of a chat conversation.
type Conversation struct {
	ID        ID
	Title     string
	CreatedAt time.Time
	UpdatedAt time.Time

	// Messages in display order. Never reordered.
	Messages []*Message

	// Loaded is set once the message history was fetched from the server.
	Loaded bool
}

// NewLocalConversation creates an optimistic conversation that the server
// has not acknowledged yet.
func NewLocalConversation() *Conversation {
	now := time.Now()
	return &Conversation{
		ID:        NewLocalID(),
		CreatedAt: now,
		UpdatedAt: now,
		Messages:  make([]*Message, 0),
		Loaded:    true,
	}
}

// NewPersistedConversation creates a conversation known to the server.
func NewPersistedConversation(serverID, title string, createdAt, updatedAt time.Time) *Conversation {
	return &Conversation{
		ID:        Persisted(serverID),
		Title:     title,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
		Messages:  make([]*Message, 0),
	}
}

// Persist records the server id and creation time of a local conversation.
func (c *Conversation) Persist(serverID string, createdAt time.Time) {
	c.ID = c.ID.Promote(serverID)
	if !createdAt.IsZero() {
		c.CreatedAt = createdAt
		c.UpdatedAt = createdAt
	}
}

// =============================================================================
// MESSAGE MANAGEMENT
// =============================================================================

// AddMessage appends a message to the conversation.
func (c *Conversation) AddMessage(msg *Message) {
	c.Messages = append(c.Messages, msg)
	c.UpdatedAt = time.Now()
}

// AddUserMessage creates and appends a user message.
func (c *Conversation) AddUserMessage(content string) *Message {
	msg := NewUserMessage(content)
	c.AddMessage(msg)
	return msg
}

// AddPlaceholder drops any existing empty assistant message and appends a
// fresh placeholder, so at most one exists at a time.
func (c *Conversation) AddPlaceholder() *Message {
	kept := make([]*Message, 0, len(c.Messages)+1)
	for _, m := range c.Messages {
		if !m.IsPlaceholder() {
			kept = append(kept, m)
		}
	}
	c.Messages = kept
	msg := NewPlaceholder()
	c.AddMessage(msg)
	return msg
}

// RemoveMessage removes the message with the given id.
func (c *Conversation) RemoveMessage(id ID) bool {
	for i, msg := range c.Messages {
		if msg.ID.Key() == id.Key() {
			kept := make([]*Message, 0, len(c.Messages)-1)
			kept = append(kept, c.Messages[:i]...)
			c.Messages = append(kept, c.Messages[i+1:]...)
			return true
		}
	}
	return false
}

// Message returns the message with the given id, or nil.
func (c *Conversation) Message(id ID) *Message {
	for _, msg := range c.Messages {
		if msg.ID.Key() == id.Key() {
			return msg
		}
	}
	return nil
}

// Placeholders returns the number of empty assistant messages.
func (c *Conversation) Placeholders() int {
	n := 0
	for _, m := range c.Messages {
		if m.IsPlaceholder() {
			n++
		}
	}
	return n
}

// LastMessage returns the most recent message, or nil if empty.
func (c *Conversation) LastMessage() *Message {
	if len(c.Messages) == 0 {
		return nil
	}
	return c.Messages[len(c.Messages)-1]
}

// IsEmpty returns true if there are no messages.
func (c *Conversation) IsEmpty() bool {
	return len(c.Messages) == 0
}

// =============================================================================
// TITLE MANAGEMENT
// =============================================================================

// SetTitle manually sets the conversation title.
func (c *Conversation) SetTitle(title string) {
	c.Title = title
	c.UpdatedAt = time.Now()
}

// GetTitle returns the conversation title or a default.
func (c *Conversation) GetTitle() string {
	if c.Title != "" {
		return c.Title
	}
	return DefaultTitle
}

// TitleFrom derives a title from the first words of a message.
func TitleFrom(content string) string {
	words := strings.Split(content, " ")
	if len(words) > titleWords {
		words = words[:titleWords]
	}
	title := strings.Join(words, " ")
	if len(title) < len(content) {
		return title + "..."
	}
	return title
}

// =============================================================================
// HELPERS
// =============================================================================

// Clone creates a deep copy of the conversation.
func (c *Conversation) Clone() *Conversation {
	clone := *c
	clone.Messages = make([]*Message, len(c.Messages))
	for i, msg := range c.Messages {
		msgCopy := *msg
		clone.Messages[i] = &msgCopy
	}
	return &clone
}
