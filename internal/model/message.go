// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"strings"
	"time"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ParseRole normalises a role as sent by the backend ("USER", "ASSISTANT",
// "user", ...). Anything that is not the user is treated as the assistant.
func ParseRole(s string) Role {
	if strings.EqualFold(strings.TrimSpace(s), string(RoleUser)) {
		return RoleUser
	}
	return RoleAssistant
}

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "AI"
	default:
		return string(r)
	}
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message represents a single message in a conversation.
type Message struct {
	ID        ID
	Role      Role
	Content   string
	Timestamp time.Time

	// Pending marks the assistant placeholder while its reply is outstanding
	// or still being revealed.
	Pending bool
}

// NewUserMessage creates a user message with a local id.
func NewUserMessage(content string) *Message {
	return &Message{
		ID:        NewLocalID(),
		Role:      RoleUser,
		Content:   content,
		Timestamp: time.Now(),
	}
}

// NewPlaceholder creates an empty assistant message reserving the display
// position of a pending reply.
func NewPlaceholder() *Message {
	return &Message{
		ID:        NewLocalID(),
		Role:      RoleAssistant,
		Timestamp: time.Now(),
		Pending:   true,
	}
}

// IsPlaceholder reports whether m is an assistant message with no content.
func (m *Message) IsPlaceholder() bool {
	return m.Role == RoleAssistant && m.Content == ""
}

// Preview returns a truncated preview of the message content.
// Uses rune-based truncation to handle Unicode correctly.
func (m *Message) Preview(maxLen int) string {
	runes := []rune(m.Content)
	if len(runes) <= maxLen {
		return m.Content
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}
