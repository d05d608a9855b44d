// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// ID TESTS
// =============================================================================

func TestID_LocalToPersisted(t *testing.T) {
	id := Local("tmp-1")
	assert.False(t, id.IsPersisted())
	assert.Equal(t, "tmp-1", id.String())
	assert.Equal(t, "tmp-1", id.Key())

	promoted := id.Promote("42")
	assert.True(t, promoted.IsPersisted())
	assert.Equal(t, "42", promoted.String())
	assert.Equal(t, "42", promoted.ServerID())
	assert.Equal(t, "tmp-1", promoted.Key(), "key must survive promotion")
	assert.True(t, promoted.Matches("42"))
	assert.True(t, promoted.Matches("tmp-1"))
	assert.False(t, promoted.Matches(""))
}

func TestID_Zero(t *testing.T) {
	var id ID
	assert.True(t, id.IsZero())
	assert.False(t, id.Matches(""))
	assert.False(t, Persisted("7").IsZero())
	assert.NotEqual(t, NewLocalID(), NewLocalID())
}

// =============================================================================
// ROLE TESTS
// =============================================================================

func TestParseRole(t *testing.T) {
	tests := map[string]Role{
		"USER":      RoleUser,
		"user":      RoleUser,
		" User ":    RoleUser,
		"ASSISTANT": RoleAssistant,
		"assistant": RoleAssistant,
		"BOT":       RoleAssistant,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseRole(in), in)
	}
	assert.Equal(t, "You", RoleUser.DisplayName())
	assert.Equal(t, "AI", RoleAssistant.DisplayName())
}

// =============================================================================
// CONVERSATION TESTS
// =============================================================================

func TestConversation_SinglePlaceholder(t *testing.T) {
	conv := NewLocalConversation()
	conv.AddUserMessage("one")
	conv.AddPlaceholder()
	conv.AddUserMessage("two")
	p := conv.AddPlaceholder()

	assert.Equal(t, 1, conv.Placeholders())
	require.Len(t, conv.Messages, 3)
	assert.Same(t, p, conv.LastMessage())
	assert.Equal(t, "one", conv.Messages[0].Content)
	assert.Equal(t, "two", conv.Messages[1].Content)
}

func TestConversation_RemoveMessageKeepsOrder(t *testing.T) {
	conv := NewLocalConversation()
	a := conv.AddUserMessage("a")
	b := conv.AddUserMessage("b")
	c := conv.AddUserMessage("c")

	before := conv.Messages
	require.True(t, conv.RemoveMessage(b.ID))
	assert.False(t, conv.RemoveMessage(b.ID))

	require.Len(t, conv.Messages, 2)
	assert.Same(t, a, conv.Messages[0])
	assert.Same(t, c, conv.Messages[1])
	assert.Len(t, before, 3, "removal must not mutate earlier snapshots")
	assert.Same(t, b, before[1])
}

func TestConversation_Persist(t *testing.T) {
	conv := NewLocalConversation()
	key := conv.ID.Key()
	created := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	conv.Persist("99", created)

	assert.True(t, conv.ID.IsPersisted())
	assert.Equal(t, "99", conv.ID.String())
	assert.Equal(t, key, conv.ID.Key())
	assert.Equal(t, created, conv.CreatedAt)
}

func TestTitleFrom(t *testing.T) {
	assert.Equal(t, "Hello", TitleFrom("Hello"))
	assert.Equal(t, "one two three four five six...", TitleFrom("one two three four five six seven"))
	assert.Equal(t, "one two three four five six", TitleFrom("one two three four five six"))
}

func TestConversation_GetTitleDefault(t *testing.T) {
	conv := NewLocalConversation()
	assert.Equal(t, DefaultTitle, conv.GetTitle())
	conv.SetTitle("Plans")
	assert.Equal(t, "Plans", conv.GetTitle())
}

func TestConversation_CloneIsDeep(t *testing.T) {
	conv := NewLocalConversation()
	conv.AddUserMessage("hi")
	clone := conv.Clone()
	clone.Messages[0].Content = "changed"
	assert.Equal(t, "hi", conv.Messages[0].Content)
}

func TestMessage_Preview(t *testing.T) {
	m := &Message{Content: "héllo wörld"}
	assert.Equal(t, "héllo wörld", m.Preview(20))
	assert.Equal(t, "hé...", m.Preview(5))
}
