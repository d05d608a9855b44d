// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package conversation

import (
	"github.com/jeranaias/evo-tui/internal/api"
)

// Every message below except RevealTickMsg carries the Owner id of the
// controller whose command produced it. A controller ignores messages owned
// by another one, such as results that resolve after a logout replaced it.

// =============================================================================
// LIST MESSAGES
// =============================================================================

// ConversationsLoadedMsg carries the result of GET /chat/conversations.
type ConversationsLoadedMsg struct {
	Owner          uint64
	List           []api.ConversationSummary
	PreserveActive bool
	Err            error
}

// ConversationLoadedMsg carries the history of one conversation. Known is
// the number of local messages when the fetch was issued.
type ConversationLoadedMsg struct {
	Owner  uint64
	Key    string
	Known  int
	Detail *api.ConversationDetail
	Err    error
}

// ConversationCreatedMsg carries the result of POST /chat/conversations.
// SendID is set when the create was issued by a send.
type ConversationCreatedMsg struct {
	Owner   uint64
	SendID  uint64
	Created *api.CreatedConversation
	Err     error
}

// ConversationDeletedMsg carries the result of a delete.
type ConversationDeletedMsg struct {
	Owner uint64
	Key   string
	Err   error
}

// TitleRefreshedMsg carries the server copy of a conversation after a reply,
// used only for its title.
type TitleRefreshedMsg struct {
	Owner  uint64
	Key    string
	Detail *api.ConversationDetail
	Err    error
}

// =============================================================================
// SEND MESSAGES
// =============================================================================

// AskDoneMsg carries the result of POST /chat/ask.
type AskDoneMsg struct {
	Owner  uint64
	SendID uint64
	Reply  *api.AskResponse
	Err    error
}

// RevealTickMsg advances the reveal task with the given id. Task ids are
// unique across controllers, so it carries no owner.
type RevealTickMsg struct {
	TaskID uint64
}

// =============================================================================
// ACCOUNT MESSAGES
// =============================================================================

// UsageLoadedMsg carries a usage snapshot.
type UsageLoadedMsg struct {
	Owner uint64
	Usage *api.Usage
	Err   error
}

// UsageTickMsg triggers a periodic usage refresh. Ticks of an older
// generation are ignored.
type UsageTickMsg struct {
	Owner uint64
	Gen   uint64
}

// IdentityLoadedMsg carries the result of GET /api/auth/me.
type IdentityLoadedMsg struct {
	Owner uint64
	Me    *api.Me
	Err   error
}
