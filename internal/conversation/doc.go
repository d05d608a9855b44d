// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package conversation implements the conversation view controller: the
// ordered list of conversations, the active conversation, the send flow with
// optimistic updates and rollback, the progressive reveal of replies and the
// reconciliation of the local list with the server's.
//
// The controller is driven by a Bubble Tea event loop and is not safe for
// concurrent use. Operations that talk to the backend return a tea.Cmd; the
// command runs off the loop and resolves into a message that must be fed
// back through Update, which is the only place state changes after the
// optimistic step. Drive runs commands synchronously for callers without a
// tea.Program, such as the line-mode REPL and tests.
//
// # Send flow
//
//  1. Empty input, a reached usage limit or a reply still in flight reject
//     the send before any network call. A reveal still running is finished
//     at once.
//  2. Without an active conversation a local one is created and shown
//     immediately; the backend create follows and promotes its id.
//  3. The user message and an empty assistant placeholder are appended.
//  4. The reply is revealed into the placeholder chunk by chunk.
//  5. Any failure removes both messages again and hands the text back as a
//     draft.
package conversation
