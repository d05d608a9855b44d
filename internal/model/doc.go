// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
//
// This package defines the domain types the chat controller works on. The
// canonical copy of every conversation lives on the backend; the types here
// hold the in-memory view of it, including entities the user created locally
// that the backend has not acknowledged yet.
//
// # Key Types
//
//   - ID: tagged identifier, either Local (client-generated) or Persisted (server-assigned)
//   - Conversation: ordered list of messages plus title and timestamps
//   - Message: single message with role, content and timestamp
//   - Role: message role enumeration (user, assistant)
//
// # Usage
//
// Create a local conversation and reconcile it with the server id:
//
//	conv := model.NewLocalConversation()
//	conv.AddUserMessage("Hello")
//	placeholder := conv.AddPlaceholder()
//	conv.Persist("42", created)
package model
