// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage keeps unsent message drafts in a local SQLite database.
//
// Conversations themselves live on the backend. What the terminal keeps is
// text that has not reached it: a message that was typed but not sent when
// the client quit, or a send that failed and was rolled back.
//
// # Usage
//
//	store, err := storage.OpenDraftStore(config.DraftsPath())
//	defer store.Close()
//	err = store.Save(ctx, conv.ID.Key(), text)
//	draft, err := store.Load(ctx, conv.ID.Key())
//
// # Storage Location
//
// Drafts are stored in ~/.evo/drafts.db.
package storage
