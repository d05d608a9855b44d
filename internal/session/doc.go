// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session holds the authenticated session of the client.
//
// A Session is an explicit context object: it is created once, injected into
// the API client, started with Begin after a successful login and torn down
// with End on logout or whenever the backend answers 401. Nothing else in the
// program reads or writes the bearer token.
//
// # Key Types
//
//   - Session: in-memory bearer token plus the claims decoded from it
//   - Store: token persistence in ~/.evo/session (mode 0600)
//   - Watcher: fsnotify watch on the token file, so a logout in another
//     terminal ends this session too
//
// # Usage
//
//	store := session.NewStore(dir)
//	sess := session.New(store)
//	if err := sess.Restore(); err != nil { ... }
//	client := api.NewClient(baseURL, sess)
//	...
//	sess.End(session.ReasonLogout)
package session
