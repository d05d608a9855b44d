// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"github.com/google/uuid"
)

// =============================================================================
// ID TYPE
// =============================================================================

// ID identifies a conversation or message. It is either Local, generated by
// the client for an optimistic entry, or Persisted, assigned by the server.
// The zero value is an empty Local id and matches nothing.
type ID struct {
	local  string
	server string
}

// Local returns a client-generated identifier.
func Local(tempID string) ID {
	return ID{local: tempID}
}

// NewLocalID returns a fresh client-generated identifier.
func NewLocalID() ID {
	return Local(uuid.NewString())
}

// Persisted returns a server-assigned identifier.
func Persisted(serverID string) ID {
	return ID{server: serverID}
}

// IsPersisted reports whether the server has assigned this identifier.
func (id ID) IsPersisted() bool {
	return id.server != ""
}

// IsZero reports whether the identifier is unset.
func (id ID) IsZero() bool {
	return id.local == "" && id.server == ""
}

// ServerID returns the server-assigned id, or "" for local ids.
func (id ID) ServerID() string {
	return id.server
}

// LocalID returns the client-generated id, or "" when none was ever assigned.
func (id ID) LocalID() string {
	return id.local
}

// Promote returns the persisted form of id. The local part is kept so
// lookups made before the server answered still resolve.
func (id ID) Promote(serverID string) ID {
	return ID{local: id.local, server: serverID}
}

// Matches reports whether key refers to this identifier, by either its
// server id or its local id.
func (id ID) Matches(key string) bool {
	if key == "" {
		return false
	}
	return key == id.server || key == id.local
}

// String returns the server id when persisted, otherwise the local id.
func (id ID) String() string {
	if id.server != "" {
		return id.server
	}
	return id.local
}

// Key returns a key that stays stable across the Local to Persisted
// transition: the local id when one was assigned, otherwise the server id.
func (id ID) Key() string {
	if id.local != "" {
		return id.local
	}
	return id.server
}
