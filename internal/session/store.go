// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/jeranaias/evo-tui/internal/util"
)

// TokenFileName is the name of the token file inside the config directory.
const TokenFileName = "session"

// =============================================================================
// TOKEN STORE
// =============================================================================

// Store persists the bearer token on disk.
type Store struct {
	path string
}

// NewStore creates a store that keeps the token in dir.
func NewStore(dir string) *Store {
	return &Store{path: filepath.Join(dir, TokenFileName)}
}

// Path returns the token file path.
func (s *Store) Path() string {
	return s.path
}

// Load reads the stored token. A missing file yields "".
func (s *Store) Load() (string, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", errors.Wrap(err, "read session token")
	}
	return strings.TrimSpace(string(data)), nil
}

// Save writes the token with owner-only permissions. The file is replaced
// atomically so a concurrent reader never sees a partial token.
func (s *Store) Save(token string) error {
	return errors.Wrap(util.AtomicWriteFile(s.path, []byte(token+"\n"), 0600, 0700), "save session token")
}

// Clear removes the stored token. Clearing a missing token is not an error.
func (s *Store) Clear() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "remove session token")
	}
	return nil
}
