// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// NewChatKey is the draft key used while no conversation is active.
const NewChatKey = "new"

// DefaultMaxDrafts bounds the number of stored drafts.
const DefaultMaxDrafts = 200

// ErrDraftNotFound is returned when no draft exists for a key.
var ErrDraftNotFound = errors.New("draft not found")

const schema = `
CREATE TABLE IF NOT EXISTS drafts (
    conversation TEXT PRIMARY KEY,
    content      TEXT NOT NULL,
    updated_at   INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_drafts_updated ON drafts(updated_at DESC);
`

// =============================================================================
// DRAFT TYPE
// =============================================================================

// Draft is unsent text for one conversation.
type Draft struct {
	Key       string    `json:"conversation"`
	Content   string    `json:"content"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Preview returns the first line of the draft, truncated to maxLen runes.
func (d Draft) Preview(maxLen int) string {
	line, _, _ := strings.Cut(strings.TrimSpace(d.Content), "\n")
	if r := []rune(line); len(r) > maxLen && maxLen > 3 {
		return string(r[:maxLen-3]) + "..."
	}
	return line
}

// =============================================================================
// DRAFT STORE
// =============================================================================

// DraftStore persists drafts in SQLite.
type DraftStore struct {
	db *sql.DB

	// MaxDrafts limits stored drafts (0 = unlimited). The oldest go first.
	MaxDrafts int

	now func() time.Time
}

// OpenDraftStore opens or creates the draft database at path.
func OpenDraftStore(path string) (*DraftStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, errors.Wrap(err, "create draft directory")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "open draft database")
	}

	// SQLite only supports one writer at a time.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=2000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, errors.Wrapf(err, "set %q", pragma)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "initialize draft schema")
	}

	return &DraftStore{db: db, MaxDrafts: DefaultMaxDrafts, now: time.Now}, nil
}

// Close closes the database.
func (s *DraftStore) Close() error {
	return s.db.Close()
}

// =============================================================================
// SAVE OPERATIONS
// =============================================================================

// Save stores content as the draft for key. Blank content deletes the
// draft instead.
func (s *DraftStore) Save(ctx context.Context, key, content string) error {
	if strings.TrimSpace(content) == "" {
		return s.Delete(ctx, key)
	}
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO drafts (conversation, content, updated_at) VALUES (?, ?, ?)
        ON CONFLICT(conversation) DO UPDATE SET content = excluded.content, updated_at = excluded.updated_at`,
		normalizeKey(key), content, s.now().UnixMilli())
	if err != nil {
		return errors.Wrap(err, "save draft")
	}
	log.WithField("conversation", key).Debug("draft saved")

	if s.MaxDrafts > 0 {
		s.enforceLimit(ctx)
	}
	return nil
}

// Rekey moves the draft stored under from to to, replacing any draft under
// to. It is used when a conversation receives its server id.
func (s *DraftStore) Rekey(ctx context.Context, from, to string) error {
	from, to = normalizeKey(from), normalizeKey(to)
	if from == to {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin rekey")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM drafts WHERE conversation = ? AND EXISTS (SELECT 1 FROM drafts WHERE conversation = ?)`, to, from); err != nil {
		return errors.Wrap(err, "rekey draft")
	}
	if _, err := tx.ExecContext(ctx, `UPDATE drafts SET conversation = ? WHERE conversation = ?`, to, from); err != nil {
		return errors.Wrap(err, "rekey draft")
	}
	return errors.Wrap(tx.Commit(), "commit rekey")
}

// enforceLimit removes the oldest drafts beyond MaxDrafts.
func (s *DraftStore) enforceLimit(ctx context.Context) {
	_, err := s.db.ExecContext(ctx, `
        DELETE FROM drafts WHERE conversation NOT IN (
            SELECT conversation FROM drafts ORDER BY updated_at DESC LIMIT ?
        )`, s.MaxDrafts)
	if err != nil {
		log.WithError(err).Warn("trimming drafts failed")
	}
}

// =============================================================================
// LOAD OPERATIONS
// =============================================================================

// Load returns the draft for key.
func (s *DraftStore) Load(ctx context.Context, key string) (Draft, error) {
	d := Draft{Key: normalizeKey(key)}
	var ms int64
	err := s.db.QueryRowContext(ctx, `SELECT content, updated_at FROM drafts WHERE conversation = ?`, d.Key).Scan(&d.Content, &ms)
	if errors.Is(err, sql.ErrNoRows) {
		return Draft{}, ErrDraftNotFound
	}
	if err != nil {
		return Draft{}, errors.Wrap(err, "load draft")
	}
	d.UpdatedAt = time.UnixMilli(ms)
	return d, nil
}

// List returns all drafts, most recent first.
func (s *DraftStore) List(ctx context.Context) ([]Draft, error) {
	return s.query(ctx, `SELECT conversation, content, updated_at FROM drafts ORDER BY updated_at DESC, conversation`)
}

// Search returns drafts whose content contains query, case-insensitively.
func (s *DraftStore) Search(ctx context.Context, query string) ([]Draft, error) {
	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(strings.ToLower(query))
	return s.query(ctx, `SELECT conversation, content, updated_at FROM drafts
        WHERE lower(content) LIKE ? ESCAPE '\' ORDER BY updated_at DESC, conversation`, "%"+escaped+"%")
}

func (s *DraftStore) query(ctx context.Context, q string, args ...any) ([]Draft, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, errors.Wrap(err, "list drafts")
	}
	defer rows.Close()

	drafts := []Draft{}
	for rows.Next() {
		var d Draft
		var ms int64
		if err := rows.Scan(&d.Key, &d.Content, &ms); err != nil {
			return nil, errors.Wrap(err, "scan draft")
		}
		d.UpdatedAt = time.UnixMilli(ms)
		drafts = append(drafts, d)
	}
	return drafts, errors.Wrap(rows.Err(), "list drafts")
}

// =============================================================================
// DELETE OPERATIONS
// =============================================================================

// Delete removes the draft for key. Deleting a missing draft is not an
// error.
func (s *DraftStore) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM drafts WHERE conversation = ?`, normalizeKey(key))
	return errors.Wrap(err, "delete draft")
}

func normalizeKey(key string) string {
	if key = strings.TrimSpace(key); key == "" {
		return NewChatKey
	}
	return key
}
