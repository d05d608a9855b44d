// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestStore opens a store in a temp dir with a controllable clock.
func newTestStore(t *testing.T) (*DraftStore, *time.Time) {
	t.Helper()
	store, err := OpenDraftStore(filepath.Join(t.TempDir(), "nested", "drafts.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	now := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	return store, &now
}

func TestDraftStore_SaveLoad(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	_, err := store.Load(ctx, "42")
	assert.ErrorIs(t, err, ErrDraftNotFound)

	require.NoError(t, store.Save(ctx, "42", "half a thought"))
	d, err := store.Load(ctx, "42")
	require.NoError(t, err)
	assert.Equal(t, "half a thought", d.Content)
	assert.Equal(t, "42", d.Key)
	assert.False(t, d.UpdatedAt.IsZero())

	require.NoError(t, store.Save(ctx, "42", "a full thought"))
	d, err = store.Load(ctx, "42")
	require.NoError(t, err)
	assert.Equal(t, "a full thought", d.Content)
}

func TestDraftStore_BlankDeletes(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "42", "text"))
	require.NoError(t, store.Save(ctx, "42", "   "))
	_, err := store.Load(ctx, "42")
	assert.ErrorIs(t, err, ErrDraftNotFound)

	assert.NoError(t, store.Delete(ctx, "missing"))
}

func TestDraftStore_NewChatKey(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "", "first message"))
	d, err := store.Load(ctx, NewChatKey)
	require.NoError(t, err)
	assert.Equal(t, "first message", d.Content)
}

func TestDraftStore_ListOrderAndLimit(t *testing.T) {
	store, now := newTestStore(t)
	ctx := context.Background()
	store.MaxDrafts = 2

	for _, key := range []string{"a", "b", "c"} {
		require.NoError(t, store.Save(ctx, key, "draft "+key))
		*now = now.Add(time.Minute)
	}

	drafts, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, drafts, 2)
	assert.Equal(t, "c", drafts[0].Key)
	assert.Equal(t, "b", drafts[1].Key)
}

func TestDraftStore_Search(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "1", "Quarterly REPORT numbers"))
	require.NoError(t, store.Save(ctx, "2", "lunch plans"))
	require.NoError(t, store.Save(ctx, "3", "100% done"))

	found, err := store.Search(ctx, "report")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "1", found[0].Key)

	found, err = store.Search(ctx, "%")
	require.NoError(t, err)
	require.Len(t, found, 1, "wildcards are literal")
	assert.Equal(t, "3", found[0].Key)
}

func TestDraftStore_Rekey(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "local-uuid", "pending text"))
	require.NoError(t, store.Rekey(ctx, "local-uuid", "77"))

	_, err := store.Load(ctx, "local-uuid")
	assert.ErrorIs(t, err, ErrDraftNotFound)
	d, err := store.Load(ctx, "77")
	require.NoError(t, err)
	assert.Equal(t, "pending text", d.Content)

	require.NoError(t, store.Rekey(ctx, "nothing", "77"), "missing source keeps the target")
	_, err = store.Load(ctx, "77")
	assert.NoError(t, err)
}

func TestDraftStore_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "drafts.db")
	ctx := context.Background()

	store, err := OpenDraftStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, "9", "survives restarts"))
	require.NoError(t, store.Close())

	store, err = OpenDraftStore(path)
	require.NoError(t, err)
	defer store.Close()
	d, err := store.Load(ctx, "9")
	require.NoError(t, err)
	assert.Equal(t, "survives restarts", d.Content)
}

func TestDraft_Preview(t *testing.T) {
	d := Draft{Content: "  first line that is long\nsecond"}
	assert.Equal(t, "first line that is long", d.Preview(40))
	assert.Equal(t, "first l...", d.Preview(10))
}
