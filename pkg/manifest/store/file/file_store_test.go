// SPDX-License-Identifier: Apache-2.0

package file

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lakesift/lakesift/pkg/manifest"
)

func TestStore_AppendAndLatest(t *testing.T) {
	t.Parallel()

	store, err := New(filepath.Join(t.TempDir(), "manifests", "manifest.jsonl"))
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	processedAt := time.Date(2026, 8, 27, 10, 0, 0, 0, time.UTC)

	entries := []*manifest.Entry{
		{BatchID: "books", ContentHash: "hash-1", RowCount: 10, ProcessedAt: processedAt},
		{BatchID: "authors", ContentHash: "hash-a", RowCount: 3, ProcessedAt: processedAt.Add(time.Minute)},
		{BatchID: "books", ContentHash: "hash-2", RowCount: 12, ProcessedAt: processedAt.Add(2 * time.Minute)},
	}
	for _, entry := range entries {
		require.NoError(t, store.Append(ctx, entry))
	}

	latest, err := store.Latest(ctx, "books")
	require.NoError(t, err)
	require.Equal(t, entries[2], latest)

	latest, err = store.Latest(ctx, "authors")
	require.NoError(t, err)
	require.Equal(t, entries[1], latest)

	latest, err = store.Latest(ctx, "reviews")
	require.NoError(t, err)
	require.Nil(t, latest)
}

func TestStore_Latest_missingFile(t *testing.T) {
	t.Parallel()

	store := &Store{path: filepath.Join(t.TempDir(), "does-not-exist.jsonl")}

	latest, err := store.Latest(context.Background(), "books")
	require.NoError(t, err)
	require.Nil(t, latest)
}

func TestStore_survivesReopen(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "manifest.jsonl")
	ctx := context.Background()

	store, err := New(path)
	require.NoError(t, err)
	entry := &manifest.Entry{BatchID: "books", ContentHash: "hash-1", RowCount: 10, ProcessedAt: time.Now().UTC().Truncate(time.Second)}
	require.NoError(t, store.Append(ctx, entry))
	require.NoError(t, store.Close())

	reopened, err := New(path)
	require.NoError(t, err)
	defer reopened.Close()

	latest, err := reopened.Latest(ctx, "books")
	require.NoError(t, err)
	require.Equal(t, entry, latest)
}
