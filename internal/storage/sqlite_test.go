package storage

import (
	"context"
	"path/filepath"
	"testing"

	"notesmith/internal/note"
	"notesmith/internal/xref"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStore_SaveAndLoad(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	docs := []*note.Document{
		{
			ID:          "ts/generics",
			Path:        "ts/generics.md",
			Title:       "Generics",
			ContentHash: "hash-a",
			Tags:        []string{"typescript"},
			Related:     []string{"ts/narrowing"},
		},
		{ID: "ts/narrowing", Path: "ts/narrowing.md", Title: "Narrowing", ContentHash: "hash-b"},
	}
	sections := map[string][]note.Section{
		"ts/generics": {
			{ID: "s1", DocumentID: "ts/generics", Level: 1, Title: "Generics", StartLine: 1},
			{ID: "s2", DocumentID: "ts/generics", Level: 2, Title: "Constraints", StartLine: 5},
		},
	}
	edges := []xref.Edge{{A: "ts/generics", B: "ts/narrowing"}}
	warnings := []note.Warning{
		note.NewWarning(note.KindDanglingReference, "ts/generics", "ghost", 0, "unknown"),
	}

	require.NoError(t, store.SaveSite(ctx, docs, sections, edges, warnings))

	t.Run("Documents round-trip with metadata", func(t *testing.T) {
		loaded, err := store.LoadDocuments(ctx)
		require.NoError(t, err)
		require.Len(t, loaded, 2)
		assert.Equal(t, "ts/generics", loaded[0].ID)
		assert.Equal(t, []string{"typescript"}, loaded[0].Tags)
		assert.Equal(t, []string{"ts/narrowing"}, loaded[0].Related)
		assert.Equal(t, "hash-a", loaded[0].ContentHash)
	})

	t.Run("Hashes", func(t *testing.T) {
		hashes, err := store.DocumentHashes(ctx)
		require.NoError(t, err)
		assert.Equal(t, map[string]string{
			"ts/generics":  "hash-a",
			"ts/narrowing": "hash-b",
		}, hashes)
	})

	t.Run("Edges", func(t *testing.T) {
		loaded, err := store.LoadEdges(ctx)
		require.NoError(t, err)
		assert.Equal(t, edges, loaded)
	})
}

func TestSQLiteStore_SaveIsUpsert(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	doc := &note.Document{ID: "a", Path: "a.md", Title: "Old", ContentHash: "h1"}
	require.NoError(t, store.SaveSite(ctx, []*note.Document{doc}, nil, nil, nil))

	doc.Title = "New"
	doc.ContentHash = "h2"
	require.NoError(t, store.SaveSite(ctx, []*note.Document{doc}, nil, []xref.Edge{{A: "a", B: "b"}}, nil))

	loaded, err := store.LoadDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "New", loaded[0].Title)
	assert.Equal(t, "h2", loaded[0].ContentHash)

	// Edges are replaced wholesale, matching the resolver's
	// rebuild-from-scratch contract.
	edges, err := store.LoadEdges(ctx)
	require.NoError(t, err)
	assert.Len(t, edges, 1)
}

func TestSQLiteStore_DeleteDocument(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	docs := []*note.Document{
		{ID: "keep", Path: "keep.md", ContentHash: "h1"},
		{ID: "drop", Path: "drop.md", ContentHash: "h2"},
	}
	sections := map[string][]note.Section{
		"drop": {{ID: "s1", DocumentID: "drop", Level: 1, Title: "Gone"}},
	}
	require.NoError(t, store.SaveSite(ctx, docs, sections, nil, nil))

	require.NoError(t, store.DeleteDocument(ctx, "drop"))

	hashes, err := store.DocumentHashes(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"keep": "h1"}, hashes)
}
