package site

import (
	"path/filepath"
	"testing"

	"notesmith/internal/note"
	"notesmith/internal/xref"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleModel() *Model {
	docs := []*note.Document{
		{ID: "a", Path: "a.md", Title: "Alpha", ContentHash: "abc123"},
		{ID: "b", Path: "b.md", Title: "Bravo", ContentHash: "def456", Related: []string{"a"}},
	}
	sections := map[string][]note.Section{
		"a": {{ID: "s1", DocumentID: "a", Level: 1, Title: "Alpha", StartLine: 1}},
	}
	edges := []xref.Edge{{A: "a", B: "b"}}
	warnings := []note.Warning{
		note.NewWarning(note.KindDanglingReference, "a", "ghost", 0, "unknown target"),
	}
	return BuildModel("Notes", "2026-08-25T00:00:00Z", docs, sections, edges, warnings)
}

func TestModel_Validate(t *testing.T) {
	m := sampleModel()
	require.NoError(t, m.Validate())

	t.Run("Schema version is required", func(t *testing.T) {
		bad := sampleModel()
		bad.SchemaVersion = ""
		assert.Error(t, bad.Validate())
	})

	t.Run("Document IDs must be non-empty", func(t *testing.T) {
		bad := sampleModel()
		bad.Documents[0].ID = ""
		assert.Error(t, bad.Validate())
	})
}

func TestModel_SaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "site.json")

	m := sampleModel()
	require.NoError(t, m.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, m.SchemaVersion, loaded.SchemaVersion)
	assert.Equal(t, m.SiteTitle, loaded.SiteTitle)
	require.Len(t, loaded.Documents, 2)
	assert.Equal(t, "a", loaded.Documents[0].ID)
	assert.Equal(t, m.Edges, loaded.Edges)
	require.Len(t, loaded.Warnings, 1)
	assert.Equal(t, note.KindDanglingReference, loaded.Warnings[0].Kind)
}

func TestModel_EmptySiteIsValid(t *testing.T) {
	m := BuildModel("Notes", "2026-08-25T00:00:00Z", nil, nil, nil, nil)
	assert.NoError(t, m.Validate())
}
