package loader

import (
	"errors"
	"io/fs"
	"testing"
	"testing/fstest"

	"notesmith/internal/note"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const genericsNote = `---
title: TypeScript Generics
tags: [typescript]
related:
  - typescript/narrowing
---

# TypeScript Generics

Body text.
`

const narrowingNote = `---
title: Type Narrowing
related:
  - typescript/generics
---

Narrowing content.
`

func TestLoadAll(t *testing.T) {
	fsys := fstest.MapFS{
		"typescript/generics.md":  {Data: []byte(genericsNote)},
		"typescript/narrowing.md": {Data: []byte(narrowingNote)},
		"README.txt":              {Data: []byte("not markdown")},
		".obsidian/cache.md":      {Data: []byte("hidden dir")},
		"node_modules/x/y.md":     {Data: []byte("ignored dir")},
	}

	docs, warnings, err := NewLoader(fsys).LoadAll()
	require.NoError(t, err)
	assert.Empty(t, warnings)
	require.Len(t, docs, 2)

	t.Run("IDs are extension-free slash paths, sorted", func(t *testing.T) {
		assert.Equal(t, "typescript/generics", docs[0].ID)
		assert.Equal(t, "typescript/narrowing", docs[1].ID)
	})

	t.Run("Frontmatter fields", func(t *testing.T) {
		assert.Equal(t, "TypeScript Generics", docs[0].Title)
		assert.Equal(t, []string{"typescript"}, docs[0].Tags)
		assert.Equal(t, []string{"typescript/narrowing"}, docs[0].Related)
	})

	t.Run("Body excludes frontmatter", func(t *testing.T) {
		require.NotEmpty(t, docs[0].Lines)
		assert.Equal(t, "# TypeScript Generics", docs[0].Lines[0])
	})

	t.Run("Content hash is stable", func(t *testing.T) {
		again, _, err := NewLoader(fsys).LoadAll()
		require.NoError(t, err)
		assert.Equal(t, docs[0].ContentHash, again[0].ContentHash)
		assert.NotEqual(t, docs[0].ContentHash, docs[1].ContentHash)
	})
}

func TestLoadAll_EmptyTree(t *testing.T) {
	docs, warnings, err := NewLoader(fstest.MapFS{}).LoadAll()
	require.NoError(t, err)
	assert.Empty(t, docs)
	assert.Empty(t, warnings)
}

// failFS makes one path unreadable to exercise skip-and-continue.
type failFS struct {
	inner fs.FS
	fail  string
}

func (f failFS) Open(name string) (fs.File, error) {
	if name == f.fail {
		return nil, errors.New("disk on fire")
	}
	return f.inner.Open(name)
}

func TestLoadAll_UnreadableSourceIsSkipped(t *testing.T) {
	fsys := failFS{
		inner: fstest.MapFS{
			"good.md": {Data: []byte("# Good\n")},
			"bad.md":  {Data: []byte("# Bad\n")},
		},
		fail: "bad.md",
	}

	docs, warnings, err := NewLoader(fsys).LoadAll()
	require.NoError(t, err)

	require.Len(t, docs, 1)
	assert.Equal(t, "good", docs[0].ID)

	require.Len(t, warnings, 1)
	assert.Equal(t, note.KindLoadError, warnings[0].Kind)
	assert.Equal(t, note.SeverityError, warnings[0].Severity)
	assert.Equal(t, "bad", warnings[0].DocumentID)
}

func TestLoadFile_TitleFallbacks(t *testing.T) {
	fsys := fstest.MapFS{
		"heading.md": {Data: []byte("# From Heading\n\ntext\n")},
		"bare.md":    {Data: []byte("just text\n")},
	}
	l := NewLoader(fsys)

	t.Run("First top-level heading wins", func(t *testing.T) {
		doc, err := l.LoadFile("heading.md")
		require.NoError(t, err)
		assert.Equal(t, "From Heading", doc.Title)
	})

	t.Run("ID base as last resort", func(t *testing.T) {
		doc, err := l.LoadFile("bare.md")
		require.NoError(t, err)
		assert.Equal(t, "bare", doc.Title)
	})
}

func TestLoadFile_MalformedFrontmatter(t *testing.T) {
	fsys := fstest.MapFS{
		"broken.md": {Data: []byte("---\ntitle: [unclosed\n---\nbody\n")},
	}

	_, err := NewLoader(fsys).LoadFile("broken.md")
	assert.Error(t, err)
}
