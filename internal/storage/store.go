package storage

import (
	"context"

	"notesmith/internal/note"
	"notesmith/internal/xref"
)

// Store defines the operations the build cache must support. The cache is an
// accelerator, never the source of truth: a full build is always recomputable
// from the notes directory alone.
type Store interface {
	// SaveSite persists documents, their section outlines, the resolved
	// edge set, and the warning list of one build.
	SaveSite(ctx context.Context, docs []*note.Document, sections map[string][]note.Section, edges []xref.Edge, warnings []note.Warning) error

	// LoadDocuments retrieves the cached document records (metadata and
	// content hashes; body lines are not cached).
	LoadDocuments(ctx context.Context) ([]*note.Document, error)

	// DocumentHashes returns document ID -> content hash for change
	// detection.
	DocumentHashes(ctx context.Context) (map[string]string, error)

	// DeleteDocument removes one document and its sections from the cache.
	DeleteDocument(ctx context.Context, id string) error

	Close() error
}
