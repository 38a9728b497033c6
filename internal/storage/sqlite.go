package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"notesmith/internal/note"
	"notesmith/internal/xref"

	_ "github.com/mattn/go-sqlite3"
)

type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates or opens a SQLite database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to init schema: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			id TEXT PRIMARY KEY,
			path TEXT,
			title TEXT,
			content_hash TEXT,
			meta JSON
		);`,
		`CREATE TABLE IF NOT EXISTS sections (
			id TEXT PRIMARY KEY,
			document_id TEXT,
			title TEXT,
			level INTEGER,
			start_line INTEGER,
			position INTEGER
		);`,
		`CREATE TABLE IF NOT EXISTS edges (
			a TEXT,
			b TEXT,
			PRIMARY KEY (a, b)
		);`,
		`CREATE TABLE IF NOT EXISTS warnings (
			kind TEXT,
			severity TEXT,
			document_id TEXT,
			target TEXT,
			line INTEGER,
			message TEXT
		);`,
		`CREATE INDEX IF NOT EXISTS idx_sections_doc ON sections(document_id);`,
	}

	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return err
		}
	}
	return nil
}

// docMeta is the JSON envelope for frontmatter-derived fields.
type docMeta struct {
	Slug    string         `json:"slug,omitempty"`
	Summary string         `json:"summary,omitempty"`
	Tags    []string       `json:"tags,omitempty"`
	Related []string       `json:"related,omitempty"`
	Draft   bool           `json:"draft,omitempty"`
	Extra   map[string]any `json:"extra,omitempty"`
}

// SaveSite upserts documents and sections and replaces edges and warnings
// wholesale. Edges are resolver output and always recomputed from scratch, so
// the table mirrors the latest resolve exactly.
func (s *SQLiteStore) SaveSite(ctx context.Context, docs []*note.Document, sections map[string][]note.Section, edges []xref.Edge, warnings []note.Warning) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	docStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO documents (id, path, title, content_hash, meta)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			path=excluded.path,
			title=excluded.title,
			content_hash=excluded.content_hash,
			meta=excluded.meta
	`)
	if err != nil {
		return err
	}
	defer docStmt.Close()

	secStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO sections (id, document_id, title, level, start_line, position)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			document_id=excluded.document_id,
			title=excluded.title,
			level=excluded.level,
			start_line=excluded.start_line,
			position=excluded.position
	`)
	if err != nil {
		return err
	}
	defer secStmt.Close()

	for _, doc := range docs {
		meta, err := json.Marshal(docMeta{
			Slug:    doc.Slug,
			Summary: doc.Summary,
			Tags:    doc.Tags,
			Related: doc.Related,
			Draft:   doc.Draft,
			Extra:   doc.Extra,
		})
		if err != nil {
			return fmt.Errorf("marshal meta for %s: %w", doc.ID, err)
		}
		if _, err := docStmt.Exec(doc.ID, doc.Path, doc.Title, doc.ContentHash, meta); err != nil {
			return err
		}

		// Sections are re-derived per build; drop stale rows first.
		if _, err := tx.ExecContext(ctx, "DELETE FROM sections WHERE document_id = ?", doc.ID); err != nil {
			return err
		}
		for pos, sec := range sections[doc.ID] {
			if _, err := secStmt.Exec(sec.ID, sec.DocumentID, sec.Title, sec.Level, sec.StartLine, pos); err != nil {
				return err
			}
		}
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM edges"); err != nil {
		return err
	}
	edgeStmt, err := tx.PrepareContext(ctx, "INSERT INTO edges (a, b) VALUES (?, ?)")
	if err != nil {
		return err
	}
	defer edgeStmt.Close()
	for _, edge := range edges {
		if _, err := edgeStmt.Exec(edge.A, edge.B); err != nil {
			return err
		}
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM warnings"); err != nil {
		return err
	}
	warnStmt, err := tx.PrepareContext(ctx, "INSERT INTO warnings (kind, severity, document_id, target, line, message) VALUES (?, ?, ?, ?, ?, ?)")
	if err != nil {
		return err
	}
	defer warnStmt.Close()
	for _, w := range warnings {
		if _, err := warnStmt.Exec(string(w.Kind), string(w.Severity), w.DocumentID, w.Target, w.Line, w.Message); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (s *SQLiteStore) LoadDocuments(ctx context.Context) ([]*note.Document, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, path, title, content_hash, meta FROM documents ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer rows.Close()

	var docs []*note.Document
	for rows.Next() {
		var doc note.Document
		var meta []byte
		if err := rows.Scan(&doc.ID, &doc.Path, &doc.Title, &doc.ContentHash, &meta); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		if len(meta) > 0 {
			var m docMeta
			if err := json.Unmarshal(meta, &m); err != nil {
				return nil, fmt.Errorf("decode meta for %s: %w", doc.ID, err)
			}
			doc.Slug = m.Slug
			doc.Summary = m.Summary
			doc.Tags = m.Tags
			doc.Related = m.Related
			doc.Draft = m.Draft
			doc.Extra = m.Extra
		}
		docs = append(docs, &doc)
	}
	return docs, rows.Err()
}

func (s *SQLiteStore) DocumentHashes(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, content_hash FROM documents")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	hashes := make(map[string]string)
	for rows.Next() {
		var id, hash string
		if err := rows.Scan(&id, &hash); err != nil {
			return nil, err
		}
		hashes[id] = hash
	}
	return hashes, rows.Err()
}

func (s *SQLiteStore) DeleteDocument(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM sections WHERE document_id = ?", id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id); err != nil {
		return err
	}
	return tx.Commit()
}

// LoadEdges returns the cached edge set in stored order.
func (s *SQLiteStore) LoadEdges(ctx context.Context) ([]xref.Edge, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT a, b FROM edges ORDER BY a, b")
	if err != nil {
		return nil, fmt.Errorf("failed to query edges: %w", err)
	}
	defer rows.Close()

	var edges []xref.Edge
	for rows.Next() {
		var e xref.Edge
		if err := rows.Scan(&e.A, &e.B); err != nil {
			return nil, fmt.Errorf("failed to scan edge: %w", err)
		}
		edges = append(edges, e)
	}
	return edges, rows.Err()
}
