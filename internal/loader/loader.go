package loader

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"notesmith/internal/note"

	"github.com/adrg/frontmatter"
)

// Loader turns a directory of Markdown files into Document records.
type Loader struct {
	fsys    fs.FS
	ignored []string
}

// NewLoader creates a loader over the given filesystem root.
func NewLoader(fsys fs.FS) *Loader {
	return &Loader{
		fsys:    fsys,
		ignored: []string{".git", "node_modules", "_site", "testdata"},
	}
}

type frontMatterEnvelope struct {
	Title   string         `yaml:"title"`
	Slug    string         `yaml:"slug"`
	Summary string         `yaml:"summary"`
	Tags    []string       `yaml:"tags"`
	Related []string       `yaml:"related"`
	Draft   bool           `yaml:"draft"`
	Extra   map[string]any `yaml:",inline"`
}

// LoadAll walks the root and loads every Markdown file. A source that cannot
// be read or parsed is reported as a load warning and skipped; the batch
// never aborts. An empty tree yields an empty set.
func (l *Loader) LoadAll() ([]*note.Document, []note.Warning, error) {
	var docs []*note.Document
	var warnings []note.Warning

	err := fs.WalkDir(l.fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			warnings = append(warnings, note.NewWarning(note.KindLoadError, p, "", 0, err.Error()))
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if p == "." {
				return nil
			}
			name := d.Name()
			if strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") {
				return fs.SkipDir
			}
			for _, ign := range l.ignored {
				if name == ign {
					return fs.SkipDir
				}
			}
			return nil
		}

		if !strings.HasSuffix(d.Name(), ".md") {
			return nil
		}

		doc, err := l.LoadFile(p)
		if err != nil {
			warnings = append(warnings, note.NewWarning(note.KindLoadError, docID(p), "", 0, err.Error()))
			return nil
		}
		docs = append(docs, doc)
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("walk notes root: %w", err)
	}

	// Stable order regardless of filesystem iteration.
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })

	return docs, warnings, nil
}

// LoadFile reads and parses a single Markdown document.
func (l *Loader) LoadFile(p string) (*note.Document, error) {
	data, err := fs.ReadFile(l.fsys, p)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", p, err)
	}

	var meta frontMatterEnvelope
	body, err := frontmatter.Parse(bytes.NewReader(data), &meta)
	if err != nil {
		return nil, fmt.Errorf("parse frontmatter %s: %w", p, err)
	}

	hash := sha256.Sum256(data)
	lines := splitLines(body)

	doc := &note.Document{
		ID:          docID(p),
		Path:        p,
		Title:       meta.Title,
		Slug:        meta.Slug,
		Summary:     meta.Summary,
		Tags:        append([]string(nil), meta.Tags...),
		Related:     append([]string(nil), meta.Related...),
		Draft:       meta.Draft,
		Extra:       meta.Extra,
		Lines:       lines,
		ContentHash: hex.EncodeToString(hash[:]),
	}

	if doc.Title == "" {
		doc.Title = deriveTitle(lines, doc.ID)
	}

	return doc, nil
}

// docID maps a source path to a document identifier: the slash path relative
// to the root, minus the .md extension.
func docID(p string) string {
	return strings.TrimSuffix(path.Clean(p), ".md")
}

func splitLines(body []byte) []string {
	normalized := strings.ReplaceAll(string(body), "\r\n", "\n")
	normalized = strings.TrimSuffix(normalized, "\n")
	if normalized == "" {
		return nil
	}
	return strings.Split(normalized, "\n")
}

// deriveTitle falls back to the first top-level heading, then the ID base.
func deriveTitle(lines []string, id string) string {
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# ") {
			return strings.TrimSpace(trimmed[2:])
		}
	}
	return path.Base(id)
}
