package site

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"notesmith/internal/note"
	"notesmith/internal/xref"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

const schemaVersion = "v0.1.0"

//go:embed site_model.schema.json
var schemaJSON []byte

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

// Model is the persistable description of a built site: which documents were
// loaded, their section outlines, the resolved edge set, and every warning
// the build produced. It is validated against an embedded JSON Schema before
// write and after read.
type Model struct {
	SchemaVersion string           `json:"schema_version"`
	SiteTitle     string           `json:"site_title"`
	GeneratedAt   string           `json:"generated_at"`
	Documents     []*note.Document `json:"documents"`
	Sections      []note.Section   `json:"sections"`
	Edges         []xref.Edge      `json:"edges"`
	Warnings      []note.Warning   `json:"warnings"`
}

// BuildModel assembles the model from build results. Sections are flattened
// in document order so the output is deterministic.
func BuildModel(title, generatedAt string, docs []*note.Document, sectionsByDoc map[string][]note.Section, edges []xref.Edge, warnings []note.Warning) *Model {
	m := &Model{
		SchemaVersion: schemaVersion,
		SiteTitle:     title,
		GeneratedAt:   generatedAt,
		Documents:     docs,
		Edges:         edges,
		Warnings:      warnings,
	}
	for _, doc := range docs {
		m.Sections = append(m.Sections, sectionsByDoc[doc.ID]...)
	}
	if m.Documents == nil {
		m.Documents = []*note.Document{}
	}
	if m.Sections == nil {
		m.Sections = []note.Section{}
	}
	if m.Edges == nil {
		m.Edges = []xref.Edge{}
	}
	if m.Warnings == nil {
		m.Warnings = []note.Warning{}
	}
	return m
}

// Validate checks the model against the embedded schema.
func (m *Model) Validate() error {
	schema, err := loadCompiledSchema()
	if err != nil {
		return fmt.Errorf("compile site model schema: %w", err)
	}

	raw, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal site model: %w", err)
	}

	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return err
	}

	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("site model invalid: %w", err)
	}
	return nil
}

// Save validates the model and writes it as indented JSON.
func (m *Model) Save(path string) error {
	if err := m.Validate(); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create site model file: %w", err)
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(m); err != nil {
		return fmt.Errorf("encode site model: %w", err)
	}
	return nil
}

// Load reads a model from disk and validates it.
func Load(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read site model: %w", err)
	}

	var m Model
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode site model: %w", err)
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

func loadCompiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("site_model.schema.json", bytes.NewReader(schemaJSON)); err != nil {
			schemaErr = err
			return
		}
		compiledSchema, schemaErr = compiler.Compile("site_model.schema.json")
	})
	return compiledSchema, schemaErr
}
