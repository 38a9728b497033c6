package codecheck

import (
	"context"
	"fmt"
	"strings"

	"notesmith/internal/note"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// Checker validates fenced code snippets with tree-sitter for the languages
// it knows about. Fences with unknown or empty tags pass through untouched.
type Checker struct {
	languages map[string]*sitter.Language
}

// NewChecker registers the built-in grammars. The only filter allows
// restricting checks to a subset of tags; nil means check everything known.
func NewChecker(only []string) *Checker {
	known := map[string]*sitter.Language{
		"go":         golang.GetLanguage(),
		"golang":     golang.GetLanguage(),
		"javascript": javascript.GetLanguage(),
		"js":         javascript.GetLanguage(),
		"typescript": typescript.GetLanguage(),
		"ts":         typescript.GetLanguage(),
		"tsx":        tsx.GetLanguage(),
	}

	if len(only) > 0 {
		filtered := make(map[string]*sitter.Language)
		for _, tag := range only {
			tag = strings.ToLower(strings.TrimSpace(tag))
			if lang, ok := known[tag]; ok {
				filtered[tag] = lang
			}
		}
		known = filtered
	}

	return &Checker{languages: known}
}

// CheckDocument scans every code block in the given sections and reports a
// syntax warning for each snippet in a known language that fails to parse.
// The warnings are informational; rendering is unaffected.
func (c *Checker) CheckDocument(ctx context.Context, doc *note.Document, sections []note.Section) ([]note.Warning, error) {
	var warnings []note.Warning

	for _, sec := range sections {
		for _, block := range sec.CodeBlocks() {
			tag := strings.ToLower(strings.TrimSpace(block.Language))
			lang, ok := c.languages[tag]
			if !ok {
				continue
			}

			source := []byte(strings.Join(block.Lines, "\n"))
			if len(source) == 0 {
				continue
			}

			w, err := c.checkSnippet(ctx, lang, source)
			if err != nil {
				return nil, fmt.Errorf("parse %s fence in %s: %w", tag, doc.ID, err)
			}
			if w != nil {
				line := block.StartLine + w.offsetRow + 1
				warnings = append(warnings, note.NewWarning(
					note.KindCodeSyntax, doc.ID, tag, line,
					fmt.Sprintf("%s snippet has a syntax error near line %d", tag, line)))
			}
		}
	}

	return warnings, nil
}

type syntaxIssue struct {
	offsetRow int
}

func (c *Checker) checkSnippet(ctx context.Context, lang *sitter.Language, source []byte) (*syntaxIssue, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(lang)

	tree, err := parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	root := tree.RootNode()
	if !root.HasError() {
		return nil, nil
	}

	row := firstErrorRow(root)
	return &syntaxIssue{offsetRow: row}, nil
}

// firstErrorRow walks the tree for the first ERROR or missing node and
// returns its row, falling back to the root.
func firstErrorRow(root *sitter.Node) int {
	var visit func(n *sitter.Node) (int, bool)
	visit = func(n *sitter.Node) (int, bool) {
		if n.Type() == "ERROR" || n.IsMissing() {
			return int(n.StartPoint().Row), true
		}
		if !n.HasError() {
			return 0, false
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			if row, ok := visit(n.Child(i)); ok {
				return row, true
			}
		}
		return int(n.StartPoint().Row), true
	}

	row, _ := visit(root)
	return row
}
