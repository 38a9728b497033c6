package render

import (
	"bytes"
	"fmt"
	"html"
	"sort"
	"strings"

	"notesmith/internal/note"
	"notesmith/internal/xref"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
)

// Renderer turns documents and their sections into HTML pages. It is a pure
// function of its inputs: rendering the same document twice produces
// byte-identical output, and no external state is consulted.
//
// Prose blocks go through goldmark; fenced code is emitted verbatim with HTML
// escaping only, never reformatted.
type Renderer struct {
	md        goldmark.Markdown
	siteTitle string
}

// NewRenderer builds a renderer with GFM-style prose handling.
func NewRenderer(siteTitle string) *Renderer {
	return &Renderer{
		md: goldmark.New(
			goldmark.WithExtensions(
				extension.GFM,
				extension.Linkify,
				extension.TaskList,
			),
			goldmark.WithParserOptions(
				parser.WithAutoHeadingID(),
			),
		),
		siteTitle: siteTitle,
	}
}

// RenderDocument produces the HTML page for one document. The related slice
// carries the resolved neighbors from the cross-reference graph; titles are
// looked up in the document set so the footer can label its links.
func (r *Renderer) RenderDocument(doc *note.Document, sections []note.Section, related []string, titles map[string]string) ([]byte, error) {
	var sb strings.Builder

	writeHead(&sb, doc.Title, r.siteTitle, depthOf(doc.ID))
	sb.WriteString("<article>\n")

	for _, sec := range sections {
		if err := r.writeSection(&sb, sec); err != nil {
			return nil, fmt.Errorf("render section %q of %s: %w", sec.Title, doc.ID, err)
		}
	}

	sb.WriteString("</article>\n")

	if len(related) > 0 {
		r.writeRelated(&sb, doc.ID, related, titles)
	}

	writeFoot(&sb)
	return []byte(sb.String()), nil
}

func (r *Renderer) writeSection(sb *strings.Builder, sec note.Section) error {
	if sec.Level > 0 {
		level := sec.Level
		fmt.Fprintf(sb, "<h%d id=%q>%s</h%d>\n", level, headingAnchor(sec.Title), html.EscapeString(sec.Title), level)
	}

	for _, block := range sec.Blocks {
		switch block.Kind {
		case note.BlockCode:
			writeCodeBlock(sb, block)
		default:
			var buf bytes.Buffer
			source := []byte(strings.Join(block.Lines, "\n"))
			if err := r.md.Convert(source, &buf); err != nil {
				return fmt.Errorf("markdown convert: %w", err)
			}
			sb.Write(buf.Bytes())
		}
	}

	return nil
}

// writeCodeBlock emits the fence content exactly as authored. Only HTML
// escaping is applied; internal whitespace and blank lines survive. The
// language tag is passed through unvalidated.
func writeCodeBlock(sb *strings.Builder, block note.Block) {
	class := ""
	if block.Language != "" {
		class = fmt.Sprintf(" class=%q", "language-"+html.EscapeString(block.Language))
	}
	fmt.Fprintf(sb, "<pre><code%s>", class)
	sb.WriteString(html.EscapeString(strings.Join(block.Lines, "\n")))
	sb.WriteString("\n</code></pre>\n")
}

func (r *Renderer) writeRelated(sb *strings.Builder, docID string, related []string, titles map[string]string) {
	sb.WriteString("<footer class=\"related\">\n<h2>Related notes</h2>\n<ul>\n")
	for _, id := range related {
		title := titles[id]
		if title == "" {
			title = id
		}
		fmt.Fprintf(sb, "<li><a href=%q>%s</a></li>\n", relativeHref(docID, id), html.EscapeString(title))
	}
	sb.WriteString("</ul>\n</footer>\n")
}

// IndexData carries everything the site index page shows.
type IndexData struct {
	Documents  []*note.Document
	Summaries  map[string]string
	Components []xref.Component
}

// RenderIndex produces the site index: the sorted document list with tags and
// optional summaries, plus the relation groups from the cross-reference
// graph.
func (r *Renderer) RenderIndex(data IndexData) ([]byte, error) {
	docs := append([]*note.Document(nil), data.Documents...)
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })

	titles := make(map[string]string, len(docs))
	for _, d := range docs {
		titles[d.ID] = d.Title
	}

	var sb strings.Builder
	writeHead(&sb, r.siteTitle, r.siteTitle, 0)

	sb.WriteString("<section class=\"documents\">\n<h2>Notes</h2>\n<ul>\n")
	for _, doc := range docs {
		fmt.Fprintf(&sb, "<li><a href=%q>%s</a>", doc.ID+".html", html.EscapeString(doc.Title))
		if len(doc.Tags) > 0 {
			fmt.Fprintf(&sb, " <small>%s</small>", html.EscapeString(strings.Join(doc.Tags, ", ")))
		}
		if summary := data.Summaries[doc.ID]; summary != "" {
			fmt.Fprintf(&sb, "<p>%s</p>", html.EscapeString(summary))
		}
		sb.WriteString("</li>\n")
	}
	sb.WriteString("</ul>\n</section>\n")

	groups := relationGroups(data.Components)
	if len(groups) > 0 {
		sb.WriteString("<section class=\"groups\">\n<h2>Related groups</h2>\n<ul>\n")
		for _, comp := range groups {
			sb.WriteString("<li>")
			for i, member := range comp.Members {
				if i > 0 {
					sb.WriteString(" &middot; ")
				}
				title := titles[member]
				if title == "" {
					title = member
				}
				fmt.Fprintf(&sb, "<a href=%q>%s</a>", member+".html", html.EscapeString(title))
			}
			sb.WriteString("</li>\n")
		}
		sb.WriteString("</ul>\n</section>\n")
	}

	writeFoot(&sb)
	return []byte(sb.String()), nil
}

// relationGroups filters out isolated documents; a group of one says nothing.
func relationGroups(components []xref.Component) []xref.Component {
	var out []xref.Component
	for _, c := range components {
		if len(c.Members) > 1 {
			out = append(out, c)
		}
	}
	return out
}

func writeHead(sb *strings.Builder, title, siteTitle string, depth int) {
	home := strings.Repeat("../", depth) + "index.html"
	sb.WriteString("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(sb, "<title>%s</title>\n", html.EscapeString(title))
	sb.WriteString("</head>\n<body>\n")
	fmt.Fprintf(sb, "<nav><a href=%q>%s</a></nav>\n", home, html.EscapeString(siteTitle))
}

func writeFoot(sb *strings.Builder) {
	sb.WriteString("</body>\n</html>\n")
}

// relativeHref links from one document page to another, accounting for the
// directory depth of the source document.
func relativeHref(fromID, toID string) string {
	return strings.Repeat("../", depthOf(fromID)) + toID + ".html"
}

func depthOf(id string) int {
	return strings.Count(id, "/")
}

// headingAnchor mirrors goldmark's auto heading IDs closely enough for
// intra-site links: lowercase, non-alphanumerics collapsed to hyphens.
func headingAnchor(title string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
