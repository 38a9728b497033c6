package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"notesmith/internal/codecheck"
	"notesmith/internal/config"
	"notesmith/internal/git"
	"notesmith/internal/loader"
	"notesmith/internal/note"
	"notesmith/internal/outline"
	"notesmith/internal/render"
	"notesmith/internal/report"
	"notesmith/internal/site"
	"notesmith/internal/storage"
	"notesmith/internal/summary"
	"notesmith/internal/xref"
)

// Builder wires the loader, section parser, code checker, cross-reference
// resolver, and renderer into one pipeline. The store and summarizer are
// optional; without them the pipeline is fully deterministic and offline.
type Builder struct {
	cfg        *config.Config
	checker    *codecheck.Checker
	renderer   *render.Renderer
	store      storage.Store
	summarizer summary.Summarizer
}

type Option func(*Builder)

// WithStore attaches a build cache used by incremental sync.
func WithStore(s storage.Store) Option {
	return func(b *Builder) { b.store = s }
}

// WithSummarizer attaches an index-page summarizer.
func WithSummarizer(s summary.Summarizer) Option {
	return func(b *Builder) { b.summarizer = s }
}

func New(cfg *config.Config, opts ...Option) *Builder {
	b := &Builder{
		cfg:      cfg,
		checker:  codecheck.NewChecker(cfg.Check.Languages),
		renderer: render.NewRenderer(cfg.Site.Title),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Result is what one pipeline run produced.
type Result struct {
	Documents []*note.Document
	Sections  map[string][]note.Section
	Graph     *xref.Graph
	Warnings  []note.Warning
	Rendered  []string
	Skipped   []string
	Report    *report.Report
}

// Check runs the analysis half of the pipeline (load, outline, code check,
// cross-reference resolve) without writing any output.
func (b *Builder) Check(ctx context.Context) (*Result, error) {
	rep := report.NewReport("check", "")
	res, err := b.analyze(ctx, rep)
	if err != nil {
		return nil, err
	}
	rep.Finish()
	res.Report = rep
	return res, nil
}

// Build runs the full pipeline and writes the HTML pages, the site index,
// the site model JSON, and the build report into the output directory.
func (b *Builder) Build(ctx context.Context) (*Result, error) {
	rep := report.NewReport("full_build", b.cfg.Site.Output)
	res, err := b.analyze(ctx, rep)
	if err != nil {
		return nil, err
	}

	if err := b.renderAll(ctx, res, rep, nil); err != nil {
		return nil, err
	}

	if err := b.persist(ctx, res, rep); err != nil {
		return nil, err
	}

	rep.Finish()
	res.Report = rep
	if err := rep.Save(filepath.Join(b.cfg.Site.Output, "build_report.json")); err != nil {
		return nil, fmt.Errorf("write build report: %w", err)
	}
	return res, nil
}

// Sync runs an incremental build: documents whose content hash matches the
// cache keep their existing page, deleted sources lose theirs. The
// cross-reference graph is always re-resolved over the full set.
func (b *Builder) Sync(ctx context.Context, changes []git.ChangedFile) (*Result, error) {
	if b.store == nil {
		return nil, fmt.Errorf("incremental sync requires a build cache")
	}

	rep := report.NewReport("incremental_sync", b.cfg.Site.Output)
	res, err := b.analyze(ctx, rep)
	if err != nil {
		return nil, err
	}

	hashes, err := b.store.DocumentHashes(ctx)
	if err != nil {
		return nil, fmt.Errorf("load cached hashes: %w", err)
	}

	unchanged := make(map[string]bool)
	for _, doc := range res.Documents {
		if hashes[doc.ID] == doc.ContentHash && b.outputExists(doc.ID) {
			unchanged[doc.ID] = true
		}
	}

	stage := rep.BeginStage("remove_deleted")
	removed := 0
	for _, change := range changes {
		paths := []string{change.Path}
		if change.Kind == git.ChangeRenamed && change.OldPath != "" {
			paths = append(paths, change.OldPath)
		}
		for _, p := range paths {
			if !strings.HasSuffix(p, ".md") {
				continue
			}
			// Git paths are repo-relative; document IDs are relative to
			// the notes source directory.
			rel, ok := strings.CutPrefix(filepath.ToSlash(p), filepath.ToSlash(b.cfg.Site.Source)+"/")
			if !ok {
				continue
			}
			id := strings.TrimSuffix(rel, ".md")
			if _, stillThere := findDocument(res.Documents, id); stillThere {
				continue
			}
			if err := b.store.DeleteDocument(ctx, id); err != nil {
				rep.EndStage(stage, "error", nil, err)
				return nil, fmt.Errorf("evict %s from cache: %w", id, err)
			}
			_ = os.Remove(filepath.Join(b.cfg.Site.Output, id+".html"))
			removed++
		}
	}
	rep.EndStage(stage, "ok", map[string]float64{"removed_pages": float64(removed)}, nil)

	if err := b.renderAll(ctx, res, rep, unchanged); err != nil {
		return nil, err
	}

	if err := b.persist(ctx, res, rep); err != nil {
		return nil, err
	}

	rep.Finish()
	res.Report = rep
	if err := rep.Save(filepath.Join(b.cfg.Site.Output, "build_report.json")); err != nil {
		return nil, fmt.Errorf("write build report: %w", err)
	}
	return res, nil
}

func (b *Builder) analyze(ctx context.Context, rep *report.Report) (*Result, error) {
	res := &Result{Sections: make(map[string][]note.Section)}

	// 1. Load
	stage := rep.BeginStage("load")
	l := loader.NewLoader(os.DirFS(b.cfg.Site.Source))
	docs, loadWarnings, err := l.LoadAll()
	if err != nil {
		rep.EndStage(stage, "error", nil, err)
		return nil, fmt.Errorf("load documents: %w", err)
	}
	drafts := 0
	for _, doc := range docs {
		if doc.Draft {
			drafts++
			continue
		}
		res.Documents = append(res.Documents, doc)
	}
	rep.EndStage(stage, "ok", map[string]float64{
		"documents":      float64(len(res.Documents)),
		"drafts_skipped": float64(drafts),
	}, nil)
	res.Warnings = append(res.Warnings, loadWarnings...)
	rep.AddWarnings("load", loadWarnings)

	// 2. Outline
	stage = rep.BeginStage("outline")
	sectionCount := 0
	for _, doc := range res.Documents {
		sections, warnings := outline.Split(doc)
		res.Sections[doc.ID] = sections
		sectionCount += len(sections)
		res.Warnings = append(res.Warnings, warnings...)
		rep.AddWarnings("outline", warnings)
	}
	rep.EndStage(stage, "ok", map[string]float64{"sections": float64(sectionCount)}, nil)

	// 3. Code check
	stage = rep.BeginStage("codecheck")
	for _, doc := range res.Documents {
		warnings, err := b.checker.CheckDocument(ctx, doc, res.Sections[doc.ID])
		if err != nil {
			rep.EndStage(stage, "error", nil, err)
			return nil, fmt.Errorf("check code blocks: %w", err)
		}
		res.Warnings = append(res.Warnings, warnings...)
		rep.AddWarnings("codecheck", warnings)
	}
	rep.EndStage(stage, "ok", nil, nil)

	// 4. Cross-references
	stage = rep.BeginStage("xref")
	graph, warnings := xref.Resolve(res.Documents)
	res.Graph = graph
	res.Warnings = append(res.Warnings, warnings...)
	rep.AddWarnings("xref", warnings)
	rep.EndStage(stage, "ok", map[string]float64{"edges": float64(len(graph.Edges))}, nil)

	note.SortWarnings(res.Warnings)
	return res, nil
}

// renderAll writes one HTML page per document plus the index. Documents
// listed in skip keep their existing page.
func (b *Builder) renderAll(ctx context.Context, res *Result, rep *report.Report, skip map[string]bool) error {
	outDir := b.cfg.Site.Output
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	titles := make(map[string]string, len(res.Documents))
	for _, doc := range res.Documents {
		titles[doc.ID] = doc.Title
	}

	stage := rep.BeginStage("render")
	for _, doc := range res.Documents {
		if skip[doc.ID] {
			res.Skipped = append(res.Skipped, doc.ID)
			continue
		}

		page, err := b.renderer.RenderDocument(doc, res.Sections[doc.ID], res.Graph.Neighbors(doc.ID), titles)
		if err != nil {
			rep.EndStage(stage, "error", nil, err)
			return err
		}

		target := filepath.Join(outDir, doc.ID+".html")
		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			rep.EndStage(stage, "error", nil, err)
			return fmt.Errorf("create page dir: %w", err)
		}
		if err := os.WriteFile(target, page, 0644); err != nil {
			rep.EndStage(stage, "error", nil, err)
			return fmt.Errorf("write page %s: %w", doc.ID, err)
		}
		res.Rendered = append(res.Rendered, doc.ID)
	}
	rep.EndStage(stage, "ok", map[string]float64{
		"pages_rendered": float64(len(res.Rendered)),
		"pages_skipped":  float64(len(res.Skipped)),
	}, nil)

	summaries := b.collectSummaries(ctx, res, rep)

	stage = rep.BeginStage("render_index")
	index, err := b.renderer.RenderIndex(render.IndexData{
		Documents:  res.Documents,
		Summaries:  summaries,
		Components: res.Graph.Components(),
	})
	if err != nil {
		rep.EndStage(stage, "error", nil, err)
		return fmt.Errorf("render index: %w", err)
	}
	if err := os.WriteFile(filepath.Join(outDir, "index.html"), index, 0644); err != nil {
		rep.EndStage(stage, "error", nil, err)
		return fmt.Errorf("write index: %w", err)
	}
	rep.EndStage(stage, "ok", nil, nil)

	return nil
}

// collectSummaries asks the summarizer for index abstracts. Failures degrade
// to the frontmatter summary; they never fail the build.
func (b *Builder) collectSummaries(ctx context.Context, res *Result, rep *report.Report) map[string]string {
	summaries := make(map[string]string, len(res.Documents))
	for _, doc := range res.Documents {
		summaries[doc.ID] = doc.Summary
	}
	if b.summarizer == nil {
		return summaries
	}

	stage := rep.BeginStage("summaries")
	generated := 0
	failed := 0
	for _, doc := range res.Documents {
		if doc.Summary != "" {
			continue
		}
		text, err := b.summarizer.Summarize(ctx, doc, res.Sections[doc.ID])
		if err != nil {
			failed++
			rep.AddSignal("summary_failed", "summaries", "warning", err.Error(), 0)
			continue
		}
		if text != "" {
			summaries[doc.ID] = text
			generated++
		}
	}
	rep.EndStage(stage, "ok", map[string]float64{
		"generated": float64(generated),
		"failed":    float64(failed),
	}, nil)
	return summaries
}

func (b *Builder) persist(ctx context.Context, res *Result, rep *report.Report) error {
	stage := rep.BeginStage("persist")

	model := site.BuildModel(
		b.cfg.Site.Title,
		time.Now().UTC().Format(time.RFC3339),
		res.Documents,
		res.Sections,
		res.Graph.Edges,
		res.Warnings,
	)
	if err := model.Save(filepath.Join(b.cfg.Site.Output, "site.json")); err != nil {
		rep.EndStage(stage, "error", nil, err)
		return fmt.Errorf("save site model: %w", err)
	}

	if b.store != nil {
		if err := b.store.SaveSite(ctx, res.Documents, res.Sections, res.Graph.Edges, res.Warnings); err != nil {
			rep.EndStage(stage, "error", nil, err)
			return fmt.Errorf("save build cache: %w", err)
		}
	}

	rep.EndStage(stage, "ok", nil, nil)
	return nil
}

func (b *Builder) outputExists(id string) bool {
	_, err := os.Stat(filepath.Join(b.cfg.Site.Output, id+".html"))
	return err == nil
}

func findDocument(docs []*note.Document, id string) (*note.Document, bool) {
	for _, doc := range docs {
		if doc.ID == id {
			return doc, true
		}
	}
	return nil, false
}
