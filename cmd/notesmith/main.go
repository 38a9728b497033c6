package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"notesmith/internal/config"
	"notesmith/internal/git"
	"notesmith/internal/note"
	"notesmith/internal/pipeline"
	"notesmith/internal/storage"
	"notesmith/internal/summary"
	"notesmith/internal/xref"

	"github.com/spf13/cobra"
)

var (
	rootCmd = &cobra.Command{
		Use:   "notesmith",
		Short: "Static site builder for Markdown study notes",
	}
	configPath string
	dbPath     string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "site.yaml", "Path to the site configuration file")
	rootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "notesmith.db", "Path to the local build cache (SQLite)")

	buildCmd.Flags().String("source", "", "Override the notes source directory")
	buildCmd.Flags().String("out", "", "Override the output directory")
	checkCmd.Flags().String("source", "", "Override the notes source directory")
	graphCmd.Flags().String("source", "", "Override the notes source directory")
	updateCmd.Flags().String("ref", "HEAD", "Git ref to diff against")

	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(graphCmd)
}

func loadConfig(cmd *cobra.Command) *config.Config {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if src, _ := cmd.Flags().GetString("source"); src != "" {
		cfg.Site.Source = src
	}
	if out, _ := cmd.Flags().GetString("out"); out != "" {
		cfg.Site.Output = out
	}
	return cfg
}

// initStore opens the SQLite build cache.
func initStore() *storage.SQLiteStore {
	store, err := storage.NewSQLiteStore(dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize build cache: %v", err)
	}
	return store
}

// initSummarizer returns nil when no API key is configured; summaries are
// optional.
func initSummarizer(ctx context.Context, cfg *config.Config) summary.Summarizer {
	if cfg.AI.APIKey == "" {
		return nil
	}
	s, err := summary.NewGeminiSummarizer(ctx, cfg.AI.APIKey, cfg.AI.Model)
	if err != nil {
		fmt.Printf("⚠️  Skipping summaries: %v\n", err)
		return nil
	}
	return s
}

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the full site: load, parse, resolve cross-references, render",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		cfg := loadConfig(cmd)

		store := initStore()
		defer store.Close()

		fmt.Printf("📂 Building site from %s\n", cfg.Site.Source)
		start := time.Now()

		b := pipeline.New(cfg,
			pipeline.WithStore(store),
			pipeline.WithSummarizer(initSummarizer(ctx, cfg)),
		)
		res, err := b.Build(ctx)
		if err != nil {
			log.Fatalf("Build failed: %v", err)
		}

		fmt.Printf("✅ Rendered %d pages in %v (output: %s)\n", len(res.Rendered), time.Since(start), cfg.Site.Output)
		printWarningSummary(res.Warnings)
	},
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the notes without writing output",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		cfg := loadConfig(cmd)

		b := pipeline.New(cfg)
		res, err := b.Check(ctx)
		if err != nil {
			log.Fatalf("Check failed: %v", err)
		}

		fmt.Printf("📄 %d documents, %d cross-reference edges\n", len(res.Documents), len(res.Graph.Edges))
		printWarnings(res.Warnings)

		if note.HasErrors(res.Warnings) {
			os.Exit(1)
		}
		fmt.Println("✅ No blocking problems found.")
	},
}

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Incrementally rebuild pages for documents changed since a git ref",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		cfg := loadConfig(cmd)

		ref, _ := cmd.Flags().GetString("ref")
		changes, err := git.ChangedFiles(ref)
		if err != nil {
			log.Fatalf("Failed to get git changes: %v", err)
		}
		if len(changes) == 0 {
			fmt.Println("✅ No changes detected.")
			return
		}
		fmt.Printf("📝 Detected %d changed files.\n", len(changes))

		store := initStore()
		defer store.Close()

		b := pipeline.New(cfg,
			pipeline.WithStore(store),
			pipeline.WithSummarizer(initSummarizer(ctx, cfg)),
		)
		res, err := b.Sync(ctx, changes)
		if err != nil {
			log.Fatalf("Incremental build failed: %v", err)
		}

		fmt.Printf("✅ %d pages rendered, %d unchanged.\n", len(res.Rendered), len(res.Skipped))
		printWarningSummary(res.Warnings)
	},
}

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Export the cross-reference graph as JSON",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		cfg := loadConfig(cmd)

		b := pipeline.New(cfg)
		res, err := b.Check(ctx)
		if err != nil {
			log.Fatalf("Resolve failed: %v", err)
		}

		export := struct {
			Edges      []xref.Edge      `json:"edges"`
			Components []xref.Component `json:"components"`
			Warnings   []note.Warning   `json:"warnings"`
		}{
			Edges:      res.Graph.Edges,
			Components: res.Graph.Components(),
			Warnings:   res.Warnings,
		}

		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(export); err != nil {
			log.Fatalf("Failed to encode graph: %v", err)
		}
	},
}

func printWarnings(warnings []note.Warning) {
	for _, w := range warnings {
		loc := w.DocumentID
		if w.Line > 0 {
			loc = fmt.Sprintf("%s:%d", loc, w.Line)
		}
		fmt.Printf("  [%s] %s %s\n", w.Severity, loc, w.Message)
	}
}

func printWarningSummary(warnings []note.Warning) {
	if len(warnings) == 0 {
		return
	}
	counts := note.CountBySeverity(warnings)
	fmt.Printf("⚠️  %d findings (%d errors, %d warnings, %d info) — see build_report.json\n",
		len(warnings), counts[note.SeverityError], counts[note.SeverityWarning], counts[note.SeverityInfo])
}
