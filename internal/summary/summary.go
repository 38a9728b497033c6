package summary

import (
	"context"
	"fmt"
	"strings"

	"notesmith/internal/note"

	"google.golang.org/genai"
)

// Summarizer produces a short abstract for a document, used on the site
// index. It is optional: the pipeline runs identically without one, and the
// deterministic render path never consults it.
type Summarizer interface {
	Summarize(ctx context.Context, doc *note.Document, sections []note.Section) (string, error)
}

// GeminiSummarizer implements Summarizer using Gemini text generation.
type GeminiSummarizer struct {
	client *genai.Client
	model  string
}

func NewGeminiSummarizer(ctx context.Context, apiKey string, modelName string) (*GeminiSummarizer, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &GeminiSummarizer{
		client: client,
		model:  modelName,
	}, nil
}

func (s *GeminiSummarizer) Summarize(ctx context.Context, doc *note.Document, sections []note.Section) (string, error) {
	prompt := buildPrompt(doc, sections)

	resp, err := s.client.Models.GenerateContent(ctx, s.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("generate summary for %s: %w", doc.ID, err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", nil
	}
	return cleanOutput(text), nil
}

// buildPrompt feeds the model the outline plus a bounded amount of prose.
// Code blocks are skipped: their content is framework API surface, not
// summary material.
func buildPrompt(doc *note.Document, sections []note.Section) string {
	var sb strings.Builder
	sb.WriteString("Summarize the following study note in one or two plain sentences for a site index. ")
	sb.WriteString("Answer with the summary only, no markdown.\n\n")
	fmt.Fprintf(&sb, "Title: %s\n", doc.Title)
	if len(doc.Tags) > 0 {
		fmt.Fprintf(&sb, "Tags: %s\n", strings.Join(doc.Tags, ", "))
	}
	sb.WriteString("\n")

	const proseBudget = 60
	written := 0
	for _, sec := range sections {
		if sec.Level > 0 {
			fmt.Fprintf(&sb, "%s %s\n", strings.Repeat("#", sec.Level), sec.Title)
		}
		for _, block := range sec.Blocks {
			if block.Kind == note.BlockCode {
				continue
			}
			for _, line := range block.Lines {
				if written >= proseBudget {
					return sb.String()
				}
				sb.WriteString(line)
				sb.WriteString("\n")
				written++
			}
		}
	}
	return sb.String()
}

func cleanOutput(text string) string {
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}
