package summary

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/beam-cloud/satchel/pkg/types"
	openai "github.com/sashabaranov/go-openai"
)

const DefaultMaxChars = 20000

// ErrNoReadableText is returned when none of the gathered documents yield
// any text to summarize
var ErrNoReadableText = errors.New("no readable text in folder documents")

// Document is one file's extracted text
type Document struct {
	Name string
	Text string
}

// Summarizer generates folder summaries through a chat-completion model
type Summarizer struct {
	Client *openai.Client
	config types.SummaryConfig
}

// NewSummarizer creates a summarizer from config. With no API key the
// summarizer is unconfigured and Summarize fails fast.
func NewSummarizer(cfg types.SummaryConfig) *Summarizer {
	s := &Summarizer{config: cfg}
	if cfg.APIKey != "" {
		s.Client = openai.NewClient(cfg.APIKey)
	}
	return s
}

// IsConfigured reports whether an API key was provided
func (s *Summarizer) IsConfigured() bool {
	return s.Client != nil
}

// Summarize joins the document texts, truncates them to the configured
// budget, and requests a single chat completion
func (s *Summarizer) Summarize(ctx context.Context, docs []Document) (string, error) {
	if !s.IsConfigured() {
		return "", errors.New("summarizer API key is not configured")
	}

	prompt, ok := buildPrompt(docs, s.maxChars())
	if !ok {
		return "", ErrNoReadableText
	}

	resp, err := s.Client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model(),
		Messages: []openai.ChatCompletionMessage{{
			Role:    openai.ChatMessageRoleUser,
			Content: prompt,
		}},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no response from model")
	}

	return resp.Choices[0].Message.Content, nil
}

func (s *Summarizer) model() string {
	if s.config.Model != "" {
		return s.config.Model
	}
	return openai.GPT4oMini
}

func (s *Summarizer) maxChars() int {
	if s.config.MaxChars > 0 {
		return s.config.MaxChars
	}
	return DefaultMaxChars
}

// buildPrompt assembles the summarization prompt. Returns false when the
// joined text is empty after trimming.
func buildPrompt(docs []Document, maxChars int) (string, bool) {
	names := make([]string, 0, len(docs))
	hasText := false
	var fullText strings.Builder
	for _, doc := range docs {
		names = append(names, doc.Name)
		if strings.TrimSpace(doc.Text) != "" {
			hasText = true
		}
		fullText.WriteString(doc.Text)
		fullText.WriteString("\n---\n")
	}
	if !hasText {
		return "", false
	}

	truncated := fullText.String()
	if len(truncated) > maxChars {
		truncated = truncated[:maxChars]
	}

	prompt := fmt.Sprintf(
		"Analyze the following document texts and provide a concise, professional summary "+
			"highlighting the key themes, main findings, or important takeaways. "+
			"Do not exceed 300 words. Source Files: %s\n\n--- Content ---\n%s",
		strings.Join(names, ", "), truncated,
	)
	return prompt, true
}
