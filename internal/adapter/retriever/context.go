package retriever

import (
	"fmt"
	"strings"

	"reviewrag/internal/domain"
	"reviewrag/internal/locale"
	"reviewrag/internal/port"
)

// ContextBuilder renders retrieved reviews into the text block sent to the LLM.
type ContextBuilder struct {
	labels    locale.Labels
	tokenizer port.Tokenizer
	budget    int // Token budget for the whole block (0 = unlimited)
}

func NewContextBuilder(labels locale.Labels, tokenizer port.Tokenizer, budget int) *ContextBuilder {
	return &ContextBuilder{labels: labels, tokenizer: tokenizer, budget: budget}
}

// Build renders results in rank order and stops before the first review that
// would exceed the token budget. No results yields the "no relevant reviews" sentence.
func (b *ContextBuilder) Build(results []domain.SearchResult) string {
	if len(results) == 0 {
		return b.labels.NoResults
	}

	var sb strings.Builder
	sb.WriteString(b.labels.ContextHeader)
	sb.WriteString("\n\n")
	used := b.tokenizer.CountTokens(b.labels.ContextHeader)

	written := 0
	for _, r := range results {
		block := b.Block(r)
		tokens := b.tokenizer.CountTokens(block)
		if b.budget > 0 && used+tokens > b.budget {
			break
		}
		sb.WriteString(block)
		used += tokens
		written++
	}

	if written == 0 {
		return b.labels.NoResults
	}
	return strings.TrimRight(sb.String(), "\n")
}

// Block renders a single review.
func (b *ContextBuilder) Block(r domain.SearchResult) string {
	m := r.Document.Metadata
	l := b.labels

	var sb strings.Builder
	fmt.Fprintf(&sb, l.ReviewHeading+"\n", r.Rank)
	if m.Rating != nil {
		fmt.Fprintf(&sb, l.ContextRating+"\n", domain.FormatRating(*m.Rating))
	}
	fmt.Fprintf(&sb, l.ContextContent+"\n", strings.TrimSpace(m.ReviewText))
	if m.DateText != "" {
		fmt.Fprintf(&sb, l.ContextDate+"\n", m.DateText)
	}
	if m.ReviewerName != "" {
		fmt.Fprintf(&sb, l.ContextAuthor+"\n", m.ReviewerName)
	}
	if m.PhotoCount > 0 {
		fmt.Fprintf(&sb, l.ContextPhotos+"\n", m.PhotoCount)
	}
	fmt.Fprintf(&sb, l.Similarity+"\n", r.Score)
	sb.WriteString("---\n\n")
	return sb.String()
}
