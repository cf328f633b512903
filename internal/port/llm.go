package port

import (
	"context"

	"reviewrag/internal/domain"
)

// PromptKind selects the prompt template pair used for a completion.
type PromptKind string

const (
	PromptAnswer    PromptKind = "answer"
	PromptAnalysis  PromptKind = "analysis"
	PromptSummary   PromptKind = "summary"
	PromptSentiment PromptKind = "sentiment"
)

// GenerateRequest carries everything a prompt template needs.
type GenerateRequest struct {
	Kind     PromptKind
	Question string
	Business string
	Summary  *domain.BusinessSummary
	Reviews  []domain.SearchResult
	Context  string // Pre-assembled context block; used when Reviews is empty

	// Zero values fall back to the generator's configured defaults.
	Temperature float64
	MaxTokens   int
}

// Generator produces natural-language answers from prompts.
// Generate never returns an error: failures are reported in the result.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) domain.GenerationResult

	// ModelName returns the name of the model.
	ModelName() string
}
