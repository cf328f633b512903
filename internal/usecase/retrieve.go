package usecase

import (
	"context"

	"reviewrag/internal/adapter/retriever"
	"reviewrag/internal/domain"
	"reviewrag/internal/port"
)

// RetrieveUseCase handles search and context assembly.
type RetrieveUseCase struct {
	retriever port.Retriever
	context   *retriever.ContextBuilder
	topK      int
}

// NewRetrieveUseCase creates a new retrieve use case.
func NewRetrieveUseCase(
	retriever port.Retriever,
	contextBuilder *retriever.ContextBuilder,
	topK int,
) *RetrieveUseCase {
	return &RetrieveUseCase{
		retriever: retriever,
		context:   contextBuilder,
		topK:      topK,
	}
}

// Retrieve returns up to k reviews similar to query, restricted to business
// when it is set. k <= 0 uses the configured default. An empty index or a
// business with no reviews yields no results and no error.
func (u *RetrieveUseCase) Retrieve(ctx context.Context, query, business string, k int) ([]domain.SearchResult, error) {
	if k <= 0 {
		k = u.topK
	}
	return u.retriever.Retrieve(ctx, query, k, domain.BusinessFilter(business))
}

// Context renders results as the review block of a prompt.
func (u *RetrieveUseCase) Context(results []domain.SearchResult) string {
	return u.context.Build(results)
}
