package port

import (
	"context"

	"reviewrag/internal/domain"
)

// Retriever defines the interface for searching indexed reviews.
type Retriever interface {
	// Retrieve returns up to k reviews most similar to query, ranked from 1.
	// An empty index or no match yields an empty slice and a nil error.
	Retrieve(ctx context.Context, query string, k int, filter domain.Filter) ([]domain.SearchResult, error)
}
