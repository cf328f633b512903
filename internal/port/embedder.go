package port

import (
	"context"

	"reviewrag/internal/domain"
)

// Embedder generates vector embeddings for text.
type Embedder interface {
	// Embed generates embeddings for the given texts.
	// Returns a slice of vectors, one per input text, in input order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension returns the embedding vector dimension.
	Dimension() int

	// ModelName returns the name of the embedding model.
	ModelName() string
}

// VectorIndex stores review documents with their vectors and searches them.
type VectorIndex interface {
	// Add appends documents. Every vector must match Dimension().
	Add(docs []domain.IndexedDocument) error

	// Search returns at most k hits matching filter, best first.
	Search(query []float32, k int, filter domain.Filter) ([]VectorHit, error)

	// Get returns all documents matching filter, in insertion order.
	Get(filter domain.Filter) ([]domain.IndexedDocument, error)

	// DeleteWhere removes every document matching filter and returns the count.
	DeleteWhere(filter domain.Filter) (int, error)

	// Count returns the number of stored documents.
	Count() int

	// Generation changes whenever the stored documents change.
	Generation() uint64

	ModelName() string
	Dimension() int
	State() domain.IndexState
}

// VectorHit is a raw index match.
type VectorHit struct {
	Document domain.IndexedDocument
	Score    float64 // Inner product of unit vectors (cosine similarity)
}
