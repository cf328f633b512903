package retriever

import (
	"context"
	"fmt"

	"reviewrag/internal/domain"
	"reviewrag/internal/port"
)

// SemanticRetriever embeds the query and searches the vector index.
type SemanticRetriever struct {
	index             port.VectorIndex
	embedder          port.Embedder
	minScoreThreshold float64 // Filter results below this similarity (0 = disabled)
	mmr               *MMRReranker
}

func NewSemanticRetriever(index port.VectorIndex, embedder port.Embedder, minScoreThreshold float64) *SemanticRetriever {
	return &SemanticRetriever{
		index:             index,
		embedder:          embedder,
		minScoreThreshold: minScoreThreshold,
	}
}

// WithMMR enables diversity reranking of the candidate set.
func (r *SemanticRetriever) WithMMR(mmr *MMRReranker) *SemanticRetriever {
	r.mmr = mmr
	return r
}

func (r *SemanticRetriever) Retrieve(ctx context.Context, query string, k int, filter domain.Filter) ([]domain.SearchResult, error) {
	if k <= 0 || r.index.Count() == 0 {
		return nil, nil
	}

	embeddings, err := r.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(embeddings) == 0 {
		return nil, fmt.Errorf("embedding returned empty result")
	}

	fetch := k
	if r.mmr != nil {
		fetch = k * 2
	}

	hits, err := r.index.Search(embeddings[0], fetch, filter)
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}

	results := make([]domain.SearchResult, 0, len(hits))
	for _, h := range hits {
		score := Similarity(h.Score)
		if r.minScoreThreshold > 0 && score < r.minScoreThreshold {
			continue
		}
		doc := h.Document
		doc.Vector = nil
		results = append(results, domain.SearchResult{Score: score, Document: doc})
	}

	if r.mmr != nil {
		results = r.mmr.Rerank(results, k)
	} else if len(results) > k {
		results = results[:k]
	}

	for i := range results {
		results[i].Rank = i + 1
	}
	return results, nil
}

// Similarity maps an inner product of unit vectors to [0,1].
// Opposed vectors (negative cosine) report 0.
func Similarity(innerProduct float64) float64 {
	switch {
	case innerProduct < 0:
		return 0
	case innerProduct > 1:
		return 1
	}
	return innerProduct
}
