package store

import (
	"fmt"
	"math"
	"sort"
	"time"

	"reviewrag/internal/domain"
	"reviewrag/internal/port"
)

// VectorIndex is a flat inner-product index over L2-normalized review vectors.
// Vectors are normalized on insert, so inner product equals cosine similarity.
//
// VectorIndex is not safe for concurrent use: it assumes a single writer,
// and its files assume exclusive access by one process.
type VectorIndex struct {
	path      string
	model     string
	dimension int

	docs       []domain.IndexedDocument
	state      domain.IndexState
	generation uint64
	createdAt  time.Time
}

var _ port.VectorIndex = (*VectorIndex)(nil)

// NewVectorIndex opens the index persisted at path for the given embedding
// model and dimension. If persisted files exist the index starts Unloaded
// and must be loaded before use; otherwise it starts Empty. An empty path
// gives a memory-only index.
func NewVectorIndex(path, model string, dimension int) *VectorIndex {
	idx := &VectorIndex{
		path:      path,
		model:     model,
		dimension: dimension,
		state:     domain.IndexEmpty,
	}
	if path != "" && anyExists(vectorFile(path), metaFile(path)) {
		idx.state = domain.IndexUnloaded
	}
	return idx
}

// Add appends docs in order. All vectors are validated before any is stored.
func (x *VectorIndex) Add(docs []domain.IndexedDocument) error {
	if x.state == domain.IndexUnloaded {
		return domain.ErrIndexNotLoaded
	}
	if len(docs) == 0 {
		return nil
	}

	for _, d := range docs {
		if len(d.Vector) != x.dimension {
			return fmt.Errorf("%w: expected %d, got %d (document %s)", domain.ErrDimensionMismatch, x.dimension, len(d.Vector), d.ID)
		}
	}

	for _, d := range docs {
		d.Vector = normalized(d.Vector)
		x.docs = append(x.docs, d)
	}

	if x.createdAt.IsZero() {
		x.createdAt = time.Now().UTC()
	}
	x.state = domain.IndexBuilt
	x.generation++
	return nil
}

// Search returns at most k documents matching filter, ordered by descending
// similarity. Equal scores keep insertion order.
func (x *VectorIndex) Search(query []float32, k int, filter domain.Filter) ([]port.VectorHit, error) {
	if x.state == domain.IndexUnloaded {
		return nil, domain.ErrIndexNotLoaded
	}
	if len(x.docs) == 0 || k <= 0 {
		return nil, nil
	}
	if len(query) != x.dimension {
		return nil, fmt.Errorf("%w: query has %d, index has %d", domain.ErrDimensionMismatch, len(query), x.dimension)
	}

	q := normalized(query)
	hits := make([]port.VectorHit, 0, len(x.docs))
	for _, d := range x.docs {
		if !filter.Matches(d.Metadata) {
			continue
		}
		hits = append(hits, port.VectorHit{Document: d, Score: innerProduct(q, d.Vector)})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})

	if k < len(hits) {
		hits = hits[:k]
	}
	return hits, nil
}

// Get returns the documents matching filter in insertion order.
func (x *VectorIndex) Get(filter domain.Filter) ([]domain.IndexedDocument, error) {
	if x.state == domain.IndexUnloaded {
		return nil, domain.ErrIndexNotLoaded
	}
	var out []domain.IndexedDocument
	for _, d := range x.docs {
		if filter.Matches(d.Metadata) {
			out = append(out, d)
		}
	}
	return out, nil
}

// Delete removes documents by ID and returns how many were removed.
func (x *VectorIndex) Delete(ids []string) (int, error) {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return x.removeIf(func(d domain.IndexedDocument) bool {
		_, ok := set[d.ID]
		return ok
	})
}

// DeleteWhere removes every document matching filter. A nil filter matches
// nothing here, so an unfiltered call cannot wipe the index.
func (x *VectorIndex) DeleteWhere(filter domain.Filter) (int, error) {
	if len(filter) == 0 {
		return 0, nil
	}
	return x.removeIf(func(d domain.IndexedDocument) bool {
		return filter.Matches(d.Metadata)
	})
}

func (x *VectorIndex) removeIf(match func(domain.IndexedDocument) bool) (int, error) {
	if x.state == domain.IndexUnloaded {
		return 0, domain.ErrIndexNotLoaded
	}

	kept := x.docs[:0]
	removed := 0
	for _, d := range x.docs {
		if match(d) {
			removed++
			continue
		}
		kept = append(kept, d)
	}
	// Clear the tail so removed vectors can be collected.
	for i := len(kept); i < len(x.docs); i++ {
		x.docs[i] = domain.IndexedDocument{}
	}
	x.docs = kept

	if removed > 0 {
		x.generation++
	}
	return removed, nil
}

// Count returns the number of loaded documents.
func (x *VectorIndex) Count() int {
	return len(x.docs)
}

func (x *VectorIndex) Generation() uint64 {
	return x.generation
}

func (x *VectorIndex) ModelName() string {
	return x.model
}

func (x *VectorIndex) Dimension() int {
	return x.dimension
}

func (x *VectorIndex) State() domain.IndexState {
	return x.state
}

func (x *VectorIndex) Path() string {
	return x.path
}

func normalized(v []float32) []float32 {
	out := make([]float32, len(v))
	var sumSq float64
	for _, f := range v {
		sumSq += float64(f) * float64(f)
	}
	if sumSq == 0 {
		return out
	}
	inv := 1 / math.Sqrt(sumSq)
	for i, f := range v {
		out[i] = float32(float64(f) * inv)
	}
	return out
}

func innerProduct(a, b []float32) float64 {
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot
}
