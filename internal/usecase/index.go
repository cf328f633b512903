package usecase

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"go.uber.org/zap"

	"reviewrag/internal/adapter/preprocess"
	"reviewrag/internal/domain"
	"reviewrag/internal/metrics"
	"reviewrag/internal/port"
)

// PersistentIndex is a vector index that can be written to durable storage.
type PersistentIndex interface {
	port.VectorIndex
	Save() error
}

// ProgressFunc reports embedding progress as done of total reviews.
type ProgressFunc func(done, total int)

// IndexUseCase handles adding, inspecting and deleting indexed reviews.
type IndexUseCase struct {
	index        PersistentIndex
	embedder     port.Embedder
	preprocessor *preprocess.Preprocessor
	batchSize    int
	logger       *zap.Logger
}

// NewIndexUseCase creates a new index use case.
func NewIndexUseCase(
	index PersistentIndex,
	embedder port.Embedder,
	preprocessor *preprocess.Preprocessor,
	batchSize int,
	logger *zap.Logger,
) *IndexUseCase {
	if batchSize <= 0 {
		batchSize = 100
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IndexUseCase{
		index:        index,
		embedder:     embedder,
		preprocessor: preprocessor,
		batchSize:    batchSize,
		logger:       logger,
	}
}

// Ingest preprocesses, embeds and stores the reviews of result, then saves
// the index. Reviews without text are skipped. It returns the number indexed.
func (u *IndexUseCase) Ingest(ctx context.Context, result domain.ScrapeResult, progress ProgressFunc) (int, error) {
	docs := u.preprocessor.Documents(result)
	if len(docs) == 0 {
		return 0, nil
	}

	for start := 0; start < len(docs); start += u.batchSize {
		end := min(start+u.batchSize, len(docs))

		texts := make([]string, end-start)
		for i := range texts {
			texts[i] = docs[start+i].Text
		}

		vectors, err := u.embedder.Embed(ctx, texts)
		if err != nil {
			return 0, fmt.Errorf("failed to embed reviews: %w", err)
		}
		if len(vectors) != len(texts) {
			return 0, fmt.Errorf("embedder returned %d vectors for %d texts", len(vectors), len(texts))
		}
		for i, v := range vectors {
			docs[start+i].Vector = v
		}

		if progress != nil {
			progress(end, len(docs))
		}
	}

	if err := u.index.Add(docs); err != nil {
		return 0, fmt.Errorf("failed to add reviews: %w", err)
	}
	if err := u.index.Save(); err != nil {
		return 0, fmt.Errorf("failed to save index: %w", err)
	}
	metrics.IndexDocuments.Set(float64(u.index.Count()))

	u.logger.Info("Indexed reviews",
		zap.String("business", result.Business.Name),
		zap.Int("indexed", len(docs)),
		zap.Int("skipped", len(result.Reviews)-len(docs)),
		zap.Int("total", u.index.Count()),
	)
	return len(docs), nil
}

// ListBusinesses returns the distinct business names in the index, sorted.
func (u *IndexUseCase) ListBusinesses() ([]string, error) {
	docs, err := u.index.Get(nil)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	names := make([]string, 0)
	for _, d := range docs {
		name := d.Metadata.BusinessName
		if _, ok := seen[name]; ok || name == "" {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// BusinessDocuments returns every indexed review of business in insertion order.
func (u *IndexUseCase) BusinessDocuments(business string) ([]domain.IndexedDocument, error) {
	return u.index.Get(domain.BusinessFilter(business))
}

// BusinessSummary aggregates the indexed reviews of business. A business
// with no reviews yields a summary with TotalReviews == 0.
func (u *IndexUseCase) BusinessSummary(business string) (*domain.BusinessSummary, error) {
	summary := &domain.BusinessSummary{
		BusinessName:       business,
		RatingDistribution: make(map[int]int),
	}
	if strings.TrimSpace(business) == "" {
		return summary, nil
	}

	docs, err := u.BusinessDocuments(business)
	if err != nil {
		return nil, err
	}

	summary.TotalReviews = len(docs)
	summary.AverageRating = averageRating(docs, summary.RatingDistribution)
	for _, d := range docs {
		if d.Metadata.BusinessRating != nil {
			summary.BusinessRating = d.Metadata.BusinessRating
			break
		}
	}
	return summary, nil
}

// Stats aggregates rating and date statistics over the whole index.
func (u *IndexUseCase) Stats() (domain.IndexStats, error) {
	stats := domain.IndexStats{
		RatingDistribution: make(map[int]int),
		ModelName:          u.index.ModelName(),
		Dimension:          u.index.Dimension(),
		State:              u.index.State().String(),
	}

	docs, err := u.index.Get(nil)
	if err != nil {
		return stats, err
	}

	businesses := make(map[string]struct{})
	stats.TotalReviews = len(docs)
	stats.AverageRating = averageRating(docs, stats.RatingDistribution)
	for _, d := range docs {
		businesses[d.Metadata.BusinessName] = struct{}{}
		if d.Metadata.Rating != nil {
			stats.ReviewsWithRating++
		}
		if date := d.Metadata.Date; date != nil {
			stats.ReviewsWithDates++
			if stats.EarliestDate == nil || date.Before(*stats.EarliestDate) {
				stats.EarliestDate = date
			}
			if stats.LatestDate == nil || date.After(*stats.LatestDate) {
				stats.LatestDate = date
			}
		}
	}
	stats.Businesses = len(businesses)
	return stats, nil
}

// Info describes the collection stored at path.
func (u *IndexUseCase) Info(name, path string) (domain.CollectionInfo, error) {
	businesses, err := u.ListBusinesses()
	if err != nil {
		return domain.CollectionInfo{}, err
	}
	return domain.CollectionInfo{
		Name:           name,
		Path:           path,
		TotalReviews:   u.index.Count(),
		TotalBusiness:  len(businesses),
		BusinessNames:  businesses,
		EmbeddingModel: u.index.ModelName(),
	}, nil
}

// DeleteBusiness removes every review of business and saves the index.
func (u *IndexUseCase) DeleteBusiness(business string) (int, error) {
	filter := domain.BusinessFilter(business)
	if filter == nil {
		return 0, nil
	}

	removed, err := u.index.DeleteWhere(filter)
	if err != nil {
		return 0, err
	}
	if removed == 0 {
		return 0, nil
	}
	if err := u.index.Save(); err != nil {
		return removed, fmt.Errorf("failed to save index: %w", err)
	}
	metrics.IndexDocuments.Set(float64(u.index.Count()))

	u.logger.Info("Deleted business reviews", zap.String("business", business), zap.Int("removed", removed))
	return removed, nil
}

func (u *IndexUseCase) Count() int {
	return u.index.Count()
}

// averageRating fills dist with ratings rounded to whole stars and returns
// the mean of the rated documents, or nil when none is rated.
func averageRating(docs []domain.IndexedDocument, dist map[int]int) *float64 {
	var sum float64
	rated := 0
	for _, d := range docs {
		if d.Metadata.Rating == nil {
			continue
		}
		r := *d.Metadata.Rating
		sum += r
		rated++
		dist[int(math.Round(r))]++
	}
	if rated == 0 {
		return nil
	}
	avg := math.Round(sum/float64(rated)*100) / 100
	return &avg
}
