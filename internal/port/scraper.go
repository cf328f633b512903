package port

import (
	"context"

	"reviewrag/internal/domain"
)

type ScrapeOptions struct {
	MaxReviews int
	YearLimit  int
}

// Scraper collects a business and its reviews from a listing page.
type Scraper interface {
	Scrape(ctx context.Context, url string, opts ScrapeOptions) (domain.ScrapeResult, error)
}
