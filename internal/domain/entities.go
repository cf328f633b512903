package domain

import (
	"strconv"
	"time"
)

type Review struct {
	ReviewerName string     `json:"reviewer_name"`
	Rating       *float64   `json:"rating,omitempty"`
	Text         string     `json:"text"`
	DateText     string     `json:"date_text,omitempty"`
	Date         *time.Time `json:"date,omitempty"`
	PhotoCount   int        `json:"photo_count,omitempty"`
}

type Business struct {
	Name        string   `json:"name"`
	Rating      *float64 `json:"rating,omitempty"`
	ReviewCount string   `json:"review_count,omitempty"`
	URL         string   `json:"url,omitempty"`
}

type ScrapeResult struct {
	Business  Business  `json:"business"`
	URL       string    `json:"url"`
	ScrapedAt time.Time `json:"scraped_at"`
	Reviews   []Review  `json:"reviews"`
}

// Metadata fields usable in a Filter.
const (
	FieldBusinessName = "business_name"
	FieldReviewerName = "reviewer_name"
	FieldRating       = "rating"
	FieldDateText     = "date_text"
)

// ReviewMetadata is stored alongside every indexed vector.
type ReviewMetadata struct {
	BusinessName   string     `json:"business_name"`
	BusinessRating *float64   `json:"business_rating,omitempty"`
	ReviewerName   string     `json:"reviewer_name"`
	Rating         *float64   `json:"rating,omitempty"`
	ReviewText     string     `json:"review_text"`
	DateText       string     `json:"date_text,omitempty"`
	Date           *time.Time `json:"date,omitempty"`
	PhotoCount     int        `json:"photo_count,omitempty"`
	AddedAt        time.Time  `json:"added_at"`
}

// Field returns the string form of a filterable field.
func (m ReviewMetadata) Field(name string) (string, bool) {
	switch name {
	case FieldBusinessName:
		return m.BusinessName, true
	case FieldReviewerName:
		return m.ReviewerName, true
	case FieldDateText:
		return m.DateText, true
	case FieldRating:
		if m.Rating == nil {
			return "", false
		}
		return FormatRating(*m.Rating), true
	}
	return "", false
}

// FormatRating renders a rating without trailing zeros ("5", "4.5").
func FormatRating(r float64) string {
	return strconv.FormatFloat(r, 'f', -1, 64)
}

// Filter is a set of metadata equality predicates that must all hold.
type Filter map[string]string

// BusinessFilter returns a filter on business name, or nil when name is empty.
func BusinessFilter(name string) Filter {
	if name == "" {
		return nil
	}
	return Filter{FieldBusinessName: name}
}

// Matches reports whether m satisfies every predicate in f.
func (f Filter) Matches(m ReviewMetadata) bool {
	for field, want := range f {
		got, ok := m.Field(field)
		if !ok || got != want {
			return false
		}
	}
	return true
}

type IndexedDocument struct {
	ID       string         `json:"id"`
	Text     string         `json:"text"`
	Vector   []float32      `json:"-"`
	Metadata ReviewMetadata `json:"metadata"`
}

type SearchResult struct {
	Rank     int             `json:"rank"`
	Score    float64         `json:"score"`
	Document IndexedDocument `json:"document"`
}

type IndexState int

const (
	IndexEmpty IndexState = iota
	IndexBuilt
	IndexUnloaded
)

func (s IndexState) String() string {
	switch s {
	case IndexEmpty:
		return "empty"
	case IndexBuilt:
		return "built"
	case IndexUnloaded:
		return "unloaded"
	}
	return "unknown"
}

type BusinessSummary struct {
	BusinessName       string      `json:"business_name"`
	TotalReviews       int         `json:"total_reviews"`
	AverageRating      *float64    `json:"average_rating,omitempty"`
	BusinessRating     *float64    `json:"business_rating,omitempty"`
	RatingDistribution map[int]int `json:"rating_distribution"`
}

type IndexStats struct {
	TotalReviews       int         `json:"total_reviews"`
	ReviewsWithRating  int         `json:"reviews_with_rating"`
	RatingDistribution map[int]int `json:"rating_distribution"`
	AverageRating      *float64    `json:"average_rating,omitempty"`
	ReviewsWithDates   int         `json:"reviews_with_dates"`
	EarliestDate       *time.Time  `json:"earliest_date,omitempty"`
	LatestDate         *time.Time  `json:"latest_date,omitempty"`
	Businesses         int         `json:"businesses"`
	ModelName          string      `json:"model_name"`
	Dimension          int         `json:"vector_dimension"`
	State              string      `json:"state"`
}

type CollectionInfo struct {
	Name           string   `json:"collection_name"`
	Path           string   `json:"path"`
	TotalReviews   int      `json:"total_reviews"`
	TotalBusiness  int      `json:"total_businesses"`
	BusinessNames  []string `json:"businesses"`
	EmbeddingModel string   `json:"embedding_model"`
}

type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// GenerationResult is the tagged outcome of one completion request.
// Success is false when Error is set; Text then holds a user-facing apology.
type GenerationResult struct {
	Text          string     `json:"text"`
	Model         string     `json:"model"`
	Usage         TokenUsage `json:"usage"`
	Success       bool       `json:"success"`
	Error         string     `json:"error,omitempty"`
	ContextLength int        `json:"context_length"`
	CreatedAt     time.Time  `json:"created_at"`
}

// Float returns a pointer to v.
func Float(v float64) *float64 {
	return &v
}
