package preprocess

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"reviewrag/internal/domain"
	"reviewrag/internal/locale"
)

const fieldSeparator = " | "

// Preprocessor turns scraped reviews into indexable documents.
type Preprocessor struct {
	labels locale.Labels
	now    func() time.Time
	newID  func() string
}

// New creates a Preprocessor rendering field labels in the given language.
func New(labels locale.Labels) *Preprocessor {
	return &Preprocessor{
		labels: labels,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// Text renders the present fields of r in a fixed order:
// rating, body, date, author, photo count. Absent fields are omitted.
func (p *Preprocessor) Text(r domain.Review) string {
	parts := make([]string, 0, 5)

	if r.Rating != nil {
		parts = append(parts, fmt.Sprintf(p.labels.Rating, domain.FormatRating(*r.Rating)))
	}
	if body := strings.TrimSpace(r.Text); body != "" {
		parts = append(parts, fmt.Sprintf(p.labels.Content, body))
	}
	if date := strings.TrimSpace(r.DateText); date != "" {
		parts = append(parts, fmt.Sprintf(p.labels.Date, date))
	}
	if name := strings.TrimSpace(r.ReviewerName); name != "" {
		parts = append(parts, fmt.Sprintf(p.labels.Reviewer, name))
	}
	if r.PhotoCount > 0 {
		parts = append(parts, fmt.Sprintf(p.labels.Photos, r.PhotoCount))
	}

	return strings.Join(parts, fieldSeparator)
}

// Document builds the indexable record for one review of business.
// The vector is left empty for the embedder to fill.
func (p *Preprocessor) Document(business domain.Business, r domain.Review) domain.IndexedDocument {
	now := p.now()

	date := r.Date
	if date == nil {
		if t, ok := ParseDate(r.DateText, now); ok {
			date = &t
		}
	}

	return domain.IndexedDocument{
		ID:   p.newID(),
		Text: p.Text(r),
		Metadata: domain.ReviewMetadata{
			BusinessName:   business.Name,
			BusinessRating: business.Rating,
			ReviewerName:   r.ReviewerName,
			Rating:         r.Rating,
			ReviewText:     r.Text,
			DateText:       r.DateText,
			Date:           date,
			PhotoCount:     r.PhotoCount,
			AddedAt:        now,
		},
	}
}

// Documents preprocesses every review that carries text, skipping the rest.
func (p *Preprocessor) Documents(result domain.ScrapeResult) []domain.IndexedDocument {
	docs := make([]domain.IndexedDocument, 0, len(result.Reviews))
	for _, r := range result.Reviews {
		if strings.TrimSpace(r.Text) == "" {
			continue
		}
		docs = append(docs, p.Document(result.Business, r))
	}
	return docs
}
