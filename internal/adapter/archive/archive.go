// Package archive reads and writes scraped review files.
package archive

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"reviewrag/internal/domain"
)

const fileTimeLayout = "20060102_150405"

type savedArchive struct {
	Business     domain.Business `json:"business"`
	URL          string          `json:"url"`
	ScrapedAt    time.Time       `json:"scraped_at"`
	TotalReviews int             `json:"total_reviews"`
	Reviews      []domain.Review `json:"reviews"`
}

// FileName returns the archive name for a scrape finished at t.
func FileName(t time.Time) string {
	return "reviews_" + t.Format(fileTimeLayout) + ".json"
}

// Save writes result to dir as reviews_<YYYYMMDD_HHMMSS>.json and returns the
// path. A scrape finishing in the same second as an existing archive gets a
// numeric suffix (reviews_<...>_2.json) instead of replacing it.
func Save(dir string, result domain.ScrapeResult) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create archive dir: %w", err)
	}

	scrapedAt := result.ScrapedAt
	if scrapedAt.IsZero() {
		scrapedAt = time.Now()
	}

	data, err := json.MarshalIndent(savedArchive{
		Business:     result.Business,
		URL:          result.URL,
		ScrapedAt:    scrapedAt,
		TotalReviews: len(result.Reviews),
		Reviews:      result.Reviews,
	}, "", "  ")
	if err != nil {
		return "", err
	}

	f, path, err := createUnique(dir, FileName(scrapedAt))
	if err != nil {
		return "", fmt.Errorf("failed to create archive: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return "", fmt.Errorf("failed to write archive: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to write archive: %w", err)
	}
	return path, nil
}

const maxNameAttempts = 1000

// createUnique creates name in dir, or name with a _2, _3, ... suffix when
// it is taken.
func createUnique(dir, name string) (*os.File, string, error) {
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)

	for i := 1; i <= maxNameAttempts; i++ {
		candidate := name
		if i > 1 {
			candidate = fmt.Sprintf("%s_%d%s", base, i, ext)
		}
		path := filepath.Join(dir, candidate)

		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return nil, "", err
		}
		return f, path, nil
	}
	return nil, "", fmt.Errorf("no free name for %s after %d attempts", name, maxNameAttempts)
}

// archiveFile accepts the current layout and the older ones: a bare review
// array, {"restaurant_name", "reviews"} and {"business_info", "reviews"}.
type archiveFile struct {
	Business       *domain.Business `json:"business"`
	RestaurantName string           `json:"restaurant_name"`
	BusinessInfo   *struct {
		Name   string          `json:"name"`
		Rating json.RawMessage `json:"rating"`
	} `json:"business_info"`
	URL       string          `json:"url"`
	ScrapedAt string          `json:"scraped_at"`
	Reviews   []archiveReview `json:"reviews"`
}

type archiveReview struct {
	ReviewerName string          `json:"reviewer_name"`
	Rating       json.RawMessage `json:"rating"`
	Text         string          `json:"text"`
	Content      string          `json:"content"`
	ReviewText   string          `json:"review_text"`
	DateText     string          `json:"date_text"`
	Date         *string         `json:"date"`
	PhotoCount   int             `json:"photo_count"`
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
}

// Load reads an archive. Files without a business name get fallbackName.
func Load(path, fallbackName string) (domain.ScrapeResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.ScrapeResult{}, err
	}

	var file archiveFile
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &file.Reviews); err != nil {
			return domain.ScrapeResult{}, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	} else if err := json.Unmarshal(trimmed, &file); err != nil {
		return domain.ScrapeResult{}, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	result := domain.ScrapeResult{URL: file.URL}
	switch {
	case file.Business != nil:
		result.Business = *file.Business
	case file.BusinessInfo != nil:
		result.Business = domain.Business{Name: file.BusinessInfo.Name, Rating: parseRating(file.BusinessInfo.Rating)}
	default:
		result.Business = domain.Business{Name: file.RestaurantName}
	}
	if strings.TrimSpace(result.Business.Name) == "" {
		result.Business.Name = fallbackName
	}
	if result.Business.URL == "" {
		result.Business.URL = file.URL
	}
	if t, ok := parseTimestamp(file.ScrapedAt); ok {
		result.ScrapedAt = t
	}

	result.Reviews = make([]domain.Review, 0, len(file.Reviews))
	for _, r := range file.Reviews {
		result.Reviews = append(result.Reviews, r.review())
	}
	return result, nil
}

func (r archiveReview) review() domain.Review {
	out := domain.Review{
		ReviewerName: r.ReviewerName,
		Rating:       parseRating(r.Rating),
		Text:         firstNonEmpty(r.Text, r.Content, r.ReviewText),
		DateText:     r.DateText,
		PhotoCount:   r.PhotoCount,
	}
	if r.Date != nil {
		if t, ok := parseTimestamp(*r.Date); ok {
			out.Date = &t
		} else if out.DateText == "" {
			out.DateText = *r.Date
		}
	}
	return out
}

// parseRating accepts a JSON number or a numeric string; anything else is absent.
func parseRating(raw json.RawMessage) *float64 {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var v float64
	if err := json.Unmarshal(raw, &v); err == nil {
		return &v
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return nil
	}
	return &v
}

func parseTimestamp(s string) (time.Time, bool) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

var csvHeader = []string{"business_name", "business_rating", "reviewer_name", "rating", "text", "date_text", "date", "photo_count"}

// WriteCSV exports the reviews of result, one row per review.
func WriteCSV(path string, result domain.ScrapeResult) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return err
	}

	businessRating := formatOptional(result.Business.Rating)
	for _, r := range result.Reviews {
		date := ""
		if r.Date != nil {
			date = r.Date.Format(time.RFC3339)
		}
		if err := w.Write([]string{
			result.Business.Name,
			businessRating,
			r.ReviewerName,
			formatOptional(r.Rating),
			r.Text,
			r.DateText,
			date,
			strconv.Itoa(r.PhotoCount),
		}); err != nil {
			return err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}

func formatOptional(v *float64) string {
	if v == nil {
		return ""
	}
	return domain.FormatRating(*v)
}
