package scraper

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"reviewrag/internal/adapter/preprocess"
	"reviewrag/internal/domain"
	"reviewrag/internal/port"
)

// Listing page selectors. Google Maps renames classes often, so each field
// lists the known variants in order of preference.
var (
	businessNameSelectors   = []string{"h1[data-attrid='title']", "h1.DUwDvf", "h1.x3AX1-LfntMc-header-title-title", "h1"}
	businessRatingSelectors = []string{"div.F7nice span[aria-hidden='true']", "span.ceNzKf"}
	reviewCountSelectors    = []string{"span.RDApEe.YrbPuc", "div.F7nice span[aria-label]"}

	reviewSelector   = "div.jftiEf, div[data-review-id]"
	reviewerSelector = ".d4r55, .X43Kjb"
	ratingSelector   = "span.kvMYJc, [role='img'][aria-label*='星'], [role='img'][aria-label*='star']"
	dateSelector     = ".rsqaWe, .DU9Pgb"
	textSelector     = ".wiI7pd, .MyEned"
	photoSelector    = ".KtCyie img, .EDblX img"
)

var numberPattern = regexp.MustCompile(`\d+(?:[.,]\d+)?`)

// Parse extracts the business header and its reviews from a rendered listing page.
// Missing elements leave the corresponding field empty. A review is kept when it
// has text or a rating; parsing stops at the first review older than the year limit.
func Parse(html string, opts port.ScrapeOptions, now time.Time) (domain.Business, []domain.Review, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return domain.Business{}, nil, fmt.Errorf("failed to parse page: %w", err)
	}

	business := domain.Business{
		Name:        firstText(doc.Selection, businessNameSelectors),
		Rating:      parseRating(firstText(doc.Selection, businessRatingSelectors)),
		ReviewCount: strings.Trim(firstText(doc.Selection, reviewCountSelectors), "() "),
	}

	var reviews []domain.Review
	seen := make(map[string]bool)

	doc.Find(reviewSelector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		// Nested matches belong to the enclosing review.
		if s.ParentsFiltered(reviewSelector).Length() > 0 {
			return true
		}
		if id, ok := s.Attr("data-review-id"); ok {
			if seen[id] {
				return true
			}
			seen[id] = true
		}

		r := parseReview(s, now)
		if opts.YearLimit > 0 && preprocess.IsOlderThan(r.DateText, opts.YearLimit, now) {
			return false
		}
		if r.Text == "" && r.Rating == nil {
			return true
		}

		reviews = append(reviews, r)
		return opts.MaxReviews <= 0 || len(reviews) < opts.MaxReviews
	})

	return business, reviews, nil
}

func parseReview(s *goquery.Selection, now time.Time) domain.Review {
	r := domain.Review{
		ReviewerName: strings.TrimSpace(s.Find(reviewerSelector).First().Text()),
		DateText:     strings.TrimSpace(s.Find(dateSelector).First().Text()),
		Text:         strings.TrimSpace(s.Find(textSelector).First().Text()),
		PhotoCount:   s.Find(photoSelector).Length(),
	}

	if label, ok := s.Find(ratingSelector).First().Attr("aria-label"); ok {
		r.Rating = parseRating(label)
	}
	if t, ok := preprocess.ParseDate(r.DateText, now); ok {
		r.Date = &t
	}
	return r
}

func firstText(s *goquery.Selection, selectors []string) string {
	for _, sel := range selectors {
		if text := strings.TrimSpace(s.Find(sel).First().Text()); text != "" {
			return text
		}
	}
	return ""
}

// parseRating reads the first number in text ("4.5", "5 stars", "4 顆星").
func parseRating(text string) *float64 {
	m := numberPattern.FindString(text)
	if m == "" {
		return nil
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(m, ",", "."), 64)
	if err != nil || v < 0 || v > 5 {
		return nil
	}
	return &v
}

var placeIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`place/[^/]+/data=.*?1s([^!]+)`),
	regexp.MustCompile(`place_id:([^&]+)`),
	regexp.MustCompile(`ftid:([^&]+)`),
}

// ExtractPlaceID returns the place identifier embedded in a Google Maps URL.
func ExtractPlaceID(url string) (string, bool) {
	for _, p := range placeIDPatterns {
		if m := p.FindStringSubmatch(url); m != nil {
			return m[1], true
		}
	}
	return "", false
}
