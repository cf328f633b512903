package preprocess

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reviewrag/internal/domain"
	"reviewrag/internal/locale"
)

func fixedPreprocessor(lang string) *Preprocessor {
	p := New(locale.MustFor(lang))
	p.now = func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) }
	n := 0
	p.newID = func() string {
		n++
		return "doc-" + string(rune('0'+n))
	}
	return p
}

func TestText_AllFields(t *testing.T) {
	p := fixedPreprocessor("en")
	r := domain.Review{
		ReviewerName: "Alice",
		Rating:       domain.Float(5),
		Text:         "Great coffee",
		DateText:     "2 weeks ago",
		PhotoCount:   3,
	}

	got := p.Text(r)
	want := "Rating: 5 stars | Review: Great coffee | Date: 2 weeks ago | Reviewer: Alice | Includes 3 photos"
	assert.Equal(t, want, got)
}

func TestText_Chinese(t *testing.T) {
	p := fixedPreprocessor("zh")
	r := domain.Review{
		ReviewerName: "王小明",
		Rating:       domain.Float(4),
		Text:         "咖啡很好喝",
		DateText:     "3個月前",
		PhotoCount:   2,
	}

	assert.Equal(t, "評分: 4星 | 評論內容: 咖啡很好喝 | 評論時間: 3個月前 | 評論者: 王小明 | 包含 2 張照片", p.Text(r))
}

func TestText_OmitsAbsentFields(t *testing.T) {
	p := fixedPreprocessor("en")

	assert.Equal(t, "Review: Just text", p.Text(domain.Review{Text: "  Just text  "}))
	assert.Equal(t, "Rating: 3 stars", p.Text(domain.Review{Rating: domain.Float(3)}))
	assert.Equal(t, "", p.Text(domain.Review{}))

	got := p.Text(domain.Review{Text: "ok", PhotoCount: 0})
	assert.NotContains(t, got, "photos")
}

func TestText_Deterministic(t *testing.T) {
	p := fixedPreprocessor("en")
	r := domain.Review{ReviewerName: "Bob", Rating: domain.Float(4.5), Text: "Nice", DateText: "a month ago"}

	first := p.Text(r)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, p.Text(r))
	}
	assert.True(t, strings.HasPrefix(first, "Rating: 4.5 stars"))
}

func TestDocument_Metadata(t *testing.T) {
	p := fixedPreprocessor("en")
	biz := domain.Business{Name: "Test Cafe", Rating: domain.Float(4.2)}
	r := domain.Review{ReviewerName: "Alice", Rating: domain.Float(5), Text: "Great", DateText: "1 week ago"}

	doc := p.Document(biz, r)

	assert.Equal(t, "doc-1", doc.ID)
	assert.Equal(t, "Test Cafe", doc.Metadata.BusinessName)
	assert.Equal(t, 4.2, *doc.Metadata.BusinessRating)
	assert.Equal(t, "Great", doc.Metadata.ReviewText)
	require.NotNil(t, doc.Metadata.Date)
	assert.Equal(t, time.Date(2024, 5, 25, 12, 0, 0, 0, time.UTC), *doc.Metadata.Date)
	assert.Equal(t, time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC), doc.Metadata.AddedAt)
	assert.Empty(t, doc.Vector)
}

func TestDocuments_SkipsBlankText(t *testing.T) {
	p := fixedPreprocessor("en")
	result := domain.ScrapeResult{
		Business: domain.Business{Name: "Test Cafe"},
		Reviews: []domain.Review{
			{Text: "Good", Rating: domain.Float(5)},
			{Text: "   ", Rating: domain.Float(1)},
			{Text: "Fine", Rating: domain.Float(3)},
		},
	}

	docs := p.Documents(result)
	require.Len(t, docs, 2)
	assert.Equal(t, "Good", docs[0].Metadata.ReviewText)
	assert.Equal(t, "Fine", docs[1].Metadata.ReviewText)
}

func TestParseDate(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		text string
		want time.Time
		ok   bool
	}{
		{"2 weeks ago", now.Add(-14 * day), true},
		{"a month ago", now.Add(-30 * day), true},
		{"3 years ago", now.Add(-3 * 365 * day), true},
		{"yesterday", now.Add(-day), true},
		{"5天前", now.Add(-5 * day), true},
		{"2週前", now.Add(-14 * day), true},
		{"3個月前", now.Add(-90 * day), true},
		{"一年前", now.Add(-365 * day), true},
		{"十二個月前", now.Add(-360 * day), true},
		{"4 小時前", now.Add(-4 * time.Hour), true},
		{"2023-12-25", time.Date(2023, 12, 25, 0, 0, 0, 0, time.UTC), true},
		{"", time.Time{}, false},
		{"sometime", time.Time{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, ok := ParseDate(tt.text, now)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.True(t, tt.want.Equal(got), "expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestIsOlderThan(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	assert.True(t, IsOlderThan("2 years ago", 1, now))
	assert.True(t, IsOlderThan("2年前", 1, now))
	assert.False(t, IsOlderThan("11個月前", 1, now))
	assert.False(t, IsOlderThan("garbled", 1, now))
	assert.False(t, IsOlderThan("5 years ago", 0, now))
}
