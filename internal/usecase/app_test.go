package usecase

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reviewrag/internal/adapter/analyzer"
	"reviewrag/internal/adapter/embedding"
	"reviewrag/internal/adapter/preprocess"
	"reviewrag/internal/adapter/retriever"
	"reviewrag/internal/adapter/store"
	"reviewrag/internal/domain"
	"reviewrag/internal/locale"
	"reviewrag/internal/port"
)

const testDim = 128

type fakeGenerator struct {
	requests []port.GenerateRequest
}

func (g *fakeGenerator) Generate(_ context.Context, req port.GenerateRequest) domain.GenerationResult {
	g.requests = append(g.requests, req)
	return domain.GenerationResult{Text: "generated " + string(req.Kind), Model: "fake", Success: true}
}

func (g *fakeGenerator) ModelName() string { return "fake" }

type fakeScraper struct {
	result domain.ScrapeResult
	err    error
}

func (s *fakeScraper) Scrape(_ context.Context, url string, _ port.ScrapeOptions) (domain.ScrapeResult, error) {
	r := s.result
	r.URL = url
	return r, s.err
}

type testEnv struct {
	app       *App
	index     *store.VectorIndex
	generator *fakeGenerator
	dir       string
}

func newTestEnv(t *testing.T, scraper port.Scraper, withGenerator bool) *testEnv {
	t.Helper()
	dir := t.TempDir()
	labels := locale.MustFor("en")

	idx := store.NewVectorIndex(filepath.Join(dir, "index", "reviews"), embedding.HashModelName, testDim)
	emb := embedding.NewHashEmbedder(testDim)
	tok := analyzer.NewTokenizer()

	indexUC := NewIndexUseCase(idx, emb, preprocess.New(labels), 2, nil)
	retrieveUC := NewRetrieveUseCase(
		retriever.NewSemanticRetriever(idx, emb, 0),
		retriever.NewContextBuilder(labels, tok, 3000),
		5,
	)

	env := &testEnv{index: idx, dir: dir}
	var gen port.Generator
	if withGenerator {
		env.generator = &fakeGenerator{}
		gen = env.generator
	}
	env.app = NewApp(scraper, indexUC, retrieveUC, gen, labels, filepath.Join(dir, "reviews"), nil)
	return env
}

func cafeResult() domain.ScrapeResult {
	return domain.ScrapeResult{
		Business: domain.Business{Name: "Test Cafe", Rating: domain.Float(4.3)},
		Reviews: []domain.Review{
			{ReviewerName: "Alice", Rating: domain.Float(5), Text: "Excellent espresso and friendly baristas", DateText: "2 weeks ago"},
			{ReviewerName: "Bob", Rating: domain.Float(3), Text: "Coffee was fine but the wait was long"},
		},
	}
}

func diner(name string, texts ...string) domain.ScrapeResult {
	r := domain.ScrapeResult{Business: domain.Business{Name: name}}
	for _, text := range texts {
		r.Reviews = append(r.Reviews, domain.Review{Text: text, Rating: domain.Float(4)})
	}
	return r
}

func TestIngest_ListBusinesses(t *testing.T) {
	env := newTestEnv(t, nil, true)
	ctx := context.Background()

	for _, r := range []domain.ScrapeResult{
		diner("Zebra Grill", "Juicy burgers"),
		cafeResult(),
		diner("Alpha Noodles", "Hand pulled noodles", "Rich broth"),
		diner("Zebra Grill", "Great fries"),
	} {
		res := env.app.Ingest(ctx, r)
		require.True(t, res.Success, res.Error)
	}

	names, err := env.app.ListBusinesses()
	require.NoError(t, err)
	assert.Equal(t, []string{"Alpha Noodles", "Test Cafe", "Zebra Grill"}, names)
	assert.Equal(t, 6, env.index.Count())
}

func TestIngest_SkipsBlankReviews(t *testing.T) {
	env := newTestEnv(t, nil, true)

	result := cafeResult()
	result.Reviews = append(result.Reviews, domain.Review{ReviewerName: "Carol", Rating: domain.Float(1), Text: "   "})

	var progress [][2]int
	env.app.WithProgress(func(done, total int) { progress = append(progress, [2]int{done, total}) })

	res := env.app.Ingest(context.Background(), result)
	require.True(t, res.Success, res.Error)
	assert.Equal(t, 3, res.ReviewsScraped)
	assert.Equal(t, 2, res.ReviewsIndexed)
	assert.Equal(t, [][2]int{{2, 2}}, progress)
}

func TestBusinessSummary(t *testing.T) {
	env := newTestEnv(t, nil, true)
	require.True(t, env.app.Ingest(context.Background(), cafeResult()).Success)

	summary, err := env.app.BusinessSummary("Test Cafe")
	require.NoError(t, err)
	assert.Equal(t, 2, summary.TotalReviews)
	require.NotNil(t, summary.AverageRating)
	assert.Equal(t, 4.0, *summary.AverageRating)
	assert.Equal(t, map[int]int{5: 1, 3: 1}, summary.RatingDistribution)
	require.NotNil(t, summary.BusinessRating)
	assert.Equal(t, 4.3, *summary.BusinessRating)

	empty, err := env.app.BusinessSummary("Nowhere")
	require.NoError(t, err)
	assert.Equal(t, 0, empty.TotalReviews)
	assert.Nil(t, empty.AverageRating)
}

func TestDeleteBusiness(t *testing.T) {
	env := newTestEnv(t, nil, true)
	ctx := context.Background()
	require.True(t, env.app.Ingest(ctx, cafeResult()).Success)
	require.True(t, env.app.Ingest(ctx, diner("Alpha Noodles", "Hand pulled noodles", "Rich broth", "Spicy")).Success)

	before := env.index.Count()
	res := env.app.DeleteBusiness("Test Cafe")
	require.True(t, res.Success, res.Message)
	assert.Equal(t, 2, res.Removed)
	assert.Equal(t, before-res.Removed, env.index.Count())

	names, err := env.app.ListBusinesses()
	require.NoError(t, err)
	assert.Equal(t, []string{"Alpha Noodles"}, names)

	none := env.app.DeleteBusiness("Test Cafe")
	assert.True(t, none.Success)
	assert.Zero(t, none.Removed)
}

func TestDeleteBusiness_Persists(t *testing.T) {
	env := newTestEnv(t, nil, true)
	ctx := context.Background()
	require.True(t, env.app.Ingest(ctx, cafeResult()).Success)
	require.True(t, env.app.Ingest(ctx, diner("Alpha Noodles", "Rich broth")).Success)
	require.True(t, env.app.DeleteBusiness("Test Cafe").Success)

	reopened := store.NewVectorIndex(env.index.Path(), embedding.HashModelName, testDim)
	require.NoError(t, reopened.Load())
	assert.Equal(t, 1, reopened.Count())
}

func TestSearch_EmptyIndex(t *testing.T) {
	env := newTestEnv(t, nil, true)

	results, err := env.app.Search(context.Background(), "coffee", "", 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearch_UnknownBusiness(t *testing.T) {
	env := newTestEnv(t, nil, true)
	require.True(t, env.app.Ingest(context.Background(), cafeResult()).Success)

	results, err := env.app.Search(context.Background(), "espresso", "No Such Place", 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearch_RanksAndFilters(t *testing.T) {
	env := newTestEnv(t, nil, true)
	ctx := context.Background()
	require.True(t, env.app.Ingest(ctx, cafeResult()).Success)
	require.True(t, env.app.Ingest(ctx, diner("Alpha Noodles", "Hand pulled noodles in rich broth")).Success)

	results, err := env.app.Search(ctx, "espresso baristas", "", 5)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, 1, results[0].Rank)
	assert.Equal(t, "Alice", results[0].Document.Metadata.ReviewerName)
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].Score, results[i].Score)
	}
	for _, r := range results {
		assert.GreaterOrEqual(t, r.Score, 0.0)
		assert.LessOrEqual(t, r.Score, 1.0)
	}

	filtered, err := env.app.Search(ctx, "noodles", "Test Cafe", 5)
	require.NoError(t, err)
	for _, r := range filtered {
		assert.Equal(t, "Test Cafe", r.Document.Metadata.BusinessName)
	}
}

func TestAsk(t *testing.T) {
	env := newTestEnv(t, nil, true)
	require.True(t, env.app.Ingest(context.Background(), cafeResult()).Success)

	res := env.app.Ask(context.Background(), "How is the espresso?", "Test Cafe", 3)
	require.True(t, res.Success, res.Error)
	assert.Equal(t, "generated answer", res.Text)
	assert.Equal(t, 2, res.ReviewsUsed)
	assert.Equal(t, "Test Cafe", res.Business)

	require.Len(t, env.generator.requests, 1)
	req := env.generator.requests[0]
	assert.Equal(t, port.PromptAnswer, req.Kind)
	assert.Equal(t, "How is the espresso?", req.Question)
	require.NotNil(t, req.Summary)
	assert.Equal(t, 2, req.Summary.TotalReviews)
	assert.Contains(t, req.Context, "Excellent espresso")
}

func TestAsk_WithoutBusiness(t *testing.T) {
	env := newTestEnv(t, nil, true)
	require.True(t, env.app.Ingest(context.Background(), cafeResult()).Success)

	res := env.app.Ask(context.Background(), "espresso", "", 0)
	require.True(t, res.Success)
	require.Len(t, env.generator.requests, 1)
	assert.Nil(t, env.generator.requests[0].Summary)
}

func TestPrepareAsk_DoesNotGenerate(t *testing.T) {
	env := newTestEnv(t, nil, true)
	require.True(t, env.app.Ingest(context.Background(), cafeResult()).Success)

	req, err := env.app.PrepareAsk(context.Background(), "espresso", "Test Cafe", 1)
	require.NoError(t, err)
	assert.Equal(t, port.PromptAnswer, req.Kind)
	assert.Len(t, req.Reviews, 1)
	assert.NotEmpty(t, req.Context)
	assert.Empty(t, env.generator.requests)
}

func TestAsk_GeneratorDisabled(t *testing.T) {
	env := newTestEnv(t, nil, false)
	require.True(t, env.app.Ingest(context.Background(), cafeResult()).Success)
	assert.False(t, env.app.GenerationEnabled())

	res := env.app.Ask(context.Background(), "espresso", "", 3)
	assert.False(t, res.Success)
	assert.Equal(t, domain.ErrGeneratorDisabled.Error(), res.Error)
	assert.Contains(t, res.Text, "Sorry")

	// Search still works without generation.
	results, err := env.app.Search(context.Background(), "espresso", "", 3)
	require.NoError(t, err)
	assert.NotEmpty(t, results)
}

func TestAnalyze(t *testing.T) {
	env := newTestEnv(t, nil, true)
	require.True(t, env.app.Ingest(context.Background(), cafeResult()).Success)

	res := env.app.Analyze(context.Background(), "Test Cafe")
	require.True(t, res.Success, res.Error)
	assert.Equal(t, 2, res.ReviewsUsed)

	req := env.generator.requests[0]
	assert.Equal(t, port.PromptAnalysis, req.Kind)
	require.NotNil(t, req.Summary)
	require.Len(t, req.Reviews, 2)
	assert.Nil(t, req.Reviews[0].Document.Vector)
}

func TestAnalyze_NoReviews(t *testing.T) {
	env := newTestEnv(t, nil, true)

	res := env.app.Analyze(context.Background(), "Nowhere")
	assert.False(t, res.Success)
	assert.Equal(t, domain.ErrNoReviews.Error(), res.Error)
	assert.Empty(t, env.generator.requests)
}

func TestSummarizeAndSentiment(t *testing.T) {
	env := newTestEnv(t, nil, true)
	require.True(t, env.app.Ingest(context.Background(), cafeResult()).Success)

	sum := env.app.Summarize(context.Background(), "Test Cafe")
	require.True(t, sum.Success, sum.Error)
	sent := env.app.Sentiment(context.Background(), "")
	require.True(t, sent.Success, sent.Error)

	require.Len(t, env.generator.requests, 2)
	assert.Equal(t, port.PromptSummary, env.generator.requests[0].Kind)
	assert.Equal(t, port.PromptSentiment, env.generator.requests[1].Kind)
	assert.NotEmpty(t, env.generator.requests[1].Context)
}

func TestSummarize_EmptyIndex(t *testing.T) {
	env := newTestEnv(t, nil, true)

	res := env.app.Summarize(context.Background(), "")
	assert.False(t, res.Success)
	assert.Empty(t, env.generator.requests)
}

func TestScrapeAndStore(t *testing.T) {
	scraper := &fakeScraper{result: cafeResult()}
	scraper.result.ScrapedAt = time.Date(2026, 6, 1, 9, 30, 15, 0, time.UTC)
	env := newTestEnv(t, scraper, true)

	res := env.app.ScrapeAndStore(context.Background(), "https://maps.google.com/cafe", ScrapeOptions{
		MaxReviews: 50,
		SaveCSV:    true,
	})
	require.True(t, res.Success, res.Error)
	assert.Equal(t, "Test Cafe", res.Business)
	assert.Equal(t, 2, res.ReviewsScraped)
	assert.Equal(t, 2, res.ReviewsIndexed)
	assert.Equal(t, filepath.Join(env.dir, "reviews", "reviews_20260601_093015.json"), res.ArchivePath)
	assert.FileExists(t, res.ArchivePath)
	assert.Equal(t, filepath.Join(env.dir, "reviews", "reviews_20260601_093015.csv"), res.CSVPath)
	assert.FileExists(t, res.CSVPath)
}

func TestScrapeAndStore_NameOverrideAndFailures(t *testing.T) {
	scraper := &fakeScraper{result: cafeResult()}
	env := newTestEnv(t, scraper, true)

	res := env.app.ScrapeAndStore(context.Background(), "u", ScrapeOptions{BusinessName: "Renamed Cafe"})
	require.True(t, res.Success, res.Error)
	names, err := env.app.ListBusinesses()
	require.NoError(t, err)
	assert.Equal(t, []string{"Renamed Cafe"}, names)

	scraper.err = errors.New("browser crashed")
	failed := env.app.ScrapeAndStore(context.Background(), "u", ScrapeOptions{})
	assert.False(t, failed.Success)
	assert.Contains(t, failed.Error, "browser crashed")

	scraper.err = nil
	scraper.result = domain.ScrapeResult{}
	empty := env.app.ScrapeAndStore(context.Background(), "u", ScrapeOptions{})
	assert.False(t, empty.Success)
	assert.Equal(t, "Unknown business", empty.Business)
}

func TestImport(t *testing.T) {
	env := newTestEnv(t, nil, true)
	src := filepath.Join(t.TempDir(), "archives")
	require.NoError(t, os.MkdirAll(src, 0755))

	bare := `[{"reviewer_name": "Dan", "rating": 4, "content": "Cozy place with good tea"}]`
	require.NoError(t, os.WriteFile(filepath.Join(src, "reviews_20260101_000000.json"), []byte(bare), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "reviews_20260102_000000.json"), []byte("{broken"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "ignored.json"), []byte("[]"), 0644))

	results, err := env.app.Import(context.Background(), src, nil)
	require.NoError(t, err)
	require.Len(t, results, 2)

	var ok, failed int
	for _, r := range results {
		if r.Success {
			ok++
			assert.Equal(t, "Unknown business", r.Business)
			assert.Equal(t, 1, r.ReviewsIndexed)
		} else {
			failed++
			assert.NotEmpty(t, r.Error)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, failed)
}

func TestStatsAndInfo(t *testing.T) {
	env := newTestEnv(t, nil, true)
	ctx := context.Background()
	require.True(t, env.app.Ingest(ctx, cafeResult()).Success)
	require.True(t, env.app.Ingest(ctx, diner("Alpha Noodles", "Rich broth")).Success)

	stats, err := env.app.Stats()
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalReviews)
	assert.Equal(t, 3, stats.ReviewsWithRating)
	assert.Equal(t, 2, stats.Businesses)
	assert.Equal(t, "built", stats.State)
	assert.Equal(t, embedding.HashModelName, stats.ModelName)
	assert.Equal(t, testDim, stats.Dimension)
	require.NotNil(t, stats.AverageRating)
	assert.Equal(t, 4.0, *stats.AverageRating)
	assert.Equal(t, 1, stats.ReviewsWithDates)

	info, err := env.app.Info("reviews", env.index.Path())
	require.NoError(t, err)
	assert.Equal(t, 3, info.TotalReviews)
	assert.Equal(t, 2, info.TotalBusiness)
	assert.Equal(t, []string{"Alpha Noodles", "Test Cafe"}, info.BusinessNames)
}
