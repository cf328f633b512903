package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"reviewrag/internal/adapter/archive"
	"reviewrag/internal/adapter/fs"
	"reviewrag/internal/domain"
	"reviewrag/internal/locale"
	"reviewrag/internal/port"
)

const (
	analysisSampleSize = 20
	digestSampleSize   = 10
)

// Generic queries used to pull a representative sample for summaries and
// sentiment reports.
var digestQueries = map[string]string{
	"en": "overall customer experience food service atmosphere price",
	"zh": "整體評價 食物 服務 環境 價格",
}

// App sequences scraping, indexing, retrieval and generation for each command.
// Generator may be nil, in which case generation commands fail and search
// commands keep working.
type App struct {
	scraper    port.Scraper
	index      *IndexUseCase
	retrieve   *RetrieveUseCase
	generator  port.Generator
	labels     locale.Labels
	reviewsDir string
	progress   ProgressFunc
	logger     *zap.Logger
}

// NewApp creates the application facade.
func NewApp(
	scraper port.Scraper,
	index *IndexUseCase,
	retrieve *RetrieveUseCase,
	generator port.Generator,
	labels locale.Labels,
	reviewsDir string,
	logger *zap.Logger,
) *App {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &App{
		scraper:    scraper,
		index:      index,
		retrieve:   retrieve,
		generator:  generator,
		labels:     labels,
		reviewsDir: reviewsDir,
		logger:     logger,
	}
}

// WithProgress sets the callback used while embedding reviews.
func (a *App) WithProgress(fn ProgressFunc) *App {
	a.progress = fn
	return a
}

// GenerationEnabled reports whether an LLM client is configured.
func (a *App) GenerationEnabled() bool {
	return a.generator != nil
}

type ScrapeOptions struct {
	MaxReviews   int
	YearLimit    int
	BusinessName string // Overrides the scraped name when set
	SaveCSV      bool
	CSVPath      string // Defaults to the archive path with a .csv extension
}

type IngestResult struct {
	Success        bool   `json:"success"`
	Error          string `json:"error,omitempty"`
	Business       string `json:"business"`
	Source         string `json:"source,omitempty"`
	ReviewsScraped int    `json:"reviews_scraped"`
	ReviewsIndexed int    `json:"reviews_indexed"`
	ArchivePath    string `json:"archive_path,omitempty"`
	CSVPath        string `json:"csv_path,omitempty"`
}

type AnswerResult struct {
	domain.GenerationResult
	Business    string                `json:"business,omitempty"`
	ReviewsUsed int                   `json:"reviews_used"`
	Reviews     []domain.SearchResult `json:"reviews,omitempty"`
}

type DeleteResult struct {
	Success bool   `json:"success"`
	Removed int    `json:"removed"`
	Message string `json:"message"`
}

// ScrapeAndStore scrapes url, archives the reviews and indexes them.
func (a *App) ScrapeAndStore(ctx context.Context, url string, opts ScrapeOptions) IngestResult {
	if a.scraper == nil {
		return IngestResult{Error: "scraper not configured"}
	}

	result, err := a.scraper.Scrape(ctx, url, port.ScrapeOptions{MaxReviews: opts.MaxReviews, YearLimit: opts.YearLimit})
	if err != nil {
		a.logger.Error("Scrape failed", zap.String("url", url), zap.Error(err))
		return IngestResult{Error: fmt.Sprintf("failed to scrape reviews: %v", err)}
	}
	if opts.BusinessName != "" {
		result.Business.Name = opts.BusinessName
	}
	if strings.TrimSpace(result.Business.Name) == "" {
		result.Business.Name = a.labels.UnknownBusiness
	}

	out := IngestResult{Business: result.Business.Name, Source: url, ReviewsScraped: len(result.Reviews)}
	if len(result.Reviews) == 0 {
		out.Error = "no reviews found on the page"
		return out
	}

	path, err := archive.Save(a.reviewsDir, result)
	if err != nil {
		out.Error = err.Error()
		return out
	}
	out.ArchivePath = path

	if opts.SaveCSV {
		csvPath := opts.CSVPath
		if csvPath == "" {
			csvPath = strings.TrimSuffix(path, ".json") + ".csv"
		}
		if err := archive.WriteCSV(csvPath, result); err != nil {
			out.Error = fmt.Sprintf("failed to write CSV: %v", err)
			return out
		}
		out.CSVPath = csvPath
	}

	return a.ingest(ctx, result, out)
}

// Ingest indexes an already scraped result.
func (a *App) Ingest(ctx context.Context, result domain.ScrapeResult) IngestResult {
	if strings.TrimSpace(result.Business.Name) == "" {
		result.Business.Name = a.labels.UnknownBusiness
	}
	return a.ingest(ctx, result, IngestResult{
		Business:       result.Business.Name,
		Source:         result.URL,
		ReviewsScraped: len(result.Reviews),
	})
}

func (a *App) ingest(ctx context.Context, result domain.ScrapeResult, out IngestResult) IngestResult {
	n, err := a.index.Ingest(ctx, result, a.progress)
	if err != nil {
		a.logger.Error("Indexing failed", zap.String("business", out.Business), zap.Error(err))
		out.Error = err.Error()
		return out
	}
	out.ReviewsIndexed = n
	out.Success = true
	return out
}

// Import loads archives below root matching patterns and indexes each one.
// Empty patterns match reviews_*.json files. root may also name one file.
func (a *App) Import(ctx context.Context, root string, patterns []string) ([]IngestResult, error) {
	files, err := fs.NewWalker(patterns, nil).Walk(root)
	if err != nil {
		return nil, fmt.Errorf("failed to find archives: %w", err)
	}

	results := make([]IngestResult, 0, len(files))
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		loaded, err := archive.Load(f.Path, a.labels.UnknownBusiness)
		if err != nil {
			results = append(results, IngestResult{Source: f.Path, Error: err.Error()})
			continue
		}
		res := a.Ingest(ctx, loaded)
		res.Source = f.Path
		res.ArchivePath = f.Path
		results = append(results, res)
	}
	return results, nil
}

// Ask answers question from the reviews most similar to it.
func (a *App) Ask(ctx context.Context, question, business string, k int) AnswerResult {
	req, err := a.PrepareAsk(ctx, question, business, k)
	if err != nil {
		return a.failedAnswer(business, err)
	}
	return a.generate(ctx, business, req.Reviews, req)
}

// PrepareAsk retrieves the reviews for question and assembles the request
// Ask would send to the generator.
func (a *App) PrepareAsk(ctx context.Context, question, business string, k int) (port.GenerateRequest, error) {
	results, err := a.retrieve.Retrieve(ctx, question, business, k)
	if err != nil {
		return port.GenerateRequest{}, fmt.Errorf("retrieval failed: %w", err)
	}

	var summary *domain.BusinessSummary
	if business != "" {
		if summary, err = a.index.BusinessSummary(business); err != nil {
			return port.GenerateRequest{}, err
		}
	}

	return port.GenerateRequest{
		Kind:     port.PromptAnswer,
		Question: question,
		Business: business,
		Summary:  summary,
		Reviews:  results,
		Context:  a.retrieve.Context(results),
	}, nil
}

// Analyze writes a business assessment from a sample of its reviews.
func (a *App) Analyze(ctx context.Context, business string) AnswerResult {
	summary, err := a.index.BusinessSummary(business)
	if err != nil {
		return a.failedAnswer(business, err)
	}
	if summary.TotalReviews == 0 {
		return a.failedAnswer(business, domain.ErrNoReviews)
	}

	docs, err := a.index.BusinessDocuments(business)
	if err != nil {
		return a.failedAnswer(business, err)
	}
	if len(docs) > analysisSampleSize {
		docs = docs[:analysisSampleSize]
	}
	sample := make([]domain.SearchResult, len(docs))
	for i, d := range docs {
		d.Vector = nil
		sample[i] = domain.SearchResult{Rank: i + 1, Score: 1, Document: d}
	}

	return a.generate(ctx, business, sample, port.GenerateRequest{
		Kind:     port.PromptAnalysis,
		Business: business,
		Summary:  summary,
		Reviews:  sample,
		Context:  a.retrieve.Context(sample),
	})
}

// Summarize writes a digest of representative reviews.
func (a *App) Summarize(ctx context.Context, business string) AnswerResult {
	return a.digest(ctx, port.PromptSummary, business)
}

// Sentiment reports the emotional tone of representative reviews.
func (a *App) Sentiment(ctx context.Context, business string) AnswerResult {
	return a.digest(ctx, port.PromptSentiment, business)
}

func (a *App) digest(ctx context.Context, kind port.PromptKind, business string) AnswerResult {
	query, ok := digestQueries[a.labels.Lang]
	if !ok {
		query = digestQueries["en"]
	}

	results, err := a.retrieve.Retrieve(ctx, query, business, digestSampleSize)
	if err != nil {
		return a.failedAnswer(business, fmt.Errorf("retrieval failed: %w", err))
	}
	if len(results) == 0 {
		return a.failedAnswer(business, domain.ErrNoReviews)
	}

	return a.generate(ctx, business, results, port.GenerateRequest{
		Kind:     kind,
		Business: business,
		Reviews:  results,
		Context:  a.retrieve.Context(results),
	})
}

func (a *App) generate(ctx context.Context, business string, reviews []domain.SearchResult, req port.GenerateRequest) AnswerResult {
	if a.generator == nil {
		return a.failedAnswer(business, domain.ErrGeneratorDisabled)
	}
	return AnswerResult{
		GenerationResult: a.generator.Generate(ctx, req),
		Business:         business,
		ReviewsUsed:      len(reviews),
		Reviews:          reviews,
	}
}

func (a *App) failedAnswer(business string, err error) AnswerResult {
	a.logger.Warn("Request failed", zap.String("business", business), zap.Error(err))
	msg := err.Error()
	return AnswerResult{
		GenerationResult: domain.GenerationResult{
			Text:      fmt.Sprintf(a.labels.Apology, msg),
			Success:   false,
			Error:     msg,
			CreatedAt: time.Now(),
		},
		Business: business,
	}
}

// Search returns the reviews most similar to query without generating.
func (a *App) Search(ctx context.Context, query, business string, k int) ([]domain.SearchResult, error) {
	return a.retrieve.Retrieve(ctx, query, business, k)
}

func (a *App) ListBusinesses() ([]string, error) {
	return a.index.ListBusinesses()
}

func (a *App) BusinessSummary(business string) (*domain.BusinessSummary, error) {
	return a.index.BusinessSummary(business)
}

func (a *App) Stats() (domain.IndexStats, error) {
	return a.index.Stats()
}

func (a *App) Info(name, path string) (domain.CollectionInfo, error) {
	return a.index.Info(name, path)
}

// DeleteBusiness removes every indexed review of business.
func (a *App) DeleteBusiness(business string) DeleteResult {
	removed, err := a.index.DeleteBusiness(business)
	switch {
	case err != nil:
		return DeleteResult{Removed: removed, Message: err.Error()}
	case removed == 0:
		return DeleteResult{Success: true, Message: fmt.Sprintf("no reviews found for %q", business)}
	}
	return DeleteResult{Success: true, Removed: removed, Message: fmt.Sprintf("deleted %d reviews of %q", removed, business)}
}

// IsConfigError reports whether err stems from missing configuration rather
// than a failed request.
func IsConfigError(err error) bool {
	return errors.Is(err, domain.ErrMissingAPIKey) || errors.Is(err, domain.ErrUnknownProvider)
}
