package cli

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"reviewrag/internal/adapter/analyzer"
	"reviewrag/internal/adapter/cache"
	"reviewrag/internal/adapter/embedding"
	"reviewrag/internal/adapter/llm"
	"reviewrag/internal/adapter/preprocess"
	"reviewrag/internal/adapter/retriever"
	"reviewrag/internal/adapter/scraper"
	"reviewrag/internal/adapter/store"
	"reviewrag/internal/domain"
	"reviewrag/internal/locale"
	"reviewrag/internal/metrics"
	"reviewrag/internal/port"
	"reviewrag/internal/usecase"
)

type appOptions struct {
	generator bool // Build the LLM client
	scraper   bool // Build the browser scraper
}

// buildApp wires the adapters selected by the config into the facade and
// loads the persisted index.
func buildApp(ctx context.Context, opts appOptions) (*usecase.App, *store.VectorIndex, error) {
	cfg := GetConfig()
	logger := GetLogger()

	labels, err := locale.For(cfg.LLM.Language)
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.EnsureDirs(GetRootDir()); err != nil {
		return nil, nil, fmt.Errorf("failed to create data directories: %w", err)
	}

	embedder := embedding.New(cfg.Embedding, logger)
	dimension := embedder.Dimension()
	if dimension == 0 {
		if _, err := embedder.Embed(ctx, []string{"probe"}); err != nil {
			return nil, nil, fmt.Errorf("failed to determine embedding dimension: %w", err)
		}
		dimension = embedder.Dimension()
	}

	index := store.NewVectorIndex(cfg.IndexPath(GetRootDir()), embedder.ModelName(), dimension)
	if index.State() == domain.IndexUnloaded {
		if err := index.Load(); err != nil {
			return nil, nil, fmt.Errorf("failed to load index %s: %w", index.Path(), err)
		}
	}
	metrics.IndexDocuments.Set(float64(index.Count()))
	logger.Debug("Index ready",
		zap.String("path", index.Path()),
		zap.String("state", index.State().String()),
		zap.Int("documents", index.Count()),
	)

	tokenizer := analyzer.NewTokenizer()

	semantic := retriever.NewSemanticRetriever(index, embedder, cfg.Retrieve.MinScoreThreshold)
	if cfg.Retrieve.MMRLambda > 0 {
		dedup := cfg.Retrieve.DedupJaccard
		if dedup <= 0 {
			dedup = 1
		}
		semantic.WithMMR(retriever.NewMMRReranker(cfg.Retrieve.MMRLambda, dedup, tokenizer))
	}
	var ret port.Retriever = semantic
	if cfg.Retrieve.CacheSize > 0 {
		ret = cache.NewCachedRetriever(semantic, index, cache.NewQueryCache(cfg.Retrieve.CacheSize, cfg.Retrieve.CacheTTL))
	}

	indexUC := usecase.NewIndexUseCase(index, embedder, preprocess.New(labels), cfg.Embedding.BatchSize, logger)
	retrieveUC := usecase.NewRetrieveUseCase(ret, retriever.NewContextBuilder(labels, tokenizer, cfg.Retrieve.ContextTokenBudget), cfg.Retrieve.TopK)

	var generator port.Generator
	if opts.generator {
		client, err := llm.NewClient(cfg.LLM, logger)
		switch {
		case err == nil:
			generator = client
		case usecase.IsConfigError(err):
			logger.Warn("LLM disabled, answers are unavailable", zap.Error(err))
		default:
			return nil, nil, fmt.Errorf("failed to create LLM client: %w", err)
		}
	}

	var scr port.Scraper
	if opts.scraper {
		scr = scraper.NewChromeScraper(cfg.Scraper, logger)
	}

	app := usecase.NewApp(scr, indexUC, retrieveUC, generator, labels, cfg.ReviewsDir(GetRootDir()), logger)
	return app, index, nil
}
