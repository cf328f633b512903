package embedding

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"reviewrag/config"
	"reviewrag/internal/domain"
	"reviewrag/internal/port"
)

// New returns a lazily loaded, instrumented embedder for cfg.
// Provider setup errors such as a missing API key surface on first use.
func New(cfg config.EmbeddingConfig, logger *zap.Logger) *Lazy {
	model := cfg.Model
	dim := cfg.Dimension
	if cfg.Provider == "hash" {
		model = HashModelName
		if dim == 0 {
			dim = 384
		}
	} else if dim == 0 {
		dim = ModelDimension(model)
	}

	return NewLazy(func(ctx context.Context) (port.Embedder, error) {
		inner, err := build(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return NewInstrumentedEmbedder(inner, cfg.Provider, logger), nil
	}, model, dim)
}

func build(ctx context.Context, cfg config.EmbeddingConfig) (port.Embedder, error) {
	var (
		e   *OpenAIEmbedder
		err error
	)

	switch cfg.Provider {
	case "hash":
		return NewHashEmbedder(cfg.Dimension), nil
	case "ollama":
		e = NewOllamaEmbedder(cfg.Model, cfg.BaseURL)
	case "openai":
		e, err = NewOpenAIEmbedder(cfg.APIKeyEnv, cfg.Model, cfg.BaseURL)
	case "deepseek":
		e, err = NewDeepSeekEmbedder(cfg.APIKeyEnv, cfg.Model, cfg.BaseURL)
	case "jina":
		e, err = NewJinaEmbedder(cfg.APIKeyEnv, cfg.Model, cfg.BaseURL)
	default:
		return nil, fmt.Errorf("%w: embedding provider %q", domain.ErrUnknownProvider, cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}

	e.WithDimension(cfg.Dimension).WithBatchSize(cfg.BatchSize)
	if err := e.probeDimension(ctx); err != nil {
		return nil, err
	}
	return e, nil
}
