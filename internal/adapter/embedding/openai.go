package embedding

import (
	"context"
	"errors"
	"fmt"
	"os"

	openai "github.com/sashabaranov/go-openai"

	"reviewrag/internal/domain"
)

const (
	openAIBaseURL   = "https://api.openai.com/v1"
	deepSeekBaseURL = "https://api.deepseek.com/v1"
	jinaBaseURL     = "https://api.jina.ai/v1"
	ollamaBaseURL   = "http://localhost:11434/v1"

	defaultBatchSize = 100
)

// OpenAIEmbedder calls any OpenAI-compatible /embeddings endpoint.
type OpenAIEmbedder struct {
	client    *openai.Client
	model     string
	dimension int
	batchSize int
}

func NewOpenAIEmbedder(apiKeyEnv, model, baseURL string) (*OpenAIEmbedder, error) {
	return NewOpenAICompatibleEmbedder(apiKeyEnv, model, orDefault(baseURL, openAIBaseURL))
}

func NewDeepSeekEmbedder(apiKeyEnv, model, baseURL string) (*OpenAIEmbedder, error) {
	return NewOpenAICompatibleEmbedder(apiKeyEnv, model, orDefault(baseURL, deepSeekBaseURL))
}

func NewJinaEmbedder(apiKeyEnv, model, baseURL string) (*OpenAIEmbedder, error) {
	return NewOpenAICompatibleEmbedder(apiKeyEnv, model, orDefault(baseURL, jinaBaseURL))
}

// NewOllamaEmbedder talks to a local Ollama server, which ignores the API key.
func NewOllamaEmbedder(model, baseURL string) *OpenAIEmbedder {
	return newEmbedder("ollama", model, orDefault(baseURL, ollamaBaseURL))
}

func NewOpenAICompatibleEmbedder(apiKeyEnv, model, baseURL string) (*OpenAIEmbedder, error) {
	apiKey := os.Getenv(apiKeyEnv)
	if apiKey == "" {
		return nil, fmt.Errorf("%w: environment variable %s is empty", domain.ErrMissingAPIKey, apiKeyEnv)
	}
	return newEmbedder(apiKey, model, baseURL), nil
}

func newEmbedder(apiKey, model, baseURL string) *OpenAIEmbedder {
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = baseURL

	return &OpenAIEmbedder{
		client:    openai.NewClientWithConfig(cfg),
		model:     model,
		dimension: ModelDimension(model),
		batchSize: defaultBatchSize,
	}
}

// WithDimension overrides the model-derived dimension.
func (e *OpenAIEmbedder) WithDimension(dim int) *OpenAIEmbedder {
	if dim > 0 {
		e.dimension = dim
	}
	return e
}

// WithBatchSize sets the number of texts per API request.
func (e *OpenAIEmbedder) WithBatchSize(n int) *OpenAIEmbedder {
	if n > 0 {
		e.batchSize = n
	}
	return e
}

// ModelDimension returns the known output dimension of model, or 0.
func ModelDimension(model string) int {
	switch model {
	case "all-minilm", "all-MiniLM-L6-v2":
		return 384
	case "nomic-embed-text":
		return 768
	case "mxbai-embed-large", "jina-embeddings-v3":
		return 1024
	case "text-embedding-3-small", "text-embedding-ada-002":
		return 1536
	case "jina-embeddings-v4":
		return 2048
	case "text-embedding-3-large":
		return 3072
	}
	return 0
}

func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	all := make([][]float32, 0, len(texts))
	for i := 0; i < len(texts); i += e.batchSize {
		end := i + e.batchSize
		if end > len(texts) {
			end = len(texts)
		}

		embeddings, err := e.embedBatch(ctx, texts[i:end])
		if err != nil {
			return nil, err
		}
		all = append(all, embeddings...)
	}

	return all, nil
}

func (e *OpenAIEmbedder) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input:          texts,
		Model:          openai.EmbeddingModel(e.model),
		EncodingFormat: openai.EmbeddingEncodingFormatFloat,
	})
	if err != nil {
		return nil, parseAPIError(err)
	}

	embeddings := make([][]float32, len(texts))
	for _, data := range resp.Data {
		if data.Index >= 0 && data.Index < len(embeddings) {
			embeddings[data.Index] = data.Embedding
		}
	}
	for i, v := range embeddings {
		if v == nil {
			return nil, fmt.Errorf("embedding API returned no vector for input %d", i)
		}
		if e.dimension > 0 && len(v) != e.dimension {
			return nil, fmt.Errorf("%w: model %s returned %d, expected %d", domain.ErrDimensionMismatch, e.model, len(v), e.dimension)
		}
	}

	return embeddings, nil
}

// Dimension returns the vector size; 0 until probed for unknown models.
func (e *OpenAIEmbedder) Dimension() int {
	return e.dimension
}

func (e *OpenAIEmbedder) ModelName() string {
	return e.model
}

// probeDimension embeds a short text once to discover an unknown dimension.
func (e *OpenAIEmbedder) probeDimension(ctx context.Context) error {
	if e.dimension > 0 {
		return nil
	}
	v, err := e.embedBatch(ctx, []string{"dimension probe"})
	if err != nil {
		return fmt.Errorf("failed to probe embedding dimension: %w", err)
	}
	e.dimension = len(v[0])
	return nil
}

func parseAPIError(err error) error {
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return fmt.Errorf("embedding API error %d: %s", reqErr.HTTPStatusCode, string(reqErr.Body))
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("embedding API error %d: %s", apiErr.HTTPStatusCode, apiErr.Message)
	}

	return fmt.Errorf("embedding request failed: %w", err)
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
