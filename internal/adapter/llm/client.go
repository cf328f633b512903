package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"reviewrag/config"
	"reviewrag/internal/domain"
	"reviewrag/internal/locale"
	"reviewrag/internal/metrics"
	"reviewrag/internal/port"
)

var providers = map[string]struct {
	baseURL   string
	keyEnvVar string
}{
	"openai":   {"https://api.openai.com/v1", "OPENAI_API_KEY"},
	"deepseek": {"https://api.deepseek.com/v1", "DEEPSEEK_API_KEY"},
	"local":    {"http://localhost:11434/v1", ""},
}

// Client generates answers through an OpenAI-compatible chat completion API.
type Client struct {
	client      *openai.Client
	model       string
	temperature float64
	maxTokens   int
	timeout     time.Duration
	maxRetries  uint64
	retryBase   time.Duration
	limiter     *rate.Limiter

	prompts *Prompts
	labels  locale.Labels
	logger  *zap.Logger
	stats   Stats
	now     func() time.Time
}

// Stats tracks completion usage for the lifetime of the client.
type Stats struct {
	TotalCalls       int
	FailedCalls      int
	PromptTokens     int
	CompletionTokens int
}

var _ port.Generator = (*Client)(nil)

// NewClient creates a chat client for cfg.Provider. Unknown providers are
// accepted only with an explicit base URL. Keyed providers fail with
// domain.ErrMissingAPIKey when the key variable is unset.
func NewClient(cfg config.LLMConfig, logger *zap.Logger) (*Client, error) {
	p, ok := providers[cfg.Provider]
	if !ok && cfg.BaseURL == "" {
		return nil, fmt.Errorf("%w: %s (set llm.base_url for custom endpoints)", domain.ErrUnknownProvider, cfg.Provider)
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = p.baseURL
	}

	keyEnv := cfg.APIKeyEnv
	if keyEnv == "" {
		keyEnv = p.keyEnvVar
	}
	apiKey := ""
	if keyEnv != "" {
		apiKey = os.Getenv(keyEnv)
	}
	if apiKey == "" {
		if cfg.Provider != "local" {
			return nil, fmt.Errorf("%w: set %s", domain.ErrMissingAPIKey, keyEnv)
		}
		apiKey = "ollama"
	}

	return newClient(apiKey, baseURL, cfg, logger)
}

func newClient(apiKey, baseURL string, cfg config.LLMConfig, logger *zap.Logger) (*Client, error) {
	prompts, err := NewPrompts(cfg.Language)
	if err != nil {
		return nil, err
	}
	labels, err := locale.For(cfg.Language)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	clientCfg := openai.DefaultConfig(apiKey)
	clientCfg.BaseURL = baseURL

	c := &Client{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		timeout:     cfg.Timeout,
		maxRetries:  cfg.MaxRetries,
		retryBase:   500 * time.Millisecond,
		prompts:     prompts,
		labels:      labels,
		logger:      logger,
		now:         time.Now,
	}
	if cfg.RequestsPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}
	return c, nil
}

func (c *Client) ModelName() string {
	return c.model
}

func (c *Client) Stats() Stats {
	return c.stats
}

// Generate renders the prompts for req and requests a completion.
// Failures never escape as errors: they produce Success=false with an
// apology in Text and the cause in Error.
func (c *Client) Generate(ctx context.Context, req port.GenerateRequest) domain.GenerationResult {
	system, user, err := c.prompts.RenderRequest(req)
	if err != nil {
		return c.failure(req.Kind, len(req.Context), err)
	}

	temperature := c.temperature
	if req.Temperature > 0 {
		temperature = req.Temperature
	}
	maxTokens := c.maxTokens
	if req.MaxTokens > 0 {
		maxTokens = req.MaxTokens
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	chatReq := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Temperature: float32(temperature),
		MaxTokens:   maxTokens,
	}

	c.logger.Debug("Requesting completion",
		zap.String("model", c.model),
		zap.String("kind", string(req.Kind)),
		zap.Int("prompt_chars", len(system)+len(user)),
	)

	start := time.Now()
	var resp openai.ChatCompletionResponse
	backoff := retry.WithMaxRetries(c.maxRetries, retry.NewExponential(c.retryBase))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return err
			}
		}
		r, err := c.client.CreateChatCompletion(ctx, chatReq)
		if err != nil {
			if isRetryable(err) {
				c.logger.Warn("Retrying completion", zap.String("model", c.model), zap.Error(err))
				return retry.RetryableError(err)
			}
			return err
		}
		resp = r
		return nil
	})
	metrics.CompletionRequestDuration.WithLabelValues(c.model).Observe(time.Since(start).Seconds())

	if err != nil {
		return c.failure(req.Kind, len(req.Context), err)
	}
	if len(resp.Choices) == 0 {
		return c.failure(req.Kind, len(req.Context), errors.New("no response from LLM"))
	}

	usage := domain.TokenUsage{
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
	}
	c.stats.TotalCalls++
	c.stats.PromptTokens += usage.PromptTokens
	c.stats.CompletionTokens += usage.CompletionTokens
	metrics.CompletionRequestsTotal.WithLabelValues(c.model, string(req.Kind), "success").Inc()
	metrics.CompletionTokensTotal.WithLabelValues(c.model, "prompt").Add(float64(usage.PromptTokens))
	metrics.CompletionTokensTotal.WithLabelValues(c.model, "completion").Add(float64(usage.CompletionTokens))

	c.logger.Info("Completion finished",
		zap.String("model", c.model),
		zap.String("kind", string(req.Kind)),
		zap.Int("prompt_tokens", usage.PromptTokens),
		zap.Int("completion_tokens", usage.CompletionTokens),
	)

	model := resp.Model
	if model == "" {
		model = c.model
	}
	return domain.GenerationResult{
		Text:          resp.Choices[0].Message.Content,
		Model:         model,
		Usage:         usage,
		Success:       true,
		ContextLength: len(req.Context),
		CreatedAt:     c.now(),
	}
}

func (c *Client) failure(kind port.PromptKind, contextLen int, err error) domain.GenerationResult {
	c.stats.TotalCalls++
	c.stats.FailedCalls++
	metrics.CompletionRequestsTotal.WithLabelValues(c.model, string(kind), "error").Inc()
	c.logger.Error("Completion failed",
		zap.String("model", c.model),
		zap.String("kind", string(kind)),
		zap.Error(err),
	)

	msg := describe(err)
	return domain.GenerationResult{
		Text:          fmt.Sprintf(c.labels.Apology, msg),
		Model:         c.model,
		Success:       false,
		Error:         msg,
		ContextLength: contextLen,
		CreatedAt:     c.now(),
	}
}

func isRetryable(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return retryableStatus(apiErr.HTTPStatusCode)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return retryableStatus(reqErr.HTTPStatusCode)
	}
	var netErr net.Error
	return errors.As(err, &netErr) && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

func describe(err error) string {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Sprintf("API error %d: %s", apiErr.HTTPStatusCode, apiErr.Message)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return fmt.Sprintf("API error %d: %s", reqErr.HTTPStatusCode, string(reqErr.Body))
	}
	return err.Error()
}
