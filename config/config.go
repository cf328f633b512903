package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the review RAG tool.
type Config struct {
	Scraper   ScraperConfig   `yaml:"scraper"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Index     IndexConfig     `yaml:"index"`
	Retrieve  RetrieveConfig  `yaml:"retrieve"`
	LLM       LLMConfig       `yaml:"llm"`
	Data      DataConfig      `yaml:"data"`
	Logging   LoggingConfig   `yaml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// ScraperConfig holds browser scraping configuration.
type ScraperConfig struct {
	Headless    bool          `yaml:"headless"`
	MaxReviews  int           `yaml:"max_reviews"`
	YearLimit   int           `yaml:"year_limit"` // Stop at reviews older than this many years (0 = no limit)
	MaxScrolls  int           `yaml:"max_scrolls"`
	ScrollPause time.Duration `yaml:"scroll_pause"`
	Timeout     time.Duration `yaml:"timeout"`
	UserAgent   string        `yaml:"user_agent"`
	ChromePath  string        `yaml:"chrome_path"`
}

// EmbeddingConfig holds embedding configuration.
type EmbeddingConfig struct {
	Provider  string `yaml:"provider"` // "ollama", "openai", "deepseek", "jina", "hash"
	Model     string `yaml:"model"`
	APIKeyEnv string `yaml:"api_key_env"`
	BaseURL   string `yaml:"base_url"`
	Dimension int    `yaml:"dimension"` // 0 = derive from model
	BatchSize int    `yaml:"batch_size"`
}

// IndexConfig holds vector index persistence configuration.
type IndexConfig struct {
	Dir        string `yaml:"dir"`
	Collection string `yaml:"collection"`
}

// RetrieveConfig holds retrieval configuration.
type RetrieveConfig struct {
	TopK               int           `yaml:"top_k"`
	MinScoreThreshold  float64       `yaml:"min_score_threshold"` // Filter results below this similarity (0 = disabled)
	ContextTokenBudget int           `yaml:"context_token_budget"`
	CacheSize          int           `yaml:"cache_size"` // 0 = no query cache
	CacheTTL           time.Duration `yaml:"cache_ttl"`
	MMRLambda          float64       `yaml:"mmr_lambda"`    // Relevance weight for diversity reranking (0 = disabled)
	DedupJaccard       float64       `yaml:"dedup_jaccard"` // Drop near-duplicate reviews above this token overlap (0 = disabled)
}

// LLMConfig holds chat completion configuration.
type LLMConfig struct {
	Provider          string        `yaml:"provider"` // "openai", "deepseek", "local"
	Model             string        `yaml:"model"`
	APIKeyEnv         string        `yaml:"api_key_env"`
	BaseURL           string        `yaml:"base_url"`
	Temperature       float64       `yaml:"temperature"`
	MaxTokens         int           `yaml:"max_tokens"`
	Language          string        `yaml:"language"` // "en" or "zh"
	Timeout           time.Duration `yaml:"timeout"`
	MaxRetries        uint64        `yaml:"max_retries"`
	RequestsPerSecond float64       `yaml:"requests_per_second"` // 0 = unlimited
}

// DataConfig holds locations of scraped review archives.
type DataConfig struct {
	ReviewsDir string `yaml:"reviews_dir"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "console" or "json"
	File   string `yaml:"file"`
}

// MetricsConfig holds prometheus exposition configuration.
type MetricsConfig struct {
	Addr string `yaml:"addr"` // empty = disabled
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Scraper: ScraperConfig{
			Headless:    true,
			MaxReviews:  100,
			YearLimit:   1,
			MaxScrolls:  10,
			ScrollPause: 2 * time.Second,
			Timeout:     5 * time.Minute,
			UserAgent:   "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
		},
		Embedding: EmbeddingConfig{
			Provider:  "ollama",
			Model:     "all-minilm",
			APIKeyEnv: "OPENAI_API_KEY",
			BatchSize: 100,
		},
		Index: IndexConfig{
			Dir:        filepath.Join("data", "vector_db"),
			Collection: "reviews",
		},
		Retrieve: RetrieveConfig{
			TopK:               5,
			ContextTokenBudget: 3000,
			CacheSize:          100,
			CacheTTL:           5 * time.Minute,
		},
		LLM: LLMConfig{
			Provider:    "openai",
			Model:       "gpt-3.5-turbo",
			APIKeyEnv:   "OPENAI_API_KEY",
			Temperature: 0.7,
			MaxTokens:   1000,
			Language:    "en",
			Timeout:     60 * time.Second,
			MaxRetries:  2,
		},
		Data: DataConfig{
			ReviewsDir: filepath.Join("data", "reviews"),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, cfg.Validate()
}

// LoadFromDir loads configuration from a directory (looks for reviewrag.yaml).
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, "reviewrag.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	path = filepath.Join(dir, ".reviewrag", "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	return DefaultConfig(), nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate rejects settings no component can run with.
func (c *Config) Validate() error {
	switch c.LLM.Language {
	case "en", "zh":
	default:
		return fmt.Errorf("unsupported language %q (want en or zh)", c.LLM.Language)
	}
	if c.Retrieve.TopK <= 0 {
		return fmt.Errorf("retrieve.top_k must be positive, got %d", c.Retrieve.TopK)
	}
	if c.Retrieve.MinScoreThreshold < 0 || c.Retrieve.MinScoreThreshold > 1 {
		return fmt.Errorf("retrieve.min_score_threshold must be in [0,1], got %g", c.Retrieve.MinScoreThreshold)
	}
	if c.Retrieve.MMRLambda < 0 || c.Retrieve.MMRLambda > 1 {
		return fmt.Errorf("retrieve.mmr_lambda must be in [0,1], got %g", c.Retrieve.MMRLambda)
	}
	if c.Index.Collection == "" {
		return fmt.Errorf("index.collection must not be empty")
	}
	return nil
}

// IndexPath returns the base path of the persisted index, resolved against dir.
func (c *Config) IndexPath(dir string) string {
	return resolve(dir, filepath.Join(c.Index.Dir, c.Index.Collection))
}

// ReviewsDir returns the review archive directory, resolved against dir.
func (c *Config) ReviewsDir(dir string) string {
	return resolve(dir, c.Data.ReviewsDir)
}

// EnsureDirs creates the index and archive directories.
func (c *Config) EnsureDirs(dir string) error {
	if err := os.MkdirAll(resolve(dir, c.Index.Dir), 0755); err != nil {
		return err
	}
	return os.MkdirAll(c.ReviewsDir(dir), 0755)
}

func resolve(dir, p string) string {
	if filepath.IsAbs(p) || dir == "" {
		return p
	}
	return filepath.Join(dir, p)
}
