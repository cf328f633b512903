package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Retrieve.TopK != 5 {
		t.Errorf("expected TopK=5, got %d", cfg.Retrieve.TopK)
	}
	if cfg.Scraper.MaxReviews != 100 {
		t.Errorf("expected MaxReviews=100, got %d", cfg.Scraper.MaxReviews)
	}
	if cfg.Scraper.YearLimit != 1 {
		t.Errorf("expected YearLimit=1, got %d", cfg.Scraper.YearLimit)
	}
	if cfg.LLM.Model != "gpt-3.5-turbo" {
		t.Errorf("expected model gpt-3.5-turbo, got %s", cfg.LLM.Model)
	}
	if cfg.LLM.Temperature != 0.7 {
		t.Errorf("expected Temperature=0.7, got %f", cfg.LLM.Temperature)
	}
	if cfg.Embedding.Model != "all-minilm" {
		t.Errorf("expected embedding model all-minilm, got %s", cfg.Embedding.Model)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate, got %v", err)
	}
}

func TestLoad_NonExistent(t *testing.T) {
	cfg, err := Load("/nonexistent/path/config.yaml")
	if err != nil {
		t.Errorf("expected no error for non-existent file, got %v", err)
	}
	if cfg == nil {
		t.Error("expected default config, got nil")
	}
}

func TestLoad_ValidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "reviewrag.yaml")

	content := `
retrieve:
  top_k: 10
  cache_ttl: 30s
llm:
  language: zh
  max_tokens: 1500
scraper:
  headless: false
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Retrieve.TopK != 10 {
		t.Errorf("expected TopK=10, got %d", cfg.Retrieve.TopK)
	}
	if cfg.Retrieve.CacheTTL != 30*time.Second {
		t.Errorf("expected CacheTTL=30s, got %v", cfg.Retrieve.CacheTTL)
	}
	if cfg.LLM.Language != "zh" {
		t.Errorf("expected language zh, got %s", cfg.LLM.Language)
	}
	if cfg.LLM.MaxTokens != 1500 {
		t.Errorf("expected MaxTokens=1500, got %d", cfg.LLM.MaxTokens)
	}
	if cfg.Scraper.Headless {
		t.Error("expected Headless=false")
	}
	// Untouched fields keep defaults
	if cfg.Scraper.MaxReviews != 100 {
		t.Errorf("expected MaxReviews default 100, got %d", cfg.Scraper.MaxReviews)
	}
}

func TestLoad_InvalidLanguage(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "reviewrag.yaml")
	if err := os.WriteFile(configPath, []byte("llm:\n  language: fr\n"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(configPath); err == nil {
		t.Error("expected error for unsupported language")
	}
}

func TestLoadFromDir(t *testing.T) {
	tmpDir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(tmpDir, ".reviewrag"), 0755); err != nil {
		t.Fatal(err)
	}
	configPath := filepath.Join(tmpDir, ".reviewrag", "config.yaml")
	if err := os.WriteFile(configPath, []byte("index:\n  collection: cafes\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromDir(tmpDir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Index.Collection != "cafes" {
		t.Errorf("expected collection cafes, got %s", cfg.Index.Collection)
	}
}

func TestSaveAndLoad(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "reviewrag.yaml")

	cfg := DefaultConfig()
	cfg.Retrieve.TopK = 7
	cfg.Embedding.Provider = "hash"

	if err := cfg.Save(configPath); err != nil {
		t.Fatalf("failed to save: %v", err)
	}

	loaded, err := Load(configPath)
	if err != nil {
		t.Fatalf("failed to load: %v", err)
	}
	if loaded.Retrieve.TopK != 7 {
		t.Errorf("expected TopK=7, got %d", loaded.Retrieve.TopK)
	}
	if loaded.Embedding.Provider != "hash" {
		t.Errorf("expected provider hash, got %s", loaded.Embedding.Provider)
	}
}

func TestIndexPath(t *testing.T) {
	cfg := DefaultConfig()

	got := cfg.IndexPath("/work")
	want := filepath.Join("/work", "data", "vector_db", "reviews")
	if got != want {
		t.Errorf("expected %s, got %s", want, got)
	}

	cfg.Index.Dir = "/abs/db"
	if got := cfg.IndexPath("/work"); got != filepath.Join("/abs/db", "reviews") {
		t.Errorf("absolute index dir should not be rebased, got %s", got)
	}
}
