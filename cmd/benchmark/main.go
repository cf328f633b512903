package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"reviewrag/config"
	"reviewrag/internal/adapter/embedding"
	"reviewrag/internal/adapter/retriever"
	"reviewrag/internal/adapter/store"
	"reviewrag/internal/domain"
	"reviewrag/internal/port"
)

func main() {
	dataDir := flag.String("dir", ".", "Data root directory")
	query := flag.String("q", "", "Query to test")
	business := flag.String("b", "", "Restrict to one business")
	topK := flag.Int("k", 10, "Number of results")
	flag.Parse()

	if *query == "" {
		fmt.Println("Usage: go run ./cmd/benchmark -dir ./data -q \"query\" [-b business]")
		fmt.Println("\nTests:")
		fmt.Println("  1. Embedding infrastructure (model connection, vector index)")
		fmt.Println("  2. Semantic similarity (query vs reviews)")
		fmt.Println("  3. Business filtering (results stay within one business)")
		os.Exit(1)
	}

	cfg, err := config.LoadFromDir(*dataDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	embedder, index, err := setupIndex(ctx, cfg, *dataDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Semantic search not available: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("REVIEW RETRIEVAL BENCHMARK")
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("Reviews indexed: %d\n", index.Count())
	fmt.Printf("Model: %s (%s)\n", index.ModelName(), cfg.Embedding.Provider)
	fmt.Printf("Dimension: %d\n", index.Dimension())
	fmt.Println()

	fmt.Printf("Query: \"%s\"\n", *query)
	if *business != "" {
		fmt.Printf("Business: %s\n", *business)
	}
	fmt.Println(strings.Repeat("-", 70))

	r := retriever.NewSemanticRetriever(index, embedder, 0)
	results, err := r.Retrieve(ctx, *query, *topK, domain.BusinessFilter(*business))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Search error: %v\n", err)
		os.Exit(1)
	}
	if len(results) == 0 {
		fmt.Println("No results.")
		os.Exit(1)
	}

	fmt.Printf("Top %d semantic matches:\n\n", len(results))

	totalScore := 0.0
	leaked := 0
	for _, res := range results {
		m := res.Document.Metadata
		if *business != "" && m.BusinessName != *business {
			leaked++
		}

		preview := strings.ReplaceAll(m.ReviewText, "\n", " ")
		if len(preview) > 150 {
			preview = preview[:150] + "..."
		}

		similarity := res.Score
		totalScore += similarity

		rating := "LOW"
		if similarity > 0.7 {
			rating = "HIGH"
		} else if similarity > 0.5 {
			rating = "GOOD"
		} else if similarity > 0.3 {
			rating = "OK"
		}

		fmt.Printf("%d. [%s %.3f] %s / %s\n", res.Rank, rating, similarity, m.BusinessName, m.ReviewerName)
		fmt.Printf("   %s\n\n", preview)
	}

	avgScore := totalScore / float64(len(results))
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("QUALITY METRICS:\n")
	fmt.Printf("  Average similarity: %.3f\n", avgScore)
	fmt.Printf("  Top-1 similarity:   %.3f\n", results[0].Score)
	if *business != "" {
		fmt.Printf("  Filter leaks:       %d\n", leaked)
	}

	if avgScore > 0.5 {
		fmt.Println("  Status: GOOD - semantic search working well")
	} else if avgScore > 0.3 {
		fmt.Println("  Status: OK - results are somewhat related")
	} else {
		fmt.Println("  Status: POOR - may need better embeddings or re-indexing")
	}
}

func setupIndex(ctx context.Context, cfg *config.Config, dir string) (port.Embedder, *store.VectorIndex, error) {
	embedder := embedding.New(cfg.Embedding, nil)
	if embedder.Dimension() == 0 {
		if _, err := embedder.Embed(ctx, []string{"probe"}); err != nil {
			return nil, nil, fmt.Errorf("embedder init failed: %w", err)
		}
	}

	path := cfg.IndexPath(dir)
	if !store.Exists(path) {
		return nil, nil, fmt.Errorf("no index at %s - run 'reviewrag scrape' or 'reviewrag import' first", path)
	}

	index := store.NewVectorIndex(path, embedder.ModelName(), embedder.Dimension())
	if err := index.Load(); err != nil {
		return nil, nil, fmt.Errorf("failed to load index: %w", err)
	}
	if index.Count() == 0 {
		return nil, nil, fmt.Errorf("index is empty")
	}
	return embedder, index, nil
}
