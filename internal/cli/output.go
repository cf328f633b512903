package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"reviewrag/internal/domain"
	"reviewrag/internal/usecase"
)

func printJSON(v any) error {
	output, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(output))
	return nil
}

func orDash(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return "-"
}

func formatOptionalRating(r *float64) string {
	if r == nil {
		return "N/A"
	}
	return domain.FormatRating(*r)
}

func printAnswer(title string, res usecase.AnswerResult, showReviews bool) {
	if !res.Success {
		fmt.Println(res.Text)
		return
	}

	fmt.Printf("%s\n%s\n\n%s\n", title, strings.Repeat("=", len(title)), res.Text)
	fmt.Printf("\n(%d reviews, %d tokens, %s)\n", res.ReviewsUsed, res.Usage.TotalTokens, res.Model)

	if showReviews && len(res.Reviews) > 0 {
		fmt.Println("\nSources:")
		printResults(res.Reviews)
	}
}

func printResults(results []domain.SearchResult) {
	for _, r := range results {
		m := r.Document.Metadata
		fmt.Printf("--- [%d] %s (score: %.3f) ---\n", r.Rank, m.BusinessName, r.Score)
		fmt.Printf("%s ★%s  %s\n", orDash(m.ReviewerName), formatOptionalRating(m.Rating), m.DateText)

		text := m.ReviewText
		if len(text) > 500 {
			text = text[:500] + "..."
		}
		fmt.Println(text)
		fmt.Println()
	}
}
