package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var (
	searchBusiness string
	searchTopK     int
	searchJSON     bool
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Show the reviews most similar to a query",
	Long: `Search the vector index without calling the LLM.

Examples:
  reviewrag search "parking"
  reviewrag search "vegetarian options" -b "Test Cafe" -k 10 --json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().StringVarP(&searchBusiness, "business", "b", "", "restrict to one business")
	searchCmd.Flags().IntVarP(&searchTopK, "top-k", "k", 0, "number of results (default from config)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output as JSON")
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")

	app, _, err := buildApp(cmd.Context(), appOptions{})
	if err != nil {
		return err
	}

	results, err := app.Search(cmd.Context(), query, searchBusiness, searchTopK)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return printJSON(results)
	}
	if len(results) == 0 {
		fmt.Println("No matching reviews.")
		return nil
	}
	printResults(results)
	return nil
}
