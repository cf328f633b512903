package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	importPatterns []string
	importJSON     bool
)

var importCmd = &cobra.Command{
	Use:   "import [path]",
	Short: "Index previously scraped review archives",
	Long: `Load review archives (JSON) from a file or directory and add them to the
vector index. Without a path the configured reviews directory is used.

Examples:
  reviewrag import
  reviewrag import ./old_reviews --pattern "**/*.json"`,
	Args: cobra.MaximumNArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
	importCmd.Flags().StringSliceVar(&importPatterns, "pattern", nil, "glob patterns of archive files (default **/reviews_*.json)")
	importCmd.Flags().BoolVar(&importJSON, "json", false, "output as JSON")
}

func runImport(cmd *cobra.Command, args []string) error {
	root := GetConfig().ReviewsDir(GetRootDir())
	if len(args) > 0 {
		root = args[0]
	}

	app, _, err := buildApp(cmd.Context(), appOptions{})
	if err != nil {
		return err
	}
	app.WithProgress(embeddingProgress("Embedding"))

	results, err := app.Import(cmd.Context(), root, importPatterns)
	if err != nil {
		return err
	}

	if importJSON {
		return printJSON(results)
	}
	if len(results) == 0 {
		fmt.Printf("No review archives found under %s\n", root)
		return nil
	}

	var indexed, failed int
	for _, res := range results {
		printIngest(res)
		indexed += res.ReviewsIndexed
		if !res.Success {
			failed++
		}
	}
	fmt.Printf("\nImported %d archives (%d failed), %d reviews indexed\n", len(results), failed, indexed)
	return nil
}
