package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"reviewrag/internal/usecase"
)

var (
	scrapeMaxReviews int
	scrapeYearLimit  int
	scrapeName       string
	scrapeCSV        bool
	scrapeCSVPath    string
	scrapeShowBrowse bool
	scrapeJSON       bool
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape <url>",
	Short: "Scrape a Google Maps listing and index its reviews",
	Long: `Open a Google Maps business page in Chrome, collect its reviews, archive
them under the reviews directory and add them to the vector index.

Examples:
  reviewrag scrape "https://www.google.com/maps/place/..."
  reviewrag scrape "https://maps.app.goo.gl/..." --name "Test Cafe" --max-reviews 50 --csv`,
	Args: cobra.ExactArgs(1),
	RunE: runScrape,
}

func init() {
	rootCmd.AddCommand(scrapeCmd)
	scrapeCmd.Flags().IntVarP(&scrapeMaxReviews, "max-reviews", "n", 0, "maximum reviews to collect (default from config)")
	scrapeCmd.Flags().IntVar(&scrapeYearLimit, "year-limit", -1, "stop at reviews older than this many years, 0 = no limit (default from config)")
	scrapeCmd.Flags().StringVar(&scrapeName, "name", "", "business name to store instead of the scraped one")
	scrapeCmd.Flags().BoolVar(&scrapeCSV, "csv", false, "also export the reviews as CSV")
	scrapeCmd.Flags().StringVar(&scrapeCSVPath, "csv-path", "", "CSV output path (default next to the JSON archive)")
	scrapeCmd.Flags().BoolVar(&scrapeShowBrowse, "show-browser", false, "run Chrome with a visible window")
	scrapeCmd.Flags().BoolVar(&scrapeJSON, "json", false, "output as JSON")
}

func runScrape(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	if scrapeShowBrowse {
		cfg.Scraper.Headless = false
	}

	app, _, err := buildApp(cmd.Context(), appOptions{scraper: true})
	if err != nil {
		return err
	}
	app.WithProgress(embeddingProgress("Embedding"))

	opts := usecase.ScrapeOptions{
		MaxReviews:   cfg.Scraper.MaxReviews,
		YearLimit:    cfg.Scraper.YearLimit,
		BusinessName: scrapeName,
		SaveCSV:      scrapeCSV || scrapeCSVPath != "",
		CSVPath:      scrapeCSVPath,
	}
	if scrapeMaxReviews > 0 {
		opts.MaxReviews = scrapeMaxReviews
	}
	if scrapeYearLimit >= 0 {
		opts.YearLimit = scrapeYearLimit
	}

	fmt.Printf("Scraping %s...\n", args[0])
	res := app.ScrapeAndStore(cmd.Context(), args[0], opts)

	if scrapeJSON {
		return printJSON(res)
	}
	printIngest(res)
	if !res.Success {
		return fmt.Errorf("scrape failed: %s", res.Error)
	}
	return nil
}

func printIngest(res usecase.IngestResult) {
	if !res.Success {
		fmt.Printf("✗ %s: %s\n", orDash(res.Business, res.Source), res.Error)
		return
	}
	fmt.Printf("✓ %s\n", res.Business)
	fmt.Printf("  Reviews scraped: %d\n", res.ReviewsScraped)
	fmt.Printf("  Reviews indexed: %d\n", res.ReviewsIndexed)
	if res.ArchivePath != "" {
		fmt.Printf("  Archive:         %s\n", res.ArchivePath)
	}
	if res.CSVPath != "" {
		fmt.Printf("  CSV:             %s\n", res.CSVPath)
	}
}
