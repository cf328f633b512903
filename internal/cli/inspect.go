package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"reviewrag/internal/domain"
)

var inspectJSON bool

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List indexed businesses",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show index location, model and businesses",
	Args:  cobra.NoArgs,
	RunE:  runInfo,
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show review statistics for the whole index",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

var summaryCmd = &cobra.Command{
	Use:   "summary <business>",
	Short: "Show rating statistics for one business",
	Args:  cobra.ExactArgs(1),
	RunE:  runSummary,
}

func init() {
	for _, c := range []*cobra.Command{listCmd, infoCmd, statsCmd, summaryCmd} {
		c.Flags().BoolVar(&inspectJSON, "json", false, "output as JSON")
		rootCmd.AddCommand(c)
	}
}

func runList(cmd *cobra.Command, args []string) error {
	app, _, err := buildApp(cmd.Context(), appOptions{})
	if err != nil {
		return err
	}

	names, err := app.ListBusinesses()
	if err != nil {
		return err
	}
	if inspectJSON {
		return printJSON(names)
	}
	if len(names) == 0 {
		fmt.Println("No businesses indexed yet.")
		return nil
	}
	for _, name := range names {
		fmt.Println(name)
	}
	return nil
}

func runInfo(cmd *cobra.Command, args []string) error {
	app, index, err := buildApp(cmd.Context(), appOptions{})
	if err != nil {
		return err
	}

	info, err := app.Info(GetConfig().Index.Collection, index.Path())
	if err != nil {
		return err
	}
	if inspectJSON {
		return printJSON(info)
	}

	fmt.Println("Index Info")
	fmt.Println("==========")
	fmt.Printf("Collection:      %s\n", info.Name)
	fmt.Printf("Path:            %s\n", info.Path)
	fmt.Printf("Embedding model: %s\n", info.EmbeddingModel)
	fmt.Printf("Reviews:         %d\n", info.TotalReviews)
	fmt.Printf("Businesses:      %d\n", info.TotalBusiness)
	for _, name := range info.BusinessNames {
		fmt.Printf("  - %s\n", name)
	}
	return nil
}

func runStats(cmd *cobra.Command, args []string) error {
	app, _, err := buildApp(cmd.Context(), appOptions{})
	if err != nil {
		return err
	}

	stats, err := app.Stats()
	if err != nil {
		return err
	}
	if inspectJSON {
		return printJSON(stats)
	}

	fmt.Println("Index Statistics")
	fmt.Println("================")
	fmt.Printf("State:            %s\n", stats.State)
	fmt.Printf("Model:            %s (%d dims)\n", stats.ModelName, stats.Dimension)
	fmt.Printf("Businesses:       %d\n", stats.Businesses)
	fmt.Printf("Reviews:          %d\n", stats.TotalReviews)
	fmt.Printf("With rating:      %d\n", stats.ReviewsWithRating)
	fmt.Printf("Average rating:   %s\n", formatOptionalRating(stats.AverageRating))
	fmt.Printf("With dates:       %d\n", stats.ReviewsWithDates)
	if stats.EarliestDate != nil && stats.LatestDate != nil {
		fmt.Printf("Date range:       %s to %s\n",
			stats.EarliestDate.Format("2006-01-02"), stats.LatestDate.Format("2006-01-02"))
	}
	printDistribution(stats.RatingDistribution)
	return nil
}

func runSummary(cmd *cobra.Command, args []string) error {
	app, _, err := buildApp(cmd.Context(), appOptions{})
	if err != nil {
		return err
	}

	summary, err := app.BusinessSummary(args[0])
	if err != nil {
		return err
	}
	if inspectJSON {
		return printJSON(summary)
	}
	if summary.TotalReviews == 0 {
		return fmt.Errorf("%w: %s", domain.ErrNoReviews, args[0])
	}

	fmt.Println(summary.BusinessName)
	fmt.Println(strings.Repeat("=", len(summary.BusinessName)))
	fmt.Printf("Reviews:          %d\n", summary.TotalReviews)
	fmt.Printf("Average rating:   %s\n", formatOptionalRating(summary.AverageRating))
	fmt.Printf("Listed rating:    %s\n", formatOptionalRating(summary.BusinessRating))
	printDistribution(summary.RatingDistribution)
	return nil
}

func printDistribution(dist map[int]int) {
	if len(dist) == 0 {
		return
	}

	stars := make([]int, 0, len(dist))
	total := 0
	for s, n := range dist {
		stars = append(stars, s)
		total += n
	}
	sort.Sort(sort.Reverse(sort.IntSlice(stars)))

	fmt.Println("\nRating distribution:")
	for _, s := range stars {
		n := dist[s]
		width := n * 30 / total
		fmt.Printf("  %d★ %-30s %d\n", s, strings.Repeat("█", width), n)
	}
}
