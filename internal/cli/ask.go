package cli

import (
	"strings"

	"github.com/spf13/cobra"
)

var (
	askBusiness    string
	askTopK        int
	askShowReviews bool
	askJSON        bool
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Answer a question from the indexed reviews",
	Long: `Retrieve the reviews most similar to the question and ask the configured
LLM to answer from them.

Examples:
  reviewrag ask "Is it good for families?"
  reviewrag ask "How is the parking?" -b "Test Cafe" -k 8 --show-reviews`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().StringVarP(&askBusiness, "business", "b", "", "restrict to one business")
	askCmd.Flags().IntVarP(&askTopK, "top-k", "k", 0, "number of reviews to retrieve (default from config)")
	askCmd.Flags().BoolVar(&askShowReviews, "show-reviews", false, "print the reviews the answer was based on")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output as JSON")
}

func runAsk(cmd *cobra.Command, args []string) error {
	question := strings.Join(args, " ")

	app, _, err := buildApp(cmd.Context(), appOptions{generator: true})
	if err != nil {
		return err
	}

	res := app.Ask(cmd.Context(), question, askBusiness, askTopK)
	if askJSON {
		return printJSON(res)
	}
	printAnswer("Answer", res, askShowReviews)
	return nil
}
