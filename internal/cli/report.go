package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"reviewrag/internal/usecase"
)

var reportJSON bool

var analyzeCmd = &cobra.Command{
	Use:   "analyze <business>",
	Short: "Write an overall assessment of a business",
	Args:  cobra.ExactArgs(1),
	RunE: runReport("Analysis", func(app *usecase.App, cmd *cobra.Command, business string) usecase.AnswerResult {
		return app.Analyze(cmd.Context(), business)
	}),
}

var summarizeCmd = &cobra.Command{
	Use:   "summarize [business]",
	Short: "Summarize representative reviews",
	Args:  cobra.MaximumNArgs(1),
	RunE: runReport("Summary", func(app *usecase.App, cmd *cobra.Command, business string) usecase.AnswerResult {
		return app.Summarize(cmd.Context(), business)
	}),
}

var sentimentCmd = &cobra.Command{
	Use:   "sentiment [business]",
	Short: "Report the overall sentiment of the reviews",
	Args:  cobra.MaximumNArgs(1),
	RunE: runReport("Sentiment", func(app *usecase.App, cmd *cobra.Command, business string) usecase.AnswerResult {
		return app.Sentiment(cmd.Context(), business)
	}),
}

func init() {
	for _, c := range []*cobra.Command{analyzeCmd, summarizeCmd, sentimentCmd} {
		c.Flags().BoolVar(&reportJSON, "json", false, "output as JSON")
		rootCmd.AddCommand(c)
	}
}

type reportFunc func(app *usecase.App, cmd *cobra.Command, business string) usecase.AnswerResult

func runReport(title string, fn reportFunc) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		var business string
		if len(args) > 0 {
			business = args[0]
		}

		app, _, err := buildApp(cmd.Context(), appOptions{generator: true})
		if err != nil {
			return err
		}

		res := fn(app, cmd, business)
		if reportJSON {
			return printJSON(res)
		}
		heading := title
		if business != "" {
			heading = fmt.Sprintf("%s: %s", title, business)
		}
		printAnswer(heading, res, false)
		return nil
	}
}
