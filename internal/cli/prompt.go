package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"reviewrag/internal/adapter/llm"
)

var (
	promptBusiness string
	promptTopK     int
	promptSystem   bool
)

var promptCmd = &cobra.Command{
	Use:   "prompt <question>",
	Short: "Print the prompt that ask would send, without calling the LLM",
	Long: `Retrieve reviews for the question and print the rendered system and user
prompts. Useful for inspecting retrieval or for pasting into another chat tool.

Examples:
  reviewrag prompt "Is the coffee good?" -b "Test Cafe"
  reviewrag prompt "服務如何？" --lang zh --system`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPrompt,
}

func init() {
	rootCmd.AddCommand(promptCmd)
	promptCmd.Flags().StringVarP(&promptBusiness, "business", "b", "", "restrict to one business")
	promptCmd.Flags().IntVarP(&promptTopK, "top-k", "k", 0, "number of reviews to retrieve (default from config)")
	promptCmd.Flags().BoolVar(&promptSystem, "system", false, "also print the system prompt")
}

func runPrompt(cmd *cobra.Command, args []string) error {
	question := strings.Join(args, " ")

	prompts, err := llm.NewPrompts(GetConfig().LLM.Language)
	if err != nil {
		return err
	}

	app, _, err := buildApp(cmd.Context(), appOptions{})
	if err != nil {
		return err
	}

	req, err := app.PrepareAsk(cmd.Context(), question, promptBusiness, promptTopK)
	if err != nil {
		return err
	}

	system, user, err := prompts.RenderRequest(req)
	if err != nil {
		return fmt.Errorf("failed to render prompt: %w", err)
	}

	if promptSystem {
		fmt.Println(system)
		fmt.Println()
		fmt.Println(strings.Repeat("-", 40))
		fmt.Println()
	}
	fmt.Println(user)
	return nil
}
