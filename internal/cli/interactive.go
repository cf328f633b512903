package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"reviewrag/internal/locale"
	"reviewrag/internal/tui"
)

var (
	interactiveBusiness string
	interactiveTopK     int
)

var interactiveCmd = &cobra.Command{
	Use:     "interactive",
	Aliases: []string{"chat"},
	Short:   "Chat about the indexed reviews",
	Long: `Start a terminal session that answers questions from the reviews.

Commands inside the session:
  use <business>   restrict questions to one business (use without a name to clear)
  list             list indexed businesses
  summary          summarize the current business
  stats            show index statistics
  help             show commands
  quit             leave`,
	Args: cobra.NoArgs,
	RunE: runInteractive,
}

func init() {
	rootCmd.AddCommand(interactiveCmd)
	interactiveCmd.Flags().StringVarP(&interactiveBusiness, "business", "b", "", "business to start with")
	interactiveCmd.Flags().IntVarP(&interactiveTopK, "top-k", "k", 0, "reviews per answer (default from config)")
}

func runInteractive(cmd *cobra.Command, args []string) error {
	labels, err := locale.For(GetConfig().LLM.Language)
	if err != nil {
		return err
	}

	app, _, err := buildApp(cmd.Context(), appOptions{generator: true})
	if err != nil {
		return err
	}
	if !app.GenerationEnabled() {
		fmt.Println("LLM is not configured; answers will be unavailable. Check your API key.")
	}

	p := tea.NewProgram(tui.New(cmd.Context(), app, labels, interactiveBusiness, interactiveTopK), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("interactive session failed: %w", err)
	}
	return nil
}
