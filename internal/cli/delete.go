package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var deleteYes bool

var deleteCmd = &cobra.Command{
	Use:   "delete <business>",
	Short: "Remove every indexed review of a business",
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

func init() {
	rootCmd.AddCommand(deleteCmd)
	deleteCmd.Flags().BoolVarP(&deleteYes, "yes", "y", false, "do not ask for confirmation")
}

func runDelete(cmd *cobra.Command, args []string) error {
	business := args[0]

	if !deleteYes {
		fmt.Printf("Delete all reviews of %q? [y/N] ", business)
		answer, _ := bufio.NewReader(os.Stdin).ReadString('\n')
		if a := strings.ToLower(strings.TrimSpace(answer)); a != "y" && a != "yes" {
			fmt.Println("Cancelled.")
			return nil
		}
	}

	app, _, err := buildApp(cmd.Context(), appOptions{})
	if err != nil {
		return err
	}

	res := app.DeleteBusiness(business)
	if !res.Success {
		return fmt.Errorf("delete failed: %s", res.Message)
	}
	fmt.Println(res.Message)
	return nil
}
