package commands

import (
	"equivcrawl/internal/equiv"
	"equivcrawl/lib/serviceutil"
	"os"

	"github.com/spf13/cobra"
)

var extractKey string

func init() {
	extractCmd.Flags().StringVar(&extractKey, "key", "000000", "The institution code the page belongs to.")
	rootCmd.AddCommand(extractCmd)
}

var extractCmd = &cobra.Command{
	Use:   "extract <path/to/page.html> [--key <institution code>]",
	Short: "Extracts the equivalency table of a saved registrar page.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		body, err := os.ReadFile(args[0])
		if err != nil {
			serviceutil.Fatal("failed to read page", err)
		}
		key, err := padKey(extractKey)
		if err != nil {
			serviceutil.Fatal("invalid institution code", err)
		}

		parsed, err := equiv.Extract(cmd.Context(), body, key)
		if err != nil {
			serviceutil.Fatal("failed to extract equivalency table", err)
		}
		renderEquivTable(os.Stdout, parsed)
	},
}
