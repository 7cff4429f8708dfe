package commands

import (
	"equivcrawl/internal/crawler"
	"equivcrawl/lib/serviceutil"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(namesCmd)
}

var namesCmd = &cobra.Command{
	Use:   "names",
	Short: "Prints the school name of every stored artifact, in ascending code order.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		printed, err := crawler.ReportNames(cmd.Context(), os.Stdout, openStore(), cfg.Keys(), tel)
		if err != nil {
			serviceutil.Fatal("failed to report school names", err)
		}
		slog.Debug("reported school names", "count", printed)
	},
}
