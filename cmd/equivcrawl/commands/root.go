package commands

import (
	"context"
	"equivcrawl/internal/components/telemetry"
	"equivcrawl/internal/config"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath string
	outputDir  string
	workers    int
	verbose    bool
)

var (
	cfg config.Config
	tel telemetry.API = telemetry.SlogAPI{}
	// exported is nil unless a telemetry.json5 was found
	exported *telemetry.Telemetry
)

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", config.DefaultPath, "The configuration file to read, it may not exist.")
	flags.StringVar(&outputDir, "out", "", "The directory artifacts are written to and read from.")
	flags.IntVar(&workers, "workers", 0, "The amount of institution codes processed at once.")
	flags.BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging.")

	rootCmd.Flags().BoolVar(&skipReport, "no-report", false, "Do not print the school names after crawling.")
}

var rootCmd = &cobra.Command{
	Use:   "equivcrawl",
	Short: "equivcrawl collects course equivalency tables from the registrar and prints the schools found.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		telemetry.InitSlog(verbose)

		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("out") {
			loaded.OutputDir = outputDir
		}
		if cmd.Flags().Changed("workers") {
			loaded.Crawl.Workers = workers
		}
		err = loaded.Validate()
		if err != nil {
			return err
		}
		cfg = loaded

		setupOtel(cmd.Context())
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if exported == nil {
			return
		}
		err := exported.Shutdown(context.Background())
		if err != nil {
			slog.Warn("failed to shutdown telemetry", "err", err)
		}
	},
	Run: func(cmd *cobra.Command, args []string) {
		runCrawl(cmd.Context(), !skipReport)
	},
}

// setupOtel exports traces and metrics if a telemetry.json5 can be found.
func setupOtel(ctx context.Context) {
	t, err := telemetry.SetupFromEnv(ctx, "equivcrawl")
	if os.IsNotExist(err) {
		slog.Debug("no telemetry.json5 found, telemetry export disabled")
		return
	}
	if err != nil {
		slog.Warn("failed to setup telemetry", "err", err)
		return
	}
	exported = &t
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
