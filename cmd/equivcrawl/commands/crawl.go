package commands

import (
	"context"
	"equivcrawl/internal/components/telemetry"
	"equivcrawl/internal/crawler"
	"equivcrawl/internal/registrar"
	"equivcrawl/internal/store"
	"equivcrawl/lib/restyutil"
	"equivcrawl/lib/serviceutil"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var skipReport bool
var dumpDir string

func init() {
	crawlCmd.Flags().BoolVar(&skipReport, "no-report", false, "Do not print the school names after crawling.")
	rootCmd.PersistentFlags().StringVar(&dumpDir, "dump", "", "Write every http exchange with the registrar to this directory.")
	rootCmd.AddCommand(crawlCmd)
}

var crawlCmd = &cobra.Command{
	Use:   "crawl [--no-report]",
	Short: "Fetches every institution code and writes one artifact per equivalency table found.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		runCrawl(cmd.Context(), !skipReport)
	},
}

func newRegistrarClient() registrar.Client {
	opts := cfg.Registrar.ClientOptions()

	dump := cfg.Registrar.DumpDir
	if dumpDir != "" {
		dump = dumpDir
	}
	if dump != "" {
		out, err := restyutil.NewFilesystemOutput(dump)
		if err != nil {
			serviceutil.Fatal("failed to prepare dump directory", err)
		}
		opts.Dump = out
	}

	client, err := registrar.NewClient(opts, tel)
	if err != nil {
		serviceutil.Fatal("failed to create registrar client", err)
	}
	return client
}

func openStore() store.Dir {
	dir, err := store.Open(cfg.OutputDir)
	if err != nil {
		serviceutil.Fatal("failed to open output directory", err)
	}
	return dir
}

func runCrawl(ctx context.Context, report bool) {
	ctx, cancel := serviceutil.SignalContext(ctx)
	defer cancel()

	if exported != nil {
		telemetry.InstrumentPerfStats(ctx, 30*time.Second)
	}

	dir := openStore()
	keys := cfg.Keys()
	c := crawler.New(newRegistrarClient(), dir, cfg.Crawl.Workers, tel)

	slog.Info(
		"crawling institution codes",
		"first", keys[0],
		"last", keys[len(keys)-1],
		"workers", cfg.Crawl.Workers,
		"output", cfg.OutputDir,
	)
	summary := c.Run(ctx, keys)

	attrs := []any{"seconds", summary.Duration.Seconds(), "keys", summary.Total()}
	for _, outcome := range crawler.Outcomes {
		attrs = append(attrs, string(outcome), summary.Counts[outcome])
	}
	slog.Info("crawl finished", attrs...)

	if ctx.Err() != nil {
		slog.Warn("crawl interrupted, skipping report")
		return
	}
	if !report {
		return
	}
	_, err := crawler.ReportNames(ctx, os.Stdout, dir, keys, tel)
	if err != nil {
		serviceutil.Fatal("failed to report school names", err)
	}
}
