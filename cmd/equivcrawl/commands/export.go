package commands

import (
	"equivcrawl/internal/equiv"
	"equivcrawl/internal/export"
	"equivcrawl/lib/serviceutil"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
)

var exportDb string

func init() {
	exportCmd.Flags().StringVar(&exportDb, "db", "equivalencies.db", "The SQLite database to write the artifacts to.")
	rootCmd.AddCommand(exportCmd)
}

var exportCmd = &cobra.Command{
	Use:   "export [--db <path/to/output.db>]",
	Short: "Loads every stored artifact into a SQLite database.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		dir := openStore()
		keys, err := dir.Keys()
		if err != nil {
			serviceutil.Fatal("failed to list artifacts", err)
		}

		var tables []equiv.Table
		for _, key := range keys {
			stored, err := dir.Read(key)
			if err != nil {
				tel.ReportWarning("export.read-artifact", key, err)
				continue
			}
			tables = append(tables, stored)
		}

		db, err := export.OpenDB(exportDb)
		if err != nil {
			serviceutil.Fatal("failed to open db", err)
		}
		defer db.Close()

		t1 := time.Now()
		err = export.Tables(cmd.Context(), db, tables)
		if err != nil {
			serviceutil.Fatal("failed to export artifacts", err)
		}
		slog.Info("exported artifacts", "schools", len(tables), "db", exportDb, "seconds", time.Since(t1).Seconds())
	},
}
