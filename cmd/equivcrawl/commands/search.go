package commands

import (
	"equivcrawl/internal/search"
	"equivcrawl/lib/serviceutil"
	"fmt"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var searchLimit int

func init() {
	searchCmd.Flags().IntVar(&searchLimit, "limit", 10, "The maximum amount of schools to list, 0 lists all.")
	rootCmd.AddCommand(searchCmd)
}

var searchCmd = &cobra.Command{
	Use:   "search <school name> [--limit <n>]",
	Short: "Finds stored schools whose name resembles the query.",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		dir := openStore()
		keys, err := dir.Keys()
		if err != nil {
			serviceutil.Fatal("failed to list artifacts", err)
		}

		var schools []search.School
		for _, key := range keys {
			stored, err := dir.Read(key)
			if err != nil {
				tel.ReportWarning("search.read-artifact", key, err)
				continue
			}
			schools = append(schools, search.School{Code: stored.SchoolCode, Name: stored.SchoolName})
		}

		matches := search.Rank(strings.Join(args, " "), schools, searchLimit)

		t := newTable(os.Stdout)
		t.AppendHeader(table.Row{"Code", "School", "Similarity"})
		for _, match := range matches {
			t.AppendRow(table.Row{match.Code, match.Name, fmt.Sprintf("%.3f", match.Similarity)})
		}
		t.Render()
	},
}
