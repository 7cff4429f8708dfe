package commands

import (
	"bytes"
	"equivcrawl/internal/equiv"
	"equivcrawl/internal/registrar"
	"equivcrawl/lib/serviceutil"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/PuerkitoBio/goquery"
	"github.com/spf13/cobra"
)

var fetchHtml string
var fetchSave bool

func init() {
	fetchCmd.Flags().StringVar(&fetchHtml, "html", "", "Write the markup of the equivalency table to this file.")
	fetchCmd.Flags().BoolVar(&fetchSave, "save", false, "Store the table as an artifact like crawl does.")
	rootCmd.AddCommand(fetchCmd)
}

// padKey zero-pads numeric keys to the configured width, "42" -> "000042".
func padKey(key string) (string, error) {
	n, err := strconv.Atoi(key)
	if err != nil || n < 0 {
		return "", fmt.Errorf("institution code must be a non-negative number, got %q", key)
	}
	return fmt.Sprintf("%0*d", cfg.Crawl.KeyWidth, n), nil
}

var fetchCmd = &cobra.Command{
	Use:   "fetch <institution code> [--html <path/to/table.html>] [--save]",
	Short: "Fetches a single institution code and prints its equivalency table.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		key, err := padKey(args[0])
		if err != nil {
			serviceutil.Fatal("invalid institution code", err)
		}

		body, err := newRegistrarClient().FetchInstitution(cmd.Context(), key)
		if errors.Is(err, registrar.ErrNoData) {
			fmt.Fprintf(os.Stderr, "no institution for code %s\n", key)
			return
		}
		if err != nil {
			serviceutil.Fatal("failed to fetch institution", err)
		}

		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
		if err != nil {
			serviceutil.Fatal("failed to parse response", err)
		}
		located, err := equiv.LocateTable(doc)
		if err != nil {
			serviceutil.Fatal("failed to locate equivalency table", err)
		}

		if fetchHtml != "" {
			markup, err := goquery.OuterHtml(located)
			if err != nil {
				serviceutil.Fatal("failed to render table markup", err)
			}
			err = os.WriteFile(fetchHtml, []byte(markup), 0644)
			if err != nil {
				serviceutil.Fatal("failed to write table markup", err)
			}
		}

		parsed, err := equiv.ParseTable(cmd.Context(), located, key)
		if err != nil {
			serviceutil.Fatal("failed to parse equivalency table", err)
		}
		renderEquivTable(os.Stdout, parsed)

		if fetchSave {
			err = openStore().Write(parsed)
			if err != nil {
				serviceutil.Fatal("failed to store artifact", err)
			}
		}
	},
}
