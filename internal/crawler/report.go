package crawler

import (
	"context"
	"equivcrawl/internal/components/telemetry"
	"equivcrawl/internal/equiv"
	"equivcrawl/internal/store"
	"errors"
	"fmt"
	"io"
)

const (
	report_report_names = "report.names"
)

// Artifacts reads stored tables, store.ErrNotFound marks a key without one.
type Artifacts interface {
	Read(key string) (equiv.Table, error)
}

// ReportNames prints the school name of every stored artifact, one per line,
// in the order of `keys`. It returns the amount of names printed.
func ReportNames(ctx context.Context, out io.Writer, artifacts Artifacts, keys []string, tel telemetry.API) (int, error) {
	tel = telemetry.NewScopedAPI("crawler", tel)

	printed := 0
	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return printed, err
		}

		table, err := artifacts.Read(key)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			tel.ReportWarning(report_report_names, key, err)
			continue
		}

		_, err = fmt.Fprintln(out, table.SchoolName)
		if err != nil {
			return printed, err
		}
		printed++
	}
	return printed, nil
}
