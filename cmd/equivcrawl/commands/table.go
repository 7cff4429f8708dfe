package commands

import (
	"equivcrawl/internal/equiv"
	"fmt"
	"io"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
)

func newTable(out io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(out)
	return t
}

func renderEquivTable(out io.Writer, t equiv.Table) {
	fmt.Fprintf(out, "%s (%s): %d equivalencies\n", t.SchoolName, t.SchoolCode, len(t.Rows))

	tw := newTable(out)
	tw.AppendHeader(table.Row{
		"#",
		"Foreign", "No.", "Title",
		"Local", "No.", "Title",
	})
	for i, row := range t.Rows {
		tw.AppendRow(table.Row{
			strconv.Itoa(i + 1),
			equiv.Deref(row.ForeignCourseDesignation),
			equiv.Deref(row.ForeignCourseNumber),
			equiv.Deref(row.ForeignCourseTitle),
			equiv.Deref(row.LocalCourseDesignation),
			equiv.Deref(row.LocalCourseNumber),
			equiv.Deref(row.LocalCourseTitle),
		})
	}
	tw.Render()
}
