package equiv

import (
	"bytes"
	"context"
	"equivcrawl/lib/htmlutil"
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/net/html"
)

var tracer = otel.Tracer("equivcrawl.internal.equiv")

// layout of the registrar's equivalency page
const (
	// TargetTableIndex is the position of the equivalency table among all
	// tables of the page, in document order.
	TargetTableIndex = 3

	// MinCells is the amount of cells a data row has at least, anything
	// shorter is a header or a malformed row.
	MinCells = 7

	// CaptionSeparator splits "<title> - <institution name>".
	CaptionSeparator = "-"
)

// cell positions within a data row, 3, 5 and 8 are spacer columns.
const (
	cellGroup              = 0
	cellForeignDesignation = 1
	cellForeignNumber      = 2
	cellForeignTitle       = 4
	cellLocalDesignation   = 6
	cellLocalNumber        = 7
	cellLocalTitle         = 9
)

// ErrNoTable is returned when a page does not contain a usable equivalency table.
var ErrNoTable = errors.New("equiv: no equivalency table")

// LocateTable finds the equivalency table of a page.
func LocateTable(doc *goquery.Document) (*goquery.Selection, error) {
	tables := doc.Find("table")
	if tables.Length() <= TargetTableIndex {
		return nil, fmt.Errorf(
			"%w: found %d tables, expected at least %d",
			ErrNoTable, tables.Length(), TargetTableIndex+1,
		)
	}
	return tables.Eq(TargetTableIndex), nil
}

// SchoolName reads the institution name out of the table's caption.
func SchoolName(table *goquery.Selection) (string, error) {
	caption := table.Find("caption").First()
	if caption.Length() == 0 {
		return "", fmt.Errorf("%w: missing caption", ErrNoTable)
	}
	text := htmlutil.OwnText(caption.Nodes[0])
	if text == nil {
		return "", fmt.Errorf("%w: empty caption", ErrNoTable)
	}
	segments := strings.Split(*text, CaptionSeparator)
	if len(segments) < 2 {
		return "", fmt.Errorf("%w: unexpected caption %q", ErrNoTable, *text)
	}
	return strings.TrimSpace(segments[1]), nil
}

func cellText(cells []*html.Node, idx int) *string {
	if idx >= len(cells) {
		return nil
	}
	return htmlutil.OwnText(cells[idx])
}

// ParseRow converts a table row into a Row, ok is false for rows that
// do not hold an equivalency.
func ParseRow(row *goquery.Selection) (Row, bool) {
	cells := row.Find("td").Nodes
	if len(cells) < MinCells {
		return Row{}, false
	}

	group := cellText(cells, cellGroup)
	if group != nil && *group != "" {
		return Row{}, false
	}

	return Row{
		ForeignCourseDesignation: cellText(cells, cellForeignDesignation),
		ForeignCourseNumber:      cellText(cells, cellForeignNumber),
		ForeignCourseTitle:       cellText(cells, cellForeignTitle),
		LocalCourseDesignation:   cellText(cells, cellLocalDesignation),
		LocalCourseNumber:        cellText(cells, cellLocalNumber),
		LocalCourseTitle:         cellText(cells, cellLocalTitle),
	}, true
}

// ParseTable converts a located equivalency table into a Table.
func ParseTable(ctx context.Context, table *goquery.Selection, key string) (Table, error) {
	_, span := tracer.Start(ctx, "ParseTable")
	defer span.End()

	name, err := SchoolName(table)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to read school name")
		return Table{}, err
	}

	rows := []Row{}
	skipped := 0
	table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		row, ok := ParseRow(tr)
		if !ok {
			skipped++
			return
		}
		rows = append(rows, row)
	})

	span.SetAttributes(
		attribute.String("school_code", key),
		attribute.String("school_name", name),
		attribute.Int("rows", len(rows)),
		attribute.Int("skipped_rows", skipped),
	)

	return Table{
		SchoolName: name,
		SchoolCode: key,
		Rows:       rows,
	}, nil
}

// Extract parses a registrar response into the equivalency table of the
// institution `key`. Any error wraps ErrNoTable, no partial table is returned.
func Extract(ctx context.Context, body []byte, key string) (Table, error) {
	ctx, span := tracer.Start(ctx, "Extract")
	defer span.End()

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse html")
		return Table{}, fmt.Errorf("%w: parse html: %w", ErrNoTable, err)
	}

	table, err := LocateTable(doc)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to locate table")
		return Table{}, err
	}

	return ParseTable(ctx, table, key)
}
