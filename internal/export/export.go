// Package export copies stored equivalency tables into a SQLite database
// so they can be queried.
package export

import (
	"context"
	"database/sql"
	_ "embed"
	"equivcrawl/internal/equiv"
	"fmt"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var Schema string

// OpenDB opens (or creates) the database at `path` and applies the schema.
func OpenDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// `:memory:` databases are per connection
	db.SetMaxOpenConns(1)

	_, err = db.Exec(Schema)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return db, nil
}

func nullable(field *string) sql.NullString {
	if field == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *field, Valid: true}
}

// Tables replaces the rows of every given school in db with its current table.
func Tables(ctx context.Context, db *sql.DB, tables []equiv.Table) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range tables {
		_, err = tx.ExecContext(ctx, "delete from equivalency where school_code = ?", table.SchoolCode)
		if err != nil {
			return fmt.Errorf("clear school %s: %w", table.SchoolCode, err)
		}
		_, err = tx.ExecContext(
			ctx,
			"insert into school(code, name) values (?, ?) on conflict(code) do update set name = excluded.name",
			table.SchoolCode, table.SchoolName,
		)
		if err != nil {
			return fmt.Errorf("insert school %s: %w", table.SchoolCode, err)
		}

		for i, row := range table.Rows {
			_, err = tx.ExecContext(
				ctx,
				`insert into equivalency(
					school_code, idx,
					foreign_course_designation, foreign_course_number, foreign_course_title,
					alabama_course_designation, alabama_course_number, alabama_course_title
				) values (?, ?, ?, ?, ?, ?, ?, ?)`,
				table.SchoolCode, i,
				nullable(row.ForeignCourseDesignation),
				nullable(row.ForeignCourseNumber),
				nullable(row.ForeignCourseTitle),
				nullable(row.LocalCourseDesignation),
				nullable(row.LocalCourseNumber),
				nullable(row.LocalCourseTitle),
			)
			if err != nil {
				return fmt.Errorf("insert row %d of school %s: %w", i, table.SchoolCode, err)
			}
		}
	}

	return tx.Commit()
}
