package store

import (
	"equivcrawl/internal/equiv"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func ptr(s string) *string {
	return &s
}

func TestRoundTrip(t *testing.T) {
	dir, err := Open(filepath.Join(t.TempDir(), "outputs"))
	require.NoError(t, err)

	table := equiv.Table{
		SchoolName: "Example University",
		SchoolCode: "000042",
		Rows: []equiv.Row{
			{
				ForeignCourseDesignation: ptr("ACC"),
				ForeignCourseNumber:      ptr("201"),
				ForeignCourseTitle:       ptr("Principles of Accounting I"),
				LocalCourseDesignation:   ptr("AC"),
				LocalCourseNumber:        ptr("210"),
				LocalCourseTitle:         ptr("Intro Financial Accounting"),
			},
			{
				ForeignCourseDesignation: ptr(""),
				ForeignCourseNumber:      ptr("101"),
				LocalCourseNumber:        ptr("1XX"),
			},
		},
	}
	require.NoError(t, dir.Write(table))

	_, err = os.Stat(filepath.Join(dir.path, "000042_equiv_table.json"))
	require.NoError(t, err)

	read, err := dir.Read("000042")
	require.NoError(t, err)
	if diff := cmp.Diff(table, read); diff != "" {
		t.Fatalf("round trip changed the table (-want +got):\n%s", diff)
	}
}

func TestWriteFormat(t *testing.T) {
	dir, err := Open(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, dir.Write(equiv.Table{
		SchoolName: "Empty College",
		SchoolCode: "000005",
		Rows: []equiv.Row{{
			ForeignCourseDesignation: ptr("ENG"),
		}},
	}))
	contents, err := os.ReadFile(dir.Path("000005"))
	require.NoError(t, err)
	require.JSONEq(t, `{
		"school_name": "Empty College",
		"school_code": "000005",
		"rows": [{
			"foreign_course_designation": "ENG",
			"foreign_course_number": null,
			"foreign_course_title": null,
			"alabama_course_designation": null,
			"alabama_course_number": null,
			"alabama_course_title": null
		}]
	}`, string(contents))

	require.NoError(t, dir.Write(equiv.Table{SchoolName: "No Rows", SchoolCode: "000006"}))
	contents, err = os.ReadFile(dir.Path("000006"))
	require.NoError(t, err)
	require.JSONEq(t, `{"school_name": "No Rows", "school_code": "000006", "rows": []}`, string(contents))
}

func TestOverwrite(t *testing.T) {
	dir, err := Open(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, dir.Write(equiv.Table{SchoolName: "Old Name", SchoolCode: "000010"}))
	require.NoError(t, dir.Write(equiv.Table{SchoolName: "New Name", SchoolCode: "000010"}))

	read, err := dir.Read("000010")
	require.NoError(t, err)
	require.Equal(t, "New Name", read.SchoolName)
}

func TestReadMissing(t *testing.T) {
	dir, err := Open(t.TempDir())
	require.NoError(t, err)

	_, err = dir.Read("000001")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, os.WriteFile(dir.Path("000002"), []byte("null\n"), 0644))
	_, err = dir.Read("000002")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, os.WriteFile(dir.Path("000003"), []byte("{"), 0644))
	_, err = dir.Read("000003")
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrNotFound)
}

func TestKeys(t *testing.T) {
	dir, err := Open(t.TempDir())
	require.NoError(t, err)

	for _, key := range []string{"000300", "000002", "000010"} {
		require.NoError(t, dir.Write(equiv.Table{SchoolName: key, SchoolCode: key}))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir.path, "notes.txt"), nil, 0644))
	require.NoError(t, os.Mkdir(filepath.Join(dir.path, "nested_equiv_table.json"), 0755))

	keys, err := dir.Keys()
	require.NoError(t, err)
	require.Equal(t, []string{"000002", "000010", "000300"}, keys)
}
