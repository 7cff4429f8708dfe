package equiv

// Row maps one course at a foreign institution to its local equivalent.
//
// A nil field means the cell held no text of its own, which is kept apart
// from an empty string so that stored artifacts reflect the markup as is.
type Row struct {
	ForeignCourseDesignation *string `json:"foreign_course_designation"`
	ForeignCourseNumber      *string `json:"foreign_course_number"`
	ForeignCourseTitle       *string `json:"foreign_course_title"`

	LocalCourseDesignation *string `json:"alabama_course_designation"`
	LocalCourseNumber      *string `json:"alabama_course_number"`
	LocalCourseTitle       *string `json:"alabama_course_title"`
}

// Table is every equivalency listed for one institution.
type Table struct {
	SchoolName string `json:"school_name"`
	// SchoolCode is the zero-padded institution key the table was fetched with.
	SchoolCode string `json:"school_code"`
	Rows       []Row  `json:"rows"`
}

// Deref returns the value of a text field, "" if it is absent.
func Deref(field *string) string {
	if field == nil {
		return ""
	}
	return *field
}
