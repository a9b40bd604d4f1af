package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/aanand-mishra/school-records/internal/types"
)

func printf(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, format, args...)
}

// writeRecord prints one record on a single line.
func writeRecord(w io.Writer, r types.Record) {
	switch v := r.(type) {
	case types.Student:
		printf(w, "%s  %s  age %d  %s  courses: %s\n",
			v.ID, v.Name, v.Age, v.Email, joinOrDash(v.RegisteredCourses))
	case types.Instructor:
		printf(w, "%s  %s  age %d  %s  courses: %s\n",
			v.ID, v.Name, v.Age, v.Email, joinOrDash(v.AssignedCourses))
	case types.Course:
		instructor := v.InstructorID
		if instructor == "" {
			instructor = "-"
		}
		printf(w, "%s  %s  instructor: %s  students: %s\n",
			v.ID, v.Name, instructor, joinOrDash(v.EnrolledStudentIDs))
	}
}

// writeIntroduction prints the greeting line for people.
func writeIntroduction(w io.Writer, r types.Record) {
	switch v := r.(type) {
	case types.Student:
		printf(w, "%s\n", v.Introduce())
	case types.Instructor:
		printf(w, "%s\n", v.Introduce())
	}
}

func writeTable(w io.Writer, kind types.Kind, recs []types.Record) {
	if len(recs) == 0 {
		printf(w, "No %s found\n", plural(kind))
		return
	}
	for _, r := range recs {
		writeRecord(w, r)
	}
}

func joinOrDash(ids []string) string {
	if len(ids) == 0 {
		return "-"
	}
	return strings.Join(ids, ", ")
}
