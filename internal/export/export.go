// Package export renders the store's lists as CSV. It only reads.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/aanand-mishra/school-records/internal/types"
)

// Lister is the read side of the entity store.
type Lister interface {
	List(kind types.Kind) []types.Record
}

// WriteCSV writes three sections (Students, Instructors, Courses), each a
// title row, a header row and one row per record, with an empty row between
// sections. Course lists inside a cell are joined with ", ".
func WriteCSV(w io.Writer, l Lister) error {
	cw := csv.NewWriter(w)

	sections := []struct {
		title  string
		header []string
		kind   types.Kind
	}{
		{"Students", []string{"ID", "Name", "Email", "Courses"}, types.KindStudent},
		{"Instructors", []string{"ID", "Name", "Email", "Courses"}, types.KindInstructor},
		{"Courses", []string{"ID", "Name", "Instructor", "Students"}, types.KindCourse},
	}

	for i, sec := range sections {
		if i > 0 {
			if err := cw.Write([]string{}); err != nil {
				return fmt.Errorf("export: %w", err)
			}
		}
		if err := cw.Write([]string{sec.title}); err != nil {
			return fmt.Errorf("export: %w", err)
		}
		if err := cw.Write(sec.header); err != nil {
			return fmt.Errorf("export: %w", err)
		}
		for _, r := range l.List(sec.kind) {
			if err := cw.Write(row(r)); err != nil {
				return fmt.Errorf("export: %w", err)
			}
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	return nil
}

func row(r types.Record) []string {
	switch v := r.(type) {
	case types.Student:
		return []string{v.ID, v.Name, v.Email, strings.Join(v.RegisteredCourses, ", ")}
	case types.Instructor:
		return []string{v.ID, v.Name, v.Email, strings.Join(v.AssignedCourses, ", ")}
	case types.Course:
		return []string{v.ID, v.Name, v.InstructorID, strings.Join(v.EnrolledStudentIDs, ", ")}
	}
	return []string{r.Key(), r.DisplayName()}
}
