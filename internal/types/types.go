// Package types holds the shared data structures used across the
// application: record kinds, the record variants themselves, caller input,
// the persisted snapshot shape, and the typed errors every layer returns.
// Keeping them in one place prevents import cycles between the store, the
// relationship index, and the persistence collaborators.
package types

import (
	"encoding/json"
	"fmt"
)

// Kind names one of the three record collections.
type Kind string

const (
	KindStudent    Kind = "student"
	KindInstructor Kind = "instructor"
	KindCourse     Kind = "course"
)

// Kinds lists every record kind in display order.
var Kinds = []Kind{KindStudent, KindInstructor, KindCourse}

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindStudent, KindInstructor, KindCourse:
		return true
	}
	return false
}

// Record is implemented by Student, Instructor and Course.
type Record interface {
	Kind() Kind
	Key() string
	DisplayName() string
}

// Person carries the fields shared by students and instructors. It is never
// stored on its own.
type Person struct {
	Name  string `json:"name"`
	Age   int    `json:"age"`
	Email string `json:"email"`
}

// Introduce returns the one-line greeting shown for a person.
func (p Person) Introduce() string {
	return fmt.Sprintf("Name: %s, Age: %d", p.Name, p.Age)
}

// Student is a person registered for zero or more courses.
type Student struct {
	ID string `json:"id"`
	Person
	RegisteredCourses []string `json:"registered_courses"`
}

func (s Student) Kind() Kind          { return KindStudent }
func (s Student) Key() string         { return s.ID }
func (s Student) DisplayName() string { return s.Name }

// Instructor is a person assigned to zero or more courses.
type Instructor struct {
	ID string `json:"id"`
	Person
	AssignedCourses []string `json:"assigned_courses"`
}

func (i Instructor) Kind() Kind          { return KindInstructor }
func (i Instructor) Key() string         { return i.ID }
func (i Instructor) DisplayName() string { return i.Name }

// Course is taught by at most one instructor in the course view (the model
// itself allows several assignments) and attended by enrolled students.
//
// InstructorID is empty when no instructor is assigned; it encodes as JSON
// null in that case.
type Course struct {
	ID                 string   `json:"id"`
	Name               string   `json:"name"`
	InstructorID       string   `json:"instructor_id"`
	EnrolledStudentIDs []string `json:"enrolled_students"`
}

func (c Course) Kind() Kind          { return KindCourse }
func (c Course) Key() string         { return c.ID }
func (c Course) DisplayName() string { return c.Name }

// MarshalJSON writes an absent instructor as null.
func (c Course) MarshalJSON() ([]byte, error) {
	type course Course
	out := struct {
		course
		InstructorID *string `json:"instructor_id"`
	}{course: course(c)}
	if c.InstructorID != "" {
		id := c.InstructorID
		out.InstructorID = &id
	}
	return json.Marshal(out)
}

// Fields is the raw caller input for create. Age stays text so that
// non-numeric input is reported as a validation failure rather than a
// decode failure. Instructor applies to courses only.
type Fields struct {
	ID         string
	Name       string
	Age        string
	Email      string
	Instructor string
}

// Patch is the caller input for update. Nil fields are left unchanged.
// Setting Instructor to "" clears a course's instructor.
type Patch struct {
	Name       *string
	Age        *string
	Email      *string
	Instructor *string
}

// Snapshot is the serialisable state of the store and its links.
type Snapshot struct {
	Students    []Student    `json:"students"`
	Instructors []Instructor `json:"instructors"`
	Courses     []Course     `json:"courses"`
}
