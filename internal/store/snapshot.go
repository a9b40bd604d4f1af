package store

import (
	"errors"
	"log/slog"
	"strconv"

	"github.com/aanand-mishra/school-records/internal/relation"
	"github.com/aanand-mishra/school-records/internal/types"
)

// Snapshot captures the current state. Link lists in the snapshot are
// sorted, so Snapshot → Restore → Snapshot reproduces the same value.
// A store holding a dangling link refuses with *types.DanglingReferenceError.
func (s *Store) Snapshot() (types.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.links.Verify(); err != nil {
		s.log.Error("refusing to snapshot inconsistent store", slog.String("error", err.Error()))
		return types.Snapshot{}, err
	}

	snap := types.Snapshot{
		Students:    make([]types.Student, 0, len(s.students.order)),
		Instructors: make([]types.Instructor, 0, len(s.instructors.order)),
		Courses:     make([]types.Course, 0, len(s.courses.order)),
	}
	for _, r := range s.list(types.KindStudent) {
		snap.Students = append(snap.Students, r.(types.Student))
	}
	for _, r := range s.list(types.KindInstructor) {
		snap.Instructors = append(snap.Instructors, r.(types.Instructor))
	}
	for _, r := range s.list(types.KindCourse) {
		snap.Courses = append(snap.Courses, r.(types.Course))
	}
	return snap, nil
}

// FromSnapshot builds a new store from snap. Every record is validated with
// the create rules. Links are the union of both sides (a student's
// registered_courses and a course's enrolled_students, an instructor's
// assigned_courses and a course's instructor_id); a link naming an unknown
// record is a *types.DanglingReferenceError.
func FromSnapshot(snap types.Snapshot, log *slog.Logger) (*Store, error) {
	s := New(log)

	for _, st := range snap.Students {
		if _, err := s.Create(types.KindStudent, personFields(st.ID, st.Person)); err != nil {
			return nil, err
		}
	}
	for _, in := range snap.Instructors {
		if _, err := s.Create(types.KindInstructor, personFields(in.ID, in.Person)); err != nil {
			return nil, err
		}
	}
	for _, c := range snap.Courses {
		if _, err := s.Create(types.KindCourse, types.Fields{ID: c.ID, Name: c.Name}); err != nil {
			return nil, err
		}
	}

	for _, st := range snap.Students {
		for _, c := range st.RegisteredCourses {
			if err := s.loadLink(relation.Registration, st.ID, c); err != nil {
				return nil, err
			}
		}
	}
	for _, in := range snap.Instructors {
		for _, c := range in.AssignedCourses {
			if err := s.loadLink(relation.Assignment, in.ID, c); err != nil {
				return nil, err
			}
		}
	}
	for _, c := range snap.Courses {
		for _, st := range c.EnrolledStudentIDs {
			if err := s.loadLink(relation.Registration, st, c.ID); err != nil {
				return nil, err
			}
		}
		if c.InstructorID != "" {
			if err := s.loadLink(relation.Assignment, c.InstructorID, c.ID); err != nil {
				return nil, err
			}
		}
	}
	return s, nil
}

func personFields(id string, p types.Person) types.Fields {
	return types.Fields{ID: id, Name: p.Name, Age: strconv.Itoa(p.Age), Email: p.Email}
}

// loadLink turns a missing endpoint into a dangling reference: on load the
// link came from the snapshot, not from a caller.
func (s *Store) loadLink(r relation.Relation, participant, course string) error {
	var err error
	if r == relation.Registration {
		err = s.Register(participant, course)
	} else {
		err = s.Assign(participant, course)
	}
	var nf *types.NotFoundError
	if errors.As(err, &nf) {
		missing := types.KindCourse
		if nf.What != string(types.KindCourse) {
			missing = types.Kind(nf.What)
		}
		return &types.DanglingReferenceError{
			Relation: string(r), Participant: participant, Course: course, Missing: missing,
		}
	}
	return err
}

// Restore replaces the store's contents with snap. On any error the current
// contents are kept.
func (s *Store) Restore(snap types.Snapshot) error {
	fresh, err := FromSnapshot(snap, s.log)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.students = fresh.students
	s.instructors = fresh.instructors
	s.courses = fresh.courses
	s.links = fresh.links.Rebind(directory{s})
	return nil
}
