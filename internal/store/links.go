package store

import (
	"log/slog"

	"github.com/aanand-mishra/school-records/internal/relation"
)

// Register enrols a student in a course. Registering an existing pair is a
// no-op; an unknown student or course is a *types.NotFoundError.
func (s *Store) Register(studentID, courseID string) error {
	return s.mutateLink(relation.Registration, "registered", studentID, courseID, (*relation.Index).Register)
}

// Unregister removes a student's registration. A missing pair is a
// *types.NotFoundError.
func (s *Store) Unregister(studentID, courseID string) error {
	return s.mutateLink(relation.Registration, "unregistered", studentID, courseID, (*relation.Index).Unregister)
}

// Assign links an instructor to a course.
func (s *Store) Assign(instructorID, courseID string) error {
	return s.mutateLink(relation.Assignment, "assigned", instructorID, courseID, (*relation.Index).Assign)
}

// Unassign removes an instructor's assignment.
func (s *Store) Unassign(instructorID, courseID string) error {
	return s.mutateLink(relation.Assignment, "unassigned", instructorID, courseID, (*relation.Index).Unassign)
}

type linkOp func(x *relation.Index, participant, course string) error

func (s *Store) mutateLink(r relation.Relation, verb, participant, course string, op linkOp) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := op(s.links, participant, course); err != nil {
		return err
	}
	s.log.Debug("link "+verb, slog.String("relation", string(r)),
		slog.String("participant", participant), slog.String("course", course))
	return nil
}

// Linked reports whether the pair exists under r.
func (s *Store) Linked(r relation.Relation, participant, course string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.links.Has(r, participant, course)
}

// Links returns every pair under r, sorted.
func (s *Store) Links(r relation.Relation) []relation.Link {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.links.Links(r)
}

// Verify checks every link against the collections and returns the first
// *types.DanglingReferenceError found.
func (s *Store) Verify() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.links.Verify()
}
