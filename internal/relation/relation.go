// Package relation maintains the registration (student↔course) and
// assignment (instructor↔course) links between records.
//
// Links are keyed only by record ids. The index does not own records: it
// asks a Directory whether an endpoint exists before linking, and the entity
// store calls CascadeRemove whenever it deletes a record.
package relation

import (
	"maps"
	"slices"

	"github.com/aanand-mishra/school-records/internal/types"
)

// Relation names one of the two link sets.
type Relation string

const (
	Registration Relation = "registration"
	Assignment   Relation = "assignment"
)

// participantKind is the record kind on the non-course side of r.
func (r Relation) participantKind() types.Kind {
	if r == Assignment {
		return types.KindInstructor
	}
	return types.KindStudent
}

// Link is one (participant, course) pair.
type Link struct {
	Participant string
	Course      string
}

// Directory answers existence questions for the index. The entity store
// implements it over its collections.
type Directory interface {
	Has(kind types.Kind, id string) bool
}

// Index holds both link sets. It is not safe for concurrent use; the entity
// store serialises access to it.
type Index struct {
	dir   Directory
	links map[Relation]*linkSet
}

// New creates an empty index that validates endpoints against dir.
func New(dir Directory) *Index {
	return &Index{
		dir: dir,
		links: map[Relation]*linkSet{
			Registration: newLinkSet(),
			Assignment:   newLinkSet(),
		},
	}
}

// Rebind points the index at a different directory and returns it. The
// entity store uses it when it adopts an index built by another store.
func (x *Index) Rebind(dir Directory) *Index {
	x.dir = dir
	return x
}

// Register links a student to a course.
func (x *Index) Register(studentID, courseID string) error {
	return x.link(Registration, studentID, courseID)
}

// Assign links an instructor to a course.
func (x *Index) Assign(instructorID, courseID string) error {
	return x.link(Assignment, instructorID, courseID)
}

// Unregister removes a student's registration for a course.
func (x *Index) Unregister(studentID, courseID string) error {
	return x.unlink(Registration, studentID, courseID)
}

// Unassign removes an instructor's assignment to a course.
func (x *Index) Unassign(instructorID, courseID string) error {
	return x.unlink(Assignment, instructorID, courseID)
}

func (x *Index) link(r Relation, participant, course string) error {
	if !x.dir.Has(r.participantKind(), participant) {
		return &types.NotFoundError{What: string(r.participantKind()), ID: participant}
	}
	if !x.dir.Has(types.KindCourse, course) {
		return &types.NotFoundError{What: string(types.KindCourse), ID: course}
	}
	x.links[r].add(participant, course)
	return nil
}

func (x *Index) unlink(r Relation, participant, course string) error {
	if !x.links[r].remove(participant, course) {
		return &types.NotFoundError{What: string(r), ID: participant + "/" + course}
	}
	return nil
}

// CascadeRemove drops every link that mentions id on the side matching kind
// and returns how many were removed. It never fails.
func (x *Index) CascadeRemove(kind types.Kind, id string) int {
	switch kind {
	case types.KindStudent:
		return x.links[Registration].removeParticipant(id)
	case types.KindInstructor:
		return x.links[Assignment].removeParticipant(id)
	case types.KindCourse:
		return x.links[Registration].removeCourse(id) + x.links[Assignment].removeCourse(id)
	}
	return 0
}

// ReplaceCourseAssignments leaves instructorID as the only instructor of
// courseID, or no instructor when instructorID is empty. Both endpoints must
// exist.
func (x *Index) ReplaceCourseAssignments(courseID, instructorID string) error {
	if instructorID != "" && !x.dir.Has(types.KindInstructor, instructorID) {
		return &types.NotFoundError{What: string(types.KindInstructor), ID: instructorID}
	}
	if !x.dir.Has(types.KindCourse, courseID) {
		return &types.NotFoundError{What: string(types.KindCourse), ID: courseID}
	}
	x.links[Assignment].removeCourse(courseID)
	if instructorID != "" {
		x.links[Assignment].add(instructorID, courseID)
	}
	return nil
}

// Has reports whether the pair is linked under r.
func (x *Index) Has(r Relation, participant, course string) bool {
	return x.links[r].has(participant, course)
}

// CoursesOf returns the sorted course ids linked to participant under r.
func (x *Index) CoursesOf(r Relation, participant string) []string {
	return sortedKeys(x.links[r].byParticipant[participant])
}

// ParticipantsOf returns the sorted participant ids linked to course under r.
func (x *Index) ParticipantsOf(r Relation, course string) []string {
	return sortedKeys(x.links[r].byCourse[course])
}

// Links returns every pair under r, sorted by participant then course.
func (x *Index) Links(r Relation) []Link {
	set := x.links[r]
	out := make([]Link, 0, set.size)
	for _, p := range sortedKeys(set.byParticipant) {
		for _, c := range sortedKeys(set.byParticipant[p]) {
			out = append(out, Link{Participant: p, Course: c})
		}
	}
	return out
}

// Len returns the number of pairs under r.
func (x *Index) Len(r Relation) int {
	return x.links[r].size
}

// Verify checks that every linked endpoint still exists in the directory.
// The first dangling link found is returned.
func (x *Index) Verify() error {
	for _, r := range []Relation{Registration, Assignment} {
		for _, l := range x.Links(r) {
			if err := x.verifyLink(r, l); err != nil {
				return err
			}
		}
	}
	return nil
}

// VerifyRecord is Verify restricted to the links touching one record.
func (x *Index) VerifyRecord(kind types.Kind, id string) error {
	check := func(r Relation, participants bool) error {
		var ls []Link
		if participants {
			for _, c := range x.CoursesOf(r, id) {
				ls = append(ls, Link{Participant: id, Course: c})
			}
		} else {
			for _, p := range x.ParticipantsOf(r, id) {
				ls = append(ls, Link{Participant: p, Course: id})
			}
		}
		for _, l := range ls {
			if err := x.verifyLink(r, l); err != nil {
				return err
			}
		}
		return nil
	}

	switch kind {
	case types.KindStudent:
		return check(Registration, true)
	case types.KindInstructor:
		return check(Assignment, true)
	case types.KindCourse:
		if err := check(Registration, false); err != nil {
			return err
		}
		return check(Assignment, false)
	}
	return nil
}

func (x *Index) verifyLink(r Relation, l Link) error {
	if !x.dir.Has(r.participantKind(), l.Participant) {
		return &types.DanglingReferenceError{
			Relation: string(r), Participant: l.Participant, Course: l.Course,
			Missing: r.participantKind(),
		}
	}
	if !x.dir.Has(types.KindCourse, l.Course) {
		return &types.DanglingReferenceError{
			Relation: string(r), Participant: l.Participant, Course: l.Course,
			Missing: types.KindCourse,
		}
	}
	return nil
}

// linkSet stores pairs indexed from both sides.
type linkSet struct {
	byParticipant map[string]map[string]struct{}
	byCourse      map[string]map[string]struct{}
	size          int
}

func newLinkSet() *linkSet {
	return &linkSet{
		byParticipant: make(map[string]map[string]struct{}),
		byCourse:      make(map[string]map[string]struct{}),
	}
}

func (s *linkSet) has(participant, course string) bool {
	_, ok := s.byParticipant[participant][course]
	return ok
}

func (s *linkSet) add(participant, course string) {
	if s.has(participant, course) {
		return
	}
	put(s.byParticipant, participant, course)
	put(s.byCourse, course, participant)
	s.size++
}

func (s *linkSet) remove(participant, course string) bool {
	if !s.has(participant, course) {
		return false
	}
	drop(s.byParticipant, participant, course)
	drop(s.byCourse, course, participant)
	s.size--
	return true
}

func (s *linkSet) removeParticipant(participant string) int {
	n := 0
	for course := range s.byParticipant[participant] {
		if s.remove(participant, course) {
			n++
		}
	}
	return n
}

func (s *linkSet) removeCourse(course string) int {
	n := 0
	for participant := range s.byCourse[course] {
		if s.remove(participant, course) {
			n++
		}
	}
	return n
}

func put(m map[string]map[string]struct{}, k, v string) {
	inner, ok := m[k]
	if !ok {
		inner = make(map[string]struct{})
		m[k] = inner
	}
	inner[v] = struct{}{}
}

func drop(m map[string]map[string]struct{}, k, v string) {
	inner := m[k]
	delete(inner, v)
	if len(inner) == 0 {
		delete(m, k)
	}
}

// sortedKeys never returns nil so views encode as [] rather than null.
func sortedKeys[V any](m map[string]V) []string {
	if len(m) == 0 {
		return []string{}
	}
	return slices.Sorted(maps.Keys(m))
}
