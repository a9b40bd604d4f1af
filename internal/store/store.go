// Package store implements the entity store: the authoritative collections
// of students, instructors and courses, together with the relationship
// index that links them.
//
// Every mutation goes through the store, which validates input, keeps ids
// unique per kind and cascades deletes into the index. An operation either
// applies completely or leaves the store as it was. A single Store is safe
// for concurrent use: mutations take an exclusive lock, reads a shared one.
package store

import (
	"iter"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/aanand-mishra/school-records/internal/relation"
	"github.com/aanand-mishra/school-records/internal/types"
)

// Store owns the record collections and the link index.
type Store struct {
	mu  sync.RWMutex
	log *slog.Logger

	students    *collection[types.Student]
	instructors *collection[types.Instructor]
	courses     *collection[types.Course]
	links       *relation.Index
}

// New returns an empty store. A nil logger falls back to slog.Default().
func New(log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}
	s := &Store{log: log}
	s.reset()
	return s
}

func (s *Store) reset() {
	s.students = newCollection[types.Student]()
	s.instructors = newCollection[types.Instructor]()
	s.courses = newCollection[types.Course]()
	s.links = relation.New(directory{s})
}

// directory lets the index check existence without taking the store lock;
// the index is only ever called with the lock already held.
type directory struct{ s *Store }

func (d directory) Has(kind types.Kind, id string) bool {
	return d.s.has(kind, id)
}

func (s *Store) has(kind types.Kind, id string) bool {
	switch kind {
	case types.KindStudent:
		return s.students.has(id)
	case types.KindInstructor:
		return s.instructors.has(id)
	case types.KindCourse:
		return s.courses.has(id)
	}
	return false
}

// ─────────────────────────────────────────────────────────────────────────────
// Create validates f and inserts a new record of the given kind.
//
// Errors: *types.ValidationError for malformed fields, *types.DuplicateKeyError
// when the id is taken, *types.NotFoundError when a course names an unknown
// instructor.
// ─────────────────────────────────────────────────────────────────────────────
func (s *Store) Create(kind types.Kind, f types.Fields) (types.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch kind {
	case types.KindStudent, types.KindInstructor:
		if f.Instructor != "" {
			return nil, rejectPatch(kind, types.Patch{Instructor: &f.Instructor})
		}
		id, person, err := personFromFields(f)
		if err != nil {
			return nil, err
		}
		if s.has(kind, id) {
			return nil, &types.DuplicateKeyError{Kind: kind, ID: id}
		}
		if kind == types.KindStudent {
			s.students.put(id, types.Student{ID: id, Person: person})
		} else {
			s.instructors.put(id, types.Instructor{ID: id, Person: person})
		}
		s.log.Debug("record created", slog.String("kind", string(kind)), slog.String("id", id))
		return s.view(kind, id), nil

	case types.KindCourse:
		if f.Age != "" {
			return nil, rejectPatch(kind, types.Patch{Age: &f.Age})
		}
		if f.Email != "" {
			return nil, rejectPatch(kind, types.Patch{Email: &f.Email})
		}
		course, err := courseFromFields(f)
		if err != nil {
			return nil, err
		}
		if s.courses.has(course.ID) {
			return nil, &types.DuplicateKeyError{Kind: kind, ID: course.ID}
		}
		instructor := strings.TrimSpace(f.Instructor)
		if instructor != "" && !s.instructors.has(instructor) {
			return nil, &types.NotFoundError{What: string(types.KindInstructor), ID: instructor}
		}
		s.courses.put(course.ID, course)
		if instructor != "" {
			// Both endpoints were checked above.
			_ = s.links.Assign(instructor, course.ID)
		}
		s.log.Debug("record created", slog.String("kind", string(kind)), slog.String("id", course.ID))
		return s.view(kind, course.ID), nil
	}
	return nil, unknownKind(kind)
}

// Read returns the record with the given id, with its link views filled in.
func (s *Store) Read(kind types.Kind, id string) (types.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !kind.Valid() {
		return nil, unknownKind(kind)
	}
	if !s.has(kind, id) {
		return nil, &types.NotFoundError{What: string(kind), ID: id}
	}
	if err := s.links.VerifyRecord(kind, id); err != nil {
		s.log.Error("consistency fault", slog.String("kind", string(kind)),
			slog.String("id", id), slog.String("error", err.Error()))
		return nil, err
	}
	return s.view(kind, id), nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Update applies p to an existing record. The merged record is validated
// with the same rules as Create; the id itself never changes.
//
// For courses, a non-nil Instructor replaces the course's assignments with
// that single instructor ("" clears them).
// ─────────────────────────────────────────────────────────────────────────────
func (s *Store) Update(kind types.Kind, id string, p types.Patch) (types.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !kind.Valid() {
		return nil, unknownKind(kind)
	}
	if !s.has(kind, id) {
		return nil, &types.NotFoundError{What: string(kind), ID: id}
	}
	if err := rejectPatch(kind, p); err != nil {
		return nil, err
	}

	switch kind {
	case types.KindStudent:
		cur := s.students.get(id)
		_, person, err := personFromFields(mergePerson(id, cur.Person, p))
		if err != nil {
			return nil, err
		}
		cur.Person = person
		s.students.put(id, cur)

	case types.KindInstructor:
		cur := s.instructors.get(id)
		_, person, err := personFromFields(mergePerson(id, cur.Person, p))
		if err != nil {
			return nil, err
		}
		cur.Person = person
		s.instructors.put(id, cur)

	case types.KindCourse:
		cur := s.courses.get(id)
		name := cur.Name
		if p.Name != nil {
			name = *p.Name
		}
		course, err := courseFromFields(types.Fields{ID: id, Name: name})
		if err != nil {
			return nil, err
		}
		if p.Instructor != nil {
			instructor := strings.TrimSpace(*p.Instructor)
			if instructor != "" && !s.instructors.has(instructor) {
				return nil, &types.NotFoundError{What: string(types.KindInstructor), ID: instructor}
			}
			_ = s.links.ReplaceCourseAssignments(id, instructor)
		}
		cur.Name = course.Name
		s.courses.put(id, cur)
	}

	s.log.Debug("record updated", slog.String("kind", string(kind)), slog.String("id", id))
	return s.view(kind, id), nil
}

func mergePerson(id string, cur types.Person, p types.Patch) types.Fields {
	f := types.Fields{
		ID:    id,
		Name:  cur.Name,
		Age:   strconv.Itoa(cur.Age),
		Email: cur.Email,
	}
	if p.Name != nil {
		f.Name = *p.Name
	}
	if p.Age != nil {
		f.Age = *p.Age
	}
	if p.Email != nil {
		f.Email = *p.Email
	}
	return f
}

// Delete removes a record and every link that mentions it.
func (s *Store) Delete(kind types.Kind, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !kind.Valid() {
		return unknownKind(kind)
	}
	if !s.has(kind, id) {
		return &types.NotFoundError{What: string(kind), ID: id}
	}

	switch kind {
	case types.KindStudent:
		s.students.remove(id)
	case types.KindInstructor:
		s.instructors.remove(id)
	case types.KindCourse:
		s.courses.remove(id)
	}
	n := s.links.CascadeRemove(kind, id)

	s.log.Debug("record deleted", slog.String("kind", string(kind)),
		slog.String("id", id), slog.Int("links_removed", n))
	return nil
}

// List returns every record of kind in insertion order. An unknown kind
// yields an empty list.
func (s *Store) List(kind types.Kind) []types.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.list(kind)
}

func (s *Store) list(kind types.Kind) []types.Record {
	var ids []string
	switch kind {
	case types.KindStudent:
		ids = s.students.order
	case types.KindInstructor:
		ids = s.instructors.order
	case types.KindCourse:
		ids = s.courses.order
	}
	out := make([]types.Record, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.view(kind, id))
	}
	return out
}

// Search yields the records of kind whose id or name contains query,
// ignoring case. The candidates are fixed when Search is called; each range
// over the returned sequence filters them again, so it can be restarted.
// An empty query matches every record.
func (s *Store) Search(kind types.Kind, query string) iter.Seq[types.Record] {
	candidates := s.List(kind)
	q := strings.ToLower(query)
	return func(yield func(types.Record) bool) {
		for _, r := range candidates {
			if !matches(r, q) {
				continue
			}
			if !yield(r) {
				return
			}
		}
	}
}

func matches(r types.Record, lowerQuery string) bool {
	return strings.Contains(strings.ToLower(r.Key()), lowerQuery) ||
		strings.Contains(strings.ToLower(r.DisplayName()), lowerQuery)
}

// Len returns the number of records of kind.
func (s *Store) Len(kind types.Kind) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	switch kind {
	case types.KindStudent:
		return len(s.students.order)
	case types.KindInstructor:
		return len(s.instructors.order)
	case types.KindCourse:
		return len(s.courses.order)
	}
	return 0
}

// Student is Read narrowed to a student.
func (s *Store) Student(id string) (types.Student, error) {
	r, err := s.Read(types.KindStudent, id)
	if err != nil {
		return types.Student{}, err
	}
	return r.(types.Student), nil
}

// Instructor is Read narrowed to an instructor.
func (s *Store) Instructor(id string) (types.Instructor, error) {
	r, err := s.Read(types.KindInstructor, id)
	if err != nil {
		return types.Instructor{}, err
	}
	return r.(types.Instructor), nil
}

// Course is Read narrowed to a course.
func (s *Store) Course(id string) (types.Course, error) {
	r, err := s.Read(types.KindCourse, id)
	if err != nil {
		return types.Course{}, err
	}
	return r.(types.Course), nil
}

// view copies the stored record and fills its link views from the index.
// The caller holds the lock and has checked that the record exists.
func (s *Store) view(kind types.Kind, id string) types.Record {
	switch kind {
	case types.KindStudent:
		st := s.students.get(id)
		st.RegisteredCourses = s.links.CoursesOf(relation.Registration, id)
		return st
	case types.KindInstructor:
		in := s.instructors.get(id)
		in.AssignedCourses = s.links.CoursesOf(relation.Assignment, id)
		return in
	case types.KindCourse:
		c := s.courses.get(id)
		c.EnrolledStudentIDs = s.links.ParticipantsOf(relation.Registration, id)
		c.InstructorID = ""
		if ins := s.links.ParticipantsOf(relation.Assignment, id); len(ins) > 0 {
			c.InstructorID = ins[0]
		}
		return c
	}
	return nil
}

// collection keeps records by id and remembers insertion order.
type collection[T any] struct {
	order []string
	items map[string]T
}

func newCollection[T any]() *collection[T] {
	return &collection[T]{items: make(map[string]T)}
}

func (c *collection[T]) has(id string) bool {
	_, ok := c.items[id]
	return ok
}

func (c *collection[T]) get(id string) T {
	return c.items[id]
}

// put inserts or replaces; replacing keeps the original position.
func (c *collection[T]) put(id string, v T) {
	if !c.has(id) {
		c.order = append(c.order, id)
	}
	c.items[id] = v
}

func (c *collection[T]) remove(id string) {
	delete(c.items, id)
	if i := slices.Index(c.order, id); i >= 0 {
		c.order = slices.Delete(c.order, i, i+1)
	}
}
