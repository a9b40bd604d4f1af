package types

import (
	"errors"
	"fmt"
)

// Sentinels matched by the typed errors below through errors.Is.
var (
	ErrValidation        = errors.New("validation failed")
	ErrDuplicateKey      = errors.New("duplicate key")
	ErrNotFound          = errors.New("not found")
	ErrDanglingReference = errors.New("dangling reference")
	ErrPersistence       = errors.New("persistence failure")
)

// ValidationError reports the first field constraint a request violated.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string        { return e.Message }
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// DuplicateKeyError is returned by create when the id is already taken.
type DuplicateKeyError struct {
	Kind Kind
	ID   string
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("%s with id %s already exists", e.Kind, e.ID)
}

func (e *DuplicateKeyError) Is(target error) bool { return target == ErrDuplicateKey }

// NotFoundError names an absent record ("student") or link ("registration").
type NotFoundError struct {
	What string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no %s found with id: %s", e.What, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// DanglingReferenceError means a link points at a record that no longer
// exists. It signals an internal consistency fault.
type DanglingReferenceError struct {
	Relation    string
	Participant string
	Course      string
	Missing     Kind
}

func (e *DanglingReferenceError) Error() string {
	missing := e.Course
	if e.Missing != KindCourse {
		missing = e.Participant
	}
	return fmt.Sprintf("dangling %s %s -> %s: %s %s does not exist",
		e.Relation, e.Participant, e.Course, e.Missing, missing)
}

func (e *DanglingReferenceError) Is(target error) bool { return target == ErrDanglingReference }

// PersistenceError wraps an I/O or decoding failure from a storage backend.
type PersistenceError struct {
	Op   string
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error        { return e.Err }
func (e *PersistenceError) Is(target error) bool { return target == ErrPersistence }
