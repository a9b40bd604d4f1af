// Package response provides helpers for writing consistent JSON output.
//
// Every command that runs with --json writes exactly one envelope to stdout,
// so scripts always know what success and failure look like:
//
//	{ "status": "ok", "data": { ... } }
//	{ "status": "error", "code": "not_found", "error": "no student found with id: S9" }
package response

import (
	"encoding/json"
	"errors"
	"io"

	"github.com/aanand-mishra/school-records/internal/types"
)

// Response is the standard envelope.
type Response struct {
	Status string `json:"status"`          // "ok" or "error"
	Code   string `json:"code,omitempty"`  // machine-readable error class
	Error  string `json:"error,omitempty"` // human-readable error detail
	Data   any    `json:"data,omitempty"`
}

// Status string constants. Use these instead of raw string literals so
// a typo is caught by the compiler.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Error classes reported in Response.Code.
const (
	CodeValidation = "validation"
	CodeDuplicate  = "duplicate_key"
	CodeNotFound   = "not_found"
	CodeDangling   = "dangling_reference"
	CodePersist    = "persistence"
	CodeInternal   = "internal"
)

// WriteJSON writes data as indented JSON followed by a newline.
func WriteJSON(w io.Writer, data any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

// OK wraps a successful result.
func OK(data any) Response {
	return Response{Status: StatusOK, Data: data}
}

// GeneralError wraps any error into the standard envelope.
func GeneralError(err error) Response {
	return Response{
		Status: StatusError,
		Code:   Code(err),
		Error:  err.Error(),
	}
}

// Code classifies err by the store's error kinds.
func Code(err error) string {
	// Persistence first: a snapshot that fails to load may wrap any of the
	// other kinds.
	switch {
	case errors.Is(err, types.ErrPersistence):
		return CodePersist
	case errors.Is(err, types.ErrValidation):
		return CodeValidation
	case errors.Is(err, types.ErrDuplicateKey):
		return CodeDuplicate
	case errors.Is(err, types.ErrNotFound):
		return CodeNotFound
	case errors.Is(err, types.ErrDanglingReference):
		return CodeDangling
	}
	return CodeInternal
}
