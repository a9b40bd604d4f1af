// Package jsonfile stores the snapshot as one JSON document.
//
// Saves never leave a half-written file behind: the document is written to
// a temporary file in the same directory, synced, and renamed over the
// target, so readers see either the old snapshot or the new one.
package jsonfile

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/aanand-mishra/school-records/internal/config"
	"github.com/aanand-mishra/school-records/internal/types"
)

// File is the JSON snapshot backend.
type File struct {
	path string
	log  *slog.Logger
}

// New returns a backend for cfg.Storage.Path. Nothing is opened until Load
// or Save.
func New(cfg *config.Config, log *slog.Logger) *File {
	if log == nil {
		log = slog.Default()
	}
	return &File{path: cfg.Storage.Path, log: log}
}

// Path returns the snapshot file path.
func (f *File) Path() string { return f.path }

// Load reads the snapshot. A missing file is an empty snapshot; unknown
// fields are ignored and missing lists decode as empty.
func (f *File) Load(ctx context.Context) (types.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return types.Snapshot{}, f.fail("load", err)
	}

	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		f.log.Debug("snapshot file not found, starting empty", slog.String("path", f.path))
		return empty(), nil
	}
	if err != nil {
		return types.Snapshot{}, f.fail("load", fmt.Errorf("Load: read: %w", err))
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return empty(), nil
	}

	var snap types.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return types.Snapshot{}, f.fail("load", fmt.Errorf("Load: decode: %w", err))
	}
	normalize(&snap)

	f.log.Debug("snapshot loaded", slog.String("path", f.path),
		slog.Int("students", len(snap.Students)),
		slog.Int("instructors", len(snap.Instructors)),
		slog.Int("courses", len(snap.Courses)))
	return snap, nil
}

// Save writes snap atomically.
func (f *File) Save(ctx context.Context, snap types.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return f.fail("save", err)
	}
	normalize(&snap)

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return f.fail("save", fmt.Errorf("Save: encode: %w", err))
	}
	data = append(data, '\n')

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return f.fail("save", fmt.Errorf("Save: mkdir: %w", err))
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(f.path)+".tmp-*")
	if err != nil {
		return f.fail("save", fmt.Errorf("Save: create temp: %w", err))
	}
	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return f.fail("save", fmt.Errorf("Save: write: %w", err))
	}
	if err := tmp.Sync(); err != nil {
		return f.fail("save", fmt.Errorf("Save: sync: %w", err))
	}
	if err := tmp.Close(); err != nil {
		return f.fail("save", fmt.Errorf("Save: close: %w", err))
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return f.fail("save", fmt.Errorf("Save: rename: %w", err))
	}
	committed = true

	f.log.Debug("snapshot saved", slog.String("path", f.path))
	return nil
}

// Close is a no-op: the file is only held open inside Load and Save.
func (f *File) Close() error { return nil }

func (f *File) fail(op string, err error) error {
	f.log.Error("snapshot "+op+" failed", slog.String("path", f.path), slog.String("error", err.Error()))
	return &types.PersistenceError{Op: op, Path: f.path, Err: err}
}

func empty() types.Snapshot {
	snap := types.Snapshot{}
	normalize(&snap)
	return snap
}

// normalize replaces nil lists with empty ones so they encode as [].
func normalize(snap *types.Snapshot) {
	if snap.Students == nil {
		snap.Students = []types.Student{}
	}
	if snap.Instructors == nil {
		snap.Instructors = []types.Instructor{}
	}
	if snap.Courses == nil {
		snap.Courses = []types.Course{}
	}
	for i := range snap.Students {
		if snap.Students[i].RegisteredCourses == nil {
			snap.Students[i].RegisteredCourses = []string{}
		}
	}
	for i := range snap.Instructors {
		if snap.Instructors[i].AssignedCourses == nil {
			snap.Instructors[i].AssignedCourses = []string{}
		}
	}
	for i := range snap.Courses {
		if snap.Courses[i].EnrolledStudentIDs == nil {
			snap.Courses[i].EnrolledStudentIDs = []string{}
		}
	}
}
