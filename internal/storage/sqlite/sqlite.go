// Package sqlite provides a SQLite-backed implementation of the storage
// contract using Go's standard database/sql package.
//
// Records live in one table per kind and links in two join tables whose
// foreign keys cascade on delete. Save rewrites every table inside a single
// transaction, so a failure part-way leaves the previous snapshot intact.
//
// The blank import below registers the sqlite3 driver with database/sql.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sort"

	"github.com/aanand-mishra/school-records/internal/config"
	"github.com/aanand-mishra/school-records/internal/types"

	// Blank import: side-effect only (registers the "sqlite3" driver).
	_ "github.com/mattn/go-sqlite3"
)

const schema = `
	CREATE TABLE IF NOT EXISTS students (
		id    TEXT    PRIMARY KEY,
		name  TEXT    NOT NULL,
		age   INTEGER NOT NULL,
		email TEXT    NOT NULL
	);
	CREATE TABLE IF NOT EXISTS instructors (
		id    TEXT    PRIMARY KEY,
		name  TEXT    NOT NULL,
		age   INTEGER NOT NULL,
		email TEXT    NOT NULL
	);
	CREATE TABLE IF NOT EXISTS courses (
		id   TEXT PRIMARY KEY,
		name TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS registrations (
		student_id TEXT NOT NULL,
		course_id  TEXT NOT NULL,
		PRIMARY KEY (student_id, course_id),
		FOREIGN KEY (student_id) REFERENCES students (id) ON DELETE CASCADE,
		FOREIGN KEY (course_id)  REFERENCES courses (id)  ON DELETE CASCADE
	);
	CREATE TABLE IF NOT EXISTS assignments (
		instructor_id TEXT NOT NULL,
		course_id     TEXT NOT NULL,
		PRIMARY KEY (instructor_id, course_id),
		FOREIGN KEY (instructor_id) REFERENCES instructors (id) ON DELETE CASCADE,
		FOREIGN KEY (course_id)     REFERENCES courses (id)     ON DELETE CASCADE
	);
`

// SQLite is the relational snapshot backend.
// It holds a *sql.DB which is a connection pool managed by database/sql.
type SQLite struct {
	Db   *sql.DB
	path string
	log  *slog.Logger
}

// New opens the SQLite database at cfg.Storage.Path, creates the tables if
// they do not already exist, and returns a ready-to-use *SQLite.
func New(cfg *config.Config, log *slog.Logger) (*SQLite, error) {
	return Open(cfg.Storage.Path, log)
}

// Open is New for an explicit DSN, e.g. ":memory:" in tests.
func Open(dsn string, log *slog.Logger) (*SQLite, error) {
	if log == nil {
		log = slog.Default()
	}

	db, err := sql.Open("sqlite3", dsn+"?_foreign_keys=on")
	if err != nil {
		return nil, persistErr("open", dsn, fmt.Errorf("sqlite.New: open db: %w", err))
	}
	// A single connection keeps ":memory:" databases alive across calls.
	db.SetMaxOpenConns(1)

	// CREATE TABLE IF NOT EXISTS is idempotent, safe on every startup.
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, persistErr("open", dsn, fmt.Errorf("sqlite.New: create tables: %w", err))
	}

	return &SQLite{Db: db, path: dsn, log: log}, nil
}

// Close releases the connection pool.
func (s *SQLite) Close() error {
	return s.Db.Close()
}

// ─────────────────────────────────────────────────────────────────────────────
// Save replaces the stored snapshot inside one transaction.
//
// Prepared statements keep the values apart from the SQL text; each one is
// closed when Save returns. The deferred Rollback is a no-op after Commit.
// ─────────────────────────────────────────────────────────────────────────────
func (s *SQLite) Save(ctx context.Context, snap types.Snapshot) error {
	tx, err := s.Db.BeginTx(ctx, nil)
	if err != nil {
		return s.fail("save", fmt.Errorf("Save: begin: %w", err))
	}
	defer tx.Rollback()

	for _, table := range []string{"registrations", "assignments", "students", "instructors", "courses"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return s.fail("save", fmt.Errorf("Save: clear %s: %w", table, err))
		}
	}

	if err := insertPeople(ctx, tx, "students", students(snap)); err != nil {
		return s.fail("save", err)
	}
	if err := insertPeople(ctx, tx, "instructors", instructors(snap)); err != nil {
		return s.fail("save", err)
	}

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO courses (id, name) VALUES (?, ?)")
	if err != nil {
		return s.fail("save", fmt.Errorf("Save: prepare courses: %w", err))
	}
	defer stmt.Close()
	for _, c := range snap.Courses {
		if _, err := stmt.ExecContext(ctx, c.ID, c.Name); err != nil {
			return s.fail("save", fmt.Errorf("Save: insert course %s: %w", c.ID, err))
		}
	}

	regs, assigns := links(snap)
	if err := insertLinks(ctx, tx, "INSERT OR IGNORE INTO registrations (student_id, course_id) VALUES (?, ?)", regs); err != nil {
		return s.fail("save", err)
	}
	if err := insertLinks(ctx, tx, "INSERT OR IGNORE INTO assignments (instructor_id, course_id) VALUES (?, ?)", assigns); err != nil {
		return s.fail("save", err)
	}

	if err := tx.Commit(); err != nil {
		return s.fail("save", fmt.Errorf("Save: commit: %w", err))
	}
	s.log.Debug("snapshot saved", slog.String("path", s.path))
	return nil
}

type personRow struct {
	id     string
	person types.Person
}

func students(snap types.Snapshot) []personRow {
	rows := make([]personRow, 0, len(snap.Students))
	for _, st := range snap.Students {
		rows = append(rows, personRow{st.ID, st.Person})
	}
	return rows
}

func instructors(snap types.Snapshot) []personRow {
	rows := make([]personRow, 0, len(snap.Instructors))
	for _, in := range snap.Instructors {
		rows = append(rows, personRow{in.ID, in.Person})
	}
	return rows
}

func insertPeople(ctx context.Context, tx *sql.Tx, table string, rows []personRow) error {
	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO "+table+" (id, name, age, email) VALUES (?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("Save: prepare %s: %w", table, err)
	}
	defer stmt.Close()

	for _, r := range rows {
		if _, err := stmt.ExecContext(ctx, r.id, r.person.Name, r.person.Age, r.person.Email); err != nil {
			return fmt.Errorf("Save: insert %s %s: %w", table, r.id, err)
		}
	}
	return nil
}

type link struct{ participant, course string }

// links collects both sides of every relation, as the store does on load.
func links(snap types.Snapshot) (regs, assigns []link) {
	for _, st := range snap.Students {
		for _, c := range st.RegisteredCourses {
			regs = append(regs, link{st.ID, c})
		}
	}
	for _, in := range snap.Instructors {
		for _, c := range in.AssignedCourses {
			assigns = append(assigns, link{in.ID, c})
		}
	}
	for _, c := range snap.Courses {
		for _, st := range c.EnrolledStudentIDs {
			regs = append(regs, link{st, c.ID})
		}
		if c.InstructorID != "" {
			assigns = append(assigns, link{c.InstructorID, c.ID})
		}
	}
	return regs, assigns
}

func insertLinks(ctx context.Context, tx *sql.Tx, query string, ls []link) error {
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("Save: prepare links: %w", err)
	}
	defer stmt.Close()

	for _, l := range ls {
		// A foreign key failure here means the snapshot names a record
		// that is not in it.
		if _, err := stmt.ExecContext(ctx, l.participant, l.course); err != nil {
			return fmt.Errorf("Save: insert link %s/%s: %w", l.participant, l.course, err)
		}
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Load reads every table back into a snapshot. Records come back in
// insertion order (rowid); link lists are sorted.
// ─────────────────────────────────────────────────────────────────────────────
func (s *SQLite) Load(ctx context.Context) (types.Snapshot, error) {
	snap := types.Snapshot{
		Students:    []types.Student{},
		Instructors: []types.Instructor{},
		Courses:     []types.Course{},
	}

	regs, err := s.pairs(ctx, "SELECT student_id, course_id FROM registrations")
	if err != nil {
		return types.Snapshot{}, s.fail("load", err)
	}
	assigns, err := s.pairs(ctx, "SELECT instructor_id, course_id FROM assignments")
	if err != nil {
		return types.Snapshot{}, s.fail("load", err)
	}

	people, err := s.people(ctx, "students")
	if err != nil {
		return types.Snapshot{}, s.fail("load", err)
	}
	for _, p := range people {
		snap.Students = append(snap.Students, types.Student{
			ID: p.id, Person: p.person, RegisteredCourses: regs.byParticipant(p.id),
		})
	}

	people, err = s.people(ctx, "instructors")
	if err != nil {
		return types.Snapshot{}, s.fail("load", err)
	}
	for _, p := range people {
		snap.Instructors = append(snap.Instructors, types.Instructor{
			ID: p.id, Person: p.person, AssignedCourses: assigns.byParticipant(p.id),
		})
	}

	rows, err := s.Db.QueryContext(ctx, "SELECT id, name FROM courses ORDER BY rowid")
	if err != nil {
		return types.Snapshot{}, s.fail("load", fmt.Errorf("Load: query courses: %w", err))
	}
	defer rows.Close()

	for rows.Next() {
		var c types.Course
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return types.Snapshot{}, s.fail("load", fmt.Errorf("Load: scan course: %w", err))
		}
		c.EnrolledStudentIDs = regs.byCourse(c.ID)
		if ins := assigns.byCourse(c.ID); len(ins) > 0 {
			c.InstructorID = ins[0]
		}
		snap.Courses = append(snap.Courses, c)
	}
	if err := rows.Err(); err != nil {
		return types.Snapshot{}, s.fail("load", fmt.Errorf("Load: rows iteration: %w", err))
	}

	s.log.Debug("snapshot loaded", slog.String("path", s.path),
		slog.Int("students", len(snap.Students)),
		slog.Int("instructors", len(snap.Instructors)),
		slog.Int("courses", len(snap.Courses)))
	return snap, nil
}

func (s *SQLite) people(ctx context.Context, table string) ([]personRow, error) {
	// Explicit columns: Scan's order must match the SELECT list.
	rows, err := s.Db.QueryContext(ctx,
		"SELECT id, name, age, email FROM "+table+" ORDER BY rowid")
	if err != nil {
		return nil, fmt.Errorf("Load: query %s: %w", table, err)
	}
	defer rows.Close()

	out := make([]personRow, 0)
	for rows.Next() {
		var r personRow
		if err := rows.Scan(&r.id, &r.person.Name, &r.person.Age, &r.person.Email); err != nil {
			return nil, fmt.Errorf("Load: scan %s: %w", table, err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("Load: rows iteration: %w", err)
	}
	return out, nil
}

// pairIndex groups link rows by either side.
type pairIndex []link

func (p pairIndex) byParticipant(id string) []string {
	out := []string{}
	for _, l := range p {
		if l.participant == id {
			out = append(out, l.course)
		}
	}
	sort.Strings(out)
	return out
}

func (p pairIndex) byCourse(id string) []string {
	out := []string{}
	for _, l := range p {
		if l.course == id {
			out = append(out, l.participant)
		}
	}
	sort.Strings(out)
	return out
}

func (s *SQLite) pairs(ctx context.Context, query string) (pairIndex, error) {
	rows, err := s.Db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("Load: query links: %w", err)
	}
	defer rows.Close()

	var out pairIndex
	for rows.Next() {
		var l link
		if err := rows.Scan(&l.participant, &l.course); err != nil {
			return nil, fmt.Errorf("Load: scan link: %w", err)
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("Load: rows iteration: %w", err)
	}
	return out, nil
}

func (s *SQLite) fail(op string, err error) error {
	s.log.Error("sqlite "+op+" failed", slog.String("path", s.path), slog.String("error", err.Error()))
	return persistErr(op, s.path, err)
}

func persistErr(op, path string, err error) error {
	return &types.PersistenceError{Op: op, Path: path, Err: err}
}
