package cli_test

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aanand-mishra/school-records/internal/cli"
	"github.com/aanand-mishra/school-records/internal/config"
	"github.com/aanand-mishra/school-records/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type result struct {
	code   int
	stdout string
	stderr string
}

type envelope struct {
	Status string          `json:"status"`
	Code   string          `json:"code"`
	Error  string          `json:"error"`
	Data   json.RawMessage `json:"data"`
}

// setup points the CLI at a fresh data file for the given driver.
func setup(t *testing.T, driver string) string {
	t.Helper()
	name := "school_data.json"
	if driver == config.DriverSQLite {
		name = "school.db"
	}
	path := filepath.Join(t.TempDir(), name)

	t.Setenv("CONFIG_PATH", "")
	require.NoError(t, os.Unsetenv("CONFIG_PATH"))
	t.Setenv("ENV", "prod")
	t.Setenv("STORAGE_DRIVER", driver)
	t.Setenv("STORAGE_PATH", path)
	return path
}

func run(t *testing.T, args ...string) result {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := cli.Execute(context.Background(), args, &stdout, &stderr)
	return result{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

func mustRun(t *testing.T, args ...string) result {
	t.Helper()
	r := run(t, args...)
	require.Equal(t, cli.ExitSuccess, r.code, "args %v\nstdout: %s\nstderr: %s", args, r.stdout, r.stderr)
	return r
}

func decode(t *testing.T, r result, data any) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal([]byte(r.stdout), &env), r.stdout)
	if data != nil {
		require.NoError(t, json.Unmarshal(env.Data, data))
	}
	return env
}

func TestRegisterThenDeleteCourse(t *testing.T) {
	for _, driver := range []string{config.DriverJSON, config.DriverSQLite} {
		t.Run(driver, func(t *testing.T) {
			setup(t, driver)

			mustRun(t, "student", "create", "--id", "S1", "--name", "Ann", "--age", "20", "--email", "a@x.com")
			mustRun(t, "course", "create", "--id", "C1", "--name", "Math")
			mustRun(t, "register", "S1", "C1")

			var st types.Student
			decode(t, mustRun(t, "student", "get", "S1", "--json"), &st)
			assert.Equal(t, types.Student{
				ID:                "S1",
				Person:            types.Person{Name: "Ann", Age: 20, Email: "a@x.com"},
				RegisteredCourses: []string{"C1"},
			}, st)

			var c types.Course
			decode(t, mustRun(t, "course", "get", "C1", "--json"), &c)
			assert.Equal(t, []string{"S1"}, c.EnrolledStudentIDs)

			mustRun(t, "course", "delete", "C1")
			decode(t, mustRun(t, "student", "get", "S1", "--json"), &st)
			assert.Empty(t, st.RegisteredCourses)
		})
	}
}

func TestGet_HumanOutput(t *testing.T) {
	setup(t, config.DriverJSON)
	mustRun(t, "student", "create", "--id", "S1", "--name", "Ann", "--age", "20", "--email", "a@x.com")

	r := mustRun(t, "student", "get", "S1")
	assert.Contains(t, r.stdout, "Name: Ann, Age: 20\n")
	assert.Contains(t, r.stdout, "S1  Ann  age 20  a@x.com  courses: -")
}

func TestCreate_GeneratesID(t *testing.T) {
	setup(t, config.DriverJSON)

	var st types.Student
	decode(t, mustRun(t, "student", "create", "--name", "Ann", "--age", "20", "--email", "a@x.com", "--json"), &st)
	assert.True(t, strings.HasPrefix(st.ID, "S-"), st.ID)
	assert.Len(t, st.ID, 10)

	var c types.Course
	decode(t, mustRun(t, "course", "create", "--name", "Math", "--json"), &c)
	assert.True(t, strings.HasPrefix(c.ID, "C-"), c.ID)
}

func TestExitCodes(t *testing.T) {
	setup(t, config.DriverJSON)
	mustRun(t, "student", "create", "--id", "S1", "--name", "Ann", "--age", "20", "--email", "a@x.com")
	mustRun(t, "course", "create", "--id", "C1", "--name", "Math")

	tests := []struct {
		name     string
		args     []string
		wantCode int
		wantErr  string
	}{
		{"duplicate id", []string{"student", "create", "--id", "S1", "--name", "Bo", "--age", "3", "--email", "b@x.com"}, cli.ExitValidation, "duplicate_key"},
		{"negative age", []string{"student", "create", "--id", "S2", "--name", "Bo", "--age", "-1", "--email", "b@x.com"}, cli.ExitValidation, "validation"},
		{"bad email", []string{"instructor", "create", "--id", "I1", "--name", "Bo", "--age", "30", "--email", "bo"}, cli.ExitValidation, "validation"},
		{"unknown student", []string{"register", "S404", "C1"}, cli.ExitNotFound, "not_found"},
		{"unknown record", []string{"course", "get", "C404"}, cli.ExitNotFound, "not_found"},
		{"missing link", []string{"unassign", "I1", "C1"}, cli.ExitNotFound, "not_found"},
		{"unknown instructor on course", []string{"course", "create", "--id", "C2", "--name", "Art", "--instructor", "I404"}, cli.ExitNotFound, "not_found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := run(t, append(tt.args, "--json")...)
			assert.Equal(t, tt.wantCode, r.code)

			env := decode(t, r, nil)
			assert.Equal(t, "error", env.Status)
			assert.Equal(t, tt.wantErr, env.Code)
		})
	}

	// Nothing above changed the stored data.
	var students []types.Student
	decode(t, mustRun(t, "student", "list", "--json"), &students)
	require.Len(t, students, 1)
	assert.Equal(t, "Ann", students[0].Name)
}

func TestError_HumanOutput(t *testing.T) {
	setup(t, config.DriverJSON)

	r := run(t, "student", "get", "S9")
	assert.Equal(t, cli.ExitNotFound, r.code)
	assert.Empty(t, r.stdout)
	assert.Contains(t, r.stderr, "error: no student found with id: S9\n")
}

func TestUpdate(t *testing.T) {
	setup(t, config.DriverJSON)
	mustRun(t, "instructor", "create", "--id", "I1", "--name", "Bob", "--age", "40", "--email", "b@x.com")
	mustRun(t, "course", "create", "--id", "C1", "--name", "Math", "--instructor", "I1")

	var c types.Course
	decode(t, mustRun(t, "course", "update", "C1", "--name", "Algebra", "--json"), &c)
	assert.Equal(t, "Algebra", c.Name)
	assert.Equal(t, "I1", c.InstructorID)

	decode(t, mustRun(t, "course", "update", "C1", "--instructor", "", "--json"), &c)
	assert.Equal(t, "", c.InstructorID)

	var in types.Instructor
	decode(t, mustRun(t, "instructor", "update", "I1", "--age", "41", "--json"), &in)
	assert.Equal(t, 41, in.Age)
	assert.Empty(t, in.AssignedCourses)

	r := run(t, "instructor", "update", "I1", "--age", "old")
	assert.Equal(t, cli.ExitValidation, r.code)
}

func TestAssignAndSearch(t *testing.T) {
	setup(t, config.DriverJSON)
	mustRun(t, "instructor", "create", "--id", "I1", "--name", "Mathilda", "--age", "40", "--email", "m@x.com")
	mustRun(t, "course", "create", "--id", "C1", "--name", "Math")
	mustRun(t, "student", "create", "--id", "S1", "--name", "Ann", "--age", "20", "--email", "a@x.com")
	mustRun(t, "assign", "I1", "C1")

	var courses []types.Course
	decode(t, mustRun(t, "course", "search", "MATH", "--json"), &courses)
	require.Len(t, courses, 1)
	assert.Equal(t, "I1", courses[0].InstructorID)

	var found map[types.Kind]json.RawMessage
	decode(t, mustRun(t, "search", "math", "--json"), &found)
	assert.Contains(t, string(found[types.KindInstructor]), `"I1"`)
	assert.Contains(t, string(found[types.KindCourse]), `"C1"`)
	assert.JSONEq(t, `[]`, string(found[types.KindStudent]))

	r := mustRun(t, "student", "search", "zzz")
	assert.Equal(t, "No students found\n", r.stdout)
}

func TestExport(t *testing.T) {
	setup(t, config.DriverJSON)
	mustRun(t, "student", "create", "--id", "S1", "--name", "Ann", "--age", "20", "--email", "a@x.com")

	r := mustRun(t, "export")
	assert.True(t, strings.HasPrefix(r.stdout, "Students\nID,Name,Email,Courses\nS1,Ann,a@x.com,\n"), r.stdout)

	out := filepath.Join(t.TempDir(), "records.csv")
	mustRun(t, "export", "--out", out)
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, r.stdout, string(data))
}

func TestCorruptSnapshot(t *testing.T) {
	path := setup(t, config.DriverJSON)

	t.Run("malformed", func(t *testing.T) {
		require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
		r := run(t, "student", "list", "--json")
		assert.Equal(t, cli.ExitDataErr, r.code)
		assert.Equal(t, "persistence", decode(t, r, nil).Code)
	})

	t.Run("dangling link", func(t *testing.T) {
		doc := `{"students":[{"id":"S1","name":"Ann","age":20,"email":"a@x.com","registered_courses":["C404"]}]}`
		require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))
		r := run(t, "student", "list")
		assert.Equal(t, cli.ExitDataErr, r.code)
		assert.Contains(t, r.stderr, "dangling registration S1 -> C404")

		// The file is left as it was.
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, doc, string(data))
	})
}

func TestMissingConfigFile(t *testing.T) {
	setup(t, config.DriverJSON)

	r := run(t, "student", "list", "--config", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Equal(t, cli.ExitError, r.code)
	assert.Contains(t, r.stderr, "config file does not exist")
}

func TestUsageErrors(t *testing.T) {
	setup(t, config.DriverJSON)

	assert.Equal(t, cli.ExitError, run(t, "register", "S1").code)
	assert.Equal(t, cli.ExitError, run(t, "janitor", "list").code)
}
