package store

import (
	"io"
	"log/slog"
	"testing"

	"github.com/aanand-mishra/school-records/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// danglingStore returns a store whose registration S1 -> C1 outlives C1,
// which only a bug could produce through the public API.
func danglingStore(t *testing.T) *Store {
	t.Helper()
	s := New(slog.New(slog.NewTextHandler(io.Discard, nil)))
	_, err := s.Create(types.KindStudent, types.Fields{ID: "S1", Name: "Ann", Age: "20", Email: "a@x.com"})
	require.NoError(t, err)
	_, err = s.Create(types.KindCourse, types.Fields{ID: "C1", Name: "Math"})
	require.NoError(t, err)
	require.NoError(t, s.Register("S1", "C1"))

	s.courses.remove("C1")
	return s
}

func TestRead_DanglingReference(t *testing.T) {
	s := danglingStore(t)

	_, err := s.Read(types.KindStudent, "S1")
	var dangling *types.DanglingReferenceError
	require.ErrorAs(t, err, &dangling)
	assert.Equal(t, types.KindCourse, dangling.Missing)
	assert.Equal(t, "C1", dangling.Course)
}

func TestSnapshot_RefusesDanglingStore(t *testing.T) {
	s := danglingStore(t)

	_, err := s.Snapshot()
	assert.ErrorIs(t, err, types.ErrDanglingReference)
	assert.ErrorIs(t, s.Verify(), types.ErrDanglingReference)
}

func TestCollection_PutKeepsPosition(t *testing.T) {
	c := newCollection[int]()
	c.put("a", 1)
	c.put("b", 2)
	c.put("a", 3)

	assert.Equal(t, []string{"a", "b"}, c.order)
	assert.Equal(t, 3, c.get("a"))

	c.remove("a")
	assert.Equal(t, []string{"b"}, c.order)
	assert.False(t, c.has("a"))
}
