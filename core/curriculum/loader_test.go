package curriculum

import (
	"errors"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appfs "github.com/ready4exam/platform/fs"
)

func TestLoader_Load(t *testing.T) {
	fsys := fstest.MapFS{
		"curriculum/class-9.json": {Data: []byte(`{
			"Science": {"Science Textbook": [{"id": "ch1", "title": "Matter", "table_id": "matter"}, "Motion"]}
		}`)},
		"curriculum/class-10.json": {Data: []byte(`{"Science": [`)},
	}
	l := NewLoader(fsys, "curriculum")

	c, err := l.Load("9")
	require.NoError(t, err)
	assert.Equal(t, []Chapter{
		{ID: "ch1", Title: "Matter", TableID: "matter"},
		{Title: "Motion"},
	}, c["Science"]["Science Textbook"])

	// parsed once
	delete(fsys, "curriculum/class-9.json")
	_, err = l.Load("9")
	assert.NoError(t, err)

	_, err = l.Load("10")
	assert.Error(t, err)
	assert.False(t, errors.Is(err, ErrGradeNotFound))

	for _, grade := range []string{"5", "8", ""} {
		_, err = l.Load(grade)
		assert.True(t, errors.Is(err, ErrGradeNotFound), grade)
		assert.Equal(t, GradeNotFoundError{Grade: grade}, err)
	}
}

func TestLoader_embedded(t *testing.T) {
	l := NewLoader(appfs.FS, "curriculum")
	for _, grade := range Grades() {
		c, err := l.Load(grade)
		require.NoError(t, err, grade)
		assert.NotEmpty(t, c, grade)
	}
}
