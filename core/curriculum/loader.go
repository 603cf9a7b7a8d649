package curriculum

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sync"

	pkgerrors "github.com/pkg/errors"
)

var (
	ErrGradeNotFound = errors.New("curriculum not found")

	gradeFiles = map[string]string{
		"6":  "class-6.json",
		"7":  "class-7.json",
		"8":  "class-8.json",
		"9":  "class-9.json",
		"10": "class-10.json",
		"11": "class-11.json",
		"12": "class-12.json",
	}
)

type (
	// Curriculum maps Subject -> Book (or Stream) -> chapters.
	Curriculum map[string]map[string][]Chapter

	Chapter struct {
		ID      string `json:"id"`
		Title   string `json:"title"`
		TableID string `json:"table_id,omitempty"`
	}

	GradeNotFoundError struct {
		Grade string
	}

	// Loader serves the curricula embedded in the binary, parsing each grade once.
	Loader struct {
		fsys fs.FS
		dir  string

		mu    sync.RWMutex
		cache map[string]Curriculum
	}
)

func (e GradeNotFoundError) Error() string {
	return fmt.Sprintf("Curriculum for Grade %s not found.", e.Grade)
}

func (e GradeNotFoundError) Unwrap() error { return ErrGradeNotFound }

// UnmarshalJSON accepts both chapter objects and bare chapter titles.
func (c *Chapter) UnmarshalJSON(data []byte) error {
	var title string
	if err := json.Unmarshal(data, &title); err == nil {
		*c = Chapter{Title: title}
		return nil
	}
	type chapter Chapter
	var ch chapter
	if err := json.Unmarshal(data, &ch); err != nil {
		return err
	}
	*c = Chapter(ch)
	return nil
}

func NewLoader(fsys fs.FS, dir string) *Loader {
	return &Loader{
		fsys:  fsys,
		dir:   dir,
		cache: make(map[string]Curriculum),
	}
}

// Grades lists the grades a curriculum can be loaded for.
func Grades() []string {
	return []string{"6", "7", "8", "9", "10", "11", "12"}
}

func (l *Loader) Load(grade string) (Curriculum, error) {
	file, ok := gradeFiles[grade]
	if !ok {
		return nil, GradeNotFoundError{Grade: grade}
	}

	l.mu.RLock()
	c, ok := l.cache[grade]
	l.mu.RUnlock()
	if ok {
		return c, nil
	}

	data, err := fs.ReadFile(l.fsys, path.Join(l.dir, file))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, GradeNotFoundError{Grade: grade}
		}
		return nil, pkgerrors.Wrapf(err, "reading curriculum for grade %s", grade)
	}
	if err = json.Unmarshal(data, &c); err != nil {
		return nil, pkgerrors.Wrapf(err, "parsing curriculum for grade %s", grade)
	}

	l.mu.Lock()
	l.cache[grade] = c
	l.mu.Unlock()
	return c, nil
}
