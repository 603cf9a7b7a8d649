package demo

import (
	"encoding/json"
	"errors"
	"io/fs"
	"sync"

	pkgerrors "github.com/pkg/errors"
)

var ErrUnknownRole = errors.New("no demo dashboard for this role")

var dashboardRoles = map[string]bool{"principal": true, "teacher": true, "admin": true, "student": true}

type (
	Alert struct {
		ID   int    `json:"id"`
		Type string `json:"type"`
		Msg  string `json:"msg"`
		Date string `json:"date"`
	}

	Principal struct {
		Name   string  `json:"name"`
		Email  string  `json:"email"`
		Alerts []Alert `json:"alerts"`
	}

	GradeReport struct {
		Grade      int    `json:"grade"`
		Accuracy   int    `json:"accuracy"`
		Completion int    `json:"completion"`
		Peak       string `json:"peak"`
		Friction   string `json:"friction"`
		Risk       int    `json:"risk"`
	}

	Teacher struct {
		ID          string   `json:"id"`
		Name        string   `json:"name"`
		Subject     string   `json:"subject"`
		Classes     []string `json:"classes"`
		Performance int      `json:"performance"`
	}

	Section struct {
		AvgScore      int    `json:"avgScore"`
		RiskCount     int    `json:"riskCount"`
		ActiveChapter string `json:"activeChapter"`
	}

	Student struct {
		ID      string `json:"id"`
		Name    string `json:"name"`
		Class   string `json:"class"`
		Status  string `json:"status"`
		Mastery int    `json:"mastery"`
	}

	Dashboard struct {
		SchoolName  string             `json:"schoolName"`
		Principal   Principal          `json:"principal"`
		GradeReport []GradeReport      `json:"gradeReport"`
		Teachers    []Teacher          `json:"teachers"`
		Sections    map[string]Section `json:"sections"`
		Students    []Student          `json:"students"`
		DemoMode    bool               `json:"demoMode"`
		Role        string             `json:"role"`
	}

	// Fixtures serves the demo dashboards shipped with the app.
	Fixtures struct {
		fsys fs.FS
		path string

		once sync.Once
		data Dashboard
		err  error
	}
)

func NewFixtures(fsys fs.FS, path string) *Fixtures {
	return &Fixtures{fsys: fsys, path: path}
}

func (f *Fixtures) load() {
	raw, err := fs.ReadFile(f.fsys, f.path)
	if err != nil {
		f.err = pkgerrors.Wrap(err, "reading demo fixtures")
		return
	}
	if err = json.Unmarshal(raw, &f.data); err != nil {
		f.err = pkgerrors.Wrap(err, "parsing demo fixtures")
	}
}

// Dashboard returns the demo dataset flagged for the given console role.
func (f *Fixtures) Dashboard(role string) (Dashboard, error) {
	if !dashboardRoles[role] {
		return Dashboard{}, ErrUnknownRole
	}
	f.once.Do(f.load)
	if f.err != nil {
		return Dashboard{}, f.err
	}

	d := f.data
	d.DemoMode = true
	d.Role = role
	return d, nil
}
