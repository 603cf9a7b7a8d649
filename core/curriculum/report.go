package curriculum

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/ready4exam/platform/core"
)

var (
	// Boards with a report of their own; anything else lands in "other".
	Boards = []string{"cbse", "scert", "icse", "other"}

	languageSubjects = map[string]bool{"hindi": true, "english": true, "sanskrit": true}
	skippedDirs      = []string{"node_modules", ".git", "data"}
	classNumRegex    = regexp.MustCompile(`\d+`)
)

type (
	// ReportRow counts the chapters of one subject book (or stream) of a class.
	ReportRow struct {
		Class      string
		Subject    string
		Category   string
		Count      int
		IsLanguage bool
	}

	Report struct {
		Date   string
		Boards map[string][]ReportRow
	}

	orderedBook struct {
		name     string
		chapters int
	}

	orderedSubject struct {
		name  string
		books []orderedBook
	}
)

// GenerateReport walks root for curriculum files and counts chapters per board, class, subject and book.
// Files that cannot be parsed are logged and skipped.
func GenerateReport(root string, today time.Time, logger core.Logger) (*Report, error) {
	rep := &Report{
		Date:   today.Format("2006-01-02"),
		Boards: make(map[string][]ReportRow, len(Boards)),
	}

	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p != root && isSkippedDir(rel) {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Name() != "curriculum.js" && d.Name() != "curriculum.json" {
			return nil
		}

		if err = rep.addFile(p, rel); err != nil {
			logger.Error(fmt.Sprintf("Error: %s: %v", rel, err), err)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "walking curriculum files")
	}
	return rep, nil
}

func (rep *Report) addFile(p, rel string) error {
	parts := strings.Split(filepath.ToSlash(rel), "/")
	if len(parts) < 3 { // board/class/.../curriculum.js
		return fmt.Errorf("unexpected location %q", rel)
	}

	content, err := os.ReadFile(p)
	if err != nil {
		return err
	}
	src := string(content)
	if strings.HasSuffix(p, ".js") {
		lit, ok := extractCurriculumLiteral(src)
		if !ok {
			return nil
		}
		src = literalToJSON(lit)
	}
	subjects, err := decodeOrdered([]byte(src))
	if err != nil {
		return errors.Wrap(err, "parsing curriculum")
	}

	board := strings.ToLower(parts[0])
	if !isBoard(board) {
		board = "other"
	}
	className := strings.ToUpper(parts[1])

	for _, subj := range subjects {
		for _, book := range subj.books {
			rep.Boards[board] = append(rep.Boards[board], ReportRow{
				Class:      className,
				Subject:    subj.name,
				Category:   categoryName(className, book.name),
				Count:      book.chapters,
				IsLanguage: languageSubjects[strings.ToLower(subj.name)],
			})
		}
	}
	return nil
}

// Rows returns the rows of a board sorted by class number: all subjects, or the core ones only (no languages).
func (rep *Report) Rows(board string, full bool) []ReportRow {
	rows := make([]ReportRow, 0, len(rep.Boards[board]))
	for _, r := range rep.Boards[board] {
		if full || !r.IsLanguage {
			rows = append(rows, r)
		}
	}
	sort.SliceStable(rows, func(i, j int) bool { return classNumber(rows[i].Class) < classNumber(rows[j].Class) })
	return rows
}

// Markdown renders the table of a board with per-class subtotals and a grand total.
func (rep *Report) Markdown(board string, full bool) string {
	title := "CORE CONTENT (No Languages)"
	if full {
		title = "FULL CONTENT (All Subjects)"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s %s - %s\n\n", strings.ToUpper(board), title, rep.Date)
	b.WriteString("| Class | Subject | Category/Stream | Chapters |\n| :--- | :--- | :--- | :--- |\n")

	rows := rep.Rows(board, full)
	var grandTotal, classTotal int
	var currentClass string
	subtotal := func() {
		fmt.Fprintf(&b, "| **%s** | **TOTAL FOR %s** | **---** | **%d** |\n", currentClass, currentClass, classTotal)
		grandTotal += classTotal
		classTotal = 0
	}
	for _, r := range rows {
		if currentClass != "" && currentClass != r.Class {
			subtotal()
		}
		currentClass = r.Class
		classTotal += r.Count
		fmt.Fprintf(&b, "| %s | %s | %s | %d |\n", r.Class, r.Subject, r.Category, r.Count)
	}
	if len(rows) > 0 {
		subtotal()
	}
	fmt.Fprintf(&b, "| | | **GRAND TOTAL ALL CLASSES** | **%d** |\n", grandTotal)
	return b.String()
}

// CSV renders the rows of a board, ending with a ",,,TOTAL:<n>" line.
func (rep *Report) CSV(board string, full bool) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	records := [][]string{{"Class", "Subject", "Category", "Chapters"}}
	var total int
	for _, r := range rep.Rows(board, full) {
		records = append(records, []string{r.Class, r.Subject, r.Category, strconv.Itoa(r.Count)})
		total += r.Count
	}
	records = append(records, []string{"", "", "", "TOTAL:" + strconv.Itoa(total)})
	if err := w.WriteAll(records); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// XLSX renders the rows of a board as a workbook.
func (rep *Report) XLSX(board string, full bool) (*excelize.File, error) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)

	setRow := func(rowIdx int, vals ...interface{}) error {
		for col, v := range vals {
			cell, err := excelize.CoordinatesToCellName(col+1, rowIdx)
			if err != nil {
				return err
			}
			if err = f.SetCellValue(sheet, cell, v); err != nil {
				return err
			}
		}
		return nil
	}

	if err := setRow(1, "Class", "Subject", "Category", "Chapters"); err != nil {
		return nil, err
	}
	rowIdx, total := 2, 0
	for _, r := range rep.Rows(board, full) {
		if err := setRow(rowIdx, r.Class, r.Subject, r.Category, r.Count); err != nil {
			return nil, err
		}
		total += r.Count
		rowIdx++
	}
	if err := setRow(rowIdx, "", "", "TOTAL", total); err != nil {
		return nil, err
	}
	return f, nil
}

// Write stores the full and core reports of every non-empty board under outDir/<board>/
// and returns the written paths.
func (rep *Report) Write(outDir string, withXLSX bool) ([]string, error) {
	written := make([]string, 0)
	for _, board := range Boards {
		if len(rep.Boards[board]) == 0 {
			continue
		}
		dir := filepath.Join(outDir, board)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return written, errors.Wrap(err, "creating report dir")
		}

		for _, full := range []bool{true, false} {
			suffix := "core"
			if full {
				suffix = "full"
			}

			mdPath := filepath.Join(dir, fmt.Sprintf("report_%s_%s.md", suffix, rep.Date))
			if err := os.WriteFile(mdPath, []byte(rep.Markdown(board, full)), 0o644); err != nil {
				return written, errors.Wrap(err, "writing markdown report")
			}
			written = append(written, mdPath)

			data, err := rep.CSV(board, full)
			if err != nil {
				return written, errors.Wrap(err, "rendering csv report")
			}
			csvPath := filepath.Join(dir, fmt.Sprintf("data_%s_%s.csv", suffix, rep.Date))
			if err = os.WriteFile(csvPath, data, 0o644); err != nil {
				return written, errors.Wrap(err, "writing csv report")
			}
			written = append(written, csvPath)

			if withXLSX {
				f, err := rep.XLSX(board, full)
				if err != nil {
					return written, errors.Wrap(err, "rendering xlsx report")
				}
				xlsxPath := filepath.Join(dir, fmt.Sprintf("data_%s_%s.xlsx", suffix, rep.Date))
				err = f.SaveAs(xlsxPath)
				_ = f.Close()
				if err != nil {
					return written, errors.Wrap(err, "writing xlsx report")
				}
				written = append(written, xlsxPath)
			}
		}
	}
	return written, nil
}

func categoryName(className, book string) string {
	if !(strings.Contains(className, "11") || strings.Contains(className, "12")) {
		return book
	}
	lb := strings.ToLower(book)
	switch {
	case strings.Contains(lb, "science"):
		return "Science Stream"
	case strings.Contains(lb, "commerce"):
		return "Commerce Stream"
	case strings.Contains(lb, "humanities"), strings.Contains(lb, "arts"):
		return "Humanities Stream"
	default:
		return book
	}
}

func classNumber(className string) int {
	n, err := strconv.Atoi(classNumRegex.FindString(className))
	if err != nil {
		return 0
	}
	return n
}

func isBoard(board string) bool {
	for _, b := range Boards {
		if b == board && b != "other" {
			return true
		}
	}
	return false
}

// isSkippedDir matches anywhere in the path relative to the walk root, so "metadata" or "x.github" are skipped too.
func isSkippedDir(rel string) bool {
	rel = filepath.ToSlash(rel)
	for _, s := range skippedDirs {
		if strings.Contains(rel, s) {
			return true
		}
	}
	return false
}

// decodeOrdered decodes a curriculum keeping the subject and book order of the source.
func decodeOrdered(data []byte) ([]orderedSubject, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := expectDelim(dec, '{'); err != nil {
		return nil, err
	}

	subjects := make([]orderedSubject, 0)
	for dec.More() {
		key, err := dec.Token()
		if err != nil {
			return nil, err
		}
		subj := orderedSubject{name: fmt.Sprint(key)}
		if err = expectDelim(dec, '{'); err != nil {
			return nil, errors.Wrapf(err, "subject %s", subj.name)
		}
		for dec.More() {
			bookKey, err := dec.Token()
			if err != nil {
				return nil, err
			}
			var chapters []json.RawMessage
			if err = dec.Decode(&chapters); err != nil {
				return nil, errors.Wrapf(err, "book %v", bookKey)
			}
			subj.books = append(subj.books, orderedBook{name: fmt.Sprint(bookKey), chapters: len(chapters)})
		}
		if err = expectDelim(dec, '}'); err != nil {
			return nil, err
		}
		subjects = append(subjects, subj)
	}
	return subjects, expectDelim(dec, '}')
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("expected %q, got %v", want, tok)
	}
	return nil
}
