package whitelist

import (
	"encoding/csv"
	"io"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"
)

var ErrUnsupportedFile = errors.New("unsupported file type: upload a .csv or .xlsx file")

// Parse reads onboarding rows from a CSV or XLSX upload, picked by file extension.
func Parse(filename string, r io.Reader) ([]NewEntry, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv", ".txt":
		return ParseCSV(r)
	case ".xlsx":
		return ParseXLSX(r)
	default:
		return nil, ErrUnsupportedFile
	}
}

// ParseCSV reads rows of "Email, Role, Section, AllowedClass". Rows without an email are skipped.
func ParseCSV(r io.Reader) ([]NewEntry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	rows := make([][]string, 0)
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "reading csv")
		}
		rows = append(rows, row)
	}
	return entriesFromRows(rows), nil
}

// ParseXLSX reads the same columns as ParseCSV from the first sheet of a workbook.
func ParseXLSX(r io.Reader) ([]NewEntry, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, errors.Wrap(err, "opening workbook")
	}
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, errors.Wrap(err, "reading sheet")
	}
	return entriesFromRows(rows), nil
}

func entriesFromRows(rows [][]string) []NewEntry {
	cell := func(row []string, i int) string {
		if i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}

	entries := make([]NewEntry, 0, len(rows))
	for i, row := range rows {
		email := cell(row, 0)
		if email == "" {
			continue
		}
		if i == 0 && strings.EqualFold(email, "email") { // header
			continue
		}
		ne := NewEntry{
			Email:   email,
			Role:    cell(row, 1),
			Section: cell(row, 2),
		}
		if cls := cell(row, 3); cls != "" {
			ne.AllowedClasses = []string{cls}
		}
		ne.Clean()
		entries = append(entries, ne)
	}
	return entries
}
