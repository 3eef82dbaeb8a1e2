package core

// decode.go turns an uploaded .csv or .xlsx file into a header and data rows.

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Table is a decoded sheet. Skipped lines are already removed, so Rows[i]
// is data row i+1. A CSV line is skipped only when it is empty after
// trimming; a line of bare delimiters is a row of empty cells. An XLSX row is
// skipped when every cell is empty.
type Table struct {
	Header []string
	Rows   [][]string
}

// SupportedExtensions lists the accepted file extensions.
var SupportedExtensions = []string{".csv", ".xlsx"}

// ReadTable decodes a file based on its extension. A file with no
// non-blank lines yields an empty table and no error.
func ReadTable(fileName string, data []byte) (Table, error) {
	var (
		records [][]string
		skip    func([]string) bool
		err     error
	)

	switch ext := strings.ToLower(filepath.Ext(fileName)); ext {
	case ".csv":
		records, err = readCSV(data)
		skip = isEmptyLine
	case ".xlsx":
		records, err = readXLSX(data)
		skip = isBlankRow
	default:
		if ext == "" {
			ext = "(none)"
		}
		return Table{}, fmt.Errorf("%w %s", ErrUnsupportedFile, ext)
	}
	if err != nil {
		return Table{}, err
	}

	kept := records[:0]
	for _, rec := range records {
		if !skip(rec) {
			kept = append(kept, rec)
		}
	}
	if len(kept) == 0 {
		return Table{}, nil
	}
	return Table{Header: kept[0], Rows: kept[1:]}, nil
}

func readCSV(data []byte) ([][]string, error) {
	r := csv.NewReader(textSource(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return records, nil
}

func readXLSX(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("open workbook: no sheets")
	}

	// Raw values keep numbers free of display formats such as "$0.05".
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	return rows, nil
}
