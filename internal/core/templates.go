package core

// templates.go writes downloadable import templates for a schema: a header
// row of canonical column names followed by one example row.

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

const (
	templateSheet     = "Import"
	instructionsSheet = "Instructions"
)

// WriteTemplateCSV writes the schema's header and example row as CSV.
func WriteTemplateCSV(w io.Writer, s ImportSchema) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(s.Columns()); err != nil {
		return fmt.Errorf("write template header: %w", err)
	}
	if len(s.Example) > 0 {
		if err := cw.Write(s.Example); err != nil {
			return fmt.Errorf("write template example: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteTemplateXLSX writes a workbook with the template sheet first and an
// instructions sheet describing each column.
func WriteTemplateXLSX(w io.Writer, s ImportSchema) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", templateSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	boldStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	for i, h := range s.Columns() {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return fmt.Errorf("column %d: %w", i+1, err)
		}
		cell := col + "1"
		if err := f.SetCellValue(templateSheet, cell, h); err != nil {
			return fmt.Errorf("write header %s: %w", h, err)
		}
		if err := f.SetCellStyle(templateSheet, cell, cell, boldStyle); err != nil {
			return fmt.Errorf("style header %s: %w", h, err)
		}
		if err := f.SetColWidth(templateSheet, col, col, float64(max(len(h)+4, 14))); err != nil {
			return fmt.Errorf("size column %s: %w", col, err)
		}
	}
	for i, v := range s.Example {
		cell, err := excelize.CoordinatesToCellName(i+1, 2)
		if err != nil {
			return fmt.Errorf("example cell %d: %w", i+1, err)
		}
		if err := f.SetCellStr(templateSheet, cell, v); err != nil {
			return fmt.Errorf("write example %s: %w", cell, err)
		}
	}

	if _, err := f.NewSheet(instructionsSheet); err != nil {
		return fmt.Errorf("create instructions sheet: %w", err)
	}
	help := [][]string{{"Column", "Required", "Format", "Also accepted as"}}
	for _, fs := range s.Fields {
		req := "No"
		if fs.Required {
			req = "Yes"
		}
		help = append(help, []string{fs.Name, req, describeField(fs), strings.Join(fs.Aliases, ", ")})
	}
	for i, row := range help {
		for j, val := range row {
			cell, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				return fmt.Errorf("instructions cell: %w", err)
			}
			if err := f.SetCellValue(instructionsSheet, cell, val); err != nil {
				return fmt.Errorf("write instructions %s: %w", cell, err)
			}
		}
	}
	if err := f.SetCellStyle(instructionsSheet, "A1", "D1", boldStyle); err != nil {
		return fmt.Errorf("style instructions header: %w", err)
	}
	for _, cw := range []struct {
		col   string
		width float64
	}{{"A", 18}, {"C", 44}, {"D", 24}} {
		if err := f.SetColWidth(instructionsSheet, cw.col, cw.col, cw.width); err != nil {
			return fmt.Errorf("size instructions column %s: %w", cw.col, err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func describeField(fs FieldSpec) string {
	switch fs.Type {
	case FieldNumber:
		switch {
		case fs.Positive:
			return "Number greater than zero, no currency symbols"
		case fs.NonNegative:
			return "Number zero or greater, no currency symbols"
		}
		return "Number"
	case FieldCount:
		return "Whole number zero or greater"
	case FieldURL:
		return "Full URL including https://"
	case FieldEnum:
		return "One of: " + strings.Join(fs.EnumValues, ", ")
	}
	switch fs.Name {
	case "units":
		return "Text, defaults to " + DefaultUnits
	case "currency":
		return "Currency code, defaults to " + DefaultCurrency
	}
	return "Text"
}
