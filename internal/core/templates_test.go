package core

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/xuri/excelize/v2"
)

func itemSchema(t *testing.T) ImportSchema {
	t.Helper()
	s, ok := GetSchema(ItemSchemaKey)
	if !ok {
		t.Fatal("purchase item schema not registered")
	}
	return s
}

func TestWriteTemplateXLSX(t *testing.T) {
	s := itemSchema(t)

	var buf bytes.Buffer
	if err := WriteTemplateXLSX(&buf, s); err != nil {
		t.Fatalf("WriteTemplateXLSX() error: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()

	if diff := cmp.Diff([]string{templateSheet, instructionsSheet}, f.GetSheetList()); diff != "" {
		t.Errorf("sheet list mismatch (-want +got):\n%s", diff)
	}

	rows, err := f.GetRows(templateSheet)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("template has %d rows, want 2", len(rows))
	}
	if diff := cmp.Diff(s.Columns(), rows[0]); diff != "" {
		t.Errorf("header mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(s.Example, rows[1]); diff != "" {
		t.Errorf("example mismatch (-want +got):\n%s", diff)
	}

	help, err := f.GetRows(instructionsSheet)
	if err != nil {
		t.Fatalf("GetRows instructions: %v", err)
	}
	if len(help) != len(s.Fields)+1 {
		t.Errorf("instructions has %d rows, want %d", len(help), len(s.Fields)+1)
	}
	if diff := cmp.Diff([]string{"Column", "Required", "Format", "Also accepted as"}, help[0]); diff != "" {
		t.Errorf("instructions header mismatch (-want +got):\n%s", diff)
	}

	width, err := f.GetColWidth(instructionsSheet, "C")
	if err != nil {
		t.Fatalf("GetColWidth: %v", err)
	}
	if width != 44 {
		t.Errorf("format column width = %v, want 44", width)
	}

	styleID, err := f.GetCellStyle(templateSheet, "A1")
	if err != nil {
		t.Fatalf("GetCellStyle: %v", err)
	}
	style, err := f.GetStyle(styleID)
	if err != nil {
		t.Fatalf("GetStyle: %v", err)
	}
	if style.Font == nil || !style.Font.Bold {
		t.Error("template header should be bold")
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestWriteTemplateXLSX_WriteError(t *testing.T) {
	err := WriteTemplateXLSX(failingWriter{}, itemSchema(t))
	if err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Errorf("WriteTemplateXLSX() error = %v, want write failure", err)
	}
}

// Templates must import cleanly, otherwise users start from a broken file.
func TestTemplatesImportCleanly(t *testing.T) {
	s := itemSchema(t)

	tests := []struct {
		name  string
		file  string
		write func(*bytes.Buffer) error
	}{
		{"csv", "template.csv", func(b *bytes.Buffer) error { return WriteTemplateCSV(b, s) }},
		{"xlsx", "template.xlsx", func(b *bytes.Buffer) error { return WriteTemplateXLSX(b, s) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := tt.write(&buf); err != nil {
				t.Fatalf("write template: %v", err)
			}

			res := ImportItems(tt.file, buf.Bytes())
			if len(res.Errors) != 0 {
				t.Fatalf("template import errors: %v", res.Errors)
			}
			if len(res.ValidItems) != 1 {
				t.Fatalf("got %d valid items, want 1", len(res.ValidItems))
			}
			got := res.ValidItems[0]
			if got.ItemCode != "RC0805FR-0710KL" || got.Quantity != 100 || got.Currency != "USD" {
				t.Errorf("unexpected item: %+v", got)
			}
		})
	}
}

func TestDescribeField(t *testing.T) {
	tests := []struct {
		spec FieldSpec
		want string
	}{
		{FieldSpec{Name: "quantity", Type: FieldNumber, Positive: true}, "Number greater than zero, no currency symbols"},
		{FieldSpec{Name: "cost", Type: FieldNumber, NonNegative: true}, "Number zero or greater, no currency symbols"},
		{FieldSpec{Name: "stock", Type: FieldCount}, "Whole number zero or greater"},
		{FieldSpec{Name: "link", Type: FieldURL}, "Full URL including https://"},
		{FieldSpec{Name: "type", Type: FieldEnum, EnumValues: []string{"NPN", "PNP"}}, "One of: NPN, PNP"},
		{FieldSpec{Name: "units"}, "Text, defaults to pcs"},
		{FieldSpec{Name: "vendor"}, "Text"},
	}
	for _, tt := range tests {
		if got := describeField(tt.spec); got != tt.want {
			t.Errorf("describeField(%s) = %q, want %q", tt.spec.Name, got, tt.want)
		}
	}
}
