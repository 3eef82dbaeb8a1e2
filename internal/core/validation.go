package core

// validation.go checks decoded rows against their FieldSpecs.
//
// Every row is validated independently and completely: required-field checks
// run first, then format and range checks for the cells that are present.
// Each failed check yields one ValidationError carrying the 1-based data row,
// the canonical field name, a message and the offending value.

import (
	"fmt"
	"math"
	"strings"
)

// FieldType is the expected shape of a cell.
type FieldType int

const (
	FieldText FieldType = iota
	FieldEnum
	FieldNumber
	FieldCount
	FieldURL
)

// FieldSpec defines how one column is matched, cleaned and validated.
type FieldSpec struct {
	Name        string              // Canonical key, also written as the template header
	Aliases     []string            // Other accepted headers, matched via NormalizeHeader
	Type        FieldType           // Expected data type
	Required    bool                // Cell must be non-empty
	Positive    bool                // FieldNumber must be > 0
	NonNegative bool                // FieldNumber must be >= 0
	EnumValues  []string            // Valid values for FieldEnum (case-insensitive)
	Message     string              // Message for a failed format or range check
	Normalizer  func(string) string // Optional transformation applied to non-empty cells
}

// Record is one decoded row keyed by canonical field name. Columns absent
// from the file are absent from the record.
type Record map[string]string

// HeaderIndex maps canonical field names to their column position.
type HeaderIndex map[string]int

// ValidationError describes one failed check on one row.
type ValidationError struct {
	Row     int    `json:"row"`   // 1-based data row; 0 for file-level errors
	Field   string `json:"field"` // Canonical field name, or "file"
	Message string `json:"message"`
	Value   string `json:"value"`
}

func (e ValidationError) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("row %d: %s: %s", e.Row, e.Field, e.Message)
	}
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// BuildHeaderIndex matches header cells to specs by name or alias. Unknown
// columns are ignored; when two columns match the same field the first wins.
func BuildHeaderIndex(header []string, specs []FieldSpec) HeaderIndex {
	lookup := make(map[string]string, len(specs))
	for _, spec := range specs {
		lookup[NormalizeHeader(spec.Name)] = spec.Name
		for _, alias := range spec.Aliases {
			lookup[NormalizeHeader(alias)] = spec.Name
		}
	}

	idx := make(HeaderIndex, len(specs))
	for pos, cell := range header {
		name, ok := lookup[NormalizeHeader(cell)]
		if !ok {
			continue
		}
		if _, seen := idx[name]; !seen {
			idx[name] = pos
		}
	}
	return idx
}

// Missing returns the required fields that have no column in the index.
func (idx HeaderIndex) Missing(specs []FieldSpec) []string {
	var missing []string
	for _, spec := range specs {
		if _, ok := idx[spec.Name]; spec.Required && !ok {
			missing = append(missing, spec.Name)
		}
	}
	return missing
}

// Record extracts a row into a Record, cleaning every cell and applying
// normalizers to non-empty values. Short rows yield empty cells.
func (idx HeaderIndex) Record(row []string, specs []FieldSpec) Record {
	rec := make(Record, len(idx))
	for _, spec := range specs {
		pos, ok := idx[spec.Name]
		if !ok {
			continue
		}
		var v string
		if pos < len(row) {
			v = CleanCell(row[pos])
		}
		if v != "" && spec.Normalizer != nil {
			v = spec.Normalizer(v)
		}
		rec[spec.Name] = v
	}
	return rec
}

// RowValidator validates records against a fixed set of specs.
type RowValidator struct {
	specs []FieldSpec
}

// NewRowValidator creates a validator for the given specs.
func NewRowValidator(specs []FieldSpec) *RowValidator {
	return &RowValidator{specs: specs}
}

// Validate returns every problem with the record. An empty result means the
// row is valid.
func (v *RowValidator) Validate(row int, rec Record) []ValidationError {
	var errs []ValidationError

	for _, spec := range v.specs {
		if spec.Required && rec[spec.Name] == "" {
			errs = append(errs, ValidationError{
				Row:     row,
				Field:   spec.Name,
				Message: spec.Name + " is required",
				Value:   rec[spec.Name],
			})
		}
	}

	for _, spec := range v.specs {
		raw := rec[spec.Name]
		if raw == "" {
			continue
		}
		if msg, ok := checkCell(raw, spec); !ok {
			errs = append(errs, ValidationError{
				Row:     row,
				Field:   spec.Name,
				Message: msg,
				Value:   raw,
			})
		}
	}

	return errs
}

// checkCell validates a non-empty value. It returns the failure message and
// false when the value does not satisfy the spec.
func checkCell(value string, spec FieldSpec) (string, bool) {
	fail := func(def string) (string, bool) {
		if spec.Message != "" {
			return spec.Message, false
		}
		return def, false
	}

	switch spec.Type {
	case FieldNumber:
		f, ok := ParseNumber(value)
		if !ok {
			return fail(spec.Name + " must be a number")
		}
		if spec.Positive && f <= 0 {
			return fail(spec.Name + " must be a positive number")
		}
		if spec.NonNegative && f < 0 {
			return fail(spec.Name + " must be a non-negative number")
		}
	case FieldCount:
		if _, ok := ParseCount(value); !ok {
			return fail(spec.Name + " must be a whole non-negative number")
		}
	case FieldURL:
		if !IsValidURL(value) {
			return fail("Invalid URL format")
		}
	case FieldEnum:
		for _, ev := range spec.EnumValues {
			if strings.EqualFold(ev, value) {
				return "", true
			}
		}
		return fail(fmt.Sprintf("%s must be one of: %s", spec.Name, strings.Join(spec.EnumValues, ", ")))
	}
	return "", true
}

// ValidateItem applies the import rules to an already typed item, as sent by
// API clients. line is reported as the error row.
func ValidateItem(line int, item PurchaseItem) []ValidationError {
	var errs []ValidationError
	add := func(field, msg, value string) {
		errs = append(errs, ValidationError{Row: line, Field: field, Message: msg, Value: value})
	}

	if strings.TrimSpace(item.ItemName) == "" {
		add("itemName", "itemName is required", item.ItemName)
	}
	if strings.TrimSpace(item.ItemCode) == "" {
		add("itemCode", "itemCode is required", item.ItemCode)
	}
	if !(item.Quantity > 0) || math.IsInf(item.Quantity, 0) {
		add("quantity", msgQuantity, formatNumber(item.Quantity))
	}
	if !(item.Cost >= 0) || math.IsInf(item.Cost, 0) {
		add("cost", msgCost, formatNumber(item.Cost))
	}
	if link := strings.TrimSpace(item.Link); link != "" && !IsValidURL(link) {
		add("link", msgLink, item.Link)
	}
	return errs
}
