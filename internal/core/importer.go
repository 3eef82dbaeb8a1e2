package core

// importer.go implements the bulk purchase item import.
//
// ImportItems is a single synchronous pass: decode, match the header, then
// validate every data row on its own. Valid rows become typed items, failed
// checks become ValidationErrors. The function has no side effects and gives
// the same partition for the same input.

// ItemImportResult partitions an import into usable items and problems.
type ItemImportResult struct {
	ValidItems []PurchaseItem    `json:"validItems"`
	Errors     []ValidationError `json:"errors"`
	TotalRows  int               `json:"totalRows"`
}

// HasErrors reports whether any row or file error was found.
func (r *ItemImportResult) HasErrors() bool { return len(r.Errors) > 0 }

// numberedRecord is a record that passed validation, with its data row number.
type numberedRecord struct {
	Row    int
	Record Record
}

// ImportItems decodes and validates a purchase item file. It never returns
// nil, and both slices are non-nil.
func ImportItems(fileName string, data []byte) *ItemImportResult {
	result := &ItemImportResult{
		ValidItems: []PurchaseItem{},
		Errors:     []ValidationError{},
	}

	table, err := ReadTable(fileName, data)
	if err != nil {
		result.Errors = append(result.Errors, fileError(fileName, err))
		return result
	}

	result.TotalRows = len(table.Rows)
	valid, errs := validateTable(table, ItemFields)
	result.Errors = append(result.Errors, errs...)

	for _, nr := range valid {
		item, err := decodeItem(nr.Record)
		if err != nil {
			result.Errors = append(result.Errors, ValidationError{
				Row:     nr.Row,
				Field:   "row",
				Message: err.Error(),
			})
			continue
		}
		result.ValidItems = append(result.ValidItems, item)
	}

	return result
}

// validateTable validates every data row of table against specs. It returns
// the records without problems and all errors in row order.
func validateTable(table Table, specs []FieldSpec) ([]numberedRecord, []ValidationError) {
	if len(table.Rows) == 0 {
		return nil, nil
	}

	idx := BuildHeaderIndex(table.Header, specs)
	validator := NewRowValidator(specs)

	var (
		valid []numberedRecord
		errs  []ValidationError
	)
	for i, row := range table.Rows {
		rowNum := i + 1
		rec := idx.Record(row, specs)
		if rowErrs := validator.Validate(rowNum, rec); len(rowErrs) > 0 {
			errs = append(errs, rowErrs...)
			continue
		}
		valid = append(valid, numberedRecord{Row: rowNum, Record: rec})
	}
	return valid, errs
}

// fileError is the single error reported for a file that could not be decoded.
func fileError(fileName string, err error) ValidationError {
	return ValidationError{
		Row:     0,
		Field:   "file",
		Message: "Error processing file: " + err.Error(),
		Value:   fileName,
	}
}
