package core

// convert.go turns raw spreadsheet cells into typed values.
//
// Cells arrive as whatever the user's spreadsheet tool produced: padded with
// spaces, wrapped in quotes, wrapped in an Excel text formula. CleanCell
// strips those artifacts; the Parse* helpers then apply strict numeric rules
// (no currency symbols or thousands separators, finite values only).

import (
	"math"
	"net/url"
	"strconv"
	"strings"
)

// CleanCell removes common export artifacts from a cell value:
//   - surrounding whitespace
//   - Excel text-formula wrapper (="value"); other formulas are left alone
//   - double quotes anywhere in the cell
func CleanCell(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") && len(s) >= 3 {
		s = s[2 : len(s)-1]
	}

	s = strings.ReplaceAll(s, `"`, "")
	return strings.TrimSpace(s)
}

// NormalizeHeader folds a column header to its matching key: lowercase with
// spaces, underscores and hyphens removed. "Item Name", "item_name" and
// "itemName" all normalize to "itemname".
func NormalizeHeader(s string) string {
	s = strings.ToLower(CleanCell(s))
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '_', '-', '\t':
			return -1
		}
		return r
	}, s)
}

// ParseNumber parses a decimal number. Leading and trailing spaces are
// ignored; NaN and infinities are rejected.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// ParseCount parses a whole, non-negative quantity such as a stock count.
// "12" and "12.0" are accepted, "12.5" and "-1" are not.
func ParseCount(s string) (int, bool) {
	f, ok := ParseNumber(s)
	if !ok || f < 0 || f != math.Trunc(f) || f > math.MaxInt32 {
		return 0, false
	}
	return int(f), true
}

// IsValidURL reports whether s is an absolute URL: a scheme plus either a
// host (https://example.com/x) or an opaque part (mailto:sales@example.com).
// file URLs need only a path (file:///srv/datasheets/x.pdf).
func IsValidURL(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" || strings.ContainsAny(s, " \t\n") {
		return false
	}
	u, err := url.Parse(s)
	if err != nil || u.Scheme == "" {
		return false
	}
	if u.Scheme == "file" {
		return u.Path != "" || u.Host != ""
	}
	return u.Host != "" || u.Opaque != ""
}

// isBlankRow reports whether every cell in the row is empty after cleaning.
func isBlankRow(row []string) bool {
	for _, cell := range row {
		if CleanCell(cell) != "" {
			return false
		}
	}
	return true
}

// isEmptyLine reports whether a CSV record came from a line holding nothing
// but whitespace.
func isEmptyLine(rec []string) bool {
	return len(rec) == 0 || (len(rec) == 1 && strings.TrimSpace(rec[0]) == "")
}

// formatNumber renders a float without trailing zeros for messages and exports.
func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
