package catalog

// grid.go handles the tabular file format: CSV parsing/writing, header
// indexing, and cell cleanup. The grid is the wire contract between export
// and import, so both directions share these helpers.

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Core column headers, in the fixed export order. Rule triples follow these,
// then one column per metafield key.
const (
	HeaderID             = "ID"
	HeaderTitle          = "Title"
	HeaderDescription    = "Description"
	HeaderSortOrder      = "Sort Order"
	HeaderTemplateSuffix = "Template Suffix"
	HeaderType           = "Type"
	HeaderMatch          = "Match"
)

var coreHeaders = []string{
	HeaderID, HeaderTitle, HeaderDescription, HeaderSortOrder,
	HeaderTemplateSuffix, HeaderType, HeaderMatch,
}

// HeaderIndex maps column names (lowercase) to their position in a row.
type HeaderIndex map[string]int

// MakeHeaderIndex builds a HeaderIndex from the header row. Keys are
// lowercased for case-insensitive lookup of the fixed columns.
func MakeHeaderIndex(header []string) HeaderIndex {
	idx := make(HeaderIndex, len(header))
	for i, h := range header {
		key := strings.ToLower(CleanCell(h))
		if _, seen := idx[key]; !seen {
			idx[key] = i
		}
	}
	return idx
}

// Cell returns the cleaned cell under the named column, or "" when the
// column is absent or the row is short.
func (idx HeaderIndex) Cell(row []string, name string) string {
	pos, ok := idx[strings.ToLower(name)]
	if !ok || pos >= len(row) {
		return ""
	}
	return CleanCell(row[pos])
}

// Has reports whether the named column exists in the header.
func (idx HeaderIndex) Has(name string) bool {
	_, ok := idx[strings.ToLower(name)]
	return ok
}

// CleanCell removes common spreadsheet artifacts from a cell value:
// surrounding whitespace, Excel formula prefixes (="value"), and stray
// wrapping quotes.
func CleanCell(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") {
		s = s[2 : len(s)-1]
	} else if strings.HasPrefix(s, "=") {
		s = s[1:]
	}

	return strings.Trim(s, `"'`)
}

// RuleHeader returns the header name for one part of rule triple i (1-based).
// Part is "Column", "Relation", or "Condition".
func RuleHeader(i int, part string) string {
	return fmt.Sprintf("Rule %d - %s", i, part)
}

// ParseGrid parses raw CSV bytes into rows. Field counts may vary per row;
// invalid UTF-8 is replaced rather than rejected.
func ParseGrid(data []byte) ([][]string, error) {
	data = sanitizeUTF8(data)
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	return r.ReadAll()
}

// WriteGrid renders rows as CSV bytes.
func WriteGrid(grid [][]string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(grid); err != nil {
		return nil, fmt.Errorf("write csv: %w", err)
	}
	return buf.Bytes(), nil
}

// sanitizeUTF8 replaces invalid byte sequences with the replacement rune so
// the CSV reader never chokes on a half-broken export.
func sanitizeUTF8(data []byte) []byte {
	if utf8.Valid(data) {
		return data
	}

	var buf bytes.Buffer
	buf.Grow(len(data))

	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		if r == utf8.RuneError && size == 1 {
			buf.WriteRune('�')
			data = data[1:]
		} else {
			buf.WriteRune(r)
			data = data[size:]
		}
	}

	return buf.Bytes()
}

// isEmptyRow reports whether every cell is blank.
func isEmptyRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
