package catalog

// convert.go implements the type-directed conversion from spreadsheet cell
// text to metafield wire values. Every declared type gets its own path; a
// value that fails its type's validation converts to null (clear) plus an
// error the caller records as a row diagnostic.
//
// Cells hold whatever users and spreadsheet programs produce:
//   - numbers with stray formatting
//   - Excel date serials instead of date strings
//   - a bare GID where a JSON array of GIDs is expected
//   - plain prose in a rich-text column

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// excelEpochOffsetDays is the day count between the spreadsheet serial epoch
// (1899-12-30, including the 1900 leap-year bug) and the Unix epoch.
// Serial 25569 is exactly 1970-01-01.
const excelEpochOffsetDays = 25569

const secondsPerDay = 86400

// Text date layouts accepted on import, tried in order.
var dateLayouts = []string{
	"2006-01-02", "2006/01/02", "01/02/2006", "1/2/2006",
	"01-02-2006", "Jan 2, 2006", "2 Jan 2006",
}

var dateTimeLayouts = []string{
	time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05",
	"2006-01-02 15:04", "2006-01-02",
}

// ConvertValue converts one cell to the wire value for the given field type.
// An empty cell converts to null for every type except boolean, which
// defaults to false. A non-empty cell that fails validation converts to null
// and returns a non-nil error describing the problem; the caller records it
// and the field is cleared rather than silently kept.
func ConvertValue(ft FieldType, cell string) (FieldValue, error) {
	cell = strings.TrimSpace(cell)

	if ft.List {
		return convertList(ft, cell)
	}

	if cell == "" {
		if ft.Base == BaseBoolean {
			return ScalarValue("false"), nil
		}
		return NullValue(), nil
	}

	switch {
	case ft.Base == BaseInteger:
		return convertInteger(cell)
	case ft.Base == BaseDecimal:
		return convertDecimal(cell)
	case ft.Base == BaseBoolean:
		return ScalarValue(strconv.FormatBool(parseBool(cell))), nil
	case ft.jsonGated():
		if !json.Valid([]byte(cell)) {
			return NullValue(), fmt.Errorf("%s value is not valid JSON", ft)
		}
		return ScalarValue(cell), nil
	case ft.Base == BaseRichText:
		return convertRichText(cell), nil
	case ft.Base == BaseDate:
		return convertDate(cell)
	case ft.Base == BaseDateTime:
		return convertDateTime(cell)
	case ft.Base == BaseURL:
		return convertURL(cell)
	case ft.IsReference():
		if !strings.HasPrefix(cell, ft.GIDPrefix()) {
			return NullValue(), fmt.Errorf("expected an ID starting with %q, got %q", ft.GIDPrefix(), cell)
		}
		return ScalarValue(cell), nil
	default:
		// Plain text types (single/multi-line, color, handles): pass through.
		return ScalarValue(cell), nil
	}
}

// convertList handles list-typed cells. Reference lists accept a JSON array
// of GIDs or a single bare GID (auto-wrapped). Non-reference lists must
// already be a JSON array, exactly as exported.
func convertList(ft FieldType, cell string) (FieldValue, error) {
	if cell == "" {
		return NullValue(), nil
	}

	if !ft.IsReference() {
		var arr []json.RawMessage
		if err := json.Unmarshal([]byte(cell), &arr); err != nil {
			return NullValue(), fmt.Errorf("%s value is not a JSON array", ft)
		}
		return ScalarValue(cell), nil
	}

	prefix := ft.GIDPrefix()

	if strings.HasPrefix(cell, "[") {
		var ids []string
		if err := json.Unmarshal([]byte(cell), &ids); err != nil {
			return NullValue(), fmt.Errorf("%s value is not a JSON array of IDs", ft)
		}
		for _, id := range ids {
			if !strings.HasPrefix(id, prefix) {
				return NullValue(), fmt.Errorf("list entry %q does not start with %q", id, prefix)
			}
		}
		return ListValue(ids), nil
	}

	// A bare single ID is a common hand-edit; wrap it.
	if strings.HasPrefix(cell, prefix) {
		return ListValue([]string{cell}), nil
	}

	return NullValue(), fmt.Errorf("expected a JSON array of IDs starting with %q, got %q", prefix, cell)
}

func convertInteger(cell string) (FieldValue, error) {
	if n, err := strconv.ParseInt(cell, 10, 64); err == nil {
		return ScalarValue(strconv.FormatInt(n, 10)), nil
	}
	// Spreadsheets often render integers as "42.0".
	if f, err := strconv.ParseFloat(cell, 64); err == nil && f == float64(int64(f)) {
		return ScalarValue(strconv.FormatInt(int64(f), 10)), nil
	}
	return NullValue(), fmt.Errorf("not a whole number: %q", cell)
}

func convertDecimal(cell string) (FieldValue, error) {
	f, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return NullValue(), fmt.Errorf("not a number: %q", cell)
	}
	return ScalarValue(strconv.FormatFloat(f, 'f', -1, 64)), nil
}

// parseBool maps the spreadsheet boolean vocabulary. "any"/"all" come from
// the rule-match vocabulary and mean true/false respectively; anything not
// recognized as true is false.
func parseBool(cell string) bool {
	switch strings.ToLower(cell) {
	case "any":
		return true
	case "all":
		return false
	case "true", "1", "yes":
		return true
	default:
		return false
	}
}

// convertRichText passes valid JSON through unchanged (assumed to be a prior
// export) and wraps anything else as a single-paragraph rich text document.
func convertRichText(cell string) FieldValue {
	if json.Valid([]byte(cell)) {
		return ScalarValue(cell)
	}

	doc := map[string]any{
		"type": "root",
		"children": []any{
			map[string]any{
				"type": "paragraph",
				"children": []any{
					map[string]any{"type": "text", "value": cell},
				},
			},
		},
	}
	b, _ := json.Marshal(doc)
	return ScalarValue(string(b))
}

func convertDate(cell string) (FieldValue, error) {
	if t, ok := fromSerial(cell); ok {
		return ScalarValue(t.Format("2006-01-02")), nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, cell); err == nil {
			return ScalarValue(t.Format("2006-01-02")), nil
		}
	}
	return NullValue(), fmt.Errorf("unparseable date: %q", cell)
}

func convertDateTime(cell string) (FieldValue, error) {
	if t, ok := fromSerial(cell); ok {
		return ScalarValue(t.Format(time.RFC3339)), nil
	}
	for _, layout := range dateTimeLayouts {
		if t, err := time.Parse(layout, cell); err == nil {
			return ScalarValue(t.UTC().Format(time.RFC3339)), nil
		}
	}
	return NullValue(), fmt.Errorf("unparseable date-time: %q", cell)
}

// fromSerial interprets a numeric cell as a spreadsheet date serial.
// Serial 44562 is 2022-01-01.
func fromSerial(cell string) (time.Time, bool) {
	f, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return time.Time{}, false
	}
	secs := (f - excelEpochOffsetDays) * secondsPerDay
	return time.Unix(int64(secs), 0).UTC(), true
}

func convertURL(cell string) (FieldValue, error) {
	u, err := url.ParseRequestURI(cell)
	if err != nil || u.Scheme == "" {
		return NullValue(), fmt.Errorf("not a valid URL: %q", cell)
	}
	return ScalarValue(cell), nil
}
