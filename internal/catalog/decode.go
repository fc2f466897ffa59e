package catalog

// decode.go reconstructs import rows from a spreadsheet grid. Row-level
// problems never abort the batch: each produces a RowError and processing
// moves on. Only a structurally unusable grid (no rows, or a header missing
// the required columns) is a hard error.
//
// Error handling per row falls into three tiers:
//   - skip: no usable identity (neither ID nor Title), malformed ID
//   - degrade: bad sort order, incomplete rule triple, smart row with zero
//     valid rules (demoted to manual); the row still imports
//   - field: a single cell fails its type's validation; that field clears,
//     the rest of the row is unaffected

import (
	"fmt"
	"regexp"
	"strings"
)

// collectionGIDPattern is the stable-ID format for collection rows.
var collectionGIDPattern = regexp.MustCompile(`^gid://shopify/Collection/\d+$`)

// DefaultNamespace is assumed for metafield keys not present in the
// discovered schema.
const DefaultNamespace = "custom"

// Decode parses a grid against the discovered field schema. knownFields maps
// metafield key to its definition; header columns outside the fixed set with
// no definition are imported as single-line text in the default namespace.
func Decode(grid [][]string, knownFields map[string]FieldDefinition) ([]ImportRow, []RowError, error) {
	if len(grid) == 0 {
		return nil, nil, fmt.Errorf("worksheet is empty")
	}

	header := grid[0]
	idx := MakeHeaderIndex(header)
	if !idx.Has(HeaderTitle) {
		return nil, nil, fmt.Errorf("header row is missing the %q column", HeaderTitle)
	}

	fieldCols := fieldColumns(header)

	var rows []ImportRow
	var errs []RowError

	for i, raw := range grid[1:] {
		line := i + 2 // 1-based, after the header row

		if isEmptyRow(raw) {
			continue
		}

		row, rowErrs, ok := decodeRow(line, raw, idx, fieldCols, knownFields)
		errs = append(errs, rowErrs...)
		if ok {
			rows = append(rows, row)
		}
	}

	return rows, errs, nil
}

// fieldColumn is a header column treated as a metafield key.
type fieldColumn struct {
	pos int
	key string
}

// fieldColumns returns the header columns that are neither core columns nor
// rule-triple columns. Keys keep their original case.
func fieldColumns(header []string) []fieldColumn {
	core := make(map[string]struct{}, len(coreHeaders))
	for _, h := range coreHeaders {
		core[strings.ToLower(h)] = struct{}{}
	}
	rulePattern := regexp.MustCompile(`^rule \d+ - (column|relation|condition)$`)

	var cols []fieldColumn
	for pos, h := range header {
		name := CleanCell(h)
		if name == "" {
			continue
		}
		lower := strings.ToLower(name)
		if _, isCore := core[lower]; isCore {
			continue
		}
		if rulePattern.MatchString(lower) {
			continue
		}
		cols = append(cols, fieldColumn{pos: pos, key: name})
	}
	return cols
}

func decodeRow(line int, raw []string, idx HeaderIndex, fieldCols []fieldColumn, knownFields map[string]FieldDefinition) (ImportRow, []RowError, bool) {
	var errs []RowError
	fail := func(format string, args ...any) {
		errs = append(errs, RowError{Row: line, Message: fmt.Sprintf(format, args...)})
	}

	id := idx.Cell(raw, HeaderID)
	title := idx.Cell(raw, HeaderTitle)

	if id == "" && title == "" {
		fail("title empty for new record and ID missing")
		return ImportRow{}, errs, false
	}
	if id != "" && !collectionGIDPattern.MatchString(id) {
		fail("ID %q is not a collection ID (expected gid://shopify/Collection/<number>)", id)
		return ImportRow{}, errs, false
	}

	c := Collection{
		ID:              id,
		Title:           title,
		DescriptionHTML: idx.Cell(raw, HeaderDescription),
		TemplateSuffix:  idx.Cell(raw, HeaderTemplateSuffix),
	}

	if so := idx.Cell(raw, HeaderSortOrder); so != "" {
		normalized := strings.ToUpper(strings.TrimSpace(so))
		if order, ok := sortOrders[normalized]; ok {
			c.SortOrder = order
		} else {
			fail("unrecognized sort order %q, leaving unset", so)
		}
	}

	kind := strings.ToLower(idx.Cell(raw, HeaderType))
	if kind == "smart" || kind == "rule-based" {
		ruleSet, ruleErrs := decodeRules(line, raw, idx)
		errs = append(errs, ruleErrs...)
		if ruleSet == nil {
			fail("no valid rules for smart collection, importing as manual")
		} else {
			c.RuleSet = ruleSet
		}
	}

	fields := make(map[FieldKey]PendingField, len(fieldCols))
	for _, col := range fieldCols {
		def, known := knownFields[col.key]
		if !known {
			def = FieldDefinition{
				Namespace: DefaultNamespace,
				Key:       col.key,
				Type:      DefaultFieldType,
				TypeName:  DefaultFieldType.String(),
			}
		}

		cell := ""
		if col.pos < len(raw) {
			cell = CleanCell(raw[col.pos])
		}

		value, err := ConvertValue(def.Type, cell)
		if err != nil {
			fail("field %q: %v", col.key, err)
		}

		fields[FieldKey{Namespace: def.Namespace, Key: def.Key}] = PendingField{
			Definition: def,
			Value:      value,
		}
	}

	return ImportRow{Line: line, Collection: c, Fields: fields}, errs, true
}

// decodeRules scans sequential "Rule i - Column/Relation/Condition" triples
// starting at i=1 until a missing header ends the scan. A triple counts only
// when all three parts are non-empty; a partial triple degrades with a
// diagnostic. Returns nil when no valid rules remain.
func decodeRules(line int, raw []string, idx HeaderIndex) (*RuleSet, []RowError) {
	var errs []RowError
	var rules []SelectionRule

	for i := 1; ; i++ {
		colHdr := RuleHeader(i, "Column")
		relHdr := RuleHeader(i, "Relation")
		condHdr := RuleHeader(i, "Condition")
		if !idx.Has(colHdr) || !idx.Has(relHdr) || !idx.Has(condHdr) {
			break
		}

		col := idx.Cell(raw, colHdr)
		rel := idx.Cell(raw, relHdr)
		cond := idx.Cell(raw, condHdr)

		if col == "" && rel == "" && cond == "" {
			continue // padding from a record with fewer rules
		}
		if col == "" || rel == "" || cond == "" {
			errs = append(errs, RowError{
				Row:     line,
				Message: fmt.Sprintf("rule %d is incomplete (column, relation, and condition are all required), skipping it", i),
			})
			continue
		}

		rules = append(rules, SelectionRule{
			Column:    strings.ToUpper(col),
			Relation:  strings.ToUpper(rel),
			Condition: cond,
		})
	}

	if len(rules) == 0 {
		return nil, errs
	}

	match := strings.ToLower(idx.Cell(raw, HeaderMatch))
	return &RuleSet{
		AppliedDisjunctively: match == "any",
		Rules:                rules,
	}, errs
}
