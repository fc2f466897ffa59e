package catalog

// encode.go renders collections plus their metafields as a spreadsheet grid.
// The column set is derived from the records themselves, not from the
// discovered schema, so an export only carries fields actually populated
// somewhere. Reference and list values are exported raw (GIDs, JSON arrays)
// so the file round-trips losslessly through decode.

import "sort"

// Encode produces a grid: one header row followed by one data row per record.
// Column order is fixed core columns, then 3*maxRules rule columns, then the
// distinct metafield keys sorted ascending.
func Encode(records []ExportRecord) [][]string {
	fieldKeys := collectFieldKeys(records)
	maxRules := maxRuleCount(records)

	header := make([]string, 0, len(coreHeaders)+3*maxRules+len(fieldKeys))
	header = append(header, coreHeaders...)
	for i := 1; i <= maxRules; i++ {
		header = append(header,
			RuleHeader(i, "Column"),
			RuleHeader(i, "Relation"),
			RuleHeader(i, "Condition"),
		)
	}
	header = append(header, fieldKeys...)

	grid := make([][]string, 0, len(records)+1)
	grid = append(grid, header)

	for _, rec := range records {
		grid = append(grid, encodeRecord(rec, fieldKeys, maxRules))
	}

	return grid
}

func encodeRecord(rec ExportRecord, fieldKeys []string, maxRules int) []string {
	c := rec.Collection

	kind := "manual"
	match := ""
	if c.IsSmart() {
		kind = "smart"
		if c.RuleSet.AppliedDisjunctively {
			match = "Any"
		} else {
			match = "All"
		}
	}

	row := make([]string, 0, len(coreHeaders)+3*maxRules+len(fieldKeys))
	row = append(row,
		c.ID,
		c.Title,
		c.DescriptionHTML,
		string(c.SortOrder),
		c.TemplateSuffix,
		kind,
		match,
	)

	for i := 0; i < maxRules; i++ {
		if c.RuleSet != nil && i < len(c.RuleSet.Rules) {
			r := c.RuleSet.Rules[i]
			row = append(row, r.Column, r.Relation, r.Condition)
		} else {
			row = append(row, "", "", "")
		}
	}

	byKey := make(map[string]ExportField, len(rec.Fields))
	for _, f := range rec.Fields {
		if _, seen := byKey[f.Definition.Key]; !seen {
			byKey[f.Definition.Key] = f
		}
	}

	for _, key := range fieldKeys {
		f, ok := byKey[key]
		if !ok {
			row = append(row, "")
			continue
		}
		if f.Definition.Type.List || f.Definition.Type.IsReference() {
			// Raw wire value only; a resolved display label would not
			// survive re-import.
			row = append(row, f.Value)
		} else if f.DisplayValue != "" {
			row = append(row, f.DisplayValue)
		} else {
			row = append(row, f.Value)
		}
	}

	return row
}

// collectFieldKeys returns the distinct metafield keys observed across all
// records, sorted ascending for a deterministic column order.
func collectFieldKeys(records []ExportRecord) []string {
	seen := make(map[string]struct{})
	for _, rec := range records {
		for _, f := range rec.Fields {
			seen[f.Definition.Key] = struct{}{}
		}
	}

	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func maxRuleCount(records []ExportRecord) int {
	max := 0
	for _, rec := range records {
		if rec.Collection.RuleSet != nil && len(rec.Collection.RuleSet.Rules) > max {
			max = len(rec.Collection.RuleSet.Rules)
		}
	}
	return max
}
