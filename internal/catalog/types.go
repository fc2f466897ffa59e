// Package catalog implements the spreadsheet sync pipeline for Shopify
// collections and their metafields: schema discovery, tabular encode/export,
// tabular decode/import with per-row diagnostics, and reconciliation against
// the Admin API. This package has no HTTP or database dependencies and is
// exercised by the web layer.
package catalog

import (
	"encoding/json"
	"time"
)

// SortOrder is a collection's sort order mode as Shopify names it.
type SortOrder string

const (
	SortAlphaAsc    SortOrder = "ALPHA_ASC"
	SortAlphaDesc   SortOrder = "ALPHA_DESC"
	SortBestSelling SortOrder = "BEST_SELLING"
	SortCreated     SortOrder = "CREATED"
	SortCreatedDesc SortOrder = "CREATED_DESC"
	SortManual      SortOrder = "MANUAL"
	SortPriceAsc    SortOrder = "PRICE_ASC"
	SortPriceDesc   SortOrder = "PRICE_DESC"
)

var sortOrders = map[string]SortOrder{
	"ALPHA_ASC":    SortAlphaAsc,
	"ALPHA_DESC":   SortAlphaDesc,
	"BEST_SELLING": SortBestSelling,
	"CREATED":      SortCreated,
	"CREATED_DESC": SortCreatedDesc,
	"MANUAL":       SortManual,
	"PRICE_ASC":    SortPriceAsc,
	"PRICE_DESC":   SortPriceDesc,
}

// SelectionRule is one membership rule of a smart collection.
// ConditionObjectID is set when the rule matches on a metafield definition
// rather than a fixed product column; it never appears in the spreadsheet.
type SelectionRule struct {
	Column            string `json:"column"`
	Relation          string `json:"relation"`
	Condition         string `json:"condition"`
	ConditionObjectID string `json:"conditionObjectId,omitempty"`
}

// RuleSet holds a smart collection's rules. AppliedDisjunctively true means
// the rules are OR-combined ("Any"), false means AND ("All").
type RuleSet struct {
	AppliedDisjunctively bool            `json:"appliedDisjunctively"`
	Rules                []SelectionRule `json:"rules"`
}

// Collection is the core catalog record. ID is empty for records that do not
// exist yet; RuleSet is nil for manual collections.
type Collection struct {
	ID              string    `json:"id,omitempty"`
	Title           string    `json:"title"`
	DescriptionHTML string    `json:"descriptionHtml,omitempty"`
	SortOrder       SortOrder `json:"sortOrder,omitempty"`
	TemplateSuffix  string    `json:"templateSuffix,omitempty"`
	RuleSet         *RuleSet  `json:"ruleSet,omitempty"`
}

// IsSmart reports whether the collection is rule-based.
func (c Collection) IsSmart() bool {
	return c.RuleSet != nil && len(c.RuleSet.Rules) > 0
}

// FieldDefinition describes one metafield attachable to an owner kind.
type FieldDefinition struct {
	ID        string    `json:"id,omitempty"`
	Name      string    `json:"name,omitempty"`
	Namespace string    `json:"namespace"`
	Key       string    `json:"key"`
	Type      FieldType `json:"-"`

	// TypeName mirrors Type for JSON consumers.
	TypeName string `json:"type"`
}

// FieldKey identifies a metafield within an owner: namespace plus key.
type FieldKey struct {
	Namespace string
	Key       string
}

// valueKind discriminates the FieldValue union.
type valueKind int

const (
	kindNull valueKind = iota
	kindScalar
	kindList
)

// FieldValue is the tagged union of decoded metafield values:
// a scalar wire string, a list of GID strings, or null (clear the field).
// The zero value is null.
type FieldValue struct {
	kind   valueKind
	scalar string
	list   []string
}

// ScalarValue wraps a scalar wire string (numbers, text, JSON, dates, GIDs).
func ScalarValue(s string) FieldValue { return FieldValue{kind: kindScalar, scalar: s} }

// ListValue wraps a list of reference GIDs.
func ListValue(ids []string) FieldValue { return FieldValue{kind: kindList, list: ids} }

// NullValue means the field should be cleared on apply.
func NullValue() FieldValue { return FieldValue{kind: kindNull} }

// IsNull reports whether the value clears the field.
func (v FieldValue) IsNull() bool { return v.kind == kindNull }

// Wire returns the string to send to the API and false when the value is
// null. Lists marshal to a JSON array.
func (v FieldValue) Wire() (string, bool) {
	switch v.kind {
	case kindScalar:
		return v.scalar, true
	case kindList:
		b, err := json.Marshal(v.list)
		if err != nil {
			return "", false
		}
		return string(b), true
	default:
		return "", false
	}
}

// PendingField is one metafield value waiting to be applied to a row's
// collection.
type PendingField struct {
	Definition FieldDefinition
	Value      FieldValue
}

// ImportRow is the decoded form of one spreadsheet data row.
type ImportRow struct {
	Line       int // 1-based spreadsheet line, for diagnostics
	Collection Collection
	Fields     map[FieldKey]PendingField
}

// RowError is a per-row diagnostic. Rows with errors may still have been
// partially applied (e.g. record updated, one field failed).
type RowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// Summary aggregates apply counts across all rows of one import.
type Summary struct {
	Created   int `json:"created"`
	Updated   int `json:"updated"`
	FieldsSet int `json:"fieldsSet"`
}

// ImportReport is the complete result of one import run. Success is true
// iff no row produced an error; partial failures still yield a full report.
type ImportReport struct {
	RunID    string        `json:"runId"`
	FileName string        `json:"fileName,omitempty"`
	Success  bool          `json:"success"`
	Summary  Summary       `json:"summary"`
	Rows     int           `json:"rows"`
	Errors   []RowError    `json:"errors"`
	Duration time.Duration `json:"-"`

	DurationMS int64 `json:"durationMs"`
}

// ExportField is one metafield value attached to an exported collection.
// Value is the raw wire value; DisplayValue, when set, is a human-readable
// rendering used for non-reference scalar columns.
type ExportField struct {
	Definition   FieldDefinition
	Value        string
	DisplayValue string
}

// ExportRecord pairs a collection with its populated metafields for export.
type ExportRecord struct {
	Collection Collection
	Fields     []ExportField
}
