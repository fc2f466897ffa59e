package catalog

// fieldtype.go defines the closed set of metafield value types the pipeline
// understands. Shopify reports a type as a wire string ("number_integer",
// "list.collection_reference", ...); parsing it once into a FieldType lets
// the rest of the code switch exhaustively instead of re-inspecting strings.

import "strings"

// BaseType is the element type of a metafield, ignoring list-ness.
type BaseType int

const (
	BaseSingleLineText BaseType = iota
	BaseMultiLineText
	BaseRichText
	BaseInteger
	BaseDecimal
	BaseBoolean
	BaseJSON
	BaseDate
	BaseDateTime
	BaseMoney
	BaseURL
	BaseColor
	BaseRating
	BaseDimension
	BaseVolume
	BaseWeight
	BaseProductReference
	BaseVariantReference
	BaseCollectionReference
	BaseFileReference
	BasePageReference
	BaseCustomerReference
	BaseCompanyReference
	BaseMetaobjectReference
	BaseMixedReference
)

// FieldType is a metafield value type: a base type plus whether values are
// JSON-array lists of that base type.
type FieldType struct {
	Base BaseType
	List bool
}

var baseTypeNames = map[BaseType]string{
	BaseSingleLineText:      "single_line_text_field",
	BaseMultiLineText:       "multi_line_text_field",
	BaseRichText:            "rich_text_field",
	BaseInteger:             "number_integer",
	BaseDecimal:             "number_decimal",
	BaseBoolean:             "boolean",
	BaseJSON:                "json",
	BaseDate:                "date",
	BaseDateTime:            "date_time",
	BaseMoney:               "money",
	BaseURL:                 "url",
	BaseColor:               "color",
	BaseRating:              "rating",
	BaseDimension:           "dimension",
	BaseVolume:              "volume",
	BaseWeight:              "weight",
	BaseProductReference:    "product_reference",
	BaseVariantReference:    "variant_reference",
	BaseCollectionReference: "collection_reference",
	BaseFileReference:       "file_reference",
	BasePageReference:       "page_reference",
	BaseCustomerReference:   "customer_reference",
	BaseCompanyReference:    "company_reference",
	BaseMetaobjectReference: "metaobject_reference",
	BaseMixedReference:      "mixed_reference",
}

var baseTypesByName = func() map[string]BaseType {
	m := make(map[string]BaseType, len(baseTypeNames))
	for bt, name := range baseTypeNames {
		m[name] = bt
	}
	return m
}()

// gidPrefixes maps reference base types to the GID prefix their values must
// carry. Mixed references accept any Shopify GID.
var gidPrefixes = map[BaseType]string{
	BaseProductReference:    "gid://shopify/Product/",
	BaseVariantReference:    "gid://shopify/ProductVariant/",
	BaseCollectionReference: "gid://shopify/Collection/",
	BaseFileReference:       "gid://shopify/MediaImage/",
	BasePageReference:       "gid://shopify/Page/",
	BaseCustomerReference:   "gid://shopify/Customer/",
	BaseCompanyReference:    "gid://shopify/Company/",
	BaseMetaobjectReference: "gid://shopify/Metaobject/",
	BaseMixedReference:      "gid://shopify/",
}

// DefaultFieldType is assumed for columns whose key is not in the discovered
// schema. Imports may introduce new keys; they start life as plain text.
var DefaultFieldType = FieldType{Base: BaseSingleLineText}

// ParseFieldType converts a Shopify metafield type string into a FieldType.
// Unrecognized strings fall back to single-line text so an import with a new
// or future type still round-trips the raw value.
func ParseFieldType(s string) FieldType {
	s = strings.TrimSpace(strings.ToLower(s))
	ft := FieldType{}
	if rest, ok := strings.CutPrefix(s, "list."); ok {
		ft.List = true
		s = rest
	}
	bt, ok := baseTypesByName[s]
	if !ok {
		return FieldType{Base: BaseSingleLineText, List: ft.List}
	}
	ft.Base = bt
	return ft
}

// String returns the Shopify wire name for the type.
func (ft FieldType) String() string {
	name, ok := baseTypeNames[ft.Base]
	if !ok {
		name = baseTypeNames[BaseSingleLineText]
	}
	if ft.List {
		return "list." + name
	}
	return name
}

// IsReference reports whether values of this type are GID references.
func (ft FieldType) IsReference() bool {
	_, ok := gidPrefixes[ft.Base]
	return ok
}

// GIDPrefix returns the required GID prefix for reference types, or "" for
// non-reference types.
func (ft FieldType) GIDPrefix() string {
	return gidPrefixes[ft.Base]
}

// jsonGated reports whether the type's values must already be valid JSON
// text (compound measurement types and raw JSON are passed through, never
// synthesized from plain text).
func (ft FieldType) jsonGated() bool {
	switch ft.Base {
	case BaseJSON, BaseMoney, BaseRating, BaseDimension, BaseVolume, BaseWeight:
		return true
	}
	return false
}
