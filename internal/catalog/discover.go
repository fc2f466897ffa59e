package catalog

// discover.go enumerates the metafield definitions currently attached to an
// owner kind. Discovery runs once per import/export operation; without it no
// cell can be converted, so any page failure is a hard error rather than a
// silently partial schema.

import (
	"context"
	"fmt"
)

// DefinitionPage is one page of metafield definitions.
type DefinitionPage struct {
	Definitions []FieldDefinition
	EndCursor   string
	HasNextPage bool
}

// DefinitionLister fetches pages of metafield definitions for an owner kind
// (e.g. "COLLECTION", "PRODUCT"). cursor is empty for the first page.
type DefinitionLister interface {
	ListFieldDefinitions(ctx context.Context, ownerKind, cursor string) (DefinitionPage, error)
}

// DiscoverFields pages through every metafield definition for ownerKind.
// When the same key appears twice, the first (type, namespace) pair seen
// wins; later duplicates are dropped, not merged. Order is first-seen.
func DiscoverFields(ctx context.Context, lister DefinitionLister, ownerKind string) ([]FieldDefinition, error) {
	var defs []FieldDefinition
	seen := make(map[string]struct{})

	cursor := ""
	for {
		page, err := lister.ListFieldDefinitions(ctx, ownerKind, cursor)
		if err != nil {
			return nil, fmt.Errorf("list field definitions for %s: %w", ownerKind, err)
		}

		for _, def := range page.Definitions {
			if _, dup := seen[def.Key]; dup {
				continue
			}
			seen[def.Key] = struct{}{}
			defs = append(defs, def)
		}

		if !page.HasNextPage {
			return defs, nil
		}
		cursor = page.EndCursor
	}
}

// FieldMap indexes definitions by key for decode lookups.
func FieldMap(defs []FieldDefinition) map[string]FieldDefinition {
	m := make(map[string]FieldDefinition, len(defs))
	for _, def := range defs {
		if _, dup := m[def.Key]; !dup {
			m[def.Key] = def
		}
	}
	return m
}
