package shopify

// definitions.go implements schema discovery: paginated listing of metafield
// definitions for an owner kind.

import (
	"context"

	"github.com/merchantops/catalog-admin/internal/catalog"
)

const definitionsQuery = `
query MetafieldDefinitions($ownerType: MetafieldOwnerType!, $first: Int!, $after: String) {
  metafieldDefinitions(ownerType: $ownerType, first: $first, after: $after) {
    pageInfo { hasNextPage endCursor }
    nodes {
      id
      name
      namespace
      key
      type { name }
    }
  }
}`

// definitionsPageSize is the page size for definition listing. Shops rarely
// have more than a few dozen definitions per owner kind.
const definitionsPageSize = 100

// ListFieldDefinitions fetches one page of metafield definitions for the
// given owner kind. Implements catalog.DefinitionLister.
func (c *Client) ListFieldDefinitions(ctx context.Context, ownerKind, cursor string) (catalog.DefinitionPage, error) {
	vars := map[string]any{
		"ownerType": ownerKind,
		"first":     definitionsPageSize,
	}
	if cursor != "" {
		vars["after"] = cursor
	}

	var payload struct {
		MetafieldDefinitions struct {
			PageInfo pageInfo `json:"pageInfo"`
			Nodes    []struct {
				ID        string `json:"id"`
				Name      string `json:"name"`
				Namespace string `json:"namespace"`
				Key       string `json:"key"`
				Type      struct {
					Name string `json:"name"`
				} `json:"type"`
			} `json:"nodes"`
		} `json:"metafieldDefinitions"`
	}

	if err := c.execute(ctx, definitionsQuery, vars, &payload); err != nil {
		return catalog.DefinitionPage{}, err
	}

	conn := payload.MetafieldDefinitions
	page := catalog.DefinitionPage{
		EndCursor:   conn.PageInfo.EndCursor,
		HasNextPage: conn.PageInfo.HasNextPage,
	}
	for _, node := range conn.Nodes {
		ft := catalog.ParseFieldType(node.Type.Name)
		page.Definitions = append(page.Definitions, catalog.FieldDefinition{
			ID:        node.ID,
			Name:      node.Name,
			Namespace: node.Namespace,
			Key:       node.Key,
			Type:      ft,
			TypeName:  ft.String(),
		})
	}

	return page, nil
}
