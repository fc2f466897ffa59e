package shopify

// collections.go covers the collection operations: create-or-update
// mutations and the paginated export listing with populated metafields.

import (
	"context"
	"fmt"

	"github.com/merchantops/catalog-admin/internal/catalog"
)

const collectionCreateMutation = `
mutation CollectionCreate($input: CollectionInput!) {
  collectionCreate(input: $input) {
    collection { id }
    userErrors { field message }
  }
}`

const collectionUpdateMutation = `
mutation CollectionUpdate($input: CollectionInput!) {
  collectionUpdate(input: $input) {
    collection { id }
    userErrors { field message }
  }
}`

const collectionsQuery = `
query Collections($first: Int!, $after: String) {
  collections(first: $first, after: $after) {
    pageInfo { hasNextPage endCursor }
    nodes {
      id
      title
      descriptionHtml
      sortOrder
      templateSuffix
      ruleSet {
        appliedDisjunctively
        rules { column relation condition conditionObjectId }
      }
      metafields(first: 250) {
        nodes {
          namespace
          key
          type
          value
        }
      }
    }
  }
}`

// collectionsPageSize bounds each export page. Metafields are fetched inline
// at up to 250 per collection, which covers every shop we have seen.
const collectionsPageSize = 50

type collectionPayload struct {
	Collection *struct {
		ID string `json:"id"`
	} `json:"collection"`
	UserErrors []userError `json:"userErrors"`
}

// collectionInput builds the CollectionInput variable from a catalog record.
func collectionInput(c catalog.Collection) map[string]any {
	input := map[string]any{
		"title": c.Title,
	}
	if c.ID != "" {
		input["id"] = c.ID
	}
	if c.DescriptionHTML != "" {
		input["descriptionHtml"] = c.DescriptionHTML
	}
	if c.SortOrder != "" {
		input["sortOrder"] = string(c.SortOrder)
	}
	if c.TemplateSuffix != "" {
		input["templateSuffix"] = c.TemplateSuffix
	}
	if c.RuleSet != nil {
		rules := make([]map[string]any, 0, len(c.RuleSet.Rules))
		for _, r := range c.RuleSet.Rules {
			rule := map[string]any{
				"column":    r.Column,
				"relation":  r.Relation,
				"condition": r.Condition,
			}
			if r.ConditionObjectID != "" {
				rule["conditionObjectId"] = r.ConditionObjectID
			}
			rules = append(rules, rule)
		}
		input["ruleSet"] = map[string]any{
			"appliedDisjunctively": c.RuleSet.AppliedDisjunctively,
			"rules":                rules,
		}
	}
	return input
}

// CreateCollection creates a collection and returns its new ID.
// Implements part of catalog.RecordWriter.
func (c *Client) CreateCollection(ctx context.Context, col catalog.Collection) (string, []string, error) {
	var payload struct {
		CollectionCreate collectionPayload `json:"collectionCreate"`
	}
	err := c.execute(ctx, collectionCreateMutation, map[string]any{"input": collectionInput(col)}, &payload)
	if err != nil {
		return "", nil, err
	}

	result := payload.CollectionCreate
	if msgs := userErrorMessages(result.UserErrors); len(msgs) > 0 {
		return "", msgs, nil
	}
	if result.Collection == nil || result.Collection.ID == "" {
		return "", nil, fmt.Errorf("collectionCreate returned no collection ID")
	}
	return result.Collection.ID, nil, nil
}

// UpdateCollection updates an existing collection by ID.
func (c *Client) UpdateCollection(ctx context.Context, col catalog.Collection) ([]string, error) {
	var payload struct {
		CollectionUpdate collectionPayload `json:"collectionUpdate"`
	}
	err := c.execute(ctx, collectionUpdateMutation, map[string]any{"input": collectionInput(col)}, &payload)
	if err != nil {
		return nil, err
	}
	return userErrorMessages(payload.CollectionUpdate.UserErrors), nil
}

// ListCollections fetches one page of collections with their metafields,
// shaped for the export encoder. Implements part of catalog.API.
func (c *Client) ListCollections(ctx context.Context, cursor string) (catalog.CollectionPage, error) {
	vars := map[string]any{"first": collectionsPageSize}
	if cursor != "" {
		vars["after"] = cursor
	}

	var payload struct {
		Collections struct {
			PageInfo pageInfo `json:"pageInfo"`
			Nodes    []struct {
				ID              string `json:"id"`
				Title           string `json:"title"`
				DescriptionHTML string `json:"descriptionHtml"`
				SortOrder       string `json:"sortOrder"`
				TemplateSuffix  string `json:"templateSuffix"`
				RuleSet         *struct {
					AppliedDisjunctively bool `json:"appliedDisjunctively"`
					Rules                []struct {
						Column            string `json:"column"`
						Relation          string `json:"relation"`
						Condition         string `json:"condition"`
						ConditionObjectID string `json:"conditionObjectId"`
					} `json:"rules"`
				} `json:"ruleSet"`
				Metafields struct {
					Nodes []struct {
						Namespace string `json:"namespace"`
						Key       string `json:"key"`
						Type      string `json:"type"`
						Value     string `json:"value"`
					} `json:"nodes"`
				} `json:"metafields"`
			} `json:"nodes"`
		} `json:"collections"`
	}

	if err := c.execute(ctx, collectionsQuery, vars, &payload); err != nil {
		return catalog.CollectionPage{}, err
	}

	conn := payload.Collections
	page := catalog.CollectionPage{
		EndCursor:   conn.PageInfo.EndCursor,
		HasNextPage: conn.PageInfo.HasNextPage,
	}

	for _, node := range conn.Nodes {
		col := catalog.Collection{
			ID:              node.ID,
			Title:           node.Title,
			DescriptionHTML: node.DescriptionHTML,
			SortOrder:       catalog.SortOrder(node.SortOrder),
			TemplateSuffix:  node.TemplateSuffix,
		}
		if node.RuleSet != nil && len(node.RuleSet.Rules) > 0 {
			rs := &catalog.RuleSet{AppliedDisjunctively: node.RuleSet.AppliedDisjunctively}
			for _, r := range node.RuleSet.Rules {
				rs.Rules = append(rs.Rules, catalog.SelectionRule{
					Column:            r.Column,
					Relation:          r.Relation,
					Condition:         r.Condition,
					ConditionObjectID: r.ConditionObjectID,
				})
			}
			col.RuleSet = rs
		}

		rec := catalog.ExportRecord{Collection: col}
		for _, mf := range node.Metafields.Nodes {
			ft := catalog.ParseFieldType(mf.Type)
			rec.Fields = append(rec.Fields, catalog.ExportField{
				Definition: catalog.FieldDefinition{
					Namespace: mf.Namespace,
					Key:       mf.Key,
					Type:      ft,
					TypeName:  ft.String(),
				},
				Value: mf.Value,
			})
		}
		page.Records = append(page.Records, rec)
	}

	return page, nil
}
