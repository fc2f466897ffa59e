package shopify

// metafields.go covers the batched metafield write operations used by the
// apply stage: metafieldsSet for values and metafieldsDelete for clears.

import (
	"context"

	"github.com/merchantops/catalog-admin/internal/catalog"
)

const metafieldsSetMutation = `
mutation MetafieldsSet($metafields: [MetafieldsSetInput!]!) {
  metafieldsSet(metafields: $metafields) {
    metafields { id }
    userErrors { field message }
  }
}`

const metafieldsDeleteMutation = `
mutation MetafieldsDelete($metafields: [MetafieldIdentifierInput!]!) {
  metafieldsDelete(metafields: $metafields) {
    userErrors { field message }
  }
}`

// SetFieldValues writes a batch of metafield values in one mutation.
// Implements part of catalog.RecordWriter.
func (c *Client) SetFieldValues(ctx context.Context, inputs []catalog.FieldInput) ([]string, error) {
	if len(inputs) == 0 {
		return nil, nil
	}

	metafields := make([]map[string]any, 0, len(inputs))
	for _, in := range inputs {
		metafields = append(metafields, map[string]any{
			"ownerId":   in.OwnerID,
			"namespace": in.Namespace,
			"key":       in.Key,
			"type":      in.Type,
			"value":     in.Value,
		})
	}

	var payload struct {
		MetafieldsSet struct {
			UserErrors []userError `json:"userErrors"`
		} `json:"metafieldsSet"`
	}
	err := c.execute(ctx, metafieldsSetMutation, map[string]any{"metafields": metafields}, &payload)
	if err != nil {
		return nil, err
	}
	return userErrorMessages(payload.MetafieldsSet.UserErrors), nil
}

// ClearFieldValues deletes the named metafields from an owner. Clearing a
// field that was never set is not an error on the remote side.
func (c *Client) ClearFieldValues(ctx context.Context, ownerID string, keys []catalog.FieldKey) ([]string, error) {
	if len(keys) == 0 {
		return nil, nil
	}

	metafields := make([]map[string]any, 0, len(keys))
	for _, k := range keys {
		metafields = append(metafields, map[string]any{
			"ownerId":   ownerID,
			"namespace": k.Namespace,
			"key":       k.Key,
		})
	}

	var payload struct {
		MetafieldsDelete struct {
			UserErrors []userError `json:"userErrors"`
		} `json:"metafieldsDelete"`
	}
	err := c.execute(ctx, metafieldsDeleteMutation, map[string]any{"metafields": metafields}, &payload)
	if err != nil {
		return nil, err
	}
	return userErrorMessages(payload.MetafieldsDelete.UserErrors), nil
}
