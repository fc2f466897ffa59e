package catalog

// apply.go reconciles decoded rows against the remote catalog. Rows are
// independent: a transport failure or user error on one row is recorded and
// the batch continues. Within a row the record write strictly precedes the
// field writes, because metafields need a valid owning-collection ID; a
// freshly created collection's ID is captured from the create response
// before any field value is attached.

import (
	"context"
	"fmt"
	"sort"
)

// FieldInput is one entry of a batched metafield write.
type FieldInput struct {
	OwnerID   string
	Namespace string
	Key       string
	Type      string
	Value     string
}

// RecordWriter is the mutation surface of the remote catalog API.
// User errors (validation the remote rejects) come back as messages; the
// error return is reserved for transport-level failures.
type RecordWriter interface {
	CreateCollection(ctx context.Context, c Collection) (id string, userErrors []string, err error)
	UpdateCollection(ctx context.Context, c Collection) (userErrors []string, err error)
	SetFieldValues(ctx context.Context, inputs []FieldInput) (userErrors []string, err error)
	ClearFieldValues(ctx context.Context, ownerID string, keys []FieldKey) (userErrors []string, err error)
}

// Apply writes each row to the remote catalog: create-or-update the
// collection, then one batched set for its non-null field values and one
// batched clear for its nulls. Field failures never roll back the record
// step and vice versa.
func Apply(ctx context.Context, api RecordWriter, rows []ImportRow) (Summary, []RowError) {
	var summary Summary
	var errs []RowError

	for _, row := range rows {
		rowErrs := applyRow(ctx, api, row, &summary)
		errs = append(errs, rowErrs...)
	}

	return summary, errs
}

func applyRow(ctx context.Context, api RecordWriter, row ImportRow, summary *Summary) []RowError {
	var errs []RowError
	fail := func(format string, args ...any) {
		errs = append(errs, RowError{Row: row.Line, Message: fmt.Sprintf(format, args...)})
	}

	ownerID := row.Collection.ID

	if ownerID == "" {
		id, userErrs, err := api.CreateCollection(ctx, row.Collection)
		if err != nil {
			fail("create collection: %v", err)
			return errs
		}
		if len(userErrs) > 0 {
			for _, msg := range userErrs {
				fail("create collection: %s", msg)
			}
			return errs
		}
		ownerID = id
		summary.Created++
	} else {
		userErrs, err := api.UpdateCollection(ctx, row.Collection)
		if err != nil {
			fail("update collection: %v", err)
			return errs
		}
		if len(userErrs) > 0 {
			for _, msg := range userErrs {
				fail("update collection: %s", msg)
			}
			return errs
		}
		summary.Updated++
	}

	sets, clears := splitFieldBatch(ownerID, row.Fields)

	if len(sets) > 0 {
		userErrs, err := api.SetFieldValues(ctx, sets)
		if err != nil {
			fail("set field values: %v", err)
			return errs
		}
		for _, msg := range userErrs {
			fail("set field values: %s", msg)
		}
		set := len(sets) - len(userErrs)
		if set > 0 {
			summary.FieldsSet += set
		}
	}

	if len(clears) > 0 {
		userErrs, err := api.ClearFieldValues(ctx, ownerID, clears)
		if err != nil {
			fail("clear field values: %v", err)
			return errs
		}
		for _, msg := range userErrs {
			fail("clear field values: %s", msg)
		}
	}

	return errs
}

// splitFieldBatch separates a row's pending fields into wire inputs for the
// set mutation and keys for the clear mutation. Keys are sorted for
// deterministic batches.
func splitFieldBatch(ownerID string, fields map[FieldKey]PendingField) ([]FieldInput, []FieldKey) {
	keys := make([]FieldKey, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Namespace != keys[j].Namespace {
			return keys[i].Namespace < keys[j].Namespace
		}
		return keys[i].Key < keys[j].Key
	})

	var sets []FieldInput
	var clears []FieldKey

	for _, k := range keys {
		pf := fields[k]
		wire, ok := pf.Value.Wire()
		if !ok {
			clears = append(clears, k)
			continue
		}
		sets = append(sets, FieldInput{
			OwnerID:   ownerID,
			Namespace: k.Namespace,
			Key:       k.Key,
			Type:      pf.Definition.Type.String(),
			Value:     wire,
		})
	}

	return sets, clears
}
