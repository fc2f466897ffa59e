package catalog

import (
	"context"
	"errors"
	"strings"
	"testing"
)

// fakeWriter records mutation calls and replays configured outcomes.
type fakeWriter struct {
	createID       string
	createUserErrs []string
	createErr      error
	updateUserErrs []string
	updateErr      error
	setUserErrs    []string
	setErr         error
	clearUserErrs  []string
	clearErr       error

	created []Collection
	updated []Collection
	sets    [][]FieldInput
	clears  [][]FieldKey
}

func (f *fakeWriter) CreateCollection(ctx context.Context, c Collection) (string, []string, error) {
	f.created = append(f.created, c)
	if f.createErr != nil {
		return "", nil, f.createErr
	}
	if len(f.createUserErrs) > 0 {
		return "", f.createUserErrs, nil
	}
	return f.createID, nil, nil
}

func (f *fakeWriter) UpdateCollection(ctx context.Context, c Collection) ([]string, error) {
	f.updated = append(f.updated, c)
	return f.updateUserErrs, f.updateErr
}

func (f *fakeWriter) SetFieldValues(ctx context.Context, inputs []FieldInput) ([]string, error) {
	f.sets = append(f.sets, inputs)
	return f.setUserErrs, f.setErr
}

func (f *fakeWriter) ClearFieldValues(ctx context.Context, ownerID string, keys []FieldKey) ([]string, error) {
	f.clears = append(f.clears, keys)
	return f.clearUserErrs, f.clearErr
}

func textField(value FieldValue) PendingField {
	return PendingField{
		Definition: FieldDefinition{
			Namespace: "custom",
			Type:      FieldType{Base: BaseSingleLineText},
			TypeName:  "single_line_text_field",
		},
		Value: value,
	}
}

func TestApply_CreateRow(t *testing.T) {
	api := &fakeWriter{createID: "gid://shopify/Collection/99"}
	rows := []ImportRow{{
		Line:       2,
		Collection: Collection{Title: "New"},
		Fields: map[FieldKey]PendingField{
			{Namespace: "custom", Key: "season"}: textField(ScalarValue("winter")),
			{Namespace: "custom", Key: "note"}:   textField(NullValue()),
		},
	}}

	summary, errs := Apply(context.Background(), api, rows)
	if len(errs) != 0 {
		t.Fatalf("errs = %v, want none", errs)
	}
	if summary.Created != 1 || summary.Updated != 0 {
		t.Errorf("summary = %+v, want one create", summary)
	}
	if summary.FieldsSet != 1 {
		t.Errorf("FieldsSet = %d, want 1", summary.FieldsSet)
	}

	if len(api.sets) != 1 || len(api.sets[0]) != 1 {
		t.Fatalf("sets = %v, want one batch of one input", api.sets)
	}
	// New collection's ID from the create response owns the fields.
	if api.sets[0][0].OwnerID != "gid://shopify/Collection/99" {
		t.Errorf("OwnerID = %q, want the created ID", api.sets[0][0].OwnerID)
	}
	if api.sets[0][0].Key != "season" || api.sets[0][0].Value != "winter" {
		t.Errorf("set input = %+v", api.sets[0][0])
	}

	if len(api.clears) != 1 || len(api.clears[0]) != 1 || api.clears[0][0].Key != "note" {
		t.Fatalf("clears = %v, want the null field", api.clears)
	}
}

func TestApply_UpdateRow(t *testing.T) {
	api := &fakeWriter{}
	rows := []ImportRow{{
		Line:       2,
		Collection: Collection{ID: "gid://shopify/Collection/5", Title: "Existing"},
		Fields: map[FieldKey]PendingField{
			{Namespace: "custom", Key: "season"}: textField(ScalarValue("summer")),
		},
	}}

	summary, errs := Apply(context.Background(), api, rows)
	if len(errs) != 0 {
		t.Fatalf("errs = %v, want none", errs)
	}
	if summary.Updated != 1 || summary.Created != 0 {
		t.Errorf("summary = %+v, want one update", summary)
	}
	if len(api.created) != 0 || len(api.updated) != 1 {
		t.Errorf("created=%d updated=%d, want 0/1", len(api.created), len(api.updated))
	}
	if api.sets[0][0].OwnerID != "gid://shopify/Collection/5" {
		t.Errorf("OwnerID = %q, want the existing ID", api.sets[0][0].OwnerID)
	}
}

func TestApply_UserErrorsSkipFieldWrites(t *testing.T) {
	api := &fakeWriter{updateUserErrs: []string{"title: can't be blank"}}
	rows := []ImportRow{{
		Line:       3,
		Collection: Collection{ID: "gid://shopify/Collection/5"},
		Fields: map[FieldKey]PendingField{
			{Namespace: "custom", Key: "season"}: textField(ScalarValue("fall")),
		},
	}}

	summary, errs := Apply(context.Background(), api, rows)
	if summary.Updated != 0 {
		t.Errorf("Updated = %d, want 0 after user error", summary.Updated)
	}
	if len(errs) != 1 || errs[0].Row != 3 || !strings.Contains(errs[0].Message, "can't be blank") {
		t.Fatalf("errs = %+v", errs)
	}
	if len(api.sets) != 0 || len(api.clears) != 0 {
		t.Error("field writes should be skipped when the record write is rejected")
	}
}

func TestApply_TransportErrorIsolatesRow(t *testing.T) {
	api := &fakeWriter{createErr: errors.New("connection reset")}
	rows := []ImportRow{
		{Line: 2, Collection: Collection{Title: "Fails"}},
		{Line: 3, Collection: Collection{ID: "gid://shopify/Collection/5", Title: "Survives"}},
	}

	summary, errs := Apply(context.Background(), api, rows)
	if len(errs) != 1 || errs[0].Row != 2 {
		t.Fatalf("errs = %+v, want one error on row 2", errs)
	}
	if summary.Updated != 1 {
		t.Errorf("Updated = %d, the second row should still apply", summary.Updated)
	}
}

func TestApply_SetUserErrorsReduceFieldCount(t *testing.T) {
	api := &fakeWriter{setUserErrs: []string{"value: too long"}}
	rows := []ImportRow{{
		Line:       2,
		Collection: Collection{ID: "gid://shopify/Collection/5"},
		Fields: map[FieldKey]PendingField{
			{Namespace: "custom", Key: "a"}: textField(ScalarValue("1")),
			{Namespace: "custom", Key: "b"}: textField(ScalarValue("2")),
		},
	}}

	summary, errs := Apply(context.Background(), api, rows)
	if summary.FieldsSet != 1 {
		t.Errorf("FieldsSet = %d, want batch size minus user errors", summary.FieldsSet)
	}
	if len(errs) != 1 || !strings.Contains(errs[0].Message, "too long") {
		t.Fatalf("errs = %+v", errs)
	}
	// The update itself still counts.
	if summary.Updated != 1 {
		t.Errorf("Updated = %d, want 1", summary.Updated)
	}
}

func TestApply_ReapplyReportsEachRunSeparately(t *testing.T) {
	api := &fakeWriter{}
	rows := []ImportRow{{
		Line:       2,
		Collection: Collection{ID: "gid://shopify/Collection/5", Title: "Same"},
		Fields: map[FieldKey]PendingField{
			{Namespace: "custom", Key: "season"}: textField(ScalarValue("winter")),
		},
	}}

	first, errs := Apply(context.Background(), api, rows)
	if len(errs) != 0 {
		t.Fatalf("first apply errs = %v", errs)
	}
	second, errs := Apply(context.Background(), api, rows)
	if len(errs) != 0 {
		t.Fatalf("second apply errs = %v", errs)
	}

	if first != second {
		t.Errorf("summaries differ: %+v vs %+v", first, second)
	}
	if second.Updated != 1 || second.FieldsSet != 1 {
		t.Errorf("second = %+v, each run reports its own counts", second)
	}
}

func TestApply_EmptyRowListIsNoop(t *testing.T) {
	api := &fakeWriter{}
	summary, errs := Apply(context.Background(), api, nil)
	if summary != (Summary{}) || len(errs) != 0 {
		t.Errorf("Apply(nil) = %+v, %v; want zero values", summary, errs)
	}
}

func TestSplitFieldBatch_DeterministicOrder(t *testing.T) {
	fields := map[FieldKey]PendingField{
		{Namespace: "b", Key: "x"}: textField(ScalarValue("1")),
		{Namespace: "a", Key: "z"}: textField(ScalarValue("2")),
		{Namespace: "a", Key: "y"}: textField(ScalarValue("3")),
		{Namespace: "a", Key: "w"}: textField(NullValue()),
	}

	sets, clears := splitFieldBatch("gid://shopify/Collection/1", fields)

	if len(sets) != 3 {
		t.Fatalf("len(sets) = %d, want 3", len(sets))
	}
	wantOrder := []string{"y", "z", "x"} // namespace then key
	for i, in := range sets {
		if in.Key != wantOrder[i] {
			t.Errorf("sets[%d].Key = %q, want %q", i, in.Key, wantOrder[i])
		}
	}
	if len(clears) != 1 || clears[0].Key != "w" {
		t.Errorf("clears = %v, want the null key", clears)
	}
}
