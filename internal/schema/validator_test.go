package schema

import (
	"reflect"
	"testing"

	"github.com/ghxstship/marketplace/model"
)

func listingSchema() []model.ColumnSchema {
	return []model.ColumnSchema{
		{Name: "id", DataType: "uuid", IsNullable: false, ColumnDefault: "gen_random_uuid()"},
		{Name: "title", DataType: "text", IsNullable: false,
			Constraints: []model.ColumnConstraint{
				{Type: "check", Definition: "length(title) <= 120"},
			}},
		{Name: "description", DataType: "text", IsNullable: true},
		{Name: "quantity", DataType: "integer", IsNullable: true},
		{Name: "price", DataType: "numeric", IsNullable: true},
		{Name: "featured", DataType: "boolean", IsNullable: true},
		{Name: "available_from", DataType: "date", IsNullable: true},
		{Name: "metadata", DataType: "jsonb", IsNullable: true},
	}
}

func TestValidate_required_on_insert(t *testing.T) {
	v := NewValidator()
	errs := v.Validate(map[string]any{}, listingSchema(), false)

	if len(errs) != 1 {
		t.Fatalf("Validate() returned %d errors, want 1: %v", len(errs), errs)
	}
	if errs[0].Field != "title" || errs[0].Type != model.ValidationRequired {
		t.Errorf("error = %+v, want required error on title", errs[0])
	}
}

func TestValidate_required_skipped_on_update(t *testing.T) {
	v := NewValidator()
	errs := v.Validate(map[string]any{"description": "partial patch"}, listingSchema(), true)
	if len(errs) != 0 {
		t.Errorf("update validation returned %v, want none", errs)
	}
}

func TestValidate_empty_string_counts_as_missing(t *testing.T) {
	v := NewValidator()
	errs := v.Validate(map[string]any{"title": ""}, listingSchema(), false)
	if len(errs) != 1 || errs[0].Type != model.ValidationRequired {
		t.Fatalf("Validate() = %v, want one required error", errs)
	}
}

func TestValidate_type_checks(t *testing.T) {
	v := NewValidator()
	tests := []struct {
		name     string
		record   map[string]any
		wantErrs int
		wantType model.ValidationErrorType
	}{
		{"non-numeric integer", map[string]any{"title": "ok", "quantity": "lots"}, 1, model.ValidationType},
		{"numeric string coerces", map[string]any{"title": "ok", "quantity": "42"}, 0, ""},
		{"float for integer rejected", map[string]any{"title": "ok", "quantity": 1.5}, 1, model.ValidationType},
		{"whole float for integer ok", map[string]any{"title": "ok", "quantity": float64(7)}, 0, ""},
		{"bad float", map[string]any{"title": "ok", "price": "cheap"}, 1, model.ValidationType},
		{"float string coerces", map[string]any{"title": "ok", "price": "9.99"}, 0, ""},
		{"strict boolean", map[string]any{"title": "ok", "featured": "yes"}, 1, model.ValidationType},
		{"boolean ok", map[string]any{"title": "ok", "featured": true}, 0, ""},
		{"bad date", map[string]any{"title": "ok", "available_from": "next tuesday"}, 1, model.ValidationType},
		{"iso date ok", map[string]any{"title": "ok", "available_from": "2026-03-01"}, 0, ""},
		{"bad json", map[string]any{"title": "ok", "metadata": "{broken"}, 1, model.ValidationType},
		{"json map ok", map[string]any{"title": "ok", "metadata": map[string]any{"a": 1}}, 0, ""},
		{"non-string text", map[string]any{"title": 7}, 1, model.ValidationType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := v.Validate(tt.record, listingSchema(), false)
			if len(errs) != tt.wantErrs {
				t.Fatalf("Validate() = %v, want %d errors", errs, tt.wantErrs)
			}
			if tt.wantErrs > 0 && errs[0].Type != tt.wantType {
				t.Errorf("error type = %q, want %q", errs[0].Type, tt.wantType)
			}
		})
	}
}

func TestValidate_uuid(t *testing.T) {
	v := NewValidator()
	schema := []model.ColumnSchema{{Name: "ref_id", DataType: "uuid", IsNullable: true}}

	errs := v.Validate(map[string]any{"ref_id": "b3c7a6d0-1b4e-4f2a-9c8d-0123456789ab"}, schema, false)
	if len(errs) != 0 {
		t.Errorf("valid uuid rejected: %v", errs)
	}

	errs = v.Validate(map[string]any{"ref_id": "not-a-uuid"}, schema, false)
	if len(errs) != 1 || errs[0].Type != model.ValidationType {
		t.Errorf("invalid uuid accepted, errs = %v", errs)
	}
}

func TestValidate_length_constraint(t *testing.T) {
	v := NewValidator()
	long := make([]byte, 121)
	for i := range long {
		long[i] = 'x'
	}

	errs := v.Validate(map[string]any{"title": string(long)}, listingSchema(), false)
	if len(errs) != 1 {
		t.Fatalf("Validate() = %v, want one constraint error", errs)
	}
	if errs[0].Type != model.ValidationConstraint {
		t.Errorf("error type = %q, want constraint", errs[0].Type)
	}
}

func TestValidate_max_length(t *testing.T) {
	v := NewValidator()

	t.Run("declared max length enforced without check constraint", func(t *testing.T) {
		cols := []model.ColumnSchema{
			{Name: "code", DataType: "varchar", IsNullable: true, MaxLength: 5},
		}
		errs := v.Validate(map[string]any{"code": "abcdef"}, cols, false)
		if len(errs) != 1 || errs[0].Type != model.ValidationConstraint {
			t.Fatalf("Validate() = %v, want one constraint error", errs)
		}
		if errs := v.Validate(map[string]any{"code": "abcde"}, cols, false); len(errs) != 0 {
			t.Errorf("value at the bound rejected: %v", errs)
		}
	})

	t.Run("tighter bound wins", func(t *testing.T) {
		cols := []model.ColumnSchema{
			{Name: "title", DataType: "text", IsNullable: true, MaxLength: 200,
				Constraints: []model.ColumnConstraint{
					{Type: "check", Definition: "length(title) <= 10"},
				}},
		}
		errs := v.Validate(map[string]any{"title": "elevenchars"}, cols, false)
		if len(errs) != 1 {
			t.Fatalf("check-constraint bound not applied: %v", errs)
		}

		cols[0].MaxLength = 8
		errs = v.Validate(map[string]any{"title": "ninechars"}, cols, false)
		if len(errs) != 1 {
			t.Fatalf("max length tighter than check constraint not applied: %v", errs)
		}
	})
}

func TestValidate_unknown_type_passes(t *testing.T) {
	v := NewValidator()
	schema := []model.ColumnSchema{{Name: "geo", DataType: "geography", IsNullable: true}}
	errs := v.Validate(map[string]any{"geo": 12345}, schema, false)
	if len(errs) != 0 {
		t.Errorf("unknown type should pass, got %v", errs)
	}
}

func TestValidate_deterministic(t *testing.T) {
	v := NewValidator()
	record := map[string]any{"quantity": "bad", "featured": "nope"}

	first := v.Validate(record, listingSchema(), false)
	second := v.Validate(record, listingSchema(), false)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("two validation passes differ:\n%v\n%v", first, second)
	}
	// Errors follow column declaration order: title, quantity, featured.
	wantOrder := []string{"title", "quantity", "featured"}
	if len(first) != len(wantOrder) {
		t.Fatalf("Validate() = %v, want %d errors", first, len(wantOrder))
	}
	for i, field := range wantOrder {
		if first[i].Field != field {
			t.Errorf("errs[%d].Field = %q, want %q", i, first[i].Field, field)
		}
	}
}
