package schema

import (
	"testing"

	"github.com/ghxstship/marketplace/model"
)

func TestDeriveFields(t *testing.T) {
	table := []model.ColumnSchema{
		{Name: "id", DataType: "uuid", ColumnDefault: "gen_random_uuid()"},
		{Name: "title", DataType: "text", IsNullable: false},
		{Name: "description", DataType: "text", IsNullable: true},
		{Name: "contact_email", DataType: "text", IsNullable: true},
		{Name: "website_url", DataType: "text", IsNullable: true},
		{Name: "unit_price", DataType: "numeric", IsNullable: true},
		{Name: "featured", DataType: "boolean", IsNullable: true, ColumnDefault: "false"},
		{Name: "created_at", DataType: "timestamptz", ColumnDefault: "now()"},
	}

	fields := DeriveFields(table)
	if len(fields) != len(table) {
		t.Fatalf("DeriveFields() returned %d fields, want %d", len(fields), len(table))
	}

	byKey := make(map[string]model.FieldConfig, len(fields))
	for _, f := range fields {
		byKey[f.Key] = f
	}

	if f := byKey["title"]; !f.Required || f.Type != model.FieldText || f.Label != "Title" {
		t.Errorf("title = %+v, want required text labeled Title", f)
	}
	if f := byKey["description"]; f.Type != model.FieldTextarea {
		t.Errorf("description type = %q, want textarea", f.Type)
	}
	if f := byKey["contact_email"]; f.Type != model.FieldEmail || f.Label != "Contact Email" {
		t.Errorf("contact_email = %+v, want email / Contact Email", f)
	}
	if f := byKey["website_url"]; f.Type != model.FieldURL {
		t.Errorf("website_url type = %q, want url", f.Type)
	}
	if f := byKey["unit_price"]; f.Type != model.FieldNumber {
		t.Errorf("unit_price type = %q, want number", f.Type)
	}
	if f := byKey["featured"]; f.Type != model.FieldBoolean || f.Required {
		t.Errorf("featured = %+v, want optional boolean (has default)", f)
	}
	if f := byKey["id"]; !f.ReadOnly || f.Required {
		t.Errorf("id = %+v, want read-only and not required", f)
	}
	if f := byKey["created_at"]; !f.ReadOnly || f.Visible {
		t.Errorf("created_at = %+v, want read-only and hidden", f)
	}

	// Column order is preserved.
	if fields[0].Key != "id" || fields[1].Key != "title" {
		t.Errorf("field order = [%s, %s, ...], want [id, title, ...]", fields[0].Key, fields[1].Key)
	}
}

func TestLabelFor(t *testing.T) {
	tests := []struct{ in, want string }{
		{"title", "Title"},
		{"vendor_id", "Vendor ID"},
		{"website_url", "Website URL"},
		{"unit_price", "Unit Price"},
	}
	for _, tt := range tests {
		if got := labelFor(tt.in); got != tt.want {
			t.Errorf("labelFor(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
