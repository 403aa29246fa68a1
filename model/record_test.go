package model

import "testing"

func TestResolvePath_TopLevel(t *testing.T) {
	r := DataRecord{"title": "Stage Rig"}
	if got := ResolvePath(r, "title"); got != "Stage Rig" {
		t.Errorf("ResolvePath(title) = %v, want %q", got, "Stage Rig")
	}
}

func TestResolvePath_Nested(t *testing.T) {
	r := DataRecord{
		"pricing": map[string]any{"amount": 42.5, "currency": "USD"},
	}
	if got := ResolvePath(r, "pricing.amount"); got != 42.5 {
		t.Errorf("ResolvePath(pricing.amount) = %v, want 42.5", got)
	}
}

func TestResolvePath_MissingSegment(t *testing.T) {
	r := DataRecord{"pricing": map[string]any{"amount": 10}}
	cases := []string{"pricing.missing", "missing.amount", "pricing.amount.deeper", ""}
	for _, path := range cases {
		if got := ResolvePath(r, path); got != nil {
			t.Errorf("ResolvePath(%q) = %v, want nil", path, got)
		}
	}
}

func TestResolvePath_NilRecord(t *testing.T) {
	if got := ResolvePath(nil, "anything"); got != nil {
		t.Errorf("ResolvePath(nil) = %v, want nil", got)
	}
}

func TestDataRecord_Clone(t *testing.T) {
	r := DataRecord{"id": "r-1", "title": "A"}
	c := r.Clone()
	c["title"] = "B"
	if r["title"] != "A" {
		t.Errorf("Clone mutated source, title = %v", r["title"])
	}
	if c.ID() != "r-1" {
		t.Errorf("Clone ID = %q, want r-1", c.ID())
	}
}

func TestDataRecord_Accessors(t *testing.T) {
	r := DataRecord{"id": "r-9", "created_by": "u-3", "status": "active"}
	if r.ID() != "r-9" {
		t.Errorf("ID() = %q, want r-9", r.ID())
	}
	if r.CreatedBy() != "u-3" {
		t.Errorf("CreatedBy() = %q, want u-3", r.CreatedBy())
	}
	if r.StringField("status") != "active" {
		t.Errorf("StringField(status) = %q, want active", r.StringField("status"))
	}
	if r.StringField("missing") != "" {
		t.Errorf("StringField(missing) = %q, want empty", r.StringField("missing"))
	}
}
