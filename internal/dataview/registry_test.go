package dataview

import (
	"testing"

	"github.com/ghxstship/marketplace/internal/schema"
	"github.com/ghxstship/marketplace/model"
)

func TestRegistry_view_is_lazy_and_stable(t *testing.T) {
	r := NewRegistry(schema.DefaultTables())

	c1 := r.View("org-1", model.EntityListings)
	if c1 == nil {
		t.Fatal("View() returned nil")
	}
	if len(c1.Fields()) == 0 {
		t.Fatal("new view should be seeded with derived fields")
	}

	c1.SetSearch("rigging")
	if got := r.View("org-1", model.EntityListings); got != c1 {
		t.Error("same org and entity should return the same controller")
	}
	if got := r.View("org-1", model.EntityListings).Search(); got != "rigging" {
		t.Errorf("Search() = %q, state was not retained", got)
	}
}

func TestRegistry_views_are_isolated(t *testing.T) {
	r := NewRegistry(schema.DefaultTables())

	r.View("org-1", model.EntityListings).SetSearch("trusses")
	r.View("org-1", model.EntityListings).ToggleFieldVisibility("title")

	if got := r.View("org-2", model.EntityListings).Search(); got != "" {
		t.Errorf("org-2 search = %q, want empty", got)
	}
	if got := r.View("org-1", model.EntityVendors).Search(); got != "" {
		t.Errorf("vendors search = %q, want empty", got)
	}

	// org-2 keeps title visible even after org-1 hid it.
	for _, f := range r.View("org-2", model.EntityListings).Fields() {
		if f.Key == "title" && !f.Visible {
			t.Error("field toggles leaked across organizations")
		}
	}
}

func TestRegistry_defaultFields_are_detached(t *testing.T) {
	r := NewRegistry(schema.DefaultTables())
	r.View("org-1", model.EntityListings).ToggleFieldVisibility("title")

	for _, f := range r.DefaultFields(model.EntityListings) {
		if f.Key == "title" && !f.Visible {
			t.Error("DefaultFields reflects per-organization state")
		}
	}
}
