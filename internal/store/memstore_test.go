package store

import (
	"context"
	"testing"

	"github.com/ghxstship/marketplace/model"
)

func newTestStore() *MemoryStore {
	return NewMemoryStore(nil)
}

func mustCreate(t *testing.T, s *MemoryStore, orgID string, rec model.DataRecord) model.DataRecord {
	t.Helper()
	created, err := s.Create(context.Background(), orgID, model.EntityListings, rec)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	return created
}

func TestCreate_assigns_id_and_timestamps(t *testing.T) {
	s := newTestStore()
	created := mustCreate(t, s, "org-1", model.DataRecord{"title": "Lighting Rig"})

	if created.ID() == "" {
		t.Error("Create() did not assign an id")
	}
	if created[model.FieldCreatedAt] == nil || created[model.FieldUpdatedAt] == nil {
		t.Error("Create() did not assign timestamps")
	}
}

func TestGet_missing_returns_nil(t *testing.T) {
	s := newTestStore()
	rec, err := s.Get(context.Background(), "org-1", model.EntityListings, "nonexistent")
	if err != nil {
		t.Fatalf("Get() error = %v, want nil", err)
	}
	if rec != nil {
		t.Errorf("Get(missing) = %v, want nil", rec)
	}
}

func TestGet_is_org_scoped(t *testing.T) {
	s := newTestStore()
	created := mustCreate(t, s, "org-1", model.DataRecord{"title": "A"})

	rec, err := s.Get(context.Background(), "org-2", model.EntityListings, created.ID())
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if rec != nil {
		t.Error("record visible from another organization")
	}
}

func TestUpdate(t *testing.T) {
	s := newTestStore()
	created := mustCreate(t, s, "org-1", model.DataRecord{"title": "A", "status": "draft"})

	updated, err := s.Update(context.Background(), "org-1", model.EntityListings,
		created.ID(), model.DataRecord{"status": "active"})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.StringField("status") != "active" {
		t.Errorf("status = %q, want active", updated.StringField("status"))
	}
	if updated.StringField("title") != "A" {
		t.Errorf("patch clobbered title = %q", updated.StringField("title"))
	}

	_, err = s.Update(context.Background(), "org-1", model.EntityListings,
		"nonexistent", model.DataRecord{"status": "active"})
	if ee, ok := err.(*model.ErrorEnvelope); !ok || ee.Code != model.ErrNotFound {
		t.Errorf("Update(missing) error = %v, want NOT_FOUND", err)
	}
}

func TestDelete(t *testing.T) {
	s := newTestStore()
	created := mustCreate(t, s, "org-1", model.DataRecord{"title": "A"})

	if err := s.Delete(context.Background(), "org-1", model.EntityListings, created.ID()); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if s.Len("org-1", model.EntityListings) != 0 {
		t.Error("record still present after delete")
	}
	if err := s.Delete(context.Background(), "org-1", model.EntityListings, created.ID()); err == nil {
		t.Error("second Delete() should return NOT_FOUND")
	}
}

func TestList_filters(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()
	mustCreate(t, s, "org-1", model.DataRecord{
		"title": "Stage Lighting Kit", "description": "LED wash package",
		"type": "equipment", "category": "lighting", "status": "active", "featured": true,
		"pricing": map[string]any{"amount": 150.0},
	})
	mustCreate(t, s, "org-1", model.DataRecord{
		"title": "Sound Desk", "description": "32 channel console",
		"type": "equipment", "category": "audio", "status": "draft",
		"pricing": map[string]any{"amount": 900.0},
	})
	mustCreate(t, s, "org-1", model.DataRecord{
		"title": "Rigging Crew", "description": "Certified rigging services",
		"type": "service", "category": "crew", "status": "active",
		"pricing": map[string]any{"amount": 400.0},
	})

	tests := []struct {
		name    string
		filters Filters
		want    int
	}{
		{"no filters", Filters{}, 3},
		{"by type", Filters{Type: "equipment"}, 2},
		{"by category", Filters{Category: "audio"}, 1},
		{"by status", Filters{Status: "active"}, 2},
		{"featured", Filters{Featured: boolPtr(true)}, 1},
		{"search title CI", Filters{Search: "lighting"}, 1},
		{"search description", Filters{Search: "CONSOLE"}, 1},
		{"min price", Filters{MinPrice: floatPtr(300)}, 2},
		{"max price", Filters{MaxPrice: floatPtr(200)}, 1},
		{"price band", Filters{MinPrice: floatPtr(200), MaxPrice: floatPtr(500)}, 1},
		{"combined", Filters{Type: "equipment", Status: "active"}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.List(ctx, "org-1", model.EntityListings, tt.filters)
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("List() returned %d records, want %d", len(got), tt.want)
			}
		})
	}
}

func TestBulkUpdate_skips_missing(t *testing.T) {
	s := newTestStore()
	a := mustCreate(t, s, "org-1", model.DataRecord{"title": "A", "status": "draft"})
	b := mustCreate(t, s, "org-1", model.DataRecord{"title": "B", "status": "draft"})

	updated, err := s.BulkUpdate(context.Background(), "org-1", model.EntityListings,
		[]string{a.ID(), b.ID(), "ghost"}, model.DataRecord{"status": "active"})
	if err != nil {
		t.Fatalf("BulkUpdate() error = %v", err)
	}
	if len(updated) != 2 {
		t.Fatalf("BulkUpdate() updated %d records, want 2", len(updated))
	}
	for _, rec := range updated {
		if rec.StringField("status") != "active" {
			t.Errorf("record %s status = %q, want active", rec.ID(), rec.StringField("status"))
		}
	}
}

func TestBulkDelete_reports_count(t *testing.T) {
	s := newTestStore()
	a := mustCreate(t, s, "org-1", model.DataRecord{"title": "A"})
	b := mustCreate(t, s, "org-1", model.DataRecord{"title": "B"})

	n, err := s.BulkDelete(context.Background(), "org-1", model.EntityListings,
		[]string{a.ID(), b.ID(), "ghost"})
	if err != nil {
		t.Fatalf("BulkDelete() error = %v", err)
	}
	if n != 2 {
		t.Errorf("BulkDelete() = %d, want 2", n)
	}
}

func TestOwners(t *testing.T) {
	s := newTestStore()
	a := mustCreate(t, s, "org-1", model.DataRecord{"title": "A", "created_by": "u-1"})
	b := mustCreate(t, s, "org-1", model.DataRecord{"title": "B", "created_by": "u-2"})

	owners, err := s.Owners(context.Background(), "org-1", model.EntityListings,
		[]string{a.ID(), b.ID(), "ghost"})
	if err != nil {
		t.Fatalf("Owners() error = %v", err)
	}
	if len(owners) != 2 {
		t.Fatalf("Owners() returned %d entries, want 2", len(owners))
	}
	if owners[a.ID()] != "u-1" || owners[b.ID()] != "u-2" {
		t.Errorf("Owners() = %v", owners)
	}
}

func TestStore_notifies_changes(t *testing.T) {
	var events []model.ChangeEvent
	s := NewMemoryStore(notifierFunc(func(e model.ChangeEvent) {
		events = append(events, e)
	}))

	created := mustCreate(t, s, "org-1", model.DataRecord{"title": "A"})
	s.Update(context.Background(), "org-1", model.EntityListings, created.ID(), model.DataRecord{"title": "B"})
	s.Delete(context.Background(), "org-1", model.EntityListings, created.ID())

	if len(events) != 3 {
		t.Fatalf("notified %d events, want 3", len(events))
	}
	wantTypes := []model.ChangeType{model.ChangeInsert, model.ChangeUpdate, model.ChangeDelete}
	for i, want := range wantTypes {
		if events[i].Type != want {
			t.Errorf("events[%d].Type = %q, want %q", i, events[i].Type, want)
		}
		if events[i].RecordID != created.ID() {
			t.Errorf("events[%d].RecordID = %q, want %q", i, events[i].RecordID, created.ID())
		}
	}
	if events[2].Record != nil {
		t.Error("delete event should carry only the record id")
	}
}

type notifierFunc func(model.ChangeEvent)

func (f notifierFunc) Notify(e model.ChangeEvent) { f(e) }

func boolPtr(b bool) *bool        { return &b }
func floatPtr(f float64) *float64 { return &f }
