package permission

import (
	"testing"

	"github.com/ghxstship/marketplace/model"
)

func TestFilterListingsByPermissions(t *testing.T) {
	records := []model.DataRecord{
		{"id": "l-1", "status": "active", "created_by": "u-2"},
		{"id": "l-2", "status": "draft", "created_by": "u-1"},
		{"id": "l-3", "status": "draft", "created_by": "u-2"},
	}

	// Plain member: the active listing plus their own draft.
	visible := FilterListingsByPermissions(records, rolesOf(model.RoleMember), "u-1")
	if len(visible) != 2 {
		t.Fatalf("member sees %d listings, want 2: %v", len(visible), visible)
	}
	if visible[0].ID() != "l-1" || visible[1].ID() != "l-2" {
		t.Errorf("member sees %s and %s, want l-1 and l-2", visible[0].ID(), visible[1].ID())
	}

	// Admin sees everything.
	if got := FilterListingsByPermissions(records, rolesOf(model.RoleAdmin), "u-1"); len(got) != 3 {
		t.Errorf("admin sees %d listings, want 3", len(got))
	}
}

func TestFilterProjectsByPermissions(t *testing.T) {
	records := []model.DataRecord{
		{"id": "p-1", "visibility": "public", "created_by": "u-2"},
		{"id": "p-2", "visibility": "private", "created_by": "u-1"},
		{"id": "p-3", "visibility": "private", "created_by": "u-2"},
	}

	visible := FilterProjectsByPermissions(records, rolesOf(model.RoleMember), "u-1")
	if len(visible) != 2 {
		t.Fatalf("member sees %d projects, want 2: %v", len(visible), visible)
	}
	if visible[0].ID() != "p-1" || visible[1].ID() != "p-2" {
		t.Errorf("member sees %s and %s, want p-1 and p-2", visible[0].ID(), visible[1].ID())
	}

	if got := FilterProjectsByPermissions(records, rolesOf(model.RoleOwner), "u-1"); len(got) != 3 {
		t.Errorf("owner sees %d projects, want 3", len(got))
	}
}

func TestCanCreateProposal(t *testing.T) {
	tests := []struct {
		name    string
		project model.DataRecord
		want    bool
	}{
		{"open public", model.DataRecord{"status": "open", "visibility": "public"}, true},
		{"closed public", model.DataRecord{"status": "closed", "visibility": "public"}, false},
		{"open private always denied", model.DataRecord{"status": "open", "visibility": "private"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanCreateProposal(tt.project); got != tt.want {
				t.Errorf("CanCreateProposal() = %v, want %v", got, tt.want)
			}
		})
	}
}
