package permission

import (
	"context"
	"errors"
	"testing"

	"github.com/ghxstship/marketplace/model"
)

// fakeDirectory is a RoleDirectory with canned answers.
type fakeDirectory struct {
	role     model.OrgRole
	vendorID string
	roleErr  error
}

func (d *fakeDirectory) OrgRole(orgID, userID string) (model.OrgRole, error) {
	return d.role, d.roleErr
}

func (d *fakeDirectory) Vendor(orgID, userID string) (string, error) {
	return d.vendorID, nil
}

// fakeOwners is an OwnershipSource backed by a map.
type fakeOwners struct {
	owners map[string]string
	err    error
	calls  int
}

func (o *fakeOwners) Owners(_ context.Context, _ string, _ model.EntityType, ids []string) (map[string]string, error) {
	o.calls++
	if o.err != nil {
		return nil, o.err
	}
	result := make(map[string]string, len(ids))
	for _, id := range ids {
		if owner, ok := o.owners[id]; ok {
			result[id] = owner
		}
	}
	return result, nil
}

func rolesOf(role model.OrgRole) model.UserRoles {
	return model.UserRoles{OrgRole: role}
}

func TestGetUserRoles(t *testing.T) {
	r := NewResolver(&fakeDirectory{role: model.RoleManager, vendorID: "v-7"}, &fakeOwners{})

	roles, err := r.GetUserRoles(context.Background(), "org-1", "u-1")
	if err != nil {
		t.Fatalf("GetUserRoles() error = %v", err)
	}
	if roles.OrgRole != model.RoleManager {
		t.Errorf("OrgRole = %q, want manager", roles.OrgRole)
	}
	if !roles.IsVendor || roles.VendorID != "v-7" {
		t.Errorf("vendor = %+v, want vendor v-7", roles)
	}
}

func TestGetUserRoles_lookup_error(t *testing.T) {
	r := NewResolver(&fakeDirectory{roleErr: errors.New("directory down")}, &fakeOwners{})
	if _, err := r.GetUserRoles(context.Background(), "org-1", "u-1"); err == nil {
		t.Fatal("GetUserRoles() should surface directory errors")
	}
}

func TestCanUpdate(t *testing.T) {
	r := NewResolver(&fakeDirectory{}, &fakeOwners{})
	own := model.DataRecord{"created_by": "u-1"}
	foreign := model.DataRecord{"created_by": "u-2"}

	tests := []struct {
		name   string
		role   model.OrgRole
		record model.DataRecord
		want   bool
	}{
		{"owner any record", model.RoleOwner, foreign, true},
		{"admin any record", model.RoleAdmin, foreign, true},
		{"manager any record", model.RoleManager, foreign, true},
		{"member own record", model.RoleMember, own, true},
		{"member foreign record", model.RoleMember, foreign, false},
		{"non-member", "", own, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.CanUpdate(rolesOf(tt.role), tt.record, "u-1"); got != tt.want {
				t.Errorf("CanUpdate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAdminOnlyOperations(t *testing.T) {
	r := NewResolver(&fakeDirectory{}, &fakeOwners{})

	for _, role := range []model.OrgRole{model.RoleOwner, model.RoleAdmin} {
		if !r.CanFeature(rolesOf(role)) || !r.CanVerifyVendor(rolesOf(role)) || !r.CanImport(rolesOf(role)) {
			t.Errorf("role %q should pass admin-only checks", role)
		}
	}
	// Managers get full listing CRUD but not vendor verification or imports.
	if r.CanVerifyVendor(rolesOf(model.RoleManager)) {
		t.Error("manager should not verify vendors")
	}
	if r.CanImport(rolesOf(model.RoleMember)) {
		t.Error("member should not import")
	}
}

func TestCanExport_any_member(t *testing.T) {
	r := NewResolver(&fakeDirectory{}, &fakeOwners{})
	if !r.CanExport(rolesOf(model.RoleMember)) {
		t.Error("member should export")
	}
	if r.CanExport(model.UserRoles{}) {
		t.Error("non-member should not export")
	}
}

func TestAuthorizeBulk_admin_bypass(t *testing.T) {
	owners := &fakeOwners{}
	r := NewResolver(&fakeDirectory{}, owners)

	err := r.AuthorizeBulk(context.Background(), "org-1", "u-1", rolesOf(model.RoleAdmin),
		model.EntityListings, []string{"r-1", "r-2"})
	if err != nil {
		t.Fatalf("AuthorizeBulk() error = %v, want nil for admin", err)
	}
	if owners.calls != 0 {
		t.Errorf("ownership lookup called %d times for admin, want 0", owners.calls)
	}
}

func TestAuthorizeBulk_all_or_nothing(t *testing.T) {
	owners := &fakeOwners{owners: map[string]string{
		"r-1": "u-1",
		"r-2": "u-1",
		"r-3": "u-2", // foreign record
	}}
	r := NewResolver(&fakeDirectory{}, owners)
	member := rolesOf(model.RoleMember)

	// All owned: allowed, single batched lookup.
	err := r.AuthorizeBulk(context.Background(), "org-1", "u-1", member,
		model.EntityListings, []string{"r-1", "r-2"})
	if err != nil {
		t.Fatalf("AuthorizeBulk() error = %v, want nil", err)
	}
	if owners.calls != 1 {
		t.Errorf("ownership lookups = %d, want 1", owners.calls)
	}

	// One foreign record denies the whole set.
	err = r.AuthorizeBulk(context.Background(), "org-1", "u-1", member,
		model.EntityListings, []string{"r-1", "r-2", "r-3"})
	assertForbidden(t, err)

	// A missing record also denies.
	err = r.AuthorizeBulk(context.Background(), "org-1", "u-1", member,
		model.EntityListings, []string{"r-1", "r-404"})
	assertForbidden(t, err)
}

func TestAuthorizeBulk_empty_ids(t *testing.T) {
	r := NewResolver(&fakeDirectory{}, &fakeOwners{})
	err := r.AuthorizeBulk(context.Background(), "org-1", "u-1", rolesOf(model.RoleAdmin),
		model.EntityListings, nil)
	if err == nil {
		t.Fatal("AuthorizeBulk() with no ids should fail")
	}
}

func assertForbidden(t *testing.T, err error) {
	t.Helper()
	ee, ok := err.(*model.ErrorEnvelope)
	if !ok || ee.Code != model.ErrForbidden {
		t.Fatalf("error = %v, want FORBIDDEN envelope", err)
	}
}
