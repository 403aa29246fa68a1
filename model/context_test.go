package model

import (
	"context"
	"testing"
)

func TestRequestContext_Validate(t *testing.T) {
	tests := []struct {
		name    string
		rctx    RequestContext
		wantErr bool
	}{
		{"valid", RequestContext{UserID: "u-1", OrgID: "org-1"}, false},
		{"missing user", RequestContext{OrgID: "org-1"}, true},
		{"missing org", RequestContext{UserID: "u-1"}, true},
		{"missing both", RequestContext{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.rctx.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRequestContext_HasRole(t *testing.T) {
	rctx := &RequestContext{Roles: []string{"admin", "member"}}
	if !rctx.HasRole("admin") {
		t.Error("HasRole(admin) = false, want true")
	}
	if rctx.HasRole("owner") {
		t.Error("HasRole(owner) = true, want false")
	}
}

func TestRequestContext_RoundTrip(t *testing.T) {
	rctx := &RequestContext{UserID: "u-1", OrgID: "org-1"}
	ctx := WithRequestContext(context.Background(), rctx)
	if got := RequestContextFrom(ctx); got != rctx {
		t.Errorf("RequestContextFrom() = %v, want %v", got, rctx)
	}
}

func TestRequestContextFrom_Missing(t *testing.T) {
	if got := RequestContextFrom(context.Background()); got != nil {
		t.Errorf("RequestContextFrom(empty) = %v, want nil", got)
	}
}

func TestMustRequestContext_Panics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("MustRequestContext should panic without a RequestContext")
		}
	}()
	MustRequestContext(context.Background())
}

func TestUserRoles_IsAdmin(t *testing.T) {
	for _, role := range []OrgRole{RoleOwner, RoleAdmin} {
		if !(UserRoles{OrgRole: role}).IsAdmin() {
			t.Errorf("IsAdmin() = false for %q, want true", role)
		}
	}
	for _, role := range []OrgRole{RoleManager, RoleMember, ""} {
		if (UserRoles{OrgRole: role}).IsAdmin() {
			t.Errorf("IsAdmin() = true for %q, want false", role)
		}
	}
}
