package integration

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghxstship/marketplace/model"
)

func TestAuthenticationRequired(t *testing.T) {
	h := NewTestHarness(t)

	t.Run("no token returns 401", func(t *testing.T) {
		resp := h.GET("/api/listings", "")
		h.AssertStatus(t, resp, http.StatusUnauthorized)
		resp.Body.Close()
	})

	t.Run("expired token returns 401", func(t *testing.T) {
		token := h.GenerateExpiredToken(AdminClaims())
		resp := h.GET("/api/listings", token)
		h.AssertStatus(t, resp, http.StatusUnauthorized)
		resp.Body.Close()
	})

	t.Run("garbage token returns 401", func(t *testing.T) {
		resp := h.GET("/api/listings", "not-a-jwt")
		h.AssertStatus(t, resp, http.StatusUnauthorized)
		resp.Body.Close()
	})

	t.Run("token without org returns 401", func(t *testing.T) {
		token := h.GenerateToken(TestClaims{UserID: "admin-1"})
		resp := h.GET("/api/listings", token)
		h.AssertStatus(t, resp, http.StatusUnauthorized)
		resp.Body.Close()
	})

	t.Run("health bypasses auth", func(t *testing.T) {
		resp := h.GET("/health", "")
		h.AssertStatus(t, resp, http.StatusOK)
		resp.Body.Close()
	})
}

func TestOrganizationIsolation(t *testing.T) {
	h := NewTestHarness(t)
	org1Admin := h.GenerateToken(AdminClaims())
	org2Admin := h.GenerateToken(TestClaims{
		UserID: "admin-2",
		OrgID:  "org-2",
		Email:  "admin2@example.com",
		Roles:  []string{"admin"},
	})

	rec := createRecord(t, h, org1Admin, "listings", model.DataRecord{
		"title": "Org One Asset", "type": "equipment", "status": "active",
	})

	// The other organization sees an empty collection and cannot reach the
	// record by id.
	var list listBody
	h.AssertJSON(t, h.GET("/api/listings", org2Admin), http.StatusOK, &list)
	assert.Equal(t, 0, list.Total)

	resp := h.GET("/api/listings/"+rec.ID(), org2Admin)
	h.AssertStatus(t, resp, http.StatusNotFound)
	resp.Body.Close()

	// Selecting org-1 by header does not help: admin-2 is not a member there.
	req, err := http.NewRequest("GET", h.BaseURL()+"/api/listings", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+org2Admin)
	req.Header.Set("X-Org-Id", "org-1")
	spoofed, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	h.AssertStatus(t, spoofed, http.StatusForbidden)
	spoofed.Body.Close()
}

func TestUserRolesEndpoint(t *testing.T) {
	h := NewTestHarness(t)

	t.Run("admin", func(t *testing.T) {
		var roles model.UserRoles
		h.AssertJSON(t, h.GET("/api/roles", h.GenerateToken(AdminClaims())),
			http.StatusOK, &roles)
		assert.Equal(t, model.RoleAdmin, roles.OrgRole)
		assert.False(t, roles.IsVendor)
	})

	t.Run("vendor member", func(t *testing.T) {
		var roles model.UserRoles
		h.AssertJSON(t, h.GET("/api/roles", h.GenerateToken(MemberClaims("member-2"))),
			http.StatusOK, &roles)
		require.Equal(t, model.RoleMember, roles.OrgRole)
		assert.True(t, roles.IsVendor)
		assert.Equal(t, "vend-9", roles.VendorID)
	})

	t.Run("non-member is rejected outright", func(t *testing.T) {
		resp := h.GET("/api/roles", h.GenerateToken(TestClaims{
			UserID: "stranger-1",
			OrgID:  "org-1",
		}))
		h.AssertStatus(t, resp, http.StatusForbidden)
		resp.Body.Close()
	})
}

func TestNonMemberCannotCreate(t *testing.T) {
	h := NewTestHarness(t)
	stranger := h.GenerateToken(TestClaims{UserID: "stranger-1", OrgID: "org-1"})

	resp := h.POST("/api/listings", model.DataRecord{
		"title": "Sneaky", "type": "equipment",
	}, stranger)
	h.AssertStatus(t, resp, http.StatusForbidden)
	resp.Body.Close()
}
