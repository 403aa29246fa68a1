package model

// OrgRole is a user's role within an organization.
type OrgRole string

// Organization roles, strongest first.
const (
	RoleOwner   OrgRole = "owner"
	RoleAdmin   OrgRole = "admin"
	RoleManager OrgRole = "manager"
	RoleMember  OrgRole = "member"
)

// UserRoles is the resolved role and vendor status for one (org, user) pair.
// It is computed on demand for each authorization decision and never cached
// across requests.
type UserRoles struct {
	OrgRole  OrgRole `json:"org_role,omitempty"`
	IsVendor bool    `json:"is_vendor"`
	VendorID string  `json:"vendor_id,omitempty"`
}

// IsAdmin reports whether the role is owner or admin.
func (u UserRoles) IsAdmin() bool {
	return u.OrgRole == RoleOwner || u.OrgRole == RoleAdmin
}

// IsMember reports whether the user holds any role in the organization.
func (u UserRoles) IsMember() bool {
	return u.OrgRole != ""
}

// RoleDirectory resolves organization membership and vendor status. The two
// lookups back a single authorization decision and may be called
// concurrently.
type RoleDirectory interface {
	// OrgRole returns the user's role in the organization, or "" when the
	// user is not a member. Membership absence is not an error.
	OrgRole(orgID, userID string) (OrgRole, error)

	// Vendor returns the vendor id the user belongs to, or "" when the user
	// is not a vendor.
	Vendor(orgID, userID string) (string, error)
}
