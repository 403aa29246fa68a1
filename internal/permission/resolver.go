// Package permission decides whether CRUD and bulk actions are allowed,
// based on organization role and record ownership.
package permission

import (
	"context"
	"fmt"
	"sync"

	"github.com/ghxstship/marketplace/model"
)

// OwnershipSource answers batched existence and ownership questions for a
// record collection. Store adapters implement it.
type OwnershipSource interface {
	// Owners returns created_by for each of the given ids that exists in the
	// organization. Missing ids are simply absent from the result.
	Owners(ctx context.Context, orgID string, entity model.EntityType, ids []string) (map[string]string, error)
}

// Resolver evaluates role and ownership rules. Its methods are pure reads:
// they never mutate state and are cheap enough to call once per
// authorization decision. Role lookups are performed fresh on every call.
type Resolver struct {
	directory model.RoleDirectory
	owners    OwnershipSource
}

// NewResolver creates a Resolver backed by the given role directory and
// ownership source.
func NewResolver(directory model.RoleDirectory, owners OwnershipSource) *Resolver {
	return &Resolver{directory: directory, owners: owners}
}

// GetUserRoles resolves the org role and vendor status for one (org, user)
// pair. The two directory lookups run concurrently.
func (r *Resolver) GetUserRoles(ctx context.Context, orgID, userID string) (model.UserRoles, error) {
	var (
		wg        sync.WaitGroup
		role      model.OrgRole
		vendorID  string
		roleErr   error
		vendorErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		role, roleErr = r.directory.OrgRole(orgID, userID)
	}()
	go func() {
		defer wg.Done()
		vendorID, vendorErr = r.directory.Vendor(orgID, userID)
	}()
	wg.Wait()

	if roleErr != nil {
		return model.UserRoles{}, fmt.Errorf("resolve org role: %w", roleErr)
	}
	if vendorErr != nil {
		return model.UserRoles{}, fmt.Errorf("resolve vendor: %w", vendorErr)
	}

	return model.UserRoles{
		OrgRole:  role,
		IsVendor: vendorID != "",
		VendorID: vendorID,
	}, nil
}

// CanCreate reports whether the user may create a record. Any member may
// create; managers and admins included.
func (r *Resolver) CanCreate(roles model.UserRoles) bool {
	return roles.IsMember()
}

// CanUpdate reports whether the user may update the given record.
// Owner/admin and manager have full update rights; a plain member may update
// only records they created.
func (r *Resolver) CanUpdate(roles model.UserRoles, record model.DataRecord, userID string) bool {
	switch roles.OrgRole {
	case model.RoleOwner, model.RoleAdmin, model.RoleManager:
		return true
	case model.RoleMember:
		return record.CreatedBy() == userID
	}
	return false
}

// CanDelete reports whether the user may delete the given record. Same rule
// as update.
func (r *Resolver) CanDelete(roles model.UserRoles, record model.DataRecord, userID string) bool {
	return r.CanUpdate(roles, record, userID)
}

// CanFeature reports whether the user may feature a listing. Owner/admin
// only.
func (r *Resolver) CanFeature(roles model.UserRoles) bool {
	return roles.IsAdmin()
}

// CanVerifyVendor reports whether the user may verify a vendor. Owner/admin
// only; managers explicitly excluded.
func (r *Resolver) CanVerifyVendor(roles model.UserRoles) bool {
	return roles.IsAdmin()
}

// CanImport reports whether the user may run imports. Owner/admin only.
func (r *Resolver) CanImport(roles model.UserRoles) bool {
	return roles.IsAdmin()
}

// CanExport reports whether the user may export. Any active member.
func (r *Resolver) CanExport(roles model.UserRoles) bool {
	return roles.IsMember()
}

// AuthorizeBulk checks a bulk update or delete over the given id set.
// Owner/admin bypass the ownership check entirely. Anyone else must own
// every targeted record, verified by one batched lookup; a single foreign or
// missing record denies the whole action.
func (r *Resolver) AuthorizeBulk(ctx context.Context, orgID, userID string, roles model.UserRoles, entity model.EntityType, ids []string) error {
	if len(ids) == 0 {
		return model.NewBadRequestError("no record ids given")
	}
	if roles.IsAdmin() {
		return nil
	}
	if !roles.IsMember() {
		return model.NewForbiddenError("Insufficient permissions for bulk operation")
	}

	owners, err := r.owners.Owners(ctx, orgID, entity, ids)
	if err != nil {
		return fmt.Errorf("ownership lookup: %w", err)
	}

	for _, id := range ids {
		owner, exists := owners[id]
		if !exists || owner != userID {
			return model.NewForbiddenError(
				fmt.Sprintf("Insufficient permissions for bulk operation on record %q", id),
			)
		}
	}
	return nil
}
