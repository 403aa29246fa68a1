package permission

import "github.com/ghxstship/marketplace/model"

// CanViewListing reports whether the user may see one listing. Owners and
// admins see everything; everyone else sees active listings plus their own
// drafts.
func CanViewListing(rec model.DataRecord, roles model.UserRoles, userID string) bool {
	if roles.IsAdmin() {
		return true
	}
	switch rec.StringField("status") {
	case model.StatusActive:
		return true
	case model.StatusDraft:
		return rec.CreatedBy() == userID
	}
	return false
}

// CanViewProject reports whether the user may see one project: public
// projects plus their own, with owners and admins seeing everything.
func CanViewProject(rec model.DataRecord, roles model.UserRoles, userID string) bool {
	if roles.IsAdmin() {
		return true
	}
	return rec.StringField("visibility") == model.VisibilityPublic || rec.CreatedBy() == userID
}

// CanViewRecord dispatches the per-entity view rule. It gates single-record
// reads with the same predicate the list filters use, so a record hidden
// from a listing cannot be fetched by id instead.
func CanViewRecord(entity model.EntityType, rec model.DataRecord, roles model.UserRoles, userID string) bool {
	switch entity {
	case model.EntityListings, model.EntityVendors:
		return CanViewListing(rec, roles, userID)
	case model.EntityProjects:
		return CanViewProject(rec, roles, userID)
	}
	return true
}

// FilterListingsByPermissions returns the listings the user may see.
func FilterListingsByPermissions(records []model.DataRecord, roles model.UserRoles, userID string) []model.DataRecord {
	if roles.IsAdmin() {
		return records
	}

	visible := make([]model.DataRecord, 0, len(records))
	for _, rec := range records {
		if CanViewListing(rec, roles, userID) {
			visible = append(visible, rec)
		}
	}
	return visible
}

// FilterProjectsByPermissions returns the projects the user may see.
func FilterProjectsByPermissions(records []model.DataRecord, roles model.UserRoles, userID string) []model.DataRecord {
	if roles.IsAdmin() {
		return records
	}

	visible := make([]model.DataRecord, 0, len(records))
	for _, rec := range records {
		if CanViewProject(rec, roles, userID) {
			visible = append(visible, rec)
		}
	}
	return visible
}

// CanCreateProposal reports whether a proposal may be created against the
// given project. The project must be open, and private projects always deny:
// proposal access there would need an invitation mechanism that does not
// exist yet.
func CanCreateProposal(project model.DataRecord) bool {
	if project.StringField("status") != model.StatusOpen {
		return false
	}
	if project.StringField("visibility") == model.VisibilityPrivate {
		return false
	}
	return true
}
