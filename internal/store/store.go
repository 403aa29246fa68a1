// Package store abstracts backend persistence for marketplace record
// collections behind a uniform, organization-scoped interface.
package store

import (
	"context"

	"github.com/ghxstship/marketplace/model"
)

// Filters narrows a List call. Zero values mean "no constraint".
type Filters struct {
	Type     string   `json:"type,omitempty"`
	Category string   `json:"category,omitempty"`
	Status   string   `json:"status,omitempty"`
	Featured *bool    `json:"featured,omitempty"`
	Search   string   `json:"search,omitempty"`
	MinPrice *float64 `json:"min_price,omitempty"`
	MaxPrice *float64 `json:"max_price,omitempty"`
}

// RecordStore is the uniform persistence interface over one logical record
// collection per entity type. Every operation is scoped to an organization;
// cross-organization access is structurally impossible because the org
// predicate is part of every query.
type RecordStore interface {
	// List returns records matching the filters, ordered by creation time
	// ascending.
	List(ctx context.Context, orgID string, entity model.EntityType, f Filters) ([]model.DataRecord, error)

	// Get returns the record with the given id, or nil when it does not
	// exist. Absence is a result, not an error.
	Get(ctx context.Context, orgID string, entity model.EntityType, id string) (model.DataRecord, error)

	// Create persists a new record, assigning id and timestamps.
	Create(ctx context.Context, orgID string, entity model.EntityType, payload model.DataRecord) (model.DataRecord, error)

	// Update applies a patch to an existing record and returns the result.
	// Returns NOT_FOUND when the record does not exist.
	Update(ctx context.Context, orgID string, entity model.EntityType, id string, patch model.DataRecord) (model.DataRecord, error)

	// Delete removes a record. Returns NOT_FOUND when it does not exist.
	Delete(ctx context.Context, orgID string, entity model.EntityType, id string) error

	// BulkUpdate applies one patch to many records in a single backend call
	// and returns the updated records. Ids that no longer exist are skipped.
	BulkUpdate(ctx context.Context, orgID string, entity model.EntityType, ids []string, patch model.DataRecord) ([]model.DataRecord, error)

	// BulkDelete removes many records in a single backend call and returns
	// the number actually deleted.
	BulkDelete(ctx context.Context, orgID string, entity model.EntityType, ids []string) (int, error)

	// Owners returns created_by for each given id that exists in the
	// organization, in one batched lookup.
	Owners(ctx context.Context, orgID string, entity model.EntityType, ids []string) (map[string]string, error)
}

// MatchFilters evaluates the in-memory filter semantics shared by the memory
// store and export: equality on discrete fields, case-insensitive substring
// search over title and description, and a numeric range on the nested
// pricing amount.
func MatchFilters(rec model.DataRecord, f Filters) bool {
	if f.Type != "" && rec.StringField("type") != f.Type {
		return false
	}
	if f.Category != "" && rec.StringField("category") != f.Category {
		return false
	}
	if f.Status != "" && rec.StringField("status") != f.Status {
		return false
	}
	if f.Featured != nil {
		featured, _ := rec["featured"].(bool)
		if featured != *f.Featured {
			return false
		}
	}
	if f.Search != "" && !matchSearch(rec, f.Search) {
		return false
	}
	if f.MinPrice != nil || f.MaxPrice != nil {
		amount, ok := priceAmount(rec)
		if !ok {
			return false
		}
		if f.MinPrice != nil && amount < *f.MinPrice {
			return false
		}
		if f.MaxPrice != nil && amount > *f.MaxPrice {
			return false
		}
	}
	return true
}
