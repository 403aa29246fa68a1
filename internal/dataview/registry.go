package dataview

import (
	"sync"

	"github.com/ghxstship/marketplace/internal/schema"
	"github.com/ghxstship/marketplace/model"
)

type viewKey struct {
	orgID  string
	entity model.EntityType
}

// Registry hands out view controllers, one per (organization, entity) pair.
// Controllers are created lazily and seeded with field configurations derived
// from the entity's column schema, so every organization starts from the same
// default view and diverges from there.
type Registry struct {
	mu     sync.Mutex
	tables map[model.EntityType][]model.ColumnSchema
	views  map[viewKey]*Controller
}

// NewRegistry creates a Registry over the given column schemas.
func NewRegistry(tables map[model.EntityType][]model.ColumnSchema) *Registry {
	return &Registry{
		tables: tables,
		views:  make(map[viewKey]*Controller),
	}
}

// View returns the controller for the given organization and entity, creating
// it on first use. The same controller is returned on every subsequent call.
func (r *Registry) View(orgID string, entity model.EntityType) *Controller {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := viewKey{orgID: orgID, entity: entity}
	if c, ok := r.views[key]; ok {
		return c
	}
	c := NewController(schema.DeriveFields(r.tables[entity]))
	r.views[key] = c
	return c
}

// DefaultFields returns the derived field configurations for an entity,
// untouched by any per-organization view state.
func (r *Registry) DefaultFields(entity model.EntityType) []model.FieldConfig {
	return schema.DeriveFields(r.tables[entity])
}
