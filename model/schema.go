package model

// ColumnConstraint is one constraint attached to a backend column, as
// reported by the schema catalog.
type ColumnConstraint struct {
	Type       string `json:"type" yaml:"type"`
	Definition string `json:"definition" yaml:"definition"`
}

// ColumnSchema is one backend column's metadata, read from the schema
// catalog. It is the source of truth for deriving and validating
// FieldConfigs.
type ColumnSchema struct {
	Name          string             `json:"name" yaml:"name"`
	DataType      string             `json:"data_type" yaml:"data_type"`
	IsNullable    bool               `json:"is_nullable" yaml:"is_nullable"`
	ColumnDefault string             `json:"column_default" yaml:"column_default"`
	MaxLength     int                `json:"character_maximum_length,omitempty" yaml:"character_maximum_length,omitempty"`
	Constraints   []ColumnConstraint `json:"constraints,omitempty" yaml:"constraints,omitempty"`
}

// EntityType names one of the marketplace record collections.
type EntityType string

// Marketplace entity types.
const (
	EntityListings EntityType = "listings"
	EntityVendors  EntityType = "vendors"
	EntityProjects EntityType = "projects"
)

// Valid reports whether e is a known entity type.
func (e EntityType) Valid() bool {
	switch e {
	case EntityListings, EntityVendors, EntityProjects:
		return true
	}
	return false
}

// AllEntityTypes returns every known entity type.
func AllEntityTypes() []EntityType {
	return []EntityType{EntityListings, EntityVendors, EntityProjects}
}

// Listing status values.
const (
	StatusActive = "active"
	StatusDraft  = "draft"
	StatusOpen   = "open"
)

// Project visibility values.
const (
	VisibilityPublic  = "public"
	VisibilityPrivate = "private"
)
