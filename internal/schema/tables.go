package schema

import "github.com/ghxstship/marketplace/model"

// DefaultTables returns the column schemas for the marketplace collections.
// Deployments that introspect a live catalog replace these at wiring time;
// the shapes here match the reference migrations.
func DefaultTables() map[model.EntityType][]model.ColumnSchema {
	return map[model.EntityType][]model.ColumnSchema{
		model.EntityListings: {
			{Name: "id", DataType: "uuid", ColumnDefault: "gen_random_uuid()"},
			{Name: "title", DataType: "text", IsNullable: false,
				Constraints: []model.ColumnConstraint{
					{Type: "check", Definition: "length(title) <= 200"},
				}},
			{Name: "description", DataType: "text", IsNullable: true},
			{Name: "type", DataType: "text", IsNullable: false, ColumnDefault: "'equipment'"},
			{Name: "category", DataType: "text", IsNullable: true},
			{Name: "status", DataType: "text", IsNullable: false, ColumnDefault: "'draft'"},
			{Name: "featured", DataType: "boolean", IsNullable: true, ColumnDefault: "false"},
			{Name: "pricing", DataType: "jsonb", IsNullable: true},
			{Name: "contact_email", DataType: "text", IsNullable: true},
			{Name: "created_by", DataType: "uuid", IsNullable: true},
			{Name: "created_at", DataType: "timestamptz", ColumnDefault: "now()"},
			{Name: "updated_at", DataType: "timestamptz", ColumnDefault: "now()"},
		},
		model.EntityVendors: {
			{Name: "id", DataType: "uuid", ColumnDefault: "gen_random_uuid()"},
			{Name: "name", DataType: "text", IsNullable: false,
				Constraints: []model.ColumnConstraint{
					{Type: "check", Definition: "length(name) <= 120"},
				}},
			{Name: "description", DataType: "text", IsNullable: true},
			{Name: "category", DataType: "text", IsNullable: true},
			{Name: "status", DataType: "text", IsNullable: false, ColumnDefault: "'draft'"},
			{Name: "verified", DataType: "boolean", IsNullable: true, ColumnDefault: "false"},
			{Name: "website_url", DataType: "text", IsNullable: true},
			{Name: "contact_email", DataType: "text", IsNullable: true},
			{Name: "contact_phone", DataType: "text", IsNullable: true},
			{Name: "created_by", DataType: "uuid", IsNullable: true},
			{Name: "created_at", DataType: "timestamptz", ColumnDefault: "now()"},
			{Name: "updated_at", DataType: "timestamptz", ColumnDefault: "now()"},
		},
		model.EntityProjects: {
			{Name: "id", DataType: "uuid", ColumnDefault: "gen_random_uuid()"},
			{Name: "title", DataType: "text", IsNullable: false,
				Constraints: []model.ColumnConstraint{
					{Type: "check", Definition: "length(title) <= 200"},
				}},
			{Name: "description", DataType: "text", IsNullable: true},
			{Name: "status", DataType: "text", IsNullable: false, ColumnDefault: "'open'"},
			{Name: "visibility", DataType: "text", IsNullable: false, ColumnDefault: "'public'"},
			{Name: "budget", DataType: "jsonb", IsNullable: true},
			{Name: "deadline", DataType: "date", IsNullable: true},
			{Name: "created_by", DataType: "uuid", IsNullable: true},
			{Name: "created_at", DataType: "timestamptz", ColumnDefault: "now()"},
			{Name: "updated_at", DataType: "timestamptz", ColumnDefault: "now()"},
		},
	}
}
