// Package transfer renders record collections to exchange formats and parses
// them back. Formatting rules are fixed: dates as YYYY-MM-DD, booleans as
// Yes/No, currency amounts with two decimals, CSV quoting with doubled
// internal quotes.
package transfer

// Template is a named field-subset preset. Templates are static metadata,
// not computed from data.
type Template struct {
	Name   string   `json:"name"`
	Label  string   `json:"label"`
	Fields []string `json:"fields"`
}

// ExportTemplates returns the export presets.
func ExportTemplates() []Template {
	return []Template{
		{
			Name:   "basic",
			Label:  "Basic",
			Fields: []string{"title", "type", "status"},
		},
		{
			Name:  "detailed",
			Label: "Detailed",
			Fields: []string{
				"title", "description", "type", "category", "status",
				"featured", "pricing.amount", "pricing.currency", "created_at",
			},
		},
		{
			Name:  "vendor",
			Label: "Vendor Directory",
			Fields: []string{
				"name", "category", "status", "verified",
				"website_url", "contact_email", "contact_phone",
			},
		},
		{
			Name:  "analytics",
			Label: "Analytics",
			Fields: []string{
				"id", "title", "type", "category", "status", "featured",
				"pricing.amount", "created_by", "created_at", "updated_at",
			},
		},
	}
}

// ImportTemplates returns the import presets.
func ImportTemplates() []Template {
	return []Template{
		{
			Name:   "basic",
			Label:  "Basic",
			Fields: []string{"title", "type", "status"},
		},
		{
			Name:  "vendor",
			Label: "Vendor Directory",
			Fields: []string{
				"name", "category", "status",
				"website_url", "contact_email", "contact_phone",
			},
		},
		{
			Name:  "full",
			Label: "Full",
			Fields: []string{
				"title", "description", "type", "category", "status",
				"featured", "pricing.amount", "pricing.currency", "contact_email",
			},
		},
	}
}

// ExportTemplate returns the export preset with the given name, or false.
func ExportTemplate(name string) (Template, bool) {
	for _, t := range ExportTemplates() {
		if t.Name == name {
			return t, true
		}
	}
	return Template{}, false
}

// ImportTemplate returns the import preset with the given name, or false.
func ImportTemplate(name string) (Template, bool) {
	for _, t := range ImportTemplates() {
		if t.Name == name {
			return t, true
		}
	}
	return Template{}, false
}
