package schema

import (
	"strings"

	"github.com/ghxstship/marketplace/model"
)

// System columns are store-managed: derived configs mark them read-only and
// keep the timestamps out of default visibility.
var systemColumns = map[string]bool{
	model.FieldID:        true,
	model.FieldCreatedAt: true,
	model.FieldUpdatedAt: true,
	model.FieldCreatedBy: true,
}

// DeriveFields builds a FieldConfig set from a table's column schema. Column
// order is preserved. The key of a derived config is the column name and must
// not change afterwards.
func DeriveFields(table []model.ColumnSchema) []model.FieldConfig {
	fields := make([]model.FieldConfig, 0, len(table))
	for _, col := range table {
		fc := model.NewFieldConfig(col.Name, labelFor(col.Name), fieldTypeFor(col))
		fc.Required = !col.IsNullable && col.ColumnDefault == ""

		if systemColumns[col.Name] {
			fc.ReadOnly = true
			fc.Required = false
		}
		if col.Name == model.FieldCreatedAt || col.Name == model.FieldUpdatedAt {
			fc.Visible = false
		}

		fields = append(fields, fc)
	}
	return fields
}

// labelFor turns a snake_case column name into a display label.
func labelFor(name string) string {
	parts := strings.Split(name, "_")
	for i, p := range parts {
		if p == "" {
			continue
		}
		if p == "id" || p == "url" {
			parts[i] = strings.ToUpper(p)
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, " ")
}

// fieldTypeFor maps a backend data type to a field type. Name hints take
// precedence over the raw type for common conventions (email, phone, url).
func fieldTypeFor(col model.ColumnSchema) model.FieldType {
	name := strings.ToLower(col.Name)
	switch {
	case strings.Contains(name, "email"):
		return model.FieldEmail
	case strings.Contains(name, "phone"):
		return model.FieldPhone
	case strings.Contains(name, "url") || strings.Contains(name, "website"):
		return model.FieldURL
	}

	switch strings.ToLower(col.DataType) {
	case "integer", "bigint", "smallint", "numeric", "decimal", "real", "double precision":
		return model.FieldNumber
	case "boolean":
		return model.FieldBoolean
	case "timestamp", "timestamptz", "timestamp with time zone",
		"timestamp without time zone", "date":
		return model.FieldDate
	case "text":
		if strings.Contains(name, "description") || strings.Contains(name, "notes") {
			return model.FieldTextarea
		}
		return model.FieldText
	default:
		return model.FieldText
	}
}
