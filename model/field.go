package model

// FieldType is the closed set of value kinds a field can hold. Values are
// checked against the field type once at the FieldConfig boundary instead of
// in every consumer.
type FieldType string

// Supported field types.
const (
	FieldText        FieldType = "text"
	FieldTextarea    FieldType = "textarea"
	FieldNumber      FieldType = "number"
	FieldCurrency    FieldType = "currency"
	FieldBoolean     FieldType = "boolean"
	FieldDate        FieldType = "date"
	FieldSelect      FieldType = "select"
	FieldMultiselect FieldType = "multiselect"
	FieldEmail       FieldType = "email"
	FieldPhone       FieldType = "phone"
	FieldURL         FieldType = "url"
)

// Valid reports whether t is one of the supported field types.
func (t FieldType) Valid() bool {
	switch t {
	case FieldText, FieldTextarea, FieldNumber, FieldCurrency, FieldBoolean,
		FieldDate, FieldSelect, FieldMultiselect, FieldEmail, FieldPhone, FieldURL:
		return true
	}
	return false
}

// HasOptions reports whether the type carries an option list.
func (t FieldType) HasOptions() bool {
	return t == FieldSelect || t == FieldMultiselect
}

// Option is one selectable value for select and multiselect fields.
type Option struct {
	Value string `json:"value" yaml:"value"`
	Label string `json:"label" yaml:"label"`
}

// FieldConfig describes one displayable or editable attribute of a record.
// Key matches the underlying storage column when the config is derived from
// a ColumnSchema, and is immutable afterwards.
type FieldConfig struct {
	Key        string    `json:"key" yaml:"key"`
	Label      string    `json:"label" yaml:"label"`
	Type       FieldType `json:"type" yaml:"type"`
	Required   bool      `json:"required,omitempty" yaml:"required,omitempty"`
	ReadOnly   bool      `json:"readonly,omitempty" yaml:"readonly,omitempty"`
	Visible    bool      `json:"visible" yaml:"visible"`
	Sortable   bool      `json:"sortable" yaml:"sortable"`
	Filterable bool      `json:"filterable" yaml:"filterable"`
	Options    []Option  `json:"options,omitempty" yaml:"options,omitempty"`
	Width      int       `json:"width,omitempty" yaml:"width,omitempty"`
}

// NewFieldConfig returns a FieldConfig with the visibility, sortability, and
// filterability defaults applied.
func NewFieldConfig(key, label string, typ FieldType) FieldConfig {
	return FieldConfig{
		Key:        key,
		Label:      label,
		Type:       typ,
		Visible:    true,
		Sortable:   true,
		Filterable: true,
	}
}
