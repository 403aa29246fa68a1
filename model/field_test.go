package model

import "testing"

func TestFieldType_Valid(t *testing.T) {
	valid := []FieldType{
		FieldText, FieldTextarea, FieldNumber, FieldCurrency, FieldBoolean,
		FieldDate, FieldSelect, FieldMultiselect, FieldEmail, FieldPhone, FieldURL,
	}
	for _, ft := range valid {
		if !ft.Valid() {
			t.Errorf("FieldType(%q).Valid() = false, want true", ft)
		}
	}
	if FieldType("geometry").Valid() {
		t.Error("unknown field type should not be valid")
	}
}

func TestFieldType_HasOptions(t *testing.T) {
	if !FieldSelect.HasOptions() || !FieldMultiselect.HasOptions() {
		t.Error("select and multiselect should carry options")
	}
	if FieldText.HasOptions() {
		t.Error("text should not carry options")
	}
}

func TestNewFieldConfig_Defaults(t *testing.T) {
	fc := NewFieldConfig("title", "Title", FieldText)
	if !fc.Visible || !fc.Sortable || !fc.Filterable {
		t.Errorf("defaults = visible:%v sortable:%v filterable:%v, want all true",
			fc.Visible, fc.Sortable, fc.Filterable)
	}
	if fc.Required || fc.ReadOnly {
		t.Error("required and readonly should default to false")
	}
}

func TestNewFilterConfig_Label(t *testing.T) {
	fc := NewFilterConfig(FilterCondition{Field: "status", Operator: OpEquals, Value: "active"})
	want := "status equals active"
	if fc.Label != want {
		t.Errorf("Label = %q, want %q", fc.Label, want)
	}
}
