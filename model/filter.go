package model

import "fmt"

// FilterOperator is the comparison applied by a FilterCondition.
type FilterOperator string

// Supported filter operators.
const (
	OpEquals      FilterOperator = "equals"
	OpNotEquals   FilterOperator = "not_equals"
	OpContains    FilterOperator = "contains"
	OpStartsWith  FilterOperator = "starts_with"
	OpEndsWith    FilterOperator = "ends_with"
	OpGreaterThan FilterOperator = "greater_than"
	OpLessThan    FilterOperator = "less_than"
	OpBefore      FilterOperator = "before"
	OpAfter       FilterOperator = "after"
	OpBetween     FilterOperator = "between"
)

// FilterCondition is one predicate on a record field. Conditions on distinct
// fields combine with AND; exact combination semantics belong to the store
// adapter.
type FilterCondition struct {
	Field    string         `json:"field"`
	Operator FilterOperator `json:"operator"`
	Value    any            `json:"value"`
}

// FilterConfig is a FilterCondition plus a display label derived from the
// condition.
type FilterConfig struct {
	FilterCondition
	Label string `json:"label"`
}

// NewFilterConfig derives the display label from the condition.
func NewFilterConfig(cond FilterCondition) FilterConfig {
	return FilterConfig{
		FilterCondition: cond,
		Label:           fmt.Sprintf("%s %s %v", cond.Field, cond.Operator, cond.Value),
	}
}

// SortDirection orders a sorted field ascending or descending.
type SortDirection string

// Sort directions.
const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// SortConfig is one sort key. At most one SortConfig per field key; list
// position defines tie-break priority with the first entry highest.
type SortConfig struct {
	Field     string        `json:"field"`
	Direction SortDirection `json:"direction"`
}
