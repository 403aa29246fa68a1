// Package schema validates candidate records against backend column
// definitions and derives field configurations from them.
package schema

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ghxstship/marketplace/model"
)

// Validator checks candidate records against a table's column schema.
// Validation failures are data, not errors: the returned slice is empty when
// the record is valid.
type Validator struct{}

// NewValidator creates a new Validator.
func NewValidator() *Validator {
	return &Validator{}
}

var uuidPattern = regexp.MustCompile(
	`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

// lengthBoundPattern extracts the numeric bound from check-constraint text
// such as "length(title) <= 255" or "char_length(name) < 100".
var lengthBoundPattern = regexp.MustCompile(`length\([^)]*\)\s*<=?\s*(\d+)`)

// Validate checks record against the column schema. For inserts
// (isUpdate=false) every non-nullable column without a default must carry a
// non-empty value. Present values are checked against the column's declared
// data type, and string values against the column's maximum length and any
// length bound found in check constraints, whichever is tighter. Errors
// follow column declaration order so output is deterministic for a given
// (record, schema) pair.
func (v *Validator) Validate(record map[string]any, table []model.ColumnSchema, isUpdate bool) []model.ValidationError {
	var errs []model.ValidationError

	for _, col := range table {
		value, present := record[col.Name]

		if !isUpdate && !col.IsNullable && col.ColumnDefault == "" && isEmpty(value) {
			errs = append(errs, model.ValidationError{
				Field:   col.Name,
				Message: fmt.Sprintf("%s is required", col.Name),
				Type:    model.ValidationRequired,
			})
			continue
		}

		if !present || value == nil {
			continue
		}

		if !typeCompatible(value, col.DataType) {
			errs = append(errs, model.ValidationError{
				Field:   col.Name,
				Message: fmt.Sprintf("%s must be of type %s", col.Name, col.DataType),
				Type:    model.ValidationType,
				Value:   value,
			})
			continue
		}

		if s, ok := value.(string); ok {
			bound, found := lengthBound(col.Constraints)
			if col.MaxLength > 0 && (!found || col.MaxLength < bound) {
				bound, found = col.MaxLength, true
			}
			if found && len(s) > bound {
				errs = append(errs, model.ValidationError{
					Field:   col.Name,
					Message: fmt.Sprintf("%s must be at most %d characters", col.Name, bound),
					Type:    model.ValidationConstraint,
					Value:   value,
				})
			}
		}
	}

	return errs
}

// isEmpty reports whether a candidate value counts as missing for the
// required-field check: absent, nil, or the empty string.
func isEmpty(value any) bool {
	if value == nil {
		return true
	}
	s, ok := value.(string)
	return ok && s == ""
}

// typeCompatible checks a value against a backend data type. String inputs
// are accepted for numeric and boolean columns when they parse, matching how
// form submissions arrive. Unknown types pass.
func typeCompatible(value any, dataType string) bool {
	switch strings.ToLower(dataType) {
	case "uuid":
		s, ok := value.(string)
		return ok && uuidPattern.MatchString(s)

	case "integer", "bigint", "smallint":
		switch n := value.(type) {
		case int, int32, int64:
			return true
		case float64:
			return n == float64(int64(n))
		case string:
			_, err := strconv.ParseInt(n, 10, 64)
			return err == nil
		}
		return false

	case "numeric", "decimal", "real", "double precision":
		switch n := value.(type) {
		case int, int32, int64, float32, float64:
			return true
		case string:
			_, err := strconv.ParseFloat(n, 64)
			return err == nil
		default:
			_ = n
		}
		return false

	case "boolean":
		switch b := value.(type) {
		case bool:
			return true
		case string:
			return b == "true" || b == "false"
		}
		return false

	case "timestamp", "timestamptz", "timestamp with time zone",
		"timestamp without time zone", "date":
		switch d := value.(type) {
		case time.Time:
			return true
		case string:
			return parseableDate(d)
		}
		return false

	case "json", "jsonb":
		switch j := value.(type) {
		case map[string]any, []any:
			return true
		case string:
			return json.Valid([]byte(j))
		}
		return false

	case "text", "varchar", "character varying", "character", "char":
		_, ok := value.(string)
		return ok

	default:
		return true
	}
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02",
	"2006-01-02 15:04:05",
}

func parseableDate(s string) bool {
	for _, layout := range dateLayouts {
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}
	return false
}

// lengthBound scans check constraints for a textual length bound and returns
// the first one found.
func lengthBound(constraints []model.ColumnConstraint) (int, bool) {
	for _, c := range constraints {
		if !strings.EqualFold(c.Type, "check") {
			continue
		}
		m := lengthBoundPattern.FindStringSubmatch(strings.ToLower(c.Definition))
		if m == nil {
			continue
		}
		bound, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		return bound, true
	}
	return 0, false
}
