package model

import "strings"

// Record field keys managed by the store rather than callers.
const (
	FieldID        = "id"
	FieldCreatedAt = "created_at"
	FieldUpdatedAt = "updated_at"
	FieldCreatedBy = "created_by"
)

// DataRecord is an opaque mapping from field key to value. The id field is
// always present once persisted; created_at and updated_at are managed by the
// store. The canonical copy lives in the store adapter; consumers edit a
// working copy and hand it back through the orchestration engine.
type DataRecord map[string]any

// ID returns the record's id, or "" if unset.
func (r DataRecord) ID() string {
	id, _ := r[FieldID].(string)
	return id
}

// CreatedBy returns the id of the user who created the record, or "".
func (r DataRecord) CreatedBy() string {
	by, _ := r[FieldCreatedBy].(string)
	return by
}

// StringField returns the named field as a string, or "" if absent or not a
// string.
func (r DataRecord) StringField(key string) string {
	s, _ := ResolvePath(r, key).(string)
	return s
}

// Clone returns a shallow copy of the record. Nested values are shared.
func (r DataRecord) Clone() DataRecord {
	out := make(DataRecord, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// ResolvePath resolves a dot-separated field path ("pricing.amount") against
// a record, descending through nested maps. Returns nil when any segment is
// missing or not a map. This is the single path-resolution implementation
// shared by validation, export, and display.
func ResolvePath(r map[string]any, path string) any {
	if r == nil || path == "" {
		return nil
	}
	if !strings.Contains(path, ".") {
		return r[path]
	}
	var cur any = map[string]any(r)
	for _, seg := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			if dr, isRec := cur.(DataRecord); isRec {
				m = map[string]any(dr)
			} else {
				return nil
			}
		}
		cur, ok = m[seg]
		if !ok {
			return nil
		}
	}
	return cur
}
