package model

// ChangeType classifies a record change notification.
type ChangeType string

// Change types.
const (
	ChangeInsert ChangeType = "insert"
	ChangeUpdate ChangeType = "update"
	ChangeDelete ChangeType = "delete"
)

// ChangeEvent is one record change, published by store adapters after a
// successful mutation and fanned out to realtime subscribers. Delete events
// carry only the record id.
type ChangeEvent struct {
	Entity   EntityType `json:"entity"`
	OrgID    string     `json:"org_id"`
	Type     ChangeType `json:"type"`
	RecordID string     `json:"record_id"`
	Record   DataRecord `json:"record,omitempty"`
}

// ChangeNotifier receives change events. Implementations must not block the
// publishing store.
type ChangeNotifier interface {
	Notify(event ChangeEvent)
}
