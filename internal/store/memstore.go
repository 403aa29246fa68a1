package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ghxstship/marketplace/model"
)

// MemoryStore is an in-memory RecordStore used for tests and single-node
// deployments. Records are keyed by (org, entity, id).
type MemoryStore struct {
	mu       sync.RWMutex
	records  map[string]map[string]model.DataRecord // key: orgID/entity
	notifier model.ChangeNotifier
}

// NewMemoryStore creates a new in-memory record store. The notifier may be
// nil when change propagation is not needed.
func NewMemoryStore(notifier model.ChangeNotifier) *MemoryStore {
	return &MemoryStore{
		records:  make(map[string]map[string]model.DataRecord),
		notifier: notifier,
	}
}

func collectionKey(orgID string, entity model.EntityType) string {
	return orgID + "/" + string(entity)
}

func (s *MemoryStore) collection(orgID string, entity model.EntityType) map[string]model.DataRecord {
	key := collectionKey(orgID, entity)
	coll, ok := s.records[key]
	if !ok {
		coll = make(map[string]model.DataRecord)
		s.records[key] = coll
	}
	return coll
}

func (s *MemoryStore) notify(event model.ChangeEvent) {
	if s.notifier != nil {
		s.notifier.Notify(event)
	}
}

// List returns filtered records ordered by creation time ascending.
func (s *MemoryStore) List(_ context.Context, orgID string, entity model.EntityType, f Filters) ([]model.DataRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []model.DataRecord
	for _, rec := range s.records[collectionKey(orgID, entity)] {
		if MatchFilters(rec, f) {
			result = append(result, rec.Clone())
		}
	}

	sort.Slice(result, func(i, j int) bool {
		ti, _ := result[i][model.FieldCreatedAt].(time.Time)
		tj, _ := result[j][model.FieldCreatedAt].(time.Time)
		if ti.Equal(tj) {
			return result[i].ID() < result[j].ID()
		}
		return ti.Before(tj)
	})
	return result, nil
}

// Get returns a clone of the record, or nil when it does not exist.
func (s *MemoryStore) Get(_ context.Context, orgID string, entity model.EntityType, id string) (model.DataRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[collectionKey(orgID, entity)][id]
	if !ok {
		return nil, nil
	}
	return rec.Clone(), nil
}

// Create persists a new record, assigning id and timestamps.
func (s *MemoryStore) Create(_ context.Context, orgID string, entity model.EntityType, payload model.DataRecord) (model.DataRecord, error) {
	rec := payload.Clone()
	if rec.ID() == "" {
		rec[model.FieldID] = uuid.NewString()
	}
	now := time.Now().UTC()
	rec[model.FieldCreatedAt] = now
	rec[model.FieldUpdatedAt] = now

	s.mu.Lock()
	coll := s.collection(orgID, entity)
	if _, exists := coll[rec.ID()]; exists {
		s.mu.Unlock()
		return nil, model.NewConflictError(
			fmt.Sprintf("record %q already exists", rec.ID()),
		)
	}
	coll[rec.ID()] = rec
	s.mu.Unlock()

	s.notify(model.ChangeEvent{
		Entity: entity, OrgID: orgID, Type: model.ChangeInsert,
		RecordID: rec.ID(), Record: rec.Clone(),
	})
	return rec.Clone(), nil
}

// Update applies a patch to an existing record.
func (s *MemoryStore) Update(_ context.Context, orgID string, entity model.EntityType, id string, patch model.DataRecord) (model.DataRecord, error) {
	s.mu.Lock()
	coll := s.records[collectionKey(orgID, entity)]
	rec, ok := coll[id]
	if !ok {
		s.mu.Unlock()
		return nil, model.NewNotFoundError(fmt.Sprintf("record %q not found", id))
	}

	updated := rec.Clone()
	for k, v := range patch {
		if k == model.FieldID || k == model.FieldCreatedAt {
			continue
		}
		updated[k] = v
	}
	updated[model.FieldUpdatedAt] = time.Now().UTC()
	coll[id] = updated
	s.mu.Unlock()

	s.notify(model.ChangeEvent{
		Entity: entity, OrgID: orgID, Type: model.ChangeUpdate,
		RecordID: id, Record: updated.Clone(),
	})
	return updated.Clone(), nil
}

// Delete removes a record.
func (s *MemoryStore) Delete(_ context.Context, orgID string, entity model.EntityType, id string) error {
	s.mu.Lock()
	coll := s.records[collectionKey(orgID, entity)]
	if _, ok := coll[id]; !ok {
		s.mu.Unlock()
		return model.NewNotFoundError(fmt.Sprintf("record %q not found", id))
	}
	delete(coll, id)
	s.mu.Unlock()

	s.notify(model.ChangeEvent{
		Entity: entity, OrgID: orgID, Type: model.ChangeDelete, RecordID: id,
	})
	return nil
}

// BulkUpdate applies one patch to many records. Missing ids are skipped.
func (s *MemoryStore) BulkUpdate(_ context.Context, orgID string, entity model.EntityType, ids []string, patch model.DataRecord) ([]model.DataRecord, error) {
	now := time.Now().UTC()

	s.mu.Lock()
	coll := s.records[collectionKey(orgID, entity)]
	updated := make([]model.DataRecord, 0, len(ids))
	for _, id := range ids {
		rec, ok := coll[id]
		if !ok {
			continue
		}
		next := rec.Clone()
		for k, v := range patch {
			if k == model.FieldID || k == model.FieldCreatedAt {
				continue
			}
			next[k] = v
		}
		next[model.FieldUpdatedAt] = now
		coll[id] = next
		updated = append(updated, next.Clone())
	}
	s.mu.Unlock()

	for _, rec := range updated {
		s.notify(model.ChangeEvent{
			Entity: entity, OrgID: orgID, Type: model.ChangeUpdate,
			RecordID: rec.ID(), Record: rec.Clone(),
		})
	}
	return updated, nil
}

// BulkDelete removes many records and returns the number deleted.
func (s *MemoryStore) BulkDelete(_ context.Context, orgID string, entity model.EntityType, ids []string) (int, error) {
	s.mu.Lock()
	coll := s.records[collectionKey(orgID, entity)]
	var deleted []string
	for _, id := range ids {
		if _, ok := coll[id]; ok {
			delete(coll, id)
			deleted = append(deleted, id)
		}
	}
	s.mu.Unlock()

	for _, id := range deleted {
		s.notify(model.ChangeEvent{
			Entity: entity, OrgID: orgID, Type: model.ChangeDelete, RecordID: id,
		})
	}
	return len(deleted), nil
}

// Owners returns created_by for each existing id in one pass.
func (s *MemoryStore) Owners(_ context.Context, orgID string, entity model.EntityType, ids []string) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	coll := s.records[collectionKey(orgID, entity)]
	result := make(map[string]string, len(ids))
	for _, id := range ids {
		if rec, ok := coll[id]; ok {
			result[id] = rec.CreatedBy()
		}
	}
	return result, nil
}

// Len returns the record count for one collection. For testing.
func (s *MemoryStore) Len(orgID string, entity model.EntityType) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records[collectionKey(orgID, entity)])
}

func matchSearch(rec model.DataRecord, term string) bool {
	needle := strings.ToLower(term)
	return strings.Contains(strings.ToLower(rec.StringField("title")), needle) ||
		strings.Contains(strings.ToLower(rec.StringField("description")), needle)
}

func priceAmount(rec model.DataRecord) (float64, bool) {
	switch v := model.ResolvePath(rec, "pricing.amount").(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}
