package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ghxstship/marketplace/model"
)

// PgStore is a PostgreSQL-backed RecordStore using pgx/v5. All collections
// share one table with the record body held in a JSONB column; system fields
// live in dedicated columns so the org predicate and ordering stay indexed.
type PgStore struct {
	pool     *pgxpool.Pool
	notifier model.ChangeNotifier
}

// NewPgStore creates a new PostgreSQL record store.
func NewPgStore(pool *pgxpool.Pool, notifier model.ChangeNotifier) *PgStore {
	return &PgStore{pool: pool, notifier: notifier}
}

func (s *PgStore) notify(event model.ChangeEvent) {
	if s.notifier != nil {
		s.notifier.Notify(event)
	}
}

// splitSystemFields separates store-managed columns from the JSONB body.
func splitSystemFields(rec model.DataRecord) (createdBy string, attrs map[string]any) {
	attrs = make(map[string]any, len(rec))
	for k, v := range rec {
		switch k {
		case model.FieldID, model.FieldCreatedAt, model.FieldUpdatedAt:
			// Dedicated columns.
		case model.FieldCreatedBy:
			createdBy, _ = v.(string)
		default:
			attrs[k] = v
		}
	}
	return createdBy, attrs
}

func assembleRecord(id string, createdBy string, attrsJSON []byte, createdAt, updatedAt time.Time) (model.DataRecord, error) {
	rec := make(model.DataRecord)
	if len(attrsJSON) > 0 {
		if err := json.Unmarshal(attrsJSON, (*map[string]any)(&rec)); err != nil {
			return nil, fmt.Errorf("unmarshal record attrs: %w", err)
		}
	}
	rec[model.FieldID] = id
	rec[model.FieldCreatedBy] = createdBy
	rec[model.FieldCreatedAt] = createdAt
	rec[model.FieldUpdatedAt] = updatedAt
	return rec, nil
}

// List returns filtered records ordered by creation time ascending.
func (s *PgStore) List(ctx context.Context, orgID string, entity model.EntityType, f Filters) ([]model.DataRecord, error) {
	query := strings.Builder{}
	query.WriteString(`
		SELECT id, created_by, attrs, created_at, updated_at
		FROM marketplace_records
		WHERE org_id = $1 AND entity = $2`)
	args := []any{orgID, string(entity)}

	addEq := func(field, value string) {
		if value == "" {
			return
		}
		args = append(args, value)
		fmt.Fprintf(&query, " AND attrs->>'%s' = $%d", field, len(args))
	}
	addEq("type", f.Type)
	addEq("category", f.Category)
	addEq("status", f.Status)

	if f.Featured != nil {
		args = append(args, *f.Featured)
		fmt.Fprintf(&query, " AND (attrs->>'featured')::boolean = $%d", len(args))
	}
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		fmt.Fprintf(&query, " AND (attrs->>'title' ILIKE $%d OR attrs->>'description' ILIKE $%d)",
			len(args), len(args))
	}
	if f.MinPrice != nil {
		args = append(args, *f.MinPrice)
		fmt.Fprintf(&query, " AND (attrs->'pricing'->>'amount')::numeric >= $%d", len(args))
	}
	if f.MaxPrice != nil {
		args = append(args, *f.MaxPrice)
		fmt.Fprintf(&query, " AND (attrs->'pricing'->>'amount')::numeric <= $%d", len(args))
	}

	query.WriteString(" ORDER BY created_at ASC, id ASC")

	rows, err := s.pool.Query(ctx, query.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	var result []model.DataRecord
	for rows.Next() {
		var (
			id, createdBy        string
			attrsJSON            []byte
			createdAt, updatedAt time.Time
		)
		if err := rows.Scan(&id, &createdBy, &attrsJSON, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		rec, err := assembleRecord(id, createdBy, attrsJSON, createdAt, updatedAt)
		if err != nil {
			return nil, err
		}
		result = append(result, rec)
	}
	return result, rows.Err()
}

// Get returns the record, or nil when it does not exist.
func (s *PgStore) Get(ctx context.Context, orgID string, entity model.EntityType, id string) (model.DataRecord, error) {
	var (
		createdBy            string
		attrsJSON            []byte
		createdAt, updatedAt time.Time
	)
	err := s.pool.QueryRow(ctx, `
		SELECT created_by, attrs, created_at, updated_at
		FROM marketplace_records
		WHERE org_id = $1 AND entity = $2 AND id = $3`,
		orgID, string(entity), id,
	).Scan(&createdBy, &attrsJSON, &createdAt, &updatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query record: %w", err)
	}
	return assembleRecord(id, createdBy, attrsJSON, createdAt, updatedAt)
}

// Create inserts a new record.
func (s *PgStore) Create(ctx context.Context, orgID string, entity model.EntityType, payload model.DataRecord) (model.DataRecord, error) {
	id := payload.ID()
	if id == "" {
		id = uuid.NewString()
	}
	createdBy, attrs := splitSystemFields(payload)
	attrsJSON, err := json.Marshal(attrs)
	if err != nil {
		return nil, fmt.Errorf("marshal record attrs: %w", err)
	}
	now := time.Now().UTC()

	_, err = s.pool.Exec(ctx, `
		INSERT INTO marketplace_records (
			org_id, entity, id, created_by, attrs, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		orgID, string(entity), id, createdBy, attrsJSON, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert record: %w", err)
	}

	rec, err := assembleRecord(id, createdBy, attrsJSON, now, now)
	if err != nil {
		return nil, err
	}
	s.notify(model.ChangeEvent{
		Entity: entity, OrgID: orgID, Type: model.ChangeInsert,
		RecordID: id, Record: rec,
	})
	return rec, nil
}

// Update merges a patch into the JSONB body and returns the updated record.
func (s *PgStore) Update(ctx context.Context, orgID string, entity model.EntityType, id string, patch model.DataRecord) (model.DataRecord, error) {
	_, attrs := splitSystemFields(patch)
	patchJSON, err := json.Marshal(attrs)
	if err != nil {
		return nil, fmt.Errorf("marshal patch: %w", err)
	}

	var (
		createdBy            string
		attrsJSON            []byte
		createdAt, updatedAt time.Time
	)
	err = s.pool.QueryRow(ctx, `
		UPDATE marketplace_records
		SET attrs = attrs || $4::jsonb, updated_at = $5
		WHERE org_id = $1 AND entity = $2 AND id = $3
		RETURNING created_by, attrs, created_at, updated_at`,
		orgID, string(entity), id, patchJSON, time.Now().UTC(),
	).Scan(&createdBy, &attrsJSON, &createdAt, &updatedAt)
	if err == pgx.ErrNoRows {
		return nil, model.NewNotFoundError(fmt.Sprintf("record %q not found", id))
	}
	if err != nil {
		return nil, fmt.Errorf("update record: %w", err)
	}

	rec, err := assembleRecord(id, createdBy, attrsJSON, createdAt, updatedAt)
	if err != nil {
		return nil, err
	}
	s.notify(model.ChangeEvent{
		Entity: entity, OrgID: orgID, Type: model.ChangeUpdate,
		RecordID: id, Record: rec,
	})
	return rec, nil
}

// Delete removes a record.
func (s *PgStore) Delete(ctx context.Context, orgID string, entity model.EntityType, id string) error {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM marketplace_records
		WHERE org_id = $1 AND entity = $2 AND id = $3`,
		orgID, string(entity), id,
	)
	if err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.NewNotFoundError(fmt.Sprintf("record %q not found", id))
	}

	s.notify(model.ChangeEvent{
		Entity: entity, OrgID: orgID, Type: model.ChangeDelete, RecordID: id,
	})
	return nil
}

// BulkUpdate merges one patch into many records in a single statement.
func (s *PgStore) BulkUpdate(ctx context.Context, orgID string, entity model.EntityType, ids []string, patch model.DataRecord) ([]model.DataRecord, error) {
	_, attrs := splitSystemFields(patch)
	patchJSON, err := json.Marshal(attrs)
	if err != nil {
		return nil, fmt.Errorf("marshal patch: %w", err)
	}

	rows, err := s.pool.Query(ctx, `
		UPDATE marketplace_records
		SET attrs = attrs || $4::jsonb, updated_at = $5
		WHERE org_id = $1 AND entity = $2 AND id = ANY($3)
		RETURNING id, created_by, attrs, created_at, updated_at`,
		orgID, string(entity), ids, patchJSON, time.Now().UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("bulk update: %w", err)
	}
	defer rows.Close()

	var updated []model.DataRecord
	for rows.Next() {
		var (
			id, createdBy        string
			attrsJSON            []byte
			createdAt, updatedAt time.Time
		)
		if err := rows.Scan(&id, &createdBy, &attrsJSON, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		rec, err := assembleRecord(id, createdBy, attrsJSON, createdAt, updatedAt)
		if err != nil {
			return nil, err
		}
		updated = append(updated, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, rec := range updated {
		s.notify(model.ChangeEvent{
			Entity: entity, OrgID: orgID, Type: model.ChangeUpdate,
			RecordID: rec.ID(), Record: rec,
		})
	}
	return updated, nil
}

// BulkDelete removes many records in a single statement.
func (s *PgStore) BulkDelete(ctx context.Context, orgID string, entity model.EntityType, ids []string) (int, error) {
	rows, err := s.pool.Query(ctx, `
		DELETE FROM marketplace_records
		WHERE org_id = $1 AND entity = $2 AND id = ANY($3)
		RETURNING id`,
		orgID, string(entity), ids,
	)
	if err != nil {
		return 0, fmt.Errorf("bulk delete: %w", err)
	}
	defer rows.Close()

	var deleted []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return 0, fmt.Errorf("scan id: %w", err)
		}
		deleted = append(deleted, id)
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}

	for _, id := range deleted {
		s.notify(model.ChangeEvent{
			Entity: entity, OrgID: orgID, Type: model.ChangeDelete, RecordID: id,
		})
	}
	return len(deleted), nil
}

// Owners returns created_by for each existing id in one batched query.
func (s *PgStore) Owners(ctx context.Context, orgID string, entity model.EntityType, ids []string) (map[string]string, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, created_by
		FROM marketplace_records
		WHERE org_id = $1 AND entity = $2 AND id = ANY($3)`,
		orgID, string(entity), ids,
	)
	if err != nil {
		return nil, fmt.Errorf("owners lookup: %w", err)
	}
	defer rows.Close()

	result := make(map[string]string, len(ids))
	for rows.Next() {
		var id, createdBy string
		if err := rows.Scan(&id, &createdBy); err != nil {
			return nil, fmt.Errorf("scan owner: %w", err)
		}
		result[id] = createdBy
	}
	return result, rows.Err()
}

// Schema is the DDL for the record table, applied by deployments that manage
// migrations externally.
const Schema = `
CREATE TABLE IF NOT EXISTS marketplace_records (
	org_id     TEXT        NOT NULL,
	entity     TEXT        NOT NULL,
	id         TEXT        NOT NULL,
	created_by TEXT        NOT NULL DEFAULT '',
	attrs      JSONB       NOT NULL DEFAULT '{}',
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (org_id, entity, id)
);
CREATE INDEX IF NOT EXISTS idx_marketplace_records_created
	ON marketplace_records (org_id, entity, created_at);
`
