// Package crud orchestrates record mutations: every operation validates,
// authorizes against a fresh read, persists, and reconciles, in that order.
// Failures surface as field-error data so one rendering path handles
// validation, permission, and infrastructure failures alike.
package crud

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ghxstship/marketplace/internal/permission"
	"github.com/ghxstship/marketplace/internal/schema"
	"github.com/ghxstship/marketplace/internal/store"
	"github.com/ghxstship/marketplace/model"
)

// OperationMetrics describes one orchestrated call, returned to the caller
// instead of being tracked in any UI layer.
type OperationMetrics struct {
	Duration time.Duration `json:"duration"`
	Attempts int           `json:"attempts"`
}

// Result is the outcome of a single-record operation. Errors empty means
// success. Code carries the model error code of the failure class so
// transports can map status without re-parsing messages.
type Result struct {
	Record  model.DataRecord        `json:"record,omitempty"`
	Errors  []model.ValidationError `json:"errors,omitempty"`
	Code    string                  `json:"code,omitempty"`
	Metrics OperationMetrics        `json:"metrics"`
}

// OK reports whether the operation succeeded.
func (r Result) OK() bool { return len(r.Errors) == 0 }

// BulkResult is the outcome of a bulk operation. The permission check is
// all-or-nothing, but persistence may partially succeed; Success and Failed
// report what actually happened rather than asserting uniformity.
type BulkResult struct {
	Success int                `json:"success"`
	Failed  int                `json:"failed"`
	Errors  []string           `json:"errors,omitempty"`
	Records []model.DataRecord `json:"records,omitempty"`
	Code    string             `json:"code,omitempty"`
	Metrics OperationMetrics   `json:"metrics"`
}

// OK reports whether every targeted record was mutated.
func (r BulkResult) OK() bool { return r.Failed == 0 && len(r.Errors) == 0 }

// DataChangeFunc receives the full updated collection after every successful
// mutation. Snapshots, not diffs: collections are small enough that handing
// the whole state over removes partial-update bugs.
type DataChangeFunc func(entity model.EntityType, orgID string, records []model.DataRecord)

// Observer receives operation lifecycle events for telemetry.
type Observer interface {
	OnOperation(ctx context.Context, event OperationEvent)
}

// OperationEvent describes one completed operation. Code carries the model
// error code of a failure so observers can classify without re-parsing
// messages; BulkSuccess and BulkFailed are populated for bulk operations
// only.
type OperationEvent struct {
	Entity      model.EntityType
	Op          string
	OrgID       string
	UserID      string
	Success     bool
	Code        string
	Duration    time.Duration
	Bulk        bool
	BulkSuccess int
	BulkFailed  int
}

// Engine combines validation, authorization, and persistence for all record
// mutations.
type Engine struct {
	validator   *schema.Validator
	permissions *permission.Resolver
	records     store.RecordStore
	tables      map[model.EntityType][]model.ColumnSchema
	onChange    DataChangeFunc
	observers   []Observer
	logger      *zap.Logger
}

// Option configures optional Engine dependencies.
type Option func(*Engine)

// WithDataChange sets the collection snapshot callback.
func WithDataChange(fn DataChangeFunc) Option {
	return func(e *Engine) { e.onChange = fn }
}

// WithObserver adds an operation observer.
func WithObserver(obs Observer) Option {
	return func(e *Engine) { e.observers = append(e.observers, obs) }
}

// WithLogger sets the engine logger.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// NewEngine creates an Engine over the given store, permission resolver, and
// table schemas.
func NewEngine(
	records store.RecordStore,
	permissions *permission.Resolver,
	tables map[model.EntityType][]model.ColumnSchema,
	opts ...Option,
) *Engine {
	e := &Engine{
		validator:   schema.NewValidator(),
		permissions: permissions,
		records:     records,
		tables:      tables,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ValidateRecord checks a full payload against the entity schema without
// touching the store. Used by dry-run imports.
func (e *Engine) ValidateRecord(entity model.EntityType, payload model.DataRecord) []model.ValidationError {
	return e.validator.Validate(payload, e.tables[entity], false)
}

// ValidatePatch checks a partial payload, skipping required-field checks.
func (e *Engine) ValidatePatch(entity model.EntityType, patch model.DataRecord) []model.ValidationError {
	return e.validator.Validate(patch, e.tables[entity], true)
}

// List returns the records visible to the caller under the given filters.
// Visibility is a permission concern, applied after the store query.
func (e *Engine) List(ctx context.Context, rctx *model.RequestContext, entity model.EntityType, f store.Filters) ([]model.DataRecord, error) {
	roles, err := e.permissions.GetUserRoles(ctx, rctx.OrgID, rctx.UserID)
	if err != nil {
		return nil, err
	}

	records, err := e.records.List(ctx, rctx.OrgID, entity, f)
	if err != nil {
		return nil, err
	}

	switch entity {
	case model.EntityListings, model.EntityVendors:
		return permission.FilterListingsByPermissions(records, roles, rctx.UserID), nil
	case model.EntityProjects:
		return permission.FilterProjectsByPermissions(records, roles, rctx.UserID), nil
	}
	return records, nil
}

// Get returns one record, or nil when it does not exist. A record the caller
// may not see is also nil: reporting it as absent rather than forbidden keeps
// hidden records unprobeable by id.
func (e *Engine) Get(ctx context.Context, rctx *model.RequestContext, entity model.EntityType, id string) (model.DataRecord, error) {
	rec, err := e.records.Get(ctx, rctx.OrgID, entity, id)
	if err != nil || rec == nil {
		return rec, err
	}

	roles, err := e.permissions.GetUserRoles(ctx, rctx.OrgID, rctx.UserID)
	if err != nil {
		return nil, err
	}
	if !permission.CanViewRecord(entity, rec, roles, rctx.UserID) {
		return nil, nil
	}
	return rec, nil
}

// Create validates the payload, authorizes, persists, and reconciles.
func (e *Engine) Create(ctx context.Context, rctx *model.RequestContext, entity model.EntityType, payload model.DataRecord) Result {
	start := time.Now()

	if verrs := e.validator.Validate(payload, e.tables[entity], false); len(verrs) > 0 {
		return e.finish(ctx, rctx, entity, "create", start, Result{
			Errors: verrs, Code: model.ErrValidationError,
		})
	}

	roles, err := e.permissions.GetUserRoles(ctx, rctx.OrgID, rctx.UserID)
	if err != nil {
		return e.fail(ctx, rctx, entity, "create", start, err)
	}
	if !e.permissions.CanCreate(roles) {
		return e.deny(ctx, rctx, entity, "create", start)
	}

	body := payload.Clone()
	body[model.FieldCreatedBy] = rctx.UserID

	created, err := e.records.Create(ctx, rctx.OrgID, entity, body)
	if err != nil {
		return e.fail(ctx, rctx, entity, "create", start, err)
	}

	e.publishCollection(ctx, rctx.OrgID, entity)
	return e.finish(ctx, rctx, entity, "create", start, Result{Record: created})
}

// Update validates the patch, authorizes against the current record fetched
// fresh from the store, persists, and reconciles. A missing record is
// NOT_FOUND; an unauthorized one is FORBIDDEN. The two must not blur.
func (e *Engine) Update(ctx context.Context, rctx *model.RequestContext, entity model.EntityType, id string, patch model.DataRecord) Result {
	start := time.Now()

	if verrs := e.validator.Validate(patch, e.tables[entity], true); len(verrs) > 0 {
		return e.finish(ctx, rctx, entity, "update", start, Result{
			Errors: verrs, Code: model.ErrValidationError,
		})
	}

	current, err := e.records.Get(ctx, rctx.OrgID, entity, id)
	if err != nil {
		return e.fail(ctx, rctx, entity, "update", start, err)
	}
	if current == nil {
		return e.finish(ctx, rctx, entity, "update", start, Result{
			Errors: []model.ValidationError{model.GeneralError(fmt.Sprintf("record %q not found", id))},
			Code:   model.ErrNotFound,
		})
	}

	roles, err := e.permissions.GetUserRoles(ctx, rctx.OrgID, rctx.UserID)
	if err != nil {
		return e.fail(ctx, rctx, entity, "update", start, err)
	}
	if !e.permissions.CanUpdate(roles, current, rctx.UserID) {
		return e.deny(ctx, rctx, entity, "update", start)
	}

	updated, err := e.records.Update(ctx, rctx.OrgID, entity, id, patch)
	if err != nil {
		return e.fail(ctx, rctx, entity, "update", start, err)
	}

	e.publishCollection(ctx, rctx.OrgID, entity)
	return e.finish(ctx, rctx, entity, "update", start, Result{Record: updated})
}

// Delete authorizes against the current record, persists, and reconciles.
func (e *Engine) Delete(ctx context.Context, rctx *model.RequestContext, entity model.EntityType, id string) Result {
	start := time.Now()

	current, err := e.records.Get(ctx, rctx.OrgID, entity, id)
	if err != nil {
		return e.fail(ctx, rctx, entity, "delete", start, err)
	}
	if current == nil {
		return e.finish(ctx, rctx, entity, "delete", start, Result{
			Errors: []model.ValidationError{model.GeneralError(fmt.Sprintf("record %q not found", id))},
			Code:   model.ErrNotFound,
		})
	}

	roles, err := e.permissions.GetUserRoles(ctx, rctx.OrgID, rctx.UserID)
	if err != nil {
		return e.fail(ctx, rctx, entity, "delete", start, err)
	}
	if !e.permissions.CanDelete(roles, current, rctx.UserID) {
		return e.deny(ctx, rctx, entity, "delete", start)
	}

	if err := e.records.Delete(ctx, rctx.OrgID, entity, id); err != nil {
		return e.fail(ctx, rctx, entity, "delete", start, err)
	}

	e.publishCollection(ctx, rctx.OrgID, entity)
	return e.finish(ctx, rctx, entity, "delete", start, Result{})
}

// Duplicate copies a record, dropping system fields and prefixing the name
// or title with "Copy of ", then runs the full create flow.
func (e *Engine) Duplicate(ctx context.Context, rctx *model.RequestContext, entity model.EntityType, source model.DataRecord) Result {
	dup := source.Clone()
	delete(dup, model.FieldID)
	delete(dup, model.FieldCreatedAt)
	delete(dup, model.FieldUpdatedAt)
	delete(dup, model.FieldCreatedBy)

	for _, key := range []string{"name", "title"} {
		if s, ok := dup[key].(string); ok && s != "" {
			dup[key] = "Copy of " + s
			break
		}
	}

	return e.Create(ctx, rctx, entity, dup)
}

// BulkUpdate authorizes the whole id set with one check, then persists in
// one backend call. Ids that failed to persist are reported, never papered
// over as success.
func (e *Engine) BulkUpdate(ctx context.Context, rctx *model.RequestContext, entity model.EntityType, ids []string, patch model.DataRecord) BulkResult {
	start := time.Now()

	if verrs := e.validator.Validate(patch, e.tables[entity], true); len(verrs) > 0 {
		out := BulkResult{Failed: len(ids), Code: model.ErrValidationError}
		for _, ve := range verrs {
			out.Errors = append(out.Errors, ve.Message)
		}
		return e.finishBulk(ctx, rctx, entity, "bulk_update", start, out)
	}

	if denied := e.authorizeBulk(ctx, rctx, entity, ids); denied != nil {
		return e.finishBulk(ctx, rctx, entity, "bulk_update", start, *denied)
	}

	updated, err := e.records.BulkUpdate(ctx, rctx.OrgID, entity, ids, patch)
	if err != nil {
		return e.finishBulk(ctx, rctx, entity, "bulk_update", start, BulkResult{
			Failed: len(ids),
			Errors: []string{err.Error()},
			Code:   model.ErrBackendUnavailable,
		})
	}

	out := BulkResult{Success: len(updated), Failed: len(ids) - len(updated), Records: updated}
	if out.Failed > 0 {
		out.Errors = append(out.Errors, fmt.Sprintf("%d of %d records were not updated", out.Failed, len(ids)))
	}

	e.publishCollection(ctx, rctx.OrgID, entity)
	return e.finishBulk(ctx, rctx, entity, "bulk_update", start, out)
}

// BulkDelete authorizes the whole id set with one check, then persists in
// one backend call.
func (e *Engine) BulkDelete(ctx context.Context, rctx *model.RequestContext, entity model.EntityType, ids []string) BulkResult {
	start := time.Now()

	if denied := e.authorizeBulk(ctx, rctx, entity, ids); denied != nil {
		return e.finishBulk(ctx, rctx, entity, "bulk_delete", start, *denied)
	}

	deleted, err := e.records.BulkDelete(ctx, rctx.OrgID, entity, ids)
	if err != nil {
		return e.finishBulk(ctx, rctx, entity, "bulk_delete", start, BulkResult{
			Failed: len(ids),
			Errors: []string{err.Error()},
			Code:   model.ErrBackendUnavailable,
		})
	}

	out := BulkResult{Success: deleted, Failed: len(ids) - deleted}
	if out.Failed > 0 {
		out.Errors = append(out.Errors, fmt.Sprintf("%d of %d records were not deleted", out.Failed, len(ids)))
	}

	e.publishCollection(ctx, rctx.OrgID, entity)
	return e.finishBulk(ctx, rctx, entity, "bulk_delete", start, out)
}

func (e *Engine) authorizeBulk(ctx context.Context, rctx *model.RequestContext, entity model.EntityType, ids []string) *BulkResult {
	roles, err := e.permissions.GetUserRoles(ctx, rctx.OrgID, rctx.UserID)
	if err != nil {
		return &BulkResult{Failed: len(ids), Errors: []string{err.Error()}, Code: model.ErrInternalError}
	}
	if err := e.permissions.AuthorizeBulk(ctx, rctx.OrgID, rctx.UserID, roles, entity, ids); err != nil {
		code := model.ErrForbidden
		if ee, ok := err.(*model.ErrorEnvelope); ok {
			code = ee.Code
		}
		return &BulkResult{Failed: len(ids), Errors: []string{err.Error()}, Code: code}
	}
	return nil
}

// publishCollection hands the full updated collection to the change
// callback. Failures here are logged, not surfaced: the mutation already
// succeeded.
func (e *Engine) publishCollection(ctx context.Context, orgID string, entity model.EntityType) {
	if e.onChange == nil {
		return
	}
	records, err := e.records.List(ctx, orgID, entity, store.Filters{})
	if err != nil {
		e.logger.Warn("collection snapshot failed",
			zap.String("entity", string(entity)),
			zap.String("org_id", orgID),
			zap.Error(err),
		)
		return
	}
	e.onChange(entity, orgID, records)
}

func (e *Engine) deny(ctx context.Context, rctx *model.RequestContext, entity model.EntityType, op string, start time.Time) Result {
	return e.finish(ctx, rctx, entity, op, start, Result{
		Errors: []model.ValidationError{
			model.GeneralError(fmt.Sprintf("Insufficient permissions to %s %s", op, entity)),
		},
		Code: model.ErrForbidden,
	})
}

func (e *Engine) fail(ctx context.Context, rctx *model.RequestContext, entity model.EntityType, op string, start time.Time, err error) Result {
	code := model.ErrBackendUnavailable
	if ee, ok := err.(*model.ErrorEnvelope); ok {
		code = ee.Code
	}
	return e.finish(ctx, rctx, entity, op, start, Result{
		Errors: []model.ValidationError{model.GeneralError(err.Error())},
		Code:   code,
	})
}

func (e *Engine) finish(ctx context.Context, rctx *model.RequestContext, entity model.EntityType, op string, start time.Time, result Result) Result {
	result.Metrics = OperationMetrics{Duration: time.Since(start), Attempts: 1}
	e.observe(ctx, OperationEvent{
		Entity:   entity,
		Op:       op,
		OrgID:    rctx.OrgID,
		UserID:   rctx.UserID,
		Success:  result.OK(),
		Code:     result.Code,
		Duration: result.Metrics.Duration,
	})
	if !result.OK() {
		e.logger.Info("operation failed",
			zap.String("entity", string(entity)),
			zap.String("op", op),
			zap.String("code", result.Code),
			zap.Int("errors", len(result.Errors)),
		)
	}
	return result
}

func (e *Engine) finishBulk(ctx context.Context, rctx *model.RequestContext, entity model.EntityType, op string, start time.Time, result BulkResult) BulkResult {
	result.Metrics = OperationMetrics{Duration: time.Since(start), Attempts: 1}
	e.observe(ctx, OperationEvent{
		Entity:      entity,
		Op:          op,
		OrgID:       rctx.OrgID,
		UserID:      rctx.UserID,
		Success:     result.OK(),
		Code:        result.Code,
		Duration:    result.Metrics.Duration,
		Bulk:        true,
		BulkSuccess: result.Success,
		BulkFailed:  result.Failed,
	})
	return result
}

func (e *Engine) observe(ctx context.Context, event OperationEvent) {
	for _, obs := range e.observers {
		obs.OnOperation(ctx, event)
	}
}
