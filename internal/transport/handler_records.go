package transport

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ghxstship/marketplace/internal/crud"
	"github.com/ghxstship/marketplace/internal/store"
	"github.com/ghxstship/marketplace/model"
)

// entityParam parses the {entity} path parameter. Unknown entities are a
// 404: the collection does not exist.
func entityParam(r *http.Request) (model.EntityType, bool) {
	entity := model.EntityType(chi.URLParam(r, "entity"))
	return entity, entity.Valid()
}

// parseFilters builds store filters from list query parameters.
func parseFilters(r *http.Request) store.Filters {
	q := r.URL.Query()
	f := store.Filters{
		Type:     q.Get("type"),
		Category: q.Get("category"),
		Status:   q.Get("status"),
		Search:   q.Get("q"),
	}
	if v := q.Get("featured"); v != "" {
		b := v == "true"
		f.Featured = &b
	}
	if v := q.Get("min_price"); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil {
			f.MinPrice = &n
		}
	}
	if v := q.Get("max_price"); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil {
			f.MaxPrice = &n
		}
	}
	return f
}

// writeResult maps an engine result onto the HTTP response. Failures carry
// their field errors in the body with the status derived from the result
// code; successes return the record.
func writeResult(w http.ResponseWriter, result crud.Result, successStatus int) {
	if !result.OK() {
		WriteJSON(w, StatusForCode(result.Code), result)
		return
	}
	WriteJSON(w, successStatus, result)
}

func handleListRecords(engine *crud.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entity, ok := entityParam(r)
		if !ok {
			WriteNotFound(w, "unknown entity")
			return
		}
		rctx := model.MustRequestContext(r.Context())

		records, err := engine.List(r.Context(), rctx, entity, parseFilters(r))
		if err != nil {
			WriteError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, map[string]any{
			"records": records,
			"total":   len(records),
		})
	}
}

func handleGetRecord(engine *crud.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entity, ok := entityParam(r)
		if !ok {
			WriteNotFound(w, "unknown entity")
			return
		}
		rctx := model.MustRequestContext(r.Context())

		record, err := engine.Get(r.Context(), rctx, entity, chi.URLParam(r, "id"))
		if err != nil {
			WriteError(w, err)
			return
		}
		if record == nil {
			WriteNotFound(w, "record not found")
			return
		}
		WriteJSON(w, http.StatusOK, record)
	}
}

func handleCreateRecord(engine *crud.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entity, ok := entityParam(r)
		if !ok {
			WriteNotFound(w, "unknown entity")
			return
		}
		rctx := model.MustRequestContext(r.Context())

		var payload model.DataRecord
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			WriteError(w, model.NewBadRequestError("Invalid JSON body"))
			return
		}

		writeResult(w, engine.Create(r.Context(), rctx, entity, payload), http.StatusCreated)
	}
}

func handleUpdateRecord(engine *crud.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entity, ok := entityParam(r)
		if !ok {
			WriteNotFound(w, "unknown entity")
			return
		}
		rctx := model.MustRequestContext(r.Context())

		var patch model.DataRecord
		if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
			WriteError(w, model.NewBadRequestError("Invalid JSON body"))
			return
		}

		writeResult(w, engine.Update(r.Context(), rctx, entity, chi.URLParam(r, "id"), patch), http.StatusOK)
	}
}

func handleDeleteRecord(engine *crud.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entity, ok := entityParam(r)
		if !ok {
			WriteNotFound(w, "unknown entity")
			return
		}
		rctx := model.MustRequestContext(r.Context())

		result := engine.Delete(r.Context(), rctx, entity, chi.URLParam(r, "id"))
		if !result.OK() {
			WriteJSON(w, StatusForCode(result.Code), result)
			return
		}
		WriteJSON(w, http.StatusOK, result)
	}
}

func handleDuplicateRecord(engine *crud.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entity, ok := entityParam(r)
		if !ok {
			WriteNotFound(w, "unknown entity")
			return
		}
		rctx := model.MustRequestContext(r.Context())

		source, err := engine.Get(r.Context(), rctx, entity, chi.URLParam(r, "id"))
		if err != nil {
			WriteError(w, err)
			return
		}
		if source == nil {
			WriteNotFound(w, "record not found")
			return
		}

		writeResult(w, engine.Duplicate(r.Context(), rctx, entity, source), http.StatusCreated)
	}
}

// bulkRequest is the body of POST /api/{entity}/bulk. Destructive actions
// require confirm, a second gate against accidental mass deletes.
type bulkRequest struct {
	Action  string           `json:"action"`
	IDs     []string         `json:"ids"`
	Patch   model.DataRecord `json:"patch,omitempty"`
	Confirm bool             `json:"confirm"`
}

func handleBulkAction(engine *crud.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entity, ok := entityParam(r)
		if !ok {
			WriteNotFound(w, "unknown entity")
			return
		}
		rctx := model.MustRequestContext(r.Context())

		var req bulkRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, model.NewBadRequestError("Invalid JSON body"))
			return
		}
		if len(req.IDs) == 0 {
			WriteError(w, model.NewBadRequestError("No record ids provided"))
			return
		}

		var result crud.BulkResult
		switch req.Action {
		case "update":
			if len(req.Patch) == 0 {
				WriteError(w, model.NewBadRequestError("Bulk update requires a patch"))
				return
			}
			result = engine.BulkUpdate(r.Context(), rctx, entity, req.IDs, req.Patch)
		case "delete":
			if !req.Confirm {
				WriteError(w, model.NewBadRequestError("Bulk delete requires confirm"))
				return
			}
			result = engine.BulkDelete(r.Context(), rctx, entity, req.IDs)
		default:
			WriteError(w, model.NewBadRequestError("Unknown bulk action"))
			return
		}

		if result.Code != "" && result.Success == 0 {
			WriteJSON(w, StatusForCode(result.Code), result)
			return
		}
		WriteJSON(w, http.StatusOK, result)
	}
}
