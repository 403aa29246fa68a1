package transport

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ghxstship/marketplace/internal/dataview"
	"github.com/ghxstship/marketplace/model"
)

// viewState is the full view state of one collection as the API exposes it.
type viewState struct {
	Search    string                  `json:"search"`
	Filters   []model.FilterCondition `json:"filters"`
	Sorts     []model.SortConfig      `json:"sorts"`
	Fields    []model.FieldConfig     `json:"fields"`
	Selection []string                `json:"selection"`
}

func snapshotView(c *dataview.Controller) viewState {
	return viewState{
		Search:    c.Search(),
		Filters:   c.Filters(),
		Sorts:     c.Sorts(),
		Fields:    c.Fields(),
		Selection: c.Selection(),
	}
}

func handleFieldConfigs(views *dataview.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entity, ok := entityParam(r)
		if !ok {
			WriteNotFound(w, "unknown entity")
			return
		}
		rctx := model.MustRequestContext(r.Context())

		view := views.View(rctx.OrgID, entity)
		WriteJSON(w, http.StatusOK, map[string]any{
			"fields":  view.Fields(),
			"visible": view.VisibleFields(),
		})
	}
}

func handleGetView(views *dataview.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entity, ok := entityParam(r)
		if !ok {
			WriteNotFound(w, "unknown entity")
			return
		}
		rctx := model.MustRequestContext(r.Context())

		WriteJSON(w, http.StatusOK, snapshotView(views.View(rctx.OrgID, entity)))
	}
}

// viewPatch carries a partial view update. Pointer fields distinguish "leave
// alone" from "replace with empty": a present key replaces that part of the
// state wholesale.
type viewPatch struct {
	Search  *string                  `json:"search"`
	Filters *[]model.FilterCondition `json:"filters"`
	Sorts   *[]model.SortConfig      `json:"sorts"`
}

func handleUpdateView(views *dataview.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entity, ok := entityParam(r)
		if !ok {
			WriteNotFound(w, "unknown entity")
			return
		}
		rctx := model.MustRequestContext(r.Context())

		var patch viewPatch
		if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
			WriteError(w, model.NewBadRequestError("Invalid JSON body"))
			return
		}

		view := views.View(rctx.OrgID, entity)
		if patch.Search != nil {
			view.SetSearch(*patch.Search)
		}
		if patch.Filters != nil {
			view.SetFilters(*patch.Filters)
		}
		if patch.Sorts != nil {
			view.SetSorts(*patch.Sorts)
		}
		WriteJSON(w, http.StatusOK, snapshotView(view))
	}
}

func handleAddViewSort(views *dataview.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entity, ok := entityParam(r)
		if !ok {
			WriteNotFound(w, "unknown entity")
			return
		}
		rctx := model.MustRequestContext(r.Context())

		var sort model.SortConfig
		if err := json.NewDecoder(r.Body).Decode(&sort); err != nil {
			WriteError(w, model.NewBadRequestError("Invalid JSON body"))
			return
		}
		if sort.Field == "" {
			WriteError(w, model.NewBadRequestError("Sort requires a field"))
			return
		}

		view := views.View(rctx.OrgID, entity)
		view.AddSort(sort)
		WriteJSON(w, http.StatusOK, map[string]any{"sorts": view.Sorts()})
	}
}

func handleRemoveViewSort(views *dataview.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entity, ok := entityParam(r)
		if !ok {
			WriteNotFound(w, "unknown entity")
			return
		}
		rctx := model.MustRequestContext(r.Context())

		view := views.View(rctx.OrgID, entity)
		view.RemoveSort(chi.URLParam(r, "field"))
		WriteJSON(w, http.StatusOK, map[string]any{"sorts": view.Sorts()})
	}
}

func handleToggleViewField(views *dataview.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entity, ok := entityParam(r)
		if !ok {
			WriteNotFound(w, "unknown entity")
			return
		}
		rctx := model.MustRequestContext(r.Context())

		key := chi.URLParam(r, "key")
		view := views.View(rctx.OrgID, entity)
		known := false
		for _, f := range view.Fields() {
			if f.Key == key {
				known = true
				break
			}
		}
		if !known {
			WriteNotFound(w, "unknown field")
			return
		}

		view.ToggleFieldVisibility(key)
		WriteJSON(w, http.StatusOK, map[string]any{"fields": view.Fields()})
	}
}

// selectionPatch mutates the row selection. Clear runs first, so
// {"clear": true, "select": [...]} replaces the selection in one call.
type selectionPatch struct {
	Clear    bool     `json:"clear"`
	Select   []string `json:"select"`
	Deselect []string `json:"deselect"`
}

func handleUpdateViewSelection(views *dataview.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entity, ok := entityParam(r)
		if !ok {
			WriteNotFound(w, "unknown entity")
			return
		}
		rctx := model.MustRequestContext(r.Context())

		var patch selectionPatch
		if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
			WriteError(w, model.NewBadRequestError("Invalid JSON body"))
			return
		}

		view := views.View(rctx.OrgID, entity)
		if patch.Clear {
			view.ClearSelection()
		}
		if len(patch.Select) > 0 {
			view.Select(patch.Select...)
		}
		if len(patch.Deselect) > 0 {
			view.Deselect(patch.Deselect...)
		}
		WriteJSON(w, http.StatusOK, map[string]any{
			"selection": view.Selection(),
			"count":     view.SelectionCount(),
		})
	}
}
