package transport

import (
	"encoding/json"
	"testing"

	"github.com/ghxstship/marketplace/model"
)

// --- View handler tests ---

func TestHandleFieldConfigs(t *testing.T) {
	router := testRouter()

	w := doJSON(t, router, "GET", "/api/listings/fields", "member-1", nil)
	if w.Code != 200 {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	var body struct {
		Fields  []model.FieldConfig `json:"fields"`
		Visible []model.FieldConfig `json:"visible"`
	}
	json.NewDecoder(w.Body).Decode(&body)
	if len(body.Fields) == 0 {
		t.Fatal("expected derived field configs")
	}

	byKey := map[string]model.FieldConfig{}
	for _, f := range body.Fields {
		byKey[f.Key] = f
	}
	if f, ok := byKey["title"]; !ok || !f.Required || !f.Visible {
		t.Errorf("title field = %+v, want required and visible", f)
	}
	if f := byKey["created_at"]; !f.ReadOnly || f.Visible {
		t.Errorf("created_at field = %+v, want read-only and hidden", f)
	}
	if len(body.Visible) >= len(body.Fields) {
		t.Error("visible set should exclude the hidden timestamps")
	}

	w = doJSON(t, router, "GET", "/api/widgets/fields", "member-1", nil)
	if w.Code != 404 {
		t.Errorf("status = %d, want 404 for unknown entity", w.Code)
	}
}

func TestHandleView_updateAndGet(t *testing.T) {
	router := testRouter()

	w := doJSON(t, router, "PUT", "/api/listings/view", "member-1", map[string]any{
		"search": "truss",
		"sorts":  []model.SortConfig{{Field: "title", Direction: model.SortAsc}},
	})
	if w.Code != 200 {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	var state viewState
	w = doJSON(t, router, "GET", "/api/listings/view", "member-1", nil)
	json.NewDecoder(w.Body).Decode(&state)
	if state.Search != "truss" {
		t.Errorf("search = %q, want truss", state.Search)
	}
	if len(state.Sorts) != 1 || state.Sorts[0].Field != "title" {
		t.Errorf("sorts = %v, want one sort on title", state.Sorts)
	}

	// Absent keys leave their part of the state alone.
	w = doJSON(t, router, "PUT", "/api/listings/view", "member-1", map[string]any{
		"filters": []model.FilterCondition{{Field: "status", Operator: model.OpEquals, Value: "active"}},
	})
	json.NewDecoder(w.Body).Decode(&state)
	if state.Search != "truss" {
		t.Errorf("search = %q, patch without search must not clear it", state.Search)
	}
	if len(state.Filters) != 1 {
		t.Errorf("filters = %v, want one condition", state.Filters)
	}

	// The view is shared per organization, not per user.
	state = viewState{}
	w = doJSON(t, router, "GET", "/api/listings/view", "member-2", nil)
	json.NewDecoder(w.Body).Decode(&state)
	if state.Search != "truss" {
		t.Errorf("search = %q, member-2 should see the shared org view", state.Search)
	}
}

func TestHandleView_sorts(t *testing.T) {
	router := testRouter()

	w := doJSON(t, router, "POST", "/api/listings/view/sorts", "member-1",
		model.SortConfig{Field: "title", Direction: model.SortAsc})
	if w.Code != 200 {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	// Same field flips direction in place instead of appending.
	w = doJSON(t, router, "POST", "/api/listings/view/sorts", "member-1",
		model.SortConfig{Field: "title", Direction: model.SortDesc})
	var body struct {
		Sorts []model.SortConfig `json:"sorts"`
	}
	json.NewDecoder(w.Body).Decode(&body)
	if len(body.Sorts) != 1 || body.Sorts[0].Direction != model.SortDesc {
		t.Errorf("sorts = %v, want single descending sort on title", body.Sorts)
	}

	w = doJSON(t, router, "POST", "/api/listings/view/sorts", "member-1",
		model.SortConfig{Direction: model.SortAsc})
	if w.Code != 400 {
		t.Errorf("status = %d, want 400 for sort without field", w.Code)
	}

	w = doJSON(t, router, "DELETE", "/api/listings/view/sorts/title", "member-1", nil)
	json.NewDecoder(w.Body).Decode(&body)
	if len(body.Sorts) != 0 {
		t.Errorf("sorts = %v, want empty after removal", body.Sorts)
	}
}

func TestHandleView_toggleField(t *testing.T) {
	router := testRouter()

	w := doJSON(t, router, "POST", "/api/listings/view/fields/title/toggle", "member-1", nil)
	if w.Code != 200 {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var body struct {
		Fields []model.FieldConfig `json:"fields"`
	}
	json.NewDecoder(w.Body).Decode(&body)
	for _, f := range body.Fields {
		if f.Key == "title" && f.Visible {
			t.Error("title should be hidden after toggle")
		}
	}

	w = doJSON(t, router, "POST", "/api/listings/view/fields/no-such-field/toggle", "member-1", nil)
	if w.Code != 404 {
		t.Errorf("status = %d, want 404 for unknown field key", w.Code)
	}
}

func TestHandleView_selection(t *testing.T) {
	router := testRouter()

	var body struct {
		Selection []string `json:"selection"`
		Count     int      `json:"count"`
	}

	w := doJSON(t, router, "PUT", "/api/listings/view/selection", "member-1", map[string]any{
		"select": []string{"rec-1", "rec-2", "rec-3"},
	})
	if w.Code != 200 {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	json.NewDecoder(w.Body).Decode(&body)
	if body.Count != 3 {
		t.Errorf("count = %d, want 3", body.Count)
	}

	w = doJSON(t, router, "PUT", "/api/listings/view/selection", "member-1", map[string]any{
		"deselect": []string{"rec-2"},
	})
	json.NewDecoder(w.Body).Decode(&body)
	if body.Count != 2 {
		t.Errorf("count = %d, want 2 after deselect", body.Count)
	}

	// clear runs before select, so this replaces the selection outright.
	w = doJSON(t, router, "PUT", "/api/listings/view/selection", "member-1", map[string]any{
		"clear":  true,
		"select": []string{"rec-9"},
	})
	json.NewDecoder(w.Body).Decode(&body)
	if body.Count != 1 || len(body.Selection) != 1 || body.Selection[0] != "rec-9" {
		t.Errorf("selection = %v, want exactly rec-9", body.Selection)
	}
}
