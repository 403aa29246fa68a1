// Package dataview holds the cross-cutting view state for one record
// collection: search text, active filters, active sorts, field visibility,
// and row selection. Controllers are shared between transport handlers, so
// every accessor is mutex-guarded and returns copies.
package dataview

import (
	"sync"

	"github.com/ghxstship/marketplace/model"
)

// Controller owns the view state for a single (entity, session) pair.
//
// Selection is independent of filters, sorts, and search: changing filters
// does not prune the selection. Callers that display selection counts must
// intersect the selection with the currently visible records themselves.
type Controller struct {
	mu        sync.RWMutex
	search    string
	filters   []model.FilterCondition
	sorts     []model.SortConfig
	fields    []model.FieldConfig
	selection map[string]struct{}
}

// NewController creates a Controller with the given field set and empty
// search, filters, sorts, and selection.
func NewController(fields []model.FieldConfig) *Controller {
	return &Controller{
		fields:    append([]model.FieldConfig(nil), fields...),
		selection: make(map[string]struct{}),
	}
}

// Search returns the current search string.
func (c *Controller) Search() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.search
}

// SetSearch replaces the search string.
func (c *Controller) SetSearch(q string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.search = q
}

// Filters returns a copy of the active filter conditions.
func (c *Controller) Filters() []model.FilterCondition {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]model.FilterCondition(nil), c.filters...)
}

// SetFilters replaces the filter list wholesale. There is no merge: callers
// wanting to add one condition must read, modify, and write back.
func (c *Controller) SetFilters(filters []model.FilterCondition) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.filters = append([]model.FilterCondition(nil), filters...)
}

// ClearFilters removes all filter conditions.
func (c *Controller) ClearFilters() {
	c.SetFilters(nil)
}

// Sorts returns a copy of the active sorts, first entry highest priority.
func (c *Controller) Sorts() []model.SortConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]model.SortConfig(nil), c.sorts...)
}

// SetSorts replaces the sort list wholesale.
func (c *Controller) SetSorts(sorts []model.SortConfig) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sorts = append([]model.SortConfig(nil), sorts...)
}

// AddSort adds a sort key. A field that already has a sort is replaced in
// place, keeping its priority position; a new field appends at the end.
func (c *Controller) AddSort(sort model.SortConfig) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, s := range c.sorts {
		if s.Field == sort.Field {
			c.sorts[i] = sort
			return
		}
	}
	c.sorts = append(c.sorts, sort)
}

// RemoveSort removes the sort on the given field, if any.
func (c *Controller) RemoveSort(field string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, s := range c.sorts {
		if s.Field == field {
			c.sorts = append(c.sorts[:i], c.sorts[i+1:]...)
			return
		}
	}
}

// Fields returns a copy of the field configurations, hidden ones included.
func (c *Controller) Fields() []model.FieldConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]model.FieldConfig(nil), c.fields...)
}

// VisibleFields returns only the fields currently marked visible, in
// configuration order.
func (c *Controller) VisibleFields() []model.FieldConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]model.FieldConfig, 0, len(c.fields))
	for _, f := range c.fields {
		if f.Visible {
			out = append(out, f)
		}
	}
	return out
}

// SetFields replaces the field set wholesale.
func (c *Controller) SetFields(fields []model.FieldConfig) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fields = append([]model.FieldConfig(nil), fields...)
}

// ToggleFieldVisibility flips the visible flag of one field. The field stays
// in the set either way, so column order and widths survive a hide/show
// round trip. Unknown keys are ignored.
func (c *Controller) ToggleFieldVisibility(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.fields {
		if c.fields[i].Key == key {
			c.fields[i].Visible = !c.fields[i].Visible
			return
		}
	}
}

// Selection returns the selected record ids. Order is unspecified.
func (c *Controller) Selection() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.selection))
	for id := range c.selection {
		out = append(out, id)
	}
	return out
}

// Selected reports whether the given record id is selected.
func (c *Controller) Selected(id string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.selection[id]
	return ok
}

// SelectionCount returns the number of selected ids.
func (c *Controller) SelectionCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.selection)
}

// Select adds the given ids to the selection.
func (c *Controller) Select(ids ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range ids {
		c.selection[id] = struct{}{}
	}
}

// Deselect removes the given ids from the selection.
func (c *Controller) Deselect(ids ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range ids {
		delete(c.selection, id)
	}
}

// ToggleSelect flips the selection state of one id.
func (c *Controller) ToggleSelect(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.selection[id]; ok {
		delete(c.selection, id)
	} else {
		c.selection[id] = struct{}{}
	}
}

// ClearSelection empties the selection, as after a completed bulk action.
func (c *Controller) ClearSelection() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selection = make(map[string]struct{})
}
