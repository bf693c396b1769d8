package handlers

import "sync"

// FilterAll disables category filtering.
const FilterAll = "All"

// Filter is the active category filter. It belongs to the presentation layer,
// not the ledger: the store reports category deletions and this layer decides
// whether the filter must reset.
type Filter struct {
	mu    sync.RWMutex
	value string
}

// NewFilter creates a filter with filtering disabled.
func NewFilter() *Filter {
	return &Filter{value: FilterAll}
}

// Value returns the current filter value.
func (f *Filter) Value() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.value
}

// Set replaces the filter value.
func (f *Filter) Set(v string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.value = v
}

// Reset disables filtering.
func (f *Filter) Reset() {
	f.Set(FilterAll)
}
