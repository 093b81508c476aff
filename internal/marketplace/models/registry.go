package models

// Registry is the ordered set of required items, keyed by name.
// It is never merged: a registration builds a new Registry and swaps it in.
type Registry struct {
	items []RequiredItem
	index map[string]int
}

// NewRegistry builds a registry from items in order. Callers must ensure
// names are unique.
func NewRegistry(items []RequiredItem) *Registry {
	r := &Registry{
		items: make([]RequiredItem, len(items)),
		index: make(map[string]int, len(items)),
	}
	for i, item := range items {
		r.items[i] = item
		r.index[item.Name] = i
	}
	return r
}

func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.items)
}

// Get returns a copy of the named item.
func (r *Registry) Get(name string) (RequiredItem, bool) {
	if r == nil {
		return RequiredItem{}, false
	}
	pos, ok := r.index[name]
	if !ok {
		return RequiredItem{}, false
	}
	return r.items[pos], true
}

// Update applies fn to the named item in place. It reports false when the
// item is not registered.
func (r *Registry) Update(name string, fn func(*RequiredItem)) bool {
	if r == nil {
		return false
	}
	pos, ok := r.index[name]
	if !ok {
		return false
	}
	fn(&r.items[pos])
	return true
}

// Items returns the entries in registration order.
func (r *Registry) Items() []RequiredItem {
	if r == nil {
		return nil
	}
	out := make([]RequiredItem, len(r.items))
	copy(out, r.items)
	return out
}

// Donatable returns the names with remaining quota, in registration order.
func (r *Registry) Donatable() []string {
	if r == nil {
		return nil
	}
	out := make([]string, 0, len(r.items))
	for _, item := range r.items {
		if item.Remaining() > 0 {
			out = append(out, item.Name)
		}
	}
	return out
}

func (r *Registry) Clone() *Registry {
	if r == nil {
		return NewRegistry(nil)
	}
	return NewRegistry(r.items)
}
