package dataset

import "sync/atomic"

// Holder publishes the current Store. Replacing it is an atomic pointer swap,
// so in-flight reads keep the Store they started with.
type Holder struct {
	current atomic.Pointer[Store]
}

// NewHolder creates a Holder, optionally seeded with a Store.
func NewHolder(initial *Store) *Holder {
	h := &Holder{}
	if initial != nil {
		h.current.Store(initial)
	}
	return h
}

// Current returns the published Store, or nil before the first load.
func (h *Holder) Current() *Store {
	return h.current.Load()
}

// Swap publishes s and returns the previous Store.
func (h *Holder) Swap(s *Store) *Store {
	return h.current.Swap(s)
}
