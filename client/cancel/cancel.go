// Package cancel implements the process-wide registry used to signal
// cooperative cancellation of in-flight requests by numeric id.
//
// A request registers its id when it starts and removes it when it
// finishes. Anyone holding the id can flip the cancel flag at any time;
// the transfer observes the flag at its next progress tick. The registry
// never holds a reference to the request itself, so canceller and
// request share no lifetime.
package cancel

import "sync"

// Registry maps request ids to a cancel flag behind a single mutex.
// All operations are O(1) map lookups; the lock is never held across I/O.
type Registry struct {
	mu      sync.Mutex
	pending map[int32]bool
}

// Default is the process-wide registry shared by every client unless
// one is injected explicitly. Cancellation ids resolve across the whole
// process through it.
var Default = NewRegistry()

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		pending: make(map[int32]bool),
	}
}

// Register inserts id with the cancel flag cleared. Id 0 means
// "not cancellable" and is ignored.
func (r *Registry) Register(id int32) {
	if id == 0 {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.pending[id] = false
}

// Cancel flips the cancel flag for id if the request is still in flight.
// Unknown or already-completed ids are a no-op.
func (r *Registry) Cancel(id int32) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.pending[id]; ok {
		r.pending[id] = true
	}
}

// PollAndConsume reports whether id has been canceled. When it returns
// true the entry is removed, so a given cancellation is observed exactly
// once. Called from the transfer's progress tick.
func (r *Registry) PollAndConsume(id int32) bool {
	if id == 0 {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if canceled, ok := r.pending[id]; ok && canceled {
		delete(r.pending, id)
		return true
	}

	return false
}

// Clear removes id unconditionally. Called when a request completes,
// whatever the outcome.
func (r *Registry) Clear(id int32) {
	if id == 0 {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.pending, id)
}

// Contains reports whether id currently has an entry.
func (r *Registry) Contains(id int32) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.pending[id]
	return ok
}
