package backend

import (
	"context"
	"errors"
	"sync"

	"github.com/charmbracelet/log"
)

// Handle owns one live client. Disposing it is idempotent; a disposed
// handle rejects further calls with ErrClientDisposed.
type Handle struct {
	client Client

	mu       sync.Mutex
	disposed bool
}

// Backend returns the ID of the wrapped client's backend.
func (h *Handle) Backend() ID { return h.client.Backend() }

// Client returns the wrapped client, or an error if the handle has been
// disposed.
func (h *Handle) Client() (Client, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.disposed {
		return nil, ErrClientDisposed
	}
	return h.client, nil
}

// Dispose releases the underlying client. Safe to call more than once.
func (h *Handle) Dispose() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.disposed {
		return nil
	}
	h.disposed = true
	return h.client.Dispose()
}

// Registry is the single process-wide owner of backend client lifetime.
// It holds at most one live handle per backend ID; all mutation goes
// through the registry lock.
type Registry struct {
	mu      sync.Mutex
	handles map[ID]*Handle
}

// NewRegistry creates an empty client registry.
func NewRegistry() *Registry {
	return &Registry{handles: make(map[ID]*Handle)}
}

// Acquire returns the cached handle for the adapter's backend, creating the
// client if none is live. Construction failures surface as
// *InitializationError and leave the registry unchanged.
func (r *Registry) Acquire(ctx context.Context, adapter Adapter) (*Handle, error) {
	id := adapter.Descriptor().ID

	r.mu.Lock()
	defer r.mu.Unlock()

	if h, ok := r.handles[id]; ok {
		return h, nil
	}

	client, err := adapter.NewClient(ctx)
	if err != nil {
		var initErr *InitializationError
		if !errors.As(err, &initErr) {
			err = &InitializationError{Backend: id, Err: err}
		}
		return nil, err
	}

	h := &Handle{client: client}
	r.handles[id] = h
	log.Debug("registered backend client", "backend", id)
	return h, nil
}

// Lookup returns the live handle for the backend, if any.
func (r *Registry) Lookup(id ID) (*Handle, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.handles[id]
	return h, ok
}

// Evict disposes and removes the handle for the backend. Evicting an
// unknown or already-disposed backend is a no-op.
func (r *Registry) Evict(id ID) error {
	r.mu.Lock()
	h, ok := r.handles[id]
	delete(r.handles, id)
	r.mu.Unlock()

	if !ok {
		return nil
	}
	return h.Dispose()
}

// Close disposes every live handle. The first disposal error is returned,
// but every handle is still released.
func (r *Registry) Close() error {
	r.mu.Lock()
	handles := make([]*Handle, 0, len(r.handles))
	for _, h := range r.handles {
		handles = append(handles, h)
	}
	r.handles = make(map[ID]*Handle)
	r.mu.Unlock()

	var firstErr error
	for _, h := range handles {
		if err := h.Dispose(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
