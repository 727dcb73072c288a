package backend

import (
	"context"
	"sort"
	"sync"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
)

// Selector picks a working backend for the current platform and owns the
// "currently selected" handle. Availability checks fan out concurrently;
// only the selected-handle write is serialized.
type Selector struct {
	adapters []Adapter
	prober   *Prober
	registry *Registry
	platform Platform

	mu       sync.Mutex
	selected *Handle
}

// NewSelector creates a selector over the given adapters. Adapter order
// breaks priority ties, so callers should pass adapters in declaration
// order.
func NewSelector(adapters []Adapter, prober *Prober, registry *Registry, platform Platform) *Selector {
	return &Selector{
		adapters: adapters,
		prober:   prober,
		registry: registry,
		platform: platform,
	}
}

// supported returns the platform-supported adapters sorted by priority
// ascending, ties kept in declaration order.
func (s *Selector) supported() []Adapter {
	var out []Adapter
	for _, a := range s.adapters {
		if a.Supported(s.platform) {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Descriptor().Priority < out[j].Descriptor().Priority
	})
	return out
}

// SupportedBackends returns the IDs of every adapter supported on the
// platform, in priority order.
func (s *Selector) SupportedBackends() []ID {
	var ids []ID
	for _, a := range s.supported() {
		ids = append(ids, a.Descriptor().ID)
	}
	return ids
}

// Select picks the highest-priority supported adapter that passes a live
// availability check. When a preferred backend is given it is tried first
// regardless of priority. If no adapter is available, the first supported
// one is returned anyway so the caller gets a deterministic, named failure
// from its NewClient call; if nothing is even supported, the error is
// ErrNoSupportedBackend.
func (s *Selector) Select(ctx context.Context, preferred ID) (Adapter, error) {
	candidates := s.supported()
	if len(candidates) == 0 {
		return nil, ErrNoSupportedBackend
	}

	if preferred != IDUnknown {
		for i, a := range candidates {
			if a.Descriptor().ID == preferred {
				reordered := make([]Adapter, 0, len(candidates))
				reordered = append(reordered, a)
				reordered = append(reordered, candidates[:i]...)
				reordered = append(reordered, candidates[i+1:]...)
				candidates = reordered
				break
			}
		}
	}

	available := s.probeAll(ctx, candidates)
	for _, a := range candidates {
		if available[a.Descriptor().ID] {
			log.Debug("selected backend", "backend", a.Descriptor().ID)
			return a, nil
		}
	}

	// Last resort: a named, deterministic choice whose client construction
	// is expected to fail loudly.
	log.Warn("no backend available, falling back to first supported", "backend", candidates[0].Descriptor().ID)
	return candidates[0], nil
}

// probeAll checks availability of all candidates concurrently. Probing
// mutates no shared state beyond the prober's own cache.
func (s *Selector) probeAll(ctx context.Context, candidates []Adapter) map[ID]bool {
	var mu sync.Mutex
	available := make(map[ID]bool, len(candidates))

	g, gctx := errgroup.WithContext(ctx)
	for _, a := range candidates {
		id := a.Descriptor().ID
		g.Go(func() error {
			result := s.prober.Probe(gctx, id)
			mu.Lock()
			available[id] = result.Available
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return available
}

// Activate selects a backend and acquires its client handle. The resulting
// handle becomes the selector's current selection. With autoFallback set,
// selection may settle on any available backend and falls down the priority
// list past adapters whose clients fail to construct. Without it, a named
// preference binds: the preferred adapter is acquired directly, skipping
// availability-based settling, and its failure is surfaced instead of a
// substitute backend.
func (s *Selector) Activate(ctx context.Context, preferred ID, autoFallback bool) (*Handle, error) {
	if preferred != IDUnknown && !autoFallback {
		for _, a := range s.supported() {
			if a.Descriptor().ID != preferred {
				continue
			}
			handle, err := s.registry.Acquire(ctx, a)
			if err != nil {
				return nil, err
			}
			s.setSelected(handle)
			return handle, nil
		}
		return nil, &InitializationError{Backend: preferred, Err: ErrNoSupportedBackend}
	}

	adapter, err := s.Select(ctx, preferred)
	if err != nil {
		return nil, err
	}

	handle, err := s.registry.Acquire(ctx, adapter)
	if err == nil {
		s.setSelected(handle)
		return handle, nil
	}
	if !autoFallback {
		return nil, err
	}

	log.Warn("backend failed to initialize, trying fallbacks", "backend", adapter.Descriptor().ID, "err", err)
	firstErr := err
	for _, a := range s.supported() {
		if a.Descriptor().ID == adapter.Descriptor().ID {
			continue
		}
		handle, err := s.registry.Acquire(ctx, a)
		if err != nil {
			log.Warn("fallback backend failed to initialize", "backend", a.Descriptor().ID, "err", err)
			continue
		}
		s.setSelected(handle)
		return handle, nil
	}
	return nil, firstErr
}

// Switch re-selects onto the target backend. The new client is constructed
// before the old one is disposed; on construction failure the previous
// selection stays active and the error is surfaced, a strict no-op-on-
// failure guarantee.
func (s *Selector) Switch(ctx context.Context, target ID) (*Handle, error) {
	var adapter Adapter
	for _, a := range s.supported() {
		if a.Descriptor().ID == target {
			adapter = a
			break
		}
	}
	if adapter == nil {
		return nil, &InitializationError{Backend: target, Err: ErrNoSupportedBackend}
	}

	previous := s.Selected()
	if previous != nil && previous.Backend() == target {
		return previous, nil
	}

	handle, err := s.registry.Acquire(ctx, adapter)
	if err != nil {
		return nil, err
	}

	s.setSelected(handle)
	if previous != nil {
		if err := s.registry.Evict(previous.Backend()); err != nil {
			log.Warn("disposing previous backend failed", "backend", previous.Backend(), "err", err)
		}
	}
	log.Info("switched backend", "backend", target)
	return handle, nil
}

// Selected returns the currently selected handle, or nil.
func (s *Selector) Selected() *Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}

func (s *Selector) setSelected(h *Handle) {
	s.mu.Lock()
	s.selected = h
	s.mu.Unlock()
}
