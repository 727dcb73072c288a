package backend

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// ProbeResult is the outcome of one capability probe. Supported is a static
// platform fact; Available is the live check outcome. Probing never raises
// for "not available"; the distinguishing detail goes into Diagnostics.
type ProbeResult struct {
	Backend     ID
	Supported   bool
	Available   bool
	Diagnostics map[string]string
}

// DefaultProbeTTL bounds how long a cached "available" fact may be served.
const DefaultProbeTTL = 30 * time.Second

// Prober runs capability probes against a set of adapters, with a short
// TTL cache so rapid selection passes do not re-spawn diagnostic processes.
type Prober struct {
	adapters map[ID]Adapter
	platform Platform
	ttl      time.Duration

	mu    sync.Mutex
	cache map[ID]probeEntry
}

type probeEntry struct {
	result ProbeResult
	when   time.Time
}

// NewProber creates a prober over the given adapters for the platform.
// A non-positive ttl disables caching.
func NewProber(adapters []Adapter, platform Platform, ttl time.Duration) *Prober {
	m := make(map[ID]Adapter, len(adapters))
	for _, a := range adapters {
		m[a.Descriptor().ID] = a
	}
	return &Prober{
		adapters: m,
		platform: platform,
		ttl:      ttl,
		cache:    make(map[ID]probeEntry),
	}
}

// Probe reports whether the backend is supported on the platform and
// reachable right now. Unknown backend IDs come back unsupported with a
// diagnostic, never as an error.
func (p *Prober) Probe(ctx context.Context, id ID) ProbeResult {
	if cached, ok := p.lookup(id); ok {
		return cached
	}

	adapter, ok := p.adapters[id]
	if !ok {
		return ProbeResult{
			Backend:     id,
			Diagnostics: map[string]string{"reason": "no adapter registered"},
		}
	}

	result := ProbeResult{Backend: id, Supported: adapter.Supported(p.platform)}
	if !result.Supported {
		result.Diagnostics = map[string]string{"reason": "platform not supported", "platform": string(p.platform)}
		p.store(id, result)
		return result
	}

	available, diags := adapter.CheckAvailability(ctx)
	result.Available = available
	result.Diagnostics = diags
	log.Debug("probed backend", "backend", id, "available", available)

	p.store(id, result)
	return result
}

// Invalidate drops any cached result for the backend; a zero ID drops all.
func (p *Prober) Invalidate(id ID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if id == IDUnknown {
		p.cache = make(map[ID]probeEntry)
		return
	}
	delete(p.cache, id)
}

func (p *Prober) lookup(id ID) (ProbeResult, bool) {
	if p.ttl <= 0 {
		return ProbeResult{}, false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	entry, ok := p.cache[id]
	if !ok || time.Since(entry.when) > p.ttl {
		return ProbeResult{}, false
	}
	return entry.result, true
}

func (p *Prober) store(id ID, result ProbeResult) {
	if p.ttl <= 0 {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cache[id] = probeEntry{result: result, when: time.Now()}
}
