package backend

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// Endpoint is one known-good endpoint/selection-hint pair for discovery.
type Endpoint struct {
	// URL is the base address of the candidate server.
	URL string

	// Backend names the backend kind expected at the address.
	Backend ID

	// Target guides candidate selection once the endpoint responds.
	Target Target
}

// Discovered is the composed configuration for a responding endpoint.
type Discovered struct {
	Endpoint Endpoint
	Choice   Candidate
	Options  []Candidate
}

// DiscoveryConfig bounds the discovery loop.
type DiscoveryConfig struct {
	// Passes is how many times the whole candidate list is walked, >= 1.
	Passes int

	// PassDelay is the wait between two passes.
	PassDelay time.Duration

	// Policy wraps each probing client. Discovery wants snappy, low-budget
	// probes, so this is typically tighter than the synthesis policy.
	Policy RetryPolicy
}

// DefaultDiscoveryConfig returns the bounds used when the caller supplies
// none: two passes, short probe budget.
func DefaultDiscoveryConfig() DiscoveryConfig {
	return DiscoveryConfig{
		Passes:    2,
		PassDelay: 2 * time.Second,
		Policy: RetryPolicy{
			MaxAttempts: 1,
			CallTimeout: 5 * time.Second,
		},
	}
}

// DiscoveryLoop walks an ordered list of endpoints, probing each with a
// ResilientClient until one responds with a usable candidate list. "No
// endpoint configured yet" is an expected, recoverable outcome, so
// exhausting the list returns ErrNotFound rather than a backend error.
type DiscoveryLoop struct {
	config DiscoveryConfig

	// dial builds a probing client for an endpoint. Injected so speech and
	// translation reuse the same loop with their own transports.
	dial func(Endpoint) (Client, error)

	// attempts counts probe attempts per endpoint URL, for tests and logs.
	attempts map[string]int
}

// NewDiscoveryLoop creates a discovery loop that dials endpoints with the
// given constructor.
func NewDiscoveryLoop(config DiscoveryConfig, dial func(Endpoint) (Client, error)) *DiscoveryLoop {
	if config.Passes < 1 {
		config.Passes = 1
	}
	return &DiscoveryLoop{
		config:   config,
		dial:     dial,
		attempts: make(map[string]int),
	}
}

// Attempts reports how many probe attempts have been made against the URL.
func (d *DiscoveryLoop) Attempts(url string) int { return d.attempts[url] }

// Run iterates the endpoints in order, once per pass, and returns the first
// composed configuration. Individual failures are logged and skipped.
func (d *DiscoveryLoop) Run(ctx context.Context, endpoints []Endpoint) (*Discovered, error) {
	for pass := 0; pass < d.config.Passes; pass++ {
		if pass > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(d.config.PassDelay):
			}
		}

		for _, ep := range endpoints {
			found, err := d.probe(ctx, ep)
			if err != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				log.Debug("discovery candidate failed", "url", ep.URL, "backend", ep.Backend, "err", err)
				continue
			}
			log.Info("discovered backend endpoint",
				"url", ep.URL, "backend", ep.Backend, "choice", found.Choice.Name)
			return found, nil
		}
	}
	return nil, ErrNotFound
}

func (d *DiscoveryLoop) probe(ctx context.Context, ep Endpoint) (*Discovered, error) {
	d.attempts[ep.URL]++

	raw, err := d.dial(ep)
	if err != nil {
		return nil, err
	}
	defer raw.Dispose() //nolint:errcheck

	client := NewResilientClient(raw, d.config.Policy)
	options, err := client.ListOptions(ctx)
	if err != nil {
		return nil, err
	}

	choice, ok := Pick(options, ep.Target)
	if !ok {
		return nil, NewError(ep.Backend, KindUnavailable, ErrNotFound)
	}
	return &Discovered{Endpoint: ep, Choice: choice, Options: options}, nil
}
