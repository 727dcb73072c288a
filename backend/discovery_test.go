package backend

import (
	"context"
	"errors"
	"testing"
	"time"
)

func discoveryConfig(passes int) DiscoveryConfig {
	return DiscoveryConfig{
		Passes:    passes,
		PassDelay: time.Millisecond,
		Policy:    RetryPolicy{MaxAttempts: 1, CallTimeout: time.Second},
	}
}

// TestDiscoveryStopsAtFirstResponder tests that with only the third of four
// endpoints responding, exactly three probes happen and the fourth endpoint
// is never attempted.
func TestDiscoveryStopsAtFirstResponder(t *testing.T) {
	endpoints := []Endpoint{
		{URL: "http://one", Backend: IDOllama},
		{URL: "http://two", Backend: IDOllama},
		{URL: "http://three", Backend: IDOllama, Target: Target{NameFragments: []string{"latest"}}},
		{URL: "http://four", Backend: IDOllama},
	}

	dial := func(ep Endpoint) (Client, error) {
		if ep.URL != "http://three" {
			return &fakeClient{
				id:   ep.Backend,
				errs: []error{NewError(ep.Backend, KindUnavailable, errors.New("connection refused"))},
			}, nil
		}
		return &fakeClient{
			id:      ep.Backend,
			options: []Candidate{{Name: "modelX:latest"}, {Name: "modelX:7b"}},
		}, nil
	}

	loop := NewDiscoveryLoop(discoveryConfig(1), dial)
	found, err := loop.Run(context.Background(), endpoints)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if found.Endpoint.URL != "http://three" {
		t.Errorf("discovered endpoint = %q, want the third", found.Endpoint.URL)
	}
	if found.Choice.Name != "modelX:latest" {
		t.Errorf("discovered choice = %q, want modelX:latest", found.Choice.Name)
	}

	for url, want := range map[string]int{
		"http://one":   1,
		"http://two":   1,
		"http://three": 1,
		"http://four":  0,
	} {
		if got := loop.Attempts(url); got != want {
			t.Errorf("attempts against %s = %d, want %d", url, got, want)
		}
	}
}

// TestDiscoveryExhaustionReturnsNotFound tests that a dead list yields
// ErrNotFound, not a backend error, after the bounded number of passes.
func TestDiscoveryExhaustionReturnsNotFound(t *testing.T) {
	endpoints := []Endpoint{
		{URL: "http://one", Backend: IDOllama},
		{URL: "http://two", Backend: IDLMStudio},
	}

	dial := func(ep Endpoint) (Client, error) {
		return &fakeClient{
			id:   ep.Backend,
			errs: []error{NewError(ep.Backend, KindUnavailable, errors.New("connection refused"))},
		}, nil
	}

	loop := NewDiscoveryLoop(discoveryConfig(3), dial)
	_, err := loop.Run(context.Background(), endpoints)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Run() error = %v, want ErrNotFound", err)
	}

	// Three passes over two endpoints.
	if got := loop.Attempts("http://one"); got != 3 {
		t.Errorf("attempts against first endpoint = %d, want 3", got)
	}
	if got := loop.Attempts("http://two"); got != 3 {
		t.Errorf("attempts against second endpoint = %d, want 3", got)
	}
}

// TestDiscoveryEmptyListing tests that an endpoint which responds with zero
// candidates is skipped rather than selected.
func TestDiscoveryEmptyListing(t *testing.T) {
	endpoints := []Endpoint{
		{URL: "http://empty", Backend: IDOllama},
		{URL: "http://stocked", Backend: IDOllama},
	}

	dial := func(ep Endpoint) (Client, error) {
		if ep.URL == "http://empty" {
			return &fakeClient{id: ep.Backend}, nil
		}
		return &fakeClient{id: ep.Backend, options: []Candidate{{Name: "llama3:latest"}}}, nil
	}

	loop := NewDiscoveryLoop(discoveryConfig(1), dial)
	found, err := loop.Run(context.Background(), endpoints)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if found.Endpoint.URL != "http://stocked" {
		t.Errorf("discovered endpoint = %q, want the stocked one", found.Endpoint.URL)
	}
}

// TestDiscoveryContextCancel tests that cancellation aborts the loop.
func TestDiscoveryContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	dial := func(ep Endpoint) (Client, error) {
		return &fakeClient{
			id:   ep.Backend,
			errs: []error{NewError(ep.Backend, KindUnavailable, errors.New("refused"))},
		}, nil
	}

	loop := NewDiscoveryLoop(discoveryConfig(2), dial)
	_, err := loop.Run(ctx, []Endpoint{{URL: "http://one", Backend: IDOllama}})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
}
