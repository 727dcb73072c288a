// Package mock provides a scriptable translation provider for testing.
package mock

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/alouette/alouette/backend"
)

// Client is a deterministic in-process translation provider. It wraps the
// input in a marker instead of translating, so tests can assert on exactly
// what went in.
type Client struct {
	mu        sync.Mutex
	disposed  bool
	callCount int

	// Models overrides the default model list. Set before use.
	Models []backend.Candidate

	// ScriptedErrs are returned one per Execute call before normal
	// operation resumes. Set before use.
	ScriptedErrs []error
}

// New constructs a Client with one default model.
func New() *Client {
	return &Client{
		Models: []backend.Candidate{
			{Name: "mock-translator:latest", Quality: backend.QualityStandard},
		},
	}
}

// Backend returns the provider's backend ID.
func (c *Client) Backend() backend.ID { return backend.IDMock }

// ListOptions returns the configured model list.
func (c *Client) ListOptions(ctx context.Context) ([]backend.Candidate, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disposed {
		return nil, backend.ErrClientDisposed
	}
	return append([]backend.Candidate(nil), c.Models...), nil
}

// Execute returns the input tagged with the target language.
func (c *Client) Execute(ctx context.Context, req backend.Request) (*backend.Result, error) {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return nil, backend.ErrClientDisposed
	}
	c.callCount++

	if len(c.ScriptedErrs) > 0 {
		err := c.ScriptedErrs[0]
		c.ScriptedErrs = c.ScriptedErrs[1:]
		c.mu.Unlock()
		if err != nil {
			return nil, err
		}
	} else {
		c.mu.Unlock()
	}

	if strings.TrimSpace(req.Text) == "" {
		return nil, backend.NewError(backend.IDMock, backend.KindInvalidInput, backend.ErrEmptyText)
	}
	return &backend.Result{Text: fmt.Sprintf("[%s] %s", req.Language, req.Text)}, nil
}

// Dispose marks the provider disposed. Safe to call more than once.
func (c *Client) Dispose() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.disposed = true
	return nil
}

// CallCount reports how many Execute calls were made.
func (c *Client) CallCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.callCount
}

// Adapter wires the mock provider into the backend core.
type Adapter struct {
	// InitErr, when set, makes NewClient fail. For tests.
	InitErr error
}

// NewAdapter constructs an Adapter.
func NewAdapter() *Adapter { return &Adapter{} }

// Descriptor returns the mock backend's description, last in priority.
func (a *Adapter) Descriptor() backend.Descriptor {
	return backend.Descriptor{
		ID:       backend.IDMock,
		Priority: 99,
		Platforms: []backend.Platform{
			"linux", "darwin", "windows", "android", "ios", "js",
		},
	}
}

// Supported reports whether the platform is in the descriptor's list.
func (a *Adapter) Supported(p backend.Platform) bool {
	return a.Descriptor().SupportsPlatform(p)
}

// CheckAvailability always succeeds.
func (a *Adapter) CheckAvailability(ctx context.Context) (bool, map[string]string) {
	return true, map[string]string{"mode": "mock"}
}

// NewClient constructs the mock provider.
func (a *Adapter) NewClient(ctx context.Context) (backend.Client, error) {
	if a.InitErr != nil {
		return nil, &backend.InitializationError{Backend: backend.IDMock, Err: a.InitErr}
	}
	return New(), nil
}
