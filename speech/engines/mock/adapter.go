package mock

import (
	"context"

	"github.com/alouette/alouette/backend"
)

// Adapter wires the mock engine into the backend core. It runs everywhere
// and is always available, which makes it the last-resort fallback.
type Adapter struct {
	cfg Config

	// InitErr, when set, makes NewClient fail. For tests.
	InitErr error
}

// NewAdapter constructs an Adapter with the given configuration.
func NewAdapter(cfg Config) *Adapter {
	return &Adapter{cfg: cfg}
}

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

// NewClient constructs the mock engine.
func (a *Adapter) NewClient(ctx context.Context) (backend.Client, error) {
	if a.InitErr != nil {
		return nil, &backend.InitializationError{Backend: backend.IDMock, Err: a.InitErr}
	}
	return New(a.cfg), nil
}
