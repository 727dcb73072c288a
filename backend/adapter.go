package backend

import "context"

// Adapter is the uniform wrapper around one concrete backend. Supported is
// a pure platform check; CheckAvailability may spawn a diagnostic process
// or make a lightweight network call and must apply its own timeout so a
// hung tool cannot stall selection.
type Adapter interface {
	// Descriptor returns the backend's immutable description.
	Descriptor() Descriptor

	// Supported reports whether the backend can structurally run on the
	// platform. No I/O.
	Supported(p Platform) bool

	// CheckAvailability reports whether the backend is reachable right now,
	// with free-form diagnostics. It never returns an error for "not
	// available"; reasons land in the diagnostics map.
	CheckAvailability(ctx context.Context) (bool, map[string]string)

	// NewClient constructs the concrete client. It fails fast with an
	// *InitializationError rather than returning a half-initialized client.
	NewClient(ctx context.Context) (Client, error)
}
