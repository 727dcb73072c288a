package native

import (
	"context"
	"os/exec"

	"github.com/alouette/alouette/backend"
)

// Adapter wires the native engine into the backend core.
type Adapter struct {
	cfg      Config
	platform backend.Platform
}

// NewAdapter constructs an Adapter bound to the given platform.
func NewAdapter(p backend.Platform, cfg Config) *Adapter {
	return &Adapter{cfg: cfg, platform: p}
}

// Descriptor returns the native backend's description. It sits below the
// cloud engine but above the mock.
func (a *Adapter) Descriptor() backend.Descriptor {
	return backend.Descriptor{
		ID:       backend.IDNative,
		Priority: 1,
		Platforms: []backend.Platform{
			"darwin", "linux", "windows", "android", "ios",
		},
	}
}

// Supported reports whether a speech tool strategy exists for the platform.
func (a *Adapter) Supported(p backend.Platform) bool {
	if !a.Descriptor().SupportsPlatform(p) {
		return false
	}
	_, err := speakerFor(p)
	return err == nil
}

// CheckAvailability verifies the platform speech tool resolves on PATH.
func (a *Adapter) CheckAvailability(ctx context.Context) (bool, map[string]string) {
	spk, err := speakerFor(a.platform)
	if err != nil {
		return false, map[string]string{"reason": err.Error()}
	}

	binary := a.cfg.Binary
	if binary == "" {
		binary = spk.binary()
	}
	diag := map[string]string{"binary": binary}

	path, err := exec.LookPath(binary)
	if err != nil {
		diag["reason"] = "binary not found in PATH"
		return false, diag
	}
	diag["path"] = path
	return true, diag
}

// NewClient constructs the engine for the adapter's platform.
func (a *Adapter) NewClient(ctx context.Context) (backend.Client, error) {
	engine, err := New(a.platform, a.cfg)
	if err != nil {
		return nil, &backend.InitializationError{Backend: backend.IDNative, Err: err}
	}
	return engine, nil
}
