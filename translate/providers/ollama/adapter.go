package ollama

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/alouette/alouette/backend"
)

// Adapter wires the Ollama provider into the backend core.
type Adapter struct {
	cfg Config
}

// NewAdapter constructs an Adapter with the given configuration.
func NewAdapter(cfg Config) *Adapter {
	if cfg.URL == "" {
		cfg.URL = "http://localhost:11434"
	}
	return &Adapter{cfg: cfg}
}

// Descriptor returns the Ollama backend's description. It is preferred
// over LM Studio because its model listing carries richer metadata.
func (a *Adapter) Descriptor() backend.Descriptor {
	return backend.Descriptor{
		ID:       backend.IDOllama,
		Priority: 0,
		Platforms: []backend.Platform{
			"linux", "darwin", "windows",
		},
	}
}

// Supported reports whether the platform is in the descriptor's list.
func (a *Adapter) Supported(p backend.Platform) bool {
	return a.Descriptor().SupportsPlatform(p)
}

// CheckAvailability pings GET /api/tags with a short timeout.
func (a *Adapter) CheckAvailability(ctx context.Context) (bool, map[string]string) {
	diag := map[string]string{"url": a.cfg.URL}

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		strings.TrimRight(a.cfg.URL, "/")+"/api/tags", nil)
	if err != nil {
		diag["reason"] = err.Error()
		return false, diag
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		diag["reason"] = "server unreachable: " + err.Error()
		return false, diag
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		diag["reason"] = "unexpected status " + resp.Status
		return false, diag
	}
	return true, diag
}

// NewClient constructs the provider client. Construction itself cannot
// fail; a dead server surfaces on the first call instead.
func (a *Adapter) NewClient(ctx context.Context) (backend.Client, error) {
	return New(a.cfg), nil
}
