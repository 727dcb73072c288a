package edge

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/alouette/alouette/backend"
)

// Adapter wires the edge-tts engine into the backend core. The engine is
// supported anywhere Python runs, so it lists every platform it can shell
// out on; availability comes down to the binary being installed.
type Adapter struct {
	cfg Config
}

// NewAdapter constructs an Adapter with the given configuration.
func NewAdapter(cfg Config) *Adapter {
	if cfg.Binary == "" {
		cfg.Binary = "edge-tts"
	}
	return &Adapter{cfg: cfg}
}

// Descriptor returns the edge backend's description. It carries the highest
// preference because its neural voices beat every local engine.
func (a *Adapter) Descriptor() backend.Descriptor {
	return backend.Descriptor{
		ID:       backend.IDEdge,
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

// CheckAvailability verifies the binary resolves and answers --help within
// the probe timeout.
func (a *Adapter) CheckAvailability(ctx context.Context) (bool, map[string]string) {
	diag := map[string]string{"binary": a.cfg.Binary}

	path, err := exec.LookPath(a.cfg.Binary)
	if err != nil {
		diag["reason"] = "binary not found in PATH"
		return false, diag
	}
	diag["path"] = path

	timeout := a.cfg.ProbeTimeout
	if timeout <= 0 {
		timeout = 12 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, path, "--help")
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			diag["reason"] = "probe timed out"
		} else {
			diag["reason"] = "binary failed to run: " + err.Error()
		}
		return false, diag
	}
	if !strings.Contains(out.String(), "edge-tts") && !strings.Contains(out.String(), "Microsoft") {
		diag["reason"] = "binary does not look like edge-tts"
		return false, diag
	}

	log.Debug("edge: available", "path", path)
	return true, diag
}

// NewClient resolves the binary and constructs the engine.
func (a *Adapter) NewClient(ctx context.Context) (backend.Client, error) {
	path, err := exec.LookPath(a.cfg.Binary)
	if err != nil {
		return nil, &backend.InitializationError{Backend: backend.IDEdge, Err: err}
	}
	engine, err := New(path, a.cfg)
	if err != nil {
		return nil, &backend.InitializationError{Backend: backend.IDEdge, Err: err}
	}
	return engine, nil
}
