// Package native backs synthesis with the operating system's own speech
// tool: say on macOS, espeak-ng on Linux, SAPI via PowerShell on Windows.
package native

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/alouette/alouette/backend"
)

// Config carries the engine's tunables.
type Config struct {
	// Binary overrides the platform's default command.
	Binary string

	// Timeout bounds a single synthesis call.
	Timeout time.Duration

	// RateScale calibrates the platform's rate against the neutral 1.0 of
	// the shared prosody model. Platforms whose default voice runs fast
	// set this below 1.0.
	RateScale float64
}

// speaker is the per-platform command strategy. Implementations build
// argument lists and parse voice listings but never run anything.
type speaker interface {
	binary() string
	listArgs() []string
	parseVoices(output string) []backend.Candidate
	synthArgs(req backend.Request, outFile string, rateScale float64) []string
	format() string
}

// Engine shells out to the platform speech tool. It implements
// backend.Client.
type Engine struct {
	cfg     Config
	speaker speaker
	binary  string
	tempDir string

	mu       sync.Mutex
	disposed bool
}

// New constructs an Engine for the given platform.
func New(p backend.Platform, cfg Config) (*Engine, error) {
	spk, err := speakerFor(p)
	if err != nil {
		return nil, err
	}

	binary := cfg.Binary
	if binary == "" {
		binary = spk.binary()
	}
	path, err := exec.LookPath(binary)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", binary, err)
	}

	tempDir, err := os.MkdirTemp(os.TempDir(), "alouette-native-")
	if err != nil {
		return nil, fmt.Errorf("creating temp directory: %w", err)
	}

	if cfg.RateScale <= 0 {
		cfg.RateScale = 1.0
	}

	return &Engine{cfg: cfg, speaker: spk, binary: path, tempDir: tempDir}, nil
}

func speakerFor(p backend.Platform) (speaker, error) {
	switch p {
	case "darwin":
		return saySpeaker{}, nil
	case "linux":
		return espeakSpeaker{}, nil
	case "windows":
		return sapiSpeaker{}, nil
	default:
		return nil, fmt.Errorf("no native speech tool for platform %q", p)
	}
}

// Backend returns the engine's backend ID.
func (e *Engine) Backend() backend.ID { return backend.IDNative }

// ListOptions lists the platform's installed voices.
func (e *Engine) ListOptions(ctx context.Context) ([]backend.Candidate, error) {
	if err := e.check(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout())
	defer cancel()

	cmd := exec.CommandContext(ctx, e.binary, e.speaker.listArgs()...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, e.classify(ctx, err, stderr.String())
	}

	voices := e.speaker.parseVoices(stdout.String())
	log.Debug("native: listed voices", "count", len(voices))
	return voices, nil
}

// Execute synthesizes one request to an audio file and returns its bytes.
func (e *Engine) Execute(ctx context.Context, req backend.Request) (*backend.Result, error) {
	if err := e.check(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Text) == "" {
		return nil, backend.NewError(backend.IDNative, backend.KindInvalidInput, backend.ErrEmptyText)
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout())
	defer cancel()

	outFile := filepath.Join(e.tempDir, fmt.Sprintf("native_%d.%s", time.Now().UnixNano(), e.speaker.format()))
	defer os.Remove(outFile)

	args := e.speaker.synthArgs(req, outFile, e.cfg.RateScale)
	log.Debug("native: synthesizing", "textLen", len(req.Text), "voice", req.Option)

	cmd := exec.CommandContext(ctx, e.binary, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, e.classify(ctx, err, stderr.String())
	}

	audio, err := os.ReadFile(outFile)
	if err != nil {
		return nil, backend.NewError(backend.IDNative, backend.KindUnknown,
			fmt.Errorf("reading synthesized audio: %w", err))
	}
	if len(audio) == 0 {
		return nil, backend.NewError(backend.IDNative, backend.KindUnavailable,
			fmt.Errorf("%s produced no audio", filepath.Base(e.binary)))
	}

	return &backend.Result{Audio: audio, Format: e.speaker.format()}, nil
}

// Dispose removes the engine's own working directory. Safe to call more
// than once.
func (e *Engine) Dispose() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.disposed {
		return nil
	}
	e.disposed = true
	return os.RemoveAll(e.tempDir)
}

func (e *Engine) check() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.disposed {
		return backend.ErrClientDisposed
	}
	return nil
}

func (e *Engine) timeout() time.Duration {
	if e.cfg.Timeout > 0 {
		return e.cfg.Timeout
	}
	return 20 * time.Second
}

func (e *Engine) classify(ctx context.Context, err error, stderr string) error {
	switch {
	case ctx.Err() == context.DeadlineExceeded:
		return backend.NewError(backend.IDNative, backend.KindTimeout,
			fmt.Errorf("%s timed out: %w", filepath.Base(e.binary), err))
	case strings.Contains(stderr, "Voice") && strings.Contains(stderr, "not found"):
		return backend.NewError(backend.IDNative, backend.KindInvalidInput,
			fmt.Errorf("voice not installed: %s", strings.TrimSpace(stderr)))
	default:
		return backend.NewError(backend.IDNative, backend.KindUnavailable,
			fmt.Errorf("%s failed: %w: %s", filepath.Base(e.binary), err, strings.TrimSpace(stderr)))
	}
}
