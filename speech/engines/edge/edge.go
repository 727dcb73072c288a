// Package edge backs synthesis with the edge-tts command line tool, which
// fronts Microsoft's cloud neural voices.
package edge

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/alouette/alouette/backend"
)

// Config carries the engine's tunables.
type Config struct {
	// Binary is the edge-tts executable name or path.
	Binary string

	// ProbeTimeout bounds the availability check.
	ProbeTimeout time.Duration

	// SynthesisTimeout bounds a single synthesis call.
	SynthesisTimeout time.Duration

	// RequestsPerMinute throttles calls to the cloud service.
	RequestsPerMinute int

	// TempDir overrides the root under which the engine creates its
	// working directory. Empty means the system temp directory.
	TempDir string
}

// Engine shells out to edge-tts for voice listing and synthesis. It
// implements backend.Client.
type Engine struct {
	binary  string
	cfg     Config
	limiter *rate.Limiter
	tempDir string

	mu       sync.Mutex
	disposed bool
}

// New constructs an Engine. The binary must already be resolved; use the
// Adapter to probe and construct in one step.
func New(binary string, cfg Config) (*Engine, error) {
	root := cfg.TempDir
	if root == "" {
		root = os.TempDir()
	}
	// The engine only ever removes a directory it created itself, never
	// the caller-provided root.
	tempDir, err := os.MkdirTemp(root, "alouette-edge-")
	if err != nil {
		return nil, fmt.Errorf("creating temp directory: %w", err)
	}

	rpm := cfg.RequestsPerMinute
	if rpm <= 0 {
		rpm = 60
	}

	return &Engine{
		binary:  binary,
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), 1),
		tempDir: tempDir,
	}, nil
}

// Backend returns the engine's backend ID.
func (e *Engine) Backend() backend.ID { return backend.IDEdge }

// ListOptions runs edge-tts --list-voices and parses the table.
func (e *Engine) ListOptions(ctx context.Context) ([]backend.Candidate, error) {
	if err := e.check(); err != nil {
		return nil, err
	}

	timeout := e.cfg.ProbeTimeout
	if timeout <= 0 {
		timeout = 12 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, e.binary, "--list-voices")
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, e.classify(ctx, err, stderr.String())
	}

	voices := parseVoiceList(stdout.String())
	log.Debug("edge: listed voices", "count", len(voices))
	return voices, nil
}

// Execute synthesizes one request to MP3 via --write-media.
func (e *Engine) Execute(ctx context.Context, req backend.Request) (*backend.Result, error) {
	if err := e.check(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Text) == "" {
		return nil, backend.NewError(backend.IDEdge, backend.KindInvalidInput, backend.ErrEmptyText)
	}

	if err := e.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	timeout := e.cfg.SynthesisTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	outFile := filepath.Join(e.tempDir, fmt.Sprintf("edge_%d.mp3", time.Now().UnixNano()))
	defer os.Remove(outFile)

	args := []string{
		"--text", req.Text,
		"--write-media", outFile,
		"--rate", formatPercent(req.Rate),
		"--volume", formatPercent(req.Volume),
		"--pitch", formatPitch(req.Pitch),
	}
	if req.Option != "" {
		args = append(args, "--voice", req.Option)
	}

	log.Debug("edge: synthesizing", "textLen", len(req.Text), "voice", req.Option)

	cmd := exec.CommandContext(ctx, e.binary, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, e.classify(ctx, err, stderr.String())
	}

	audio, err := os.ReadFile(outFile)
	if err != nil {
		return nil, backend.NewError(backend.IDEdge, backend.KindUnknown,
			fmt.Errorf("reading synthesized audio: %w", err))
	}
	if len(audio) == 0 {
		return nil, backend.NewError(backend.IDEdge, backend.KindUnavailable,
			fmt.Errorf("edge-tts produced no audio"))
	}

	return &backend.Result{Audio: audio, Format: "mp3"}, nil
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
	if e.tempDir != "" {
		return os.RemoveAll(e.tempDir)
	}
	return nil
}

func (e *Engine) check() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.disposed {
		return backend.ErrClientDisposed
	}
	return nil
}

// classify maps a failed edge-tts invocation to a backend error kind so the
// retry layer can tell transient network trouble from bad input.
func (e *Engine) classify(ctx context.Context, err error, stderr string) error {
	switch {
	case ctx.Err() == context.DeadlineExceeded:
		return backend.NewError(backend.IDEdge, backend.KindTimeout,
			fmt.Errorf("edge-tts timed out: %w", err))
	case strings.Contains(stderr, "401") || strings.Contains(stderr, "Unauthorized"):
		return backend.NewError(backend.IDEdge, backend.KindAuthFailure,
			fmt.Errorf("edge-tts rejected credentials: %s", firstLine(stderr)))
	case strings.Contains(stderr, "usage:") || strings.Contains(stderr, "invalid"):
		return backend.NewError(backend.IDEdge, backend.KindInvalidInput,
			fmt.Errorf("edge-tts rejected arguments: %s", firstLine(stderr)))
	case strings.Contains(stderr, "429") || strings.Contains(stderr, "Too Many Requests"):
		return backend.NewError(backend.IDEdge, backend.KindBusy,
			fmt.Errorf("edge-tts throttled: %s", firstLine(stderr)))
	default:
		return backend.NewError(backend.IDEdge, backend.KindUnavailable,
			fmt.Errorf("edge-tts failed: %w: %s", err, firstLine(stderr)))
	}
}

// parseVoiceList parses the --list-voices table. The header row names the
// columns; data rows put the voice name first and the gender second.
func parseVoiceList(output string) []backend.Candidate {
	var voices []backend.Candidate
	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		name := fields[0]
		// Skip the header and its underline row.
		if name == "Name" || strings.HasPrefix(name, "-") {
			continue
		}
		quality := backend.QualityStandard
		if strings.Contains(name, "Neural") {
			quality = backend.QualityNeural
		}
		voices = append(voices, backend.Candidate{
			Name:    name,
			Locale:  localeFromName(name),
			Quality: quality,
			Gender:  fields[1],
		})
	}
	return voices
}

// localeFromName extracts "en-US" from "en-US-AriaNeural".
func localeFromName(name string) string {
	parts := strings.SplitN(name, "-", 3)
	if len(parts) >= 2 {
		return parts[0] + "-" + parts[1]
	}
	return name
}

// formatPercent renders a 1.0-neutral multiplier as the signed percent
// string edge-tts expects, e.g. 1.25 becomes "+25%".
func formatPercent(v float64) string {
	if v <= 0 {
		v = 1.0
	}
	return fmt.Sprintf("%+d%%", int(math.Round((v-1.0)*100)))
}

// formatPitch renders a 1.0-neutral multiplier as a signed Hz offset,
// e.g. 1.1 becomes "+10Hz".
func formatPitch(v float64) string {
	if v <= 0 {
		v = 1.0
	}
	return fmt.Sprintf("%+dHz", int(math.Round((v-1.0)*100)))
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
