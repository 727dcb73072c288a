// Package mock provides a scriptable speech engine for testing.
package mock

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/alouette/alouette/backend"
)

// Config carries the mock engine's tunables.
type Config struct {
	// GenerationDelay simulates synthesis latency.
	GenerationDelay time.Duration

	// FailureRate injects random transient failures, 0.0 to 1.0.
	FailureRate float64
}

// Engine is a deterministic in-process backend.Client for tests and dry
// runs. It produces silence sized to the input text.
type Engine struct {
	cfg Config
	rng *rand.Rand

	mu        sync.Mutex
	disposed  bool
	callCount int

	// Voices overrides the default listing. Set before use.
	Voices []backend.Candidate

	// ScriptedErrs are returned one per Execute call before normal
	// operation resumes. Set before use.
	ScriptedErrs []error
}

// New constructs an Engine with a deterministic failure source.
func New(cfg Config) *Engine {
	return &Engine{
		cfg: cfg,
		rng: rand.New(rand.NewSource(1)),
		Voices: []backend.Candidate{
			{Name: "Mock Standard", Locale: "en-US", Quality: backend.QualityStandard, Gender: "neutral"},
			{Name: "Mock Neural", Locale: "en-US", Quality: backend.QualityNeural, Gender: "neutral"},
		},
	}
}

// Backend returns the engine's backend ID.
func (e *Engine) Backend() backend.ID { return backend.IDMock }

// ListOptions returns the configured voice list.
func (e *Engine) ListOptions(ctx context.Context) ([]backend.Candidate, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.disposed {
		return nil, backend.ErrClientDisposed
	}
	return append([]backend.Candidate(nil), e.Voices...), nil
}

// Execute simulates one synthesis: scripted errors first, then the random
// failure rate, then silence proportional to the text length.
func (e *Engine) Execute(ctx context.Context, req backend.Request) (*backend.Result, error) {
	e.mu.Lock()
	if e.disposed {
		e.mu.Unlock()
		return nil, backend.ErrClientDisposed
	}
	e.callCount++

	if len(e.ScriptedErrs) > 0 {
		err := e.ScriptedErrs[0]
		e.ScriptedErrs = e.ScriptedErrs[1:]
		e.mu.Unlock()
		if err != nil {
			return nil, err
		}
	} else {
		failed := e.cfg.FailureRate > 0 && e.rng.Float64() < e.cfg.FailureRate
		e.mu.Unlock()
		if failed {
			return nil, backend.NewError(backend.IDMock, backend.KindBusy, errInjected)
		}
	}

	if strings.TrimSpace(req.Text) == "" {
		return nil, backend.NewError(backend.IDMock, backend.KindInvalidInput, backend.ErrEmptyText)
	}

	if e.cfg.GenerationDelay > 0 {
		select {
		case <-time.After(e.cfg.GenerationDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	// Roughly 150 words per minute of 22050Hz 16-bit mono silence.
	words := len(strings.Fields(req.Text))
	if words == 0 {
		words = 1
	}
	samples := words * 22050 * 60 / 150
	return &backend.Result{Audio: make([]byte, samples*2), Format: "pcm"}, nil
}

// Dispose marks the engine disposed. Safe to call more than once.
func (e *Engine) Dispose() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.disposed = true
	return nil
}

// CallCount reports how many Execute calls were made.
func (e *Engine) CallCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.callCount
}

var errInjected = errors.New("injected mock failure")
