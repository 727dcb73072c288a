package speech

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/alouette/alouette/backend"
	"github.com/alouette/alouette/speech/engines/edge"
	"github.com/alouette/alouette/speech/engines/mock"
	"github.com/alouette/alouette/speech/engines/native"
)

// Synthesizer is the caller-facing facade over engine selection, retry and
// the audio cache. One Synthesizer owns at most one live engine client at a
// time.
type Synthesizer struct {
	cfg      Config
	selector *backend.Selector
	registry *backend.Registry
	prober   *backend.Prober
	cache    *AudioCache

	mu     sync.Mutex
	client *backend.ResilientClient
}

// New builds a Synthesizer from configuration. No engine is probed or
// constructed until Initialize.
func New(cfg Config) (*Synthesizer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	platform := backend.CurrentPlatform()
	adapters := []backend.Adapter{
		edge.NewAdapter(edge.Config{
			Binary:            cfg.Edge.Binary,
			ProbeTimeout:      cfg.Edge.ProbeTimeout,
			SynthesisTimeout:  cfg.Edge.SynthesisTimeout,
			RequestsPerMinute: cfg.Edge.RequestsPerMinute,
			TempDir:           cfg.Edge.TempDir,
		}),
		native.NewAdapter(platform, native.Config{
			Binary:    cfg.Native.Binary,
			Timeout:   cfg.Native.Timeout,
			RateScale: cfg.Native.RateScale,
		}),
		mock.NewAdapter(mock.Config{
			GenerationDelay: cfg.Mock.GenerationDelay,
			FailureRate:     cfg.Mock.FailureRate,
		}),
	}

	registry := backend.NewRegistry()
	prober := backend.NewProber(adapters, platform, backend.DefaultProbeTTL)
	selector := backend.NewSelector(adapters, prober, registry, platform)

	s := &Synthesizer{
		cfg:      cfg,
		selector: selector,
		registry: registry,
		prober:   prober,
	}

	if cfg.Cache.Enabled {
		cache, err := NewAudioCache(cfg.Cache)
		if err != nil {
			log.Warn("audio cache disabled", "err", err)
		} else {
			s.cache = cache
		}
	}
	return s, nil
}

// Initialize selects and constructs an engine per the configured preference.
func (s *Synthesizer) Initialize(ctx context.Context) error {
	preferred, err := ParseEngine(s.cfg.Engine)
	if err != nil {
		return err
	}

	handle, err := s.selector.Activate(ctx, preferred, s.cfg.AutoFallback)
	if err != nil {
		return err
	}
	return s.adopt(handle)
}

// Synthesize converts text to audio, consulting the cache first. The
// request walks the full lifecycle so a cancellation or failure always
// lands in a terminal state.
func (s *Synthesizer) Synthesize(ctx context.Context, text string) (*backend.Result, error) {
	sm := backend.NewStateMachine()
	if err := sm.Start(); err != nil {
		return nil, err
	}

	if strings.TrimSpace(text) == "" {
		_ = sm.Fail()
		return nil, &backend.ValidationError{Field: "text", Err: backend.ErrEmptyText}
	}

	client, err := s.currentClient()
	if err != nil {
		_ = sm.Fail()
		return nil, err
	}

	voice, err := s.resolveVoice(ctx, client)
	if err != nil {
		_ = sm.Fail()
		return nil, err
	}

	key := Key(text, voice, s.cfg.Rate, s.cfg.Pitch, s.cfg.Volume)
	if s.cache != nil {
		if audio, ok := s.cache.Get(key); ok {
			_ = sm.Dispatch()
			_ = sm.Succeed()
			log.Debug("cache hit", "bytes", len(audio))
			// The cache stores raw bytes only; the container is whatever the
			// engine produced when the entry was written.
			return &backend.Result{Audio: audio}, nil
		}
	}

	if err := sm.Dispatch(); err != nil {
		return nil, err
	}

	result, err := client.Execute(ctx, backend.Request{
		Text:     text,
		Option:   voice,
		Language: s.cfg.Language,
		Rate:     s.cfg.Rate,
		Pitch:    s.cfg.Pitch,
		Volume:   s.cfg.Volume,
	})
	if err != nil {
		if errors.Is(err, context.Canceled) {
			_ = sm.Cancel()
		} else {
			_ = sm.Fail()
		}
		return nil, err
	}

	_ = sm.Succeed()
	if s.cache != nil {
		if err := s.cache.Put(key, result.Audio); err != nil {
			log.Warn("caching audio failed", "err", err)
		}
	}
	return result, nil
}

// Voices lists the active engine's voices.
func (s *Synthesizer) Voices(ctx context.Context) ([]backend.Candidate, error) {
	client, err := s.currentClient()
	if err != nil {
		return nil, err
	}
	return client.ListOptions(ctx)
}

// SwitchEngine moves to the named engine. On failure the current engine
// stays active and keeps working.
func (s *Synthesizer) SwitchEngine(ctx context.Context, name string) error {
	target, err := ParseEngine(name)
	if err != nil {
		return err
	}
	if target == backend.IDUnknown {
		return &backend.ValidationError{Field: "engine", Err: fmt.Errorf("cannot switch to %q", name)}
	}

	handle, err := s.selector.Switch(ctx, target)
	if err != nil {
		return err
	}
	return s.adopt(handle)
}

// ActiveBackend returns the selected engine's ID, or IDUnknown before
// Initialize.
func (s *Synthesizer) ActiveBackend() backend.ID {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client == nil {
		return backend.IDUnknown
	}
	return s.client.Backend()
}

// AvailableBackends probes every supported engine and reports the results
// in priority order.
func (s *Synthesizer) AvailableBackends(ctx context.Context) []backend.ProbeResult {
	var results []backend.ProbeResult
	for _, id := range s.selector.SupportedBackends() {
		results = append(results, s.prober.Probe(ctx, id))
	}
	return results
}

// CacheStats reports audio cache effectiveness. Zero values when the cache
// is disabled.
func (s *Synthesizer) CacheStats() CacheStats {
	if s.cache == nil {
		return CacheStats{}
	}
	return s.cache.Stats()
}

// Dispose releases every engine client and the cache. Idempotent.
func (s *Synthesizer) Dispose() error {
	s.mu.Lock()
	s.client = nil
	s.mu.Unlock()

	err := s.registry.Close()
	if s.cache != nil {
		if cerr := s.cache.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

// adopt wraps the handle's raw client with the retry policy and installs it
// as the active client.
func (s *Synthesizer) adopt(handle *backend.Handle) error {
	raw, err := handle.Client()
	if err != nil {
		return err
	}
	policy := backend.RetryPolicy{
		MaxAttempts: s.cfg.Retry.MaxAttempts,
		BaseDelay:   s.cfg.Retry.BaseDelay,
		Multiplier:  s.cfg.Retry.Multiplier,
		CallTimeout: s.cfg.Retry.CallTimeout,
		MinSpacing:  s.cfg.Retry.MinSpacing,
	}

	s.mu.Lock()
	s.client = backend.NewResilientClient(raw, policy)
	s.mu.Unlock()
	log.Info("engine active", "backend", raw.Backend())
	return nil
}

func (s *Synthesizer) currentClient() (*backend.ResilientClient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client == nil {
		return nil, fmt.Errorf("synthesizer not initialized")
	}
	return s.client, nil
}

// resolveVoice returns the pinned voice, or picks one by the configured
// language and quality preference. An engine with no matching voice is let
// through with no explicit voice so its own default applies.
func (s *Synthesizer) resolveVoice(ctx context.Context, client *backend.ResilientClient) (string, error) {
	if s.cfg.Voice != "" {
		return s.cfg.Voice, nil
	}

	voices, err := client.ListOptions(ctx)
	if err != nil {
		return "", err
	}
	picked, ok := backend.Pick(voices, backend.Target{
		Locale:       s.cfg.Language,
		PreferNeural: s.cfg.PreferNeural,
	})
	if !ok {
		log.Debug("no voice matched, using engine default", "language", s.cfg.Language)
		return "", nil
	}
	return picked.Name, nil
}

// ParseEngine maps a configured engine name to its backend ID. "auto" maps
// to IDUnknown, meaning no preference.
func ParseEngine(name string) (backend.ID, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "auto":
		return backend.IDUnknown, nil
	case "edge":
		return backend.IDEdge, nil
	case "native":
		return backend.IDNative, nil
	case "mock":
		return backend.IDMock, nil
	default:
		return backend.IDUnknown, &backend.ValidationError{
			Field: "engine",
			Err:   fmt.Errorf("unknown engine %q", name),
		}
	}
}
