package translate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/alouette/alouette/backend"
	"github.com/alouette/alouette/translate/providers/lmstudio"
	"github.com/alouette/alouette/translate/providers/mock"
	"github.com/alouette/alouette/translate/providers/ollama"
)

// modelFragments orders the model tags discovery and model picking prefer
// when nothing is pinned: a tagged latest first, then smaller quantized
// sizes that still translate acceptably.
var modelFragments = []string{"latest", "7b", "3b", "1.5b"}

// Translator is the caller-facing facade over provider selection, retry
// and model picking. One Translator owns at most one live provider client
// at a time.
type Translator struct {
	cfg      Config
	selector *backend.Selector
	registry *backend.Registry
	prober   *backend.Prober

	mu     sync.Mutex
	client *backend.ResilientClient
	model  string
}

// New builds a Translator from configuration. No provider is probed or
// constructed until Initialize.
func New(cfg Config) (*Translator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	platform := backend.CurrentPlatform()
	adapters := []backend.Adapter{
		ollama.NewAdapter(ollama.Config{URL: cfg.Ollama.URL, Timeout: cfg.Ollama.Timeout}),
		lmstudio.NewAdapter(lmstudio.Config{URL: cfg.LMStudio.URL, Timeout: cfg.LMStudio.Timeout}),
		mock.NewAdapter(),
	}

	registry := backend.NewRegistry()
	prober := backend.NewProber(adapters, platform, backend.DefaultProbeTTL)
	selector := backend.NewSelector(adapters, prober, registry, platform)

	return &Translator{
		cfg:      cfg,
		selector: selector,
		registry: registry,
		prober:   prober,
	}, nil
}

// Initialize selects and constructs a provider per the configured
// preference.
func (t *Translator) Initialize(ctx context.Context) error {
	preferred, err := ParseProvider(t.cfg.Provider)
	if err != nil {
		return err
	}

	handle, err := t.selector.Activate(ctx, preferred, t.cfg.AutoFallback)
	if err != nil {
		return err
	}
	return t.adopt(handle)
}

// Translate converts text into the configured target language. The request
// walks the full lifecycle so a cancellation or failure always lands in a
// terminal state.
func (t *Translator) Translate(ctx context.Context, text string) (string, error) {
	return t.TranslateTo(ctx, text, t.cfg.TargetLanguage)
}

// TranslateTo converts text into the given target language.
func (t *Translator) TranslateTo(ctx context.Context, text, target string) (string, error) {
	sm := backend.NewStateMachine()
	if err := sm.Start(); err != nil {
		return "", err
	}

	if strings.TrimSpace(text) == "" {
		_ = sm.Fail()
		return "", &backend.ValidationError{Field: "text", Err: backend.ErrEmptyText}
	}
	if target == "" {
		_ = sm.Fail()
		return "", &backend.ValidationError{Field: "target", Err: errors.New("target language is empty")}
	}

	client, err := t.currentClient()
	if err != nil {
		_ = sm.Fail()
		return "", err
	}

	model, err := t.resolveModel(ctx, client)
	if err != nil {
		_ = sm.Fail()
		return "", err
	}

	if err := sm.Dispatch(); err != nil {
		return "", err
	}

	result, err := client.Execute(ctx, backend.Request{
		Text:           text,
		Option:         model,
		Language:       target,
		SourceLanguage: t.cfg.SourceLanguage,
	})
	if err != nil {
		if errors.Is(err, context.Canceled) {
			_ = sm.Cancel()
		} else {
			_ = sm.Fail()
		}
		return "", err
	}

	_ = sm.Succeed()
	return result.Text, nil
}

// Models lists the active provider's models.
func (t *Translator) Models(ctx context.Context) ([]backend.Candidate, error) {
	client, err := t.currentClient()
	if err != nil {
		return nil, err
	}
	return client.ListOptions(ctx)
}

// SwitchProvider moves to the named provider. On failure the current
// provider stays active and keeps working.
func (t *Translator) SwitchProvider(ctx context.Context, name string) error {
	target, err := ParseProvider(name)
	if err != nil {
		return err
	}
	if target == backend.IDUnknown {
		return &backend.ValidationError{Field: "provider", Err: fmt.Errorf("cannot switch to %q", name)}
	}

	handle, err := t.selector.Switch(ctx, target)
	if err != nil {
		return err
	}
	return t.adopt(handle)
}

// ActiveBackend returns the selected provider's ID, or IDUnknown before
// Initialize.
func (t *Translator) ActiveBackend() backend.ID {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.client == nil {
		return backend.IDUnknown
	}
	return t.client.Backend()
}

// AvailableBackends probes every supported provider and reports the
// results in priority order.
func (t *Translator) AvailableBackends(ctx context.Context) []backend.ProbeResult {
	var results []backend.ProbeResult
	for _, id := range t.selector.SupportedBackends() {
		results = append(results, t.prober.Probe(ctx, id))
	}
	return results
}

// Dispose releases every provider client. Idempotent.
func (t *Translator) Dispose() error {
	t.mu.Lock()
	t.client = nil
	t.mu.Unlock()
	return t.registry.Close()
}

// Discover probes the well-known local server addresses until one responds
// with a usable model, then installs the winning provider and model as the
// active configuration. Returns ErrNotFound when nothing answers.
func (t *Translator) Discover(ctx context.Context) (*backend.Discovered, error) {
	target := backend.Target{NameFragments: modelFragments, Query: t.cfg.Model}
	endpoints := []backend.Endpoint{
		{URL: t.cfg.Ollama.URL, Backend: backend.IDOllama, Target: target},
		{URL: t.cfg.LMStudio.URL, Backend: backend.IDLMStudio, Target: target},
	}

	loop := backend.NewDiscoveryLoop(backend.DefaultDiscoveryConfig(), dialEndpoint)
	found, err := loop.Run(ctx, endpoints)
	if err != nil {
		return nil, err
	}

	if err := t.SwitchProvider(ctx, found.Endpoint.Backend.String()); err != nil {
		return nil, err
	}
	t.mu.Lock()
	t.model = found.Choice.Name
	t.mu.Unlock()
	log.Info("discovery installed provider",
		"backend", found.Endpoint.Backend, "model", found.Choice.Name)
	return found, nil
}

func dialEndpoint(ep backend.Endpoint) (backend.Client, error) {
	switch ep.Backend {
	case backend.IDOllama:
		return ollama.New(ollama.Config{URL: ep.URL}), nil
	case backend.IDLMStudio:
		return lmstudio.New(lmstudio.Config{URL: ep.URL}), nil
	default:
		return nil, fmt.Errorf("no dialer for backend %s", ep.Backend)
	}
}

// adopt wraps the handle's raw client with the retry policy and installs
// it as the active client. Any previously resolved model is forgotten
// because model tags are provider-specific.
func (t *Translator) adopt(handle *backend.Handle) error {
	raw, err := handle.Client()
	if err != nil {
		return err
	}
	policy := backend.RetryPolicy{
		MaxAttempts: t.cfg.Retry.MaxAttempts,
		BaseDelay:   t.cfg.Retry.BaseDelay,
		Multiplier:  t.cfg.Retry.Multiplier,
		CallTimeout: t.cfg.Retry.CallTimeout,
		MinSpacing:  t.cfg.Retry.MinSpacing,
	}

	t.mu.Lock()
	t.client = backend.NewResilientClient(raw, policy)
	t.model = ""
	t.mu.Unlock()
	log.Info("provider active", "backend", raw.Backend())
	return nil
}

func (t *Translator) currentClient() (*backend.ResilientClient, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.client == nil {
		return nil, fmt.Errorf("translator not initialized")
	}
	return t.client, nil
}

// resolveModel returns the pinned model, a previously resolved one, or
// picks from the provider's list by the preferred tag fragments.
func (t *Translator) resolveModel(ctx context.Context, client *backend.ResilientClient) (string, error) {
	if t.cfg.Model != "" {
		return t.cfg.Model, nil
	}

	t.mu.Lock()
	cached := t.model
	t.mu.Unlock()
	if cached != "" {
		return cached, nil
	}

	models, err := client.ListOptions(ctx)
	if err != nil {
		return "", err
	}
	picked, ok := backend.Pick(models, backend.Target{NameFragments: modelFragments})
	if !ok {
		return "", backend.NewError(client.Backend(), backend.KindUnavailable,
			errors.New("provider has no models"))
	}

	t.mu.Lock()
	t.model = picked.Name
	t.mu.Unlock()
	log.Debug("resolved model", "model", picked.Name)
	return picked.Name, nil
}

// ParseProvider maps a configured provider name to its backend ID. "auto"
// maps to IDUnknown, meaning no preference.
func ParseProvider(name string) (backend.ID, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "auto":
		return backend.IDUnknown, nil
	case "ollama":
		return backend.IDOllama, nil
	case "lmstudio":
		return backend.IDLMStudio, nil
	case "mock":
		return backend.IDMock, nil
	default:
		return backend.IDUnknown, &backend.ValidationError{
			Field: "provider",
			Err:   fmt.Errorf("unknown provider %q", name),
		}
	}
}
