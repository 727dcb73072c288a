package backend

import (
	"context"
	"sync"
)

// fakeClient is a scriptable Client for tests. Errs are consumed one per
// Execute/ListOptions call; when the script runs out, calls succeed.
type fakeClient struct {
	id      ID
	options []Candidate
	result  *Result

	mu        sync.Mutex
	errs      []error
	calls     int
	listCalls int
	disposed  int
}

func (f *fakeClient) Backend() ID { return f.id }

func (f *fakeClient) nextErr() error {
	if len(f.errs) == 0 {
		return nil
	}
	err := f.errs[0]
	f.errs = f.errs[1:]
	return err
}

func (f *fakeClient) ListOptions(ctx context.Context) ([]Candidate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if err := f.nextErr(); err != nil {
		return nil, err
	}
	return f.options, nil
}

func (f *fakeClient) Execute(ctx context.Context, req Request) (*Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if err := f.nextErr(); err != nil {
		return nil, err
	}
	if f.result != nil {
		return f.result, nil
	}
	return &Result{Text: "ok"}, nil
}

func (f *fakeClient) Dispose() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disposed++
	return nil
}

func (f *fakeClient) executeCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// fakeAdapter is a scriptable Adapter for tests.
type fakeAdapter struct {
	descriptor Descriptor
	available  bool
	initErr    error
	client     *fakeClient

	mu          sync.Mutex
	checkCalls  int
	clientCalls int
}

func (f *fakeAdapter) Descriptor() Descriptor { return f.descriptor }

func (f *fakeAdapter) Supported(p Platform) bool {
	return f.descriptor.SupportsPlatform(p)
}

func (f *fakeAdapter) CheckAvailability(ctx context.Context) (bool, map[string]string) {
	f.mu.Lock()
	f.checkCalls++
	f.mu.Unlock()
	if !f.available {
		return false, map[string]string{"reason": "scripted unavailable"}
	}
	return true, nil
}

func (f *fakeAdapter) NewClient(ctx context.Context) (Client, error) {
	f.mu.Lock()
	f.clientCalls++
	f.mu.Unlock()
	if f.initErr != nil {
		return nil, &InitializationError{Backend: f.descriptor.ID, Err: f.initErr}
	}
	if f.client != nil {
		return f.client, nil
	}
	return &fakeClient{id: f.descriptor.ID}, nil
}

func newFakeAdapter(id ID, priority int, available bool, platforms ...Platform) *fakeAdapter {
	if len(platforms) == 0 {
		platforms = []Platform{"linux", "darwin", "windows"}
	}
	return &fakeAdapter{
		descriptor: Descriptor{ID: id, Platforms: platforms, Priority: priority},
		available:  available,
	}
}
