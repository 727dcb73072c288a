package backend

import (
	"context"
	"errors"
	"testing"
)

const testPlatform = Platform("linux")

func newSelector(adapters ...Adapter) *Selector {
	prober := NewProber(adapters, testPlatform, 0)
	return NewSelector(adapters, prober, NewRegistry(), testPlatform)
}

// TestSelectPicksHighestPriorityAvailable tests priority-ordered selection
// among available backends.
func TestSelectPicksHighestPriorityAvailable(t *testing.T) {
	edge := newFakeAdapter(IDEdge, 0, true)
	native := newFakeAdapter(IDNative, 1, true)
	s := newSelector(native, edge) // declaration order deliberately reversed

	adapter, err := s.Select(context.Background(), IDUnknown)
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	if adapter.Descriptor().ID != IDEdge {
		t.Errorf("Select() = %v, want edge (priority 0)", adapter.Descriptor().ID)
	}
}

// TestSelectFallsDownPriorityList tests that an unavailable preferred
// backend yields the next available one.
func TestSelectFallsDownPriorityList(t *testing.T) {
	edge := newFakeAdapter(IDEdge, 0, false)
	native := newFakeAdapter(IDNative, 1, true)
	s := newSelector(edge, native)

	adapter, err := s.Select(context.Background(), IDUnknown)
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	if adapter.Descriptor().ID != IDNative {
		t.Errorf("Select() = %v, want native", adapter.Descriptor().ID)
	}
}

// TestSelectNeverReturnsUnsupported tests that selection only ever yields a
// platform-supported backend, or ErrNoSupportedBackend.
func TestSelectNeverReturnsUnsupported(t *testing.T) {
	darwinOnly := newFakeAdapter(IDNative, 0, true, "darwin")
	s := newSelector(darwinOnly)

	_, err := s.Select(context.Background(), IDUnknown)
	if !errors.Is(err, ErrNoSupportedBackend) {
		t.Errorf("Select() error = %v, want ErrNoSupportedBackend", err)
	}
}

// TestSelectLastResortFallback tests that with everything unavailable the
// first supported adapter is still returned, so the caller gets a named
// failure from client construction rather than "no backend".
func TestSelectLastResortFallback(t *testing.T) {
	edge := newFakeAdapter(IDEdge, 0, false)
	native := newFakeAdapter(IDNative, 1, false)
	s := newSelector(edge, native)

	adapter, err := s.Select(context.Background(), IDUnknown)
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	if adapter.Descriptor().ID != IDEdge {
		t.Errorf("last-resort adapter = %v, want first supported (edge)", adapter.Descriptor().ID)
	}
}

// TestSelectPreferredFirst tests that a preferred backend is tried before
// higher-priority ones.
func TestSelectPreferredFirst(t *testing.T) {
	edge := newFakeAdapter(IDEdge, 0, true)
	native := newFakeAdapter(IDNative, 1, true)
	s := newSelector(edge, native)

	adapter, err := s.Select(context.Background(), IDNative)
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	if adapter.Descriptor().ID != IDNative {
		t.Errorf("Select(preferred=native) = %v", adapter.Descriptor().ID)
	}
}

// TestSwitchRestoresOnFailure tests the no-op-on-failure guarantee: a
// switch to a backend whose client fails to construct leaves the previous
// selection active and undisposed.
func TestSwitchRestoresOnFailure(t *testing.T) {
	edgeClient := &fakeClient{id: IDEdge}
	edge := newFakeAdapter(IDEdge, 0, true)
	edge.client = edgeClient
	native := newFakeAdapter(IDNative, 1, true)
	native.initErr = errors.New("missing binary")
	s := newSelector(edge, native)

	ctx := context.Background()
	original, err := s.Activate(ctx, IDEdge, false)
	if err != nil {
		t.Fatalf("Activate() error = %v", err)
	}

	_, err = s.Switch(ctx, IDNative)
	var initErr *InitializationError
	if !errors.As(err, &initErr) {
		t.Fatalf("Switch() error = %v, want *InitializationError", err)
	}
	if initErr.Backend != IDNative {
		t.Errorf("InitializationError.Backend = %v, want native", initErr.Backend)
	}

	if got := s.Selected(); got != original {
		t.Error("active backend changed after failed switch")
	}
	if edgeClient.disposed != 0 {
		t.Error("previous client was disposed despite failed switch")
	}
	if _, err := original.Client(); err != nil {
		t.Errorf("original handle unusable after failed switch: %v", err)
	}
}

// TestSwitchDisposesPrevious tests that a successful switch constructs the
// new client before disposing the old one.
func TestSwitchDisposesPrevious(t *testing.T) {
	edgeClient := &fakeClient{id: IDEdge}
	edge := newFakeAdapter(IDEdge, 0, true)
	edge.client = edgeClient
	native := newFakeAdapter(IDNative, 1, true)
	s := newSelector(edge, native)

	ctx := context.Background()
	if _, err := s.Activate(ctx, IDEdge, false); err != nil {
		t.Fatalf("Activate() error = %v", err)
	}

	handle, err := s.Switch(ctx, IDNative)
	if err != nil {
		t.Fatalf("Switch() error = %v", err)
	}
	if handle.Backend() != IDNative {
		t.Errorf("new handle backend = %v, want native", handle.Backend())
	}
	if edgeClient.disposed != 1 {
		t.Errorf("previous client disposed %d times, want 1", edgeClient.disposed)
	}
}

// TestSwitchToUnsupported tests switching to a backend the platform cannot
// run.
func TestSwitchToUnsupported(t *testing.T) {
	edge := newFakeAdapter(IDEdge, 0, true)
	s := newSelector(edge)

	_, err := s.Switch(context.Background(), IDOllama)
	var initErr *InitializationError
	if !errors.As(err, &initErr) {
		t.Fatalf("Switch() error = %v, want *InitializationError", err)
	}
}

// TestActivateAutoFallback tests that client construction failures fall
// down the priority list when autoFallback is set.
func TestActivateAutoFallback(t *testing.T) {
	edge := newFakeAdapter(IDEdge, 0, true)
	edge.initErr = errors.New("edge-tts not installed")
	native := newFakeAdapter(IDNative, 1, true)
	s := newSelector(edge, native)

	handle, err := s.Activate(context.Background(), IDUnknown, true)
	if err != nil {
		t.Fatalf("Activate() error = %v", err)
	}
	if handle.Backend() != IDNative {
		t.Errorf("Activate() backend = %v, want native fallback", handle.Backend())
	}
}

// TestActivateNoFallbackSurfacesError tests that without autoFallback the
// construction failure propagates.
func TestActivateNoFallbackSurfacesError(t *testing.T) {
	edge := newFakeAdapter(IDEdge, 0, true)
	edge.initErr = errors.New("edge-tts not installed")
	native := newFakeAdapter(IDNative, 1, true)
	s := newSelector(edge, native)

	_, err := s.Activate(context.Background(), IDUnknown, false)
	var initErr *InitializationError
	if !errors.As(err, &initErr) {
		t.Fatalf("Activate() error = %v, want *InitializationError", err)
	}
	if initErr.Backend != IDEdge {
		t.Errorf("InitializationError.Backend = %v, want edge", initErr.Backend)
	}
}

// TestActivateStrictPreference tests that without autoFallback a named
// preference binds even when its availability probe fails, rather than
// settling on another backend.
func TestActivateStrictPreference(t *testing.T) {
	edge := newFakeAdapter(IDEdge, 0, false)
	native := newFakeAdapter(IDNative, 1, true)
	s := newSelector(edge, native)

	handle, err := s.Activate(context.Background(), IDEdge, false)
	if err != nil {
		t.Fatalf("Activate() error = %v", err)
	}
	if handle.Backend() != IDEdge {
		t.Errorf("Activate() backend = %v, want preferred edge", handle.Backend())
	}

	edge.initErr = errors.New("edge-tts not installed")
	s2 := newSelector(edge, native)
	_, err = s2.Activate(context.Background(), IDEdge, false)
	var initErr *InitializationError
	if !errors.As(err, &initErr) {
		t.Fatalf("Activate() error = %v, want *InitializationError", err)
	}
	if initErr.Backend != IDEdge {
		t.Errorf("InitializationError.Backend = %v, want edge", initErr.Backend)
	}
}

// TestActivateStrictPreferenceUnsupported tests that a strict preference
// for an unsupported backend fails instead of substituting.
func TestActivateStrictPreferenceUnsupported(t *testing.T) {
	winOnly := newFakeAdapter(IDEdge, 0, true, "windows")
	native := newFakeAdapter(IDNative, 1, true)
	s := newSelector(winOnly, native)

	_, err := s.Activate(context.Background(), IDEdge, false)
	if !errors.Is(err, ErrNoSupportedBackend) {
		t.Fatalf("Activate() error = %v, want ErrNoSupportedBackend", err)
	}
}

// TestSupportedBackends tests the platform-filtered, priority-ordered ID
// list.
func TestSupportedBackends(t *testing.T) {
	edge := newFakeAdapter(IDEdge, 1, true)
	native := newFakeAdapter(IDNative, 0, true)
	winOnly := newFakeAdapter(IDMock, 2, true, "windows")
	s := newSelector(edge, native, winOnly)

	got := s.SupportedBackends()
	want := []ID{IDNative, IDEdge}
	if len(got) != len(want) {
		t.Fatalf("SupportedBackends() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("SupportedBackends()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}
