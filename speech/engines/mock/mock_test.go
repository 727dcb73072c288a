package mock

import (
	"context"
	"errors"
	"testing"

	"github.com/alouette/alouette/backend"
)

func TestExecuteProducesAudio(t *testing.T) {
	e := New(Config{})

	result, err := e.Execute(context.Background(), backend.Request{Text: "hello there world"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Audio) == 0 {
		t.Error("expected audio bytes")
	}
	if result.Format != "pcm" {
		t.Errorf("expected pcm format, got %s", result.Format)
	}
	if e.CallCount() != 1 {
		t.Errorf("expected 1 call, got %d", e.CallCount())
	}
}

func TestExecuteRejectsEmptyText(t *testing.T) {
	e := New(Config{})

	_, err := e.Execute(context.Background(), backend.Request{Text: ""})
	if !errors.Is(err, backend.ErrEmptyText) {
		t.Errorf("expected ErrEmptyText, got %v", err)
	}
}

func TestScriptedErrors(t *testing.T) {
	boom := backend.NewError(backend.IDMock, backend.KindBusy, errors.New("boom"))
	e := New(Config{})
	e.ScriptedErrs = []error{boom, nil}

	if _, err := e.Execute(context.Background(), backend.Request{Text: "x"}); !errors.Is(err, boom) {
		t.Fatalf("expected scripted error, got %v", err)
	}
	if _, err := e.Execute(context.Background(), backend.Request{Text: "x"}); err != nil {
		t.Fatalf("expected recovery, got %v", err)
	}
}

func TestDisposedRejectsCalls(t *testing.T) {
	e := New(Config{})
	if err := e.Dispose(); err != nil {
		t.Fatalf("dispose failed: %v", err)
	}
	if err := e.Dispose(); err != nil {
		t.Fatalf("second dispose failed: %v", err)
	}

	if _, err := e.Execute(context.Background(), backend.Request{Text: "x"}); !errors.Is(err, backend.ErrClientDisposed) {
		t.Errorf("expected ErrClientDisposed, got %v", err)
	}
	if _, err := e.ListOptions(context.Background()); !errors.Is(err, backend.ErrClientDisposed) {
		t.Errorf("expected ErrClientDisposed, got %v", err)
	}
}

func TestFailureRateAlwaysFails(t *testing.T) {
	e := New(Config{FailureRate: 1.0})

	_, err := e.Execute(context.Background(), backend.Request{Text: "x"})
	if backend.Classify(err) != backend.KindBusy {
		t.Errorf("expected busy failure, got %v", err)
	}
}

func TestAdapter(t *testing.T) {
	a := NewAdapter(Config{})

	if !a.Supported("js") {
		t.Error("mock should support every platform")
	}
	if ok, _ := a.CheckAvailability(context.Background()); !ok {
		t.Error("mock should always be available")
	}

	client, err := a.NewClient(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if client.Backend() != backend.IDMock {
		t.Errorf("unexpected backend %s", client.Backend())
	}

	a.InitErr = errors.New("nope")
	var initErr *backend.InitializationError
	if _, err := a.NewClient(context.Background()); !errors.As(err, &initErr) {
		t.Errorf("expected InitializationError, got %v", err)
	}
}
