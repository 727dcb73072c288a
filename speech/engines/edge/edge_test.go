package edge

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/alouette/alouette/backend"
)

func TestParseVoiceList(t *testing.T) {
	output := `Name                               Gender    ContentCategories      VoicePersonalities
---------------------------------  --------  ---------------------  --------------------------------------
en-US-AriaNeural                   Female    News, Novel            Positive, Confident
en-US-GuyNeural                    Male      News, Novel            Passion
fr-FR-DeniseNeural                 Female    General                Friendly, Positive
`

	voices := parseVoiceList(output)
	if len(voices) != 3 {
		t.Fatalf("expected 3 voices, got %d", len(voices))
	}

	aria := voices[0]
	if aria.Name != "en-US-AriaNeural" {
		t.Errorf("expected en-US-AriaNeural, got %s", aria.Name)
	}
	if aria.Locale != "en-US" {
		t.Errorf("expected locale en-US, got %s", aria.Locale)
	}
	if aria.Quality != backend.QualityNeural {
		t.Errorf("expected neural quality, got %s", aria.Quality)
	}
	if aria.Gender != "Female" {
		t.Errorf("expected Female, got %s", aria.Gender)
	}

	if voices[2].Locale != "fr-FR" {
		t.Errorf("expected fr-FR, got %s", voices[2].Locale)
	}
}

func TestParseVoiceListEmpty(t *testing.T) {
	if voices := parseVoiceList(""); len(voices) != 0 {
		t.Errorf("expected no voices, got %d", len(voices))
	}
}

func TestFormatPercent(t *testing.T) {
	tests := []struct {
		value float64
		want  string
	}{
		{1.0, "+0%"},
		{1.25, "+25%"},
		{0.8, "-20%"},
		{2.0, "+100%"},
		{0, "+0%"}, // unset defaults to neutral
	}

	for _, tt := range tests {
		if got := formatPercent(tt.value); got != tt.want {
			t.Errorf("formatPercent(%v) = %s, want %s", tt.value, got, tt.want)
		}
	}
}

func TestFormatPitch(t *testing.T) {
	tests := []struct {
		value float64
		want  string
	}{
		{1.0, "+0Hz"},
		{1.1, "+10Hz"},
		{0.9, "-10Hz"},
	}

	for _, tt := range tests {
		if got := formatPitch(tt.value); got != tt.want {
			t.Errorf("formatPitch(%v) = %s, want %s", tt.value, got, tt.want)
		}
	}
}

func TestClassifyStderr(t *testing.T) {
	e := &Engine{binary: "edge-tts"}
	cause := errors.New("exit status 1")

	tests := []struct {
		name   string
		stderr string
		want   backend.Kind
	}{
		{"auth", "HTTP 401 Unauthorized", backend.KindAuthFailure},
		{"usage", "usage: edge-tts [-h]", backend.KindInvalidInput},
		{"throttled", "429 Too Many Requests", backend.KindBusy},
		{"network", "connection refused", backend.KindUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := e.classify(context.Background(), cause, tt.stderr)
			if got := backend.Classify(err); got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestClassifyTimeout(t *testing.T) {
	e := &Engine{binary: "edge-tts"}
	ctx, cancel := context.WithTimeout(context.Background(), 0)
	defer cancel()
	<-ctx.Done()

	err := e.classify(ctx, errors.New("signal: killed"), "")
	if got := backend.Classify(err); got != backend.KindTimeout {
		t.Errorf("expected timeout, got %s", got)
	}
}

func TestExecuteRejectsEmptyText(t *testing.T) {
	e := &Engine{binary: "edge-tts"}
	_, err := e.Execute(context.Background(), backend.Request{Text: "   "})
	if !errors.Is(err, backend.ErrEmptyText) {
		t.Errorf("expected ErrEmptyText, got %v", err)
	}
}

func TestDisposeLeavesConfiguredDirIntact(t *testing.T) {
	shared := t.TempDir()
	bystander := filepath.Join(shared, "unrelated.txt")
	if err := os.WriteFile(bystander, []byte("keep"), 0o644); err != nil {
		t.Fatal(err)
	}

	e, err := New("edge-tts", Config{TempDir: shared})
	if err != nil {
		t.Fatal(err)
	}
	if e.tempDir == shared {
		t.Fatal("engine adopted the shared directory as its own")
	}
	if err := e.Dispose(); err != nil {
		t.Fatalf("dispose: %v", err)
	}
	if err := e.Dispose(); err != nil {
		t.Fatalf("second dispose: %v", err)
	}

	if _, err := os.Stat(bystander); err != nil {
		t.Errorf("bystander file gone after dispose: %v", err)
	}
	if _, err := os.Stat(e.tempDir); !os.IsNotExist(err) {
		t.Errorf("expected engine work dir removed, stat err %v", err)
	}
}

func TestEnginesOwnSeparateWorkDirs(t *testing.T) {
	shared := t.TempDir()

	a, err := New("edge-tts", Config{TempDir: shared})
	if err != nil {
		t.Fatal(err)
	}
	b, err := New("edge-tts", Config{TempDir: shared})
	if err != nil {
		t.Fatal(err)
	}
	if a.tempDir == b.tempDir {
		t.Fatalf("both engines share %s", a.tempDir)
	}

	if err := a.Dispose(); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(b.tempDir); err != nil {
		t.Errorf("disposing one engine removed the other's dir: %v", err)
	}
	if err := b.Dispose(); err != nil {
		t.Fatal(err)
	}
}

func TestAdapterSupported(t *testing.T) {
	a := NewAdapter(Config{})

	for _, p := range []backend.Platform{"linux", "darwin", "windows"} {
		if !a.Supported(p) {
			t.Errorf("expected %s supported", p)
		}
	}
	if a.Supported("js") {
		t.Error("expected js unsupported")
	}
	if a.Descriptor().ID != backend.IDEdge {
		t.Errorf("unexpected ID %s", a.Descriptor().ID)
	}
}
