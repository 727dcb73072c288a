package backend

import "context"

// Quality is the quality tier of a candidate voice or model.
type Quality int

const (
	// QualityStandard is the baseline tier.
	QualityStandard Quality = iota
	// QualityEnhanced is an improved non-neural tier.
	QualityEnhanced
	// QualityNeural is the neural tier.
	QualityNeural
)

// String returns the string representation of the quality tier.
func (q Quality) String() string {
	switch q {
	case QualityEnhanced:
		return "enhanced"
	case QualityNeural:
		return "neural"
	default:
		return "standard"
	}
}

// Candidate is one option returned by a backend: a voice for speech
// backends, a model for translation backends.
type Candidate struct {
	Name    string  // Identifier the backend accepts back (voice name, model tag)
	Locale  string  // BCP-47 locale or bare language code (e.g. "en-US", "fr")
	Quality Quality // Quality tier
	Gender  string  // Voice gender where the backend reports one
}

// Request is one unit of backend work: text in, audio or translated text out.
type Request struct {
	Text string // Input text; must be non-empty

	// Option selects the candidate to use (voice name or model tag).
	Option string

	// Language is the locale hint for synthesis or the target language for
	// translation.
	Language string

	// SourceLanguage is the translation source; empty means auto-detect.
	SourceLanguage string

	// Prosody controls, used by speech backends only. 1.0 is neutral.
	Rate   float64
	Pitch  float64
	Volume float64
}

// Result is the outcome of an executed request. Speech backends fill Audio,
// translation backends fill Text.
type Result struct {
	Audio  []byte // Raw audio bytes
	Format string // Audio container/format hint (e.g. "mp3", "wav")
	Text   string // Translated text
}

// Client is the narrow contract the core requires from any concrete backend.
type Client interface {
	// Backend returns the ID of the backend this client talks to.
	Backend() ID

	// ListOptions returns the backend's current candidates. The list may be
	// empty. Implementations must bound the call with their own timeout.
	ListOptions(ctx context.Context) ([]Candidate, error)

	// Execute performs one synthesis or translation. Failures must be
	// classifiable via Classify so the retry decorator can decide
	// retryability.
	Execute(ctx context.Context, req Request) (*Result, error)

	// Dispose releases process or connection resources. It is idempotent.
	Dispose() error
}
