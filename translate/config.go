// Package translate turns text from one language into another through a
// local LLM server, reusing the backend core for provider selection,
// retry and model picking.
package translate

import (
	"fmt"
	"strings"
	"time"
)

// Config is the translation configuration.
type Config struct {
	// Provider selects the backend: "auto", "ollama", "lmstudio" or "mock".
	Provider string `yaml:"provider" env:"ALOUETTE_TRANSLATE_PROVIDER"`

	// AutoFallback lets initialization fall down the priority list when the
	// chosen provider cannot construct a client.
	AutoFallback bool `yaml:"auto_fallback" env:"ALOUETTE_TRANSLATE_AUTO_FALLBACK"`

	// Model pins a model tag; empty means pick from the server's list.
	Model string `yaml:"model" env:"ALOUETTE_TRANSLATE_MODEL"`

	// TargetLanguage is the default translation target.
	TargetLanguage string `yaml:"target_language" env:"ALOUETTE_TRANSLATE_TARGET"`

	// SourceLanguage is the default source; empty means auto-detect.
	SourceLanguage string `yaml:"source_language" env:"ALOUETTE_TRANSLATE_SOURCE"`

	Retry    RetryConfig    `yaml:"retry"`
	Ollama   OllamaConfig   `yaml:"ollama"`
	LMStudio LMStudioConfig `yaml:"lmstudio"`
}

// RetryConfig controls the retry decorator around provider calls.
type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts" env:"ALOUETTE_TRANSLATE_RETRY_MAX_ATTEMPTS"`
	BaseDelay   time.Duration `yaml:"base_delay" env:"ALOUETTE_TRANSLATE_RETRY_BASE_DELAY"`
	Multiplier  float64       `yaml:"multiplier" env:"ALOUETTE_TRANSLATE_RETRY_MULTIPLIER"`
	CallTimeout time.Duration `yaml:"call_timeout" env:"ALOUETTE_TRANSLATE_RETRY_CALL_TIMEOUT"`
	MinSpacing  time.Duration `yaml:"min_spacing" env:"ALOUETTE_TRANSLATE_RETRY_MIN_SPACING"`
}

// OllamaConfig contains Ollama server settings.
type OllamaConfig struct {
	URL     string        `yaml:"url" env:"ALOUETTE_TRANSLATE_OLLAMA_URL"`
	Timeout time.Duration `yaml:"timeout" env:"ALOUETTE_TRANSLATE_OLLAMA_TIMEOUT"`
}

// LMStudioConfig contains LM Studio server settings.
type LMStudioConfig struct {
	URL     string        `yaml:"url" env:"ALOUETTE_TRANSLATE_LMSTUDIO_URL"`
	Timeout time.Duration `yaml:"timeout" env:"ALOUETTE_TRANSLATE_LMSTUDIO_TIMEOUT"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Provider:       "auto",
		AutoFallback:   true,
		TargetLanguage: "en",
		Retry: RetryConfig{
			MaxAttempts: 3,
			BaseDelay:   300 * time.Millisecond,
			Multiplier:  2.0,
			CallTimeout: 120 * time.Second,
			MinSpacing:  400 * time.Millisecond,
		},
		Ollama: OllamaConfig{
			URL:     "http://localhost:11434",
			Timeout: 120 * time.Second,
		},
		LMStudio: LMStudioConfig{
			URL:     "http://localhost:1234/v1",
			Timeout: 120 * time.Second,
		},
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	validProviders := []string{"auto", "ollama", "lmstudio", "mock"}
	providerValid := false
	for _, p := range validProviders {
		if strings.EqualFold(c.Provider, p) {
			c.Provider = strings.ToLower(c.Provider)
			providerValid = true
			break
		}
	}
	if !providerValid {
		return fmt.Errorf("invalid provider %q: must be one of %v", c.Provider, validProviders)
	}

	if c.TargetLanguage == "" {
		return fmt.Errorf("target_language cannot be empty")
	}
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("retry max_attempts must be at least 1, got %d", c.Retry.MaxAttempts)
	}
	if c.Retry.Multiplier < 1.0 {
		return fmt.Errorf("retry multiplier must be at least 1.0, got %f", c.Retry.Multiplier)
	}
	if c.Ollama.URL == "" {
		return fmt.Errorf("ollama url cannot be empty")
	}
	if c.LMStudio.URL == "" {
		return fmt.Errorf("lmstudio url cannot be empty")
	}
	return nil
}
