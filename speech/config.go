// Package speech provides text-to-speech synthesis over interchangeable
// engines, built on the backend selection core.
package speech

import (
	"fmt"
	"strings"
	"time"
)

// Config contains all speech synthesis options.
type Config struct {
	// Engine selects the backend: "auto", "edge", "native" or "mock".
	Engine string `yaml:"engine" env:"ALOUETTE_TTS_ENGINE"`

	// AutoFallback lets initialization fall down the priority list when the
	// chosen engine cannot construct a client.
	AutoFallback bool `yaml:"auto_fallback" env:"ALOUETTE_TTS_AUTO_FALLBACK"`

	// Voice pins a voice by exact name; empty means pick by Language.
	Voice string `yaml:"voice" env:"ALOUETTE_TTS_VOICE"`

	// Language drives voice selection when no voice is pinned.
	Language string `yaml:"language" env:"ALOUETTE_TTS_LANGUAGE"`

	// PreferNeural prefers neural-tier voices when the engine offers them.
	PreferNeural bool `yaml:"prefer_neural" env:"ALOUETTE_TTS_PREFER_NEURAL"`

	// Prosody controls. 1.0 is neutral.
	Rate   float64 `yaml:"rate" env:"ALOUETTE_TTS_RATE"`
	Pitch  float64 `yaml:"pitch" env:"ALOUETTE_TTS_PITCH"`
	Volume float64 `yaml:"volume" env:"ALOUETTE_TTS_VOLUME"`

	Retry RetryConfig `yaml:"retry"`
	Cache CacheConfig `yaml:"cache"`

	// Engine-specific configurations
	Edge   EdgeConfig   `yaml:"edge"`
	Native NativeConfig `yaml:"native"`
	Mock   MockConfig   `yaml:"mock"`
}

// RetryConfig shapes the retry policy wrapped around the active engine.
type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts" env:"ALOUETTE_TTS_RETRY_MAX_ATTEMPTS"`
	BaseDelay   time.Duration `yaml:"base_delay" env:"ALOUETTE_TTS_RETRY_BASE_DELAY"`
	Multiplier  float64       `yaml:"multiplier" env:"ALOUETTE_TTS_RETRY_MULTIPLIER"`
	CallTimeout time.Duration `yaml:"call_timeout" env:"ALOUETTE_TTS_RETRY_CALL_TIMEOUT"`
	MinSpacing  time.Duration `yaml:"min_spacing" env:"ALOUETTE_TTS_RETRY_MIN_SPACING"`
}

// CacheConfig controls the synthesized-audio cache.
type CacheConfig struct {
	Enabled          bool   `yaml:"enabled" env:"ALOUETTE_TTS_CACHE_ENABLED"`
	Dir              string `yaml:"dir" env:"ALOUETTE_TTS_CACHE_DIR"`
	MaxBytes         int64  `yaml:"max_bytes" env:"ALOUETTE_TTS_CACHE_MAX_BYTES"`
	CompressionLevel int    `yaml:"compression_level" env:"ALOUETTE_TTS_CACHE_COMPRESSION"`
}

// EdgeConfig contains cloud-neural edge-tts engine settings.
type EdgeConfig struct {
	Binary            string        `yaml:"binary" env:"ALOUETTE_TTS_EDGE_BINARY"`
	ProbeTimeout      time.Duration `yaml:"probe_timeout" env:"ALOUETTE_TTS_EDGE_PROBE_TIMEOUT"`
	SynthesisTimeout  time.Duration `yaml:"synthesis_timeout" env:"ALOUETTE_TTS_EDGE_SYNTHESIS_TIMEOUT"`
	RequestsPerMinute int           `yaml:"requests_per_minute" env:"ALOUETTE_TTS_EDGE_RPM"`
	TempDir           string        `yaml:"temp_dir" env:"ALOUETTE_TTS_EDGE_TEMP_DIR"`
}

// NativeConfig contains native-platform engine settings. Binary overrides
// the per-platform default command (say, espeak-ng, powershell).
type NativeConfig struct {
	Binary  string        `yaml:"binary" env:"ALOUETTE_TTS_NATIVE_BINARY"`
	Timeout time.Duration `yaml:"timeout" env:"ALOUETTE_TTS_NATIVE_TIMEOUT"`

	// RateScale calibrates the platform's speech rate against the neutral
	// 1.0 of the shared prosody model. Mobile embedders that observe a
	// too-fast native voice set this below 1.0 (Android historically wants
	// 0.6).
	RateScale float64 `yaml:"rate_scale" env:"ALOUETTE_TTS_NATIVE_RATE_SCALE"`
}

// MockConfig contains mock engine settings for testing.
type MockConfig struct {
	GenerationDelay time.Duration `yaml:"generation_delay" env:"ALOUETTE_TTS_MOCK_GENERATION_DELAY"`
	FailureRate     float64       `yaml:"failure_rate" env:"ALOUETTE_TTS_MOCK_FAILURE_RATE"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Engine:       "auto",
		AutoFallback: true,
		Language:     "en-US",
		PreferNeural: true,
		Rate:         1.0,
		Pitch:        1.0,
		Volume:       1.0,
		Retry: RetryConfig{
			MaxAttempts: 3,
			BaseDelay:   300 * time.Millisecond,
			Multiplier:  2.0,
			CallTimeout: 30 * time.Second,
			MinSpacing:  400 * time.Millisecond,
		},
		Cache: CacheConfig{
			Enabled:          true,
			MaxBytes:         64 << 20,
			CompressionLevel: 3,
		},
		Edge: EdgeConfig{
			Binary:            "edge-tts",
			ProbeTimeout:      12 * time.Second,
			SynthesisTimeout:  30 * time.Second,
			RequestsPerMinute: 60,
		},
		Native: NativeConfig{
			Timeout:   20 * time.Second,
			RateScale: 1.0,
		},
		Mock: MockConfig{
			GenerationDelay: 10 * time.Millisecond,
		},
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	validEngines := []string{"auto", "edge", "native", "mock"}
	engineValid := false
	for _, e := range validEngines {
		if strings.EqualFold(c.Engine, e) {
			c.Engine = strings.ToLower(c.Engine)
			engineValid = true
			break
		}
	}
	if !engineValid {
		return fmt.Errorf("invalid engine %q: must be one of %v", c.Engine, validEngines)
	}

	if c.Rate <= 0 || c.Rate > 3.0 {
		return fmt.Errorf("rate must be between 0.1 and 3.0, got %f", c.Rate)
	}
	if c.Pitch <= 0 || c.Pitch > 2.0 {
		return fmt.Errorf("pitch must be between 0.1 and 2.0, got %f", c.Pitch)
	}
	if c.Volume < 0 || c.Volume > 2.0 {
		return fmt.Errorf("volume must be between 0.0 and 2.0, got %f", c.Volume)
	}

	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("retry max_attempts must be at least 1, got %d", c.Retry.MaxAttempts)
	}
	if c.Retry.Multiplier < 1.0 {
		return fmt.Errorf("retry multiplier must be at least 1.0, got %f", c.Retry.Multiplier)
	}

	if c.Cache.Enabled && c.Cache.MaxBytes < 1<<20 {
		return fmt.Errorf("cache max_bytes must be at least 1MiB, got %d", c.Cache.MaxBytes)
	}
	if c.Cache.CompressionLevel < 1 || c.Cache.CompressionLevel > 11 {
		return fmt.Errorf("cache compression_level must be between 1 and 11, got %d", c.Cache.CompressionLevel)
	}

	if c.Edge.Binary == "" {
		return fmt.Errorf("edge binary cannot be empty")
	}
	if c.Edge.SynthesisTimeout < time.Second {
		return fmt.Errorf("edge synthesis_timeout must be at least 1s, got %v", c.Edge.SynthesisTimeout)
	}
	if c.Native.RateScale <= 0 || c.Native.RateScale > 2.0 {
		return fmt.Errorf("native rate_scale must be between 0.1 and 2.0, got %f", c.Native.RateScale)
	}
	if c.Mock.FailureRate < 0 || c.Mock.FailureRate > 1.0 {
		return fmt.Errorf("mock failure_rate must be between 0.0 and 1.0, got %f", c.Mock.FailureRate)
	}

	return nil
}
