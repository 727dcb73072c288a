package speech

import (
	"fmt"

	"github.com/spf13/viper"
)

// LoadConfigFromViper loads speech configuration from Viper, on top of the
// defaults. Only keys the user actually set override.
func LoadConfigFromViper() (Config, error) {
	cfg := DefaultConfig()

	if viper.IsSet("tts.engine") {
		cfg.Engine = viper.GetString("tts.engine")
	}
	if viper.IsSet("tts.auto_fallback") {
		cfg.AutoFallback = viper.GetBool("tts.auto_fallback")
	}
	if viper.IsSet("tts.voice") {
		cfg.Voice = viper.GetString("tts.voice")
	}
	if viper.IsSet("tts.language") {
		cfg.Language = viper.GetString("tts.language")
	}
	if viper.IsSet("tts.prefer_neural") {
		cfg.PreferNeural = viper.GetBool("tts.prefer_neural")
	}
	if viper.IsSet("tts.rate") {
		cfg.Rate = viper.GetFloat64("tts.rate")
	}
	if viper.IsSet("tts.pitch") {
		cfg.Pitch = viper.GetFloat64("tts.pitch")
	}
	if viper.IsSet("tts.volume") {
		cfg.Volume = viper.GetFloat64("tts.volume")
	}

	loadRetryConfig(&cfg.Retry, "tts.retry")
	loadCacheConfig(&cfg.Cache)
	loadEdgeConfig(&cfg.Edge)
	loadNativeConfig(&cfg.Native)

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid speech configuration: %w", err)
	}
	return cfg, nil
}

func loadRetryConfig(cfg *RetryConfig, prefix string) {
	if viper.IsSet(prefix + ".max_attempts") {
		cfg.MaxAttempts = viper.GetInt(prefix + ".max_attempts")
	}
	if viper.IsSet(prefix + ".base_delay") {
		cfg.BaseDelay = viper.GetDuration(prefix + ".base_delay")
	}
	if viper.IsSet(prefix + ".multiplier") {
		cfg.Multiplier = viper.GetFloat64(prefix + ".multiplier")
	}
	if viper.IsSet(prefix + ".call_timeout") {
		cfg.CallTimeout = viper.GetDuration(prefix + ".call_timeout")
	}
	if viper.IsSet(prefix + ".min_spacing") {
		cfg.MinSpacing = viper.GetDuration(prefix + ".min_spacing")
	}
}

func loadCacheConfig(cfg *CacheConfig) {
	if viper.IsSet("tts.cache.enabled") {
		cfg.Enabled = viper.GetBool("tts.cache.enabled")
	}
	if viper.IsSet("tts.cache.dir") {
		cfg.Dir = viper.GetString("tts.cache.dir")
	}
	if viper.IsSet("tts.cache.max_bytes") {
		cfg.MaxBytes = viper.GetInt64("tts.cache.max_bytes")
	}
	if viper.IsSet("tts.cache.compression_level") {
		cfg.CompressionLevel = viper.GetInt("tts.cache.compression_level")
	}
}

func loadEdgeConfig(cfg *EdgeConfig) {
	if viper.IsSet("tts.edge.binary") {
		cfg.Binary = viper.GetString("tts.edge.binary")
	}
	if viper.IsSet("tts.edge.probe_timeout") {
		cfg.ProbeTimeout = viper.GetDuration("tts.edge.probe_timeout")
	}
	if viper.IsSet("tts.edge.synthesis_timeout") {
		cfg.SynthesisTimeout = viper.GetDuration("tts.edge.synthesis_timeout")
	}
	if viper.IsSet("tts.edge.requests_per_minute") {
		cfg.RequestsPerMinute = viper.GetInt("tts.edge.requests_per_minute")
	}
	if viper.IsSet("tts.edge.temp_dir") {
		cfg.TempDir = viper.GetString("tts.edge.temp_dir")
	}
}

func loadNativeConfig(cfg *NativeConfig) {
	if viper.IsSet("tts.native.binary") {
		cfg.Binary = viper.GetString("tts.native.binary")
	}
	if viper.IsSet("tts.native.timeout") {
		cfg.Timeout = viper.GetDuration("tts.native.timeout")
	}
	if viper.IsSet("tts.native.rate_scale") {
		cfg.RateScale = viper.GetFloat64("tts.native.rate_scale")
	}
}
