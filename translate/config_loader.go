package translate

import (
	"fmt"

	"github.com/spf13/viper"
)

// LoadConfigFromViper loads translation configuration from Viper, on top
// of the defaults. Only keys the user actually set override.
func LoadConfigFromViper() (Config, error) {
	cfg := DefaultConfig()

	if viper.IsSet("translate.provider") {
		cfg.Provider = viper.GetString("translate.provider")
	}
	if viper.IsSet("translate.auto_fallback") {
		cfg.AutoFallback = viper.GetBool("translate.auto_fallback")
	}
	if viper.IsSet("translate.model") {
		cfg.Model = viper.GetString("translate.model")
	}
	if viper.IsSet("translate.target_language") {
		cfg.TargetLanguage = viper.GetString("translate.target_language")
	}
	if viper.IsSet("translate.source_language") {
		cfg.SourceLanguage = viper.GetString("translate.source_language")
	}

	if viper.IsSet("translate.retry.max_attempts") {
		cfg.Retry.MaxAttempts = viper.GetInt("translate.retry.max_attempts")
	}
	if viper.IsSet("translate.retry.base_delay") {
		cfg.Retry.BaseDelay = viper.GetDuration("translate.retry.base_delay")
	}
	if viper.IsSet("translate.retry.multiplier") {
		cfg.Retry.Multiplier = viper.GetFloat64("translate.retry.multiplier")
	}
	if viper.IsSet("translate.retry.call_timeout") {
		cfg.Retry.CallTimeout = viper.GetDuration("translate.retry.call_timeout")
	}
	if viper.IsSet("translate.retry.min_spacing") {
		cfg.Retry.MinSpacing = viper.GetDuration("translate.retry.min_spacing")
	}

	if viper.IsSet("translate.ollama.url") {
		cfg.Ollama.URL = viper.GetString("translate.ollama.url")
	}
	if viper.IsSet("translate.ollama.timeout") {
		cfg.Ollama.Timeout = viper.GetDuration("translate.ollama.timeout")
	}
	if viper.IsSet("translate.lmstudio.url") {
		cfg.LMStudio.URL = viper.GetString("translate.lmstudio.url")
	}
	if viper.IsSet("translate.lmstudio.timeout") {
		cfg.LMStudio.Timeout = viper.GetDuration("translate.lmstudio.timeout")
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid translation configuration: %w", err)
	}
	return cfg, nil
}
