package speech

import (
	"strings"
	"testing"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		want   string
	}{
		{"unknown engine", func(c *Config) { c.Engine = "festival" }, "invalid engine"},
		{"zero rate", func(c *Config) { c.Rate = 0 }, "rate"},
		{"excessive rate", func(c *Config) { c.Rate = 5.0 }, "rate"},
		{"negative pitch", func(c *Config) { c.Pitch = -1 }, "pitch"},
		{"excessive volume", func(c *Config) { c.Volume = 3.0 }, "volume"},
		{"zero attempts", func(c *Config) { c.Retry.MaxAttempts = 0 }, "max_attempts"},
		{"shrinking multiplier", func(c *Config) { c.Retry.Multiplier = 0.5 }, "multiplier"},
		{"tiny cache", func(c *Config) { c.Cache.MaxBytes = 100 }, "max_bytes"},
		{"empty edge binary", func(c *Config) { c.Edge.Binary = "" }, "edge binary"},
		{"zero rate scale", func(c *Config) { c.Native.RateScale = 0 }, "rate_scale"},
		{"failure rate over one", func(c *Config) { c.Mock.FailureRate = 1.5 }, "failure_rate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error mentioning %q, got %v", tt.want, err)
			}
		})
	}
}

func TestValidateNormalizesEngineCase(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Engine = "Edge"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Engine != "edge" {
		t.Errorf("expected lowercased engine, got %q", cfg.Engine)
	}
}
