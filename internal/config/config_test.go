package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Fatalf("Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Credentials.ModelPolicy != "auto" {
		t.Fatalf("ModelPolicy = %q, want auto", cfg.Credentials.ModelPolicy)
	}
	if cfg.Cache.ResponseTTLHrs != 20 {
		t.Fatalf("ResponseTTLHrs = %d, want 20", cfg.Cache.ResponseTTLHrs)
	}
	if cfg.Cache.ModelPrefsTTLHrs != 96 {
		t.Fatalf("ModelPrefsTTLHrs = %d, want 96", cfg.Cache.ModelPrefsTTLHrs)
	}
}

func TestValidateRejectsBadPort(t *testing.T) {
	cfg := &Config{
		Server:      ServerConfig{Port: 0, LogLevel: "info"},
		Credentials: CredentialsConfig{ModelPolicy: "auto"},
		Cache:       CacheConfig{Dir: "/tmp/x", ResponseTTLHrs: 20, ModelPrefsTTLHrs: 96},
		Sampling:    SamplingConfig{DefaultTier: "standard"},
	}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for port 0")
	}
}

func TestValidateRejectsPinnedWithoutPin(t *testing.T) {
	cfg := &Config{
		Server:      ServerConfig{Port: 8080, LogLevel: "info"},
		Credentials: CredentialsConfig{ModelPolicy: "pinned"},
		Cache:       CacheConfig{Dir: "/tmp/x", ResponseTTLHrs: 20, ModelPrefsTTLHrs: 96},
		Sampling:    SamplingConfig{DefaultTier: "standard"},
	}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for pinned policy without any pin")
	}
}

func TestValidateRejectsBadSamplingTier(t *testing.T) {
	cfg := &Config{
		Server:      ServerConfig{Port: 8080, LogLevel: "info"},
		Credentials: CredentialsConfig{ModelPolicy: "auto"},
		Cache:       CacheConfig{Dir: "/tmp/x", ResponseTTLHrs: 20, ModelPrefsTTLHrs: 96},
		Sampling:    SamplingConfig{DefaultTier: "turbo"},
	}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for invalid sampling tier")
	}
}
