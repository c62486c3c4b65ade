package voicecr

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Environment != "development" {
		t.Errorf("environment = %q, want development", cfg.Environment)
	}
	if cfg.LogLevel != "info" || cfg.LogFormat != "text" {
		t.Errorf("log defaults = %q/%q", cfg.LogLevel, cfg.LogFormat)
	}
	if !cfg.Privacy.RedactPII {
		t.Error("redact_pii should default to true")
	}
	if !cfg.Speech.Speak {
		t.Error("speech.speak should default to true")
	}
	if cfg.Intake.URL != "" {
		t.Errorf("intake.url = %q, want empty", cfg.Intake.URL)
	}
	if cfg.Transport.Provider != "relay" {
		t.Errorf("transport.provider = %q", cfg.Transport.Provider)
	}
	if got := cfg.Transport.Settings["server_addr"]; got != ":8080" {
		t.Errorf("server_addr = %v, want :8080", got)
	}
}

func TestLoadConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := []byte(`
environment: production
log_format: json
intake:
  url: https://backend.example.com/api/contact/voice
speech:
  speak: false
  fallback_phone: "+34600111222"
transport:
  provider: relay
  settings:
    server_addr: ":9090"
    public_url: https://relay.example.com
    auth_token: ${VOICECR_TEST_TOKEN}
`)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("VOICECR_TEST_TOKEN", "secret-token")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Environment != "production" || cfg.LogFormat != "json" {
		t.Errorf("environment/log_format = %q/%q", cfg.Environment, cfg.LogFormat)
	}
	if cfg.Speech.Speak {
		t.Error("speech.speak should be false")
	}
	if cfg.Speech.FallbackPhone != "+34600111222" {
		t.Errorf("fallback_phone = %q", cfg.Speech.FallbackPhone)
	}
	if cfg.Intake.URL != "https://backend.example.com/api/contact/voice" {
		t.Errorf("intake.url = %q", cfg.Intake.URL)
	}
	if got := cfg.Transport.Settings["server_addr"]; got != ":9090" {
		t.Errorf("server_addr = %v", got)
	}
	if got := cfg.Transport.Settings["auth_token"]; got != "secret-token" {
		t.Errorf("auth_token not expanded, got %v", got)
	}
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("VOICECR_LOG_LEVEL", "debug")
	t.Setenv("VOICECR_INTAKE_URL", "https://intake.example.com/voice")

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("log_level = %q, want debug", cfg.LogLevel)
	}
	if cfg.Intake.URL != "https://intake.example.com/voice" {
		t.Errorf("intake.url = %q", cfg.Intake.URL)
	}
}

func TestLoadConfigRejectsUnknownSetting(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := []byte(`
transport:
  provider: relay
  settings:
    server_adr: ":9090"
`)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected error for misspelled setting key")
	}
}

func TestLoadConfigRejectsUnknownProvider(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("transport:\n  provider: carrier-pigeon\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}
