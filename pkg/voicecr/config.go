// Package voicecr wires configuration for the voice intake service.
package voicecr

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/SOLUZZZZZZ1/voice-cr/pkg/configutil"
)

// Config is the process-wide configuration, read once at startup and
// read-only afterwards.
type Config struct {
	Environment string          `mapstructure:"environment"`
	LogLevel    string          `mapstructure:"log_level"`
	LogFormat   string          `mapstructure:"log_format"`
	Metrics     MetricsConfig   `mapstructure:"metrics"`
	Privacy     PrivacyConfig   `mapstructure:"privacy"`
	Intake      IntakeConfig    `mapstructure:"intake"`
	Speech      SpeechConfig    `mapstructure:"speech"`
	Transport   TransportConfig `mapstructure:"transport"`
}

type MetricsConfig struct {
	Namespace string `mapstructure:"namespace"`
}

type PrivacyConfig struct {
	RedactPII bool `mapstructure:"redact_pii"`
}

// IntakeConfig points at the downstream contact-intake service. An empty URL
// disables dispatch, leaving the engine in log-only mode.
type IntakeConfig struct {
	URL string `mapstructure:"url"`
}

// SpeechConfig controls the caller-facing voice behavior.
type SpeechConfig struct {
	// Speak toggles whether prompts are actually sent to the relay. Off
	// means the engine listens and logs but stays silent.
	Speak bool `mapstructure:"speak"`
	// FallbackPhone is offered to callers the engine repeatedly fails to
	// understand so they can reach an operator directly.
	FallbackPhone string `mapstructure:"fallback_phone"`
}

// TransportConfig selects the transport and its free-form settings map.
type TransportConfig struct {
	Provider string         `mapstructure:"provider"`
	Settings map[string]any `mapstructure:"settings"`
}

// relaySettingsSchema guards the transport settings map against typos.
var relaySettingsSchema = configutil.Schema{
	Optional: []string{
		"server_addr", "public_url", "account_sid", "auth_token",
		"voice_path", "ws_path", "allow_any_origin", "allowed_origins",
	},
}

// LoadConfig builds the configuration from defaults, an optional YAML file,
// and VOICECR_-prefixed environment variables (env wins).
func LoadConfig(path string) (Config, error) {
	v := viper.New()
	v.SetDefault("environment", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("metrics.namespace", "voicecr")
	v.SetDefault("privacy.redact_pii", true)
	v.SetDefault("intake.url", "")
	v.SetDefault("speech.speak", true)
	v.SetDefault("speech.fallback_phone", "")
	v.SetDefault("transport.provider", "relay")
	v.SetDefault("transport.settings.server_addr", ":8080")
	v.SetDefault("transport.settings.voice_path", "/voice")
	v.SetDefault("transport.settings.ws_path", "/cr")

	v.SetEnvPrefix("VOICECR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if strings.TrimSpace(path) != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal: %w", err)
	}

	cfg.Intake.URL = os.ExpandEnv(cfg.Intake.URL)
	cfg.Transport.Settings = expandSettings(cfg.Transport.Settings)

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if err := configutil.RequireString(c.Transport.Provider, "transport.provider"); err != nil {
		return err
	}
	if c.Transport.Provider != "relay" {
		return fmt.Errorf("unknown transport.provider %q", c.Transport.Provider)
	}
	if err := configutil.ValidateSettings(c.Transport.Settings, relaySettingsSchema); err != nil {
		return fmt.Errorf("transport.settings: %w", err)
	}
	return nil
}

// expandSettings resolves ${VAR} references so secrets stay out of config
// files.
func expandSettings(settings map[string]any) map[string]any {
	if settings == nil {
		return nil
	}
	for k, val := range settings {
		settings[k] = expandAny(val)
	}
	return settings
}

func expandAny(v any) any {
	switch val := v.(type) {
	case string:
		return os.ExpandEnv(val)
	case []any:
		for i := range val {
			val[i] = expandAny(val[i])
		}
		return val
	case map[string]any:
		for k, child := range val {
			val[k] = expandAny(child)
		}
		return val
	default:
		return v
	}
}
