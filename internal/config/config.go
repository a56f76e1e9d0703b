// ABOUTME: Configuration loading and parsing for the assist core
// ABOUTME: Supports YAML files with environment variable expansion and duration parsing

package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/induserve/assist/internal/lang"
)

// Config represents the complete assist configuration
type Config struct {
	Database   DatabaseConfig   `yaml:"database"`
	LLM        LLMConfig        `yaml:"llm"`
	Escalation EscalationConfig `yaml:"escalation"`
	Languages  LanguagesConfig  `yaml:"languages"`
	Lookup     LookupConfig     `yaml:"lookup"`
	Notify     NotifyConfig     `yaml:"notify"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// LLMConfig holds language-model client configuration
type LLMConfig struct {
	BaseURL       string `yaml:"base_url"`
	APIKey        string `yaml:"api_key"`
	PrimaryModel  string `yaml:"primary_model"`
	FallbackModel string `yaml:"fallback_model"`

	// MaxAttempts is the retry budget for the primary model.
	// FallbackAttempts is the fallback model's own budget (default 1).
	MaxAttempts      int `yaml:"max_attempts"`
	FallbackAttempts int `yaml:"fallback_attempts"`

	RequestTimeout time.Duration `yaml:"-"`
	InitialBackoff time.Duration `yaml:"-"`

	// Raw string values for YAML unmarshaling
	RequestTimeoutRaw string `yaml:"request_timeout"`
	InitialBackoffRaw string `yaml:"initial_backoff"`
}

// EscalationConfig holds escalation policy configuration
type EscalationConfig struct {
	ConfidenceThreshold float64 `yaml:"confidence_threshold"`
	MaxSteps            int     `yaml:"max_steps"`
}

// LanguagesConfig holds the supported language set
type LanguagesConfig struct {
	// Supported may narrow the built-in language set; it cannot extend it.
	// Empty means all built-in languages are supported.
	Supported []string `yaml:"supported"`
}

// LookupConfig holds master-data service client configuration
type LookupConfig struct {
	BaseURL     string `yaml:"base_url"`
	TokenSecret string `yaml:"token_secret"`
	TokenIssuer string `yaml:"token_issuer"`

	TokenTTL time.Duration `yaml:"-"`

	TokenTTLRaw string `yaml:"token_ttl"`
}

// NotifyConfig holds notification gateway configuration
type NotifyConfig struct {
	Matrix MatrixConfig `yaml:"matrix"`
}

// MatrixConfig holds Matrix support-channel configuration
type MatrixConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Homeserver  string `yaml:"homeserver"`
	UserID      string `yaml:"user_id"`
	AccessToken string `yaml:"access_token"`
	SupportRoom string `yaml:"support_room"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads a configuration file from the given path and returns a parsed Config.
// Environment variables in the format ${VAR_NAME} are expanded.
// Duration strings are parsed into time.Duration values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables in the raw YAML content
	expandedData := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Parse duration fields
	if err := parseDurations(&cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	cfg.applyDefaults()

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	// Match ${VAR_NAME} pattern
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		// Extract variable name from ${VAR_NAME}
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// applyDefaults fills in defaults for optional fields
func (c *Config) applyDefaults() {
	if c.LLM.MaxAttempts == 0 {
		c.LLM.MaxAttempts = 3
	}
	if c.LLM.FallbackAttempts == 0 {
		c.LLM.FallbackAttempts = 1
	}
	if c.LLM.RequestTimeout == 0 {
		c.LLM.RequestTimeout = 30 * time.Second
	}
	if c.LLM.InitialBackoff == 0 {
		c.LLM.InitialBackoff = 500 * time.Millisecond
	}
	if c.Escalation.ConfidenceThreshold == 0 {
		c.Escalation.ConfidenceThreshold = 0.5
	}
	if c.Escalation.MaxSteps == 0 {
		c.Escalation.MaxSteps = 10
	}
	if c.Lookup.TokenTTL == 0 {
		c.Lookup.TokenTTL = 5 * time.Minute
	}
	if len(c.Languages.Supported) == 0 {
		c.Languages.Supported = lang.Codes()
	}
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	if c.LLM.PrimaryModel == "" {
		return fmt.Errorf("llm.primary_model is required")
	}
	if c.LLM.FallbackModel == "" {
		return fmt.Errorf("llm.fallback_model is required")
	}
	if c.LLM.MaxAttempts < 1 {
		return fmt.Errorf("llm.max_attempts must be at least 1")
	}
	if c.LLM.FallbackAttempts < 1 {
		return fmt.Errorf("llm.fallback_attempts must be at least 1")
	}

	if c.Escalation.ConfidenceThreshold < 0 || c.Escalation.ConfidenceThreshold > 1 {
		return fmt.Errorf("escalation.confidence_threshold must be in [0,1]")
	}

	for _, code := range c.Languages.Supported {
		if !lang.IsSupported(code) {
			return fmt.Errorf("languages.supported contains unknown code %q", code)
		}
	}

	if c.Notify.Matrix.Enabled {
		if c.Notify.Matrix.Homeserver == "" {
			return fmt.Errorf("notify.matrix.homeserver is required when matrix is enabled")
		}
		if c.Notify.Matrix.SupportRoom == "" {
			return fmt.Errorf("notify.matrix.support_room is required when matrix is enabled")
		}
	}

	return nil
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	var err error

	if cfg.LLM.RequestTimeoutRaw != "" {
		cfg.LLM.RequestTimeout, err = time.ParseDuration(cfg.LLM.RequestTimeoutRaw)
		if err != nil {
			return fmt.Errorf("parsing request_timeout %q: %w", cfg.LLM.RequestTimeoutRaw, err)
		}
	}

	if cfg.LLM.InitialBackoffRaw != "" {
		cfg.LLM.InitialBackoff, err = time.ParseDuration(cfg.LLM.InitialBackoffRaw)
		if err != nil {
			return fmt.Errorf("parsing initial_backoff %q: %w", cfg.LLM.InitialBackoffRaw, err)
		}
	}

	if cfg.Lookup.TokenTTLRaw != "" {
		cfg.Lookup.TokenTTL, err = time.ParseDuration(cfg.Lookup.TokenTTLRaw)
		if err != nil {
			return fmt.Errorf("parsing token_ttl %q: %w", cfg.Lookup.TokenTTLRaw, err)
		}
	}

	return nil
}
