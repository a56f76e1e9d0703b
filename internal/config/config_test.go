// ABOUTME: Tests for configuration loading, env expansion, and validation
// ABOUTME: Uses temp YAML files to exercise the full Load path

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "assist.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const minimalConfig = `
database:
  path: /tmp/assist.db
llm:
  primary_model: gpt-4o
  fallback_model: gpt-4o-mini
`

func TestLoad_Minimal(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig))
	require.NoError(t, err)

	assert.Equal(t, "/tmp/assist.db", cfg.Database.Path)
	assert.Equal(t, "gpt-4o", cfg.LLM.PrimaryModel)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.FallbackModel)

	// Defaults
	assert.Equal(t, 3, cfg.LLM.MaxAttempts)
	assert.Equal(t, 1, cfg.LLM.FallbackAttempts)
	assert.Equal(t, 30*time.Second, cfg.LLM.RequestTimeout)
	assert.Equal(t, 500*time.Millisecond, cfg.LLM.InitialBackoff)
	assert.Equal(t, 0.5, cfg.Escalation.ConfidenceThreshold)
	assert.Equal(t, 10, cfg.Escalation.MaxSteps)
	assert.Equal(t, 5*time.Minute, cfg.Lookup.TokenTTL)
	assert.Contains(t, cfg.Languages.Supported, "en")
	assert.Contains(t, cfg.Languages.Supported, "pl")
}

func TestLoad_Full(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
database:
  path: /var/lib/assist/assist.db
llm:
  base_url: https://llm.internal.example.com
  primary_model: gpt-4o
  fallback_model: gpt-4o-mini
  max_attempts: 5
  fallback_attempts: 2
  request_timeout: 45s
  initial_backoff: 250ms
escalation:
  confidence_threshold: 0.6
  max_steps: 8
languages:
  supported: [en, de, pl]
lookup:
  base_url: https://masterdata.internal.example.com
  token_secret: sekrit
  token_issuer: assist
  token_ttl: 2m
notify:
  matrix:
    enabled: true
    homeserver: https://matrix.example.com
    user_id: "@assist:example.com"
    access_token: syt_token
    support_room: "!support:example.com"
logging:
  level: debug
  format: json
`))
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.LLM.MaxAttempts)
	assert.Equal(t, 2, cfg.LLM.FallbackAttempts)
	assert.Equal(t, 45*time.Second, cfg.LLM.RequestTimeout)
	assert.Equal(t, 250*time.Millisecond, cfg.LLM.InitialBackoff)
	assert.Equal(t, 0.6, cfg.Escalation.ConfidenceThreshold)
	assert.Equal(t, 8, cfg.Escalation.MaxSteps)
	assert.Equal(t, []string{"en", "de", "pl"}, cfg.Languages.Supported)
	assert.Equal(t, 2*time.Minute, cfg.Lookup.TokenTTL)
	assert.True(t, cfg.Notify.Matrix.Enabled)
	assert.Equal(t, "!support:example.com", cfg.Notify.Matrix.SupportRoom)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoad_EnvExpansion(t *testing.T) {
	t.Setenv("ASSIST_TEST_API_KEY", "sk-from-env")
	t.Setenv("ASSIST_TEST_DB", "/tmp/env.db")

	cfg, err := Load(writeConfig(t, `
database:
  path: ${ASSIST_TEST_DB}
llm:
  api_key: ${ASSIST_TEST_API_KEY}
  primary_model: gpt-4o
  fallback_model: gpt-4o-mini
`))
	require.NoError(t, err)

	assert.Equal(t, "sk-from-env", cfg.LLM.APIKey)
	assert.Equal(t, "/tmp/env.db", cfg.Database.Path)
}

func TestLoad_UnsetEnvVarBecomesEmpty(t *testing.T) {
	_, err := Load(writeConfig(t, `
database:
  path: ${ASSIST_TEST_DEFINITELY_UNSET_VAR}
llm:
  primary_model: gpt-4o
  fallback_model: gpt-4o-mini
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database.path is required")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading config file")
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "database: [unclosed"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing config file")
}

func TestLoad_InvalidDuration(t *testing.T) {
	_, err := Load(writeConfig(t, minimalConfig+`
  request_timeout: soon
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "request_timeout")
}

func TestValidate_Failures(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "missing primary model",
			mutate:  func(c *Config) { c.LLM.PrimaryModel = "" },
			wantErr: "llm.primary_model",
		},
		{
			name:    "missing fallback model",
			mutate:  func(c *Config) { c.LLM.FallbackModel = "" },
			wantErr: "llm.fallback_model",
		},
		{
			name:    "threshold above one",
			mutate:  func(c *Config) { c.Escalation.ConfidenceThreshold = 1.5 },
			wantErr: "confidence_threshold",
		},
		{
			name:    "unknown language code",
			mutate:  func(c *Config) { c.Languages.Supported = []string{"en", "xx"} },
			wantErr: `unknown code "xx"`,
		},
		{
			name: "matrix enabled without homeserver",
			mutate: func(c *Config) {
				c.Notify.Matrix.Enabled = true
				c.Notify.Matrix.SupportRoom = "!support:example.com"
			},
			wantErr: "notify.matrix.homeserver",
		},
		{
			name: "matrix enabled without room",
			mutate: func(c *Config) {
				c.Notify.Matrix.Enabled = true
				c.Notify.Matrix.Homeserver = "https://matrix.example.com"
			},
			wantErr: "notify.matrix.support_room",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(writeConfig(t, minimalConfig))
			require.NoError(t, err)

			tt.mutate(cfg)
			err = cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
