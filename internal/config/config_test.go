package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoiceocr/internal/config"
	"invoiceocr/internal/domain"
)

func clearKeys(t *testing.T) {
	t.Helper()
	for _, env := range []string{
		"INVOICEOCR_LLM_PRIMARY_API_KEY",
		"INVOICEOCR_LLM_PRIMARY_PROVIDER",
		"INVOICEOCR_SERVER_PORT",
		"GROQ_API_KEY",
		"OPENAI_API_KEY",
		"ANTHROPIC_API_KEY",
		"MISTRAL_API_KEY",
		"PORT",
	} {
		t.Setenv(env, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearKeys(t)
	t.Setenv("GROQ_API_KEY", "gsk-test")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "groq", cfg.LLM.Primary.Provider)
	assert.Equal(t, "gsk-test", cfg.LLM.Primary.APIKey)
	assert.Equal(t, 2, cfg.LLM.Primary.MaxRetries)
	assert.Nil(t, cfg.LLM.SecondaryConfig())
	assert.Equal(t, "eng", cfg.OCR.Language)
	assert.Equal(t, 11, cfg.OCR.PSM)
	assert.Equal(t, 1, cfg.OCR.Workers)
	assert.Equal(t, 300, cfg.Rasterize.DPI)
	assert.True(t, cfg.Rasterize.UseVector)
	assert.Equal(t, int64(25*1024*1024), cfg.Upload.MaxBytes())
	assert.Equal(t, []string{"http://localhost:3000", "http://127.0.0.1:3000"}, cfg.CORS.AllowedOrigins)
}

func TestLoad_MissingAPIKey(t *testing.T) {
	clearKeys(t)

	cfg, err := config.Load()

	assert.Nil(t, cfg)
	assert.ErrorIs(t, err, domain.ErrMissingAPIKey)
	assert.Contains(t, err.Error(), "GROQ_API_KEY")
}

func TestLoad_PrefixedKeyWins(t *testing.T) {
	clearKeys(t)
	t.Setenv("GROQ_API_KEY", "gsk-conventional")
	t.Setenv("INVOICEOCR_LLM_PRIMARY_API_KEY", "gsk-prefixed")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "gsk-prefixed", cfg.LLM.Primary.APIKey)
}

func TestLoad_OllamaNeedsNoKey(t *testing.T) {
	clearKeys(t)
	t.Setenv("INVOICEOCR_LLM_PRIMARY_PROVIDER", "ollama")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "ollama", cfg.LLM.Primary.Provider)
	assert.Empty(t, cfg.LLM.Primary.APIKey)
}

func TestLoad_PortEnvOverride(t *testing.T) {
	clearKeys(t)
	t.Setenv("GROQ_API_KEY", "gsk-test")
	t.Setenv("PORT", "9000")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Server.Port)
}

func TestLoad_ExplicitServerPortBeatsPORT(t *testing.T) {
	clearKeys(t)
	t.Setenv("GROQ_API_KEY", "gsk-test")
	t.Setenv("PORT", "9000")
	t.Setenv("INVOICEOCR_SERVER_PORT", ":7070")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, ":7070", cfg.Server.Port)
}

func TestLLMConfig_SecondaryConfig(t *testing.T) {
	tests := []struct {
		name      string
		secondary config.LLMProviderConfig
		want      bool
	}{
		{"not configured", config.LLMProviderConfig{}, false},
		{"missing key", config.LLMProviderConfig{Provider: "openai"}, false},
		{"with key", config.LLMProviderConfig{Provider: "openai", APIKey: "sk-test"}, true},
		{"ollama without key", config.LLMProviderConfig{Provider: "ollama"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.LLMConfig{
				Primary:   config.LLMProviderConfig{Provider: "groq", APIKey: "gsk-test"},
				Secondary: tt.secondary,
			}
			got := cfg.SecondaryConfig()
			if tt.want {
				require.NotNil(t, got)
				assert.Equal(t, tt.secondary.Provider, got.Provider)
			} else {
				assert.Nil(t, got)
			}
		})
	}
}
