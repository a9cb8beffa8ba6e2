package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"invoiceocr/internal/domain"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Log       LogConfig
	LLM       LLMConfig
	OCR       OCRConfig
	Rasterize RasterizeConfig
	Upload    UploadConfig
	CORS      CORSConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// LLMProviderConfig holds settings for a single chat model provider.
type LLMProviderConfig struct {
	Provider    string `mapstructure:"provider"`
	APIKey      string `mapstructure:"api_key"`
	Model       string `mapstructure:"model"`
	BaseURL     string `mapstructure:"base_url"`
	MaxRetries  int    `mapstructure:"max_retries"`
	TimeoutSecs int    `mapstructure:"timeout_secs"`
	MaxTokens   int    `mapstructure:"max_tokens"`
}

// LLMConfig holds the structured-extraction model settings. The secondary
// provider is optional and only used when the primary is rate limited or failing.
type LLMConfig struct {
	Primary   LLMProviderConfig `mapstructure:"primary"`
	Secondary LLMProviderConfig `mapstructure:"secondary"`
}

// SecondaryConfig returns the secondary provider config, or nil if not configured.
func (l *LLMConfig) SecondaryConfig() *LLMProviderConfig {
	if l.Secondary.Provider != "" && (l.Secondary.APIKey != "" || !l.Secondary.RequiresAPIKey()) {
		return &l.Secondary
	}
	return nil
}

// RequiresAPIKey reports whether the provider authenticates with an API key.
// Self-hosted Ollama does not.
func (p *LLMProviderConfig) RequiresAPIKey() bool {
	return p.Provider != "ollama"
}

// OCRConfig holds OCR engine settings.
type OCRConfig struct {
	Backend     string `mapstructure:"backend"`
	BinaryPath  string `mapstructure:"binary_path"`
	TessdataDir string `mapstructure:"tessdata_dir"`
	Language    string `mapstructure:"language"`
	PSM         int    `mapstructure:"psm"`
	Enhance     bool   `mapstructure:"enhance"`
	Workers     int    `mapstructure:"workers"`
	TimeoutSecs int    `mapstructure:"timeout_secs"`
}

// RasterizeConfig holds PDF rendering settings.
type RasterizeConfig struct {
	PdftocairoPath string `mapstructure:"pdftocairo_path"`
	PdftoppmPath   string `mapstructure:"pdftoppm_path"`
	DPI            int    `mapstructure:"dpi"`
	UseVector      bool   `mapstructure:"use_vector"`
	Grayscale      bool   `mapstructure:"grayscale"`
	TempDir        string `mapstructure:"temp_dir"`
	TimeoutSecs    int    `mapstructure:"timeout_secs"`
}

// UploadConfig holds upload limits.
type UploadConfig struct {
	MaxFileSizeMB int64 `mapstructure:"max_file_size_mb"`
}

// MaxBytes returns the upload limit in bytes.
func (u *UploadConfig) MaxBytes() int64 {
	return u.MaxFileSizeMB * 1024 * 1024
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// providerKeyEnv lists the conventional API key variables per provider. They are
// consulted when the prefixed variable is not set.
var providerKeyEnv = map[string]string{
	"groq":      "GROQ_API_KEY",
	"openai":    "OPENAI_API_KEY",
	"anthropic": "ANTHROPIC_API_KEY",
	"mistral":   "MISTRAL_API_KEY",
}

// Load reads configuration from an optional .env file and environment variables
// with the INVOICEOCR_ prefix. A missing primary LLM API key is an error.
func Load() (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}
	cfg := FromViper(newViper())
	if cfg.LLM.Primary.APIKey == "" && cfg.LLM.Primary.RequiresAPIKey() {
		return nil, fmt.Errorf("%w: set INVOICEOCR_LLM_PRIMARY_API_KEY or %s",
			domain.ErrMissingAPIKey, providerKeyEnv[cfg.LLM.Primary.Provider])
	}
	return cfg, nil
}

func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("loading %s: %w", path, err)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("INVOICEOCR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "300s")
	v.SetDefault("server.environment", "development")

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	// LLM defaults
	v.SetDefault("llm.primary.provider", "groq")
	v.SetDefault("llm.primary.api_key", "")
	v.SetDefault("llm.primary.model", "")
	v.SetDefault("llm.primary.base_url", "")
	v.SetDefault("llm.primary.max_retries", 2)
	v.SetDefault("llm.primary.timeout_secs", 120)
	v.SetDefault("llm.primary.max_tokens", 4096)
	v.SetDefault("llm.secondary.provider", "")
	v.SetDefault("llm.secondary.api_key", "")
	v.SetDefault("llm.secondary.model", "")
	v.SetDefault("llm.secondary.base_url", "")
	v.SetDefault("llm.secondary.max_retries", 2)
	v.SetDefault("llm.secondary.timeout_secs", 120)
	v.SetDefault("llm.secondary.max_tokens", 4096)

	// OCR defaults
	v.SetDefault("ocr.backend", "tesseract-cli")
	v.SetDefault("ocr.binary_path", "tesseract")
	v.SetDefault("ocr.tessdata_dir", "")
	v.SetDefault("ocr.language", "eng")
	v.SetDefault("ocr.psm", 11)
	v.SetDefault("ocr.enhance", false)
	v.SetDefault("ocr.workers", 1)
	v.SetDefault("ocr.timeout_secs", 120)

	// Rasterizer defaults
	v.SetDefault("rasterize.pdftocairo_path", "pdftocairo")
	v.SetDefault("rasterize.pdftoppm_path", "pdftoppm")
	v.SetDefault("rasterize.dpi", domain.DefaultDPI)
	v.SetDefault("rasterize.use_vector", true)
	v.SetDefault("rasterize.grayscale", false)
	v.SetDefault("rasterize.temp_dir", "")
	v.SetDefault("rasterize.timeout_secs", 180)

	// Upload defaults
	v.SetDefault("upload.max_file_size_mb", 25)

	// CORS defaults (localhost origins for development)
	v.SetDefault("cors.allowed_origins", "http://localhost:3000,http://127.0.0.1:3000")

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":                "INVOICEOCR_SERVER_PORT",
		"server.read_timeout":        "INVOICEOCR_SERVER_READ_TIMEOUT",
		"server.write_timeout":       "INVOICEOCR_SERVER_WRITE_TIMEOUT",
		"server.environment":         "INVOICEOCR_SERVER_ENVIRONMENT",
		"log.level":                  "INVOICEOCR_LOG_LEVEL",
		"log.format":                 "INVOICEOCR_LOG_FORMAT",
		"llm.primary.provider":       "INVOICEOCR_LLM_PRIMARY_PROVIDER",
		"llm.primary.api_key":        "INVOICEOCR_LLM_PRIMARY_API_KEY",
		"llm.primary.model":          "INVOICEOCR_LLM_PRIMARY_MODEL",
		"llm.primary.base_url":       "INVOICEOCR_LLM_PRIMARY_BASE_URL",
		"llm.primary.max_retries":    "INVOICEOCR_LLM_PRIMARY_MAX_RETRIES",
		"llm.primary.timeout_secs":   "INVOICEOCR_LLM_PRIMARY_TIMEOUT_SECS",
		"llm.primary.max_tokens":     "INVOICEOCR_LLM_PRIMARY_MAX_TOKENS",
		"llm.secondary.provider":     "INVOICEOCR_LLM_SECONDARY_PROVIDER",
		"llm.secondary.api_key":      "INVOICEOCR_LLM_SECONDARY_API_KEY",
		"llm.secondary.model":        "INVOICEOCR_LLM_SECONDARY_MODEL",
		"llm.secondary.base_url":     "INVOICEOCR_LLM_SECONDARY_BASE_URL",
		"llm.secondary.max_retries":  "INVOICEOCR_LLM_SECONDARY_MAX_RETRIES",
		"llm.secondary.timeout_secs": "INVOICEOCR_LLM_SECONDARY_TIMEOUT_SECS",
		"llm.secondary.max_tokens":   "INVOICEOCR_LLM_SECONDARY_MAX_TOKENS",
		"ocr.backend":                "INVOICEOCR_OCR_BACKEND",
		"ocr.binary_path":            "INVOICEOCR_OCR_BINARY_PATH",
		"ocr.tessdata_dir":           "INVOICEOCR_OCR_TESSDATA_DIR",
		"ocr.language":               "INVOICEOCR_OCR_LANGUAGE",
		"ocr.psm":                    "INVOICEOCR_OCR_PSM",
		"ocr.enhance":                "INVOICEOCR_OCR_ENHANCE",
		"ocr.workers":                "INVOICEOCR_OCR_WORKERS",
		"ocr.timeout_secs":           "INVOICEOCR_OCR_TIMEOUT_SECS",
		"rasterize.pdftocairo_path":  "INVOICEOCR_RASTERIZE_PDFTOCAIRO_PATH",
		"rasterize.pdftoppm_path":    "INVOICEOCR_RASTERIZE_PDFTOPPM_PATH",
		"rasterize.dpi":              "INVOICEOCR_RASTERIZE_DPI",
		"rasterize.use_vector":       "INVOICEOCR_RASTERIZE_USE_VECTOR",
		"rasterize.grayscale":        "INVOICEOCR_RASTERIZE_GRAYSCALE",
		"rasterize.temp_dir":         "INVOICEOCR_RASTERIZE_TEMP_DIR",
		"rasterize.timeout_secs":     "INVOICEOCR_RASTERIZE_TIMEOUT_SECS",
		"upload.max_file_size_mb":    "INVOICEOCR_UPLOAD_MAX_FILE_SIZE_MB",
		"cors.allowed_origins":       "INVOICEOCR_CORS_ALLOWED_ORIGINS",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}
	return v
}

// FromViper builds a Config from an already populated viper instance. It never
// fails; validation of required values is left to Load.
func FromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	// Railway/Heroku/Render set a PORT env var. Use it if INVOICEOCR_SERVER_PORT is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("INVOICEOCR_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:         serverPort,
		ReadTimeout:  v.GetDuration("server.read_timeout"),
		WriteTimeout: v.GetDuration("server.write_timeout"),
		Environment:  v.GetString("server.environment"),
	}
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}
	cfg.LLM = LLMConfig{
		Primary:   providerFromViper(v, "llm.primary"),
		Secondary: providerFromViper(v, "llm.secondary"),
	}
	cfg.OCR = OCRConfig{
		Backend:     v.GetString("ocr.backend"),
		BinaryPath:  v.GetString("ocr.binary_path"),
		TessdataDir: v.GetString("ocr.tessdata_dir"),
		Language:    v.GetString("ocr.language"),
		PSM:         v.GetInt("ocr.psm"),
		Enhance:     v.GetBool("ocr.enhance"),
		Workers:     v.GetInt("ocr.workers"),
		TimeoutSecs: v.GetInt("ocr.timeout_secs"),
	}
	cfg.Rasterize = RasterizeConfig{
		PdftocairoPath: v.GetString("rasterize.pdftocairo_path"),
		PdftoppmPath:   v.GetString("rasterize.pdftoppm_path"),
		DPI:            v.GetInt("rasterize.dpi"),
		UseVector:      v.GetBool("rasterize.use_vector"),
		Grayscale:      v.GetBool("rasterize.grayscale"),
		TempDir:        v.GetString("rasterize.temp_dir"),
		TimeoutSecs:    v.GetInt("rasterize.timeout_secs"),
	}
	cfg.Upload = UploadConfig{
		MaxFileSizeMB: v.GetInt64("upload.max_file_size_mb"),
	}

	// Parse CORS allowed origins from comma-separated string
	var corsOrigins []string
	for _, o := range strings.Split(v.GetString("cors.allowed_origins"), ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			corsOrigins = append(corsOrigins, o)
		}
	}
	cfg.CORS = CORSConfig{
		AllowedOrigins: corsOrigins,
	}

	return cfg
}

func providerFromViper(v *viper.Viper, prefix string) LLMProviderConfig {
	p := LLMProviderConfig{
		Provider:    v.GetString(prefix + ".provider"),
		APIKey:      v.GetString(prefix + ".api_key"),
		Model:       v.GetString(prefix + ".model"),
		BaseURL:     v.GetString(prefix + ".base_url"),
		MaxRetries:  v.GetInt(prefix + ".max_retries"),
		TimeoutSecs: v.GetInt(prefix + ".timeout_secs"),
		MaxTokens:   v.GetInt(prefix + ".max_tokens"),
	}
	if p.APIKey == "" {
		if env, ok := providerKeyEnv[p.Provider]; ok {
			p.APIKey = os.Getenv(env)
		}
	}
	return p
}
