package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"
)

const (
	ProviderGroq   = "groq"
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"

	defaultPort           = "8000"
	defaultGroqModel      = "llama-3.3-70b-versatile"
	defaultOpenAIModel    = "gpt-4o-mini"
	defaultGeminiModel    = "gemini-2.5-flash"
	defaultTemperature    = 0.7
	defaultMaxTokens      = 1500
	defaultLLMTimeout     = 60 * time.Second
	defaultMaxInputChars  = 24000
	defaultMaxUploadBytes = 10 << 20
)

// Config holds application configuration. It is read once at startup and
// passed by value; nothing mutates it afterwards.
type Config struct {
	Port               string
	Env                string
	CORSAllowOrigin    []string
	MaxUploadBytes     int64
	ExtractConcurrency int
	LLM                LLMConfig
}

// LLMConfig configures the language model provider used for reviews.
type LLMConfig struct {
	Provider      string
	APIKey        string
	BaseURL       string
	Model         string
	Temperature   float64
	MaxTokens     int
	Timeout       time.Duration
	MaxInputChars int
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	provider := normalizeProvider(getEnv("LLM_PROVIDER", ProviderGroq))

	return Config{
		Port:               getEnv("PORT", defaultPort),
		Env:                normalizeEnv(getEnv("ENV", "dev")),
		CORSAllowOrigin:    splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "*")),
		MaxUploadBytes:     getEnvInt64("MAX_UPLOAD_BYTES", defaultMaxUploadBytes),
		ExtractConcurrency: getEnvInt("EXTRACT_CONCURRENCY", runtime.NumCPU()),
		LLM: LLMConfig{
			Provider:      provider,
			APIKey:        apiKeyFor(provider),
			BaseURL:       getEnv("LLM_BASE_URL", ""),
			Model:         getEnv("LLM_MODEL", defaultModel(provider)),
			Temperature:   getEnvFloat("LLM_TEMPERATURE", defaultTemperature),
			MaxTokens:     getEnvInt("LLM_MAX_TOKENS", defaultMaxTokens),
			Timeout:       getEnvDuration("LLM_TIMEOUT", defaultLLMTimeout),
			MaxInputChars: getEnvInt("LLM_MAX_INPUT_CHARS", defaultMaxInputChars),
		},
	}
}

// Validate reports configuration that would make the service unusable.
func (c Config) Validate() error {
	var errs []error
	switch c.LLM.Provider {
	case ProviderGroq, ProviderOpenAI, ProviderGemini:
	default:
		errs = append(errs, fmt.Errorf("LLM_PROVIDER %q is not supported", c.LLM.Provider))
	}
	if strings.TrimSpace(c.LLM.APIKey) == "" {
		errs = append(errs, errors.New("LLM_API_KEY is required"))
	}
	if strings.TrimSpace(c.LLM.Model) == "" {
		errs = append(errs, errors.New("LLM_MODEL is required"))
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		errs = append(errs, fmt.Errorf("LLM_TEMPERATURE must be within [0,2], got %v", c.LLM.Temperature))
	}
	if c.LLM.MaxTokens <= 0 {
		errs = append(errs, errors.New("LLM_MAX_TOKENS must be positive"))
	}
	if c.LLM.Timeout <= 0 {
		errs = append(errs, errors.New("LLM_TIMEOUT must be positive"))
	}
	if c.LLM.MaxInputChars <= 0 {
		errs = append(errs, errors.New("LLM_MAX_INPUT_CHARS must be positive"))
	}
	if c.MaxUploadBytes <= 0 {
		errs = append(errs, errors.New("MAX_UPLOAD_BYTES must be positive"))
	}
	return errors.Join(errs...)
}

// Redacted returns a loggable view of the configuration without secrets.
func (c Config) Redacted() map[string]any {
	return map[string]any{
		"port":                c.Port,
		"env":                 c.Env,
		"cors_allow_origins":  c.CORSAllowOrigin,
		"max_upload_bytes":    c.MaxUploadBytes,
		"extract_concurrency": c.ExtractConcurrency,
		"llm_provider":        c.LLM.Provider,
		"llm_base_url":        c.LLM.BaseURL,
		"llm_model":           c.LLM.Model,
		"llm_temperature":     c.LLM.Temperature,
		"llm_max_tokens":      c.LLM.MaxTokens,
		"llm_timeout":         c.LLM.Timeout.String(),
		"llm_max_input_chars": c.LLM.MaxInputChars,
		"llm_api_key_set":     strings.TrimSpace(c.LLM.APIKey) != "",
	}
}

func apiKeyFor(provider string) string {
	if key := os.Getenv("LLM_API_KEY"); key != "" {
		return key
	}
	switch provider {
	case ProviderOpenAI:
		return os.Getenv("OPENAI_API_KEY")
	case ProviderGemini:
		return os.Getenv("GEMINI_API_KEY")
	default:
		return os.Getenv("GROQ_API_KEY")
	}
}

func defaultModel(provider string) string {
	switch provider {
	case ProviderOpenAI:
		return defaultOpenAIModel
	case ProviderGemini:
		return defaultGeminiModel
	default:
		return defaultGroqModel
	}
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvInt(key string, def int) int {
	if raw := strings.TrimSpace(os.Getenv(key)); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			return parsed
		}
	}
	return def
}

func getEnvInt64(key string, def int64) int64 {
	if raw := strings.TrimSpace(os.Getenv(key)); raw != "" {
		if parsed, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return parsed
		}
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	if raw := strings.TrimSpace(os.Getenv(key)); raw != "" {
		if parsed, err := strconv.ParseFloat(raw, 64); err == nil {
			return parsed
		}
	}
	return def
}

// getEnvDuration accepts Go durations ("45s") or a bare number of seconds.
func getEnvDuration(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	if parsed, err := time.ParseDuration(raw); err == nil {
		return parsed
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second
	}
	return def
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	default:
		return "dev"
	}
}

func normalizeProvider(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}
