// Package config holds the crawler settings shared across all packages.
// Values are read from environment variables (optionally seeded from a .env
// file) or from a YAML config file, or both.
package config

import (
	"fmt"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

var Debug = false

// Settings carries every tunable for a crawl: transport credentials, backend
// credentials and model names, and crawl limits.
type Settings struct {
	ScraperAPIKey string `yaml:"scraper-api-key" env:"SCRAPER_API_KEY"`

	OpenAIAPIKey string `yaml:"openai-api-key" env:"OPENAI_API_KEY"`
	OpenAIModel  string `yaml:"openai-model" env:"OPENAI_MODEL" env-default:"gpt-4o"`

	AnthropicAPIKey string `yaml:"anthropic-api-key" env:"ANTHROPIC_API_KEY"`
	ClaudeModel     string `yaml:"claude-model" env:"CLAUDE_MODEL" env-default:"claude-haiku-4-5-20251001"`

	OllamaBaseURL string `yaml:"ollama-base-url" env:"OLLAMA_BASE_URL" env-default:"http://localhost:11434"`
	OllamaModel   string `yaml:"ollama-model" env:"OLLAMA_MODEL" env-default:"phi4-mini"`

	GroqAPIKey string `yaml:"groq-api-key" env:"GROQ_API_KEY"`
	GroqModel  string `yaml:"groq-model" env:"GROQ_MODEL" env-default:"llama-3.1-8b-instant"`

	GeminiAPIKey string `yaml:"gemini-api-key" env:"GEMINI_API_KEY"`
	GeminiModel  string `yaml:"gemini-model" env:"GEMINI_MODEL" env-default:"gemini-2.5-flash"`

	// Transport tuning.
	ScraperTimeoutSeconds int  `yaml:"scraper-timeout" env:"SCRAPER_TIMEOUT" env-default:"60"`
	RenderJS              bool `yaml:"render-js" env:"RENDER_JS" env-default:"true"`
	AutoScroll            bool `yaml:"auto-scroll" env:"AUTO_SCROLL" env-default:"false"`

	// Crawl settings.
	DefaultProvider   string  `yaml:"default-provider" env:"DEFAULT_PROVIDER" env-default:"ollama"`
	ProcessorProvider string  `yaml:"processor-provider" env:"PROCESSOR_PROVIDER"`
	FallbackProvider  string  `yaml:"fallback-provider" env:"FALLBACK_PROVIDER"`
	MaxPages          int     `yaml:"max-pages" env:"MAX_PAGES" env-default:"100"`
	RetryBudget       int     `yaml:"retry-budget" env:"RETRY_BUDGET" env-default:"2"`
	Temperature       float64 `yaml:"temperature" env:"TEMPERATURE" env-default:"0"`
}

// Load reads settings from the environment, seeded from a .env file in the
// working directory if one exists. When configPath is non-empty the YAML file
// there is read first and environment variables override it.
func Load(configPath string) (*Settings, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, NewConfigurationError("error loading .env file: %v", err)
		}
	}

	s := &Settings{}
	if configPath != "" {
		if err := cleanenv.ReadConfig(configPath, s); err != nil {
			return nil, NewConfigurationError("error reading config file %q: %v", configPath, err)
		}
		return s, nil
	}
	if err := cleanenv.ReadEnv(s); err != nil {
		return nil, NewConfigurationError("error reading environment: %v", err)
	}
	return s, nil
}

// A ConfigurationError prevents a crawl from starting: a missing credential
// for a configured backend, or an unknown backend identifier. It is the only
// error class that aborts the process; everything page- or chunk-scoped is
// logged and skipped.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "configuration error: " + e.Reason
}

func NewConfigurationError(format string, args ...interface{}) *ConfigurationError {
	return &ConfigurationError{Reason: fmt.Sprintf(format, args...)}
}
