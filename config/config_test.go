package config

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/promptcrawl/promptcrawl/utils"
)

func TestLoadDefaults(t *testing.T) {
	s, err := Load("")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if s.DefaultProvider != "ollama" {
		t.Errorf("DefaultProvider = %q, want ollama", s.DefaultProvider)
	}
	if s.MaxPages != 100 {
		t.Errorf("MaxPages = %d, want 100", s.MaxPages)
	}
	if s.RetryBudget != 2 {
		t.Errorf("RetryBudget = %d, want 2", s.RetryBudget)
	}
	if !s.RenderJS {
		t.Error("RenderJS = false, want true by default")
	}
	if s.AutoScroll {
		t.Error("AutoScroll = true, want false by default")
	}
	if s.OllamaBaseURL != "http://localhost:11434" {
		t.Errorf("OllamaBaseURL = %q", s.OllamaBaseURL)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("DEFAULT_PROVIDER", "gemini")
	t.Setenv("MAX_PAGES", "7")
	t.Setenv("SCRAPER_API_KEY", "sk-test")

	s, err := Load("")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if s.DefaultProvider != "gemini" {
		t.Errorf("DefaultProvider = %q, want gemini", s.DefaultProvider)
	}
	if s.MaxPages != 7 {
		t.Errorf("MaxPages = %d, want 7", s.MaxPages)
	}
	if s.ScraperAPIKey != "sk-test" {
		t.Errorf("ScraperAPIKey = %q", s.ScraperAPIKey)
	}
}

func TestLoadYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "default-provider: groq\nmax-pages: 3\ngroq-api-key: gk-test\n"
	if err := utils.WriteStringFile(path, content); err != nil {
		t.Fatal(err)
	}

	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if s.DefaultProvider != "groq" {
		t.Errorf("DefaultProvider = %q, want groq", s.DefaultProvider)
	}
	if s.MaxPages != 3 {
		t.Errorf("MaxPages = %d, want 3", s.MaxPages)
	}
	if s.GroqAPIKey != "gk-test" {
		t.Errorf("GroqAPIKey = %q", s.GroqAPIKey)
	}
}

func TestLoadMissingConfigFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("Load() accepted a missing config file")
	}
	var ce *ConfigurationError
	if !errors.As(err, &ce) {
		t.Fatalf("error type = %T, want *ConfigurationError", err)
	}
}

func TestConfigurationErrorMessage(t *testing.T) {
	err := NewConfigurationError("missing %s", "KEY")
	if err.Error() != "configuration error: missing KEY" {
		t.Errorf("Error() = %q", err.Error())
	}
}
