package provider

import (
	"net/http"
	"time"

	"github.com/promptcrawl/promptcrawl/config"
)

// Groq's free tier allows roughly 6K tokens per minute, so content is kept
// small and calls are spaced out.
const (
	groqMaxChunkChars = 12_000
	groqMinInterval   = 15 * time.Second
)

func newGroq(settings *config.Settings) (Provider, error) {
	if settings.GroqAPIKey == "" {
		return nil, config.NewConfigurationError("GROQ_API_KEY not set")
	}
	return &openAIChat{
		name:          "groq",
		apiURL:        "https://api.groq.com/openai/v1/chat/completions",
		apiKey:        settings.GroqAPIKey,
		model:         settings.GroqModel,
		temperature:   settings.Temperature,
		maxChunkChars: groqMaxChunkChars,
		minInterval:   groqMinInterval,
		client:        &http.Client{Timeout: 120 * time.Second},
	}, nil
}
