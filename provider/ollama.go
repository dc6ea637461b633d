package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/promptcrawl/promptcrawl/config"
)

type ollama struct {
	baseURL     string
	model       string
	temperature float64
	client      *http.Client
}

func newOllama(settings *config.Settings) (Provider, error) {
	if settings.OllamaBaseURL == "" {
		return nil, config.NewConfigurationError("OLLAMA_BASE_URL not set")
	}
	return &ollama{
		baseURL:     settings.OllamaBaseURL,
		model:       settings.OllamaModel,
		temperature: settings.Temperature,
		client:      &http.Client{Timeout: 10 * time.Minute},
	}, nil
}

type ollamaRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Format   string        `json:"format,omitempty"`
	Options  ollamaOptions `json:"options"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
	NumCtx      int     `json:"num_ctx"`
	NumThread   int     `json:"num_thread"`
}

type ollamaResponse struct {
	Message chatMessage `json:"message"`
}

func (p *ollama) Name() string       { return "ollama" }
func (p *ollama) MaxChunkChars() int { return defaultMaxChunkChars }

func (p *ollama) chat(ctx context.Context, system string, user string, jsonMode bool, numCtx int) (string, error) {
	reqBody := ollamaRequest{
		Model: p.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Stream: false,
		Options: ollamaOptions{
			Temperature: p.temperature,
			NumCtx:      numCtx,
			NumThread:   8,
		},
	}
	if jsonMode {
		reqBody.Format = "json"
	}

	body, err := postJSON(ctx, p.client, p.baseURL+"/api/chat", nil, reqBody)
	if err != nil {
		return "", err
	}

	var parsed ollamaResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("error decoding response: %w", err)
	}
	return parsed.Message.Content, nil
}

func (p *ollama) AnalyzePage(ctx context.Context, content string, userPrompt string, pageURL string) (*PageResult, error) {
	system, user := extractMessages(content, userPrompt, pageURL)
	raw, err := p.chat(ctx, system, user, true, 4096)
	if err != nil {
		return nil, &ExtractionError{Backend: "ollama", Err: err}
	}
	return ParseResponse(raw)
}

func (p *ollama) UnderstandPage(ctx context.Context, content string, pageURL string) (string, error) {
	system, user := understandMessages(content, pageURL)
	// The understanding pass reads whole chunks of markup, so it gets a
	// larger context window than the extraction pass.
	raw, err := p.chat(ctx, system, user, false, 16384)
	if err != nil {
		return "", &ExtractionError{Backend: "ollama", Err: err}
	}
	return raw, nil
}
