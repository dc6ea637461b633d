package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/promptcrawl/promptcrawl/config"
)

// openAIChat talks to any chat-completions endpoint wire-compatible with the
// OpenAI API. Groq exposes the same shape, so both backends share it.
type openAIChat struct {
	name          string
	apiURL        string
	apiKey        string
	model         string
	temperature   float64
	maxChunkChars int
	minInterval   time.Duration
	lastCall      time.Time
	client        *http.Client
}

func newOpenAI(settings *config.Settings) (Provider, error) {
	if settings.OpenAIAPIKey == "" {
		return nil, config.NewConfigurationError("OPENAI_API_KEY not set")
	}
	return &openAIChat{
		name:          "openai",
		apiURL:        "https://api.openai.com/v1/chat/completions",
		apiKey:        settings.OpenAIAPIKey,
		model:         settings.OpenAIModel,
		temperature:   settings.Temperature,
		maxChunkChars: defaultMaxChunkChars,
		client:        &http.Client{Timeout: 120 * time.Second},
	}, nil
}

type openAIChatRequest struct {
	Model          string               `json:"model"`
	Messages       []chatMessage        `json:"messages"`
	Temperature    float64              `json:"temperature"`
	ResponseFormat *openAIResponseShape `json:"response_format,omitempty"`
}

type openAIResponseShape struct {
	Type string `json:"type"`
}

type openAIChatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (p *openAIChat) Name() string       { return p.name }
func (p *openAIChat) MaxChunkChars() int { return p.maxChunkChars }

func (p *openAIChat) chat(ctx context.Context, system string, user string, jsonMode bool) (string, error) {
	throttle(p.name, p.lastCall, p.minInterval)
	defer func() { p.lastCall = time.Now() }()

	reqBody := openAIChatRequest{
		Model: p.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: p.temperature,
	}
	if jsonMode {
		reqBody.ResponseFormat = &openAIResponseShape{Type: "json_object"}
	}

	headers := map[string]string{"Authorization": "Bearer " + p.apiKey}
	body, err := postJSON(ctx, p.client, p.apiURL, headers, reqBody)
	if err != nil {
		return "", err
	}

	var parsed openAIChatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("error decoding response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", errors.New("response contained no choices")
	}
	return parsed.Choices[0].Message.Content, nil
}

func (p *openAIChat) AnalyzePage(ctx context.Context, content string, userPrompt string, pageURL string) (*PageResult, error) {
	system, user := extractMessages(content, userPrompt, pageURL)
	raw, err := p.chat(ctx, system, user, true)
	if err != nil {
		return nil, &ExtractionError{Backend: p.name, Err: err}
	}
	return ParseResponse(raw)
}

func (p *openAIChat) UnderstandPage(ctx context.Context, content string, pageURL string) (string, error) {
	system, user := understandMessages(content, pageURL)
	raw, err := p.chat(ctx, system, user, false)
	if err != nil {
		return "", &ExtractionError{Backend: p.name, Err: err}
	}
	return raw, nil
}
