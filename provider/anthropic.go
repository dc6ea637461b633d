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

type anthropic struct {
	apiURL string
	apiKey string
	model  string
	client *http.Client
}

func newAnthropic(settings *config.Settings) (Provider, error) {
	if settings.AnthropicAPIKey == "" {
		return nil, config.NewConfigurationError("ANTHROPIC_API_KEY not set")
	}
	return &anthropic{
		apiURL: "https://api.anthropic.com/v1/messages",
		apiKey: settings.AnthropicAPIKey,
		model:  settings.ClaudeModel,
		client: &http.Client{Timeout: 120 * time.Second},
	}, nil
}

type anthropicRequest struct {
	Model     string        `json:"model"`
	MaxTokens int           `json:"max_tokens"`
	System    string        `json:"system"`
	Messages  []chatMessage `json:"messages"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

func (p *anthropic) Name() string       { return "anthropic" }
func (p *anthropic) MaxChunkChars() int { return defaultMaxChunkChars }

func (p *anthropic) chat(ctx context.Context, system string, user string) (string, error) {
	reqBody := anthropicRequest{
		Model:     p.model,
		MaxTokens: 4096,
		System:    system,
		Messages:  []chatMessage{{Role: "user", Content: user}},
	}
	headers := map[string]string{
		"x-api-key":         p.apiKey,
		"anthropic-version": "2023-06-01",
	}
	body, err := postJSON(ctx, p.client, p.apiURL, headers, reqBody)
	if err != nil {
		return "", err
	}

	var parsed anthropicResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("error decoding response: %w", err)
	}
	for _, block := range parsed.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}
	return "", errors.New("response contained no text block")
}

func (p *anthropic) AnalyzePage(ctx context.Context, content string, userPrompt string, pageURL string) (*PageResult, error) {
	system, user := extractMessages(content, userPrompt, pageURL)
	raw, err := p.chat(ctx, system, user)
	if err != nil {
		return nil, &ExtractionError{Backend: "anthropic", Err: err}
	}
	return ParseResponse(raw)
}

func (p *anthropic) UnderstandPage(ctx context.Context, content string, pageURL string) (string, error) {
	system, user := understandMessages(content, pageURL)
	raw, err := p.chat(ctx, system, user)
	if err != nil {
		return "", &ExtractionError{Backend: "anthropic", Err: err}
	}
	return raw, nil
}
