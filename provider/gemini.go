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

// Gemini's context window is large enough that most pages never get chunked,
// but its free tier caps requests per minute.
const (
	geminiMaxChunkChars = 500_000
	geminiMinInterval   = 7 * time.Second
)

type gemini struct {
	baseURL     string
	apiKey      string
	model       string
	temperature float64
	lastCall    time.Time
	client      *http.Client
}

func newGemini(settings *config.Settings) (Provider, error) {
	if settings.GeminiAPIKey == "" {
		return nil, config.NewConfigurationError("GEMINI_API_KEY not set")
	}
	return &gemini{
		baseURL:     "https://generativelanguage.googleapis.com/v1beta",
		apiKey:      settings.GeminiAPIKey,
		model:       settings.GeminiModel,
		temperature: settings.Temperature,
		client:      &http.Client{Timeout: 180 * time.Second},
	}, nil
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	SystemInstruction *geminiContent   `json:"system_instruction,omitempty"`
	Contents          []geminiContent  `json:"contents"`
	GenerationConfig  *geminiGenConfig `json:"generationConfig,omitempty"`
}

type geminiGenConfig struct {
	Temperature      float64 `json:"temperature"`
	ResponseMimeType string  `json:"responseMimeType,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

func (p *gemini) Name() string       { return "gemini" }
func (p *gemini) MaxChunkChars() int { return geminiMaxChunkChars }

func (p *gemini) chat(ctx context.Context, system string, user string, jsonMode bool) (string, error) {
	throttle("gemini", p.lastCall, geminiMinInterval)
	defer func() { p.lastCall = time.Now() }()

	reqBody := geminiRequest{
		SystemInstruction: &geminiContent{Parts: []geminiPart{{Text: system}}},
		Contents:          []geminiContent{{Role: "user", Parts: []geminiPart{{Text: user}}}},
		GenerationConfig:  &geminiGenConfig{Temperature: p.temperature},
	}
	if jsonMode {
		reqBody.GenerationConfig.ResponseMimeType = "application/json"
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", p.baseURL, p.model, p.apiKey)
	body, err := postJSON(ctx, p.client, url, nil, reqBody)
	if err != nil {
		return "", err
	}

	var parsed geminiResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("error decoding response: %w", err)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("response contained no candidates")
	}
	return parsed.Candidates[0].Content.Parts[0].Text, nil
}

func (p *gemini) AnalyzePage(ctx context.Context, content string, userPrompt string, pageURL string) (*PageResult, error) {
	system, user := extractMessages(content, userPrompt, pageURL)
	raw, err := p.chat(ctx, system, user, true)
	if err != nil {
		return nil, &ExtractionError{Backend: "gemini", Err: err}
	}
	return ParseResponse(raw)
}

func (p *gemini) UnderstandPage(ctx context.Context, content string, pageURL string) (string, error) {
	system, user := understandMessages(content, pageURL)
	raw, err := p.chat(ctx, system, user, false)
	if err != nil {
		return "", &ExtractionError{Backend: "gemini", Err: err}
	}
	return raw, nil
}
