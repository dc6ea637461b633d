package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/promptcrawl/promptcrawl/config"
)

func TestNewUnknownBackend(t *testing.T) {
	_, err := New("deepthought", &config.Settings{})
	if err == nil {
		t.Fatal("New() accepted an unknown backend name")
	}
	var ce *config.ConfigurationError
	if !errors.As(err, &ce) {
		t.Fatalf("error type = %T, want *config.ConfigurationError", err)
	}
}

func TestNewMissingCredential(t *testing.T) {
	for _, name := range []string{"openai", "anthropic", "gemini", "groq"} {
		t.Run(name, func(t *testing.T) {
			_, err := New(name, &config.Settings{})
			var ce *config.ConfigurationError
			if !errors.As(err, &ce) {
				t.Fatalf("error = %v, want *config.ConfigurationError", err)
			}
		})
	}
}

func TestNames(t *testing.T) {
	want := []string{"anthropic", "gemini", "groq", "ollama", "openai"}
	if got := Names(); !reflect.DeepEqual(got, want) {
		t.Errorf("Names() = %v, want %v", got, want)
	}
}

func TestOpenAIChatAnalyzePage(t *testing.T) {
	var gotReq openAIChatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Fatalf("decoding request: %v", err)
		}
		reply := `{"data": [{"title": "T"}], "next_urls": [], "detail_urls": [], "summary": "s"}`
		json.NewEncoder(w).Encode(openAIChatResponse{
			Choices: []struct {
				Message chatMessage `json:"message"`
			}{{Message: chatMessage{Role: "assistant", Content: reply}}},
		})
	}))
	defer srv.Close()

	p := &openAIChat{
		name:   "openai",
		apiURL: srv.URL,
		apiKey: "test-key",
		model:  "gpt-4o",
		client: srv.Client(),
	}
	got, err := p.AnalyzePage(context.Background(), "<div>x</div>", "find items", "https://example.com")
	if err != nil {
		t.Fatalf("AnalyzePage() error: %v", err)
	}
	if len(got.Data) != 1 || got.Data[0]["title"] != "T" {
		t.Errorf("data = %v", got.Data)
	}
	if gotReq.Model != "gpt-4o" {
		t.Errorf("request model = %q", gotReq.Model)
	}
	if gotReq.ResponseFormat == nil || gotReq.ResponseFormat.Type != "json_object" {
		t.Errorf("response_format = %v, want json_object", gotReq.ResponseFormat)
	}
	if len(gotReq.Messages) != 2 || gotReq.Messages[0].Role != "system" {
		t.Errorf("messages = %v", gotReq.Messages)
	}
}

func TestOpenAIChatServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": "overloaded"}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	p := &openAIChat{name: "openai", apiURL: srv.URL, apiKey: "k", model: "m", client: srv.Client()}
	_, err := p.AnalyzePage(context.Background(), "c", "p", "https://example.com")
	var ee *ExtractionError
	if !errors.As(err, &ee) {
		t.Fatalf("error type = %T, want *ExtractionError", err)
	}
	if ee.Backend != "openai" {
		t.Errorf("backend = %q", ee.Backend)
	}
}

func TestAnthropicAnalyzePage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("x-api-key"); got != "ant-key" {
			t.Errorf("x-api-key = %q", got)
		}
		if got := r.Header.Get("anthropic-version"); got != "2023-06-01" {
			t.Errorf("anthropic-version = %q", got)
		}
		var req anthropicRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decoding request: %v", err)
		}
		if req.System == "" {
			t.Error("request system prompt is empty")
		}
		reply := "```json\n{\"data\": [{\"name\": \"n\"}], \"summary\": \"s\"}\n```"
		json.NewEncoder(w).Encode(anthropicResponse{
			Content: []struct {
				Type string `json:"type"`
				Text string `json:"text"`
			}{{Type: "text", Text: reply}},
		})
	}))
	defer srv.Close()

	p := &anthropic{apiURL: srv.URL, apiKey: "ant-key", model: "claude", client: srv.Client()}
	got, err := p.AnalyzePage(context.Background(), "c", "p", "https://example.com")
	if err != nil {
		t.Fatalf("AnalyzePage() error: %v", err)
	}
	if len(got.Data) != 1 || got.Data[0]["name"] != "n" {
		t.Errorf("data = %v", got.Data)
	}
}

func TestGeminiUnderstandPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("key"); got != "gem-key" {
			t.Errorf("key = %q", got)
		}
		var req geminiRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decoding request: %v", err)
		}
		if req.GenerationConfig.ResponseMimeType != "" {
			t.Errorf("responseMimeType = %q, want unset for the understanding pass",
				req.GenerationConfig.ResponseMimeType)
		}
		json.NewEncoder(w).Encode(geminiResponse{
			Candidates: []struct {
				Content geminiContent `json:"content"`
			}{{Content: geminiContent{Parts: []geminiPart{{Text: "# Page\n[link](https://example.com/a)"}}}}},
		})
	}))
	defer srv.Close()

	p := &gemini{baseURL: srv.URL, apiKey: "gem-key", model: "gemini-2.5-flash", client: srv.Client()}
	got, err := p.UnderstandPage(context.Background(), "<div>x</div>", "https://example.com")
	if err != nil {
		t.Fatalf("UnderstandPage() error: %v", err)
	}
	if got != "# Page\n[link](https://example.com/a)" {
		t.Errorf("markdown = %q", got)
	}
}

func TestOllamaAnalyzePage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("path = %q, want /api/chat", r.URL.Path)
		}
		var req ollamaRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decoding request: %v", err)
		}
		if req.Stream {
			t.Error("stream = true, want false")
		}
		if req.Format != "json" {
			t.Errorf("format = %q, want json", req.Format)
		}
		json.NewEncoder(w).Encode(ollamaResponse{
			Message: chatMessage{Role: "assistant", Content: `{"data": [], "summary": "empty page"}`},
		})
	}))
	defer srv.Close()

	p := &ollama{baseURL: srv.URL, model: "phi4-mini", client: srv.Client()}
	got, err := p.AnalyzePage(context.Background(), "c", "p", "https://example.com")
	if err != nil {
		t.Fatalf("AnalyzePage() error: %v", err)
	}
	if got.Summary != "empty page" {
		t.Errorf("summary = %q", got.Summary)
	}
}

func TestThrottleSkipsFirstCall(t *testing.T) {
	start := time.Now()
	throttle("test", time.Time{}, time.Minute)
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("throttle slept %v on first call", elapsed)
	}
}

func TestMaxChunkCharsPerBackend(t *testing.T) {
	settings := &config.Settings{
		OpenAIAPIKey:    "k",
		AnthropicAPIKey: "k",
		GeminiAPIKey:    "k",
		GroqAPIKey:      "k",
		OllamaBaseURL:   "http://localhost:11434",
	}
	tests := []struct {
		name string
		want int
	}{
		{"openai", defaultMaxChunkChars},
		{"anthropic", defaultMaxChunkChars},
		{"gemini", geminiMaxChunkChars},
		{"groq", groqMaxChunkChars},
		{"ollama", defaultMaxChunkChars},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := New(tt.name, settings)
			if err != nil {
				t.Fatalf("New(%q) error: %v", tt.name, err)
			}
			if got := p.MaxChunkChars(); got != tt.want {
				t.Errorf("MaxChunkChars() = %d, want %d", got, tt.want)
			}
			if p.Name() != tt.name {
				t.Errorf("Name() = %q", p.Name())
			}
		})
	}
}
