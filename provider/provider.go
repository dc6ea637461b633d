// Package provider defines the capability contract for the external
// text-understanding backends and a registry of interchangeable
// implementations. A backend does two jobs: turn reduced markup into clean
// markdown (the understanding pass) and extract structured records plus
// follow-up links from page content (the extraction pass).
package provider

import (
	"context"
	"fmt"
	"sort"

	"github.com/promptcrawl/promptcrawl/config"
	"github.com/promptcrawl/promptcrawl/output"
)

// Default chunk ceiling, roughly 12K tokens at ~4 chars/token. Backends with
// tighter or looser context windows override it.
const defaultMaxChunkChars = 48_000

// PageResult is what a backend returns for each chunk it analyzes. The field
// order and duplicates are preserved exactly as the backend emitted them;
// deduplication happens later, at level boundaries.
type PageResult struct {
	// Data holds extracted records matching the user's request.
	Data output.Records `json:"data"`
	// NextURLs are pagination links, processed on the current level.
	NextURLs []string `json:"next_urls"`
	// DetailURLs are item page links, processed on the next level.
	DetailURLs []string `json:"detail_urls"`
	// Summary is a brief description of what was found on the page.
	Summary string `json:"summary"`
}

// Provider is the uniform interface over all extraction backends.
type Provider interface {
	Name() string

	// MaxChunkChars is the largest content size one call accepts.
	MaxChunkChars() int

	// AnalyzePage extracts structured data from page content following the
	// user's prompt. Content is clean markdown in dual-model mode or reduced
	// HTML in single-model mode.
	AnalyzePage(ctx context.Context, content string, userPrompt string, pageURL string) (*PageResult, error)

	// UnderstandPage reads reduced HTML and produces a clean markdown
	// representation with all content, links, and image URLs preserved.
	UnderstandPage(ctx context.Context, content string, pageURL string) (string, error)
}

type constructor func(*config.Settings) (Provider, error)

var registry = map[string]constructor{
	"anthropic": newAnthropic,
	"gemini":    newGemini,
	"groq":      newGroq,
	"ollama":    newOllama,
	"openai":    newOpenAI,
}

// New instantiates a backend by its registry name. Unknown names and missing
// credentials are configuration errors, raised before any network activity.
func New(name string, settings *config.Settings) (Provider, error) {
	build, ok := registry[name]
	if !ok {
		return nil, config.NewConfigurationError(
			"unknown backend %q, available: %v", name, Names())
	}
	return build(settings)
}

// Names lists the registered backend identifiers in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// An ExtractionError is a backend-scoped failure: a transport problem, a
// non-OK API status, or an empty reply. It is recovered by retry or fallback
// and never aborts a crawl.
type ExtractionError struct {
	Backend string
	Err     error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("%s request failed: %v", e.Backend, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }
