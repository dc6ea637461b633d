// Package extract wraps a backend call in the retry, backoff, and fallback
// policy that keeps one bad chunk from sinking a whole crawl.
package extract

import (
	"context"
	"log/slog"
	"time"

	"github.com/promptcrawl/promptcrawl/observability"
	"github.com/promptcrawl/promptcrawl/provider"
)

// PageContext carries the per-page inputs that stay fixed across attempts.
type PageContext struct {
	URL    string
	Prompt string
}

// Runner drives extraction attempts for one chunk. The primary backend gets
// RetryBudget+1 attempts with exponential backoff between them; if all fail,
// the fallback backend (when configured) gets exactly one un-retried attempt.
// Terminal failure is not an error: the chunk is dropped and the crawl moves
// on.
type Runner struct {
	Primary     provider.Provider
	Fallback    provider.Provider
	RetryBudget int

	// sleep is swapped out in tests.
	sleep func(time.Duration)
}

func NewRunner(primary provider.Provider, fallback provider.Provider, retryBudget int) *Runner {
	return &Runner{
		Primary:     primary,
		Fallback:    fallback,
		RetryBudget: retryBudget,
		sleep:       time.Sleep,
	}
}

// Extract analyzes one chunk of page content. A nil result with a nil error
// means every attempt failed and the chunk's contribution is lost.
func (r *Runner) Extract(ctx context.Context, content string, page PageContext) (*provider.PageResult, error) {
	for attempt := 1; ; attempt++ {
		result, err := r.Primary.AnalyzePage(ctx, content, page.Prompt, page.URL)
		if err == nil {
			return result, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		slog.Warn("extraction attempt failed",
			slog.String("backend", r.Primary.Name()),
			slog.Int("attempt", attempt),
			slog.String("url", page.URL),
			slog.Any("error", err))
		if attempt > r.RetryBudget {
			break
		}
		observability.ExtractionRetry(ctx, r.Primary.Name())
		wait := time.Duration(1<<attempt) * time.Second
		slog.Info("retrying after backoff",
			slog.String("backend", r.Primary.Name()),
			slog.Duration("wait", wait))
		r.sleep(wait)
	}

	if r.Fallback == nil {
		slog.Warn("all attempts exhausted, dropping chunk", slog.String("url", page.URL))
		return nil, nil
	}

	slog.Info("switching to fallback backend",
		slog.String("fallback", r.Fallback.Name()),
		slog.String("url", page.URL))
	result, err := r.Fallback.AnalyzePage(ctx, content, page.Prompt, page.URL)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		slog.Warn("fallback backend failed, dropping chunk",
			slog.String("fallback", r.Fallback.Name()),
			slog.String("url", page.URL),
			slog.Any("error", err))
		return nil, nil
	}
	return result, nil
}
