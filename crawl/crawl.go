// Package crawl drives the multi-level crawl loop: breadth-first pagination
// within a level, then one level deeper through the detail links the backend
// discovered. Each page runs a three-phase pipeline: fetch, reduce, extract,
// with an optional understanding phase between reduce and extract when a
// processor backend is configured.
package crawl

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/samber/lo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/promptcrawl/promptcrawl/clean"
	"github.com/promptcrawl/promptcrawl/extract"
	"github.com/promptcrawl/promptcrawl/fetch"
	"github.com/promptcrawl/promptcrawl/observability"
	"github.com/promptcrawl/promptcrawl/output"
	"github.com/promptcrawl/promptcrawl/provider"
	"github.com/promptcrawl/promptcrawl/utils"
)

// Config holds everything one crawl needs. Fetcher and Runner are required;
// Processor and Cache are optional.
type Config struct {
	StartURL     string
	Prompt       string
	ProviderName string
	MaxPages     int

	Fetcher   fetch.Fetcher
	FetchOpts fetch.FetchOpts

	// Runner performs the extraction phase with retry and fallback.
	Runner *extract.Runner

	// Processor, when set, enables dual-model mode: it turns reduced HTML
	// into markdown before the extractor sees it.
	Processor provider.Provider

	// Cache, when set, lets interrupted crawls resume without repeating
	// fetch or extraction work for pages already processed.
	Cache fetch.Cache
}

// Session is one crawl in progress. Not safe for concurrent use; pages are
// processed strictly one at a time so backend rate limits hold.
type Session struct {
	cfg        Config
	visited    map[string]bool
	allData    output.Records
	totalPages int
}

func NewSession(cfg Config) *Session {
	return &Session{
		cfg:     cfg,
		visited: map[string]bool{},
	}
}

// pageOutcome is the cacheable product of one page's pipeline, before any
// visited or domain filtering.
type pageOutcome struct {
	Data       output.Records `json:"data"`
	NextURLs   []string       `json:"next_urls"`
	DetailURLs []string       `json:"detail_urls"`
}

// Run crawls from the configured start URL until the frontier empties or the
// page budget runs out, and returns everything extracted. Page-level failures
// never abort the crawl; only context cancellation does.
func (s *Session) Run(ctx context.Context) (*output.CrawlResult, error) {
	start := time.Now()
	slog.Info("starting crawl",
		slog.String("url", s.cfg.StartURL),
		slog.String("provider", s.cfg.ProviderName),
		slog.Int("max_pages", s.cfg.MaxPages))

	level := 1
	queue := []string{s.cfg.StartURL}

	for len(queue) > 0 {
		kind := "detail pages"
		if level == 1 {
			kind = "listing pages"
		}
		slog.Info("starting level",
			slog.Int("level", level),
			slog.String("kind", kind),
			slog.Int("queued", len(queue)))

		var nextLevel []string
		var levelData output.Records

		for len(queue) > 0 && s.totalPages < s.cfg.MaxPages {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			url := queue[0]
			queue = queue[1:]

			if s.visited[url] {
				continue
			}
			// The seed is exempt from the domain filter; everything the
			// backend discovers afterwards must stay on the start domain.
			if len(s.visited) > 0 && !utils.SameDomain(url, s.cfg.StartURL) {
				slog.Debug("skipping off-domain url", slog.String("url", url))
				continue
			}
			s.visited[url] = true
			s.totalPages++

			outcome, err := s.processPage(ctx, url, level)
			if err != nil {
				return nil, err
			}

			pagination := s.filterLinks(outcome.NextURLs)
			details := s.filterLinks(outcome.DetailURLs)

			levelData = append(levelData, outcome.Data...)
			if level > 1 && len(outcome.Data) > 0 {
				s.mergeDetailData(url, outcome.Data)
			}

			queue = append(queue, pagination...)
			nextLevel = append(nextLevel, details...)

			slog.Info("page complete",
				slog.String("url", url),
				slog.Int("items", len(outcome.Data)),
				slog.Int("pagination_links", len(pagination)),
				slog.Int("detail_links", len(details)),
				slog.Int("level_items", len(levelData)),
				slog.Int("total_pages", s.totalPages),
				slog.Int("queued", len(queue)))
		}

		// Listing levels collect duplicates when the same item shows up on
		// several pagination pages; the first occurrence wins.
		if level == 1 && len(levelData) > 0 {
			deduped := levelData.DedupByKey("detail_url")
			if len(deduped) < len(levelData) {
				slog.Info("deduplicated level items",
					slog.Int("before", len(levelData)),
					slog.Int("after", len(deduped)))
			}
			s.allData = append(s.allData, deduped...)
			levelData = deduped
		}
		slog.Info("level complete", slog.Int("level", level), slog.Int("items", len(levelData)))

		nextLevel = lo.Uniq(nextLevel)
		nextLevel = lo.Filter(nextLevel, func(u string, _ int) bool { return !s.visited[u] })
		if len(nextLevel) == 0 {
			break
		}
		level++
		queue = nextLevel
	}

	slog.Info("crawl complete",
		slog.Int("levels", level),
		slog.Int("pages_crawled", s.totalPages),
		slog.Int("items", len(s.allData)),
		slog.Duration("elapsed", time.Since(start).Round(100*time.Millisecond)))

	return &output.CrawlResult{
		URL:          s.cfg.StartURL,
		Prompt:       s.cfg.Prompt,
		Provider:     s.cfg.ProviderName,
		PagesCrawled: s.totalPages,
		Data:         s.allData,
	}, nil
}

// filterLinks keeps discovered links that are unvisited and on the start
// domain, preserving discovery order.
func (s *Session) filterLinks(urls []string) []string {
	return lo.Filter(urls, func(u string, _ int) bool {
		return !s.visited[u] && utils.SameDomain(u, s.cfg.StartURL)
	})
}

// mergeDetailData folds detail-page records into the listing record that
// pointed at this url. Only fields the listing record lacks are copied; data
// extracted earlier is never overwritten. Records with no matching parent
// stand on their own.
func (s *Session) mergeDetailData(url string, data output.Records) {
	for _, item := range data {
		parent, ok := s.allData.FindByKey("detail_url", url)
		if !ok {
			s.allData = append(s.allData, item)
			continue
		}
		added := parent.Merge(item)
		if len(added) > 0 {
			slog.Info("merged detail fields",
				slog.String("url", url),
				slog.Int("fields", len(added)),
				slog.String("first", strings.Join(firstN(added, 5), ", ")))
		}
	}
}

func firstN(ss []string, n int) []string {
	if len(ss) <= n {
		return ss
	}
	return ss[:n]
}

// processPage runs the per-page pipeline, consulting the cache first. The
// returned outcome is unfiltered; corrupt cache entries are dropped and the
// page is reprocessed.
var tracer = otel.Tracer("promptcrawl/crawl")

func (s *Session) processPage(ctx context.Context, url string, level int) (*pageOutcome, error) {
	ctx, span := tracer.Start(ctx, "crawl.page", trace.WithAttributes(
		attribute.String("url", url),
		attribute.Int("level", level)))
	defer span.End()

	if s.cfg.Cache != nil {
		if bs, ok := s.cfg.Cache.Get(url); ok {
			outcome := &pageOutcome{}
			if err := json.Unmarshal(bs, outcome); err == nil {
				slog.Info("cache hit", slog.String("url", url))
				return outcome, nil
			}
			slog.Warn("dropping corrupt cache entry", slog.String("url", url))
			if err := s.cfg.Cache.Delete(url); err != nil {
				slog.Warn("failed to delete cache entry", slog.String("url", url), slog.Any("error", err))
			}
		}
	}

	outcome, err := s.analyzePage(ctx, url, level)
	if err != nil {
		return nil, err
	}

	if s.cfg.Cache != nil {
		if bs, err := json.Marshal(outcome); err == nil {
			if err := s.cfg.Cache.Set(url, bs); err != nil {
				slog.Warn("failed to cache result", slog.String("url", url), slog.Any("error", err))
			}
		}
	}
	return outcome, nil
}

func (s *Session) analyzePage(ctx context.Context, url string, level int) (*pageOutcome, error) {
	outcome := &pageOutcome{}

	raw, err := s.cfg.Fetcher.Fetch(url, s.cfg.FetchOpts)
	if err != nil {
		slog.Warn("failed to fetch page, skipping", slog.String("url", url), slog.Any("error", err))
		return outcome, nil
	}
	observability.PageFetched(ctx)

	reduced := clean.HTML(raw)
	reduction := 0.0
	if len(raw) > 0 {
		reduction = (1 - float64(len(reduced))/float64(len(raw))) * 100
	}
	slog.Info("reduced page",
		slog.String("url", url),
		slog.Int("raw_bytes", len(raw)),
		slog.Int("reduced_bytes", len(reduced)),
		slog.String("reduction", fmt.Sprintf("%.0f%%", reduction)))

	content := reduced
	if s.cfg.Processor != nil {
		if md, err := s.understand(ctx, reduced, url); err == nil {
			content = md
		} else if ctx.Err() != nil {
			return nil, ctx.Err()
		} else {
			slog.Warn("understanding phase failed, using reduced html",
				slog.String("processor", s.cfg.Processor.Name()),
				slog.Any("error", err))
		}
	}

	prompt := s.effectivePrompt(url, level)
	chunks := clean.Chunk(content, s.cfg.Runner.Primary.MaxChunkChars())
	for i, chunk := range chunks {
		slog.Info("extracting chunk",
			slog.Int("chunk", i+1),
			slog.Int("chunks", len(chunks)),
			slog.Int("chars", len(chunk)))
		result, err := s.cfg.Runner.Extract(ctx, chunk, extract.PageContext{URL: url, Prompt: prompt})
		if err != nil {
			return nil, err
		}
		if result == nil {
			continue
		}
		observability.ChunkExtracted(ctx, s.cfg.ProviderName)
		observability.ItemsExtracted(ctx, len(result.Data))
		outcome.Data = append(outcome.Data, result.Data...)
		outcome.NextURLs = append(outcome.NextURLs, result.NextURLs...)
		outcome.DetailURLs = append(outcome.DetailURLs, result.DetailURLs...)
		if result.Summary != "" {
			slog.Info("chunk summary", slog.String("summary", result.Summary))
		}
	}
	return outcome, nil
}

// understand runs the optional processor pass, chunked to the processor's own
// limit, and joins the markdown pieces.
func (s *Session) understand(ctx context.Context, reduced string, url string) (string, error) {
	chunks := clean.Chunk(reduced, s.cfg.Processor.MaxChunkChars())
	parts := make([]string, 0, len(chunks))
	for i, chunk := range chunks {
		slog.Info("understanding chunk",
			slog.String("processor", s.cfg.Processor.Name()),
			slog.Int("chunk", i+1),
			slog.Int("chunks", len(chunks)))
		md, err := s.cfg.Processor.UnderstandPage(ctx, chunk, url)
		if err != nil {
			return "", err
		}
		parts = append(parts, md)
	}
	content := strings.Join(parts, "\n\n")
	slog.Info("understanding complete", slog.Int("markdown_chars", len(content)))
	return content, nil
}

// effectivePrompt prefixes detail-page context so the backend follows the
// right part of a multi-step prompt.
func (s *Session) effectivePrompt(url string, level int) string {
	if level == 1 {
		return s.cfg.Prompt
	}
	return fmt.Sprintf(
		"[CONTEXT: You are now viewing a DETAIL PAGE at %s. "+
			"Follow the Step 2 / detail page instructions from the prompt below. "+
			"Extract all detailed data for this single item into the data array.]\n\n%s",
		url, s.cfg.Prompt)
}
