package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/alecthomas/kong"

	"github.com/promptcrawl/promptcrawl/config"
	"github.com/promptcrawl/promptcrawl/crawl"
	"github.com/promptcrawl/promptcrawl/extract"
	"github.com/promptcrawl/promptcrawl/fetch"
	"github.com/promptcrawl/promptcrawl/observability"
	"github.com/promptcrawl/promptcrawl/output"
	"github.com/promptcrawl/promptcrawl/provider"
)

func main() {
	cli := CLI{}

	ctx := kong.Parse(&cli,
		kong.Name("promptcrawl"),
		kong.Description("A prompt-guided web crawler: describe what to extract and it follows pagination and detail pages for you."),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": "0.1.0",
		})

	var logLevel slog.Level
	switch strings.ToLower(cli.Globals.LogLevel) {
	case "debug":
		logLevel = slog.LevelDebug
		config.Debug = true
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	}
	observability.InitLogging(logLevel)

	err := ctx.Run(&cli.Globals)
	ctx.FatalIfErrorf(err)
}

type CLI struct {
	Globals

	Crawl     CrawlCmd     `cmd:"" help:"Crawl a site and extract structured data guided by a natural-language prompt"`
	Providers ProvidersCmd `cmd:"" help:"List the available extraction backends"`
}

type Globals struct {
	LogLevel string `short:"l" default:"info" help:"Control log level: debug, info, or warn"`
}

type CrawlCmd struct {
	URL    string `arg:"" help:"The listing page to start crawling from."`
	Prompt string `arg:"" help:"What to extract and how to navigate. A path to a text file works too."`

	Provider   string `short:"p" help:"Extraction backend. Defaults to the configured default provider."`
	Processor  string `help:"Optional understanding backend that turns HTML into markdown before extraction (dual-model mode)."`
	Fallback   string `help:"Backend tried once when the primary exhausts its retries."`
	MaxPages   int    `default:"0" help:"Page budget for the whole crawl. 0 uses the configured default."`
	AutoScroll bool   `help:"Scroll to the bottom of each page to trigger infinite-scroll loading."`
	NoRender   bool   `help:"Disable JavaScript rendering."`
	Fetcher    string `default:"scraperapi" enum:"scraperapi,browser,file" help:"How pages are retrieved: scraperapi, browser, or file."`
	CacheDir   string `help:"Directory for per-URL result caching, lets interrupted crawls resume."`
	ConfigFile string `short:"c" help:"Optional yaml config file; environment variables take precedence."`
	Output     string `short:"o" help:"Write the result JSON to this file instead of stdout."`
	Observe    bool   `help:"Export metrics and traces to a local OTLP collector."`
}

func (cmd *CrawlCmd) Run(globals *Globals) error {
	ctx := context.Background()

	settings, err := config.Load(cmd.ConfigFile)
	if err != nil {
		return err
	}

	if cmd.Observe {
		endFn, err := observability.InitAll(ctx)
		if err != nil {
			return fmt.Errorf("error initializing observability: %v", err)
		}
		defer func() {
			if err := endFn(); err != nil {
				slog.Error("error shutting down observability", "error", err)
			}
		}()
	}

	providerName := cmd.Provider
	if providerName == "" {
		providerName = settings.DefaultProvider
	}
	extractor, err := provider.New(providerName, settings)
	if err != nil {
		return err
	}

	var fallback provider.Provider
	fallbackName := cmd.Fallback
	if fallbackName == "" {
		fallbackName = settings.FallbackProvider
	}
	if fallbackName != "" && fallbackName != providerName {
		if fallback, err = provider.New(fallbackName, settings); err != nil {
			return err
		}
	}

	var processor provider.Provider
	processorName := cmd.Processor
	if processorName == "" {
		processorName = settings.ProcessorProvider
	}
	if processorName != "" {
		if processor, err = provider.New(processorName, settings); err != nil {
			return err
		}
	}

	fetcher, err := cmd.newFetcher(settings)
	if err != nil {
		return err
	}

	var cache fetch.Cache
	if cmd.CacheDir != "" {
		if cache, err = fetch.NewFileCache(cmd.CacheDir); err != nil {
			return err
		}
	}

	maxPages := cmd.MaxPages
	if maxPages <= 0 {
		maxPages = settings.MaxPages
	}

	render := settings.RenderJS && !cmd.NoRender
	autoScroll := settings.AutoScroll || cmd.AutoScroll

	session := crawl.NewSession(crawl.Config{
		StartURL:     cmd.URL,
		Prompt:       readPrompt(cmd.Prompt),
		ProviderName: providerName,
		MaxPages:     maxPages,
		Fetcher:      fetcher,
		FetchOpts:    fetch.FetchOpts{Render: render, AutoScroll: autoScroll},
		Runner:       extract.NewRunner(extractor, fallback, settings.RetryBudget),
		Processor:    processor,
		Cache:        cache,
	})

	result, err := session.Run(ctx)
	if err != nil {
		return err
	}

	writerConfig := output.WriterConfig{Type: output.StdoutWriterType}
	if cmd.Output != "" {
		writerConfig = output.WriterConfig{Type: output.FileWriterType, FilePath: cmd.Output}
	}
	writer, err := output.NewWriter(writerConfig)
	if err != nil {
		return err
	}
	return writer.Write(result)
}

func (cmd *CrawlCmd) newFetcher(settings *config.Settings) (fetch.Fetcher, error) {
	switch cmd.Fetcher {
	case "scraperapi":
		if settings.ScraperAPIKey == "" {
			return nil, config.NewConfigurationError(
				"SCRAPER_API_KEY is required. Set it in your .env file or use --fetcher=browser.")
		}
		timeout := time.Duration(settings.ScraperTimeoutSeconds) * time.Second
		return fetch.NewScraperAPIFetcher(settings.ScraperAPIKey, timeout), nil
	case "browser":
		return fetch.NewBrowserFetcher("", 0), nil
	case "file":
		return &fetch.FileFetcher{}, nil
	default:
		return nil, config.NewConfigurationError("unknown fetcher %q", cmd.Fetcher)
	}
}

// readPrompt treats the argument as a file path when such a file exists, so
// long multi-step prompts can live in text files.
func readPrompt(arg string) string {
	info, err := os.Stat(arg)
	if err != nil || info.IsDir() {
		return arg
	}
	bs, err := os.ReadFile(arg)
	if err != nil {
		slog.Warn("could not read prompt file, using argument as prompt", "path", arg, "error", err)
		return arg
	}
	slog.Info("loaded prompt from file", "path", arg, "chars", len(bs))
	return strings.TrimSpace(string(bs))
}

type ProvidersCmd struct{}

func (cmd *ProvidersCmd) Run(globals *Globals) error {
	for _, name := range provider.Names() {
		fmt.Println(name)
	}
	return nil
}
