package fetch

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/chromedp"

	"github.com/promptcrawl/promptcrawl/config"
	"github.com/promptcrawl/promptcrawl/utils"
)

// The BrowserFetcher renders pages in a local headless browser, for runs
// without a proxy rendering service.
type BrowserFetcher struct {
	UserAgent        string
	WaitMilliseconds int
	allocContext     context.Context
	cancelAlloc      context.CancelFunc
}

func NewBrowserFetcher(ua string, ms int) *BrowserFetcher {
	opts := append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.WindowSize(1920, 1080), // desktop view; mobile layouts can hide pagination
	)
	if ua != "" {
		opts = append(opts, chromedp.UserAgent(ua))
	}
	allocContext, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)
	b := &BrowserFetcher{
		UserAgent:        ua,
		WaitMilliseconds: ms,
		allocContext:     allocContext,
		cancelAlloc:      cancelAlloc,
	}
	if b.WaitMilliseconds == 0 {
		b.WaitMilliseconds = 2000 // default
	}
	return b
}

func (b *BrowserFetcher) Cancel() {
	b.cancelAlloc()
}

func (b *BrowserFetcher) Fetch(urlStr string, opts FetchOpts) (string, error) {
	logger := slog.With(slog.String("fetcher", "browser"), slog.String("url", urlStr))
	logger.Debug("fetching page", slog.String("user-agent", b.UserAgent))

	ctx, cancel := chromedp.NewContext(b.allocContext)
	defer cancel()

	var body string
	sleepTime := time.Duration(b.WaitMilliseconds) * time.Millisecond
	actions := []chromedp.Action{
		chromedp.Navigate(urlStr),
		chromedp.Sleep(sleepTime),
	}

	if opts.AutoScroll {
		// Scroll to the bottom a few times so infinite-scroll pages load
		// further content before the document is captured.
		for i := 0; i < 3; i++ {
			actions = append(actions,
				chromedp.Evaluate(`window.scrollTo(0, document.body.scrollHeight)`, nil),
				chromedp.Sleep(sleepTime),
			)
		}
		logger.Debug("appended chrome actions: 3 x scroll to bottom")
	}

	actions = append(actions, chromedp.ActionFunc(func(ctx context.Context) error {
		node, err := dom.GetDocument().Do(ctx)
		if err != nil {
			return err
		}
		body, err = dom.GetOuterHTML().WithNodeID(node.NodeID).Do(ctx)
		return err
	}))

	if config.Debug {
		var buf []byte
		filename := utils.MakeURLStringSlug(urlStr) + ".png"
		actions = append(actions, chromedp.CaptureScreenshot(&buf))
		actions = append(actions, chromedp.ActionFunc(func(ctx context.Context) error {
			logger.Debug("writing screenshot", slog.String("file", filename))
			return os.WriteFile(filename, buf, 0644)
		}))
	}

	if err := chromedp.Run(ctx, actions...); err != nil {
		return "", &FetchError{URL: urlStr, Err: err}
	}
	return body, nil
}
