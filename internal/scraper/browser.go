package scraper

import (
	"context"
	"log/slog"
	"time"

	"github.com/chromedp/chromedp"
	"golang.org/x/time/rate"

	"ridership/internal/config"
	apperrors "ridership/internal/errors"
	"ridership/internal/infrastructure"
)

// BrowserFetcher renders pages in a shared headless Chrome instance.
type BrowserFetcher struct {
	allocCtx    context.Context
	cancelAlloc context.CancelFunc
	browserCtx  context.Context
	cancel      context.CancelFunc
	limiter     *rate.Limiter
	timeout     time.Duration
	logger      *slog.Logger
}

// NewBrowserFetcher starts Chrome. Close must be called to stop it.
func NewBrowserFetcher(cfg config.ScraperConfig, logger *slog.Logger) (*BrowserFetcher, error) {
	if logger == nil {
		logger = slog.Default()
	}

	opts := chromedp.DefaultExecAllocatorOptions[:]
	opts = append(opts, chromedp.Flag("headless", cfg.Headless))
	if cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(cfg.UserAgent))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, cancel := chromedp.NewContext(allocCtx)

	// Start the browser now so a missing Chrome fails fast.
	if err := chromedp.Run(browserCtx); err != nil {
		cancel()
		cancelAlloc()
		return nil, apperrors.NewNetworkError("failed to start browser", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &BrowserFetcher{
		allocCtx:    allocCtx,
		cancelAlloc: cancelAlloc,
		browserCtx:  browserCtx,
		cancel:      cancel,
		limiter:     newLimiter(cfg.RequestDelay),
		timeout:     timeout,
		logger:      infrastructure.WithComponent(logger, "browser_fetcher"),
	}, nil
}

// Fetch implements Fetcher. Each page is loaded in a new tab.
func (f *BrowserFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	tabCtx, cancelTab := chromedp.NewContext(f.browserCtx)
	defer cancelTab()
	tabCtx, cancelTimeout := context.WithTimeout(tabCtx, f.timeout)
	defer cancelTimeout()

	// Stop the tab when the caller gives up.
	stop := context.AfterFunc(ctx, cancelTab)
	defer stop()

	start := time.Now()
	var html string
	err := chromedp.Run(tabCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return nil, apperrors.NewNetworkError("browser navigation failed", err).WithContext("url", url)
	}

	f.logger.DebugContext(ctx, "Page rendered",
		slog.String("url", url),
		slog.Duration("duration", time.Since(start)),
		slog.Int("bytes", len(html)))
	return []byte(html), nil
}

// Close stops the browser.
func (f *BrowserFetcher) Close() {
	f.cancel()
	f.cancelAlloc()
}
