package scraper

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"ridership/internal/config"
	apperrors "ridership/internal/errors"
	"ridership/internal/infrastructure"
)

// Fetcher returns the HTML of a page.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// HTTPFetcher fetches pages over plain HTTP. Requests are spaced by the
// configured delay; a 429 response is retried after its Retry-After.
type HTTPFetcher struct {
	client            *http.Client
	limiter           *rate.Limiter
	userAgent         string
	maxRetries        int
	defaultRetryAfter time.Duration
	metrics           *infrastructure.PipelineMetrics
	logger            *slog.Logger
}

// NewHTTPFetcher creates an HTTPFetcher from the scraper configuration.
func NewHTTPFetcher(cfg config.ScraperConfig, metrics *infrastructure.PipelineMetrics, logger *slog.Logger) *HTTPFetcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPFetcher{
		client:            &http.Client{Timeout: cfg.Timeout},
		limiter:           newLimiter(cfg.RequestDelay),
		userAgent:         cfg.UserAgent,
		maxRetries:        cfg.MaxRetries,
		defaultRetryAfter: cfg.DefaultRetryAfter,
		metrics:           metrics,
		logger:            infrastructure.WithComponent(logger, "http_fetcher"),
	}
}

func newLimiter(delay time.Duration) *rate.Limiter {
	if delay <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(delay), 1)
}

// Fetch implements Fetcher.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	for attempt := 0; ; attempt++ {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		body, retryAfter, limited, err := f.do(ctx, url)
		if err != nil {
			return nil, err
		}
		if !limited {
			return body, nil
		}

		if attempt >= f.maxRetries {
			return nil, apperrors.NewNetworkError("rate limited", fmt.Errorf("gave up after %d retries", attempt)).
				WithContext("url", url)
		}

		f.logger.WarnContext(ctx, "Rate limit reached, retrying",
			slog.String("url", url),
			slog.Duration("retry_after", retryAfter),
			slog.Int("attempt", attempt+1))
		if f.metrics != nil {
			f.metrics.ScrapeRetries.Add(ctx, 1)
		}

		if err := sleep(ctx, retryAfter); err != nil {
			return nil, err
		}
	}
}

// do performs one request. limited reports a 429 response, to be retried
// after retryAfter.
func (f *HTTPFetcher) do(ctx context.Context, url string) (body []byte, retryAfter time.Duration, limited bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, false, apperrors.NewNetworkError("invalid request", err).WithContext("url", url)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, 0, false, apperrors.NewNetworkError("request failed", err).WithContext("url", url)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, 0, false, apperrors.NewNetworkError("failed to read body", err).WithContext("url", url)
		}
		return body, 0, false, nil
	case http.StatusTooManyRequests:
		return nil, f.retryAfter(resp.Header.Get("Retry-After")), true, nil
	default:
		return nil, 0, false, apperrors.NewNetworkError("unexpected status", fmt.Errorf("%s", resp.Status)).
			WithContext("url", url).
			WithContext("status_code", resp.StatusCode)
	}
}

// retryAfter reads a Retry-After header given in seconds.
func (f *HTTPFetcher) retryAfter(header string) time.Duration {
	seconds, err := strconv.Atoi(strings.TrimSpace(header))
	if err != nil || seconds < 0 {
		return f.defaultRetryAfter
	}
	return time.Duration(seconds) * time.Second
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
