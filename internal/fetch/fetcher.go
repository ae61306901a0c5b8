// Package fetch captures product pages: throttled, robots-aware HTTP with a
// layered cache, optional archival, and the pages/assets index tables the
// downstream stages join on.
package fetch

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/tervyx/claimlens/internal/cache"
	"github.com/tervyx/claimlens/internal/config"
	"github.com/tervyx/claimlens/internal/logger"
	"github.com/tervyx/claimlens/internal/worker"
)

// Fetcher retrieves page payloads with throttling, retries and caching.
type Fetcher struct {
	httpClient *http.Client
	policy     *config.ScrapingPolicy
	limiter    *worker.Limiter
	robots     *RobotsChecker
	cache      cache.Cache
	log        *logger.Logger

	// sleep is swapped out in tests so backoff does not wall-clock.
	sleep func(time.Duration)
}

// FetchResult is one successful page retrieval.
type FetchResult struct {
	Body       []byte
	StatusCode int
	FromCache  bool
}

// NewFetcher creates a fetcher from the scraping policy.
func NewFetcher(policy *config.ScrapingPolicy, store cache.Cache, log *logger.Logger) *Fetcher {
	timeout := time.Duration(policy.TimeoutSec) * time.Second
	return &Fetcher{
		httpClient: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("stopped after 3 redirects")
				}
				return nil
			},
		},
		policy:  policy,
		limiter: worker.NewLimiter(policy.RatePerDomain, policy.Burst),
		robots:  NewRobotsChecker(policy.UserAgent, timeout),
		cache:   store,
		log:     log,
		sleep:   time.Sleep,
	}
}

// Fetch retrieves a URL, consulting the cache first. Retries use exponential
// backoff; the throttle runs before every dispatch including retries.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*FetchResult, error) {
	key := cache.Key(rawURL)
	if f.cache != nil {
		if body, found := f.cache.Get(key); found {
			return &FetchResult{Body: body, StatusCode: http.StatusOK, FromCache: true}, nil
		}
	}

	allowed, crawlDelay, err := f.robots.CanFetch(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, fmt.Errorf("disallowed by robots.txt: %s", rawURL)
	}

	throttle := time.Duration(f.policy.ThrottleSec * float64(time.Second))
	if crawlDelay > throttle {
		throttle = crawlDelay
	}

	var lastErr error
	for attempt := 0; attempt <= f.policy.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := f.policy.BackoffBaseSec * math.Pow(2, float64(attempt-1))
			f.sleep(time.Duration(backoff * float64(time.Second)))
		}
		if err := f.limiter.WaitWithDelay(ctx, rawURL, throttle); err != nil {
			return nil, err
		}

		result, err := f.fetchOnce(ctx, rawURL)
		if err == nil {
			if f.cache != nil {
				ttl := time.Duration(f.policy.CacheTTLHours) * time.Hour
				if err := f.cache.Set(key, result.Body, ttl); err != nil {
					f.log.Warn("cache write failed", "url", rawURL, "error", err)
				}
			}
			return result, nil
		}
		lastErr = err
		f.log.Warn("fetch attempt failed", "url", rawURL, "attempt", attempt+1, "error", err)
	}
	return nil, fmt.Errorf("fetch %s: %w", rawURL, lastErr)
}

func (f *Fetcher) fetchOnce(ctx context.Context, rawURL string) (*FetchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.policy.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status: %d %s", resp.StatusCode, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.policy.MaxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	return &FetchResult{Body: body, StatusCode: resp.StatusCode}, nil
}

// ArchivePage submits the URL to the archival service and returns the archive
// URL. Failures are soft; the caller records an empty archive URL.
func (f *Fetcher) ArchivePage(ctx context.Context, rawURL string) (string, error) {
	if !f.policy.WaybackSave {
		return "", nil
	}

	saveURL := f.policy.WaybackAPIURL + rawURL
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, saveURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.policy.UserAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("archive request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))

	location := resp.Header.Get("Content-Location")
	if location == "" {
		return "", fmt.Errorf("archive response missing Content-Location")
	}
	if strings.HasPrefix(location, "/") {
		return "https://web.archive.org" + location, nil
	}
	return location, nil
}
