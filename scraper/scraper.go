// Package scraper reads live offer counts and lowest prices from product
// detail pages.
package scraper

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"

	"github.com/aluiziolira/go-enrich-books/config"
	"github.com/aluiziolira/go-enrich-books/metrics"
	"github.com/aluiziolira/go-enrich-books/models"
)

// Scraper fetches product pages with a browser-like identity and retries
// gateway and challenge pages a bounded number of times.
type Scraper struct {
	cfg       *config.Config
	selectors config.Selectors
	collector *colly.Collector
	retry     *retryPolicy
	metrics   *metrics.Metrics
}

// NewScraper builds a scraper using the active selector profile of cfg.
func NewScraper(cfg *config.Config, m *metrics.Metrics) (*Scraper, error) {
	selectors, err := cfg.ActiveSelectors()
	if err != nil {
		return nil, err
	}
	if err := selectors.Validate(); err != nil {
		return nil, fmt.Errorf("selector profile %q: %w", cfg.SelectorProfile, err)
	}

	collector := colly.NewCollector(
		colly.UserAgent(cfg.UserAgent),
		colly.AllowURLRevisit(),
	)
	collector.SetRequestTimeout(cfg.Timeout)
	collector.ParseHTTPErrorResponse = true
	collector.WithTransport(cloudflarebp.AddCloudFlareByPass(&http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.Timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}))

	return &Scraper{
		cfg:       cfg,
		selectors: selectors,
		collector: collector,
		retry:     newRetryPolicy(cfg, m),
		metrics:   m,
	}, nil
}

// Scrape fetches url and extracts its offers. Gateway errors and challenge
// pages are retried with capped exponential backoff; running out of
// attempts returns ErrRetriesExhausted.
func (s *Scraper) Scrape(ctx context.Context, url string) (*models.ScrapeResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	var lastErr error
	for attempt := 0; ; attempt++ {
		if attempt > 0 {
			if !s.retry.Allow(attempt) {
				err := ErrRetriesExhausted{Attempts: attempt, Err: lastErr}
				s.metrics.IncError(ErrorTypeLabel(err))
				return nil, err
			}
			delay := s.retry.backoff(attempt)
			slog.Warn("retrying product page",
				slog.String("url", url),
				slog.Int("attempt", attempt),
				slog.Duration("delay", delay),
				slog.Any("error", lastErr),
			)
			if err := s.retry.Wait(ctx, delay); err != nil {
				return nil, err
			}
		}

		result, err := s.attempt(ctx, url)
		if err == nil {
			return result, nil
		}
		if !retryable(err) {
			s.metrics.IncError(ErrorTypeLabel(err))
			return nil, err
		}
		lastErr = err
	}
}

func (s *Scraper) attempt(ctx context.Context, url string) (*models.ScrapeResult, error) {
	status, body, err := s.fetch(ctx, url)
	if err != nil {
		s.metrics.IncScrapeRequest("failed")
		return nil, classifyError(err, status)
	}

	switch status {
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		s.metrics.IncScrapeRequest("gateway")
		return nil, ErrGateway{StatusCode: status}
	}
	if marker := findMarker(body, s.selectors.ChallengeMarkers); marker != "" {
		s.metrics.IncScrapeRequest("challenge")
		return nil, ErrChallenge{Marker: marker}
	}
	if marker := findMarker(body, s.selectors.GatewayMarkers); marker != "" {
		s.metrics.IncScrapeRequest("gateway")
		return nil, ErrGateway{StatusCode: status, Marker: marker}
	}
	if status >= http.StatusBadRequest {
		s.metrics.IncScrapeRequest("failed")
		return nil, classifyError(nil, status)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		s.metrics.IncScrapeRequest("failed")
		return nil, fmt.Errorf("parse product page: %w", err)
	}
	s.metrics.IncScrapeRequest("ok")
	return Parse(doc, s.selectors), nil
}

// fetch issues one GET on a clone of the base collector, so callbacks do
// not accumulate across calls.
func (s *Scraper) fetch(ctx context.Context, url string) (int, []byte, error) {
	c := s.collector.Clone()
	c.Context = ctx
	c.ParseHTTPErrorResponse = true

	var (
		status int
		body   []byte
		start  time.Time
	)
	c.OnRequest(func(r *colly.Request) {
		start = time.Now()
		s.metrics.IncScrapeRequest("started")
	})
	c.OnResponse(func(r *colly.Response) {
		status = r.StatusCode
		body = r.Body
		s.metrics.ObserveScrape(time.Since(start))
		slog.Debug("product page response",
			slog.Int("status", r.StatusCode),
			slog.Int("bytes", len(r.Body)),
			slog.String("url", r.Request.URL.String()),
		)
	})
	c.OnError(func(r *colly.Response, err error) {
		if r != nil {
			status = r.StatusCode
		}
	})

	if err := c.Visit(url); err != nil {
		return status, nil, err
	}
	return status, body, nil
}

func findMarker(body []byte, markers []string) string {
	for _, m := range markers {
		if m != "" && bytes.Contains(body, []byte(m)) {
			return m
		}
	}
	return ""
}

func classifyError(err error, statusCode int) error {
	if err == nil && statusCode == 0 {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout{Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrTimeout{Err: err}
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return ErrConnection{Err: err}
	}

	if statusCode != 0 {
		wrapped := err
		if wrapped == nil {
			wrapped = fmt.Errorf("http status %d", statusCode)
		}
		switch statusCode {
		case http.StatusForbidden:
			return ErrForbidden{Err: wrapped}
		case http.StatusNotFound:
			return ErrNotFound{Err: wrapped}
		case http.StatusTooManyRequests:
			return ErrRateLimited{Err: wrapped}
		}
		if err == nil {
			return wrapped
		}
	}

	if err == nil {
		return nil
	}
	return fmt.Errorf("fetch product page: %w", err)
}
