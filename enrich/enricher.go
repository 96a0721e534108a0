// Package enrich sequences the product search, lookup, and page scrape for
// one book.
package enrich

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/antzucaro/matchr"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/aluiziolira/go-enrich-books/config"
	"github.com/aluiziolira/go-enrich-books/models"
)

// ErrNoDetailPage is returned when a looked-up item has no page to scrape.
var ErrNoDetailPage = errors.New("item has no detail page url")

// ScrapeError is a failed scrape of a found item's detail page.
type ScrapeError struct {
	URL string
	Err error
}

func (e *ScrapeError) Error() string {
	return fmt.Sprintf("scrape %s: %v", e.URL, e.Err)
}

func (e *ScrapeError) Unwrap() error {
	return e.Err
}

// Catalog is the signed product API.
type Catalog interface {
	ItemSearch(ctx context.Context, title, author string) (string, error)
	ItemLookup(ctx context.Context, asin string) (*models.Item, error)
}

// PageScraper reads live offers from a product detail page.
type PageScraper interface {
	Scrape(ctx context.Context, url string) (*models.ScrapeResult, error)
}

// Enricher owns the throttle for catalog calls. It is not safe for
// concurrent use.
type Enricher struct {
	catalog  Catalog
	pages    PageScraper
	throttle *Throttle

	// searches memoizes identifiers by title and author; nil when disabled.
	searches  *lru.Cache[string, string]
	titleWarn float64
}

// New builds an enricher from cfg.
func New(cfg *config.Config, catalog Catalog, pages PageScraper) (*Enricher, error) {
	e := &Enricher{
		catalog:   catalog,
		pages:     pages,
		throttle:  NewThrottle(cfg.RequestInterval),
		titleWarn: cfg.TitleMatchWarn,
	}
	if cfg.SearchCacheSize > 0 {
		cache, err := lru.New[string, string](cfg.SearchCacheSize)
		if err != nil {
			return nil, fmt.Errorf("create search cache: %w", err)
		}
		e.searches = cache
	}
	return e, nil
}

// Enrich searches for the book, looks up the best match, and overlays the
// counts and prices scraped from its detail page. Catalog errors are
// returned unchanged so callers can inspect their kind.
func (e *Enricher) Enrich(ctx context.Context, title, author string) (*models.Item, error) {
	asin, err := e.search(ctx, title, author)
	if err != nil {
		return nil, err
	}

	var item *models.Item
	err = e.throttled(ctx, func() error {
		var lookupErr error
		item, lookupErr = e.catalog.ItemLookup(ctx, asin)
		return lookupErr
	})
	if err != nil {
		return nil, err
	}
	e.checkTitle(title, item)

	if item.DetailPageURL == "" {
		return nil, fmt.Errorf("%s: %w", asin, ErrNoDetailPage)
	}
	scraped, err := e.pages.Scrape(ctx, item.DetailPageURL)
	if err != nil {
		return nil, &ScrapeError{URL: item.DetailPageURL, Err: err}
	}
	return item.WithScrape(scraped), nil
}

func (e *Enricher) search(ctx context.Context, title, author string) (string, error) {
	key := title + "\x00" + author
	if e.searches != nil {
		if asin, ok := e.searches.Get(key); ok {
			slog.Debug("search cache hit", slog.String("title", title), slog.String("asin", asin))
			return asin, nil
		}
	}

	var asin string
	err := e.throttled(ctx, func() error {
		var searchErr error
		asin, searchErr = e.catalog.ItemSearch(ctx, title, author)
		return searchErr
	})
	if err != nil {
		return "", err
	}
	if e.searches != nil {
		e.searches.Add(key, asin)
	}
	return asin, nil
}

// throttled runs call once the throttle allows it and marks its end, even
// when it fails.
func (e *Enricher) throttled(ctx context.Context, call func() error) error {
	if err := e.throttle.Wait(ctx); err != nil {
		return err
	}
	defer e.throttle.Mark()
	return call()
}

func (e *Enricher) checkTitle(want string, item *models.Item) {
	if e.titleWarn <= 0 || item.Title == "" {
		return
	}
	score := matchr.JaroWinkler(strings.ToLower(want), strings.ToLower(item.Title), false)
	if score < e.titleWarn {
		slog.Warn("matched item title differs from input",
			slog.String("input_title", want),
			slog.String("item_title", item.Title),
			slog.String("asin", item.ASIN),
			slog.Float64("similarity", score),
		)
	}
}
