package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

type fileConfig struct {
	API       fileAPI              `toml:"api"`
	Scraper   fileScraper          `toml:"scraper"`
	Enrich    fileEnrich           `toml:"enrich"`
	Selectors map[string]Selectors `toml:"selectors"`
}

type fileAPI struct {
	Locale     string `toml:"locale"`
	Host       string `toml:"host"`
	Path       string `toml:"path"`
	Scheme     string `toml:"scheme"`
	Storefront string `toml:"storefront"`
	Interval   string `toml:"interval"`
	Timeout    string `toml:"timeout"`
}

type fileScraper struct {
	UserAgent       string `toml:"user_agent"`
	MaxRetries      *int   `toml:"max_retries"`
	RetryBackoff    string `toml:"retry_backoff"`
	RetryBackoffMax string `toml:"retry_backoff_max"`
	Selectors       string `toml:"selectors"`
}

type fileEnrich struct {
	SearchCacheSize *int     `toml:"search_cache_size"`
	TitleMatchWarn  *float64 `toml:"title_match_warn"`
}

// Load returns DefaultConfig overlaid with the TOML file at path. An empty
// path returns the defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	var fc fileConfig
	if err := toml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := fc.apply(cfg); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (fc *fileConfig) apply(cfg *Config) error {
	setString(&cfg.Locale, fc.API.Locale)
	setString(&cfg.Host, fc.API.Host)
	setString(&cfg.APIPath, fc.API.Path)
	setString(&cfg.Scheme, fc.API.Scheme)
	setString(&cfg.Storefront, fc.API.Storefront)
	if err := setDuration(&cfg.RequestInterval, fc.API.Interval, "api.interval"); err != nil {
		return err
	}
	if err := setDuration(&cfg.Timeout, fc.API.Timeout, "api.timeout"); err != nil {
		return err
	}

	setString(&cfg.UserAgent, fc.Scraper.UserAgent)
	if fc.Scraper.MaxRetries != nil {
		cfg.MaxRetries = *fc.Scraper.MaxRetries
	}
	if err := setDuration(&cfg.RetryBackoff, fc.Scraper.RetryBackoff, "scraper.retry_backoff"); err != nil {
		return err
	}
	if err := setDuration(&cfg.RetryBackoffMax, fc.Scraper.RetryBackoffMax, "scraper.retry_backoff_max"); err != nil {
		return err
	}
	setString(&cfg.SelectorProfile, fc.Scraper.Selectors)

	if fc.Enrich.SearchCacheSize != nil {
		cfg.SearchCacheSize = *fc.Enrich.SearchCacheSize
	}
	if fc.Enrich.TitleMatchWarn != nil {
		cfg.TitleMatchWarn = *fc.Enrich.TitleMatchWarn
	}

	for name, sel := range fc.Selectors {
		if len(sel.ChallengeMarkers) == 0 {
			sel.ChallengeMarkers = append([]string(nil), defaultChallengeMarkers...)
		}
		if len(sel.GatewayMarkers) == 0 {
			sel.GatewayMarkers = append([]string(nil), defaultGatewayMarkers...)
		}
		cfg.Selectors[name] = sel
	}
	return nil
}

func setString(dst *string, value string) {
	if value != "" {
		*dst = value
	}
}

func setDuration(dst *time.Duration, value, field string) error {
	if value == "" {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	*dst = d
	return nil
}
