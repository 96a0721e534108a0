package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Environment variables holding the product API credentials.
const (
	EnvAccessKey    = "AMAZON_ACCESS_KEY"
	EnvSecretKey    = "AMAZON_SECRET_KEY"
	EnvAssociateTag = "AMAZON_ASSOC_KEY"
	EnvLocale       = "AMAZON_LOCALE"
	EnvHost         = "AMAZON_API_HOST"
)

// Config holds enrichment configuration.
type Config struct {
	AccessKey       string
	SecretKey       string
	AssociateTag    string
	Locale          string
	Host            string // overrides the locale host when set
	APIPath         string
	Scheme          string
	Service         string
	Storefront      string
	RequestInterval time.Duration
	Timeout         time.Duration

	UserAgent       string
	MaxRetries      int
	RetryBackoff    time.Duration
	RetryBackoffMax time.Duration
	SelectorProfile string
	Selectors       map[string]Selectors

	SearchCacheSize int
	TitleMatchWarn  float64

	SourceFile   string
	OutputFile   string
	OutputFormat string // tsv, json, or dual
	MetricsAddr  string
	Verbose      bool
}

// DefaultConfig returns defaults matching the US product API.
func DefaultConfig() *Config {
	return &Config{
		Locale:          "us",
		APIPath:         "/onca/xml",
		Scheme:          "https",
		Service:         "AWSECommerceService",
		Storefront:      "Amazon.com",
		RequestInterval: time.Second,
		Timeout:         30 * time.Second,
		UserAgent:       "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_10_3) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/54.0.2840.71 Safari/537.36",
		MaxRetries:      4,
		RetryBackoff:    time.Second,
		RetryBackoffMax: 30 * time.Second,
		SelectorProfile: DefaultSelectorProfile,
		Selectors:       BuiltinSelectors(),
		SearchCacheSize: 256,
		TitleMatchWarn:  0.75,
		OutputFormat:    "tsv",
	}
}

// ApplyEnv fills credentials and API location from the environment.
func (c *Config) ApplyEnv() {
	if v, ok := EnvString(EnvAccessKey); ok {
		c.AccessKey = v
	}
	if v, ok := EnvString(EnvSecretKey); ok {
		c.SecretKey = v
	}
	if v, ok := EnvString(EnvAssociateTag); ok {
		c.AssociateTag = v
	}
	if v, ok := EnvString(EnvLocale); ok {
		c.Locale = strings.ToLower(v)
	}
	if v, ok := EnvString(EnvHost); ok {
		c.Host = v
	}
}

// APIHost returns the product API host, resolving the locale when no
// explicit host is configured.
func (c *Config) APIHost() (string, error) {
	if c.Host != "" {
		return c.Host, nil
	}
	return HostForLocale(c.Locale)
}

// ActiveSelectors returns the selector set named by SelectorProfile.
func (c *Config) ActiveSelectors() (Selectors, error) {
	sel, ok := c.Selectors[c.SelectorProfile]
	if !ok {
		return Selectors{}, fmt.Errorf("unknown selector profile %q", c.SelectorProfile)
	}
	return sel, nil
}

// Validate ensures all configuration values are coherent.
func (c *Config) Validate() error {
	if c.AccessKey == "" {
		return fmt.Errorf("%s should be set as an environment variable", EnvAccessKey)
	}
	if c.SecretKey == "" {
		return fmt.Errorf("%s should be set as an environment variable", EnvSecretKey)
	}
	if c.AssociateTag == "" {
		return fmt.Errorf("%s should be set as an environment variable", EnvAssociateTag)
	}
	if _, err := c.APIHost(); err != nil {
		return err
	}
	if !strings.HasPrefix(c.APIPath, "/") {
		return fmt.Errorf("api path must start with /")
	}
	if c.Scheme != "http" && c.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https")
	}
	if c.Service == "" {
		return fmt.Errorf("service cannot be empty")
	}
	if c.RequestInterval < 0 {
		return fmt.Errorf("request interval cannot be negative")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.UserAgent == "" {
		return fmt.Errorf("user agent cannot be empty")
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max retries cannot be negative")
	}
	if c.RetryBackoff < 0 {
		return fmt.Errorf("retry backoff cannot be negative")
	}
	if c.RetryBackoffMax < 0 {
		return fmt.Errorf("retry backoff max cannot be negative")
	}
	if c.RetryBackoffMax > 0 && c.RetryBackoff > c.RetryBackoffMax {
		return fmt.Errorf("retry backoff (%s) cannot exceed retry backoff max (%s)", c.RetryBackoff, c.RetryBackoffMax)
	}
	sel, err := c.ActiveSelectors()
	if err != nil {
		return err
	}
	if err := sel.Validate(); err != nil {
		return fmt.Errorf("selector profile %q: %w", c.SelectorProfile, err)
	}
	if c.SearchCacheSize < 0 {
		return fmt.Errorf("search cache size cannot be negative")
	}
	if c.TitleMatchWarn < 0 || c.TitleMatchWarn > 1 {
		return fmt.Errorf("title match threshold must be within [0, 1]")
	}
	if c.OutputFormat != "tsv" && c.OutputFormat != "json" && c.OutputFormat != "dual" {
		return fmt.Errorf("output format must be tsv, json, or dual")
	}
	return nil
}

// EnvString returns the trimmed value of key when it is set and non-empty.
func EnvString(key string) (string, bool) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return "", false
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return "", false
	}
	return value, true
}

// EnvInt parses key as an integer.
func EnvInt(key string) (int, bool, error) {
	value, ok := EnvString(key)
	if !ok {
		return 0, false, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, false, fmt.Errorf("%s: %w", key, err)
	}
	return n, true, nil
}

// EnvDuration parses key as a time.Duration ("1s", "500ms").
func EnvDuration(key string) (time.Duration, bool, error) {
	value, ok := EnvString(key)
	if !ok {
		return 0, false, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, false, fmt.Errorf("%s: %w", key, err)
	}
	if d < 0 {
		return 0, false, errors.New(key + ": duration cannot be negative")
	}
	return d, true, nil
}
