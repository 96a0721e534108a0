package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func validConfig() *Config {
	cfg := DefaultConfig()
	cfg.AccessKey = "AKIDEXAMPLE"
	cfg.SecretKey = "secret"
	cfg.AssociateTag = "tag-20"
	return cfg
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name: "missing access key",
			mutate: func(cfg *Config) {
				cfg.AccessKey = ""
			},
			wantErr: EnvAccessKey,
		},
		{
			name: "missing secret key",
			mutate: func(cfg *Config) {
				cfg.SecretKey = ""
			},
			wantErr: EnvSecretKey,
		},
		{
			name: "missing associate tag",
			mutate: func(cfg *Config) {
				cfg.AssociateTag = ""
			},
			wantErr: EnvAssociateTag,
		},
		{
			name: "unknown locale",
			mutate: func(cfg *Config) {
				cfg.Locale = "zz"
			},
			wantErr: "unknown locale",
		},
		{
			name: "negative interval",
			mutate: func(cfg *Config) {
				cfg.RequestInterval = -time.Second
			},
			wantErr: "interval",
		},
		{
			name: "negative timeout",
			mutate: func(cfg *Config) {
				cfg.Timeout = -1 * time.Second
			},
			wantErr: "timeout",
		},
		{
			name: "backoff above max",
			mutate: func(cfg *Config) {
				cfg.RetryBackoff = time.Minute
				cfg.RetryBackoffMax = time.Second
			},
			wantErr: "retry backoff",
		},
		{
			name: "unknown selector profile",
			mutate: func(cfg *Config) {
				cfg.SelectorProfile = "nope"
			},
			wantErr: "selector profile",
		},
		{
			name: "bad format",
			mutate: func(cfg *Config) {
				cfg.OutputFormat = "xlsx"
			},
			wantErr: "output format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestDefaultConfigValidWithCredentials(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("default config should validate, got %v", err)
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv(EnvAccessKey, "ak")
	t.Setenv(EnvSecretKey, " sk ")
	t.Setenv(EnvAssociateTag, "tag")
	t.Setenv(EnvLocale, "UK")

	cfg := DefaultConfig()
	cfg.ApplyEnv()

	if cfg.AccessKey != "ak" || cfg.SecretKey != "sk" || cfg.AssociateTag != "tag" {
		t.Fatalf("credentials not applied: %+v", cfg)
	}
	host, err := cfg.APIHost()
	if err != nil {
		t.Fatalf("api host: %v", err)
	}
	if host != "webservices.amazon.co.uk" {
		t.Fatalf("host = %q", host)
	}
}

func TestEnvDuration(t *testing.T) {
	t.Setenv("ENRICH_TEST_DURATION", "1500ms")
	d, ok, err := EnvDuration("ENRICH_TEST_DURATION")
	if err != nil || !ok || d != 1500*time.Millisecond {
		t.Fatalf("EnvDuration = %v, %v, %v", d, ok, err)
	}

	t.Setenv("ENRICH_TEST_DURATION", "soon")
	if _, _, err := EnvDuration("ENRICH_TEST_DURATION"); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestHostForLocale(t *testing.T) {
	host, err := HostForLocale("jp")
	if err != nil || host != "webservices.amazon.co.jp" {
		t.Fatalf("HostForLocale(jp) = %q, %v", host, err)
	}
	if _, err := HostForLocale("xx"); !errors.Is(err, ErrUnknownLocale) {
		t.Fatalf("expected ErrUnknownLocale, got %v", err)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "enrich.toml")
	content := `
[api]
locale = "de"
interval = "2s"

[scraper]
max_retries = 7
selectors = "custom"

[selectors.custom]
versions = ".edition"
version_labels = ".edition .label"
offers_panel = "#offers"
offers_labels = "a"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Locale != "de" || cfg.RequestInterval != 2*time.Second || cfg.MaxRetries != 7 {
		t.Fatalf("unexpected overlay: locale=%q interval=%v retries=%d", cfg.Locale, cfg.RequestInterval, cfg.MaxRetries)
	}
	sel, err := cfg.ActiveSelectors()
	if err != nil {
		t.Fatalf("active selectors: %v", err)
	}
	if sel.Versions != ".edition" || len(sel.ChallengeMarkers) == 0 {
		t.Fatalf("custom selectors not loaded: %+v", sel)
	}
	if _, ok := cfg.Selectors[DefaultSelectorProfile]; !ok {
		t.Fatalf("builtin profiles should survive a file overlay")
	}
}

func TestLoadFileBadDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "enrich.toml")
	if err := os.WriteFile(path, []byte("[api]\ninterval = \"often\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "api.interval") {
		t.Fatalf("expected api.interval error, got %v", err)
	}
}

func TestCheckSource(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "books.tsv")
	bad := filepath.Join(dir, "books.csv")
	for _, p := range []string{good, bad} {
		if err := os.WriteFile(p, []byte("identifier\ttitle\n"), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}

	if err := CheckSource(good); err != nil {
		t.Fatalf("good source: %v", err)
	}
	if err := CheckSource(bad); err == nil || !strings.Contains(err.Error(), "tsv") {
		t.Fatalf("expected extension error, got %v", err)
	}
	if err := CheckSource(dir); err == nil {
		t.Fatalf("directory source should fail")
	}
	if err := CheckSource(filepath.Join(dir, "missing.tsv")); err == nil {
		t.Fatalf("missing source should fail")
	}
}

func TestResolveDestination(t *testing.T) {
	dir := t.TempDir()

	got, err := ResolveDestination("/data/Amazontestquery.tsv", dir)
	if err != nil {
		t.Fatalf("dir destination: %v", err)
	}
	if want := filepath.Join(dir, "Amazontestquery_output.tsv"); got != want {
		t.Fatalf("output = %q, want %q", got, want)
	}

	file := filepath.Join(dir, "result.tsv")
	if got, err := ResolveDestination("in.tsv", file); err != nil || got != file {
		t.Fatalf("file destination = %q, %v", got, err)
	}

	if _, err := ResolveDestination("in.tsv", filepath.Join(dir, "result.txt")); err == nil {
		t.Fatalf("expected extension error")
	}
	if _, err := ResolveDestination("in.tsv", filepath.Join(dir, "missing", "out.tsv")); err == nil {
		t.Fatalf("expected missing directory error")
	}
}
