package config

import "fmt"

// DefaultSelectorProfile is the product page layout used unless overridden.
const DefaultSelectorProfile = "swatch-2017"

// Selectors describes where a product page keeps its offer counts. Product
// pages have changed layout over time, so sets are versioned by name.
// KindleBonus counts a Kindle swatch as one extra new copy.
type Selectors struct {
	Versions         string   `toml:"versions"`
	VersionName      string   `toml:"version_name"`
	VersionLabels    string   `toml:"version_labels"`
	OffersPanel      string   `toml:"offers_panel"`
	OffersLabels     string   `toml:"offers_labels"`
	KindleBonus      bool     `toml:"kindle_bonus"`
	ChallengeMarkers []string `toml:"challenge_markers"`
	GatewayMarkers   []string `toml:"gateway_markers"`
}

// Validate checks that every selector needed for extraction is present.
func (s Selectors) Validate() error {
	if s.Versions == "" || s.VersionLabels == "" {
		return fmt.Errorf("versions and version_labels are required")
	}
	if s.OffersPanel == "" || s.OffersLabels == "" {
		return fmt.Errorf("offers_panel and offers_labels are required")
	}
	return nil
}

var (
	defaultChallengeMarkers = []string{
		"/errors/validateCaptcha",
		"Enter the characters you see below",
		"<title dir=\"ltr\">Robot Check</title>",
	}
	defaultGatewayMarkers = []string{
		"502 Bad Gateway",
		"503 Service Temporarily Unavailable",
		"504 Gateway Time-out",
		"504 Gateway Timeout",
	}
)

// BuiltinSelectors returns the known product page layouts.
func BuiltinSelectors() map[string]Selectors {
	return map[string]Selectors{
		"swatch-2017": {
			Versions:         ".swatchElement",
			VersionName:      ".a-list-item .a-button-inner a span",
			VersionLabels:    ".a-list-item .tmm-olp-links .olp-link .a-size-mini",
			OffersPanel:      "#mediaOlp",
			OffersLabels:     ".a-row .a-section span a",
			KindleBonus:      true,
			ChallengeMarkers: append([]string(nil), defaultChallengeMarkers...),
			GatewayMarkers:   append([]string(nil), defaultGatewayMarkers...),
		},
		"swatch-2018": {
			Versions:         "#tmmSwatches .swatchElement",
			VersionName:      ".a-button-inner a span",
			VersionLabels:    ".tmm-olp-links a",
			OffersPanel:      "#olp_feature_div",
			OffersLabels:     "a",
			KindleBonus:      false,
			ChallengeMarkers: append([]string(nil), defaultChallengeMarkers...),
			GatewayMarkers:   append([]string(nil), defaultGatewayMarkers...),
		},
	}
}
