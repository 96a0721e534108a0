package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrUnknownLocale is returned for a locale missing from the host table.
var ErrUnknownLocale = errors.New("unknown locale")

var localeHosts = map[string]string{
	"br": "webservices.amazon.com.br",
	"ca": "webservices.amazon.ca",
	"cn": "webservices.amazon.cn",
	"de": "webservices.amazon.de",
	"es": "webservices.amazon.es",
	"fr": "webservices.amazon.fr",
	"in": "webservices.amazon.in",
	"it": "webservices.amazon.it",
	"jp": "webservices.amazon.co.jp",
	"mx": "webservices.amazon.com.mx",
	"uk": "webservices.amazon.co.uk",
	"us": "webservices.amazon.com",
}

// HostForLocale maps a storefront locale to its product API host.
func HostForLocale(locale string) (string, error) {
	host, ok := localeHosts[strings.ToLower(strings.TrimSpace(locale))]
	if !ok {
		return "", fmt.Errorf("%w %q (known: %s)", ErrUnknownLocale, locale, strings.Join(Locales(), ", "))
	}
	return host, nil
}

// Locales lists the supported locales in sorted order.
func Locales() []string {
	out := make([]string, 0, len(localeHosts))
	for k := range localeHosts {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
