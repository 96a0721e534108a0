package productapi

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/aluiziolira/go-enrich-books/config"
)

// TimestampFormat is the layout of the Timestamp request parameter.
const TimestampFormat = "2006-01-02T15:04:05Z"

// Params are request parameters. A nil value means "not set" and the key is
// dropped before signing. A []string value is sent comma-joined.
type Params map[string]any

// Values resolves params into their wire form, omitting nil values.
func (p Params) Values() map[string]string {
	out := make(map[string]string, len(p))
	for k, v := range p {
		switch val := v.(type) {
		case nil:
		case string:
			out[k] = val
		case *string:
			if val != nil {
				out[k] = *val
			}
		case []string:
			if val != nil {
				out[k] = strings.Join(val, ",")
			}
		case fmt.Stringer:
			out[k] = val.String()
		default:
			out[k] = fmt.Sprint(val)
		}
	}
	return out
}

// CanonicalQuery joins values sorted by name with each name and value
// percent-encoded per RFC 3986.
func CanonicalQuery(values map[string]string) string {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(escape(k))
		b.WriteByte('=')
		b.WriteString(escape(values[k]))
	}
	return b.String()
}

// Signature is the base64 HMAC-SHA256 of the request string to sign.
func Signature(secretKey, host, path, query string) string {
	mac := hmac.New(sha256.New, []byte(secretKey))
	mac.Write([]byte("GET\n" + host + "\n" + path + "\n" + query))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// Sign builds the signed request URL for params. It performs no I/O and
// reads no clock; identical inputs give identical URLs.
func Sign(params Params, secretKey, scheme, host, path string) string {
	query := CanonicalQuery(params.Values())
	sig := Signature(secretKey, host, path, query)
	return scheme + "://" + host + path + "?" + query + "&Signature=" + escape(sig)
}

// Signer fills account parameters and the timestamp before signing.
type Signer struct {
	AccessKey    string
	SecretKey    string
	AssociateTag string
	Service      string
	Scheme       string
	Host         string
	Path         string
	Now          func() time.Time
}

// NewSigner builds a signer from cfg. An unknown locale yields an
// UnknownLocale error.
func NewSigner(cfg *config.Config) (*Signer, error) {
	host, err := cfg.APIHost()
	if err != nil {
		if errors.Is(err, config.ErrUnknownLocale) {
			return nil, &Error{Kind: KindUnknownLocale, Code: KindUnknownLocale.String(), Message: err.Error()}
		}
		return nil, err
	}
	return &Signer{
		AccessKey:    cfg.AccessKey,
		SecretKey:    cfg.SecretKey,
		AssociateTag: cfg.AssociateTag,
		Service:      cfg.Service,
		Scheme:       cfg.Scheme,
		Host:         host,
		Path:         cfg.APIPath,
		Now:          time.Now,
	}, nil
}

// URL returns the signed URL for params. The caller's map is not modified.
// A Timestamp already present in params is kept, which makes the result
// reproducible.
func (s *Signer) URL(params Params) string {
	p := make(Params, len(params)+4)
	for k, v := range params.Values() {
		p[k] = v
	}
	setDefault(p, "AWSAccessKeyId", s.AccessKey)
	setDefault(p, "Service", s.Service)
	setDefault(p, "AssociateTag", s.AssociateTag)

	if _, ok := p["Timestamp"]; !ok {
		now := time.Now
		if s.Now != nil {
			now = s.Now
		}
		p["Timestamp"] = now().UTC().Format(TimestampFormat)
	}

	return Sign(p, s.SecretKey, s.Scheme, s.Host, s.Path)
}

func setDefault(p Params, key, value string) {
	if _, ok := p[key]; !ok {
		p[key] = value
	}
}

const upperhex = "0123456789ABCDEF"

func escape(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUnreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperhex[c>>4])
		b.WriteByte(upperhex[c&15])
	}
	return b.String()
}

func isUnreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	case c == '-', c == '_', c == '.', c == '~':
		return true
	}
	return false
}
