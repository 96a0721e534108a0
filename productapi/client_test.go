package productapi

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/aluiziolira/go-enrich-books/config"
	"github.com/aluiziolira/go-enrich-books/metrics"
)

const apiURLPattern = `=~^https://webservices\.amazon\.com/onca/xml`

func newTestClient(t *testing.T) (*Client, *httpmock.MockTransport, *metrics.Metrics) {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.AccessKey = "AKID"
	cfg.SecretKey = "secret"
	cfg.AssociateTag = "tag-20"

	m := metrics.NewMetrics()
	c, err := NewClient(cfg, m)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	transport := httpmock.NewMockTransport()
	c.http.SetTransport(transport)
	return c, transport, m
}

func TestClientItemSearch(t *testing.T) {
	c, transport, m := newTestClient(t)

	var query map[string][]string
	transport.RegisterResponder("GET", apiURLPattern, func(req *http.Request) (*http.Response, error) {
		query = req.URL.Query()
		return httpmock.NewStringResponse(http.StatusOK,
			`<ItemSearchResponse><Items><Item><ASIN>0547928227</ASIN></Item></Items></ItemSearchResponse>`), nil
	})

	asin, err := c.ItemSearch(context.Background(), "The Hobbit", "")
	if err != nil {
		t.Fatalf("item search: %v", err)
	}
	if asin != "0547928227" {
		t.Fatalf("asin = %q", asin)
	}

	checks := map[string]string{
		"Operation":      "ItemSearch",
		"Title":          "The Hobbit",
		"SearchIndex":    "Books",
		"AWSAccessKeyId": "AKID",
		"AssociateTag":   "tag-20",
	}
	for k, want := range checks {
		if got := query[k]; len(got) != 1 || got[0] != want {
			t.Errorf("%s = %v, want %q", k, got, want)
		}
	}
	if _, ok := query["Author"]; ok {
		t.Errorf("empty author should not be sent")
	}
	if _, ok := query["Signature"]; !ok {
		t.Errorf("request is not signed")
	}
	if got := testutil.ToFloat64(m.APICallsTotal.WithLabelValues(OperationItemSearch, "ok")); got != 1 {
		t.Fatalf("ok calls = %v, want 1", got)
	}
}

func TestClientItemLookup(t *testing.T) {
	c, transport, _ := newTestClient(t)

	var query map[string][]string
	transport.RegisterResponder("GET", apiURLPattern, func(req *http.Request) (*http.Response, error) {
		query = req.URL.Query()
		return httpmock.NewStringResponse(http.StatusOK, lookupXML), nil
	})

	item, err := c.ItemLookup(context.Background(), "0547928227")
	if err != nil {
		t.Fatalf("item lookup: %v", err)
	}
	if item.Title != "The Hobbit" || !item.SoldByPlatform {
		t.Fatalf("unexpected item: %+v", item)
	}

	want := "AlternateVersions,ItemAttributes,OfferFull,Offers,OfferListings,OfferSummary"
	if got := query["ResponseGroup"]; len(got) != 1 || got[0] != want {
		t.Fatalf("ResponseGroup = %v, want %q", got, want)
	}
	if got := query["RelationshipType"]; len(got) != 1 || got[0] != "AuthorityTitle" {
		t.Fatalf("RelationshipType = %v", got)
	}
}

func TestClientStatusMapping(t *testing.T) {
	throttled := `<ItemSearchErrorResponse><Error><Code>RequestThrottled</Code><Message>Slow down.</Message></Error></ItemSearchErrorResponse>`

	tests := []struct {
		name     string
		status   int
		body     string
		wantKind Kind
		wantHTTP bool
	}{
		{name: "throttled 503", status: http.StatusServiceUnavailable, body: throttled, wantKind: KindTooManyRequests},
		{name: "error document 400", status: http.StatusBadRequest, body: throttled, wantKind: KindTooManyRequests},
		{name: "internal 500", status: http.StatusInternalServerError, body: "boom", wantKind: KindInternalError},
		{name: "403 without document", status: http.StatusForbidden, body: "denied", wantHTTP: true},
		{name: "404", status: http.StatusNotFound, body: "", wantHTTP: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, transport, _ := newTestClient(t)
			transport.RegisterResponder("GET", apiURLPattern, httpmock.NewStringResponder(tt.status, tt.body))

			_, err := c.ItemSearch(context.Background(), "Dune", "Herbert")
			if err == nil {
				t.Fatalf("expected error")
			}

			if tt.wantHTTP {
				var httpErr *HTTPError
				if !errors.As(err, &httpErr) {
					t.Fatalf("error = %v, want *HTTPError", err)
				}
				if httpErr.StatusCode != tt.status {
					t.Fatalf("status = %d, want %d", httpErr.StatusCode, tt.status)
				}
				return
			}
			kind, ok := KindOf(err)
			if !ok || kind != tt.wantKind {
				t.Fatalf("kind = %v/%v, want %v", kind, ok, tt.wantKind)
			}
		})
	}
}

func TestClientUnparsedMessageCounted(t *testing.T) {
	c, transport, m := newTestClient(t)
	transport.RegisterResponder("GET", apiURLPattern, httpmock.NewStringResponder(http.StatusBadRequest,
		`<E><Error><Code>AWS.InvalidParameterValue</Code><Message>garbled</Message></Error></E>`))

	_, err := c.ItemLookup(context.Background(), "X")
	if kind, _ := KindOf(err); kind != KindInvalidParameterValue {
		t.Fatalf("kind = %v, want InvalidParameterValue", kind)
	}
	if got := testutil.ToFloat64(m.UnparsedMessages); got != 1 {
		t.Fatalf("unparsed messages = %v, want 1", got)
	}
}

func TestClientTransportError(t *testing.T) {
	c, transport, m := newTestClient(t)
	transport.RegisterResponder("GET", apiURLPattern, httpmock.NewErrorResponder(errors.New("connection reset")))

	_, err := c.ItemSearch(context.Background(), "Dune", "")
	if err == nil {
		t.Fatalf("expected transport error")
	}
	if _, ok := KindOf(err); ok {
		t.Fatalf("transport error should not carry an api kind")
	}
	if got := testutil.ToFloat64(m.APICallsTotal.WithLabelValues(OperationItemSearch, "transport_error")); got != 1 {
		t.Fatalf("transport errors = %v, want 1", got)
	}
}

func TestNewClientUnknownLocale(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Locale = "xx"

	_, err := NewClient(cfg, nil)
	if kind, ok := KindOf(err); !ok || kind != KindUnknownLocale {
		t.Fatalf("error = %v, want UnknownLocale", err)
	}
}
