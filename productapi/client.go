package productapi

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-resty/resty/v2"

	"github.com/aluiziolira/go-enrich-books/config"
	"github.com/aluiziolira/go-enrich-books/metrics"
	"github.com/aluiziolira/go-enrich-books/models"
)

// Operations issued against the product API.
const (
	OperationItemSearch = "ItemSearch"
	OperationItemLookup = "ItemLookup"
)

var lookupResponseGroups = []string{
	"AlternateVersions",
	"ItemAttributes",
	"OfferFull",
	"Offers",
	"OfferListings",
	"OfferSummary",
}

// Client issues signed product API calls. It does not throttle; callers own
// the request rate.
type Client struct {
	http       *resty.Client
	signer     *Signer
	storefront string
	metrics    *metrics.Metrics
}

// NewClient builds a client from cfg.
func NewClient(cfg *config.Config, m *metrics.Metrics) (*Client, error) {
	signer, err := NewSigner(cfg)
	if err != nil {
		return nil, err
	}

	httpClient := resty.New()
	httpClient.SetTimeout(cfg.Timeout)
	httpClient.SetHeader("user-agent", cfg.UserAgent)

	return &Client{
		http:       httpClient,
		signer:     signer,
		storefront: cfg.Storefront,
		metrics:    m,
	}, nil
}

// ItemSearch finds the identifier of the best book match for title and
// author. An empty author is left out of the request.
func (c *Client) ItemSearch(ctx context.Context, title, author string) (string, error) {
	params := Params{
		"Title":       title,
		"SearchIndex": "Books",
	}
	if author != "" {
		params["Author"] = author
	}

	body, err := c.call(ctx, OperationItemSearch, params)
	if err != nil {
		return "", err
	}
	asin, err := DecodeSearch(bytes.NewReader(body))
	if err != nil {
		return "", c.fail(OperationItemSearch, err)
	}
	c.metrics.IncAPICall(OperationItemSearch, "ok")
	return asin, nil
}

// ItemLookup fetches attributes, alternate versions, and offers for asin.
func (c *Client) ItemLookup(ctx context.Context, asin string) (*models.Item, error) {
	params := Params{
		"ItemId":           asin,
		"ResponseGroup":    lookupResponseGroups,
		"RelationshipType": "AuthorityTitle",
	}

	body, err := c.call(ctx, OperationItemLookup, params)
	if err != nil {
		return nil, err
	}
	item, err := DecodeLookup(bytes.NewReader(body), c.storefront)
	if err != nil {
		return nil, c.fail(OperationItemLookup, err)
	}
	c.metrics.IncAPICall(OperationItemLookup, "ok")
	return item, nil
}

// call performs one signed GET. Statuses 400, 403, 410, and 503 carry an
// error document; 500 is an internal error; other failures are returned
// as *HTTPError.
func (c *Client) call(ctx context.Context, operation string, params Params) ([]byte, error) {
	params["Operation"] = operation
	signed := c.signer.URL(params)

	res, err := c.http.R().SetContext(ctx).Get(signed)
	if err != nil {
		c.metrics.IncAPICall(operation, "transport_error")
		c.metrics.IncError("api_transport")
		return nil, fmt.Errorf("%s request: %w", operation, err)
	}
	c.metrics.ObserveAPICall(res.Time())

	status := res.StatusCode()
	body := res.Body()
	slog.Debug("product api response",
		slog.String("operation", operation),
		slog.Int("status", status),
		slog.Duration("duration", res.Time()),
	)

	switch status {
	case http.StatusBadRequest, http.StatusForbidden, http.StatusGone, http.StatusServiceUnavailable:
		if err := DecodeErrors(body); err != nil {
			if _, ok := KindOf(err); ok {
				return nil, c.fail(operation, err)
			}
		}
		c.metrics.IncAPICall(operation, "http_error")
		return nil, &HTTPError{StatusCode: status, Body: body}
	case http.StatusInternalServerError:
		return nil, c.fail(operation, &Error{
			Kind:    KindInternalError,
			Code:    "InternalError",
			Message: "the product api returned HTTP 500",
			Raw:     body,
		})
	}
	if status < 200 || status >= 300 {
		c.metrics.IncAPICall(operation, "http_error")
		return nil, &HTTPError{StatusCode: status, Body: body}
	}
	return body, nil
}

// fail records err and returns it unchanged.
func (c *Client) fail(operation string, err error) error {
	var formatErr *MessageFormatError
	if errors.As(err, &formatErr) {
		c.metrics.IncUnparsedMessage()
		slog.Error("product api error message did not match its pattern",
			slog.String("operation", operation),
			slog.String("code", formatErr.Err.Code),
			slog.String("message", formatErr.Err.Message),
			slog.String("pattern", formatErr.Pattern),
		)
	}

	var apiErr *Error
	if errors.As(err, &apiErr) {
		c.metrics.IncAPICall(operation, "api_error")
		c.metrics.IncError(apiErr.RowCode())
		return err
	}
	c.metrics.IncAPICall(operation, "decode_error")
	c.metrics.IncError("api_decode")
	return err
}
