package scraper

import (
	"errors"
	"fmt"
)

// ErrTimeout indicates a timeout while fetching a page.
type ErrTimeout struct {
	Err error
}

func (e ErrTimeout) Error() string {
	return fmt.Errorf("timeout: %w", e.Err).Error()
}

func (e ErrTimeout) Unwrap() error {
	return e.Err
}

// ErrConnection indicates a network connectivity failure.
type ErrConnection struct {
	Err error
}

func (e ErrConnection) Error() string {
	return fmt.Errorf("connection: %w", e.Err).Error()
}

func (e ErrConnection) Unwrap() error {
	return e.Err
}

// ErrForbidden indicates a forbidden response (HTTP 403).
type ErrForbidden struct {
	Err error
}

func (e ErrForbidden) Error() string {
	return fmt.Errorf("forbidden: %w", e.Err).Error()
}

func (e ErrForbidden) Unwrap() error {
	return e.Err
}

// ErrNotFound indicates a missing product page (HTTP 404).
type ErrNotFound struct {
	Err error
}

func (e ErrNotFound) Error() string {
	return fmt.Errorf("not_found: %w", e.Err).Error()
}

func (e ErrNotFound) Unwrap() error {
	return e.Err
}

// ErrRateLimited indicates the storefront rate-limited the request.
type ErrRateLimited struct {
	Err error
}

func (e ErrRateLimited) Error() string {
	return fmt.Errorf("rate_limited: %w", e.Err).Error()
}

func (e ErrRateLimited) Unwrap() error {
	return e.Err
}

// ErrGateway is a gateway status or a storefront gateway error page.
// It is retried.
type ErrGateway struct {
	StatusCode int
	Marker     string
}

func (e ErrGateway) Error() string {
	if e.Marker != "" {
		return fmt.Sprintf("gateway: page reports %q", e.Marker)
	}
	return fmt.Sprintf("gateway: http status %d", e.StatusCode)
}

// ErrChallenge is a human-verification page served instead of the product
// page. It is retried.
type ErrChallenge struct {
	Marker string
}

func (e ErrChallenge) Error() string {
	return fmt.Sprintf("challenge: page contains %q", e.Marker)
}

// ErrRetriesExhausted is returned when every attempt hit a retryable
// failure.
type ErrRetriesExhausted struct {
	Attempts int
	Err      error
}

func (e ErrRetriesExhausted) Error() string {
	return fmt.Sprintf("retries exhausted after %d attempts: %v", e.Attempts, e.Err)
}

func (e ErrRetriesExhausted) Unwrap() error {
	return e.Err
}

func retryable(err error) bool {
	var gateway ErrGateway
	var challenge ErrChallenge
	return errors.As(err, &gateway) || errors.As(err, &challenge)
}

// ErrorTypeLabel names the category of a scrape failure for metrics and
// output rows.
func ErrorTypeLabel(err error) string {
	if err == nil {
		return "unknown"
	}
	var exhausted ErrRetriesExhausted
	if errors.As(err, &exhausted) {
		return "retries_exhausted"
	}
	var timeout ErrTimeout
	if errors.As(err, &timeout) {
		return "timeout"
	}
	var conn ErrConnection
	if errors.As(err, &conn) {
		return "connection"
	}
	var forbidden ErrForbidden
	if errors.As(err, &forbidden) {
		return "forbidden"
	}
	var notFound ErrNotFound
	if errors.As(err, &notFound) {
		return "not_found"
	}
	var rateLimited ErrRateLimited
	if errors.As(err, &rateLimited) {
		return "rate_limited"
	}
	var gateway ErrGateway
	if errors.As(err, &gateway) {
		return "gateway"
	}
	var challenge ErrChallenge
	if errors.As(err, &challenge) {
		return "challenge"
	}
	return "other"
}
