package utils

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Fetch error kinds. Check with errors.Is(err, utils.ErrTimeout).
var (
	ErrNetwork    = errors.New("network error")
	ErrHTTPStatus = errors.New("http status error")
	ErrTimeout    = errors.New("fetch timeout")
	ErrBotBlock   = errors.New("bot protection detected")

	// ErrBrowserUnavailable is fatal: scripted mode was requested but no browser could start
	ErrBrowserUnavailable = errors.New("browser unavailable")
)

// FetchError records a failed page fetch against its URL
type FetchError struct {
	URL        string
	Kind       error
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	switch {
	case e.StatusCode != 0:
		return fmt.Sprintf("fetch %s: %v: unexpected status code: %d", e.URL, e.Kind, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("fetch %s: %v: %v", e.URL, e.Kind, e.Err)
	default:
		return fmt.Sprintf("fetch %s: %v", e.URL, e.Kind)
	}
}

// Is matches the error kind
func (e *FetchError) Is(target error) bool {
	return target == e.Kind
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// classify maps a transport error to a FetchError kind
func classify(url string, err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &FetchError{URL: url, Kind: ErrTimeout, Err: err}
	}
	return &FetchError{URL: url, Kind: ErrNetwork, Err: err}
}

// Retryable reports whether a fetch error is worth another attempt
func Retryable(err error) bool {
	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		return false
	}
	switch fetchErr.Kind {
	case ErrNetwork, ErrTimeout:
		return true
	case ErrHTTPStatus:
		return fetchErr.StatusCode == 429 || fetchErr.StatusCode >= 500
	}
	return false
}
