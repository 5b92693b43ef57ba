// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/pdiddy/litfinder/pkg/types"
)

const (
	DefaultConnectTimeout = 3 * time.Second
	DefaultReadTimeout    = 15 * time.Second
	DefaultUserAgent      = "litfinder/1.0 (+https://github.com/pdiddy/litfinder)"
)

// NewClient builds an http.Client with a short connect timeout and a longer
// overall read timeout. The client is safe for concurrent use and is meant
// to be constructed once and shared by every adapter.
func NewClient(cfg types.HTTPConfig) *http.Client {
	connect := cfg.ConnectTimeout
	if connect <= 0 {
		connect = DefaultConnectTimeout
	}
	read := cfg.ReadTimeout
	if read <= 0 {
		read = DefaultReadTimeout
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = (&net.Dialer{
		Timeout:   connect,
		KeepAlive: 30 * time.Second,
	}).DialContext
	transport.TLSHandshakeTimeout = connect
	transport.ResponseHeaderTimeout = read

	return &http.Client{
		Transport: transport,
		Timeout:   read,
	}
}

// Requester issues polite GET requests for one source: it waits on the
// source's rate limiter, sets the User-Agent, and retries throttled
// responses.
type Requester struct {
	Client     *http.Client
	Limiter    *RateLimiter
	UserAgent  string

	// MaxRetries is passed to DoWithRetry: negative means the default,
	// zero means no retries.
	MaxRetries int
}

// Get fetches rawURL. A non-200 status is returned as an error after the
// body has been closed.
func (r *Requester) Get(ctx context.Context, rawURL string) (*http.Response, error) {
	if r.Limiter != nil {
		if err := r.Limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter wait: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	ua := r.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}
	req.Header.Set("User-Agent", ua)

	client := r.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := DoWithRetry(ctx, client, req, r.MaxRetries)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, &StatusError{StatusCode: resp.StatusCode, URL: rawURL}
	}
	return resp, nil
}

// StatusError reports a non-200 response from a provider.
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d from %s", e.StatusCode, e.URL)
}
