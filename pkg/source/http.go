/*
Package source implements the remote collaborators that supply raw
suggestion payloads: an HTTP endpoint, local snapshot files and static
in-memory data. Every source satisfies suggest.Source.
*/
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/hashicorp/go-retryablehttp"

	"github.com/wondrvoices/wondrsuggest/internal/logger"
)

// maxPayloadBytes bounds how much of a response body is read.
const maxPayloadBytes = 32 << 20

// ErrPayloadTooLarge is returned when a response body exceeds the limit.
var ErrPayloadTooLarge = errors.New("suggestion payload too large")

// StatusError is returned when the endpoint answers with a non-2xx status.
type StatusError struct {
	URL    string
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %d", e.URL, e.Status)
}

// HTTPOptions tune the HTTP source.
type HTTPOptions struct {
	Timeout  time.Duration
	RetryMax int
	MaxBytes int64 // 0 means 32 MiB
}

// HTTPSource fetches the suggestion payload with a single GET request.
type HTTPSource struct {
	url      string
	client   *retryablehttp.Client
	maxBytes int64
}

// NewHTTPSource creates an HTTP source for url. With RetryMax left at zero
// the request is attempted exactly once.
func NewHTTPSource(url string, opts HTTPOptions) *HTTPSource {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.RetryMax < 0 {
		opts.RetryMax = 0
	}
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = maxPayloadBytes
	}

	client := retryablehttp.NewClient()
	client.RetryMax = opts.RetryMax
	client.RetryWaitMin = 50 * time.Millisecond
	client.RetryWaitMax = time.Second
	client.HTTPClient = &http.Client{Timeout: opts.Timeout}
	client.CheckRetry = retryablehttp.DefaultRetryPolicy
	client.Backoff = retryablehttp.DefaultBackoff
	client.ErrorHandler = retryablehttp.PassthroughErrorHandler
	client.Logger = leveledLogger{logger.New("source")}

	return &HTTPSource{url: url, client: client, maxBytes: opts.MaxBytes}
}

// Fetch performs the GET request and returns the body.
func (s *HTTPSource) Fetch(ctx context.Context) ([]byte, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("cannot create request for the url %s: %w", s.url, err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	res, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("cannot execute request for the url %s: %w", s.url, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, &StatusError{URL: s.url, Status: res.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(res.Body, s.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("cannot read response from %s: %w", s.url, err)
	}
	if int64(len(body)) > s.maxBytes {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", ErrPayloadTooLarge, s.url, s.maxBytes)
	}
	log.Debugf("Fetched %d bytes of suggestions from %s in %v", len(body), s.url, time.Since(start))
	return body, nil
}

// leveledLogger routes retryablehttp's logging into charm log, keeping
// per-request chatter at debug level.
type leveledLogger struct {
	l *log.Logger
}

func (ll leveledLogger) Error(msg string, keysAndValues ...interface{}) {
	ll.l.Error(msg, keysAndValues...)
}

func (ll leveledLogger) Info(msg string, keysAndValues ...interface{}) {
	ll.l.Debug(msg, keysAndValues...)
}

func (ll leveledLogger) Debug(msg string, keysAndValues ...interface{}) {
	ll.l.Debug(msg, keysAndValues...)
}

func (ll leveledLogger) Warn(msg string, keysAndValues ...interface{}) {
	ll.l.Warn(msg, keysAndValues...)
}
