package transport

import (
	"context"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// RequestIDHeader carries a per-request correlation id.
const RequestIDHeader = "X-Request-ID"

// authTransport adds an Authorization: Bearer header to every request.
type authTransport struct {
	token string
	next  http.RoundTripper
}

// WithAuth wraps a RoundTripper with bearer-token authorization. An empty
// token leaves requests untouched.
func WithAuth(token string, next http.RoundTripper) http.RoundTripper {
	if token == "" {
		return next
	}
	return &authTransport{token: token, next: next}
}

func (a *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("Authorization", "Bearer "+a.token)
	return a.next.RoundTrip(req)
}

// requestIDTransport stamps each request with a fresh X-Request-ID unless the
// caller already set one.
type requestIDTransport struct {
	next http.RoundTripper
}

// WithRequestID wraps a RoundTripper with request id propagation.
func WithRequestID(next http.RoundTripper) http.RoundTripper {
	return &requestIDTransport{next: next}
}

func (r *requestIDTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get(RequestIDHeader) != "" {
		return r.next.RoundTrip(req)
	}
	req = req.Clone(req.Context())
	req.Header.Set(RequestIDHeader, uuid.NewString())
	return r.next.RoundTrip(req)
}

// loggingTransport logs request method/URL and response status.
type loggingTransport struct {
	logger *slog.Logger
	next   http.RoundTripper
}

// WithLogging wraps a RoundTripper with request/response logging.
func WithLogging(logger *slog.Logger, next http.RoundTripper) http.RoundTripper {
	return &loggingTransport{logger: logger, next: next}
}

func (l *loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := l.next.RoundTrip(req)
	elapsed := time.Since(start)

	if err != nil {
		l.logger.Error("HTTP request failed",
			"method", req.Method,
			"url", req.URL.String(),
			"request_id", req.Header.Get(RequestIDHeader),
			"duration_ms", elapsed.Milliseconds(),
			"error", err,
		)
		return resp, err
	}

	l.logger.Debug("HTTP request completed",
		"method", req.Method,
		"url", req.URL.String(),
		"request_id", req.Header.Get(RequestIDHeader),
		"status", resp.StatusCode,
		"duration_ms", elapsed.Milliseconds(),
	)
	return resp, nil
}

// retryTransport retries idempotent requests on network errors, 5xx and 429
// with exponential backoff. POST is never retried.
type retryTransport struct {
	maxRetries int
	onRetry    func()
	next       http.RoundTripper
}

// WithRetry wraps a RoundTripper with retry logic for transient errors.
// onRetry, when non-nil, is called before every retry attempt.
func WithRetry(maxRetries int, onRetry func(), next http.RoundTripper) http.RoundTripper {
	if maxRetries <= 0 {
		return next
	}
	return &retryTransport{maxRetries: maxRetries, onRetry: onRetry, next: next}
}

func (r *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if !idempotent(req.Method) {
		return r.next.RoundTrip(req)
	}

	var resp *http.Response
	var err error

	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		if attempt > 0 {
			if r.onRetry != nil {
				r.onRetry()
			}
			if req, err = rewind(req); err != nil {
				return nil, err
			}
		}

		resp, err = r.next.RoundTrip(req)
		if err != nil {
			// Network error, retry unless the caller gave up.
			if attempt < r.maxRetries && req.Context().Err() == nil {
				if werr := sleepWithBackoff(req.Context(), attempt); werr != nil {
					return nil, err
				}
				continue
			}
			return nil, err
		}

		// Success or client error that shouldn't be retried.
		if resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return resp, nil
		}

		if attempt == r.maxRetries {
			return resp, nil
		}

		delay := backoff(attempt)
		if resp.StatusCode == http.StatusTooManyRequests {
			delay = retryAfterDelay(resp)
		}
		drainAndClose(resp.Body)
		if werr := sleep(req.Context(), delay); werr != nil {
			return nil, werr
		}
	}

	return resp, err
}

func idempotent(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodPut, http.MethodDelete:
		return true
	}
	return false
}

// rewind returns a copy of req with a fresh body for another attempt.
func rewind(req *http.Request) (*http.Request, error) {
	if req.Body == nil || req.GetBody == nil {
		return req, nil
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, err
	}
	clone := req.Clone(req.Context())
	clone.Body = body
	return clone, nil
}

// rateLimitTransport blocks until the limiter admits the request.
type rateLimitTransport struct {
	limiter *rate.Limiter
	next    http.RoundTripper
}

// WithRateLimit wraps a RoundTripper with a client-side token bucket of rps
// requests per second and the given burst.
func WithRateLimit(rps float64, burst int, next http.RoundTripper) http.RoundTripper {
	if burst < 1 {
		burst = 1
	}
	return &rateLimitTransport{limiter: rate.NewLimiter(rate.Limit(rps), burst), next: next}
}

func (r *rateLimitTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := r.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}
	return r.next.RoundTrip(req)
}

// backoffBase is the first retry delay; tests shrink it.
var backoffBase = time.Second

// backoff returns the exponential delay for attempt: base * 2^attempt.
func backoff(attempt int) time.Duration {
	return time.Duration(math.Pow(2, float64(attempt))) * backoffBase
}

// sleepWithBackoff sleeps for the exponential backoff of attempt or until ctx ends.
func sleepWithBackoff(ctx context.Context, attempt int) error {
	return sleep(ctx, backoff(attempt))
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// retryAfterDelay extracts the delay from a 429 response's Retry-After header.
func retryAfterDelay(resp *http.Response) time.Duration {
	defaultDelay := 5 * backoffBase

	if ra := resp.Header.Get("Retry-After"); ra != "" {
		if secs, err := strconv.Atoi(ra); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
		if at, err := http.ParseTime(ra); err == nil {
			if d := time.Until(at); d > 0 {
				return d
			}
		}
	}

	return defaultDelay
}

// drainAndClose reads remaining body bytes and closes, preventing connection leaks.
func drainAndClose(body io.ReadCloser) {
	if body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, body)
	body.Close()
}
