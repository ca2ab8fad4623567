package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kubeadapt/resource-insight/internal/config"
	insighterrors "github.com/kubeadapt/resource-insight/internal/errors"
	"github.com/kubeadapt/resource-insight/internal/observability"
)

// SuccessCode is the envelope code the backend uses for success.
const SuccessCode = 0

// Notifier surfaces request failures to the user, e.g. as a toast. It is a
// side effect only; Do still returns the error.
type Notifier interface {
	NotifyError(title, message string)
}

// Request describes one backend call. Path is relative to the configured base
// URL. Body, when non-nil, is JSON-encoded unchanged.
type Request struct {
	Method   string
	Path     string
	Query    url.Values
	Body     any
	Endpoint string // label for logs and metrics, e.g. "clusters.list"
}

func (r Request) label() string {
	if r.Endpoint != "" {
		return r.Endpoint
	}
	return r.Method + " " + r.Path
}

// Envelope is the wrapper every backend response uses around its payload.
type Envelope struct {
	Code    *int            `json:"code"`
	Msg     string          `json:"msg"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Data    json.RawMessage `json:"data"`
}

// Text returns the first non-empty message field in error, msg, message order.
func (e Envelope) Text() string {
	switch {
	case e.Error != "":
		return e.Error
	case e.Msg != "":
		return e.Msg
	default:
		return e.Message
	}
}

// Response is a successful backend response. Body is the full decoded body;
// payload extraction is left to the envelope descriptors.
type Response struct {
	Status   int
	Body     []byte
	Envelope Envelope
}

// Client performs backend requests and normalizes every failure into an
// *errors.APIError of kind transport or server.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	config         *config.Config
	metrics        *observability.Metrics
	errorCollector *insighterrors.Collector
	notifier       Notifier
	logger         *slog.Logger
}

// Option customizes a Client.
type Option func(*clientOptions)

type clientOptions struct {
	notifier Notifier
	logger   *slog.Logger
	base     http.RoundTripper
}

// WithNotifier forwards every request failure to n.
func WithNotifier(n Notifier) Option {
	return func(o *clientOptions) { o.notifier = n }
}

// WithLogger sets the logger used by the client and its logging middleware.
func WithLogger(l *slog.Logger) Option {
	return func(o *clientOptions) { o.logger = l }
}

// WithBaseTransport replaces the innermost RoundTripper.
func WithBaseTransport(rt http.RoundTripper) Option {
	return func(o *clientOptions) { o.base = rt }
}

// NewClient creates a transport Client with middleware applied.
func NewClient(cfg *config.Config, metrics *observability.Metrics, errCollector *insighterrors.Collector, opts ...Option) *Client {
	o := clientOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	// Use an explicit transport instead of http.DefaultTransport to avoid
	// sharing mutable state with other code in the process.
	base := o.base
	if base == nil {
		base = &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			MaxIdleConns:          100,
			MaxIdleConnsPerHost:   10,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
			ResponseHeaderTimeout: cfg.RequestTimeout,
			// Decompression is handled in readBody so zstd works too.
			DisableCompression: true,
		}
	}

	var onRetry func()
	if metrics != nil {
		onRetry = metrics.TransportRetries.Inc
	}

	rt := WithLogging(o.logger, base)
	rt = WithAuth(cfg.APIToken, rt)
	rt = WithRequestID(rt)
	rt = WithRetry(cfg.MaxRetries, onRetry, rt)
	if cfg.RateLimit > 0 {
		rt = WithRateLimit(cfg.RateLimit, cfg.RateBurst, rt)
	}

	return &Client{
		httpClient: &http.Client{
			Timeout:   cfg.RequestTimeout,
			Transport: rt,
		},
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		config:         cfg,
		metrics:        metrics,
		errorCollector: errCollector,
		notifier:       o.notifier,
		logger:         o.logger,
	}
}

// Do sends req and returns the decoded response. Errors are always
// *errors.APIError: KindTransport when the request could not be built or no
// response arrived, KindServer for non-2xx statuses and non-success envelopes.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	endpoint := req.label()

	httpReq, err := c.newRequest(ctx, req)
	if err != nil {
		return nil, c.fail(endpoint, req.Method, start, &insighterrors.APIError{
			Kind:    insighterrors.KindTransport,
			Code:    insighterrors.ErrRequestInvalid,
			Message: err.Error(),
			Err:     err,
		})
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, c.fail(endpoint, req.Method, start, &insighterrors.APIError{
			Kind:    insighterrors.KindTransport,
			Code:    insighterrors.ErrNetworkUnreachable,
			Message: insighterrors.NetworkUnreachable,
			Err:     err,
		})
	}
	defer drainAndClose(resp.Body)

	body, size, err := readBody(resp)
	if err != nil {
		return nil, c.fail(endpoint, req.Method, start, &insighterrors.APIError{
			Kind:    insighterrors.KindTransport,
			Code:    insighterrors.ErrNetworkUnreachable,
			Message: insighterrors.NetworkUnreachable,
			Err:     err,
		})
	}
	if c.metrics != nil {
		c.metrics.ResponseSizeBytes.WithLabelValues(endpoint).Observe(float64(size))
	}

	var env Envelope
	// A body that is not an envelope is left for the descriptor to reject.
	_ = json.Unmarshal(body, &env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := env.Text()
		if msg == "" {
			msg = statusMessage(resp.StatusCode)
		}
		return nil, c.fail(endpoint, req.Method, start, &insighterrors.APIError{
			Kind:    insighterrors.KindServer,
			Code:    insighterrors.ErrHTTPStatus,
			Message: msg,
			Status:  resp.StatusCode,
		})
	}

	if env.Code != nil && *env.Code != SuccessCode {
		msg := env.Text()
		if msg == "" {
			msg = "request failed"
		}
		return nil, c.fail(endpoint, req.Method, start, &insighterrors.APIError{
			Kind:    insighterrors.KindServer,
			Code:    insighterrors.ErrEnvelope,
			Message: msg,
			Status:  resp.StatusCode,
		})
	}

	if c.metrics != nil {
		c.metrics.RequestDuration.WithLabelValues(endpoint, req.Method).Observe(time.Since(start).Seconds())
		c.metrics.RequestsTotal.WithLabelValues(endpoint, observability.OutcomeSuccess).Inc()
	}

	return &Response{Status: resp.StatusCode, Body: body, Envelope: env}, nil
}

// newRequest builds the HTTP request. Empty query values are dropped.
func (c *Client) newRequest(ctx context.Context, req Request) (*http.Request, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	u, err := url.Parse(c.baseURL + "/" + strings.TrimLeft(req.Path, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid request url: %w", err)
	}
	if len(req.Query) > 0 {
		q := u.Query()
		for k, vals := range req.Query {
			for _, v := range vals {
				if v != "" {
					q.Add(k, v)
				}
			}
		}
		u.RawQuery = q.Encode()
	}

	var body io.Reader
	if req.Body != nil {
		buf, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Accept-Encoding", "zstd, gzip")
	return httpReq, nil
}

// fail records a failed request and forwards it to the notifier.
func (c *Client) fail(endpoint, method string, start time.Time, ae *insighterrors.APIError) error {
	ae.Component = endpoint
	ae.Timestamp = time.Now().UnixMilli()

	if c.metrics != nil {
		outcome := observability.OutcomeServer
		if ae.Kind == insighterrors.KindTransport {
			outcome = observability.OutcomeTransport
		}
		c.metrics.RequestDuration.WithLabelValues(endpoint, method).Observe(time.Since(start).Seconds())
		c.metrics.RequestsTotal.WithLabelValues(endpoint, outcome).Inc()
	}
	if c.errorCollector != nil {
		c.errorCollector.Report(*ae)
	}
	c.logger.Warn("backend request failed",
		"endpoint", endpoint,
		"kind", ae.Kind,
		"status", ae.Status,
		"message", ae.Message,
		"error", ae.Err,
	)
	if c.notifier != nil {
		c.notifier.NotifyError("Request failed", ae.Message)
	}
	return ae
}

// statusMessage is the fallback text for a non-2xx status without a body message.
func statusMessage(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad request"
	case http.StatusUnauthorized:
		return "unauthorized"
	case http.StatusForbidden:
		return "forbidden"
	case http.StatusNotFound:
		return "not found"
	case http.StatusInternalServerError:
		return "internal server error"
	default:
		return fmt.Sprintf("request failed (HTTP %d)", status)
	}
}
