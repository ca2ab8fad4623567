package errors

import (
	stderrors "errors"
	"sort"
	"sync"
	"time"
)

// Kind is the error taxonomy callers and views can rely on.
type Kind string

const (
	// KindValidation is locally detected bad input. It never reaches the network.
	KindValidation Kind = "validation"
	// KindTransport means no response arrived or the request could not be built.
	KindTransport Kind = "transport"
	// KindServer is a non-2xx status or a non-success envelope code.
	KindServer Kind = "server"
	// KindShape is a response that did not match its endpoint's descriptor.
	// It is reported to the collector and logged, never returned.
	KindShape Kind = "shape"
)

// Code narrows a Kind for logs, metrics and the debug endpoint.
type Code string

const (
	ErrInvalidInput       Code = "INVALID_INPUT"
	ErrNetworkUnreachable Code = "NETWORK_UNREACHABLE"
	ErrRequestInvalid     Code = "REQUEST_INVALID"
	ErrHTTPStatus         Code = "HTTP_STATUS"
	ErrEnvelope           Code = "ENVELOPE_FAILURE"
	ErrShapeMismatch      Code = "SHAPE_MISMATCH"
)

// NetworkUnreachable is the fixed message for requests that got no response.
const NetworkUnreachable = "network unreachable"

// defaultTTL is the auto-expiry duration for errors not re-reported.
const defaultTTL = 5 * time.Minute

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

// RealClock uses the system clock.
type RealClock struct{}

// Now returns the current time.
func (RealClock) Now() time.Time { return time.Now() }

// APIError is the single error value surfaced by the client layers. Message is
// always human readable; callers never need to inspect Err.
type APIError struct {
	Kind      Kind   `json:"kind"`
	Code      Code   `json:"code"`
	Message   string `json:"message"`
	Status    int    `json:"status,omitempty"`
	Component string `json:"component"`
	Timestamp int64  `json:"timestamp"`
	Err       error  `json:"-"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return e.Message
}

// Unwrap returns the wrapped error for errors.Is/As compatibility.
func (e *APIError) Unwrap() error {
	return e.Err
}

// Validation builds a KindValidation error for a form or request field.
func Validation(component, message string) *APIError {
	return &APIError{
		Kind:      KindValidation,
		Code:      ErrInvalidInput,
		Message:   message,
		Component: component,
		Timestamp: time.Now().UnixMilli(),
	}
}

// As returns the APIError in err's chain, if any.
func As(err error) (*APIError, bool) {
	var ae *APIError
	if stderrors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

// KindOf returns the Kind of err, or "" when err is not an APIError.
func KindOf(err error) Kind {
	if ae, ok := As(err); ok {
		return ae.Kind
	}
	return ""
}

// MessageOf extracts the user-facing message of err.
func MessageOf(err error) string {
	if err == nil {
		return ""
	}
	if ae, ok := As(err); ok {
		return ae.Message
	}
	return err.Error()
}

// entry wraps an APIError with its last-reported time for expiry tracking.
type entry struct {
	err        APIError
	count      int
	lastReport time.Time
}

// Collector is a thread-safe store of recent errors for the debug endpoint.
// Errors are keyed by Code+Component and auto-expire after 5 minutes if not
// re-reported.
type Collector struct {
	mu      sync.Mutex
	clock   Clock
	ttl     time.Duration
	entries map[string]entry
}

// NewCollector creates a Collector with the given clock.
func NewCollector(clock Clock) *Collector {
	return &Collector{
		clock:   clock,
		ttl:     defaultTTL,
		entries: make(map[string]entry),
	}
}

func key(code Code, component string) string {
	return string(code) + "|" + component
}

// Report stores or refreshes an error.
func (c *Collector) Report(err APIError) {
	c.mu.Lock()
	defer c.mu.Unlock()

	k := key(err.Code, err.Component)
	e := c.entries[k]
	c.entries[k] = entry{
		err:        err,
		count:      e.count + 1,
		lastReport: c.clock.Now(),
	}
}

// ActiveError is a collector entry as exposed on the debug endpoint.
type ActiveError struct {
	APIError
	Count int `json:"count"`
}

// Active returns the errors reported within the TTL window, newest first.
func (c *Collector) Active() []ActiveError {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	result := make([]ActiveError, 0, len(c.entries))
	for k, e := range c.entries {
		if now.Sub(e.lastReport) > c.ttl {
			delete(c.entries, k)
			continue
		}
		result = append(result, ActiveError{APIError: e.err, Count: e.count})
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Timestamp > result[j].Timestamp
	})
	return result
}

// ActiveKinds returns a deduplicated, sorted list of active error kinds.
func (c *Collector) ActiveKinds() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	seen := make(map[Kind]struct{})
	kinds := make([]string, 0)
	for k, e := range c.entries {
		if now.Sub(e.lastReport) > c.ttl {
			delete(c.entries, k)
			continue
		}
		if _, ok := seen[e.err.Kind]; !ok {
			seen[e.err.Kind] = struct{}{}
			kinds = append(kinds, string(e.err.Kind))
		}
	}
	sort.Strings(kinds)
	return kinds
}

// Clear removes all tracked errors.
func (c *Collector) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]entry)
}
