package console

import (
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/kubeadapt/resource-insight/internal/errors"
	"github.com/kubeadapt/resource-insight/internal/observability"
	"github.com/kubeadapt/resource-insight/internal/store"
)

// State is the lifecycle state of the console refresh loop.
type State string

const (
	StateStarting State = "starting"
	StateRunning  State = "running"
	StateDegraded State = "degraded"
	StateBackoff  State = "backoff"
	StateStopped  State = "stopped"
)

var allStates = []State{StateStarting, StateRunning, StateDegraded, StateBackoff, StateStopped}

const (
	rateLimitBackoff  = 30 * time.Second
	minOfflineBackoff = 5 * time.Second
	maxOfflineBackoff = 5 * time.Minute
)

// StateMachine derives the console state from refresh reports.
type StateMachine struct {
	mu           sync.RWMutex
	state        State
	reason       string
	stopErr      error
	backoffUntil time.Time
	outages      int
	clock        errors.Clock
	metrics      *observability.Metrics
}

// NewStateMachine creates a StateMachine in StateStarting.
func NewStateMachine(clock errors.Clock, metrics *observability.Metrics) *StateMachine {
	if clock == nil {
		clock = errors.RealClock{}
	}
	sm := &StateMachine{state: StateStarting, clock: clock, metrics: metrics}
	sm.publish()
	return sm
}

func (sm *StateMachine) State() State {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.state
}

// Reason is the human-readable cause of the current state.
func (sm *StateMachine) Reason() string {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.reason
}

// Err is the member error that stopped the machine, or nil.
func (sm *StateMachine) Err() error {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.stopErr
}

// TransitionTo sets the state directly.
func (sm *StateMachine) TransitionTo(state State, reason string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.state = state
	sm.reason = reason
	sm.publish()
}

// HandleReport moves the machine according to a refresh outcome:
//
//	401/403 from any member    -> stopped
//	429 from any member        -> backoff for 30s
//	every member failed        -> backoff, doubling per consecutive outage
//	some members failed        -> degraded
//	all members refreshed      -> running
func (sm *StateMachine) HandleReport(r store.Report) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	defer sm.publish()

	if sm.state == StateStopped {
		return
	}

	failed := r.Failed()
	for _, m := range r.Members {
		switch m.Status {
		case http.StatusUnauthorized, http.StatusForbidden:
			sm.state = StateStopped
			sm.reason = fmt.Sprintf("authentication failed for %s", m.Name)
			sm.stopErr = m.Err
			return
		case http.StatusTooManyRequests:
			sm.state = StateBackoff
			sm.reason = "rate limited"
			sm.backoffUntil = sm.clock.Now().Add(rateLimitBackoff)
			return
		}
	}

	switch {
	case len(r.Members) > 0 && len(failed) == len(r.Members):
		sm.outages++
		backoff := minOfflineBackoff << (sm.outages - 1)
		if backoff > maxOfflineBackoff || backoff <= 0 {
			backoff = maxOfflineBackoff
		}
		sm.state = StateBackoff
		sm.reason = "backend unreachable"
		sm.backoffUntil = sm.clock.Now().Add(backoff)
	case len(failed) > 0:
		sm.outages = 0
		sm.state = StateDegraded
		sm.reason = "refresh failed for " + strings.Join(failed, ", ")
	default:
		sm.outages = 0
		sm.state = StateRunning
		sm.reason = ""
	}
}

// IsBackoffExpired reports whether the backoff period has elapsed.
func (sm *StateMachine) IsBackoffExpired() bool {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return !sm.clock.Now().Before(sm.backoffUntil)
}

// BackoffRemaining returns the time until backoff expires, or 0.
func (sm *StateMachine) BackoffRemaining() time.Duration {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	remaining := sm.backoffUntil.Sub(sm.clock.Now())
	if remaining < 0 {
		return 0
	}
	return remaining
}

// publish mirrors the state into the ConsoleState gauge. Callers hold mu.
func (sm *StateMachine) publish() {
	if sm.metrics == nil {
		return
	}
	for _, s := range allStates {
		v := 0.0
		if s == sm.state {
			v = 1
		}
		sm.metrics.ConsoleState.WithLabelValues(string(s)).Set(v)
	}
}
