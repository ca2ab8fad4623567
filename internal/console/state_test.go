package console

import (
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/kubeadapt/resource-insight/internal/errors"
	"github.com/kubeadapt/resource-insight/internal/observability"
	"github.com/kubeadapt/resource-insight/internal/store"
)

type mockClock struct {
	mu  sync.Mutex
	now time.Time
}

func newMockClock(t time.Time) *mockClock {
	return &mockClock{now: t}
}

func (c *mockClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *mockClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func report(members ...store.MemberResult) store.Report {
	return store.Report{Members: members}
}

func ok(name string) store.MemberResult { return store.MemberResult{Name: name, OK: true} }

func failed(name string, status int) store.MemberResult {
	return store.MemberResult{Name: name, Error: "boom", Status: status}
}

func TestStateInitial(t *testing.T) {
	sm := NewStateMachine(newMockClock(time.Now()), nil)
	assert.Equal(t, StateStarting, sm.State())
	assert.Empty(t, sm.Reason())
}

func TestStateAllMembersOK(t *testing.T) {
	m := observability.NewMetrics()
	sm := NewStateMachine(newMockClock(time.Now()), m)

	sm.HandleReport(report(ok("clusters"), ok("stats")))

	assert.Equal(t, StateRunning, sm.State())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ConsoleState.WithLabelValues("running")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.ConsoleState.WithLabelValues("starting")))
}

func TestStatePartialFailureDegrades(t *testing.T) {
	sm := NewStateMachine(newMockClock(time.Now()), nil)

	sm.HandleReport(report(ok("clusters"), failed("stats", 500)))

	assert.Equal(t, StateDegraded, sm.State())
	assert.Equal(t, "refresh failed for stats", sm.Reason())

	sm.HandleReport(report(ok("clusters"), ok("stats")))
	assert.Equal(t, StateRunning, sm.State())
}

func TestStateAuthFailureStops(t *testing.T) {
	sm := NewStateMachine(newMockClock(time.Now()), nil)

	sm.HandleReport(report(ok("clusters"), failed("stats", 401)))
	assert.Equal(t, StateStopped, sm.State())

	// Stopped is terminal.
	sm.HandleReport(report(ok("clusters"), ok("stats")))
	assert.Equal(t, StateStopped, sm.State())
}

func TestStateAuthFailureKeepsCause(t *testing.T) {
	sm := NewStateMachine(newMockClock(time.Now()), nil)
	cause := &errors.APIError{Kind: errors.KindServer, Status: 403, Message: "forbidden"}

	sm.HandleReport(report(ok("clusters"), store.MemberResult{Name: "alerts", Status: 403, Err: cause}))

	assert.Equal(t, StateStopped, sm.State())
	assert.Same(t, cause, sm.Err())

	sm = NewStateMachine(newMockClock(time.Now()), nil)
	sm.HandleReport(report(failed("stats", 500)))
	assert.NoError(t, sm.Err())
}

func TestStateRateLimitedBacksOff(t *testing.T) {
	clk := newMockClock(time.Now())
	sm := NewStateMachine(clk, nil)

	sm.HandleReport(report(ok("clusters"), failed("stats", 429)))
	assert.Equal(t, StateBackoff, sm.State())
	assert.Equal(t, 30*time.Second, sm.BackoffRemaining())
	assert.False(t, sm.IsBackoffExpired())

	clk.Advance(31 * time.Second)
	assert.True(t, sm.IsBackoffExpired())
	assert.Zero(t, sm.BackoffRemaining())
}

func TestStateOutageBackoffDoubles(t *testing.T) {
	clk := newMockClock(time.Now())
	sm := NewStateMachine(clk, nil)
	down := report(failed("clusters", 0), failed("stats", 0))

	sm.HandleReport(down)
	assert.Equal(t, StateBackoff, sm.State())
	assert.Equal(t, 5*time.Second, sm.BackoffRemaining())

	sm.HandleReport(down)
	assert.Equal(t, 10*time.Second, sm.BackoffRemaining())

	for i := 0; i < 20; i++ {
		sm.HandleReport(down)
	}
	assert.Equal(t, 5*time.Minute, sm.BackoffRemaining())

	sm.HandleReport(report(ok("clusters"), ok("stats")))
	assert.Equal(t, StateRunning, sm.State())
	sm.HandleReport(down)
	assert.Equal(t, 5*time.Second, sm.BackoffRemaining(), "a recovery resets the backoff")
}

func TestStateConcurrentReports(t *testing.T) {
	sm := NewStateMachine(newMockClock(time.Now()), observability.NewMetrics())

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				sm.HandleReport(report(ok("a")))
			} else {
				sm.HandleReport(report(ok("a"), failed("b", 500)))
			}
			_ = sm.State()
		}(i)
	}
	wg.Wait()

	s := sm.State()
	assert.True(t, s == StateRunning || s == StateDegraded, "unexpected state %s", s)
}
