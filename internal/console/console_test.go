package console

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kubeadapt/resource-insight/internal/store"
)

type scriptedRefresher struct {
	mu      sync.Mutex
	reports []store.Report
	calls   atomic.Int32
}

func (r *scriptedRefresher) RefreshAll(context.Context) store.Report {
	n := int(r.calls.Add(1))
	r.mu.Lock()
	defer r.mu.Unlock()
	if n <= len(r.reports) {
		return r.reports[n-1]
	}
	return r.reports[len(r.reports)-1]
}

func newTestConsole(r Refresher, onReport func(store.Report)) *Console {
	sm := NewStateMachine(nil, nil)
	return New(r, sm, Options{Interval: 5 * time.Millisecond, OnReport: onReport})
}

func TestConsole_NotReadyBeforeFirstRefresh(t *testing.T) {
	c := newTestConsole(&scriptedRefresher{reports: []store.Report{report(ok("a"))}}, nil)
	assert.False(t, c.IsReady())
	assert.Nil(t, c.LatestReport())
}

func TestConsole_RefreshesUntilCanceled(t *testing.T) {
	r := &scriptedRefresher{reports: []store.Report{report(ok("clusters"), failed("stats", 500)), report(ok("clusters"), ok("stats"))}}
	var seen atomic.Int32
	c := newTestConsole(r, func(store.Report) { seen.Add(1) })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	require.Eventually(t, func() bool { return r.calls.Load() >= 3 }, 2*time.Second, time.Millisecond)
	assert.True(t, c.IsReady())
	assert.Equal(t, StateRunning, c.State().State())
	require.NotNil(t, c.LatestReport())

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.GreaterOrEqual(t, seen.Load(), int32(3))
	assert.Equal(t, int64(seen.Load()), c.Refreshes())
}

func TestConsole_StopsOnAuthFailure(t *testing.T) {
	r := &scriptedRefresher{reports: []store.Report{report(ok("clusters")), report(failed("clusters", 403))}}
	c := newTestConsole(r, nil)

	done := make(chan error, 1)
	go func() { done <- c.Run(context.Background()) }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after 403")
	}
	assert.Equal(t, StateStopped, c.State().State())
	assert.False(t, c.IsReady())
	assert.Equal(t, int32(2), r.calls.Load())
}

func TestConsole_SkipsRefreshDuringBackoff(t *testing.T) {
	r := &scriptedRefresher{reports: []store.Report{report(failed("clusters", 429))}}
	c := newTestConsole(r, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_ = c.Run(ctx)

	// The 30s rate-limit backoff outlasts the test, so only the initial
	// refresh ran.
	assert.Equal(t, int32(1), r.calls.Load())
	assert.Equal(t, StateBackoff, c.State().State())
}
