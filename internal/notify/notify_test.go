package notify

import (
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kubeadapt/resource-insight/internal/observability"
)

type mockClock struct {
	mu  sync.Mutex
	now time.Time
}

func (m *mockClock) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

func (m *mockClock) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = m.now.Add(d)
}

func TestCenter_DefaultDurations(t *testing.T) {
	clock := &mockClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewCenter(clock)

	c.NotifyError("Request failed", "network unreachable")
	c.Success("Cluster added", "prod")

	active := c.Active()
	require.Len(t, active, 2)
	assert.Equal(t, TypeError, active[0].Type)
	assert.Equal(t, DefaultToastDuration, active[0].Duration)
	assert.Equal(t, DefaultNotifyDuration, active[1].Duration)
	assert.NotEqual(t, active[0].ID, active[1].ID)

	clock.Advance(3 * time.Second)
	active = c.Active()
	require.Len(t, active, 1)
	assert.Equal(t, "Cluster added", active[0].Title)

	clock.Advance(2 * time.Second)
	assert.Empty(t, c.Active())
}

func TestCenter_StickyAndDismiss(t *testing.T) {
	clock := &mockClock{now: time.Now()}
	c := NewCenter(clock)

	sticky := c.Add(TypeInfo, "Maintenance", "scheduler paused", 0)
	clock.Advance(24 * time.Hour)
	require.Len(t, c.Active(), 1)

	assert.True(t, c.Dismiss(sticky.ID))
	assert.False(t, c.Dismiss(sticky.ID))
	assert.Empty(t, c.Active())
}

func TestCenter_MetricsAndListeners(t *testing.T) {
	m := observability.NewMetrics()
	c := NewCenter(nil, WithMetrics(m), WithDurations(time.Second, 2*time.Second))

	var seen []Notification
	c.OnAdd(func(n Notification) { seen = append(seen, n) })

	c.Warning("Connection test failed", "refused")
	c.Error("Export failed", "disk full")
	c.Info("Refreshed", "")

	require.Len(t, seen, 3)
	assert.Equal(t, 2*time.Second, seen[0].Duration)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.NotificationsTotal.WithLabelValues("warning")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.NotificationsTotal.WithLabelValues("error")))

	c.Clear()
	assert.Empty(t, c.Active())
}

func TestCenter_ListenerAddedDuringDelivery(t *testing.T) {
	c := NewCenter(nil)

	var outer, inner int
	c.OnAdd(func(Notification) {
		outer++
		if outer == 1 {
			c.OnAdd(func(Notification) { inner++ })
		}
	})

	c.Success("first", "")
	assert.Equal(t, 1, outer)
	assert.Equal(t, 0, inner, "a listener registered during delivery waits for the next notification")

	c.Success("second", "")
	assert.Equal(t, 2, outer)
	assert.Equal(t, 1, inner)
}
