// Package console runs the long-lived refresh loop that keeps every store
// current and reports its health.
package console

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/kubeadapt/resource-insight/internal/store"
)

// Refresher is an aggregate refresh, usually *store.Dashboard.
type Refresher interface {
	RefreshAll(ctx context.Context) store.Report
}

// Options configure a Console.
type Options struct {
	Interval time.Duration
	// OnReport is called after every refresh, e.g. to render the dashboard.
	OnReport func(store.Report)
	Logger   *slog.Logger
}

// Console refreshes the dashboard stores on an interval until its context
// ends or the backend rejects its credentials.
type Console struct {
	refresher Refresher
	state     *StateMachine
	opts      Options

	latest    atomic.Pointer[store.Report]
	ready     atomic.Bool
	refreshes atomic.Int64
}

func New(r Refresher, sm *StateMachine, opts Options) *Console {
	if opts.Interval <= 0 {
		opts.Interval = 30 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Console{refresher: r, state: sm, opts: opts}
}

// IsReady reports whether the first refresh has completed and the console
// is not stopped. Implements health.ReadinessChecker.
func (c *Console) IsReady() bool {
	return c.ready.Load() && c.state.State() != StateStopped
}

// LatestReport returns the most recent refresh report, or nil before the
// first refresh. Implements health.ReportProvider.
func (c *Console) LatestReport() any {
	r := c.latest.Load()
	if r == nil {
		return nil
	}
	return r
}

// State returns the loop's state machine.
func (c *Console) State() *StateMachine { return c.state }

// Refreshes is the number of completed refreshes.
func (c *Console) Refreshes() int64 { return c.refreshes.Load() }

// Run refreshes immediately, then on every tick. It returns nil when the
// state machine stops and ctx.Err() when ctx ends.
func (c *Console) Run(ctx context.Context) error {
	logger := c.opts.Logger
	logger.Info("console starting", "interval", c.opts.Interval)

	c.refresh(ctx)
	c.ready.Store(true)
	if c.state.State() == StateStopped {
		logger.Error("console stopped", "reason", c.state.Reason())
		return nil
	}

	ticker := time.NewTicker(c.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("console shutting down", "refreshes", c.refreshes.Load())
			return ctx.Err()
		case <-ticker.C:
		}

		switch state := c.state.State(); state {
		case StateBackoff:
			if !c.state.IsBackoffExpired() {
				logger.Debug("in backoff, skipping refresh", "remaining", c.state.BackoffRemaining())
				continue
			}
			c.refresh(ctx)
		case StateStopped:
			logger.Error("console stopped", "reason", c.state.Reason())
			return nil
		default:
			c.refresh(ctx)
		}

		if c.state.State() == StateStopped {
			logger.Error("console stopped", "reason", c.state.Reason())
			return nil
		}
	}
}

func (c *Console) refresh(ctx context.Context) {
	report := c.refresher.RefreshAll(ctx)
	if ctx.Err() != nil {
		return
	}
	c.latest.Store(&report)
	c.refreshes.Add(1)

	prev := c.state.State()
	c.state.HandleReport(report)
	if next := c.state.State(); next != prev {
		c.opts.Logger.Info("console state changed", "from", prev, "to", next, "reason", c.state.Reason())
	}
	if c.opts.OnReport != nil {
		c.opts.OnReport(report)
	}
}
