package store

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	insighterrors "github.com/kubeadapt/resource-insight/internal/errors"
	"github.com/kubeadapt/resource-insight/internal/observability"
)

// Member is one store refresh of an aggregate.
type Member struct {
	Name    string
	Refresh func(ctx context.Context) error
}

// MemberResult is the outcome of one member.
type MemberResult struct {
	Name     string        `json:"name"`
	OK       bool          `json:"ok"`
	Error    string        `json:"error,omitempty"`
	Status   int           `json:"status,omitempty"` // HTTP status of a server error
	Duration time.Duration `json:"duration"`
	Err      error         `json:"-"`
}

// Report is the per-member breakdown of a refresh.
type Report struct {
	Members  []MemberResult `json:"members"`
	Duration time.Duration  `json:"duration"`
}

// Failed returns the names of the members that failed.
func (r Report) Failed() []string {
	var out []string
	for _, m := range r.Members {
		if !m.OK {
			out = append(out, m.Name)
		}
	}
	return out
}

// OK reports whether every member succeeded.
func (r Report) OK() bool { return len(r.Failed()) == 0 }

func (r Report) String() string {
	return fmt.Sprintf("%d/%d members refreshed in %s", len(r.Members)-len(r.Failed()), len(r.Members), r.Duration.Round(time.Millisecond))
}

// Dashboard refreshes a set of stores together.
type Dashboard struct {
	members []Member
	metrics *observability.Metrics
	clock   insighterrors.Clock
	logger  *slog.Logger
}

// NewDashboard creates an aggregate over members. Members must keep their
// data on failure; the store Refresh methods do.
func NewDashboard(members ...Member) *Dashboard {
	return &Dashboard{
		members: members,
		clock:   insighterrors.RealClock{},
		logger:  slog.Default(),
	}
}

// WithDeps sets the metrics, clock and logger the dashboard reports to.
func (d *Dashboard) WithDeps(deps Deps) *Dashboard {
	deps = deps.withDefaults()
	d.metrics = deps.Metrics
	d.clock = deps.Clock
	d.logger = deps.Logger
	return d
}

// Members returns the member names in refresh order.
func (d *Dashboard) Members() []string {
	names := make([]string, len(d.members))
	for i, m := range d.members {
		names[i] = m.Name
	}
	return names
}

// RefreshAll runs every member concurrently and waits for all of them. A
// member failure is logged and recorded in the report; RefreshAll itself
// never fails.
func (d *Dashboard) RefreshAll(ctx context.Context) Report {
	start := d.clock.Now()
	results := make([]MemberResult, len(d.members))

	var g errgroup.Group
	for i, m := range d.members {
		g.Go(func() error {
			memberStart := d.clock.Now()
			err := m.Refresh(ctx)
			results[i] = MemberResult{
				Name:     m.Name,
				OK:       err == nil,
				Duration: d.clock.Now().Sub(memberStart),
				Err:      err,
			}
			outcome := observability.OutcomeSuccess
			if err != nil {
				results[i].Error = insighterrors.MessageOf(err)
				if ae, ok := insighterrors.As(err); ok {
					results[i].Status = ae.Status
				}
				outcome = observability.OutcomeFailed
				d.logger.Warn("dashboard member refresh failed", "member", m.Name, "error", err)
			}
			if d.metrics != nil {
				d.metrics.RefreshMembers.WithLabelValues(m.Name, outcome).Inc()
			}
			return nil
		})
	}
	_ = g.Wait()

	report := Report{Members: results, Duration: d.clock.Now().Sub(start)}
	if d.metrics != nil {
		d.metrics.RefreshDuration.Observe(report.Duration.Seconds())
	}
	if failed := report.Failed(); len(failed) > 0 {
		sort.Strings(failed)
		d.logger.Info("dashboard refreshed with failures", "failed", failed, "total", len(results))
	} else {
		d.logger.Debug("dashboard refreshed", "members", len(results), "duration", report.Duration)
	}
	return report
}
