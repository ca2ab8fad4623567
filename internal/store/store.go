// Package store holds the client-side state fed by the resource APIs. Each
// store is an explicit value built once at startup and injected into the
// views that read it.
package store

import (
	"log/slog"
	"time"

	"github.com/kubeadapt/resource-insight/internal/api"
	insighterrors "github.com/kubeadapt/resource-insight/internal/errors"
	"github.com/kubeadapt/resource-insight/internal/observability"
)

// Notifier receives the user-facing outcome of store mutations.
type Notifier interface {
	Success(title, message string)
	Warning(title, message string)
}

type nopNotifier struct{}

func (nopNotifier) Success(string, string) {}
func (nopNotifier) Warning(string, string) {}

// Deps are the collaborators every store shares. Zero fields get defaults.
type Deps struct {
	Metrics  *observability.Metrics
	Clock    insighterrors.Clock
	Logger   *slog.Logger
	Notifier Notifier
}

func (d Deps) withDefaults() Deps {
	if d.Clock == nil {
		d.Clock = insighterrors.RealClock{}
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Notifier == nil {
		d.Notifier = nopNotifier{}
	}
	return d
}

// Options tune store behavior from configuration.
type Options struct {
	// FetchConcurrency bounds the per-cluster tests of a stats listing.
	FetchConcurrency int
	// ProblemPageSize is the default page size of problem pod queries.
	ProblemPageSize int
	// ActivityLimit is how many activities and alerts a refresh fetches.
	ActivityLimit int
}

// Stores is the set of stores backing the console and the commands.
type Stores struct {
	deps Deps

	Clusters   *ClusterStore
	Pods       *PodStore
	Analysis   *AnalysisStore
	Namespaces *NamespaceStore
	Schedule   *ScheduleStore
	History    *HistoryStore
	Trends     *TrendStore
	Stats      *StatsStore
	Activity   *ActivityStore
}

// New creates every store on top of a.
func New(a *api.API, opts Options, deps Deps) *Stores {
	deps = deps.withDefaults()
	return &Stores{
		deps:       deps,
		Clusters:   NewClusterStore(a.Clusters, opts.FetchConcurrency, deps),
		Pods:       NewPodStore(a.Pods, opts.ProblemPageSize, deps),
		Analysis:   NewAnalysisStore(a.Analysis, deps),
		Namespaces: NewNamespaceStore(a.Pods, deps),
		Schedule:   NewScheduleStore(a.Schedule, deps),
		History:    NewHistoryStore(a.History, deps),
		Trends:     NewTrendStore(a.History, deps),
		Stats:      NewStatsStore(a.Stats, deps),
		Activity:   NewActivityStore(a.Activity, opts.ActivityLimit, deps),
	}
}

// Dashboard returns the aggregate refresh over the overview page's stores.
func (s *Stores) Dashboard(trendRange string) *Dashboard {
	return NewDashboard(
		Member{Name: "clusters", Refresh: s.Clusters.Refresh},
		Member{Name: "analysis", Refresh: s.Analysis.Refresh},
		Member{Name: "stats", Refresh: s.Stats.Refresh},
		Member{Name: "trends", Refresh: s.Trends.RefreshFunc(trendRange)},
		Member{Name: "activities", Refresh: s.Activity.RefreshActivities},
		Member{Name: "alerts", Refresh: s.Activity.RefreshAlerts},
		Member{Name: "schedule", Refresh: s.Schedule.RefreshStatus},
	).WithDeps(s.deps)
}

// LastUpdatedTimes returns when each store's primary data was last replaced.
func (s *Stores) LastUpdatedTimes() map[string]time.Time {
	return map[string]time.Time{
		"clusters":   s.Clusters.List().LastUpdated(),
		"problems":   s.Pods.Problems().LastUpdated(),
		"analysis":   s.Analysis.State().LastUpdated(),
		"namespaces": s.Namespaces.Summaries().LastUpdated(),
		"jobs":       s.Schedule.Jobs().LastUpdated(),
		"history":    s.History.Page().LastUpdated(),
		"trends":     s.Trends.State().LastUpdated(),
		"stats":      s.Stats.State().LastUpdated(),
		"alerts":     s.Activity.Alerts().LastUpdated(),
	}
}

// ItemCounts returns the number of items each list store holds.
func (s *Stores) ItemCounts() map[string]int {
	return map[string]int{
		"clusters":   len(s.Clusters.List().Data()),
		"problems":   len(s.Pods.Problems().Data().Pods),
		"namespaces": len(s.Namespaces.Summaries().Data()),
		"jobs":       len(s.Schedule.Jobs().Data()),
		"history":    len(s.History.Page().Data().Records),
		"trends":     len(s.Trends.State().Data().Points),
		"activities": len(s.Activity.Activities().Data()),
		"alerts":     len(s.Activity.Alerts().Data()),
	}
}

// Errors returns the last error message of every store that has one.
func (s *Stores) Errors() map[string]string {
	out := map[string]string{}
	add := func(name, msg string) {
		if msg != "" {
			out[name] = msg
		}
	}
	add("clusters", s.Clusters.List().Err())
	add("problems", s.Pods.Problems().Err())
	add("analysis", s.Analysis.State().Err())
	add("namespaces", s.Namespaces.Summaries().Err())
	add("jobs", s.Schedule.Jobs().Err())
	add("history", s.History.Page().Err())
	add("trends", s.Trends.State().Err())
	add("stats", s.Stats.State().Err())
	add("alerts", s.Activity.Alerts().Err())
	return out
}

// Reset empties every store.
func (s *Stores) Reset() {
	s.Clusters.Reset()
	s.Pods.Reset()
	s.Analysis.State().Reset()
	s.Namespaces.Reset()
	s.Schedule.Reset()
	s.History.Reset()
	s.Trends.State().Reset()
	s.Stats.State().Reset()
	s.Activity.Reset()
}
