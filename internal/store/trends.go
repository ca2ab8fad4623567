package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	insighterrors "github.com/kubeadapt/resource-insight/internal/errors"
	"github.com/kubeadapt/resource-insight/pkg/model"
)

// TrendAPI is the subset of api.History the trend store calls.
type TrendAPI interface {
	SystemTrends(ctx context.Context, hours int) ([]model.TrendPoint, error)
}

// TrendSeries is the chart series for one range. Synthetic marks a
// placeholder series built because the backend had no usable data.
type TrendSeries struct {
	Range     string             `json:"range"`
	Points    []model.TrendPoint `json:"points"`
	Synthetic bool               `json:"synthetic"`
}

type trendRange struct {
	hours  int
	points int
	step   time.Duration
	layout string
}

var trendRanges = map[string]trendRange{
	"1h":  {hours: 1, points: 6, step: 10 * time.Minute, layout: "15:04"},
	"6h":  {hours: 6, points: 6, step: time.Hour, layout: "15:04"},
	"24h": {hours: 24, points: 6, step: 4 * time.Hour, layout: "15:04"},
	"7d":  {hours: 7 * 24, points: 7, step: 24 * time.Hour, layout: "01-02"},
}

// DefaultTrendRange is used for unknown ranges.
const DefaultTrendRange = "24h"

// TrendStore holds the system trend series. An empty or failed fetch never
// leaves charts empty: a deterministic placeholder series is stored instead.
type TrendStore struct {
	api    TrendAPI
	state  *State[TrendSeries]
	clock  insighterrors.Clock
	logger *slog.Logger
}

func NewTrendStore(a TrendAPI, deps Deps) *TrendStore {
	deps = deps.withDefaults()
	return &TrendStore{
		api: a,
		state: NewState("trends", KeepOnError, func() TrendSeries {
			return TrendSeries{Range: DefaultTrendRange, Points: []model.TrendPoint{}}
		}, deps),
		clock:  deps.Clock,
		logger: deps.Logger,
	}
}

func (s *TrendStore) State() *State[TrendSeries] { return s.state }

// Fetch loads the series for rng ("1h", "6h", "24h", "7d"). A backend error
// is returned for display, but the stored series is the placeholder.
func (s *TrendStore) Fetch(ctx context.Context, rng string) (TrendSeries, error) {
	if _, ok := trendRanges[rng]; !ok {
		rng = DefaultTrendRange
	}
	var fetchErr error
	series, err := s.state.Run(ctx, func(ctx context.Context) (TrendSeries, error) {
		points, err := s.api.SystemTrends(ctx, trendRanges[rng].hours)
		if err != nil {
			fetchErr = err
			s.logger.Warn("trend fetch failed, using placeholder series", "range", rng, "error", err)
			return Synthesize(rng, s.clock.Now()), nil
		}
		if len(points) == 0 {
			return Synthesize(rng, s.clock.Now()), nil
		}
		return TrendSeries{Range: rng, Points: points}, nil
	})
	if err != nil {
		return series, err
	}
	return series, fetchErr
}

// RefreshFunc returns a dashboard member refreshing rng.
func (s *TrendStore) RefreshFunc(rng string) func(context.Context) error {
	return func(ctx context.Context) error {
		_, err := s.Fetch(ctx, rng)
		return err
	}
}

// Synthesize builds the placeholder series for rng, ending at now. Point i
// has cpu 45+10*(i%3), memory 60+5*(i%2) and 120+4*i pods.
func Synthesize(rng string, now time.Time) TrendSeries {
	r, ok := trendRanges[rng]
	if !ok {
		rng = DefaultTrendRange
		r = trendRanges[rng]
	}
	points := make([]model.TrendPoint, r.points)
	for i := range points {
		at := now.Add(-time.Duration(r.points-1-i) * r.step)
		points[i] = model.TrendPoint{
			Time:   at.Format(r.layout),
			CPU:    float64(45 + 10*(i%3)),
			Memory: float64(60 + 5*(i%2)),
			Pods:   120 + 4*i,
		}
	}
	return TrendSeries{Range: rng, Points: points, Synthetic: true}
}

// TrendRanges lists the supported ranges in display order.
func TrendRanges() []string {
	return []string{"1h", "6h", "24h", "7d"}
}

func (t TrendSeries) String() string {
	kind := "live"
	if t.Synthetic {
		kind = "placeholder"
	}
	return fmt.Sprintf("%s %s series, %d points", t.Range, kind, len(t.Points))
}
