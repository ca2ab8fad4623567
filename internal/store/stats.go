package store

import (
	"context"

	"github.com/kubeadapt/resource-insight/pkg/model"
)

// StatsAPI is the subset of api.Stats the stats store calls.
type StatsAPI interface {
	Get(ctx context.Context, clusterID model.ID) (model.SystemStats, error)
}

// StatsStore holds the overview counters.
type StatsStore struct {
	api   StatsAPI
	state *State[model.SystemStats]
}

func NewStatsStore(a StatsAPI, deps Deps) *StatsStore {
	return &StatsStore{
		api: a,
		state: NewState("stats", KeepOnError, func() model.SystemStats {
			return model.SystemStats{ClusterStatusDistribution: map[string]int{}}
		}, deps),
	}
}

func (s *StatsStore) State() *State[model.SystemStats] { return s.state }

// Fetch loads the counters for clusterID, or for all clusters when it is zero.
func (s *StatsStore) Fetch(ctx context.Context, clusterID model.ID) (model.SystemStats, error) {
	return s.state.Run(ctx, func(ctx context.Context) (model.SystemStats, error) {
		return s.api.Get(ctx, clusterID)
	})
}

func (s *StatsStore) Refresh(ctx context.Context) error {
	_, err := s.Fetch(ctx, 0)
	return err
}
