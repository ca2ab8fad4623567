package api

import (
	"context"
	"net/url"

	"github.com/kubeadapt/resource-insight/internal/envelope"
	"github.com/kubeadapt/resource-insight/pkg/model"
)

// Stats fetches the overview counters.
type Stats struct {
	caller
}

// Get returns the counters for one cluster, or for all when clusterID is zero.
func (s *Stats) Get(ctx context.Context, clusterID model.ID) (model.SystemStats, error) {
	var q url.Values
	if !clusterID.IsZero() {
		q = url.Values{"cluster_id": {clusterID.String()}}
	}
	body, err := s.get(ctx, statsGet, "/stats", q)
	if err != nil {
		return model.SystemStats{ClusterStatusDistribution: map[string]int{}}, err
	}
	stats, _ := envelope.Object[model.SystemStats](s.reporter, body, statsGet)
	if stats.ClusterStatusDistribution == nil {
		stats.ClusterStatusDistribution = map[string]int{}
	}
	return stats, nil
}

// Health is the backend's liveness answer.
type Health struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

// System reaches the backend's service endpoints.
type System struct {
	caller
}

// Health pings the backend.
func (s *System) Health(ctx context.Context) (Health, error) {
	body, err := s.get(ctx, healthGet, "/health", nil)
	if err != nil {
		return Health{}, err
	}
	h, _ := envelope.Object[Health](s.reporter, body, healthGet)
	return h, nil
}
