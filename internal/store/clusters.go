package store

import (
	"context"
	"log/slog"

	"github.com/kubeadapt/resource-insight/internal/observability"
	"github.com/kubeadapt/resource-insight/pkg/model"
)

// ClusterAPI is the subset of api.Clusters the cluster store calls.
type ClusterAPI interface {
	List(ctx context.Context) ([]model.Cluster, error)
	ListWithStats(ctx context.Context, concurrency int) ([]model.Cluster, error)
	Get(ctx context.Context, id model.ID) (*model.Cluster, error)
	Create(ctx context.Context, req model.CreateClusterRequest) (*model.Cluster, error)
	Update(ctx context.Context, id model.ID, req model.UpdateClusterRequest) (*model.Cluster, error)
	Delete(ctx context.Context, id model.ID) error
	Test(ctx context.Context, id model.ID) (model.ClusterTestResult, error)
	BatchTest(ctx context.Context) (map[model.ID]model.ClusterTestResult, error)
}

// ClusterStore holds the registered clusters and the one being viewed.
type ClusterStore struct {
	api         ClusterAPI
	concurrency int
	list        *State[[]model.Cluster]
	current     *State[*model.Cluster]
	notifier    Notifier
	logger      *slog.Logger
}

func NewClusterStore(a ClusterAPI, concurrency int, deps Deps) *ClusterStore {
	deps = deps.withDefaults()
	if concurrency <= 0 {
		concurrency = 4
	}
	s := &ClusterStore{
		api:         a,
		concurrency: concurrency,
		list:        NewState("clusters", ResetOnError, func() []model.Cluster { return []model.Cluster{} }, deps),
		current:     NewState("cluster", KeepOnError, func() *model.Cluster { return nil }, deps),
		notifier:    deps.Notifier,
		logger:      deps.Logger,
	}
	if deps.Metrics != nil {
		s.list.Subscribe(func(snap Snapshot[[]model.Cluster]) {
			countByStatus(deps.Metrics, snap.Data)
		})
	}
	return s
}

func (s *ClusterStore) List() *State[[]model.Cluster] { return s.list }

func (s *ClusterStore) Current() *State[*model.Cluster] { return s.current }

// Fetch replaces the list with the backend's clusters. On failure the list is
// emptied and the error returned for display.
func (s *ClusterStore) Fetch(ctx context.Context) ([]model.Cluster, error) {
	return s.list.Run(ctx, s.api.List)
}

// FetchWithStats is Fetch with a live connectivity test merged into each
// cluster.
func (s *ClusterStore) FetchWithStats(ctx context.Context) ([]model.Cluster, error) {
	return s.list.Run(ctx, func(ctx context.Context) ([]model.Cluster, error) {
		return s.api.ListWithStats(ctx, s.concurrency)
	})
}

// Refresh re-fetches the list, keeping it on failure.
func (s *ClusterStore) Refresh(ctx context.Context) error {
	_, err := s.list.Refresh(ctx, s.api.List)
	return err
}

// FetchOne loads a single cluster into Current.
func (s *ClusterStore) FetchOne(ctx context.Context, id model.ID) (*model.Cluster, error) {
	return s.current.Run(ctx, func(ctx context.Context) (*model.Cluster, error) {
		return s.api.Get(ctx, id)
	})
}

// Entry finds a cluster in the list by id in any representation.
func (s *ClusterStore) Entry(id any) (model.Cluster, bool) {
	c, i := model.Find(s.list.Data(), id)
	return c, i >= 0
}

// Create registers a cluster and appends the server's record to the list.
func (s *ClusterStore) Create(ctx context.Context, req model.CreateClusterRequest) (*model.Cluster, error) {
	var created *model.Cluster
	err := s.list.Mutate(ctx, func(ctx context.Context) (func([]model.Cluster) []model.Cluster, error) {
		c, err := s.api.Create(ctx, req)
		if err != nil {
			return nil, err
		}
		created = c
		return func(list []model.Cluster) []model.Cluster {
			if c == nil {
				return list
			}
			return upsert(list, *c)
		}, nil
	})
	if err != nil {
		return nil, err
	}
	s.notifier.Success("Cluster added", req.Name)
	return created, nil
}

// Update changes a cluster and replaces its entry with the server's record.
func (s *ClusterStore) Update(ctx context.Context, id model.ID, req model.UpdateClusterRequest) (*model.Cluster, error) {
	var updated *model.Cluster
	err := s.list.Mutate(ctx, func(ctx context.Context) (func([]model.Cluster) []model.Cluster, error) {
		c, err := s.api.Update(ctx, id, req)
		if err != nil {
			return nil, err
		}
		updated = c
		return func(list []model.Cluster) []model.Cluster {
			if c == nil {
				return list
			}
			return upsert(list, *c)
		}, nil
	})
	if err != nil {
		return nil, err
	}
	if updated != nil {
		if cur := s.current.Data(); cur != nil && cur.ID == updated.ID {
			s.current.Refresh(ctx, func(context.Context) (*model.Cluster, error) { return updated, nil })
		}
	}
	s.notifier.Success("Cluster updated", id.String())
	return updated, nil
}

// Delete removes a cluster on the backend, then from the list.
func (s *ClusterStore) Delete(ctx context.Context, id model.ID) error {
	err := s.list.Mutate(ctx, func(ctx context.Context) (func([]model.Cluster) []model.Cluster, error) {
		if err := s.api.Delete(ctx, id); err != nil {
			return nil, err
		}
		return func(list []model.Cluster) []model.Cluster {
			return remove(list, id)
		}, nil
	})
	if err != nil {
		return err
	}
	s.notifier.Success("Cluster deleted", id.String())
	return nil
}

// Test checks one cluster and merges the result into its list entry. The
// server's message is surfaced as a notification, a warning when the test
// reports failure.
func (s *ClusterStore) Test(ctx context.Context, id model.ID) (model.ClusterTestResult, error) {
	var res model.ClusterTestResult
	err := s.list.Mutate(ctx, func(ctx context.Context) (func([]model.Cluster) []model.Cluster, error) {
		r, err := s.api.Test(ctx, id)
		if err != nil {
			return nil, err
		}
		res = r
		return func(list []model.Cluster) []model.Cluster {
			return applyTest(list, id, r)
		}, nil
	})
	if err != nil {
		return res, err
	}
	if res.Success {
		s.notifier.Success("Connection test passed", res.Message)
	} else {
		s.notifier.Warning("Connection test failed", res.Message)
	}
	return res, nil
}

// BatchTest checks every cluster and merges each result.
func (s *ClusterStore) BatchTest(ctx context.Context) (map[model.ID]model.ClusterTestResult, error) {
	var results map[model.ID]model.ClusterTestResult
	err := s.list.Mutate(ctx, func(ctx context.Context) (func([]model.Cluster) []model.Cluster, error) {
		r, err := s.api.BatchTest(ctx)
		if err != nil {
			return nil, err
		}
		results = r
		return func(list []model.Cluster) []model.Cluster {
			for id, res := range r {
				list = applyTest(list, id, res)
			}
			return list
		}, nil
	})
	if err != nil {
		return nil, err
	}

	failed := 0
	for _, r := range results {
		if !r.Success {
			failed++
		}
	}
	s.logger.Info("batch connectivity test finished", "clusters", len(results), "failed", failed)
	return results, nil
}

// Reset empties the list and the current cluster.
func (s *ClusterStore) Reset() {
	s.list.Reset()
	s.current.Reset()
}

// applyTest returns a copy of list with the test result merged into the entry
// matching id.
func applyTest(list []model.Cluster, id model.ID, res model.ClusterTestResult) []model.Cluster {
	_, i := model.Find(list, id)
	if i < 0 {
		return list
	}
	out := append([]model.Cluster(nil), list...)
	r := res
	out[i].Live = &r
	if res.Status != "" {
		out[i].Status = res.Status
	}
	return out
}

func upsert(list []model.Cluster, c model.Cluster) []model.Cluster {
	out := append([]model.Cluster(nil), list...)
	if _, i := model.Find(out, c.ID); i >= 0 {
		out[i] = c
		return out
	}
	return append(out, c)
}

func remove(list []model.Cluster, id model.ID) []model.Cluster {
	out := make([]model.Cluster, 0, len(list))
	for _, c := range list {
		if c.ID != id {
			out = append(out, c)
		}
	}
	return out
}

func countByStatus(m *observability.Metrics, clusters []model.Cluster) {
	counts := map[model.ClusterStatus]int{
		model.ClusterOnline:  0,
		model.ClusterOffline: 0,
		model.ClusterError:   0,
		model.ClusterUnknown: 0,
	}
	for _, c := range clusters {
		counts[c.Status]++
	}
	for status, n := range counts {
		m.ClustersByStatus.WithLabelValues(string(status)).Set(float64(n))
	}
}
