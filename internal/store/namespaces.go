package store

import (
	"context"

	"github.com/kubeadapt/resource-insight/pkg/model"
)

// NamespaceAPI is the subset of api.Pods the namespace store calls.
type NamespaceAPI interface {
	NamespaceSummary(ctx context.Context) ([]model.NamespaceSummary, error)
	NamespacesSummary(ctx context.Context, clusterName string) ([]model.NamespaceSummary, error)
	NamespacePods(ctx context.Context, namespace string) ([]model.Pod, error)
	NamespaceTree(ctx context.Context, namespace string) (model.NamespaceTree, error)
}

// NamespaceStore holds namespace rollups and the drill-down into one
// namespace.
type NamespaceStore struct {
	api        NamespaceAPI
	summaries  *State[[]model.NamespaceSummary]
	statistics *State[[]model.NamespaceSummary]
	pods       *State[[]model.Pod]
	tree       *State[model.NamespaceTree]
}

func NewNamespaceStore(a NamespaceAPI, deps Deps) *NamespaceStore {
	empty := func() []model.NamespaceSummary { return []model.NamespaceSummary{} }
	return &NamespaceStore{
		api:        a,
		summaries:  NewState("namespaces", ResetOnError, empty, deps),
		statistics: NewState("namespaces.statistics", ResetOnError, empty, deps),
		pods:       NewState("namespaces.pods", ResetOnError, func() []model.Pod { return []model.Pod{} }, deps),
		tree: NewState("namespaces.tree", ResetOnError, func() model.NamespaceTree {
			return model.NamespaceTree{Children: []model.Pod{}}
		}, deps),
	}
}

func (s *NamespaceStore) Summaries() *State[[]model.NamespaceSummary] { return s.summaries }

func (s *NamespaceStore) Statistics() *State[[]model.NamespaceSummary] { return s.statistics }

func (s *NamespaceStore) Pods() *State[[]model.Pod] { return s.pods }

func (s *NamespaceStore) Tree() *State[model.NamespaceTree] { return s.tree }

// Fetch loads namespace summaries, limited to clusterName when set.
func (s *NamespaceStore) Fetch(ctx context.Context, clusterName string) ([]model.NamespaceSummary, error) {
	return s.summaries.Run(ctx, func(ctx context.Context) ([]model.NamespaceSummary, error) {
		return s.api.NamespacesSummary(ctx, clusterName)
	})
}

// FetchStatistics loads the cross-cluster namespace rollup.
func (s *NamespaceStore) FetchStatistics(ctx context.Context) ([]model.NamespaceSummary, error) {
	return s.statistics.Run(ctx, s.api.NamespaceSummary)
}

func (s *NamespaceStore) FetchPods(ctx context.Context, namespace string) ([]model.Pod, error) {
	return s.pods.Run(ctx, func(ctx context.Context) ([]model.Pod, error) {
		return s.api.NamespacePods(ctx, namespace)
	})
}

func (s *NamespaceStore) FetchTree(ctx context.Context, namespace string) (model.NamespaceTree, error) {
	return s.tree.Run(ctx, func(ctx context.Context) (model.NamespaceTree, error) {
		return s.api.NamespaceTree(ctx, namespace)
	})
}

func (s *NamespaceStore) Reset() {
	s.summaries.Reset()
	s.statistics.Reset()
	s.pods.Reset()
	s.tree.Reset()
}
