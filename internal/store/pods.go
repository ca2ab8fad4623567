package store

import (
	"context"

	"github.com/kubeadapt/resource-insight/internal/observability"
	"github.com/kubeadapt/resource-insight/pkg/model"
)

// PodAPI is the subset of api.Pods the pod store calls.
type PodAPI interface {
	Search(ctx context.Context, req model.PodSearchRequest) (model.PodSearchResult, error)
	List(ctx context.Context, page, size int) (model.PodSearchResult, error)
	Problems(ctx context.Context, q model.ProblemQuery) (model.ProblemPage, error)
	FilterOptions(ctx context.Context, cluster string) (model.FilterOptions, error)
	TopMemoryRequest(ctx context.Context, limit int) ([]model.Pod, error)
	TopCPURequest(ctx context.Context, limit int) ([]model.Pod, error)
}

// PodStore holds pod query results. Each query keeps its own pagination.
type PodStore struct {
	api      PodAPI
	pageSize int

	problems  *State[model.ProblemPage]
	search    *State[model.PodSearchResult]
	options   *State[model.FilterOptions]
	topMemory *State[[]model.Pod]
	topCPU    *State[[]model.Pod]
}

func NewPodStore(a PodAPI, pageSize int, deps Deps) *PodStore {
	deps = deps.withDefaults()
	if pageSize <= 0 {
		pageSize = 10
	}
	emptyPods := func() []model.Pod { return []model.Pod{} }
	s := &PodStore{
		api:      a,
		pageSize: pageSize,
		problems: NewState("pods.problems", ResetOnError, func() model.ProblemPage {
			return model.ProblemPage{Pods: []model.Pod{}}
		}, deps),
		search: NewState("pods.search", ResetOnError, func() model.PodSearchResult {
			return model.PodSearchResult{Pods: []model.Pod{}}
		}, deps),
		options:   NewState("pods.filter_options", KeepOnError, func() model.FilterOptions { return model.FilterOptions{} }, deps),
		topMemory: NewState("pods.top_memory", ResetOnError, emptyPods, deps),
		topCPU:    NewState("pods.top_cpu", ResetOnError, emptyPods, deps),
	}
	if deps.Metrics != nil {
		s.problems.Subscribe(func(snap Snapshot[model.ProblemPage]) {
			recordProblemPods(deps.Metrics, snap.Data)
		})
	}
	return s
}

func (s *PodStore) Problems() *State[model.ProblemPage] { return s.problems }

func (s *PodStore) SearchResults() *State[model.PodSearchResult] { return s.search }

func (s *PodStore) FilterOptions() *State[model.FilterOptions] { return s.options }

func (s *PodStore) TopMemory() *State[[]model.Pod] { return s.topMemory }

func (s *PodStore) TopCPU() *State[[]model.Pod] { return s.topCPU }

// FetchProblems loads one page of problem pods. A zero page size uses the
// configured default.
func (s *PodStore) FetchProblems(ctx context.Context, q model.ProblemQuery) (model.ProblemPage, error) {
	if q.Size <= 0 {
		q.Size = s.pageSize
	}
	if q.Page <= 0 {
		q.Page = 1
	}
	return s.problems.Run(ctx, func(ctx context.Context) (model.ProblemPage, error) {
		return s.api.Problems(ctx, q)
	})
}

func (s *PodStore) Search(ctx context.Context, req model.PodSearchRequest) (model.PodSearchResult, error) {
	return s.search.Run(ctx, func(ctx context.Context) (model.PodSearchResult, error) {
		return s.api.Search(ctx, req)
	})
}

// FetchList loads one unfiltered page into the search results.
func (s *PodStore) FetchList(ctx context.Context, page, size int) (model.PodSearchResult, error) {
	if size <= 0 {
		size = s.pageSize
	}
	return s.search.Run(ctx, func(ctx context.Context) (model.PodSearchResult, error) {
		return s.api.List(ctx, page, size)
	})
}

func (s *PodStore) FetchFilterOptions(ctx context.Context, cluster string) (model.FilterOptions, error) {
	return s.options.Run(ctx, func(ctx context.Context) (model.FilterOptions, error) {
		return s.api.FilterOptions(ctx, cluster)
	})
}

func (s *PodStore) FetchTopMemory(ctx context.Context, limit int) ([]model.Pod, error) {
	return s.topMemory.Run(ctx, func(ctx context.Context) ([]model.Pod, error) {
		return s.api.TopMemoryRequest(ctx, limit)
	})
}

func (s *PodStore) FetchTopCPU(ctx context.Context, limit int) ([]model.Pod, error) {
	return s.topCPU.Run(ctx, func(ctx context.Context) ([]model.Pod, error) {
		return s.api.TopCPURequest(ctx, limit)
	})
}

func (s *PodStore) Reset() {
	s.problems.Reset()
	s.search.Reset()
	s.options.Reset()
	s.topMemory.Reset()
	s.topCPU.Reset()
}

func recordProblemPods(m *observability.Metrics, page model.ProblemPage) {
	total := page.Pagination.Total
	if total == 0 {
		total = int64(len(page.Pods))
	}
	m.ProblemPods.Set(float64(total))
}
