package store

import (
	"context"

	"github.com/kubeadapt/resource-insight/pkg/model"
)

// AnalysisAPI is the subset of api.Analysis the analysis store calls.
type AnalysisAPI interface {
	Get(ctx context.Context, q model.AnalysisQuery) (*model.ResourceAnalysis, error)
}

// AnalysisStore holds the aggregate analysis. A failed fetch keeps the
// previous snapshot.
type AnalysisStore struct {
	api   AnalysisAPI
	state *State[*model.ResourceAnalysis]
}

func NewAnalysisStore(a AnalysisAPI, deps Deps) *AnalysisStore {
	return &AnalysisStore{
		api:   a,
		state: NewState("analysis", KeepOnError, func() *model.ResourceAnalysis { return nil }, deps),
	}
}

func (s *AnalysisStore) State() *State[*model.ResourceAnalysis] { return s.state }

func (s *AnalysisStore) Fetch(ctx context.Context, q model.AnalysisQuery) (*model.ResourceAnalysis, error) {
	return s.state.Run(ctx, func(ctx context.Context) (*model.ResourceAnalysis, error) {
		return s.api.Get(ctx, q)
	})
}

// Refresh re-fetches the unfiltered snapshot.
func (s *AnalysisStore) Refresh(ctx context.Context) error {
	_, err := s.Fetch(ctx, model.AnalysisQuery{})
	return err
}
