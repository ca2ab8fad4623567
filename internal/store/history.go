package store

import (
	"context"

	"github.com/kubeadapt/resource-insight/pkg/model"
)

// HistoryAPI is the subset of api.History the history store calls.
type HistoryAPI interface {
	Collect(ctx context.Context) (string, error)
	Cleanup(ctx context.Context, retentionDays int) (string, error)
	Query(ctx context.Context, q model.HistoryQuery) (model.HistoryPage, error)
	Trends(ctx context.Context, q model.PodTrendQuery) ([]model.HistoryRecord, error)
	Statistics(ctx context.Context) (model.HistoryStatistics, error)
}

// HistoryStore holds the current page of a history query, a per-pod trend
// series and the sample totals.
type HistoryStore struct {
	api        HistoryAPI
	page       *State[model.HistoryPage]
	trends     *State[[]model.HistoryRecord]
	statistics *State[model.HistoryStatistics]
	notifier   Notifier
}

func NewHistoryStore(a HistoryAPI, deps Deps) *HistoryStore {
	deps = deps.withDefaults()
	return &HistoryStore{
		api: a,
		page: NewState("history", ResetOnError, func() model.HistoryPage {
			return model.HistoryPage{Records: []model.HistoryRecord{}}
		}, deps),
		trends:     NewState("history.trends", ResetOnError, func() []model.HistoryRecord { return []model.HistoryRecord{} }, deps),
		statistics: NewState("history.statistics", KeepOnError, func() model.HistoryStatistics { return model.HistoryStatistics{} }, deps),
		notifier:   deps.Notifier,
	}
}

func (s *HistoryStore) Page() *State[model.HistoryPage] { return s.page }

func (s *HistoryStore) Trends() *State[[]model.HistoryRecord] { return s.trends }

func (s *HistoryStore) Statistics() *State[model.HistoryStatistics] { return s.statistics }

// FetchTrends loads the samples matching q, oldest first as the backend
// orders them.
func (s *HistoryStore) FetchTrends(ctx context.Context, q model.PodTrendQuery) ([]model.HistoryRecord, error) {
	return s.trends.Run(ctx, func(ctx context.Context) ([]model.HistoryRecord, error) {
		return s.api.Trends(ctx, q)
	})
}

func (s *HistoryStore) FetchStatistics(ctx context.Context) (model.HistoryStatistics, error) {
	return s.statistics.Run(ctx, s.api.Statistics)
}

func (s *HistoryStore) Query(ctx context.Context, q model.HistoryQuery) (model.HistoryPage, error) {
	return s.page.Run(ctx, func(ctx context.Context) (model.HistoryPage, error) {
		return s.api.Query(ctx, q)
	})
}

// Collect triggers an immediate collection. The acknowledgement is
// surfaced as a notification; no state changes until the next query.
func (s *HistoryStore) Collect(ctx context.Context) (string, error) {
	msg, err := s.api.Collect(ctx)
	if err != nil {
		return "", err
	}
	s.notifier.Success("Collection triggered", msg)
	return msg, nil
}

// Cleanup prunes history older than retentionDays.
func (s *HistoryStore) Cleanup(ctx context.Context, retentionDays int) (string, error) {
	msg, err := s.api.Cleanup(ctx, retentionDays)
	if err != nil {
		return "", err
	}
	s.notifier.Success("History cleaned up", msg)
	return msg, nil
}

func (s *HistoryStore) Reset() {
	s.page.Reset()
	s.trends.Reset()
	s.statistics.Reset()
}
