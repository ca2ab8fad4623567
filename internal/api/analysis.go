package api

import (
	"context"
	"net/url"
	"strconv"

	"github.com/kubeadapt/resource-insight/internal/envelope"
	"github.com/kubeadapt/resource-insight/pkg/model"
)

// Analysis fetches the aggregate resource analysis.
type Analysis struct {
	caller
}

// Get returns the analysis snapshot, or nil when the response carried none.
// Both the plain and the paginated response shapes are accepted; the
// paginated one also fills Pagination and Filter.
func (a *Analysis) Get(ctx context.Context, q model.AnalysisQuery) (*model.ResourceAnalysis, error) {
	query := url.Values{}
	if q.ClusterName != "" {
		query.Set("cluster_name", q.ClusterName)
	}
	if q.Page > 0 {
		query.Set("page", strconv.Itoa(q.Page))
	}
	if q.Size > 0 {
		query.Set("size", strconv.Itoa(q.Size))
	}

	body, err := a.get(ctx, analysisGet, "/analysis", query)
	if err != nil {
		return nil, err
	}

	res, ok := envelope.Object[*model.ResourceAnalysis](a.reporter, body, analysisGet)
	if !ok || res == nil {
		return nil, nil
	}
	if res.Top50Problems == nil {
		res.Top50Problems = []model.Pod{}
	}
	if pg, ok := envelope.Object[model.Pagination](a.reporter, body, analysisPagination); ok {
		res.Pagination = &pg
	}
	if f, ok := envelope.Object[model.AnalysisFilter](a.reporter, body, analysisFilter); ok {
		res.Filter = &f
	}
	return res, nil
}
