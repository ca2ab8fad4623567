package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/mcuadros/go-defaults"

	"github.com/kubeadapt/resource-insight/internal/envelope"
	"github.com/kubeadapt/resource-insight/internal/transport"
	"github.com/kubeadapt/resource-insight/pkg/model"
)

// History triggers collection and reads persisted samples.
type History struct {
	caller
}

// Collect asks the backend to collect all clusters now and returns its
// acknowledgement message.
func (h *History) Collect(ctx context.Context) (string, error) {
	resp, err := h.doer.Do(ctx, transport.Request{
		Method:   http.MethodPost,
		Path:     "/history/collect",
		Endpoint: "history.collect",
	})
	if err != nil {
		return "", err
	}
	return resp.Envelope.Text(), nil
}

// Cleanup prunes samples older than retentionDays. Zero keeps the backend
// default.
func (h *History) Cleanup(ctx context.Context, retentionDays int) (string, error) {
	var q url.Values
	if retentionDays > 0 {
		q = url.Values{"retention_days": {strconv.Itoa(retentionDays)}}
	}
	resp, err := h.doer.Do(ctx, transport.Request{
		Method:   http.MethodDelete,
		Path:     "/history/cleanup",
		Query:    q,
		Endpoint: "history.cleanup",
	})
	if err != nil {
		return "", err
	}
	return resp.Envelope.Text(), nil
}

// Query returns one page of history records. Page and size default to 1 and 20.
func (h *History) Query(ctx context.Context, q model.HistoryQuery) (model.HistoryPage, error) {
	defaults.SetDefaults(&q)
	body, err := h.send(ctx, transport.Request{
		Method:   http.MethodPost,
		Path:     "/history/query",
		Body:     q,
		Endpoint: historyQuery.Name,
	})
	if err != nil {
		return model.HistoryPage{Records: []model.HistoryRecord{}}, err
	}
	page, _ := envelope.Object[model.HistoryPage](h.reporter, body, historyQuery)
	if page.Records == nil {
		page.Records = []model.HistoryRecord{}
	}
	return page, nil
}

// SystemTrends returns the system-wide trend series over the last hours.
// An empty result is returned as is; the trend store decides on a fallback.
func (h *History) SystemTrends(ctx context.Context, hours int) ([]model.TrendPoint, error) {
	var q url.Values
	if hours > 0 {
		q = url.Values{"hours": {strconv.Itoa(hours)}}
	}
	body, err := h.get(ctx, systemTrends, "/history/system-trends", q)
	if err != nil {
		return []model.TrendPoint{}, err
	}
	points, _ := envelope.List[model.TrendPoint](h.reporter, body, systemTrends)
	return points, nil
}

// Trends returns the raw samples for one pod, namespace or cluster over the
// last q.Hours.
func (h *History) Trends(ctx context.Context, q model.PodTrendQuery) ([]model.HistoryRecord, error) {
	body, err := h.get(ctx, podTrends, "/history/trends", q.Values())
	if err != nil {
		return []model.HistoryRecord{}, err
	}
	records, _ := envelope.List[model.HistoryRecord](h.reporter, body, podTrends)
	return records, nil
}

// Statistics returns the totals over all persisted samples.
func (h *History) Statistics(ctx context.Context) (model.HistoryStatistics, error) {
	body, err := h.get(ctx, historyStatistics, "/history/statistics", nil)
	if err != nil {
		return model.HistoryStatistics{}, err
	}
	stats, _ := envelope.Object[model.HistoryStatistics](h.reporter, body, historyStatistics)
	return stats, nil
}
