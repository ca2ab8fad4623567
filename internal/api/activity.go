package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/kubeadapt/resource-insight/internal/envelope"
	insighterrors "github.com/kubeadapt/resource-insight/internal/errors"
	"github.com/kubeadapt/resource-insight/internal/transport"
	"github.com/kubeadapt/resource-insight/pkg/model"
)

// Activity reads the activity feed and moves alerts through their states.
type Activity struct {
	caller
}

func (a *Activity) RecentActivities(ctx context.Context, limit int) ([]model.Activity, error) {
	body, err := a.get(ctx, recentActivities, "/activities/recent", limitQuery(limit))
	if err != nil {
		return []model.Activity{}, err
	}
	out, _ := envelope.List[model.Activity](a.reporter, body, recentActivities)
	return out, nil
}

func (a *Activity) RecentAlerts(ctx context.Context, limit int) ([]model.Alert, error) {
	body, err := a.get(ctx, recentAlerts, "/alerts/recent", limitQuery(limit))
	if err != nil {
		return []model.Alert{}, err
	}
	out, _ := envelope.List[model.Alert](a.reporter, body, recentAlerts)
	return out, nil
}

// Alert returns one alert, or nil when the response carried none.
func (a *Activity) Alert(ctx context.Context, id model.ID) (*model.Alert, error) {
	body, err := a.get(ctx, alertDetail, idPath("/alerts", id), nil)
	if err != nil {
		return nil, err
	}
	alert, _ := envelope.Object[*model.Alert](a.reporter, body, alertDetail)
	return alert, nil
}

func (a *Activity) ResolveAlert(ctx context.Context, id model.ID) error {
	return a.put(ctx, idPath("/alerts", id, "resolve"), "alerts.resolve", nil)
}

func (a *Activity) DismissAlert(ctx context.Context, id model.ID) error {
	return a.put(ctx, idPath("/alerts", id, "dismiss"), "alerts.dismiss", nil)
}

// UpdateAlertStatus moves an alert to status.
func (a *Activity) UpdateAlertStatus(ctx context.Context, id model.ID, status model.AlertStatus) error {
	body := struct {
		Status model.AlertStatus `json:"status"`
	}{status}
	return a.put(ctx, idPath("/alerts", id, "status"), "alerts.update_status", body)
}

// Cleanup removes activities and alerts older than retentionDays. Zero
// removes all of them.
func (a *Activity) Cleanup(ctx context.Context, retentionDays int) (string, error) {
	if retentionDays < 0 {
		return "", insighterrors.Validation("activities", "retention days must not be negative")
	}
	resp, err := a.doer.Do(ctx, transport.Request{
		Method:   http.MethodDelete,
		Path:     "/activities/cleanup",
		Query:    url.Values{"retention_days": {strconv.Itoa(retentionDays)}},
		Endpoint: "activities.cleanup",
	})
	if err != nil {
		return "", err
	}
	return resp.Envelope.Text(), nil
}

func (a *Activity) put(ctx context.Context, path, endpoint string, body any) error {
	_, err := a.send(ctx, transport.Request{Method: http.MethodPut, Path: path, Body: body, Endpoint: endpoint})
	return err
}
