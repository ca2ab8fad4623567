package store

import (
	"context"

	"github.com/kubeadapt/resource-insight/pkg/model"
)

// ActivityAPI is the subset of api.Activity the activity store calls.
type ActivityAPI interface {
	RecentActivities(ctx context.Context, limit int) ([]model.Activity, error)
	RecentAlerts(ctx context.Context, limit int) ([]model.Alert, error)
	Alert(ctx context.Context, id model.ID) (*model.Alert, error)
	ResolveAlert(ctx context.Context, id model.ID) error
	DismissAlert(ctx context.Context, id model.ID) error
	UpdateAlertStatus(ctx context.Context, id model.ID, status model.AlertStatus) error
	Cleanup(ctx context.Context, retentionDays int) (string, error)
}

// ActivityStore holds the activity feed and recent alerts. Alert
// transitions re-read the alert from the backend before updating the list.
type ActivityStore struct {
	api        ActivityAPI
	limit      int
	activities *State[[]model.Activity]
	alerts     *State[[]model.Alert]
	notifier   Notifier
}

func NewActivityStore(a ActivityAPI, limit int, deps Deps) *ActivityStore {
	deps = deps.withDefaults()
	if limit <= 0 {
		limit = 10
	}
	return &ActivityStore{
		api:        a,
		limit:      limit,
		activities: NewState("activities", ResetOnError, func() []model.Activity { return []model.Activity{} }, deps),
		alerts:     NewState("alerts", ResetOnError, func() []model.Alert { return []model.Alert{} }, deps),
		notifier:   deps.Notifier,
	}
}

func (s *ActivityStore) Activities() *State[[]model.Activity] { return s.activities }

func (s *ActivityStore) Alerts() *State[[]model.Alert] { return s.alerts }

func (s *ActivityStore) FetchActivities(ctx context.Context) ([]model.Activity, error) {
	return s.activities.Run(ctx, func(ctx context.Context) ([]model.Activity, error) {
		return s.api.RecentActivities(ctx, s.limit)
	})
}

func (s *ActivityStore) FetchAlerts(ctx context.Context) ([]model.Alert, error) {
	return s.alerts.Run(ctx, func(ctx context.Context) ([]model.Alert, error) {
		return s.api.RecentAlerts(ctx, s.limit)
	})
}

func (s *ActivityStore) RefreshActivities(ctx context.Context) error {
	_, err := s.activities.Refresh(ctx, func(ctx context.Context) ([]model.Activity, error) {
		return s.api.RecentActivities(ctx, s.limit)
	})
	return err
}

func (s *ActivityStore) RefreshAlerts(ctx context.Context) error {
	_, err := s.alerts.Refresh(ctx, func(ctx context.Context) ([]model.Alert, error) {
		return s.api.RecentAlerts(ctx, s.limit)
	})
	return err
}

func (s *ActivityStore) Resolve(ctx context.Context, id model.ID) error {
	return s.transition(ctx, "Alert resolved", id, s.api.ResolveAlert)
}

func (s *ActivityStore) Dismiss(ctx context.Context, id model.ID) error {
	return s.transition(ctx, "Alert dismissed", id, s.api.DismissAlert)
}

func (s *ActivityStore) SetStatus(ctx context.Context, id model.ID, status model.AlertStatus) error {
	return s.transition(ctx, "Alert updated", id, func(ctx context.Context, id model.ID) error {
		return s.api.UpdateAlertStatus(ctx, id, status)
	})
}

// Cleanup removes activities and alerts older than retentionDays, zero
// meaning all, then re-reads both lists. A failed re-read is left on the
// list's own state.
func (s *ActivityStore) Cleanup(ctx context.Context, retentionDays int) (string, error) {
	msg, err := s.api.Cleanup(ctx, retentionDays)
	if err != nil {
		return "", err
	}
	s.notifier.Success("Activities cleaned up", msg)
	_ = s.RefreshActivities(ctx)
	_ = s.RefreshAlerts(ctx)
	return msg, nil
}

func (s *ActivityStore) Reset() {
	s.activities.Reset()
	s.alerts.Reset()
}

// transition calls the backend, then replaces the list entry with the alert
// as the backend now reports it. An alert that cannot be re-read is left as is.
func (s *ActivityStore) transition(ctx context.Context, title string, id model.ID, call func(context.Context, model.ID) error) error {
	err := s.alerts.Mutate(ctx, func(ctx context.Context) (func([]model.Alert) []model.Alert, error) {
		if err := call(ctx, id); err != nil {
			return nil, err
		}
		fresh, err := s.api.Alert(ctx, id)
		if err != nil || fresh == nil {
			return nil, nil
		}
		return func(list []model.Alert) []model.Alert {
			_, i := model.Find(list, id)
			if i < 0 {
				return list
			}
			out := append([]model.Alert(nil), list...)
			out[i] = *fresh
			return out
		}, nil
	})
	if err != nil {
		return err
	}
	s.notifier.Success(title, id.String())
	return nil
}
