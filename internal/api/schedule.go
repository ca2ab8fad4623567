package api

import (
	"context"
	"net/http"

	"github.com/kubeadapt/resource-insight/internal/envelope"
	"github.com/kubeadapt/resource-insight/internal/transport"
	"github.com/kubeadapt/resource-insight/pkg/model"
)

// Schedule controls the backend's per-cluster collection jobs.
type Schedule struct {
	caller
}

func (s *Schedule) Jobs(ctx context.Context) ([]model.ScheduleJobInfo, error) {
	body, err := s.get(ctx, scheduleJobs, "/schedule/jobs", nil)
	if err != nil {
		return []model.ScheduleJobInfo{}, err
	}
	jobs, _ := envelope.List[model.ScheduleJobInfo](s.reporter, body, scheduleJobs)
	return jobs, nil
}

// Status summarizes the scheduler service and its jobs.
func (s *Schedule) Status(ctx context.Context) (model.ScheduleStatus, error) {
	body, err := s.get(ctx, scheduleStatus, "/schedule/status", nil)
	if err != nil {
		return model.ScheduleStatus{}, err
	}
	st, _ := envelope.Object[model.ScheduleStatus](s.reporter, body, scheduleStatus)
	return st, nil
}

func (s *Schedule) StartJob(ctx context.Context, clusterID model.ID) error {
	return s.post(ctx, idPath("/schedule/jobs", clusterID, "start"), "schedule.start_job")
}

func (s *Schedule) StopJob(ctx context.Context, clusterID model.ID) error {
	return s.post(ctx, idPath("/schedule/jobs", clusterID, "stop"), "schedule.stop_job")
}

func (s *Schedule) RestartJob(ctx context.Context, clusterID model.ID) error {
	return s.post(ctx, idPath("/schedule/jobs", clusterID, "restart"), "schedule.restart_job")
}

// StartService starts the scheduler service as a whole.
func (s *Schedule) StartService(ctx context.Context) error {
	return s.post(ctx, "/schedule/start", "schedule.start")
}

// StopService stops the scheduler service as a whole.
func (s *Schedule) StopService(ctx context.Context) error {
	return s.post(ctx, "/schedule/stop", "schedule.stop")
}

func (s *Schedule) Settings(ctx context.Context) (model.ScheduleSettings, error) {
	body, err := s.get(ctx, scheduleSettings, "/schedule/settings", nil)
	if err != nil {
		return model.ScheduleSettings{}, err
	}
	settings, _ := envelope.Object[model.ScheduleSettings](s.reporter, body, scheduleSettings)
	return settings, nil
}

// UpdateSettings replaces the global settings. It returns the settings the
// backend echoes, or the submitted ones when it echoes nothing.
func (s *Schedule) UpdateSettings(ctx context.Context, settings model.ScheduleSettings) (model.ScheduleSettings, error) {
	body, err := s.send(ctx, transport.Request{
		Method:   http.MethodPut,
		Path:     "/schedule/settings",
		Body:     settings,
		Endpoint: scheduleSettingsUpdate.Name,
	})
	if err != nil {
		return model.ScheduleSettings{}, err
	}
	if echoed, ok := envelope.Object[model.ScheduleSettings](s.reporter, body, scheduleSettingsUpdate); ok {
		return echoed, nil
	}
	return settings, nil
}

func (s *Schedule) post(ctx context.Context, path, endpoint string) error {
	_, err := s.send(ctx, transport.Request{Method: http.MethodPost, Path: path, Endpoint: endpoint})
	return err
}
