package store

import (
	"context"
	"log/slog"

	"github.com/kubeadapt/resource-insight/pkg/model"
)

// ScheduleAPI is the subset of api.Schedule the schedule store calls.
type ScheduleAPI interface {
	Jobs(ctx context.Context) ([]model.ScheduleJobInfo, error)
	Status(ctx context.Context) (model.ScheduleStatus, error)
	StartJob(ctx context.Context, clusterID model.ID) error
	StopJob(ctx context.Context, clusterID model.ID) error
	RestartJob(ctx context.Context, clusterID model.ID) error
	StartService(ctx context.Context) error
	StopService(ctx context.Context) error
	Settings(ctx context.Context) (model.ScheduleSettings, error)
	UpdateSettings(ctx context.Context, s model.ScheduleSettings) (model.ScheduleSettings, error)
}

// ScheduleStore mirrors the backend scheduler. Job and service controls
// re-read the affected state from the backend once they succeed.
type ScheduleStore struct {
	api      ScheduleAPI
	jobs     *State[[]model.ScheduleJobInfo]
	status   *State[model.ScheduleStatus]
	settings *State[model.ScheduleSettings]
	notifier Notifier
	logger   *slog.Logger
}

func NewScheduleStore(a ScheduleAPI, deps Deps) *ScheduleStore {
	deps = deps.withDefaults()
	return &ScheduleStore{
		api:      a,
		jobs:     NewState("schedule.jobs", ResetOnError, func() []model.ScheduleJobInfo { return []model.ScheduleJobInfo{} }, deps),
		status:   NewState("schedule.status", KeepOnError, func() model.ScheduleStatus { return model.ScheduleStatus{} }, deps),
		settings: NewState("schedule.settings", KeepOnError, func() model.ScheduleSettings { return model.ScheduleSettings{} }, deps),
		notifier: deps.Notifier,
		logger:   deps.Logger,
	}
}

func (s *ScheduleStore) Jobs() *State[[]model.ScheduleJobInfo] { return s.jobs }

func (s *ScheduleStore) Status() *State[model.ScheduleStatus] { return s.status }

func (s *ScheduleStore) Settings() *State[model.ScheduleSettings] { return s.settings }

func (s *ScheduleStore) FetchJobs(ctx context.Context) ([]model.ScheduleJobInfo, error) {
	return s.jobs.Run(ctx, s.api.Jobs)
}

func (s *ScheduleStore) FetchStatus(ctx context.Context) (model.ScheduleStatus, error) {
	return s.status.Run(ctx, s.api.Status)
}

// RefreshStatus re-reads the service status for the dashboard.
func (s *ScheduleStore) RefreshStatus(ctx context.Context) error {
	_, err := s.status.Refresh(ctx, s.api.Status)
	return err
}

func (s *ScheduleStore) FetchSettings(ctx context.Context) (model.ScheduleSettings, error) {
	return s.settings.Run(ctx, s.api.Settings)
}

// UpdateSettings saves settings and stores what the backend accepted.
func (s *ScheduleStore) UpdateSettings(ctx context.Context, settings model.ScheduleSettings) error {
	err := s.settings.Mutate(ctx, func(ctx context.Context) (func(model.ScheduleSettings) model.ScheduleSettings, error) {
		saved, err := s.api.UpdateSettings(ctx, settings)
		if err != nil {
			return nil, err
		}
		return func(model.ScheduleSettings) model.ScheduleSettings { return saved }, nil
	})
	if err != nil {
		return err
	}
	s.notifier.Success("Schedule settings saved", "")
	return nil
}

func (s *ScheduleStore) StartJob(ctx context.Context, clusterID model.ID) error {
	return s.controlJob(ctx, "Job started", clusterID, s.api.StartJob)
}

func (s *ScheduleStore) StopJob(ctx context.Context, clusterID model.ID) error {
	return s.controlJob(ctx, "Job stopped", clusterID, s.api.StopJob)
}

func (s *ScheduleStore) RestartJob(ctx context.Context, clusterID model.ID) error {
	return s.controlJob(ctx, "Job restarted", clusterID, s.api.RestartJob)
}

func (s *ScheduleStore) StartService(ctx context.Context) error {
	return s.controlService(ctx, "Scheduler started", s.api.StartService)
}

func (s *ScheduleStore) StopService(ctx context.Context) error {
	return s.controlService(ctx, "Scheduler stopped", s.api.StopService)
}

func (s *ScheduleStore) Reset() {
	s.jobs.Reset()
	s.status.Reset()
	s.settings.Reset()
}

func (s *ScheduleStore) controlJob(ctx context.Context, title string, clusterID model.ID, call func(context.Context, model.ID) error) error {
	err := s.jobs.Mutate(ctx, func(ctx context.Context) (func([]model.ScheduleJobInfo) []model.ScheduleJobInfo, error) {
		return nil, call(ctx, clusterID)
	})
	if err != nil {
		return err
	}
	s.notifier.Success(title, clusterID.String())
	if _, err := s.FetchJobs(ctx); err != nil {
		s.logger.Warn("re-reading jobs after control failed", "cluster_id", clusterID, "error", err)
	}
	return nil
}

func (s *ScheduleStore) controlService(ctx context.Context, title string, call func(context.Context) error) error {
	err := s.status.Mutate(ctx, func(ctx context.Context) (func(model.ScheduleStatus) model.ScheduleStatus, error) {
		return nil, call(ctx)
	})
	if err != nil {
		return err
	}
	s.notifier.Success(title, "")
	if _, err := s.FetchStatus(ctx); err != nil {
		s.logger.Warn("re-reading scheduler status failed", "error", err)
	}
	return nil
}
