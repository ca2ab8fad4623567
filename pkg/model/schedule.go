package model

import "time"

// JobStatus is the backend scheduler's state for one cluster's job.
type JobStatus string

const (
	JobRunning   JobStatus = "running"
	JobStopped   JobStatus = "stopped"
	JobError     JobStatus = "error"
	JobSuspended JobStatus = "suspended"
)

// ScheduleJobInfo reflects a per-cluster background collection job.
type ScheduleJobInfo struct {
	ClusterID      ID            `json:"cluster_id"`
	ClusterName    string        `json:"cluster_name"`
	Interval       time.Duration `json:"interval"`
	LastRun        time.Time     `json:"last_run"`
	NextRun        time.Time     `json:"next_run"`
	Status         JobStatus     `json:"status"`
	ErrorCount     int           `json:"error_count"`
	LastError      string        `json:"last_error"`
	TotalRuns      int64         `json:"total_runs"`
	SuccessfulRuns int64         `json:"successful_runs"`
}

func (j ScheduleJobInfo) Identity() ID { return j.ClusterID }

// ScheduleSettings are the scheduler's global settings. Durations travel as
// nanoseconds.
type ScheduleSettings struct {
	Enabled             bool          `json:"enabled"`
	DefaultInterval     time.Duration `json:"default_interval"`
	MaxConcurrentJobs   int           `json:"max_concurrent_jobs"`
	RetryMaxAttempts    int           `json:"retry_max_attempts"`
	RetryInterval       time.Duration `json:"retry_interval"`
	EnablePersistence   bool          `json:"enable_persistence"`
	HealthCheckInterval time.Duration `json:"health_check_interval"`
}

// ScheduleStatus summarizes the scheduler service.
type ScheduleStatus struct {
	ServiceRunning bool             `json:"service_running"`
	TotalJobs      int              `json:"total_jobs"`
	RunningJobs    int              `json:"running_jobs"`
	ErrorJobs      int              `json:"error_jobs"`
	SuspendedJobs  int              `json:"suspended_jobs"`
	StoppedJobs    int              `json:"stopped_jobs"`
	GlobalSettings ScheduleSettings `json:"global_settings"`
}
