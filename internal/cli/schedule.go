package cli

import (
	"context"
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/kubeadapt/resource-insight/pkg/model"
)

func newScheduleCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "schedule",
		Aliases: []string{"sched"},
		Short:   "Control the backend collection scheduler",
		GroupID: "operations",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "jobs",
			Short: "List collection jobs",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				jobs, err := a.stores.Schedule.FetchJobs(cmd.Context())
				if err != nil {
					return err
				}
				return a.emit(jobs, func() { a.printer.ScheduleJobs(jobs) })
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show the scheduler service status",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				st, err := a.stores.Schedule.FetchStatus(cmd.Context())
				if err != nil {
					return err
				}
				return a.emit(st, func() { a.printer.ScheduleStatus(&st) })
			},
		},
		newJobCmd(a, "start-job", "Start the collection job of a cluster", func(ctx context.Context, id model.ID) error {
			return a.stores.Schedule.StartJob(ctx, id)
		}),
		newJobCmd(a, "stop-job", "Stop the collection job of a cluster", func(ctx context.Context, id model.ID) error {
			return a.stores.Schedule.StopJob(ctx, id)
		}),
		newJobCmd(a, "restart-job", "Restart the collection job of a cluster", func(ctx context.Context, id model.ID) error {
			return a.stores.Schedule.RestartJob(ctx, id)
		}),
		&cobra.Command{
			Use:   "start",
			Short: "Start the scheduler service",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return a.stores.Schedule.StartService(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "stop",
			Short: "Stop the scheduler service",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return a.stores.Schedule.StopService(cmd.Context())
			},
		},
		newScheduleSettingsCmd(a),
	)
	return cmd
}

func newJobCmd(a *app, use, short string, run func(context.Context, model.ID) error) *cobra.Command {
	return &cobra.Command{
		Use:   use + " CLUSTER_ID",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return run(cmd.Context(), id)
		},
	}
}

var settingFlags = []string{
	"enabled", "default-interval", "max-concurrent-jobs", "retry-max-attempts",
	"retry-interval", "enable-persistence", "health-check-interval",
}

func newScheduleSettingsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show the scheduler settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.stores.Schedule.FetchSettings(cmd.Context())
			if err != nil {
				return err
			}
			return a.emit(s, func() { a.printer.ScheduleSettings(&s) })
		},
	}

	var next model.ScheduleSettings
	set := &cobra.Command{
		Use:   "set",
		Short: "Change scheduler settings; unset flags keep their current value",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fs := cmd.Flags()
			if !slices.ContainsFunc(settingFlags, fs.Changed) {
				return fmt.Errorf("no settings given")
			}
			cur, err := a.stores.Schedule.FetchSettings(cmd.Context())
			if err != nil {
				return err
			}
			if fs.Changed("enabled") {
				cur.Enabled = next.Enabled
			}
			if fs.Changed("default-interval") {
				cur.DefaultInterval = next.DefaultInterval
			}
			if fs.Changed("max-concurrent-jobs") {
				cur.MaxConcurrentJobs = next.MaxConcurrentJobs
			}
			if fs.Changed("retry-max-attempts") {
				cur.RetryMaxAttempts = next.RetryMaxAttempts
			}
			if fs.Changed("retry-interval") {
				cur.RetryInterval = next.RetryInterval
			}
			if fs.Changed("enable-persistence") {
				cur.EnablePersistence = next.EnablePersistence
			}
			if fs.Changed("health-check-interval") {
				cur.HealthCheckInterval = next.HealthCheckInterval
			}
			if err := a.stores.Schedule.UpdateSettings(cmd.Context(), cur); err != nil {
				return err
			}
			saved := a.stores.Schedule.Settings().Data()
			return a.emit(saved, func() { a.printer.ScheduleSettings(&saved) })
		},
	}
	f := set.Flags()
	f.BoolVar(&next.Enabled, "enabled", true, "enable scheduled collection")
	f.DurationVar(&next.DefaultInterval, "default-interval", 0, "default collection interval")
	f.IntVar(&next.MaxConcurrentJobs, "max-concurrent-jobs", 0, "maximum concurrently running jobs")
	f.IntVar(&next.RetryMaxAttempts, "retry-max-attempts", 0, "retries of a failed collection")
	f.DurationVar(&next.RetryInterval, "retry-interval", 0, "wait between retries")
	f.BoolVar(&next.EnablePersistence, "enable-persistence", false, "persist collected data")
	f.DurationVar(&next.HealthCheckInterval, "health-check-interval", 0, "interval of the scheduler health check")
	cmd.AddCommand(set)
	return cmd
}
