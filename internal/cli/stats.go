package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kubeadapt/resource-insight/internal/store"
	"github.com/kubeadapt/resource-insight/pkg/model"
)

func newStatsCmd(a *app) *cobra.Command {
	var clusterID string
	cmd := &cobra.Command{
		Use:     "stats",
		Short:   "Show the system overview counters",
		GroupID: "resources",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var id model.ID
			if clusterID != "" {
				var err error
				if id, err = parseID(clusterID); err != nil {
					return err
				}
			}
			s, err := a.stores.Stats.Fetch(cmd.Context(), id)
			if err != nil {
				return err
			}
			return a.emit(s, func() { a.printer.Stats(&s) })
		},
	}
	cmd.Flags().StringVar(&clusterID, "cluster-id", "", "only this cluster")
	return cmd
}

func newHealthCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "health",
		Short:   "Check that the backend answers",
		GroupID: "operations",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			h, err := a.api.System.Health(cmd.Context())
			if err != nil {
				return err
			}
			return a.emit(h, func() { a.printer.Line("%s: %s", h.Service, h.Status) })
		},
	}
}

func newDashboardCmd(a *app) *cobra.Command {
	var rng string
	cmd := &cobra.Command{
		Use:     "dashboard",
		Short:   "Refresh every overview section once and summarize it",
		GroupID: "operations",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if rng == "" {
				rng = a.cfg.TrendRange
			}
			report := a.stores.Dashboard(rng).RefreshAll(cmd.Context())
			if err := a.emit(dashboardView(a, report), func() { a.printDashboard(report) }); err != nil {
				return err
			}
			if !report.OK() {
				return fmt.Errorf("dashboard refresh failed for %v", report.Failed())
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&rng, "range", "", "trend range")
	return cmd
}

type dashboardJSON struct {
	Report     store.Report             `json:"report"`
	Stats      model.SystemStats        `json:"stats"`
	Clusters   []model.Cluster          `json:"clusters"`
	Schedule   model.ScheduleStatus     `json:"schedule"`
	Alerts     []model.Alert            `json:"alerts"`
	Activities []model.Activity         `json:"activities"`
	Analysis   *model.ResourceAnalysis  `json:"analysis"`
	Trends     store.TrendSeries        `json:"trends"`
}

func dashboardView(a *app, report store.Report) dashboardJSON {
	s := a.stores
	return dashboardJSON{
		Report:     report,
		Stats:      s.Stats.State().Data(),
		Clusters:   s.Clusters.List().Data(),
		Schedule:   s.Schedule.Status().Data(),
		Alerts:     s.Activity.Alerts().Data(),
		Activities: s.Activity.Activities().Data(),
		Analysis:   s.Analysis.State().Data(),
		Trends:     s.Trends.State().Data(),
	}
}

func (a *app) printDashboard(report store.Report) {
	s := a.stores
	p := a.printer

	stats := s.Stats.State().Data()
	p.Title("Overview")
	p.Stats(&stats)

	status := s.Schedule.Status().Data()
	p.Title("Scheduler")
	p.ScheduleStatus(&status)

	p.Title("Clusters")
	p.Clusters(s.Clusters.List().Data())

	p.Trends(s.Trends.State().Data())

	p.Title("Alerts")
	p.Alerts(s.Activity.Alerts().Data())

	p.Title("Recent activity")
	p.Activities(s.Activity.Activities().Data())

	p.Report(report)
}
