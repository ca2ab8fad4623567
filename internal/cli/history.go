package cli

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/kubeadapt/resource-insight/internal/store"
	"github.com/kubeadapt/resource-insight/pkg/model"
)

func newHistoryCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "history",
		Aliases: []string{"hist"},
		Short:   "Query and maintain collected history",
		GroupID: "operations",
	}
	cmd.AddCommand(
		newHistoryQueryCmd(a),
		&cobra.Command{
			Use:   "collect",
			Short: "Trigger an immediate collection of every cluster",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				msg, err := a.stores.History.Collect(cmd.Context())
				if err != nil {
					return err
				}
				return a.emit(map[string]string{"message": msg}, func() { a.printer.Line("%s", msg) })
			},
		},
		newHistoryCleanupCmd(a),
		newTrendsCmd(a),
		newPodTrendsCmd(a),
		&cobra.Command{
			Use:   "statistics",
			Short: "Show totals over all collected samples",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				stats, err := a.stores.History.FetchStatistics(cmd.Context())
				if err != nil {
					return err
				}
				return a.emit(stats, func() { a.printer.HistoryStatistics(stats) })
			},
		},
	)
	return cmd
}

func newHistoryQueryCmd(a *app) *cobra.Command {
	var (
		q          model.HistoryQuery
		clusterID  string
		start, end string
	)
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Page through history records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if clusterID != "" {
				id, err := parseID(clusterID)
				if err != nil {
					return err
				}
				q.ClusterID = id
			}
			var err error
			if q.StartTime, err = parseTime("start", start); err != nil {
				return err
			}
			if q.EndTime, err = parseTime("end", end); err != nil {
				return err
			}
			page, err := a.stores.History.Query(cmd.Context(), q)
			if err != nil {
				return err
			}
			return a.emit(page, func() { a.printer.History(&page) })
		},
	}
	f := cmd.Flags()
	f.StringVar(&clusterID, "cluster-id", "", "only this cluster")
	f.StringVarP(&q.Namespace, "namespace", "n", "", "only this namespace")
	f.StringVar(&q.PodName, "pod", "", "only this pod")
	f.StringVar(&start, "start", "", "earliest record, RFC 3339 or a duration ago like 24h")
	f.StringVar(&end, "end", "", "latest record, RFC 3339 or a duration ago")
	f.IntVar(&q.Page, "page", 1, "page number")
	f.IntVar(&q.Size, "size", 20, "page size")
	f.StringVar(&q.OrderBy, "order-by", "", "sort column")
	f.BoolVar(&q.OrderDesc, "desc", false, "sort descending")
	return cmd
}

// parseTime accepts RFC 3339 or a duration before now.
func parseTime(flag, s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return nil, fmt.Errorf("--%s: %q is neither RFC 3339 nor a duration", flag, s)
	}
	t := time.Now().Add(-d)
	return &t, nil
}

func newHistoryCleanupCmd(a *app) *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Delete history older than the retention period",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if days < 1 {
				return fmt.Errorf("--retention-days must be at least 1")
			}
			if !a.confirm(fmt.Sprintf("Delete history older than %d days?", days)) {
				fmt.Fprintln(a.stderr, "aborted")
				return nil
			}
			msg, err := a.stores.History.Cleanup(cmd.Context(), days)
			if err != nil {
				return err
			}
			return a.emit(map[string]string{"message": msg}, func() { a.printer.Line("%s", msg) })
		},
	}
	cmd.Flags().IntVar(&days, "retention-days", 30, "days of history to keep")
	return cmd
}

func newTrendsCmd(a *app) *cobra.Command {
	var rng string
	cmd := &cobra.Command{
		Use:   "trends",
		Short: "Show system-wide usage trends",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if rng == "" {
				rng = a.cfg.TrendRange
			}
			if !slices.Contains(store.TrendRanges(), rng) {
				return fmt.Errorf("--range must be one of %s", strings.Join(store.TrendRanges(), ", "))
			}
			series, err := a.stores.Trends.Fetch(cmd.Context(), rng)
			if err != nil {
				a.logger.Warn("showing placeholder trends", "error", err)
			}
			return a.emit(series, func() { a.printer.Trends(series) })
		},
	}
	cmd.Flags().StringVar(&rng, "range", "", "time range: "+strings.Join(store.TrendRanges(), ", "))
	return cmd
}

func newPodTrendsCmd(a *app) *cobra.Command {
	var (
		q         model.PodTrendQuery
		clusterID string
	)
	cmd := &cobra.Command{
		Use:   "pod-trends",
		Short: "Show the collected samples of a pod, namespace or cluster over time",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if clusterID != "" {
				id, err := parseID(clusterID)
				if err != nil {
					return err
				}
				q.ClusterID = id
			}
			if q.Hours < 0 {
				return fmt.Errorf("--hours must not be negative")
			}
			records, err := a.stores.History.FetchTrends(cmd.Context(), q)
			if err != nil {
				return err
			}
			return a.emit(records, func() { a.printer.HistoryRecords(records) })
		},
	}
	f := cmd.Flags()
	f.StringVar(&clusterID, "cluster-id", "", "only this cluster")
	f.StringVarP(&q.Namespace, "namespace", "n", "", "only this namespace")
	f.StringVar(&q.PodName, "pod", "", "only this pod")
	f.IntVar(&q.Hours, "hours", 24, "hours to look back")
	return cmd
}
