package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kubeadapt/resource-insight/pkg/model"
)

func newAlertsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "alerts",
		Aliases: []string{"alert"},
		Short:   "List and act on alerts",
		GroupID: "resources",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			alerts, err := a.stores.Activity.FetchAlerts(cmd.Context())
			if err != nil {
				return err
			}
			return a.emit(alerts, func() { a.printer.Alerts(alerts) })
		},
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "get ID",
			Short: "Show one alert",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				alert, err := a.api.Activity.Alert(cmd.Context(), id)
				if err != nil {
					return err
				}
				if alert == nil {
					return fmt.Errorf("alert %s not found", id)
				}
				return a.emit(alert, func() { a.printer.Alerts([]model.Alert{*alert}) })
			},
		},
		newAlertActionCmd(a, "resolve", "Mark an alert resolved", func(ctx context.Context, id model.ID) error {
			return a.stores.Activity.Resolve(ctx, id)
		}),
		newAlertActionCmd(a, "dismiss", "Dismiss an alert", func(ctx context.Context, id model.ID) error {
			return a.stores.Activity.Dismiss(ctx, id)
		}),
		&cobra.Command{
			Use:       "status ID STATUS",
			Short:     "Set the status of an alert",
			Args:      cobra.ExactArgs(2),
			ValidArgs: []string{string(model.AlertActive), string(model.AlertResolved), string(model.AlertSuppressed)},
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				status := model.AlertStatus(args[1])
				switch status {
				case model.AlertActive, model.AlertResolved, model.AlertSuppressed:
				default:
					return fmt.Errorf("unknown alert status %q", args[1])
				}
				return a.stores.Activity.SetStatus(cmd.Context(), id, status)
			},
		},
	)
	return cmd
}

func newAlertActionCmd(a *app, use, short string, run func(context.Context, model.ID) error) *cobra.Command {
	return &cobra.Command{
		Use:   use + " ID",
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

func newActivitiesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "activities",
		Aliases: []string{"activity"},
		Short:   "Show the recent activity feed",
		GroupID: "resources",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			list, err := a.stores.Activity.FetchActivities(cmd.Context())
			if err != nil {
				return err
			}
			return a.emit(list, func() { a.printer.Activities(list) })
		},
	}
	cmd.AddCommand(newActivitiesCleanupCmd(a))
	return cmd
}

func newActivitiesCleanupCmd(a *app) *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Delete activities and alerts older than the retention period",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if days < 0 {
				return fmt.Errorf("--retention-days must not be negative")
			}
			prompt := fmt.Sprintf("Delete activities and alerts older than %d days?", days)
			if days == 0 {
				prompt = "Delete all activities and alerts?"
			}
			if !a.confirm(prompt) {
				fmt.Fprintln(a.stderr, "aborted")
				return nil
			}
			msg, err := a.stores.Activity.Cleanup(cmd.Context(), days)
			if err != nil {
				return err
			}
			return a.emit(map[string]string{"message": msg}, func() { a.printer.Line("%s", msg) })
		},
	}
	cmd.Flags().IntVar(&days, "retention-days", 0, "days to keep, 0 deletes everything")
	return cmd
}
