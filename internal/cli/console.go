package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kubeadapt/resource-insight/internal/console"
	insighterrors "github.com/kubeadapt/resource-insight/internal/errors"
	"github.com/kubeadapt/resource-insight/internal/health"
	"github.com/kubeadapt/resource-insight/internal/store"
)

func newConsoleCmd(a *app) *cobra.Command {
	var (
		rng    string
		quiet  bool
		noHTTP bool
	)
	cmd := &cobra.Command{
		Use:     "console",
		Short:   "Keep the dashboard refreshed and serve health, readiness and metrics",
		GroupID: "operations",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if rng == "" {
				rng = a.cfg.TrendRange
			}
			logger := a.logger
			logger.Info("resource-insight console starting",
				"version", Version,
				"base_url", a.cfg.BaseURL,
				"refresh_interval", a.cfg.RefreshInterval,
				"trend_range", rng,
			)

			sm := console.NewStateMachine(insighterrors.RealClock{}, a.metrics)
			c := console.New(a.stores.Dashboard(rng), sm, console.Options{
				Interval: a.cfg.RefreshInterval,
				Logger:   logger,
				OnReport: func(r store.Report) {
					if !quiet {
						a.printDashboard(r)
					}
				},
			})

			if !noHTTP {
				srv := health.NewServer(health.Options{
					Port:      a.cfg.HealthPort,
					Metrics:   a.metrics,
					Readiness: c,
					Reports:   c,
					Stores:    a.stores,
					Errors:    a.errors,
					Debug:     a.cfg.DebugEndpoints,
				})
				if err := srv.Start(); err != nil {
					return err
				}
				logger.Info("health server listening", "addr", srv.Addr(), "debug", a.cfg.DebugEndpoints)
				defer func() {
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					if err := srv.Stop(shutdownCtx); err != nil {
						logger.Error("health server shutdown error", "error", err)
					}
				}()
			}

			mon := &console.PressureMonitor{
				Threshold: 0.8,
				Interval:  30 * time.Second,
				Logger:    logger,
				OnPressure: func(ratio float64) {
					logger.Warn("memory pressure, dropping cached store data", "ratio", ratio)
					a.stores.Reset()
					runtime.GC()
				},
			}
			go mon.Run(ctx)

			err := c.Run(ctx)
			if errors.Is(err, context.Canceled) {
				logger.Info("resource-insight console stopped")
				return nil
			}
			if err == nil && sm.State() == console.StateStopped {
				if cause := sm.Err(); cause != nil {
					return fmt.Errorf("console stopped: %s: %w", sm.Reason(), cause)
				}
				return errors.New("console stopped: " + sm.Reason())
			}
			return err
		},
	}
	cmd.Flags().StringVar(&rng, "range", "", "trend range")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "do not print the dashboard after each refresh")
	cmd.Flags().BoolVar(&noHTTP, "no-http", false, "do not start the health server")
	return cmd
}

// exitCode maps an error to the process exit status: 2 for input the
// backend was never asked about, 3 for rejected credentials.
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	apiErr, ok := insighterrors.As(err)
	switch {
	case ok && apiErr.Kind == insighterrors.KindValidation:
		return 2
	case ok && (apiErr.Status == 401 || apiErr.Status == 403):
		return 3
	}
	return 1
}

// Main runs the root command and exits the process on error.
func Main() {
	cmd := NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s%v\n", cmd.ErrPrefix(), err)
		os.Exit(exitCode(err))
	}
}
