// Package cli implements the insight command tree.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/kubeadapt/resource-insight/internal/api"
	"github.com/kubeadapt/resource-insight/internal/config"
	"github.com/kubeadapt/resource-insight/internal/envelope"
	insighterrors "github.com/kubeadapt/resource-insight/internal/errors"
	"github.com/kubeadapt/resource-insight/internal/notify"
	"github.com/kubeadapt/resource-insight/internal/observability"
	"github.com/kubeadapt/resource-insight/internal/store"
	"github.com/kubeadapt/resource-insight/internal/transport"
	"github.com/kubeadapt/resource-insight/internal/view"
)

// Version is set at build time.
var Version = "dev"

type app struct {
	configFile string
	output     string
	v          *viper.Viper

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	cfg      config.Config
	logger   *slog.Logger
	metrics  *observability.Metrics
	errors   *insighterrors.Collector
	notices  *notify.Center
	client   *transport.Client
	api      *api.API
	stores   *store.Stores
	printer  *view.Printer
	noticeTo *view.Printer
}

func NewRootCommand() *cobra.Command {
	return newRootCommand(os.Stdin, os.Stdout, os.Stderr)
}

func NewRootCommandWithIO(in io.Reader, out, errOut io.Writer) *cobra.Command {
	return newRootCommand(in, out, errOut)
}

func newRootCommand(in io.Reader, out, errOut io.Writer) *cobra.Command {
	a := &app{stdin: in, stdout: out, stderr: errOut}

	cmd := &cobra.Command{
		Use:           "insight",
		Short:         "Inspect Kubernetes resource requests across clusters",
		Long:          "insight talks to the cluster resource insight backend: it manages cluster targets, lists pods with unreasonable requests, and keeps a refreshed console of the overview data.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       Version,
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "config file (yaml, json or toml)")
	flags.StringVarP(&a.output, "output", "o", "table", "output format: table or json")
	flags.String("base-url", "", "backend base URL including the API prefix")
	flags.String("api-token", "", "bearer token sent to the backend")
	flags.Duration("request-timeout", 0, "per-request timeout")
	flags.Int("max-retries", 0, "retries for idempotent requests")
	flags.String("log-level", "", "debug, info, warn or error")
	flags.String("log-format", "", "text or json")
	flags.BoolP("yes", "y", false, "skip confirmation prompts")

	cmd.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		return a.init(cmd.Root().PersistentFlags())
	}

	cmd.AddGroup(
		&cobra.Group{ID: "resources", Title: "Resources:"},
		&cobra.Group{ID: "operations", Title: "Operations:"},
	)
	cmd.AddCommand(
		newClustersCmd(a),
		newPodsCmd(a),
		newAnalysisCmd(a),
		newNamespacesCmd(a),
		newStatsCmd(a),
		newAlertsCmd(a),
		newActivitiesCmd(a),
		newScheduleCmd(a),
		newHistoryCmd(a),
		newDashboardCmd(a),
		newHealthCmd(a),
		newConsoleCmd(a),
	)

	cmd.SetErrPrefix("insight: ")
	cmd.SetIn(in)
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	return cmd
}

var flagKeys = map[string]string{
	"base-url":        "base_url",
	"api-token":       "api_token",
	"request-timeout": "request_timeout",
	"max-retries":     "max_retries",
	"log-level":       "log_level",
	"log-format":      "log_format",
	"yes":             "assume_yes",
}

// init loads configuration and builds the client stack. Flags override the
// environment, which overrides the config file.
func (a *app) init(flags *pflag.FlagSet) error {
	switch a.output {
	case "table", "json":
	default:
		return fmt.Errorf("--output must be table or json, got %q", a.output)
	}

	v, err := config.New(a.configFile)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	for name, key := range flagKeys {
		if f := flags.Lookup(name); f != nil && f.Changed {
			if err := v.BindPFlag(key, f); err != nil {
				return err
			}
		}
	}
	a.v = v

	cfg := config.LoadFrom(v)
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	a.logger = config.NewLogger(cfg, a.stderr)
	a.metrics = observability.NewMetrics()
	a.errors = insighterrors.NewCollector(insighterrors.RealClock{})
	a.notices = notify.NewCenter(insighterrors.RealClock{},
		notify.WithDurations(cfg.ToastDuration, cfg.NotifyDuration),
		notify.WithMetrics(a.metrics),
		notify.WithLogger(a.logger),
	)
	a.printer = view.NewPrinter(a.stdout)
	a.noticeTo = view.NewPrinter(a.stderr)
	a.notices.OnAdd(a.noticeTo.Notification)

	a.client = transport.NewClient(&a.cfg, a.metrics, a.errors,
		transport.WithNotifier(a.notices),
		transport.WithLogger(a.logger),
	)
	a.api = api.New(a.client, envelope.LogReporter{Logger: a.logger, Metrics: a.metrics, Collector: a.errors})
	a.stores = store.New(a.api, store.Options{
		FetchConcurrency: cfg.FetchConcurrency,
		ProblemPageSize:  cfg.ProblemPageSize,
		ActivityLimit:    cfg.ActivityLimit,
	}, store.Deps{
		Metrics:  a.metrics,
		Logger:   a.logger,
		Notifier: a.notices,
	})
	return nil
}

// emit writes v as JSON in json mode, otherwise calls table.
func (a *app) emit(v any, table func()) error {
	if a.output == "json" {
		enc := json.NewEncoder(a.stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	table()
	return nil
}

// confirm asks a yes/no question on stdin unless --yes is set.
func (a *app) confirm(prompt string) bool {
	if a.cfg.AssumeYes {
		return true
	}
	fmt.Fprintf(a.stderr, "%s [y/N]: ", prompt)
	var answer string
	if _, err := fmt.Fscanln(a.stdin, &answer); err != nil {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}
