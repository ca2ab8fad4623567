package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kubeadapt/resource-insight/internal/view"
	"github.com/kubeadapt/resource-insight/pkg/model"
)

func newPodsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "pods",
		Aliases: []string{"pod", "po"},
		Short:   "Inspect pod resource configuration",
		GroupID: "resources",
	}
	cmd.AddCommand(
		newPodsProblemsCmd(a),
		newPodsSearchCmd(a),
		newPodsListCmd(a),
		newPodsTopCmd(a, "top-memory", "Pods with the largest memory requests", func(cmd *cobra.Command, limit int) ([]model.Pod, error) {
			return a.stores.Pods.FetchTopMemory(cmd.Context(), limit)
		}),
		newPodsTopCmd(a, "top-cpu", "Pods with the largest CPU requests", func(cmd *cobra.Command, limit int) ([]model.Pod, error) {
			return a.stores.Pods.FetchTopCPU(cmd.Context(), limit)
		}),
		newPodsFilterOptionsCmd(a),
	)
	return cmd
}

// exportFlags adds --export and --compress to a command that lists pods.
type exportFlags struct {
	path     string
	compress bool
}

func (f *exportFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.path, "export", "", "write the listed pods as CSV to this file")
	cmd.Flags().BoolVar(&f.compress, "compress", false, "zstd-compress the CSV export")
}

// write exports pods when --export was given. It reports whether it did.
func (f *exportFlags) write(a *app, cmd *cobra.Command, pods []model.Pod) (bool, error) {
	if f.path == "" {
		return false, nil
	}
	compress := a.cfg.ExportCompression
	if cmd.Flags().Changed("compress") {
		compress = f.compress
	}

	out, err := os.Create(f.path)
	if err != nil {
		return true, err
	}
	res, err := view.ExportPods(out, pods, view.ExportOptions{Compress: compress, Metrics: a.metrics})
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return true, fmt.Errorf("export %s: %w", f.path, err)
	}

	a.logger.Info("exported pods", "path", f.path, "rows", res.Rows, "bytes", res.WrittenBytes, "ratio", res.Ratio())
	if len(pods) == 0 {
		a.notices.Warning("Export", "no pods to export, wrote the header only")
	} else {
		a.notices.Success("Export", fmt.Sprintf("wrote %d pods to %s", res.Rows, f.path))
	}
	return true, nil
}

func newPodsProblemsCmd(a *app) *cobra.Command {
	var (
		q   model.ProblemQuery
		exp exportFlags
	)
	cmd := &cobra.Command{
		Use:   "problems",
		Short: "Page through pods flagged as unreasonable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			page, err := a.stores.Pods.FetchProblems(cmd.Context(), q)
			if err != nil {
				return err
			}
			if done, err := exp.write(a, cmd, page.Pods); done || err != nil {
				return err
			}
			return a.emit(page, func() {
				first := (page.Pagination.Page-1)*page.Pagination.Size + 1
				a.printer.Pods(page.Pods, max(first, 1))
				a.printer.Pagination(page.Pagination)
			})
		},
	}
	cmd.Flags().StringVar(&q.ClusterName, "cluster", "", "only this cluster")
	cmd.Flags().StringVar(&q.SortBy, "sort-by", "", "sort key, e.g. total_waste, cpu_waste, memory_waste")
	cmd.Flags().IntVar(&q.Page, "page", 1, "page number")
	cmd.Flags().IntVar(&q.Size, "size", 0, "page size, defaults to the configured problem page size")
	exp.register(cmd)
	return cmd
}

func newPodsSearchCmd(a *app) *cobra.Command {
	var (
		req model.PodSearchRequest
		exp exportFlags
	)
	cmd := &cobra.Command{
		Use:   "search [QUERY]",
		Short: "Search pods by name, namespace, cluster and status",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				req.Query = args[0]
			}
			res, err := a.stores.Pods.Search(cmd.Context(), req)
			if err != nil {
				return err
			}
			if done, err := exp.write(a, cmd, res.Pods); done || err != nil {
				return err
			}
			return a.emit(res, func() {
				pg := res.Pagination()
				a.printer.Pods(res.Pods, max((pg.Page-1)*pg.Size+1, 1))
				a.printer.Pagination(pg)
			})
		},
	}
	cmd.Flags().StringVarP(&req.Namespace, "namespace", "n", "", "only this namespace")
	cmd.Flags().StringVar(&req.Cluster, "cluster", "", "only this cluster")
	cmd.Flags().StringVar(&req.Status, "status", "", "only pods with this status")
	cmd.Flags().IntVar(&req.Page, "page", 1, "page number")
	cmd.Flags().IntVar(&req.Size, "size", 20, "page size")
	exp.register(cmd)
	return cmd
}

func newPodsListCmd(a *app) *cobra.Command {
	var (
		page, size int
		exp        exportFlags
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Page through every pod, unfiltered",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := a.stores.Pods.FetchList(cmd.Context(), page, size)
			if err != nil {
				return err
			}
			if done, err := exp.write(a, cmd, res.Pods); done || err != nil {
				return err
			}
			return a.emit(res, func() {
				pg := res.Pagination()
				a.printer.Pods(res.Pods, max((pg.Page-1)*pg.Size+1, 1))
				a.printer.Pagination(pg)
			})
		},
	}
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().IntVar(&size, "size", 0, "page size, 0 for the configured default")
	exp.register(cmd)
	return cmd
}

func newPodsTopCmd(a *app, use, short string, fetch func(*cobra.Command, int) ([]model.Pod, error)) *cobra.Command {
	var (
		limit   int
		cluster string
		exp     exportFlags
	)
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			pods, err := fetch(cmd, limit)
			if err != nil {
				return err
			}
			pods = view.FilterByCluster(pods, cluster)
			if done, err := exp.write(a, cmd, pods); done || err != nil {
				return err
			}
			return a.emit(pods, func() { a.printer.Pods(pods, 1) })
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 50, "number of pods")
	cmd.Flags().StringVar(&cluster, "cluster", "", "only this cluster")
	exp.register(cmd)
	return cmd
}

func newPodsFilterOptionsCmd(a *app) *cobra.Command {
	var cluster string
	cmd := &cobra.Command{
		Use:   "filter-options",
		Short: "List the namespaces, clusters and statuses pods can be filtered by",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts, err := a.stores.Pods.FetchFilterOptions(cmd.Context(), cluster)
			if err != nil {
				return err
			}
			return a.emit(opts, func() {
				a.printer.Line("clusters:   %v", opts.Clusters)
				a.printer.Line("namespaces: %v", opts.Namespaces)
				a.printer.Line("statuses:   %v", opts.Statuses)
			})
		},
	}
	cmd.Flags().StringVar(&cluster, "cluster", "", "narrow namespaces to this cluster")
	return cmd
}
