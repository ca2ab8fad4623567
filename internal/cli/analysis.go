package cli

import (
	"github.com/spf13/cobra"

	"github.com/kubeadapt/resource-insight/pkg/model"
)

func newAnalysisCmd(a *app) *cobra.Command {
	var (
		q   model.AnalysisQuery
		exp exportFlags
	)
	cmd := &cobra.Command{
		Use:     "analysis",
		Short:   "Show the cross-cluster resource analysis",
		GroupID: "resources",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := a.stores.Analysis.Fetch(cmd.Context(), q)
			if err != nil {
				return err
			}
			var pods []model.Pod
			if res != nil {
				pods = res.Top50Problems
			}
			if done, err := exp.write(a, cmd, pods); done || err != nil {
				return err
			}
			return a.emit(res, func() { a.printer.Analysis(res) })
		},
	}
	cmd.Flags().StringVar(&q.ClusterName, "cluster", "", "only this cluster")
	cmd.Flags().IntVar(&q.Page, "page", 0, "page number, 0 for the unpaginated top 50")
	cmd.Flags().IntVar(&q.Size, "size", 0, "page size")
	exp.register(cmd)
	return cmd
}

func newNamespacesCmd(a *app) *cobra.Command {
	var cluster string
	cmd := &cobra.Command{
		Use:     "namespaces",
		Aliases: []string{"ns"},
		Short:   "Summarize pods per namespace",
		GroupID: "resources",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			list, err := a.stores.Namespaces.Fetch(cmd.Context(), cluster)
			if err != nil {
				return err
			}
			return a.emit(list, func() { a.printer.Namespaces(list) })
		},
	}
	cmd.Flags().StringVar(&cluster, "cluster", "", "only this cluster")

	cmd.AddCommand(&cobra.Command{
		Use:   "stats",
		Short: "Namespace statistics across all clusters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			list, err := a.stores.Namespaces.FetchStatistics(cmd.Context())
			if err != nil {
				return err
			}
			return a.emit(list, func() { a.printer.Namespaces(list) })
		},
	}, &cobra.Command{
		Use:   "pods NAMESPACE",
		Short: "List the pods of one namespace across all clusters",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pods, err := a.stores.Namespaces.FetchPods(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.emit(pods, func() { a.printer.Pods(pods, 1) })
		},
	}, &cobra.Command{
		Use:   "tree NAMESPACE",
		Short: "Show one namespace's rollup together with its pods",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tree, err := a.stores.Namespaces.FetchTree(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.emit(tree, func() { a.printer.NamespaceTree(tree) })
		},
	})
	return cmd
}
