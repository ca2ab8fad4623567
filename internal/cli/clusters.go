package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/kubeadapt/resource-insight/internal/view"
	"github.com/kubeadapt/resource-insight/pkg/model"
)

func newClustersCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "clusters",
		Aliases: []string{"cluster", "cl"},
		Short:   "Manage registered clusters",
		GroupID: "resources",
	}
	cmd.AddCommand(
		newClustersListCmd(a),
		newClustersGetCmd(a),
		newClustersAddCmd(a),
		newClustersUpdateCmd(a),
		newClustersDeleteCmd(a),
		newClustersTestCmd(a),
		newClustersTestAllCmd(a),
	)
	return cmd
}

func parseID(arg string) (model.ID, error) {
	id, ok := model.ParseID(arg)
	if !ok {
		return 0, fmt.Errorf("invalid id %q", arg)
	}
	return id, nil
}

func newClustersListCmd(a *app) *cobra.Command {
	var withStats bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List clusters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fetch := a.stores.Clusters.Fetch
			if withStats {
				fetch = a.stores.Clusters.FetchWithStats
			}
			clusters, err := fetch(cmd.Context())
			if err != nil {
				return err
			}
			return a.emit(clusters, func() { a.printer.Clusters(clusters) })
		},
	}
	cmd.Flags().BoolVar(&withStats, "stats", false, "check every cluster for live node and pod counts")
	return cmd
}

func newClustersGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get ID",
		Short: "Show one cluster",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			c, err := a.stores.Clusters.FetchOne(cmd.Context(), id)
			if err != nil {
				return err
			}
			if c == nil {
				return fmt.Errorf("cluster %s not found", id)
			}
			return a.emit(c, func() { a.printer.Clusters([]model.Cluster{*c}) })
		},
	}
}

// clusterFlags are the form fields of add and update.
type clusterFlags struct {
	name           string
	alias          string
	apiServer      string
	authType       string
	token          string
	certFile       string
	keyFile        string
	caFile         string
	kubeconfigFile string
	interval       int
	tags           []string
	testFirst      bool
}

func (f *clusterFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.name, "name", "", "cluster name")
	fs.StringVar(&f.alias, "alias", "", "display alias")
	fs.StringVar(&f.apiServer, "api-server", "", "Kubernetes API server URL")
	fs.StringVar(&f.authType, "auth-type", "", "token, cert or kubeconfig")
	fs.StringVar(&f.token, "token", "", "bearer token (token auth)")
	fs.StringVar(&f.certFile, "cert-file", "", "client certificate PEM file (cert auth)")
	fs.StringVar(&f.keyFile, "key-file", "", "client key PEM file (cert auth)")
	fs.StringVar(&f.caFile, "ca-file", "", "CA certificate PEM file (cert auth)")
	fs.StringVar(&f.kubeconfigFile, "kubeconfig-file", "", "kubeconfig file (kubeconfig auth)")
	fs.IntVar(&f.interval, "interval", 0, "collect interval in minutes")
	fs.StringSliceVar(&f.tags, "tag", nil, "tag, repeatable")
	fs.BoolVar(&f.testFirst, "test", false, "test the connection before saving")
}

// apply copies the flags set on the command line into form.
func (f *clusterFlags) apply(fs *pflag.FlagSet, form *model.CreateClusterRequest) error {
	set := func(name string) bool { return fs.Changed(name) }
	if set("name") {
		form.Name = f.name
	}
	if set("alias") {
		form.Alias = f.alias
	}
	if set("api-server") {
		form.APIServer = f.apiServer
	}
	if set("auth-type") {
		form.AuthType = model.AuthType(f.authType)
	}
	if set("interval") {
		form.CollectInterval = f.interval
	}
	if set("tag") {
		form.Tags = f.tags
	}
	if set("token") {
		form.AuthConfig.BearerToken = f.token
	}
	files := []struct {
		flag string
		path string
		dst  *string
	}{
		{"cert-file", f.certFile, &form.AuthConfig.ClientCert},
		{"key-file", f.keyFile, &form.AuthConfig.ClientKey},
		{"ca-file", f.caFile, &form.AuthConfig.CACert},
		{"kubeconfig-file", f.kubeconfigFile, &form.AuthConfig.Kubeconfig},
	}
	for _, file := range files {
		if !set(file.flag) {
			continue
		}
		b, err := os.ReadFile(file.path)
		if err != nil {
			return fmt.Errorf("--%s: %w", file.flag, err)
		}
		*file.dst = string(b)
	}
	return nil
}

// save runs the editor: optional connection test, then submit.
func (a *app) save(cmd *cobra.Command, editor *view.ClusterEditor, f *clusterFlags) error {
	form := editor.Form()
	if err := f.apply(cmd.Flags(), &form); err != nil {
		return err
	}
	if err := editor.SetForm(form); err != nil {
		return err
	}

	if f.testFirst {
		res, err := editor.Test(cmd.Context())
		if err != nil {
			return err
		}
		if a.output == "table" {
			a.printer.TestResult(form.Name, res)
		}
		if !res.Success {
			return fmt.Errorf("connection test failed: %s", res.Message)
		}
	}

	c, err := editor.Submit(cmd.Context())
	if err != nil {
		return err
	}
	if c == nil {
		return nil
	}
	return a.emit(c, func() { a.printer.Clusters([]model.Cluster{*c}) })
}

func (a *app) editor() *view.ClusterEditor {
	return view.NewClusterEditor(a.stores.Clusters, a.api.Clusters, nil)
}

func newClustersAddCmd(a *app) *cobra.Command {
	f := &clusterFlags{}
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register a cluster",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			editor := a.editor()
			if err := editor.OpenCreate(); err != nil {
				return err
			}
			return a.save(cmd, editor, f)
		},
	}
	f.register(cmd.Flags())
	return cmd
}

func newClustersUpdateCmd(a *app) *cobra.Command {
	f := &clusterFlags{}
	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Change a registered cluster",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			c, err := a.stores.Clusters.FetchOne(cmd.Context(), id)
			if err != nil {
				return err
			}
			if c == nil {
				return fmt.Errorf("cluster %s not found", id)
			}
			editor := a.editor()
			if err := editor.OpenEdit(*c); err != nil {
				return err
			}
			return a.save(cmd, editor, f)
		},
	}
	f.register(cmd.Flags())
	return cmd
}

func newClustersDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a cluster after confirmation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			target := model.Cluster{ID: id, Name: id.String()}
			if c, err := a.stores.Clusters.FetchOne(cmd.Context(), id); err == nil && c != nil {
				target = *c
			}

			flow := view.NewDeleteFlow(a.stores.Clusters)
			if err := flow.Request(target); err != nil {
				return err
			}
			if !a.confirm(flow.Prompt()) {
				flow.Cancel()
				fmt.Fprintln(a.stderr, "aborted")
				return nil
			}
			return flow.Confirm(cmd.Context())
		},
	}
}

func newClustersTestCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "test ID",
		Short: "Test the connection to a cluster",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := view.NewClusterTester(a.stores.Clusters).Test(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.emit(res, func() { a.printer.TestResult("cluster "+args[0], res) })
		},
	}
}

func newClustersTestAllCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "test-all",
		Short: "Test the connection to every cluster",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := a.stores.Clusters.Fetch(cmd.Context()); err != nil {
				return err
			}
			results, err := a.stores.Clusters.BatchTest(cmd.Context())
			if err != nil {
				return err
			}
			return a.emit(results, func() { a.printer.Clusters(a.stores.Clusters.List().Data()) })
		},
	}
}
