package api

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"
	"strings"

	"github.com/kubeadapt/resource-insight/internal/envelope"
	insighterrors "github.com/kubeadapt/resource-insight/internal/errors"
	"github.com/kubeadapt/resource-insight/pkg/model"
)

// Pods queries pod records and the statistics rollups built from them.
type Pods struct {
	caller
}

// Search filters pods by name, namespace, cluster and status.
func (p *Pods) Search(ctx context.Context, req model.PodSearchRequest) (model.PodSearchResult, error) {
	body, err := p.get(ctx, podSearch, "/pods/search", req.Values())
	if err != nil {
		return model.PodSearchResult{Pods: []model.Pod{}}, err
	}
	res, _ := envelope.Object[model.PodSearchResult](p.reporter, body, podSearch)
	if res.Pods == nil {
		res.Pods = []model.Pod{}
	}
	return res, nil
}

// Problems returns one page of unreasonable pods. The page's pagination is
// taken from the response when present and derived from the query otherwise.
func (p *Pods) Problems(ctx context.Context, q model.ProblemQuery) (model.ProblemPage, error) {
	body, err := p.get(ctx, podProblems, "/pods/problems", q.Values())
	if err != nil {
		return model.ProblemPage{Pods: []model.Pod{}}, err
	}

	page := model.ProblemPage{ClusterName: q.ClusterName, SortBy: q.SortBy}
	pods, ok := envelope.List[model.Pod](p.reporter, body, podProblems)
	page.Pods = pods
	page.Pagination = model.NewPagination(q.Page, q.Size, int64(len(pods)))
	if !ok {
		return page, nil
	}

	if pg, ok := envelope.Object[model.Pagination](p.reporter, body, podProblemsPagination); ok {
		page.Pagination = pg
	}
	if s, ok := stringAt(p.reporter, body, podProblemsCluster); ok {
		page.ClusterName = s
	}
	if s, ok := stringAt(p.reporter, body, podProblemsSortBy); ok {
		page.SortBy = s
	}
	return page, nil
}

// List returns one page of all pods, unfiltered.
func (p *Pods) List(ctx context.Context, page, size int) (model.PodSearchResult, error) {
	q := url.Values{}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if size > 0 {
		q.Set("size", strconv.Itoa(size))
	}
	body, err := p.get(ctx, podList, "/pods/list", q)
	if err != nil {
		return model.PodSearchResult{Pods: []model.Pod{}}, err
	}
	res, _ := envelope.Object[model.PodSearchResult](p.reporter, body, podList)
	if res.Pods == nil {
		res.Pods = []model.Pod{}
	}
	return res, nil
}

// NamespacePods returns every pod in namespace across all clusters.
func (p *Pods) NamespacePods(ctx context.Context, namespace string) ([]model.Pod, error) {
	path, err := namespacePath(namespace, "pods")
	if err != nil {
		return []model.Pod{}, err
	}
	return p.list(ctx, namespacePods, path, nil)
}

// NamespaceTree returns namespace with its pods and their rollup. The
// children are never nil.
func (p *Pods) NamespaceTree(ctx context.Context, namespace string) (model.NamespaceTree, error) {
	empty := model.NamespaceTree{NamespaceName: namespace, Children: []model.Pod{}}
	path, err := namespacePath(namespace, "tree-data")
	if err != nil {
		return empty, err
	}
	body, err := p.get(ctx, namespaceTree, path, nil)
	if err != nil {
		return empty, err
	}
	tree, ok := envelope.Object[model.NamespaceTree](p.reporter, body, namespaceTree)
	if !ok {
		return empty, nil
	}
	if tree.Children == nil {
		tree.Children = []model.Pod{}
	}
	return tree, nil
}

// FilterOptions returns the distinct namespaces, clusters and statuses. A
// non-empty cluster narrows the namespaces to that cluster.
func (p *Pods) FilterOptions(ctx context.Context, cluster string) (model.FilterOptions, error) {
	var q url.Values
	if cluster != "" {
		q = url.Values{"cluster": {cluster}}
	}
	body, err := p.get(ctx, podFilterOptions, "/pods/filter-options", q)
	if err != nil {
		return model.FilterOptions{}, err
	}
	opts, _ := envelope.Object[model.FilterOptions](p.reporter, body, podFilterOptions)
	return opts, nil
}

// TopMemoryRequest returns the pods with the largest memory requests.
func (p *Pods) TopMemoryRequest(ctx context.Context, limit int) ([]model.Pod, error) {
	return p.list(ctx, topMemoryRequest, "/statistics/top-memory-request", limitQuery(limit))
}

// TopCPURequest returns the pods with the largest CPU requests.
func (p *Pods) TopCPURequest(ctx context.Context, limit int) ([]model.Pod, error) {
	return p.list(ctx, topCPURequest, "/statistics/top-cpu-request", limitQuery(limit))
}

// NamespaceSummary returns the per-namespace rollup across all clusters.
func (p *Pods) NamespaceSummary(ctx context.Context) ([]model.NamespaceSummary, error) {
	body, err := p.get(ctx, namespaceStatistics, "/statistics/namespace-summary", nil)
	if err != nil {
		return []model.NamespaceSummary{}, err
	}
	out, _ := envelope.List[model.NamespaceSummary](p.reporter, body, namespaceStatistics)
	return out, nil
}

// NamespacesSummary returns namespace summaries, limited to clusterName when
// it is set.
func (p *Pods) NamespacesSummary(ctx context.Context, clusterName string) ([]model.NamespaceSummary, error) {
	var q url.Values
	if clusterName != "" {
		q = url.Values{"cluster_name": {clusterName}}
	}
	body, err := p.get(ctx, namespaceSummary, "/namespaces/summary", q)
	if err != nil {
		return []model.NamespaceSummary{}, err
	}
	out, _ := envelope.List[model.NamespaceSummary](p.reporter, body, namespaceSummary)
	return out, nil
}

func (p *Pods) list(ctx context.Context, d envelope.Descriptor, path string, q url.Values) ([]model.Pod, error) {
	body, err := p.get(ctx, d, path, q)
	if err != nil {
		return []model.Pod{}, err
	}
	pods, _ := envelope.List[model.Pod](p.reporter, body, d)
	return pods, nil
}

func namespacePath(namespace, suffix string) (string, error) {
	if strings.TrimSpace(namespace) == "" {
		return "", insighterrors.Validation("namespaces", "namespace is required")
	}
	return "/namespaces/" + url.PathEscape(namespace) + "/" + suffix, nil
}

// stringAt reads an optional string sibling.
func stringAt(r envelope.Reporter, body []byte, d envelope.Descriptor) (string, bool) {
	raw, ok := envelope.Extract(r, body, d)
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}
