package model

import (
	"net/url"
	"strconv"
	"time"
)

// PodStatus is the backend's verdict on a pod's resource configuration. The
// analysis endpoints use the collector's labels, history uses English ones.
type PodStatus string

const (
	PodReasonable         PodStatus = "合理"
	PodUnreasonable       PodStatus = "不合理"
	PodReasonableLegacy   PodStatus = "reasonable"
	PodUnreasonableLegacy PodStatus = "unreasonable"
)

// Unreasonable reports whether the pod was flagged by analysis.
func (s PodStatus) Unreasonable() bool {
	return s == PodUnreasonable || s == PodUnreasonableLegacy
}

// Pod is a workload's resource configuration and usage snapshot.
type Pod struct {
	PodName     string `json:"pod_name"`
	Namespace   string `json:"namespace"`
	NodeName    string `json:"node_name"`
	ClusterName string `json:"cluster_name"`

	MemoryUsage    Bytes   `json:"memory_usage"`
	MemoryRequest  Bytes   `json:"memory_request"`
	MemoryLimit    Bytes   `json:"memory_limit"`
	MemoryReqPct   float64 `json:"memory_req_pct"`
	MemoryLimitPct float64 `json:"memory_limit_pct"`

	CPUUsage    Millicores `json:"cpu_usage"`
	CPURequest  Millicores `json:"cpu_request"`
	CPULimit    Millicores `json:"cpu_limit"`
	CPUReqPct   float64    `json:"cpu_req_pct"`
	CPULimitPct float64    `json:"cpu_limit_pct"`

	Status       PodStatus `json:"status"`
	Issues       Tags      `json:"issues"`
	CreationTime time.Time `json:"creation_time"`
}

// Key identifies a pod across clusters.
func (p Pod) Key() string {
	return p.ClusterName + "/" + p.Namespace + "/" + p.PodName
}

// PodSearchRequest filters /pods/search. Zero values are omitted.
type PodSearchRequest struct {
	Query     string
	Namespace string
	Cluster   string
	Status    string
	Page      int
	Size      int
}

// Values renders the request as query parameters.
func (r PodSearchRequest) Values() url.Values {
	v := url.Values{}
	setString(v, "query", r.Query)
	setString(v, "namespace", r.Namespace)
	setString(v, "cluster", r.Cluster)
	setString(v, "status", r.Status)
	setInt(v, "page", r.Page)
	setInt(v, "size", r.Size)
	return v
}

// PodSearchResult is one page of search hits.
type PodSearchResult struct {
	Pods       []Pod `json:"pods"`
	Total      int   `json:"total"`
	Page       int   `json:"page"`
	Size       int   `json:"size"`
	TotalPages int   `json:"total_pages"`
}

// Pagination derives the page descriptor from the search counters.
func (r PodSearchResult) Pagination() Pagination {
	return NewPagination(r.Page, r.Size, int64(r.Total))
}

// ProblemQuery pages through /pods/problems.
type ProblemQuery struct {
	ClusterName string
	SortBy      string
	Page        int
	Size        int
}

func (q ProblemQuery) Values() url.Values {
	v := url.Values{}
	setString(v, "cluster_name", q.ClusterName)
	setString(v, "sort_by", q.SortBy)
	setInt(v, "page", q.Page)
	setInt(v, "size", q.Size)
	return v
}

// ProblemPage is one page of problem pods with its pagination sibling.
type ProblemPage struct {
	Pods        []Pod      `json:"data"`
	Pagination  Pagination `json:"pagination"`
	ClusterName string     `json:"cluster_name"`
	SortBy      string     `json:"sort_by"`
}

// FilterOptions lists the distinct values the pod filters can take.
type FilterOptions struct {
	Namespaces []string `json:"namespaces"`
	Clusters   []string `json:"clusters"`
	Statuses   []string `json:"statuses"`
}

// NamespaceSummary rolls up one namespace.
type NamespaceSummary struct {
	NamespaceName      string     `json:"namespace_name"`
	ClusterName        string     `json:"cluster_name"`
	TotalPods          int        `json:"total_pods"`
	UnreasonablePods   int        `json:"unreasonable_pods"`
	TotalMemoryUsage   Bytes      `json:"total_memory_usage"`
	TotalCPUUsage      Millicores `json:"total_cpu_usage"`
	TotalMemoryRequest Bytes      `json:"total_memory_request"`
	TotalCPURequest    Millicores `json:"total_cpu_request"`
}

// NamespaceTree is one namespace with its pods and their rollup.
type NamespaceTree struct {
	NamespaceName string           `json:"namespace_name"`
	ClusterName   string           `json:"cluster_name"`
	Children      []Pod            `json:"children"`
	Summary       NamespaceSummary `json:"summary"`
}

func setString(v url.Values, key, val string) {
	if val != "" {
		v.Set(key, val)
	}
}

func setInt(v url.Values, key string, val int) {
	if val > 0 {
		v.Set(key, strconv.Itoa(val))
	}
}
