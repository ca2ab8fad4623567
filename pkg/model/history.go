package model

import (
	"net/url"
	"time"
)

// HistoryRecord is one persisted metrics sample.
type HistoryRecord struct {
	ID          ID     `json:"id"`
	ClusterID   ID     `json:"cluster_id"`
	ClusterName string `json:"cluster_name,omitempty"`
	Namespace   string `json:"namespace"`
	PodName     string `json:"pod_name"`
	NodeName    string `json:"node_name"`

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

	Status      PodStatus `json:"status"`
	Issues      Tags      `json:"issues"`
	CollectedAt time.Time `json:"collected_at"`
}

func (r HistoryRecord) Identity() ID { return r.ID }

// HistoryQuery is the body of a paginated history query.
type HistoryQuery struct {
	ClusterID ID         `json:"cluster_id,omitempty"`
	Namespace string     `json:"namespace,omitempty"`
	PodName   string     `json:"pod_name,omitempty"`
	StartTime *time.Time `json:"start_time,omitempty"`
	EndTime   *time.Time `json:"end_time,omitempty"`
	Page      int        `json:"page" default:"1"`
	Size      int        `json:"size" default:"20"`
	OrderBy   string     `json:"order_by,omitempty"`
	OrderDesc bool       `json:"order_desc,omitempty"`
}

// HistoryPage is one page of history records.
type HistoryPage struct {
	Records    []HistoryRecord `json:"data"`
	Total      int64           `json:"total"`
	Page       int             `json:"page"`
	Size       int             `json:"size"`
	TotalPages int             `json:"total_pages"`
}

func (p HistoryPage) Pagination() Pagination {
	return NewPagination(p.Page, p.Size, p.Total)
}

// TrendPoint is one sample of the system-wide trend chart.
type TrendPoint struct {
	Time   string  `json:"time"`
	CPU    float64 `json:"cpu"`
	Memory float64 `json:"memory"`
	Pods   int     `json:"pods"`
}

// PodTrendQuery narrows the per-pod trend series. Zero values are omitted
// and Hours defaults to 24 on the backend.
type PodTrendQuery struct {
	ClusterID ID
	Namespace string
	PodName   string
	Hours     int
}

func (q PodTrendQuery) Values() url.Values {
	v := url.Values{}
	if !q.ClusterID.IsZero() {
		v.Set("cluster_id", q.ClusterID.String())
	}
	setString(v, "namespace", q.Namespace)
	setString(v, "pod_name", q.PodName)
	setInt(v, "hours", q.Hours)
	return v
}

// HistoryStatistics summarizes the persisted samples.
type HistoryStatistics struct {
	TotalRecords   int64      `json:"total_records"`
	ClusterCount   int64      `json:"cluster_count"`
	NamespaceCount int64      `json:"namespace_count"`
	EarliestRecord *time.Time `json:"earliest_record,omitempty"`
	LatestRecord   *time.Time `json:"latest_record,omitempty"`
}
