package model

import "time"

// ResourceAnalysis is the aggregate snapshot across all clusters.
type ResourceAnalysis struct {
	TotalPods        int       `json:"total_pods"`
	UnreasonablePods int       `json:"unreasonable_pods"`
	Top50Problems    []Pod     `json:"top50_problems"`
	GeneratedAt      time.Time `json:"generated_at"`
	ClustersAnalyzed int       `json:"clusters_analyzed"`

	// Present only when the paginated variant of /analysis answered.
	Pagination *Pagination     `json:"pagination,omitempty"`
	Filter     *AnalysisFilter `json:"filter,omitempty"`
}

// AnalysisFilter echoes the filter the backend applied.
type AnalysisFilter struct {
	ClusterName string `json:"cluster_name"`
}

// AnalysisQuery pages and filters /analysis. A zero query asks for the
// unpaginated snapshot.
type AnalysisQuery struct {
	ClusterName string
	Page        int
	Size        int
}
