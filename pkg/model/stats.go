package model

// SystemStats are the rolled-up counters of the overview page.
type SystemStats struct {
	TotalClusters             int            `json:"total_clusters"`
	OnlineClusters            int            `json:"online_clusters"`
	TotalPods                 int            `json:"total_pods"`
	ProblemPods               int            `json:"problem_pods"`
	ResourceEfficiency        float64        `json:"resource_efficiency"`
	ClusterStatusDistribution map[string]int `json:"cluster_status_distribution"`
	LastUpdate                string         `json:"last_update"`
}
