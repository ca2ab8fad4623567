package model

import "time"

// ClusterStatus is the connectivity state the backend last recorded.
type ClusterStatus string

const (
	ClusterOnline  ClusterStatus = "online"
	ClusterOffline ClusterStatus = "offline"
	ClusterError   ClusterStatus = "error"
	ClusterUnknown ClusterStatus = "unknown"
)

// AuthType selects which AuthConfig fields carry the credential.
type AuthType string

const (
	AuthToken      AuthType = "token"
	AuthCert       AuthType = "cert"
	AuthKubeconfig AuthType = "kubeconfig"
)

// Cluster is a registered Kubernetes cluster target.
type Cluster struct {
	ID              ID            `json:"id"`
	Name            string        `json:"cluster_name"`
	Alias           string        `json:"cluster_alias,omitempty"`
	APIServer       string        `json:"api_server"`
	AuthType        AuthType      `json:"auth_type"`
	Status          ClusterStatus `json:"status"`
	CollectInterval int           `json:"collect_interval"`
	Tags            Tags          `json:"tags"`
	LastCollectAt   *time.Time    `json:"last_collect_at,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`

	// Live is filled from a connectivity test when clusters are listed with stats.
	Live *ClusterTestResult `json:"live,omitempty"`
}

func (c Cluster) Identity() ID { return c.ID }

// DisplayName prefers the alias over the registered name.
func (c Cluster) DisplayName() string {
	if c.Alias != "" {
		return c.Alias
	}
	return c.Name
}

// Normalize fills the fields the backend may omit.
func (c *Cluster) Normalize() {
	if c.Status == "" {
		c.Status = ClusterUnknown
	}
	if c.Tags == nil {
		c.Tags = Tags{}
	}
}

// AuthConfig is the credential payload of a create or update request. Only the
// fields matching the request's AuthType are sent.
type AuthConfig struct {
	BearerToken string `json:"bearer_token,omitempty"`
	ClientCert  string `json:"client_cert,omitempty"`
	ClientKey   string `json:"client_key,omitempty"`
	CACert      string `json:"ca_cert,omitempty"`
	Kubeconfig  string `json:"kubeconfig,omitempty"`
}

// CreateClusterRequest registers a cluster or tests one before registering.
type CreateClusterRequest struct {
	Name            string     `json:"cluster_name" validate:"required,max=100"`
	Alias           string     `json:"cluster_alias,omitempty" validate:"max=100"`
	APIServer       string     `json:"api_server" validate:"required,url"`
	AuthType        AuthType   `json:"auth_type" validate:"required,oneof=token cert kubeconfig"`
	AuthConfig      AuthConfig `json:"auth_config"`
	CollectInterval int        `json:"collect_interval" default:"30" validate:"gte=1,lte=1440"`
	Tags            []string   `json:"tags"`
}

// UpdateClusterRequest carries only the fields being changed.
type UpdateClusterRequest struct {
	Name            *string     `json:"cluster_name,omitempty"`
	Alias           *string     `json:"cluster_alias,omitempty"`
	APIServer       *string     `json:"api_server,omitempty"`
	AuthType        *AuthType   `json:"auth_type,omitempty"`
	AuthConfig      *AuthConfig `json:"auth_config,omitempty"`
	CollectInterval *int        `json:"collect_interval,omitempty"`
	Tags            []string    `json:"tags,omitempty"`
}

// ClusterTestResult is the outcome of a connectivity test.
type ClusterTestResult struct {
	Success        bool          `json:"success"`
	Status         ClusterStatus `json:"status"`
	Message        string        `json:"message"`
	Version        string        `json:"version,omitempty"`
	NodeCount      int           `json:"node_count"`
	NamespaceCount int           `json:"namespace_count"`
	PodCount       int           `json:"pod_count"`
	HasMetrics     bool          `json:"has_metrics"`
	TestTime       time.Time     `json:"test_time"`
	ResponseTimeMS int64         `json:"response_time_ms"`

	CPUUsage      float64 `json:"cpu_usage,omitempty"`
	MemoryUsage   float64 `json:"memory_usage,omitempty"`
	CPUUsedCores  float64 `json:"cpu_used_cores,omitempty"`
	CPUTotalCores float64 `json:"cpu_total_cores,omitempty"`
	MemoryUsedGB  float64 `json:"memory_used_gb,omitempty"`
	MemoryTotalGB float64 `json:"memory_total_gb,omitempty"`
	HasRealUsage  bool    `json:"has_real_usage,omitempty"`
	DataSource    string  `json:"data_source,omitempty"`
}
