package api

import "github.com/kubeadapt/resource-insight/internal/envelope"

// Response shapes, one per endpoint. Depth counts the nested "data" keys
// between the envelope root and the payload. Lenient descriptors accept one
// extra "data" level where the backend has shipped both shapes.
var (
	// GET /clusters: {data:{data:[...]}}
	clusterList = envelope.Descriptor{Name: "clusters.list", Path: envelope.Depth(2), Leaf: envelope.LeafArray}
	// GET /clusters/{id}: {data:{...}}, older builds {data:{data:{...}}}
	clusterDetail = envelope.Descriptor{Name: "clusters.get", Path: envelope.Depth(1), Leaf: envelope.LeafObject, Lenient: true}
	// POST /clusters, PUT /clusters/{id}: {data:{...}}
	clusterCreate = envelope.Descriptor{Name: "clusters.create", Path: envelope.Depth(1), Leaf: envelope.LeafObject, Lenient: true}
	clusterUpdate = envelope.Descriptor{Name: "clusters.update", Path: envelope.Depth(1), Leaf: envelope.LeafObject, Lenient: true}
	// POST /clusters/{id}/test and /clusters/test: {data:{data:{success,status,message,...}}}
	clusterTest       = envelope.Descriptor{Name: "clusters.test", Path: envelope.Depth(2), Leaf: envelope.LeafObject}
	clusterTestConfig = envelope.Descriptor{Name: "clusters.test_config", Path: envelope.Depth(2), Leaf: envelope.LeafObject}
	// POST /clusters/batch-test: {data:{data:{"<id>":{...}},count}}
	clusterBatchTest = envelope.Descriptor{Name: "clusters.batch_test", Path: envelope.Depth(2), Leaf: envelope.LeafMap}

	// GET /analysis: {data:{...}} or {data:{data:{...},pagination,filter}}
	analysisGet        = envelope.Descriptor{Name: "analysis.get", Path: envelope.Depth(1), Leaf: envelope.LeafObject, Lenient: true}
	analysisPagination = envelope.Descriptor{Name: "analysis.pagination", Path: []string{"data", "pagination"}, Leaf: envelope.LeafObject, Optional: true}
	analysisFilter     = envelope.Descriptor{Name: "analysis.filter", Path: []string{"data", "filter"}, Leaf: envelope.LeafObject, Optional: true}

	// GET /pods/problems: {data:{data:[...],pagination,cluster_name,sort_by}}
	podProblems           = envelope.Descriptor{Name: "pods.problems", Path: envelope.Depth(2), Leaf: envelope.LeafArray}
	podProblemsPagination = podProblems.At("pods.problems.pagination", envelope.LeafObject, "pagination")
	podProblemsCluster    = podProblems.At("pods.problems.cluster_name", envelope.LeafAny, "cluster_name")
	podProblemsSortBy     = podProblems.At("pods.problems.sort_by", envelope.LeafAny, "sort_by")
	// GET /pods/search: {data:{pods:[...],total,page,size,total_pages}}
	podSearch = envelope.Descriptor{Name: "pods.search", Path: envelope.Depth(1), Leaf: envelope.LeafObject}
	// GET /pods/list: same shape as /pods/search
	podList = envelope.Descriptor{Name: "pods.list", Path: envelope.Depth(1), Leaf: envelope.LeafObject}
	// GET /pods/filter-options: {data:{namespaces,clusters,statuses}}
	podFilterOptions = envelope.Descriptor{Name: "pods.filter_options", Path: envelope.Depth(1), Leaf: envelope.LeafObject}
	// GET /statistics/top-*: {data:[...]}, current builds {data:{data:[...],count,limit}}
	topMemoryRequest = envelope.Descriptor{Name: "statistics.top_memory_request", Path: envelope.Depth(1), Leaf: envelope.LeafArray, Lenient: true}
	topCPURequest    = envelope.Descriptor{Name: "statistics.top_cpu_request", Path: envelope.Depth(1), Leaf: envelope.LeafArray, Lenient: true}
	// GET /statistics/namespace-summary and /namespaces/summary: {data:[...]}
	namespaceStatistics = envelope.Descriptor{Name: "statistics.namespace_summary", Path: envelope.Depth(1), Leaf: envelope.LeafArray, Lenient: true}
	namespaceSummary    = envelope.Descriptor{Name: "namespaces.summary", Path: envelope.Depth(1), Leaf: envelope.LeafArray, Lenient: true}
	// GET /namespaces/{ns}/pods: {data:{data:[...],count,namespace}}
	namespacePods = envelope.Descriptor{Name: "namespaces.pods", Path: envelope.Depth(2), Leaf: envelope.LeafArray}
	// GET /namespaces/{ns}/tree-data: {data:{data:{namespace_name,children,summary}}}
	namespaceTree = envelope.Descriptor{Name: "namespaces.tree_data", Path: envelope.Depth(2), Leaf: envelope.LeafObject}

	// GET /schedule/jobs: {data:[...]}, current builds {data:{data:[...],count}}
	scheduleJobs = envelope.Descriptor{Name: "schedule.jobs", Path: envelope.Depth(1), Leaf: envelope.LeafArray, Lenient: true}
	// GET /schedule/status: {data:{data:{...}}}
	scheduleStatus = envelope.Descriptor{Name: "schedule.status", Path: envelope.Depth(1), Leaf: envelope.LeafObject, Lenient: true}
	// GET /schedule/settings: {data:{...}}
	scheduleSettings = envelope.Descriptor{Name: "schedule.settings", Path: envelope.Depth(1), Leaf: envelope.LeafObject, Lenient: true}
	// PUT /schedule/settings: {data:{...}} or {msg}
	scheduleSettingsUpdate = envelope.Descriptor{Name: "schedule.update_settings", Path: envelope.Depth(1), Leaf: envelope.LeafObject, Lenient: true, Optional: true}

	// POST /history/query: {data:{data:[...],total,page,size,total_pages}}
	historyQuery = envelope.Descriptor{Name: "history.query", Path: envelope.Depth(1), Leaf: envelope.LeafObject}
	// GET /history/system-trends: {data:{data:[...],hours,count}}
	systemTrends = envelope.Descriptor{Name: "history.system_trends", Path: envelope.Depth(2), Leaf: envelope.LeafArray}
	// GET /history/trends: {data:{data:[...],cluster_id,namespace,pod_name,hours,count}}
	podTrends = envelope.Descriptor{Name: "history.trends", Path: envelope.Depth(2), Leaf: envelope.LeafArray}
	// GET /history/statistics: {data:{data:{total_records,...}}}
	historyStatistics = envelope.Descriptor{Name: "history.statistics", Path: envelope.Depth(2), Leaf: envelope.LeafObject}

	// GET /activities/recent, /alerts/recent: {data:{data:[...],count,limit}}
	recentActivities = envelope.Descriptor{Name: "activities.recent", Path: envelope.Depth(2), Leaf: envelope.LeafArray}
	recentAlerts     = envelope.Descriptor{Name: "alerts.recent", Path: envelope.Depth(2), Leaf: envelope.LeafArray}
	// GET /alerts/{id}: {data:{...}}
	alertDetail = envelope.Descriptor{Name: "alerts.get", Path: envelope.Depth(1), Leaf: envelope.LeafObject, Lenient: true}

	// GET /stats: {data:{...}}
	statsGet = envelope.Descriptor{Name: "stats.get", Path: envelope.Depth(1), Leaf: envelope.LeafObject}
	// GET /health: {data:{status,service}}
	healthGet = envelope.Descriptor{Name: "system.health", Path: envelope.Depth(1), Leaf: envelope.LeafObject}
)
