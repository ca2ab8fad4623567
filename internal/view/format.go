package view

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/kubeadapt/resource-insight/pkg/model"
)

// FormatBytes renders b in binary units, e.g. "1.5 GiB". Negative sizes
// render as "0 B".
func FormatBytes(b model.Bytes) string {
	if b <= 0 {
		return "0 B"
	}
	return humanize.IBytes(uint64(b))
}

// FormatMillicores renders sub-core values as "250m" and larger ones in
// cores with two decimals, e.g. "1.50".
func FormatMillicores(m model.Millicores) string {
	if m <= 0 {
		return "0m"
	}
	if m < 1000 {
		return fmt.Sprintf("%dm", int64(m))
	}
	return fmt.Sprintf("%.2f", m.Cores())
}

// FormatPercentage renders a percentage with three decimals.
func FormatPercentage(p float64) string {
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return "-"
	}
	return fmt.Sprintf("%.3f%%", p)
}

// PercentageClass buckets a utilization percentage.
type PercentageClass string

const (
	PercentageLow    PercentageClass = "low"
	PercentageMedium PercentageClass = "medium"
	PercentageHigh   PercentageClass = "high"
)

func ClassifyPercentage(p float64) PercentageClass {
	switch {
	case p < 20:
		return PercentageLow
	case p < 50:
		return PercentageMedium
	default:
		return PercentageHigh
	}
}

// StatusLabel is the display text of a pod verdict.
func StatusLabel(s model.PodStatus) string {
	switch s {
	case model.PodReasonable, model.PodReasonableLegacy:
		return "Reasonable"
	case model.PodUnreasonable, model.PodUnreasonableLegacy:
		return "Needs attention"
	case "":
		return "Unknown"
	default:
		return string(s)
	}
}

// ClusterStatusLabel is the display text of a cluster status.
func ClusterStatusLabel(s model.ClusterStatus) string {
	switch s {
	case model.ClusterOnline:
		return "Online"
	case model.ClusterOffline:
		return "Offline"
	case model.ClusterError:
		return "Error"
	default:
		return "Unknown"
	}
}

// AuthTypeLabel is the display text of an auth type.
func AuthTypeLabel(a model.AuthType) string {
	switch a {
	case model.AuthToken:
		return "Bearer token"
	case model.AuthCert:
		return "Client certificate"
	case model.AuthKubeconfig:
		return "Kubeconfig"
	default:
		return string(a)
	}
}

// Badge is the severity tone a value is rendered with.
type Badge string

const (
	BadgeDanger  Badge = "danger"
	BadgeWarning Badge = "warning"
	BadgeOrange  Badge = "orange"
	BadgeSuccess Badge = "success"
	BadgePrimary Badge = "primary"
	BadgeMuted   Badge = "muted"
)

// RankBadge highlights the top three and top ten problem pods.
func RankBadge(rank int) Badge {
	switch {
	case rank <= 3:
		return BadgeDanger
	case rank <= 10:
		return BadgeWarning
	default:
		return BadgeMuted
	}
}

// IssueBadge classifies an analysis issue text. The backend reports issues
// in Chinese or as snake_case codes.
func IssueBadge(issue string) Badge {
	switch {
	case strings.Contains(issue, "利用率过低"), strings.Contains(issue, "under"):
		return BadgeWarning
	case strings.Contains(issue, "缺少"), strings.Contains(issue, "no_"):
		return BadgeDanger
	case strings.Contains(issue, "差异过大"):
		return BadgeOrange
	default:
		return BadgePrimary
	}
}

// UsageBadge classifies a usage bar.
func UsageBadge(p float64) Badge {
	switch {
	case p >= 80:
		return BadgeDanger
	case p >= 60:
		return BadgeWarning
	case p >= 40:
		return BadgeSuccess
	default:
		return BadgePrimary
	}
}

// WasteBadge classifies a waste score.
func WasteBadge(waste int) Badge {
	switch {
	case waste >= 50:
		return BadgeDanger
	case waste >= 30:
		return BadgeWarning
	default:
		return BadgeSuccess
	}
}

// CalculateWaste is the mean unused share of the CPU and memory requests,
// rounded to a whole percentage. Missing percentages count as no waste.
func CalculateWaste(p model.Pod) int {
	if p.CPUReqPct == 0 && p.MemoryReqPct == 0 {
		return 0
	}
	var cpu, mem float64
	if p.CPUReqPct != 0 {
		cpu = math.Max(0, 100-p.CPUReqPct)
	}
	if p.MemoryReqPct != 0 {
		mem = math.Max(0, 100-p.MemoryReqPct)
	}
	return int(math.Round((cpu + mem) / 2))
}

// ClusterSources are the data sets cluster names can be collected from.
type ClusterSources struct {
	Clusters   []model.Cluster
	Pods       []model.Pod
	TopMemory  []model.Pod
	TopCPU     []model.Pod
	Namespaces []model.NamespaceSummary
}

// ClusterNames returns the sorted, distinct cluster names found in src.
func ClusterNames(src ClusterSources) []string {
	seen := map[string]struct{}{}
	add := func(name string) {
		if name != "" {
			seen[name] = struct{}{}
		}
	}
	for _, c := range src.Clusters {
		add(c.Name)
	}
	for _, pods := range [][]model.Pod{src.Pods, src.TopMemory, src.TopCPU} {
		for _, p := range pods {
			add(p.ClusterName)
		}
	}
	for _, ns := range src.Namespaces {
		add(ns.ClusterName)
	}

	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// FilterByCluster returns the pods of cluster, or all pods when cluster is
// empty.
func FilterByCluster(pods []model.Pod, cluster string) []model.Pod {
	if cluster == "" {
		return pods
	}
	out := make([]model.Pod, 0, len(pods))
	for _, p := range pods {
		if p.ClusterName == cluster {
			out = append(out, p)
		}
	}
	return out
}

// FormatTime renders t in local time, or "-" when unset.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}

// FormatRelative renders t relative to now, e.g. "3 minutes ago".
func FormatRelative(t, now time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return humanize.RelTime(t, now, "ago", "from now")
}
