package view

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"golang.org/x/term"

	"github.com/kubeadapt/resource-insight/internal/notify"
	"github.com/kubeadapt/resource-insight/internal/store"
	"github.com/kubeadapt/resource-insight/pkg/model"
)

// Printer renders models as styled terminal tables. Colors are dropped
// automatically when the output is not a terminal.
type Printer struct {
	out    io.Writer
	now    func() time.Time
	width  int
	header lipgloss.Style
	title  lipgloss.Style
	muted  lipgloss.Style
	cell   lipgloss.Style
	badges map[Badge]lipgloss.Style
}

// NewPrinter returns a Printer writing to w.
func NewPrinter(w io.Writer) *Printer {
	r := lipgloss.NewRenderer(w)
	p := &Printer{
		out:    w,
		now:    time.Now,
		header: r.NewStyle().Bold(true).Padding(0, 1),
		title:  r.NewStyle().Bold(true).Underline(true),
		muted:  r.NewStyle().Foreground(lipgloss.Color("8")),
		cell:   r.NewStyle().Padding(0, 1),
		badges: map[Badge]lipgloss.Style{
			BadgeDanger:  r.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
			BadgeWarning: r.NewStyle().Foreground(lipgloss.Color("11")),
			BadgeOrange:  r.NewStyle().Foreground(lipgloss.Color("208")),
			BadgeSuccess: r.NewStyle().Foreground(lipgloss.Color("10")),
			BadgePrimary: r.NewStyle().Foreground(lipgloss.Color("12")),
			BadgeMuted:   r.NewStyle().Foreground(lipgloss.Color("8")),
		},
	}
	if f, ok := w.(*os.File); ok && IsTerminal(f) {
		if width, _, err := term.GetSize(int(f.Fd())); err == nil {
			p.width = width
		}
	}
	return p
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

func (p *Printer) badge(b Badge, text string) string {
	if s, ok := p.badges[b]; ok {
		return s.Render(text)
	}
	return text
}

func (p *Printer) table(headers []string, rows [][]string) {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(p.muted).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return p.header
			}
			return p.cell
		})
	if p.width > 0 {
		t = t.Width(p.width)
	}
	fmt.Fprintln(p.out, t.String())
}

// Title prints a section heading.
func (p *Printer) Title(s string) {
	fmt.Fprintln(p.out, p.title.Render(s))
}

// Line prints s unstyled.
func (p *Printer) Line(format string, args ...any) {
	fmt.Fprintf(p.out, format+"\n", args...)
}

func (p *Printer) Empty(what string) {
	fmt.Fprintln(p.out, p.muted.Render("No "+what+" found."))
}

func clusterBadge(s model.ClusterStatus) Badge {
	switch s {
	case model.ClusterOnline:
		return BadgeSuccess
	case model.ClusterError:
		return BadgeDanger
	case model.ClusterOffline:
		return BadgeWarning
	default:
		return BadgeMuted
	}
}

func (p *Printer) Clusters(clusters []model.Cluster) {
	if len(clusters) == 0 {
		p.Empty("clusters")
		return
	}
	rows := make([][]string, 0, len(clusters))
	for _, c := range clusters {
		nodes, pods := "-", "-"
		if c.Live != nil {
			nodes = strconv.Itoa(c.Live.NodeCount)
			pods = strconv.Itoa(c.Live.PodCount)
		}
		lastCollect := "never"
		if c.LastCollectAt != nil {
			lastCollect = FormatRelative(*c.LastCollectAt, p.now())
		}
		rows = append(rows, []string{
			c.ID.String(),
			c.DisplayName(),
			c.APIServer,
			AuthTypeLabel(c.AuthType),
			p.badge(clusterBadge(c.Status), ClusterStatusLabel(c.Status)),
			nodes,
			pods,
			strconv.Itoa(c.CollectInterval) + "m",
			lastCollect,
		})
	}
	p.table([]string{"ID", "NAME", "API SERVER", "AUTH", "STATUS", "NODES", "PODS", "INTERVAL", "LAST COLLECT"}, rows)
}

func (p *Printer) TestResult(name string, r model.ClusterTestResult) {
	status := p.badge(BadgeSuccess, "passed")
	if !r.Success {
		status = p.badge(BadgeDanger, "failed")
	}
	p.Line("%s: connection test %s (%dms)", name, status, r.ResponseTimeMS)
	if r.Message != "" {
		p.Line("  %s", r.Message)
	}
	if r.Success {
		p.Line("  version %s, %d nodes, %d namespaces, %d pods, metrics %t",
			r.Version, r.NodeCount, r.NamespaceCount, r.PodCount, r.HasMetrics)
	}
}

// Pods prints a ranked pod table. first is the rank of the first row.
func (p *Printer) Pods(pods []model.Pod, first int) {
	if len(pods) == 0 {
		p.Empty("pods")
		return
	}
	rows := make([][]string, 0, len(pods))
	for i, pod := range pods {
		rank := first + i
		waste := CalculateWaste(pod)
		issues := make([]string, 0, len(pod.Issues))
		for _, is := range pod.Issues {
			issues = append(issues, p.badge(IssueBadge(is), is))
		}
		rows = append(rows, []string{
			p.badge(RankBadge(rank), "#"+strconv.Itoa(rank)),
			pod.ClusterName,
			pod.Namespace + "/" + pod.PodName,
			FormatMillicores(pod.CPURequest) + " / " + FormatMillicores(pod.CPUUsage),
			p.badge(UsageBadge(pod.CPUReqPct), FormatPercentage(pod.CPUReqPct)),
			FormatBytes(pod.MemoryRequest) + " / " + FormatBytes(pod.MemoryUsage),
			p.badge(UsageBadge(pod.MemoryReqPct), FormatPercentage(pod.MemoryReqPct)),
			p.badge(WasteBadge(waste), strconv.Itoa(waste)+"%"),
			strings.Join(issues, ", "),
		})
	}
	p.table([]string{"RANK", "CLUSTER", "POD", "CPU REQ/USE", "CPU %", "MEM REQ/USE", "MEM %", "WASTE", "ISSUES"}, rows)
}

func (p *Printer) Pagination(pg model.Pagination) {
	p.Line("%s", p.muted.Render(fmt.Sprintf("page %d of %d, %d total", pg.Page, max(pg.TotalPages, 1), pg.Total)))
}

func (p *Printer) Analysis(a *model.ResourceAnalysis) {
	if a == nil {
		p.Empty("analysis")
		return
	}
	p.Title("Resource analysis")
	p.Line("clusters analyzed: %d  pods: %d  unreasonable: %s",
		a.ClustersAnalyzed, a.TotalPods, p.badge(BadgeDanger, strconv.Itoa(a.UnreasonablePods)))
	if !a.GeneratedAt.IsZero() {
		p.Line("generated %s", FormatRelative(a.GeneratedAt, p.now()))
	}
	first := 1
	if a.Pagination != nil && a.Pagination.Page > 1 {
		first = (a.Pagination.Page-1)*a.Pagination.Size + 1
	}
	p.Pods(a.Top50Problems, first)
	if a.Pagination != nil {
		p.Pagination(*a.Pagination)
	}
}

func (p *Printer) Namespaces(list []model.NamespaceSummary) {
	if len(list) == 0 {
		p.Empty("namespaces")
		return
	}
	rows := make([][]string, 0, len(list))
	for _, ns := range list {
		ratio := 0.0
		if ns.TotalPods > 0 {
			ratio = float64(ns.UnreasonablePods) / float64(ns.TotalPods) * 100
		}
		rows = append(rows, []string{
			ns.ClusterName,
			ns.NamespaceName,
			strconv.Itoa(ns.TotalPods),
			p.badge(UsageBadge(ratio), strconv.Itoa(ns.UnreasonablePods)),
			FormatMillicores(ns.TotalCPURequest) + " / " + FormatMillicores(ns.TotalCPUUsage),
			FormatBytes(ns.TotalMemoryRequest) + " / " + FormatBytes(ns.TotalMemoryUsage),
		})
	}
	p.table([]string{"CLUSTER", "NAMESPACE", "PODS", "UNREASONABLE", "CPU REQ/USE", "MEM REQ/USE"}, rows)
}

// NamespaceTree prints the namespace rollup followed by its pods.
func (p *Printer) NamespaceTree(t model.NamespaceTree) {
	title := t.NamespaceName
	if t.ClusterName != "" {
		title = t.ClusterName + "/" + title
	}
	p.Title(title)
	if len(t.Children) == 0 {
		p.Empty("pods")
		return
	}
	p.Namespaces([]model.NamespaceSummary{t.Summary})
	p.Pods(t.Children, 1)
}

func jobBadge(s model.JobStatus) Badge {
	switch s {
	case model.JobRunning:
		return BadgeSuccess
	case model.JobError:
		return BadgeDanger
	case model.JobSuspended:
		return BadgeWarning
	default:
		return BadgeMuted
	}
}

func (p *Printer) ScheduleJobs(jobs []model.ScheduleJobInfo) {
	if len(jobs) == 0 {
		p.Empty("schedule jobs")
		return
	}
	rows := make([][]string, 0, len(jobs))
	for _, j := range jobs {
		rows = append(rows, []string{
			j.ClusterID.String(),
			j.ClusterName,
			p.badge(jobBadge(j.Status), string(j.Status)),
			j.Interval.String(),
			FormatTime(j.LastRun),
			FormatTime(j.NextRun),
			fmt.Sprintf("%d/%d", j.SuccessfulRuns, j.TotalRuns),
			j.LastError,
		})
	}
	p.table([]string{"CLUSTER ID", "CLUSTER", "STATUS", "INTERVAL", "LAST RUN", "NEXT RUN", "OK/RUNS", "LAST ERROR"}, rows)
}

func (p *Printer) ScheduleStatus(s *model.ScheduleStatus) {
	if s == nil {
		p.Empty("schedule status")
		return
	}
	running := p.badge(BadgeDanger, "stopped")
	if s.ServiceRunning {
		running = p.badge(BadgeSuccess, "running")
	}
	p.Line("service %s: %d jobs, %d running, %d error, %d suspended, %d stopped",
		running, s.TotalJobs, s.RunningJobs, s.ErrorJobs, s.SuspendedJobs, s.StoppedJobs)
}

func (p *Printer) ScheduleSettings(s *model.ScheduleSettings) {
	if s == nil {
		p.Empty("schedule settings")
		return
	}
	p.table([]string{"SETTING", "VALUE"}, [][]string{
		{"enabled", strconv.FormatBool(s.Enabled)},
		{"default_interval", s.DefaultInterval.String()},
		{"max_concurrent_jobs", strconv.Itoa(s.MaxConcurrentJobs)},
		{"retry_max_attempts", strconv.Itoa(s.RetryMaxAttempts)},
		{"retry_interval", s.RetryInterval.String()},
		{"enable_persistence", strconv.FormatBool(s.EnablePersistence)},
		{"health_check_interval", s.HealthCheckInterval.String()},
	})
}

func (p *Printer) History(page *model.HistoryPage) {
	if page == nil || len(page.Records) == 0 {
		p.Empty("history records")
		return
	}
	p.HistoryRecords(page.Records)
	p.Pagination(page.Pagination())
}

// HistoryRecords prints samples without pagination.
func (p *Printer) HistoryRecords(records []model.HistoryRecord) {
	if len(records) == 0 {
		p.Empty("history records")
		return
	}
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{
			FormatTime(r.CollectedAt),
			r.ClusterName,
			r.Namespace + "/" + r.PodName,
			FormatMillicores(r.CPURequest) + " / " + FormatMillicores(r.CPUUsage),
			FormatBytes(r.MemoryRequest) + " / " + FormatBytes(r.MemoryUsage),
			StatusLabel(r.Status),
		})
	}
	p.table([]string{"COLLECTED", "CLUSTER", "POD", "CPU REQ/USE", "MEM REQ/USE", "STATUS"}, rows)
}

func (p *Printer) HistoryStatistics(s model.HistoryStatistics) {
	rows := [][]string{
		{"records", humanize.Comma(s.TotalRecords)},
		{"clusters", strconv.FormatInt(s.ClusterCount, 10)},
		{"namespaces", strconv.FormatInt(s.NamespaceCount, 10)},
	}
	if s.EarliestRecord != nil {
		rows = append(rows, []string{"earliest", FormatTime(*s.EarliestRecord)})
	}
	if s.LatestRecord != nil {
		rows = append(rows, []string{"latest", FormatTime(*s.LatestRecord) + " (" + FormatRelative(*s.LatestRecord, p.now()) + ")"})
	}
	p.table([]string{"METRIC", "VALUE"}, rows)
}

func (p *Printer) Trends(s store.TrendSeries) {
	title := "Trends (" + s.Range + ")"
	if s.Synthetic {
		title += " " + p.muted.Render("placeholder data")
	}
	p.Title(title)
	rows := make([][]string, 0, len(s.Points))
	for _, pt := range s.Points {
		rows = append(rows, []string{
			pt.Time,
			p.badge(UsageBadge(pt.CPU), FormatPercentage(pt.CPU)),
			p.badge(UsageBadge(pt.Memory), FormatPercentage(pt.Memory)),
			strconv.Itoa(pt.Pods),
		})
	}
	p.table([]string{"TIME", "CPU", "MEMORY", "PODS"}, rows)
}

func (p *Printer) Stats(s *model.SystemStats) {
	if s == nil {
		p.Empty("statistics")
		return
	}
	rows := [][]string{
		{"clusters", fmt.Sprintf("%d (%d online)", s.TotalClusters, s.OnlineClusters)},
		{"pods", strconv.Itoa(s.TotalPods)},
		{"problem pods", p.badge(BadgeDanger, strconv.Itoa(s.ProblemPods))},
		{"resource efficiency", FormatPercentage(s.ResourceEfficiency)},
	}
	for _, status := range []model.ClusterStatus{model.ClusterOnline, model.ClusterOffline, model.ClusterError, model.ClusterUnknown} {
		if n, ok := s.ClusterStatusDistribution[string(status)]; ok {
			rows = append(rows, []string{"  " + ClusterStatusLabel(status), p.badge(clusterBadge(status), strconv.Itoa(n))})
		}
	}
	if s.LastUpdate != "" {
		rows = append(rows, []string{"last update", s.LastUpdate})
	}
	p.table([]string{"METRIC", "VALUE"}, rows)
}

func (p *Printer) Activities(list []model.Activity) {
	if len(list) == 0 {
		p.Empty("activities")
		return
	}
	rows := make([][]string, 0, len(list))
	for _, a := range list {
		rows = append(rows, []string{
			FormatRelative(a.CreatedAt, p.now()),
			a.Type,
			a.ClusterID.String(),
			a.Title,
			a.Message,
		})
	}
	p.table([]string{"WHEN", "TYPE", "CLUSTER", "TITLE", "MESSAGE"}, rows)
}

func alertBadge(level string) Badge {
	switch strings.ToLower(level) {
	case "critical", "error", "high":
		return BadgeDanger
	case "warning", "medium":
		return BadgeWarning
	default:
		return BadgePrimary
	}
}

func (p *Printer) Alerts(list []model.Alert) {
	if len(list) == 0 {
		p.Empty("alerts")
		return
	}
	rows := make([][]string, 0, len(list))
	for _, a := range list {
		rows = append(rows, []string{
			a.ID.String(),
			p.badge(alertBadge(a.Level), a.Level),
			a.Title,
			string(a.Status),
			FormatRelative(a.TriggeredAt, p.now()),
			a.Message,
		})
	}
	p.table([]string{"ID", "LEVEL", "TITLE", "STATUS", "TRIGGERED", "MESSAGE"}, rows)
}

func (p *Printer) Report(r store.Report) {
	rows := make([][]string, 0, len(r.Members))
	for _, m := range r.Members {
		status := p.badge(BadgeSuccess, "ok")
		if !m.OK {
			status = p.badge(BadgeDanger, "failed")
		}
		rows = append(rows, []string{m.Name, status, m.Duration.Round(time.Millisecond).String(), m.Error})
	}
	p.table([]string{"MEMBER", "RESULT", "DURATION", "ERROR"}, rows)
	p.Line("%s", r.String())
}

func notificationBadge(t notify.Type) Badge {
	switch t {
	case notify.TypeSuccess:
		return BadgeSuccess
	case notify.TypeWarning:
		return BadgeWarning
	case notify.TypeError:
		return BadgeDanger
	default:
		return BadgePrimary
	}
}

// Notification prints one toast line.
func (p *Printer) Notification(n notify.Notification) {
	line := n.Title
	if n.Message != "" {
		line += ": " + n.Message
	}
	fmt.Fprintln(p.out, p.badge(notificationBadge(n.Type), "["+string(n.Type)+"]")+" "+line)
}
