package store

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/kubeadapt/resource-insight/pkg/model"
)

func TestPodStore_ProblemsUsesConfiguredPageSize(t *testing.T) {
	a := newBackendAPI(t, map[string]string{
		"GET /pods/problems": `{"code":0,"data":{"data":[{"pod_name":"api-0"},{"pod_name":"api-1"}]}}`,
	})
	s := NewPodStore(a.Pods, 25, Deps{})

	page, err := s.FetchProblems(context.Background(), model.ProblemQuery{Page: 1})
	if err != nil {
		t.Fatalf("fetch problems: %v", err)
	}
	if len(page.Pods) != 2 {
		t.Fatalf("expected 2 pods, got %d", len(page.Pods))
	}
	if page.Pagination.Size != 25 {
		t.Fatalf("expected page size 25, got %d", page.Pagination.Size)
	}
	if got := s.Problems().Data(); len(got.Pods) != 2 {
		t.Fatalf("expected the page stored, got %+v", got)
	}
}

func TestPodStore_TopListsResetOnError(t *testing.T) {
	a, routes := newBackend(t, map[string]string{
		"GET /statistics/top-memory-request": `{"code":0,"data":[{"pod_name":"big"}]}`,
	})
	s := NewPodStore(a.Pods, 0, Deps{})
	ctx := context.Background()

	if _, err := s.FetchTopMemory(ctx, 5); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(s.TopMemory().Data()) != 1 {
		t.Fatal("expected one pod")
	}
	routes.remove("GET /statistics/top-memory-request")
	if _, err := s.FetchTopMemory(ctx, 5); err == nil {
		t.Fatal("expected an error")
	}
	if got := s.TopMemory().Data(); got == nil || len(got) != 0 {
		t.Fatalf("expected empty list after failure, got %v", got)
	}
}

func TestScheduleStore_JobControlRereadsJobs(t *testing.T) {
	a := newBackendAPI(t, map[string]string{
		"POST /schedule/jobs/3/start": `{"code":0,"msg":"started"}`,
		"GET /schedule/jobs":          `{"code":0,"data":[{"cluster_id":3,"cluster_name":"prod","status":"running"}]}`,
	})
	notifier := &recordingNotifier{}
	s := NewScheduleStore(a.Schedule, Deps{Notifier: notifier})

	if err := s.StartJob(context.Background(), 3); err != nil {
		t.Fatalf("start job: %v", err)
	}
	jobs := s.Jobs().Data()
	if len(jobs) != 1 || jobs[0].Status != model.JobRunning {
		t.Fatalf("expected jobs re-read after start, got %+v", jobs)
	}
	if msgs := notifier.all(); len(msgs) != 1 || !strings.HasPrefix(msgs[0], "success|Job started") {
		t.Fatalf("expected one success notification, got %v", msgs)
	}
}

func TestScheduleStore_FailedControlKeepsJobs(t *testing.T) {
	a := newBackendAPI(t, map[string]string{
		"GET /schedule/jobs": `{"code":0,"data":[{"cluster_id":3,"status":"stopped"}]}`,
	})
	notifier := &recordingNotifier{}
	s := NewScheduleStore(a.Schedule, Deps{Notifier: notifier})
	ctx := context.Background()

	if _, err := s.FetchJobs(ctx); err != nil {
		t.Fatalf("fetch jobs: %v", err)
	}
	if err := s.StopJob(ctx, 3); err == nil {
		t.Fatal("expected the unknown route to fail")
	}
	if len(s.Jobs().Data()) != 1 {
		t.Fatal("expected jobs kept after a failed control")
	}
	if s.Jobs().Err() == "" {
		t.Fatal("expected the error recorded")
	}
	if msgs := notifier.all(); len(msgs) != 0 {
		t.Fatalf("expected no notification, got %v", msgs)
	}
}

func TestScheduleStore_UpdateSettingsStoresEcho(t *testing.T) {
	a := newBackendAPI(t, map[string]string{
		"PUT /schedule/settings": `{"code":0,"data":{"enabled":true,"default_interval":600000000000,"max_concurrent_jobs":4}}`,
	})
	s := NewScheduleStore(a.Schedule, Deps{})

	err := s.UpdateSettings(context.Background(), model.ScheduleSettings{Enabled: true, DefaultInterval: 5 * time.Minute})
	if err != nil {
		t.Fatalf("update settings: %v", err)
	}
	got := s.Settings().Data()
	if got.DefaultInterval != 10*time.Minute || got.MaxConcurrentJobs != 4 {
		t.Fatalf("expected the echoed settings stored, got %+v", got)
	}
}

func TestActivityStore_ResolveReplacesEntry(t *testing.T) {
	a := newBackendAPI(t, map[string]string{
		"GET /alerts/recent":    `{"code":0,"data":{"data":[{"id":1,"title":"cpu","status":"active"},{"id":2,"title":"mem","status":"active"}]}}`,
		"PUT /alerts/2/resolve": `{"code":0,"msg":"ok"}`,
		"GET /alerts/2":         `{"code":0,"data":{"id":2,"title":"mem","status":"resolved"}}`,
	})
	notifier := &recordingNotifier{}
	s := NewActivityStore(a.Activity, 10, Deps{Notifier: notifier})
	ctx := context.Background()

	if _, err := s.FetchAlerts(ctx); err != nil {
		t.Fatalf("fetch alerts: %v", err)
	}
	if err := s.Resolve(ctx, 2); err != nil {
		t.Fatalf("resolve: %v", err)
	}

	alerts := s.Alerts().Data()
	if alerts[0].Status != model.AlertActive {
		t.Fatalf("expected alert 1 untouched, got %q", alerts[0].Status)
	}
	if alerts[1].Status != model.AlertResolved {
		t.Fatalf("expected alert 2 resolved, got %q", alerts[1].Status)
	}
	if msgs := notifier.all(); len(msgs) != 1 || !strings.Contains(msgs[0], "Alert resolved") {
		t.Fatalf("expected a resolve notification, got %v", msgs)
	}
}

func TestNamespaceStore_Fetch(t *testing.T) {
	a := newBackendAPI(t, map[string]string{
		"GET /namespaces/summary": `{"code":0,"data":[{"namespace_name":"shop","cluster_name":"prod","total_pods":4,"unreasonable_pods":1}]}`,
	})
	s := NewNamespaceStore(a.Pods, Deps{})

	list, err := s.Fetch(context.Background(), "prod")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(list) != 1 || list[0].UnreasonablePods != 1 {
		t.Fatalf("unexpected summaries %+v", list)
	}
}

func TestActivityStore_CleanupRereadsLists(t *testing.T) {
	a, table := newBackend(t, map[string]string{
		"GET /activities/recent":     `{"code":0,"data":{"data":[{"id":1,"type":"collect"}]}}`,
		"GET /alerts/recent":         `{"code":0,"data":{"data":[{"id":1,"title":"cpu"},{"id":2,"title":"mem"}]}}`,
		"DELETE /activities/cleanup": `{"code":0,"msg":"cleaned"}`,
	})
	notifier := &recordingNotifier{}
	s := NewActivityStore(a.Activity, 10, Deps{Notifier: notifier})
	ctx := context.Background()

	if _, err := s.FetchAlerts(ctx); err != nil {
		t.Fatalf("fetch alerts: %v", err)
	}
	table.set("GET /activities/recent", `{"code":0,"data":{"data":[]}}`)
	table.set("GET /alerts/recent", `{"code":0,"data":{"data":[]}}`)

	msg, err := s.Cleanup(ctx, 0)
	if err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if msg != "cleaned" {
		t.Fatalf("expected backend message, got %q", msg)
	}
	if n := len(s.Alerts().Data()); n != 0 {
		t.Fatalf("expected alerts re-read after cleanup, got %d", n)
	}
	if n := len(s.Activities().Data()); n != 0 {
		t.Fatalf("expected activities re-read after cleanup, got %d", n)
	}
	if msgs := notifier.all(); len(msgs) != 1 || !strings.Contains(msgs[0], "Activities cleaned up") {
		t.Fatalf("expected a cleanup notification, got %v", msgs)
	}
}

func TestNamespaceStore_TreeResetsOnError(t *testing.T) {
	a, table := newBackend(t, map[string]string{
		"GET /namespaces/shop/tree-data": `{"code":0,"data":{"data":{"namespace_name":"shop","children":[{"pod_name":"cart"}],"summary":{"total_pods":1}}}}`,
	})
	s := NewNamespaceStore(a.Pods, Deps{})
	ctx := context.Background()

	tree, err := s.FetchTree(ctx, "shop")
	if err != nil {
		t.Fatalf("fetch tree: %v", err)
	}
	if len(tree.Children) != 1 || tree.Summary.TotalPods != 1 {
		t.Fatalf("unexpected tree %+v", tree)
	}

	table.remove("GET /namespaces/shop/tree-data")
	if _, err := s.FetchTree(ctx, "shop"); err == nil {
		t.Fatal("expected an error once the route is gone")
	}
	if got := s.Tree().Data(); got.Children == nil || len(got.Children) != 0 {
		t.Fatalf("expected an empty tree after the failure, got %+v", got)
	}
	if s.Tree().Err() == "" {
		t.Fatal("expected the failure recorded")
	}
}

func TestHistoryStore_Statistics(t *testing.T) {
	a := newBackendAPI(t, map[string]string{
		"GET /history/statistics": `{"code":0,"data":{"data":{"total_records":42,"cluster_count":1}}}`,
	})
	s := NewHistoryStore(a.History, Deps{})

	stats, err := s.FetchStatistics(context.Background())
	if err != nil {
		t.Fatalf("fetch statistics: %v", err)
	}
	if stats.TotalRecords != 42 || s.Statistics().Data().ClusterCount != 1 {
		t.Fatalf("unexpected statistics %+v", s.Statistics().Data())
	}
}
