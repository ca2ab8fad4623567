package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kubeadapt/resource-insight/pkg/model"
)

func TestTrendStore_EmptySeriesFallsBack(t *testing.T) {
	a := newBackendAPI(t, map[string]string{
		"GET /history/system-trends": `{"code":0,"data":{"data":[]}}`,
	})
	s := NewTrendStore(a.History, testDeps())

	series, err := s.Fetch(context.Background(), "24h")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !series.Synthetic {
		t.Fatal("expected a placeholder series")
	}
	if len(series.Points) != 6 {
		t.Fatalf("expected 6 points, got %d", len(series.Points))
	}
	for i, p := range series.Points {
		want := model.TrendPoint{
			Time:   testNow.Add(-time.Duration(5-i) * 4 * time.Hour).Format("15:04"),
			CPU:    float64(45 + 10*(i%3)),
			Memory: float64(60 + 5*(i%2)),
			Pods:   120 + 4*i,
		}
		if p != want {
			t.Fatalf("point %d: expected %+v, got %+v", i, want, p)
		}
	}
	if got := s.State().Data(); !got.Synthetic || len(got.Points) != 6 {
		t.Fatalf("expected the placeholder stored, got %v", got)
	}
}

func TestTrendStore_ErrorFallsBack(t *testing.T) {
	s := NewTrendStore(&stubTrends{err: errors.New("backend down")}, testDeps())

	series, err := s.Fetch(context.Background(), "7d")
	if err == nil {
		t.Fatal("expected the backend error to be returned")
	}
	if len(series.Points) != 7 || !series.Synthetic {
		t.Fatalf("expected 7 placeholder points, got %v", series)
	}
	if got := s.State().Data(); len(got.Points) != 7 {
		t.Fatalf("expected the placeholder stored, got %v", got)
	}
}

func TestTrendStore_LiveSeries(t *testing.T) {
	s := NewTrendStore(&stubTrends{points: []model.TrendPoint{{Time: "10:00", CPU: 33, Memory: 44, Pods: 9}}}, testDeps())

	series, err := s.Fetch(context.Background(), "1h")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if series.Synthetic || len(series.Points) != 1 || series.Range != "1h" {
		t.Fatalf("expected the live series, got %v", series)
	}
}

func TestSynthesize_PointCounts(t *testing.T) {
	want := map[string]int{"1h": 6, "6h": 6, "24h": 6, "7d": 7, "bogus": 6}
	for rng, n := range want {
		if got := len(Synthesize(rng, testNow).Points); got != n {
			t.Errorf("%s: expected %d points, got %d", rng, n, got)
		}
	}
	last := Synthesize("6h", testNow).Points[5]
	if last.Time != testNow.Format("15:04") {
		t.Fatalf("expected the series to end at now, got %q", last.Time)
	}
}
