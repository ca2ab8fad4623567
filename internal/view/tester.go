package view

import (
	"context"
	"fmt"
	"sync"

	insighterrors "github.com/kubeadapt/resource-insight/internal/errors"
	"github.com/kubeadapt/resource-insight/pkg/model"
)

const testerComponent = "cluster_tester"

// ClusterChecker runs a connectivity test for a saved cluster.
type ClusterChecker interface {
	Test(ctx context.Context, id model.ID) (model.ClusterTestResult, error)
}

// ClusterTester runs single-cluster connection tests from the list view. It
// refuses a second test of a cluster whose test is still running.
type ClusterTester struct {
	checker ClusterChecker

	mu      sync.Mutex
	running map[model.ID]struct{}
}

func NewClusterTester(p ClusterChecker) *ClusterTester {
	return &ClusterTester{checker: p, running: make(map[model.ID]struct{})}
}

// Test checks the cluster identified by id, which may be a model.ID, an
// integer or a numeric string as found in route parameters.
func (t *ClusterTester) Test(ctx context.Context, id any) (model.ClusterTestResult, error) {
	cid, ok := model.ParseID(id)
	if !ok {
		return model.ClusterTestResult{}, insighterrors.Validation(testerComponent, fmt.Sprintf("invalid cluster id %v", id))
	}

	t.mu.Lock()
	if _, busy := t.running[cid]; busy {
		t.mu.Unlock()
		return model.ClusterTestResult{}, insighterrors.Validation(testerComponent, "a test of cluster "+cid.String()+" is already running")
	}
	t.running[cid] = struct{}{}
	t.mu.Unlock()

	defer func() {
		t.mu.Lock()
		delete(t.running, cid)
		t.mu.Unlock()
	}()
	return t.checker.Test(ctx, cid)
}

// Testing reports whether a test of id is running.
func (t *ClusterTester) Testing(id model.ID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.running[id]
	return ok
}
