package api

import (
	"context"
	"net/http"

	"golang.org/x/sync/errgroup"

	"github.com/kubeadapt/resource-insight/internal/envelope"
	"github.com/kubeadapt/resource-insight/internal/transport"
	"github.com/kubeadapt/resource-insight/internal/validation"
	"github.com/kubeadapt/resource-insight/pkg/model"
)

// Clusters manages registered clusters.
type Clusters struct {
	caller
	validator *validation.Validator
}

// List returns every registered cluster.
func (c *Clusters) List(ctx context.Context) ([]model.Cluster, error) {
	body, err := c.get(ctx, clusterList, "/clusters", nil)
	if err != nil {
		return []model.Cluster{}, err
	}
	clusters, _ := envelope.List[model.Cluster](c.reporter, body, clusterList)
	for i := range clusters {
		clusters[i].Normalize()
	}
	return clusters, nil
}

// Get returns one cluster, or nil when the response carried none.
func (c *Clusters) Get(ctx context.Context, id model.ID) (*model.Cluster, error) {
	body, err := c.get(ctx, clusterDetail, idPath("/clusters", id), nil)
	if err != nil {
		return nil, err
	}
	return decodeCluster(c.reporter, body, clusterDetail), nil
}

// Create validates req locally, then registers the cluster.
func (c *Clusters) Create(ctx context.Context, req model.CreateClusterRequest) (*model.Cluster, error) {
	if err := c.validator.CreateRequest(ctx, clusterCreate.Name, &req); err != nil {
		return nil, err
	}
	body, err := c.send(ctx, transport.Request{
		Method:   http.MethodPost,
		Path:     "/clusters",
		Body:     req,
		Endpoint: clusterCreate.Name,
	})
	if err != nil {
		return nil, err
	}
	return decodeCluster(c.reporter, body, clusterCreate), nil
}

// Update sends the non-nil fields of req.
func (c *Clusters) Update(ctx context.Context, id model.ID, req model.UpdateClusterRequest) (*model.Cluster, error) {
	if err := c.validator.UpdateRequest(clusterUpdate.Name, &req); err != nil {
		return nil, err
	}
	body, err := c.send(ctx, transport.Request{
		Method:   http.MethodPut,
		Path:     idPath("/clusters", id),
		Body:     req,
		Endpoint: clusterUpdate.Name,
	})
	if err != nil {
		return nil, err
	}
	return decodeCluster(c.reporter, body, clusterUpdate), nil
}

func (c *Clusters) Delete(ctx context.Context, id model.ID) error {
	_, err := c.send(ctx, transport.Request{
		Method:   http.MethodDelete,
		Path:     idPath("/clusters", id),
		Endpoint: "clusters.delete",
	})
	return err
}

// Test checks a registered cluster's connectivity.
func (c *Clusters) Test(ctx context.Context, id model.ID) (model.ClusterTestResult, error) {
	body, err := c.send(ctx, transport.Request{
		Method:   http.MethodPost,
		Path:     idPath("/clusters", id, "test"),
		Endpoint: clusterTest.Name,
	})
	if err != nil {
		return model.ClusterTestResult{}, err
	}
	res, _ := envelope.Object[model.ClusterTestResult](c.reporter, body, clusterTest)
	return res, nil
}

// TestConfig checks an unregistered configuration. It validates like Create.
func (c *Clusters) TestConfig(ctx context.Context, req model.CreateClusterRequest) (model.ClusterTestResult, error) {
	if err := c.validator.CreateRequest(ctx, clusterTestConfig.Name, &req); err != nil {
		return model.ClusterTestResult{}, err
	}
	body, err := c.send(ctx, transport.Request{
		Method:   http.MethodPost,
		Path:     "/clusters/test",
		Body:     req,
		Endpoint: clusterTestConfig.Name,
	})
	if err != nil {
		return model.ClusterTestResult{}, err
	}
	res, _ := envelope.Object[model.ClusterTestResult](c.reporter, body, clusterTestConfig)
	return res, nil
}

// BatchTest checks every registered cluster. Results are keyed by cluster id;
// keys that are not ids are reported and dropped.
func (c *Clusters) BatchTest(ctx context.Context) (map[model.ID]model.ClusterTestResult, error) {
	body, err := c.send(ctx, transport.Request{
		Method:   http.MethodPost,
		Path:     "/clusters/batch-test",
		Endpoint: clusterBatchTest.Name,
	})
	if err != nil {
		return map[model.ID]model.ClusterTestResult{}, err
	}
	raw, _ := envelope.Map[model.ClusterTestResult](c.reporter, body, clusterBatchTest)
	out := make(map[model.ID]model.ClusterTestResult, len(raw))
	for k, v := range raw {
		id, ok := model.ParseID(k)
		if !ok {
			c.reporter.Mismatch(clusterBatchTest, "non-numeric cluster id "+k)
			continue
		}
		out[id] = v
	}
	return out, nil
}

// ListWithStats lists clusters and tests each one, at most concurrency at a
// time, merging the live result into the record. A cluster whose test fails
// keeps its stored record.
func (c *Clusters) ListWithStats(ctx context.Context, concurrency int) ([]model.Cluster, error) {
	clusters, err := c.List(ctx)
	if err != nil {
		return clusters, err
	}
	if concurrency <= 0 {
		concurrency = 1
	}

	var g errgroup.Group
	g.SetLimit(concurrency)
	for i := range clusters {
		g.Go(func() error {
			res, err := c.Test(ctx, clusters[i].ID)
			if err != nil {
				return nil
			}
			clusters[i].Live = &res
			if res.Status != "" {
				clusters[i].Status = res.Status
			}
			return nil
		})
	}
	_ = g.Wait()
	return clusters, nil
}

func decodeCluster(r envelope.Reporter, body []byte, d envelope.Descriptor) *model.Cluster {
	cluster, ok := envelope.Object[*model.Cluster](r, body, d)
	if !ok || cluster == nil {
		return nil
	}
	cluster.Normalize()
	return cluster
}
