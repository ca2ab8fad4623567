// Package api exposes one typed client per backend resource family. Each
// function issues a single request through a Doer and unwraps the payload
// with its endpoint descriptor; none of them keeps state.
package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/kubeadapt/resource-insight/internal/envelope"
	"github.com/kubeadapt/resource-insight/internal/transport"
	"github.com/kubeadapt/resource-insight/internal/validation"
	"github.com/kubeadapt/resource-insight/pkg/model"
)

// Doer sends one backend request. *transport.Client implements it.
type Doer interface {
	Do(ctx context.Context, req transport.Request) (*transport.Response, error)
}

// API groups the resource clients.
type API struct {
	Clusters *Clusters
	Pods     *Pods
	Analysis *Analysis
	Schedule *Schedule
	History  *History
	Activity *Activity
	Stats    *Stats
	System   *System
}

// New builds every resource client on doer. Shape mismatches go to reporter;
// a nil reporter discards them.
func New(doer Doer, reporter envelope.Reporter) *API {
	if reporter == nil {
		reporter = envelope.Discard
	}
	c := caller{doer: doer, reporter: reporter}
	return &API{
		Clusters: &Clusters{caller: c, validator: validation.New()},
		Pods:     &Pods{caller: c},
		Analysis: &Analysis{caller: c},
		Schedule: &Schedule{caller: c},
		History:  &History{caller: c},
		Activity: &Activity{caller: c},
		Stats:    &Stats{caller: c},
		System:   &System{caller: c},
	}
}

type caller struct {
	doer     Doer
	reporter envelope.Reporter
}

func (c caller) get(ctx context.Context, endpoint envelope.Descriptor, path string, query url.Values) ([]byte, error) {
	return c.send(ctx, transport.Request{Method: http.MethodGet, Path: path, Query: query, Endpoint: endpoint.Name})
}

func (c caller) send(ctx context.Context, req transport.Request) ([]byte, error) {
	resp, err := c.doer.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

func idPath(prefix string, id model.ID, suffix ...string) string {
	p := prefix + "/" + id.String()
	for _, s := range suffix {
		p += "/" + s
	}
	return p
}

func limitQuery(limit int) url.Values {
	if limit <= 0 {
		return nil
	}
	return url.Values{"limit": {strconv.Itoa(limit)}}
}
