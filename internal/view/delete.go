package view

import (
	"context"
	"sync"

	insighterrors "github.com/kubeadapt/resource-insight/internal/errors"
	"github.com/kubeadapt/resource-insight/pkg/model"
)

// DeleteState is the state of the delete confirmation flow.
type DeleteState string

const (
	DeleteIdle           DeleteState = "idle"
	DeleteConfirmPending DeleteState = "confirm_pending"
	DeleteDeleted        DeleteState = "deleted"
)

// ClusterDeleter removes a cluster.
type ClusterDeleter interface {
	Delete(ctx context.Context, id model.ID) error
}

// DeleteFlow gates cluster deletion behind an explicit confirmation. Request
// only arms the flow; the backend is called by Confirm.
type DeleteFlow struct {
	deleter ClusterDeleter

	mu     sync.Mutex
	state  DeleteState
	target model.Cluster
	err    string
}

func NewDeleteFlow(d ClusterDeleter) *DeleteFlow {
	return &DeleteFlow{deleter: d, state: DeleteIdle}
}

// Request asks for confirmation to delete c.
func (f *DeleteFlow) Request(c model.Cluster) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state == DeleteConfirmPending {
		return &ErrInvalidTransition{From: string(f.state), Action: "request a delete"}
	}
	f.state = DeleteConfirmPending
	f.target = c
	f.err = ""
	return nil
}

// Cancel abandons a pending confirmation.
func (f *DeleteFlow) Cancel() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state == DeleteConfirmPending {
		f.state = DeleteIdle
		f.target = model.Cluster{}
	}
}

// Confirm deletes the pending target. A failed delete returns the flow to
// idle with the error kept for display.
func (f *DeleteFlow) Confirm(ctx context.Context) error {
	f.mu.Lock()
	if f.state != DeleteConfirmPending {
		state := f.state
		f.mu.Unlock()
		return &ErrInvalidTransition{From: string(state), Action: "confirm"}
	}
	id := f.target.ID
	f.mu.Unlock()

	err := f.deleter.Delete(ctx, id)

	f.mu.Lock()
	defer f.mu.Unlock()
	if err != nil {
		f.state = DeleteIdle
		f.err = insighterrors.MessageOf(err)
		return err
	}
	f.state = DeleteDeleted
	return nil
}

func (f *DeleteFlow) State() DeleteState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Target is the cluster awaiting confirmation or last deleted.
func (f *DeleteFlow) Target() model.Cluster {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.target
}

func (f *DeleteFlow) Err() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

// Prompt is the confirmation question for the pending target.
func (f *DeleteFlow) Prompt() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != DeleteConfirmPending {
		return ""
	}
	return "Delete cluster " + f.target.DisplayName() + "? Its collected history is removed as well."
}
