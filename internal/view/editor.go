package view

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"k8s.io/utils/ptr"

	insighterrors "github.com/kubeadapt/resource-insight/internal/errors"
	"github.com/kubeadapt/resource-insight/internal/validation"
	"github.com/kubeadapt/resource-insight/pkg/model"
)

// EditorState is the lifecycle state of the add/edit cluster dialog.
type EditorState string

const (
	EditorClosed  EditorState = "closed"
	EditorOpen    EditorState = "open"
	EditorSaving  EditorState = "saving"
	EditorTesting EditorState = "testing"
)

// EditorMode tells whether the open dialog registers or changes a cluster.
type EditorMode string

const (
	ModeCreate EditorMode = "create"
	ModeEdit   EditorMode = "edit"
)

const editorComponent = "cluster_editor"

// ClusterSaver is the subset of store.ClusterStore the editor writes through.
type ClusterSaver interface {
	Create(ctx context.Context, req model.CreateClusterRequest) (*model.Cluster, error)
	Update(ctx context.Context, id model.ID, req model.UpdateClusterRequest) (*model.Cluster, error)
	Test(ctx context.Context, id model.ID) (model.ClusterTestResult, error)
}

// ConfigTester tests a connection config that has not been saved yet.
type ConfigTester interface {
	TestConfig(ctx context.Context, req model.CreateClusterRequest) (model.ClusterTestResult, error)
}

// ClusterEditor drives the add/edit cluster dialog. Every input check runs
// before a request is issued.
type ClusterEditor struct {
	saver     ClusterSaver
	tester    ConfigTester
	validator *validation.Validator

	mu       sync.RWMutex
	state    EditorState
	mode     EditorMode
	original model.Cluster
	form     model.CreateClusterRequest
	err      string
	lastTest *model.ClusterTestResult
}

func NewClusterEditor(saver ClusterSaver, tester ConfigTester, v *validation.Validator) *ClusterEditor {
	if v == nil {
		v = validation.New()
	}
	return &ClusterEditor{
		saver:     saver,
		tester:    tester,
		validator: v,
		state:     EditorClosed,
	}
}

// ErrInvalidTransition is returned when an action does not apply to the
// editor's current state.
type ErrInvalidTransition struct {
	From   string
	Action string
}

func (e *ErrInvalidTransition) Error() string {
	return fmt.Sprintf("cannot %s while %s", e.Action, e.From)
}

// OpenCreate opens an empty form.
func (e *ClusterEditor) OpenCreate() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != EditorClosed {
		return &ErrInvalidTransition{From: string(e.state), Action: "open"}
	}
	e.state = EditorOpen
	e.mode = ModeCreate
	e.original = model.Cluster{}
	e.form = model.CreateClusterRequest{AuthType: model.AuthToken}
	e.err = ""
	e.lastTest = nil
	return nil
}

// OpenEdit opens the form prefilled from c. Credentials are never returned
// by the backend, so the auth config starts empty and is only sent when the
// user supplies a new one.
func (e *ClusterEditor) OpenEdit(c model.Cluster) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != EditorClosed {
		return &ErrInvalidTransition{From: string(e.state), Action: "open"}
	}
	e.state = EditorOpen
	e.mode = ModeEdit
	e.original = c
	e.form = model.CreateClusterRequest{
		Name:            c.Name,
		Alias:           c.Alias,
		APIServer:       c.APIServer,
		AuthType:        c.AuthType,
		CollectInterval: c.CollectInterval,
		Tags:            slices.Clone([]string(c.Tags)),
	}
	e.err = ""
	e.lastTest = nil
	return nil
}

// Close discards the form. Closing while a request is running is refused.
func (e *ClusterEditor) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == EditorSaving || e.state == EditorTesting {
		return &ErrInvalidTransition{From: string(e.state), Action: "close"}
	}
	e.state = EditorClosed
	e.err = ""
	return nil
}

// SetForm replaces the form contents.
func (e *ClusterEditor) SetForm(f model.CreateClusterRequest) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != EditorOpen {
		return &ErrInvalidTransition{From: string(e.state), Action: "edit the form"}
	}
	e.form = f
	return nil
}

func (e *ClusterEditor) Form() model.CreateClusterRequest {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.form
}

func (e *ClusterEditor) State() EditorState {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state
}

func (e *ClusterEditor) Mode() EditorMode {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.mode
}

// Err is the message shown in the open form after a failed save or test.
func (e *ClusterEditor) Err() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.err
}

// LastTest is the result of the most recent connection test, if any.
func (e *ClusterEditor) LastTest() *model.ClusterTestResult {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.lastTest
}

// Submit validates the form and saves it. On success the editor closes; on
// failure it stays open with the error shown.
func (e *ClusterEditor) Submit(ctx context.Context) (*model.Cluster, error) {
	e.mu.Lock()
	if e.state != EditorOpen {
		state := e.state
		e.mu.Unlock()
		return nil, &ErrInvalidTransition{From: string(state), Action: "save"}
	}
	mode, form, original := e.mode, e.form, e.original

	var update model.UpdateClusterRequest
	var err error
	if mode == ModeCreate {
		err = e.validator.CreateRequest(ctx, editorComponent, &form)
		e.form = form
	} else {
		update = diff(original, form)
		err = e.validator.UpdateRequest(editorComponent, &update)
	}
	if err != nil {
		e.err = insighterrors.MessageOf(err)
		e.mu.Unlock()
		return nil, err
	}
	e.state = EditorSaving
	e.err = ""
	e.mu.Unlock()

	var saved *model.Cluster
	if mode == ModeCreate {
		saved, err = e.saver.Create(ctx, form)
	} else {
		saved, err = e.saver.Update(ctx, original.ID, update)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if err != nil {
		e.state = EditorOpen
		e.err = insighterrors.MessageOf(err)
		return nil, err
	}
	e.state = EditorClosed
	return saved, nil
}

// Test checks the connection without leaving the dialog. A new form is
// tested by its config; an edited cluster without new credentials is
// tested through its saved record.
func (e *ClusterEditor) Test(ctx context.Context) (model.ClusterTestResult, error) {
	e.mu.Lock()
	if e.state != EditorOpen {
		state := e.state
		e.mu.Unlock()
		return model.ClusterTestResult{}, &ErrInvalidTransition{From: string(state), Action: "test"}
	}
	mode, form, id := e.mode, e.form, e.original.ID
	bySaved := mode == ModeEdit && (form.AuthConfig == model.AuthConfig{})

	if !bySaved {
		if err := e.validator.CreateRequest(ctx, editorComponent, &form); err != nil {
			e.err = insighterrors.MessageOf(err)
			e.mu.Unlock()
			return model.ClusterTestResult{}, err
		}
	}
	e.state = EditorTesting
	e.err = ""
	e.mu.Unlock()

	var res model.ClusterTestResult
	var err error
	if bySaved {
		res, err = e.saver.Test(ctx, id)
	} else {
		res, err = e.tester.TestConfig(ctx, form)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.state = EditorOpen
	if err != nil {
		e.err = insighterrors.MessageOf(err)
		return res, err
	}
	e.lastTest = &res
	if !res.Success {
		e.err = res.Message
	}
	return res, nil
}

// diff builds the partial update carrying only the fields the form changed.
func diff(c model.Cluster, f model.CreateClusterRequest) model.UpdateClusterRequest {
	var u model.UpdateClusterRequest
	if f.Name != c.Name {
		u.Name = ptr.To(f.Name)
	}
	if f.Alias != c.Alias {
		u.Alias = ptr.To(f.Alias)
	}
	if f.APIServer != c.APIServer {
		u.APIServer = ptr.To(f.APIServer)
	}
	if f.CollectInterval != c.CollectInterval {
		u.CollectInterval = ptr.To(f.CollectInterval)
	}
	if !slices.Equal(f.Tags, []string(c.Tags)) {
		u.Tags = f.Tags
		if u.Tags == nil {
			u.Tags = []string{}
		}
	}
	if f.AuthType != c.AuthType || (f.AuthConfig != model.AuthConfig{}) {
		u.AuthType = ptr.To(f.AuthType)
		if (f.AuthConfig != model.AuthConfig{}) {
			u.AuthConfig = ptr.To(f.AuthConfig)
		}
	}
	return u
}
