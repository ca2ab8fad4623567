package store

import (
	"context"
	"sync"
	"time"

	insighterrors "github.com/kubeadapt/resource-insight/internal/errors"
	"github.com/kubeadapt/resource-insight/internal/observability"
)

// Policy decides what a failed fetch does to the data already held.
type Policy int

const (
	// ResetOnError replaces the data with the empty value. List fetchers use it.
	ResetOnError Policy = iota
	// KeepOnError leaves the data untouched. Detail fetchers use it.
	KeepOnError
)

// Snapshot is a consistent copy of a State.
type Snapshot[T any] struct {
	Data        T
	Loading     bool
	Error       string
	LastUpdated time.Time
}

// State is a concurrency-safe cell holding one fetched value together with
// its loading flag, last error and update time.
//
// Every operation takes a sequence number when it starts. A fetch result is
// applied only when its sequence is still the newest issued; results that
// lost the race, or whose context ended first, are discarded.
type State[T any] struct {
	name    string
	policy  Policy
	empty   func() T
	clock   insighterrors.Clock
	metrics *observability.Metrics

	mu          sync.RWMutex
	data        T
	inFlight    int
	errMsg      string
	lastUpdated time.Time
	issued      uint64
	discarded   uint64

	lmu       sync.Mutex
	listeners []listener[T]
	nextID    int
}

type listener[T any] struct {
	id int
	fn func(Snapshot[T])
}

// NewState creates a State whose data starts as empty().
func NewState[T any](name string, policy Policy, empty func() T, deps Deps) *State[T] {
	deps = deps.withDefaults()
	return &State[T]{
		name:    name,
		policy:  policy,
		empty:   empty,
		clock:   deps.Clock,
		metrics: deps.Metrics,
		data:    empty(),
	}
}

// Name is the label used in logs and metrics.
func (s *State[T]) Name() string { return s.name }

// Run executes op as the newest fetch. On success the data is replaced and
// the error cleared; on failure the error is recorded and the data handled
// per policy. op's own result is returned either way.
func (s *State[T]) Run(ctx context.Context, op func(ctx context.Context) (T, error)) (T, error) {
	return s.run(ctx, s.policy, op)
}

// Refresh is Run with KeepOnError regardless of the state's policy. Background
// refreshes use it so a failed member keeps what it had.
func (s *State[T]) Refresh(ctx context.Context, op func(ctx context.Context) (T, error)) (T, error) {
	return s.run(ctx, KeepOnError, op)
}

func (s *State[T]) run(ctx context.Context, policy Policy, op func(ctx context.Context) (T, error)) (T, error) {
	seq := s.begin(true)
	outcome := observability.OutcomeFailed
	defer func() { s.end(outcome) }()

	data, err := op(ctx)

	s.locked(func() {
		switch {
		case seq != s.issued || ctx.Err() != nil:
			s.discarded++
			outcome = observability.OutcomeStale
		case err != nil:
			s.errMsg = insighterrors.MessageOf(err)
			if policy == ResetOnError {
				s.data = s.empty()
			}
		default:
			s.data = data
			s.errMsg = ""
			s.lastUpdated = s.clock.Now()
			outcome = observability.OutcomeSuccess
		}
	})
	return data, err
}

// Mutate executes op, a server call whose response drives a change to the
// data. On success the returned apply function is called with the current
// data and its result stored. Mutations always keep the data on error.
// A successful mutation makes every fetch still in flight stale; a failed
// one, including one rejected before any request was sent, leaves them be.
func (s *State[T]) Mutate(ctx context.Context, op func(ctx context.Context) (func(T) T, error)) error {
	s.begin(false)
	outcome := observability.OutcomeFailed
	defer func() { s.end(outcome) }()

	apply, err := op(ctx)

	s.locked(func() {
		if err != nil {
			s.errMsg = insighterrors.MessageOf(err)
			return
		}
		s.issued++
		if apply != nil {
			s.data = apply(s.data)
		}
		s.errMsg = ""
		s.lastUpdated = s.clock.Now()
		outcome = observability.OutcomeSuccess
	})
	return err
}

// Get returns a snapshot of the state.
func (s *State[T]) Get() Snapshot[T] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Data returns the current data.
func (s *State[T]) Data() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data
}

// Loading reports whether any operation is in flight.
func (s *State[T]) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.inFlight > 0
}

// Err returns the message of the last failed operation, or "".
func (s *State[T]) Err() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.errMsg
}

// LastUpdated returns when the data was last replaced.
func (s *State[T]) LastUpdated() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastUpdated
}

// Discarded returns how many results were dropped as stale.
func (s *State[T]) Discarded() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.discarded
}

// Reset restores the empty data and clears the error. Operations still in
// flight become stale.
func (s *State[T]) Reset() {
	s.mu.Lock()
	s.issued++
	s.data = s.empty()
	s.errMsg = ""
	s.lastUpdated = time.Time{}
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)
}

// Subscribe registers fn to receive a snapshot after every change, including
// loading transitions. The returned func unregisters it.
func (s *State[T]) Subscribe(fn func(Snapshot[T])) func() {
	s.lmu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners = append(s.listeners, listener[T]{id: id, fn: fn})
	s.lmu.Unlock()

	return func() {
		s.lmu.Lock()
		defer s.lmu.Unlock()
		for i, l := range s.listeners {
			if l.id == id {
				s.listeners = append(s.listeners[:i], s.listeners[i+1:]...)
				return
			}
		}
	}
}

// begin marks an operation in flight. Fetches take a new sequence number.
func (s *State[T]) begin(fetch bool) uint64 {
	s.mu.Lock()
	if fetch {
		s.issued++
	}
	seq := s.issued
	s.inFlight++
	snap := s.snapshotLocked()
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.StoreInFlight.WithLabelValues(s.name).Inc()
	}
	s.notify(snap)
	return seq
}

// end clears what begin set. It runs deferred, so loading drops even when
// the operation panics.
func (s *State[T]) end(outcome string) {
	s.mu.Lock()
	s.inFlight--
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.record(outcome)
	s.notify(snap)
}

func (s *State[T]) locked(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn()
}

func (s *State[T]) record(outcome string) {
	if s.metrics == nil {
		return
	}
	s.metrics.StoreInFlight.WithLabelValues(s.name).Dec()
	s.metrics.StoreOperations.WithLabelValues(s.name, outcome).Inc()
}

func (s *State[T]) snapshotLocked() Snapshot[T] {
	return Snapshot[T]{
		Data:        s.data,
		Loading:     s.inFlight > 0,
		Error:       s.errMsg,
		LastUpdated: s.lastUpdated,
	}
}

func (s *State[T]) notify(snap Snapshot[T]) {
	s.lmu.Lock()
	fns := make([]func(Snapshot[T]), len(s.listeners))
	for i, l := range s.listeners {
		fns[i] = l.fn
	}
	s.lmu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}
