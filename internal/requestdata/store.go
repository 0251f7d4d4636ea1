package requestdata

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/parisxmas/central-admin/internal/central"
)

type resource struct {
	state     State
	data      any
	err       error
	token     uint64
	updatedAt time.Time

	last     *central.Request
	lastOpts []RequestOption
}

// Store holds the resources of one console. Safe for concurrent use.
type Store struct {
	requester Requester
	registry  *Registry
	now       func() time.Time

	mu        sync.Mutex
	resources map[Key]*resource
	observers []Observer

	// notifyMu keeps observer callbacks in transition order.
	notifyMu sync.Mutex
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) { s.now = now }
}

// WithObserver registers an observer at construction.
func WithObserver(o Observer) StoreOption {
	return func(s *Store) { s.observers = append(s.observers, o) }
}

// NewStore creates a store sending requests through requester and
// transforming responses with registry (which may be nil).
func NewStore(requester Requester, registry *Registry, opts ...StoreOption) *Store {
	s := &Store{
		requester: requester,
		registry:  registry,
		now:       time.Now,
		resources: make(map[Key]*resource),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Observe registers an observer. Observers must not call back into the
// store from inside Observe.
func (s *Store) Observe(o Observer) {
	s.mu.Lock()
	s.observers = append(s.observers, o)
	s.mu.Unlock()
}

// RequestOption adjusts a single request.
type RequestOption func(*requestOptions)

type requestOptions struct {
	transform       Transform
	fulfillProblem  func(central.Problem) bool
	keepDataOnError bool
}

// WithTransform overrides the registered transform for one request.
func WithTransform(t Transform) RequestOption {
	return func(o *requestOptions) { o.transform = t }
}

// FulfillProblem treats Problem responses matching fn as successes; the
// transform then receives the error response.
func FulfillProblem(fn func(central.Problem) bool) RequestOption {
	return func(o *requestOptions) { o.fulfillProblem = fn }
}

// KeepDataOnError keeps the previous data when the request fails.
func KeepDataOnError() RequestOption {
	return func(o *requestOptions) { o.keepDataOnError = true }
}

// Request issues req for key and applies its response if no newer request,
// cancellation or reset happened for the key in the meantime. A discarded
// response yields ErrStale and leaves the resource untouched.
func (s *Store) Request(ctx context.Context, key Key, req central.Request, opts ...RequestOption) (Snapshot, error) {
	o := requestOptions{transform: s.registry.Lookup(key)}
	for _, opt := range opts {
		opt(&o)
	}

	s.mu.Lock()
	r := s.slot(key)
	r.token++
	token := r.token
	saved := req
	r.last, r.lastOpts = &saved, opts
	s.unlockAndNotify(s.transition(key, r, Loading, nil))

	resp, err := s.requester.Do(ctx, req)
	data, err := transformResponse(resp, err, o)

	s.mu.Lock()
	if r.token != token {
		snap := s.snapshot(key, r)
		s.mu.Unlock()
		return snap, ErrStale
	}
	var t Transition
	switch {
	case err == nil:
		r.data, r.err = data, nil
		t = s.transition(key, r, Success, nil)
	case errors.Is(err, context.Canceled):
		r.err = nil
		t = s.transition(key, r, Canceled, err)
	default:
		r.err = err
		if !o.keepDataOnError {
			r.data = nil
		}
		t = s.transition(key, r, Error, err)
	}
	snap := s.snapshot(key, r)
	s.unlockAndNotify(t)
	return snap, err
}

func transformResponse(resp *central.Response, err error, o requestOptions) (any, error) {
	if err != nil {
		var pe *central.ProblemError
		if resp == nil || o.fulfillProblem == nil || !errors.As(err, &pe) || !o.fulfillProblem(pe.Problem) {
			return nil, err
		}
	}
	data, err := o.transform(resp)
	if err != nil {
		return nil, fmt.Errorf("requestdata: transform: %w", err)
	}
	return data, nil
}

// Refresh re-issues the last request for key. Data stays visible while the
// request is in flight and survives a failed refresh. Requests with a
// streamed body cannot be replayed.
func (s *Store) Refresh(ctx context.Context, key Key) (Snapshot, error) {
	s.mu.Lock()
	r, ok := s.resources[key]
	if !ok || r.last == nil || r.last.Body != nil {
		s.mu.Unlock()
		return Snapshot{Key: key}, ErrNotRequested
	}
	req := *r.last
	opts := append(append([]RequestOption(nil), r.lastOpts...), KeepDataOnError())
	s.mu.Unlock()
	return s.Request(ctx, key, req, opts...)
}

// Cancel marks an in-flight request for key as canceled. The request keeps
// running; its response will be discarded. Reports whether anything was
// in flight.
func (s *Store) Cancel(key Key) bool {
	s.mu.Lock()
	r, ok := s.resources[key]
	if !ok || r.state != Loading {
		s.mu.Unlock()
		return false
	}
	r.token++
	s.unlockAndNotify(s.transition(key, r, Canceled, nil))
	return true
}

// CancelAll cancels every in-flight request and returns the affected keys.
func (s *Store) CancelAll() []Key {
	s.mu.Lock()
	var (
		keys []Key
		ts   []Transition
	)
	for _, key := range s.sortedKeys() {
		r := s.resources[key]
		if r.state != Loading {
			continue
		}
		r.token++
		keys = append(keys, key)
		ts = append(ts, s.transition(key, r, Canceled, nil))
	}
	s.unlockAndNotify(ts...)
	return keys
}

// Reset drops the data of the given keys, or of every key when none are
// given, and discards any response still in flight for them.
func (s *Store) Reset(keys ...Key) {
	s.mu.Lock()
	if len(keys) == 0 {
		keys = s.sortedKeys()
	}
	var ts []Transition
	for _, key := range keys {
		if r, ok := s.resources[key]; ok {
			ts = append(ts, s.reset(key, r))
		}
	}
	s.unlockAndNotify(ts...)
}

func (s *Store) reset(key Key, r *resource) Transition {
	r.token++
	r.data, r.err = nil, nil
	r.last, r.lastOpts = nil, nil
	return s.transition(key, r, Idle, nil)
}

// Navigate reconciles the store with a change of route: every key that the
// destination route does not preserve is reset. Returns the reset keys.
func (s *Store) Navigate(from, to Route) []Key {
	s.mu.Lock()
	var (
		keys []Key
		ts   []Transition
	)
	for _, key := range s.sortedKeys() {
		r := s.resources[key]
		if to.Preserves(from, key) {
			continue
		}
		if r.state == Idle && r.data == nil {
			continue
		}
		keys = append(keys, key)
		ts = append(ts, s.reset(key, r))
	}
	s.unlockAndNotify(ts...)
	return keys
}

// Set stores data for key as if it had arrived in a response. Any request
// in flight for key is superseded.
func (s *Store) Set(key Key, data any) Snapshot {
	s.mu.Lock()
	r := s.slot(key)
	r.token++
	r.data, r.err = data, nil
	t := s.transition(key, r, Success, nil)
	snap := s.snapshot(key, r)
	s.unlockAndNotify(t)
	return snap
}

// Patch replaces the data of key with fn's result. The key must hold data.
func (s *Store) Patch(key Key, fn func(any) (any, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.resources[key]
	if !ok || r.data == nil {
		return fmt.Errorf("patch %s: %w", key, ErrNoData)
	}
	data, err := fn(r.data)
	if err != nil {
		return fmt.Errorf("patch %s: %w", key, err)
	}
	r.data = data
	r.updatedAt = s.now()
	return nil
}

// Get returns a snapshot of key. Unknown keys are Idle.
func (s *Store) Get(key Key) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.resources[key]
	if !ok {
		return Snapshot{Key: key}
	}
	return s.snapshot(key, r)
}

// Snapshots returns a snapshot of every key, sorted by key.
func (s *Store) Snapshots() []Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := s.sortedKeys()
	out := make([]Snapshot, 0, len(keys))
	for _, key := range keys {
		out = append(out, s.snapshot(key, s.resources[key]))
	}
	return out
}

// Keys returns the keys the store has seen, sorted.
func (s *Store) Keys() []Key {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedKeys()
}

// Data returns the data of key as a T.
func Data[T any](s *Store, key Key) (T, bool) {
	v, ok := s.Get(key).Data.(T)
	return v, ok
}

// PatchAs is Patch for data of a known type.
func PatchAs[T any](s *Store, key Key, fn func(T) T) error {
	return s.Patch(key, func(v any) (any, error) {
		t, ok := v.(T)
		if !ok {
			return nil, fmt.Errorf("holds %T", v)
		}
		return fn(t), nil
	})
}

// ------------------------------------------------------------------
// Internals; callers hold s.mu
// ------------------------------------------------------------------

func (s *Store) slot(key Key) *resource {
	r, ok := s.resources[key]
	if !ok {
		r = &resource{}
		s.resources[key] = r
	}
	return r
}

func (s *Store) transition(key Key, r *resource, to State, err error) Transition {
	t := Transition{Key: key, Token: r.token, From: r.state, To: to, At: s.now(), Err: err}
	r.state = to
	r.updatedAt = t.At
	return t
}

func (s *Store) snapshot(key Key, r *resource) Snapshot {
	return Snapshot{
		Key:       key,
		State:     r.state,
		Data:      r.data,
		Err:       r.err,
		Token:     r.token,
		UpdatedAt: r.updatedAt,
	}
}

func (s *Store) sortedKeys() []Key {
	keys := make([]Key, 0, len(s.resources))
	for k := range s.resources {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// unlockAndNotify releases s.mu and reports ts to the observers. notifyMu is
// taken before s.mu is released so callbacks run in transition order.
func (s *Store) unlockAndNotify(ts ...Transition) {
	if len(ts) == 0 || len(s.observers) == 0 {
		s.mu.Unlock()
		return
	}
	observers := append([]Observer(nil), s.observers...)
	s.notifyMu.Lock()
	s.mu.Unlock()
	defer s.notifyMu.Unlock()
	for _, t := range ts {
		for _, o := range observers {
			o.Observe(t)
		}
	}
}
