// Package requestdata tracks the state of API requests by resource key.
//
// Each key (e.g. "form", "submissions") names one slot holding a kind of
// server data together with the status of its latest request. Every request
// issued for a key receives a new, strictly increasing token; a response is
// applied only while its token is still the key's current one. Requests that
// were superseded, canceled or reset are never aborted on the wire: their
// responses are discarded when they arrive.
package requestdata

import (
	"context"
	"errors"
	"time"

	"github.com/parisxmas/central-admin/internal/central"
)

// Key names a resource slot.
type Key string

// State is the request status of a resource.
type State int

const (
	Idle State = iota
	Loading
	Success
	Error
	Canceled
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Success:
		return "success"
	case Error:
		return "error"
	case Canceled:
		return "canceled"
	}
	return "unknown"
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

var (
	// ErrStale is returned to the caller of a request whose response arrived
	// after the request had been superseded, canceled or reset.
	ErrStale = errors.New("requestdata: response superseded")
	// ErrNoData is returned when patching a resource that holds no data.
	ErrNoData = errors.New("requestdata: resource has no data")
	// ErrNotRequested is returned when refreshing a key that was never
	// requested or whose last request cannot be replayed.
	ErrNotRequested = errors.New("requestdata: nothing to refresh")
)

// Requester sends API requests. *central.Client implements it.
type Requester interface {
	Do(ctx context.Context, req central.Request) (*central.Response, error)
}

// Snapshot is a copy of one resource at a point in time.
type Snapshot struct {
	Key       Key       `json:"key"`
	State     State     `json:"state"`
	Data      any       `json:"-"`
	Err       error     `json:"-"`
	Token     uint64    `json:"token"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// AwaitingResponse reports whether a request for the key is in flight.
func (s Snapshot) AwaitingResponse() bool {
	return s.State == Loading
}

// InitiallyLoading reports whether a request is in flight and there is no
// data to show in the meantime.
func (s Snapshot) InitiallyLoading() bool {
	return s.State == Loading && s.Data == nil
}

// DataExists reports whether the resource holds data.
func (s Snapshot) DataExists() bool {
	return s.Data != nil
}

// Transition is reported to observers on every state change.
type Transition struct {
	Key   Key
	Token uint64
	From  State
	To    State
	At    time.Time
	Err   error
}

// Observer receives state transitions. Observe is called without the store
// lock held, in the order the transitions happened for a given key.
type Observer interface {
	Observe(Transition)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Transition)

func (f ObserverFunc) Observe(t Transition) { f(t) }
