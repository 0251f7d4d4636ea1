package requestdata

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/parisxmas/central-admin/internal/central"
)

// Transform converts a wire payload into a view model. It must not retain
// or modify the response.
type Transform func(*central.Response) (any, error)

// Registry maps resource keys to transforms.
type Registry struct {
	mu         sync.RWMutex
	transforms map[Key]Transform
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{transforms: make(map[Key]Transform)}
}

// Register sets the transform for key, replacing any previous one.
func (r *Registry) Register(key Key, t Transform) *Registry {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transforms[key] = t
	return r
}

// Lookup returns the transform for key, or DecodeJSON when none is
// registered.
func (r *Registry) Lookup(key Key) Transform {
	if r == nil {
		return DecodeJSON
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if t, ok := r.transforms[key]; ok {
		return t
	}
	return DecodeJSON
}

// Keys returns the registered keys.
func (r *Registry) Keys() []Key {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]Key, 0, len(r.transforms))
	for k := range r.transforms {
		keys = append(keys, k)
	}
	return keys
}

// DecodeJSON decodes the body into generic JSON values.
func DecodeJSON(resp *central.Response) (any, error) {
	if len(resp.Body) == 0 {
		return nil, nil
	}
	var v any
	if err := json.Unmarshal(resp.Body, &v); err != nil {
		return nil, fmt.Errorf("requestdata: decode: %w", err)
	}
	return v, nil
}

// JSON returns a transform decoding the body into a T.
func JSON[T any]() Transform {
	return func(resp *central.Response) (any, error) {
		var v T
		if err := json.Unmarshal(resp.Body, &v); err != nil {
			return nil, fmt.Errorf("requestdata: decode %T: %w", v, err)
		}
		return v, nil
	}
}
