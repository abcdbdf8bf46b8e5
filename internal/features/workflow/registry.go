package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// PayloadDecoder reconstructs a typed payload from its stored snapshot
type PayloadDecoder func(data []byte) (any, error)

// Operation is the underlying business operation an interception wraps
type Operation func(ctx context.Context, payload any) (any, error)

// Registry maps string keys to decode functions, operation invokers and
// markers. Guarded features register themselves at construction time,
// which lets the replayer rebuild a call without reflection.
type Registry struct {
	mu       sync.RWMutex
	decoders map[string]PayloadDecoder
	ops      map[string]Operation
	markers  map[string]Marker
}

func NewRegistry() *Registry {
	return &Registry{
		decoders: make(map[string]PayloadDecoder),
		ops:      make(map[string]Operation),
		markers:  make(map[string]Marker),
	}
}

// JSONPayload builds a decoder for a concrete payload type
func JSONPayload[T any]() PayloadDecoder {
	return func(data []byte) (any, error) {
		var v T
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, err
		}
		return &v, nil
	}
}

func (r *Registry) RegisterPayload(name string, d PayloadDecoder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.decoders[name] = d
}

func (r *Registry) RegisterOperation(m Marker, op Operation) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops[m.OperationName] = op
	r.markers[m.OperationName] = m
}

// Decode reconstructs a payload; failures surface as reconstruction
// errors so the replay aborts before the operation runs.
func (r *Registry) Decode(payloadType string, data []byte) (any, error) {
	r.mu.RLock()
	d, ok := r.decoders[payloadType]
	r.mu.RUnlock()
	if !ok {
		return nil, reconstructionFailure(payloadType, fmt.Errorf("no decoder registered"))
	}
	v, err := d(data)
	if err != nil {
		return nil, reconstructionFailure(payloadType, err)
	}
	return v, nil
}

// Invoke runs the registered operation exactly once
func (r *Registry) Invoke(ctx context.Context, operation string, payload any) (any, error) {
	r.mu.RLock()
	op, ok := r.ops[operation]
	r.mu.RUnlock()
	if !ok {
		return nil, operationFailure(operation, fmt.Errorf("no operation registered"))
	}
	out, err := op(ctx, payload)
	if err != nil {
		return nil, operationFailure(operation, err)
	}
	return out, nil
}

// MarkerFor returns the marker an operation was registered with; the
// decision path uses it to recover payload type and execution mode.
func (r *Registry) MarkerFor(operation string) (Marker, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.markers[operation]
	return m, ok
}
