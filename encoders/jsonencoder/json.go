// Package jsonencoder provides a JSON encoder for array messages.
// It uses Go's standard encoding/json package, and payload bytes travel as
// base64, so it is meant for inspection rather than throughput.
package jsonencoder

import (
	"encoding/json"
	"sync"

	"github.com/RobertWHurst/ndstream"
	"github.com/RobertWHurst/ndstream/encoders/record"
	"github.com/RobertWHurst/ndstream/ndarray"
)

// Encoder implements ndstream.Encoder using JSON serialization of a
// record.Array.
type Encoder struct {
	mu         sync.Mutex
	sourceName string
}

var _ ndstream.Encoder = &Encoder{}

// New creates a new JSON encoder stamping messages with sourceName.
func New(sourceName string) (*Encoder, error) {
	if sourceName == "" {
		return nil, record.ErrEmptySourceName
	}
	return &Encoder{sourceName: sourceName}, nil
}

// Encode serializes arr to JSON bytes.
func (e *Encoder) Encode(arr *ndarray.Array) ([]byte, error) {
	r, err := record.FromArray(e.SourceName(), arr)
	if err != nil {
		return nil, err
	}
	return json.Marshal(r)
}

// Decode deserializes JSON bytes into an array allocated from alloc.
func (e *Encoder) Decode(data []byte, alloc ndarray.Allocator) (*ndarray.Array, error) {
	var r record.Array
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, err
	}
	return r.ToArray(alloc)
}

func (e *Encoder) SourceName() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sourceName
}

func (e *Encoder) SetSourceName(name string) error {
	if name == "" {
		return record.ErrEmptySourceName
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sourceName = name
	return nil
}
