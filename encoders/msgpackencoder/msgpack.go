// Package msgpackencoder provides a MessagePack encoder for array messages.
// MessagePack is compact and self-describing, which suits consumers that cannot
// read flatbuffers.
package msgpackencoder

import (
	"sync"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/RobertWHurst/ndstream"
	"github.com/RobertWHurst/ndstream/encoders/record"
	"github.com/RobertWHurst/ndstream/ndarray"
)

// Encoder implements ndstream.Encoder using MessagePack serialization of a
// record.Array.
type Encoder struct {
	mu         sync.Mutex
	sourceName string
}

var _ ndstream.Encoder = &Encoder{}

// New creates a new MessagePack encoder stamping messages with sourceName.
func New(sourceName string) (*Encoder, error) {
	if sourceName == "" {
		return nil, record.ErrEmptySourceName
	}
	return &Encoder{sourceName: sourceName}, nil
}

// Encode serializes arr to MessagePack bytes.
func (e *Encoder) Encode(arr *ndarray.Array) ([]byte, error) {
	r, err := record.FromArray(e.SourceName(), arr)
	if err != nil {
		return nil, err
	}
	return msgpack.Marshal(r)
}

// Decode deserializes MessagePack bytes into an array allocated from alloc.
func (e *Encoder) Decode(data []byte, alloc ndarray.Allocator) (*ndarray.Array, error) {
	var r record.Array
	if err := msgpack.Unmarshal(data, &r); err != nil {
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
