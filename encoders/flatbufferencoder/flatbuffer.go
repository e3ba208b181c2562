// Package flatbufferencoder encodes arrays as ADAr flatbuffer messages, the wire
// format areaDetector consumers expect. It is the default encoder of ndstream.
package flatbufferencoder

import (
	"errors"
	"fmt"
	"sync"

	flatbuffers "github.com/google/flatbuffers/go"

	"github.com/RobertWHurst/ndstream"
	"github.com/RobertWHurst/ndstream/ndarray"
	"github.com/RobertWHurst/ndstream/schema"
)

// DefaultBufferSize is the initial capacity of the reusable builder.
const DefaultBufferSize = 1024 * 1024

var (
	ErrEmptySourceName = errors.New("source name must not be empty")
	ErrEmptyPayload    = errors.New("array payload must not be empty")
)

// Encoder implements ndstream.Encoder over the ADAr schema. A single builder is
// reused across calls, so the slice returned by Encode is only valid until the
// next call to Encode or EncodeSizePrefixed.
type Encoder struct {
	mu         sync.Mutex
	sourceName string
	builder    *flatbuffers.Builder
}

var _ ndstream.Encoder = &Encoder{}

// Option configures an Encoder.
type Option func(*Encoder)

// WithBufferSize sets the initial capacity of the builder.
func WithBufferSize(size int) Option {
	return func(e *Encoder) {
		e.builder = flatbuffers.NewBuilder(size)
	}
}

// New creates an encoder that stamps every message with sourceName.
func New(sourceName string, opts ...Option) (*Encoder, error) {
	if sourceName == "" {
		return nil, ErrEmptySourceName
	}
	e := &Encoder{sourceName: sourceName}
	for _, opt := range opts {
		opt(e)
	}
	if e.builder == nil {
		e.builder = flatbuffers.NewBuilder(DefaultBufferSize)
	}
	return e, nil
}

// SourceName returns the name written into every message.
func (e *Encoder) SourceName() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sourceName
}

// SetSourceName replaces the source name. Empty names are rejected and leave the
// current name in place.
func (e *Encoder) SetSourceName(name string) error {
	if name == "" {
		return ErrEmptySourceName
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sourceName = name
	return nil
}

// Encode serializes arr into an ADAr message.
func (e *Encoder) Encode(arr *ndarray.Array) ([]byte, error) {
	return e.encode(arr, false)
}

// EncodeSizePrefixed serializes arr with a leading uint32 length, for streams
// that carry several messages back to back.
func (e *Encoder) EncodeSizePrefixed(arr *ndarray.Array) ([]byte, error) {
	return e.encode(arr, true)
}

func (e *Encoder) encode(arr *ndarray.Array, sizePrefixed bool) ([]byte, error) {
	if len(arr.Data) == 0 {
		return nil, ErrEmptyPayload
	}
	if err := arr.Validate(); err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.sourceName == "" {
		return nil, ErrEmptySourceName
	}

	b := e.builder
	b.Reset()

	sourceName := b.CreateString(e.sourceName)

	schema.ADArrayStartDimensionsVector(b, len(arr.Dims))
	for i := len(arr.Dims) - 1; i >= 0; i-- {
		b.PrependUint64(arr.Dims[i])
	}
	dims := b.EndVector(len(arr.Dims))

	payload := b.CreateByteVector(arr.Data)

	var attrs []*ndarray.Attribute
	if arr.Attributes != nil {
		attrs = arr.Attributes.All()
	}
	attrOffsets := make([]flatbuffers.UOffsetT, 0, len(attrs))
	for _, a := range attrs {
		name := b.CreateString(a.Name)
		desc := b.CreateString(a.Description)
		src := b.CreateString(a.Source)
		value := b.CreateByteVector(a.Value)

		schema.AttributeStart(b)
		schema.AttributeAddName(b, name)
		schema.AttributeAddDescription(b, desc)
		schema.AttributeAddSource(b, src)
		schema.AttributeAddDataType(b, attrDTypeToWire(a.DataType))
		schema.AttributeAddData(b, value)
		attrOffsets = append(attrOffsets, schema.AttributeEnd(b))
	}

	schema.ADArrayStartAttributesVector(b, len(attrOffsets))
	for i := len(attrOffsets) - 1; i >= 0; i-- {
		b.PrependUOffsetT(attrOffsets[i])
	}
	attributes := b.EndVector(len(attrOffsets))

	schema.ADArrayStart(b)
	schema.ADArrayAddSourceName(b, sourceName)
	schema.ADArrayAddId(b, arr.UniqueID)
	schema.ADArrayAddTimestamp(b, arr.EpicsTS.Nanoseconds())
	schema.ADArrayAddDimensions(b, dims)
	schema.ADArrayAddDataType(b, dataTypeToWire(arr.DataType))
	schema.ADArrayAddData(b, payload)
	schema.ADArrayAddAttributes(b, attributes)
	root := schema.ADArrayEnd(b)

	if sizePrefixed {
		schema.FinishSizePrefixedADArrayBuffer(b, root)
	} else {
		schema.FinishADArrayBuffer(b, root)
	}
	return b.FinishedBytes(), nil
}

// Decode verifies buf and rebuilds the array it carries using alloc. The
// returned array shares no memory with buf.
func (e *Encoder) Decode(buf []byte, alloc ndarray.Allocator) (*ndarray.Array, error) {
	if err := schema.VerifyADArrayBuffer(buf); err != nil {
		return nil, err
	}
	return decode(schema.GetRootAsADArray(buf, 0), alloc)
}

// DecodeSizePrefixed is Decode for buffers produced by EncodeSizePrefixed.
func (e *Encoder) DecodeSizePrefixed(buf []byte, alloc ndarray.Allocator) (*ndarray.Array, error) {
	if err := schema.VerifySizePrefixedADArrayBuffer(buf); err != nil {
		return nil, err
	}
	return decode(schema.GetSizePrefixedRootAsADArray(buf, 0), alloc)
}

func decode(msg *schema.ADArray, alloc ndarray.Allocator) (*ndarray.Array, error) {
	dims := make([]uint64, msg.DimensionsLength())
	for i := range dims {
		dims[i] = msg.Dimensions(i)
	}

	dataType := dataTypeFromWire(msg.DataType())
	payload := msg.DataBytes()
	size, err := ndarray.PayloadSize(dims, dataType)
	if err != nil {
		return nil, err
	}
	if uint64(len(payload)) != size {
		return nil, fmt.Errorf("%w: message carries %d bytes, shape needs %d",
			ndarray.ErrPayloadSize, len(payload), size)
	}

	arr, err := alloc.Alloc(dims, dataType)
	if err != nil {
		return nil, fmt.Errorf("allocate array: %w", err)
	}
	copy(arr.Data, payload)

	if arr.Attributes == nil {
		arr.Attributes = ndarray.NewAttributeList()
	}
	arr.Attributes.Clear()
	var wire schema.Attribute
	for i := 0; i < msg.AttributesLength(); i++ {
		msg.Attributes(&wire, i)
		a, err := ndarray.NewAttribute(
			string(wire.Name()),
			string(wire.Description()),
			string(wire.Source()),
			attrDTypeFromWire(wire.DataType()),
			wire.DataBytes(),
		)
		if err != nil {
			arr.Release()
			return nil, err
		}
		if err := arr.Attributes.Add(a); err != nil {
			arr.Release()
			return nil, err
		}
	}

	ts := msg.Timestamp()
	arr.UniqueID = msg.Id()
	arr.EpicsTS = ndarray.FromNanoseconds(ts)
	arr.TimeStamp = ndarray.SecondsFromNanoseconds(ts)
	return arr, nil
}
