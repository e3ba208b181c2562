// Package record defines a self-describing form of an array message that
// general purpose serializers can carry. It holds the same fields as the ADAr
// flatbuffer with element types spelled out by name.
package record

import (
	"errors"
	"fmt"

	"github.com/RobertWHurst/ndstream/ndarray"
)

var (
	ErrEmptySourceName = errors.New("source name must not be empty")
	ErrUnknownDataType = errors.New("unknown data type")
)

// Array is an array message.
type Array struct {
	SourceName string      `json:"sourceName" msgpack:"sourceName"`
	ID         int32       `json:"id" msgpack:"id"`
	Timestamp  uint64      `json:"timestamp" msgpack:"timestamp"`
	Dims       []uint64    `json:"dims" msgpack:"dims"`
	DataType   string      `json:"dataType" msgpack:"dataType"`
	Data       []byte      `json:"data" msgpack:"data"`
	Attributes []Attribute `json:"attributes,omitempty" msgpack:"attributes,omitempty"`
}

// Attribute is one attribute of an array message.
type Attribute struct {
	Name        string `json:"name" msgpack:"name"`
	Description string `json:"description,omitempty" msgpack:"description,omitempty"`
	Source      string `json:"source,omitempty" msgpack:"source,omitempty"`
	DataType    string `json:"dataType" msgpack:"dataType"`
	Value       []byte `json:"value" msgpack:"value"`
}

var dataTypeNames = map[ndarray.DataType]string{
	ndarray.Int8:    "int8",
	ndarray.UInt8:   "uint8",
	ndarray.Int16:   "int16",
	ndarray.UInt16:  "uint16",
	ndarray.Int32:   "int32",
	ndarray.UInt32:  "uint32",
	ndarray.Int64:   "int64",
	ndarray.UInt64:  "uint64",
	ndarray.Float32: "float32",
	ndarray.Float64: "float64",
}

var attrDataTypeNames = map[ndarray.AttrDataType]string{
	ndarray.AttrInt8:    "int8",
	ndarray.AttrUInt8:   "uint8",
	ndarray.AttrInt16:   "int16",
	ndarray.AttrUInt16:  "uint16",
	ndarray.AttrInt32:   "int32",
	ndarray.AttrUInt32:  "uint32",
	ndarray.AttrInt64:   "int64",
	ndarray.AttrUInt64:  "uint64",
	ndarray.AttrFloat32: "float32",
	ndarray.AttrFloat64: "float64",
	ndarray.AttrString:  "string",
}

var (
	dataTypesByName     = invert(dataTypeNames)
	attrDataTypesByName = invert(attrDataTypeNames)
)

func invert[K comparable](m map[K]string) map[string]K {
	out := make(map[string]K, len(m))
	for k, v := range m {
		out[v] = k
	}
	return out
}

// FromArray builds the record of arr stamped with sourceName. The payload and
// attribute values are shared with arr, not copied.
func FromArray(sourceName string, arr *ndarray.Array) (*Array, error) {
	if sourceName == "" {
		return nil, ErrEmptySourceName
	}
	if err := arr.Validate(); err != nil {
		return nil, err
	}

	r := &Array{
		SourceName: sourceName,
		ID:         arr.UniqueID,
		Timestamp:  arr.EpicsTS.Nanoseconds(),
		Dims:       arr.Dims,
		DataType:   dataTypeNames[arr.DataType],
		Data:       arr.Data,
	}
	if arr.Attributes != nil {
		for _, a := range arr.Attributes.All() {
			r.Attributes = append(r.Attributes, Attribute{
				Name:        a.Name,
				Description: a.Description,
				Source:      a.Source,
				DataType:    attrDataTypeNames[a.DataType],
				Value:       a.Value,
			})
		}
	}
	return r, nil
}

// ToArray allocates an array from alloc and fills it from the record.
func (r *Array) ToArray(alloc ndarray.Allocator) (*ndarray.Array, error) {
	dataType, ok := dataTypesByName[r.DataType]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDataType, r.DataType)
	}

	size, err := ndarray.PayloadSize(r.Dims, dataType)
	if err != nil {
		return nil, err
	}
	if uint64(len(r.Data)) != size {
		return nil, fmt.Errorf("%w: record carries %d bytes, shape needs %d",
			ndarray.ErrPayloadSize, len(r.Data), size)
	}

	arr, err := alloc.Alloc(r.Dims, dataType)
	if err != nil {
		return nil, fmt.Errorf("allocate array: %w", err)
	}
	copy(arr.Data, r.Data)

	if arr.Attributes == nil {
		arr.Attributes = ndarray.NewAttributeList()
	}
	arr.Attributes.Clear()
	for _, ra := range r.Attributes {
		attrType, ok := attrDataTypesByName[ra.DataType]
		if !ok {
			arr.Release()
			return nil, fmt.Errorf("attribute %q: %w: %q", ra.Name, ErrUnknownDataType, ra.DataType)
		}
		a, err := ndarray.NewAttribute(ra.Name, ra.Description, ra.Source, attrType, ra.Value)
		if err == nil {
			err = arr.Attributes.Add(a)
		}
		if err != nil {
			arr.Release()
			return nil, err
		}
	}

	arr.UniqueID = r.ID
	arr.EpicsTS = ndarray.FromNanoseconds(r.Timestamp)
	arr.TimeStamp = ndarray.SecondsFromNanoseconds(r.Timestamp)
	return arr, nil
}
