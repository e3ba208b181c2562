// Package ndarray models the host side of an areaDetector style pipeline: dense,
// fixed-rank arrays with a typed payload, a list of named typed attributes and an
// EPICS timestamp, plus a memory-bounded pool that allocates them.
//
// Payload and attribute value bytes are kept in native byte order.
package ndarray

import "fmt"

// DataType is the element type of an array payload.
type DataType int

const (
	Int8 DataType = iota
	UInt8
	Int16
	UInt16
	Int32
	UInt32
	Int64
	UInt64
	Float32
	Float64
)

// DataTypes lists every payload element type.
var DataTypes = []DataType{Int8, UInt8, Int16, UInt16, Int32, UInt32, Int64, UInt64, Float32, Float64}

// Size returns the width of one element in bytes.
func (t DataType) Size() int {
	switch t {
	case Int8, UInt8:
		return 1
	case Int16, UInt16:
		return 2
	case Int32, UInt32, Float32:
		return 4
	case Int64, UInt64, Float64:
		return 8
	default:
		panic(fmt.Sprintf("ndarray: unknown data type %d", int(t)))
	}
}

// Valid reports whether t is one of the enumerated element types.
func (t DataType) Valid() bool {
	return t >= Int8 && t <= Float64
}

func (t DataType) String() string {
	switch t {
	case Int8:
		return "Int8"
	case UInt8:
		return "UInt8"
	case Int16:
		return "Int16"
	case UInt16:
		return "UInt16"
	case Int32:
		return "Int32"
	case UInt32:
		return "UInt32"
	case Int64:
		return "Int64"
	case UInt64:
		return "UInt64"
	case Float32:
		return "Float32"
	case Float64:
		return "Float64"
	default:
		return fmt.Sprintf("DataType(%d)", int(t))
	}
}

// AttrDataType is the value type of an attribute. It mirrors DataType and adds a
// string variant.
type AttrDataType int

const (
	AttrInt8 AttrDataType = iota
	AttrUInt8
	AttrInt16
	AttrUInt16
	AttrInt32
	AttrUInt32
	AttrInt64
	AttrUInt64
	AttrFloat32
	AttrFloat64
	AttrString
)

// AttrDataTypes lists every attribute value type.
var AttrDataTypes = []AttrDataType{
	AttrInt8, AttrUInt8, AttrInt16, AttrUInt16, AttrInt32, AttrUInt32,
	AttrInt64, AttrUInt64, AttrFloat32, AttrFloat64, AttrString,
}

// Size returns the width of a value in bytes, or 0 for AttrString whose width is
// the length of the string.
func (t AttrDataType) Size() int {
	switch t {
	case AttrInt8, AttrUInt8:
		return 1
	case AttrInt16, AttrUInt16:
		return 2
	case AttrInt32, AttrUInt32, AttrFloat32:
		return 4
	case AttrInt64, AttrUInt64, AttrFloat64:
		return 8
	case AttrString:
		return 0
	default:
		panic(fmt.Sprintf("ndarray: unknown attribute data type %d", int(t)))
	}
}

// Valid reports whether t is one of the enumerated attribute value types.
func (t AttrDataType) Valid() bool {
	return t >= AttrInt8 && t <= AttrString
}

func (t AttrDataType) String() string {
	switch t {
	case AttrInt8:
		return "AttrInt8"
	case AttrUInt8:
		return "AttrUInt8"
	case AttrInt16:
		return "AttrInt16"
	case AttrUInt16:
		return "AttrUInt16"
	case AttrInt32:
		return "AttrInt32"
	case AttrUInt32:
		return "AttrUInt32"
	case AttrInt64:
		return "AttrInt64"
	case AttrUInt64:
		return "AttrUInt64"
	case AttrFloat32:
		return "AttrFloat32"
	case AttrFloat64:
		return "AttrFloat64"
	case AttrString:
		return "AttrString"
	default:
		return fmt.Sprintf("AttrDataType(%d)", int(t))
	}
}
