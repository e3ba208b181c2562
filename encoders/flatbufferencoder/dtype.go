package flatbufferencoder

import (
	"fmt"

	"github.com/RobertWHurst/ndstream/ndarray"
	"github.com/RobertWHurst/ndstream/schema"
)

// The mappings are total over the host enums. Anything else panics.

func dataTypeToWire(t ndarray.DataType) schema.DType {
	switch t {
	case ndarray.Int8:
		return schema.DTypeint8
	case ndarray.UInt8:
		return schema.DTypeuint8
	case ndarray.Int16:
		return schema.DTypeint16
	case ndarray.UInt16:
		return schema.DTypeuint16
	case ndarray.Int32:
		return schema.DTypeint32
	case ndarray.UInt32:
		return schema.DTypeuint32
	case ndarray.Int64:
		return schema.DTypeint64
	case ndarray.UInt64:
		return schema.DTypeuint64
	case ndarray.Float32:
		return schema.DTypefloat32
	case ndarray.Float64:
		return schema.DTypefloat64
	}
	panic(fmt.Sprintf("flatbufferencoder: no wire type for array data type %s", t))
}

func dataTypeFromWire(t schema.DType) ndarray.DataType {
	switch t {
	case schema.DTypeint8:
		return ndarray.Int8
	case schema.DTypeuint8:
		return ndarray.UInt8
	case schema.DTypeint16:
		return ndarray.Int16
	case schema.DTypeuint16:
		return ndarray.UInt16
	case schema.DTypeint32:
		return ndarray.Int32
	case schema.DTypeuint32:
		return ndarray.UInt32
	case schema.DTypeint64:
		return ndarray.Int64
	case schema.DTypeuint64:
		return ndarray.UInt64
	case schema.DTypefloat32:
		return ndarray.Float32
	case schema.DTypefloat64:
		return ndarray.Float64
	}
	panic(fmt.Sprintf("flatbufferencoder: wire type %s is not an array data type", t))
}

func attrDTypeToWire(t ndarray.AttrDataType) schema.DType {
	switch t {
	case ndarray.AttrInt8:
		return schema.DTypeint8
	case ndarray.AttrUInt8:
		return schema.DTypeuint8
	case ndarray.AttrInt16:
		return schema.DTypeint16
	case ndarray.AttrUInt16:
		return schema.DTypeuint16
	case ndarray.AttrInt32:
		return schema.DTypeint32
	case ndarray.AttrUInt32:
		return schema.DTypeuint32
	case ndarray.AttrInt64:
		return schema.DTypeint64
	case ndarray.AttrUInt64:
		return schema.DTypeuint64
	case ndarray.AttrFloat32:
		return schema.DTypefloat32
	case ndarray.AttrFloat64:
		return schema.DTypefloat64
	case ndarray.AttrString:
		return schema.DTypec_string
	}
	panic(fmt.Sprintf("flatbufferencoder: no wire type for attribute data type %s", t))
}

func attrDTypeFromWire(t schema.DType) ndarray.AttrDataType {
	switch t {
	case schema.DTypeint8:
		return ndarray.AttrInt8
	case schema.DTypeuint8:
		return ndarray.AttrUInt8
	case schema.DTypeint16:
		return ndarray.AttrInt16
	case schema.DTypeuint16:
		return ndarray.AttrUInt16
	case schema.DTypeint32:
		return ndarray.AttrInt32
	case schema.DTypeuint32:
		return ndarray.AttrUInt32
	case schema.DTypeint64:
		return ndarray.AttrInt64
	case schema.DTypeuint64:
		return ndarray.AttrUInt64
	case schema.DTypefloat32:
		return ndarray.AttrFloat32
	case schema.DTypefloat64:
		return ndarray.AttrFloat64
	case schema.DTypec_string:
		return ndarray.AttrString
	}
	panic(fmt.Sprintf("flatbufferencoder: unknown wire attribute type %s", t))
}
