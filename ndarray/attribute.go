package ndarray

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

var (
	ErrAttributeName  = errors.New("attribute name must not be empty")
	ErrAttributeValue = errors.New("attribute value must not be empty")
	ErrAttributeWidth = errors.New("attribute value width does not match its type")
)

// Attribute is a named, typed metadata value attached to an array.
type Attribute struct {
	Name        string
	Description string
	Source      string
	DataType    AttrDataType
	Value       []byte
}

// NewAttribute validates and builds an attribute. The value bytes are copied.
func NewAttribute(name, description, source string, dataType AttrDataType, value []byte) (*Attribute, error) {
	a := &Attribute{
		Name:        name,
		Description: description,
		Source:      source,
		DataType:    dataType,
		Value:       append([]byte(nil), value...),
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return a, nil
}

// Validate checks the record invariants: a name, a value, and a value width that
// matches fixed-width types.
func (a *Attribute) Validate() error {
	if a.Name == "" {
		return ErrAttributeName
	}
	if !a.DataType.Valid() {
		return fmt.Errorf("attribute %q: unknown data type %d", a.Name, int(a.DataType))
	}
	if len(a.Value) == 0 {
		return fmt.Errorf("attribute %q: %w", a.Name, ErrAttributeValue)
	}
	if size := a.DataType.Size(); size != 0 && len(a.Value) != size {
		return fmt.Errorf("attribute %q: %w: %s wants %d bytes, got %d",
			a.Name, ErrAttributeWidth, a.DataType, size, len(a.Value))
	}
	return nil
}

// Clone returns a deep copy of the attribute.
func (a *Attribute) Clone() *Attribute {
	c := *a
	c.Value = append([]byte(nil), a.Value...)
	return &c
}

// Int64 returns integer attribute values widened to int64.
func (a *Attribute) Int64() (int64, bool) {
	v := a.Value
	switch a.DataType {
	case AttrInt8:
		return int64(int8(v[0])), true
	case AttrUInt8:
		return int64(v[0]), true
	case AttrInt16:
		return int64(int16(binary.NativeEndian.Uint16(v))), true
	case AttrUInt16:
		return int64(binary.NativeEndian.Uint16(v)), true
	case AttrInt32:
		return int64(int32(binary.NativeEndian.Uint32(v))), true
	case AttrUInt32:
		return int64(binary.NativeEndian.Uint32(v)), true
	case AttrInt64, AttrUInt64:
		return int64(binary.NativeEndian.Uint64(v)), true
	}
	return 0, false
}

// Float64 returns floating point attribute values widened to float64.
func (a *Attribute) Float64() (float64, bool) {
	switch a.DataType {
	case AttrFloat32:
		return float64(math.Float32frombits(binary.NativeEndian.Uint32(a.Value))), true
	case AttrFloat64:
		return math.Float64frombits(binary.NativeEndian.Uint64(a.Value)), true
	}
	return 0, false
}

// StringValue returns the value of an AttrString attribute.
func (a *Attribute) StringValue() (string, bool) {
	if a.DataType != AttrString {
		return "", false
	}
	return string(a.Value), true
}

// Int64Attribute builds an AttrInt64 attribute.
func Int64Attribute(name, description, source string, v int64) *Attribute {
	b := make([]byte, 8)
	binary.NativeEndian.PutUint64(b, uint64(v))
	return &Attribute{Name: name, Description: description, Source: source, DataType: AttrInt64, Value: b}
}

// Int32Attribute builds an AttrInt32 attribute.
func Int32Attribute(name, description, source string, v int32) *Attribute {
	b := make([]byte, 4)
	binary.NativeEndian.PutUint32(b, uint32(v))
	return &Attribute{Name: name, Description: description, Source: source, DataType: AttrInt32, Value: b}
}

// Float64Attribute builds an AttrFloat64 attribute.
func Float64Attribute(name, description, source string, v float64) *Attribute {
	b := make([]byte, 8)
	binary.NativeEndian.PutUint64(b, math.Float64bits(v))
	return &Attribute{Name: name, Description: description, Source: source, DataType: AttrFloat64, Value: b}
}

// StringAttribute builds an AttrString attribute.
func StringAttribute(name, description, source, v string) *Attribute {
	return &Attribute{Name: name, Description: description, Source: source, DataType: AttrString, Value: []byte(v)}
}

// AttributeList is an ordered set of attributes keyed by name. Adding an attribute
// whose name is already present replaces the existing one in place.
type AttributeList struct {
	attrs []*Attribute
	index map[string]int
}

// NewAttributeList returns an empty list.
func NewAttributeList() *AttributeList {
	return &AttributeList{index: make(map[string]int)}
}

// Add validates a and inserts or replaces it.
func (l *AttributeList) Add(a *Attribute) error {
	if err := a.Validate(); err != nil {
		return err
	}
	if l.index == nil {
		l.index = make(map[string]int)
	}
	if i, ok := l.index[a.Name]; ok {
		l.attrs[i] = a
		return nil
	}
	l.index[a.Name] = len(l.attrs)
	l.attrs = append(l.attrs, a)
	return nil
}

// Find returns the attribute with the given name.
func (l *AttributeList) Find(name string) (*Attribute, bool) {
	i, ok := l.index[name]
	if !ok {
		return nil, false
	}
	return l.attrs[i], true
}

// Remove deletes the attribute with the given name.
func (l *AttributeList) Remove(name string) bool {
	i, ok := l.index[name]
	if !ok {
		return false
	}
	l.attrs = append(l.attrs[:i], l.attrs[i+1:]...)
	delete(l.index, name)
	for j := i; j < len(l.attrs); j++ {
		l.index[l.attrs[j].Name] = j
	}
	return true
}

// Clear removes every attribute.
func (l *AttributeList) Clear() {
	l.attrs = nil
	clear(l.index)
}

// Len returns the number of attributes.
func (l *AttributeList) Len() int {
	return len(l.attrs)
}

// All returns the attributes in insertion order. The slice must not be modified.
func (l *AttributeList) All() []*Attribute {
	return l.attrs
}
