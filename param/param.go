// Package param binds named, typed values of a component to a host parameter
// library. A parameter is a string, int32 or int64 carrying its own read and
// write closures; the Registry assigns it an index in the host and routes reads
// and writes by that index.
package param

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownParam = errors.New("unknown parameter")
	ErrTypeMismatch = errors.New("parameter type mismatch")
	ErrReadOnly     = errors.New("parameter is read-only")
)

// Kind is the value type of a parameter.
type Kind int

const (
	KindString Kind = iota
	KindInt32
	KindInt64
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt32:
		return "int32"
	case KindInt64:
		return "int64"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Param is implemented by *String, *Int32 and *Int64 only.
type Param interface {
	Name() string
	Kind() Kind
	isParam()
}

// String is a string valued parameter.
type String struct {
	name  string
	read  func() string
	write func(string) error
}

// NewString creates a string parameter. A nil write makes it read-only.
func NewString(name string, read func() string, write func(string) error) *String {
	return &String{name: name, read: read, write: write}
}

func (p *String) Name() string { return p.name }
func (p *String) Kind() Kind   { return KindString }
func (p *String) isParam()     {}

// Read returns the current value.
func (p *String) Read() string { return p.read() }

// Write hands v to the owner of the parameter.
func (p *String) Write(v string) error {
	if p.write == nil {
		return fmt.Errorf("%s: %w", p.name, ErrReadOnly)
	}
	return p.write(v)
}

// Int32 is a 32 bit integer parameter.
type Int32 struct {
	name  string
	read  func() int32
	write func(int32) error
}

// NewInt32 creates an int32 parameter. A nil write makes it read-only.
func NewInt32(name string, read func() int32, write func(int32) error) *Int32 {
	return &Int32{name: name, read: read, write: write}
}

func (p *Int32) Name() string { return p.name }
func (p *Int32) Kind() Kind   { return KindInt32 }
func (p *Int32) isParam()     {}

// Read returns the current value.
func (p *Int32) Read() int32 { return p.read() }

// Write hands v to the owner of the parameter.
func (p *Int32) Write(v int32) error {
	if p.write == nil {
		return fmt.Errorf("%s: %w", p.name, ErrReadOnly)
	}
	return p.write(v)
}

// Int64 is a 64 bit integer parameter.
type Int64 struct {
	name  string
	read  func() int64
	write func(int64) error
}

// NewInt64 creates an int64 parameter. A nil write makes it read-only.
func NewInt64(name string, read func() int64, write func(int64) error) *Int64 {
	return &Int64{name: name, read: read, write: write}
}

func (p *Int64) Name() string { return p.name }
func (p *Int64) Kind() Kind   { return KindInt64 }
func (p *Int64) isParam()     {}

// Read returns the current value.
func (p *Int64) Read() int64 { return p.read() }

// Write hands v to the owner of the parameter.
func (p *Int64) Write(v int64) error {
	if p.write == nil {
		return fmt.Errorf("%s: %w", p.name, ErrReadOnly)
	}
	return p.write(v)
}
