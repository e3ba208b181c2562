package schema

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// ErrInvalidBuffer is wrapped by every verification failure.
var ErrInvalidBuffer = errors.New("invalid ADAr buffer")

const (
	// MaxDepth bounds table nesting during verification.
	MaxDepth = 64
	// MaxTables bounds the number of tables a single buffer may hold.
	MaxTables = 1000000
)

const (
	adArraySourceName = 4
	adArrayID         = 6
	adArrayTimestamp  = 8
	adArrayDimensions = 10
	adArrayDataType   = 12
	adArrayData       = 14
	adArrayAttributes = 16

	attributeName        = 4
	attributeDescription = 6
	attributeSource      = 8
	attributeDataType    = 10
	attributeData        = 12
)

// VerifyADArrayBuffer checks that buf is a complete, well formed ADAr message:
// the file identifier, every offset and length against the buffer bounds, string
// terminators and the presence of required fields.
func VerifyADArrayBuffer(buf []byte) error {
	if len(buf) < 8 {
		return fmt.Errorf("%w: %d bytes is too short", ErrInvalidBuffer, len(buf))
	}
	if !ADArrayBufferHasIdentifier(buf) {
		return fmt.Errorf("%w: file identifier %q, want %q", ErrInvalidBuffer, buf[4:8], ADArrayIdentifier)
	}
	v := &verifier{buf: buf}
	root, err := v.offsetAt(0)
	if err != nil {
		return err
	}
	return v.adArray(root)
}

// VerifySizePrefixedADArrayBuffer is VerifyADArrayBuffer for buffers framed with
// a leading little-endian uint32 length.
func VerifySizePrefixedADArrayBuffer(buf []byte) error {
	if len(buf) < 4 {
		return fmt.Errorf("%w: %d bytes is too short", ErrInvalidBuffer, len(buf))
	}
	size := uint64(binary.LittleEndian.Uint32(buf))
	if size != uint64(len(buf)-4) {
		return fmt.Errorf("%w: size prefix %d, %d bytes follow", ErrInvalidBuffer, size, len(buf)-4)
	}
	return VerifyADArrayBuffer(buf[4:])
}

type verifier struct {
	buf    []byte
	depth  int
	tables int
}

type table struct {
	pos     uint64
	vtable  uint64
	vtSize  uint64
	objSize uint64
}

func (v *verifier) fail(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidBuffer, fmt.Sprintf(format, args...))
}

func (v *verifier) inBounds(pos, size uint64) bool {
	return pos <= uint64(len(v.buf)) && size <= uint64(len(v.buf))-pos
}

// offsetAt follows the uoffset stored at pos.
func (v *verifier) offsetAt(pos uint64) (uint64, error) {
	if !v.inBounds(pos, 4) {
		return 0, v.fail("offset at %d out of bounds", pos)
	}
	off := uint64(binary.LittleEndian.Uint32(v.buf[pos:]))
	if off == 0 {
		return 0, v.fail("zero offset at %d", pos)
	}
	target := pos + off
	if target >= uint64(len(v.buf)) {
		return 0, v.fail("offset at %d points past the buffer", pos)
	}
	return target, nil
}

func (v *verifier) enter(pos uint64) (*table, error) {
	v.depth++
	v.tables++
	if v.depth > MaxDepth {
		return nil, v.fail("nesting deeper than %d", MaxDepth)
	}
	if v.tables > MaxTables {
		return nil, v.fail("more than %d tables", MaxTables)
	}
	if !v.inBounds(pos, 4) {
		return nil, v.fail("table at %d out of bounds", pos)
	}
	soff := int64(int32(binary.LittleEndian.Uint32(v.buf[pos:])))
	vt := int64(pos) - soff
	if vt < 0 || !v.inBounds(uint64(vt), 4) {
		return nil, v.fail("vtable of table at %d out of bounds", pos)
	}
	t := &table{pos: pos, vtable: uint64(vt)}
	t.vtSize = uint64(binary.LittleEndian.Uint16(v.buf[t.vtable:]))
	t.objSize = uint64(binary.LittleEndian.Uint16(v.buf[t.vtable+2:]))
	if t.vtSize < 4 || t.vtSize%2 != 0 || !v.inBounds(t.vtable, t.vtSize) {
		return nil, v.fail("malformed vtable at %d", t.vtable)
	}
	if t.objSize < 4 || !v.inBounds(pos, t.objSize) {
		return nil, v.fail("table at %d overruns the buffer", pos)
	}
	return t, nil
}

func (v *verifier) leave() {
	v.depth--
}

// field returns the table relative offset of a field, 0 when absent.
func (v *verifier) field(t *table, slot uint64) uint64 {
	if slot+2 > t.vtSize {
		return 0
	}
	return uint64(binary.LittleEndian.Uint16(v.buf[t.vtable+slot:]))
}

func (v *verifier) scalar(t *table, slot, size uint64) error {
	off := v.field(t, slot)
	if off == 0 {
		return nil
	}
	if off+size > t.objSize {
		return v.fail("field %d of table at %d overruns the table", slot, t.pos)
	}
	return nil
}

// reference verifies the offset field in slot and returns its target, or 0 when
// the field is absent and optional.
func (v *verifier) reference(t *table, slot uint64, name string, required bool) (uint64, error) {
	off := v.field(t, slot)
	if off == 0 {
		if required {
			return 0, v.fail("required field %s missing", name)
		}
		return 0, nil
	}
	if off+4 > t.objSize {
		return 0, v.fail("field %s overruns its table", name)
	}
	return v.offsetAt(t.pos + off)
}

func (v *verifier) vector(pos, elemSize uint64, name string) (uint64, error) {
	if !v.inBounds(pos, 4) {
		return 0, v.fail("%s length out of bounds", name)
	}
	n := uint64(binary.LittleEndian.Uint32(v.buf[pos:]))
	if n > math.MaxUint32/elemSize || !v.inBounds(pos+4, n*elemSize) {
		return 0, v.fail("%s of %d elements overruns the buffer", name, n)
	}
	return n, nil
}

func (v *verifier) str(pos uint64, name string) error {
	n, err := v.vector(pos, 1, name)
	if err != nil {
		return err
	}
	end := pos + 4 + n
	if !v.inBounds(end, 1) || v.buf[end] != 0 {
		return v.fail("%s is not null terminated", name)
	}
	return nil
}

func (v *verifier) optionalString(t *table, slot uint64, name string, required bool) error {
	pos, err := v.reference(t, slot, name, required)
	if err != nil || pos == 0 {
		return err
	}
	return v.str(pos, name)
}

func (v *verifier) adArray(pos uint64) error {
	t, err := v.enter(pos)
	if err != nil {
		return err
	}
	defer v.leave()

	if err := v.optionalString(t, adArraySourceName, "source_name", true); err != nil {
		return err
	}
	if err := v.scalar(t, adArrayID, 4); err != nil {
		return err
	}
	if err := v.scalar(t, adArrayTimestamp, 8); err != nil {
		return err
	}
	dims, err := v.reference(t, adArrayDimensions, "dimensions", true)
	if err != nil {
		return err
	}
	if _, err := v.vector(dims, 8, "dimensions"); err != nil {
		return err
	}
	if err := v.scalar(t, adArrayDataType, 1); err != nil {
		return err
	}
	data, err := v.reference(t, adArrayData, "data", true)
	if err != nil {
		return err
	}
	if _, err := v.vector(data, 1, "data"); err != nil {
		return err
	}

	attrs, err := v.reference(t, adArrayAttributes, "attributes", false)
	if err != nil || attrs == 0 {
		return err
	}
	n, err := v.vector(attrs, 4, "attributes")
	if err != nil {
		return err
	}
	for i := uint64(0); i < n; i++ {
		elem, err := v.offsetAt(attrs + 4 + 4*i)
		if err != nil {
			return err
		}
		if err := v.attribute(elem); err != nil {
			return fmt.Errorf("attribute %d: %w", i, err)
		}
	}
	return nil
}

func (v *verifier) attribute(pos uint64) error {
	t, err := v.enter(pos)
	if err != nil {
		return err
	}
	defer v.leave()

	if err := v.optionalString(t, attributeName, "name", true); err != nil {
		return err
	}
	if err := v.optionalString(t, attributeDescription, "description", false); err != nil {
		return err
	}
	if err := v.optionalString(t, attributeSource, "source", false); err != nil {
		return err
	}
	if err := v.scalar(t, attributeDataType, 1); err != nil {
		return err
	}
	data, err := v.reference(t, attributeData, "data", true)
	if err != nil {
		return err
	}
	_, err = v.vector(data, 1, "data")
	return err
}
