package ndarray

import (
	"errors"
	"fmt"
	"math/bits"
	"sync"
)

// MaxDims is the highest rank an array may have.
const MaxDims = 10

var (
	ErrRank          = errors.New("array rank out of range")
	ErrDimension     = errors.New("array dimension must be positive")
	ErrPayloadSize   = errors.New("array payload size does not match its shape")
	ErrPoolExhausted = errors.New("array pool memory exhausted")
)

// Array is a dense, fixed-rank array. Dims lists axis sizes fastest-varying axis
// first, the areaDetector convention.
type Array struct {
	UniqueID   int32
	TimeStamp  float64
	EpicsTS    TimeStamp
	DataType   DataType
	Dims       []uint64
	Data       []byte
	Attributes *AttributeList

	pool *Pool
}

// Info summarises the shape of an array.
type Info struct {
	NElements       uint64
	BytesPerElement int
	TotalBytes      uint64
}

// Info returns the element count and payload size implied by the array's shape.
func (a *Array) Info() Info {
	n, _ := elementCount(a.Dims)
	size := a.DataType.Size()
	return Info{
		NElements:       n,
		BytesPerElement: size,
		TotalBytes:      n * uint64(size),
	}
}

// Validate checks that the rank and payload agree with the declared shape.
func (a *Array) Validate() error {
	if err := checkShape(a.Dims, a.DataType); err != nil {
		return err
	}
	if want := a.Info().TotalBytes; uint64(len(a.Data)) != want {
		return fmt.Errorf("%w: want %d bytes, got %d", ErrPayloadSize, want, len(a.Data))
	}
	return nil
}

// Release returns the array's memory to the pool that allocated it. Calling it
// more than once, or on an array that was not pooled, is a no-op.
func (a *Array) Release() {
	if a.pool == nil {
		return
	}
	a.pool.release(uint64(len(a.Data)))
	a.pool = nil
}

// Allocator hands out new arrays of a given shape and type.
type Allocator interface {
	Alloc(dims []uint64, dataType DataType) (*Array, error)
}

// PayloadSize returns the number of payload bytes an array of the given shape
// and type holds, rejecting shapes New would reject.
func PayloadSize(dims []uint64, dataType DataType) (uint64, error) {
	if err := checkShape(dims, dataType); err != nil {
		return 0, err
	}
	n, _ := elementCount(dims)
	return n * uint64(dataType.Size()), nil
}

// New allocates an array outside of any pool.
func New(dims []uint64, dataType DataType) (*Array, error) {
	if err := checkShape(dims, dataType); err != nil {
		return nil, err
	}
	n, _ := elementCount(dims)
	return &Array{
		DataType:   dataType,
		Dims:       append([]uint64(nil), dims...),
		Data:       make([]byte, n*uint64(dataType.Size())),
		Attributes: NewAttributeList(),
	}, nil
}

// Pool is a memory-bounded Allocator, the role NDArrayPool plays for a plugin.
// A zero maxMemory means unbounded.
type Pool struct {
	mu        sync.Mutex
	maxMemory uint64
	used      uint64
	allocated int
}

var _ Allocator = &Pool{}

// NewPool creates a pool that never holds more than maxMemory payload bytes.
func NewPool(maxMemory uint64) *Pool {
	return &Pool{maxMemory: maxMemory}
}

// Alloc allocates a zeroed array, failing with ErrPoolExhausted when the payload
// would push the pool past its memory limit.
func (p *Pool) Alloc(dims []uint64, dataType DataType) (*Array, error) {
	if err := checkShape(dims, dataType); err != nil {
		return nil, err
	}
	n, _ := elementCount(dims)
	size := n * uint64(dataType.Size())

	p.mu.Lock()
	if p.maxMemory != 0 && p.used+size > p.maxMemory {
		p.mu.Unlock()
		return nil, fmt.Errorf("%w: need %d bytes, %d of %d in use", ErrPoolExhausted, size, p.used, p.maxMemory)
	}
	p.used += size
	p.allocated++
	p.mu.Unlock()

	return &Array{
		DataType:   dataType,
		Dims:       append([]uint64(nil), dims...),
		Data:       make([]byte, size),
		Attributes: NewAttributeList(),
		pool:       p,
	}, nil
}

// MemoryUsed returns the payload bytes currently on loan.
func (p *Pool) MemoryUsed() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.used
}

// NumAllocated returns the number of arrays currently on loan.
func (p *Pool) NumAllocated() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.allocated
}

func (p *Pool) release(size uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.used -= min(size, p.used)
	if p.allocated > 0 {
		p.allocated--
	}
}

func checkShape(dims []uint64, dataType DataType) error {
	if len(dims) == 0 || len(dims) > MaxDims {
		return fmt.Errorf("%w: %d not in 1..%d", ErrRank, len(dims), MaxDims)
	}
	if !dataType.Valid() {
		return fmt.Errorf("unknown data type %d", int(dataType))
	}
	for i, d := range dims {
		if d == 0 {
			return fmt.Errorf("%w: axis %d", ErrDimension, i)
		}
	}
	n, ok := elementCount(dims)
	if !ok {
		return fmt.Errorf("%w: element count overflows", ErrPayloadSize)
	}
	if hi, _ := bits.Mul64(n, uint64(dataType.Size())); hi != 0 {
		return fmt.Errorf("%w: payload size overflows", ErrPayloadSize)
	}
	return nil
}

func elementCount(dims []uint64) (uint64, bool) {
	if len(dims) == 0 {
		return 0, true
	}
	n := uint64(1)
	for _, d := range dims {
		hi, lo := bits.Mul64(n, d)
		if hi != 0 {
			return 0, false
		}
		n = lo
	}
	return n, true
}
