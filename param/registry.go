package param

import (
	"fmt"
	"sync"
)

// Sink is the host parameter library. CreateParam allocates an index for a named
// parameter; the Set methods publish a new value at that index.
type Sink interface {
	CreateParam(name string, kind Kind) (int, error)
	SetString(index int, v string)
	SetInt32(index int, v int32)
	SetInt64(index int, v int64)
}

// Registry routes host reads and writes to registered parameters.
type Registry struct {
	sink Sink

	mu      sync.RWMutex
	byIndex map[int]Param
	indices map[Param]int
}

// NewRegistry creates a registry publishing into sink.
func NewRegistry(sink Sink) *Registry {
	return &Registry{
		sink:    sink,
		byIndex: make(map[int]Param),
		indices: make(map[Param]int),
	}
}

// Register creates p in the sink and returns its index.
func (r *Registry) Register(p Param) (int, error) {
	index, err := r.sink.CreateParam(p.Name(), p.Kind())
	if err != nil {
		return 0, fmt.Errorf("register %s: %w", p.Name(), err)
	}
	r.mu.Lock()
	r.byIndex[index] = p
	r.indices[p] = index
	r.mu.Unlock()
	return index, nil
}

// Index returns the index p was registered under.
func (r *Registry) Index(p Param) (int, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i, ok := r.indices[p]
	return i, ok
}

// At returns the parameter registered at index.
func (r *Registry) At(index int) (Param, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.byIndex[index]
	return p, ok
}

// Lookup finds a parameter by name.
func (r *Registry) Lookup(name string) (Param, int, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i, p := range r.byIndex {
		if p.Name() == name {
			return p, i, true
		}
	}
	return nil, 0, false
}

func (r *Registry) get(index int) (Param, error) {
	r.mu.RLock()
	p, ok := r.byIndex[index]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: index %d", ErrUnknownParam, index)
	}
	return p, nil
}

func mismatch(p Param, want Kind) error {
	return fmt.Errorf("%w: %s is %s, not %s", ErrTypeMismatch, p.Name(), p.Kind(), want)
}

// WriteString writes v to the string parameter at index.
func (r *Registry) WriteString(index int, v string) error {
	p, err := r.get(index)
	if err != nil {
		return err
	}
	sp, ok := p.(*String)
	if !ok {
		return mismatch(p, KindString)
	}
	return sp.Write(v)
}

// WriteInt32 writes v to the int32 parameter at index.
func (r *Registry) WriteInt32(index int, v int32) error {
	p, err := r.get(index)
	if err != nil {
		return err
	}
	ip, ok := p.(*Int32)
	if !ok {
		return mismatch(p, KindInt32)
	}
	return ip.Write(v)
}

// WriteInt64 writes v to the int64 parameter at index.
func (r *Registry) WriteInt64(index int, v int64) error {
	p, err := r.get(index)
	if err != nil {
		return err
	}
	ip, ok := p.(*Int64)
	if !ok {
		return mismatch(p, KindInt64)
	}
	return ip.Write(v)
}

// ReadString reads the string parameter at index.
func (r *Registry) ReadString(index int) (string, error) {
	p, err := r.get(index)
	if err != nil {
		return "", err
	}
	sp, ok := p.(*String)
	if !ok {
		return "", mismatch(p, KindString)
	}
	return sp.Read(), nil
}

// ReadInt32 reads the int32 parameter at index.
func (r *Registry) ReadInt32(index int) (int32, error) {
	p, err := r.get(index)
	if err != nil {
		return 0, err
	}
	ip, ok := p.(*Int32)
	if !ok {
		return 0, mismatch(p, KindInt32)
	}
	return ip.Read(), nil
}

// ReadInt64 reads the int64 parameter at index.
func (r *Registry) ReadInt64(index int) (int64, error) {
	p, err := r.get(index)
	if err != nil {
		return 0, err
	}
	ip, ok := p.(*Int64)
	if !ok {
		return 0, mismatch(p, KindInt64)
	}
	return ip.Read(), nil
}

// Updated publishes the current value of p to the sink. Parameters that were
// never registered are ignored.
func (r *Registry) Updated(params ...Param) {
	for _, p := range params {
		index, ok := r.Index(p)
		if !ok {
			continue
		}
		switch p := p.(type) {
		case *String:
			r.sink.SetString(index, p.Read())
		case *Int32:
			r.sink.SetInt32(index, p.Read())
		case *Int64:
			r.sink.SetInt64(index, p.Read())
		}
	}
}
