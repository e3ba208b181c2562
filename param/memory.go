package param

import (
	"fmt"
	"sync"
)

// MemorySink is an in-process Sink. Indices are handed out sequentially from
// zero and values are kept in memory.
type MemorySink struct {
	mu      sync.RWMutex
	names   []string
	kinds   []Kind
	values  []any
	updates int
}

var _ Sink = &MemorySink{}

// NewMemorySink returns an empty sink.
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

func (s *MemorySink) CreateParam(name string, kind Kind) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range s.names {
		if n == name {
			return 0, fmt.Errorf("parameter %s already exists", name)
		}
	}
	s.names = append(s.names, name)
	s.kinds = append(s.kinds, kind)
	s.values = append(s.values, nil)
	return len(s.names) - 1, nil
}

func (s *MemorySink) set(index int, v any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.values) {
		return
	}
	s.values[index] = v
	s.updates++
}

func (s *MemorySink) SetString(index int, v string) { s.set(index, v) }
func (s *MemorySink) SetInt32(index int, v int32)   { s.set(index, v) }
func (s *MemorySink) SetInt64(index int, v int64)   { s.set(index, v) }

// Value returns the last value published at index, nil if none was.
func (s *MemorySink) Value(index int) any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if index < 0 || index >= len(s.values) {
		return nil
	}
	return s.values[index]
}

// ValueByName is Value keyed by parameter name.
func (s *MemorySink) ValueByName(name string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i, n := range s.names {
		if n == name {
			return s.values[i], true
		}
	}
	return nil, false
}

// Index returns the index of the named parameter.
func (s *MemorySink) Index(name string) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i, n := range s.names {
		if n == name {
			return i, true
		}
	}
	return 0, false
}

// Updates counts the values published so far.
func (s *MemorySink) Updates() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.updates
}

// Len returns the number of parameters created.
func (s *MemorySink) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.names)
}
