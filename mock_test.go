package ndstream

import (
	"sync"
	"time"

	"github.com/RobertWHurst/ndstream/ndarray"
)

type mockEncoder struct {
	encodeFunc func(arr *ndarray.Array) ([]byte, error)
	decodeFunc func(data []byte, alloc ndarray.Allocator) (*ndarray.Array, error)
	sourceName string
}

func (m *mockEncoder) Encode(arr *ndarray.Array) ([]byte, error) {
	if m.encodeFunc != nil {
		return m.encodeFunc(arr)
	}
	return []byte("encoded"), nil
}

func (m *mockEncoder) Decode(data []byte, alloc ndarray.Allocator) (*ndarray.Array, error) {
	if m.decodeFunc != nil {
		return m.decodeFunc(data, alloc)
	}
	return alloc.Alloc([]uint64{uint64(len(data))}, ndarray.UInt8)
}

func (m *mockEncoder) SourceName() string {
	return m.sourceName
}

func (m *mockEncoder) SetSourceName(name string) error {
	m.sourceName = name
	return nil
}

type mockTransport struct {
	applyFunc   func(settings Settings) error
	connectFunc func(settings Settings, events EventHandler) (Handle, error)

	mu       sync.Mutex
	connects int
	handles  []*mockHandle
}

func (m *mockTransport) Apply(settings Settings) error {
	if m.applyFunc != nil {
		return m.applyFunc(settings)
	}
	return nil
}

func (m *mockTransport) Connect(settings Settings, events EventHandler) (Handle, error) {
	m.mu.Lock()
	m.connects++
	m.mu.Unlock()
	if m.connectFunc != nil {
		return m.connectFunc(settings, events)
	}
	h := &mockHandle{settings: settings, events: events}
	m.mu.Lock()
	m.handles = append(m.handles, h)
	m.mu.Unlock()
	return h, nil
}

func (m *mockTransport) connectCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connects
}

func (m *mockTransport) lastHandle() *mockHandle {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.handles) == 0 {
		return nil
	}
	return m.handles[len(m.handles)-1]
}

type publishCall struct {
	topic       string
	data        []byte
	timestampMs int64
}

// mockHandle rejects messages larger than the max message size it was
// connected with, like a real client does.
type mockHandle struct {
	settings    Settings
	events      EventHandler
	publishFunc func(topic string, data []byte, timestampMs int64) error

	mu        sync.Mutex
	pending   []Event
	published []publishCall
	polls     int
	flushes   int
	closed    bool
}

func (m *mockHandle) Publish(topic string, data []byte, timestampMs int64) error {
	if m.publishFunc != nil {
		return m.publishFunc(topic, data, timestampMs)
	}
	if len(data) > m.settings.MaxMessageSize {
		return ErrMessageTooLarge
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published = append(m.published, publishCall{topic: topic, data: data, timestampMs: timestampMs})
	return nil
}

func (m *mockHandle) Poll() {
	m.mu.Lock()
	m.polls++
	pending := m.pending
	m.pending = nil
	m.mu.Unlock()
	for _, ev := range pending {
		m.events(ev)
	}
}

func (m *mockHandle) Flush(timeout time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.flushes++
	return 0
}

func (m *mockHandle) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
}

func (m *mockHandle) emit(ev Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending = append(m.pending, ev)
}

func (m *mockHandle) pollCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.polls
}

func (m *mockHandle) isClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

func (m *mockHandle) publishedCalls() []publishCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]publishCall(nil), m.published...)
}

type mockSubscriber struct {
	subscribeFunc func(settings Settings, topic string) (Subscription, error)
}

func (m *mockSubscriber) Subscribe(settings Settings, topic string) (Subscription, error) {
	if m.subscribeFunc != nil {
		return m.subscribeFunc(settings, topic)
	}
	return newMockSubscription(), nil
}

type mockSubscription struct {
	records chan *Record
	done    chan struct{}
	once    sync.Once
}

func newMockSubscription() *mockSubscription {
	return &mockSubscription{
		records: make(chan *Record, 16),
		done:    make(chan struct{}),
	}
}

func (m *mockSubscription) Next(timeout time.Duration) (*Record, error) {
	select {
	case r := <-m.records:
		return r, nil
	case <-m.done:
		return nil, ErrClosed
	case <-time.After(timeout):
		return nil, ErrTimeout
	}
}

func (m *mockSubscription) Close() error {
	m.once.Do(func() { close(m.done) })
	return nil
}
