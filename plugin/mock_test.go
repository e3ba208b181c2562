package plugin

import (
	"sync"
	"time"

	"github.com/RobertWHurst/ndstream"
)

type mockTransport struct {
	publishFunc func(topic string, data []byte, timestampMs int64) error

	mu      sync.Mutex
	handles []*mockHandle
}

func (m *mockTransport) Apply(settings ndstream.Settings) error {
	return nil
}

func (m *mockTransport) Connect(settings ndstream.Settings, events ndstream.EventHandler) (ndstream.Handle, error) {
	h := &mockHandle{settings: settings, publishFunc: m.publishFunc}
	m.mu.Lock()
	m.handles = append(m.handles, h)
	m.mu.Unlock()
	return h, nil
}

func (m *mockTransport) lastHandle() *mockHandle {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.handles) == 0 {
		return nil
	}
	return m.handles[len(m.handles)-1]
}

type published struct {
	data        []byte
	timestampMs int64
}

type mockHandle struct {
	settings    ndstream.Settings
	publishFunc func(topic string, data []byte, timestampMs int64) error

	mu       sync.Mutex
	messages []published
	closed   bool
}

func (m *mockHandle) Publish(topic string, data []byte, timestampMs int64) error {
	if m.publishFunc != nil {
		if err := m.publishFunc(topic, data, timestampMs); err != nil {
			return err
		}
	}
	if len(data) > m.settings.MaxMessageSize {
		return ndstream.ErrMessageTooLarge
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, published{data: data, timestampMs: timestampMs})
	return nil
}

func (m *mockHandle) Poll()                           {}
func (m *mockHandle) Flush(timeout time.Duration) int { return 0 }

func (m *mockHandle) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
}

func (m *mockHandle) sent() []published {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]published(nil), m.messages...)
}
