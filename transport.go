package ndstream

import "time"

// Transport defines the interface for the broker client a Producer drives.
// Implementations translate Settings into their client configuration.
type Transport interface {
	// Apply checks that the client accepts settings without connecting. A
	// Producer calls it before committing any configuration change.
	Apply(settings Settings) error

	// Connect creates a new client handle for settings. The handle reports
	// asynchronous events to events, but only from within Handle.Poll.
	Connect(settings Settings, events EventHandler) (Handle, error)
}

// Handle is a live broker client.
type Handle interface {
	// Publish queues data for delivery to topic and returns immediately with
	// the local accept or reject decision. The timestamp is in milliseconds
	// since the Unix epoch.
	Publish(topic string, data []byte, timestampMs int64) error

	// Poll delivers pending events without blocking.
	Poll()

	// Flush waits up to timeout for queued messages to be delivered and
	// returns how many are still queued.
	Flush(timeout time.Duration) int

	// Close releases the client. Queued messages that were not flushed are
	// dropped.
	Close()
}

// Subscriber defines the consuming side of a transport.
type Subscriber interface {
	Subscribe(settings Settings, topic string) (Subscription, error)
}

// Subscription delivers records from one topic.
type Subscription interface {
	// Next waits up to timeout for the next record. It returns ErrTimeout when
	// nothing arrived and ErrClosed once the subscription is closed.
	Next(timeout time.Duration) (*Record, error)

	Close() error
}

// Record is a message as delivered by a Subscription.
type Record struct {
	Topic     string
	Data      []byte
	Timestamp time.Time
}
