package nats

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/RobertWHurst/ndstream"
)

// natsConn is the part of *nats.Conn a handle uses.
type natsConn interface {
	Publish(subject string, data []byte) error
	FlushTimeout(timeout time.Duration) error
	IsConnected() bool
	ConnectedUrl() string
	Close()
}

var _ natsConn = &nats.Conn{}

type handle struct {
	conn     natsConn
	settings ndstream.Settings
	events   ndstream.EventHandler
	pending  chan ndstream.Event

	mu        sync.Mutex
	held      int
	lastStats time.Time
}

var _ ndstream.Handle = &handle{}

func newHandle(settings ndstream.Settings, events ndstream.EventHandler) *handle {
	return &handle{
		settings: settings,
		events:   events,
		pending:  make(chan ndstream.Event, EventBufferSize),
	}
}

// Publish wraps data in an envelope and publishes it. While disconnected nats.go
// holds publishes in its reconnect buffer; the handle refuses more than
// MessageQueueLength of them.
func (h *handle) Publish(topic string, data []byte, timestampMs int64) error {
	if h.settings.MaxMessageSize > 0 && len(data) > h.settings.MaxMessageSize {
		return fmt.Errorf("%w: %d bytes, limit %d", ndstream.ErrMessageTooLarge, len(data), h.settings.MaxMessageSize)
	}
	buf, err := encodeEnvelope(data, timestampMs)
	if err != nil {
		return err
	}

	connected := h.conn.IsConnected()
	h.mu.Lock()
	if !connected && h.held >= h.settings.MessageQueueLength {
		h.mu.Unlock()
		return ndstream.ErrQueueFull
	}
	h.mu.Unlock()

	if err := h.conn.Publish(subject(topic), buf); err != nil {
		return mapPublishError(err)
	}
	if !connected {
		h.mu.Lock()
		h.held++
		h.mu.Unlock()
	}
	return nil
}

func mapPublishError(err error) error {
	switch {
	case errors.Is(err, nats.ErrMaxPayload):
		return fmt.Errorf("%w: %w", ndstream.ErrMessageTooLarge, err)
	case errors.Is(err, nats.ErrReconnectBufExceeded):
		return fmt.Errorf("%w: %w", ndstream.ErrQueueFull, err)
	case errors.Is(err, nats.ErrConnectionClosed):
		return fmt.Errorf("%w: %w", ndstream.ErrNotConnected, err)
	}
	return err
}

// Poll delivers the events gathered since the last call, followed by a
// statistics report when one is due. It never blocks.
func (h *handle) Poll() {
drain:
	for {
		select {
		case ev := <-h.pending:
			h.events(ev)
		default:
			break drain
		}
	}

	h.mu.Lock()
	due := time.Since(h.lastStats) >= h.settings.StatsInterval
	if due {
		h.lastStats = time.Now()
	}
	h.mu.Unlock()
	if due {
		h.events(ndstream.StatsEvent{JSON: h.stats()})
	}
}

type brokerReport struct {
	Name  string `json:"name"`
	State string `json:"state"`
}

type statsReport struct {
	Name    string         `json:"name"`
	Brokers []brokerReport `json:"brokers"`
	MsgCnt  int            `json:"msg_cnt"`
}

func (h *handle) stats() string {
	state, name := "DOWN", h.settings.Broker
	if h.conn.IsConnected() {
		state, name = "UP", h.conn.ConnectedUrl()
	}
	h.mu.Lock()
	held := h.held
	h.mu.Unlock()

	buf, err := json.Marshal(statsReport{
		Name:    "ndstream",
		Brokers: []brokerReport{{Name: name, State: state}},
		MsgCnt:  held,
	})
	if err != nil {
		return ""
	}
	return string(buf)
}

// Flush waits up to timeout for buffered publishes to reach the server and
// returns how many may still be outstanding.
func (h *handle) Flush(timeout time.Duration) int {
	if timeout <= 0 || !h.conn.IsConnected() {
		h.mu.Lock()
		defer h.mu.Unlock()
		return h.held
	}
	if err := h.conn.FlushTimeout(timeout); err != nil {
		h.mu.Lock()
		defer h.mu.Unlock()
		return max(h.held, 1)
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.held = 0
	return 0
}

func (h *handle) Close() {
	h.conn.Close()
}

func (h *handle) push(ev ndstream.Event) {
	select {
	case h.pending <- ev:
	default:
	}
}

func (h *handle) handleDisconnect(_ *nats.Conn, err error) {
	reason := "disconnected from server"
	if err != nil {
		reason = err.Error()
	}
	h.push(ndstream.ErrorEvent{AllBrokersDown: true, Reason: reason})
}

// handleReconnect runs once the connection is up. nats.go replays its reconnect
// buffer before calling it.
func (h *handle) handleReconnect(conn *nats.Conn) {
	h.mu.Lock()
	h.held = 0
	h.mu.Unlock()
	h.push(ndstream.LogEvent{Level: 6, Facility: "CONNECT", Message: "connected to " + conn.ConnectedUrl()})
}

func (h *handle) handleError(_ *nats.Conn, sub *nats.Subscription, err error) {
	reason := err.Error()
	if sub != nil {
		reason = fmt.Sprintf("%s: %s", sub.Subject, reason)
	}
	h.push(ndstream.ErrorEvent{Reason: reason})
}
