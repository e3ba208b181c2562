// Package nats provides a NATS transport for ndstream. Encoded arrays are
// wrapped in a msgpack envelope carrying their timestamp and published to a
// subject derived from the topic.
//
// NATS has no statistics callback, so the handle synthesizes a report in the
// librdkafka layout from the connection state every StatsInterval.
package nats

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/RobertWHurst/ndstream"
)

// EventBufferSize bounds the events a handle holds between polls. Events that
// arrive while the buffer is full are dropped.
const EventBufferSize = 64

// ErrBadBrokerURL is returned for broker addresses nats.go cannot dial.
var ErrBadBrokerURL = errors.New("invalid NATS server address")

// Envelope is what travels over the wire for each message.
type Envelope struct {
	Timestamp int64  `msgpack:"timestamp"`
	Data      []byte `msgpack:"data"`
}

// NatsTransport implements ndstream.Transport and ndstream.Subscriber using NATS
// as the message broker.
type NatsTransport struct {
	options []nats.Option
	logger  zerolog.Logger
}

var (
	_ ndstream.Transport  = &NatsTransport{}
	_ ndstream.Subscriber = &NatsTransport{}
)

// Option configures a NatsTransport.
type Option func(*NatsTransport)

// WithNatsOptions appends options to every connection the transport opens.
func WithNatsOptions(opts ...nats.Option) Option {
	return func(t *NatsTransport) {
		t.options = append(t.options, opts...)
	}
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(t *NatsTransport) {
		t.logger = logger
	}
}

// NewNatsTransport creates a new NATS transport.
func NewNatsTransport(opts ...Option) *NatsTransport {
	t := &NatsTransport{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(t)
	}
	t.logger = t.logger.With().Str("component", "nats").Logger()
	return t
}

// Apply checks that settings can be turned into a connection.
func (t *NatsTransport) Apply(settings ndstream.Settings) error {
	if err := settings.Validate(); err != nil {
		return err
	}
	if settings.Broker == "" {
		return nil
	}
	return checkServers(settings.Broker)
}

// checkServers accepts the comma separated server list nats.Connect takes, with
// or without a scheme.
func checkServers(servers string) error {
	for _, s := range strings.Split(servers, ",") {
		s = strings.TrimSpace(s)
		if s == "" {
			return fmt.Errorf("%w: empty server in %q", ErrBadBrokerURL, servers)
		}
		if !strings.Contains(s, "://") {
			s = "nats://" + s
		}
		u, err := url.Parse(s)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrBadBrokerURL, err)
		}
		if u.Host == "" {
			return fmt.Errorf("%w: %q has no host", ErrBadBrokerURL, s)
		}
	}
	return nil
}

// Connect dials settings.Broker in the background. The returned handle accepts
// publishes straight away and holds them until the connection is up.
func (t *NatsTransport) Connect(settings ndstream.Settings, events ndstream.EventHandler) (ndstream.Handle, error) {
	if err := t.Apply(settings); err != nil {
		return nil, err
	}
	h := newHandle(settings, events)

	opts := []nats.Option{
		nats.Name("ndstream"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectBufSize(settings.MessageBufferKbytes * 1024),
		nats.DisconnectErrHandler(h.handleDisconnect),
		nats.ReconnectHandler(h.handleReconnect),
		nats.ConnectHandler(h.handleReconnect),
		nats.ErrorHandler(h.handleError),
	}
	opts = append(opts, t.options...)

	conn, err := nats.Connect(settings.Broker, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", settings.Broker, err)
	}
	h.conn = conn
	t.logger.Debug().Str("broker", settings.Broker).Msg("connection opened")
	return h, nil
}

func encodeEnvelope(data []byte, timestampMs int64) ([]byte, error) {
	return msgpack.Marshal(&Envelope{Timestamp: timestampMs, Data: data})
}

func decodeEnvelope(buf []byte) (*Envelope, error) {
	var env Envelope
	if err := msgpack.Unmarshal(buf, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	return &env, nil
}
