// Package kafka provides an Apache Kafka transport for ndstream built on
// confluent-kafka-go, and through it librdkafka. Settings map onto librdkafka
// configuration properties; statistics, errors, logs and delivery reports come
// back as ndstream events when the handle is polled.
package kafka

import (
	"fmt"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/rs/zerolog"

	"github.com/RobertWHurst/ndstream"
)

// Limits librdkafka enforces on the properties the transport sets.
const (
	MinMessageMaxBytes = 1000
	MaxMessageMaxBytes = 1000000000
	MaxQueueMessages   = 10000000
	MaxQueueKbytes     = 2147483647
	MaxStatsIntervalMs = 86400000

	// MessageOverhead is added to the max message size for the record batch
	// framing librdkafka counts against message.max.bytes.
	MessageOverhead = 1024
)

// KafkaTransport implements ndstream.Transport and ndstream.Subscriber.
type KafkaTransport struct {
	extra  kafka.ConfigMap
	logger zerolog.Logger
}

var (
	_ ndstream.Transport  = &KafkaTransport{}
	_ ndstream.Subscriber = &KafkaTransport{}
)

// Option configures a KafkaTransport.
type Option func(*KafkaTransport)

// WithConfig sets additional librdkafka properties, such as security settings,
// on every client the transport creates. Properties the transport derives from
// ndstream.Settings take precedence.
func WithConfig(cm kafka.ConfigMap) Option {
	return func(t *KafkaTransport) {
		for k, v := range cm {
			t.extra[k] = v
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(t *KafkaTransport) {
		t.logger = logger
	}
}

// NewKafkaTransport creates a new Kafka transport.
func NewKafkaTransport(opts ...Option) *KafkaTransport {
	t := &KafkaTransport{extra: kafka.ConfigMap{}, logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(t)
	}
	t.logger = t.logger.With().Str("component", "kafka").Logger()
	return t
}

// Apply checks settings against the ranges librdkafka accepts.
func (t *KafkaTransport) Apply(settings ndstream.Settings) error {
	_, err := t.producerConfig(settings)
	return err
}

func (t *KafkaTransport) producerConfig(settings ndstream.Settings) (*kafka.ConfigMap, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	cm := kafka.ConfigMap{}
	for k, v := range t.extra {
		cm[k] = v
	}

	statsMs := settings.StatsInterval.Milliseconds()
	if statsMs > MaxStatsIntervalMs {
		return nil, fmt.Errorf("%w: statistics.interval.ms %d above %d", ndstream.ErrInvalidConfig, statsMs, MaxStatsIntervalMs)
	}
	if settings.MessageQueueLength > MaxQueueMessages {
		return nil, fmt.Errorf("%w: queue.buffering.max.messages %d above %d",
			ndstream.ErrInvalidConfig, settings.MessageQueueLength, MaxQueueMessages)
	}
	if settings.MessageBufferKbytes > MaxQueueKbytes {
		return nil, fmt.Errorf("%w: queue.buffering.max.kbytes %d above %d",
			ndstream.ErrInvalidConfig, settings.MessageBufferKbytes, MaxQueueKbytes)
	}

	if settings.Broker != "" {
		cm["bootstrap.servers"] = settings.Broker
	}
	cm["statistics.interval.ms"] = int(statsMs)
	cm["queue.buffering.max.messages"] = settings.MessageQueueLength
	cm["queue.buffering.max.kbytes"] = settings.MessageBufferKbytes
	cm["go.logs.channel.enable"] = true

	if settings.MaxMessageSize > 0 {
		maxBytes := max(settings.MaxMessageSize+MessageOverhead, MinMessageMaxBytes)
		if maxBytes > MaxMessageMaxBytes {
			return nil, fmt.Errorf("%w: message.max.bytes %d above %d",
				ndstream.ErrInvalidConfig, maxBytes, MaxMessageMaxBytes)
		}
		cm["message.max.bytes"] = maxBytes
		cm["message.copy.max.bytes"] = settings.MaxMessageSize
	}
	return &cm, nil
}

// Connect creates a librdkafka producer. librdkafka connects in the background;
// reachability is reported through statistics and error events.
func (t *KafkaTransport) Connect(settings ndstream.Settings, events ndstream.EventHandler) (ndstream.Handle, error) {
	cm, err := t.producerConfig(settings)
	if err != nil {
		return nil, err
	}
	p, err := kafka.NewProducer(cm)
	if err != nil {
		return nil, fmt.Errorf("create producer: %w", err)
	}
	t.logger.Debug().Str("broker", settings.Broker).Msg("producer created")
	return &handle{producer: p, events: events}, nil
}
