package ndstream

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/RobertWHurst/ndstream/param"
)

// StatusListener is called after every status change of a Producer.
type StatusListener func(Status)

type options struct {
	settings     Settings
	logger       zerolog.Logger
	registry     *param.Registry
	encoder      Encoder
	pollInterval time.Duration
	nextTimeout  time.Duration
	listeners    []StatusListener
}

func defaultOptions() options {
	return options{
		settings:     DefaultSettings(),
		logger:       zerolog.Nop(),
		pollInterval: DefaultPollInterval,
		nextTimeout:  100 * time.Millisecond,
	}
}

// Option configures a Producer or a Consumer.
type Option func(*options)

// WithSettings replaces the starting settings. Broker and topic options applied
// after it still take effect.
func WithSettings(s Settings) Option {
	return func(o *options) {
		o.settings = s
	}
}

// WithBroker sets the broker address to connect to.
func WithBroker(broker string) Option {
	return func(o *options) {
		o.settings.Broker = broker
	}
}

// WithTopic sets the topic to publish to.
func WithTopic(topic string) Option {
	return func(o *options) {
		o.settings.Topic = topic
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithRegistry registers the producer's parameters with r.
func WithRegistry(r *param.Registry) Option {
	return func(o *options) {
		o.registry = r
	}
}

// WithEncoder sets the encoder consumed messages decode with.
func WithEncoder(e Encoder) Option {
	return func(o *options) {
		o.encoder = e
	}
}

// WithPollInterval sets the period of the producer's event poll.
func WithPollInterval(d time.Duration) Option {
	return func(o *options) {
		o.pollInterval = d
	}
}

// WithStatusListener adds a listener for status changes.
func WithStatusListener(l StatusListener) Option {
	return func(o *options) {
		o.listeners = append(o.listeners, l)
	}
}
