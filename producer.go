// Package ndstream streams detector arrays to a message broker. A Producer keeps
// a resilient broker connection configured and publishes encoded arrays over it;
// a Consumer reads them back. Brokers are reached through a Transport, arrays are
// serialized by an Encoder.
package ndstream

import (
	"bytes"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/tomb.v2"

	"github.com/RobertWHurst/ndstream/param"
)

// Producer owns one broker connection. Configuration changes tear the
// connection down and rebuild it; connectivity is only ever reported through
// Status, never through the return value of Send.
//
// Status listeners run on the goroutine that changed the status, which may be
// the poll task, and must not call back into the Producer.
type Producer struct {
	transport    Transport
	logger       zerolog.Logger
	registry     *param.Registry
	listeners    []StatusListener
	pollInterval time.Duration
	params       producerParams

	mu         sync.Mutex
	settings   Settings
	status     Status
	errorState bool

	connMu sync.Mutex
	handle Handle

	lifecycleMu sync.Mutex
	started     bool
	closed      atomic.Bool
	tomb        tomb.Tomb
}

// NewProducer creates a producer over transport and connects it when a broker is
// configured. If the transport rejects the starting settings the producer is
// created in a permanent error state.
func NewProducer(transport Transport, opts ...Option) *Producer {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	p := &Producer{
		transport:    transport,
		logger:       o.logger.With().Str("component", "producer").Logger(),
		registry:     o.registry,
		listeners:    o.listeners,
		pollInterval: o.pollInterval,
		settings:     o.settings,
		status:       Status{State: StatusDisconnected},
	}
	p.params = p.newParams()

	if p.registry != nil {
		for _, prm := range p.params.all() {
			if _, err := p.registry.Register(prm); err != nil {
				p.logger.Error().Err(err).Msg("failed to register parameter")
			}
		}
	}

	err := p.settings.Validate()
	if err == nil {
		err = transport.Apply(p.settings)
	}
	if err != nil {
		p.logger.Error().Err(err).Msg("failed to initialise transport")
		p.enterErrorState("Unable to init transport.")
		return p
	}

	if p.settings.Broker != "" {
		_ = p.reconnect()
	}
	return p
}

// Start starts the background task that polls the connection for events. It
// may be called once.
func (p *Producer) Start() error {
	if p.ErrorState() {
		p.setStatus(StatusError, "Unable to init transport.")
		return ErrErrorState
	}

	p.lifecycleMu.Lock()
	defer p.lifecycleMu.Unlock()
	if p.closed.Load() {
		return ErrClosed
	}
	if p.started {
		return ErrAlreadyStarted
	}
	p.started = true

	p.setStatus(StatusDisconnected, "Starting status task.")
	p.tomb.Go(p.pollLoop)
	return nil
}

// Close stops the poll task, waiting for it to exit, then flushes and closes the
// connection. Calls after the first are no-ops.
func (p *Producer) Close() error {
	p.lifecycleMu.Lock()
	defer p.lifecycleMu.Unlock()
	if p.closed.Swap(true) {
		return nil
	}

	var err error
	if p.started {
		p.tomb.Kill(nil)
		err = p.tomb.Wait()
	}

	settings := p.Settings()
	p.connMu.Lock()
	p.closeHandle(settings, true)
	p.connMu.Unlock()
	return err
}

func (p *Producer) pollLoop() error {
	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-p.tomb.Dying():
			return nil
		case <-ticker.C:
			p.poll()
		}
	}
}

func (p *Producer) poll() {
	p.connMu.Lock()
	defer p.connMu.Unlock()
	if p.handle != nil {
		p.handle.Poll()
	}
}

// Send publishes a copy of buf, timestamped ts. It fails after Close, without a
// connection, when buf is empty, and in the error state. A buffer larger than
// the max message size raises the size, and with it reconnects, first; if that
// fails the producer enters the permanent error state. Send never retries.
func (p *Producer) Send(buf []byte, ts time.Time) error {
	if p.closed.Load() {
		return ErrClosed
	}
	if p.ErrorState() {
		return ErrErrorState
	}
	if len(buf) == 0 {
		return ErrEmptyBuffer
	}

	if len(buf) > p.MaxMessageSize() {
		if err := p.SetMaxMessageSize(len(buf)); err != nil {
			p.enterErrorState("Unable to raise max message size.")
			return fmt.Errorf("%w: raise max message size to %d: %w", ErrErrorState, len(buf), err)
		}
	}

	p.connMu.Lock()
	defer p.connMu.Unlock()
	if p.handle == nil {
		return ErrNotConnected
	}
	topic := p.Topic()
	if topic == "" {
		return fmt.Errorf("%w: no topic set", ErrInvalidConfig)
	}

	if err := p.handle.Publish(topic, bytes.Clone(buf), ts.UnixMilli()); err != nil {
		p.setStatus(StatusError, "Producer failed with error: "+err.Error())
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	return nil
}

// SetBroker changes the broker address and reconnects.
func (p *Producer) SetBroker(broker string) error {
	return p.configure("broker", true, func(s *Settings) error {
		if broker == "" {
			return errors.New("broker address is empty")
		}
		s.Broker = broker
		return nil
	})
}

// SetTopic changes the topic later sends publish to. It does not reconnect.
func (p *Producer) SetTopic(topic string) error {
	return p.configure("topic", false, func(s *Settings) error {
		if topic == "" {
			return errors.New("topic is empty")
		}
		s.Topic = topic
		return nil
	})
}

// SetMaxMessageSize changes the largest message in bytes and reconnects.
func (p *Producer) SetMaxMessageSize(size int) error {
	return p.configure("max message size", true, func(s *Settings) error {
		if size <= 0 {
			return fmt.Errorf("max message size %d must be positive", size)
		}
		s.MaxMessageSize = size
		return nil
	})
}

// SetMessageBufferKbytes changes the size of the local send buffer and
// reconnects.
func (p *Producer) SetMessageBufferKbytes(kbytes int) error {
	return p.configure("message buffer size", true, func(s *Settings) error {
		if kbytes <= 0 {
			return fmt.Errorf("message buffer size %d kB must be positive", kbytes)
		}
		s.MessageBufferKbytes = kbytes
		return nil
	})
}

// SetMessageQueueLength changes how many messages may wait locally and
// reconnects.
func (p *Producer) SetMessageQueueLength(length int) error {
	return p.configure("message queue length", true, func(s *Settings) error {
		if length <= 0 {
			return fmt.Errorf("message queue length %d must be positive", length)
		}
		s.MessageQueueLength = length
		return nil
	})
}

// SetStatsInterval changes how often the transport reports statistics and
// reconnects.
func (p *Producer) SetStatsInterval(interval time.Duration) error {
	return p.configure("statistics interval", true, func(s *Settings) error {
		if interval < time.Millisecond {
			return fmt.Errorf("statistics interval %s must be at least 1ms", interval)
		}
		s.StatsInterval = interval
		return nil
	})
}

// SetFlushOnReconnect makes reconnects flush queued messages first.
func (p *Producer) SetFlushOnReconnect(flush bool) error {
	return p.configure("flush on reconnect", false, func(s *Settings) error {
		s.FlushOnReconnect = flush
		return nil
	})
}

// SetFlushTimeout bounds the flush done on reconnect and on Close.
func (p *Producer) SetFlushTimeout(timeout time.Duration) error {
	return p.configure("flush timeout", false, func(s *Settings) error {
		if timeout < 0 {
			return fmt.Errorf("flush timeout %s is negative", timeout)
		}
		s.FlushTimeout = timeout
		return nil
	})
}

func (p *Producer) configure(what string, reconnect bool, change func(*Settings) error) error {
	if p.closed.Load() {
		return ErrClosed
	}

	p.mu.Lock()
	if p.errorState {
		p.mu.Unlock()
		return ErrErrorState
	}
	next := p.settings
	err := change(&next)
	if err == nil {
		err = p.transport.Apply(next)
	}
	if err != nil {
		p.mu.Unlock()
		p.logger.Warn().Err(err).Msgf("rejected %s", what)
		p.setStatus(StatusError, fmt.Sprintf("Unable to set %s.", what))
		if !errors.Is(err, ErrInvalidConfig) {
			err = fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
		return fmt.Errorf("set %s: %w", what, err)
	}
	p.settings = next
	p.mu.Unlock()

	if reconnect {
		return p.reconnect()
	}
	return nil
}

// reconnect replaces the client handle with one built from the current
// settings. It returns once the handle exists; reachability shows up later in
// Status.
func (p *Producer) reconnect() error {
	p.connMu.Lock()
	defer p.connMu.Unlock()

	settings := p.Settings()
	if settings.Broker != "" {
		p.closeHandle(settings, settings.FlushOnReconnect)
		handle, err := p.transport.Connect(settings, p.handleEvent)
		if err != nil {
			p.logger.Error().Err(err).Str("broker", settings.Broker).Msg("failed to connect")
			p.setStatus(StatusError, "Unable to create producer.")
			return fmt.Errorf("connect to %s: %w", settings.Broker, err)
		}
		p.handle = handle
		p.logger.Info().Str("broker", settings.Broker).Str("topic", settings.Topic).Msg("connection opened")
	}
	p.setStatus(StatusConnecting, "Trying to open connection.")
	return nil
}

// closeHandle must be called with connMu held.
func (p *Producer) closeHandle(settings Settings, flush bool) {
	if p.handle == nil {
		return
	}
	if flush {
		if left := p.handle.Flush(settings.FlushTimeout); left > 0 {
			p.logger.Warn().Int("unsent", left).Msg("dropping messages that were not flushed")
		}
	}
	p.handle.Close()
	p.handle = nil
}

func (p *Producer) handleEvent(ev Event) {
	switch e := ev.(type) {
	case ErrorEvent:
		p.logger.Warn().Int("code", e.Code).Bool("allBrokersDown", e.AllBrokersDown).Msg(e.Reason)
		if e.AllBrokersDown {
			p.setStatus(StatusDisconnected, msgAllBrokersDown)
		} else {
			p.setStatus(StatusDisconnected, "Event error received: "+e.Reason)
		}
	case StatsEvent:
		p.mu.Lock()
		p.status = ParseStats(e.JSON, p.status)
		status := p.status
		p.mu.Unlock()
		p.publishStatus(status, true)
	case LogEvent:
		p.logger.WithLevel(logLevel(e.Level)).Str("facility", e.Facility).Msg(e.Message)
	case ThrottleEvent:
		p.logger.Debug().Str("broker", e.Broker).Dur("throttle", e.Duration).Msg("broker throttled requests")
	case DeliveryEvent:
		if e.Err != nil {
			p.logger.Warn().Err(e.Err).Str("topic", e.Topic).Msg("delivery failed")
		}
	}
}

// logLevel maps a syslog severity, the scale librdkafka logs with, to zerolog.
func logLevel(severity int) zerolog.Level {
	switch {
	case severity <= 3:
		return zerolog.ErrorLevel
	case severity == 4:
		return zerolog.WarnLevel
	case severity <= 6:
		return zerolog.InfoLevel
	default:
		return zerolog.DebugLevel
	}
}

func (p *Producer) enterErrorState(msg string) {
	p.mu.Lock()
	p.errorState = true
	p.status.State = StatusError
	p.status.Message = msg
	status := p.status
	p.mu.Unlock()
	p.publishStatus(status, false)
}

func (p *Producer) setStatus(state ConnectionStatus, msg string) {
	p.mu.Lock()
	p.status.State = state
	p.status.Message = msg
	status := p.status
	p.mu.Unlock()
	p.publishStatus(status, false)
}

func (p *Producer) publishStatus(status Status, unsent bool) {
	p.logger.Debug().Str("status", status.State.String()).Int("unsent", status.Unsent).Msg(status.Message)
	if p.registry != nil {
		if unsent {
			p.registry.Updated(p.params.connectionStatus, p.params.connectionMessage, p.params.unsentPackets)
		} else {
			p.registry.Updated(p.params.connectionStatus, p.params.connectionMessage)
		}
	}
	for _, l := range p.listeners {
		l(status)
	}
}

// Status returns the current connection status.
func (p *Producer) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

// ErrorState reports whether the producer has entered the permanent error state.
func (p *Producer) ErrorState() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.errorState
}

// Settings returns a copy of the current settings.
func (p *Producer) Settings() Settings {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.settings
}

// Broker returns the configured broker address.
func (p *Producer) Broker() string { return p.Settings().Broker }

// Topic returns the topic arrays are produced to.
func (p *Producer) Topic() string { return p.Settings().Topic }

// MaxMessageSize returns the largest message the client accepts, in bytes.
func (p *Producer) MaxMessageSize() int { return p.Settings().MaxMessageSize }

// MessageBufferKbytes returns the client send buffer size in kilobytes.
func (p *Producer) MessageBufferKbytes() int { return p.Settings().MessageBufferKbytes }

// MessageQueueLength returns the client send queue length in messages.
func (p *Producer) MessageQueueLength() int { return p.Settings().MessageQueueLength }

// StatsInterval returns how often the client reports statistics.
func (p *Producer) StatsInterval() time.Duration { return p.Settings().StatsInterval }

// FlushOnReconnect reports whether queued messages are flushed before the
// client is replaced.
func (p *Producer) FlushOnReconnect() bool { return p.Settings().FlushOnReconnect }

// FlushTimeout returns how long a flush waits for queued messages.
func (p *Producer) FlushTimeout() time.Duration { return p.Settings().FlushTimeout }
