package ndstream

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/tomb.v2"
)

// Consumer reads encoded arrays from one topic. Messages are consumed either
// one at a time with WaitForMessage or by a handler registered with To.
type Consumer struct {
	subscription Subscription
	encoder      Encoder
	logger       zerolog.Logger
	nextTimeout  time.Duration

	mu      sync.Mutex
	started bool
	closed  bool
	tomb    tomb.Tomb
}

// NewConsumer subscribes to topic through subscriber.
func NewConsumer(subscriber Subscriber, settings Settings, topic string, opts ...Option) (*Consumer, error) {
	if topic == "" {
		return nil, fmt.Errorf("%w: topic is empty", ErrInvalidConfig)
	}
	if settings.Broker == "" {
		return nil, fmt.Errorf("%w: broker address is empty", ErrInvalidConfig)
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	subscription, err := subscriber.Subscribe(settings, topic)
	if err != nil {
		return nil, fmt.Errorf("subscribe to %s: %w", topic, err)
	}

	return &Consumer{
		subscription: subscription,
		encoder:      o.encoder,
		logger:       o.logger.With().Str("component", "consumer").Str("topic", topic).Logger(),
		nextTimeout:  o.nextTimeout,
	}, nil
}

// WaitForMessage waits up to timeout for the next message. It returns
// ErrTimeout when none arrived in time.
func (c *Consumer) WaitForMessage(timeout time.Duration) (*Message, error) {
	record, err := c.subscription.Next(timeout)
	if err != nil {
		return nil, err
	}
	return c.message(record), nil
}

// To starts a goroutine that hands every message to handler until Close.
func (c *Consumer) To(handler func(msg *Message)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	if c.started {
		return ErrAlreadyStarted
	}
	c.started = true

	c.tomb.Go(func() error {
		for {
			select {
			case <-c.tomb.Dying():
				return nil
			default:
			}

			record, err := c.subscription.Next(c.nextTimeout)
			switch {
			case errors.Is(err, ErrTimeout):
				continue
			case errors.Is(err, ErrClosed):
				return nil
			case err != nil:
				c.logger.Warn().Err(err).Msg("failed to read message")
				select {
				case <-c.tomb.Dying():
					return nil
				case <-time.After(c.nextTimeout):
				}
				continue
			}
			handler(c.message(record))
		}
	})
	return nil
}

// Close stops the handler goroutine, if any, and closes the subscription.
func (c *Consumer) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true

	if c.started {
		c.tomb.Kill(nil)
		_ = c.tomb.Wait()
	}
	return c.subscription.Close()
}

func (c *Consumer) message(record *Record) *Message {
	return &Message{
		Topic:     record.Topic,
		Data:      record.Data,
		Timestamp: record.Timestamp,
		encoder:   c.encoder,
	}
}
