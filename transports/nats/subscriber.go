package nats

import (
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/RobertWHurst/ndstream"
)

type subscription struct {
	topic string
	conn  *nats.Conn
	sub   *nats.Subscription
}

var _ ndstream.Subscription = &subscription{}

// Subscribe opens a connection of its own and subscribes to topic. A non-empty
// settings.GroupID makes it a queue subscription so group members share the
// stream.
func (t *NatsTransport) Subscribe(settings ndstream.Settings, topic string) (ndstream.Subscription, error) {
	if err := checkServers(settings.Broker); err != nil {
		return nil, err
	}

	opts := append([]nats.Option{nats.Name("ndstream-consumer"), nats.MaxReconnects(-1)}, t.options...)
	conn, err := nats.Connect(settings.Broker, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", settings.Broker, err)
	}

	natsSubject := subject(topic)
	var sub *nats.Subscription
	if settings.GroupID != "" {
		sub, err = conn.QueueSubscribeSync(natsSubject, formatForSubject(settings.GroupID))
	} else {
		sub, err = conn.SubscribeSync(natsSubject)
	}
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("subscribe to %s: %w", natsSubject, err)
	}

	t.logger.Debug().Str("subject", natsSubject).Str("group", settings.GroupID).Msg("subscribed")
	return &subscription{topic: topic, conn: conn, sub: sub}, nil
}

func (s *subscription) Next(timeout time.Duration) (*ndstream.Record, error) {
	msg, err := s.sub.NextMsg(timeout)
	if err != nil {
		return nil, mapNextError(err)
	}
	env, err := decodeEnvelope(msg.Data)
	if err != nil {
		return nil, err
	}
	return &ndstream.Record{
		Topic:     s.topic,
		Data:      env.Data,
		Timestamp: time.UnixMilli(env.Timestamp),
	}, nil
}

func mapNextError(err error) error {
	switch {
	case errors.Is(err, nats.ErrTimeout):
		return ndstream.ErrTimeout
	case errors.Is(err, nats.ErrBadSubscription), errors.Is(err, nats.ErrConnectionClosed):
		return ndstream.ErrClosed
	}
	return err
}

func (s *subscription) Close() error {
	err := s.sub.Unsubscribe()
	s.conn.Close()
	if errors.Is(err, nats.ErrConnectionClosed) || errors.Is(err, nats.ErrBadSubscription) {
		return nil
	}
	return err
}
