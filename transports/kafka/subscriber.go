package kafka

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"

	"github.com/RobertWHurst/ndstream"
)

// consumer is the part of *kafka.Consumer a subscription uses.
type consumer interface {
	ReadMessage(timeout time.Duration) (*kafka.Message, error)
	Close() error
}

var _ consumer = &kafka.Consumer{}

type subscription struct {
	consumer consumer
	closed   atomic.Bool
}

var _ ndstream.Subscription = &subscription{}

func (t *KafkaTransport) consumerConfig(settings ndstream.Settings, topic string) (*kafka.ConfigMap, error) {
	if settings.Broker == "" {
		return nil, fmt.Errorf("%w: broker address is empty", ndstream.ErrInvalidConfig)
	}
	groupID := settings.GroupID
	if groupID == "" {
		groupID = "ndstream-" + topic
	}

	cm := kafka.ConfigMap{}
	for k, v := range t.extra {
		cm[k] = v
	}
	cm["bootstrap.servers"] = settings.Broker
	cm["group.id"] = groupID
	cm["auto.offset.reset"] = "latest"
	cm["enable.partition.eof"] = false
	if settings.MaxMessageSize > 0 {
		cm["fetch.max.bytes"] = min(max(settings.MaxMessageSize+MessageOverhead, MinMessageMaxBytes), MaxMessageMaxBytes)
	}
	return &cm, nil
}

// Subscribe creates a consumer in settings.GroupID, or a group named after the
// topic when none is set, and subscribes it to topic.
func (t *KafkaTransport) Subscribe(settings ndstream.Settings, topic string) (ndstream.Subscription, error) {
	cm, err := t.consumerConfig(settings, topic)
	if err != nil {
		return nil, err
	}
	c, err := kafka.NewConsumer(cm)
	if err != nil {
		return nil, fmt.Errorf("create consumer: %w", err)
	}
	if err := c.SubscribeTopics([]string{topic}, nil); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("subscribe to %s: %w", topic, err)
	}
	t.logger.Debug().Str("topic", topic).Msg("subscribed")
	return &subscription{consumer: c}, nil
}

func (s *subscription) Next(timeout time.Duration) (*ndstream.Record, error) {
	if s.closed.Load() {
		return nil, ndstream.ErrClosed
	}
	msg, err := s.consumer.ReadMessage(timeout)
	if err != nil {
		var kerr kafka.Error
		if errors.As(err, &kerr) && kerr.Code() == kafka.ErrTimedOut {
			return nil, ndstream.ErrTimeout
		}
		if s.closed.Load() {
			return nil, ndstream.ErrClosed
		}
		return nil, err
	}

	var topic string
	if msg.TopicPartition.Topic != nil {
		topic = *msg.TopicPartition.Topic
	}
	return &ndstream.Record{Topic: topic, Data: msg.Value, Timestamp: msg.Timestamp}, nil
}

func (s *subscription) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.consumer.Close()
}
