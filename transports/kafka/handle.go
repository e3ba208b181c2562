package kafka

import (
	"errors"
	"fmt"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"

	"github.com/RobertWHurst/ndstream"
)

// producer is the part of *kafka.Producer a handle uses.
type producer interface {
	Produce(msg *kafka.Message, deliveryChan chan kafka.Event) error
	Events() chan kafka.Event
	Logs() chan kafka.LogEvent
	Flush(timeoutMs int) int
	Close()
}

var _ producer = &kafka.Producer{}

type handle struct {
	producer producer
	events   ndstream.EventHandler
}

var _ ndstream.Handle = &handle{}

func (h *handle) Publish(topic string, data []byte, timestampMs int64) error {
	err := h.producer.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &topic, Partition: kafka.PartitionAny},
		Value:          data,
		Timestamp:      time.UnixMilli(timestampMs),
	}, nil)
	if err != nil {
		return mapProduceError(err)
	}
	return nil
}

func mapProduceError(err error) error {
	var kerr kafka.Error
	if !errors.As(err, &kerr) {
		return err
	}
	switch kerr.Code() {
	case kafka.ErrQueueFull:
		return fmt.Errorf("%w: %w", ndstream.ErrQueueFull, err)
	case kafka.ErrMsgSizeTooLarge:
		return fmt.Errorf("%w: %w", ndstream.ErrMessageTooLarge, err)
	}
	return err
}

// Poll hands every queued event, then every queued log line, to the event
// handler without blocking.
func (h *handle) Poll() {
	events := h.producer.Events()
drainEvents:
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				break drainEvents
			}
			if mapped := mapEvent(ev); mapped != nil {
				h.events(mapped)
			}
		default:
			break drainEvents
		}
	}

	logs := h.producer.Logs()
	for {
		select {
		case l, ok := <-logs:
			if !ok {
				return
			}
			h.events(ndstream.LogEvent{Level: l.Level, Facility: l.Tag, Message: l.Message})
		default:
			return
		}
	}
}

func mapEvent(ev kafka.Event) ndstream.Event {
	switch e := ev.(type) {
	case kafka.Error:
		return ndstream.ErrorEvent{
			Code:           int(e.Code()),
			AllBrokersDown: e.Code() == kafka.ErrAllBrokersDown,
			Reason:         e.String(),
		}
	case *kafka.Stats:
		return ndstream.StatsEvent{JSON: e.String()}
	case *kafka.Message:
		var topic string
		if e.TopicPartition.Topic != nil {
			topic = *e.TopicPartition.Topic
		}
		return ndstream.DeliveryEvent{Topic: topic, Err: e.TopicPartition.Error}
	case kafka.LogEvent:
		return ndstream.LogEvent{Level: e.Level, Facility: e.Tag, Message: e.Message}
	}
	return nil
}

func (h *handle) Flush(timeout time.Duration) int {
	return h.producer.Flush(int(timeout.Milliseconds()))
}

func (h *handle) Close() {
	h.producer.Close()
}
