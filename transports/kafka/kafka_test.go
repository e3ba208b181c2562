package kafka

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RobertWHurst/ndstream"
)

type mockProducer struct {
	produceFunc func(msg *kafka.Message) error

	produced []*kafka.Message
	events   chan kafka.Event
	logs     chan kafka.LogEvent
	flushed  []int
	closed   bool
}

func newMockProducer() *mockProducer {
	return &mockProducer{
		events: make(chan kafka.Event, 8),
		logs:   make(chan kafka.LogEvent, 8),
	}
}

func (m *mockProducer) Produce(msg *kafka.Message, _ chan kafka.Event) error {
	if m.produceFunc != nil {
		return m.produceFunc(msg)
	}
	m.produced = append(m.produced, msg)
	return nil
}

func (m *mockProducer) Events() chan kafka.Event  { return m.events }
func (m *mockProducer) Logs() chan kafka.LogEvent { return m.logs }
func (m *mockProducer) Close()                    { m.closed = true }

func (m *mockProducer) Flush(timeoutMs int) int {
	m.flushed = append(m.flushed, timeoutMs)
	return 0
}

type mockConsumer struct {
	readFunc func(timeout time.Duration) (*kafka.Message, error)
	closes   int
}

func (m *mockConsumer) ReadMessage(timeout time.Duration) (*kafka.Message, error) {
	return m.readFunc(timeout)
}

func (m *mockConsumer) Close() error {
	m.closes++
	return nil
}

func TestProducerConfig(t *testing.T) {
	transport := NewKafkaTransport(WithConfig(kafka.ConfigMap{"security.protocol": "SSL", "statistics.interval.ms": 1}))
	settings := ndstream.DefaultSettings()
	settings.Broker = "broker1:9092,broker2:9092"
	settings.MaxMessageSize = 4096
	settings.StatsInterval = 250 * time.Millisecond

	cm, err := transport.producerConfig(settings)
	require.NoError(t, err)

	assert.Equal(t, kafka.ConfigValue("broker1:9092,broker2:9092"), (*cm)["bootstrap.servers"])
	assert.Equal(t, kafka.ConfigValue(250), (*cm)["statistics.interval.ms"])
	assert.Equal(t, kafka.ConfigValue(ndstream.DefaultMessageQueueLength), (*cm)["queue.buffering.max.messages"])
	assert.Equal(t, kafka.ConfigValue(ndstream.DefaultMessageBufferKbytes), (*cm)["queue.buffering.max.kbytes"])
	assert.Equal(t, kafka.ConfigValue(4096+MessageOverhead), (*cm)["message.max.bytes"])
	assert.Equal(t, kafka.ConfigValue(4096), (*cm)["message.copy.max.bytes"])
	assert.Equal(t, kafka.ConfigValue("SSL"), (*cm)["security.protocol"])
}

func TestProducerConfigLeavesUnsetSizeAlone(t *testing.T) {
	cm, err := NewKafkaTransport().producerConfig(ndstream.DefaultSettings())
	require.NoError(t, err)

	_, ok := (*cm)["message.max.bytes"]
	assert.False(t, ok)
	_, ok = (*cm)["bootstrap.servers"]
	assert.False(t, ok)
}

func TestApplyRejectsOutOfRange(t *testing.T) {
	tests := []struct {
		name   string
		change func(s *ndstream.Settings)
	}{
		{name: "message size", change: func(s *ndstream.Settings) { s.MaxMessageSize = MaxMessageMaxBytes }},
		{name: "queue length", change: func(s *ndstream.Settings) { s.MessageQueueLength = MaxQueueMessages + 1 }},
		{name: "stats interval", change: func(s *ndstream.Settings) { s.StatsInterval = 2 * 24 * time.Hour }},
		{name: "invalid settings", change: func(s *ndstream.Settings) { s.MessageBufferKbytes = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings := ndstream.DefaultSettings()
			tt.change(&settings)

			assert.ErrorIs(t, NewKafkaTransport().Apply(settings), ndstream.ErrInvalidConfig)
		})
	}
}

func TestHandlePublish(t *testing.T) {
	p := newMockProducer()
	h := &handle{producer: p, events: func(ndstream.Event) {}}

	require.NoError(t, h.Publish("detector", []byte("frame"), 1700000000123))

	require.Len(t, p.produced, 1)
	msg := p.produced[0]
	assert.Equal(t, "detector", *msg.TopicPartition.Topic)
	assert.Equal(t, kafka.PartitionAny, msg.TopicPartition.Partition)
	assert.Equal(t, []byte("frame"), msg.Value)
	assert.Equal(t, int64(1700000000123), msg.Timestamp.UnixMilli())
}

func TestHandlePublishMapsErrors(t *testing.T) {
	tests := []struct {
		code kafka.ErrorCode
		want error
	}{
		{code: kafka.ErrQueueFull, want: ndstream.ErrQueueFull},
		{code: kafka.ErrMsgSizeTooLarge, want: ndstream.ErrMessageTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.code.String(), func(t *testing.T) {
			p := newMockProducer()
			p.produceFunc = func(*kafka.Message) error { return kafka.NewError(tt.code, "rejected", false) }
			h := &handle{producer: p, events: func(ndstream.Event) {}}

			assert.ErrorIs(t, h.Publish("detector", []byte("x"), 0), tt.want)
		})
	}

	other := errors.New("boom")
	p := newMockProducer()
	p.produceFunc = func(*kafka.Message) error { return other }
	h := &handle{producer: p, events: func(ndstream.Event) {}}
	assert.Same(t, other, h.Publish("detector", []byte("x"), 0))
}

func TestHandlePollMapsEvents(t *testing.T) {
	p := newMockProducer()
	var got []ndstream.Event
	h := &handle{producer: p, events: func(ev ndstream.Event) { got = append(got, ev) }}
	topic := "detector"
	deliveryErr := kafka.NewError(kafka.ErrMsgTimedOut, "timed out", false)

	p.events <- kafka.NewError(kafka.ErrAllBrokersDown, "all brokers down", false)
	p.events <- kafka.NewError(kafka.ErrTransport, "transport failure", false)
	p.events <- &kafka.Message{TopicPartition: kafka.TopicPartition{Topic: &topic, Error: deliveryErr}}
	p.events <- kafka.PartitionEOF{}
	p.logs <- kafka.LogEvent{Tag: "BROKER", Message: "connected", Level: 7}

	h.Poll()

	require.Len(t, got, 4)
	down := got[0].(ndstream.ErrorEvent)
	assert.True(t, down.AllBrokersDown)
	assert.Equal(t, int(kafka.ErrAllBrokersDown), down.Code)
	assert.False(t, got[1].(ndstream.ErrorEvent).AllBrokersDown)
	delivery := got[2].(ndstream.DeliveryEvent)
	assert.Equal(t, "detector", delivery.Topic)
	assert.ErrorIs(t, delivery.Err, deliveryErr)
	assert.Equal(t, ndstream.LogEvent{Level: 7, Facility: "BROKER", Message: "connected"}, got[3])

	h.Poll()
	assert.Len(t, got, 4)
}

func TestHandlePollDeliversEventsBeforeLogs(t *testing.T) {
	for range 50 {
		p := newMockProducer()
		var got []ndstream.Event
		h := &handle{producer: p, events: func(ev ndstream.Event) { got = append(got, ev) }}
		for i := range 3 {
			p.logs <- kafka.LogEvent{Tag: "BROKER", Message: fmt.Sprintf("line %d", i), Level: 6}
			p.events <- kafka.NewError(kafka.ErrTransport, fmt.Sprintf("failure %d", i), false)
		}

		h.Poll()

		require.Len(t, got, 6)
		for i := range 3 {
			assert.IsType(t, ndstream.ErrorEvent{}, got[i])
			assert.Equal(t, ndstream.LogEvent{Level: 6, Facility: "BROKER", Message: fmt.Sprintf("line %d", i)}, got[3+i])
		}
	}
}

func TestHandleFlushAndClose(t *testing.T) {
	p := newMockProducer()
	h := &handle{producer: p}

	assert.Zero(t, h.Flush(1500*time.Millisecond))
	h.Close()

	assert.Equal(t, []int{1500}, p.flushed)
	assert.True(t, p.closed)
}

func TestConsumerConfig(t *testing.T) {
	transport := NewKafkaTransport()
	settings := ndstream.DefaultSettings()

	_, err := transport.consumerConfig(settings, "detector")
	assert.ErrorIs(t, err, ndstream.ErrInvalidConfig)

	settings.Broker = "localhost:9092"
	cm, err := transport.consumerConfig(settings, "detector")
	require.NoError(t, err)
	assert.Equal(t, kafka.ConfigValue("ndstream-detector"), (*cm)["group.id"])

	settings.GroupID = "viewers"
	cm, err = transport.consumerConfig(settings, "detector")
	require.NoError(t, err)
	assert.Equal(t, kafka.ConfigValue("viewers"), (*cm)["group.id"])
}

func TestSubscriptionNext(t *testing.T) {
	topic := "detector"
	ts := time.UnixMilli(1700000000000)
	reads := []func() (*kafka.Message, error){
		func() (*kafka.Message, error) { return nil, kafka.NewError(kafka.ErrTimedOut, "timed out", false) },
		func() (*kafka.Message, error) {
			return &kafka.Message{TopicPartition: kafka.TopicPartition{Topic: &topic}, Value: []byte("frame"), Timestamp: ts}, nil
		},
	}
	c := &mockConsumer{readFunc: func(time.Duration) (*kafka.Message, error) {
		read := reads[0]
		reads = reads[1:]
		return read()
	}}
	s := &subscription{consumer: c}

	_, err := s.Next(time.Millisecond)
	assert.ErrorIs(t, err, ndstream.ErrTimeout)

	record, err := s.Next(time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, &ndstream.Record{Topic: "detector", Data: []byte("frame"), Timestamp: ts}, record)

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	assert.Equal(t, 1, c.closes)
	_, err = s.Next(time.Millisecond)
	assert.ErrorIs(t, err, ndstream.ErrClosed)
}
