package ndstream

import (
	"time"

	"github.com/RobertWHurst/ndstream/param"
)

// Names the producer registers its parameters under.
const (
	ParamReconnectFlush    = "KAFKA_RECONNECT_FLUSH"
	ParamFlushTime         = "KAFKA_FLUSH_TIME"
	ParamMsgBufferSize     = "KAFKA_MSG_BUFFER_SIZE"
	ParamMaxMsgSize        = "KAFKA_MAX_MSG_SIZE"
	ParamUnsentPackets     = "KAFKA_UNSENT_PACKETS"
	ParamConnectionStatus  = "KAFKA_CONNECTION_STATUS"
	ParamConnectionMessage = "KAFKA_CONNECTION_MESSAGE"
	ParamTopic             = "KAFKA_TOPIC"
	ParamBrokerAddress     = "KAFKA_BROKER_ADDRESS"
	ParamStatsIntervalMs   = "KAFKA_STATS_INT_MS"
	ParamQueueSize         = "KAFKA_QUEUE_SIZE"
)

type producerParams struct {
	reconnectFlush    *param.Int32
	flushTime         *param.Int32
	msgBufferSize     *param.Int32
	maxMsgSize        *param.Int32
	unsentPackets     *param.Int32
	connectionStatus  *param.Int32
	connectionMessage *param.String
	topic             *param.String
	broker            *param.String
	statsInterval     *param.Int32
	queueSize         *param.Int32
}

func (p *Producer) newParams() producerParams {
	return producerParams{
		reconnectFlush: param.NewInt32(ParamReconnectFlush,
			func() int32 { return boolToInt32(p.FlushOnReconnect()) },
			func(v int32) error { return p.SetFlushOnReconnect(v != 0) }),
		flushTime: param.NewInt32(ParamFlushTime,
			func() int32 { return int32(p.FlushTimeout().Milliseconds()) },
			func(v int32) error { return p.SetFlushTimeout(time.Duration(v) * time.Millisecond) }),
		msgBufferSize: param.NewInt32(ParamMsgBufferSize,
			func() int32 { return int32(p.MessageBufferKbytes()) },
			func(v int32) error { return p.SetMessageBufferKbytes(int(v)) }),
		maxMsgSize: param.NewInt32(ParamMaxMsgSize,
			func() int32 { return int32(p.MaxMessageSize()) },
			func(v int32) error { return p.SetMaxMessageSize(int(v)) }),
		unsentPackets: param.NewInt32(ParamUnsentPackets,
			func() int32 { return int32(p.Status().Unsent) },
			nil),
		connectionStatus: param.NewInt32(ParamConnectionStatus,
			func() int32 { return int32(p.Status().State) },
			nil),
		connectionMessage: param.NewString(ParamConnectionMessage,
			func() string { return p.Status().Message },
			nil),
		topic: param.NewString(ParamTopic,
			p.Topic,
			p.SetTopic),
		broker: param.NewString(ParamBrokerAddress,
			p.Broker,
			p.SetBroker),
		statsInterval: param.NewInt32(ParamStatsIntervalMs,
			func() int32 { return int32(p.StatsInterval().Milliseconds()) },
			func(v int32) error { return p.SetStatsInterval(time.Duration(v) * time.Millisecond) }),
		queueSize: param.NewInt32(ParamQueueSize,
			func() int32 { return int32(p.MessageQueueLength()) },
			func(v int32) error { return p.SetMessageQueueLength(int(v)) }),
	}
}

func (pp producerParams) all() []param.Param {
	return []param.Param{
		pp.reconnectFlush,
		pp.flushTime,
		pp.msgBufferSize,
		pp.maxMsgSize,
		pp.unsentPackets,
		pp.connectionStatus,
		pp.connectionMessage,
		pp.topic,
		pp.broker,
		pp.statsInterval,
		pp.queueSize,
	}
}

// Params returns the producer's parameters in registration order.
func (p *Producer) Params() []param.Param {
	return p.params.all()
}

func boolToInt32(b bool) int32 {
	if b {
		return 1
	}
	return 0
}
