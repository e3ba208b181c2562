package main

import (
	"fmt"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/rs/zerolog"

	"github.com/RobertWHurst/ndstream"
	"github.com/RobertWHurst/ndstream/config"
	"github.com/RobertWHurst/ndstream/encoders/flatbufferencoder"
	"github.com/RobertWHurst/ndstream/encoders/jsonencoder"
	"github.com/RobertWHurst/ndstream/encoders/msgpackencoder"
	kafkatransport "github.com/RobertWHurst/ndstream/transports/kafka"
	natstransport "github.com/RobertWHurst/ndstream/transports/nats"
)

// brokerClient is what both transports provide.
type brokerClient interface {
	ndstream.Transport
	ndstream.Subscriber
}

func newTransport(cfg *config.Config, logger zerolog.Logger) (brokerClient, error) {
	switch cfg.Transport {
	case config.TransportKafka:
		extra := kafka.ConfigMap{}
		for k, v := range cfg.Kafka {
			extra[k] = v
		}
		return kafkatransport.NewKafkaTransport(
			kafkatransport.WithConfig(extra),
			kafkatransport.WithLogger(logger),
		), nil
	case config.TransportNATS:
		return natstransport.NewNatsTransport(natstransport.WithLogger(logger)), nil
	default:
		return nil, fmt.Errorf("%w: unknown transport %q", ndstream.ErrInvalidConfig, cfg.Transport)
	}
}

func newEncoder(cfg *config.Config) (ndstream.Encoder, error) {
	var (
		enc ndstream.Encoder
		err error
	)
	switch cfg.Encoding {
	case config.EncodingFlatbuffer:
		enc, err = flatbufferencoder.New(cfg.SourceName)
	case config.EncodingMsgpack:
		enc, err = msgpackencoder.New(cfg.SourceName)
	case config.EncodingJSON:
		enc, err = jsonencoder.New(cfg.SourceName)
	default:
		err = fmt.Errorf("%w: unknown encoding %q", ndstream.ErrInvalidConfig, cfg.Encoding)
	}
	if err != nil {
		return nil, err
	}
	return enc, nil
}
