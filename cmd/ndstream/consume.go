package main

import (
	"errors"
	"flag"
	"time"

	"github.com/RobertWHurst/ndstream"
	"github.com/RobertWHurst/ndstream/ndarray"
)

func runConsume(args []string) error {
	var (
		common  commonFlags
		groupID string
		limit   int
	)
	fs := flag.NewFlagSet("consume", flag.ContinueOnError)
	common.register(fs)
	fs.StringVar(&groupID, "group", "", "consumer group, defaults to one per topic")
	fs.IntVar(&limit, "count", 0, "stop after this many arrays, 0 runs until interrupted")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := common.load()
	if err != nil {
		return err
	}
	if groupID != "" {
		cfg.Producer.GroupID = groupID
	}
	logger := newLogger(cfg)

	transport, err := newTransport(cfg, logger)
	if err != nil {
		return err
	}
	encoder, err := newEncoder(cfg)
	if err != nil {
		return err
	}

	consumer, err := ndstream.NewConsumer(transport, cfg.Producer, cfg.Producer.Topic,
		ndstream.WithEncoder(encoder),
		ndstream.WithLogger(logger),
	)
	if err != nil {
		return err
	}
	defer consumer.Close()

	ctx, cancel := signalContext()
	defer cancel()

	pool := ndarray.NewPool(poolMemory)
	logger.Info().Str("topic", cfg.Producer.Topic).Str("broker", cfg.Producer.Broker).Msg("consuming arrays")

	for n := 0; limit == 0 || n < limit; {
		if ctx.Err() != nil {
			return nil
		}

		msg, err := consumer.WaitForMessage(time.Second)
		switch {
		case errors.Is(err, ndstream.ErrTimeout):
			continue
		case errors.Is(err, ndstream.ErrClosed):
			return nil
		case err != nil:
			return err
		}

		arr, err := msg.Into(pool)
		if err != nil {
			logger.Warn().Err(err).Int("bytes", len(msg.Data)).Msg("failed to decode array")
			continue
		}
		n++

		logger.Info().
			Int32("uniqueId", arr.UniqueID).
			Str("dataType", arr.DataType.String()).
			Uints64("dims", arr.Dims).
			Int("bytes", len(arr.Data)).
			Int("attributes", arr.Attributes.Len()).
			Time("epicsTime", arr.EpicsTS.Time()).
			Dur("latency", time.Since(arr.EpicsTS.Time())).
			Msg("received array")
		arr.Release()
	}
	return nil
}
