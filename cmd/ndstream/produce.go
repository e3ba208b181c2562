package main

import (
	"context"
	"encoding/binary"
	"errors"
	"flag"
	"math"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/RobertWHurst/ndstream"
	"github.com/RobertWHurst/ndstream/config"
	"github.com/RobertWHurst/ndstream/ndarray"
	"github.com/RobertWHurst/ndstream/plugin"
)

// poolMemory bounds the arrays the simulated detector may have in flight.
const poolMemory = 256 << 20

func runProduce(args []string) error {
	var (
		common commonFlags
		rate   float64
		count  int
		width  uint64
		height uint64
	)
	fs := flag.NewFlagSet("produce", flag.ContinueOnError)
	common.register(fs)
	fs.Float64Var(&rate, "rate", 10, "arrays per second")
	fs.IntVar(&count, "count", 0, "stop after this many arrays, 0 runs until interrupted")
	fs.Uint64Var(&width, "width", 512, "simulated frame width")
	fs.Uint64Var(&height, "height", 512, "simulated frame height")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if rate <= 0 {
		return errors.New("rate must be positive")
	}

	cfg, err := common.load()
	if err != nil {
		return err
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

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	p, err := plugin.New(cfg.PortName, cfg.Producer.Broker, cfg.Producer.Topic, cfg.SourceName, transport, encoder,
		plugin.WithLogger(logger),
		plugin.WithMetrics(reg),
		plugin.WithQueueSize(cfg.QueueSize),
		plugin.WithProducerOptions(ndstream.WithSettings(cfg.Producer)),
	)
	if err != nil {
		return err
	}
	defer p.Close()

	ctx, cancel := signalContext()
	defer cancel()

	if cfg.Metrics.Addr != "" {
		srv := serveMetrics(cfg.Metrics, reg, logger)
		defer srv.Close()
	}

	logger.Info().
		Str("broker", cfg.Producer.Broker).
		Str("topic", cfg.Producer.Topic).
		Str("transport", cfg.Transport).
		Str("encoding", cfg.Encoding).
		Msg("producing simulated arrays")

	sim := &detector{pool: ndarray.NewPool(poolMemory), dims: []uint64{width, height}}
	interval := time.Duration(float64(time.Second) / rate)
	err = produce(ctx, p, sim, interval, count, logger)

	logger.Info().
		Int64("sent", p.ArraysSent()).
		Int32("dropped", p.DroppedArrays()).
		Str("status", p.Producer().Status().State.String()).
		Msg("stopped producing")
	return err
}

func produce(ctx context.Context, p *plugin.Plugin, sim *detector, interval time.Duration, count int, logger zerolog.Logger) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for n := 0; count == 0 || n < count; n++ {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		arr, err := sim.next()
		if err != nil {
			logger.Warn().Err(err).Msg("failed to allocate array")
			continue
		}
		if err := p.Submit(arr); err != nil {
			logger.Debug().Err(err).Int32("uniqueId", arr.UniqueID).Msg("array not sent")
		}
	}
	return nil
}

func serveMetrics(cfg config.MetricsConfig, reg *prometheus.Registry, logger zerolog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle(cfg.Path, promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Str("addr", cfg.Addr).Msg("metrics server failed")
		}
	}()
	logger.Info().Str("addr", cfg.Addr).Str("path", cfg.Path).Msg("serving metrics")
	return srv
}

// detector produces UInt16 frames with a moving gradient, stamped the way a
// driver stamps its arrays.
type detector struct {
	pool   *ndarray.Pool
	dims   []uint64
	frames int32
}

func (d *detector) next() (*ndarray.Array, error) {
	arr, err := d.pool.Alloc(d.dims, ndarray.UInt16)
	if err != nil {
		return nil, err
	}
	d.frames++

	now := time.Now()
	arr.UniqueID = d.frames
	arr.EpicsTS = ndarray.FromTime(now)
	arr.TimeStamp = arr.EpicsTS.Seconds()

	width := d.dims[0]
	for i := 0; i+1 < len(arr.Data); i += 2 {
		px := uint64(i / 2)
		v := uint16((px%width + px/width + uint64(d.frames)) % math.MaxUint16)
		binary.NativeEndian.PutUint16(arr.Data[i:], v)
	}

	exposure := ndarray.Float64Attribute("AcquireTime", "Exposure time", "simulator", 0.1)
	frame := ndarray.Int32Attribute("ArrayCounter", "Frame number", "simulator", d.frames)
	label := ndarray.StringAttribute("Model", "Detector model", "simulator", "ndstream-sim")
	for _, a := range []*ndarray.Attribute{exposure, frame, label} {
		if err := arr.Attributes.Add(a); err != nil {
			arr.Release()
			return nil, err
		}
	}
	return arr, nil
}
