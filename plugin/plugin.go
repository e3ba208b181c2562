// Package plugin is the areaDetector facing side of ndstream: a plugin that
// encodes every array it is handed and streams it through a Producer, counting
// what it sends and what it drops, and exposing both through host parameters
// and Prometheus metrics.
package plugin

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"gopkg.in/tomb.v2"

	"github.com/RobertWHurst/ndstream"
	"github.com/RobertWHurst/ndstream/ndarray"
	"github.com/RobertWHurst/ndstream/param"
)

// Names the plugin registers its own parameters under.
const (
	ParamSourceName    = "SOURCE_NAME"
	ParamDroppedArrays = "DROPPED_ARRAYS"
	ParamArraysSent    = "ARRAYS_SENT"
	ParamPluginType    = "PLUGIN_TYPE"
)

// PluginType is the value of the PLUGIN_TYPE parameter.
const PluginType = "ndstream"

var ErrNegativeCount = errors.New("counter must not be negative")

type options struct {
	sink         param.Sink
	logger       zerolog.Logger
	registerer   prometheus.Registerer
	queueSize    int
	producerOpts []ndstream.Option
}

// Option configures a Plugin.
type Option func(*options)

// WithSink sets the host parameter library. The default is an in-memory sink.
func WithSink(sink param.Sink) Option {
	return func(o *options) {
		o.sink = sink
	}
}

// WithLogger sets the logger used by the plugin and its producer.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithMetrics registers the plugin's metrics with reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(o *options) {
		o.registerer = reg
	}
}

// WithQueueSize makes Submit non-blocking: arrays wait in a queue of size n
// for a worker goroutine, and are dropped when it is full. Zero, the default,
// processes every array on the caller's goroutine.
func WithQueueSize(n int) Option {
	return func(o *options) {
		o.queueSize = n
	}
}

// WithProducerOptions passes options to the plugin's Producer.
func WithProducerOptions(opts ...ndstream.Option) Option {
	return func(o *options) {
		o.producerOpts = append(o.producerOpts, opts...)
	}
}

type pluginParams struct {
	sourceName    *param.String
	droppedArrays *param.Int32
	arraysSent    *param.Int64
	pluginType    *param.String
}

// Plugin streams arrays to a topic on a broker.
type Plugin struct {
	portName   string
	encoder    ndstream.Encoder
	producer   *ndstream.Producer
	registry   *param.Registry
	logger     zerolog.Logger
	dropLogger zerolog.Logger
	metrics    *Metrics
	params     pluginParams
	queue      chan *ndarray.Array

	// mu serializes encoding and sending. Encoders reuse their output buffer.
	mu sync.Mutex

	dropped atomic.Int32
	sent    atomic.Int64

	// queueMu orders enqueues against Close so no array is queued after the
	// final drain.
	queueMu     sync.Mutex
	queueClosed bool

	closeOnce sync.Once
	tomb      tomb.Tomb
}

// New creates a plugin publishing to topic on broker. sourceName, when not
// empty, replaces the encoder's source name. The producer's poll task is
// started before New returns; a producer that could not be initialised leaves
// the plugin running in its error state, dropping every array.
func New(portName, broker, topic, sourceName string, transport ndstream.Transport, encoder ndstream.Encoder, opts ...Option) (*Plugin, error) {
	if encoder == nil {
		return nil, ndstream.ErrNoEncoder
	}
	if sourceName != "" {
		if err := encoder.SetSourceName(sourceName); err != nil {
			return nil, fmt.Errorf("set source name: %w", err)
		}
	}

	o := options{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.sink == nil {
		o.sink = param.NewMemorySink()
	}
	if o.queueSize < 0 {
		return nil, fmt.Errorf("%w: queue size %d is negative", ndstream.ErrInvalidConfig, o.queueSize)
	}

	logger := o.logger.With().Str("port", portName).Logger()
	p := &Plugin{
		portName:   portName,
		encoder:    encoder,
		registry:   param.NewRegistry(o.sink),
		logger:     logger.With().Str("component", "plugin").Logger(),
		dropLogger: logger.Sample(&zerolog.BasicSampler{N: 100}),
	}

	if o.registerer != nil {
		m, err := NewMetrics(o.registerer, portName)
		if err != nil {
			return nil, err
		}
		p.metrics = m
	}

	producerOpts := append([]ndstream.Option{}, o.producerOpts...)
	producerOpts = append(producerOpts,
		ndstream.WithBroker(broker),
		ndstream.WithTopic(topic),
		ndstream.WithRegistry(p.registry),
		ndstream.WithLogger(logger),
	)
	if p.metrics != nil {
		producerOpts = append(producerOpts, ndstream.WithStatusListener(p.metrics.observeStatus))
	}
	p.producer = ndstream.NewProducer(transport, producerOpts...)

	p.params = p.newParams()
	for _, prm := range []param.Param{p.params.sourceName, p.params.droppedArrays, p.params.arraysSent, p.params.pluginType} {
		if _, err := p.registry.Register(prm); err != nil {
			_ = p.producer.Close()
			return nil, err
		}
	}
	p.registry.Updated(p.params.sourceName, p.params.droppedArrays, p.params.arraysSent, p.params.pluginType)

	if err := p.producer.Start(); err != nil {
		p.logger.Error().Err(err).Msg("producer did not start")
	}

	if o.queueSize > 0 {
		p.queue = make(chan *ndarray.Array, o.queueSize)
		p.tomb.Go(p.work)
	}
	return p, nil
}

func (p *Plugin) newParams() pluginParams {
	return pluginParams{
		sourceName: param.NewString(ParamSourceName,
			p.encoder.SourceName,
			p.encoder.SetSourceName),
		droppedArrays: param.NewInt32(ParamDroppedArrays,
			p.dropped.Load,
			func(v int32) error {
				if v < 0 {
					return ErrNegativeCount
				}
				p.dropped.Store(v)
				return nil
			}),
		arraysSent: param.NewInt64(ParamArraysSent,
			p.sent.Load,
			func(v int64) error {
				if v < 0 {
					return ErrNegativeCount
				}
				p.sent.Store(v)
				return nil
			}),
		pluginType: param.NewString(ParamPluginType,
			func() string { return PluginType },
			nil),
	}
}

// ProcessArray encodes arr and sends it, stamped with the array's EPICS
// timestamp. A failure to encode or send drops the array: DROPPED_ARRAYS is
// incremented once and the error returned.
func (p *Plugin) ProcessArray(arr *ndarray.Array) error {
	p.mu.Lock()
	buf, err := p.encoder.Encode(arr)
	if err == nil {
		if p.metrics != nil {
			p.metrics.encodedBytes.Observe(float64(len(buf)))
		}
		err = p.producer.Send(buf, arr.EpicsTS.Time())
	}
	p.mu.Unlock()

	if err != nil {
		p.drop(arr, err)
		return err
	}
	p.sent.Add(1)
	if p.metrics != nil {
		p.metrics.arraysSent.Inc()
	}
	p.registry.Updated(p.params.arraysSent)
	return nil
}

// Submit hands arr to the plugin, which releases it once processed. Without a
// queue it is ProcessArray on the caller's goroutine. With one it never
// blocks; a full queue drops the array with ndstream.ErrQueueFull.
func (p *Plugin) Submit(arr *ndarray.Array) error {
	if p.queue == nil {
		defer arr.Release()
		return p.ProcessArray(arr)
	}

	p.queueMu.Lock()
	if p.queueClosed {
		p.queueMu.Unlock()
		arr.Release()
		return ndstream.ErrClosed
	}
	select {
	case p.queue <- arr:
		p.queueMu.Unlock()
		return nil
	default:
		p.queueMu.Unlock()
		p.drop(arr, ndstream.ErrQueueFull)
		arr.Release()
		return ndstream.ErrQueueFull
	}
}

func (p *Plugin) work() error {
	for {
		select {
		case <-p.tomb.Dying():
			return nil
		case arr := <-p.queue:
			_ = p.ProcessArray(arr)
			arr.Release()
		}
	}
}

func (p *Plugin) drop(arr *ndarray.Array, err error) {
	p.dropped.Add(1)
	if p.metrics != nil {
		p.metrics.arraysDropped.Inc()
	}
	p.registry.Updated(p.params.droppedArrays)
	p.dropLogger.Warn().Err(err).Int32("uniqueId", arr.UniqueID).Msg("dropped array")
}

// Close stops the queue worker, releases arrays still queued and closes the
// producer.
func (p *Plugin) Close() error {
	var err error
	p.closeOnce.Do(func() {
		if p.queue != nil {
			p.queueMu.Lock()
			p.queueClosed = true
			p.queueMu.Unlock()

			p.tomb.Kill(nil)
			_ = p.tomb.Wait()
		drain:
			for {
				select {
				case arr := <-p.queue:
					arr.Release()
				default:
					break drain
				}
			}
		}
		err = p.producer.Close()
	})
	return err
}

// WriteString writes a string parameter on behalf of the host and publishes
// the accepted value.
func (p *Plugin) WriteString(index int, v string) error {
	if err := p.registry.WriteString(index, v); err != nil {
		return err
	}
	p.updated(index)
	return nil
}

// WriteInt32 writes an int32 parameter on behalf of the host.
func (p *Plugin) WriteInt32(index int, v int32) error {
	if err := p.registry.WriteInt32(index, v); err != nil {
		return err
	}
	p.updated(index)
	return nil
}

// WriteInt64 writes an int64 parameter on behalf of the host.
func (p *Plugin) WriteInt64(index int, v int64) error {
	if err := p.registry.WriteInt64(index, v); err != nil {
		return err
	}
	p.updated(index)
	return nil
}

// ReadString reads a string parameter on behalf of the host.
func (p *Plugin) ReadString(index int) (string, error) { return p.registry.ReadString(index) }

// ReadInt32 reads an int32 parameter on behalf of the host.
func (p *Plugin) ReadInt32(index int) (int32, error) { return p.registry.ReadInt32(index) }

// ReadInt64 reads an int64 parameter on behalf of the host.
func (p *Plugin) ReadInt64(index int) (int64, error) { return p.registry.ReadInt64(index) }

func (p *Plugin) updated(index int) {
	if prm, ok := p.registry.At(index); ok {
		p.registry.Updated(prm)
	}
}

// PortName returns the port name the plugin was created with.
func (p *Plugin) PortName() string { return p.portName }

// Producer returns the producer arrays are sent through.
func (p *Plugin) Producer() *ndstream.Producer { return p.producer }

// Registry returns the plugin's parameter registry.
func (p *Plugin) Registry() *param.Registry { return p.registry }

// DroppedArrays returns how many arrays were dropped on a full queue.
func (p *Plugin) DroppedArrays() int32 { return p.dropped.Load() }

// ArraysSent returns how many arrays were handed to the producer.
func (p *Plugin) ArraysSent() int64 { return p.sent.Load() }
