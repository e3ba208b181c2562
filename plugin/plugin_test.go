package plugin

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RobertWHurst/ndstream"
	"github.com/RobertWHurst/ndstream/encoders/flatbufferencoder"
	"github.com/RobertWHurst/ndstream/ndarray"
	"github.com/RobertWHurst/ndstream/param"
)

func newTestPlugin(t *testing.T, transport *mockTransport, opts ...Option) (*Plugin, *param.MemorySink) {
	t.Helper()
	enc, err := flatbufferencoder.New("detector-1")
	require.NoError(t, err)
	sink := param.NewMemorySink()
	opts = append([]Option{WithSink(sink)}, opts...)
	p, err := New("NDS1", "localhost:9092", "detector", "", transport, enc, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })
	return p, sink
}

func testArray(t *testing.T, alloc ndarray.Allocator) *ndarray.Array {
	t.Helper()
	arr, err := alloc.Alloc([]uint64{4, 2}, ndarray.UInt16)
	require.NoError(t, err)
	for i := range arr.Data {
		arr.Data[i] = byte(i)
	}
	arr.UniqueID = 7
	arr.EpicsTS = ndarray.TimeStamp{SecPastEpoch: 1045207320, Nsec: 5000000}
	require.NoError(t, arr.Attributes.Add(ndarray.Int32Attribute("gain", "", "driver", 3)))
	return arr
}

func paramIndex(t *testing.T, p *Plugin, name string) int {
	t.Helper()
	_, index, ok := p.Registry().Lookup(name)
	require.True(t, ok, name)
	return index
}

func TestNewRegistersParams(t *testing.T) {
	p, sink := newTestPlugin(t, &mockTransport{})

	assert.Equal(t, len(p.Producer().Params())+4, sink.Len())

	v, ok := sink.ValueByName(ParamPluginType)
	require.True(t, ok)
	assert.Equal(t, PluginType, v)

	v, _ = sink.ValueByName(ParamSourceName)
	assert.Equal(t, "detector-1", v)
	v, _ = sink.ValueByName(ParamDroppedArrays)
	assert.Equal(t, int32(0), v)
	v, _ = sink.ValueByName(ParamArraysSent)
	assert.Equal(t, int64(0), v)

	assert.Equal(t, "NDS1", p.PortName())
	assert.Equal(t, "localhost:9092", p.Producer().Broker())
	assert.Equal(t, "detector", p.Producer().Topic())
}

func TestNewOverridesSourceName(t *testing.T) {
	enc, err := flatbufferencoder.New("detector-1")
	require.NoError(t, err)

	p, err := New("NDS1", "localhost:9092", "detector", "override", &mockTransport{}, enc)
	require.NoError(t, err)
	defer p.Close()

	assert.Equal(t, "override", enc.SourceName())
}

func TestNewRejectsBadArguments(t *testing.T) {
	_, err := New("NDS1", "localhost:9092", "detector", "", &mockTransport{}, nil)
	assert.ErrorIs(t, err, ndstream.ErrNoEncoder)

	enc, err := flatbufferencoder.New("detector-1")
	require.NoError(t, err)
	_, err = New("NDS1", "localhost:9092", "detector", "", &mockTransport{}, enc, WithQueueSize(-1))
	assert.ErrorIs(t, err, ndstream.ErrInvalidConfig)
}

func TestProcessArraySends(t *testing.T) {
	transport := &mockTransport{}
	p, sink := newTestPlugin(t, transport)
	arr := testArray(t, ndarray.NewPool(0))

	require.NoError(t, p.ProcessArray(arr))

	sent := transport.lastHandle().sent()
	require.Len(t, sent, 1)
	assert.Equal(t, arr.EpicsTS.Time().UnixMilli(), sent[0].timestampMs)

	dec, err := flatbufferencoder.New("decoder")
	require.NoError(t, err)
	got, err := dec.Decode(sent[0].data, ndarray.NewPool(0))
	require.NoError(t, err)
	assert.Equal(t, int32(7), got.UniqueID)
	assert.Equal(t, arr.Dims, got.Dims)
	assert.Equal(t, arr.Data, got.Data)
	assert.Equal(t, arr.EpicsTS, got.EpicsTS)

	assert.Equal(t, int64(1), p.ArraysSent())
	assert.Equal(t, int32(0), p.DroppedArrays())
	v, _ := sink.ValueByName(ParamArraysSent)
	assert.Equal(t, int64(1), v)
}

func TestProcessArrayDropsOnSendFailure(t *testing.T) {
	transport := &mockTransport{publishFunc: func(string, []byte, int64) error {
		return ndstream.ErrQueueFull
	}}
	p, sink := newTestPlugin(t, transport)

	err := p.ProcessArray(testArray(t, ndarray.NewPool(0)))

	assert.ErrorIs(t, err, ndstream.ErrQueueFull)
	assert.Equal(t, int32(1), p.DroppedArrays())
	assert.Zero(t, p.ArraysSent())
	v, _ := sink.ValueByName(ParamDroppedArrays)
	assert.Equal(t, int32(1), v)
}

func TestProcessArrayDropsOnEncodeFailure(t *testing.T) {
	transport := &mockTransport{}
	p, _ := newTestPlugin(t, transport)
	arr := testArray(t, ndarray.NewPool(0))
	arr.Data = arr.Data[:3]

	err := p.ProcessArray(arr)

	assert.ErrorIs(t, err, ndarray.ErrPayloadSize)
	assert.Equal(t, int32(1), p.DroppedArrays())
	if h := transport.lastHandle(); h != nil {
		assert.Empty(t, h.sent())
	}
}

func TestHostWritesSourceName(t *testing.T) {
	p, sink := newTestPlugin(t, &mockTransport{})
	index := paramIndex(t, p, ParamSourceName)

	require.NoError(t, p.WriteString(index, "renamed"))
	got, err := p.ReadString(index)
	require.NoError(t, err)
	assert.Equal(t, "renamed", got)
	v, _ := sink.ValueByName(ParamSourceName)
	assert.Equal(t, "renamed", v)

	err = p.WriteString(index, "")
	assert.ErrorIs(t, err, flatbufferencoder.ErrEmptySourceName)
	got, _ = p.ReadString(index)
	assert.Equal(t, "renamed", got)
}

func TestHostResetsCounters(t *testing.T) {
	transport := &mockTransport{}
	p, sink := newTestPlugin(t, transport)
	require.NoError(t, p.ProcessArray(testArray(t, ndarray.NewPool(0))))
	bad := testArray(t, ndarray.NewPool(0))
	bad.Data = nil
	require.Error(t, p.ProcessArray(bad))

	dropped := paramIndex(t, p, ParamDroppedArrays)
	sent := paramIndex(t, p, ParamArraysSent)

	n, err := p.ReadInt32(dropped)
	require.NoError(t, err)
	assert.Equal(t, int32(1), n)

	require.NoError(t, p.WriteInt32(dropped, 0))
	require.NoError(t, p.WriteInt64(sent, 0))
	assert.Zero(t, p.DroppedArrays())
	assert.Zero(t, p.ArraysSent())
	v, _ := sink.ValueByName(ParamDroppedArrays)
	assert.Equal(t, int32(0), v)

	assert.ErrorIs(t, p.WriteInt32(dropped, -1), ErrNegativeCount)
	assert.ErrorIs(t, p.WriteInt64(sent, -1), ErrNegativeCount)
}

func TestPluginTypeIsReadOnly(t *testing.T) {
	p, _ := newTestPlugin(t, &mockTransport{})
	index := paramIndex(t, p, ParamPluginType)

	assert.ErrorIs(t, p.WriteString(index, "other"), param.ErrReadOnly)
	got, err := p.ReadString(index)
	require.NoError(t, err)
	assert.Equal(t, PluginType, got)
}

func TestHostWritesReachProducer(t *testing.T) {
	transport := &mockTransport{}
	p, _ := newTestPlugin(t, transport)
	index := paramIndex(t, p, ndstream.ParamTopic)

	require.NoError(t, p.WriteString(index, "detector-2"))

	assert.Equal(t, "detector-2", p.Producer().Topic())
}

func TestSubmitReleasesArray(t *testing.T) {
	p, _ := newTestPlugin(t, &mockTransport{})
	pool := ndarray.NewPool(0)

	require.NoError(t, p.Submit(testArray(t, pool)))

	assert.Zero(t, pool.NumAllocated())
	assert.Equal(t, int64(1), p.ArraysSent())
}

func TestSubmitQueueDropsWhenFull(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	transport := &mockTransport{publishFunc: func(string, []byte, int64) error {
		once.Do(func() {
			close(started)
			<-release
		})
		return nil
	}}
	p, _ := newTestPlugin(t, transport, WithQueueSize(1))
	pool := ndarray.NewPool(0)

	require.NoError(t, p.Submit(testArray(t, pool)))
	select {
	case <-started:
	case <-time.After(time.Second):
		t.Fatal("worker did not pick up the array")
	}
	require.NoError(t, p.Submit(testArray(t, pool)))

	err := p.Submit(testArray(t, pool))
	assert.ErrorIs(t, err, ndstream.ErrQueueFull)
	assert.Equal(t, int32(1), p.DroppedArrays())

	close(release)
	assert.Eventually(t, func() bool { return p.ArraysSent() == 2 }, time.Second, 5*time.Millisecond)
	assert.Eventually(t, func() bool { return pool.NumAllocated() == 0 }, time.Second, 5*time.Millisecond)
}

func TestSubmitAfterClose(t *testing.T) {
	p, _ := newTestPlugin(t, &mockTransport{}, WithQueueSize(4))
	pool := ndarray.NewPool(0)
	require.NoError(t, p.Close())

	err := p.Submit(testArray(t, pool))

	assert.ErrorIs(t, err, ndstream.ErrClosed)
	assert.Zero(t, pool.NumAllocated())
}

func TestCloseClosesProducer(t *testing.T) {
	transport := &mockTransport{}
	p, _ := newTestPlugin(t, transport)

	require.NoError(t, p.Close())
	require.NoError(t, p.Close())

	assert.True(t, transport.lastHandle().closed)
	assert.ErrorIs(t, p.ProcessArray(testArray(t, ndarray.NewPool(0))), ndstream.ErrClosed)
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	p, _ := newTestPlugin(t, &mockTransport{}, WithMetrics(reg))

	require.NoError(t, p.ProcessArray(testArray(t, ndarray.NewPool(0))))
	require.NoError(t, p.ProcessArray(testArray(t, ndarray.NewPool(0))))
	bad := testArray(t, ndarray.NewPool(0))
	bad.Data = bad.Data[:1]
	require.Error(t, p.ProcessArray(bad))

	assert.Equal(t, 2.0, testutil.ToFloat64(p.metrics.arraysSent))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.metrics.arraysDropped))
	assert.Equal(t, float64(p.Producer().Status().State), testutil.ToFloat64(p.metrics.connectionStatus))
	assert.Equal(t, 5, testutil.CollectAndCount(reg))

	enc, err := flatbufferencoder.New("detector-2")
	require.NoError(t, err)
	_, err = New("NDS1", "localhost:9092", "detector", "", &mockTransport{}, enc, WithMetrics(reg))
	assert.Error(t, err)
}

func TestCloseRacingSubmitReleasesEveryArray(t *testing.T) {
	for range 20 {
		p, _ := newTestPlugin(t, &mockTransport{}, WithQueueSize(4))
		pool := ndarray.NewPool(0)

		var wg sync.WaitGroup
		for range 4 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for {
					arr, err := pool.Alloc([]uint64{16}, ndarray.UInt8)
					if err != nil {
						return
					}
					if err := p.Submit(arr); errors.Is(err, ndstream.ErrClosed) {
						return
					}
				}
			}()
		}
		time.Sleep(time.Millisecond)
		require.NoError(t, p.Close())
		wg.Wait()

		assert.Zero(t, pool.NumAllocated())
	}
}
