package ndstream

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RobertWHurst/ndstream/ndarray"
)

func TestMessageIntoWithoutEncoder(t *testing.T) {
	msg := &Message{Data: []byte{1}}

	_, err := msg.Into(ndarray.NewPool(0))

	assert.ErrorIs(t, err, ErrNoEncoder)
}

func TestMessageIntoWith(t *testing.T) {
	decodeErr := errors.New("bad buffer")
	enc := &mockEncoder{
		decodeFunc: func(data []byte, alloc ndarray.Allocator) (*ndarray.Array, error) {
			if data[0] == 0 {
				return nil, decodeErr
			}
			return alloc.Alloc([]uint64{2, 2}, ndarray.Int16)
		},
	}

	_, err := (&Message{}).IntoWith(enc, ndarray.NewPool(0))
	assert.ErrorIs(t, err, ErrEmptyBuffer)

	_, err = (&Message{Data: []byte{0}}).IntoWith(enc, ndarray.NewPool(0))
	assert.ErrorIs(t, err, decodeErr)

	arr, err := (&Message{Data: []byte{1}}).IntoWith(enc, ndarray.NewPool(0))
	require.NoError(t, err)
	assert.Equal(t, ndarray.Int16, arr.DataType)
	assert.Len(t, arr.Data, 8)
}

func TestMessageIntoRejectsOversizedData(t *testing.T) {
	prev := MaxDecodeSize
	MaxDecodeSize = 4
	defer func() { MaxDecodeSize = prev }()

	_, err := (&Message{Data: make([]byte, 5)}).IntoWith(&mockEncoder{}, ndarray.NewPool(0))

	assert.ErrorIs(t, err, ErrMessageTooLarge)
}
