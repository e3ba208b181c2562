package ndstream

import (
	"fmt"
	"time"

	"github.com/RobertWHurst/ndstream/ndarray"
)

// MaxDecodeSize is the largest message Into will decode.
var MaxDecodeSize = 1024 * 1024 * 1024 // 1 GiB

// Message is an encoded array received by a Consumer.
type Message struct {
	Topic     string
	Data      []byte
	Timestamp time.Time

	encoder Encoder
}

// Into decodes the message with the consumer's encoder.
func (m *Message) Into(alloc ndarray.Allocator) (*ndarray.Array, error) {
	if m.encoder == nil {
		return nil, ErrNoEncoder
	}
	return m.IntoWith(m.encoder, alloc)
}

// IntoWith decodes the message with encoder.
func (m *Message) IntoWith(encoder Encoder, alloc ndarray.Allocator) (*ndarray.Array, error) {
	if len(m.Data) == 0 {
		return nil, ErrEmptyBuffer
	}
	if len(m.Data) > MaxDecodeSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrMessageTooLarge, len(m.Data))
	}
	return encoder.Decode(m.Data, alloc)
}
