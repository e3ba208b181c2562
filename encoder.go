package ndstream

import "github.com/RobertWHurst/ndstream/ndarray"

// Encoder defines the interface for array serialization and deserialization.
// Implementations include the ADAr flatbuffer, MessagePack and JSON encoders.
type Encoder interface {
	// Encode serializes arr, stamping it with the encoder's source name. The
	// returned slice may be reused by the next call to Encode.
	Encode(arr *ndarray.Array) ([]byte, error)

	// Decode rebuilds an array from data, allocating it with alloc.
	Decode(data []byte, alloc ndarray.Allocator) (*ndarray.Array, error)

	// SourceName returns the name written into encoded messages.
	SourceName() string

	// SetSourceName changes the name written into encoded messages.
	SetSourceName(name string) error
}
