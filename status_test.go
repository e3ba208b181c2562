package ndstream

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseStats(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		current  Status
		expected Status
	}{
		{
			name:     "broker array with one up",
			raw:      `{"brokers":[{"state":"UP"}],"msg_cnt":3}`,
			expected: Status{State: StatusConnected, Message: "No errors.", Unsent: 3},
		},
		{
			name:     "librdkafka broker object",
			raw:      `{"name":"rdkafka#producer-1","brokers":{"localhost:9092/1":{"state":"DOWN"},"localhost:9093/2":{"state":"UP"}},"msg_cnt":7}`,
			expected: Status{State: StatusConnected, Message: "No errors.", Unsent: 7},
		},
		{
			name:     "all brokers down",
			raw:      `{"brokers":{"a":{"state":"DOWN"},"b":{"state":"CONNECT"}},"msg_cnt":1}`,
			expected: Status{State: StatusDisconnected, Message: "Brokers down. Attempting reconnection.", Unsent: 1},
		},
		{
			name:     "empty broker array",
			raw:      `{"brokers":[]}`,
			current:  Status{Unsent: 5},
			expected: Status{State: StatusError, Message: "Status msg.: No brokers.", Unsent: 0},
		},
		{
			name:     "brokers absent",
			raw:      `{"msg_cnt":2}`,
			expected: Status{State: StatusError, Message: "Status msg.: No brokers.", Unsent: 2},
		},
		{
			name:     "fractional notation message count",
			raw:      `{"brokers":[{"state":"UP"}],"msg_cnt":3.0}`,
			expected: Status{State: StatusConnected, Message: "No errors.", Unsent: 3},
		},
		{
			name:     "exponent notation message count",
			raw:      `{"brokers":[{"state":"UP"}],"msg_cnt":1e2}`,
			expected: Status{State: StatusConnected, Message: "No errors.", Unsent: 100},
		},
		{
			name:     "unparsable keeps unsent count",
			raw:      `{"brokers": [`,
			current:  Status{State: StatusConnected, Message: "No errors.", Unsent: 4},
			expected: Status{State: StatusError, Message: "Status msg.: Unable to parse.", Unsent: 4},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseStats(tt.raw, tt.current))
		})
	}
}

func TestConnectionStatusString(t *testing.T) {
	assert.Equal(t, "connected", StatusConnected.String())
	assert.Equal(t, "error", StatusError.String())
	assert.Equal(t, "ConnectionStatus(9)", ConnectionStatus(9).String())
}
